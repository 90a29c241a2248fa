package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"energisense/internal/models"
	"energisense/internal/service"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is the body returned by a successful registration.
type RegisterResponse struct {
	ID    string      `json:"id" example:"6f1c..."`
	Email string      `json:"email" example:"operator@example.com"`
	Role  models.Role `json:"role" example:"user"`
	Msg   string      `json:"msg"`
}

// LoginResponse carries the token plus role and email in plaintext for the client.
type LoginResponse struct {
	Token string      `json:"token"`
	Role  models.Role `json:"role" example:"admin"`
	Email string      `json:"email" example:"admin@example.com"`
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return false
	}
	return true
}

// @Summary      Register account
// @Description  Requires an admin token unless open registration is enabled.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Credentials and optional role (user|admin)"
// @Success      201   {object}  RegisterResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/auth/register [post]
// @Security     BearerAuth
func (h *Handler) register(c *gin.Context) {
	var input registerRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}
	role, err := models.ParseRole(input.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acc, err := h.services.Register(c.Request.Context(), input.Email, input.Password, role)
	switch {
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": errEmailTaken})
		return
	case errors.Is(err, service.ErrMissingCredentials), errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrPasswordTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logAndJSONError(c, http.StatusInternalServerError, errRegister, "auth_register_failed", err, "email", input.Email)
		return
	}

	if h.log != nil {
		h.log.Infow("auth_registered", "email", acc.Email, "role", acc.Role, "by", identity(c).Email)
	}
	c.JSON(http.StatusCreated, RegisterResponse{
		ID:    acc.ID,
		Email: acc.Email,
		Role:  acc.Role,
		Msg:   fmt.Sprintf("user %s (%s) created", acc.Email, acc.Role),
	})
}

// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  LoginResponse
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/auth/login [post]
func (h *Handler) login(c *gin.Context) {
	var input loginRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	res, err := h.services.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.metrics.Login("invalid")
			if h.log != nil {
				h.log.Infow("auth_login_failed", "email", input.Email)
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidCredentials})
			return
		}
		h.metrics.Login("error")
		h.logAndJSONError(c, http.StatusInternalServerError, errLogin, "auth_login_error", err, "email", input.Email)
		return
	}

	h.metrics.Login("success")
	c.JSON(http.StatusOK, LoginResponse{Token: res.Token, Role: res.Role, Email: res.Email})
}
