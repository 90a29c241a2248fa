package handlers

import (
	"net/http"

	"energisense/internal/models"

	"github.com/gin-gonic/gin"
)

// @Summary      List accounts
// @Description  Admins first, then by email. Password hashes are never included.
// @Tags         admin
// @Produce      json
// @Success      200  {array}   models.Account
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/admin/users [get]
// @Security     BearerAuth
func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.services.Accounts.List(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListUsers, "admin_list_users_failed", err)
		return
	}
	if users == nil {
		users = []models.Account{}
	}
	c.JSON(http.StatusOK, users)
}
