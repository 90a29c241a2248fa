package handlers

import (
	"errors"
	"net/http"

	"energisense/internal/ingest"
	"energisense/internal/metrics"
	"energisense/internal/models"
	"energisense/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK = "ok"

	errInvalidBodyPref    = "invalid body: "
	errEmailTaken         = "user already exists"
	errInvalidCredentials = "invalid credentials"
	errRegister           = "failed to register user"
	errLogin              = "failed to log in"
	errStoreReading       = "failed to store reading"
	errLoadReadings       = "failed to load readings"
	errListUsers          = "failed to list users"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Ingest reading
// @Description  Unauthenticated. Accepts "value" or the legacy "valor", and "sensor_id" or the legacy "sensorId".
// @Description  The timestamp is assigned by the server with millisecond precision.
// @Tags         data
// @Accept       json
// @Produce      json
// @Param        body  body      ingest.Payload  true  "Reading"
// @Success      201   {object}  models.Reading
// @Failure      400   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/data [post]
func (h *Handler) ingestReading(c *gin.Context) {
	var p ingest.Payload
	if ok := h.bindJSONOrBadRequest(c, &p); !ok {
		return
	}

	rd, err := h.services.Ingest(c.Request.Context(), p.Input())
	if err != nil {
		if errors.Is(err, service.ErrInvalidReading) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errStoreReading, "reading_ingest_failed", err)
		return
	}

	h.metrics.ReadingIngested(metrics.SourceHTTP)
	c.JSON(http.StatusCreated, rd)
}

// @Summary      Latest readings
// @Description  Most recent fixed-size window of readings, oldest first.
// @Tags         data
// @Produce      json
// @Success      200  {array}   models.Reading
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/data/latest [get]
// @Security     BearerAuth
func (h *Handler) latestReadings(c *gin.Context) {
	rs, err := h.services.Latest(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errLoadReadings, "readings_latest_failed", err)
		return
	}
	if rs == nil {
		rs = []models.Reading{}
	}
	c.JSON(http.StatusOK, rs)
}
