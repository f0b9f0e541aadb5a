package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/biendoubrian23/YENDI-sub000/internal/http/middleware"
	"github.com/biendoubrian23/YENDI-sub000/internal/services"
)

// Handler serves the booking API. Services are copied per request so the
// request id reaches their logs.
type Handler struct {
	Pricing       services.PriceLockService
	Bookings      services.BookingService
	Cancellations services.CancellationService
	Configs       services.PricingConfigService
	SeatMaps      services.SeatMapService

	// Ping reports storage health for /api/db-check.
	Ping        func(c *gin.Context) error
	StoreDriver string
	Now         func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// RespondError sends standard error payload with request_id included.
func RespondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success":    false,
		"error":      message,
		"code":       code,
		"request_id": middleware.GetRequestID(c),
	})
}

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		RespondError(c, http.StatusBadRequest, "invalid_request", "empty body")
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", "invalid payload: "+err.Error())
		return false
	}
	return true
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, "invalid_request", name+" must be a positive integer")
		return 0, false
	}
	return id, true
}
