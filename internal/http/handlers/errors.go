package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/biendoubrian23/YENDI-sub000/internal/domain"
	"github.com/biendoubrian23/YENDI-sub000/internal/http/middleware"
	"github.com/biendoubrian23/YENDI-sub000/internal/utils"
)

// RespondDomainError maps domain errors to HTTP responses. Internal
// details are logged, never returned.
func RespondDomainError(c *gin.Context, err error) {
	body := gin.H{"success": false, "request_id": middleware.GetRequestID(c)}
	status := http.StatusInternalServerError

	var (
		sc domain.SeatConflictError
		is domain.InvalidSeatError
	)
	switch {
	case errors.As(err, &sc):
		status, body["code"], body["conflictSeats"] = http.StatusConflict, "seat_conflict", sc.Seats
	case errors.As(err, &is):
		status, body["code"], body["invalidSeats"] = http.StatusBadRequest, "invalid_seat", is.Seats
	case domain.IsValidation(err):
		status, body["code"] = http.StatusBadRequest, "invalid_request"
	case domain.IsNotFound(err):
		status, body["code"] = http.StatusNotFound, "not_found"
	case domain.IsTripNotBookable(err):
		status, body["code"] = http.StatusConflict, "trip_not_bookable"
	case domain.IsConflict(err):
		status, body["code"] = http.StatusConflict, "conflict"
	case domain.IsConfiguration(err):
		body["code"] = "configuration_error"
	default:
		body["code"] = "internal_error"
	}

	if status == http.StatusInternalServerError {
		utils.LogWarn(middleware.GetRequestID(c), "http", c.FullPath(), "request failed", zap.Error(err))
		if body["code"] == "internal_error" {
			body["error"] = "internal error"
			c.JSON(status, body)
			return
		}
	}
	body["error"] = err.Error()
	c.JSON(status, body)
}
