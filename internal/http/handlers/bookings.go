package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/biendoubrian23/YENDI-sub000/internal/http/middleware"
	"github.com/biendoubrian23/YENDI-sub000/internal/services"
)

// POST /api/bookings
func (h *Handler) CreateBooking(c *gin.Context) {
	var req services.GroupReservationRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	svc := h.Bookings
	svc.RequestID = middleware.GetRequestID(c)
	res, err := svc.CreateGroupReservation(c.Request.Context(), req, h.now())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, res)
}

// GET /api/bookings/:id
func (h *Handler) GetBooking(c *gin.Context) {
	g, err := h.Bookings.GetGroup(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, g)
}

// POST /api/bookings/:id/confirm
func (h *Handler) ConfirmBooking(c *gin.Context) {
	svc := h.Bookings
	svc.RequestID = middleware.GetRequestID(c)
	g, err := svc.ConfirmGroup(c.Request.Context(), c.Param("id"), h.now())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, g)
}

// GET /api/reservations/:id/cancellation-preview
func (h *Handler) CancellationPreview(c *gin.Context) {
	svc := h.Cancellations
	svc.RequestID = middleware.GetRequestID(c)
	p, err := svc.Preview(c.Request.Context(), c.Param("id"), h.now(), middleware.Initiator(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, p)
}

// POST /api/reservations/:id/cancel and /api/agency/reservations/:id/cancel.
// The initiator comes from the token, if any.
func (h *Handler) CancelReservation(c *gin.Context) {
	svc := h.Cancellations
	svc.RequestID = middleware.GetRequestID(c)
	res, err := svc.Cancel(c.Request.Context(), c.Param("id"), h.now(), middleware.Initiator(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, res)
}

// POST /api/agency/trips/:id/cancel
func (h *Handler) CancelTrip(c *gin.Context) {
	tripID, ok := paramID(c, "id")
	if !ok {
		return
	}
	svc := h.Cancellations
	svc.RequestID = middleware.GetRequestID(c)
	res, err := svc.CancelTrip(c.Request.Context(), tripID, h.now(), middleware.Initiator(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, res)
}

// GET /api/refund-balances/:phone
func (h *Handler) RefundBalance(c *gin.Context) {
	phone := strings.TrimSpace(c.Param("phone"))
	balance, err := h.Cancellations.RefundBalance(c.Request.Context(), phone)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"phone": phone, "balance": balance})
}
