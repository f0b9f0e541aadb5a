package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/biendoubrian23/YENDI-sub000/internal/http/middleware"
)

// GET /api/trips/:id/quote?subjectId=&seats=
func (h *Handler) Quote(c *gin.Context) {
	tripID, ok := paramID(c, "id")
	if !ok {
		return
	}
	seats := 1
	if raw := strings.TrimSpace(c.Query("seats")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_request", "seats must be an integer")
			return
		}
		seats = n
	}
	subject := c.Query("subjectId")
	if subject == "" {
		subject = c.GetHeader("X-Subject-ID")
	}

	svc := h.Pricing
	svc.RequestID = middleware.GetRequestID(c)
	q, err := svc.Quote(c.Request.Context(), tripID, subject, seats, h.now())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, q)
}

// GET /api/trips/:id/seat-map
func (h *Handler) SeatMap(c *gin.Context) {
	tripID, ok := paramID(c, "id")
	if !ok {
		return
	}
	svc := h.SeatMaps
	svc.RequestID = middleware.GetRequestID(c)
	m, err := svc.SeatMap(c.Request.Context(), tripID, h.now())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, m)
}

// GET /api/agencies/:id/pricing-config
func (h *Handler) GetPricingConfig(c *gin.Context) {
	agencyID, ok := h.agencyScope(c)
	if !ok {
		return
	}
	cfg, err := h.Configs.Get(c.Request.Context(), agencyID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, cfg)
}

// PATCH /api/agencies/:id/pricing-config
func (h *Handler) PatchPricingConfig(c *gin.Context) {
	agencyID, ok := h.agencyScope(c)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 64<<10))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", "cannot read body")
		return
	}
	svc := h.Configs
	svc.RequestID = middleware.GetRequestID(c)
	cfg, err := svc.Patch(c.Request.Context(), agencyID, body)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	respondOK(c, http.StatusOK, cfg)
}

// agencyScope reads :id and keeps agency users on their own agency.
func (h *Handler) agencyScope(c *gin.Context) (int64, bool) {
	agencyID, ok := paramID(c, "id")
	if !ok {
		return 0, false
	}
	if claims := middleware.GetClaims(c); claims != nil && claims.Role == middleware.RoleAgency && claims.AgencyID != agencyID {
		RespondError(c, http.StatusForbidden, "forbidden", "agency mismatch")
		return 0, false
	}
	return agencyID, true
}
