package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": h.now().UTC()})
}

func (h *Handler) DBCheck(c *gin.Context) {
	if h.Ping == nil {
		RespondError(c, http.StatusServiceUnavailable, "storage_unavailable", "storage not connected")
		return
	}
	if err := h.Ping(c); err != nil {
		RespondError(c, http.StatusServiceUnavailable, "storage_unavailable", "storage ping failed: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "driver": h.StoreDriver})
}
