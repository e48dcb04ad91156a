package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"farmmarket/internal/middleware"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 200
)

func (h HandlerSet) ListPendingFarmers(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c)

	farmers, err := h.approval.ListPendingFarmers(c.Request.Context(), claims)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]userResponse, 0, len(farmers))
	for _, f := range farmers {
		resp = append(resp, newUserResponse(f))
	}
	c.JSON(http.StatusOK, resp)
}

func (h HandlerSet) ApproveFarmer(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c)

	if err := h.approval.ApproveFarmer(c.Request.Context(), claims, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h HandlerSet) ListEvents(c *gin.Context) {
	limit := defaultEventLimit
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = min(v, maxEventLimit)
	}

	resp := make([]auditEventResponse, 0)
	if h.audit == nil {
		c.JSON(http.StatusOK, resp)
		return
	}

	items, err := h.audit.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	for _, e := range items {
		resp = append(resp, auditEventResponse{
			ID:         e.ID,
			Type:       e.Type,
			SubjectID:  e.SubjectID,
			ActorID:    e.ActorID,
			Payload:    e.Payload,
			OccurredAt: e.OccurredAt,
			RecordedAt: e.RecordedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}
