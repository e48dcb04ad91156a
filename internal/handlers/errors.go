package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"farmmarket/internal/access"
	"farmmarket/internal/middleware"
	"farmmarket/internal/service"
)

// respondError maps service and guard errors onto the status code table.
// Anything unrecognised is logged and reported as a bare 500.
func (h HandlerSet) respondError(c *gin.Context, err error) {
	status, msg := classify(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		h.log.Error().Err(err).
			Str("request_id", middleware.RequestIDFrom(c)).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
	}
	c.JSON(status, gin.H{"error": msg})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, detail(err, service.ErrValidation)
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, service.ErrInvalidCredentials.Error()
	case errors.Is(err, access.ErrUnauthorized):
		return http.StatusUnauthorized, access.ErrUnauthorized.Error()
	case errors.Is(err, access.ErrForbidden):
		return http.StatusForbidden, access.Message(err)
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, service.ErrConflict.Error()
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, detail(err, service.ErrNotFound)
	case errors.Is(err, service.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, service.ErrPayloadTooLarge.Error()
	case errors.Is(err, service.ErrUploadsDisabled):
		return http.StatusServiceUnavailable, service.ErrUploadsDisabled.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// detail strips the sentinel prefix from "sentinel: detail" messages.
func detail(err, sentinel error) string {
	msg := err.Error()
	if trimmed := strings.TrimPrefix(msg, sentinel.Error()+": "); trimmed != "" {
		return trimmed
	}
	return msg
}

func badJSON(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
}
