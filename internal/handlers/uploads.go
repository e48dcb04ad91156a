package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"farmmarket/internal/middleware"
	"farmmarket/internal/service"
)

// multipartOverhead leaves room for boundaries and part headers on top of
// the file size limit.
const multipartOverhead = 64 << 10

type uploadResponse struct {
	URL       string `json:"url"`
	Key       string `json:"key"`
	MIME      string `json:"mime"`
	SizeBytes int64  `json:"size_bytes"`
}

func (h HandlerSet) UploadImage(c *gin.Context) {
	claims, _ := middleware.ClaimsFrom(c)

	if !h.uploads.Enabled() {
		h.respondError(c, service.ErrUploadsDisabled)
		return
	}
	if limit := h.uploads.MaxBytes(); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(c, service.ErrPayloadTooLarge)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	result, err := h.uploads.Upload(c.Request.Context(), claims, service.UploadInput{
		File:   file,
		Header: header,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, uploadResponse{
		URL:       result.URL,
		Key:       result.Key,
		MIME:      result.MIME,
		SizeBytes: result.SizeBytes,
	})
}
