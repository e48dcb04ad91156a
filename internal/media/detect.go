package media

import (
	"bytes"
	"errors"
	"net/textproto"
	"strings"
)

type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatGIF  Format = "gif"
	FormatWEBP Format = "webp"
)

// HeadSize is how many leading bytes Detect needs to decide.
const HeadSize = 512

var ErrUnsupportedFormat = errors.New("unsupported image format")

type Result struct {
	Format Format
	MIME   string
}

// Ext is the file extension used for stored objects.
func (r Result) Ext() string {
	if r.Format == FormatJPEG {
		return "jpg"
	}
	return string(r.Format)
}

// Detect classifies an upload by its magic bytes. Only raster formats a
// browser renders inline are accepted.
func Detect(head []byte) (Result, error) {
	switch {
	case isJPEG(head):
		return Result{Format: FormatJPEG, MIME: "image/jpeg"}, nil
	case isPNG(head):
		return Result{Format: FormatPNG, MIME: "image/png"}, nil
	case isGIF(head):
		return Result{Format: FormatGIF, MIME: "image/gif"}, nil
	case isWEBP(head):
		return Result{Format: FormatWEBP, MIME: "image/webp"}, nil
	default:
		return Result{}, ErrUnsupportedFormat
	}
}

func isJPEG(head []byte) bool {
	return len(head) > 3 &&
		head[0] == 0xff &&
		head[1] == 0xd8 &&
		head[2] == 0xff
}

func isPNG(head []byte) bool {
	pngMagic := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	return len(head) >= len(pngMagic) && bytes.Equal(head[:len(pngMagic)], pngMagic)
}

func isGIF(head []byte) bool {
	return len(head) >= 6 && (bytes.Equal(head[:6], []byte("GIF87a")) || bytes.Equal(head[:6], []byte("GIF89a")))
}

func isWEBP(head []byte) bool {
	return len(head) >= 12 &&
		bytes.Equal(head[:4], []byte("RIFF")) &&
		bytes.Equal(head[8:12], []byte("WEBP"))
}

// mimeAliases maps non-standard names clients send to the registered type.
var mimeAliases = map[string]string{
	"image/jpg":   "image/jpeg",
	"image/pjpeg": "image/jpeg",
	"image/x-png": "image/png",
}

// DeclaredType returns the media type of a multipart part header without
// parameters, or "" when the client sent nothing useful.
func DeclaredType(header textproto.MIMEHeader) string {
	contentType := header.Get("Content-Type")
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if contentType == "application/octet-stream" {
		return ""
	}
	if canonical, ok := mimeAliases[contentType]; ok {
		return canonical
	}
	return contentType
}
