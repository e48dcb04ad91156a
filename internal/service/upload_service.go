package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"time"

	"github.com/rs/zerolog"

	"farmmarket/internal/access"
	"farmmarket/internal/ids"
	"farmmarket/internal/media"
	"farmmarket/internal/security"
)

var (
	ErrUploadsDisabled = errors.New("image uploads are not configured")
	ErrPayloadTooLarge = errors.New("file too large")
)

type ObjectWriter interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PublicURL(key string) string
}

type UploadInput struct {
	File   multipart.File
	Header *multipart.FileHeader
}

type UploadResult struct {
	URL       string
	Key       string
	MIME      string
	SizeBytes int64
}

type UploadService struct {
	store    ObjectWriter
	maxBytes int64
	log      zerolog.Logger
}

// NewUploadService accepts a nil store; uploads then fail with
// ErrUploadsDisabled while the rest of the API keeps working.
func NewUploadService(store ObjectWriter, maxBytes int64, log zerolog.Logger) *UploadService {
	return &UploadService{
		store:    store,
		maxBytes: maxBytes,
		log:      log,
	}
}

func (s *UploadService) Enabled() bool {
	return s != nil && s.store != nil
}

func (s *UploadService) Upload(ctx context.Context, owner security.Claims, input UploadInput) (UploadResult, error) {
	if err := access.RequireApprovedFarmer.Check(owner); err != nil {
		return UploadResult{}, err
	}
	if !s.Enabled() {
		return UploadResult{}, ErrUploadsDisabled
	}
	if input.File == nil || input.Header == nil {
		return UploadResult{}, fmt.Errorf("%w: file is required", ErrValidation)
	}
	if s.maxBytes > 0 && input.Header.Size > s.maxBytes {
		return UploadResult{}, ErrPayloadTooLarge
	}

	reader := io.Reader(input.File)
	if s.maxBytes > 0 {
		reader = io.LimitReader(input.File, s.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return UploadResult{}, fmt.Errorf("read file: %w", err)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return UploadResult{}, ErrPayloadTooLarge
	}
	if len(data) == 0 {
		return UploadResult{}, fmt.Errorf("%w: empty file", ErrValidation)
	}

	head := data
	if len(head) > media.HeadSize {
		head = head[:media.HeadSize]
	}
	result, err := media.Detect(head)
	if err != nil {
		return UploadResult{}, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	if declared := media.DeclaredType(input.Header.Header); declared != "" && declared != result.MIME {
		return UploadResult{}, fmt.Errorf("%w: content type mismatch: declared %s, actual %s", ErrValidation, declared, result.MIME)
	}

	key := s.buildObjectKey(owner.UserID, result.Ext())
	if err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), result.MIME); err != nil {
		return UploadResult{}, fmt.Errorf("store image: %w", err)
	}

	s.log.Info().Str("farmer_id", owner.UserID).Str("key", key).Int("bytes", len(data)).Msg("product image stored")
	return UploadResult{
		URL:       s.store.PublicURL(key),
		Key:       key,
		MIME:      result.MIME,
		SizeBytes: int64(len(data)),
	}, nil
}

func (s *UploadService) buildObjectKey(farmerID, ext string) string {
	datePrefix := time.Now().UTC().Format("2006/01/02")
	return path.Join("products", farmerID, datePrefix, fmt.Sprintf("%s.%s", ids.New(), ext))
}

func (s *UploadService) MaxBytes() int64 {
	if s == nil {
		return 0
	}
	return s.maxBytes
}
