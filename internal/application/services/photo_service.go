package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/storedir/backend/internal/domain/providers"
	"github.com/storedir/backend/pkg/config"
	apperrors "github.com/storedir/backend/pkg/errors"
)

// photoFormats maps accepted upload MIME types to their stored encoding.
var photoFormats = map[string]imaging.Format{
	"image/jpeg": imaging.JPEG,
	"image/png":  imaging.PNG,
	"image/gif":  imaging.GIF,
}

var photoExtensions = map[imaging.Format]string{
	imaging.JPEG: "jpeg",
	imaging.PNG:  "png",
	imaging.GIF:  "gif",
}

// PhotoService validates, resizes and stores uploaded store photos.
type PhotoService struct {
	blobs providers.BlobStore
	cfg   *config.UploadConfig
}

// NewPhotoService creates a new photo service
func NewPhotoService(blobs providers.BlobStore, cfg *config.UploadConfig) *PhotoService {
	return &PhotoService{
		blobs: blobs,
		cfg:   cfg,
	}
}

// Process decodes an uploaded image, scales it down to the configured
// width when it is wider, and writes it to blob storage under a fresh
// unique name. It returns the stored reference.
func (s *PhotoService) Process(ctx context.Context, contentType string, data []byte) (string, error) {
	format, ok := photoFormats[contentType]
	if !ok {
		return "", apperrors.NewValidationError("that filetype isn't allowed")
	}
	if s.cfg.MaxBytes > 0 && int64(len(data)) > s.cfg.MaxBytes {
		return "", apperrors.NewValidationError("photo exceeds the maximum upload size")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", apperrors.NewValidationError("photo could not be decoded")
	}

	if s.cfg.ResizeToPX > 0 && img.Bounds().Dx() > s.cfg.ResizeToPX {
		img = imaging.Resize(img, s.cfg.ResizeToPX, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		return "", apperrors.NewInternalError("failed to encode photo", err)
	}

	name := fmt.Sprintf("%s.%s", uuid.New().String(), photoExtensions[format])
	ref, err := s.blobs.Put(ctx, name, buf.Bytes())
	if err != nil {
		return "", err
	}
	return ref, nil
}
