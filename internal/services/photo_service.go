package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/stwalsh4118/brokerage/internal/logger"
	"github.com/stwalsh4118/brokerage/internal/storage"
)

// Service-level errors
var (
	ErrUnsupportedPhotoType = errors.New("only image uploads are accepted")
	ErrPhotoTooLarge        = errors.New("photo exceeds the upload size limit")
)

// sniffLen is how much of an upload is read to detect its type.
const sniffLen = 3072

// ObjectStore saves uploaded objects and returns their public URL.
type ObjectStore interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
}

// PhotoService stores property photos.
type PhotoService interface {
	// Upload checks that r holds an image of at most the configured size and
	// stores it under the owner's prefix. It returns the public URL.
	Upload(ctx context.Context, ownerID uuid.UUID, r io.Reader, size int64) (string, error)
}

type photoService struct {
	store    ObjectStore
	maxBytes int64
	log      *logger.Logger
	now      func() time.Time
}

// NewPhotoService creates a new instance of PhotoService.
func NewPhotoService(store ObjectStore, maxBytes int64, log *logger.Logger) PhotoService {
	return &photoService{
		store:    store,
		maxBytes: maxBytes,
		log:      log,
		now:      time.Now,
	}
}

func (s *photoService) Upload(ctx context.Context, ownerID uuid.UUID, r io.Reader, size int64) (string, error) {
	if size > s.maxBytes {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrPhotoTooLarge, size, s.maxBytes)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]

	mtype := mimetype.Detect(head)
	if !strings.HasPrefix(mtype.String(), "image/") {
		s.log.Warn("Rejected non-image upload", map[string]interface{}{
			"owner_id":  ownerID.String(),
			"mime_type": mtype.String(),
		})
		return "", fmt.Errorf("%w: got %s", ErrUnsupportedPhotoType, mtype.String())
	}

	name := storage.ObjectName(ownerID, mtype.Extension(), s.now().UTC())
	url, err := s.store.Put(ctx, name, io.MultiReader(bytes.NewReader(head), r), size, mtype.String())
	if err != nil {
		s.log.Error("Failed to store photo", err, map[string]interface{}{
			"owner_id": ownerID.String(),
			"object":   name,
		})
		return "", fmt.Errorf("failed to store photo: %w", err)
	}

	s.log.Info("Photo uploaded", map[string]interface{}{
		"owner_id":  ownerID.String(),
		"object":    name,
		"mime_type": mtype.String(),
		"size":      size,
	})
	return url, nil
}
