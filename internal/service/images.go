package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/lalith-99/pilgrimlink/internal/apperr"
	"github.com/lalith-99/pilgrimlink/internal/models"
)

// MaxImageBytes is the largest accepted image upload (5 MiB).
const MaxImageBytes = 5 << 20

// ImageUpload is a file received at the upload boundary, not yet stored.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ValidateImage applies the upload boundary checks. It runs before
// anything is sent to the blob store.
func ValidateImage(up *ImageUpload) error {
	if up == nil || up.Body == nil {
		return apperr.Validation("No image file provided")
	}
	if !strings.HasPrefix(up.ContentType, "image/") {
		return apperr.Validation("File must be an image")
	}
	if up.Size > MaxImageBytes {
		return apperr.Validation("Image size must be less than 5MB")
	}
	return nil
}

// imageKey names the object <groupId>/<unixMillis>-<random>.<ext>.
func (s *Service) imageKey(groupID uuid.UUID, up *ImageUpload) string {
	ext := strings.TrimPrefix(filepath.Ext(up.Filename), ".")
	if ext == "" {
		ext = strings.TrimPrefix(up.ContentType, "image/")
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s/%d-%s.%s", groupID, s.now().UnixMilli(), suffix, strings.ToLower(ext))
}

// UploadImage validates an image, stores it in the blob store under the
// sender's current group and appends an IMAGE message with its URL.
func (s *Service) UploadImage(ctx context.Context, senderID uuid.UUID, up *ImageUpload) (*models.MessageView, error) {
	u, err := s.caller(ctx, senderID)
	if err != nil {
		return nil, err
	}
	g, err := s.postingGroup(ctx, u)
	if err != nil {
		return nil, err
	}
	if err := ValidateImage(up); err != nil {
		return nil, err
	}

	url, err := s.blobs.Put(ctx, s.imageKey(g.ID, up), up.Body, up.Size, up.ContentType)
	if err != nil {
		return nil, apperr.Internal("store image", err)
	}

	// Record against the group resolved above, not a fresh lookup: the
	// object already lives under g's prefix even if the sender switched
	// groups while the upload was in flight.
	return s.append(ctx, u, models.Message{
		GroupID:  g.ID,
		SenderID: u.ID,
		Type:     models.MessageImage,
		ImageURL: &url,
	})
}
