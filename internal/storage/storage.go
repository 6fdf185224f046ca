package storage

import (
	"context"

	"github.com/tulisan/ocr-uploader/internal/models"
)

// Preview is a display-only reference to a selected file
type Preview struct {
	Key string // Store-specific identifier
	URL string // What the page puts in <img src>
}

// PreviewStore creates and releases preview references
type PreviewStore interface {
	Put(ctx context.Context, file models.ImageFile) (Preview, error)
	Release(ctx context.Context, p Preview) error
	Status() models.ServiceStatus
}

// GetFileExtension extracts file extension from content type
func GetFileExtension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/bmp":
		return ".bmp"
	default:
		return ".bin"
	}
}
