// Package picker decides which user-offered file becomes the selected image.
package picker

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/tulisan/ocr-uploader/internal/models"
)

var (
	ErrNoFile   = errors.New("no file offered")
	ErrNotImage = errors.New("file is not a supported image")
)

// AllowedExtensions lists the accepted image extensions
var AllowedExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp"}

var contentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
}

// Pick returns the first offered file when it is an accepted image.
// Files after the first are ignored.
func Pick(files []models.ImageFile) (models.ImageFile, error) {
	if len(files) == 0 {
		return models.ImageFile{}, ErrNoFile
	}

	file := files[0]
	if !Accepts(file) {
		return models.ImageFile{}, ErrNotImage
	}

	file.ContentType = ContentType(file)
	return file, nil
}

// Accepts reports whether f has an allowed extension and an image content type
func Accepts(f models.ImageFile) bool {
	ext := strings.ToLower(filepath.Ext(f.Name))
	if _, ok := contentTypes[ext]; !ok {
		return false
	}
	return strings.HasPrefix(ContentType(f), "image/")
}

// ContentType returns the declared content type, inferring it from the
// extension when the declaration is missing or generic.
func ContentType(f models.ImageFile) string {
	ct := strings.ToLower(strings.TrimSpace(f.ContentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "" || ct == "application/octet-stream" {
		return ExtensionContentType(f.Name)
	}
	return ct
}

// ExtensionContentType returns the image type implied by name's extension,
// or "" when the extension is not allowed.
func ExtensionContentType(name string) string {
	return contentTypes[strings.ToLower(filepath.Ext(name))]
}

// AcceptAttr is the value for an HTML file input's accept attribute
func AcceptAttr() string {
	return "image/png,image/jpeg,image/gif,image/bmp," + strings.Join(AllowedExtensions, ",")
}
