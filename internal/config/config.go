package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"

	"github.com/tulisan/ocr-uploader/internal/models"
)

const (
	DefaultEndpoint     = "http://localhost:8000/process-ocr"
	DefaultHealthURL    = "http://localhost:8000/"
	DefaultProcessError = "Gagal memproses gambar. Pastikan backend OCR sudah berjalan di http://localhost:8000"
)

// Default returns the configuration used when no file or environment overrides exist
func Default() *models.Config {
	return &models.Config{
		Port: 3000,
		Host: "127.0.0.1",
		OCR: models.OCRConfig{
			Endpoint:  DefaultEndpoint,
			HealthURL: DefaultHealthURL,
		},
		Storage: models.StorageConfig{
			MinIO: models.MinIOConfig{
				Bucket:    "ocr-previews",
				URLExpiry: time.Hour,
			},
		},
		Session: models.SessionConfig{
			CookieName:  "ocr_session",
			TTL:         24 * time.Hour,
			IdleTimeout: 30 * time.Minute,
		},
		Clipboard: models.ClipboardConfig{
			Enabled:        true,
			CopiedDuration: 2 * time.Second,
		},
		Messages: DefaultMessages(),
	}
}

// DefaultMessages returns the Indonesian page strings
func DefaultMessages() models.Messages {
	return models.Messages{
		Title:        "OCR Tulisan Tangan",
		DropHint:     "Seret & lepas gambar di sini, atau klik untuk memilih file (PNG, JPG, JPEG, GIF, BMP)",
		Process:      "Proses OCR",
		Processing:   "Memproses...",
		ProcessError: DefaultProcessError,
		Result:       "Hasil OCR",
		Rotation:     "Rotasi",
		TextBlocks:   "Blok teks",
		AverageConf:  "Rata-rata confidence",
		Copy:         "Salin Teks",
		Copied:       "Tersalin!",
		Details:      "Detail blok teks",
		Confidence:   "confidence",
		Placeholder:  "Unggah gambar lalu klik \"Proses OCR\" untuk melihat hasilnya",
	}
}

// Load reads the YAML file at path over the defaults, then applies environment overrides.
// A missing file is not an error.
func Load(path string) (*models.Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults only
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate checks if configuration is valid
func Validate(c *models.Config) error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if err := validateURL("ocr.endpoint", c.OCR.Endpoint); err != nil {
		return err
	}
	if c.OCR.HealthURL != "" {
		if err := validateURL("ocr.health_url", c.OCR.HealthURL); err != nil {
			return err
		}
	}

	if c.OCR.Timeout < 0 {
		return fmt.Errorf("ocr.timeout must not be negative, got %v", c.OCR.Timeout)
	}

	if c.Clipboard.CopiedDuration <= 0 {
		return fmt.Errorf("clipboard.copied_duration must be positive, got %v", c.Clipboard.CopiedDuration)
	}

	if c.Session.CookieName == "" {
		return fmt.Errorf("session.cookie_name is required")
	}
	if c.Session.TTL <= 0 || c.Session.IdleTimeout <= 0 {
		return fmt.Errorf("session.ttl and session.idle_timeout must be positive")
	}

	if c.Storage.MinIO.Endpoint != "" && c.Storage.MinIO.Bucket == "" {
		return fmt.Errorf("storage.minio.bucket is required when an endpoint is set")
	}

	if c.Messages.ProcessError == "" {
		return fmt.Errorf("messages.process_error must not be empty")
	}

	return nil
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", key, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", key, raw)
	}
	return nil
}
