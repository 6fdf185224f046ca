package models

import "time"

// Config represents the uploader configuration
type Config struct {
	// Server config
	Port int    `yaml:"port" env:"PORT"`
	Host string `yaml:"host" env:"HOST"`

	// OCR service
	OCR OCRConfig `yaml:"ocr"`

	// Preview storage
	Storage StorageConfig `yaml:"storage"`

	// Browser sessions
	Session SessionConfig `yaml:"session"`

	// Clipboard
	Clipboard ClipboardConfig `yaml:"clipboard"`

	// Logging
	Log LogConfig `yaml:"log"`

	// User-facing strings
	Messages Messages `yaml:"messages"`
}

// OCRConfig describes how to reach the OCR service
type OCRConfig struct {
	Endpoint  string        `yaml:"endpoint" env:"OCR_ENDPOINT"`     // Upload endpoint
	HealthURL string        `yaml:"health_url" env:"OCR_HEALTH_URL"` // Liveness endpoint
	Timeout   time.Duration `yaml:"timeout" env:"OCR_TIMEOUT"`       // 0 means no timeout
}

// StorageConfig selects where preview images live
type StorageConfig struct {
	MinIO MinIOConfig `yaml:"minio"`
}

// MinIOConfig for S3-compatible preview storage. Empty endpoint keeps previews in memory.
type MinIOConfig struct {
	Endpoint  string        `yaml:"endpoint" env:"MINIO_ENDPOINT"`
	AccessKey string        `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey string        `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
	Bucket    string        `yaml:"bucket" env:"MINIO_BUCKET"`
	UseSSL    bool          `yaml:"use_ssl" env:"MINIO_USE_SSL"`
	URLExpiry time.Duration `yaml:"url_expiry" env:"MINIO_URL_EXPIRY"`
}

// SessionConfig for the signed session cookie
type SessionConfig struct {
	Secret       string        `yaml:"secret" env:"SESSION_SECRET"` // Random per process when empty
	CookieName   string        `yaml:"cookie_name" env:"SESSION_COOKIE_NAME"`
	TTL          time.Duration `yaml:"ttl" env:"SESSION_TTL"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"SESSION_IDLE_TIMEOUT"`
	SecureCookie bool          `yaml:"secure_cookie" env:"SESSION_SECURE_COOKIE"`
}

// ClipboardConfig for the copy-to-clipboard action
type ClipboardConfig struct {
	Enabled        bool          `yaml:"enabled" env:"CLIPBOARD_ENABLED"`
	CopiedDuration time.Duration `yaml:"copied_duration" env:"CLIPBOARD_COPIED_DURATION"` // How long the "copied" indicator stays on
}

// LogConfig for the process logger
type LogConfig struct {
	Debug bool `yaml:"debug" env:"LOG_DEBUG"`
}

// Messages holds every user-visible string of the page
type Messages struct {
	Title        string `yaml:"title"`
	DropHint     string `yaml:"drop_hint"`
	Process      string `yaml:"process"`
	Processing   string `yaml:"processing"`
	ProcessError string `yaml:"process_error" env:"OCR_ERROR_MESSAGE"`
	Result       string `yaml:"result"`
	Rotation     string `yaml:"rotation"`
	TextBlocks   string `yaml:"text_blocks"`
	AverageConf  string `yaml:"average_confidence"`
	Copy         string `yaml:"copy"`
	Copied       string `yaml:"copied"`
	Details      string `yaml:"details"`
	Confidence   string `yaml:"confidence"`
	Placeholder  string `yaml:"placeholder"`
}
