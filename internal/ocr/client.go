package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/tulisan/ocr-uploader/internal/logging"
	"github.com/tulisan/ocr-uploader/internal/models"
)

// maxErrorBody bounds how much of a failed response is kept for logs
const maxErrorBody = 512

// Client talks to the remote OCR service
type Client struct {
	endpoint   string
	healthURL  string
	httpClient *http.Client
	log        *logging.Logger
}

// NewClient creates a client for the configured OCR service.
// A zero cfg.Timeout leaves requests without a deadline.
func NewClient(cfg models.OCRConfig, log *logging.Logger) *Client {
	if log == nil {
		log = logging.Discard()
	}
	return &Client{
		endpoint:  cfg.Endpoint,
		healthURL: cfg.HealthURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: log,
	}
}

// Endpoint returns the upload URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Process uploads one image as the multipart field "file" and returns the
// "data" object of the service's JSON reply.
func (c *Client) Process(ctx context.Context, file models.ImageFile) (*models.OCRResult, error) {
	body, contentType, err := encodeUpload(file)
	if err != nil {
		return nil, &RequestError{Code: ErrorRequestFailed, Message: "failed to build multipart body", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, &RequestError{Code: ErrorRequestFailed, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", contentType)

	c.log.Debug("Uploading image", "file", file.Name, "size", file.Size(), "endpoint", c.endpoint)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newNetworkError(c.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, newStatusError(resp.StatusCode, string(snippet))
	}

	var envelope models.ProcessResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, newDecodeError(resp.StatusCode, "failed to decode OCR response", err)
	}
	if envelope.Data == nil {
		return nil, newDecodeError(resp.StatusCode, "OCR response has no data field", nil)
	}

	c.log.Debug("OCR response received",
		"file", file.Name,
		"boxes", envelope.Data.TotalBoxes,
		"duration", time.Since(start).Round(time.Millisecond))

	return envelope.Data, nil
}

// Ping checks that the OCR service answers on its liveness URL
func (c *Client) Ping(ctx context.Context) models.ServiceStatus {
	if c.healthURL == "" {
		return models.ServiceStatus{Available: false, Error: "no health URL configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL, nil)
	if err != nil {
		return models.ServiceStatus{Available: false, Error: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.ServiceStatus{Available: false, Error: "OCR service unreachable"}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode != http.StatusOK {
		return models.ServiceStatus{
			Available: false,
			Error:     fmt.Sprintf("OCR service returned status %d", resp.StatusCode),
		}
	}

	return models.ServiceStatus{Available: true}
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeUpload builds a multipart body with a single "file" part that keeps
// the file's own content type.
func encodeUpload(file models.ImageFile) (io.Reader, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(file.Name)))
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file part: %w", err)
	}
	bytesWritten, err := part.Write(file.Data)
	if err != nil {
		return nil, "", fmt.Errorf("failed to write file data to form: %w", err)
	}
	if bytesWritten != len(file.Data) {
		return nil, "", fmt.Errorf("incomplete file write: expected %d bytes, wrote %d bytes", len(file.Data), bytesWritten)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return &body, writer.FormDataContentType(), nil
}
