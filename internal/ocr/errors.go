package ocr

import "fmt"

// ErrorCode classifies why a request to the OCR service failed
type ErrorCode string

const (
	ErrorNetworkFailed ErrorCode = "NETWORK_FAILED"
	ErrorStatusFailed  ErrorCode = "STATUS_FAILED"
	ErrorDecodeFailed  ErrorCode = "DECODE_FAILED"
	ErrorRequestFailed ErrorCode = "REQUEST_FAILED"
)

// RequestError is a failed call to the OCR service
type RequestError struct {
	Code       ErrorCode
	Message    string
	StatusCode int    // HTTP status, when a response was received
	Body       string // Truncated response body, for logs only
	Cause      error
}

func (e *RequestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}

func newNetworkError(endpoint string, cause error) *RequestError {
	return &RequestError{
		Code:    ErrorNetworkFailed,
		Message: fmt.Sprintf("request to %s failed", endpoint),
		Cause:   cause,
	}
}

func newStatusError(status int, body string) *RequestError {
	return &RequestError{
		Code:       ErrorStatusFailed,
		Message:    fmt.Sprintf("OCR service returned status %d", status),
		StatusCode: status,
		Body:       body,
	}
}

func newDecodeError(status int, message string, cause error) *RequestError {
	return &RequestError{
		Code:       ErrorDecodeFailed,
		Message:    message,
		StatusCode: status,
		Cause:      cause,
	}
}
