package models

// OCRResult is the structured output of the OCR service for one image
type OCRResult struct {
	Text              string    `json:"text"`                         // Full extracted text, in service order
	RotationAngle     float64   `json:"rotation_angle"`               // Degrees the service determined the image was rotated
	TextBoxes         []TextBox `json:"text_boxes"`                   // Detected text regions, in service order
	ProcessedImage    string    `json:"processed_image"`              // Image with bounding boxes drawn in (data URL)
	TotalBoxes        int       `json:"total_boxes"`                  // Box count as reported by the service
	AverageConfidence float64   `json:"average_confidence,omitempty"` // Mean box confidence (0-100), optional
}

// TextBox represents a detected region of text
type TextBox struct {
	Text       string  `json:"text"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float64 `json:"confidence"` // 0-100
}

// ProcessResponse is the envelope returned by the OCR service
type ProcessResponse struct {
	Success bool       `json:"success"`
	Data    *OCRResult `json:"data"`
	Detail  string     `json:"detail,omitempty"` // Error detail on failure responses
}

// ImageFile is a file chosen by the user for upload
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the file size in bytes
func (f ImageFile) Size() int64 {
	return int64(len(f.Data))
}

// ServiceStatus represents the status of a service dependency
type ServiceStatus struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}
