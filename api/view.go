package api

import (
	"embed"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tulisan/ocr-uploader/internal/models"
	"github.com/tulisan/ocr-uploader/internal/picker"
	"github.com/tulisan/ocr-uploader/internal/uploader"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// pageView is everything the page template reads
type pageView struct {
	Messages       models.Messages
	AcceptAttr     string
	FileName       string
	PreviewURL     string
	Processing     bool
	CanProcess     bool
	Error          string
	Copied         bool
	Result         *resultView
	RefreshSeconds int
}

type resultView struct {
	Text              string
	Rotation          string
	TotalBoxes        int
	AverageConfidence string
	ProcessedImage    template.URL
	Boxes             []boxView
}

type boxView struct {
	Text       string
	Confidence string
	Tier       string
}

func newPageView(st uploader.State, messages models.Messages) pageView {
	view := pageView{
		Messages:   messages,
		AcceptAttr: picker.AcceptAttr(),
		FileName:   st.FileName,
		PreviewURL: st.PreviewURL,
		Processing: st.Processing,
		CanProcess: st.CanProcess(),
		Error:      st.Error,
		Copied:     st.Copied,
	}

	// keep the page live until the submission or the copied indicator settles
	if st.Processing || st.Copied {
		view.RefreshSeconds = 1
	}

	if r := st.Result; r != nil {
		rv := &resultView{
			Text:           r.Text,
			Rotation:       formatAngle(r.RotationAngle),
			TotalBoxes:     r.TotalBoxes,
			ProcessedImage: imageURL(r.ProcessedImage),
			Boxes:          make([]boxView, 0, len(r.TextBoxes)),
		}
		if r.AverageConfidence != 0 {
			rv.AverageConfidence = formatConfidence(r.AverageConfidence)
		}
		for _, b := range r.TextBoxes {
			rv.Boxes = append(rv.Boxes, boxView{
				Text:       b.Text,
				Confidence: formatConfidence(b.Confidence),
				Tier:       confidenceTier(b.Confidence),
			})
		}
		view.Result = rv
	}

	return view
}

// formatConfidence renders a 0-100 score with one decimal place
func formatConfidence(c float64) string {
	return decimal.NewFromFloat(c).StringFixed(1)
}

// formatAngle renders degrees without trailing zeros
func formatAngle(a float64) string {
	return decimal.NewFromFloat(a).String() + "°"
}

// confidenceTier matches the colours the OCR service draws boxes with
func confidenceTier(c float64) string {
	switch {
	case c > 70:
		return "high"
	case c > 50:
		return "medium"
	default:
		return "low"
	}
}

// imageURL passes the processed image through to <img src>. References without
// a scheme are kept as given; with a scheme only http(s) and image data URLs are.
func imageURL(s string) template.URL {
	s = strings.TrimSpace(s)
	switch scheme := urlScheme(s); {
	case scheme == "":
		return template.URL(s)
	case scheme == "http", scheme == "https":
		return template.URL(s)
	case scheme == "data" && strings.HasPrefix(strings.ToLower(s), "data:image/"):
		return template.URL(s)
	default:
		return ""
	}
}

// urlScheme returns the lower-cased scheme of s, or "" for a relative reference
func urlScheme(s string) string {
	for i, c := range s {
		switch c {
		case ':':
			return strings.ToLower(s[:i])
		case '/', '?', '#':
			return ""
		}
	}
	return ""
}
