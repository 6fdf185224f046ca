package api

import (
	"testing"

	"github.com/tulisan/ocr-uploader/internal/config"
	"github.com/tulisan/ocr-uploader/internal/models"
	"github.com/tulisan/ocr-uploader/internal/uploader"
)

func TestFormatConfidence(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{97.3, "97.3"},
		{80, "80.0"},
		{66.66, "66.7"},
		{0, "0.0"},
	}
	for _, tt := range tests {
		if got := formatConfidence(tt.in); got != tt.want {
			t.Errorf("formatConfidence(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatAngle(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0°"},
		{90, "90°"},
		{-1.5, "-1.5°"},
	}
	for _, tt := range tests {
		if got := formatAngle(tt.in); got != tt.want {
			t.Errorf("formatAngle(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConfidenceTier(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{97.3, "high"},
		{70.1, "high"},
		{70, "medium"},
		{50.5, "medium"},
		{50, "low"},
		{12, "low"},
	}
	for _, tt := range tests {
		if got := confidenceTier(tt.in); got != tt.want {
			t.Errorf("confidenceTier(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestImageURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"data:image/png;base64,AAAA", "data:image/png;base64,AAAA"},
		{"https://cdn.example.com/x.png", "https://cdn.example.com/x.png"},
		{"javascript:alert(1)", ""},
		{" JavaScript:alert(1)", ""},
		{"vbscript:msgbox(1)", ""},
		{"data:text/html,<b>x</b>", ""},
		{"<img-ref>", "<img-ref>"},
		{"/static/processed.png", "/static/processed.png"},
		{"processed.jpg?v=1", "processed.jpg?v=1"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := string(imageURL(tt.in)); got != tt.want {
			t.Errorf("imageURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewPageView(t *testing.T) {
	msgs := config.DefaultMessages()

	t.Run("empty", func(t *testing.T) {
		v := newPageView(uploader.State{}, msgs)
		if v.CanProcess || v.Result != nil || v.RefreshSeconds != 0 {
			t.Errorf("view = %+v", v)
		}
	})

	t.Run("processing refreshes", func(t *testing.T) {
		v := newPageView(uploader.State{FileName: "a.png", Processing: true}, msgs)
		if v.CanProcess {
			t.Error("cannot process while processing")
		}
		if v.RefreshSeconds != 1 {
			t.Errorf("refresh = %d", v.RefreshSeconds)
		}
	})

	t.Run("result", func(t *testing.T) {
		st := uploader.State{
			FileName: "a.png",
			Result: &models.OCRResult{
				Text:              "Hi",
				RotationAngle:     90,
				TotalBoxes:        7,
				AverageConfidence: 61.25,
				TextBoxes:         []models.TextBox{{Text: "Hi", Confidence: 40}},
			},
		}
		v := newPageView(st, msgs)
		if v.Result == nil {
			t.Fatal("expected result")
		}
		if v.Result.TotalBoxes != 7 {
			t.Errorf("total boxes = %d, want the reported count", v.Result.TotalBoxes)
		}
		if v.Result.Rotation != "90°" || v.Result.AverageConfidence != "61.3" {
			t.Errorf("result = %+v", v.Result)
		}
		if len(v.Result.Boxes) != 1 || v.Result.Boxes[0].Tier != "low" {
			t.Errorf("boxes = %+v", v.Result.Boxes)
		}
	})
}
