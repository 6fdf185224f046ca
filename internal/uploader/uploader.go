// Package uploader holds the per-session state of the OCR upload form:
// the selected image, its preview, the in-flight submission, the last
// result or error, and the transient "copied" indicator.
package uploader

import (
	"context"
	"sync"
	"time"

	"github.com/tulisan/ocr-uploader/internal/clipboard"
	"github.com/tulisan/ocr-uploader/internal/logging"
	"github.com/tulisan/ocr-uploader/internal/metrics"
	"github.com/tulisan/ocr-uploader/internal/models"
	"github.com/tulisan/ocr-uploader/internal/picker"
	"github.com/tulisan/ocr-uploader/internal/storage"
)

// DefaultCopiedDuration is how long the copied indicator stays on
const DefaultCopiedDuration = 2 * time.Second

// Processor submits one image to the OCR service
type Processor interface {
	Process(ctx context.Context, file models.ImageFile) (*models.OCRResult, error)
}

// Timer is a pending callback that can be cancelled
type Timer interface {
	Stop() bool
}

// Clock schedules the copied indicator revert
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Option configures an Uploader
type Option func(*Uploader)

// WithClock replaces the wall clock
func WithClock(c Clock) Option {
	return func(u *Uploader) { u.clock = c }
}

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(u *Uploader) { u.log = l }
}

// WithCopiedDuration sets how long the copied indicator stays on
func WithCopiedDuration(d time.Duration) Option {
	return func(u *Uploader) { u.copiedFor = d }
}

// WithErrorMessage sets the single user-facing submission failure message
func WithErrorMessage(msg string) Option {
	return func(u *Uploader) { u.errorMessage = msg }
}

// Uploader is the state of one upload form
type Uploader struct {
	processor    Processor
	previews     storage.PreviewStore
	clip         clipboard.Clipboard
	clock        Clock
	log          *logging.Logger
	errorMessage string
	copiedFor    time.Duration

	mu         sync.Mutex
	file       *models.ImageFile
	preview    *storage.Preview
	generation uint64 // bumped on every accepted selection
	result     *models.OCRResult
	errMsg     string
	processing bool
	copied     bool
	copyTimer  Timer
	copyToken  uint64
}

// New creates an Uploader with nothing selected
func New(processor Processor, previews storage.PreviewStore, clip clipboard.Clipboard, opts ...Option) *Uploader {
	u := &Uploader{
		processor:    processor,
		previews:     previews,
		clip:         clip,
		clock:        realClock{},
		log:          logging.Discard(),
		errorMessage: "OCR processing failed",
		copiedFor:    DefaultCopiedDuration,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Select replaces the selected file with the first offered file when it is an
// accepted image. The previous preview is released and any result, error and
// copied indicator are cleared. A rejected offer leaves the state untouched.
func (u *Uploader) Select(ctx context.Context, files []models.ImageFile) error {
	file, err := picker.Pick(files)
	if err != nil {
		metrics.RecordSelection(false)
		if len(files) > 0 {
			u.log.Warn("File rejected", "file", files[0].Name, "contentType", files[0].ContentType, "error", err)
		}
		return err
	}
	metrics.RecordSelection(true)

	var preview *storage.Preview
	if p, err := u.previews.Put(ctx, file); err != nil {
		u.log.Warn("Preview unavailable", "file", file.Name, "error", err)
	} else {
		preview = &p
	}

	u.mu.Lock()
	old := u.preview
	u.file = &file
	u.preview = preview
	u.generation++
	u.result = nil
	u.errMsg = ""
	u.resetCopiedLocked()
	u.mu.Unlock()

	u.log.Info("File selected", "file", file.Name, "contentType", file.ContentType, "size", file.Size())

	if old != nil {
		u.releasePreview(ctx, *old)
	}
	return nil
}

// Submission is one in-flight request to the OCR service
type Submission struct {
	uploader   *Uploader
	file       models.ImageFile
	generation uint64
}

// Start enters the processing state for the selected file. It reports false,
// changing nothing, when no file is selected or a submission is already running.
func (u *Uploader) Start() (*Submission, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.file == nil || u.processing {
		return nil, false
	}

	u.processing = true
	u.errMsg = ""
	return &Submission{
		uploader:   u,
		file:       *u.file,
		generation: u.generation,
	}, true
}

// Run performs the upload and records the outcome. A response for a file that
// has since been replaced is discarded. Processing always ends when Run returns.
func (s *Submission) Run(ctx context.Context) {
	u := s.uploader
	start := u.clock.Now()
	outcome := metrics.OutcomeFailure

	defer func() {
		u.mu.Lock()
		u.processing = false
		u.mu.Unlock()
		metrics.RecordSubmission(outcome, u.clock.Now().Sub(start))
	}()

	result, err := u.processor.Process(ctx, s.file)

	u.mu.Lock()
	defer u.mu.Unlock()

	if s.generation != u.generation {
		outcome = metrics.OutcomeDiscarded
		u.log.Info("Discarding response for replaced file", "file", s.file.Name, "error", err)
		return
	}

	if err != nil {
		u.result = nil
		u.errMsg = u.errorMessage
		u.log.Error("OCR submission failed", "file", s.file.Name, "error", err)
		return
	}

	u.result = result
	outcome = metrics.OutcomeSuccess
	u.log.Info("OCR submission succeeded", "file", s.file.Name, "boxes", result.TotalBoxes)
}

// Process runs a submission synchronously. It reports whether one was started.
func (u *Uploader) Process(ctx context.Context) bool {
	sub, ok := u.Start()
	if !ok {
		return false
	}
	sub.Run(ctx)
	return true
}

// Copy writes the full result text to the clipboard. With no text it does
// nothing. Success turns the copied indicator on until the copied duration
// elapses; failure is only logged.
func (u *Uploader) Copy(ctx context.Context) bool {
	u.mu.Lock()
	if u.result == nil || u.result.Text == "" {
		u.mu.Unlock()
		return false
	}
	text := u.result.Text
	u.mu.Unlock()

	if err := u.clip.WriteText(text); err != nil {
		metrics.RecordClipboard(false)
		u.log.Warn("Clipboard write failed", "error", err)
		return false
	}
	metrics.RecordClipboard(true)

	u.mu.Lock()
	defer u.mu.Unlock()

	u.resetCopiedLocked()
	u.copied = true
	token := u.copyToken
	u.copyTimer = u.clock.AfterFunc(u.copiedFor, func() {
		u.mu.Lock()
		defer u.mu.Unlock()
		if u.copyToken == token {
			u.copied = false
			u.copyTimer = nil
		}
	})
	return true
}

// resetCopiedLocked turns the indicator off and invalidates a pending revert
func (u *Uploader) resetCopiedLocked() {
	if u.copyTimer != nil {
		u.copyTimer.Stop()
		u.copyTimer = nil
	}
	u.copied = false
	u.copyToken++
}

// Close releases the preview and stops pending timers
func (u *Uploader) Close(ctx context.Context) {
	u.mu.Lock()
	old := u.preview
	u.preview = nil
	u.resetCopiedLocked()
	u.mu.Unlock()

	if old != nil {
		u.releasePreview(ctx, *old)
	}
}

func (u *Uploader) releasePreview(ctx context.Context, p storage.Preview) {
	if err := u.previews.Release(ctx, p); err != nil {
		u.log.Warn("Failed to release preview", "key", p.Key, "error", err)
	}
}

// State is a read-only view of the form
type State struct {
	FileName   string            `json:"file_name,omitempty"`
	FileSize   int64             `json:"file_size,omitempty"`
	PreviewURL string            `json:"preview_url,omitempty"`
	Processing bool              `json:"processing"`
	Error      string            `json:"error,omitempty"`
	Result     *models.OCRResult `json:"result,omitempty"`
	Copied     bool              `json:"copied"`
}

// HasFile reports whether a file is selected
func (s State) HasFile() bool {
	return s.FileName != ""
}

// CanProcess reports whether the process trigger is enabled
func (s State) CanProcess() bool {
	return s.HasFile() && !s.Processing
}

// Snapshot returns a copy of the current state
func (u *Uploader) Snapshot() State {
	u.mu.Lock()
	defer u.mu.Unlock()

	st := State{
		Processing: u.processing,
		Error:      u.errMsg,
		Copied:     u.copied,
	}
	if u.file != nil {
		st.FileName = u.file.Name
		st.FileSize = u.file.Size()
	}
	if u.preview != nil {
		st.PreviewURL = u.preview.URL
	}
	if u.result != nil {
		r := *u.result
		r.TextBoxes = append([]models.TextBox(nil), u.result.TextBoxes...)
		st.Result = &r
	}
	return st
}
