package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tulisan/ocr-uploader/internal/auth"
	"github.com/tulisan/ocr-uploader/internal/clipboard"
	"github.com/tulisan/ocr-uploader/internal/logging"
	"github.com/tulisan/ocr-uploader/internal/metrics"
	"github.com/tulisan/ocr-uploader/internal/models"
	"github.com/tulisan/ocr-uploader/internal/picker"
	"github.com/tulisan/ocr-uploader/internal/session"
	"github.com/tulisan/ocr-uploader/internal/storage"
	"github.com/tulisan/ocr-uploader/internal/uploader"
)

const Version = "1.0.0"

// OCRService submits images to the OCR backend and checks that it is up
type OCRService interface {
	uploader.Processor
	Ping(ctx context.Context) models.ServiceStatus
}

// Dependencies are the collaborators a Handler is built from
type Dependencies struct {
	OCR       OCRService
	Previews  storage.PreviewStore
	Clipboard clipboard.Clipboard
	Issuer    *auth.Issuer
	Logger    *logging.Logger
	Gatherer  prometheus.Gatherer // defaults to prometheus.DefaultGatherer
	Clock     uploader.Clock      // defaults to the wall clock
}

// Handler handles HTTP requests for the upload form
type Handler struct {
	config   *models.Config
	ocr      OCRService
	previews storage.PreviewStore
	memory   *storage.MemoryStore // set when previews are served by this process
	sessions *session.Registry
	issuer   *auth.Issuer
	gatherer prometheus.Gatherer
	log      *logging.Logger
}

// NewHandler creates a new API handler
func NewHandler(config *models.Config, deps Dependencies) *Handler {
	log := deps.Logger
	if log == nil {
		log = logging.NewLogger("API")
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	h := &Handler{
		config:   config,
		ocr:      deps.OCR,
		previews: deps.Previews,
		issuer:   deps.Issuer,
		gatherer: gatherer,
		log:      log,
	}
	if mem, ok := deps.Previews.(*storage.MemoryStore); ok {
		h.memory = mem
	}

	opts := []uploader.Option{
		uploader.WithLogger(log.With("Uploader")),
		uploader.WithCopiedDuration(config.Clipboard.CopiedDuration),
		uploader.WithErrorMessage(config.Messages.ProcessError),
	}
	if deps.Clock != nil {
		opts = append(opts, uploader.WithClock(deps.Clock))
	}
	h.sessions = session.NewRegistry(func(string) *uploader.Uploader {
		return uploader.New(deps.OCR, deps.Previews, deps.Clipboard, opts...)
	}, config.Session.IdleTimeout, log.With("Session"))

	return h
}

// Sessions exposes the session registry
func (h *Handler) Sessions() *session.Registry {
	return h.sessions
}

// SetupRoutes configures the HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()
	router.Use(metrics.Middleware)
	router.Use(h.logRequests)
	router.Use(h.issuer.Middleware)

	// Page and form actions
	router.HandleFunc("/", h.Index).Methods("GET")
	router.HandleFunc("/select", h.Select).Methods("POST")
	router.HandleFunc("/process", h.Process).Methods("POST")
	router.HandleFunc("/copy", h.Copy).Methods("POST")
	router.HandleFunc("/preview/{key}", h.Preview).Methods("GET")

	// JSON state
	router.HandleFunc("/api/state", h.State).Methods("GET")

	// Operations
	router.HandleFunc("/health", h.Health).Methods("GET")
	router.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})).Methods("GET")

	return router
}

// uploaderFor returns the Uploader of the caller's session
func (h *Handler) uploaderFor(r *http.Request) (*uploader.Uploader, error) {
	claims, err := auth.GetClaimsFromContext(r.Context())
	if err != nil {
		return nil, err
	}
	return h.sessions.Get(r.Context(), claims.SessionID), nil
}

// Index renders the upload form
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	u, err := h.uploaderFor(r)
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "no session")
		return
	}

	view := newPageView(u.Snapshot(), h.config.Messages)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := pageTemplate.Execute(w, view); err != nil {
		h.log.Error("Failed to render page", "error", err)
	}
}

// Select handles a file drop or browse. Only the first "file" part is read;
// the rest of the body is discarded.
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	u, err := h.uploaderFor(r)
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "no session")
		return
	}
	defer io.Copy(io.Discard, r.Body)

	mr, err := r.MultipartReader()
	if err != nil {
		h.log.Warn("Invalid selection form", "error", err)
		h.respond(w, r, u)
		return
	}

	file, err := readFirstFile(mr, "file")
	if err != nil {
		h.log.Warn("Failed to read selected file", "error", err)
		h.respond(w, r, u)
		return
	}

	var files []models.ImageFile
	if file != nil {
		files = append(files, *file)
	}
	if err := u.Select(r.Context(), files); err != nil {
		h.log.Debug("Selection ignored", "error", err)
	}
	h.respond(w, r, u)
}

// Process starts OCR for the selected file. The request returns immediately;
// the upload continues after the response unless ?wait=true is given.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	u, err := h.uploaderFor(r)
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "no session")
		return
	}

	if sub, ok := u.Start(); ok {
		ctx := context.WithoutCancel(r.Context())
		if r.URL.Query().Get("wait") == "true" {
			h.runSubmission(ctx, sub)
		} else {
			go h.runSubmission(ctx, sub)
		}
	}
	h.respond(w, r, u)
}

// runSubmission runs sub, logging a panic instead of letting it reach the server
func (h *Handler) runSubmission(ctx context.Context, sub *uploader.Submission) {
	defer func() {
		if p := recover(); p != nil {
			h.log.Error("Submission panicked", "panic", p, "stack", string(debug.Stack()))
		}
	}()
	sub.Run(ctx)
}

// Copy writes the result text to the clipboard
func (h *Handler) Copy(w http.ResponseWriter, r *http.Request) {
	u, err := h.uploaderFor(r)
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "no session")
		return
	}

	u.Copy(r.Context())
	h.respond(w, r, u)
}

// Preview serves the caller's own in-memory preview image
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if h.memory == nil {
		http.NotFound(w, r)
		return
	}
	u, err := h.uploaderFor(r)
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "no session")
		return
	}
	if u.Snapshot().PreviewURL != r.URL.Path {
		http.NotFound(w, r)
		return
	}

	file, ok := h.memory.Open(mux.Vars(r)["key"])
	if !ok {
		http.NotFound(w, r)
		return
	}

	// the declared type is client input; serve what the extension allows
	contentType := picker.ExtensionContentType(file.Name)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	w.Write(file.Data)
}

// State returns the caller's form state as JSON
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	u, err := h.uploaderFor(r)
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "no session")
		return
	}
	h.writeJSON(w, http.StatusOK, u.Snapshot())
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status     string               `json:"status"`
	Version    string               `json:"version"`
	Timestamp  string               `json:"timestamp"`
	Uptime     string               `json:"uptime"`
	Memory     MemoryStats          `json:"memory"`
	OCRService models.ServiceStatus `json:"ocrService"`
	Storage    models.ServiceStatus `json:"storage"`
	Sessions   int                  `json:"sessions"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Allocated string `json:"allocated"`
	Total     string `json:"total"`
	System    string `json:"system"`
}

var startTime = time.Now()

// Health reports the uploader and its collaborators
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(startTime).String(),
		Memory: MemoryStats{
			Allocated: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
			Total:     fmt.Sprintf("%.2f MB", float64(m.TotalAlloc)/1024/1024),
			System:    fmt.Sprintf("%.2f MB", float64(m.Sys)/1024/1024),
		},
		OCRService: h.ocr.Ping(r.Context()),
		Storage:    h.previews.Status(),
		Sessions:   h.sessions.Len(),
	}

	// The form still works without the backend, but every submission will fail
	status := http.StatusOK
	if !response.OCRService.Available {
		response.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	h.writeJSON(w, status, response)
}

// respond redirects browsers back to the page and answers JSON clients with state
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, u *uploader.Uploader) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		h.writeJSON(w, http.StatusOK, u.Snapshot())
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "error", err)
	}
}

// sendError sends an error response
func (h *Handler) sendError(w http.ResponseWriter, statusCode int, message string) {
	h.writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// readFirstFile returns the first file part of field, or nil when there is none.
// Parts after it are left unread.
func readFirstFile(mr *multipart.Reader, field string) (*models.ImageFile, error) {
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read form: %w", err)
		}

		if part.FormName() != field || part.FileName() == "" {
			part.Close()
			continue
		}

		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", part.FileName(), err)
		}
		return &models.ImageFile{
			Name:        part.FileName(),
			ContentType: part.Header.Get("Content-Type"),
			Data:        data,
		}, nil
	}
}

// logRequests writes one access log line per request
func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.log.Info("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Microsecond))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
