package filter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/harees/url-classifier/internal/config"
	"github.com/harees/url-classifier/internal/core"
	"github.com/harees/url-classifier/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultHistoryLimit = 50
	logURLMaxSize       = 256
)

// AnalyzeRequest is the body of POST /analyze. PageSignals is accepted for
// compatibility with the extension but does not affect the verdict.
type AnalyzeRequest struct {
	URL         string          `json:"url"`
	PageSignals json.RawMessage `json:"pageSignals,omitempty"`
}

// ReportRequest is the body of POST /report
type ReportRequest struct {
	URL    string   `json:"url"`
	Level  string   `json:"level"`
	Score  *float64 `json:"score"`
	Reason string   `json:"reason"`
	Action string   `json:"action"`
}

// HTTPFilter serves the classification API used by the browser extension
type HTTPFilter struct {
	service       *core.URLService
	history       core.HistoryRepository
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	cfg           config.HTTPConfig
	limiter       *clientLimiter
	server        *http.Server
	now           func() time.Time
}

// NewHTTPFilter creates a new HTTP front end
func NewHTTPFilter(
	service *core.URLService,
	history core.HistoryRepository,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
	cfg config.HTTPConfig,
) *HTTPFilter {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &HTTPFilter{
		service:       service,
		history:       history,
		logger:        logger,
		textProcessor: textProcessor,
		cfg:           cfg,
		limiter:       newClientLimiter(limit, burst),
		now:           time.Now,
	}
}

// Routes returns the API router
func (f *HTTPFilter) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(f.logRequests)
	if len(f.cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: f.cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
	}
	r.Use(f.rateLimit)

	r.Get("/health", f.handleHealth)
	r.Post("/analyze", f.handleAnalyze)
	r.Post("/report", f.handleReport)
	r.Get("/history", f.handleHistory)
	return r
}

// Start starts the HTTP server
func (f *HTTPFilter) Start() error {
	ln, err := net.Listen("tcp", f.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.cfg.ListenAddress, err)
	}

	f.server = &http.Server{
		Handler:      f.Routes(),
		ReadTimeout:  f.cfg.ReadTimeout,
		WriteTimeout: f.cfg.WriteTimeout,
	}

	f.logger.Info("HTTP filter starting", zap.String("address", ln.Addr().String()))

	go func() {
		if err := f.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts the HTTP server down
func (f *HTTPFilter) Stop() error {
	if f.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return f.server.Shutdown(ctx)
}

// ProcessURL classifies a URL without going through HTTP
func (f *HTTPFilter) ProcessURL(ctx context.Context, rawURL string) (*core.Verdict, error) {
	return f.service.Analyze(ctx, rawURL)
}

func (f *HTTPFilter) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (f *HTTPFilter) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := f.decode(w, r, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorVerdict(http.StatusRequestEntityTooLarge, "Request body too large"))
			return
		}
		// Malformed bodies are treated like an empty request.
		f.logger.Debug("Ignoring undecodable analyze body", zap.Error(err))
	}

	verdict, err := f.ProcessURL(r.Context(), req.URL)
	if err != nil {
		if errors.Is(err, core.ErrEmptyURL) {
			writeJSON(w, http.StatusBadRequest, errorVerdict(http.StatusBadRequest, "Missing 'url' in request body"))
			return
		}
		f.logger.Error("Failed to analyze url", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorVerdict(http.StatusInternalServerError, "Internal error"))
		return
	}

	writeJSON(w, http.StatusOK, verdict)
}

func (f *HTTPFilter) handleReport(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := f.decode(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.URL = strings.TrimSpace(req.URL)
	action := core.Action(strings.ToLower(strings.TrimSpace(req.Action)))
	if req.URL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing 'url'"})
		return
	}
	if !action.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "action must be 'proceed' or 'leave'"})
		return
	}

	rec := &core.ActionRecord{
		URL:       req.URL,
		Domain:    core.RegistrableDomain(req.URL),
		Level:     req.Level,
		Score:     req.Score,
		Reason:    req.Reason,
		Action:    action,
		Timestamp: f.now().UTC(),
	}
	if err := f.history.Add(r.Context(), rec); err != nil {
		f.logger.Error("Failed to record user action", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to store report"})
		return
	}

	f.logger.Info("User action recorded",
		zap.String("domain", rec.Domain),
		zap.String("action", string(rec.Action)),
		zap.String("level", rec.Level))

	w.WriteHeader(http.StatusNoContent)
}

func (f *HTTPFilter) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	records, err := f.history.Recent(r.Context(), limit)
	if err != nil {
		f.logger.Error("Failed to read history", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read history"})
		return
	}
	if records == nil {
		records = []core.ActionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (f *HTTPFilter) decode(w http.ResponseWriter, r *http.Request, v any) error {
	if f.cfg.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, f.cfg.MaxBodyBytes)
	}
	return json.NewDecoder(r.Body).Decode(v)
}

func (f *HTTPFilter) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !f.limiter.Allow(r.RemoteAddr) {
			writeJSON(w, http.StatusTooManyRequests, errorVerdict(http.StatusTooManyRequests, "Too many requests"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *HTTPFilter) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		f.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", f.textProcessor.TruncateText(r.URL.Path, logURLMaxSize)),
			zap.Int("status", ww.Status()),
			zap.String("remote", r.RemoteAddr),
			zap.Duration("duration", time.Since(start)))
	})
}

// errorVerdict keeps error bodies in the verdict shape the extension renders
func errorVerdict(code int, reason string) core.Verdict {
	return core.Verdict{
		Status: core.Status(http.StatusText(code)),
		Color:  core.ColorWarning,
		Reason: reason,
		Score:  0.5,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
