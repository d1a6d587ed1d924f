package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/kiesman99/cosmoview/internal/annotation"
	"github.com/kiesman99/cosmoview/internal/api"
	"github.com/kiesman99/cosmoview/internal/catalog"
	"github.com/kiesman99/cosmoview/internal/compare"
	"github.com/kiesman99/cosmoview/internal/eventloop"
	"github.com/kiesman99/cosmoview/internal/logging"
	"github.com/kiesman99/cosmoview/internal/metrics"
	"github.com/kiesman99/cosmoview/internal/snapshot"
	"github.com/kiesman99/cosmoview/internal/viewer"
	"github.com/kiesman99/cosmoview/pkg/tile"
	"github.com/kiesman99/cosmoview/pkg/viewport"
)

// DefaultHighlightZoom is used when a highlight request has no zoom
const DefaultHighlightZoom = 8.0

// DefaultTimeout bounds API requests when Config.Timeout is unset
const DefaultTimeout = 30 * time.Second

var errSessionNotFound = errors.New("session not found")

// Config contains everything a server needs. Zero values get defaults.
type Config struct {
	Version string
	// Timeout bounds every API request except event streams
	Timeout time.Duration

	Viewer            viewer.Options
	HighlightDuration time.Duration
	HighlightZoom     float64

	// Resolver loads tile source descriptors
	Resolver viewer.Resolver
	// Tiles downloads tiles for view snapshots
	Tiles snapshot.Fetcher
	// Catalog is optional. Without it catalog lookups return NOT_FOUND.
	Catalog *catalog.Catalog
	// CatalogBaseURL is prepended to catalog descriptor URLs that start
	// with a slash
	CatalogBaseURL string
	// AllowedSources limits client supplied descriptor URLs to these
	// prefixes. Empty allows any http(s) URL.
	AllowedSources []string

	Metrics *metrics.Metrics
	Logger  *slog.Logger
	// OriginPatterns are the hosts allowed to open event streams from a
	// browser. Empty allows same origin only.
	OriginPatterns []string
}

// Server implements the ServerInterface from the generated API. It owns
// every viewer and comparison session.
type Server struct {
	cfg       Config
	log       *slog.Logger
	metrics   *metrics.Metrics
	startTime time.Time

	// ctx outlives requests; descriptor fetches started by a request run on
	// it and end when the server is closed
	ctx    context.Context
	cancel context.CancelFunc

	snapshots   *snapshot.Renderer
	viewers     *registry[*viewerSession]
	comparisons *registry[*comparisonSession]
}

// NewServer creates a new server instance
func NewServer(cfg Config) *Server {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HighlightZoom <= 0 {
		cfg.HighlightZoom = DefaultHighlightZoom
	}
	if cfg.Resolver == nil || cfg.Tiles == nil {
		p := tile.NewProcessor("cosmoview/"+cfg.Version, cfg.Timeout)
		if cfg.Resolver == nil {
			cfg.Resolver = p
		}
		if cfg.Tiles == nil {
			cfg.Tiles = p
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New(false)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:         cfg,
		log:         cfg.Logger,
		metrics:     cfg.Metrics,
		startTime:   time.Now(),
		ctx:         ctx,
		cancel:      cancel,
		snapshots:   snapshot.New(cfg.Tiles, snapshot.DefaultWorkers, cfg.Logger),
		viewers:     newRegistry[*viewerSession](),
		comparisons: newRegistry[*comparisonSession](),
	}
}

// Handler returns the router serving the API under /api/v1, the event
// streams and /metrics
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logContext)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(s.log.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)

	// CORS middleware for API access
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		// event streams live as long as the client stays connected
		r.Get("/viewers/{viewerId}/events", s.ViewerEvents)
		r.Get("/comparisons/{comparisonId}/events", s.ComparisonEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.cfg.Timeout))
			r.Get("/viewers/{viewerId}/snapshot", s.ViewerSnapshot)
			api.HandlerWithOptions(s, api.ChiServerOptions{
				BaseRouter:       r,
				ErrorHandlerFunc: s.paramError,
			})
		})
	})

	// Legacy health endpoint (without /api/v1 prefix for backward compatibility)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/v1/health", http.StatusMovedPermanently)
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	return r
}

// Close destroys every session and cancels outstanding descriptor fetches
func (s *Server) Close() {
	s.cancel()
	for _, sess := range s.viewers.drain() {
		sess.close(context.Background())
		s.metrics.Viewers.Dec()
	}
	for _, sess := range s.comparisons.drain() {
		sess.close(context.Background())
		s.metrics.Comparisons.Dec()
	}
	s.log.Info("server closed")
}

// GetHealth implements the health check endpoint
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	uptime := int(time.Since(s.startTime).Seconds())
	viewers := s.viewers.len()
	comparisons := s.comparisons.len()

	s.writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:      api.Healthy,
		Timestamp:   time.Now(),
		Uptime:      &uptime,
		Version:     &s.cfg.Version,
		Viewers:     &viewers,
		Comparisons: &comparisons,
	})
}

func (s *Server) newLoop(kind, id string) *eventloop.Loop {
	return eventloop.New(s.log.With(kind, id))
}

func (s *Server) viewerOptions(container *api.Size, log *slog.Logger) viewer.Options {
	opts := s.cfg.Viewer
	if container != nil {
		opts.Container = viewport.Size{Width: container.Width, Height: container.Height}
	}
	opts.Logger = log
	return opts
}

// decode reads a JSON body and writes INVALID_JSON on failure
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		requestID := requestID(r)
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON",
			"Invalid JSON in request body", &requestID, nil)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encoding response", "error", err)
	}
}

// writeError maps domain errors to the JSON error envelope
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := requestID(r)

	var descErr *tile.DescriptorError
	var tileErr *snapshot.TileError
	switch {
	case errors.Is(err, errSessionNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, annotation.ErrNotFound):
		s.writeErrorResponse(w, http.StatusNotFound, "NOT_FOUND", err.Error(), &requestID, nil)

	case errors.As(err, &descErr):
		response := api.TileSourceErrorResponse{
			Error:      "TILE_SOURCE_ERROR",
			Message:    descErr.Message,
			Url:        descErr.URL,
			StatusCode: descErr.StatusCode,
			RequestId:  &requestID,
		}
		s.writeJSON(w, http.StatusBadGateway, response)

	case errors.As(err, &tileErr):
		failed := make([]map[string]interface{}, 0, len(tileErr.FailedTiles))
		for _, f := range tileErr.FailedTiles {
			ft := map[string]interface{}{"url": f.URL, "error": f.Error}
			if f.StatusCode != nil {
				ft["status_code"] = *f.StatusCode
			}
			failed = append(failed, ft)
		}
		s.writeErrorResponse(w, http.StatusBadGateway, "TILE_ERROR", tileErr.Message, &requestID,
			map[string]interface{}{
				"total_tiles":      tileErr.TotalTiles,
				"successful_tiles": tileErr.SuccessfulTiles,
				"failed_tiles":     failed,
			})

	case errors.Is(err, viewer.ErrNotReady):
		s.writeErrorResponse(w, http.StatusConflict, "NOT_READY", err.Error(), &requestID, nil)

	case errors.Is(err, viewer.ErrDestroyed),
		errors.Is(err, compare.ErrOverlayReadOnly),
		errors.Is(err, compare.ErrClosed),
		errors.Is(err, eventloop.ErrClosed),
		errors.Is(err, snapshot.ErrEmptyRegion):
		s.writeErrorResponse(w, http.StatusConflict, "CONFLICT", err.Error(), &requestID, nil)

	case errors.Is(err, viewer.ErrInvalidZoom),
		errors.Is(err, viewer.ErrInvalidContainer),
		errors.Is(err, viewport.ErrInvalidRotation),
		errors.Is(err, compare.ErrInvalidMode),
		errors.Is(err, compare.ErrNoImage),
		errors.Is(err, errInvalidRequest):
		s.writeValidationErrorResponse(w, err.Error(), &requestID)

	case errors.Is(err, context.DeadlineExceeded):
		s.writeErrorResponse(w, http.StatusGatewayTimeout, "TIMEOUT",
			"Request timed out", &requestID, map[string]interface{}{
				"timeout_seconds": int(s.cfg.Timeout.Seconds()),
			})

	default:
		s.log.ErrorContext(r.Context(), "request failed", "error", err)
		s.writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Internal server error", &requestID, nil)
	}
}

// paramError reports malformed path and query parameters
func (s *Server) paramError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := requestID(r)
	s.writeValidationErrorResponse(w, err.Error(), &requestID)
}

// writeErrorResponse writes a standard error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string, requestID *string, details map[string]interface{}) {
	response := api.ErrorResponse{
		Error:     errorCode,
		Message:   message,
		RequestId: requestID,
	}

	if details != nil {
		response.Details = &details
	}

	s.writeJSON(w, statusCode, response)
}

// writeValidationErrorResponse writes a validation error response
func (s *Server) writeValidationErrorResponse(w http.ResponseWriter, message string, requestID *string) {
	response := api.ValidationErrorResponse{
		Error:     api.VALIDATIONERROR,
		Message:   message,
		RequestId: requestID,
		ValidationErrors: []struct {
			Code    *string `json:"code,omitempty"`
			Field   string  `json:"field"`
			Message string  `json:"message"`
		}{
			{
				Field:   "request",
				Message: message,
			},
		},
	}

	s.writeJSON(w, http.StatusBadRequest, response)
}

// logContext tags the request context so records logged with it carry the
// request id
func logContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.AppendCtx(r.Context(), slog.String("request_id", requestID(r)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestID returns the id assigned by the RequestID middleware, or a fresh
// one when the handler runs without it
func requestID(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return "req_" + uuid.NewString()
}
