package calendar

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/zombor/receipt-calendar/internal/scanning"
)

const (
	// maxJSONBody limits JSON request bodies, including base64 images
	maxJSONBody = 10 << 20
	// maxUploadBody limits multipart receipt uploads
	maxUploadBody = 20 << 20

	defaultExtractTimeout = 60 * time.Second
)

// Extractor reads structured data from receipt images
type Extractor interface {
	Extract(ctx context.Context, req scanning.Request) (*scanning.Extraction, error)
}

// ServerConfig holds the server's tunables
type ServerConfig struct {
	Version        string
	ExtractTimeout time.Duration
}

// Server handles HTTP requests for the calendar and receipt extraction
type Server struct {
	service   *Service
	extractor Extractor
	config    ServerConfig
	mux       *http.ServeMux
	handler   http.Handler
}

// NewServer creates a new Server with default mux. A nil extractor
// disables the extraction endpoints.
func NewServer(service *Service, extractor Extractor, cfg ServerConfig) *Server {
	return NewServerWithMux(service, extractor, cfg, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, extractor Extractor, cfg ServerConfig, mux *http.ServeMux) *Server {
	if cfg.ExtractTimeout <= 0 {
		cfg.ExtractTimeout = defaultExtractTimeout
	}
	s := &Server{
		service:   service,
		extractor: extractor,
		config:    cfg,
		mux:       mux,
	}
	s.registerRoutes()
	s.handler = logRequests(corsMiddleware(s.mux))
	return s
}

// corsMiddleware adds CORS headers to every response and answers pre-flight requests
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// logRequests logs one line per request
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// registerRoutes registers all routes on the server's mux
func (s *Server) registerRoutes() {
	// Any method is routed here so unsupported ones get a JSON 405
	s.mux.HandleFunc("/api/extract-receipt", s.handleExtractReceipt)
	s.mux.HandleFunc("POST /api/receipts/scan", s.handleScanReceipt)

	s.mux.HandleFunc("GET /api/barcode/{year}/{month}/svg", s.handleBarcodeSVG)
	s.mux.HandleFunc("GET /api/barcode/{year}/{month}", s.handleBarcode)
	s.mux.HandleFunc("GET /api/calendar/{year}/{month}", s.handleCalendar)

	s.mux.HandleFunc("GET /api/expenses/{year}/{month}/{day}", s.handleGetExpenses)
	s.mux.HandleFunc("POST /api/expenses/{year}/{month}/{day}", s.handleAddExpenses)
	s.mux.HandleFunc("PUT /api/expenses/{year}/{month}/{day}", s.handleReplaceExpenses)
	s.mux.HandleFunc("DELETE /api/expenses/{year}/{month}/{day}/{id}", s.handleDeleteExpense)

	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// Start serves HTTP on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ExtractTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
