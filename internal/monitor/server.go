// Package monitor serves a read-only HTTP view of a running print: live
// progress as JSON and, once the run is done, its summary and HTML report.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/fakeprinter/internal/engine"
	"github.com/JonMunkholm/fakeprinter/internal/logging"
	"github.com/JonMunkholm/fakeprinter/internal/monitor/middleware"
	"github.com/JonMunkholm/fakeprinter/internal/report"
	"github.com/JonMunkholm/fakeprinter/internal/stats"
)

// DefaultShutdownTimeout bounds graceful shutdown when none is configured.
const DefaultShutdownTimeout = 5 * time.Second

// Server is the monitor HTTP server.
type Server struct {
	tracker *Tracker
	router  *chi.Mux
}

// NewServer returns a Server reading from t.
func NewServer(t *Tracker) *Server {
	s := &Server{
		tracker: t,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(securityHeaders)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/", s.handleReport)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/progress", s.handleProgress)
		r.Get("/summary", s.handleSummary)
	})
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
// within shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln, shutdownTimeout)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("monitor listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ErrorResponse is the JSON body of an error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// SummaryResponse is the body of /api/summary.
type SummaryResponse struct {
	RunID      string        `json:"runId"`
	Name       string        `json:"name"`
	Mode       engine.Mode   `json:"mode"`
	Terminated bool          `json:"terminated"`
	Reason     string        `json:"reason,omitempty"`
	SetupError string        `json:"setupError,omitempty"`
	DurationMS int64         `json:"durationMs"`
	Summary    stats.Summary `json:"summary"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	p := s.tracker.Progress()
	writeJSON(w, r, http.StatusOK, struct {
		engine.Progress
		Percent int `json:"percent"`
	}{p, p.Percent()})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	res, ok := s.tracker.Result()
	if !ok {
		writeJSON(w, r, http.StatusConflict, ErrorResponse{Error: "run in progress", Code: "RUN001"})
		return
	}

	resp := SummaryResponse{
		RunID:      res.RunID.String(),
		Name:       res.Name,
		Mode:       res.Mode,
		Terminated: res.Terminated,
		DurationMS: res.Duration().Milliseconds(),
		Summary:    res.Summary,
	}
	if res.Reason != nil {
		resp.Reason = res.Reason.Error()
	}
	if res.SetupErr != nil {
		resp.SetupError = res.SetupErr.Error()
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	res, ok := s.tracker.Result()
	if !ok {
		w.Header().Set("Refresh", "2")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusAccepted)
		p := s.tracker.Progress()
		w.Write([]byte("print " + p.Name + " is " + string(p.State) + "\n"))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := report.Page{
		Title:   "Fake Print Summary: " + res.Name,
		RunID:   res.RunID.String(),
		Mode:    string(res.Mode),
		Summary: res.Summary,
	}
	if err := report.HTML(page).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render report", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode", "error", err)
	}
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
