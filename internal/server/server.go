// Package server serves the site over HTTP: rendered pages, a JSON API over
// the catalog and display board, and a websocket feed of display snapshots.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lekki-ent/marquee/internal/catalog"
	"github.com/lekki-ent/marquee/internal/display"
	"github.com/lekki-ent/marquee/internal/rotation"
)

//go:embed static/*
var embeddedStatic embed.FS

const (
	defaultPushInterval   = time.Second
	defaultWallLimit      = 20
	defaultHighlightLimit = 12
)

// Board is the display state the server reads and controls.
type Board interface {
	Current() display.Snapshot
	Next() (int, error)
	Prev() (int, error)
	JumpTo(i int) (int, error)
	ReplaceSlides(slides []rotation.Slide) error
}

// Server wraps HTTP serving of pages, API and the live display feed.
type Server struct {
	httpServer *http.Server
	board      Board
	catalog    *catalog.Catalog
	staticFS   fs.FS
	logger     *slog.Logger
	now        func() time.Time

	pushInterval   time.Duration
	wallLimit      int
	highlightLimit int

	mu      sync.Mutex
	clients map[uuid.UUID]string
	done    chan struct{}
	stopped bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for request and websocket diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPushInterval sets how often websocket clients receive a snapshot.
func WithPushInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.pushInterval = d
		}
	}
}

// WithGalleryLimits caps the gallery wall and the home page highlight strip.
func WithGalleryLimits(wall, highlights int) Option {
	return func(s *Server) {
		if wall > 0 {
			s.wallLimit = wall
		}
		if highlights > 0 {
			s.highlightLimit = highlights
		}
	}
}

// WithClock sets the time source used to split upcoming and past events.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a configured HTTP server.
func New(addr string, board Board, cat *catalog.Catalog, opts ...Option) *Server {
	staticFS, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		panic("static assets missing: " + err.Error())
	}

	mux := http.NewServeMux()
	s := &Server{
		board:          board,
		catalog:        cat,
		staticFS:       staticFS,
		logger:         slog.Default(),
		now:            time.Now,
		pushInterval:   defaultPushInterval,
		wallLimit:      defaultWallLimit,
		highlightLimit: defaultHighlightLimit,
		clients:        make(map[uuid.UUID]string),
		done:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes(mux)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.logRequests(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root handler, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run blocks and serves HTTP traffic. It returns nil after Shutdown.
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("http server listening", "addr", ln.Addr().String())
	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts the server down and closes websocket feeds.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		close(s.done)
	}
	s.mu.Unlock()
	return s.httpServer.Shutdown(ctx)
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(s.staticFS))))

	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /events", s.handleEventsPage)
	mux.HandleFunc("GET /events/{slug}", s.handleEventPage)
	mux.HandleFunc("GET /gallery", s.handleGalleryPage)
	mux.HandleFunc("GET /about", s.handleAboutPage)
	mux.HandleFunc("/", s.handleNotFound)

	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/events/{slug}", s.handleEvent)
	mux.HandleFunc("GET /api/gallery", s.handleGallery)
	mux.HandleFunc("GET /api/display", s.handleDisplay)
	mux.HandleFunc("POST /api/hero/next", s.handleHeroNext)
	mux.HandleFunc("POST /api/hero/prev", s.handleHeroPrev)
	mux.HandleFunc("POST /api/hero/jump", s.handleHeroJump)
	mux.HandleFunc("PUT /api/hero/slides", s.handleHeroSlides)

	mux.HandleFunc("GET /ws/display", s.handleDisplayWS)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The websocket upgrade needs the raw writer's Hijacker.
		if r.URL.Path == "/ws/display" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseLimit reads ?limit=, clamped to fallback. Non-positive fallbacks
// disable the cap.
func parseLimit(r *http.Request, fallback int) int {
	if fallback <= 0 {
		return fallback
	}
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	if value > fallback {
		return fallback
	}
	return value
}
