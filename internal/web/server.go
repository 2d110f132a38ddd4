// Package web exposes the layout engine over HTTP as a JSON API:
// catalog lookup, layout CRUD and validation, file inspection, and
// the session-based editing workflow.
package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"importador/internal/config"
	"importador/internal/ingest"
	"importador/internal/kvstore"
	"importador/internal/layout"
	"importador/internal/session"
)

// Server is the HTTP front end of the layout service.
type Server struct {
	cfg      *config.Config
	ingestor *ingest.Ingestor
	store    *layout.Store
	catalog  layout.Catalog
	sessions *session.Manager
	prefs    *kvstore.Store

	router  *chi.Mux
	server  *http.Server
	limiter *rateLimiter
}

// NewServer wires the handlers over the shared collaborators.
func NewServer(cfg *config.Config, ingestor *ingest.Ingestor, store *layout.Store,
	catalog layout.Catalog, sessions *session.Manager, prefs *kvstore.Store) *Server {

	s := &Server{
		cfg:      cfg,
		ingestor: ingestor,
		store:    store,
		catalog:  catalog,
		sessions: sessions,
		prefs:    prefs,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		s.limiter = newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(s.limiter.middleware)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Field catalog and transformation registry
		r.Get("/catalog", s.handleCatalog)
		r.Get("/transformations", s.handleListTransformations)
		r.Post("/transformations/apply", s.handleApplyTransformation)

		// Layout documents
		r.Get("/layouts", s.handleListLayouts)
		r.Post("/layouts", s.handleSaveLayout)
		r.Post("/layouts/validate", s.handleValidateLayout)
		r.Get("/layouts/{id}", s.handleGetLayout)
		r.Delete("/layouts/{id}", s.handleDeleteLayout)

		// Source file inspection
		r.Post("/files/info", s.handleFileInfo)
		r.Post("/files/preview", s.handleFilePreview)

		// Editing sessions
		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleCloseSession)
			r.Post("/file", s.handleSessionSelectFile)
			r.Post("/process", s.handleSessionProcess)
			r.Post("/bind", s.handleSessionBind)
			r.Post("/transformation", s.handleSessionTransformation)
			r.Post("/details", s.handleSessionDetails)
			r.Post("/save", s.handleSessionSave)
			r.Post("/reset", s.handleSessionReset)
		})

		// UI preferences (key/value blobs)
		r.Get("/preferences/{key}", s.handleGetPreference)
		r.Put("/preferences/{key}", s.handleSetPreference)
		r.Delete("/preferences/{key}", s.handleDeletePreference)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and its background work.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.close()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds hardening headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// rateLimiter is a simple token bucket per client IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	window   time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		stop:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// cleanup drops stale visitor entries every minute until close.
func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
		}
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// close stops the cleanup goroutine. Safe to call more than once.
func (rl *rateLimiter) close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: time.Now()}
		return true
	}
	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}
	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r.RemoteAddr) {
			w.Header().Set("Retry-After", "60")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded","code":"REQ429"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
