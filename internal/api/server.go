// Package api serves the checkers over HTTP. Single files and table rows
// are checked synchronously; repository and book package checks run as
// jobs whose progress is streamed to websocket clients.
package api

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/FocuswithJustin/tcvalidate/core/errors"
	"github.com/FocuswithJustin/tcvalidate/internal/check"
	"github.com/FocuswithJustin/tcvalidate/internal/logging"
	"github.com/FocuswithJustin/tcvalidate/internal/server"
)

// Checker supplies the checking options for each request and clears the
// shared caches on demand. *config.Runtime implements it.
type Checker interface {
	Options() check.Options
	ClearCaches(ctx context.Context) (int, error)
}

// Server is the check server. Create it with New and release it with
// Close, or let Run do both.
type Server struct {
	cfg      Config
	checker  Checker
	hub      *Hub
	jobs     *JobStore
	limiter  *RateLimiter
	upgrader websocket.Upgrader
	started  time.Time

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New validates cfg and starts the websocket hub.
func New(checker Checker, cfg Config) (*Server, error) {
	if err := ValidateAuthConfig(cfg.Auth); err != nil {
		return nil, errors.Wrap(err, "invalid auth config")
	}
	cfg = cfg.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:      cfg,
		checker:  checker,
		hub:      NewHub(),
		jobs:     NewJobStore(),
		upgrader: newUpgrader(cfg.AllowedOrigins),
		started:  time.Now(),
		ctx:      ctx,
		cancel:   cancel,
	}
	go s.hub.Run(ctx)

	if cfg.RateLimitRequests > 0 {
		s.limiter = NewRateLimiter(RateLimiterConfig{
			RequestsPerMinute: cfg.RateLimitRequests,
			BurstSize:         cfg.RateLimitBurst,
		})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.limiter.Cleanup(ctx, time.Minute)
		}()
	}
	return s, nil
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = server.SecurityHeaders(server.APICSPConfig(), s.routes())

	if s.cfg.Auth.Enabled {
		handler = AuthMiddleware(s.cfg.Auth, handler)
	}
	if s.limiter != nil {
		handler = s.limiter.Middleware(handler)
	}
	handler = server.CORS(server.CORSConfig{AllowedOrigins: s.cfg.AllowedOrigins}, handler)
	handler = server.Timing(handler)

	return logging.CombinedMiddleware(handler)
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/check/file", s.handleCheckFile)
	mux.HandleFunc("/api/check/table-row", s.handleCheckRow)
	mux.HandleFunc("/api/check/repo", s.handleCheckRepo)
	mux.HandleFunc("/api/check/book-package", s.handleCheckBookPackage)
	mux.HandleFunc("/api/jobs", s.handleJobs)
	mux.HandleFunc("/api/jobs/", s.handleJobByID)
	mux.HandleFunc("/api/cache/clear", s.handleCacheClear)
	mux.HandleFunc("/ws", s.handleWebSocket)

	return mux
}

// Run listens on the configured address until ctx is done, then shuts the
// HTTP server down gracefully and closes s.
func (s *Server) Run(ctx context.Context) error {
	defer s.Close()

	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return errors.NewIO("listen", s.cfg.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.Close()

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	port := 0
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}
	logging.ServerStartup("check_api", "http", port,
		"auth", s.cfg.Auth.Enabled,
		"rate_limit", s.cfg.RateLimitRequests,
		"allowed_origins", len(s.cfg.AllowedOrigins))
	if !s.cfg.Auth.Enabled {
		logging.Warn("authentication disabled", "note", "all requests allowed")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close cancels running jobs, disconnects websocket clients and waits for
// every background goroutine. It is safe to call more than once.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.jobs.CancelAll()
		s.cancel()
		s.wg.Wait()
		s.hub.Wait()
	})
}
