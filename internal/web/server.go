package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/dshills/stdland/internal/config"
	"github.com/dshills/stdland/internal/lookup"
	"github.com/dshills/stdland/internal/searcher"
)

//go:embed templates/*.html static/*
var assets embed.FS

// Server serves the search page, the lookup redirects and the JSON API
type Server struct {
	cfg      config.ServerConfig
	search   config.SearchConfig
	searcher *searcher.Searcher
	lookup   *lookup.Service
	pages    *template.Template
	limiter  *clientLimiter

	handler http.Handler
}

// New creates a server. The searcher and lookup service are shared with
// the caller and are not closed by the server.
func New(cfg *config.Config, s *searcher.Searcher, l *lookup.Service) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if s == nil || l == nil {
		return nil, errors.New("searcher and lookup service are required")
	}

	pages, err := template.New("").Funcs(templateFuncs).ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	srv := &Server{
		cfg:      cfg.Server,
		search:   cfg.Search,
		searcher: s,
		lookup:   l,
		pages:    pages,
		limiter:  newClientLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst),
	}
	srv.handler = srv.routes()
	return srv, nil
}

// Handler returns the server's HTTP handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	static, err := fs.Sub(assets, "static")
	if err != nil {
		// static/ is embedded above
		panic(err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /donate", s.handleDonate)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	mux.Handle("GET /api/docs/{module}", s.limitRate(http.HandlerFunc(s.handleDocs)))
	mux.Handle("GET /api/search", s.limitRate(http.HandlerFunc(s.handleSearch)))
	mux.HandleFunc("GET /{id...}", s.handleLookup)

	return logRequests(recoverPanics(mux))
}

// Run listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s", ln.Addr())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Printf("Shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(s.cfg.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func shutdownTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}
