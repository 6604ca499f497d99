// Package server exposes the relay and the price source over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/amishk599/priceask/internal/model"
	"github.com/amishk599/priceask/internal/relay"
)

// DefaultMaxBodyBytes is used when Options.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 1 << 20

// Options tunes the HTTP surface.
type Options struct {
	AllowedOrigins []string // CORS; "*" allows any origin
	MaxBodyBytes   int64    // cap on the ask body
}

// Server holds the handlers' dependencies.
type Server struct {
	relay   *relay.Relay
	prices  model.PriceFetcher
	origins []string
	maxBody int64
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Server. prices may be nil, in which case the price routes
// are not mounted.
func New(r *relay.Relay, prices model.PriceFetcher, opts Options, logger *slog.Logger) *Server {
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &Server{
		relay:   r,
		prices:  prices,
		origins: opts.AllowedOrigins,
		maxBody: maxBody,
		logger:  logger,
		now:     time.Now,
	}
}

// Handler builds the chi router with all middleware and routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(requestID)
	r.Use(requestLogger(s.logger))
	r.Use(recoverJSON(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/openai", s.handleAsk)
		if s.prices != nil {
			r.Get("/prices/{date}/{region}", s.handlePrices)
		}
	})

	return r
}

// Run serves handler on addr until ctx is cancelled, then shuts down
// gracefully, waiting up to shutdownTimeout for in-flight requests.
func Run(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down http server", "timeout", shutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
