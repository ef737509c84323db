// Copyright (c) 2025, The Copper Authors.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/velarno/copper/pkg/cost"
	"github.com/velarno/copper/pkg/logging"
	"github.com/velarno/copper/pkg/optimizer"
	"github.com/velarno/copper/pkg/template"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Templates is the template storage the API reads and the optimizer
// persists into.
type Templates interface {
	ListTemplates(ctx context.Context) ([]template.Record, error)
	GetTemplateByName(ctx context.Context, name string) (*template.Record, error)
	CreateTemplates(ctx context.Context, states []*template.State) ([]template.ID, error)
}

// pinger is implemented by backends that can report their health.
type pinger interface {
	Ping(ctx context.Context) error
}

// costRecorder is implemented by backends that keep a cost history.
type costRecorder interface {
	AppendCost(ctx context.Context, id template.ID, est *cost.Estimate) error
}

// Server represents the HTTP server
type Server struct {
	config      *Config
	httpServer  *http.Server
	rateLimiter *rate.Limiter
	templates   Templates
	oracle      cost.Oracle
	optimizer   *optimizer.Optimizer

	mu    sync.RWMutex
	ready bool
}

// Option configures a Server.
type Option func(*Server)

// WithName sets the server name reported by the index route.
func WithName(name string) Option {
	return func(s *Server) {
		s.config.Name = name
	}
}

// WithVersion sets the server version reported by the index route.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.config.Version = version
	}
}

// WithHandler mounts additional handlers behind the middleware chain.
func WithHandler(handlers map[string]http.HandlerFunc) Option {
	return func(s *Server) {
		s.config.Handlers = handlers
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg *Config) Option {
	return func(s *Server) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// WithTemplates sets the template backend.
func WithTemplates(t Templates) Option {
	return func(s *Server) {
		s.templates = t
	}
}

// WithOracle sets the cost oracle used by the cost route.
func WithOracle(o cost.Oracle) Option {
	return func(s *Server) {
		s.oracle = o
	}
}

// WithOptimizer sets the optimizer used by the optimize route.
func WithOptimizer(o *optimizer.Optimizer) Option {
	return func(s *Server) {
		s.optimizer = o
	}
}

// New creates a new server instance.
func New(opts ...Option) *Server {
	s := &Server{
		config: parseConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.oracle == nil {
		s.oracle = &cost.Local{Limit: float64(s.config.Budget)}
	}
	if s.optimizer == nil {
		s.optimizer = optimizer.New()
	}
	s.rateLimiter = rate.NewLimiter(s.config.RateLimit, s.config.RateLimitBurst)

	s.httpServer = &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.setupRoutes(),
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
		ErrorLog:          logging.NewLogLogger(slog.LevelWarn),
	}

	return s
}

// Handler returns the root handler with every route mounted.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) setReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

func (s *Server) isReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Start serves until ctx is done or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.setReady(true)

	slog.Info("listening", "address", s.httpServer.Addr)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.setReady(false)
		return err
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.setReady(false)

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	slog.Info("shutting down server")
	return s.httpServer.Shutdown(shutdownCtx)
}

// Run starts the server and blocks until SIGINT, SIGTERM or ctx cancellation.
func (s *Server) Run(ctx context.Context) error {
	slog.Info("starting server",
		"name", s.config.Name,
		"version", s.config.Version,
		"address", s.httpServer.Addr,
		"rateLimit", float64(s.config.RateLimit),
		"rateLimitBurst", s.config.RateLimitBurst,
		"budget", s.config.Budget,
		"splitParameter", s.config.SplitParameter,
		"oracle", s.oracle.Name(),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Start(gctx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
