package httpdebug

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/marmos91/nfsbench/internal/bench"
	"github.com/marmos91/nfsbench/internal/logger"
)

// Server is the optional debug HTTP server, enabled via metrics.enabled in
// configuration and listening on metrics.addr. It never blocks the benchmark itself: Start runs it in a
// goroutine and Stop tears it down with a bounded grace period.
type Server struct {
	server       *http.Server
	addr         string
	shutdownOnce sync.Once
}

// NewServer builds a debug server bound to addr, serving /healthz, /metrics,
// and /stats.json for the given Mount.
func NewServer(addr string, m *bench.Mount) *Server {
	return &Server{
		server: &http.Server{
			Addr:         addr,
			Handler:      NewRouter(m),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			IdleTimeout:  30 * time.Second,
		},
		addr: addr,
	}
}

// Start listens on the configured address and blocks until ctx is cancelled
// or the server fails to serve. On cancellation it shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("debug http server listening", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("debug http server failed: %w", err)
	}
}

// Stop gracefully shuts the server down. Safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("debug http server shutdown: %w", err)
		} else {
			logger.Debug("debug http server stopped")
		}
	})
	return shutdownErr
}
