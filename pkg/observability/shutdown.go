package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"syscall"
	"time"
)

// DefaultShutdownTimeout bounds how long a graceful shutdown may take.
const DefaultShutdownTimeout = 30 * time.Second

// ShutdownFunc releases one resource during shutdown.
type ShutdownFunc func(context.Context) error

// ShutdownManager stops the HTTP server on SIGINT/SIGTERM, then runs the
// registered shutdown funcs concurrently under a shared deadline.
type ShutdownManager struct {
	logger  *Logger
	server  *http.Server
	timeout time.Duration

	mu    sync.Mutex
	funcs []ShutdownFunc
}

// NewShutdownManager creates a manager for server. A zero timeout means
// DefaultShutdownTimeout. server may be nil when only shutdown funcs are
// needed.
func NewShutdownManager(logger *Logger, server *http.Server, timeout time.Duration) *ShutdownManager {
	if timeout == 0 {
		timeout = DefaultShutdownTimeout
	}
	return &ShutdownManager{logger: logger, server: server, timeout: timeout}
}

// RegisterShutdownFunc adds fn to the set run during shutdown.
func (sm *ShutdownManager) RegisterShutdownFunc(fn ShutdownFunc) {
	sm.mu.Lock()
	sm.funcs = append(sm.funcs, fn)
	sm.mu.Unlock()
}

// WaitForShutdown blocks until SIGINT or SIGTERM, then drains the server
// and runs every registered shutdown func. Returns an error when the
// deadline is hit or any func fails.
func (sm *ShutdownManager) WaitForShutdown() error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	signal.Stop(sigs)

	sm.logger.WithField("signal", sig.String()).Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), sm.timeout)
	defer cancel()

	if sm.server != nil {
		if err := sm.server.Shutdown(ctx); err != nil {
			sm.logger.WithError(err).Error("server drain failed")
			return fmt.Errorf("draining server: %w", err)
		}
	}

	sm.mu.Lock()
	funcs := sm.funcs
	sm.mu.Unlock()

	errCh := make(chan error, len(funcs))
	var wg sync.WaitGroup
	for _, fn := range funcs {
		wg.Add(1)
		go func(fn ShutdownFunc) {
			defer wg.Done()
			errCh <- fn(ctx)
		}(fn)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		sm.logger.Warn("shutdown deadline reached")
		return fmt.Errorf("shutdown deadline reached after %s", sm.timeout)
	}

	close(errCh)
	var errs []error
	for err := range errCh {
		if err != nil {
			sm.logger.WithError(err).Error("shutdown step failed")
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	sm.logger.Info("shutdown complete")
	return nil
}

// RecoverPanic logs a recovered panic with its stack. Call in a defer; the
// panic is not re-raised.
func RecoverPanic(logger *Logger, context string) {
	if r := recover(); r != nil {
		logger.WithField("panic", r).
			WithField("stack", string(debug.Stack())).
			WithField("context", context).
			Error("recovered from panic")
	}
}
