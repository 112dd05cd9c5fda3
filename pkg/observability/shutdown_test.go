package observability

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoverPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	func() {
		defer RecoverPanic(logger, "worker")
		panic("boom")
	}()

	assert.Contains(t, buf.String(), "boom")
	assert.Contains(t, buf.String(), "worker")
}

func TestWaitForShutdownRunsRegisteredFuncs(t *testing.T) {
	logger := NewLogger(ErrorLevel, io.Discard)
	server := &http.Server{Addr: "127.0.0.1:0"}

	sm := NewShutdownManager(logger, server, 5*time.Second)

	var calls int32
	sm.RegisterShutdownFunc(func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	sm.RegisterShutdownFunc(func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- sm.WaitForShutdown() }()

	// give WaitForShutdown time to install its signal handler
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not complete")
	}

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestWaitForShutdownReportsErrors(t *testing.T) {
	logger := NewLogger(ErrorLevel, io.Discard)
	sm := NewShutdownManager(logger, nil, 5*time.Second)
	sm.RegisterShutdownFunc(func(context.Context) error {
		return assert.AnError
	})

	done := make(chan error, 1)
	go func() { done <- sm.WaitForShutdown() }()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not complete")
	}
}
