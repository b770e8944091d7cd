package cli

import (
	"errors"
	"io"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applog "fintrack/internal/log"
)

func discardLogger() *applog.Logger {
	return applog.New(applog.Config{Output: io.Discard})
}

func TestDrain_CleanupRunsAfterWork(t *testing.T) {
	var (
		mu    sync.Mutex
		order []string
	)
	record := func(step string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, step)
	}

	release := make(chan struct{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()

	err := Drain(discardLogger(), time.Second,
		func() error {
			<-release
			record("work")
			return nil
		},
		func() error {
			record("cleanup")
			return nil
		})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"work", "cleanup"}, order)
}

func TestDrain_ReturnsWorkError(t *testing.T) {
	cleaned := false
	err := Drain(discardLogger(), time.Second,
		func() error { return errors.New("catch up failed") },
		func() error { cleaned = true; return errors.New("close failed") })

	require.Error(t, err)
	assert.Equal(t, "catch up failed", err.Error())
	assert.True(t, cleaned, "cleanup still runs when the work fails")
}

func TestDrain_CleanupTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	start := time.Now()
	err := Drain(discardLogger(), 20*time.Millisecond,
		func() error { return nil },
		func() error { <-block; return nil })

	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestGracefulShutdown_CancelsOnSignal(t *testing.T) {
	ctx, stop := GracefulShutdown(discardLogger())
	defer stop()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled after SIGTERM")
	}
}
