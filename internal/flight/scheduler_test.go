package flight

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// blockingImporter holds each run open until release is closed.
type blockingImporter struct {
	started chan context.Context
	release chan struct{}
}

func (b *blockingImporter) ImportFlights(ctx context.Context) ImportResult {
	select {
	case b.started <- ctx:
	default:
	}
	<-b.release
	return ImportResult{BatchID: 1, Fetched: 1, Committed: ctx.Err() == nil}
}

type countingImporter struct {
	calls atomic.Int32
}

func (c *countingImporter) ImportFlights(ctx context.Context) ImportResult {
	c.calls.Add(1)
	return ImportResult{}
}

func TestScheduler_Run(t *testing.T) {
	t.Run("imports on every tick", func(t *testing.T) {
		// Arrange
		imp := &countingImporter{}
		log, _ := newTestLogger()
		s := NewScheduler(imp, 10*time.Millisecond, log)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan struct{})
		go func() {
			s.Run(ctx)
			close(done)
		}()

		// Assert
		assert.Eventually(t, func() bool { return imp.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("scheduler did not stop after cancel")
		}
	})

	t.Run("shutdown lets the running batch finish", func(t *testing.T) {
		// Arrange
		imp := &blockingImporter{started: make(chan context.Context, 1), release: make(chan struct{})}
		log, logs := newTestLogger()
		s := NewScheduler(imp, 10*time.Millisecond, log)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan struct{})
		go func() {
			s.Run(ctx)
			close(done)
		}()

		// Act
		var runCtx context.Context
		select {
		case runCtx = <-imp.started:
		case <-time.After(2 * time.Second):
			t.Fatal("scheduler never started an import")
		}
		cancel()

		// Assert
		assert.NoError(t, runCtx.Err(), "in-flight import must not see the shutdown")
		select {
		case <-done:
			t.Fatal("scheduler returned before the running import finished")
		case <-time.After(50 * time.Millisecond):
		}

		close(imp.release)
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("scheduler did not stop after the import finished")
		}
		assert.Contains(t, logs.String(), `"committed":true`)
	})

	t.Run("cancelled context stops before the first tick", func(t *testing.T) {
		// Arrange
		imp := &countingImporter{}
		log, logs := newTestLogger()
		s := NewScheduler(imp, time.Hour, log)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// Act
		s.Run(ctx)

		// Assert
		assert.Equal(t, int32(0), imp.calls.Load())
		assert.Contains(t, logs.String(), "import scheduler started")
		assert.Contains(t, logs.String(), "import scheduler stopped")
	})
}
