package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStart_InvalidSpec(t *testing.T) {
	for _, spec := range []string{"", "not a schedule", "* * *", "@every banana"} {
		stop, err := Start(context.Background(), spec, func(context.Context) {}, discard())
		assert.Error(t, err, spec)
		assert.Nil(t, stop)
	}
}

func TestStart_RunsJobAndStops(t *testing.T) {
	var runs atomic.Int32
	stop, err := Start(context.Background(), "@every 1s", func(context.Context) { runs.Add(1) }, discard())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
	stop()
	stop() // idempotent

	n := runs.Load()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, n, runs.Load(), "no runs after stop")
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stop, err := Start(ctx, "@hourly", func(context.Context) {}, discard())
	require.NoError(t, err)

	cancel()
	finished := make(chan struct{})
	go func() {
		stop()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return after context cancel")
	}
}
