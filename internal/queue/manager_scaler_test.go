package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/product-configurator-simulator/internal/action"
	"github.com/fairyhunter13/product-configurator-simulator/internal/config"
	"github.com/fairyhunter13/product-configurator-simulator/internal/obs"
)

func TestManagerScaler_UpAndDown(t *testing.T) {
	t.Setenv("WORKER_MIN", "1")
	t.Setenv("WORKER_MAX", "3")
	t.Setenv("WORKER_COUNT", "1")
	t.Setenv("SCALE_INTERVAL_MS", "50")
	t.Setenv("SCALE_UP_BACKLOG_PER_WORKER", "1")
	t.Setenv("SCALE_DOWN_IDLE_TICKS", "1")

	cfg := config.Load()
	obs.InitLogger()
	slow := HandlerFunc(func(ctx context.Context, _ action.Action) {
		select {
		case <-ctx.Done():
		case <-time.After(5 * time.Millisecond):
		}
	})
	mgr := NewManager(cfg, New(8), slow)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mgr.Start(ctx)
	defer mgr.Stop()

	for i := 0; i < 50; i++ {
		_ = mgr.Enqueue(update(uint64(i + 1)))
	}

	require.Eventually(t, func() bool { return mgr.WorkerCount() > 1 }, 2*time.Second, 25*time.Millisecond, "expected scale up")

	ctxDrain, cancelDrain := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancelDrain()
	require.True(t, mgr.DrainUntil(ctxDrain), "drain timeout")

	require.Eventually(t, func() bool { return mgr.WorkerCount() == cfg.WorkerMin }, 2*time.Second, 50*time.Millisecond,
		"expected scale down to %d", cfg.WorkerMin)
}
