package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var allKeys = []string{
	"HTTP_ADDR", "SHUTDOWN_TIMEOUT", "WORKER_MIN", "WORKER_MAX", "WORKER_COUNT",
	"SCALE_INTERVAL_MS", "SCALE_UP_BACKLOG_PER_WORKER", "SCALE_DOWN_IDLE_TICKS",
	"QUEUE_HIGH_WATERMARK", "OCC_BASE_URL", "REMOTE_TIMEOUT_MS", "BREAKER_FAILURES",
	"BREAKER_OPEN_MS", "SIMULATOR_ADDR", "SIMULATOR_LATENCY_MS", "LANGUAGE",
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
	c := Load()
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, 15*time.Second, c.ShutdownTimeout)
	assert.Equal(t, 3, c.WorkerMin)
	assert.Equal(t, 8, c.WorkerMax)
	assert.Equal(t, 3, c.InitialWorkerCount)
	assert.Equal(t, 500*time.Millisecond, c.ScaleInterval)
	assert.Equal(t, 100, c.ScaleUpBacklogPerWorker)
	assert.Equal(t, 6, c.ScaleDownIdleTicks)
	assert.Equal(t, 5000, c.QueueHighWatermark)
	assert.Empty(t, c.OCCBaseURL)
	assert.Equal(t, 30*time.Second, c.RemoteTimeout)
	assert.Equal(t, 5, c.BreakerFailures)
	assert.Equal(t, 10*time.Second, c.BreakerOpen)
	assert.Equal(t, ":8081", c.SimulatorAddr)
	assert.Zero(t, c.SimulatorLatency)
	assert.Equal(t, "en", c.Language)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "2")
	t.Setenv("WORKER_MIN", "2")
	t.Setenv("WORKER_MAX", "3")
	t.Setenv("WORKER_COUNT", "2")
	t.Setenv("SCALE_INTERVAL_MS", "250")
	t.Setenv("OCC_BASE_URL", "http://occ.local/occ/v2/electronics")
	t.Setenv("REMOTE_TIMEOUT_MS", "1500")
	t.Setenv("BREAKER_FAILURES", "2")
	t.Setenv("SIMULATOR_LATENCY_MS", "40")
	t.Setenv("LANGUAGE", "de")
	c := Load()
	assert.Equal(t, ":9090", c.HTTPAddr)
	assert.Equal(t, 2*time.Second, c.ShutdownTimeout)
	assert.Equal(t, 2, c.WorkerMin)
	assert.Equal(t, 3, c.WorkerMax)
	assert.Equal(t, 2, c.InitialWorkerCount)
	assert.Equal(t, 250*time.Millisecond, c.ScaleInterval)
	assert.Equal(t, "http://occ.local/occ/v2/electronics", c.OCCBaseURL)
	assert.Equal(t, 1500*time.Millisecond, c.RemoteTimeout)
	assert.Equal(t, 2, c.BreakerFailures)
	assert.Equal(t, 40*time.Millisecond, c.SimulatorLatency)
	assert.Equal(t, "de", c.Language)
}

func TestLoadInvalidNumberFallsBack(t *testing.T) {
	t.Setenv("WORKER_MAX", "many")
	c := Load()
	assert.Equal(t, 8, c.WorkerMax)
}

func TestLoadNormalizesBounds(t *testing.T) {
	t.Setenv("WORKER_MIN", "0")
	t.Setenv("WORKER_MAX", "-2")
	t.Setenv("WORKER_COUNT", "9")
	t.Setenv("BREAKER_FAILURES", "0")
	t.Setenv("REMOTE_TIMEOUT_MS", "0")
	t.Setenv("OCC_BASE_URL", "http://occ.local/occ/v2/")
	c := Load()
	assert.Equal(t, 1, c.WorkerMin)
	assert.Equal(t, 1, c.WorkerMax)
	assert.Equal(t, 1, c.InitialWorkerCount)
	assert.Equal(t, 1, c.BreakerFailures)
	assert.Equal(t, 30*time.Second, c.RemoteTimeout)
	assert.Equal(t, "http://occ.local/occ/v2", c.OCCBaseURL)
}
