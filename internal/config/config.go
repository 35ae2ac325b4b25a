// Package config provides runtime configuration values for the service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds configuration knobs for the HTTP API, effect workers, the
// remote connector and the embedded backend simulator.
type Config struct {
	HTTPAddr                string
	ShutdownTimeout         time.Duration
	InitialWorkerCount      int
	WorkerMin               int
	WorkerMax               int
	ScaleInterval           time.Duration
	ScaleUpBacklogPerWorker int
	ScaleDownIdleTicks      int
	QueueHighWatermark      int

	OCCBaseURL       string
	RemoteTimeout    time.Duration
	BreakerFailures  int
	BreakerOpen      time.Duration
	SimulatorAddr    string
	SimulatorLatency time.Duration
	Language         string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvms(key string, defMs int) time.Duration {
	ms := atoienv(key, defMs)
	return time.Duration(ms) * time.Millisecond
}

func durenvs(key string, defSec int) time.Duration {
	sec := atoienv(key, defSec)
	return time.Duration(sec) * time.Second
}

// Load collects configuration from environment with defaults.
func Load() Config {
	minWorkers := atoienv("WORKER_MIN", 3)
	maxWorkers := atoienv("WORKER_MAX", 8)
	initialWorkers := atoienv("WORKER_COUNT", minWorkers)
	c := Config{
		HTTPAddr:                getenv("HTTP_ADDR", ":8080"),
		ShutdownTimeout:         durenvs("SHUTDOWN_TIMEOUT", 15),
		InitialWorkerCount:      initialWorkers,
		WorkerMin:               minWorkers,
		WorkerMax:               maxWorkers,
		ScaleInterval:           durenvms("SCALE_INTERVAL_MS", 500),
		ScaleUpBacklogPerWorker: atoienv("SCALE_UP_BACKLOG_PER_WORKER", 100),
		ScaleDownIdleTicks:      atoienv("SCALE_DOWN_IDLE_TICKS", 6),
		QueueHighWatermark:      atoienv("QUEUE_HIGH_WATERMARK", 5000),

		OCCBaseURL:       strings.TrimRight(getenv("OCC_BASE_URL", ""), "/"),
		RemoteTimeout:    durenvms("REMOTE_TIMEOUT_MS", 30000),
		BreakerFailures:  atoienv("BREAKER_FAILURES", 5),
		BreakerOpen:      durenvms("BREAKER_OPEN_MS", 10000),
		SimulatorAddr:    getenv("SIMULATOR_ADDR", ":8081"),
		SimulatorLatency: durenvms("SIMULATOR_LATENCY_MS", 0),
		Language:         getenv("LANGUAGE", "en"),
	}
	c.normalize()
	return c
}

// normalize keeps the worker bounds ordered and the breaker usable whatever
// the environment says.
func (c *Config) normalize() {
	if c.WorkerMin < 1 {
		c.WorkerMin = 1
	}
	if c.WorkerMax < c.WorkerMin {
		c.WorkerMax = c.WorkerMin
	}
	c.InitialWorkerCount = min(max(c.InitialWorkerCount, c.WorkerMin), c.WorkerMax)
	if c.BreakerFailures < 1 {
		c.BreakerFailures = 1
	}
	if c.RemoteTimeout <= 0 {
		c.RemoteTimeout = 30 * time.Second
	}
}
