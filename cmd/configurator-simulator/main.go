// Package main boots the Product Configurator Simulator HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fairyhunter13/product-configurator-simulator/internal/backend"
	"github.com/fairyhunter13/product-configurator-simulator/internal/config"
	"github.com/fairyhunter13/product-configurator-simulator/internal/configurator"
	"github.com/fairyhunter13/product-configurator-simulator/internal/connector/occ"
	httpapi "github.com/fairyhunter13/product-configurator-simulator/internal/http"
	"github.com/fairyhunter13/product-configurator-simulator/internal/i18n"
	"github.com/fairyhunter13/product-configurator-simulator/internal/obs"
	"github.com/fairyhunter13/product-configurator-simulator/internal/overview"
	"github.com/fairyhunter13/product-configurator-simulator/internal/queue"
	"github.com/fairyhunter13/product-configurator-simulator/internal/store"
)

func main() {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()
	cfg := config.Load()
	obs.InitLogger()
	obs.Logger.Info("service_starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	occURL := cfg.OCCBaseURL
	var simSrv *http.Server
	if occURL == "" {
		simSrv = startSimulator(cfg)
		occURL = "http://" + localAddr(cfg.SimulatorAddr)
	}

	builder := overview.NewBuilder(i18n.Default(cfg.Language))
	conn := occ.NewClient(occURL, builder, occ.Options{
		Timeout:         cfg.RemoteTimeout,
		BreakerFailures: cfg.BreakerFailures,
		BreakerOpen:     cfg.BreakerOpen,
	})

	st := store.New()
	q := queue.New(128)
	svc := configurator.New(st, conn, q)
	mgr := queue.NewManager(cfg, q, svc)
	mgr.Start(ctx)

	app := httpapi.NewApp(cfg, svc, mgr)
	mux := httpapi.NewRouter(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		obs.Logger.Info("http_listen", "addr", cfg.HTTPAddr, "occ_base_url", occURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			obs.Logger.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigc
	obs.Logger.Info("shutdown_signal", "signal", s.String())

	app.StartShutdown()
	obs.Logger.Info("shutdown_drain_begin",
		"backlog_size", mgr.BacklogSize(),
		"worker_count", mgr.WorkerCount(),
		"gated_effects", svc.Gated(),
	)

	ctxDrain, cancelDrain := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelDrain()
	if drained := mgr.DrainUntil(ctxDrain) && svc.Drain(ctxDrain); !drained {
		obs.Logger.Warn("shutdown_drain_timeout", "gated_effects", svc.Gated())
	} else {
		obs.Logger.Info("shutdown_drain_complete")
	}

	ctxSrv, cancelSrv := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelSrv()
	if err := srv.Shutdown(ctxSrv); err != nil {
		obs.Logger.Error("http_shutdown_error", "error", err)
	}
	mgr.Stop()
	if simSrv != nil {
		if err := simSrv.Shutdown(ctxSrv); err != nil {
			obs.Logger.Error("simulator_shutdown_error", "error", err)
		}
	}
	obs.Logger.Info("service_stopped")
}

// startSimulator serves the in-memory configurator backend on
// SIMULATOR_ADDR when no OCC_BASE_URL is configured.
func startSimulator(cfg config.Config) *http.Server {
	sim := backend.New(cfg.SimulatorLatency)
	srv := &http.Server{
		Addr:              cfg.SimulatorAddr,
		Handler:           sim.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		obs.Logger.Info("simulator_listen", "addr", cfg.SimulatorAddr, "latency_ms", cfg.SimulatorLatency.Milliseconds())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			obs.Logger.Error("simulator_server_error", "error", err)
			os.Exit(1)
		}
	}()
	return srv
}

// localAddr turns a listen address like ":8081" into a dialable host:port.
func localAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
