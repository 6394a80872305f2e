// Package app bootstraps the operator: it loads configuration, wires the
// collaborator clients, reconcile manager, spec source and HTTP surface
// together, and manages their lifecycle.
package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"roomop/internal/audit"
	"roomop/internal/client"
	"roomop/internal/config"
	"roomop/internal/events"
	"roomop/internal/metrics"
	"roomop/internal/reconciler"
	"roomop/internal/retrypolicy"
	"roomop/internal/server"
	"roomop/internal/spec"
	"roomop/internal/specsource"
	"roomop/pkg/logging"
)

// Application is the assembled operator.
type Application struct {
	cfg config.Config

	broadcaster *events.Broadcaster
	auditLog    *audit.Log
	manager     *reconciler.Manager
	source      *specsource.Source
	httpServer  *http.Server
}

// NewApplication performs the bootstrap sequence: logging, configuration,
// collaborator clients and component wiring. The returned application is
// ready to Run.
func NewApplication(runCfg *Config) (*Application, error) {
	logLevel := logging.LevelInfo
	if runCfg.Debug {
		logLevel = logging.LevelDebug
	}
	var logOutput io.Writer = os.Stdout
	if runCfg.Silent {
		logOutput = io.Discard
	}
	logging.Init(logLevel, logOutput)

	configPath := runCfg.ConfigPath
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load configuration from %s", configPath)
		return nil, fmt.Errorf("loading configuration from %s: %w", configPath, err)
	}
	if runCfg.SpecPath != "" {
		cfg.Operator.SpecPath = runCfg.SpecPath
	}

	transport := client.NewHTTP(client.HTTPConfig{
		BaseURL:           cfg.RoomServer.BaseURL,
		AuthToken:         cfg.RoomServer.AuthToken,
		RequestTimeout:    cfg.RoomServer.RequestTimeout,
		RequestsPerSecond: cfg.RoomServer.RateLimit,
		Burst:             cfg.RoomServer.Burst,
	})

	broadcaster := events.NewBroadcaster(cfg.Events.QueueCapacity)
	auditLog := audit.NewLog(cfg.Audit.MaxEntries)
	operatorMetrics := metrics.New(broadcaster)

	manager := reconciler.NewManager(reconciler.Deps{
		Rooms:        transport,
		Artifacts:    transport,
		Policies:     transport,
		Capabilities: transport,
		Guardrails:   cfg.Guardrails,
		Retry:        retrypolicy.New(cfg.Retry, client.IsTransient),
		Audit:        auditLog,
		Broadcaster:  broadcaster,
		Metrics:      operatorMetrics,
		ApplyFanout:  cfg.Operator.ApplyFanout,
	})

	app := &Application{
		cfg:         cfg,
		broadcaster: broadcaster,
		auditLog:    auditLog,
		manager:     manager,
	}

	app.source = specsource.New(cfg.Operator.SpecPath, cfg.Operator.Interval, broadcaster,
		func(accepted *spec.RoomSpec) {
			manager.Schedule(context.Background(), reconciler.Request{Spec: accepted})
		})

	api := server.New(manager, app.source, auditLog, broadcaster,
		operatorMetrics.Handler(), cfg.Events.HeartbeatInterval)
	app.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return app, nil
}

// Run serves the operator until the context is cancelled, then shuts the
// HTTP listener and event streams down.
func (a *Application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logging.Info("Bootstrap", "watching spec file %s", a.cfg.Operator.SpecPath)
		return a.source.Run(gctx)
	})

	g.Go(func() error {
		logging.Info("Bootstrap", "HTTP API listening on %s", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn("Bootstrap", "http shutdown: %v", err)
		}
		a.broadcaster.Close()
		return nil
	})

	err := g.Wait()
	logging.Info("Bootstrap", "operator stopped")
	return err
}
