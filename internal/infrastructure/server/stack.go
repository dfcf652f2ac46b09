package server

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/domain/bundle"
	"github.com/GriffinCanCode/playground/internal/domain/loader"
	"github.com/GriffinCanCode/playground/internal/domain/preview"
	"github.com/GriffinCanCode/playground/internal/domain/resolver"
	"github.com/GriffinCanCode/playground/internal/infrastructure/config"
	"github.com/GriffinCanCode/playground/internal/infrastructure/engine"
	"github.com/GriffinCanCode/playground/internal/infrastructure/fetch"
	"github.com/GriffinCanCode/playground/internal/infrastructure/logging"
	"github.com/GriffinCanCode/playground/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/playground/internal/infrastructure/sandbox"
)

const engineWarmup = 30 * time.Second

// Stack is the build and preview pipeline shared by the server and the CLI
type Stack struct {
	Engine       *engine.Esbuild
	Fetcher      *fetch.Client
	Loader       *loader.Loader
	Orchestrator *bundle.Orchestrator
	Executor     preview.Executor // nil when previews are not executed
	Metrics      *monitoring.Metrics
}

// NewStack wires fetch, loader, engine, orchestrator and executor from cfg
func NewStack(cfg *config.Config, metrics *monitoring.Metrics, logger *logging.Logger) (*Stack, error) {
	if metrics == nil {
		metrics = monitoring.NewMetrics()
	}

	fetchCfg := fetch.DefaultConfig()
	fetchCfg.Timeout = cfg.Packages.FetchTimeout
	fetchCfg.Retries = cfg.Packages.FetchRetries
	fetchCfg.RPS = cfg.Packages.FetchRPS
	fetcher := fetch.New(fetchCfg, logger)

	modules := loader.New(fetcher, loader.Options{
		Link:     cfg.Packages.RuntimeLink,
		CacheTTL: cfg.Packages.CacheTTL,
		Observer: metrics,
	}, logger)

	eng := engine.NewEsbuild(logger)
	warmEngine(eng, metrics, logger)

	orchestrator := bundle.NewOrchestrator(eng, resolver.New(cfg.Packages.Host), modules, bundle.Options{
		PackageHost: cfg.Packages.Host,
		Observer:    metrics,
	}, logger)

	executor, err := NewExecutor(cfg.Preview, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to start preview executor: %w", err)
	}

	return &Stack{
		Engine:       eng,
		Fetcher:      fetcher,
		Loader:       modules,
		Orchestrator: orchestrator,
		Executor:     executor,
		Metrics:      metrics,
	}, nil
}

// NewExecutor creates the executor named by cfg.Executor. ExecutorNone
// yields a nil executor.
func NewExecutor(cfg config.PreviewConfig, logger *logging.Logger) (preview.Executor, error) {
	switch cfg.Executor {
	case config.ExecutorHeadless:
		sb := sandbox.DefaultConfig()
		if cfg.Timeout > 0 {
			sb.Timeout = cfg.Timeout
		}
		return preview.NewHeadlessExecutor(sb, cfg.PoolSize, logger)
	case config.ExecutorBrowser:
		bc := preview.DefaultBrowserConfig()
		if cfg.Timeout > 0 {
			bc.Timeout += cfg.Timeout
		}
		return preview.NewBrowserExecutor(bc, logger), nil
	case config.ExecutorNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown preview executor %q", cfg.Executor)
	}
}

// Close releases the executor
func (st *Stack) Close() error {
	if st.Executor == nil {
		return nil
	}
	return st.Executor.Close()
}

// warmEngine initializes the compile engine up front. Failure is logged;
// builds then report the engine failure to their callers.
func warmEngine(eng *engine.Esbuild, metrics *monitoring.Metrics, logger *logging.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), engineWarmup)
	defer cancel()

	stage := monitoring.StartStage(metrics, "engine_init")
	err := eng.Init(ctx)
	d := stage.Done(err)
	if err != nil {
		logger.Error("Compile engine unavailable", zap.Error(err))
		return
	}
	logger.Info("Compile engine ready", zap.Duration("duration", d))
}
