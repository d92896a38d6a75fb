package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hayotensor/subnet-node-go/internal/chain"
	"github.com/hayotensor/subnet-node-go/internal/chain/mockchain"
	"github.com/hayotensor/subnet-node-go/internal/consensus"
	"github.com/hayotensor/subnet-node-go/internal/identity"
	"github.com/hayotensor/subnet-node-go/internal/scoring"
	"github.com/hayotensor/subnet-node-go/internal/telemetry"
	"github.com/hayotensor/subnet-node-go/internal/tracker"
)

// runNode wires the node's dependency graph with fx and runs it until an
// interrupt or terminate signal arrives.
func runNode(ctx context.Context, cfg nodeConfig) error {
	app := fx.New(
		fx.Supply(cfg),
		fx.Provide(
			provideLogger,
			provideRegistry,
			provideMetrics,
			provideChainAdapter,
			provideTracker,
			provideScoringHook,
			provideEngine,
			provideRunner,
		),
		fx.Invoke(logIdentity, registerLifecycle, serveMetrics),
		fx.NopLogger,
	)
	return app.Run()
}

func provideLogger(cfg nodeConfig) (*zap.Logger, error) {
	return telemetry.NewLogger(telemetry.LogConfig{Debug: cfg.DebugLog, JSON: cfg.JSONLog})
}

func provideRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func provideMetrics(reg *prometheus.Registry) (consensus.Metrics, error) {
	return telemetry.NewPrometheusMetrics(reg)
}

// provideChainAdapter selects the embedded mock chain fixture when
// --chain-endpoint is empty, the RPC-backed adapter otherwise. Both satisfy
// chain.Adapter, so nothing downstream is aware of which one is wired in.
func provideChainAdapter(cfg nodeConfig, logger *zap.Logger, lc fx.Lifecycle) (chain.Adapter, error) {
	if cfg.ChainEndpoint == "" {
		a, err := mockchain.Open(cfg.MockDBPath, logger)
		if err != nil {
			return nil, fmt.Errorf("opening mock chain fixture: %w", err)
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error { return a.Close() },
		})
		return a, nil
	}
	return chain.NewRPCAdapter(chain.RPCConfig{Endpoint: cfg.ChainEndpoint}, logger)
}

func provideTracker(cfg nodeConfig, adapter chain.Adapter, logger *zap.Logger) (*tracker.Tracker, error) {
	return tracker.New(tracker.Config{
		SubnetID:        cfg.SubnetID,
		UpdatesPerEpoch: cfg.UpdatesPerEpoch,
		BlockSecs:       cfg.BlockSecs,
	}, adapter, nil, logger)
}

func provideScoringHook() scoring.Hook {
	return scoring.DefaultHook
}

func provideEngine(cfg nodeConfig, adapter chain.Adapter, trk *tracker.Tracker, hook scoring.Hook, metrics consensus.Metrics, logger *zap.Logger) (*consensus.Engine, error) {
	return consensus.New(consensus.Config{
		SubnetID:           cfg.SubnetID,
		SubnetNodeID:       cfg.SubnetNodeID,
		BlockSecs:          cfg.BlockSecs,
		SkipActivateSubnet: cfg.SkipActivateSubnet,
	}, adapter, trk, hook, nil, logger, metrics)
}

func provideRunner(engine *consensus.Engine, trk *tracker.Tracker) *consensus.Runner {
	return consensus.NewRunner(engine, trk)
}

// logIdentity reads and validates the node's hotkey identity file, if one
// was given, purely to surface it in the startup log; no private material
// is parsed or held here.
func logIdentity(cfg nodeConfig, logger *zap.Logger) error {
	if cfg.IdentityFile == "" {
		return nil
	}
	raw, err := os.ReadFile(cfg.IdentityFile)
	if err != nil {
		return fmt.Errorf("reading identity file: %w", err)
	}
	hotkey := strings.TrimSpace(string(raw))
	if _, err := identity.DecodeHotkey(hotkey); err != nil {
		return fmt.Errorf("identity file does not contain a valid hotkey: %w", err)
	}
	logger.Sugar().Infow("loaded node identity", "hotkey", hotkey)
	return nil
}

func registerLifecycle(lc fx.Lifecycle, runner *consensus.Runner, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("starting consensus runner")
			return runner.Start()
		},
		OnStop: func(context.Context) error {
			logger.Info("stopping consensus runner")
			return runner.Stop()
		},
	})
}

// serveMetrics starts the prometheus /metrics HTTP endpoint, shutting it
// down gracefully when the fx application stops.
func serveMetrics(lc fx.Lifecycle, cfg nodeConfig, reg *prometheus.Registry, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

	var g errgroup.Group

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", cfg.MetricsAddr)
			if err != nil {
				return fmt.Errorf("binding metrics listener: %w", err)
			}
			g.Go(func() error {
				if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil
			})
			logger.Sugar().Infow("serving metrics", "addr", cfg.MetricsAddr)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := g.Wait(); err != nil {
				logger.Sugar().Warnw("metrics server exited with error", "error", err)
			}
			return nil
		},
	})
}
