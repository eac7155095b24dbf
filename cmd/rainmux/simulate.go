// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/rainmux/internal/bridge"
	"github.com/holomush/rainmux/internal/dispatch"
	"github.com/holomush/rainmux/internal/observability"
	"github.com/holomush/rainmux/internal/simulate"
)

// simulateConfig holds flags for the simulate command.
type simulateConfig struct {
	metricsAddr string
	hold        bool
}

// NewSimulateCmd creates the simulate subcommand.
func NewSimulateCmd() *cobra.Command {
	cfg := &simulateConfig{}

	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Play a lifecycle scenario against in-memory skins",
		Long: `Play a scenario file: declare skins and measures with their options, then
a list of initialize, reload, update, string, bang, set and finalize steps.
Each call and every line the measures write to the host log is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd, args[0], cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.metricsAddr, "metrics-addr", "", "metrics/health HTTP address (overrides metrics.addr; empty = use config)")
	cmd.Flags().BoolVar(&cfg.hold, "hold", false, "keep serving metrics after the scenario ends, until interrupted")

	return cmd
}

func runSimulate(cmd *cobra.Command, path string, sc *simulateConfig) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if sc.metricsAddr != "" {
		cfg.Metrics.Addr = sc.metricsAddr
	}

	scenario, err := simulate.Load(path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var ready atomic.Bool
	var obs *observability.Server
	if cfg.Metrics.Addr != "" {
		obs = observability.NewServer(cfg.Metrics.Addr, ready.Load, dispatch.RegisterMetrics)
		obsErr, err := obs.Start()
		if err != nil {
			return oops.With("addr", cfg.Metrics.Addr).Wrapf(err, "start metrics server")
		}
		defer stopServer(obs)
		go func() {
			if err, ok := <-obsErr; ok && err != nil {
				logger.Error("metrics server failed", "error", err)
				stop()
			}
		}()
		cmd.PrintErrf("metrics on http://%s/metrics\n", obs.Addr())
	}

	alloc := bridge.NewGoAllocator()
	b, err := bridge.Boot(cfg, alloc, logger)
	if err != nil {
		return err
	}
	defer b.Close()
	ready.Store(true)

	res, err := simulate.NewRunner(b, alloc, cmd.OutOrStdout()).Run(ctx, scenario)
	if err != nil {
		return err
	}
	logger.Info("scenario finished", "calls", res.Calls, "live", res.Live, "host_log_lines", len(res.HostLog))

	if sc.hold && obs != nil {
		cmd.PrintErrln("holding; interrupt to exit")
		<-ctx.Done()
	}
	return nil
}

func stopServer(s *observability.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		slog.Warn("error stopping metrics server", "error", err)
	}
}
