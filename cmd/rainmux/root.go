// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/holomush/rainmux/internal/config"
	"github.com/holomush/rainmux/internal/logging"
	"github.com/holomush/rainmux/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the rainmux CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rainmux",
		Short: "rainmux - extension host tooling",
		Long: `rainmux loads skin extension modules (builtin, Lua or Go plugins)
and drives their lifecycle the way the host application does, for testing
modules without the host.`,
		SilenceUsage: true,
	}

	defaultConfig, err := xdg.ConfigFile()
	if err != nil {
		defaultConfig = ""
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", defaultConfig, "config file path")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewSimulateCmd())
	cmd.AddCommand(NewModulesCmd())
	cmd.AddCommand(NewConfigCmd())

	return cmd
}

// loadConfig merges the config file and flags and installs the default
// logger.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := logging.Setup("rainmux", version, cfg.Log.Format, logging.ParseLevel(cfg.Log.Level), cmd.ErrOrStderr())
	slog.SetDefault(logger)
	return cfg, logger, nil
}
