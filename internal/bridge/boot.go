// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package bridge

import (
	"log/slog"

	"github.com/samber/oops"

	"github.com/holomush/rainmux/internal/config"
	"github.com/holomush/rainmux/internal/dispatch"
	"github.com/holomush/rainmux/internal/logging"
	"github.com/holomush/rainmux/internal/registry"
	"github.com/holomush/rainmux/internal/resolver"
	"github.com/holomush/rainmux/internal/resolver/lua"
	"github.com/holomush/rainmux/internal/resolver/native"
	"github.com/holomush/rainmux/pkg/errutil"
	"github.com/holomush/rainmux/pkg/rmapi"
)

// Module file extensions with a loader.
const (
	ExtLua    = ".lua"
	ExtNative = ".so"
)

// NewResolver builds a resolver with the Lua and native loaders and the
// module policy from cfg.
func NewResolver(cfg config.Config, logger *slog.Logger) (*resolver.Resolver, error) {
	res, err := resolver.New(
		resolver.WithLoader(ExtLua, lua.NewLoader()),
		resolver.WithLoader(ExtNative, native.Loader{}),
		resolver.WithAllowList(cfg.Modules.Allow...),
		resolver.WithAPIConstraint(cfg.Modules.APIConstraint),
		resolver.WithLogger(logger),
	)
	if err != nil {
		return nil, oops.With("operation", "boot").Wrap(err)
	}
	return res, nil
}

// Boot wires registry, resolver, dispatcher and bridge from cfg.
func Boot(cfg config.Config, alloc Allocator, logger *slog.Logger) (*Bridge, error) {
	if logger == nil {
		logger = slog.Default()
	}
	res, err := NewResolver(cfg, logger)
	if err != nil {
		return nil, err
	}
	d, err := dispatch.New(registry.New(registry.WithLogger(logger)), res, dispatch.WithLogger(logger))
	if err != nil {
		return nil, oops.With("operation", "boot").Wrap(err)
	}
	logger.Debug("bridge booted",
		"allow", cfg.Modules.Allow,
		"api_constraint", cfg.Modules.APIConstraint,
		"native_modules", native.Supported())
	return New(d, alloc, WithLogger(logger)), nil
}

// BootForHost boots a bridge inside the host. Configuration is read from
// the file config.Locate finds for settingsFile; a broken file is reported
// to the host log and the defaults are used instead. The result is nil only
// if the defaults fail to boot as well.
func BootForHost(settingsFile string, sink rmapi.Logger, alloc Allocator) *Bridge {
	cfg, err := config.Load(config.Locate(settingsFile), nil)
	if err != nil {
		sink.Log(rmapi.LogError, errutil.CodeOf(err)+": "+err.Error())
		cfg = config.Default()
	}
	logger := logging.NewHostLogger(sink, logging.ParseLevel(cfg.Log.Level))

	b, err := Boot(cfg, alloc, logger)
	if err != nil {
		errutil.LogError(logger, "boot with configured module policy failed, using defaults", err)
		b, err = Boot(config.Default(), alloc, logger)
		if err != nil {
			errutil.LogError(logger, "boot with defaults failed", err)
			return nil
		}
	}
	return b
}
