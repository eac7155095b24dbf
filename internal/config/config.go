// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads rainmux settings from defaults, an optional YAML file
// and command line flags, in that order of precedence.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/gobwas/glob"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/holomush/rainmux/internal/xdg"
)

// EnvConfig overrides the configuration file location.
const EnvConfig = "RAINMUX_CONFIG"

// Flag names. They double as koanf keys.
const (
	FlagLogLevel      = "log.level"
	FlagLogFormat     = "log.format"
	FlagModulesAllow  = "modules.allow"
	FlagAPIConstraint = "modules.api_constraint"
	FlagMetricsAddr   = "metrics.addr"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Config is the complete rainmux configuration.
type Config struct {
	Log     LogConfig     `koanf:"log" json:"log,omitempty" yaml:"log,omitempty"`
	Modules ModulesConfig `koanf:"modules" json:"modules,omitempty" yaml:"modules,omitempty"`
	Metrics MetricsConfig `koanf:"metrics" json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// LogConfig controls diagnostics.
type LogConfig struct {
	Level  string `koanf:"level" json:"level,omitempty" yaml:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`
	Format string `koanf:"format" json:"format,omitempty" yaml:"format,omitempty" jsonschema:"enum=text,enum=json,default=text,description=Stream format for the CLI; the plugin always writes to the host log"`
}

// ModulesConfig restricts which extension modules may be loaded.
type ModulesConfig struct {
	Allow         []string `koanf:"allow" json:"allow,omitempty" yaml:"allow,omitempty" jsonschema:"description=Glob patterns matched against module keys (builtin:<name> or a cleaned path)"`
	APIConstraint string   `koanf:"api_constraint" json:"api_constraint,omitempty" yaml:"api_constraint,omitempty" jsonschema:"description=Semantic version constraint a module's API version must satisfy"`
}

// MetricsConfig configures the CLI metrics endpoint.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty" yaml:"addr,omitempty" jsonschema:"description=Listen address for /metrics; empty disables it"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Modules: ModulesConfig{
			Allow:         []string{"**"},
			APIConstraint: ">= 1.0.0, < 2.0.0",
		},
	}
}

// Locate returns the configuration file to use for a host whose settings
// file is settingsFile. RAINMUX_CONFIG wins; otherwise the file sits next to
// the settings file. An empty result means there is no file to load.
func Locate(settingsFile string) string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	if settingsFile == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(settingsFile), xdg.ConfigFileName)
}

// RegisterFlags adds the configuration flags to flags. Their defaults are
// informational; unset flags never override the file.
func RegisterFlags(flags *pflag.FlagSet) {
	d := Default()
	flags.String(FlagLogLevel, d.Log.Level, "log level ("+strings.Join(logLevels, ", ")+")")
	flags.String(FlagLogFormat, d.Log.Format, "log format ("+strings.Join(logFormats, ", ")+")")
	flags.StringSlice(FlagModulesAllow, d.Modules.Allow, "glob patterns of loadable modules")
	flags.String(FlagAPIConstraint, d.Modules.APIConstraint, "module API version constraint")
	flags.String(FlagMetricsAddr, d.Metrics.Addr, "metrics listen address (empty disables)")
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty or the file does not exist) and the changed flags in flags
// (may be nil). The file is checked against the JSON Schema before it is
// merged, and the result is validated.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	d := Default()
	for key, v := range map[string]any{
		FlagLogLevel:      d.Log.Level,
		FlagLogFormat:     d.Log.Format,
		FlagModulesAllow:  d.Modules.Allow,
		FlagAPIConstraint: d.Modules.APIConstraint,
		FlagMetricsAddr:   d.Metrics.Addr,
	} {
		if err := k.Set(key, v); err != nil {
			return Config{}, ErrLoad("defaults", err)
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, ErrLoad(path, err)
		default:
			if err := ValidateSchema(data); err != nil {
				return Config{}, err
			}
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, ErrLoad(path, err)
			}
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, ErrLoad("flags", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, ErrLoad("unmarshal", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the schema cannot express.
func (c Config) Validate() error {
	if !slices.Contains(logLevels, strings.ToLower(c.Log.Level)) {
		return ErrInvalid(FlagLogLevel, c.Log.Level, "must be one of "+strings.Join(logLevels, ", "))
	}
	if !slices.Contains(logFormats, strings.ToLower(c.Log.Format)) {
		return ErrInvalid(FlagLogFormat, c.Log.Format, "must be one of "+strings.Join(logFormats, ", "))
	}
	for _, p := range c.Modules.Allow {
		if _, err := glob.Compile(filepath.ToSlash(p), '/'); err != nil {
			return ErrInvalid(FlagModulesAllow, p, err.Error())
		}
	}
	if _, err := semver.NewConstraint(c.Modules.APIConstraint); err != nil {
		return ErrInvalid(FlagAPIConstraint, c.Modules.APIConstraint, err.Error())
	}
	return nil
}
