// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/rainmux/pkg/errutil"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rainmux.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("", nil)

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
modules:
  allow:
    - "builtin:*"
    - "/opt/skins/**"
`)

	cfg, err := Load(path, nil)

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format, "unset keys keep their defaults")
	assert.Equal(t, []string{"builtin:*", "/opt/skins/**"}, cfg.Modules.Allow)
	assert.Equal(t, Default().Modules.APIConstraint, cfg.Modules.APIConstraint)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "log:\n  level: debug\n  format: json\n")
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{"--log.level=warn", "--metrics.addr=127.0.0.1:9100"}))

	cfg, err := Load(path, flags)

	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format, "unchanged flags do not override the file")
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Addr)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: debug\n")

	_, err := Load(path, nil)

	errutil.AssertErrorCode(t, err, CodeConfigInvalid)
}

func TestLoad_RejectsBadLevel(t *testing.T) {
	path := writeConfig(t, "log:\n  level: loud\n")

	_, err := Load(path, nil)

	errutil.AssertErrorCode(t, err, CodeConfigInvalid)
}

func TestLoad_RejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "log: [unterminated\n")

	_, err := Load(path, nil)

	errutil.AssertErrorCode(t, err, CodeConfigInvalid)
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := Load(path, nil)

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_UnreadablePath(t *testing.T) {
	_, err := Load(t.TempDir(), nil)

	errutil.AssertErrorCode(t, err, CodeConfigLoad)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, FlagLogFormat},
		{"bad level", func(c *Config) { c.Log.Level = "trace" }, FlagLogLevel},
		{"bad pattern", func(c *Config) { c.Modules.Allow = []string{"[unclosed"} }, FlagModulesAllow},
		{"bad constraint", func(c *Config) { c.Modules.APIConstraint = "not a version" }, FlagAPIConstraint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()

			errutil.AssertErrorCode(t, err, CodeConfigInvalid)
			errutil.AssertErrorContext(t, err, "key", tt.key)
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestLocate(t *testing.T) {
	t.Setenv(EnvConfig, "")
	assert.Equal(t, filepath.Join("/skins", "rainmux.yaml"), Locate(filepath.Join("/skins", "host.ini")))
	assert.Empty(t, Locate(""))

	t.Setenv(EnvConfig, "/etc/rainmux.yaml")
	assert.Equal(t, "/etc/rainmux.yaml", Locate(filepath.Join("/skins", "host.ini")))
}

func TestGenerateSchema(t *testing.T) {
	raw, err := GenerateSchema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, SchemaID, doc["$id"])
	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "log")
	assert.Contains(t, props, "modules")
	assert.Contains(t, props, "metrics")
}

func TestValidateSchema_WrongType(t *testing.T) {
	err := ValidateSchema([]byte("modules:\n  allow: builtin:*\n"))

	errutil.AssertErrorCode(t, err, CodeConfigInvalid)
}
