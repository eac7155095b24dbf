// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package lua_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/rainmux/internal/resolver"
	rmlua "github.com/holomush/rainmux/internal/resolver/lua"
	"github.com/holomush/rainmux/internal/skin"
	"github.com/holomush/rainmux/pkg/extension"
	"github.com/holomush/rainmux/pkg/rmapi"
	"github.com/holomush/rainmux/pkg/rmapi/memapi"
)

const gaugeModule = `
API_VERSION = "1.2.0"

GaugeSkin = {}

function GaugeSkin:dispose()
  rainmux.log("debug", "gauge skin gone")
end

GaugeMeasure = {}
GaugeMeasure.__index = GaugeMeasure

function GaugeMeasure.new(measure_type)
  local self = setmetatable({}, GaugeMeasure)
  self.kind = measure_type
  self.value = 0
  self.id = rainmux.new_id()
  return self
end

function GaugeMeasure:reload()
  self.step = rainmux.read_number("Step", 1)
  self.label = rainmux.read_string("Label", "none")
  return rainmux.read_number("Max", 0)
end

function GaugeMeasure:update()
  self.value = self.value + self.step
  return self.value
end

function GaugeMeasure:get_string()
  if self.kind == "Text" then
    return self.label .. ":" .. self.value
  end
  return nil
end

function GaugeMeasure:execute(cmd)
  if cmd == "reset" then
    self.value = 0
  elseif cmd == "bang" then
    rainmux.execute("!Refresh")
  elseif cmd == "explode" then
    error("exploded")
  end
end

function GaugeMeasure:dispose()
  rainmux.log(rainmux.NOTICE, "measure " .. rainmux.measure_name() .. " disposed")
end

helper = {}
`

func writeLua(t *testing.T, name, code string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(code), 0o600))
	return path
}

func loadGauge(t *testing.T) *extension.Module {
	t.Helper()
	m, err := rmlua.NewLoader().Load(context.Background(), writeLua(t, "gauge.lua", gaugeModule))
	require.NoError(t, err)
	return m
}

func newGauge(t *testing.T, m *extension.Module, measureType string, api *memapi.API) (extension.Skin, extension.Measure) {
	t.Helper()
	g := skin.NewGroup(1, "Skin", 0, "")
	newSkin, ok := m.Skin("GaugeSkin")
	require.True(t, ok)
	s, err := newSkin(g, api)
	require.NoError(t, err)

	newMeasure, ok := m.Measure("GaugeMeasure")
	require.True(t, ok)
	meas, err := newMeasure(measureType, skin.NewTypeContext(g, "gauge", s), api)
	require.NoError(t, err)
	return s, meas
}

func TestLoaderDiscoversTypes(t *testing.T) {
	m := loadGauge(t)

	assert.Equal(t, "gauge", m.Name())
	assert.Equal(t, "1.2.0", m.APIVersion())
	assert.Equal(t, []string{"GaugeSkin"}, m.SkinTypes())
	assert.Equal(t, []string{"GaugeMeasure"}, m.MeasureTypes())
}

func TestLoaderDefaultsAPIVersion(t *testing.T) {
	m, err := rmlua.NewLoader().Load(context.Background(), writeLua(t, "bare.lua", "BareSkin = {}\nBareMeasure = {}\n"))
	require.NoError(t, err)
	assert.Equal(t, extension.DefaultAPIVersion, m.APIVersion())
}

func TestLoaderRejectsSyntaxErrors(t *testing.T) {
	_, err := rmlua.NewLoader().Load(context.Background(), writeLua(t, "broken.lua", "GaugeSkin = {"))
	require.Error(t, err)
}

func TestLoaderRejectsRuntimeErrors(t *testing.T) {
	_, err := rmlua.NewLoader().Load(context.Background(), writeLua(t, "fails.lua", `error("nope")`))
	require.Error(t, err)
}

func TestLoaderSandboxesModules(t *testing.T) {
	_, err := rmlua.NewLoader().Load(context.Background(), writeLua(t, "escape.lua", `os.exit(1)`))
	require.Error(t, err)
}

func TestLuaMeasureLifecycle(t *testing.T) {
	m := loadGauge(t)
	api := memapi.New(memapi.Skin{Handle: 1, Name: "Skin"}, "m1", map[string]string{
		"Step":  "2",
		"Label": "hits",
		"Max":   "50",
	})
	s, meas := newGauge(t, m, "Text", api)

	maxValue := 1.0
	meas.Reload(api, &maxValue)
	assert.InDelta(t, 50, maxValue, 0)

	assert.InDelta(t, 2, meas.Update(), 0)
	assert.InDelta(t, 4, meas.Update(), 0)

	str, ok := meas.GetString()
	require.True(t, ok)
	assert.Equal(t, "hits:4", str)

	meas.ExecuteBang("reset")
	assert.InDelta(t, 2, meas.Update(), 0)

	meas.ExecuteBang("bang")
	assert.Equal(t, []string{"!Refresh"}, api.Executed())

	meas.Dispose()
	s.Dispose()
	assert.Len(t, api.Journal().Matching(rmapi.LogNotice, "measure m1 disposed"), 1)
	assert.Len(t, api.Journal().Matching(rmapi.LogDebug, "gauge skin gone"), 1)
}

func TestLuaMeasureReportsAbsentString(t *testing.T) {
	m := loadGauge(t)
	api := memapi.New(memapi.Skin{Handle: 1, Name: "Skin"}, "m1", nil)
	_, meas := newGauge(t, m, "Number", api)
	meas.Reload(api, nil)

	_, ok := meas.GetString()
	assert.False(t, ok)
	assert.InDelta(t, 1, meas.Update(), 0)
}

func TestLuaScriptErrorsAreLogged(t *testing.T) {
	m := loadGauge(t)
	api := memapi.New(memapi.Skin{Handle: 1, Name: "Skin"}, "m1", nil)
	_, meas := newGauge(t, m, "Text", api)
	meas.Reload(api, nil)

	assert.NotPanics(t, func() { meas.ExecuteBang("explode") })
	assert.Len(t, api.Journal().Matching(rmapi.LogError, "exploded"), 1)
}

func TestLuaObjectsHaveIndependentState(t *testing.T) {
	m := loadGauge(t)
	api := memapi.New(memapi.Skin{Handle: 1, Name: "Skin"}, "m1", nil)
	_, a := newGauge(t, m, "", api)
	_, b := newGauge(t, m, "", api)
	a.Reload(api, nil)
	b.Reload(api, nil)

	a.Update()
	a.Update()
	assert.InDelta(t, 1, b.Update(), 0)
}

func TestLuaLoaderThroughResolver(t *testing.T) {
	path := writeLua(t, "gauge.lua", gaugeModule)
	r, err := resolver.New(resolver.WithLoader(".lua", rmlua.NewLoader()))
	require.NoError(t, err)

	ref := resolver.ModuleRef{Name: "gauge.lua", Path: path}
	md, err := r.ResolveMeasure(context.Background(), ref, "gauge")
	require.NoError(t, err)
	assert.Equal(t, "GaugeMeasure", md.TypeName())
	_, err = r.ResolveSkin(context.Background(), ref, "Gauge")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Loads())
}
