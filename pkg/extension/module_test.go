// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package extension_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/rainmux/pkg/errutil"
	"github.com/holomush/rainmux/pkg/extension"
	"github.com/holomush/rainmux/pkg/extension/extensiontest"
	"github.com/holomush/rainmux/pkg/rmapi"
	"github.com/holomush/rainmux/pkg/rmapi/memapi"
)

func TestModule_RegisterPair(t *testing.T) {
	f := extensiontest.NewFactory()
	m := extension.NewModule("clock", extension.WithAPIVersion("1.2.0"))

	require.NoError(t, m.Register("Clock", f.NewSkin, f.NewMeasure))

	assert.Equal(t, "clock", m.Name())
	assert.Equal(t, "1.2.0", m.APIVersion())
	assert.Equal(t, []string{"ClockSkin"}, m.SkinTypes())
	assert.Equal(t, []string{"ClockMeasure"}, m.MeasureTypes())
	_, ok := m.Skin("ClockSkin")
	assert.True(t, ok)
	_, ok = m.Measure("clockmeasure")
	assert.False(t, ok, "factory lookup is exact")
}

func TestModule_DefaultAPIVersion(t *testing.T) {
	assert.Equal(t, extension.DefaultAPIVersion, extension.NewModule("x").APIVersion())
}

func TestModule_RegistrationErrors(t *testing.T) {
	f := extensiontest.NewFactory()
	m := extension.NewModule("clock")
	require.NoError(t, m.RegisterSkin("ClockSkin", f.NewSkin))

	tests := []struct {
		name string
		err  error
		code string
	}{
		{"missing skin suffix", m.RegisterSkin("Clock", f.NewSkin), extension.CodeInvalidType},
		{"suffix only", m.RegisterMeasure("Measure", f.NewMeasure), extension.CodeInvalidType},
		{"nil skin factory", m.RegisterSkin("OtherSkin", nil), extension.CodeInvalidType},
		{"nil measure factory", m.RegisterMeasure("OtherMeasure", nil), extension.CodeInvalidType},
		{"duplicate skin", m.RegisterSkin("ClockSkin", f.NewSkin), extension.CodeDuplicateType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errutil.AssertErrorCode(t, tt.err, tt.code)
			errutil.AssertErrorContext(t, tt.err, "module", "clock")
		})
	}
}

func TestModule_MustRegisterPanicsOnDuplicate(t *testing.T) {
	f := extensiontest.NewFactory()
	m := extension.NewModule("clock")
	m.MustRegister("Clock", f.NewSkin, f.NewMeasure)

	assert.Panics(t, func() { m.MustRegister("Clock", f.NewSkin, f.NewMeasure) })
}

func TestBuiltins(t *testing.T) {
	f := extensiontest.NewFactory()
	extension.RegisterBuiltin(f.Module("extensiontest-builtin", "Sample"))

	m, ok := extension.Builtin("extensiontest-builtin")
	require.True(t, ok)
	assert.Equal(t, []string{"SampleSkin"}, m.SkinTypes())
	assert.Contains(t, extension.Builtins(), "extensiontest-builtin")
	assert.Panics(t, func() {
		extension.RegisterBuiltin(extension.NewModule("extensiontest-builtin"))
	})
}

func TestSelectType(t *testing.T) {
	api := memapi.New(memapi.Skin{Handle: 1, Name: "skin"}, "m1", nil)
	choices := map[string]int{"Seconds": 1, "Uptime": 2}

	v, ok := extension.SelectType("uptime", choices, api)
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	v, ok = extension.SelectType("Bogus", choices, api)
	assert.False(t, ok)
	assert.Zero(t, v)
	assert.Len(t, api.Journal().Matching(rmapi.LogError, "PluginMeasureType=Bogus not valid."), 1)
}
