// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/rainmux/internal/skin"
	"github.com/holomush/rainmux/pkg/extension"
	"github.com/holomush/rainmux/pkg/rmapi"
	"github.com/holomush/rainmux/pkg/rmapi/memapi"
)

// fakeClock pins now for the duration of a test.
func fakeClock(t *testing.T, at time.Time) *time.Time {
	t.Helper()
	current := at
	prev := now
	now = func() time.Time { return current }
	t.Cleanup(func() { now = prev })
	return &current
}

func newClock(t *testing.T, measureType string, options map[string]string) (*Skin, *Measure, *memapi.API) {
	t.Helper()
	api := memapi.New(memapi.Skin{Handle: 1, Name: "clock"}, "m", options)
	g := skin.NewGroup(1, "clock", 0, "")
	s, err := NewSkin(g, api)
	require.NoError(t, err)
	m, err := NewMeasure(measureType, skin.NewTypeContext(g, "clock#Clock", s), api)
	require.NoError(t, err)
	return s.(*Skin), m.(*Measure), api
}

func TestModuleIsPublished(t *testing.T) {
	m, ok := extension.Builtin(ModuleName)
	require.True(t, ok)
	assert.Equal(t, []string{"ClockSkin"}, m.SkinTypes())
	assert.Equal(t, []string{"ClockMeasure"}, m.MeasureTypes())
}

func TestSeconds(t *testing.T) {
	fakeClock(t, time.Date(2026, 1, 2, 3, 4, 37, 0, time.UTC))
	_, m, api := newClock(t, "seconds", nil)

	maxValue := 0.0
	m.Reload(api, &maxValue)

	assert.InDelta(t, 59, maxValue, 0)
	assert.InDelta(t, 37, m.Update(), 0)
	_, ok := m.GetString()
	assert.False(t, ok)
}

func TestBlankTypeIsSeconds(t *testing.T) {
	fakeClock(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	_, m, api := newClock(t, "", nil)

	assert.InDelta(t, 5, m.Update(), 0)
	assert.Empty(t, api.Journal().Entries())
}

func TestUnknownTypeIsLogged(t *testing.T) {
	_, m, api := newClock(t, "Sundial", nil)

	assert.Equal(t, kindSeconds, m.kind)
	assert.NotEmpty(t, api.Journal().Matching(rmapi.LogError, "PluginMeasureType=Sundial not valid."))
}

func TestUptimeSharedAndReset(t *testing.T) {
	clock := fakeClock(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	s, m, _ := newClock(t, "Uptime", nil)
	other, err := NewMeasure("Uptime", skin.NewTypeContext(skin.NewGroup(1, "clock", 0, ""), "clock#Clock", s), m.api)
	require.NoError(t, err)

	*clock = clock.Add(90*time.Second + 500*time.Millisecond)
	assert.InDelta(t, 90, m.Update(), 0)
	assert.InDelta(t, 90, other.Update(), 0)

	m.ExecuteBang("Reset")
	assert.InDelta(t, 0, other.Update(), 0, "reset is shared through the skin")
}

func TestText(t *testing.T) {
	fakeClock(t, time.Date(2026, 10, 15, 14, 30, 0, 0, time.UTC))
	_, m, api := newClock(t, "Text", map[string]string{"Format": "2006-01-02 15:04"})

	maxValue := 0.0
	m.Reload(api, &maxValue)

	s, ok := m.GetString()
	assert.True(t, ok)
	assert.Equal(t, "2026-10-15 14:30", s)
	assert.InDelta(t, 0, maxValue, 0)
}

func TestTextDefaultFormat(t *testing.T) {
	fakeClock(t, time.Date(2026, 10, 15, 9, 5, 7, 0, time.UTC))
	_, m, _ := newClock(t, "Text", nil)

	s, _ := m.GetString()
	assert.Equal(t, "09:05:07", s)
}

func TestUnknownBangIsLogged(t *testing.T) {
	_, m, api := newClock(t, "Seconds", nil)

	m.ExecuteBang("Reset")

	assert.Len(t, api.Journal().Matching(rmapi.LogWarning, "unknown command"), 1)
}

type foreignSkin struct{}

func (foreignSkin) Dispose() {}

func TestMeasureNeedsClockSkin(t *testing.T) {
	api := memapi.New(memapi.Skin{Handle: 1, Name: "clock"}, "m", nil)
	g := skin.NewGroup(1, "clock", 0, "")

	_, err := NewMeasure("Seconds", skin.NewTypeContext(g, "x#Y", foreignSkin{}), api)

	assert.Error(t, err)
}
