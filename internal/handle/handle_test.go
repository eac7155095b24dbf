// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_InsertReturnsDistinctNonSentinelHandles(t *testing.T) {
	tbl := NewTable[string]()

	seen := make(map[Handle]bool)
	for i := 0; i < 100; i++ {
		h, err := tbl.Insert("v")
		require.NoError(t, err)
		assert.False(t, h.IsSentinel())
		assert.False(t, seen[h], "handle %s issued twice", h)
		seen[h] = true
	}
	assert.Equal(t, 100, tbl.Len())
}

func TestTable_GetAndRemove(t *testing.T) {
	tbl := NewTable[string]()
	h, err := tbl.Insert("cpu")
	require.NoError(t, err)

	v, ok := tbl.Get(h)
	require.True(t, ok)
	assert.Equal(t, "cpu", v)

	v, ok = tbl.Remove(h)
	require.True(t, ok)
	assert.Equal(t, "cpu", v)

	_, ok = tbl.Get(h)
	assert.False(t, ok, "removed handle must not resolve")
	_, ok = tbl.Remove(h)
	assert.False(t, ok, "double remove must fail")
	assert.Equal(t, 0, tbl.Len())
}

func TestTable_ReusedSlotGetsNewGeneration(t *testing.T) {
	tbl := NewTable[string]()
	first, err := tbl.Insert("a")
	require.NoError(t, err)
	_, ok := tbl.Remove(first)
	require.True(t, ok)

	second, err := tbl.Insert("b")
	require.NoError(t, err)

	firstIdx, _ := first.index()
	secondIdx, _ := second.index()
	assert.Equal(t, firstIdx, secondIdx, "slot should be reused")
	assert.NotEqual(t, first, second)
	assert.False(t, tbl.Contains(first), "stale handle must not resolve to the new value")

	v, ok := tbl.Get(second)
	require.True(t, ok)
	assert.Equal(t, "b", v)
}

func TestTable_SentinelNeverResolves(t *testing.T) {
	tbl := NewTable[int]()
	_, err := tbl.Insert(1)
	require.NoError(t, err)

	_, ok := tbl.Get(Sentinel)
	assert.False(t, ok)
	_, ok = tbl.Remove(Sentinel)
	assert.False(t, ok)
	assert.Equal(t, "sentinel", Sentinel.String())
}

func TestTable_UnknownHandles(t *testing.T) {
	tbl := NewTable[int]()
	_, ok := tbl.Get(makeHandle(42, 1))
	assert.False(t, ok, "out of range index")

	h, err := tbl.Insert(7)
	require.NoError(t, err)
	idx, _ := h.index()
	_, ok = tbl.Get(makeHandle(idx, h.generation()+1))
	assert.False(t, ok, "wrong generation")
}

func TestTable_LimitExhausts(t *testing.T) {
	tbl := NewTable[int](WithLimit(2))
	_, err := tbl.Insert(1)
	require.NoError(t, err)
	h, err := tbl.Insert(2)
	require.NoError(t, err)

	_, err = tbl.Insert(3)
	require.ErrorIs(t, err, ErrExhausted)

	_, ok := tbl.Remove(h)
	require.True(t, ok)
	_, err = tbl.Insert(3)
	assert.NoError(t, err, "freed slot should be reusable")
}

func TestTable_SlotRetiredAtMaxGeneration(t *testing.T) {
	tbl := NewTable[int](WithLimit(1))
	_, err := tbl.Insert(1)
	require.NoError(t, err)

	tbl.slots[0].generation = maxGeneration
	h := makeHandle(0, maxGeneration)

	_, ok := tbl.Remove(h)
	require.True(t, ok)

	_, err = tbl.Insert(2)
	assert.ErrorIs(t, err, ErrExhausted, "retired slot must not be reused")
}

func TestTable_Each(t *testing.T) {
	tbl := NewTable[int]()
	a, _ := tbl.Insert(1)
	b, _ := tbl.Insert(2)
	c, _ := tbl.Insert(3)
	tbl.Remove(b)

	got := map[Handle]int{}
	tbl.Each(func(h Handle, v int) bool {
		got[h] = v
		return true
	})
	assert.Equal(t, map[Handle]int{a: 1, c: 3}, got)

	calls := 0
	tbl.Each(func(Handle, int) bool {
		calls++
		return false
	})
	assert.Equal(t, 1, calls)
}
