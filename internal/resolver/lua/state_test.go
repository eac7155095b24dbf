// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package lua_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rmlua "github.com/holomush/rainmux/internal/resolver/lua"
)

func TestStateFactory_NewState_LoadsSafeLibraries(t *testing.T) {
	L, err := rmlua.NewStateFactory().NewState(context.Background())
	require.NoError(t, err)
	defer L.Close()

	for _, lib := range []string{"table", "string", "math"} {
		assert.NotEqual(t, "nil", L.GetGlobal(lib).Type().String(), "library %q not loaded", lib)
	}
}

func TestStateFactory_NewState_BlocksUnsafeLibraries(t *testing.T) {
	L, err := rmlua.NewStateFactory().NewState(context.Background())
	require.NoError(t, err)
	defer L.Close()

	for _, lib := range []string{"os", "io", "debug", "package"} {
		assert.Equal(t, "nil", L.GetGlobal(lib).Type().String(), "unsafe library %q should not be loaded", lib)
	}
}

func TestStateFactory_NewState_BlocksFilesystemFunctions(t *testing.T) {
	L, err := rmlua.NewStateFactory().NewState(context.Background())
	require.NoError(t, err)
	defer L.Close()

	for _, fn := range []string{"dofile", "loadfile", "loadstring", "load"} {
		assert.Equal(t, "nil", L.GetGlobal(fn).Type().String(), "unsafe function %q should be blocked", fn)
	}
}

func TestStateFactory_NewState_StatesAreIndependent(t *testing.T) {
	factory := rmlua.NewStateFactory()
	L1, err := factory.NewState(context.Background())
	require.NoError(t, err)
	defer L1.Close()
	L2, err := factory.NewState(context.Background())
	require.NoError(t, err)
	defer L2.Close()

	require.NoError(t, L1.DoString(`foo = "bar"`))
	assert.Equal(t, "nil", L2.GetGlobal("foo").Type().String())
}
