package guard

import (
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/reglet-dev/theme-sdk/domain/entities"
	domainerrors "github.com/reglet-dev/theme-sdk/domain/errors"
	wasmlog "github.com/reglet-dev/theme-sdk/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCapturingGuard(t *testing.T) (*Guard, *[]wasmlog.LogMessageWire) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var got []wasmlog.LogMessageWire
	sink := func(data []byte) {
		var msg wasmlog.LogMessageWire
		require.NoError(t, json.Unmarshal(data, &msg))
		got = append(got, msg)
	}
	g := New(WithHandler(func() slog.Handler {
		return wasmlog.NewHandler(wasmlog.WithSink(sink))
	}))
	return g, &got
}

func TestGuard_InstallIsIdempotent(t *testing.T) {
	g, _ := newCapturingGuard(t)

	assert.False(t, g.Installed())
	assert.True(t, g.Install(), "first install wires the hook")
	assert.False(t, g.Install(), "second install is a no-op")
	assert.False(t, g.Install())
	assert.True(t, g.Installed())
	assert.Equal(t, int32(1), g.installs.Load())
}

func TestGuard_RunInstallsImplicitly(t *testing.T) {
	g, _ := newCapturingGuard(t)

	detail := g.Run("render", func() error { return nil })
	assert.Nil(t, detail)
	assert.True(t, g.Installed())
}

func TestGuard_RecoversPanic(t *testing.T) {
	g, got := newCapturingGuard(t)

	var detail *entities.ErrorDetail
	assert.NotPanics(t, func() {
		detail = g.Run("render", func() error {
			panic("template exploded")
		})
	})

	require.NotNil(t, detail)
	assert.Equal(t, entities.ErrorTypePanic, detail.Type)
	assert.Equal(t, "render", detail.Code)
	assert.Contains(t, detail.Message, "template exploded")
	assert.NotEmpty(t, detail.Stack)

	require.Len(t, *got, 1)
	assert.Equal(t, "ERROR", (*got)[0].Level)
	assert.Equal(t, "guest: panic recovered", (*got)[0].Message)
}

func TestGuard_RecoversRuntimeError(t *testing.T) {
	g, _ := newCapturingGuard(t)

	detail := g.Run("render", func() error {
		var m map[string]int
		m["x"] = 1
		return nil
	})
	require.NotNil(t, detail)
	assert.Equal(t, entities.ErrorTypePanic, detail.Type)
}

func TestGuard_ReportsReturnedError(t *testing.T) {
	g, got := newCapturingGuard(t)

	detail := g.Run("render", func() error {
		return &domainerrors.CompileError{Err: errors.New("unexpected EOF"), Line: 2}
	})

	require.NotNil(t, detail)
	assert.Equal(t, entities.ErrorTypeCompile, detail.Type)
	require.Len(t, *got, 1)
	assert.Equal(t, "guest: call failed", (*got)[0].Message)
}
