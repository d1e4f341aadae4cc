// Package guest implements the exported render protocol of the sandboxed
// module: the host places inputs with allocate, calls render, reads the
// output through the accessors and releases it.
//
// Module is the platform-independent core; exports_wasm.go binds a
// process-wide instance to the wasm exports.
package guest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/reglet-dev/theme-sdk/application/schema"
	"github.com/reglet-dev/theme-sdk/application/template"
	"github.com/reglet-dev/theme-sdk/domain/entities"
	domainerrors "github.com/reglet-dev/theme-sdk/domain/errors"
	"github.com/reglet-dev/theme-sdk/domain/ports"
	"github.com/reglet-dev/theme-sdk/internal/abi"
	"github.com/reglet-dev/theme-sdk/internal/guard"
	"github.com/reglet-dev/theme-sdk/internal/output"
)

// Release status codes returned by release_handle.
const (
	StatusOK      uint32 = 0
	StatusUnknown uint32 = 1
)

// Module holds the singletons of one module instance.
type Module struct {
	alloc   *abi.Allocator
	outputs *output.Table
	guard   *guard.Guard
	engine  ports.TemplateEngine
	lastErr []byte
	schema  []byte
}

// Option configures a Module.
type Option func(*Module)

// WithEngine replaces the template engine.
func WithEngine(e ports.TemplateEngine) Option {
	return func(m *Module) {
		m.engine = e
	}
}

// WithGuard replaces the panic guard.
func WithGuard(g *guard.Guard) Option {
	return func(m *Module) {
		m.guard = g
	}
}

// WithAllocator replaces the allocator.
func WithAllocator(a *abi.Allocator) Option {
	return func(m *Module) {
		m.alloc = a
	}
}

// New creates a Module with its own allocator, output table and guard.
func New(opts ...Option) *Module {
	m := &Module{}
	for _, opt := range opts {
		opt(m)
	}
	if m.alloc == nil {
		m.alloc = abi.NewAllocator()
	}
	if m.guard == nil {
		m.guard = guard.New()
	}
	if m.engine == nil {
		m.engine = template.NewEngine()
	}
	m.outputs = output.NewTable(m.alloc)
	return m
}

// Allocator returns the module's allocator.
func (m *Module) Allocator() *abi.Allocator {
	return m.alloc
}

// InstallPanicHook installs the guard. Repeated calls are no-ops.
func (m *Module) InstallPanicHook() {
	m.guard.Install()
}

// Allocate reserves memory for the host. Invalid layouts are reported to the
// host log and yield 0.
func (m *Module) Allocate(size, align uint32) uintptr {
	var ptr uintptr
	m.guard.Run("allocate", func() error {
		var err error
		ptr, err = m.alloc.Allocate(size, align)
		return err
	})
	return ptr
}

// Deallocate frees memory obtained from Allocate. Unknown pointers and
// layout mismatches are reported instead of freeing anything.
func (m *Module) Deallocate(ptr uintptr, size, align uint32) {
	m.guard.Run("deallocate", func() error {
		if err := m.alloc.Deallocate(ptr, size, align); err != nil {
			return &domainerrors.ProtocolError{Op: "deallocate", Msg: err.Error()}
		}
		return nil
	})
}

// Render reads the profile and theme from module memory, renders, and
// publishes the result. It returns the output handle, or 0 if the call
// faulted; existing outputs are never touched by a fault.
func (m *Module) Render(profilePtr uintptr, profileLen uint32, themePtr uintptr, themeLen uint32) output.Handle {
	var handle output.Handle
	detail := m.guard.Run("render", func() error {
		profile, err := m.alloc.Bytes(profilePtr, profileLen)
		if err != nil {
			return &domainerrors.ProtocolError{Op: "render", Msg: fmt.Sprintf("profile input: %v", err)}
		}
		theme, err := m.alloc.Bytes(themePtr, themeLen)
		if err != nil {
			return &domainerrors.ProtocolError{Op: "render", Msg: fmt.Sprintf("theme input: %v", err)}
		}

		buf, err := m.render(profile, theme)
		if err != nil {
			return err
		}
		handle = buf.Handle
		return nil
	})
	m.setLastError(detail)
	if detail != nil {
		return 0
	}
	return handle
}

// RenderBytes renders inputs that already live in Go memory.
func (m *Module) RenderBytes(profileJSON, theme []byte) (output.Buffer, *entities.ErrorDetail) {
	var buf output.Buffer
	detail := m.guard.Run("render", func() error {
		var err error
		buf, err = m.render(profileJSON, theme)
		return err
	})
	m.setLastError(detail)
	return buf, detail
}

func (m *Module) render(profileJSON, theme []byte) (output.Buffer, error) {
	out, err := m.engine.Render(profileJSON, theme)
	if err != nil {
		return output.Buffer{}, err
	}
	buf, err := m.outputs.Publish(out)
	if err != nil {
		return output.Buffer{}, err
	}
	m.guard.Logger().Debug("guest: render complete", slog.Int("handle", int(buf.Handle)), slog.Int("bytes", int(buf.Len)))
	return buf, nil
}

// Output returns the current output slot, or (0, 0) when it is empty.
func (m *Module) Output() (ptr uintptr, length uint32) {
	buf, ok := m.outputs.Current()
	if !ok {
		return 0, 0
	}
	return buf.Ptr, buf.Len
}

// OutputOf returns the buffer for h, or (0, 0) when h is not live.
func (m *Module) OutputOf(h output.Handle) (ptr uintptr, length uint32) {
	buf, ok := m.outputs.Lookup(h)
	if !ok {
		return 0, 0
	}
	return buf.Ptr, buf.Len
}

// ReleaseOutput releases the current output. Calling it again without an
// intervening render is reported and frees nothing.
func (m *Module) ReleaseOutput() {
	m.guard.Run("release_output", func() error {
		if err := m.outputs.ReleaseCurrent(); err != nil {
			return releaseError("release_output", err)
		}
		return nil
	})
}

// ReleaseHandle releases the output named by h and reports the status.
func (m *Module) ReleaseHandle(h output.Handle) uint32 {
	detail := m.guard.Run("release_handle", func() error {
		if err := m.outputs.Release(h); err != nil {
			return releaseError("release_handle", err)
		}
		return nil
	})
	if detail != nil {
		return StatusUnknown
	}
	return StatusOK
}

// LiveOutputs returns the number of outputs awaiting release.
func (m *Module) LiveOutputs() int {
	return m.outputs.Len()
}

// LastError returns the JSON ErrorDetail of the most recent failed render,
// or nil if the most recent render succeeded.
func (m *Module) LastError() []byte {
	return m.lastErr
}

func (m *Module) setLastError(detail *entities.ErrorDetail) {
	if detail == nil {
		m.lastErr = nil
		return
	}
	wire := *detail
	wire.Stack = nil
	data, err := json.Marshal(&wire)
	if err != nil {
		data = []byte(`{"type":"internal","message":"failed to encode error"}`)
	}
	m.lastErr = data
}

func releaseError(op string, err error) error {
	if errors.Is(err, output.ErrUnknownHandle) {
		return &domainerrors.ProtocolError{Op: op, Msg: err.Error()}
	}
	return err
}

// ProfileSchema returns the JSON Schema of the profile input. The bytes are
// generated once and stay valid for the life of the module.
func (m *Module) ProfileSchema() []byte {
	if m.schema != nil {
		return m.schema
	}
	m.guard.Run("profile_schema", func() error {
		data, err := schema.ProfileSchema()
		if err != nil {
			return err
		}
		m.schema = data
		return nil
	})
	return m.schema
}
