package host

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	wasmlog "github.com/reglet-dev/theme-sdk/log"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// guestModule is the slice of an instantiated module the Instance drives.
type guestModule interface {
	Call(ctx context.Context, name string, params ...uint64) ([]uint64, error)
	Read(ptr, length uint32) ([]byte, bool)
	Write(ptr uint32, data []byte) bool
	Has(name string) bool
	Close(ctx context.Context) error
}

type wazeroGuest struct {
	module   api.Module
	compiled wazero.CompiledModule
}

func (g *wazeroGuest) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	f := g.module.ExportedFunction(name)
	if f == nil {
		return nil, fmt.Errorf("export %q not found", name)
	}
	return f.Call(ctx, params...)
}

func (g *wazeroGuest) Read(ptr, length uint32) ([]byte, bool) {
	return g.module.Memory().Read(ptr, length)
}

func (g *wazeroGuest) Write(ptr uint32, data []byte) bool {
	return g.module.Memory().Write(ptr, data)
}

func (g *wazeroGuest) Has(name string) bool {
	return g.module.ExportedFunction(name) != nil
}

func (g *wazeroGuest) Close(ctx context.Context) error {
	err := g.module.Close(ctx)
	if cerr := g.compiled.Close(ctx); err == nil {
		err = cerr
	}
	return err
}

func (e *Executor) registerHostModule(ctx context.Context) error {
	_, err := e.runtime.NewHostModuleBuilder(e.config.HostModuleName).
		NewFunctionBuilder().
		WithFunc(func(ctx context.Context, m api.Module, ptr, length uint32) {
			payload, ok := m.Memory().Read(ptr, length)
			if !ok {
				e.config.Logger.WarnContext(ctx, "host: guest log message out of bounds",
					"ptr", ptr, "len", length)
				return
			}
			e.logGuestMessage(ctx, payload)
		}).
		Export(wasmlog.HostFunction).
		Instantiate(ctx)
	return err
}

// logGuestMessage re-emits a guest LogMessageWire through the host logger.
func (e *Executor) logGuestMessage(ctx context.Context, payload []byte) {
	var msg wasmlog.LogMessageWire
	if err := json.Unmarshal(payload, &msg); err != nil {
		e.config.Logger.InfoContext(ctx, "guest log (raw)", "payload", string(payload))
		return
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(msg.Level)); err != nil {
		level = slog.LevelInfo
	}

	args := make([]any, 0, len(msg.Attrs)+1)
	for _, a := range msg.Attrs {
		args = append(args, slog.String(a.Key, a.Value))
	}
	if msg.Source != "" {
		args = append(args, slog.String("guest_source", msg.Source))
	}
	e.config.Logger.Log(ctx, level, "guest: "+msg.Message, args...)
}
