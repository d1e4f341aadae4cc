package host

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	domainerrors "github.com/reglet-dev/theme-sdk/domain/errors"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// requiredExports are the guest functions the host cannot render without.
var requiredExports = []string{
	"allocate",
	"deallocate",
	"render",
	"output_handle_ptr",
	"output_handle_len",
	"release_handle",
	"last_error",
}

var validate = validator.New()

// Executor owns a wazero runtime configured for theme modules.
type Executor struct {
	runtime wazero.Runtime
	config  executorConfig
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	cfg := defaultExecutorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid executor configuration: %w", err)
	}

	rtConfig := wazero.NewRuntimeConfig().
		WithMemoryLimitPages(cfg.MemoryLimitPages).
		WithCloseOnContextDone(cfg.CloseOnContextDone)
	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate WASI: %w", err)
	}

	e := &Executor{runtime: rt, config: cfg}
	if err := e.registerHostModule(ctx); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}

	return e, nil
}

// Close releases resources held by the executor and every instance it loaded.
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Load compiles and instantiates a theme module. Modules that do not export
// the render protocol are rejected before instantiation.
func (e *Executor) Load(ctx context.Context, wasmBytes []byte) (*Instance, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to compile module: %w", err)
	}

	if err := checkExports(compiled); err != nil {
		_ = compiled.Close(ctx)
		return nil, err
	}

	modConfig := wazero.NewModuleConfig().
		WithName("").
		WithStartFunctions("_initialize").
		WithSysWalltime().
		WithSysNanotime()
	mod, err := e.runtime.InstantiateModule(ctx, compiled, modConfig)
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}

	inst := newInstance(&wazeroGuest{module: mod, compiled: compiled}, e.config)
	if err := inst.installPanicHook(ctx); err != nil {
		_ = inst.Close(ctx)
		return nil, err
	}
	return inst, nil
}

func checkExports(compiled wazero.CompiledModule) error {
	exported := compiled.ExportedFunctions()

	var missing []string
	for _, name := range requiredExports {
		if _, ok := exported[name]; !ok {
			missing = append(missing, name)
		}
	}
	if _, ok := compiled.ExportedMemories()["memory"]; !ok {
		missing = append(missing, "memory")
	}
	if len(missing) == 0 {
		return nil
	}

	sort.Strings(missing)
	return &domainerrors.ProtocolError{
		Op:  "load",
		Msg: "module is missing exports: " + strings.Join(missing, ", "),
	}
}
