// Package guard contains faults raised inside exported calls so that no panic
// ever unwinds across the module boundary.
package guard

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/reglet-dev/theme-sdk/domain/entities"
	domainerrors "github.com/reglet-dev/theme-sdk/domain/errors"
	wasmlog "github.com/reglet-dev/theme-sdk/log"
)

// Guard reports faults to the host log. The zero value is not usable; use New.
type Guard struct {
	newHandler func() slog.Handler
	logger     atomic.Pointer[slog.Logger]
	once       sync.Once
	installs   atomic.Int32
}

// Option configures a Guard.
type Option func(*Guard)

// WithHandler overrides the handler installed on first use.
// The default routes records to the host through log.WasmLogHandler.
func WithHandler(newHandler func() slog.Handler) Option {
	return func(g *Guard) {
		g.newHandler = newHandler
	}
}

// New creates a Guard. Nothing is installed until Install or Run is called.
func New(opts ...Option) *Guard {
	g := &Guard{
		newHandler: func() slog.Handler { return wasmlog.NewHandler() },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Install wires the reporting sink and makes it the process default logger.
// Only the first call has an effect; it reports whether this call installed.
func (g *Guard) Install() bool {
	installed := false
	g.once.Do(func() {
		logger := slog.New(g.newHandler())
		g.logger.Store(logger)
		slog.SetDefault(logger)
		installed = true
	})
	if installed {
		g.installs.Add(1)
	}
	return installed
}

// Installed reports whether Install has run.
func (g *Guard) Installed() bool {
	return g.installs.Load() > 0
}

// Logger returns the installed logger, installing it if necessary.
func (g *Guard) Logger() *slog.Logger {
	g.Install()
	return g.logger.Load()
}

// Run executes fn for the named export. A returned error or a recovered panic
// is converted to an ErrorDetail, reported to the host, and returned; the
// caller must then produce no output.
func (g *Guard) Run(op string, fn func() error) (detail *entities.ErrorDetail) {
	logger := g.Logger()

	prev := debug.SetPanicOnFault(true)
	defer debug.SetPanicOnFault(prev)

	defer func() {
		if r := recover(); r != nil {
			detail = &entities.ErrorDetail{
				Message: fmt.Sprintf("panic in %s: %v", op, r),
				Type:    entities.ErrorTypePanic,
				Code:    op,
				Stack:   debug.Stack(),
			}
			logger.Error("guest: panic recovered", "export", op, "error", detail.Message)
		}
	}()

	if err := fn(); err != nil {
		detail = domainerrors.ToErrorDetail(err)
		logger.Error("guest: call failed", "export", op, "type", detail.Type, "error", err.Error())
	}
	return detail
}
