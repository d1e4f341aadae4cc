package host

import (
	"log/slog"

	"github.com/reglet-dev/theme-sdk/domain/ports"
	wasmlog "github.com/reglet-dev/theme-sdk/log"
)

const (
	// DefaultHostModuleName is the import module the guest links log_message from.
	DefaultHostModuleName = wasmlog.HostModule

	// DefaultMemoryLimitPages caps guest linear memory at 1 GiB.
	DefaultMemoryLimitPages = 16384

	// DefaultMaxOutputSize is the largest output the host will copy out of the guest.
	DefaultMaxOutputSize = 8 * 1024 * 1024
)

// executorConfig holds configuration for the Executor.
type executorConfig struct {
	Logger             *slog.Logger `validate:"required"`
	ProfileValidator   ports.ProfileValidator
	HostModuleName     string `validate:"required,printascii"`
	MemoryLimitPages   uint32 `validate:"min=1,max=65536"`
	MaxOutputSize      uint32 `validate:"min=1"`
	CloseOnContextDone bool
}

func defaultExecutorConfig() executorConfig {
	return executorConfig{
		Logger:             slog.Default(),
		HostModuleName:     DefaultHostModuleName,
		MemoryLimitPages:   DefaultMemoryLimitPages,
		MaxOutputSize:      DefaultMaxOutputSize,
		CloseOnContextDone: true,
	}
}

// Option defines a functional option for configuring the Executor.
type Option func(*executorConfig)

// WithLogger sets the logger guest records are re-emitted through.
func WithLogger(l *slog.Logger) Option {
	return func(c *executorConfig) {
		c.Logger = l
	}
}

// WithHostModuleName overrides the import module name exposed to guests.
// Modules built from this repository import wasmlog.HostModule and fail to
// instantiate under any other name; the option exists for guests built
// against a different import module.
func WithHostModuleName(name string) Option {
	return func(c *executorConfig) {
		c.HostModuleName = name
	}
}

// WithMemoryLimitPages caps guest memory in 64 KiB pages.
func WithMemoryLimitPages(pages uint32) Option {
	return func(c *executorConfig) {
		c.MemoryLimitPages = pages
	}
}

// WithMaxOutputSize caps the size of a rendered output read back from the guest.
func WithMaxOutputSize(n uint32) Option {
	return func(c *executorConfig) {
		c.MaxOutputSize = n
	}
}

// WithCloseOnContextDone controls whether a cancelled context aborts a
// running guest call. Enabled by default.
func WithCloseOnContextDone(enabled bool) Option {
	return func(c *executorConfig) {
		c.CloseOnContextDone = enabled
	}
}

// WithProfileValidation checks profile JSON against the profile schema
// before it is handed to the guest.
func WithProfileValidation(v ports.ProfileValidator) Option {
	return func(c *executorConfig) {
		c.ProfileValidator = v
	}
}
