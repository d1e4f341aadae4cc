// Package host provides the runtime environment for executing theme
// render modules.
//
// It abstracts the underlying WASM engine (wazero), manages module
// lifecycle, and drives the memory-ownership protocol of the guest:
// inputs are allocated and written into guest memory, render is invoked,
// the output is copied out by handle and released exactly once.
// Guest log records arriving through the theme_host import are re-emitted
// through the host's slog logger.
package host
