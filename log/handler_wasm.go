//go:build wasip1

package log

import (
	"runtime"
	"unsafe"
)

// Define the host function signature for logging messages.
// This matches the import registered by host.NewExecutor.
//
//go:wasmimport theme_host log_message
func hostLogMessage(ptr, length uint32)

// sendToHost hands a UTF-8 message to the host. The slice stays reachable
// for the duration of the call; the host copies what it needs.
func sendToHost(data []byte) {
	if len(data) == 0 {
		return
	}
	//nolint:gosec // G103,G115: WASM32 linear-memory address of a live slice
	hostLogMessage(uint32(uintptr(unsafe.Pointer(&data[0]))), uint32(len(data)))
	runtime.KeepAlive(data)
}
