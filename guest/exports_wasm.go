//go:build wasip1

package guest

import (
	"unsafe"

	"github.com/reglet-dev/theme-sdk/internal/abi"
	"github.com/reglet-dev/theme-sdk/internal/output"
)

var module = New()

//go:wasmexport allocate
func allocate(size, align uint32) uint32 {
	return uint32(module.Allocate(size, align))
}

//go:wasmexport deallocate
func deallocate(ptr, size, align uint32) {
	module.Deallocate(uintptr(ptr), size, align)
}

//go:wasmexport render
func render(profilePtr, profileLen, themePtr, themeLen uint32) uint32 {
	return uint32(module.Render(uintptr(profilePtr), profileLen, uintptr(themePtr), themeLen))
}

//go:wasmexport output_ptr
func outputPtr() uint32 {
	ptr, _ := module.Output()
	return uint32(ptr)
}

//go:wasmexport output_len
func outputLen() uint32 {
	_, n := module.Output()
	return n
}

//go:wasmexport release_output
func releaseOutput() {
	module.ReleaseOutput()
}

//go:wasmexport output_handle_ptr
func outputHandlePtr(h uint32) uint32 {
	ptr, _ := module.OutputOf(output.Handle(h))
	return uint32(ptr)
}

//go:wasmexport output_handle_len
func outputHandleLen(h uint32) uint32 {
	_, n := module.OutputOf(output.Handle(h))
	return n
}

//go:wasmexport release_handle
func releaseHandle(h uint32) uint32 {
	return module.ReleaseHandle(output.Handle(h))
}

//go:wasmexport last_error
func lastError() uint64 {
	return packBytes(module.LastError())
}

//go:wasmexport install_panic_hook
func installPanicHook() {
	module.InstallPanicHook()
}

//go:wasmexport profile_schema
func profileSchema() uint64 {
	return packBytes(module.ProfileSchema())
}

// packBytes returns ptr<<32|len for data, which must stay reachable from the
// module until the host has read it.
func packBytes(data []byte) uint64 {
	if len(data) == 0 {
		return 0
	}
	//nolint:gosec // G103: address of pinned Go memory is the WASM linear-memory pointer
	return abi.PackPtrLen(uint32(uintptr(unsafe.Pointer(&data[0]))), uint32(len(data)))
}
