package host

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/reglet-dev/theme-sdk/domain/entities"
	domainerrors "github.com/reglet-dev/theme-sdk/domain/errors"
	"github.com/reglet-dev/theme-sdk/internal/abi"
)

// Release status codes returned by the guest's release_handle export.
const (
	releaseOK      = 0
	releaseUnknown = 1
)

// Instance is an instantiated theme module. Calls are serialised; the guest
// is single-threaded.
type Instance struct {
	guest  guestModule
	config executorConfig
	mu     sync.Mutex
}

func newInstance(g guestModule, cfg executorConfig) *Instance {
	return &Instance{guest: g, config: cfg}
}

func (i *Instance) installPanicHook(ctx context.Context) error {
	if !i.guest.Has("install_panic_hook") {
		return nil
	}
	if _, err := i.guest.Call(ctx, "install_panic_hook"); err != nil {
		return fmt.Errorf("failed to install guest panic hook: %w", err)
	}
	return nil
}

// Render renders theme against profileJSON inside the guest. A guest fault
// is returned as a *entities.ErrorDetail wrapped in the error.
func (i *Instance) Render(ctx context.Context, profileJSON, theme []byte) (string, error) {
	if v := i.config.ProfileValidator; v != nil {
		if err := v.Validate(profileJSON); err != nil {
			return "", fmt.Errorf("profile rejected: %w", err)
		}
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	profilePtr, err := i.stage(ctx, profileJSON)
	if err != nil {
		return "", fmt.Errorf("failed to stage profile: %w", err)
	}
	defer i.free(ctx, profilePtr, profileJSON)

	themePtr, err := i.stage(ctx, theme)
	if err != nil {
		return "", fmt.Errorf("failed to stage theme: %w", err)
	}
	defer i.free(ctx, themePtr, theme)

	res, err := i.guest.Call(ctx, "render",
		uint64(profilePtr), uint64(len(profileJSON)),
		uint64(themePtr), uint64(len(theme)))
	if err != nil {
		return "", fmt.Errorf("render call failed: %w", err)
	}
	handle := uint32(res[0]) //nolint:gosec // G115: i32 result

	if handle == 0 {
		detail, err := i.lastError(ctx)
		if err != nil {
			return "", err
		}
		return "", fmt.Errorf("render failed: %w", detail)
	}

	out, readErr := i.readOutput(ctx, handle)
	if err := i.release(ctx, handle); err != nil && readErr == nil {
		readErr = err
	}
	if readErr != nil {
		return "", readErr
	}
	return out, nil
}

// RenderResult is Render folded into the discriminated result type.
func (i *Instance) RenderResult(ctx context.Context, profileJSON, theme []byte) entities.RenderResult {
	out, err := i.Render(ctx, profileJSON, theme)
	if err != nil {
		return entities.RenderFailure(domainerrors.ToErrorDetail(err))
	}
	return entities.RenderSuccess(out)
}

// Schema returns the JSON Schema the guest accepts for profile documents.
func (i *Instance) Schema(ctx context.Context) ([]byte, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.guest.Has("profile_schema") {
		return nil, &domainerrors.ProtocolError{Op: "profile_schema", Msg: "module does not export profile_schema"}
	}
	res, err := i.guest.Call(ctx, "profile_schema")
	if err != nil {
		return nil, fmt.Errorf("profile_schema call failed: %w", err)
	}
	data, err := i.readPacked(res[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	if data == nil {
		return nil, &domainerrors.ProtocolError{Op: "profile_schema", Msg: "guest returned no schema"}
	}
	return data, nil
}

// Close releases the guest module.
func (i *Instance) Close(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.guest.Close(ctx)
}

func (i *Instance) stage(ctx context.Context, data []byte) (uint32, error) {
	if len(data) == 0 {
		return 0, nil
	}
	res, err := i.guest.Call(ctx, "allocate", uint64(len(data)), 1)
	if err != nil {
		return 0, fmt.Errorf("allocate call failed: %w", err)
	}
	ptr := uint32(res[0]) //nolint:gosec // G115: WASM32 pointers are always 32-bit
	if ptr == 0 {
		return 0, &domainerrors.MemoryError{Requested: len(data)}
	}
	if !i.guest.Write(ptr, data) {
		i.free(ctx, ptr, data)
		return 0, &domainerrors.ProtocolError{Op: "allocate", Msg: fmt.Sprintf("allocation at 0x%x is outside guest memory", ptr)}
	}
	return ptr, nil
}

func (i *Instance) free(ctx context.Context, ptr uint32, data []byte) {
	if ptr == 0 {
		return
	}
	if _, err := i.guest.Call(ctx, "deallocate", uint64(ptr), uint64(len(data)), 1); err != nil {
		i.config.Logger.WarnContext(ctx, "host: deallocate failed", "ptr", ptr, "error", err)
	}
}

func (i *Instance) readOutput(ctx context.Context, handle uint32) (string, error) {
	res, err := i.guest.Call(ctx, "output_handle_len", uint64(handle))
	if err != nil {
		return "", fmt.Errorf("output_handle_len call failed: %w", err)
	}
	length := uint32(res[0]) //nolint:gosec // G115: i32 result
	if length == 0 {
		return "", nil
	}
	if length > i.config.MaxOutputSize {
		return "", &domainerrors.ProtocolError{
			Op:  "render",
			Msg: fmt.Sprintf("output of %d bytes exceeds limit %d", length, i.config.MaxOutputSize),
		}
	}

	res, err = i.guest.Call(ctx, "output_handle_ptr", uint64(handle))
	if err != nil {
		return "", fmt.Errorf("output_handle_ptr call failed: %w", err)
	}
	ptr := uint32(res[0]) //nolint:gosec // G115: WASM32 pointers are always 32-bit
	data, ok := i.guest.Read(ptr, length)
	if !ok {
		return "", &domainerrors.ProtocolError{Op: "render", Msg: "output buffer is outside guest memory"}
	}
	return string(data), nil
}

func (i *Instance) release(ctx context.Context, handle uint32) error {
	res, err := i.guest.Call(ctx, "release_handle", uint64(handle))
	if err != nil {
		return fmt.Errorf("release_handle call failed: %w", err)
	}
	switch status := uint32(res[0]); status { //nolint:gosec // G115: i32 result
	case releaseOK:
		return nil
	case releaseUnknown:
		return &domainerrors.ProtocolError{Op: "release_handle", Msg: fmt.Sprintf("handle %d is unknown to the guest", handle)}
	default:
		return &domainerrors.ProtocolError{Op: "release_handle", Msg: fmt.Sprintf("unexpected status %d releasing handle %d", status, handle)}
	}
}

func (i *Instance) lastError(ctx context.Context) (*entities.ErrorDetail, error) {
	res, err := i.guest.Call(ctx, "last_error")
	if err != nil {
		return nil, fmt.Errorf("last_error call failed: %w", err)
	}
	data, err := i.readPacked(res[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read last error: %w", err)
	}
	if data == nil {
		return nil, &domainerrors.ProtocolError{Op: "render", Msg: "render faulted without an error detail"}
	}

	var detail entities.ErrorDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, fmt.Errorf("failed to decode last error: %w", err)
	}
	return &detail, nil
}

// readPacked copies the ptr<<32|len region out of guest memory. A zero value
// yields nil.
func (i *Instance) readPacked(packed uint64) ([]byte, error) {
	if packed == 0 {
		return nil, nil
	}
	if packed>>abi.PtrHighBits == 0 {
		return nil, &domainerrors.ProtocolError{Op: "read", Msg: "null pointer with non-zero length"}
	}
	ptr, length := abi.UnpackPtrLen(packed)
	data, ok := i.guest.Read(ptr, length)
	if !ok {
		return nil, &domainerrors.ProtocolError{Op: "read", Msg: "region is outside guest memory"}
	}
	return append([]byte(nil), data...), nil
}
