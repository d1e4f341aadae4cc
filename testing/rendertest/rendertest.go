// Package rendertest provides a test harness for themes and render modules.
package rendertest

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/reglet-dev/theme-sdk/domain/entities"
	domainerrors "github.com/reglet-dev/theme-sdk/domain/errors"
	"github.com/reglet-dev/theme-sdk/guest"
)

// Renderer is anything that renders a theme against a profile document.
// *host.Instance and the adapter returned by ForModule both satisfy it.
type Renderer interface {
	Render(ctx context.Context, profileJSON, theme []byte) (string, error)
}

// TestCase defines a render test.
type TestCase struct {
	Name string
	// Profile is marshaled to JSON unless it is already a string or []byte.
	Profile  any
	Theme    string
	Validate func(t *testing.T, r entities.RenderResult)
}

// RunRenderTests runs each case against r.
func RunRenderTests(t *testing.T, r Renderer, tests []TestCase) {
	t.Helper()

	for _, tc := range tests {
		t.Run(tc.Name, func(t *testing.T) {
			profile, err := profileBytes(tc.Profile)
			if err != nil {
				t.Fatalf("failed to marshal profile: %v", err)
			}

			result := Render(context.Background(), r, profile, []byte(tc.Theme))
			if tc.Validate != nil {
				tc.Validate(t, result)
			}
		})
	}
}

// Render invokes r and folds its outcome into a RenderResult.
func Render(ctx context.Context, r Renderer, profileJSON, theme []byte) entities.RenderResult {
	out, err := r.Render(ctx, profileJSON, theme)
	if err != nil {
		return entities.RenderFailure(domainerrors.ToErrorDetail(err))
	}
	return entities.RenderSuccess(out)
}

func profileBytes(p any) ([]byte, error) {
	switch v := p.(type) {
	case nil:
		return []byte(`{}`), nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(v)
	}
}

// ModuleRenderer drives a guest.Module through the same allocate, render,
// read and release sequence a host performs over the wasm boundary.
type ModuleRenderer struct {
	module *guest.Module
	t      *testing.T
}

// ForModule wraps m. Protocol violations by the module, such as an output
// that cannot be released exactly once, fail t.
func ForModule(t *testing.T, m *guest.Module) *ModuleRenderer {
	return &ModuleRenderer{module: m, t: t}
}

// Render implements Renderer.
func (r *ModuleRenderer) Render(_ context.Context, profileJSON, theme []byte) (string, error) {
	r.t.Helper()

	pp, pl := r.stage(profileJSON)
	defer r.module.Deallocate(pp, pl, 1)
	tp, tl := r.stage(theme)
	defer r.module.Deallocate(tp, tl, 1)

	h := r.module.Render(pp, pl, tp, tl)
	if h == 0 {
		var detail entities.ErrorDetail
		if err := json.Unmarshal(r.module.LastError(), &detail); err != nil {
			r.t.Fatalf("render faulted without a readable last error: %v", err)
		}
		return "", &detail
	}

	ptr, n := r.module.OutputOf(h)
	var out string
	if n > 0 {
		view, err := r.module.Allocator().Bytes(ptr, n)
		if err != nil {
			r.t.Fatalf("output handle %d is not readable: %v", h, err)
		}
		out = strings.Clone(string(view))
	}

	if status := r.module.ReleaseHandle(h); status != guest.StatusOK {
		r.t.Fatalf("first release of handle %d returned status %d", h, status)
	}
	if status := r.module.ReleaseHandle(h); status != guest.StatusUnknown {
		r.t.Fatalf("second release of handle %d returned status %d", h, status)
	}
	return out, nil
}

func (r *ModuleRenderer) stage(data []byte) (uintptr, uint32) {
	r.t.Helper()

	n := uint32(len(data)) //nolint:gosec // G115: test inputs are small
	ptr := r.module.Allocate(n, 1)
	if n == 0 {
		return ptr, 0
	}
	if ptr == 0 {
		r.t.Fatalf("module refused to allocate %d bytes", n)
	}
	view, err := r.module.Allocator().Bytes(ptr, n)
	if err != nil {
		r.t.Fatalf("staged input is not writable: %v", err)
	}
	copy(view, data)
	return ptr, n
}

// AssertSuccess asserts the render succeeded.
func AssertSuccess(t *testing.T, r entities.RenderResult) {
	t.Helper()
	if !r.IsSuccess() {
		t.Errorf("expected success, got %s: %v", r.Status, r.Err())
	}
}

// AssertFailure asserts the render failed with the given error type.
func AssertFailure(t *testing.T, r entities.RenderResult, errorType string) {
	t.Helper()
	if r.IsSuccess() {
		t.Errorf("expected %s failure, got output %q", errorType, r.Output)
		return
	}
	if r.Error == nil || r.Error.Type != errorType {
		t.Errorf("expected %s failure, got %v", errorType, r.Error)
	}
}

// AssertOutput asserts the rendered output equals expected.
func AssertOutput(t *testing.T, r entities.RenderResult, expected string) {
	t.Helper()
	AssertSuccess(t, r)
	if r.Output != expected {
		t.Errorf("output: expected %q, got %q", expected, r.Output)
	}
}

// AssertOutputContains asserts the rendered output contains each fragment.
func AssertOutputContains(t *testing.T, r entities.RenderResult, fragments ...string) {
	t.Helper()
	AssertSuccess(t, r)
	for _, f := range fragments {
		if !strings.Contains(r.Output, f) {
			t.Errorf("output %q does not contain %q", r.Output, f)
		}
	}
}
