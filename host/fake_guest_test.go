package host

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/reglet-dev/theme-sdk/application/template"
	domainerrors "github.com/reglet-dev/theme-sdk/domain/errors"
	"github.com/reglet-dev/theme-sdk/internal/abi"
)

// fakeGuest implements the render protocol over a byte slice so instance
// logic can be tested without a compiled module.
type fakeGuest struct {
	mem      []byte
	next     uint32
	allocs   map[uint32]uint32
	outputs  map[uint32][2]uint32
	handle   uint32
	lastErr  uint64
	schema   []byte
	calls    []string
	closed   bool
	hooked   int
	badState bool // release_handle reports unknown for every handle
	engine   *template.Engine
}

func newFakeGuest() *fakeGuest {
	return &fakeGuest{
		mem:     make([]byte, 1<<20),
		next:    16,
		allocs:  make(map[uint32]uint32),
		outputs: make(map[uint32][2]uint32),
		schema:  []byte(`{"type":"object"}`),
		engine:  template.NewEngine(),
	}
}

func (g *fakeGuest) alloc(size uint32) uint32 {
	if size == 0 || int(g.next+size) > len(g.mem) {
		return 0
	}
	ptr := g.next
	g.next += size
	g.allocs[ptr] = size
	return ptr
}

func (g *fakeGuest) place(data []byte) uint64 {
	ptr := g.alloc(uint32(len(data)))
	copy(g.mem[ptr:], data)
	return abi.PackPtrLen(ptr, uint32(len(data)))
}

func (g *fakeGuest) Call(_ context.Context, name string, params ...uint64) ([]uint64, error) {
	g.calls = append(g.calls, name)
	switch name {
	case "allocate":
		return []uint64{uint64(g.alloc(uint32(params[0])))}, nil
	case "deallocate":
		ptr, size := uint32(params[0]), uint32(params[1])
		if g.allocs[ptr] != size {
			return nil, fmt.Errorf("bad deallocate of 0x%x", ptr)
		}
		delete(g.allocs, ptr)
		return nil, nil
	case "render":
		pp, pl, tp, tl := uint32(params[0]), uint32(params[1]), uint32(params[2]), uint32(params[3])
		out, err := g.engine.Render(g.mem[pp:pp+pl], g.mem[tp:tp+tl])
		if err != nil {
			detail, _ := json.Marshal(domainerrors.ToErrorDetail(err))
			g.lastErr = g.place(detail)
			return []uint64{0}, nil
		}
		g.lastErr = 0
		g.handle++
		var ptr uint32
		if len(out) > 0 {
			ptr = g.alloc(uint32(len(out)))
			copy(g.mem[ptr:], out)
		}
		g.outputs[g.handle] = [2]uint32{ptr, uint32(len(out))}
		return []uint64{uint64(g.handle)}, nil
	case "output_handle_ptr":
		return []uint64{uint64(g.outputs[uint32(params[0])][0])}, nil
	case "output_handle_len":
		return []uint64{uint64(g.outputs[uint32(params[0])][1])}, nil
	case "release_handle":
		h := uint32(params[0])
		out, ok := g.outputs[h]
		if !ok || g.badState {
			return []uint64{releaseUnknown}, nil
		}
		delete(g.outputs, h)
		delete(g.allocs, out[0])
		return []uint64{releaseOK}, nil
	case "last_error":
		return []uint64{g.lastErr}, nil
	case "install_panic_hook":
		g.hooked++
		return nil, nil
	case "profile_schema":
		return []uint64{g.place(g.schema)}, nil
	}
	return nil, fmt.Errorf("export %q not found", name)
}

func (g *fakeGuest) Read(ptr, length uint32) ([]byte, bool) {
	if uint64(ptr)+uint64(length) > uint64(len(g.mem)) {
		return nil, false
	}
	return g.mem[ptr : ptr+length], true
}

func (g *fakeGuest) Write(ptr uint32, data []byte) bool {
	if uint64(ptr)+uint64(len(data)) > uint64(len(g.mem)) {
		return false
	}
	copy(g.mem[ptr:], data)
	return true
}

func (g *fakeGuest) Has(name string) bool {
	return name != "profile_schema" || g.schema != nil
}

func (g *fakeGuest) Close(context.Context) error {
	g.closed = true
	return nil
}

// liveAllocs returns the number of outstanding allocations.
func (g *fakeGuest) liveAllocs() int {
	return len(g.allocs)
}
