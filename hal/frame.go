package hal

import "fmt"

// Frame is the saved context of the interrupted execution.
type Frame interface {
	ReturnAddress() Address
	SetReturnAddress(addr Address)
}

// Memory is word-addressed access to the stack region.
type Memory interface {
	LoadWord(addr Address) (uint32, error)
	StoreWord(addr Address, v uint32) error
}

// FrameLayout describes where the hardware-stacked return address lives
// relative to the exception-return marker pushed by the handler prologue.
type FrameLayout struct {
	Marker       uint32
	ReturnOffset uint32
	// Limit bounds the upward scan, in bytes.
	Limit uint32
}

var (
	// LayoutGCC is a Cortex-M4F frame as seen from a GCC-built handler.
	LayoutGCC = FrameLayout{Marker: 0xFFFFFFF9, ReturnOffset: 0x1C, Limit: 256}
	// LayoutKeil is the same frame as seen from an armcc-built handler.
	LayoutKeil = FrameLayout{Marker: 0xFFFFFFE9, ReturnOffset: 0x1C, Limit: 256}
)

// Redirector reads and overwrites the stacked return address of one frame.
type Redirector struct {
	mem  Memory
	slot Address
	err  error
}

// Locate scans upward from sp for the layout's marker word and returns a
// Redirector for the return-address slot above it.
func Locate(mem Memory, sp Address, layout FrameLayout) (*Redirector, error) {
	if layout.Limit == 0 {
		layout.Limit = LayoutGCC.Limit
	}
	for off := uint32(0); off < layout.Limit; off += 4 {
		addr := sp + Address(off)
		w, err := mem.LoadWord(addr)
		if err != nil {
			return nil, fmt.Errorf("hal: locate frame from sp %s: %w", sp, err)
		}
		if w == layout.Marker {
			return &Redirector{mem: mem, slot: addr + Address(layout.ReturnOffset)}, nil
		}
	}
	return nil, fmt.Errorf("hal: locate frame from sp %s: marker %#08x: %w", sp, layout.Marker, ErrNoFrameMarker)
}

// Slot returns the stack address holding the return address.
func (r *Redirector) Slot() Address { return r.slot }

func (r *Redirector) ReturnAddress() Address {
	w, err := r.mem.LoadWord(r.slot)
	if err != nil {
		r.err = err
		return 0
	}
	return Address(w)
}

func (r *Redirector) SetReturnAddress(addr Address) {
	if err := r.mem.StoreWord(r.slot, uint32(addr)); err != nil {
		r.err = err
	}
}

// Err reports the first memory error seen through the redirector.
func (r *Redirector) Err() error { return r.err }
