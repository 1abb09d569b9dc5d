package svc

import "encoding/binary"

// The trap handler passes hooks a pointer to the end of the kernel
// stack frame. The call identifier sits at a fixed negative offset;
// the escape encoding redirects to the saved r12 slot inside the
// register block.
const (
	// FrameSize is the kernel stack page backing one trap frame.
	FrameSize = 0x1000

	// idOffset is where the single-byte identifier lives, back from
	// the frame end.
	idOffset = 0xB5

	// savedRegistersOffset is the start of the saved r0-r12 block,
	// back from the frame end.
	savedRegistersOffset = 0x110
)

// Frame is a structured view over one trap frame. Hooks receive the
// whole page; all reads happen at fixed offsets from the end.
type Frame []byte

func NewFrame() Frame {
	return make(Frame, FrameSize)
}

func (f Frame) valid() bool {
	return len(f) >= savedRegistersOffset
}

// SavedRegister reads saved register n (r0-r12) from the register
// block.
func (f Frame) SavedRegister(n int) uint32 {
	off := len(f) - savedRegistersOffset + 4*n
	return binary.LittleEndian.Uint32(f[off:])
}

func (f Frame) SetSavedRegister(n int, v uint32) {
	off := len(f) - savedRegistersOffset + 4*n
	binary.LittleEndian.PutUint32(f[off:], v)
}

// CallID derives the call identifier. The single decode path is
// shared by the entry hook, the return hook, and the resolver so all
// three always agree. Returns false for a malformed frame or an
// extended identifier out of range.
func (f Frame) CallID() (ID, bool) {
	if !f.valid() {
		return 0, false
	}

	id := ID(f[len(f)-idOffset])
	if id != EscapeID {
		return id, true
	}

	ext := ID(f.SavedRegister(12))
	if ext >= MaxExtended {
		return 0, false
	}

	return ext, true
}

// SetCallID encodes id into the frame. Factory identifiers use the
// single-byte encoding; everything past that range arrives through
// the escape encoding, so extension identifiers always take it.
func (f Frame) SetCallID(id ID) {
	if id <= MaxOfficial {
		f[len(f)-idOffset] = byte(id)
		return
	}

	f.SetEscapedCallID(id)
}

// SetEscapedCallID forces the escape encoding regardless of range.
func (f Frame) SetEscapedCallID(id ID) {
	f[len(f)-idOffset] = byte(EscapeID)
	f.SetSavedRegister(12, uint32(id))
}
