package ipc

// CmdBufWords is the size of a thread's command buffer.
const CmdBufWords = 64

// CmdBuf is one request or reply: a header word followed by normal
// and translate parameters.
type CmdBuf [CmdBufWords]uint32

// MakeHeader builds a command header: command id, normal parameter
// count, translate parameter count.
func MakeHeader(cmd, normal, translate uint32) uint32 {
	return cmd<<16 | (normal&0x3F)<<6 | (translate & 0x3F)
}

// Command extracts the command id from a header word.
func Command(header uint32) uint32 {
	return header >> 16
}

// HeaderNoReply is what the kernel puts in the header slot when there
// is no reply to send on the first receive.
const HeaderNoReply uint32 = 0xFFFF0000

// StaticBufferDesc describes a static-buffer translate parameter of
// the given size targeting the receiver's buffer index.
func StaticBufferDesc(size, index uint32) uint32 {
	return size<<14 | (index&0xF)<<10 | 2
}

// StaticBufferDescMask selects the descriptor type and index bits a
// receiver validates.
const StaticBufferDescMask uint32 = 0x3C0F

// IsStaticBufferDesc reports whether the descriptor word is a
// static-buffer descriptor for index 0.
func IsStaticBufferDesc(desc uint32) bool {
	return desc&StaticBufferDescMask == 2
}
