package errf

import (
	"bytes"
	"encoding/binary"

	"github.com/cooolgamer/CustomLuma3DS/ipc"
	"github.com/pkg/errors"
)

type ErrType uint32

const (
	ErrTypeGeneric ErrType = iota
	ErrTypeMemCorrupt
	ErrTypeCardRemoved
	ErrTypeException
	ErrTypeFailure
	ErrTypeLogged
)

type ExceptionType uint32

const (
	ExceptionPrefetchAbort ExceptionType = iota
	ExceptionDataAbort
	ExceptionUndefinedInstruction
	ExceptionVFP
)

// ExceptionInfo is the fault-status half of an exception record.
type ExceptionInfo struct {
	Type    ExceptionType
	FSR     uint32
	FAR     uint32
	FPEXC   uint32
	FPINST  uint32
	FPINST2 uint32
}

// CPURegisters is the dumped register file: r0-r12, sp, lr, pc, cpsr.
type CPURegisters struct {
	R    [13]uint32
	SP   uint32
	LR   uint32
	PC   uint32
	CPSR uint32
}

type ExceptionData struct {
	Excep ExceptionInfo
	Regs  CPURegisters
}

// FailureMessageMax is where a failure message is cut and
// NUL-terminated.
const FailureMessageMax = 0x5F

// dataSize is the size of the per-type union blob.
const dataSize = 0x60

// FatalErrInfo is the fixed-layout error record, copied byte-for-byte
// from the caller. Data is a union keyed by Type: an exception dump,
// a failure message, or unused.
type FatalErrInfo struct {
	Type    ErrType
	RevHigh uint8
	_       uint8
	RevLow  uint16
	ResCode uint32
	PCAddr  uint32
	ProcID  uint32
	TitleID uint64
	Data    [dataSize]byte
}

// InfoSize is the wire size of FatalErrInfo.
const InfoSize = 4 + 1 + 1 + 2 + 4 + 4 + 4 + 8 + dataSize

// InfoWords is the record's footprint in a command buffer.
const InfoWords = InfoSize / 4

// Exception decodes the union as an exception dump.
func (info *FatalErrInfo) Exception() ExceptionData {
	var d ExceptionData

	// The blob is fixed-size and bigger than the struct; Read cannot
	// fail.
	binary.Read(bytes.NewReader(info.Data[:]), binary.LittleEndian, &d)

	return d
}

// SetException encodes d into the union.
func (info *FatalErrInfo) SetException(d ExceptionData) {
	var buf bytes.Buffer

	binary.Write(&buf, binary.LittleEndian, d)
	copy(info.Data[:], buf.Bytes())
}

// FailureMessage reads the union as an ASCII message, honoring the
// forced terminator at FailureMessageMax.
func (info *FatalErrInfo) FailureMessage() string {
	msg := info.Data[:FailureMessageMax+1]
	msg[FailureMessageMax] = 0

	if i := bytes.IndexByte(msg, 0); i >= 0 {
		msg = msg[:i]
	}

	return string(msg)
}

func (info *FatalErrInfo) SetFailureMessage(s string) {
	for i := range info.Data {
		info.Data[i] = 0
	}

	copy(info.Data[:FailureMessageMax], s)
}

// encode writes the record into cmd starting at word 1.
func (info *FatalErrInfo) encode(cmd *ipc.CmdBuf) error {
	var buf bytes.Buffer

	if err := binary.Write(&buf, binary.LittleEndian, info); err != nil {
		return errors.Wrap(err, "encoding error record")
	}

	raw := buf.Bytes()
	for i := 0; i < InfoWords; i++ {
		cmd[1+i] = binary.LittleEndian.Uint32(raw[4*i:])
	}

	return nil
}

// decode copies the record out of cmd, byte-for-byte.
func (info *FatalErrInfo) decode(cmd *ipc.CmdBuf) error {
	raw := make([]byte, InfoSize)
	for i := 0; i < InfoWords; i++ {
		binary.LittleEndian.PutUint32(raw[4*i:], cmd[1+i])
	}

	return errors.Wrap(
		binary.Read(bytes.NewReader(raw), binary.LittleEndian, info),
		"decoding error record")
}
