package svc

import (
	"context"
	"fmt"

	"github.com/cooolgamer/CustomLuma3DS/ipc"
	"github.com/cooolgamer/CustomLuma3DS/kernel"
	hclog "github.com/hashicorp/go-hclog"
)

// ID is a privileged-call identifier. Official calls occupy
// 0x00-0x7D; the extension claims identifiers above that range,
// reached through the escape encoding.
type ID uint32

const (
	// MaxOfficial is the highest identifier the factory kernel
	// serves.
	MaxOfficial ID = 0x7D

	// EscapeID in the trap instruction selects the extended
	// identifier carried in the saved r12 slot.
	EscapeID ID = 0xFE

	// MaxExtended bounds the extended encoding; anything at or above
	// is rejected.
	MaxExtended ID = 0x40000000
)

// Official identifiers with registered hooks.
const (
	ControlMemoryID      ID = 0x01
	ExitProcessID        ID = 0x03
	GetHandleInfoID      ID = 0x29
	GetSystemInfoID      ID = 0x2A
	GetProcessInfoID     ID = 0x2B
	GetThreadInfoID      ID = 0x2C
	ConnectToPortID      ID = 0x2D
	GetCFWInfoID         ID = 0x2E
	SendSyncRequestID    ID = 0x32
	BreakID              ID = 0x3C
	SetGpuProtID         ID = 0x59
	SetWifiEnabledID     ID = 0x5A
	MapProcessMemoryID   ID = 0x71
	UnmapProcessMemoryID ID = 0x72
	BackdoorID           ID = 0x7B
	KernelSetStateID     ID = 0x7C
)

// Extension identifiers.
const (
	CustomBackdoorID ID = 0x80

	ConvertVAToPAID          ID = 0x90
	FlushDataCacheRangeID    ID = 0x91
	FlushEntireDataCacheID   ID = 0x92
	InvalidateICacheRangeID  ID = 0x93
	InvalidateEntireICacheID ID = 0x94

	MapProcessMemoryExID   ID = 0xA0
	UnmapProcessMemoryExID ID = 0xA1
	ControlMemoryExID      ID = 0xA2
	ControlMemoryUnsafeID  ID = 0xA3

	ControlServiceID  ID = 0xB0
	CopyHandleID      ID = 0xB1
	TranslateHandleID ID = 0xB2
	ControlProcessID  ID = 0xB3
)

// Direction sentinels carried in the Info field of the advisory
// syscall entry/return debug events.
const (
	SyscallEntryMarker  uint32 = 0xFFFFFFFE
	SyscallReturnMarker uint32 = 0xFFFFFFFF
)

// UnmapExMinorThreshold is the kernel minor version below which the
// extended unmap falls back to the legacy call. The legacy call only
// reaches 64 MB, which the gate guarantees is enough on those
// kernels.
const UnmapExMinorThreshold uint8 = 37

// LegacyUnmapMaxSize is the byte limit of the legacy unmap call.
const LegacyUnmapMaxSize uint32 = 0x4000000

// Args is the structured view of a call's register arguments. R0-R7
// mirror the trapped registers; results are written back in place.
// Str, Fn, Cmd and Payload stand in for pointer arguments the raw ABI
// would pass as addresses into the caller's memory.
type Args struct {
	R0, R1, R2, R3, R4, R5, R6, R7 uint32

	Str     string
	Fn      func() kernel.Result
	Cmd     *ipc.CmdBuf
	Payload []byte
}

// Handler services one privileged call.
type Handler func(ctx context.Context, l hclog.Logger, t *kernel.Task, args *Args) kernel.Result

// Names of hooked identifiers, for trace logging.
var Names = map[ID]string{
	ControlMemoryID:          "ControlMemory",
	ExitProcessID:            "ExitProcess",
	GetHandleInfoID:          "GetHandleInfo",
	GetSystemInfoID:          "GetSystemInfo",
	GetProcessInfoID:         "GetProcessInfo",
	GetThreadInfoID:          "GetThreadInfo",
	ConnectToPortID:          "ConnectToPort",
	GetCFWInfoID:             "GetCFWInfo",
	SendSyncRequestID:        "SendSyncRequest",
	BreakID:                  "Break",
	SetGpuProtID:             "SetGpuProt",
	SetWifiEnabledID:         "SetWifiEnabled",
	MapProcessMemoryID:       "MapProcessMemory",
	UnmapProcessMemoryID:     "UnmapProcessMemory",
	BackdoorID:               "Backdoor",
	KernelSetStateID:         "KernelSetState",
	CustomBackdoorID:         "CustomBackdoor",
	ConvertVAToPAID:          "ConvertVAToPA",
	FlushDataCacheRangeID:    "FlushDataCacheRange",
	FlushEntireDataCacheID:   "FlushEntireDataCache",
	InvalidateICacheRangeID:  "InvalidateInstructionCacheRange",
	InvalidateEntireICacheID: "InvalidateEntireInstructionCache",
	MapProcessMemoryExID:     "MapProcessMemoryEx",
	UnmapProcessMemoryExID:   "UnmapProcessMemoryEx",
	ControlMemoryExID:        "ControlMemoryEx",
	ControlMemoryUnsafeID:    "ControlMemoryUnsafe",
	ControlServiceID:         "ControlService",
	CopyHandleID:             "CopyHandle",
	TranslateHandleID:        "TranslateHandle",
	ControlProcessID:         "ControlProcess",
}

func (id ID) String() string {
	if name, ok := Names[id]; ok {
		return name
	}

	return fmt.Sprintf("svc %#x", uint32(id))
}
