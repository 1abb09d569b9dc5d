package svc

import (
	"github.com/cooolgamer/CustomLuma3DS/config"
)

type Kind int

const (
	// KindOriginal pins the identifier to the untouched factory
	// handler even if later configuration would hook it.
	KindOriginal Kind = iota

	// KindReplaced runs the replacement unconditionally.
	KindReplaced

	// KindVersionGated picks Old below the minor threshold, New at or
	// above it.
	KindVersionGated

	// KindDebuggerGated picks by attached-debugger presence.
	KindDebuggerGated
)

type Entry struct {
	Kind Kind

	Handler Handler

	MinorThreshold uint8
	Old, New       Handler

	IfAttached, IfNot Handler
}

// Table maps call identifiers to dispatch entries. It is built once
// at initialization and never mutated; concurrent call paths only
// read it.
type Table struct {
	official *OfficialSet
	entries  map[ID]Entry
}

// NewTable wires the hook set over the official table according to
// configuration. Disabled hook groups leave their identifiers on the
// factory handlers (extension-only identifiers simply vanish from the
// map and resolve as unsupported).
func NewTable(official *OfficialSet, hooks *HookSet, cfg *config.Hooks) *Table {
	if cfg == nil {
		c := config.Default().Hooks
		cfg = &c
	}

	e := make(map[ID]Entry)

	replace := func(id ID, h Handler) {
		e[id] = Entry{Kind: KindReplaced, Handler: h}
	}

	if cfg.Memory {
		replace(ControlMemoryID, hooks.ControlMemory)
		replace(MapProcessMemoryExID, hooks.MapProcessMemoryEx)
		replace(ControlMemoryExID, hooks.ControlMemoryEx)
		replace(ControlMemoryUnsafeID, hooks.ControlMemoryUnsafe)

		// On old kernels the extended unmap has no primitive to ride
		// on; the table sends those straight to the legacy call.
		e[UnmapProcessMemoryExID] = Entry{
			Kind:           KindVersionGated,
			MinorThreshold: UnmapExMinorThreshold,
			Old:            official.Handler(UnmapProcessMemoryID),
			New:            hooks.UnmapProcessMemoryEx,
		}
	}

	if cfg.PluginExit {
		replace(ExitProcessID, hooks.ExitProcess)
	}

	if cfg.Info {
		replace(GetHandleInfoID, hooks.GetHandleInfo)
		replace(GetSystemInfoID, hooks.GetSystemInfo)
		replace(GetProcessInfoID, hooks.GetProcessInfo)
		replace(GetThreadInfoID, hooks.GetThreadInfo)
		replace(GetCFWInfoID, hooks.GetCFWInfo)
	}

	if cfg.Control {
		replace(ConnectToPortID, hooks.ConnectToPort)
		replace(ControlServiceID, hooks.ControlService)
		replace(CopyHandleID, hooks.CopyHandle)
		replace(TranslateHandleID, hooks.TranslateHandle)
		replace(ControlProcessID, hooks.ControlProcess)
	}

	if cfg.SendSync {
		replace(SendSyncRequestID, hooks.SendSyncRequest)
	}

	if cfg.DiagBreak {
		// A debugged process expects standard trap semantics from
		// Break; everything else gets the diagnostic version.
		e[BreakID] = Entry{
			Kind:       KindDebuggerGated,
			IfAttached: official.Handler(BreakID),
			IfNot:      hooks.DiagnosticBreak,
		}
	}

	if cfg.GpuWifi {
		replace(SetGpuProtID, hooks.SetGpuProt)
		replace(SetWifiEnabledID, hooks.SetWifiEnabled)
	}

	if cfg.Backdoor {
		replace(BackdoorID, hooks.Backdoor)
		replace(KernelSetStateID, hooks.KernelSetState)
		replace(CustomBackdoorID, hooks.CustomBackdoor)
	}

	if cfg.CacheOps {
		replace(ConvertVAToPAID, hooks.ConvertVAToPA)
		replace(FlushDataCacheRangeID, hooks.FlushDataCacheRange)
		replace(FlushEntireDataCacheID, hooks.FlushEntireDataCache)
		replace(InvalidateICacheRangeID, hooks.InvalidateICacheRange)
		replace(InvalidateEntireICacheID, hooks.InvalidateEntireICache)
	}

	official.Freeze()

	return &Table{
		official: official,
		entries:  e,
	}
}

// Resolve is a pure lookup: given the identifier, the running kernel
// minor version, and whether the calling process has a debugger
// attached, return the handler to run. ok is false above the
// supported range, which callers must treat as an undefined call.
func (tb *Table) Resolve(id ID, minor uint8, debugged bool) (Handler, bool) {
	if e, ok := tb.entries[id]; ok {
		switch e.Kind {
		case KindReplaced:
			return e.Handler, true

		case KindVersionGated:
			if minor < e.MinorThreshold {
				return e.Old, true
			}

			return e.New, true

		case KindDebuggerGated:
			if debugged {
				return e.IfAttached, true
			}

			return e.IfNot, true
		}

		// KindOriginal falls through to the official table.
	}

	if id <= MaxOfficial {
		return tb.official.Handler(id), true
	}

	return nil, false
}
