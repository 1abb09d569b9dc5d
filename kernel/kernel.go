package kernel

import (
	"sync"
	"sync/atomic"

	"github.com/cooolgamer/CustomLuma3DS/pkg/ilist"
)

// Version identifies the one kernel build this extension patches.
type Version struct {
	Major, Minor, Revision uint8
}

// Word packs the version the way the console kernel publishes it.
func (v Version) Word() uint32 {
	return uint32(v.Major)<<24 | uint32(v.Minor)<<16 | uint32(v.Revision)<<8
}

func VersionFromWord(w uint32) Version {
	return Version{
		Major:    uint8(w >> 24),
		Minor:    uint8(w >> 16),
		Revision: uint8(w >> 8),
	}
}

type Kernel struct {
	Version Version

	// NewModel is true on the enhanced hardware model. Read-only
	// input, sourced at boot.
	NewModel bool

	// CritSec is the process-wide recursive lock guarding the global
	// thread list and scheduling masks.
	CritSec RecursiveLock

	processes *ProcessManager
	plugin    Plugin
	cache     CacheMaintenance

	// diagState is the global diagnostic state word; bits 0 and 2
	// feed the thread hold predicate.
	diagState uint32

	threads ilist.List // guarded by CritSec

	mu          sync.Mutex
	gpuProt     uint32
	wifiEnabled bool
}

func New(version Version, newModel bool, cache CacheMaintenance) *Kernel {
	if cache == nil {
		cache = &BarrierCache{}
	}

	return &Kernel{
		Version:   version,
		NewModel:  newModel,
		processes: NewProcessManager(),
		plugin:    Plugin{exit: NewEvent()},
		cache:     cache,
	}
}

func (k *Kernel) Processes() *ProcessManager {
	return k.processes
}

func (k *Kernel) Plugin() *Plugin {
	return &k.plugin
}

func (k *Kernel) Cache() CacheMaintenance {
	return k.cache
}

// CreateProcess registers a new process with an empty address space
// and handle table.
func (k *Kernel) CreateProcess(name string, titleID uint64) *Process {
	p := &Process{
		Kernel:      k,
		Name:        name,
		TitleID:     titleID,
		hw:          NewHwInfo(),
		handles:     NewHandleTable(),
		layoutEvent: NewEvent(),
		status:      Running,
	}

	k.processes.assignPid(p)

	return p
}

func (k *Kernel) DiagnosticState() uint32 {
	return atomic.LoadUint32(&k.diagState)
}

func (k *Kernel) SetDiagnosticState(state uint32) {
	atomic.StoreUint32(&k.diagState, state)
}

func (k *Kernel) addThread(t *Thread) {
	k.CritSec.Lock()
	k.threads.PushBack(t)
	k.CritSec.Unlock()
}

func (k *Kernel) RemoveThread(t *Thread) {
	k.CritSec.Lock()
	k.threads.Remove(t)
	k.CritSec.Unlock()
}

// ThreadLockPredicate decides whether the diagnostic subsystem wants t
// parked under the given state word.
func (k *Kernel) ThreadLockPredicate(t *Thread, state uint32) bool {
	if state == 0 {
		return false
	}

	if t.DiagExempt {
		return false
	}

	return true
}

// HoldThreads sets the hold bit on every thread the predicate selects.
// Used when the diagnostic subsystem takes over the system.
func (k *Kernel) HoldThreads() {
	state := k.DiagnosticState() & 5

	k.CritSec.Lock()
	defer k.CritSec.Unlock()

	for it := k.threads.Front(); it != nil; it = it.Next() {
		t := it.(*Thread)
		if k.ThreadLockPredicate(t, state) {
			t.mask |= SchedulingHeld
		}
	}
}

// ReleaseHeldThreads clears the hold bit from every thread owned by p,
// waking any that parked. Safe to run twice; the scan and each clear
// happen atomically under the critical section.
func (k *Kernel) ReleaseHeldThreads(p *Process) {
	k.CritSec.Lock()
	defer k.CritSec.Unlock()

	for it := k.threads.Front(); it != nil; it = it.Next() {
		t := it.(*Thread)
		if t.Owner == p && t.mask&SchedulingHeld != 0 {
			t.clearHeldLocked()
		}
	}
}

// ReleaseAllThreads clears the hold bit system-wide.
func (k *Kernel) ReleaseAllThreads() {
	k.CritSec.Lock()
	defer k.CritSec.Unlock()

	for it := k.threads.Front(); it != nil; it = it.Next() {
		it.(*Thread).clearHeldLocked()
	}
}

// ParkThread blocks the calling goroutine, standing in for t, until
// the hold bit is cleared. The hold bit is set on entry.
func (k *Kernel) ParkThread(t *Thread) {
	k.CritSec.Lock()
	t.mask |= SchedulingHeld
	k.CritSec.Unlock()

	for {
		k.CritSec.Lock()
		held := t.mask&SchedulingHeld != 0
		k.CritSec.Unlock()

		if !held {
			return
		}

		<-t.wake
	}
}

func (k *Kernel) SetGpuProt(prot uint32) {
	k.mu.Lock()
	k.gpuProt = prot
	k.mu.Unlock()
}

func (k *Kernel) GpuProt() uint32 {
	k.mu.Lock()
	defer k.mu.Unlock()

	return k.gpuProt
}

func (k *Kernel) SetWifiEnabled(on bool) {
	k.mu.Lock()
	k.wifiEnabled = on
	k.mu.Unlock()
}

func (k *Kernel) WifiEnabled() bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	return k.wifiEnabled
}
