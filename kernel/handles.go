package kernel

import "sync"

type Handle uint32

// CurrentProcess is the pseudo-handle a process uses to refer to
// itself.
const CurrentProcess Handle = 0xFFFF8001

// HandleTable maps handles to kernel objects for one process.
type HandleTable struct {
	mu      sync.RWMutex
	next    uint32
	objects map[Handle]interface{}
}

func NewHandleTable() *HandleTable {
	return &HandleTable{
		next:    0x100,
		objects: make(map[Handle]interface{}),
	}
}

func (ht *HandleTable) Add(obj interface{}) Handle {
	ht.mu.Lock()
	defer ht.mu.Unlock()

	ht.next++
	h := Handle(ht.next)
	ht.objects[h] = obj

	return h
}

func (ht *HandleTable) Get(h Handle) (interface{}, bool) {
	ht.mu.RLock()
	defer ht.mu.RUnlock()

	obj, ok := ht.objects[h]
	return obj, ok
}

func (ht *HandleTable) Close(h Handle) bool {
	ht.mu.Lock()
	defer ht.mu.Unlock()

	if _, ok := ht.objects[h]; !ok {
		return false
	}

	delete(ht.objects, h)
	return true
}

// ToProcess resolves h to a process, special-casing the
// current-process pseudo-handle. On success the process's reference
// count has been incremented; the caller owns the release.
func (ht *HandleTable) ToProcess(h Handle, current *Process) *Process {
	if h == CurrentProcess {
		if current == nil {
			return nil
		}

		current.AddReference()
		return current
	}

	obj, ok := ht.Get(h)
	if !ok {
		return nil
	}

	p, ok := obj.(*Process)
	if !ok {
		return nil
	}

	p.AddReference()
	return p
}

// ToThread resolves h to a thread. Threads are not refcounted; the
// borrow must not outlive the call.
func (ht *HandleTable) ToThread(h Handle) *Thread {
	obj, ok := ht.Get(h)
	if !ok {
		return nil
	}

	t, _ := obj.(*Thread)
	return t
}
