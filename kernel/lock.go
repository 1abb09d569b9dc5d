package kernel

import (
	"sync"

	"github.com/petermattis/goid"
)

// RecursiveLock is a goroutine-reentrant mutex. The global critical
// section guarding the thread list is held recursively by the exit
// hook while official teardown code below it takes it again.
type RecursiveLock struct {
	mu    sync.Mutex
	cond  *sync.Cond
	owner int64
	depth int
}

func (l *RecursiveLock) Lock() {
	gid := goid.Get()

	l.mu.Lock()
	if l.cond == nil {
		l.cond = sync.NewCond(&l.mu)
	}

	for l.depth > 0 && l.owner != gid {
		l.cond.Wait()
	}

	l.owner = gid
	l.depth++
	l.mu.Unlock()
}

func (l *RecursiveLock) Unlock() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.depth == 0 || l.owner != goid.Get() {
		panic("kernel: unlock of recursive lock not held by caller")
	}

	l.depth--
	if l.depth == 0 {
		l.owner = 0
		l.cond.Signal()
	}
}

// Held reports whether the calling goroutine currently holds the lock.
func (l *RecursiveLock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.depth > 0 && l.owner == goid.Get()
}
