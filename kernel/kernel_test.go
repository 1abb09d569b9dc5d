package kernel

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vektra/neko"
)

func testKernel() *Kernel {
	return New(Version{Major: 2, Minor: 50}, true, &BarrierCache{})
}

func TestCustomFlags(t *testing.T) {
	n := neko.Modern(t)

	n.It("consumes edge-triggered bits atomically", func(t *testing.T) {
		var f CustomFlags

		f.Set(SignalOnMemLayoutChanges | MemLayoutChanged)

		ok := f.Consume(SignalOnMemLayoutChanges|MemLayoutChanged, MemLayoutChanged)
		require.True(t, ok)

		// The arm bit survives the consume; the edge bit does not.
		require.True(t, f.Test(SignalOnMemLayoutChanges))
		require.False(t, f.Test(MemLayoutChanged))

		ok = f.Consume(SignalOnMemLayoutChanges|MemLayoutChanged, MemLayoutChanged)
		require.False(t, ok)
	})

	n.It("does not consume when unarmed", func(t *testing.T) {
		var f CustomFlags

		f.Set(MemLayoutChanged)

		ok := f.Consume(SignalOnMemLayoutChanges|MemLayoutChanged, MemLayoutChanged)
		require.False(t, ok)
		require.True(t, f.Test(MemLayoutChanged))
	})

	n.Meow()
}

func TestEvent(t *testing.T) {
	n := neko.Modern(t)

	n.It("stays signaled until cleared", func(t *testing.T) {
		e := NewEvent()
		require.False(t, e.Signaled())

		e.Signal()
		e.Signal()
		require.True(t, e.Signaled())

		e.Clear()
		require.False(t, e.Signaled())
	})

	n.It("wakes a registered channel once per signal", func(t *testing.T) {
		e := NewEvent()

		c := make(chan struct{}, 1)
		we := e.RegisterChannel(c)
		defer e.Unregister(we)

		e.Signal()

		select {
		case <-c:
		case <-time.After(2 * time.Second):
			t.Fatal("no wakeup")
		}
	})

	n.Meow()
}

func TestRecursiveLock(t *testing.T) {
	n := neko.Modern(t)

	n.It("admits the owning goroutine recursively", func(t *testing.T) {
		var l RecursiveLock

		l.Lock()
		l.Lock()
		require.True(t, l.Held())

		l.Unlock()
		require.True(t, l.Held())

		l.Unlock()
		require.False(t, l.Held())
	})

	n.It("excludes other goroutines until fully released", func(t *testing.T) {
		var l RecursiveLock

		l.Lock()

		entered := make(chan struct{})
		go func() {
			l.Lock()
			close(entered)
			l.Unlock()
		}()

		select {
		case <-entered:
			t.Fatal("lock admitted a second goroutine")
		case <-time.After(50 * time.Millisecond):
		}

		l.Unlock()

		select {
		case <-entered:
		case <-time.After(2 * time.Second):
			t.Fatal("lock never released")
		}
	})

	n.Meow()
}

func TestHandleTable(t *testing.T) {
	n := neko.Modern(t)

	n.It("resolves process handles with a reference", func(t *testing.T) {
		k := testKernel()
		current := k.CreateProcess("current", 1)
		target := k.CreateProcess("target", 2)

		h := current.Handles().Add(target)
		before := target.RefCount()

		got := current.Handles().ToProcess(h, current)
		require.Same(t, target, got)
		require.Equal(t, before+1, target.RefCount())

		got.Release()
		require.Equal(t, before, target.RefCount())
	})

	n.It("resolves the current-process pseudo handle", func(t *testing.T) {
		k := testKernel()
		current := k.CreateProcess("current", 1)

		before := current.RefCount()

		got := current.Handles().ToProcess(CurrentProcess, current)
		require.Same(t, current, got)
		require.Equal(t, before+1, current.RefCount())

		got.Release()
	})

	n.It("returns nil for dangling and foreign handles", func(t *testing.T) {
		k := testKernel()
		current := k.CreateProcess("current", 1)

		require.Nil(t, current.Handles().ToProcess(Handle(0x1234), current))

		h := current.Handles().Add("not a process")
		require.Nil(t, current.Handles().ToProcess(h, current))
	})

	n.It("drops closed handles", func(t *testing.T) {
		k := testKernel()
		current := k.CreateProcess("current", 1)
		target := k.CreateProcess("target", 2)

		h := current.Handles().Add(target)
		require.True(t, current.Handles().Close(h))
		require.False(t, current.Handles().Close(h))
		require.Nil(t, current.Handles().ToProcess(h, current))
	})

	n.Meow()
}

func TestThreadHold(t *testing.T) {
	n := neko.Modern(t)

	n.It("holds only threads the predicate selects", func(t *testing.T) {
		k := testKernel()
		k.SetDiagnosticState(1)

		p := k.CreateProcess("p", 1)
		normal := p.CreateThread()
		exempt := p.CreateThread()
		exempt.DiagExempt = true

		k.HoldThreads()

		require.True(t, normal.Held())
		require.False(t, exempt.Held())

		k.ReleaseAllThreads()
		require.False(t, normal.Held())
	})

	n.It("holds nothing when the diagnostic state is clear", func(t *testing.T) {
		k := testKernel()

		p := k.CreateProcess("p", 1)
		th := p.CreateThread()

		k.HoldThreads()
		require.False(t, th.Held())
	})

	n.It("wakes a parked thread on release", func(t *testing.T) {
		k := testKernel()

		p := k.CreateProcess("p", 1)
		th := p.CreateThread()

		var wg sync.WaitGroup
		wg.Add(1)

		go func() {
			defer wg.Done()
			k.ParkThread(th)
		}()

		// Wait for the park to take effect before releasing.
		deadline := time.Now().Add(2 * time.Second)
		for !th.Held() {
			if time.Now().After(deadline) {
				t.Fatal("thread never parked")
			}

			time.Sleep(time.Millisecond)
		}

		k.ReleaseHeldThreads(p)
		wg.Wait()

		require.False(t, th.Held())
	})

	n.Meow()
}

func TestDebugQueue(t *testing.T) {
	n := neko.Modern(t)

	n.It("drops events past the queue bound without blocking", func(t *testing.T) {
		d := NewDebug()
		d.WatchAllSyscalls()

		for i := 0; i < 100; i++ {
			d.Signal(DebugEventOutputString, 0xFFFFFFFE, uint32(i))
		}

		require.LessOrEqual(t, d.Pending(), 64)

		first, ok := d.Dequeue()
		require.True(t, ok)
		require.Equal(t, uint32(0), first.CallID)
	})

	n.It("filters identifiers it was not asked about", func(t *testing.T) {
		d := NewDebug()
		d.WatchSyscall(0x32)

		require.True(t, d.ShouldSignalSyscall(0x32))
		require.False(t, d.ShouldSignalSyscall(0x29))
	})

	n.Meow()
}
