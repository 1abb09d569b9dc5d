package svc

import (
	"context"
	"testing"

	"github.com/cooolgamer/CustomLuma3DS/ipc"
	"github.com/cooolgamer/CustomLuma3DS/kernel"
	hclog "github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
	"github.com/vektra/neko"
)

func TestUnmapProcessMemoryEx(t *testing.T) {
	n := neko.Modern(t)

	setup := func(minor uint8) (*kernel.Kernel, *kernel.Task, *kernel.Process, kernel.Handle, *HookSet) {
		k := testKernel(minor)
		tk := testTask(k)

		target := k.CreateProcess("target", 0x20)
		handle := tk.Process.Handles().Add(target)

		official := NewOfficialSet()
		hooks := NewHookSet(official, ipc.NewRegistry())
		official.Freeze()

		return k, tk, target, handle, hooks
	}

	call := func(hooks *HookSet, tk *kernel.Task, args *Args) kernel.Result {
		return hooks.UnmapProcessMemoryEx(context.Background(), hclog.NewNullLogger(), tk, args)
	}

	n.It("unmaps a mapped region on recent kernels", func(t *testing.T) {
		_, tk, target, handle, hooks := setup(50)

		require.False(t, target.HwInfo().MapProcessMemory(0x100000, 16).Failed())

		res := call(hooks, tk, &Args{R0: uint32(handle), R1: 0x100000, R2: 16 << 12})
		require.False(t, res.Failed())
		require.Equal(t, uint32(0), target.HwInfo().Space().MappedPages())
	})

	n.It("handles sizes past the legacy reach on recent kernels", func(t *testing.T) {
		_, tk, target, handle, hooks := setup(50)

		pages := (LegacyUnmapMaxSize >> 12) + 16
		require.False(t, target.HwInfo().MapProcessMemory(0x100000, pages).Failed())

		res := call(hooks, tk, &Args{R0: uint32(handle), R1: 0x100000, R2: pages << 12})
		require.False(t, res.Failed())
		require.Equal(t, uint32(0), target.HwInfo().Space().MappedPages())
	})

	n.It("delegates to the legacy call below the version threshold", func(t *testing.T) {
		_, tk, _, handle, hooks := setup(UnmapExMinorThreshold - 1)

		// The legacy call cannot express this size.
		res := call(hooks, tk, &Args{R0: uint32(handle), R1: 0x100000, R2: LegacyUnmapMaxSize + 0x1000})
		require.Equal(t, kernel.ResultInvalidSize, res)
	})

	n.It("rejects a dangling handle with the invalid-handle code", func(t *testing.T) {
		_, tk, _, _, hooks := setup(50)

		res := call(hooks, tk, &Args{R0: 0xDEAD, R1: 0x100000, R2: 0x1000})
		require.Equal(t, kernel.ResultInvalidHandle, res)
	})

	n.It("accepts the current-process pseudo handle", func(t *testing.T) {
		_, tk, _, _, hooks := setup(50)

		self := tk.Process
		require.False(t, self.HwInfo().MapProcessMemory(0x200000, 4).Failed())

		res := call(hooks, tk, &Args{R0: uint32(kernel.CurrentProcess), R1: 0x200000, R2: 4 << 12})
		require.False(t, res.Failed())
		require.Equal(t, uint32(0), self.HwInfo().Space().MappedPages())
	})

	n.It("keeps the target's reference count balanced on every path", func(t *testing.T) {
		_, tk, target, handle, hooks := setup(50)

		before := target.RefCount()

		require.False(t, target.HwInfo().MapProcessMemory(0x100000, 4).Failed())
		call(hooks, tk, &Args{R0: uint32(handle), R1: 0x100000, R2: 4 << 12})

		// Failure path too: nothing mapped there anymore.
		res := call(hooks, tk, &Args{R0: uint32(handle), R1: 0x100000, R2: 4 << 12})
		require.True(t, res.Failed())

		require.Equal(t, before, target.RefCount())
	})

	n.It("performs cache maintenance whether or not the unmap succeeds", func(t *testing.T) {
		k, tk, _, handle, hooks := setup(50)

		cache := k.Cache().(*kernel.BarrierCache)

		res := call(hooks, tk, &Args{R0: uint32(handle), R1: 0x100000, R2: 0x1000})
		require.True(t, res.Failed())

		require.Equal(t, uint64(1), cache.ICacheInvalidations())
		require.Equal(t, uint64(1), cache.DCacheFlushes())
	})

	n.It("marks the layout changed on success only", func(t *testing.T) {
		_, tk, target, handle, hooks := setup(50)

		require.False(t, target.HwInfo().MapProcessMemory(0x100000, 4).Failed())
		target.Flags.Clear(kernel.MemLayoutChanged)

		call(hooks, tk, &Args{R0: uint32(handle), R1: 0x100000, R2: 4 << 12})
		require.True(t, target.Flags.Test(kernel.MemLayoutChanged))

		target.Flags.Clear(kernel.MemLayoutChanged)
		call(hooks, tk, &Args{R0: uint32(handle), R1: 0x100000, R2: 4 << 12})
		require.False(t, target.Flags.Test(kernel.MemLayoutChanged))
	})

	n.Meow()
}
