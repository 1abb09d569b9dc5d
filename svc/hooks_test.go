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

type fixedHost struct {
	total, used uint64
}

func (h fixedHost) MemoryTotal() (uint64, error) { return h.total, nil }
func (h fixedHost) MemoryUsed() (uint64, error)  { return h.used, nil }

func testHooks(k *kernel.Kernel) *HookSet {
	official := NewOfficialSet()
	hooks := NewHookSet(official, ipc.NewRegistry())
	hooks.Host = fixedHost{total: 256 << 20, used: 64 << 20}
	official.Freeze()

	return hooks
}

func run(h Handler, tk *kernel.Task, args *Args) kernel.Result {
	return h(context.Background(), hclog.NewNullLogger(), tk, args)
}

func TestInfoHooks(t *testing.T) {
	n := neko.Modern(t)

	n.It("returns the packed process name and title id", func(t *testing.T) {
		k := testKernel(50)
		tk := testTask(k)
		hooks := testHooks(k)

		target := k.CreateProcess("loader", 0x0004013000001302)
		handle := tk.Process.Handles().Add(target)

		args := &Args{R0: uint32(handle), R1: ProcessInfoName}
		require.False(t, run(hooks.GetProcessInfo, tk, args).Failed())
		require.Equal(t, nameWord("loader"), uint64(args.R2)<<32|uint64(args.R1))

		args = &Args{R0: uint32(handle), R1: ProcessInfoTitleID}
		require.False(t, run(hooks.GetProcessInfo, tk, args).Failed())
		require.Equal(t, uint64(0x0004013000001302), uint64(args.R2)<<32|uint64(args.R1))
	})

	n.It("reports an object's reference count", func(t *testing.T) {
		k := testKernel(50)
		tk := testTask(k)
		hooks := testHooks(k)

		target := k.CreateProcess("target", 2)
		handle := tk.Process.Handles().Add(target)
		before := uint64(target.RefCount())

		args := &Args{R0: uint32(handle), R1: HandleInfoRefCount}
		require.False(t, run(hooks.GetHandleInfo, tk, args).Failed())

		// The query itself takes and drops a reference.
		require.Equal(t, before, uint64(args.R2)<<32|uint64(args.R1))
		require.Equal(t, before, uint64(target.RefCount()))
	})

	n.It("reports a thread's scheduling mask", func(t *testing.T) {
		k := testKernel(50)
		k.SetDiagnosticState(1)
		tk := testTask(k)
		hooks := testHooks(k)

		handle := tk.Process.Handles().Add(tk.Thread)
		k.HoldThreads()

		args := &Args{R0: uint32(handle), R1: ThreadInfoSchedulingMask}
		require.False(t, run(hooks.GetThreadInfo, tk, args).Failed())
		require.Equal(t, uint32(kernel.SchedulingHeld), args.R1&kernel.SchedulingHeld)
	})

	n.It("serves host memory figures and the kernel version", func(t *testing.T) {
		k := testKernel(50)
		tk := testTask(k)
		hooks := testHooks(k)

		args := &Args{R0: SystemInfoHostMemTotal}
		require.False(t, run(hooks.GetSystemInfo, tk, args).Failed())
		require.Equal(t, uint64(256<<20), uint64(args.R2)<<32|uint64(args.R1))

		args = &Args{R0: SystemInfoHostMemUsed}
		require.False(t, run(hooks.GetSystemInfo, tk, args).Failed())
		require.Equal(t, uint64(64<<20), uint64(args.R2)<<32|uint64(args.R1))

		args = &Args{R0: SystemInfoKernelVer}
		require.False(t, run(hooks.GetSystemInfo, tk, args).Failed())
		require.Equal(t, k.Version.Word(), args.R1)
	})

	n.Meow()
}

func TestCacheHooks(t *testing.T) {
	n := neko.Modern(t)

	n.It("translates mapped virtual addresses", func(t *testing.T) {
		k := testKernel(50)
		tk := testTask(k)
		hooks := testHooks(k)

		require.False(t, tk.Process.HwInfo().MapProcessMemory(0x08100000, 4).Failed())

		args := &Args{R0: 0x08100000}
		require.False(t, run(hooks.ConvertVAToPA, tk, args).Failed())
		require.NotZero(t, args.R1)

		args = &Args{R0: 0x08200000}
		require.Equal(t, kernel.ResultInvalidAddress, run(hooks.ConvertVAToPA, tk, args))
		require.Zero(t, args.R1)
	})

	n.It("drives the cache maintenance primitives", func(t *testing.T) {
		k := testKernel(50)
		tk := testTask(k)
		hooks := testHooks(k)

		cache := k.Cache().(*kernel.BarrierCache)

		run(hooks.FlushEntireDataCache, tk, &Args{})
		run(hooks.FlushDataCacheRange, tk, &Args{R0: 0x100000, R1: 0x1000})
		require.Equal(t, uint64(2), cache.DCacheFlushes())

		run(hooks.InvalidateEntireICache, tk, &Args{})
		run(hooks.InvalidateICacheRange, tk, &Args{R0: 0x100000, R1: 0x1000})
		require.Equal(t, uint64(2), cache.ICacheInvalidations())
	})

	n.Meow()
}

func TestControlHooks(t *testing.T) {
	n := neko.Modern(t)

	n.It("connects to extension ports by name", func(t *testing.T) {
		k := testKernel(50)
		tk := testTask(k)
		hooks := testHooks(k)

		_, err := hooks.Ports.CreatePort("srv:test", 1)
		require.NoError(t, err)

		args := &Args{Str: "srv:test"}
		require.False(t, run(hooks.ConnectToPort, tk, args).Failed())

		obj, ok := tk.Process.Handles().Get(kernel.Handle(args.R1))
		require.True(t, ok)
		require.IsType(t, &ipc.ClientSession{}, obj)

		args = &Args{Str: "srv:absent"}
		require.Equal(t, kernel.ResultNotFound, run(hooks.ConnectToPort, tk, args))
	})

	n.It("copies handles between processes", func(t *testing.T) {
		k := testKernel(50)
		tk := testTask(k)
		hooks := testHooks(k)

		src := k.CreateProcess("src", 2)
		dst := k.CreateProcess("dst", 3)

		event := kernel.NewEvent()
		srcHandle := src.Handles().Add(event)

		args := &Args{
			R1: uint32(tk.Process.Handles().Add(dst)),
			R2: uint32(srcHandle),
			R3: uint32(tk.Process.Handles().Add(src)),
		}
		require.False(t, run(hooks.CopyHandle, tk, args).Failed())

		obj, ok := dst.Handles().Get(kernel.Handle(args.R1))
		require.True(t, ok)
		require.Same(t, event, obj)
	})

	n.It("names the class behind a handle", func(t *testing.T) {
		k := testKernel(50)
		tk := testTask(k)
		hooks := testHooks(k)

		args := &Args{R0: uint32(kernel.CurrentProcess)}
		require.False(t, run(hooks.TranslateHandle, tk, args).Failed())
		require.Equal(t, nameWord("KProcess"), uint64(args.R2)<<32|uint64(args.R1))

		h := tk.Process.Handles().Add(tk.Thread)
		args = &Args{R0: uint32(h)}
		require.False(t, run(hooks.TranslateHandle, tk, args).Failed())
		require.Equal(t, nameWord("KThread"), uint64(args.R2)<<32|uint64(args.R1))
	})

	n.It("hands out the layout-change event and arms signaling", func(t *testing.T) {
		k := testKernel(50)
		tk := testTask(k)
		hooks := testHooks(k)

		target := k.CreateProcess("target", 2)
		handle := tk.Process.Handles().Add(target)

		args := &Args{R0: uint32(handle), R1: ProcessOpGetLayoutEvent}
		require.False(t, run(hooks.ControlProcess, tk, args).Failed())

		require.True(t, target.Flags.Test(kernel.SignalOnMemLayoutChanges))

		obj, ok := tk.Process.Handles().Get(kernel.Handle(args.R2))
		require.True(t, ok)
		require.Same(t, target.LayoutChangeEvent(), obj)
	})

	n.It("counts a process's threads", func(t *testing.T) {
		k := testKernel(50)
		tk := testTask(k)
		hooks := testHooks(k)

		target := k.CreateProcess("target", 2)
		target.CreateThread()
		target.CreateThread()

		handle := tk.Process.Handles().Add(target)

		args := &Args{R0: uint32(handle), R1: ProcessOpGetThreadCount}
		require.False(t, run(hooks.ControlProcess, tk, args).Failed())
		require.Equal(t, uint32(2), args.R2)
	})

	n.Meow()
}

func TestBackdoorHooks(t *testing.T) {
	n := neko.Modern(t)

	n.It("runs the supplied function at kernel privilege", func(t *testing.T) {
		k := testKernel(50)
		tk := testTask(k)
		hooks := testHooks(k)

		var ran bool
		args := &Args{Fn: func() kernel.Result {
			ran = true
			return kernel.ResultSuccess
		}}

		require.False(t, run(hooks.Backdoor, tk, args).Failed())
		require.True(t, ran)

		require.Equal(t, kernel.ResultInvalidAddress, run(hooks.Backdoor, tk, &Args{}))
	})

	n.It("reads and writes the diagnostic state", func(t *testing.T) {
		k := testKernel(50)
		tk := testTask(k)
		hooks := testHooks(k)

		args := &Args{R0: BackdoorSetDiag, R1: 5}
		require.False(t, run(hooks.CustomBackdoor, tk, args).Failed())
		require.Equal(t, uint32(5), k.DiagnosticState())

		args = &Args{R0: BackdoorGetDiag}
		require.False(t, run(hooks.CustomBackdoor, tk, args).Failed())
		require.Equal(t, uint32(5), args.R1)
	})

	n.It("stores the GPU protection and wifi state", func(t *testing.T) {
		k := testKernel(50)
		tk := testTask(k)
		hooks := testHooks(k)

		require.False(t, run(hooks.SetGpuProt, tk, &Args{R0: 3}).Failed())
		require.Equal(t, uint32(3), k.GpuProt())

		require.False(t, run(hooks.SetWifiEnabled, tk, &Args{R0: 1}).Failed())
		require.True(t, k.WifiEnabled())

		require.False(t, run(hooks.SetWifiEnabled, tk, &Args{R0: 0}).Failed())
		require.False(t, k.WifiEnabled())
	})

	n.Meow()
}
