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

func TestExitProcess(t *testing.T) {
	n := neko.Modern(t)

	runExit := func(k *kernel.Kernel, tk *kernel.Task) kernel.Result {
		official := NewOfficialSet()
		hooks := NewHookSet(official, ipc.NewRegistry())
		official.Freeze()

		return hooks.ExitProcess(context.Background(), hclog.NewNullLogger(), tk, &Args{})
	}

	n.It("signals plugin exit when armed and the plugin runs", func(t *testing.T) {
		k := testKernel(50)
		tk := testTask(k)

		tk.Process.Flags.Set(kernel.SignalOnExit)
		k.Plugin().SetStatus(kernel.PluginRunning)

		runExit(k, tk)

		require.True(t, k.Plugin().ExitEvent().Signaled())
	})

	n.It("does not signal when the plugin is not running", func(t *testing.T) {
		k := testKernel(50)
		tk := testTask(k)

		tk.Process.Flags.Set(kernel.SignalOnExit)
		k.Plugin().SetStatus(kernel.PluginLoaded)

		runExit(k, tk)

		require.False(t, k.Plugin().ExitEvent().Signaled())
	})

	n.It("does not signal when the process never armed the flag", func(t *testing.T) {
		k := testKernel(50)
		tk := testTask(k)

		k.Plugin().SetStatus(kernel.PluginRunning)

		runExit(k, tk)

		require.False(t, k.Plugin().ExitEvent().Signaled())
	})

	n.It("releases only the exiting process's held threads", func(t *testing.T) {
		k := testKernel(50)
		k.SetDiagnosticState(1)

		tk := testTask(k)
		other := testTask(k)

		k.HoldThreads()
		require.True(t, tk.Thread.Held())
		require.True(t, other.Thread.Held())

		tk.Process.Flags.Set(kernel.SignalOnExit)
		runExit(k, tk)

		require.False(t, tk.Thread.Held())
		require.True(t, other.Thread.Held())
	})

	n.It("is idempotent when nothing is held", func(t *testing.T) {
		k := testKernel(50)
		tk := testTask(k)

		tk.Process.Flags.Set(kernel.SignalOnExit)
		k.Plugin().SetStatus(kernel.PluginRunning)

		runExit(k, tk)
		res := runExit(k, tk)
		require.False(t, res.Failed())

		require.False(t, tk.Thread.Held())
	})

	n.Meow()
}
