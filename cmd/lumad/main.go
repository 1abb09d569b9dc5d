package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/sys/unix"

	"github.com/cooolgamer/CustomLuma3DS/config"
	"github.com/cooolgamer/CustomLuma3DS/errf"
	"github.com/cooolgamer/CustomLuma3DS/ipc"
	"github.com/cooolgamer/CustomLuma3DS/kernel"
	"github.com/cooolgamer/CustomLuma3DS/loader"
	clog "github.com/cooolgamer/CustomLuma3DS/log"
	"github.com/cooolgamer/CustomLuma3DS/svc"
)

var (
	fConfig = pflag.StringP("config", "c", "", "path to the configuration file")
	fImage  = pflag.String("kernel-image", "", "patched kernel image to read the dispatch table from")
	fDigest = pflag.String("image-digest", "", "expected digest of the kernel image")
	fMinor  = pflag.Uint("kernel-minor", 50, "kernel minor version to emulate")
	fTrace  = pflag.Bool("trace", false, "enable trace logging")
	fDemo   = pflag.Bool("demo", false, "run a short demonstration scenario")
)

// termDisplay renders fatal-error reports on the controlling
// terminal, sized to its width.
type termDisplay struct{}

func (termDisplay) width() int {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 {
		return 50
	}

	return int(ws.Col)
}

func (d termDisplay) Show(banner, body string) {
	rule := strings.Repeat("-", d.width())

	fmt.Println(rule)
	if banner != "" {
		fmt.Println(banner)
		fmt.Println()
	}
	fmt.Print(body)
	fmt.Println(rule)
}

func (termDisplay) WaitAck() {
	fmt.Print("Press enter to continue.")
	fmt.Scanln()
}

func main() {
	pflag.Parse()

	if *fTrace {
		clog.EnableDebug()
	}

	cfg, err := config.Load(*fConfig)
	if err != nil {
		log.Fatal(err)
	}

	version := kernel.Version{Major: 2, Minor: uint8(*fMinor)}

	k := kernel.New(version, true, &kernel.BarrierCache{})
	k.SetDiagnosticState(cfg.Diagnostics.State)

	official := svc.NewOfficialSet()

	if *fImage != "" {
		l := loader.NewLoader()
		l.PinnedDigest = *fDigest

		img, err := l.LoadFile(*fImage)
		if err != nil {
			log.Fatal(err)
		}

		img.Apply(official)

		if img.Version != (kernel.Version{}) {
			k.Version = img.Version
		}
	}

	ports := ipc.NewRegistry()
	hooks := svc.NewHookSet(official, ports)
	table := svc.NewTable(official, hooks, &cfg.Hooks)
	disp := svc.NewDispatcher(k, clog.L, table, nil)

	term := kernel.NewEvent()
	server := errf.NewServer(k, clog.L, ports, termDisplay{}, cfg.ErrF, term)

	done := make(chan error, 1)
	go func() {
		done <- server.Run()
	}()

	if *fDemo {
		demo(k, disp, ports)
		term.Signal()
	}

	if err := <-done; err != nil {
		log.Fatal(err)
	}
}

// demo drives one hooked call and one fatal-error throw end to end.
func demo(k *kernel.Kernel, disp *svc.Dispatcher, ports *ipc.Registry) {
	proc := k.CreateProcess("demo", 0x0004000000010000)
	t := &kernel.Task{Process: proc, Thread: proc.CreateThread()}
	ctx := kernel.SetTask(context.Background(), t)

	f := svc.NewFrame()
	f.SetCallID(svc.GetSystemInfoID)

	args := &svc.Args{R0: svc.SystemInfoHostMemTotal}
	if res, ok := disp.Invoke(ctx, t, f, args); ok {
		clog.L.Info("system info", "result", res,
			"total", uint64(args.R2)<<32|uint64(args.R1))
	}

	client, res := errf.Connect(ports)
	if res.Failed() {
		clog.L.Error("connect to err:f failed", "result", res)
		return
	}
	defer client.Close()

	client.SetUserString("demonstration run")
	client.ThrowFailure(0xE0E01BF5, "demo assertion tripped")
}
