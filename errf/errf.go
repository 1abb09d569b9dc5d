package errf

import (
	"sync"

	"github.com/cooolgamer/CustomLuma3DS/config"
	"github.com/cooolgamer/CustomLuma3DS/ipc"
	"github.com/cooolgamer/CustomLuma3DS/kernel"
	"github.com/hashicorp/go-hclog"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

// PortName is the service name fatal-error clients connect to.
const PortName = "err:f"

const (
	CmdThrow         = 1
	CmdSetUserString = 2
)

// ResultInvalidCommand rejects a malformed request header.
const ResultInvalidCommand kernel.Result = 0xD9001830

// UserStringMax bounds the stored custom banner line.
const UserStringMax = 0x100

// Display is the report sink: a framebuffer console on real hardware,
// a terminal here, a recorder in tests.
type Display interface {
	Show(banner, body string)

	// WaitAck blocks until the user dismisses the report.
	WaitAck()
}

// Server owns the err:f port and serves it single-threaded, one bound
// session at a time.
type Server struct {
	k       *kernel.Kernel
	l       hclog.Logger
	ports   *ipc.Registry
	display Display
	term    *kernel.Event

	disablePrompt bool

	mu         sync.Mutex
	userString []byte

	// receive buffer for SetUserString payloads, registered as
	// static buffer 0 on every accepted session.
	staticBuf [UserStringMax]byte

	names *lru.Cache
}

func NewServer(k *kernel.Kernel, l hclog.Logger, ports *ipc.Registry,
	display Display, cfg config.ErrF, term *kernel.Event) *Server {

	names, _ := lru.New(64)

	s := &Server{
		k:             k,
		l:             l.Named("errf"),
		ports:         ports,
		display:       display,
		term:          term,
		disablePrompt: cfg.DisablePrompt,
		names:         names,
	}

	if cfg.UserString != "" {
		s.setUserString([]byte(cfg.UserString))
	}

	return s
}

// UserString returns the current custom banner line.
func (s *Server) UserString() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return string(s.userString)
}

func (s *Server) setUserString(raw []byte) {
	if len(raw) > UserStringMax {
		raw = raw[:UserStringMax]
	}

	buf := make([]byte, len(raw)+1)
	copy(buf, raw)

	s.mu.Lock()
	s.userString = buf[:len(raw)]
	s.mu.Unlock()
}

// Run serves the port until the termination event fires. Wait
// primitive failures other than a remote close are not survivable;
// the serving goroutine panics rather than limp on with a broken
// port.
func (s *Server) Run() error {
	port, err := s.ports.CreatePort(PortName, 1)
	if err != nil {
		return errors.Wrap(err, "registering err:f")
	}

	defer s.ports.Remove(PortName)
	defer port.Close()

	var (
		session     *ipc.Session
		replyTarget *ipc.Session
		cmd         ipc.CmdBuf
	)

	for {
		if replyTarget == nil {
			cmd[0] = ipc.HeaderNoReply
		}

		handles := []ipc.Waitable{s.term, port, nil}
		if session != nil {
			handles[2] = session
		}

		idx, res := ipc.ReplyAndReceive(handles, &cmd, replyTarget)
		replyTarget = nil

		if res.Failed() {
			if res != kernel.ResultSessionClosed {
				s.l.Error("wait failed", "result", res)
				panic("errf: reply and receive failed")
			}

			// Remote hung up; recycle the slot for the next client.
			session.Close()
			session = nil
			continue
		}

		switch idx {
		case 0:
			if session != nil {
				session.Close()
			}
			return nil

		case 1:
			incoming, res := port.AcceptSession()
			if res.Failed() {
				s.l.Error("accept failed", "result", res)
				panic("errf: accept failed")
			}

			if session != nil {
				// One client at a time.
				incoming.Close()
				continue
			}

			session = incoming
			session.SetStaticBuffer(0, s.staticBuf[:])

		case 2:
			s.handleCommand(&cmd)
			replyTarget = session
		}
	}
}

func (s *Server) handleCommand(cmd *ipc.CmdBuf) {
	switch ipc.Command(cmd[0]) {
	case CmdThrow:
		s.throw(cmd)

	case CmdSetUserString:
		s.setUserStringCmd(cmd)

	default:
		s.l.Warn("unknown command", "header", hclog.Fmt("%#x", cmd[0]))
		cmd[0] = ipc.MakeHeader(0, 1, 0)
		cmd[1] = uint32(ResultInvalidCommand)
	}
}

func (s *Server) throw(cmd *ipc.CmdBuf) {
	var info FatalErrInfo
	if err := info.decode(cmd); err != nil {
		s.l.Error("undecodable record", "error", err)
		cmd[0] = ipc.MakeHeader(0, 1, 0)
		cmd[1] = uint32(ResultInvalidCommand)
		return
	}

	s.l.Info("fatal error thrown",
		"type", errTypeName(info.Type),
		"pid", info.ProcID,
		"result", hclog.Fmt("%#x", info.ResCode))

	// Logged errors from a live process are recorded but not shown.
	if info.Type != ErrTypeLogged || info.ProcID == 0 {
		s.display.Show(s.UserString(), Format(&info, s.processDescription))

		if !s.disablePrompt {
			s.display.WaitAck()
		}
	}

	cmd[0] = ipc.MakeHeader(CmdThrow, 1, 0)
	cmd[1] = uint32(kernel.ResultSuccess)
}

func (s *Server) setUserStringCmd(cmd *ipc.CmdBuf) {
	if cmd[0] != ipc.MakeHeader(CmdSetUserString, 1, 2) ||
		!ipc.IsStaticBufferDesc(cmd[2]) {
		cmd[0] = ipc.MakeHeader(0, 1, 0)
		cmd[1] = uint32(ResultInvalidCommand)
		return
	}

	size := cmd[1]
	if size > UserStringMax {
		size = UserStringMax
	}

	s.setUserString(s.staticBuf[:size])

	cmd[0] = ipc.MakeHeader(CmdSetUserString, 1, 0)
	cmd[1] = uint32(kernel.ResultSuccess)
}

// processDescription resolves a thrower's pid to its name and title
// id, caching hits so repeated reports from the same process skip the
// registry walk.
func (s *Server) processDescription(pid uint32) (string, uint64, bool) {
	type desc struct {
		name  string
		title uint64
	}

	if v, ok := s.names.Get(pid); ok {
		d := v.(desc)
		return d.name, d.title, true
	}

	proc, ok := s.k.Processes().Find(pid)
	if !ok {
		return "", 0, false
	}

	d := desc{name: proc.Name, title: proc.TitleID}
	s.names.Add(pid, d)

	return d.name, d.title, true
}
