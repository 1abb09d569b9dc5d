package ipc

import (
	"github.com/cooolgamer/CustomLuma3DS/kernel"
	"github.com/cooolgamer/CustomLuma3DS/pkg/waiter"
)

// Waitable is anything a multi-object wait can block on: events,
// ports, sessions.
type Waitable interface {
	Ready() bool
	RegisterChannel(c chan struct{}) *waiter.Event
	Unregister(e *waiter.Event)
}

// ReplyAndReceive first delivers reply to replyTarget (when non-nil),
// then blocks until one of handles is ready. Lower indices win ties.
//
// For a ready session the request is copied into cmd; a session whose
// remote end closed yields ResultSessionClosed so the caller can
// recycle the handle. Nil handle slots are skipped, mirroring the
// zero-handle convention of the serving loops.
func ReplyAndReceive(handles []Waitable, cmd *CmdBuf, replyTarget *Session) (int, kernel.Result) {
	if replyTarget != nil {
		replyTarget.sendReply(*cmd)
	}

	c := make(chan struct{}, 1)

	var regs []*waiter.Event
	for _, h := range handles {
		if h == nil {
			regs = append(regs, nil)
			continue
		}

		regs = append(regs, h.RegisterChannel(c))
	}

	defer func() {
		for i, e := range regs {
			if e != nil {
				handles[i].Unregister(e)
			}
		}
	}()

	for {
		for i, h := range handles {
			if h == nil {
				continue
			}

			switch v := h.(type) {
			case *Session:
				got, res := v.receive(cmd)
				if got {
					return i, kernel.ResultSuccess
				}

				if res.Failed() {
					return i, res
				}

			default:
				if h.Ready() {
					return i, kernel.ResultSuccess
				}
			}
		}

		<-c
	}
}

// event readiness adapter so kernel events satisfy Waitable without
// the kernel package knowing about ipc.
var _ Waitable = (*kernel.Event)(nil)
