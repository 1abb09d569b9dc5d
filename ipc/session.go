package ipc

import (
	"sync"

	"github.com/cooolgamer/CustomLuma3DS/kernel"
	"github.com/cooolgamer/CustomLuma3DS/pkg/waiter"
)

const (
	_ waiter.EventType = iota
	sessionReadable
)

// Message is one in-flight request: the command words plus an
// optional payload carried through the static-buffer mechanism.
type Message struct {
	Cmd    CmdBuf
	Static []byte
}

// Session is the server end of a bound bidirectional channel.
type Session struct {
	mu sync.Mutex

	pending      *Message
	reply        chan CmdBuf
	clientClosed bool
	serverClosed bool

	// release returns the session's slot to the owning port; fires
	// once, when the server end closes.
	release func()

	// static buffers registered by the serving thread; incoming
	// payloads land in slot 0.
	static [][]byte

	waiters waiter.Waiter
}

func newSession() *Session {
	return &Session{
		reply:  make(chan CmdBuf, 1),
		static: make([][]byte, 2),
	}
}

// SetStaticBuffer registers the receive buffer for static-buffer
// translate parameters.
func (s *Session) SetStaticBuffer(index int, buf []byte) {
	s.mu.Lock()
	s.static[index] = buf
	s.mu.Unlock()
}

// Ready reports a pending request or a remote close; either wakes a
// multi-object wait.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pending != nil || s.clientClosed
}

func (s *Session) RegisterChannel(c chan struct{}) *waiter.Event {
	return s.waiters.RegisterChannel(sessionReadable, c)
}

func (s *Session) Unregister(e *waiter.Event) {
	s.waiters.Unregister(e)
}

// receive pops the pending request into cmd, copying any payload into
// the registered static buffer. Second return distinguishes "nothing
// pending" from "remote closed".
func (s *Session) receive(cmd *CmdBuf) (bool, kernel.Result) {
	s.mu.Lock()

	if s.pending == nil {
		closed := s.clientClosed
		s.mu.Unlock()

		if closed {
			return false, kernel.ResultSessionClosed
		}

		return false, kernel.ResultSuccess
	}

	msg := s.pending
	s.pending = nil

	if msg.Static != nil && s.static[0] != nil {
		copy(s.static[0], msg.Static)
	}

	s.mu.Unlock()

	*cmd = msg.Cmd

	return true, kernel.ResultSuccess
}

// sendReply delivers the server's reply; a vanished client just drops
// it.
func (s *Session) sendReply(cmd CmdBuf) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.serverClosed {
		return
	}

	select {
	case s.reply <- cmd:
	default:
	}
}

// Close tears down the server end. A client blocked on a reply is
// released with a session-closed result.
func (s *Session) Close() {
	s.mu.Lock()
	released := false
	if !s.serverClosed {
		s.serverClosed = true
		close(s.reply)
		released = true
	}
	s.mu.Unlock()

	if released && s.release != nil {
		s.release()
	}

	s.waiters.Notify(sessionReadable)
}

// ClientSession is the client end of a session.
type ClientSession struct {
	s *Session
}

// SendSyncRequest delivers one request and blocks for the reply.
// staticPayload, if non-nil, travels through the receiver's static
// buffer.
func (c *ClientSession) SendSyncRequest(cmd *CmdBuf, staticPayload []byte) kernel.Result {
	s := c.s

	s.mu.Lock()
	if s.serverClosed {
		s.mu.Unlock()
		return kernel.ResultSessionClosed
	}

	if s.pending != nil {
		s.mu.Unlock()
		return kernel.ResultBusy
	}

	s.pending = &Message{Cmd: *cmd, Static: staticPayload}
	s.mu.Unlock()

	s.waiters.Notify(sessionReadable)

	reply, ok := <-s.reply
	if !ok {
		return kernel.ResultSessionClosed
	}

	*cmd = reply

	return kernel.ResultSuccess
}

// Close closes the remote end; the server observes it as a
// session-closed wait result.
func (c *ClientSession) Close() {
	s := c.s

	s.mu.Lock()
	if s.clientClosed {
		s.mu.Unlock()
		return
	}
	s.clientClosed = true
	s.mu.Unlock()

	s.waiters.Notify(sessionReadable)
}
