package ipc

import (
	"sync"

	"github.com/cooolgamer/CustomLuma3DS/kernel"
	"github.com/cooolgamer/CustomLuma3DS/pkg/waiter"
	"github.com/pkg/errors"
)

const (
	_ waiter.EventType = iota + 16
	portReadable
)

const portBacklog = 8

var ErrPortExists = errors.New("port name already registered")

// Port is a named server endpoint. Connections queue until the
// serving thread accepts them.
type Port struct {
	Name string

	mu          sync.Mutex
	maxSessions int
	live        int
	backlog     []*Session
	closed      bool

	waiters waiter.Waiter
}

// PortName exposes the registered name to handle introspection.
func (p *Port) PortName() string {
	return p.Name
}

// connect creates a session pair and queues the server end. A session
// counts against the port's limit from here until its server end
// closes.
func (p *Port) connect() (*ClientSession, kernel.Result) {
	p.mu.Lock()
	if p.closed || len(p.backlog) >= portBacklog {
		p.mu.Unlock()
		return nil, kernel.ResultBusy
	}

	if p.maxSessions > 0 && p.live >= p.maxSessions {
		p.mu.Unlock()
		return nil, kernel.ResultBusy
	}

	s := newSession()
	s.release = p.releaseSession

	p.live++
	p.backlog = append(p.backlog, s)
	p.mu.Unlock()

	p.waiters.Notify(portReadable)

	return &ClientSession{s: s}, kernel.ResultSuccess
}

func (p *Port) releaseSession() {
	p.mu.Lock()
	p.live--
	p.mu.Unlock()
}

// AcceptSession pops a queued connection.
func (p *Port) AcceptSession() (*Session, kernel.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.backlog) == 0 {
		return nil, kernel.ResultNotFound
	}

	s := p.backlog[0]
	p.backlog = p.backlog[1:]

	return s, kernel.ResultSuccess
}

func (p *Port) Ready() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.backlog) > 0
}

func (p *Port) RegisterChannel(c chan struct{}) *waiter.Event {
	return p.waiters.RegisterChannel(portReadable, c)
}

func (p *Port) Unregister(e *waiter.Event) {
	p.waiters.Unregister(e)
}

func (p *Port) Close() {
	p.mu.Lock()
	p.closed = true
	backlog := p.backlog
	p.backlog = nil
	p.mu.Unlock()

	for _, s := range backlog {
		s.Close()
	}
}

// Registry is the kernel's port namespace.
type Registry struct {
	mu    sync.Mutex
	ports map[string]*Port
}

func NewRegistry() *Registry {
	return &Registry{
		ports: make(map[string]*Port),
	}
}

func (r *Registry) CreatePort(name string, maxSessions int) (*Port, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ports[name]; ok {
		return nil, errors.Wrap(ErrPortExists, name)
	}

	p := &Port{
		Name:        name,
		maxSessions: maxSessions,
	}

	r.ports[name] = p

	return p, nil
}

func (r *Registry) Remove(name string) {
	r.mu.Lock()
	delete(r.ports, name)
	r.mu.Unlock()
}

// Connect opens a client session to a named port.
func (r *Registry) Connect(name string) (*ClientSession, kernel.Result) {
	r.mu.Lock()
	p, ok := r.ports[name]
	r.mu.Unlock()

	if !ok {
		return nil, kernel.ResultNotFound
	}

	return p.connect()
}
