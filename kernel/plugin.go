package kernel

import "sync/atomic"

type PluginStatus int32

const (
	PluginNotLoaded PluginStatus = iota
	PluginLoaded
	PluginRunning
)

// Plugin tracks the diagnostic plugin subsystem: the exit hook signals
// its exit event when a watched process terminates.
type Plugin struct {
	status int32
	exit   *Event
}

func (pl *Plugin) Status() PluginStatus {
	return PluginStatus(atomic.LoadInt32(&pl.status))
}

func (pl *Plugin) SetStatus(s PluginStatus) {
	atomic.StoreInt32(&pl.status, int32(s))
}

func (pl *Plugin) ExitEvent() *Event {
	return pl.exit
}

func (pl *Plugin) SignalExit() {
	pl.exit.Signal()
}
