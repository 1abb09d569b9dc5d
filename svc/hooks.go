package svc

import (
	"github.com/cooolgamer/CustomLuma3DS/ipc"
)

// HookSet carries the dependencies the replacement handlers share:
// the official table they fall through to, the port namespace, and
// the host system-info provider backing the extended queries.
type HookSet struct {
	Official *OfficialSet
	Ports    *ipc.Registry
	Host     HostInfo
}

func NewHookSet(official *OfficialSet, ports *ipc.Registry) *HookSet {
	return &HookSet{
		Official: official,
		Ports:    ports,
		Host:     gopsutilHost{},
	}
}
