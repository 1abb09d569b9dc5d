package svc

import (
	"github.com/shirou/gopsutil/v4/mem"
)

// HostInfo answers the extended system-info queries from whatever is
// actually hosting the kernel.
type HostInfo interface {
	MemoryTotal() (uint64, error)
	MemoryUsed() (uint64, error)
}

type gopsutilHost struct{}

func (gopsutilHost) MemoryTotal() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}

	return vm.Total, nil
}

func (gopsutilHost) MemoryUsed() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}

	return vm.Used, nil
}
