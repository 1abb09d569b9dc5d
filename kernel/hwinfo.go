package kernel

import (
	"github.com/cooolgamer/CustomLuma3DS/memory"
	"github.com/pkg/errors"
)

// HwInfo is the hardware-facing sub-object of a process: page-table
// bookkeeping the memory hooks delegate to.
type HwInfo struct {
	space *memory.AddressSpace
}

func NewHwInfo() *HwInfo {
	return &HwInfo{
		space: memory.NewAddressSpace(),
	}
}

func (h *HwInfo) Space() *memory.AddressSpace {
	return h.space
}

func (h *HwInfo) MapProcessMemory(addr, pages uint32) Result {
	err := h.space.MapPages(addr, pages)
	if err != nil {
		if errors.Cause(err) == memory.ErrOverlap {
			return ResultInvalidAddress
		}

		return ResultInvalidSize
	}

	return ResultSuccess
}

func (h *HwInfo) UnmapProcessMemory(addr, pages uint32) Result {
	err := h.space.UnmapPages(addr, pages)
	if err != nil {
		return ResultInvalidAddress
	}

	return ResultSuccess
}
