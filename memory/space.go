package memory

import (
	"sync"

	"github.com/pkg/errors"
)

const PageSize = 0x1000 // (4 KB)

var (
	ErrNotMapped = errors.New("region not mapped")
	ErrOverlap   = errors.New("region overlaps an existing mapping")
)

type Region struct {
	Start, Size uint32
}

func (reg *Region) End() uint32 {
	return reg.Start + reg.Size
}

func (reg *Region) Contains(x uint32) bool {
	if x < reg.Start {
		return false
	}

	if x >= reg.Start+reg.Size {
		return false
	}

	return true
}

func PageRound(sz uint32) uint32 {
	diff := sz % PageSize
	if diff == 0 {
		return sz
	}

	return sz + (PageSize - diff)
}

// AddressSpace tracks the page-granular mappings of one process. It is
// bookkeeping only; backing storage lives with whoever created the
// mapping.
type AddressSpace struct {
	mu sync.Mutex

	regions []*Region
	pages   uint32
}

func NewAddressSpace() *AddressSpace {
	return &AddressSpace{}
}

func (as *AddressSpace) MappedPages() uint32 {
	as.mu.Lock()
	defer as.mu.Unlock()

	return as.pages
}

func (as *AddressSpace) IsMapped(addr uint32) bool {
	as.mu.Lock()
	defer as.mu.Unlock()

	for _, reg := range as.regions {
		if reg.Contains(addr) {
			return true
		}
	}

	return false
}

func (as *AddressSpace) MapPages(addr, pages uint32) error {
	size := pages * PageSize

	as.mu.Lock()
	defer as.mu.Unlock()

	for _, reg := range as.regions {
		if addr < reg.End() && reg.Start < addr+size {
			return errors.Wrapf(ErrOverlap, "at %#x", addr)
		}
	}

	as.regions = append(as.regions, &Region{Start: addr, Size: size})
	as.pages += pages

	return nil
}

// UnmapPages removes [addr, addr+pages*PageSize) from the space. The
// range must lie entirely within one mapped region; the remainder of
// that region, if any, stays mapped.
func (as *AddressSpace) UnmapPages(addr, pages uint32) error {
	size := pages * PageSize
	end := addr + size

	as.mu.Lock()
	defer as.mu.Unlock()

	for i, reg := range as.regions {
		if addr < reg.Start || end > reg.End() {
			continue
		}

		as.regions = append(as.regions[:i], as.regions[i+1:]...)

		if addr > reg.Start {
			as.regions = append(as.regions, &Region{Start: reg.Start, Size: addr - reg.Start})
		}

		if end < reg.End() {
			as.regions = append(as.regions, &Region{Start: end, Size: reg.End() - end})
		}

		as.pages -= pages

		return nil
	}

	return errors.Wrapf(ErrNotMapped, "at %#x", addr)
}
