package kernel

import "sync/atomic"

// CacheMaintenance is the interface to the console's cache
// instructions. Only the semantics matter here: each call is a
// full-system barrier that must complete before the privileged call
// returns.
type CacheMaintenance interface {
	InvalidateInstructionCache()
	InvalidateInstructionCacheRange(addr, size uint32)
	FlushDataCache()
	FlushDataCacheRange(addr, size uint32)
}

// BarrierCache is the host implementation: atomic counters double as
// the ordering barrier and let tests assert the maintenance ran.
type BarrierCache struct {
	icacheInvalidations uint64
	dcacheFlushes       uint64
}

func (c *BarrierCache) InvalidateInstructionCache() {
	atomic.AddUint64(&c.icacheInvalidations, 1)
}

func (c *BarrierCache) InvalidateInstructionCacheRange(addr, size uint32) {
	atomic.AddUint64(&c.icacheInvalidations, 1)
}

func (c *BarrierCache) FlushDataCache() {
	atomic.AddUint64(&c.dcacheFlushes, 1)
}

func (c *BarrierCache) FlushDataCacheRange(addr, size uint32) {
	atomic.AddUint64(&c.dcacheFlushes, 1)
}

func (c *BarrierCache) ICacheInvalidations() uint64 {
	return atomic.LoadUint64(&c.icacheInvalidations)
}

func (c *BarrierCache) DCacheFlushes() uint64 {
	return atomic.LoadUint64(&c.dcacheFlushes)
}
