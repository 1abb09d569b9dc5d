package memory

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/vektra/neko"
)

func TestAddressSpace(t *testing.T) {
	n := neko.Modern(t)

	n.It("tracks mapped pages across regions", func(t *testing.T) {
		as := NewAddressSpace()

		require.NoError(t, as.MapPages(0x100000, 4))
		require.NoError(t, as.MapPages(0x200000, 8))

		require.Equal(t, uint32(12), as.MappedPages())
		require.True(t, as.IsMapped(0x100000))
		require.True(t, as.IsMapped(0x203000))
		require.False(t, as.IsMapped(0x104000))
	})

	n.It("refuses overlapping maps", func(t *testing.T) {
		as := NewAddressSpace()

		require.NoError(t, as.MapPages(0x100000, 4))

		err := as.MapPages(0x102000, 4)
		require.Equal(t, ErrOverlap, errors.Cause(err))
	})

	n.It("splits a region when unmapping its middle", func(t *testing.T) {
		as := NewAddressSpace()

		require.NoError(t, as.MapPages(0x100000, 8))
		require.NoError(t, as.UnmapPages(0x102000, 2))

		require.Equal(t, uint32(6), as.MappedPages())
		require.True(t, as.IsMapped(0x100000))
		require.False(t, as.IsMapped(0x102000))
		require.False(t, as.IsMapped(0x103000))
		require.True(t, as.IsMapped(0x104000))
	})

	n.It("refuses to unmap what is not mapped", func(t *testing.T) {
		as := NewAddressSpace()

		require.Error(t, as.UnmapPages(0x100000, 1))

		require.NoError(t, as.MapPages(0x100000, 2))
		require.Error(t, as.UnmapPages(0x100000, 4))
	})

	n.It("rounds byte sizes up to whole pages", func(t *testing.T) {
		require.Equal(t, uint32(0), PageRound(0))
		require.Equal(t, uint32(PageSize), PageRound(1))
		require.Equal(t, uint32(PageSize), PageRound(PageSize))
		require.Equal(t, uint32(2*PageSize), PageRound(PageSize+1))
	})

	n.Meow()
}
