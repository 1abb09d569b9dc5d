package loader

import (
	"encoding/base64"
	"encoding/binary"
	"io"
	"os"

	"github.com/Binject/debug/elf"
	"golang.org/x/crypto/blake2b"

	"github.com/cooolgamer/CustomLuma3DS/kernel"
	"github.com/cooolgamer/CustomLuma3DS/log"
	"github.com/cooolgamer/CustomLuma3DS/svc"
	hclog "github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

const (
	svcTableSymbol = "svcTable"
	versionSymbol  = "kernelVersion"
)

var (
	ErrImageDigest = errors.New("kernel image digest mismatch")
	ErrNoSvcTable  = errors.New("kernel image has no svc table symbol")
)

// Image is a parsed kernel image: the official dispatch addresses and
// the kernel version baked into it.
type Image struct {
	Digest  string
	Version kernel.Version

	addrs [svc.MaxOfficial + 1]uint32
}

func NewLoader() *Loader {
	return &Loader{L: hclog.L()}
}

type Loader struct {
	L hclog.Logger

	// PinnedDigest, when set, is the only image digest the loader
	// accepts. Exactly one image is ever patched per release.
	PinnedDigest string
}

func (l *Loader) LoadFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	defer f.Close()

	return l.Load(f)
}

func (l *Loader) Load(r io.ReaderAt) (*Image, error) {
	digest, err := l.digest(r)
	if err != nil {
		return nil, err
	}

	if l.PinnedDigest != "" && digest != l.PinnedDigest {
		return nil, errors.Wrapf(ErrImageDigest, "got %s", digest)
	}

	ef, err := elf.NewFile(r)
	if err != nil {
		return nil, errors.Wrap(err, "parsing kernel image")
	}

	img := &Image{Digest: digest}

	syms, err := ef.Symbols()
	if err != nil {
		return nil, errors.Wrap(err, "reading kernel image symbols")
	}

	var found bool

	for _, sym := range syms {
		switch sym.Name {
		case svcTableSymbol:
			if err := l.readTable(ef, sym, img); err != nil {
				return nil, err
			}

			found = true

		case versionSymbol:
			word, err := readWord(ef, sym)
			if err != nil {
				return nil, err
			}

			img.Version = kernel.VersionFromWord(word)
		}
	}

	if !found {
		return nil, ErrNoSvcTable
	}

	log.L.Debug("kernel image loaded",
		"digest", digest, "version", img.Version.Word())

	return img, nil
}

func (l *Loader) digest(r io.ReaderAt) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(h, io.NewSectionReader(r, 0, 1<<30)); err != nil {
		return "", err
	}

	return base64.URLEncoding.EncodeToString(h.Sum(nil)), nil
}

// readTable pulls the dispatch-table words out of the symbol's
// section.
func (l *Loader) readTable(ef *elf.File, sym elf.Symbol, img *Image) error {
	raw, err := readSymbol(ef, sym)
	if err != nil {
		return err
	}

	n := len(raw) / 4
	if n > len(img.addrs) {
		n = len(img.addrs)
	}

	for i := 0; i < n; i++ {
		img.addrs[i] = binary.LittleEndian.Uint32(raw[4*i:])
	}

	return nil
}

func readWord(ef *elf.File, sym elf.Symbol) (uint32, error) {
	raw, err := readSymbol(ef, sym)
	if err != nil {
		return 0, err
	}

	if len(raw) < 4 {
		return 0, errors.Errorf("symbol %s too small", sym.Name)
	}

	return binary.LittleEndian.Uint32(raw), nil
}

func readSymbol(ef *elf.File, sym elf.Symbol) ([]byte, error) {
	if int(sym.Section) >= len(ef.Sections) {
		return nil, errors.Errorf("symbol %s has no section", sym.Name)
	}

	sec := ef.Sections[sym.Section]

	off := sym.Value - sec.Addr
	if off+sym.Size > sec.Size {
		return nil, errors.Errorf("symbol %s outside its section", sym.Name)
	}

	raw := make([]byte, sym.Size)
	if _, err := sec.ReadAt(raw, int64(off)); err != nil {
		return nil, errors.Wrapf(err, "reading symbol %s", sym.Name)
	}

	return raw, nil
}

// Apply installs the image's dispatch addresses on the official set.
// Call before the set freezes.
func (img *Image) Apply(set *svc.OfficialSet) {
	for id, addr := range img.addrs {
		if addr != 0 {
			set.SetAddress(svc.ID(id), addr)
		}
	}
}
