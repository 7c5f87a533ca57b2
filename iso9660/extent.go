package iso9660

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/lvdlvd/isocat/fsys"
)

// Extents returns the file data of e as image extents, each checked to lie
// inside the image. An entry without Sections is read from Block and Size.
// Sections may not overlap and together may not exceed the image.
func (img *Image) Extents(e Entry) ([]fsys.Extent, error) {
	sections := e.Sections
	if len(sections) == 0 && e.Size > 0 {
		if e.Size > math.MaxUint32 {
			return nil, errors.Wrapf(ErrOutOfBounds, "%q size %d", e.Name(), e.Size)
		}
		sections = []Section{{Block: e.Block, Size: uint32(e.Size)}}
	}

	out := make([]fsys.Extent, 0, len(sections))
	var logical int64
	for _, s := range sections {
		off := int64(s.Block) * BlockSize
		if _, err := img.span(off, int64(s.Size)); err != nil {
			return nil, errors.Wrapf(err, "%q block %d", e.Name(), s.Block)
		}
		if s.Size > 0 {
			out = append(out, fsys.Extent{Logical: logical, Physical: off, Length: int64(s.Size)})
		}
		logical += int64(s.Size)
		if logical > img.Len() {
			return nil, errors.Wrapf(ErrOutOfBounds, "%q: %d bytes of sections in a %d byte image", e.Name(), logical, img.Len())
		}
	}
	if err := checkOverlap(out); err != nil {
		return nil, errors.Wrapf(err, "%q", e.Name())
	}
	return out, nil
}

// checkOverlap fails if two extents share image bytes.
func checkOverlap(exts []fsys.Extent) error {
	if len(exts) < 2 {
		return nil
	}
	byPhys := make([]fsys.Extent, len(exts))
	copy(byPhys, exts)
	sort.Slice(byPhys, func(i, j int) bool { return byPhys[i].Physical < byPhys[j].Physical })
	for i := 1; i < len(byPhys); i++ {
		prev := byPhys[i-1]
		if byPhys[i].Physical < prev.Physical+prev.Length {
			return errors.Wrapf(ErrCorruptDirectory, "sections at %d and %d overlap", prev.Physical, byPhys[i].Physical)
		}
	}
	return nil
}

// ReadExtent returns the data of the file e. When the data is one
// contiguous range of the image the result aliases the image and must not
// be modified; otherwise the sections are copied into a new buffer. A
// zero-length file yields an empty, non-nil slice.
func (img *Image) ReadExtent(e Entry) ([]byte, error) {
	if e.IsDir() {
		return nil, errors.Wrapf(ErrIsADirectory, "%q", e.Name())
	}
	exts, err := img.Extents(e)
	if err != nil {
		return nil, err
	}
	if len(exts) == 0 {
		return []byte{}, nil
	}
	size := exts[len(exts)-1].End()
	if contiguous(exts) {
		return img.span(exts[0].Physical, size)
	}

	buf := make([]byte, size)
	for _, x := range exts {
		b, err := img.span(x.Physical, x.Length)
		if err != nil {
			return nil, err
		}
		copy(buf[x.Logical:], b)
	}
	return buf, nil
}

func contiguous(exts []fsys.Extent) bool {
	for i := 1; i < len(exts); i++ {
		if exts[i].Physical != exts[i-1].Physical+exts[i-1].Length {
			return false
		}
	}
	return true
}
