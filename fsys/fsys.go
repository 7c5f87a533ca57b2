// Package fsys provides the read-only filesystem interface shared by the
// image readers, and a reader that streams file data straight out of the
// image through its extent map.
package fsys

import (
	"io"
	"io/fs"
	"sort"

	"github.com/pkg/errors"
)

// Extent maps a run of a file's logical offsets onto the image.
type Extent struct {
	Logical  int64 // Offset within the file
	Physical int64 // Offset within the image
	Length   int64 // Length of this extent
}

// End returns one past the last logical offset of the extent.
func (e Extent) End() int64 { return e.Logical + e.Length }

// FS is a read-only filesystem opened from an image.
type FS interface {
	fs.FS
	fs.ReadDirFS
	fs.StatFS

	// Type returns the filesystem type name, e.g. "ISO 9660".
	Type() string
}

// ExtentMapper is implemented by filesystems that can report where a file's
// data lives in the image.
type ExtentMapper interface {
	// FileExtents returns the extents of the file at path, sorted by
	// logical offset. It fails if path does not exist or is a directory.
	FileExtents(path string) ([]Extent, error)
}

// FileInfo is an fs.FileInfo with the image-level identity of the file.
type FileInfo interface {
	fs.FileInfo

	// Inode returns a number identifying the file within the image. For
	// ISO 9660 this is the first block of its data.
	Inode() uint64
}

// ExtentReaderAt reads a file through its extents without loading it.
// Logical ranges not covered by an extent read as zeros.
type ExtentReaderAt struct {
	r       io.ReaderAt
	extents []Extent
	size    int64
}

// NewExtentReaderAt returns a reader for a file of size bytes laid out by
// extents over r.
func NewExtentReaderAt(r io.ReaderAt, extents []Extent, size int64) *ExtentReaderAt {
	sorted := make([]Extent, len(extents))
	copy(sorted, extents)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Logical < sorted[j].Logical
	})
	return &ExtentReaderAt{r: r, extents: sorted, size: size}
}

// Size returns the logical size of the file.
func (e *ExtentReaderAt) Size() int64 {
	return e.size
}

// ReadAt implements io.ReaderAt.
func (e *ExtentReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("fsys: negative offset")
	}
	if off >= e.size {
		return 0, io.EOF
	}
	short := false
	if off+int64(len(p)) > e.size {
		p = p[:e.size-off]
		short = true
	}

	done := 0
	for done < len(p) {
		ext, found := e.find(off)
		if !found {
			// Hole: zero up to the next extent.
			end := e.size
			if i := sort.Search(len(e.extents), func(i int) bool { return e.extents[i].Logical > off }); i < len(e.extents) {
				end = e.extents[i].Logical
			}
			n := int(min(end-off, int64(len(p)-done)))
			clear(p[done : done+n])
			done += n
			off += int64(n)
			continue
		}

		skip := off - ext.Logical
		want := int(min(ext.Length-skip, int64(len(p)-done)))
		n, err := e.r.ReadAt(p[done:done+want], ext.Physical+skip)
		done += n
		off += int64(n)
		if err != nil && err != io.EOF {
			return done, err
		}
		if n < want {
			return done, io.ErrUnexpectedEOF
		}
	}
	if short {
		return done, io.EOF
	}
	return done, nil
}

// find returns the extent holding logical offset off.
func (e *ExtentReaderAt) find(off int64) (Extent, bool) {
	i := sort.Search(len(e.extents), func(i int) bool { return e.extents[i].End() > off })
	if i < len(e.extents) && e.extents[i].Logical <= off {
		return e.extents[i], true
	}
	return Extent{}, false
}
