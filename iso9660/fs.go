package iso9660

import (
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/lvdlvd/isocat/fsys"
)

// FS presents an image as an fs.FS. Names are display names with the
// version suffix removed; when several records share a name the first one
// recorded wins.
type FS struct {
	img *Image
	vol *Volume
}

var (
	_ fsys.FS           = (*FS)(nil)
	_ fsys.ExtentMapper = (*FS)(nil)
)

// NewFS parses the volume descriptor of img and returns its file tree.
func NewFS(img *Image) (*FS, error) {
	vol, err := img.ParseVolume()
	if err != nil {
		return nil, err
	}
	return &FS{img: img, vol: vol}, nil
}

// Type implements fsys.FS.
func (f *FS) Type() string { return "ISO 9660" }

// Volume returns the parsed primary volume descriptor.
func (f *FS) Volume() *Volume { return f.vol }

// BaseReader returns the image the extents of FileExtents refer to.
func (f *FS) BaseReader() io.ReaderAt { return f.img }

// lookup walks name, a valid fs path, from the root.
func (f *FS) lookup(op, name string) (Entry, error) {
	if !fs.ValidPath(name) {
		return Entry{}, &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}
	e := f.vol.Root
	if name == "." {
		return e, nil
	}
	for _, c := range strings.Split(name, "/") {
		var err error
		if e, err = f.img.ResolveEntry(e, c); err != nil {
			return Entry{}, &fs.PathError{Op: op, Path: name, Err: err}
		}
	}
	return e, nil
}

// Open implements fs.FS.
func (f *FS) Open(name string) (fs.File, error) {
	e, err := f.lookup("open", name)
	if err != nil {
		return nil, err
	}
	info := fileInfo{name: path.Base(name), e: e}
	if e.IsDir() {
		return &dirFile{fs: f, info: info}, nil
	}
	exts, err := f.img.Extents(e)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	r := fsys.NewExtentReaderAt(f.img, exts, e.Size)
	return &file{SectionReader: io.NewSectionReader(r, 0, e.Size), info: info}, nil
}

// Stat implements fs.StatFS.
func (f *FS) Stat(name string) (fs.FileInfo, error) {
	e, err := f.lookup("stat", name)
	if err != nil {
		return nil, err
	}
	return fileInfo{name: path.Base(name), e: e}, nil
}

// ReadDir implements fs.ReadDirFS. Entries are sorted by name and do not
// include "." and "..".
func (f *FS) ReadDir(name string) ([]fs.DirEntry, error) {
	e, err := f.lookup("readdir", name)
	if err != nil {
		return nil, err
	}
	list, err := f.list(e)
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: err}
	}
	return list, nil
}

// FileExtents implements fsys.ExtentMapper.
func (f *FS) FileExtents(name string) ([]fsys.Extent, error) {
	e, err := f.lookup("extents", name)
	if err != nil {
		return nil, err
	}
	if e.IsDir() {
		return nil, &fs.PathError{Op: "extents", Path: name, Err: ErrIsADirectory}
	}
	exts, err := f.img.Extents(e)
	if err != nil {
		return nil, &fs.PathError{Op: "extents", Path: name, Err: err}
	}
	return exts, nil
}

func (f *FS) list(dir Entry) ([]fs.DirEntry, error) {
	if !dir.IsDir() {
		return nil, errors.Wrapf(ErrNotFound, "%q is not a directory", dir.Name())
	}
	entries, err := f.img.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(entries))
	out := make([]fs.DirEntry, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsSelf() || e.IsParent() || seen[name] || !fs.ValidPath(name) {
			continue
		}
		seen[name] = true
		out = append(out, fs.FileInfoToDirEntry(fileInfo{name: name, e: e}))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

type fileInfo struct {
	name string
	e    Entry
}

var _ fsys.FileInfo = fileInfo{}

func (fi fileInfo) Name() string       { return fi.name }
func (fi fileInfo) Size() int64        { return fi.e.Size }
func (fi fileInfo) ModTime() time.Time { return fi.e.Recorded }
func (fi fileInfo) IsDir() bool        { return fi.e.IsDir() }
func (fi fileInfo) Sys() any           { return fi.e }
func (fi fileInfo) Inode() uint64      { return uint64(fi.e.Block) }

func (fi fileInfo) Mode() fs.FileMode {
	if fi.e.IsDir() {
		return fs.ModeDir | 0o555
	}
	return 0o444
}

type file struct {
	*io.SectionReader
	info fileInfo
}

func (f *file) Stat() (fs.FileInfo, error) { return f.info, nil }
func (f *file) Close() error               { return nil }

type dirFile struct {
	fs   *FS
	info fileInfo

	entries []fs.DirEntry
	read    bool
	off     int
}

func (d *dirFile) Stat() (fs.FileInfo, error) { return d.info, nil }
func (d *dirFile) Close() error               { return nil }

func (d *dirFile) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.info.name, Err: ErrIsADirectory}
}

// ReadDir implements fs.ReadDirFile.
func (d *dirFile) ReadDir(n int) ([]fs.DirEntry, error) {
	if !d.read {
		list, err := d.fs.list(d.info.e)
		if err != nil {
			return nil, &fs.PathError{Op: "readdir", Path: d.info.name, Err: err}
		}
		d.entries, d.read = list, true
	}
	rest := d.entries[d.off:]
	if n <= 0 {
		d.off = len(d.entries)
		return rest, nil
	}
	if len(rest) == 0 {
		return nil, io.EOF
	}
	if n > len(rest) {
		n = len(rest)
	}
	d.off += n
	return rest[:n], nil
}
