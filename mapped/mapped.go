// Package mapped gives read-only access to the bytes of an image file.
//
// On unix systems the file is memory mapped; elsewhere, or when asked, it
// is read into memory. Either way the bytes stay valid until Close.
package mapped

import (
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
)

var errNoMmap = errors.New("mmap not supported")

// File is an image file held as a byte slice.
type File struct {
	data   []byte
	f      *os.File
	unmap  func([]byte) error
	closed bool
}

// Open maps the file at path, falling back to Load where mapping is not
// available.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, errors.Errorf("%s: not a regular file", path)
	}
	if info.Size() == 0 {
		f.Close()
		return &File{data: []byte{}}, nil
	}
	if err := checkSize(path, info.Size()); err != nil {
		f.Close()
		return nil, err
	}
	m, err := mmap(f, info.Size())
	if err == errNoMmap {
		defer f.Close()
		return read(f, info.Size())
	}
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "mapping %s", path)
	}
	return m, nil
}

// Load reads the whole file at path into memory.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if err := checkSize(path, info.Size()); err != nil {
		return nil, err
	}
	return read(f, info.Size())
}

// checkSize rejects files that do not fit in a slice on this platform.
func checkSize(path string, size int64) error {
	if size > math.MaxInt {
		return errors.Errorf("%s: %d bytes do not fit in memory", path, size)
	}
	return nil
}

func read(f *os.File, size int64) (*File, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, errors.Wrapf(err, "reading %s", f.Name())
	}
	return &File{data: data}, nil
}

// Bytes returns the file content. The slice must not be modified and is
// invalid after Close.
func (m *File) Bytes() []byte { return m.data }

// Len returns the file size.
func (m *File) Len() int64 { return int64(len(m.data)) }

// ReadAt implements io.ReaderAt.
func (m *File) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("mapped: negative offset")
	}
	if off >= m.Len() {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Close releases the mapping and the file. It is safe to call more than
// once.
func (m *File) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	var err error
	if m.unmap != nil {
		err = m.unmap(m.data)
	}
	m.data = nil
	if m.f != nil {
		if cerr := m.f.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
