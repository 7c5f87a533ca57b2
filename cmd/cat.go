package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/lvdlvd/isocat/session"
)

// Cat copies the contents of a file to out, streaming it straight from the
// image.
func Cat(s *session.Session, p string, out io.Writer) error {
	r, _, err := s.Open(p)
	if err != nil {
		return err
	}
	return streamFromReaderAt(r, r.Size(), out)
}

// streamFromReaderAt copies data from a ReaderAt to a Writer in chunks
func streamFromReaderAt(r io.ReaderAt, size int64, out io.Writer) error {
	const bufSize = 64 * 1024
	buf := make([]byte, bufSize)
	offset := int64(0)

	for offset < size {
		toRead := int64(bufSize)
		if offset+toRead > size {
			toRead = size - offset
		}

		n, err := r.ReadAt(buf[:toRead], offset)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return werr
			}
			offset += int64(n)
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
	}

	return nil
}

// Get writes the file at p into dir under its ISO name without the
// version suffix, and returns the path written.
func Get(s *session.Session, p, dir string, out io.Writer) (string, error) {
	data, name, err := s.Get(p)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(dir, localName(name))
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", err
	}
	fmt.Fprintf(out, "File %s copied successfully.\n", name)
	return dst, nil
}

// localName makes an ISO name safe to use as a single local path element.
func localName(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, string(filepath.Separator), "_")
	switch name {
	case "", ".", "..":
		return "_"
	}
	return name
}

// Stat shows detailed information about a file or directory.
func Stat(s *session.Session, p string, out io.Writer) error {
	e, err := s.Stat(p)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "    File: %s\n", e.Name())
	fmt.Fprintf(out, "      Id: %q\n", e.Identifier)
	fmt.Fprintf(out, "    Size: %d (%s)\n", e.Size, humanize.IBytes(uint64(e.Size)))
	fmt.Fprintf(out, "   Flags: %s\n", e.Flags)
	fmt.Fprintf(out, "Recorded: %s\n", formatDate(e))
	for i, sec := range e.Sections {
		fmt.Fprintf(out, "  Extent: %d: block %d, %d bytes\n", i, sec.Block, sec.Size)
	}
	if e.ExtAttrLen != 0 {
		fmt.Fprintf(out, "  XAttrs: %d blocks\n", e.ExtAttrLen)
	}
	return nil
}
