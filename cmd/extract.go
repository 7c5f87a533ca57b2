package cmd

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/lvdlvd/isocat/fsys"
)

// Extract copies the whole tree of filesystem into dir. File data is
// streamed from the image when the filesystem can map extents.
func Extract(filesystem fsys.FS, dir string, log logrus.FieldLogger) error {
	return fs.WalkDir(filesystem, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		dst := filepath.Join(dir, filepath.FromSlash(p))
		if d.IsDir() {
			return os.MkdirAll(dst, 0o755)
		}
		log.WithField("path", p).Debug("extracting")
		return extractFile(filesystem, p, dst)
	})
}

func extractFile(filesystem fsys.FS, p, dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	info, err := fs.Stat(filesystem, p)
	if err != nil {
		return err
	}

	if em, ok := filesystem.(fsys.ExtentMapper); ok {
		if br, ok := filesystem.(interface{ BaseReader() io.ReaderAt }); ok {
			extents, err := em.FileExtents(p)
			if err != nil {
				return err
			}
			r := fsys.NewExtentReaderAt(br.BaseReader(), extents, info.Size())
			if err := streamFromReaderAt(r, info.Size(), out); err != nil {
				return err
			}
			return out.Close()
		}
	}

	in, err := filesystem.Open(p)
	if err != nil {
		return err
	}
	defer in.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
