package iso9660

import (
	"fmt"
	"io/fs"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidFormat is returned when the image is not a readable ISO 9660
	// volume: the standard identifier is wrong, the image is too short to
	// hold a volume descriptor, or no primary volume descriptor exists.
	ErrInvalidFormat = errors.New("invalid ISO 9660 image")

	// ErrCorruptDirectory is returned when a directory record's length is
	// inconsistent with its extent or with its own name length.
	ErrCorruptDirectory = errors.New("corrupt directory record")

	// ErrNotFound is returned when no entry matches a name. It wraps
	// fs.ErrNotExist.
	ErrNotFound = errors.Wrap(fs.ErrNotExist, "not found")

	// ErrIsADirectory is returned when file data is requested for a directory.
	ErrIsADirectory = errors.New("is a directory")

	// ErrOutOfBounds is returned when an extent ends past the end of the image.
	ErrOutOfBounds = errors.New("extent outside image")
)

// corruptf wraps kind with the absolute offset of the offending structure.
func corruptf(kind error, off int64, format string, args ...interface{}) error {
	return errors.Wrapf(kind, "at offset %d: %s", off, fmt.Sprintf(format, args...))
}
