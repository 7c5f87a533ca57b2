// Package iso9660 implements read-only access to ISO 9660 (ECMA-119) images.
//
// The image is held as a byte slice that is never modified. Every offset and
// length read from the image is validated against the slice before use, so a
// corrupt or hostile image produces an error instead of a bad read.
package iso9660

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// BlockSize is the size of a logical block. Extent locations are block
// numbers in units of BlockSize.
const BlockSize = 2048

// Image is a read-only ISO 9660 image held in memory.
type Image struct {
	data   []byte
	strict bool
	log    logrus.FieldLogger
}

// Option configures an Image.
type Option func(*Image)

// WithStrict makes a disagreement between the little- and big-endian copies
// of a field an error instead of a logged warning.
func WithStrict(strict bool) Option {
	return func(img *Image) { img.strict = strict }
}

// WithLogger sets the logger used for corruption warnings.
func WithLogger(l logrus.FieldLogger) Option {
	return func(img *Image) {
		if l != nil {
			img.log = l
		}
	}
}

// NewImage wraps data. The caller must not modify data while the Image is
// in use.
func NewImage(data []byte, opts ...Option) *Image {
	img := &Image{data: data, log: discardLogger()}
	for _, opt := range opts {
		opt(img)
	}
	return img
}

// Len returns the size of the image in bytes.
func (img *Image) Len() int64 { return int64(len(img.data)) }

// ReadAt implements io.ReaderAt over the image bytes.
func (img *Image) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("iso9660: negative offset")
	}
	if off >= img.Len() {
		return 0, io.EOF
	}
	n := copy(p, img.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// span returns the n bytes at off, or ErrOutOfBounds if they are not all
// inside the image. The returned slice aliases the image.
func (img *Image) span(off, n int64) ([]byte, error) {
	if off < 0 || n < 0 || off > img.Len() || n > img.Len()-off {
		return nil, errors.Wrapf(ErrOutOfBounds, "range [%d, %d) in %d-byte image", off, off+n, img.Len())
	}
	return img.data[off : off+n : off+n], nil
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
