package iso9660

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/charmap"
)

// bothEndian16 decodes a 4-byte field holding a 16-bit value little-endian
// then big-endian. It returns the little-endian copy and whether the
// big-endian copy agrees with it.
func bothEndian16(b []byte) (uint16, bool) {
	le := binary.LittleEndian.Uint16(b[0:2])
	be := binary.BigEndian.Uint16(b[2:4])
	return le, le == be
}

// bothEndian32 is the 8-byte, 32-bit counterpart of bothEndian16.
func bothEndian32(b []byte) (uint32, bool) {
	le := binary.LittleEndian.Uint32(b[0:4])
	be := binary.BigEndian.Uint32(b[4:8])
	return le, le == be
}

// le32 and be32 decode the single-endian path table locations.
func le32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }
func be32(b []byte) uint32 { return binary.BigEndian.Uint32(b) }

// checkEndian reports a dual-endian mismatch. In strict mode it returns kind
// wrapped with the field and offset; otherwise it logs and returns nil.
func (img *Image) checkEndian(ok bool, kind error, field string, off int64) error {
	if ok {
		return nil
	}
	if img.strict {
		return errors.Wrapf(kind, "%s at offset %d: little- and big-endian copies differ", field, off)
	}
	img.log.WithFields(logrus.Fields{
		"field":  field,
		"offset": off,
	}).Warn("little- and big-endian copies differ, using little-endian")
	return nil
}

// fieldText returns a fixed-width character field as-is, padding included.
// Bytes are taken as single-byte characters.
func fieldText(b []byte) string {
	return string(b)
}

var latin1 = charmap.ISO8859_1.NewDecoder()

// displayText converts single-byte characters to UTF-8 for display.
// ISO 9660 d-characters are ASCII, for which this is the identity.
func displayText(b []byte) string {
	ascii := true
	for _, c := range b {
		if c >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b)
	}
	out, err := latin1.Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// gmtOffset converts an ISO 9660 offset byte, a signed count of 15 minute
// intervals, to a fixed zone.
func gmtOffset(b byte) *time.Location {
	off := int(int8(b)) * 15 * 60
	if off == 0 {
		return time.UTC
	}
	return time.FixedZone("", off)
}

// recordTime decodes the 7-byte directory record date: years since 1900,
// month, day, hour, minute, second, GMT offset. All-zero fields mean the
// date is not recorded and yield the zero Time.
func recordTime(b []byte) time.Time {
	if b[0] == 0 && b[1] == 0 && b[2] == 0 {
		return time.Time{}
	}
	return time.Date(1900+int(b[0]), time.Month(b[1]), int(b[2]),
		int(b[3]), int(b[4]), int(b[5]), 0, gmtOffset(b[6]))
}

// volumeTime decodes the 17-byte volume descriptor date: sixteen ASCII
// digits (YYYYMMDDHHMMSScc) followed by a GMT offset byte. An unset or
// malformed date yields the zero Time.
func volumeTime(b []byte) time.Time {
	digits := b[:16]
	n := func(from, to int) (int, bool) {
		v, err := strconv.Atoi(string(digits[from:to]))
		return v, err == nil
	}
	year, ok := n(0, 4)
	if !ok || year == 0 {
		return time.Time{}
	}
	var f [6]int
	for i, r := range [][2]int{{4, 6}, {6, 8}, {8, 10}, {10, 12}, {12, 14}, {14, 16}} {
		if f[i], ok = n(r[0], r[1]); !ok {
			return time.Time{}
		}
	}
	return time.Date(year, time.Month(f[0]), f[1], f[2], f[3], f[4],
		f[5]*int(10*time.Millisecond), gmtOffset(b[16]))
}
