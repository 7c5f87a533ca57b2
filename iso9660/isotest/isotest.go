// Package isotest builds small ISO 9660 images in memory for tests.
//
// Blocks are placed explicitly, so a test knows the absolute offset of every
// structure and can corrupt it with Poke.
package isotest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"
)

const BlockSize = 2048

// Record flag bits.
const (
	Hidden      = 1 << 0
	Directory   = 1 << 1
	MultiExtent = 1 << 7
)

// Record describes one directory record.
type Record struct {
	Name     string // raw identifier; "\x00" and "\x01" for the pseudo-records
	Block    uint32
	Size     uint32
	Flags    uint8
	Recorded time.Time // zero leaves the date unset
}

// Self and Parent return the 0x00 and 0x01 pseudo-records.
func Self(block, size uint32) Record {
	return Record{Name: "\x00", Block: block, Size: size, Flags: Directory}
}

func Parent(block, size uint32) Record {
	return Record{Name: "\x01", Block: block, Size: size, Flags: Directory}
}

// Len returns the encoded record length, padded to even.
func (r Record) Len() int {
	n := 33 + len(r.Name)
	return n + n%2
}

// Encode returns the record bytes.
func (r Record) Encode() []byte {
	b := make([]byte, r.Len())
	b[0] = byte(len(b))
	putBoth32(b[2:], r.Block)
	putBoth32(b[10:], r.Size)
	if !r.Recorded.IsZero() {
		t := r.Recorded.UTC()
		copy(b[18:25], []byte{byte(t.Year() - 1900), byte(t.Month()), byte(t.Day()),
			byte(t.Hour()), byte(t.Minute()), byte(t.Second()), 0})
	}
	b[25] = r.Flags
	putBoth16(b[28:], 1)
	b[32] = byte(len(r.Name))
	copy(b[33:], r.Name)
	return b
}

// PVD describes the primary volume descriptor.
type PVD struct {
	SystemID  string
	VolumeID  string
	Publisher string
	Created   time.Time
	Root      Record
}

// Builder assembles an image.
type Builder struct {
	data []byte
}

// New returns a zeroed image of the given number of blocks.
func New(blocks int) *Builder {
	return &Builder{data: make([]byte, blocks*BlockSize)}
}

// Bytes returns the image.
func (b *Builder) Bytes() []byte { return b.data }

// Poke overwrites bytes at an absolute offset.
func (b *Builder) Poke(off int, p ...byte) {
	copy(b.data[off:], p)
}

// Data writes file content at block.
func (b *Builder) Data(block uint32, p []byte) {
	copy(b.data[int(block)*BlockSize:], p)
}

// Descriptor writes a bare volume descriptor of type typ at block.
func (b *Builder) Descriptor(block uint32, typ byte) {
	d := b.data[int(block)*BlockSize:]
	d[0] = typ
	copy(d[1:6], "CD001")
	d[6] = 1
}

// Primary writes the primary volume descriptor at block 16 and a set
// terminator at block 17.
func (b *Builder) Primary(p PVD) {
	b.Descriptor(16, 1)
	d := b.data[16*BlockSize : 17*BlockSize]
	padded(d[8:40], p.SystemID)
	padded(d[40:72], p.VolumeID)
	putBoth32(d[80:], uint32(len(b.data)/BlockSize))
	putBoth16(d[120:], 1)
	putBoth16(d[124:], 1)
	putBoth16(d[128:], BlockSize)
	putBoth32(d[132:], 10)
	binary.LittleEndian.PutUint32(d[140:], 18)
	binary.BigEndian.PutUint32(d[148:], 19)
	copy(d[156:190], p.Root.Encode())
	padded(d[190:318], "")
	padded(d[318:446], p.Publisher)
	padded(d[446:813], "")
	copy(d[813:830], volumeDate(p.Created))
	copy(d[830:847], volumeDate(p.Created))
	copy(d[847:864], volumeDate(time.Time{}))
	copy(d[864:881], volumeDate(time.Time{}))
	d[881] = 1

	b.Descriptor(17, 255)
}

// Dir writes a directory extent of size bytes at block holding recs. A
// record that would cross a block boundary starts the next block. Dir
// returns the absolute offset of each record.
func (b *Builder) Dir(block, size uint32, recs ...Record) []int {
	base := int(block) * BlockSize
	offs := make([]int, len(recs))
	pos := 0
	for i, r := range recs {
		enc := r.Encode()
		if pos/BlockSize != (pos+len(enc)-1)/BlockSize {
			pos = (pos/BlockSize + 1) * BlockSize
		}
		if pos+len(enc) > int(size) {
			panic(fmt.Sprintf("isotest: directory at block %d overflows %d bytes", block, size))
		}
		copy(b.data[base+pos:], enc)
		offs[i] = base + pos
		pos += len(enc)
	}
	return offs
}

func putBoth16(b []byte, v uint16) {
	binary.LittleEndian.PutUint16(b[0:], v)
	binary.BigEndian.PutUint16(b[2:], v)
}

func putBoth32(b []byte, v uint32) {
	binary.LittleEndian.PutUint32(b[0:], v)
	binary.BigEndian.PutUint32(b[4:], v)
}

func padded(dst []byte, s string) {
	copy(dst, bytes.Repeat([]byte{' '}, len(dst)))
	copy(dst, s)
}

func volumeDate(t time.Time) []byte {
	if t.IsZero() {
		return append([]byte("0000000000000000"), 0)
	}
	t = t.UTC()
	s := fmt.Sprintf("%04d%02d%02d%02d%02d%02d%02d", t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/int(10*time.Millisecond))
	return append([]byte(s), 0)
}
