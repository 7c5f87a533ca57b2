package iso9660

import (
	"github.com/sirupsen/logrus"
)

// Entries iterates over the directory records of one directory extent.
// Use it like a bufio.Scanner:
//
//	it := img.ReadEntries(block, size)
//	for it.Next() {
//		e := it.Entry()
//	}
//	if err := it.Err(); err != nil { ... }
//
// Records are decoded lazily. Multi-extent records are merged into a
// single Entry that keeps FlagMultiExtent set.
type Entries struct {
	img   *Image
	block uint32
	size  int64

	ext     []byte // nil until the first Next
	pos     int64  // offset in ext of the next record
	started bool

	cur     Entry
	pending *Entry // record read ahead while merging a multi-extent chain
	err     error
}

// ReadEntries returns an iterator over the directory extent of size bytes
// starting at block.
func (img *Image) ReadEntries(block uint32, size int64) *Entries {
	return &Entries{img: img, block: block, size: size}
}

// ReadDir returns all entries of the directory dir, in recorded order.
func (img *Image) ReadDir(dir Entry) ([]Entry, error) {
	it := img.ReadEntries(dir.Block, dir.Size)
	var out []Entry
	for it.Next() {
		out = append(out, it.Entry())
	}
	return out, it.Err()
}

// Entry returns the entry produced by the last call to Next.
func (it *Entries) Entry() Entry { return it.cur }

// Err returns the first error encountered, if any.
func (it *Entries) Err() error { return it.err }

// Next advances to the next logical entry. It returns false at the end of
// the directory or on error.
func (it *Entries) Next() bool {
	if it.err != nil {
		return false
	}
	if !it.started {
		it.started = true
		it.ext, it.err = it.img.span(int64(it.block)*BlockSize, it.size)
		if it.err != nil {
			return false
		}
	}

	var e Entry
	if it.pending != nil {
		e, it.pending = *it.pending, nil
	} else {
		var ok bool
		if e, ok = it.record(); !ok {
			return false
		}
	}

	if e.Flags&FlagMultiExtent != 0 {
		e = it.merge(e)
		if it.err != nil {
			return false
		}
	}
	it.cur = e
	return true
}

// merge appends the following records of a multi-extent chain to head.
func (it *Entries) merge(head Entry) Entry {
	last := head
	for last.Flags&FlagMultiExtent != 0 {
		next, ok := it.record()
		if it.err != nil {
			return head
		}
		if !ok || next.Identifier != head.Identifier {
			it.img.log.WithFields(logrus.Fields{
				"name":  head.Name(),
				"block": head.Block,
			}).Warn("multi-extent chain ends without a final record")
			if ok {
				it.pending = &next
			}
			break
		}
		head.Sections = append(head.Sections, next.Sections...)
		head.Size += next.Size
		last = next
	}
	return head
}

// record decodes the next physical record, skipping zero-length padding
// up to block boundaries. It returns false at the end of the extent or on
// error.
func (it *Entries) record() (Entry, bool) {
	for it.pos < it.size {
		n := int64(it.ext[it.pos])
		if n == 0 {
			it.pos = (it.pos/BlockSize + 1) * BlockSize
			continue
		}
		abs := int64(it.block)*BlockSize + it.pos
		if n > it.size-it.pos {
			it.err = corruptf(ErrCorruptDirectory, abs, "record length %d exceeds the %d bytes left in the directory", n, it.size-it.pos)
			return Entry{}, false
		}
		e, err := it.img.decodeRecord(it.ext[it.pos:it.pos+n], abs, ErrCorruptDirectory)
		if err != nil {
			it.err = err
			return Entry{}, false
		}
		it.pos += n
		return e, true
	}
	return Entry{}, false
}
