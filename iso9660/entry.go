package iso9660

import (
	"bytes"
	"strconv"
	"strings"
	"time"
)

// Flags is the file flags byte of a directory record.
type Flags uint8

const (
	FlagHidden      Flags = 1 << 0
	FlagDirectory   Flags = 1 << 1
	FlagAssociated  Flags = 1 << 2
	FlagRecord      Flags = 1 << 3
	FlagProtection  Flags = 1 << 4
	FlagMultiExtent Flags = 1 << 7
)

func (f Flags) String() string {
	var b strings.Builder
	for _, x := range []struct {
		flag Flags
		c    byte
	}{
		{FlagDirectory, 'd'},
		{FlagHidden, 'h'},
		{FlagAssociated, 'a'},
		{FlagRecord, 'r'},
		{FlagProtection, 'p'},
		{FlagMultiExtent, 'm'},
	} {
		if f&x.flag != 0 {
			b.WriteByte(x.c)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// Section is one contiguous run of blocks holding (part of) a file.
type Section struct {
	Block uint32 // First logical block
	Size  uint32 // Length in bytes
}

// Entry is a decoded directory record. Files recorded as several
// multi-extent records are merged into one Entry with several Sections.
type Entry struct {
	RecordLen     uint8
	ExtAttrLen    uint8
	Block         uint32 // First extent block
	Size          int64  // Total data length over all sections
	Recorded      time.Time
	Flags         Flags
	FileUnitSize  uint8
	InterleaveGap uint8
	VolumeSeq     uint16

	// Identifier is the raw file identifier, exactly as long as the
	// record's name length, including any ";version" suffix.
	Identifier string

	Sections []Section
}

// IsDir reports whether the entry describes a directory.
func (e Entry) IsDir() bool { return e.Flags&FlagDirectory != 0 }

// IsHidden reports whether the existence bit is set.
func (e Entry) IsHidden() bool { return e.Flags&FlagHidden != 0 }

// IsSelf reports whether this is the 0x00 "this directory" record.
func (e Entry) IsSelf() bool { return e.Identifier == "\x00" }

// IsParent reports whether this is the 0x01 "parent directory" record.
func (e Entry) IsParent() bool { return e.Identifier == "\x01" }

// Name returns the name for interactive use: "." and ".." for the pseudo
// records, otherwise the identifier without its version suffix.
func (e Entry) Name() string {
	switch {
	case e.IsSelf():
		return "."
	case e.IsParent():
		return ".."
	}
	return displayText([]byte(stripVersion(e.Identifier)))
}

// Version returns the numeric ";version" suffix, or 0 if there is none.
func (e Entry) Version() int {
	i := strings.IndexByte(e.Identifier, ';')
	if i < 0 {
		return 0
	}
	v, err := strconv.Atoi(e.Identifier[i+1:])
	if err != nil {
		return 0
	}
	return v
}

// matches reports whether component names this entry. The display name,
// the raw identifier and the raw identifier without version are compared
// byte for byte.
func (e Entry) matches(component string) bool {
	if e.Name() == component {
		return true
	}
	if e.IsSelf() || e.IsParent() {
		return false
	}
	return e.Identifier == component || stripVersion(e.Identifier) == component
}

func stripVersion(id string) string {
	if i := strings.IndexByte(id, ';'); i >= 0 {
		return id[:i]
	}
	return id
}

// Directory record layout.
const (
	recordHeaderLen = 33
	minRecordLen    = recordHeaderLen + 1
)

// decodeRecord decodes one directory record. rec holds exactly the bytes
// the record's length byte claims; off is its absolute image offset, used
// in error messages. The fixed header is decoded first and the name is
// then taken from exactly name_len bytes after it.
func (img *Image) decodeRecord(rec []byte, off int64, kind error) (Entry, error) {
	if len(rec) < minRecordLen {
		return Entry{}, corruptf(kind, off, "record length %d below minimum %d", len(rec), minRecordLen)
	}
	nameLen := int(rec[32])
	if nameLen == 0 {
		return Entry{}, corruptf(kind, off, "empty file identifier")
	}
	if recordHeaderLen+nameLen > len(rec) {
		return Entry{}, corruptf(kind, off, "name length %d overruns %d-byte record", nameLen, len(rec))
	}

	e := Entry{
		RecordLen:     rec[0],
		ExtAttrLen:    rec[1],
		Recorded:      recordTime(rec[18:25]),
		Flags:         Flags(rec[25]),
		FileUnitSize:  rec[26],
		InterleaveGap: rec[27],
		Identifier:    string(bytes.Clone(rec[recordHeaderLen : recordHeaderLen+nameLen])),
	}

	var ok bool
	e.Block, ok = bothEndian32(rec[2:10])
	if err := img.checkEndian(ok, kind, "extent", off+2); err != nil {
		return Entry{}, err
	}
	size, ok := bothEndian32(rec[10:18])
	if err := img.checkEndian(ok, kind, "data length", off+10); err != nil {
		return Entry{}, err
	}
	e.VolumeSeq, ok = bothEndian16(rec[28:32])
	if err := img.checkEndian(ok, kind, "volume sequence number", off+28); err != nil {
		return Entry{}, err
	}

	e.Size = int64(size)
	e.Sections = []Section{{Block: e.Block, Size: size}}
	return e, nil
}
