package iso9660

import (
	"time"
)

// Volume descriptor placement.
const (
	descriptorStart = 16 * BlockSize // 0x8000
	maxDescriptors  = 64

	descPrimary    = 1
	descTerminator = 255
)

var standardID = []byte("CD001")

// Volume is the decoded Primary Volume Descriptor. Character fields keep
// their trailing space padding.
type Volume struct {
	Type       uint8
	StandardID string
	Version    uint8

	SystemID   string
	VolumeID   string
	SpaceSize  uint32 // in logical blocks
	SetSize    uint16
	SequenceNo uint16
	BlockSize  uint16 // as declared; addressing always uses BlockSize

	PathTableSize      uint32
	PathTableL         uint32
	PathTableLOptional uint32
	PathTableM         uint32
	PathTableMOptional uint32

	Root Entry

	VolumeSetID     string
	PublisherID     string
	PreparerID      string
	ApplicationID   string
	CopyrightFile   string
	AbstractFile    string
	BibliographFile string

	Created   time.Time
	Modified  time.Time
	Expires   time.Time
	Effective time.Time

	// CreatedRaw is the 17-byte creation date as recorded.
	CreatedRaw string

	FileStructureVersion uint8
}

// ParseVolume locates and decodes the Primary Volume Descriptor. It walks
// the descriptor set from block 16 to the first primary descriptor.
func (img *Image) ParseVolume() (*Volume, error) {
	if img.Len() < descriptorStart+BlockSize {
		return nil, corruptf(ErrInvalidFormat, 0, "image is %d bytes, too short for a volume descriptor", img.Len())
	}
	for i := int64(0); i < maxDescriptors; i++ {
		off := descriptorStart + i*BlockSize
		d, err := img.span(off, BlockSize)
		if err != nil {
			return nil, corruptf(ErrInvalidFormat, off, "volume descriptor set not terminated")
		}
		if string(d[1:6]) != string(standardID) {
			return nil, corruptf(ErrInvalidFormat, off+1, "standard identifier %q, want %q", d[1:6], standardID)
		}
		switch d[0] {
		case descPrimary:
			return img.decodeVolume(d, off)
		case descTerminator:
			return nil, corruptf(ErrInvalidFormat, off, "no primary volume descriptor")
		}
		img.log.WithField("offset", off).Debugf("skipping volume descriptor type %d", d[0])
	}
	return nil, corruptf(ErrInvalidFormat, descriptorStart, "more than %d volume descriptors", maxDescriptors)
}

func (img *Image) decodeVolume(d []byte, off int64) (*Volume, error) {
	v := &Volume{
		Type:       d[0],
		StandardID: fieldText(d[1:6]),
		Version:    d[6],
		SystemID:   fieldText(d[8:40]),
		VolumeID:   fieldText(d[40:72]),

		VolumeSetID:     fieldText(d[190:318]),
		PublisherID:     fieldText(d[318:446]),
		PreparerID:      fieldText(d[446:574]),
		ApplicationID:   fieldText(d[574:702]),
		CopyrightFile:   fieldText(d[702:739]),
		AbstractFile:    fieldText(d[739:776]),
		BibliographFile: fieldText(d[776:813]),

		Created:    volumeTime(d[813:830]),
		Modified:   volumeTime(d[830:847]),
		Expires:    volumeTime(d[847:864]),
		Effective:  volumeTime(d[864:881]),
		CreatedRaw: fieldText(d[813:830]),

		FileStructureVersion: d[881],
	}

	fields := []struct {
		name string
		at   int
		u32  *uint32
		u16  *uint16
	}{
		{name: "volume space size", at: 80, u32: &v.SpaceSize},
		{name: "volume set size", at: 120, u16: &v.SetSize},
		{name: "volume sequence number", at: 124, u16: &v.SequenceNo},
		{name: "logical block size", at: 128, u16: &v.BlockSize},
		{name: "path table size", at: 132, u32: &v.PathTableSize},
	}
	for _, f := range fields {
		var ok bool
		if f.u32 != nil {
			*f.u32, ok = bothEndian32(d[f.at : f.at+8])
		} else {
			*f.u16, ok = bothEndian16(d[f.at : f.at+4])
		}
		if err := img.checkEndian(ok, ErrInvalidFormat, f.name, off+int64(f.at)); err != nil {
			return nil, err
		}
	}

	v.PathTableL = le32(d[140:144])
	v.PathTableLOptional = le32(d[144:148])
	v.PathTableM = be32(d[148:152])
	v.PathTableMOptional = be32(d[152:156])

	root, err := img.decodeRecord(d[156:156+minRecordLen], off+156, ErrInvalidFormat)
	if err != nil {
		return nil, err
	}
	if !root.IsDir() {
		img.log.WithField("offset", off+156).Warn("root directory record lacks the directory flag")
		root.Flags |= FlagDirectory
	}
	v.Root = root
	return v, nil
}
