// Package detect identifies the format of a disk image so that images
// isocat cannot read get a clear diagnostic.
package detect

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// Type is an image format.
type Type int

const (
	Unknown Type = iota
	ISO9660
	UDF // UDF without an ISO 9660 bridge
	FAT
	NTFS
	Ext
	MBR // Master Boot Record partition table
	GPT // GUID Partition Table
)

func (t Type) String() string {
	switch t {
	case ISO9660:
		return "ISO 9660"
	case UDF:
		return "UDF"
	case FAT:
		return "FAT"
	case NTFS:
		return "NTFS"
	case Ext:
		return "ext2/3/4"
	case MBR:
		return "MBR"
	case GPT:
		return "GPT"
	default:
		return "unknown"
	}
}

const (
	sectorSize = 2048
	// Volume recognition starts at sector 16; a handful of descriptors is
	// enough to tell ISO 9660 from UDF.
	vrsStart   = 16 * sectorSize
	vrsSectors = 8
)

// Detect identifies the image format. ISO 9660 wins over any boot sector
// signature, so hybrid images that also carry an MBR or GPT are reported
// as ISO 9660.
func Detect(r io.ReaderAt) (Type, error) {
	header := make([]byte, vrsStart+vrsSectors*sectorSize)
	n, err := r.ReadAt(header, 0)
	if err != nil && err != io.EOF {
		return Unknown, errors.Wrap(err, "reading header")
	}
	header = header[:n]
	if n < 512 {
		return Unknown, errors.Errorf("file too small: %d bytes", n)
	}

	if t := detectVRS(header); t != Unknown {
		return t, nil
	}

	switch {
	case n >= 520 && bytes.Equal(header[512:520], []byte("EFI PART")):
		return GPT, nil
	case bytes.Equal(header[3:11], []byte("NTFS    ")):
		return NTFS, nil
	case n >= 0x43a && binary.LittleEndian.Uint16(header[0x438:0x43a]) == 0xef53:
		return Ext, nil
	case header[510] == 0x55 && header[511] == 0xaa:
		if isFAT(header) {
			return FAT, nil
		}
		return MBR, nil
	}
	return Unknown, nil
}

// detectVRS looks at the volume recognition sequence from sector 16.
func detectVRS(header []byte) Type {
	if len(header) >= vrsStart+6 && string(header[vrsStart+1:vrsStart+6]) == "CD001" {
		return ISO9660
	}
	for off := vrsStart; off+6 <= len(header); off += sectorSize {
		switch string(header[off+1 : off+6]) {
		case "NSR02", "NSR03":
			return UDF
		case "BEA01", "TEA01", "BOOT2", "CDW02", "CD001":
		default:
			return Unknown
		}
	}
	return Unknown
}

func isFAT(header []byte) bool {
	return bytes.Equal(header[82:87], []byte("FAT32")) ||
		bytes.Equal(header[54:59], []byte("FAT12")) ||
		bytes.Equal(header[54:59], []byte("FAT16"))
}
