package isotest

import (
	"bytes"
	"time"
)

// Layout of the Sample image.
const (
	SampleBlocks = 27

	RootBlock   = 20
	RootSize    = 2 * BlockSize
	DocsBlock   = 22
	SubBlock    = 23
	ReadmeBlock = 25
	GuideBlock  = 26

	SampleVolumeID = "SAMPLE_DISC"
)

var (
	// ReadmeData is the 512-byte content of /README.TXT.
	ReadmeData = bytes.Repeat([]byte("0123456789abcde\n"), 32)

	// GuideData is the content of /DOCS/GUIDE.TXT.
	GuideData = []byte("Insert disc. Read files. Eject disc.\n")

	SampleTime = time.Date(2024, time.January, 2, 12, 30, 45, 0, time.UTC)
)

// SampleOffsets holds the absolute offsets of the directory records of the
// Sample image, as returned by Dir.
type SampleOffsets struct {
	Root []int // ".", "..", "DOCS", "README.TXT;1"
	Docs []int // ".", "..", "GUIDE.TXT;1", "SUB"
	Sub  []int // ".", ".."
}

// Sample builds this tree:
//
//	/               block 20, 4096 bytes
//	/DOCS           block 22
//	/DOCS/SUB       block 23
//	/DOCS/GUIDE.TXT block 26
//	/README.TXT     block 25, 512 bytes
func Sample() (*Builder, SampleOffsets) {
	b := New(SampleBlocks)
	root := Record{Name: "\x00", Block: RootBlock, Size: RootSize, Flags: Directory, Recorded: SampleTime}
	b.Primary(PVD{
		SystemID:  "LINUX",
		VolumeID:  SampleVolumeID,
		Publisher: "ISOCAT",
		Created:   SampleTime,
		Root:      root,
	})

	var offs SampleOffsets
	offs.Root = b.Dir(RootBlock, RootSize,
		root,
		Parent(RootBlock, RootSize),
		Record{Name: "DOCS", Block: DocsBlock, Size: BlockSize, Flags: Directory, Recorded: SampleTime},
		Record{Name: "README.TXT;1", Block: ReadmeBlock, Size: uint32(len(ReadmeData)), Recorded: SampleTime},
	)
	offs.Docs = b.Dir(DocsBlock, BlockSize,
		Self(DocsBlock, BlockSize),
		Parent(RootBlock, RootSize),
		Record{Name: "GUIDE.TXT;1", Block: GuideBlock, Size: uint32(len(GuideData)), Recorded: SampleTime},
		Record{Name: "SUB", Block: SubBlock, Size: BlockSize, Flags: Directory, Recorded: SampleTime},
	)
	offs.Sub = b.Dir(SubBlock, BlockSize,
		Self(SubBlock, BlockSize),
		Parent(DocsBlock, BlockSize),
	)
	b.Data(ReadmeBlock, ReadmeData)
	b.Data(GuideBlock, GuideData)
	return b, offs
}

// SampleImage returns the bytes of the Sample image.
func SampleImage() []byte {
	b, _ := Sample()
	return b.Bytes()
}
