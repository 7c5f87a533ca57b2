//go:build ignore

// mkiso writes testdata/sample.iso, a small image with nested directories
// for trying isocat by hand:
//
//	go run testdata/mkiso.go
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	diskfs "github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/disk"
	"github.com/diskfs/go-diskfs/filesystem"
	"github.com/diskfs/go-diskfs/filesystem/iso9660"
)

func main() {
	out, err := filepath.Abs("testdata/sample.iso")
	if err != nil {
		fmt.Fprintf(os.Stderr, "mkiso: %v\n", err)
		os.Exit(1)
	}
	if err := createISO(out); err != nil {
		fmt.Fprintf(os.Stderr, "mkiso: %v\n", err)
		os.Exit(1)
	}
}

func createISO(path string) error {
	const diskSize = 4 * 1024 * 1024

	work, err := os.MkdirTemp("", "mkiso")
	if err != nil {
		return err
	}
	defer os.RemoveAll(work)

	os.Remove(path)
	d, err := diskfs.Create(path, diskSize, diskfs.Raw, diskfs.SectorSizeDefault)
	if err != nil {
		return err
	}
	d.LogicalBlocksize = 2048

	created, err := d.CreateFilesystem(disk.FilesystemSpec{
		Partition:   0,
		FSType:      filesystem.TypeISO9660,
		VolumeLabel: "SAMPLE_DISC",
		WorkDir:     work,
	})
	if err != nil {
		return err
	}

	for _, dir := range []string{"/DOCS", "/DOCS/SUB", "/DATA"} {
		if err := created.Mkdir(dir); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	files := []struct {
		name    string
		content []byte
	}{
		{"/README.TXT", []byte("Insert disc. Read files. Eject disc.\n")},
		{"/DOCS/GUIDE.TXT", bytes.Repeat([]byte("chapter\n"), 600)},
		{"/DOCS/SUB/EMPTY.TXT", nil},
		{"/DATA/BLOCKS.BIN", bytes.Repeat([]byte{0xaa, 0x55}, 5000)},
	}
	for _, f := range files {
		rw, err := created.OpenFile(f.name, os.O_CREATE|os.O_RDWR)
		if err != nil {
			return fmt.Errorf("create %s: %w", f.name, err)
		}
		if _, err := rw.Write(f.content); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
		if c, ok := rw.(io.Closer); ok {
			c.Close()
		}
	}

	iso, ok := created.(*iso9660.FileSystem)
	if !ok {
		return fmt.Errorf("unexpected filesystem %T", created)
	}
	if err := iso.Finalize(iso9660.FinalizeOptions{VolumeIdentifier: "SAMPLE_DISC"}); err != nil {
		return err
	}
	if err := d.File.Close(); err != nil {
		return err
	}
	fmt.Printf("Created %s\n", path)
	return nil
}
