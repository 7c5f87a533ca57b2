package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/lvdlvd/isocat/iso9660"
)

// Info prints the primary volume descriptor.
func Info(vol iso9660.Volume, out io.Writer) {
	trim := func(s string) string { return strings.TrimRight(s, " ") }

	fmt.Fprintf(out, "System Identifier: %s\n", trim(vol.SystemID))
	fmt.Fprintf(out, "Volume Identifier: %s\n", trim(vol.VolumeID))
	fmt.Fprintf(out, "Block count: %d\n", vol.SpaceSize)
	fmt.Fprintf(out, "Block size: %d\n", vol.BlockSize)
	fmt.Fprintf(out, "Volume size: %s\n", humanize.IBytes(uint64(vol.SpaceSize)*uint64(vol.BlockSize)))
	fmt.Fprintf(out, "Creation date: %s\n", strings.TrimRight(vol.CreatedRaw, "\x00"))
	fmt.Fprintf(out, "Application Identifier: %s\n", trim(vol.ApplicationID))
	if id := trim(vol.PublisherID); id != "" {
		fmt.Fprintf(out, "Publisher Identifier: %s\n", id)
	}
	if id := trim(vol.PreparerID); id != "" {
		fmt.Fprintf(out, "Data Preparer Identifier: %s\n", id)
	}
	if !vol.Modified.IsZero() {
		fmt.Fprintf(out, "Modification date: %s\n", vol.Modified.Format("2006-01-02 15:04:05 -0700"))
	}
}
