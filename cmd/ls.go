// Package cmd implements the isocat commands on top of a session.
package cmd

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/lvdlvd/isocat/iso9660"
	"github.com/lvdlvd/isocat/session"
)

// LsOptions controls ls behavior
type LsOptions struct {
	Long  bool // Long format (-l)
	All   bool // Show ".", ".." and hidden entries (-a)
	Human bool // Human-readable sizes (-H)
}

// Ls lists the directory at p, or the current directory when p is empty.
// A file path lists that single file.
func Ls(s *session.Session, p string, out io.Writer, opts LsOptions) error {
	entries, err := s.Ls(p)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !opts.All && (e.IsSelf() || e.IsParent() || e.IsHidden()) {
			continue
		}
		if opts.Long {
			printLongFormat(e, out, opts.Human)
			continue
		}
		name := e.Name()
		if e.IsDir() && !e.IsSelf() && !e.IsParent() {
			name += "/"
		}
		fmt.Fprintln(out, name)
	}
	return nil
}

// printLongFormat prints one entry as
//
//	dh      size 2006/01/02 15:04 NAME
func printLongFormat(e iso9660.Entry, out io.Writer, human bool) {
	dir, hidden := '-', '-'
	if e.IsDir() {
		dir = 'd'
	}
	if e.IsHidden() {
		hidden = 'h'
	}
	size := fmt.Sprintf("%9d", e.Size)
	if human {
		size = fmt.Sprintf("%9s", humanize.IBytes(uint64(e.Size)))
	}
	fmt.Fprintf(out, "%c%c %s %s %s\n", dir, hidden, size, formatDate(e), e.Name())
}

func formatDate(e iso9660.Entry) string {
	if e.Recorded.IsZero() {
		return "Unspecified"
	}
	return e.Recorded.Format("2006/01/02 15:04")
}
