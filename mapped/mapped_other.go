//go:build !unix

package mapped

import "os"

func mmap(*os.File, int64) (*File, error) {
	return nil, errNoMmap
}
