package iso9660

import (
	"github.com/pkg/errors"
)

// ResolveChild finds the subdirectory of dir named component. An empty
// component names root itself and does not read dir. Files never match.
func (img *Image) ResolveChild(root, dir Entry, component string) (Entry, error) {
	if component == "" {
		return root, nil
	}
	return img.lookup(dir, component, true)
}

// ResolveEntry finds the file or subdirectory of dir named component.
func (img *Image) ResolveEntry(dir Entry, component string) (Entry, error) {
	return img.lookup(dir, component, false)
}

// lookup returns the first entry of dir matching component. Names are
// compared byte for byte; "." and ".." match the pseudo-records.
func (img *Image) lookup(dir Entry, component string, dirsOnly bool) (Entry, error) {
	if !dir.IsDir() {
		return Entry{}, errors.Wrapf(ErrNotFound, "%q is not a directory", dir.Name())
	}
	it := img.ReadEntries(dir.Block, dir.Size)
	for it.Next() {
		e := it.Entry()
		if dirsOnly && !e.IsDir() {
			continue
		}
		if e.matches(component) {
			return e, nil
		}
	}
	if err := it.Err(); err != nil {
		return Entry{}, err
	}
	return Entry{}, errors.Wrapf(ErrNotFound, "%q", component)
}
