// Package session keeps the navigation state of an interactive browse of an
// ISO 9660 image and implements its commands.
package session

import (
	"io/fs"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lvdlvd/isocat/fsys"
	"github.com/lvdlvd/isocat/iso9660"
)

// State is the current directory and the logical path that led to it.
type State struct {
	Dir  iso9660.Entry
	path []string
}

// String renders the path with a leading slash; the root is "/".
func (s State) String() string {
	return "/" + strings.Join(s.path, "/")
}

// Components returns a copy of the path components below the root.
func (s State) Components() []string {
	return append([]string(nil), s.path...)
}

// Session is one browse of an image. It is not safe for concurrent use.
type Session struct {
	img   *iso9660.Image
	vol   *iso9660.Volume
	state State
	log   logrus.FieldLogger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for out-of-bounds warnings.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// New parses the volume descriptor of img and starts at the root.
func New(img *iso9660.Image, opts ...Option) (*Session, error) {
	vol, err := img.ParseVolume()
	if err != nil {
		return nil, err
	}
	s := &Session{
		img:   img,
		vol:   vol,
		state: State{Dir: vol.Root},
		log:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Image returns the image being browsed.
func (s *Session) Image() *iso9660.Image { return s.img }

// Info returns a copy of the primary volume descriptor.
func (s *Session) Info() iso9660.Volume { return *s.vol }

// State returns a copy of the navigation state.
func (s *Session) State() State {
	st := s.state
	st.path = st.Components()
	return st
}

// Pwd returns the current logical path.
func (s *Session) Pwd() string { return s.state.String() }

// Cd changes the current directory. An empty path returns to the root.
// Paths starting with "/" are resolved from the root, others from the
// current directory. On error the state is unchanged.
func (s *Session) Cd(p string) error {
	if p == "" {
		root, err := s.img.ResolveChild(s.vol.Root, s.state.Dir, "")
		if err != nil {
			return &fs.PathError{Op: "cd", Path: p, Err: err}
		}
		s.state = State{Dir: root}
		return nil
	}
	st, err := s.walk(p, splitPath(p))
	if err != nil {
		return s.fail("cd", p, st.Dir, err)
	}
	s.state = st
	return nil
}

// walk resolves components as directories, starting at the root when p is
// absolute. On error the returned Dir is the directory that was searched.
func (s *Session) walk(p string, components []string) (State, error) {
	st := State{Dir: s.state.Dir, path: s.state.Components()}
	if strings.HasPrefix(p, "/") {
		st = State{Dir: s.vol.Root}
	}
	for _, c := range components {
		e, err := s.img.ResolveChild(s.vol.Root, st.Dir, c)
		if err != nil {
			return State{Dir: st.Dir}, err
		}
		st.Dir = e
		switch c {
		case ".":
		case "..":
			if len(st.path) > 0 {
				st.path = st.path[:len(st.path)-1]
			}
		default:
			st.path = append(st.path, e.Name())
		}
	}
	return st, nil
}

// lookup resolves p to a file or directory. An empty p is the current
// directory. On error the returned entry is the directory that was searched.
func (s *Session) lookup(p string) (iso9660.Entry, error) {
	components := splitPath(p)
	if len(components) == 0 {
		if strings.HasPrefix(p, "/") {
			return s.vol.Root, nil
		}
		return s.state.Dir, nil
	}
	last := components[len(components)-1]
	if last == "." || last == ".." {
		st, err := s.walk(p, components)
		return st.Dir, err
	}
	st, err := s.walk(p, components[:len(components)-1])
	if err != nil {
		return st.Dir, err
	}
	e, err := s.img.ResolveEntry(st.Dir, last)
	if err != nil {
		return st.Dir, err
	}
	return e, nil
}

// Ls lists the directory at p, or the current directory when p is empty.
// The "." and ".." records come first as recorded. A file path yields that
// single entry.
func (s *Session) Ls(p string) ([]iso9660.Entry, error) {
	e, err := s.lookup(p)
	if err != nil {
		return nil, s.fail("ls", p, e, err)
	}
	if !e.IsDir() {
		return []iso9660.Entry{e}, nil
	}
	entries, err := s.img.ReadDir(e)
	if err != nil {
		return nil, s.fail("ls", p, e, err)
	}
	return entries, nil
}

// Stat resolves p to its directory entry.
func (s *Session) Stat(p string) (iso9660.Entry, error) {
	e, err := s.lookup(p)
	if err != nil {
		return iso9660.Entry{}, s.fail("stat", p, e, err)
	}
	return e, nil
}

// Get returns the content of the file at p and the name to save it under.
func (s *Session) Get(p string) ([]byte, string, error) {
	e, data, err := s.read("get", p)
	if err != nil {
		return nil, "", err
	}
	return data, e.Name(), nil
}

// Cat returns the content of the file at p.
func (s *Session) Cat(p string) ([]byte, error) {
	_, data, err := s.read("cat", p)
	return data, err
}

// Open returns a reader streaming the file at p from the image.
func (s *Session) Open(p string) (*fsys.ExtentReaderAt, iso9660.Entry, error) {
	e, err := s.file("open", p)
	if err != nil {
		return nil, iso9660.Entry{}, err
	}
	exts, err := s.img.Extents(e)
	if err != nil {
		return nil, iso9660.Entry{}, s.fail("open", p, e, err)
	}
	return fsys.NewExtentReaderAt(s.img, exts, e.Size), e, nil
}

func (s *Session) read(op, p string) (iso9660.Entry, []byte, error) {
	e, err := s.file(op, p)
	if err != nil {
		return iso9660.Entry{}, nil, err
	}
	data, err := s.img.ReadExtent(e)
	if err != nil {
		return iso9660.Entry{}, nil, s.fail(op, p, e, err)
	}
	return e, data, nil
}

// file resolves p and rejects directories. "/" names the root directory;
// only the empty path is invalid.
func (s *Session) file(op, p string) (iso9660.Entry, error) {
	if p == "" {
		return iso9660.Entry{}, &fs.PathError{Op: op, Path: p, Err: fs.ErrInvalid}
	}
	e, err := s.lookup(p)
	if err != nil {
		return iso9660.Entry{}, s.fail(op, p, e, err)
	}
	if e.IsDir() {
		return iso9660.Entry{}, &fs.PathError{Op: op, Path: p, Err: iso9660.ErrIsADirectory}
	}
	return e, nil
}

// fail wraps err for op on p. An extent outside the image is also logged
// with the block and size of e, the file or directory being read.
func (s *Session) fail(op, p string, e iso9660.Entry, err error) error {
	if errors.Is(err, iso9660.ErrOutOfBounds) {
		s.log.WithFields(logrus.Fields{
			"op":    op,
			"path":  p,
			"block": e.Block,
			"size":  e.Size,
		}).Warn("extent lies outside the image")
	}
	return &fs.PathError{Op: op, Path: p, Err: err}
}

func splitPath(p string) []string {
	var out []string
	for _, c := range strings.Split(p, "/") {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
