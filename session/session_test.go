package session

import (
	"io"
	"io/fs"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvdlvd/isocat/iso9660"
	"github.com/lvdlvd/isocat/iso9660/isotest"
)

func newSession(t *testing.T, data []byte, opts ...Option) *Session {
	t.Helper()
	s, err := New(iso9660.NewImage(data), opts...)
	require.NoError(t, err)
	return s
}

func names(entries []iso9660.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name()
	}
	return out
}

func TestNewInvalid(t *testing.T) {
	b, _ := isotest.Sample()
	b.Poke(0x8001, []byte("XD001")...)
	_, err := New(iso9660.NewImage(b.Bytes()))
	assert.True(t, errors.Is(err, iso9660.ErrInvalidFormat), "got %v", err)
}

func TestInfo(t *testing.T) {
	s := newSession(t, isotest.SampleImage())
	vol := s.Info()
	assert.Equal(t, isotest.SampleVolumeID, strings.TrimRight(vol.VolumeID, " "))
	assert.EqualValues(t, isotest.SampleBlocks, vol.SpaceSize)
}

func TestLs(t *testing.T) {
	s := newSession(t, isotest.SampleImage())

	entries, err := s.Ls("")
	require.NoError(t, err)
	assert.Equal(t, []string{".", "..", "DOCS", "README.TXT"}, names(entries))

	entries, err = s.Ls("DOCS")
	require.NoError(t, err)
	assert.Equal(t, []string{".", "..", "GUIDE.TXT", "SUB"}, names(entries))

	entries, err = s.Ls("/DOCS/GUIDE.TXT")
	require.NoError(t, err)
	assert.Equal(t, []string{"GUIDE.TXT"}, names(entries))

	_, err = s.Ls("MISSING")
	assert.True(t, errors.Is(err, iso9660.ErrNotFound), "got %v", err)
	var pe *fs.PathError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "ls", pe.Op)
	assert.Equal(t, "MISSING", pe.Path)
}

func TestCd(t *testing.T) {
	tests := []struct {
		name string
		cds  []string
		pwd  string
		ls   []string
	}{
		{name: "start", pwd: "/", ls: []string{".", "..", "DOCS", "README.TXT"}},
		{name: "child", cds: []string{"DOCS"}, pwd: "/DOCS", ls: []string{".", "..", "GUIDE.TXT", "SUB"}},
		{name: "nested", cds: []string{"DOCS/SUB"}, pwd: "/DOCS/SUB", ls: []string{".", ".."}},
		{name: "absolute", cds: []string{"DOCS", "/DOCS/SUB"}, pwd: "/DOCS/SUB"},
		{name: "dot", cds: []string{"DOCS", "."}, pwd: "/DOCS"},
		{name: "dotdot", cds: []string{"DOCS/SUB", ".."}, pwd: "/DOCS"},
		{name: "dotdot twice", cds: []string{"/DOCS/SUB", "../.."}, pwd: "/"},
		{name: "dotdot at root", cds: []string{".."}, pwd: "/"},
		{name: "empty returns to root", cds: []string{"DOCS/SUB", ""}, pwd: "/"},
		{name: "slash", cds: []string{"DOCS", "/"}, pwd: "/"},
		{name: "trailing slash", cds: []string{"DOCS/"}, pwd: "/DOCS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t, isotest.SampleImage())
			for _, p := range tt.cds {
				require.NoError(t, s.Cd(p), p)
			}
			assert.Equal(t, tt.pwd, s.Pwd())
			assert.Equal(t, tt.pwd, s.State().String())
			if tt.ls != nil {
				entries, err := s.Ls("")
				require.NoError(t, err)
				assert.Equal(t, tt.ls, names(entries))
			}
		})
	}
}

func TestCdFailureKeepsState(t *testing.T) {
	s := newSession(t, isotest.SampleImage())
	require.NoError(t, s.Cd("DOCS"))
	before := s.State()

	for _, p := range []string{"README.TXT", "GUIDE.TXT", "SUB/NOPE", "/NOPE", "docs"} {
		err := s.Cd(p)
		assert.True(t, errors.Is(err, iso9660.ErrNotFound), "%s: got %v", p, err)
		assert.Equal(t, "/DOCS", s.Pwd())
		assert.Equal(t, before.Dir, s.State().Dir)
	}
}

func TestStateIsCopy(t *testing.T) {
	s := newSession(t, isotest.SampleImage())
	require.NoError(t, s.Cd("DOCS/SUB"))
	st := s.State()
	comps := st.Components()
	comps[0] = "CHANGED"
	assert.Equal(t, "/DOCS/SUB", s.Pwd())
	assert.Equal(t, []string{"DOCS", "SUB"}, st.Components())
	assert.EqualValues(t, isotest.SubBlock, st.Dir.Block)
}

func TestGet(t *testing.T) {
	data := isotest.SampleImage()
	s := newSession(t, data)

	got, name, err := s.Get("README.TXT")
	require.NoError(t, err)
	assert.Equal(t, "README.TXT", name)
	assert.Len(t, got, 512)
	assert.Equal(t, data[25*2048:25*2048+512], got)

	require.NoError(t, s.Cd("DOCS"))
	got, name, err = s.Get("GUIDE.TXT")
	require.NoError(t, err)
	assert.Equal(t, "GUIDE.TXT", name)
	assert.Equal(t, isotest.GuideData, got)

	got, _, err = s.Get("../README.TXT")
	require.NoError(t, err)
	assert.Equal(t, isotest.ReadmeData, got)

	_, _, err = s.Get("SUB")
	assert.True(t, errors.Is(err, iso9660.ErrIsADirectory), "got %v", err)

	_, _, err = s.Get("")
	assert.True(t, errors.Is(err, fs.ErrInvalid), "got %v", err)

	_, _, err = s.Get("/")
	assert.True(t, errors.Is(err, iso9660.ErrIsADirectory), "got %v", err)

	_, _, err = s.Get("NOPE.TXT")
	assert.True(t, errors.Is(err, fs.ErrNotExist), "got %v", err)
}

func TestCat(t *testing.T) {
	s := newSession(t, isotest.SampleImage())

	got, err := s.Cat("/DOCS/GUIDE.TXT")
	require.NoError(t, err)
	assert.Equal(t, isotest.GuideData, got)

	_, err = s.Cat("DOCS")
	assert.True(t, errors.Is(err, iso9660.ErrIsADirectory), "got %v", err)

	_, err = s.Cat("/")
	assert.True(t, errors.Is(err, iso9660.ErrIsADirectory), "got %v", err)
}

func TestOpen(t *testing.T) {
	s := newSession(t, isotest.SampleImage())
	r, e, err := s.Open("README.TXT")
	require.NoError(t, err)
	assert.EqualValues(t, 512, e.Size)

	got, err := io.ReadAll(io.NewSectionReader(r, 0, r.Size()))
	require.NoError(t, err)
	assert.Equal(t, isotest.ReadmeData, got)
}

func TestStat(t *testing.T) {
	s := newSession(t, isotest.SampleImage())

	e, err := s.Stat("DOCS/SUB")
	require.NoError(t, err)
	assert.True(t, e.IsDir())
	assert.EqualValues(t, isotest.SubBlock, e.Block)

	e, err = s.Stat("")
	require.NoError(t, err)
	assert.EqualValues(t, isotest.RootBlock, e.Block)
}

func TestOutOfBoundsWarning(t *testing.T) {
	b, offs := isotest.Sample()
	// Point README.TXT far past the end of the image.
	b.Poke(offs.Root[3]+2, 0x00, 0x10, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00)

	logger, hook := logtest.NewNullLogger()
	s := newSession(t, b.Bytes(), WithLogger(logger))

	_, err := s.Cat("README.TXT")
	assert.True(t, errors.Is(err, iso9660.ErrOutOfBounds), "got %v", err)
	assert.False(t, errors.Is(err, fs.ErrNotExist))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "README.TXT", entry.Data["path"])
	assert.EqualValues(t, 0x1000, entry.Data["block"])
}

func TestDirectoryOutOfBoundsWarning(t *testing.T) {
	b, offs := isotest.Sample()
	// Point DOCS far past the end of the image.
	b.Poke(offs.Root[2]+2, 0x00, 0x10, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00)

	logger, hook := logtest.NewNullLogger()
	s := newSession(t, b.Bytes(), WithLogger(logger))

	tests := []struct {
		name string
		run  func() error
	}{
		{"ls", func() error { _, err := s.Ls("DOCS"); return err }},
		{"cd", func() error { return s.Cd("DOCS/SUB") }},
		{"stat", func() error { _, err := s.Stat("/DOCS/GUIDE.TXT"); return err }},
		{"cat", func() error { _, err := s.Cat("DOCS/GUIDE.TXT"); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook.Reset()
			err := tt.run()
			assert.True(t, errors.Is(err, iso9660.ErrOutOfBounds), "got %v", err)
			assert.False(t, errors.Is(err, fs.ErrNotExist))

			entry := hook.LastEntry()
			require.NotNil(t, entry)
			assert.Equal(t, logrus.WarnLevel, entry.Level)
			assert.Equal(t, tt.name, entry.Data["op"])
			assert.EqualValues(t, 0x1000, entry.Data["block"])
		})
	}
	assert.Equal(t, "/", s.Pwd())

	// A missing name is not logged.
	hook.Reset()
	_, err := s.Stat("NOPE.TXT")
	assert.True(t, errors.Is(err, fs.ErrNotExist), "got %v", err)
	assert.Nil(t, hook.LastEntry())
}
