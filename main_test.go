package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lvdlvd/isocat/iso9660/isotest"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRunCommands(t *testing.T) {
	img := writeFile(t, "sample.iso", isotest.SampleImage())

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "info",
			args: []string{"info", img},
			want: []string{"Volume Identifier: SAMPLE_DISC\n", "Block count: 27\n"},
		},
		{
			name: "ls",
			args: []string{"ls", img},
			want: []string{"DOCS/\nREADME.TXT\n"},
		},
		{
			name: "ls long",
			args: []string{"ls", "-l", "-a", img, "/DOCS"},
			want: []string{"--        37 2024/01/02 12:30 GUIDE.TXT\n", "d-      4096 Unspecified ..\n"},
		},
		{
			name: "cat",
			args: []string{"cat", img, "/DOCS/GUIDE.TXT"},
			want: []string{string(isotest.GuideData)},
		},
		{
			name: "cat without mmap",
			args: []string{"--no-mmap", "cat", img, "README.TXT;1"},
			want: []string{string(isotest.ReadmeData)},
		},
		{
			name: "stat",
			args: []string{"stat", img, "DOCS/SUB"},
			want: []string{"Flags: d-----\n", "Extent: 0: block 23, 2048 bytes\n"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := runCLI(t, "", tt.args...)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestRunGetAndExtract(t *testing.T) {
	img := writeFile(t, "sample.iso", isotest.SampleImage())
	dir := t.TempDir()

	out, _, err := runCLI(t, "", "get", "-o", dir, img, "README.TXT")
	require.NoError(t, err)
	assert.Equal(t, "File README.TXT copied successfully.\n", out)
	got, err := os.ReadFile(filepath.Join(dir, "README.TXT"))
	require.NoError(t, err)
	assert.Equal(t, isotest.ReadmeData, got)

	dir = t.TempDir()
	_, _, err = runCLI(t, "", "extract", "-o", dir, img)
	require.NoError(t, err)
	got, err = os.ReadFile(filepath.Join(dir, "DOCS", "GUIDE.TXT"))
	require.NoError(t, err)
	assert.Equal(t, isotest.GuideData, got)
}

func TestRunShell(t *testing.T) {
	img := writeFile(t, "sample.iso", isotest.SampleImage())

	out, errOut, err := runCLI(t, "cd DOCS\npwd\ncd MISSING\npwd\nquit\n", img)
	require.NoError(t, err)
	assert.Equal(t, "/DOCS\n/DOCS\n", out)
	assert.Contains(t, errOut, "MISSING")

	out, _, err = runCLI(t, "pwd\n", "shell", img)
	require.NoError(t, err)
	assert.Equal(t, "/\n", out)
}

func TestRunConfig(t *testing.T) {
	img := writeFile(t, "sample.iso", isotest.SampleImage())
	dir := t.TempDir()
	cfg := writeFile(t, "isocat.yaml", []byte("output_dir: "+dir+"\nlog_level: debug\n"))

	_, _, err := runCLI(t, "", "-c", cfg, "get", img, "/DOCS/GUIDE.TXT")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "GUIDE.TXT"))
	assert.NoError(t, err)

	t.Setenv("ISOCAT_CONFIG", cfg)
	_, errOut, err := runCLI(t, "", "info", img)
	require.NoError(t, err)
	assert.Contains(t, errOut, "opened")

	bad := writeFile(t, "bad.yaml", []byte("colour: blue\n"))
	_, _, err = runCLI(t, "", "--config", bad, "info", img)
	assert.Error(t, err)

	_, _, err = runCLI(t, "", "--log-level", "loud", "info", img)
	assert.Error(t, err)
}

func TestRunErrors(t *testing.T) {
	img := writeFile(t, "sample.iso", isotest.SampleImage())
	zeros := writeFile(t, "zeros.img", make([]byte, 32*isotest.BlockSize))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no image", nil, "usage"},
		{"cat without path", []string{"cat", img}, "usage"},
		{"missing image", []string{"info", filepath.Join(t.TempDir(), "nope.iso")}, "opening image"},
		{"not iso", []string{"info", zeros}, "not an ISO 9660 image"},
		{"cat directory", []string{"cat", img, "DOCS"}, "is a directory"},
		{"cat missing", []string{"cat", img, "NOPE.TXT"}, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestIsTerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "stdin"))
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, isTerminal(f))
	assert.False(t, isTerminal(strings.NewReader("pwd\n")))
}
