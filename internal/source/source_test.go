package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in   string
		want Location
	}{
		{"scan.raw", Location{Scheme: "file", Path: "scan.raw"}},
		{"/data/scan.raw", Location{Scheme: "file", Path: "/data/scan.raw"}},
		{"file:///data/scan.txt", Location{Scheme: "file", Path: "/data/scan.txt"}},
		{"ssh://xrd@lab-pc/data/scan.raw", Location{Scheme: "ssh", User: "xrd", Host: "lab-pc", Path: "/data/scan.raw"}},
		{"ssh://lab-pc:2222/d/s.raw", Location{Scheme: "ssh", Host: "lab-pc", Port: 2222, Path: "/d/s.raw"}},
	}
	for _, tt := range tests {
		got, err := ParseLocation(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseLocationErrors(t *testing.T) {
	for _, in := range []string{"", "ftp://host/file", "ssh:///path", "ssh://host", "ssh://host:abc/file"} {
		_, err := ParseLocation(in)
		assert.Error(t, err, in)
	}
}

func TestOpenLocal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pattern.TXT")
	require.NoError(t, os.WriteFile(path, []byte("1 2\n"), 0o644))

	in, err := Open(context.Background(), Location{Scheme: "file", Path: path}, SSHConfig{}, nil)
	require.NoError(t, err)
	defer in.Close()

	assert.Equal(t, int64(4), in.Size)
	assert.Equal(t, "txt", in.Ext())
	data, err := io.ReadAll(in)
	require.NoError(t, err)
	assert.Equal(t, "1 2\n", string(data))

	_, err = OpenLocal(dir)
	assert.Error(t, err, "directories are not inputs")
	_, err = OpenLocal(filepath.Join(dir, "missing.raw"))
	assert.True(t, os.IsNotExist(err))
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "'plain'", shellQuote("plain"))
	assert.Equal(t, `'o'\''brien'`, shellQuote("o'brien"))
}

func TestNewSSHFetcherDefaults(t *testing.T) {
	_, err := NewSSHFetcher(SSHConfig{}, nil)
	require.Error(t, err)

	f, err := NewSSHFetcher(SSHConfig{Host: "lab-pc"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "root", f.cfg.User)
	assert.Equal(t, 22, f.cfg.Port)
	assert.Equal(t, int64(DefaultMaxFetch), f.cfg.MaxBytes)

	_, err = f.Fetch(context.Background(), "/data/scan.raw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no ssh password or key")
	assert.NoError(t, f.Close())
}
