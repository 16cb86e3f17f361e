// Package source opens instrument files as seekable streams, either from
// the local filesystem or from a remote machine over SSH.
package source

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rjboer/goxylib/internal/logging"
)

// Input is an opened file. Close releases whatever backs it.
type Input struct {
	io.ReadSeeker
	Name  string
	Size  int64
	close func() error
}

// Close releases the input.
func (in *Input) Close() error {
	if in.close == nil {
		return nil
	}
	return in.close()
}

// Ext returns the lower-cased file extension of the input without the dot.
func (in *Input) Ext() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(in.Name), "."))
}

// Location is a parsed input address.
type Location struct {
	Scheme string // "file" or "ssh"
	User   string
	Host   string
	Port   int
	Path   string
}

// ParseLocation accepts plain paths, file:// URIs and ssh://[user@]host[:port]/path.
func ParseLocation(s string) (Location, error) {
	if s == "" {
		return Location{}, fmt.Errorf("empty location")
	}
	if !strings.Contains(s, "://") {
		return Location{Scheme: "file", Path: s}, nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return Location{}, fmt.Errorf("parse location %q: %w", s, err)
	}
	switch u.Scheme {
	case "file":
		return Location{Scheme: "file", Path: u.Path}, nil
	case "ssh":
		loc := Location{Scheme: "ssh", Host: u.Hostname(), Path: u.Path}
		if u.User != nil {
			loc.User = u.User.Username()
		}
		if p := u.Port(); p != "" {
			port, err := strconv.Atoi(p)
			if err != nil {
				return Location{}, fmt.Errorf("invalid ssh port %q", p)
			}
			loc.Port = port
		}
		if loc.Host == "" {
			return Location{}, fmt.Errorf("ssh location %q has no host", s)
		}
		if loc.Path == "" || loc.Path == "/" {
			return Location{}, fmt.Errorf("ssh location %q has no path", s)
		}
		return loc, nil
	default:
		return Location{}, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}

// OpenLocal opens a file on the local filesystem.
func OpenLocal(path string) (*Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &Input{ReadSeeker: f, Name: path, Size: st.Size(), close: f.Close}, nil
}

// Open resolves loc and opens it. base supplies SSH credentials; the user,
// host and port of loc override it when set.
func Open(ctx context.Context, loc Location, base SSHConfig, logger logging.Logger) (*Input, error) {
	if logger == nil {
		logger = logging.Default()
	}
	switch loc.Scheme {
	case "file", "":
		logger.Debug("open local file", logging.Field{Key: "path", Value: loc.Path})
		return OpenLocal(loc.Path)
	case "ssh":
		cfg := base
		cfg.Host = loc.Host
		if loc.User != "" {
			cfg.User = loc.User
		}
		if loc.Port != 0 {
			cfg.Port = loc.Port
		}
		fetcher, err := NewSSHFetcher(cfg, logger)
		if err != nil {
			return nil, err
		}
		in, err := fetcher.Fetch(ctx, loc.Path)
		if err != nil {
			fetcher.Close()
			return nil, err
		}
		in.close = fetcher.Close
		return in, nil
	default:
		return nil, fmt.Errorf("unsupported scheme %q", loc.Scheme)
	}
}
