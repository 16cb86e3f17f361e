package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/rjboer/goxylib/internal/logging"
)

// DefaultMaxFetch caps the size of a remote file copied into memory.
const DefaultMaxFetch = 256 << 20

// SSHConfig describes how to reach the instrument PC that stores raw files.
type SSHConfig struct {
	Host     string
	User     string
	Password string
	KeyPath  string
	Port     int
	// KnownHostsPath enables host key verification. Empty accepts any key.
	KnownHostsPath string
	Timeout        time.Duration
	MaxBytes       int64
}

// SSHFetcher copies remote files into memory over an SSH exec session.
type SSHFetcher struct {
	mu     sync.Mutex
	cfg    SSHConfig
	client *ssh.Client
	logger logging.Logger
}

// NewSSHFetcher validates configuration and prepares a fetcher. The
// connection is established on first use.
func NewSSHFetcher(cfg SSHConfig, logger logging.Logger) (*SSHFetcher, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("ssh host is required")
	}
	if cfg.User == "" {
		cfg.User = "root"
	}
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxFetch
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SSHFetcher{
		cfg:    cfg,
		logger: logger.With(logging.Field{Key: "subsystem", Value: "source"}, logging.Field{Key: "host", Value: cfg.Host}),
	}, nil
}

// Fetch reads the remote file at path and returns it as a seekable input.
func (f *SSHFetcher) Fetch(ctx context.Context, path string) (*Input, error) {
	client, err := f.dial(ctx)
	if err != nil {
		return nil, err
	}

	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("create ssh session: %w", err)
	}
	defer session.Close()

	stdout, err := session.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ssh stdout: %w", err)
	}
	var stderr bytes.Buffer
	session.Stderr = &stderr

	if err := session.Start("cat -- " + shellQuote(path)); err != nil {
		return nil, fmt.Errorf("start remote read: %w", err)
	}
	data, err := io.ReadAll(io.LimitReader(stdout, f.cfg.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read remote file: %w", err)
	}
	if int64(len(data)) > f.cfg.MaxBytes {
		return nil, fmt.Errorf("remote file %s exceeds %d bytes", path, f.cfg.MaxBytes)
	}
	if err := session.Wait(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("remote read %s: %w: %s", path, err, msg)
		}
		return nil, fmt.Errorf("remote read %s: %w", path, err)
	}

	f.logger.Info("fetched remote file", logging.Field{Key: "path", Value: path}, logging.Field{Key: "bytes", Value: len(data)})
	return &Input{
		ReadSeeker: bytes.NewReader(data),
		Name:       path,
		Size:       int64(len(data)),
	}, nil
}

// Close tears down the cached connection.
func (f *SSHFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.client == nil {
		return nil
	}
	err := f.client.Close()
	f.client = nil
	return err
}

func (f *SSHFetcher) dial(ctx context.Context) (*ssh.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client != nil {
		return f.client, nil
	}

	auth := []ssh.AuthMethod{}
	if f.cfg.Password != "" {
		auth = append(auth, ssh.Password(f.cfg.Password))
	}
	if f.cfg.KeyPath != "" {
		key, err := os.ReadFile(f.cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("read ssh key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse ssh key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("no ssh password or key configured")
	}

	hostKey := ssh.InsecureIgnoreHostKey()
	if f.cfg.KnownHostsPath == "" {
		f.logger.Warn("ssh host key checking disabled, set a known_hosts file to enable it")
	} else {
		cb, err := knownhosts.New(f.cfg.KnownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("load known hosts: %w", err)
		}
		hostKey = cb
	}

	config := &ssh.ClientConfig{
		User:            f.cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         f.cfg.Timeout,
	}

	addr := net.JoinHostPort(f.cfg.Host, fmt.Sprint(f.cfg.Port))
	dialer := net.Dialer{Timeout: f.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial ssh: %w", err)
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create ssh client: %w", err)
	}

	f.client = ssh.NewClient(clientConn, chans, reqs)
	f.logger.Debug("ssh connected", logging.Field{Key: "addr", Value: addr})
	return f.client, nil
}

// shellQuote wraps value in single quotes with embedded quotes escaped.
func shellQuote(value string) string {
	escaped := strings.ReplaceAll(value, "'", "'\\''")
	return fmt.Sprintf("'%s'", escaped)
}
