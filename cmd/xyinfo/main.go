package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/rjboer/goxylib/internal/decoder"
	"github.com/rjboer/goxylib/internal/logging"
	"github.com/rjboer/goxylib/internal/source"
	"github.com/rjboer/goxylib/internal/xy"
)

func main() {
	persistentCfg, err := loadConfig(envString(os.LookupEnv, "XY_CONFIG", ""))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	cfg, err := parseConfig(os.Args[1:], os.LookupEnv, persistentCfg)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("parse config: %v", err)
	}

	level, err := logging.ParseLevel(cfg.logLevel)
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}
	format, err := logging.ParseFormat(cfg.logFormat)
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}
	logging.SetDefault(logging.New(level, format, os.Stderr))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	if err := run(ctx, cfg, os.Stdout, logging.Default()); err != nil {
		log.Fatal(err)
	}
}

type cliConfig struct {
	logLevel    string
	logFormat   string
	format      string
	maxPoints   int
	jsonOut     bool
	values      bool
	sshUser     string
	sshPassword string
	sshKeyPath  string
	sshPort     int
	knownHosts  string
	timeout     time.Duration
	inputs      []string
}

type persistentConfig struct {
	LogLevel    string `json:"log_level"`
	LogFormat   string `json:"log_format"`
	Format      string `json:"format"`
	MaxPoints   int    `json:"max_points"`
	JSON        bool   `json:"json"`
	SSHUser     string `json:"ssh_user"`
	SSHPassword string `json:"ssh_password"`
	SSHKeyPath  string `json:"ssh_key_path"`
	SSHPort     int    `json:"ssh_port"`
	KnownHosts  string `json:"known_hosts"`
	Timeout     string `json:"timeout"`
}

func parseConfig(args []string, lookup func(string) (string, bool), defaults persistentConfig) (cliConfig, error) {
	cfg := cliConfig{}
	defTimeout, err := time.ParseDuration(orDefault(defaults.Timeout, "30s"))
	if err != nil {
		return cliConfig{}, fmt.Errorf("invalid timeout %q: %w", defaults.Timeout, err)
	}

	fs := flag.NewFlagSet("xyinfo", flag.ContinueOnError)
	fs.StringVar(&cfg.logLevel, "log-level", envString(lookup, "XY_LOG_LEVEL", orDefault(defaults.LogLevel, "warn")), "Log level (debug|info|warn|error)")
	fs.StringVar(&cfg.logFormat, "log-format", envString(lookup, "XY_LOG_FORMAT", orDefault(defaults.LogFormat, "text")), "Log format (text|json)")
	fs.StringVar(&cfg.format, "format", envString(lookup, "XY_FORMAT", defaults.Format), "Force a format by name instead of detecting it")
	fs.IntVar(&cfg.maxPoints, "max-points", envInt(lookup, "XY_MAX_POINTS", orDefaultInt(defaults.MaxPoints, decoder.DefaultMaxPoints)), "Maximum points per binary range")
	fs.BoolVar(&cfg.jsonOut, "json", envBool(lookup, "XY_JSON", defaults.JSON), "Print JSON instead of a text summary")
	fs.BoolVar(&cfg.values, "values", false, "Include column values in JSON output")
	fs.StringVar(&cfg.sshUser, "ssh-user", envString(lookup, "XY_SSH_USER", defaults.SSHUser), "SSH user for ssh:// inputs")
	fs.StringVar(&cfg.sshPassword, "ssh-password", envString(lookup, "XY_SSH_PASSWORD", defaults.SSHPassword), "SSH password for ssh:// inputs")
	fs.StringVar(&cfg.sshKeyPath, "ssh-key", envString(lookup, "XY_SSH_KEY", defaults.SSHKeyPath), "SSH private key for ssh:// inputs")
	fs.IntVar(&cfg.sshPort, "ssh-port", envInt(lookup, "XY_SSH_PORT", defaults.SSHPort), "SSH port when the URI has none")
	fs.StringVar(&cfg.knownHosts, "known-hosts", envString(lookup, "XY_KNOWN_HOSTS", defaults.KnownHosts), "known_hosts file for host key checks")
	fs.DurationVar(&cfg.timeout, "timeout", envDuration(lookup, "XY_TIMEOUT", defTimeout), "Overall timeout")

	if err := fs.Parse(args); err != nil {
		return cliConfig{}, err
	}
	cfg.inputs = fs.Args()
	if len(cfg.inputs) == 0 {
		return cliConfig{}, fmt.Errorf("no input files given")
	}
	return cfg, nil
}

// loadConfig reads an optional JSON config file. An empty path yields defaults.
func loadConfig(path string) (persistentConfig, error) {
	if path == "" {
		return persistentConfig{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return persistentConfig{}, err
	}
	defer f.Close()

	var cfg persistentConfig
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return persistentConfig{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg, nil
}

func run(ctx context.Context, cfg cliConfig, out io.Writer, logger logging.Logger) error {
	reg := decoder.NewRegistry(logger, decoder.BrukerRawV1{MaxPoints: cfg.maxPoints}, decoder.Text{})
	sshCfg := source.SSHConfig{
		User:           cfg.sshUser,
		Password:       cfg.sshPassword,
		KeyPath:        cfg.sshKeyPath,
		Port:           cfg.sshPort,
		KnownHostsPath: cfg.knownHosts,
	}

	var reports []fileReport
	for _, name := range cfg.inputs {
		rep, err := inspect(ctx, reg, name, sshCfg, cfg, logger)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		reports = append(reports, rep)
	}

	if cfg.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}
	for _, rep := range reports {
		writeText(out, rep)
	}
	return nil
}

func inspect(ctx context.Context, reg *decoder.Registry, name string, sshCfg source.SSHConfig, cfg cliConfig, logger logging.Logger) (fileReport, error) {
	loc, err := source.ParseLocation(name)
	if err != nil {
		return fileReport{}, err
	}
	in, err := source.Open(ctx, loc, sshCfg, logger)
	if err != nil {
		return fileReport{}, err
	}
	defer in.Close()

	var ds *xy.Dataset
	var info xy.FormatInfo
	if cfg.format != "" {
		f, ok := reg.ByName(cfg.format)
		if !ok {
			return fileReport{}, fmt.Errorf("unknown format %q", cfg.format)
		}
		info = f.Info()
		ds, err = reg.LoadAs(in, cfg.format)
	} else {
		var f decoder.Format
		ds, f, err = reg.Load(in)
		if f != nil {
			info = f.Info()
		}
	}
	if err != nil {
		return fileReport{}, err
	}
	if ext := in.Ext(); ext != "" && !info.HasExtension(ext) {
		logger.Warn("extension does not match detected format",
			logging.Field{Key: "file", Value: name},
			logging.Field{Key: "ext", Value: ext},
			logging.Field{Key: "format", Value: info.Name})
	}
	return buildReport(name, info, ds, cfg.values), nil
}

func envString(lookup func(string) (string, bool), key, def string) string {
	if val, ok := lookup(key); ok {
		return val
	}
	return def
}

func envInt(lookup func(string) (string, bool), key string, def int) int {
	if val, ok := lookup(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func envBool(lookup func(string) (string, bool), key string, def bool) bool {
	if val, ok := lookup(key); ok {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return def
}

func envDuration(lookup func(string) (string, bool), key string, def time.Duration) time.Duration {
	if val, ok := lookup(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return def
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
