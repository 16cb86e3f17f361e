package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rjboer/goxylib/internal/decoder"
	"github.com/rjboer/goxylib/internal/logging"
)

func noEnv(string) (string, bool) { return "", false }

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := parseConfig([]string{"a.txt"}, noEnv, persistentConfig{})
	if err != nil {
		t.Fatalf("parseConfig failed: %v", err)
	}
	if cfg.logLevel != "warn" || cfg.logFormat != "text" || cfg.maxPoints != decoder.DefaultMaxPoints || cfg.timeout != 30*time.Second {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
	if len(cfg.inputs) != 1 || cfg.inputs[0] != "a.txt" {
		t.Fatalf("unexpected inputs: %v", cfg.inputs)
	}
}

func TestParseConfigLayering(t *testing.T) {
	env := map[string]string{
		"XY_LOG_LEVEL":  "debug",
		"XY_MAX_POINTS": "100",
		"XY_JSON":       "true",
		"XY_SSH_PORT":   "not-a-number",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	file := persistentConfig{LogLevel: "error", SSHUser: "xrd", SSHPort: 2222, Timeout: "5s"}

	cfg, err := parseConfig([]string{"-format", "text", "a.txt", "b.raw"}, lookup, file)
	if err != nil {
		t.Fatalf("parseConfig failed: %v", err)
	}
	if cfg.logLevel != "debug" || cfg.maxPoints != 100 || !cfg.jsonOut {
		t.Fatalf("env overrides not applied: %#v", cfg)
	}
	if cfg.sshUser != "xrd" || cfg.sshPort != 2222 || cfg.timeout != 5*time.Second {
		t.Fatalf("file defaults not applied: %#v", cfg)
	}
	if cfg.format != "text" || len(cfg.inputs) != 2 {
		t.Fatalf("flags not applied: %#v", cfg)
	}
}

func TestParseConfigRequiresInput(t *testing.T) {
	if _, err := parseConfig(nil, noEnv, persistentConfig{}); err == nil {
		t.Fatalf("expected error without inputs")
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil || cfg != (persistentConfig{}) {
		t.Fatalf("empty path should give defaults: %#v %v", cfg, err)
	}

	path := filepath.Join(t.TempDir(), "xyinfo.json")
	if err := os.WriteFile(path, []byte(`{"log_level":"info","max_points":42}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err = loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.LogLevel != "info" || cfg.MaxPoints != 42 {
		t.Fatalf("unexpected config %#v", cfg)
	}
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func TestRunText(t *testing.T) {
	path := writeInput(t, "pattern.dat", "# 2theta counts sigma\n10 100 10\n20 400 20\n")
	cfg, err := parseConfig([]string{path}, noEnv, persistentConfig{})
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}

	var out bytes.Buffer
	if err := run(context.Background(), cfg, &out, logging.New(logging.Error, logging.Text, io.Discard)); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	for _, want := range []string{"text (the ascii plain text format), 1 range(s)", "range 0: 2 points, 3 columns", "column 2 is the stddev of column 1", "min=100 max=400 mean=250"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunJSON(t *testing.T) {
	path := writeInput(t, "pattern.txt", "1 2\n3 4\n5 6\n")
	cfg, err := parseConfig([]string{"-json", "-values", path}, noEnv, persistentConfig{})
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}

	var out bytes.Buffer
	if err := run(context.Background(), cfg, &out, logging.New(logging.Error, logging.Text, io.Discard)); err != nil {
		t.Fatalf("run: %v", err)
	}
	var reports []fileReport
	if err := json.Unmarshal(out.Bytes(), &reports); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(reports) != 1 || len(reports[0].Ranges) != 1 {
		t.Fatalf("unexpected report %+v", reports)
	}
	rr := reports[0].Ranges[0]
	if rr.Points != 3 || len(rr.Values) != 2 || rr.Values[1][2] != 6 || rr.Stddev != nil {
		t.Fatalf("unexpected range report %+v", rr)
	}
}

// rawFile encodes a single-range DIFFRAC-AT v1 file starting at 10 with step 0.5.
func rawFile(y ...float32) []byte {
	le := binary.LittleEndian
	hdr := make([]byte, 156)
	copy(hdr, "RAW ")
	le.PutUint32(hdr[4:], uint32(len(y)))
	le.PutUint32(hdr[12:], math.Float32bits(0.5))
	le.PutUint32(hdr[24:], math.Float32bits(10))
	copy(hdr[40:], "corundum")
	out := hdr
	for _, v := range y {
		out = le.AppendUint32(out, math.Float32bits(v))
	}
	return out
}

func TestRunJSONNonFiniteRaw(t *testing.T) {
	nan := float32(math.NaN())
	path := writeInput(t, "scan.raw", string(rawFile(1, nan, 3, float32(math.Inf(1)))))
	cfg, err := parseConfig([]string{"-json", path}, noEnv, persistentConfig{})
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}

	var out bytes.Buffer
	if err := run(context.Background(), cfg, &out, logging.New(logging.Error, logging.Text, io.Discard)); err != nil {
		t.Fatalf("run: %v", err)
	}
	var reports []fileReport
	if err := json.Unmarshal(out.Bytes(), &reports); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out.String())
	}
	if len(reports) != 1 || reports[0].Format != "diffracat_v1_raw" || len(reports[0].Ranges) != 1 {
		t.Fatalf("unexpected report %+v", reports)
	}
	cols := reports[0].Ranges[0].Columns
	if len(cols) != 2 {
		t.Fatalf("expected 2 columns, got %+v", cols)
	}
	y := cols[1]
	if y.Len != 4 || y.NonFinite != 2 || y.Min != 1 || y.Max != 3 || y.Mean != 2 {
		t.Fatalf("unexpected y summary %+v", y)
	}
}

func TestRunWarnsOnExtensionMismatch(t *testing.T) {
	path := writeInput(t, "pattern.raw", "1 2\n3 4\n")
	cfg, err := parseConfig([]string{path}, noEnv, persistentConfig{})
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	var logs bytes.Buffer
	if err := run(context.Background(), cfg, io.Discard, logging.New(logging.Warn, logging.Text, &logs)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(logs.String(), "extension does not match") {
		t.Fatalf("expected extension warning, got %q", logs.String())
	}
}

func TestRunErrors(t *testing.T) {
	bad := writeInput(t, "bad.txt", "1 2\n3\n")
	cfg, err := parseConfig([]string{bad}, noEnv, persistentConfig{})
	if err != nil {
		t.Fatalf("parseConfig: %v", err)
	}
	err = run(context.Background(), cfg, io.Discard, logging.New(logging.Error, logging.Text, io.Discard))
	if err == nil || !strings.Contains(err.Error(), "only one number") {
		t.Fatalf("expected format error, got %v", err)
	}

	cfg.format = "nope"
	if err := run(context.Background(), cfg, io.Discard, logging.New(logging.Error, logging.Text, io.Discard)); err == nil {
		t.Fatalf("expected unknown format error")
	}
}
