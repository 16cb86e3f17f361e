// Package decoder turns instrument files into xy datasets. Formats are
// tried in registry order; the first whose signature matches decodes the
// stream.
package decoder

import (
	"io"
	"strings"

	"github.com/rjboer/goxylib/internal/logging"
	"github.com/rjboer/goxylib/internal/xy"
)

// Format is a (detector, decoder) pair for one file type.
//
// Check must leave r at offset 0 whatever it returns. Decode consumes r and
// returns either a complete dataset or an *xy.Error, never both.
type Format interface {
	Info() xy.FormatInfo
	Check(r io.ReadSeeker) bool
	Decode(r io.ReadSeeker) (*xy.Dataset, error)
}

// Registry is a priority-ordered list of formats.
type Registry struct {
	formats []Format
	logger  logging.Logger
}

// NewRegistry builds a registry that tries formats in the given order.
func NewRegistry(logger logging.Logger, formats ...Format) *Registry {
	if logger == nil {
		logger = logging.Default()
	}
	return &Registry{
		formats: formats,
		logger:  logger.With(logging.Field{Key: "subsystem", Value: "decoder"}),
	}
}

// DefaultRegistry returns the built-in formats, most specific first.
func DefaultRegistry(logger logging.Logger) *Registry {
	return NewRegistry(logger, BrukerRawV1{}, Text{})
}

// Formats returns the registered formats in priority order.
func (reg *Registry) Formats() []Format {
	out := make([]Format, len(reg.formats))
	copy(out, reg.formats)
	return out
}

// Detect returns the first format whose signature matches r.
func (reg *Registry) Detect(r io.ReadSeeker) (Format, bool) {
	for _, f := range reg.formats {
		if f.Check(r) {
			reg.logger.Debug("format detected", logging.Field{Key: "format", Value: f.Info().Name})
			return f, true
		}
		reg.logger.Debug("format rejected", logging.Field{Key: "format", Value: f.Info().Name})
	}
	return nil, false
}

// Load detects the format of r and decodes it.
func (reg *Registry) Load(r io.ReadSeeker) (*xy.Dataset, Format, error) {
	f, ok := reg.Detect(r)
	if !ok {
		return nil, nil, xy.Errorf("", xy.KindMismatch, "no registered format matches the input")
	}
	ds, err := reg.decode(f, r)
	if err != nil {
		return nil, f, err
	}
	return ds, f, nil
}

// LoadAs decodes r with the named format, skipping detection.
func (reg *Registry) LoadAs(r io.ReadSeeker, name string) (*xy.Dataset, error) {
	f, ok := reg.ByName(name)
	if !ok {
		return nil, xy.Errorf(name, xy.KindMismatch, "unknown format")
	}
	return reg.decode(f, r)
}

func (reg *Registry) decode(f Format, r io.ReadSeeker) (*xy.Dataset, error) {
	name := f.Info().Name
	ds, err := f.Decode(r)
	if err != nil {
		reg.logger.Warn("decode failed", logging.Field{Key: "format", Value: name}, logging.Field{Key: "error", Value: err.Error()})
		return nil, err
	}
	reg.logger.Info("decoded", logging.Field{Key: "format", Value: name}, logging.Field{Key: "ranges", Value: ds.Len()})
	return ds, nil
}

// ByName returns the format registered under name.
func (reg *Registry) ByName(name string) (Format, bool) {
	for _, f := range reg.formats {
		if strings.EqualFold(f.Info().Name, name) {
			return f, true
		}
	}
	return nil, false
}

// ByExtension returns the formats that claim ext, in priority order.
func (reg *Registry) ByExtension(ext string) []Format {
	var out []Format
	for _, f := range reg.formats {
		if f.Info().HasExtension(ext) {
			out = append(out, f)
		}
	}
	return out
}
