package xy

import "strings"

// FormatID identifies a supported file type.
type FormatID int

const (
	FormatUnknown FormatID = iota
	FormatBrukerRawV1
	FormatText
)

// FormatInfo is the static description of a file type. Decoders expose one
// for drivers; they never consult it while decoding.
type FormatInfo struct {
	ID          FormatID
	Name        string
	Description string
	Extensions  []string
	Binary      bool
	MultiRange  bool
}

// HasExtension reports whether ext (with or without the dot, any case) belongs to the format.
func (f FormatInfo) HasExtension(ext string) bool {
	ext = strings.TrimPrefix(ext, ".")
	for _, e := range f.Extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}
