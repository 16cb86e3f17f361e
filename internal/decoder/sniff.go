package decoder

import (
	"errors"
	"io"
)

// maxSniff bounds how much of a stream any detector may look at.
const maxSniff = 64

// peek reads up to n bytes from offset 0 and rewinds r to offset 0.
// ok is false on any seek or read error other than a short stream.
func peek(r io.ReadSeeker, n int) (head []byte, ok bool) {
	if n > maxSniff {
		n = maxSniff
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, false
	}
	defer r.Seek(0, io.SeekStart)

	buf := make([]byte, n)
	m, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, false
	}
	return buf[:m], true
}
