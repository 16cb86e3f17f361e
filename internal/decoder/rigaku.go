package decoder

import (
	"bytes"
	"io"
)

// rigakuSignature opens every Rigaku .dat file.
var rigakuSignature = []byte("*TYPE")

// IsRigakuDAT reports whether r starts with the Rigaku .dat signature.
// Rigaku files are text that tokenizes into numbers, so the generic text
// format must reject them. r is left at offset 0.
func IsRigakuDAT(r io.ReadSeeker) bool {
	head, ok := peek(r, len(rigakuSignature))
	if !ok {
		return false
	}
	return bytes.Equal(head, rigakuSignature)
}
