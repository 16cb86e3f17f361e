package decoder

import (
	"bufio"
	"io"
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/rjboer/goxylib/internal/xy"
)

// maxTextLine bounds the length of a single text line.
const maxTextLine = 1 << 20

var textInfo = xy.FormatInfo{
	ID:          xy.FormatText,
	Name:        "text",
	Description: "the ascii plain text format",
	Extensions:  []string{"txt", "dat", "asc", "csv"},
	Binary:      false,
	MultiRange:  false,
}

// Text decodes whitespace or , : ; delimited numeric columns:
//
//	; Sample: quartz powder
//	38.834110      361
//	38.872800  ,   318       # trailing text is ignored
//
// Any line holding numbers is data, so a header such as "date: 2000/12/31
// 21:32" yields the row (21, 32). Every data line must carry the same
// number of values, at least two. With three or more columns, column 2 is
// the stddev of column 1. Input without data lines decodes to a single
// range with no columns.
type Text struct{}

func (Text) Info() xy.FormatInfo { return textInfo }

// Check accepts anything that is not a Rigaku .dat file.
func (Text) Check(r io.ReadSeeker) bool {
	if IsRigakuDAT(r) {
		return false
	}
	_, err := r.Seek(0, io.SeekStart)
	return err == nil
}

func (t Text) Decode(r io.ReadSeeker) (*xy.Dataset, error) {
	name := textInfo.Name
	if !t.Check(r) {
		return nil, xy.Errorf(name, xy.KindMismatch, "file is not the expected %s format", textInfo.Description)
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxTextLine)

	rg := xy.NewRange()
	var cols []*xy.VecColumn
	var row []float64
	lineNo := 0
	for sc.Scan() {
		lineNo++
		row = slices.AppendSeq(row[:0], numbers(sc.Text()))
		switch {
		case len(row) == 0:
			continue
		case len(row) == 1:
			return nil, xy.Errorf(name, xy.KindFormat, "line %d: only one number in a line", lineNo)
		case cols == nil:
			cols = make([]*xy.VecColumn, len(row))
			for i := range cols {
				cols[i] = xy.NewVecColumn(0)
				rg.AddColumn(cols[i], xy.RoleNone)
			}
		case len(row) != len(cols):
			return nil, xy.Errorf(name, xy.KindFormat, "line %d: number of columns differs: expected %d, got %d", lineNo, len(cols), len(row))
		}
		for i, v := range row {
			cols[i].Append(v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, xy.Wrap(name, xy.KindFormat, err, "line %d: read failed", lineNo+1)
	}
	// Fixed convention: the third column holds the stddev of the second.
	if len(cols) >= 3 {
		if err := rg.SetStddev(2, 1); err != nil {
			return nil, xy.Wrap(name, xy.KindFormat, err, "stddev column")
		}
	}

	ds := &xy.Dataset{}
	ds.Add(rg)
	return ds, nil
}

// numbers yields, lazily and once, every numeric token of line. Tokens are
// separated by whitespace, ',', ':' or ';'; non-numeric tokens are skipped.
func numbers(line string) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		for _, tok := range strings.FieldsFunc(line, isDelimiter) {
			v, ok := parseNumber(tok)
			if !ok {
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}

func isDelimiter(r rune) bool {
	switch r {
	case ' ', '\t', '\r', '\n', '\v', '\f', ',', ':', ';':
		return true
	}
	return false
}

// parseNumber accepts decimal literals only, so words such as "nan" or
// "Infinity" in comments never count as data.
func parseNumber(tok string) (float64, bool) {
	s := tok
	if s != "" && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	if s == "" || !(s[0] == '.' || ('0' <= s[0] && s[0] <= '9')) {
		return 0, false
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
