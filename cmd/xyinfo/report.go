package main

import (
	"fmt"
	"io"

	"github.com/rjboer/goxylib/internal/xy"
)

type fileReport struct {
	File        string        `json:"file"`
	Format      string        `json:"format"`
	Description string        `json:"description"`
	Ranges      []rangeReport `json:"ranges"`
}

type metaEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type stddevRef struct {
	Column int `json:"column"`
	Of     int `json:"of"`
}

type rangeReport struct {
	Points  int                `json:"points"`
	Meta    []metaEntry        `json:"meta"`
	Stddev  *stddevRef         `json:"stddev,omitempty"`
	Columns []xy.ColumnSummary `json:"columns"`
	Values  [][]float64        `json:"values,omitempty"`
}

func buildReport(name string, info xy.FormatInfo, ds *xy.Dataset, withValues bool) fileReport {
	rep := fileReport{File: name, Format: info.Name, Description: info.Description}
	for _, rg := range ds.Ranges {
		rr := rangeReport{Points: rg.Len(), Columns: xy.Summarize(rg)}
		for _, k := range rg.Meta.Keys() {
			v, _ := rg.Meta.Get(k)
			rr.Meta = append(rr.Meta, metaEntry{Key: k, Value: v})
		}
		if col, of, ok := rg.Stddev(); ok {
			rr.Stddev = &stddevRef{Column: col, Of: of}
		}
		if withValues {
			for _, c := range rg.Columns() {
				rr.Values = append(rr.Values, xy.Values(c))
			}
		}
		rep.Ranges = append(rep.Ranges, rr)
	}
	return rep
}

func writeText(w io.Writer, rep fileReport) {
	fmt.Fprintf(w, "%s: %s (%s), %d range(s)\n", rep.File, rep.Format, rep.Description, len(rep.Ranges))
	for i, rr := range rep.Ranges {
		fmt.Fprintf(w, "  range %d: %d points, %d columns\n", i, rr.Points, len(rr.Columns))
		for _, m := range rr.Meta {
			fmt.Fprintf(w, "    %s = %s\n", m.Key, m.Value)
		}
		for _, c := range rr.Columns {
			fmt.Fprintf(w, "    column %d (%s): min=%g max=%g mean=%g stddev=%g\n", c.Index, c.Role, c.Min, c.Max, c.Mean, c.StdDev)
			if c.NonFinite > 0 {
				fmt.Fprintf(w, "    column %d: %d non-finite value(s) skipped\n", c.Index, c.NonFinite)
			}
		}
		if rr.Stddev != nil {
			fmt.Fprintf(w, "    column %d is the stddev of column %d\n", rr.Stddev.Column, rr.Stddev.Of)
		}
	}
}
