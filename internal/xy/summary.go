package xy

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stat is a summary statistic. Non-finite values marshal as JSON null.
type Stat float64

func (s Stat) MarshalJSON() ([]byte, error) {
	f := float64(s)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

// ColumnSummary holds descriptive statistics of one column.
type ColumnSummary struct {
	Index     int    `json:"index"`
	Role      string `json:"role"`
	Len       int    `json:"len"`
	NonFinite int    `json:"non_finite,omitempty"`
	Min       Stat   `json:"min"`
	Max       Stat   `json:"max"`
	Mean      Stat   `json:"mean"`
	StdDev    Stat   `json:"stddev"`
}

// Summarize computes per-column statistics for r over the finite values of
// each column; NaN and ±Inf are counted in NonFinite. A column without
// finite values reports NaN statistics.
func Summarize(r *Range) []ColumnSummary {
	out := make([]ColumnSummary, 0, r.NumColumns())
	for i, c := range r.columns {
		s := ColumnSummary{Index: i, Role: r.roles[i].String(), Len: c.Len()}
		vals := make([]float64, 0, c.Len())
		for j := range c.Len() {
			v := c.At(j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				s.NonFinite++
				continue
			}
			vals = append(vals, v)
		}
		switch {
		case s.Len == 0:
		case len(vals) == 0:
			nan := Stat(math.NaN())
			s.Min, s.Max, s.Mean, s.StdDev = nan, nan, nan, nan
		default:
			s.Min = Stat(floats.Min(vals))
			s.Max = Stat(floats.Max(vals))
			mean, std := stat.MeanStdDev(vals, nil)
			s.Mean, s.StdDev = Stat(mean), Stat(std)
			if len(vals) == 1 {
				s.StdDev = 0
			}
		}
		out = append(out, s)
	}
	return out
}
