package xy

// Column is one data series of a Range.
type Column interface {
	Len() int
	At(i int) float64
}

// StepColumn is an arithmetic progression stored as (start, step).
// Values are computed on access and never materialized.
type StepColumn struct {
	Start float64
	Step  float64
	N     int
}

// NewStepColumn returns a column of n values start, start+step, ...
func NewStepColumn(start, step float64, n int) *StepColumn {
	if n < 0 {
		n = 0
	}
	return &StepColumn{Start: start, Step: step, N: n}
}

func (c *StepColumn) Len() int { return c.N }

func (c *StepColumn) At(i int) float64 {
	return c.Start + float64(i)*c.Step
}

// VecColumn holds explicitly stored values in append order.
type VecColumn struct {
	values []float64
}

// NewVecColumn returns an empty vector column with room for capacity values.
func NewVecColumn(capacity int) *VecColumn {
	if capacity < 0 {
		capacity = 0
	}
	return &VecColumn{values: make([]float64, 0, capacity)}
}

// Append adds v to the end of the column.
func (c *VecColumn) Append(v float64) {
	c.values = append(c.values, v)
}

func (c *VecColumn) Len() int { return len(c.values) }

func (c *VecColumn) At(i int) float64 { return c.values[i] }

// Values materializes any column into a newly allocated slice.
func Values(c Column) []float64 {
	if c == nil {
		return nil
	}
	if v, ok := c.(*VecColumn); ok {
		out := make([]float64, len(v.values))
		copy(out, v.values)
		return out
	}
	out := make([]float64, c.Len())
	for i := range out {
		out[i] = c.At(i)
	}
	return out
}
