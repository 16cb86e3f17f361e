// Package xy holds the in-memory model shared by every decoder: a Dataset
// of Ranges, each made of equally long Columns and ordered metadata.
package xy

// Dataset is the decode target: ranges in file order.
type Dataset struct {
	Ranges []*Range
}

// Clear drops all ranges.
func (d *Dataset) Clear() {
	d.Ranges = nil
}

// Add appends r to the dataset.
func (d *Dataset) Add(r *Range) {
	d.Ranges = append(d.Ranges, r)
}

func (d *Dataset) Len() int { return len(d.Ranges) }

// Range returns the i-th range, or nil when out of bounds.
func (d *Dataset) Range(i int) *Range {
	if i < 0 || i >= len(d.Ranges) {
		return nil
	}
	return d.Ranges[i]
}
