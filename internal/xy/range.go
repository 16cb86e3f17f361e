package xy

import "fmt"

// Role tags the purpose of a column inside a Range.
type Role int

const (
	RoleNone Role = iota
	RoleX
	RoleY
)

func (r Role) String() string {
	switch r {
	case RoleX:
		return "x"
	case RoleY:
		return "y"
	default:
		return "none"
	}
}

// Range is one scan of a file: ordered columns plus metadata.
type Range struct {
	Meta Meta

	columns []Column
	roles   []Role

	stddevCol int
	stddevOf  int
	hasStddev bool
}

// NewRange returns an empty range.
func NewRange() *Range {
	return &Range{}
}

// AddColumn appends c to the range and returns its index.
func (r *Range) AddColumn(c Column, role Role) int {
	r.columns = append(r.columns, c)
	r.roles = append(r.roles, role)
	return len(r.columns) - 1
}

// Columns returns the columns in insertion order.
func (r *Range) Columns() []Column {
	out := make([]Column, len(r.columns))
	copy(out, r.columns)
	return out
}

func (r *Range) NumColumns() int { return len(r.columns) }

// Column returns the column at index i, or nil when out of bounds.
func (r *Range) Column(i int) Column {
	if i < 0 || i >= len(r.columns) {
		return nil
	}
	return r.columns[i]
}

// Role returns the role of column i.
func (r *Range) Role(i int) Role {
	if i < 0 || i >= len(r.roles) {
		return RoleNone
	}
	return r.roles[i]
}

// X returns the column tagged RoleX, or column 0 if no column carries the role.
func (r *Range) X() Column { return r.byRole(RoleX, 0) }

// Y returns the column tagged RoleY, or column 1 if no column carries the role.
func (r *Range) Y() Column { return r.byRole(RoleY, 1) }

func (r *Range) byRole(role Role, fallback int) Column {
	for i, rl := range r.roles {
		if rl == role {
			return r.columns[i]
		}
	}
	return r.Column(fallback)
}

// SetStddev designates column col as the standard deviation of column of.
func (r *Range) SetStddev(col, of int) error {
	if col < 0 || col >= len(r.columns) || of < 0 || of >= len(r.columns) {
		return fmt.Errorf("stddev column %d of %d out of range (%d columns)", col, of, len(r.columns))
	}
	if col == of {
		return fmt.Errorf("column %d cannot be its own stddev", col)
	}
	r.stddevCol, r.stddevOf, r.hasStddev = col, of, true
	return nil
}

// Stddev returns the designated stddev column index and the column it describes.
func (r *Range) Stddev() (col, of int, ok bool) {
	return r.stddevCol, r.stddevOf, r.hasStddev
}

// Len returns the common column length, or 0 for a range without columns.
func (r *Range) Len() int {
	if len(r.columns) == 0 {
		return 0
	}
	return r.columns[0].Len()
}

// Validate checks that every column has the same length.
func (r *Range) Validate() error {
	n := r.Len()
	for i, c := range r.columns {
		if c.Len() != n {
			return fmt.Errorf("column %d has %d values, column 0 has %d", i, c.Len(), n)
		}
	}
	return nil
}
