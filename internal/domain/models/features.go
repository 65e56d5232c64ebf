package models

import (
	"fmt"
	"math"

	"github.com/turtacn/pnet/pkg/errors"
)

// FeatureMatrix is an ordered set of named numeric columns. Column order is fixed
// for the whole pipeline and rows correspond 1:1 to a TargetVector.
type FeatureMatrix struct {
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
}

// TargetVector holds the observed risk (e.g. EPSS) for each matrix row.
type TargetVector []float64

// NumRows returns the number of rows.
func (m FeatureMatrix) NumRows() int { return len(m.Rows) }

// NumColumns returns the number of columns.
func (m FeatureMatrix) NumColumns() int { return len(m.Columns) }

// ColumnIndex returns the position of a column, or -1.
func (m FeatureMatrix) ColumnIndex(name string) int {
	for i, c := range m.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column copies one column out of the matrix.
func (m FeatureMatrix) Column(j int) []float64 {
	out := make([]float64, len(m.Rows))
	for i, r := range m.Rows {
		out[i] = r[j]
	}
	return out
}

// Row returns row i as a Row sharing the matrix column schema.
func (m FeatureMatrix) Row(i int) Row {
	values := make([]float64, len(m.Rows[i]))
	copy(values, m.Rows[i])
	return Row{Names: m.Columns, Values: values}
}

// Head returns at most n rows as Row values.
func (m FeatureMatrix) Head(n int) []Row {
	if n > len(m.Rows) || n <= 0 {
		n = len(m.Rows)
	}
	rows := make([]Row, n)
	for i := 0; i < n; i++ {
		rows[i] = m.Row(i)
	}
	return rows
}

// Validate checks the matrix invariants: non-empty, unique non-empty column names,
// rectangular rows and finite values.
func (m FeatureMatrix) Validate() error {
	if len(m.Columns) == 0 {
		return errors.ErrDegenerateInput("feature matrix has no columns")
	}
	if len(m.Rows) == 0 {
		return errors.ErrDegenerateInput("feature matrix has no rows")
	}
	seen := make(map[string]struct{}, len(m.Columns))
	for _, c := range m.Columns {
		if c == "" {
			return errors.ErrConfiguration("feature matrix has an empty column name")
		}
		if _, dup := seen[c]; dup {
			return errors.ErrConfiguration(fmt.Sprintf("duplicate column name: %s", c))
		}
		seen[c] = struct{}{}
	}
	for i, r := range m.Rows {
		if len(r) != len(m.Columns) {
			return errors.ErrDegenerateInput(fmt.Sprintf("row %d has %d values, expected %d", i, len(r), len(m.Columns)))
		}
		for j, v := range r {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.ErrDegenerateInput(fmt.Sprintf("row %d column %s is not finite", i, m.Columns[j]))
			}
		}
	}
	return nil
}

// ValidateTarget checks that the target vector is non-empty and aligned with the matrix.
func (m FeatureMatrix) ValidateTarget(y TargetVector) error {
	if len(y) == 0 {
		return errors.ErrDegenerateInput("target vector is empty")
	}
	if len(y) != len(m.Rows) {
		return errors.ErrDegenerateInput(fmt.Sprintf("target vector has %d entries, feature matrix has %d rows", len(y), len(m.Rows)))
	}
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.ErrDegenerateInput(fmt.Sprintf("target %d is not finite", i))
		}
	}
	return nil
}

// Row is a single feature row. Names is shared and must not be mutated.
type Row struct {
	Names  []string  `json:"names"`
	Values []float64 `json:"values"`
}

// NewRowFromMap builds a row with the given column order, filling absent names with 0.
func NewRowFromMap(columns []string, values map[string]float64) Row {
	out := make([]float64, len(columns))
	for i, c := range columns {
		out[i] = values[c]
	}
	return Row{Names: columns, Values: out}
}

// Index returns the position of name, or -1.
func (r Row) Index(name string) int {
	for i, n := range r.Names {
		if n == name {
			return i
		}
	}
	return -1
}

// Get returns the value of a named feature.
func (r Row) Get(name string) (float64, bool) {
	if i := r.Index(name); i >= 0 {
		return r.Values[i], true
	}
	return 0, false
}

// GetOr returns the value of a named feature or def when absent.
func (r Row) GetOr(name string, def float64) float64 {
	if v, ok := r.Get(name); ok {
		return v
	}
	return def
}

// With returns a copy of the row with one feature overwritten.
func (r Row) With(name string, value float64) (Row, error) {
	i := r.Index(name)
	if i < 0 {
		return Row{}, errors.ErrUnknownFeature(name)
	}
	values := make([]float64, len(r.Values))
	copy(values, r.Values)
	values[i] = value
	return Row{Names: r.Names, Values: values}, nil
}

// Project restricts the row to the given feature names, in that order.
func (r Row) Project(names []string) (Row, error) {
	values := make([]float64, len(names))
	for k, n := range names {
		i := r.Index(n)
		if i < 0 {
			return Row{}, errors.ErrUnknownFeature(n)
		}
		values[k] = r.Values[i]
	}
	return Row{Names: names, Values: values}, nil
}

// AsMap returns the row as a name to value map.
func (r Row) AsMap() map[string]float64 {
	out := make(map[string]float64, len(r.Names))
	for i, n := range r.Names {
		out[n] = r.Values[i]
	}
	return out
}
