package table

import (
	"fmt"
	"sort"
	"strings"

	"gridauto/internal/coerce"
)

// Column pairs a field name with its declared type.
type Column struct {
	Name string
	Type coerce.FieldType
}

// Table is an ordered set of named, typed columns with equal row counts.
type Table struct {
	columns []Column
	rows    [][]any
}

// New creates an empty table with the given column set.
func New(columns []Column) *Table {
	cols := make([]Column, len(columns))
	copy(cols, columns)
	return &Table{columns: cols}
}

// Columns returns the column definitions in request order.
func (t *Table) Columns() []Column {
	cols := make([]Column, len(t.columns))
	copy(cols, t.columns)
	return cols
}

// ColumnNames returns the column names in request order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int { return len(t.columns) }

// RowCount returns the number of rows.
func (t *Table) RowCount() int { return len(t.rows) }

// Empty reports whether the table holds no rows.
func (t *Table) Empty() bool { return len(t.rows) == 0 }

// AppendRow adds one row of typed values. The row width must match the
// column count.
func (t *Table) AppendRow(values []any) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("row width %d does not match %d columns", len(values), len(t.columns))
	}
	row := make([]any, len(values))
	copy(row, values)
	t.rows = append(t.rows, row)
	return nil
}

// Row returns the i-th row. The returned Row shares the table's column
// definitions for name-based access.
func (t *Table) Row(i int) Row {
	return Row{columns: t.columns, values: t.rows[i]}
}

// Rows returns all rows.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	for i := range t.rows {
		out[i] = t.Row(i)
	}
	return out
}

// ColumnIndex returns the position of the named column, matching
// case-insensitively. The second return is false when the column is absent.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.columns {
		if strings.EqualFold(c.Name, name) {
			return i, true
		}
	}
	return 0, false
}

// SortBy orders rows ascending by the named column. Integer and real
// columns compare numerically, everything else by string form. Tables
// without the column are left untouched.
func (t *Table) SortBy(name string) {
	idx, ok := t.ColumnIndex(name)
	if !ok {
		return
	}
	sort.SliceStable(t.rows, func(i, j int) bool {
		return lessValue(t.rows[i][idx], t.rows[j][idx])
	})
}

func lessValue(a, b any) bool {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		return af < bf
	}
	return coerce.Format(a) < coerce.Format(b)
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	default:
		return 0, false
	}
}

// Row is a single typed record with name-based access to its values.
type Row struct {
	columns []Column
	values  []any
}

// NewRow builds a standalone row, used for single-element results.
func NewRow(columns []Column, values []any) (Row, error) {
	if len(values) != len(columns) {
		return Row{}, fmt.Errorf("row width %d does not match %d columns", len(values), len(columns))
	}
	cols := make([]Column, len(columns))
	copy(cols, columns)
	vals := make([]any, len(values))
	copy(vals, values)
	return Row{columns: cols, values: vals}, nil
}

// Columns returns the row's column definitions.
func (r Row) Columns() []Column { return r.columns }

// Values returns the row's values in column order.
func (r Row) Values() []any {
	vals := make([]any, len(r.values))
	copy(vals, r.values)
	return vals
}

// Value looks up a value by column name, case-insensitively.
func (r Row) Value(name string) (any, bool) {
	for i, c := range r.columns {
		if strings.EqualFold(c.Name, name) {
			return r.values[i], true
		}
	}
	return nil, false
}
