// Package entity holds the schema-less attribute tables returned by router
// management queries.
package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateAttribute is returned when an attribute name appears twice.
	ErrDuplicateAttribute = errors.New("entity: duplicate attribute")

	// ErrUnknownAttribute is returned when a derived field names a source
	// attribute the table does not have.
	ErrUnknownAttribute = errors.New("entity: unknown attribute")

	// ErrRowLength is returned when a row does not carry one value per attribute.
	ErrRowLength = errors.New("entity: row length does not match attribute count")
)

// Table is the result of one management query: an ordered list of attribute
// names and a row-major list of values. Column order is fixed at creation;
// the only mutations append columns to every row.
//
// A Table belongs to the collection pass that fetched it and is not safe for
// concurrent use.
type Table struct {
	names []string
	index map[string]int
	rows  [][]any
}

// NewTable builds a Table and its attribute index. The rows are owned by the
// table afterwards.
func NewTable(names []string, rows [][]any) (*Table, error) {
	t := &Table{
		names: make([]string, 0, len(names)),
		index: make(map[string]int, len(names)),
		rows:  rows,
	}
	for _, name := range names {
		if err := t.addName(name); err != nil {
			return nil, err
		}
	}
	for i, row := range rows {
		if len(row) != len(names) {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrRowLength, i, len(row), len(names))
		}
	}
	return t, nil
}

func (t *Table) addName(name string) error {
	if _, ok := t.index[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateAttribute, name)
	}
	t.index[name] = len(t.names)
	t.names = append(t.names, name)
	return nil
}

// AttributeNames returns a copy of the attribute names in column order.
func (t *Table) AttributeNames() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Index returns the column index of the named attribute.
func (t *Table) Index(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns the i-th row.
func (t *Table) Row(i int) Row {
	return Row{table: t, values: t.rows[i]}
}

// Rows returns every row in order.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	for i, values := range t.rows {
		out[i] = Row{table: t, values: values}
	}
	return out
}

// AppendConstantField adds a column holding value on every row.
func (t *Table) AppendConstantField(name string, value any) error {
	if err := t.addName(name); err != nil {
		return err
	}
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], value)
	}
	return nil
}

// AppendDerivedField adds a column computed row by row from the source
// column.
func (t *Table) AppendDerivedField(name, source string, transform func(any) any) error {
	from, ok := t.index[source]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAttribute, source)
	}
	if err := t.addName(name); err != nil {
		return err
	}
	for i, row := range t.rows {
		t.rows[i] = append(row, transform(row[from]))
	}
	return nil
}

// Row is a view of one table row that resolves values by attribute name.
type Row struct {
	table  *Table
	values []any
}

// Get returns the value of the named attribute. ok is false when the table
// has no such attribute; a present attribute may still hold nil.
func (r Row) Get(name string) (value any, ok bool) {
	i, ok := r.table.index[name]
	if !ok {
		return nil, false
	}
	return r.values[i], true
}

// Values returns the row values in column order. The slice is shared with the
// table.
func (r Row) Values() []any {
	return r.values
}
