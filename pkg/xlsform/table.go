package xlsform

import (
	"sort"
	"strconv"
	"strings"
)

// Value is a single cell. The zero Value is an empty cell.
type Value struct {
	Text    string
	Numeric bool
}

// Text wraps a literal string cell.
func Text(s string) Value {
	return Value{Text: s}
}

// Number wraps a numeric cell using the shortest decimal representation.
func Number(f float64) Value {
	return Value{Text: strconv.FormatFloat(f, 'f', -1, 64), Numeric: true}
}

// Int wraps an integral numeric cell.
func Int(n int) Value {
	return Value{Text: strconv.Itoa(n), Numeric: true}
}

// IsEmpty reports whether the cell is absent or holds only whitespace.
func (v Value) IsEmpty() bool {
	return strings.TrimSpace(v.Text) == ""
}

// String returns the cell text trimmed of surrounding whitespace.
func (v Value) String() string {
	return strings.TrimSpace(v.Text)
}

// Float parses numeric cells. Non-numeric cells report false.
func (v Value) Float() (float64, bool) {
	if !v.Numeric {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Row maps column names to cell values. Missing keys read as empty cells.
type Row map[string]Value

// Get returns the value stored under column, or the empty Value.
func (r Row) Get(column string) Value {
	if r == nil {
		return Value{}
	}
	return r[column]
}

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered header plus ordered rows. Methods never mutate the
// receiver's rows in place; they return fresh Tables.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable returns an empty table carrying the provided header.
func NewTable(columns ...string) Table {
	return Table{Columns: append([]string(nil), columns...)}
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// HasColumn reports whether name is part of the header.
func (t Table) HasColumn(name string) bool {
	for _, column := range t.Columns {
		if column == name {
			return true
		}
	}
	return false
}

// Clone deep-copies the header and every row.
func (t Table) Clone() Table {
	out := Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = row.Clone()
	}
	return out
}

// WithColumn returns a copy of the table whose header includes name.
func (t Table) WithColumn(name string) Table {
	out := t.Clone()
	if !out.HasColumn(name) {
		out.Columns = append(out.Columns, name)
	}
	return out
}

// Append returns a copy of the table with rows added at the end. Columns the
// rows carry that the header lacks are appended in lexical order.
func (t Table) Append(rows ...Row) Table {
	out := t.Clone()
	for _, row := range rows {
		out.Columns = mergeColumns(out.Columns, row)
		out.Rows = append(out.Rows, row.Clone())
	}
	return out
}

// Insert returns a copy of the table with rows placed before index at. An
// index past the end appends.
func (t Table) Insert(at int, rows ...Row) Table {
	block := Table{Rows: rows}
	for _, row := range rows {
		block.Columns = mergeColumns(block.Columns, row)
	}
	return t.Splice(at, block)
}

// Splice returns a copy of the table with the rows of block placed before
// index at. Columns only block carries follow the receiver's header in
// block order.
func (t Table) Splice(at int, block Table) Table {
	if at < 0 {
		at = 0
	}
	if at > len(t.Rows) {
		at = len(t.Rows)
	}
	head := Table{Columns: t.Columns, Rows: t.Rows[:at]}
	tail := Table{Columns: t.Columns, Rows: t.Rows[at:]}
	return Concat(head, block, tail)
}

// Filter returns the rows for which keep reports true, in their original
// order. The header is preserved.
func (t Table) Filter(keep func(Row) bool) Table {
	out := Table{Columns: append([]string(nil), t.Columns...)}
	for _, row := range t.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row.Clone())
		}
	}
	return out
}

// Map returns a copy of the table with fn applied to a clone of every row.
// Columns introduced by fn join the header in lexical order.
func (t Table) Map(fn func(Row) Row) Table {
	out := Table{Columns: append([]string(nil), t.Columns...)}
	for _, row := range t.Rows {
		mapped := fn(row.Clone())
		out.Columns = mergeColumns(out.Columns, mapped)
		out.Rows = append(out.Rows, mapped)
	}
	return out
}

// IndexOf returns the position of the first row whose column equals value,
// or -1.
func (t Table) IndexOf(column, value string) int {
	for i, row := range t.Rows {
		if row.Get(column).String() == value {
			return i
		}
	}
	return -1
}

// Values returns the trimmed text of column for every row.
func (t Table) Values(column string) []string {
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row.Get(column).String()
	}
	return out
}

// FirstDuplicate returns the first non-empty value of column that an earlier
// row already holds.
func (t Table) FirstDuplicate(column string) (string, bool) {
	seen := make(map[string]struct{}, len(t.Rows))
	for _, value := range t.Values(column) {
		if value == "" {
			continue
		}
		if _, dup := seen[value]; dup {
			return value, true
		}
		seen[value] = struct{}{}
	}
	return "", false
}

// SetAll returns a copy of the table with column set to value on every row.
func (t Table) SetAll(column string, value Value) Table {
	out := t.WithColumn(column)
	for _, row := range out.Rows {
		row[column] = value
	}
	return out
}

// SetAt returns a copy of the table with column set to value on row i.
func (t Table) SetAt(i int, column string, value Value) Table {
	out := t.WithColumn(column)
	if i >= 0 && i < len(out.Rows) {
		out.Rows[i][column] = value
	}
	return out
}

// Concat stacks tables in argument order. The resulting header is the union
// of all headers in first-seen order; rows keep their relative order and
// cells for columns a source table lacked stay empty.
func Concat(tables ...Table) Table {
	var out Table
	seen := make(map[string]struct{})
	for _, table := range tables {
		for _, column := range table.Columns {
			if _, ok := seen[column]; ok {
				continue
			}
			seen[column] = struct{}{}
			out.Columns = append(out.Columns, column)
		}
	}
	for _, table := range tables {
		for _, row := range table.Rows {
			out.Rows = append(out.Rows, row.Clone())
		}
	}
	return out
}

func mergeColumns(columns []string, row Row) []string {
	var extra []string
	for key := range row {
		found := false
		for _, column := range columns {
			if column == key {
				found = true
				break
			}
		}
		if !found {
			extra = append(extra, key)
		}
	}
	if len(extra) == 0 {
		return columns
	}
	sort.Strings(extra)
	return append(append([]string(nil), columns...), extra...)
}
