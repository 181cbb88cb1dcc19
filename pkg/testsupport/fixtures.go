package testsupport

import (
	"bytes"
	"context"
	"testing"

	"github.com/goliatone/go-fieldmap/internal/xlsx"
	"github.com/goliatone/go-fieldmap/pkg/xlsform"
)

// Table builds a table from a header and positional string rows. Empty
// strings become absent cells so fixtures read like spreadsheet rows.
func Table(columns []string, rows ...[]string) xlsform.Table {
	table := xlsform.Table{Columns: append([]string(nil), columns...)}
	for _, cells := range rows {
		row := make(xlsform.Row, len(cells))
		for i, cell := range cells {
			if i >= len(columns) || cell == "" {
				continue
			}
			row[columns[i]] = xlsform.Text(cell)
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

// Form builds a form from named tables, preserving argument order.
func Form(sheets ...NamedTable) *xlsform.Form {
	form := xlsform.NewForm()
	for _, sheet := range sheets {
		form.Set(sheet.Name, sheet.Table)
	}
	return form
}

// NamedTable pairs a sheet name with its table for Form.
type NamedTable struct {
	Name  string
	Table xlsform.Table
}

// Sheet is shorthand for NamedTable{name, table}.
func Sheet(name string, table xlsform.Table) NamedTable {
	return NamedTable{Name: name, Table: table}
}

// MustSheet returns the named sheet or fails the test.
func MustSheet(t *testing.T, form *xlsform.Form, name string) xlsform.Table {
	t.Helper()

	table, ok := form.Sheet(name)
	if !ok {
		t.Fatalf("sheet %q not found (have %v)", name, form.Names())
	}
	return table
}

// EncodeForm serialises form with the default xlsx codec.
func EncodeForm(t *testing.T, form *xlsform.Form) []byte {
	t.Helper()

	data, err := xlsx.New().Encode(context.Background(), form)
	if err != nil {
		t.Fatalf("encode form: %v", err)
	}
	return data
}

// DecodeForm parses workbook bytes with the default xlsx codec.
func DecodeForm(t *testing.T, data []byte) *xlsform.Form {
	t.Helper()

	form, err := xlsx.New().Decode(context.Background(), bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode form: %v", err)
	}
	return form
}

// Pairs extracts two columns side by side, e.g. (list_name, name).
func Pairs(table xlsform.Table, first, second string) [][2]string {
	out := make([][2]string, 0, table.Len())
	for _, row := range table.Rows {
		out = append(out, [2]string{row.Get(first).String(), row.Get(second).String()})
	}
	return out
}

// AssertUniqueNames fails when two rows share a non-empty name.
func AssertUniqueNames(t *testing.T, table xlsform.Table) {
	t.Helper()

	seen := make(map[string]int)
	for i, name := range table.Values(xlsform.ColumnName) {
		if name == "" {
			continue
		}
		if first, dup := seen[name]; dup {
			t.Fatalf("duplicate name %q at rows %d and %d", name, first, i)
		}
		seen[name] = i
	}
}

// AssertUniquePairs fails when two rows share the same (first, second) pair.
func AssertUniquePairs(t *testing.T, table xlsform.Table, first, second string) {
	t.Helper()

	seen := make(map[[2]string]int)
	for i, pair := range Pairs(table, first, second) {
		if prev, dup := seen[pair]; dup {
			t.Fatalf("duplicate pair %v at rows %d and %d", pair, prev, i)
		}
		seen[pair] = i
	}
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}
