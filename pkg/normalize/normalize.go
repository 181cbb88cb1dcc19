// Package normalize standardises the headers and rows of user supplied
// XLSForm sheets before they are merged with the mandatory templates.
package normalize

import (
	"github.com/goliatone/go-fieldmap/pkg/xlsform"
)

// Standardize returns a copy of form where every non-empty sheet has
// canonical headers and no nameless rows other than group markers. Empty
// sheets are copied unchanged.
func Standardize(form *xlsform.Form) *xlsform.Form {
	out := xlsform.NewForm()
	for _, name := range form.Names() {
		table, _ := form.Sheet(name)
		if table.Empty() {
			out.Set(name, table.Clone())
			continue
		}
		out.Set(name, DropNamelessRows(StandardizeColumns(table)))
	}
	return out
}

// StandardizeColumns lowercases and trims every header and renames
// translation columns to "<field>::<language>(<code>)". A bare base field is
// the English translation. When two headers collapse to the same canonical
// name the first column wins and later ones only fill its empty cells.
func StandardizeColumns(table xlsform.Table) xlsform.Table {
	out := xlsform.Table{Rows: make([]xlsform.Row, len(table.Rows))}
	renamed := make([]string, len(table.Columns))
	seen := make(map[string]struct{}, len(table.Columns))
	for i, column := range table.Columns {
		standard := xlsform.ClassifyColumn(column).Standard()
		renamed[i] = standard
		if _, ok := seen[standard]; ok {
			continue
		}
		seen[standard] = struct{}{}
		out.Columns = append(out.Columns, standard)
	}

	for r, row := range table.Rows {
		next := make(xlsform.Row, len(row))
		for i, column := range table.Columns {
			value, ok := row[column]
			if !ok {
				continue
			}
			target := renamed[i]
			if existing, taken := next[target]; taken && !existing.IsEmpty() {
				continue
			}
			next[target] = value
		}
		out.Rows[r] = next
	}
	return out
}

// DropNamelessRows removes rows with an empty name. Rows whose type is a
// group marker are kept because they legitimately carry no name. Tables
// without a name column are returned unchanged.
func DropNamelessRows(table xlsform.Table) xlsform.Table {
	if !table.HasColumn(xlsform.ColumnName) {
		return table.Clone()
	}
	hasType := table.HasColumn(xlsform.ColumnType)
	return table.Filter(func(row xlsform.Row) bool {
		if !row.Get(xlsform.ColumnName).IsEmpty() {
			return true
		}
		return hasType && xlsform.IsGroupMarker(row.Get(xlsform.ColumnType).Text)
	})
}
