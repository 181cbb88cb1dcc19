// Package xlsx implements codec.Codec on top of excelize. Only the Office Open
// XML workbook format is supported; legacy binary workbooks are rejected as
// malformed input.
package xlsx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/goliatone/go-fieldmap/pkg/codec"
	"github.com/goliatone/go-fieldmap/pkg/xlsform"
)

// Codec reads and writes .xlsx workbooks.
type Codec struct{}

// New returns the excelize backed codec.
func New() *Codec {
	return &Codec{}
}

var _ codec.Codec = (*Codec)(nil)

// Decode reads every sheet. The first row of a sheet is its header; columns
// with a blank header are skipped. A repeated header keeps the first column;
// later columns only fill its empty cells. Cells stored as numbers are
// flagged numeric so they round-trip as numbers.
func (c *Codec) Decode(ctx context.Context, r io.Reader) (*xlsform.Form, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("xlsx: %w: reader is nil", codec.ErrMalformedInput)
	}

	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("xlsx: %w: %v", codec.ErrMalformedInput, err)
	}
	defer file.Close()

	form := xlsform.NewForm()
	for _, sheet := range file.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		table, err := readSheet(file, sheet)
		if err != nil {
			return nil, fmt.Errorf("xlsx: %w: sheet %q: %v", codec.ErrMalformedInput, sheet, err)
		}
		form.Set(sheet, table)
	}
	return form, nil
}

func readSheet(file *excelize.File, sheet string) (xlsform.Table, error) {
	rows, err := file.GetRows(sheet)
	if err != nil {
		return xlsform.Table{}, err
	}
	if len(rows) == 0 {
		return xlsform.Table{}, nil
	}

	header := rows[0]
	columns := make([]string, len(header))
	var table xlsform.Table
	seen := make(map[string]struct{}, len(header))
	for i, cell := range header {
		name := strings.TrimSpace(cell)
		if name == "" {
			continue
		}
		columns[i] = name
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		table.Columns = append(table.Columns, name)
	}

	for r, cells := range rows[1:] {
		row := make(xlsform.Row, len(cells))
		blank := true
		for i, text := range cells {
			if i >= len(columns) || columns[i] == "" || text == "" {
				continue
			}
			if existing, taken := row[columns[i]]; taken && !existing.IsEmpty() {
				continue
			}
			blank = false
			numeric, err := isNumberCell(file, sheet, i+1, r+2)
			if err != nil {
				return xlsform.Table{}, err
			}
			row[columns[i]] = xlsform.Value{Text: text, Numeric: numeric}
		}
		if blank {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// isNumberCell reports whether the stored cell is numeric. Cells without an
// explicit type attribute are numbers in the OOXML model.
func isNumberCell(file *excelize.File, sheet string, col, row int) (bool, error) {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return false, err
	}
	kind, err := file.GetCellType(sheet, axis)
	if err != nil {
		return false, err
	}
	switch kind {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		formula, err := file.GetCellFormula(sheet, axis)
		if err != nil {
			return false, err
		}
		return formula == "", nil
	default:
		return false, nil
	}
}

// Encode writes the form as a new workbook.
func (c *Codec) Encode(ctx context.Context, form *xlsform.Form) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names := form.Names()
	if len(names) == 0 {
		return nil, fmt.Errorf("xlsx: form has no sheets")
	}

	file := excelize.NewFile()
	defer file.Close()

	defaultSheet := file.GetSheetName(0)
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i == 0 {
			if err := file.SetSheetName(defaultSheet, name); err != nil {
				return nil, fmt.Errorf("xlsx: rename sheet %q: %w", name, err)
			}
		} else if _, err := file.NewSheet(name); err != nil {
			return nil, fmt.Errorf("xlsx: create sheet %q: %w", name, err)
		}

		table, _ := form.Sheet(name)
		if err := writeSheet(file, name, table); err != nil {
			return nil, fmt.Errorf("xlsx: write sheet %q: %w", name, err)
		}
	}
	file.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, fmt.Errorf("xlsx: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(file *excelize.File, sheet string, table xlsform.Table) error {
	if len(table.Columns) == 0 {
		return nil
	}

	header := make([]any, len(table.Columns))
	for i, column := range table.Columns {
		header[i] = column
	}
	if err := file.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for r, row := range table.Rows {
		values := make([]any, len(table.Columns))
		for i, column := range table.Columns {
			values[i] = cellValue(row.Get(column))
		}
		axis, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := file.SetSheetRow(sheet, axis, &values); err != nil {
			return err
		}
	}
	return nil
}

func cellValue(v xlsform.Value) any {
	if v.Text == "" {
		return nil
	}
	if v.Numeric {
		if n, err := strconv.ParseInt(strings.TrimSpace(v.Text), 10, 64); err == nil {
			return n
		}
		if f, ok := v.Float(); ok {
			return f
		}
	}
	return v.Text
}
