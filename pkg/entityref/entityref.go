// Package entityref inserts select_one_from_file questions that let a form
// reference an additional Entity list, together with the calculation that
// resolves the selected item's geometry.
package entityref

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-fieldmap/pkg/xlsform"
)

const (
	// AnchorName names the survey row the generated rows follow.
	AnchorName = "feature"
	// GeometryField names the derived geometry calculation.
	GeometryField = "additional_geometry"
)

// Insert returns a copy of survey with two rows placed directly after the
// row named "feature": a map-style select_one_from_file question named after
// entity and a calculate row reading that entity's geometry. The caller is
// expected to pass an already singular entity name.
//
// When GeometryField is already taken by an earlier insertion, the
// calculation is named "additional_geometry_<entity>" instead.
func Insert(survey xlsform.Table, entity string) (xlsform.Table, error) {
	entity = strings.TrimSpace(entity)
	if entity == "" {
		return xlsform.Table{}, fmt.Errorf("entityref: entity name is required")
	}

	anchor := survey.IndexOf(xlsform.ColumnName, AnchorName)
	if anchor < 0 {
		return xlsform.Table{}, fmt.Errorf("entityref: %w: no row named %q", xlsform.ErrAnchorNotFound, AnchorName)
	}
	if survey.IndexOf(xlsform.ColumnName, entity) >= 0 {
		return xlsform.Table{}, fmt.Errorf("entityref: %w: %q", xlsform.ErrDuplicateName, entity)
	}

	geometry := GeometryField
	if survey.IndexOf(xlsform.ColumnName, geometry) >= 0 {
		geometry = GeometryField + "_" + entity
		if survey.IndexOf(xlsform.ColumnName, geometry) >= 0 {
			return xlsform.Table{}, fmt.Errorf("entityref: %w: %q", xlsform.ErrDuplicateName, geometry)
		}
	}

	return survey.Splice(anchor+1, Rows(entity, geometry)), nil
}

// Rows builds the question and calculation rows for entity. geometry names
// the calculation row.
func Rows(entity, geometry string) xlsform.Table {
	labels := xlsform.LabelColumns()

	columns := []string{xlsform.ColumnType, xlsform.ColumnName}
	columns = append(columns, labels...)
	columns = append(columns, xlsform.ColumnAppearance, xlsform.ColumnCalculation)

	question := xlsform.Row{
		xlsform.ColumnType:       xlsform.Text(fmt.Sprintf("select_one_from_file %s.csv", entity)),
		xlsform.ColumnName:       xlsform.Text(entity),
		xlsform.ColumnAppearance: xlsform.Text("map"),
	}
	calculation := xlsform.Row{
		xlsform.ColumnType:        xlsform.Text("calculate"),
		xlsform.ColumnName:        xlsform.Text(geometry),
		xlsform.ColumnCalculation: xlsform.Text(GeometryExpression(entity)),
	}
	for _, column := range labels {
		question[column] = xlsform.Text(entity)
		calculation[column] = xlsform.Text(geometry)
	}

	return xlsform.Table{Columns: columns, Rows: []xlsform.Row{question, calculation}}
}

// GeometryExpression dereferences the geometry of the item currently selected
// in the entity question, e.g.
// instance('road')/root/item[name=${road}]/geometry.
func GeometryExpression(entity string) string {
	return fmt.Sprintf("instance('%s')/root/item[name=${%s}]/geometry", entity, entity)
}
