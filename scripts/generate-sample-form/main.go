package main

import (
	"context"
	"fmt"
	"os"

	fieldmap "github.com/goliatone/go-fieldmap"
	"github.com/goliatone/go-fieldmap/pkg/xlsform"
)

func main() {
	ctx := context.Background()

	const outputPath = "testdata/buildings.xlsx"

	data, err := fieldmap.NewCodec().Encode(ctx, sampleForm())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode sample form: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll("testdata", 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create testdata: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Generated sample building form (%d bytes) → %s\n", len(data), outputPath)
}

func sampleForm() *xlsform.Form {
	survey := xlsform.NewTable("type", "name", "label", "label::French", "required")
	survey = survey.Append(
		xlsform.Row{"type": xlsform.Text("start"), "name": xlsform.Text("start")},
		xlsform.Row{"type": xlsform.Text("select_one building_type"), "name": xlsform.Text("building_type"), "label": xlsform.Text("Building type"), "label::French": xlsform.Text("Type de bâtiment"), "required": xlsform.Text("yes")},
		xlsform.Row{"type": xlsform.Text("integer"), "name": xlsform.Text("building_levels"), "label": xlsform.Text("Number of floors"), "label::French": xlsform.Text("Nombre d'étages")},
	)

	choices := xlsform.NewTable("list_name", "name", "label")
	choices = choices.Append(
		xlsform.Row{"list_name": xlsform.Text("building_type"), "name": xlsform.Text("house"), "label": xlsform.Text("House")},
		xlsform.Row{"list_name": xlsform.Text("building_type"), "name": xlsform.Text("school"), "label": xlsform.Text("School")},
	)

	form := xlsform.NewForm()
	form.Set(xlsform.SheetSurvey, survey)
	form.Set(xlsform.SheetChoices, choices)
	return form
}
