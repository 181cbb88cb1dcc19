package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	fieldmap "github.com/goliatone/go-fieldmap"
	"github.com/goliatone/go-fieldmap/pkg/orchestrator"
	"github.com/goliatone/go-fieldmap/pkg/xlsform"
)

type sheetSnapshot struct {
	Name    string              `json:"name"`
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
}

func main() {
	var (
		inputPath  = flag.String("input", "testdata/buildings.xlsx", "XLSForm to assemble")
		category   = flag.String("category", "buildings", "form category")
		entities   = flag.String("entities", "", "comma separated additional entity lists")
		outputPath = flag.String("output", "testdata/buildings_snapshot.json", "output path for the serialized form")
	)
	flag.Parse()

	ctx := context.Background()
	file, err := os.Open(*inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open form: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	orch := orchestrator.New(orchestrator.WithIDGenerator(func() string { return "snapshot" }))
	result, err := orch.Assemble(ctx, orchestrator.Request{
		Form: file,
		Metadata: orchestrator.Metadata{
			Category:           *category,
			AdditionalEntities: splitList(*entities),
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to assemble form: %v\n", err)
		os.Exit(1)
	}
	form, err := fieldmap.NewCodec().Decode(ctx, bytes.NewReader(result.Data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to decode assembled form: %v\n", err)
		os.Exit(1)
	}

	payload, err := json.MarshalIndent(snapshot(form), "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode snapshot: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*outputPath, payload, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write snapshot: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Wrote form snapshot to %s\n", *outputPath)
}

func snapshot(form *xlsform.Form) []sheetSnapshot {
	var out []sheetSnapshot
	for _, name := range form.Names() {
		table, _ := form.Sheet(name)
		sheet := sheetSnapshot{Name: name, Columns: table.Columns}
		for _, row := range table.Rows {
			cells := make(map[string]string, len(row))
			for column, value := range row {
				if !value.IsEmpty() {
					cells[column] = value.Text
				}
			}
			sheet.Rows = append(sheet.Rows, cells)
		}
		out = append(out, sheet)
	}
	return out
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
