package templates

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-fieldmap/pkg/xlsform"
)

type documentFile struct {
	Sheets map[string]sheetFile `json:"sheets" yaml:"sheets"`
}

type sheetFile struct {
	Columns []string         `json:"columns" yaml:"columns"`
	Rows    []map[string]any `json:"rows" yaml:"rows"`
}

// LoadFS walks fsys, parses every JSON/YAML document it finds and assembles
// the template Set. Each sheet key may be defined once across all files; the
// survey, entities and settings sheets are required, and entities and
// settings must carry at least one row.
func LoadFS(fsys fs.FS) (Set, error) {
	if fsys == nil {
		return Set{}, fmt.Errorf("templates: filesystem is required")
	}

	tables := make(map[string]xlsform.Table)
	origins := make(map[string]string)

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isTemplateFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("templates: read %s: %w", path, err)
		}
		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}

		keys := make([]string, 0, len(doc.Sheets))
		for key := range doc.Sheets {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			if !knownKey(key) {
				return fmt.Errorf("templates: file %s defines unknown sheet %q", path, key)
			}
			if previous, exists := origins[key]; exists {
				return fmt.Errorf("templates: sheet %q defined in both %s and %s", key, previous, path)
			}
			table, err := buildTable(doc.Sheets[key], key, path)
			if err != nil {
				return err
			}
			tables[key] = table
			origins[key] = path
		}
		return nil
	})
	if err != nil {
		return Set{}, err
	}

	for _, key := range requiredKeys {
		if _, ok := tables[key]; !ok {
			return Set{}, fmt.Errorf("templates: required sheet %q not defined", key)
		}
	}
	for _, key := range rowKeys {
		if tables[key].Empty() {
			return Set{}, fmt.Errorf("templates: sheet %q (file %s) has no rows", key, origins[key])
		}
	}

	return Set{
		Meta:                tables[KeyMeta],
		Survey:              xlsform.Concat(tables[KeyMeta], tables[KeySurvey]),
		Choices:             tables[KeyChoices],
		DigitisationSurvey:  tables[KeyDigitisationSurvey],
		DigitisationChoices: tables[KeyDigitisationChoices],
		Entities:            tables[KeyEntities],
		Settings:            tables[KeySettings],
	}, nil
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("templates: file %s is empty", source)
	}

	if strings.EqualFold(filepath.Ext(source), ".json") {
		if err := json.Unmarshal(data, &doc); err != nil {
			return documentFile{}, fmt.Errorf("templates: parse %s: %w", source, err)
		}
		return doc, nil
	}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return documentFile{}, fmt.Errorf("templates: parse %s: %w", source, err)
	}
	return doc, nil
}

func buildTable(raw sheetFile, key, source string) (xlsform.Table, error) {
	if len(raw.Columns) == 0 {
		return xlsform.Table{}, fmt.Errorf("templates: sheet %q (file %s) declares no columns", key, source)
	}

	table := xlsform.Table{Columns: make([]string, 0, len(raw.Columns))}
	declared := make(map[string]struct{}, len(raw.Columns))
	for _, column := range raw.Columns {
		column = strings.TrimSpace(column)
		if column == "" {
			return xlsform.Table{}, fmt.Errorf("templates: sheet %q (file %s) declares an empty column", key, source)
		}
		if _, dup := declared[column]; dup {
			return xlsform.Table{}, fmt.Errorf("templates: sheet %q (file %s) declares column %q twice", key, source, column)
		}
		declared[column] = struct{}{}
		table.Columns = append(table.Columns, column)
	}

	for i, rawRow := range raw.Rows {
		row := make(xlsform.Row, len(rawRow))
		for column, rawValue := range rawRow {
			if _, ok := declared[column]; !ok {
				return xlsform.Table{}, fmt.Errorf("templates: sheet %q (file %s) row %d uses undeclared column %q", key, source, i+1, column)
			}
			value, ok, err := convertValue(rawValue)
			if err != nil {
				return xlsform.Table{}, fmt.Errorf("templates: sheet %q (file %s) row %d column %q: %w", key, source, i+1, column, err)
			}
			if ok {
				row[column] = value
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func convertValue(raw any) (xlsform.Value, bool, error) {
	switch v := raw.(type) {
	case nil:
		return xlsform.Value{}, false, nil
	case string:
		return xlsform.Text(v), true, nil
	case int:
		return xlsform.Int(v), true, nil
	case int64:
		return xlsform.Number(float64(v)), true, nil
	case uint64:
		return xlsform.Number(float64(v)), true, nil
	case float64:
		return xlsform.Number(v), true, nil
	case bool:
		return xlsform.Text(strconv.FormatBool(v)), true, nil
	default:
		return xlsform.Value{}, false, fmt.Errorf("unsupported value of type %T", raw)
	}
}

func knownKey(key string) bool {
	switch key {
	case KeyMeta, KeySurvey, KeyChoices, KeyDigitisationSurvey, KeyDigitisationChoices, KeyEntities, KeySettings:
		return true
	default:
		return false
	}
}

func isTemplateFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}
