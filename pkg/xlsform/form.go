package xlsform

import "strings"

// Sheet names managed by the pipeline.
const (
	SheetSurvey   = "survey"
	SheetChoices  = "choices"
	SheetEntities = "entities"
	SheetSettings = "settings"
)

// Column names the pipeline reads or writes.
const (
	ColumnType        = "type"
	ColumnName        = "name"
	ColumnListName    = "list_name"
	ColumnLabel       = "label"
	ColumnHint        = "hint"
	ColumnRequiredMsg = "required_message"
	ColumnRelevant    = "relevant"
	ColumnAppearance  = "appearance"
	ColumnCalculation = "calculation"
	ColumnVersion     = "version"
	ColumnFormID      = "form_id"
	ColumnFormTitle   = "form_title"
)

// Form is an ordered collection of named sheets.
type Form struct {
	order  []string
	sheets map[string]Table
}

// NewForm returns an empty form.
func NewForm() *Form {
	return &Form{sheets: make(map[string]Table)}
}

// Sheet returns the named table.
func (f *Form) Sheet(name string) (Table, bool) {
	if f == nil {
		return Table{}, false
	}
	t, ok := f.sheets[name]
	return t, ok
}

// Has reports whether the form carries the named sheet.
func (f *Form) Has(name string) bool {
	_, ok := f.Sheet(name)
	return ok
}

// Set stores table under name. New sheets are appended after existing ones;
// replacing a sheet keeps its position.
func (f *Form) Set(name string, table Table) {
	if f.sheets == nil {
		f.sheets = make(map[string]Table)
	}
	if _, exists := f.sheets[name]; !exists {
		f.order = append(f.order, name)
	}
	f.sheets[name] = table
}

// Delete removes the named sheet.
func (f *Form) Delete(name string) {
	if _, exists := f.sheets[name]; !exists {
		return
	}
	delete(f.sheets, name)
	for i, existing := range f.order {
		if existing == name {
			f.order = append(f.order[:i:i], f.order[i+1:]...)
			break
		}
	}
}

// Names returns the sheet names in workbook order.
func (f *Form) Names() []string {
	if f == nil {
		return nil
	}
	return append([]string(nil), f.order...)
}

// Clone deep-copies every sheet.
func (f *Form) Clone() *Form {
	out := NewForm()
	if f == nil {
		return out
	}
	for _, name := range f.order {
		out.Set(name, f.sheets[name].Clone())
	}
	return out
}

// Singular turns a plural category or entity list name into the singular
// form used for field names by stripping one trailing "s".
func Singular(name string) string {
	return strings.TrimSuffix(strings.TrimSpace(name), "s")
}
