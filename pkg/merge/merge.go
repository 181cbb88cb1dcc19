// Package merge combines a mandatory template table, a user supplied table and
// a supplementary template table into a single sheet.
//
// Choice tables (those with a list_name column) are stacked and de-duplicated
// on the (list_name, name) pair, keeping the first occurrence. Survey tables
// are stacked as mandatory, grouped user rows, supplementary; user rows whose
// name is already provided by a template or by the wrapping group are dropped.
package merge

import (
	"github.com/zeebo/xxh3"

	"github.com/goliatone/go-fieldmap/pkg/xlsform"
)

const (
	// DefaultGroupName names the group that wraps user survey rows.
	DefaultGroupName = "survey_questions"
	// DefaultGroupRelevance shows the user group only when a new feature was
	// drawn or an existing building was confirmed.
	DefaultGroupRelevance = "(${new_feature} != '') or (${building_exists} = 'yes')"
)

const keySeparator = "\x1f"

// Option customises a merge.
type Option func(*config)

type config struct {
	meta      xlsform.Table
	group     string
	relevance string
}

// WithMetaDefaults supplies rows keyed by type whose values replace those of
// matching user survey rows before collision filtering.
func WithMetaDefaults(meta xlsform.Table) Option {
	return func(c *config) {
		c.meta = meta
	}
}

// WithGroupName overrides the name of the wrapping group.
func WithGroupName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.group = name
		}
	}
}

// WithGroupRelevance overrides the relevance expression of the wrapping group.
func WithGroupRelevance(expr string) Option {
	return func(c *config) {
		c.relevance = expr
	}
}

// Tables merges mandatory, user and supplementary. The mode is chosen by
// whether user carries a list_name column. None of the inputs are modified.
func Tables(mandatory, user, supplementary xlsform.Table, options ...Option) xlsform.Table {
	cfg := config{
		group:     DefaultGroupName,
		relevance: DefaultGroupRelevance,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if user.HasColumn(xlsform.ColumnListName) {
		return Choices(mandatory, user, supplementary)
	}
	return survey(mandatory, user, supplementary, cfg)
}

// Choices stacks the tables and keeps the first row for every
// (list_name, name) pair. The same name may appear under different lists.
func Choices(tables ...xlsform.Table) xlsform.Table {
	combined := xlsform.Concat(tables...)
	seen := make(map[uint64]struct{}, combined.Len())
	return combined.Filter(func(row xlsform.Row) bool {
		key := xxh3.HashString(row.Get(xlsform.ColumnListName).String() + keySeparator + row.Get(xlsform.ColumnName).String())
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		return true
	})
}

func survey(mandatory, user, supplementary xlsform.Table, cfg config) xlsform.Table {
	if !cfg.meta.Empty() {
		user = ApplyMetaDefaults(user, cfg.meta)
	}

	taken := nameSet(mandatory, supplementary)
	taken[xxh3.HashString(cfg.group)] = struct{}{}
	filtered := user.Filter(func(row xlsform.Row) bool {
		if xlsform.IsEndGroup(row.Get(xlsform.ColumnType).Text) {
			return true
		}
		name := row.Get(xlsform.ColumnName).String()
		if name == "" {
			return true
		}
		_, collides := taken[xxh3.HashString(name)]
		return !collides
	})

	begin, end := GroupWrapper(cfg.group, cfg.relevance)
	return xlsform.Concat(mandatory, begin, filtered, end, supplementary)
}

// ApplyMetaDefaults replaces every column of a user row with the values of the
// first meta row sharing its type.
func ApplyMetaDefaults(user, meta xlsform.Table) xlsform.Table {
	byType := make(map[string]xlsform.Row, meta.Len())
	for _, row := range meta.Rows {
		typ := row.Get(xlsform.ColumnType).String()
		if typ == "" {
			continue
		}
		if _, exists := byType[typ]; !exists {
			byType[typ] = row
		}
	}

	out := user.Map(func(row xlsform.Row) xlsform.Row {
		defaults, ok := byType[row.Get(xlsform.ColumnType).String()]
		if !ok {
			return row
		}
		for _, column := range meta.Columns {
			row[column] = defaults.Get(column)
		}
		return row
	})
	for _, column := range meta.Columns {
		out = out.WithColumn(column)
	}
	return out
}

// GroupWrapper builds the begin and end rows that bracket user questions.
// The begin row is labelled with the group name in every default language.
func GroupWrapper(name, relevance string) (begin, end xlsform.Table) {
	columns := []string{xlsform.ColumnType, xlsform.ColumnName}
	columns = append(columns, xlsform.LabelColumns()...)
	columns = append(columns, xlsform.ColumnRelevant)

	row := xlsform.Row{
		xlsform.ColumnType:     xlsform.Text(xlsform.TypeBeginGroup),
		xlsform.ColumnName:     xlsform.Text(name),
		xlsform.ColumnRelevant: xlsform.Text(relevance),
	}
	for _, column := range xlsform.LabelColumns() {
		row[column] = xlsform.Text(name)
	}

	begin = xlsform.Table{Columns: columns, Rows: []xlsform.Row{row}}
	end = xlsform.Table{
		Columns: []string{xlsform.ColumnType},
		Rows:    []xlsform.Row{{xlsform.ColumnType: xlsform.Text(xlsform.TypeEndGroup)}},
	}
	return begin, end
}

func nameSet(tables ...xlsform.Table) map[uint64]struct{} {
	out := make(map[uint64]struct{})
	for _, table := range tables {
		for _, name := range table.Values(xlsform.ColumnName) {
			if name == "" {
				continue
			}
			out[xxh3.HashString(name)] = struct{}{}
		}
	}
	return out
}
