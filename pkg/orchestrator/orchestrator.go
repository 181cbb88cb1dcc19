package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-fieldmap/internal/xlsx"
	"github.com/goliatone/go-fieldmap/pkg/codec"
	"github.com/goliatone/go-fieldmap/pkg/entityref"
	"github.com/goliatone/go-fieldmap/pkg/merge"
	"github.com/goliatone/go-fieldmap/pkg/normalize"
	"github.com/goliatone/go-fieldmap/pkg/templates"
	"github.com/goliatone/go-fieldmap/pkg/xlsform"
)

// VersionLayout formats the settings version stamp.
const VersionLayout = "2006-01-02 15:04:05"

// TaskListName names the choice list generated from Metadata.TaskCount.
const TaskListName = "task_filter"

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithCodec injects the workbook codec used to parse and serialise forms.
func WithCodec(c codec.Codec) Option {
	return func(o *Orchestrator) {
		o.codec = c
	}
}

// WithTemplates injects a pre-built template set.
func WithTemplates(set templates.Set) Option {
	return func(o *Orchestrator) {
		o.templates = set.Clone()
		o.templatesSet = true
	}
}

// WithTemplatesFS loads the template set from fsys instead of the embedded
// defaults.
func WithTemplatesFS(fsys fs.FS) Option {
	return func(o *Orchestrator) {
		o.templatesFS = fsys
	}
}

// WithClock overrides the time source used for the settings version.
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) {
		o.clock = clock
	}
}

// WithIDGenerator overrides how fresh form identifiers are produced.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		o.newID = fn
	}
}

// WithLogger routes pipeline progress messages to logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// Orchestrator appends the mandatory field-mapping content to user forms. It
// holds no per-call state and is safe for concurrent use once constructed.
type Orchestrator struct {
	codec           codec.Codec
	templates       templates.Set
	templatesSet    bool
	templatesFS     fs.FS
	clock           func() time.Time
	newID           func() string
	logger          *log.Logger
	initialiseErr   error
	defaultsApplied bool
}

// New constructs an Orchestrator applying any provided options. Missing
// dependencies fall back to the xlsx codec, the embedded templates, the wall
// clock and random UUIDs.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Metadata carries the per-form values stamped into the assembled workbook.
type Metadata struct {
	// Category is the form category, usually plural ("buildings"). It is
	// singularised before use.
	Category string

	// AdditionalEntities lists extra Entity lists (plural names) to reference
	// through select_one_from_file questions.
	AdditionalEntities []string

	// ExistingID reuses a form identifier. When empty a fresh one is generated.
	ExistingID string

	// TaskCount appends a task_filter choice list numbered 1..TaskCount when
	// positive.
	TaskCount int
}

// Request describes one assembly.
type Request struct {
	// Form streams the user's workbook.
	Form io.Reader

	Metadata
}

// Result carries the outcome of an assembly.
type Result struct {
	// FormID is the identifier stamped into settings.form_id.
	FormID string
	// Data holds the serialised workbook.
	Data []byte
}

// Assemble parses the request form, merges the mandatory content and returns
// the serialised workbook. Nothing is returned when ctx is cancelled.
func (o *Orchestrator) Assemble(ctx context.Context, req Request) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := o.initialiseErr; err != nil {
		return Result{}, err
	}
	if req.Form == nil {
		return Result{}, errors.New("orchestrator: form is required")
	}

	o.logger.Printf("orchestrator: appending field mapping questions (category %q)", req.Category)
	form, err := o.codec.Decode(ctx, req.Form)
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: parse form: %w", err)
	}

	assembled, formID, err := o.AssembleForm(form, req.Metadata)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	data, err := o.codec.Encode(ctx, assembled)
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: serialise form: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return Result{FormID: formID, Data: data}, nil
}

// AssembleForm runs the synchronous part of the pipeline on an already parsed
// form. The input form is not modified.
func (o *Orchestrator) AssembleForm(form *xlsform.Form, meta Metadata) (*xlsform.Form, string, error) {
	if err := o.initialiseErr; err != nil {
		return nil, "", err
	}
	if !form.Has(xlsform.SheetSurvey) {
		return nil, "", fmt.Errorf("orchestrator: %w: %q", xlsform.ErrMissingSheet, xlsform.SheetSurvey)
	}

	out := normalize.Standardize(form)
	tpl := o.templates.Clone()

	o.logger.Printf("orchestrator: merging survey sheet")
	userSurvey, _ := out.Sheet(xlsform.SheetSurvey)
	survey := merge.Tables(tpl.Survey, userSurvey, tpl.DigitisationSurvey, merge.WithMetaDefaults(tpl.Meta))
	if name, dup := survey.FirstDuplicate(xlsform.ColumnName); dup {
		return nil, "", fmt.Errorf("orchestrator: merge survey: %w: %q", xlsform.ErrDuplicateName, name)
	}

	category := xlsform.Singular(meta.Category)
	survey = stampCategory(survey, category)

	o.logger.Printf("orchestrator: merging choices sheet")
	userChoices, err := ensureChoices(out)
	if err != nil {
		return nil, "", err
	}
	choices := merge.Tables(tpl.Choices, userChoices, tpl.DigitisationChoices)
	if meta.TaskCount > 0 {
		choices = merge.Choices(choices, TaskChoices(meta.TaskCount))
	}
	out.Set(xlsform.SheetChoices, choices)

	o.logger.Printf("orchestrator: overwriting entities and settings sheets")
	out.Set(xlsform.SheetEntities, tpl.Entities)
	out.Set(xlsform.SheetSettings, tpl.Settings)
	for _, required := range []string{xlsform.SheetEntities, xlsform.SheetSettings} {
		if !out.Has(required) {
			return nil, "", fmt.Errorf("orchestrator: %w: %q", xlsform.ErrMissingSheet, required)
		}
	}

	formID := meta.ExistingID
	if formID == "" {
		formID = o.newID()
	}
	version := o.clock().Format(VersionLayout)
	o.logger.Printf("orchestrator: form_id=%s form_title=%s version=%s", formID, category, version)

	settings, _ := out.Sheet(xlsform.SheetSettings)
	settings = settings.
		SetAll(xlsform.ColumnVersion, xlsform.Text(version)).
		SetAll(xlsform.ColumnFormID, xlsform.Text(formID)).
		SetAll(xlsform.ColumnFormTitle, xlsform.Text(category))
	out.Set(xlsform.SheetSettings, settings)

	if len(meta.AdditionalEntities) > 0 {
		o.logger.Printf("orchestrator: adding %d additional entity references", len(meta.AdditionalEntities))
	}
	for _, entity := range meta.AdditionalEntities {
		survey, err = entityref.Insert(survey, xlsform.Singular(entity))
		if err != nil {
			return nil, "", fmt.Errorf("orchestrator: add entity %q: %w", entity, err)
		}
	}
	out.Set(xlsform.SheetSurvey, survey)

	return out, formID, nil
}

// CategoryExpression renders the constant calculation stored on the
// form_category row, e.g. once('building').
func CategoryExpression(category string) string {
	return fmt.Sprintf("once('%s')", category)
}

// TaskChoices builds the task_filter list numbered 1..count.
func TaskChoices(count int) xlsform.Table {
	label := xlsform.TranslationColumn(xlsform.ColumnLabel, xlsform.English)
	table := xlsform.NewTable(xlsform.ColumnListName, xlsform.ColumnName, label)
	for i := 1; i <= count; i++ {
		table.Rows = append(table.Rows, xlsform.Row{
			xlsform.ColumnListName: xlsform.Text(TaskListName),
			xlsform.ColumnName:     xlsform.Int(i),
			label:                  xlsform.Int(i),
		})
	}
	return table
}

func stampCategory(survey xlsform.Table, category string) xlsform.Table {
	idx := survey.IndexOf(xlsform.ColumnName, "form_category")
	if idx < 0 {
		return survey
	}
	return survey.SetAt(idx, xlsform.ColumnCalculation, xlsform.Text(CategoryExpression(category)))
}

// ensureChoices returns the user's choices sheet, or the empty default when
// the sheet is absent or carries neither rows nor a list_name header.
func ensureChoices(form *xlsform.Form) (xlsform.Table, error) {
	choices, ok := form.Sheet(xlsform.SheetChoices)
	if ok && choices.HasColumn(xlsform.ColumnListName) {
		return choices, nil
	}
	if ok && !choices.Empty() {
		return xlsform.Table{}, fmt.Errorf("orchestrator: %w: %q in sheet %q", xlsform.ErrMissingColumn, xlsform.ColumnListName, xlsform.SheetChoices)
	}
	return xlsform.NewTable(
		xlsform.ColumnListName,
		xlsform.ColumnName,
		xlsform.TranslationColumn(xlsform.ColumnLabel, xlsform.English),
	), nil
}

func (o *Orchestrator) applyDefaults() {
	if o.defaultsApplied {
		return
	}

	if o.codec == nil {
		o.codec = xlsx.New()
	}
	if !o.templatesSet {
		var (
			set templates.Set
			err error
		)
		if o.templatesFS != nil {
			set, err = templates.LoadFS(o.templatesFS)
		} else {
			set, err = templates.Default()
		}
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: load templates: %w", err)
		} else {
			o.templates = set
			o.templatesSet = true
		}
	}
	if o.clock == nil {
		o.clock = time.Now
	}
	if o.newID == nil {
		o.newID = uuid.NewString
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard, "", 0)
	}

	o.defaultsApplied = true
}
