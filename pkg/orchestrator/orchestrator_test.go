package orchestrator_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fieldmap/pkg/codec"
	"github.com/goliatone/go-fieldmap/pkg/merge"
	"github.com/goliatone/go-fieldmap/pkg/orchestrator"
	"github.com/goliatone/go-fieldmap/pkg/templates"
	"github.com/goliatone/go-fieldmap/pkg/testsupport"
	"github.com/goliatone/go-fieldmap/pkg/xlsform"
)

var fixedTime = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func userForm() *xlsform.Form {
	return testsupport.Form(
		testsupport.Sheet("survey", testsupport.Table(
			[]string{"Type", "Name", "label", "Label::French", "Required"},
			[]string{"start", "starttime", "", "", ""},
			[]string{"text", "building_name", "Building name", "Nom", "yes"},
			[]string{"select_one roof", "roof_material", "Roof", "Toit", ""},
			[]string{"text", "feature", "Collides", "", ""},
			[]string{"begin group", "details", "Details", "", ""},
			[]string{"integer", "levels", "Levels", "Niveaux", ""},
			[]string{"end group", "", "", "", ""},
			[]string{"note", "", "nameless note", "", ""},
		)),
		testsupport.Sheet("choices", testsupport.Table(
			[]string{"list_name", "name", "label"},
			[]string{"roof", "metal", "Metal"},
			[]string{"roof", "tiles", "Tiles"},
			[]string{"roof", "metal", "Duplicate"},
			[]string{"yes_no", "yes", "Yep"},
			[]string{"roof", "yes", "Shared name"},
		)),
		testsupport.Sheet("entities", testsupport.Table(
			[]string{"list_name", "label"},
			[]string{"mine", "test label"},
		)),
		testsupport.Sheet("notes", testsupport.Table([]string{"text"}, []string{"kept as is"})),
	)
}

func newOrchestrator(t *testing.T, options ...orchestrator.Option) *orchestrator.Orchestrator {
	t.Helper()

	clock := fixedTime
	defaults := []orchestrator.Option{
		orchestrator.WithClock(func() time.Time {
			now := clock
			clock = clock.Add(time.Second)
			return now
		}),
		orchestrator.WithIDGenerator(func() string { return "generated-id" }),
	}
	return orchestrator.New(append(defaults, options...)...)
}

func assemble(t *testing.T, o *orchestrator.Orchestrator, form *xlsform.Form, meta orchestrator.Metadata) (orchestrator.Result, *xlsform.Form) {
	t.Helper()

	result, err := o.Assemble(testsupport.Context(), orchestrator.Request{
		Form:     bytes.NewReader(testsupport.EncodeForm(t, form)),
		Metadata: meta,
	})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	return result, testsupport.DecodeForm(t, result.Data)
}

func TestAssembleMergesSurvey(t *testing.T) {
	set, err := templates.Default()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}

	result, out := assemble(t, newOrchestrator(t), userForm(), orchestrator.Metadata{Category: "buildings"})
	if result.FormID != "generated-id" {
		t.Fatalf("form id = %q", result.FormID)
	}

	survey := testsupport.MustSheet(t, out, "survey")
	testsupport.AssertUniqueNames(t, survey)

	names := survey.Values("name")
	mandatory := set.Survey.Len()
	if diff := cmp.Diff(set.Survey.Values("name"), names[:mandatory]); diff != "" {
		t.Fatalf("mandatory rows should lead (-want +got):\n%s", diff)
	}
	wantGroup := []string{"survey_questions", "building_name", "roof_material", "details", "levels", "", ""}
	if diff := cmp.Diff(wantGroup, names[mandatory:mandatory+len(wantGroup)]); diff != "" {
		t.Fatalf("user group mismatch (-want +got):\n%s", diff)
	}
	types := survey.Values("type")
	if types[mandatory] != "begin group" || types[mandatory+len(wantGroup)-1] != "end group" {
		t.Fatalf("user rows not bracketed: %v", types[mandatory:mandatory+len(wantGroup)])
	}
	if diff := cmp.Diff(set.DigitisationSurvey.Values("name"), names[mandatory+len(wantGroup):]); diff != "" {
		t.Fatalf("digitisation rows should trail (-want +got):\n%s", diff)
	}
	if got := survey.Rows[mandatory].Get("relevant").Text; got != merge.DefaultGroupRelevance {
		t.Fatalf("group relevance = %q", got)
	}

	for _, column := range []string{"label::english(en)", "label::french(fr)", "required"} {
		if !survey.HasColumn(column) {
			t.Errorf("survey lacks normalised column %q: %v", column, survey.Columns)
		}
	}
	for _, column := range []string{"label", "Label::French", "Type"} {
		if survey.HasColumn(column) {
			t.Errorf("survey still carries raw column %q", column)
		}
	}

	idx := survey.IndexOf("name", "form_category")
	if idx < 0 {
		t.Fatalf("form_category row missing")
	}
	if got := survey.Rows[idx].Get("calculation").Text; got != "once('building')" {
		t.Fatalf("form_category calculation = %q", got)
	}
}

func TestAssembleMergesChoicesAndReplacesFixedSheets(t *testing.T) {
	set, err := templates.Default()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}

	_, out := assemble(t, newOrchestrator(t), userForm(), orchestrator.Metadata{
		Category:   "buildings",
		ExistingID: "existing-id",
	})

	choices := testsupport.MustSheet(t, out, "choices")
	testsupport.AssertUniquePairs(t, choices, "list_name", "name")
	pairs := testsupport.Pairs(choices, "list_name", "name")
	for _, want := range [][2]string{{"roof", "metal"}, {"roof", "tiles"}, {"roof", "yes"}, {"yes_no", "yes"}, {"digitisation_problem", "other"}} {
		found := false
		for _, pair := range pairs {
			if pair == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("choices lack %v", want)
		}
	}
	yes := choices.Rows[choices.IndexOf("name", "yes")]
	if yes.Get("label::english(en)").Text != "Yes" {
		t.Fatalf("mandatory yes_no choice should win: %#v", yes)
	}

	entities := testsupport.MustSheet(t, out, "entities")
	if diff := cmp.Diff(set.Entities.Values("label"), entities.Values("label")); diff != "" {
		t.Fatalf("entities not replaced by template (-want +got):\n%s", diff)
	}

	settings := testsupport.MustSheet(t, out, "settings")
	row := settings.Rows[0]
	if row.Get("form_id").Text != "existing-id" {
		t.Fatalf("form_id = %q", row.Get("form_id").Text)
	}
	if row.Get("form_title").Text != "building" {
		t.Fatalf("form_title = %q", row.Get("form_title").Text)
	}
	if row.Get("version").Text != "2024-03-09 14:05:07" {
		t.Fatalf("version = %q", row.Get("version").Text)
	}

	if diff := cmp.Diff([]string{"survey", "choices", "entities", "notes", "settings"}, out.Names()); diff != "" {
		t.Fatalf("sheet order mismatch (-want +got):\n%s", diff)
	}
	notes := testsupport.MustSheet(t, out, "notes")
	if got := notes.Values("text"); len(got) != 1 || got[0] != "kept as is" {
		t.Fatalf("pass-through sheet altered: %v", got)
	}
}

func TestAssembleIsIdempotentForExistingID(t *testing.T) {
	o := newOrchestrator(t)
	meta := orchestrator.Metadata{Category: "buildings", ExistingID: "abc"}

	_, first := assemble(t, o, userForm(), meta)
	_, second := assemble(t, o, userForm(), meta)

	a := testsupport.MustSheet(t, first, "settings").Rows[0]
	b := testsupport.MustSheet(t, second, "settings").Rows[0]
	if a.Get("form_id") != b.Get("form_id") || a.Get("form_title") != b.Get("form_title") {
		t.Fatalf("identity changed between runs: %#v vs %#v", a, b)
	}
	if a.Get("version") == b.Get("version") {
		t.Fatalf("version should be re-stamped, got %q twice", a.Get("version").Text)
	}
}

func TestAssembleAddsEntityReferences(t *testing.T) {
	o := newOrchestrator(t)
	_, plain := assemble(t, o, userForm(), orchestrator.Metadata{Category: "buildings"})
	_, extended := assemble(t, o, userForm(), orchestrator.Metadata{
		Category:           "buildings",
		AdditionalEntities: []string{"roads", "waterpoints"},
	})

	base := testsupport.MustSheet(t, plain, "survey")
	survey := testsupport.MustSheet(t, extended, "survey")
	if survey.Len() != base.Len()+4 {
		t.Fatalf("expected %d rows, got %d", base.Len()+4, survey.Len())
	}
	for _, name := range []string{"road", "waterpoint"} {
		if survey.IndexOf("name", name) < 0 {
			t.Errorf("survey lacks %q", name)
		}
	}
	anchor := survey.IndexOf("name", "feature")
	if survey.Values("name")[anchor+1] != "waterpoint" {
		t.Fatalf("latest entity should follow the anchor: %v", survey.Values("name")[anchor:anchor+5])
	}
	testsupport.AssertUniqueNames(t, survey)
}

func TestAssembleAddsTaskChoices(t *testing.T) {
	_, out := assemble(t, newOrchestrator(t), userForm(), orchestrator.Metadata{Category: "buildings", TaskCount: 3})

	choices := testsupport.MustSheet(t, out, "choices")
	var names []string
	for _, row := range choices.Rows {
		if row.Get("list_name").Text != orchestrator.TaskListName {
			continue
		}
		if !row.Get("name").Numeric {
			t.Fatalf("task id should stay numeric: %#v", row)
		}
		names = append(names, row.Get("name").Text)
	}
	if diff := cmp.Diff([]string{"1", "2", "3"}, names); diff != "" {
		t.Fatalf("task choices mismatch (-want +got):\n%s", diff)
	}
}

func TestAssembleFormCreatesChoicesWhenAbsent(t *testing.T) {
	form := testsupport.Form(testsupport.Sheet("survey", testsupport.Table(
		[]string{"type", "name"},
		[]string{"text", "street"},
	)))

	out, _, err := newOrchestrator(t).AssembleForm(form, orchestrator.Metadata{Category: "roads"})
	if err != nil {
		t.Fatalf("assemble form: %v", err)
	}
	if diff := cmp.Diff([]string{"survey", "choices", "entities", "settings"}, out.Names()); diff != "" {
		t.Fatalf("sheet order mismatch (-want +got):\n%s", diff)
	}
	choices := testsupport.MustSheet(t, out, "choices")
	testsupport.AssertUniquePairs(t, choices, "list_name", "name")
	if choices.Empty() {
		t.Fatalf("template choices missing")
	}
	if form.Has("choices") {
		t.Fatalf("input form mutated")
	}
}

func TestAssembleErrors(t *testing.T) {
	t.Run("missing survey", func(t *testing.T) {
		form := testsupport.Form(testsupport.Sheet("choices", testsupport.Table([]string{"list_name", "name"}, []string{"a", "b"})))
		_, err := newOrchestrator(t).Assemble(testsupport.Context(), orchestrator.Request{
			Form:     bytes.NewReader(testsupport.EncodeForm(t, form)),
			Metadata: orchestrator.Metadata{Category: "buildings"},
		})
		if !errors.Is(err, xlsform.ErrMissingSheet) {
			t.Fatalf("expected ErrMissingSheet, got %v", err)
		}
	})

	t.Run("malformed input", func(t *testing.T) {
		_, err := newOrchestrator(t).Assemble(testsupport.Context(), orchestrator.Request{
			Form: bytes.NewReader([]byte("definitely not xlsx")),
		})
		if !errors.Is(err, codec.ErrMalformedInput) {
			t.Fatalf("expected ErrMalformedInput, got %v", err)
		}
	})

	t.Run("choices without list_name", func(t *testing.T) {
		form := userForm()
		form.Set("choices", testsupport.Table([]string{"name"}, []string{"orphan"}))
		_, _, err := newOrchestrator(t).AssembleForm(form, orchestrator.Metadata{Category: "buildings"})
		if !errors.Is(err, xlsform.ErrMissingColumn) {
			t.Fatalf("expected ErrMissingColumn, got %v", err)
		}
	})

	t.Run("user name shared with group", func(t *testing.T) {
		form := testsupport.Form(testsupport.Sheet("survey", testsupport.Table(
			[]string{"type", "name"},
			[]string{"text", merge.DefaultGroupName},
			[]string{"text", "street"},
		)))
		out, _, err := newOrchestrator(t).AssembleForm(form, orchestrator.Metadata{Category: "buildings"})
		if err != nil {
			t.Fatalf("assemble form: %v", err)
		}
		survey := testsupport.MustSheet(t, out, "survey")
		testsupport.AssertUniqueNames(t, survey)
		if survey.IndexOf("name", "street") < 0 {
			t.Fatalf("non-colliding user row dropped")
		}
	})

	t.Run("repeated user name", func(t *testing.T) {
		form := testsupport.Form(testsupport.Sheet("survey", testsupport.Table(
			[]string{"type", "name"},
			[]string{"text", "street"},
			[]string{"integer", "street"},
		)))
		out, _, err := newOrchestrator(t).AssembleForm(form, orchestrator.Metadata{Category: "buildings"})
		if !errors.Is(err, xlsform.ErrDuplicateName) || out != nil {
			t.Fatalf("expected ErrDuplicateName and no form, got %v", err)
		}
	})

	t.Run("anchor not found", func(t *testing.T) {
		set, err := templates.Default()
		if err != nil {
			t.Fatalf("templates: %v", err)
		}
		set.Survey = set.Survey.Filter(func(row xlsform.Row) bool {
			return row.Get("name").Text != "feature"
		})
		o := newOrchestrator(t, orchestrator.WithTemplates(set))

		form := testsupport.Form(testsupport.Sheet("survey", testsupport.Table([]string{"type", "name"}, []string{"text", "street"})))
		_, _, err = o.AssembleForm(form, orchestrator.Metadata{Category: "buildings", AdditionalEntities: []string{"roads"}})
		if !errors.Is(err, xlsform.ErrAnchorNotFound) {
			t.Fatalf("expected ErrAnchorNotFound, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		result, err := newOrchestrator(t).Assemble(ctx, orchestrator.Request{
			Form: bytes.NewReader(testsupport.EncodeForm(t, userForm())),
		})
		if !errors.Is(err, context.Canceled) || result.Data != nil {
			t.Fatalf("expected cancellation with no output, got %v (%d bytes)", err, len(result.Data))
		}
	})

	t.Run("settings template without rows", func(t *testing.T) {
		o := orchestrator.New(orchestrator.WithTemplatesFS(fstest.MapFS{
			"fields.yaml": {Data: []byte(
				"sheets:\n" +
					"  survey:\n    columns: [type, name]\n    rows:\n      - {type: text, name: feature}\n" +
					"  entities:\n    columns: [list_name]\n    rows:\n      - {list_name: features}\n" +
					"  settings:\n    columns: [form_id]\n",
			)},
		}))
		result, err := o.Assemble(testsupport.Context(), orchestrator.Request{
			Form: bytes.NewReader(testsupport.EncodeForm(t, userForm())),
		})
		if err == nil || result.FormID != "" {
			t.Fatalf("expected initialisation error, got id %q err %v", result.FormID, err)
		}
	})

	t.Run("bad templates", func(t *testing.T) {
		o := orchestrator.New(orchestrator.WithTemplatesFS(fstest.MapFS{
			"broken.yaml": {Data: []byte("sheets:\n  survey:\n    columns: [type]\n")},
		}))
		_, err := o.Assemble(testsupport.Context(), orchestrator.Request{Form: bytes.NewReader(nil)})
		if err == nil {
			t.Fatalf("expected initialisation error")
		}
	})

	t.Run("nil form", func(t *testing.T) {
		if _, err := newOrchestrator(t).Assemble(testsupport.Context(), orchestrator.Request{}); err == nil {
			t.Fatalf("expected error for missing form reader")
		}
	})
}

func TestCategoryExpression(t *testing.T) {
	if got := orchestrator.CategoryExpression("building"); got != "once('building')" {
		t.Fatalf("CategoryExpression = %q", got)
	}
}
