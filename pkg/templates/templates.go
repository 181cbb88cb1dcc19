package templates

import (
	"sync"

	"github.com/goliatone/go-fieldmap/pkg/xlsform"
)

// Sheet keys recognised in template documents.
const (
	KeyMeta                = "meta"
	KeySurvey              = "survey"
	KeyChoices             = "choices"
	KeyDigitisationSurvey  = "digitisation_survey"
	KeyDigitisationChoices = "digitisation_choices"
	KeyEntities            = "entities"
	KeySettings            = "settings"
)

var requiredKeys = []string{KeySurvey, KeyEntities, KeySettings}

// rowKeys replace user sheets wholesale and are stamped per form.
var rowKeys = []string{KeyEntities, KeySettings}

// Set groups the canonical tables used by one assembly.
type Set struct {
	// Meta holds rows keyed by type that overwrite matching user rows.
	Meta xlsform.Table
	// Survey holds the mandatory survey rows, meta rows first.
	Survey xlsform.Table
	// Choices holds the mandatory choice lists.
	Choices xlsform.Table
	// DigitisationSurvey holds the verification questions appended after
	// user content.
	DigitisationSurvey xlsform.Table
	// DigitisationChoices holds the choice lists used by DigitisationSurvey.
	DigitisationChoices xlsform.Table
	// Entities replaces the user's entities sheet.
	Entities xlsform.Table
	// Settings replaces the user's settings sheet.
	Settings xlsform.Table
}

// Clone deep-copies every table so callers can hand the set out without
// sharing rows.
func (s Set) Clone() Set {
	return Set{
		Meta:                s.Meta.Clone(),
		Survey:              s.Survey.Clone(),
		Choices:             s.Choices.Clone(),
		DigitisationSurvey:  s.DigitisationSurvey.Clone(),
		DigitisationChoices: s.DigitisationChoices.Clone(),
		Entities:            s.Entities.Clone(),
		Settings:            s.Settings.Clone(),
	}
}

var (
	defaultOnce sync.Once
	defaultSet  Set
	defaultErr  error
)

// Default returns a copy of the embedded template set. The documents are
// parsed once per process.
func Default() (Set, error) {
	defaultOnce.Do(func() {
		defaultSet, defaultErr = LoadFS(EmbeddedFS())
	})
	if defaultErr != nil {
		return Set{}, defaultErr
	}
	return defaultSet.Clone(), nil
}
