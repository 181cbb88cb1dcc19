package xlsform

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Language pairs a translation language name with its ISO 639-1 code.
type Language struct {
	Name string
	Code string
}

var defaultLanguages = [...]Language{
	{Name: "english", Code: "en"},
	{Name: "french", Code: "fr"},
	{Name: "spanish", Code: "es"},
	{Name: "swahili", Code: "sw"},
	{Name: "nepali", Code: "ne"},
}

var translatableFields = [...]string{ColumnLabel, ColumnHint, ColumnRequiredMsg}

// English is the language assumed for untranslated base columns.
var English = defaultLanguages[0]

// Languages returns the recognised translation languages in their fixed
// order. The slice is a copy.
func Languages() []Language {
	return append([]Language(nil), defaultLanguages[:]...)
}

// LanguageCode resolves a lowercase language name to its ISO code.
func LanguageCode(name string) (string, bool) {
	for _, lang := range defaultLanguages {
		if lang.Name == name {
			return lang.Code, true
		}
	}
	return "", false
}

// TranslatableFields lists the base fields that accept ::language suffixes.
func TranslatableFields() []string {
	return append([]string(nil), translatableFields[:]...)
}

// TranslationColumn renders the canonical header for base in lang, e.g.
// "label::english(en)".
func TranslationColumn(base string, lang Language) string {
	return fmt.Sprintf("%s::%s(%s)", base, lang.Name, lang.Code)
}

// LabelColumns returns the canonical label header for every recognised
// language.
func LabelColumns() []string {
	out := make([]string, 0, len(defaultLanguages))
	for _, lang := range defaultLanguages {
		out = append(out, TranslationColumn(ColumnLabel, lang))
	}
	return out
}

// ColumnClass is the result of classifying a header.
type ColumnClass struct {
	// Name is the normalised header.
	Name string
	// Base is the translatable field the header belongs to, if any.
	Base string
	// Language is the language name (or raw suffix when unrecognised).
	Language string
	// Code is set only for recognised languages.
	Code string
}

// Translatable reports whether the header belongs to a translatable field.
func (c ColumnClass) Translatable() bool {
	return c.Base != ""
}

// Recognized reports whether the language resolved to a known ISO code.
func (c ColumnClass) Recognized() bool {
	return c.Code != ""
}

// Standard returns the canonical header. Unrecognised languages keep their
// original suffix.
func (c ColumnClass) Standard() string {
	if !c.Translatable() || !c.Recognized() {
		return c.Name
	}
	return TranslationColumn(c.Base, Language{Name: c.Language, Code: c.Code})
}

// NormalizeHeader folds a header to NFC, trims it and lowercases it.
func NormalizeHeader(name string) string {
	name = strings.TrimSpace(norm.NFC.String(name))
	return cases.Lower(language.Und).String(name)
}

// ClassifyColumn normalises name and reports which translatable field and
// language it denotes. A bare base field ("label") is the English
// translation.
func ClassifyColumn(name string) ColumnClass {
	class := ColumnClass{Name: NormalizeHeader(name)}
	for _, base := range translatableFields {
		if class.Name == base {
			class.Base = base
			class.Language = English.Name
			class.Code = English.Code
			return class
		}
		prefix := base + "::"
		if !strings.HasPrefix(class.Name, prefix) {
			continue
		}
		suffix := class.Name[len(prefix):]
		class.Base = base
		class.Language = suffix
		if word := leadingWord(suffix); word != "" {
			if code, ok := LanguageCode(word); ok {
				class.Language = word
				class.Code = code
			}
		}
		return class
	}
	return class
}

func leadingWord(s string) string {
	end := strings.IndexFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
	if end < 0 {
		return s
	}
	return s[:end]
}

// Survey row types that open or close a group.
const (
	TypeBeginGroup = "begin group"
	TypeEndGroup   = "end group"
)

// IsGroupMarker reports whether typ opens or closes a group. Both the spaced
// and underscored spellings are accepted.
func IsGroupMarker(typ string) bool {
	switch normalizeType(typ) {
	case TypeBeginGroup, "begin_group", TypeEndGroup, "end_group":
		return true
	default:
		return false
	}
}

// IsEndGroup reports whether typ closes a group.
func IsEndGroup(typ string) bool {
	switch normalizeType(typ) {
	case TypeEndGroup, "end_group":
		return true
	default:
		return false
	}
}

func normalizeType(typ string) string {
	return strings.ToLower(strings.TrimSpace(typ))
}
