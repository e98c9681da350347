package speech

import (
	"strings"

	"github.com/FNXDOOM/Zapdos/internal/language"
)

// Voice is one installed synthesis voice. The zero Voice means "let the
// backend use its default".
type Voice struct {
	ID     string // backend-specific voice identifier
	Locale string // language tag, e.g. "hi-IN" or "en_US"
}

// Directory holds the voices available for selection.
type Directory struct {
	voices []Voice
}

// NewDirectory copies voices into a Directory.
func NewDirectory(voices []Voice) *Directory {
	out := make([]Voice, len(voices))
	copy(out, voices)
	return &Directory{voices: out}
}

// DefaultDirectory lists the voices a stock piper install for this
// assistant ships with.
func DefaultDirectory() *Directory {
	return NewDirectory([]Voice{
		{ID: "ml_IN-meera-medium", Locale: "ml-IN"},
		{ID: "hi_IN-pratham-medium", Locale: "hi-IN"},
		{ID: "en_IN-priya-medium", Locale: "en-IN"},
		{ID: "en_US-lessac-medium", Locale: "en-US"},
	})
}

// Select picks the voice for replyText from the scripts the reply itself
// contains, not the language the caller originally spoke. Priority:
// Malayalam script, then Devanagari, then Indian English, then any English
// locale, then the backend default.
func (d *Directory) Select(replyText string) Voice {
	if language.ContainsScript(replyText, language.ScriptMalayalam) {
		if v, ok := d.byLocalePrefix("ml"); ok {
			return v
		}
	}
	if language.ContainsScript(replyText, language.ScriptDevanagari) {
		if v, ok := d.byLocalePrefix("hi"); ok {
			return v
		}
	}
	if v, ok := d.byLocale("en-in"); ok {
		return v
	}
	if v, ok := d.byLocalePrefix("en"); ok {
		return v
	}
	return Voice{}
}

func (d *Directory) byLocale(want string) (Voice, bool) {
	for _, v := range d.voices {
		if normalizeLocale(v.Locale) == want {
			return v, true
		}
	}
	return Voice{}, false
}

func (d *Directory) byLocalePrefix(prefix string) (Voice, bool) {
	for _, v := range d.voices {
		norm := normalizeLocale(v.Locale)
		if norm == prefix || strings.HasPrefix(norm, prefix+"-") {
			return v, true
		}
	}
	return Voice{}, false
}

// normalizeLocale folds "hi_IN", "hi-IN", and "HI-in" into "hi-in".
func normalizeLocale(locale string) string {
	return strings.ToLower(strings.ReplaceAll(locale, "_", "-"))
}
