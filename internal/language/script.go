package language

import "unicode"

// Script identifies a Unicode writing system that appears in a transcript.
type Script string

const (
	ScriptDevanagari Script = "Devanagari"
	ScriptTamil      Script = "Tamil"
	ScriptTelugu     Script = "Telugu"
	ScriptMalayalam  Script = "Malayalam"
	ScriptKannada    Script = "Kannada"
	ScriptBengali    Script = "Bengali"
	ScriptGujarati   Script = "Gujarati"
	ScriptGurmukhi   Script = "Gurmukhi"
	ScriptOdia       Script = "Odia"
	ScriptArabic     Script = "Arabic"
	ScriptLatin      Script = "Latin"
)

// scriptTable binds each script to its Unicode range table and to the
// language name reported for it. Helpdesk utterances are frequently
// code-mixed (Hindi in Devanagari plus English in Latin), so detection
// reports every script present, independent of the engine's single primary
// language.
var scriptTable = []struct {
	script Script
	ranges *unicode.RangeTable
	lang   string
}{
	{ScriptDevanagari, unicode.Devanagari, "Hindi"},
	{ScriptTamil, unicode.Tamil, "Tamil"},
	{ScriptTelugu, unicode.Telugu, "Telugu"},
	{ScriptMalayalam, unicode.Malayalam, "Malayalam"},
	{ScriptKannada, unicode.Kannada, "Kannada"},
	{ScriptBengali, unicode.Bengali, "Bengali"},
	{ScriptGujarati, unicode.Gujarati, "Gujarati"},
	{ScriptGurmukhi, unicode.Gurmukhi, "Punjabi"},
	{ScriptOdia, unicode.Oriya, "Odia"},
	{ScriptArabic, unicode.Arabic, "Arabic"},
	{ScriptLatin, unicode.Latin, "English"},
}

// DetectScripts scans text for Unicode script membership and returns the
// scripts present, ordered by first occurrence.
func DetectScripts(text string) []Script {
	var found []Script
	seen := map[Script]bool{}
	for _, r := range text {
		for _, entry := range scriptTable {
			if !unicode.Is(entry.ranges, r) {
				continue
			}
			if !seen[entry.script] {
				seen[entry.script] = true
				found = append(found, entry.script)
			}
			break
		}
	}
	return found
}

// DetectLanguages maps the scripts present in text to language names.
// Latin-only text yields exactly ["English"]; text with no recognized
// script also reports English so callers always have a language to show.
func DetectLanguages(text string) []string {
	scripts := DetectScripts(text)
	if len(scripts) == 0 {
		return []string{"English"}
	}
	langs := make([]string, 0, len(scripts))
	for _, s := range scripts {
		for _, entry := range scriptTable {
			if entry.script == s {
				langs = append(langs, entry.lang)
				break
			}
		}
	}
	return langs
}

// ContainsScript reports whether any rune of text belongs to the script.
func ContainsScript(text string, s Script) bool {
	for _, entry := range scriptTable {
		if entry.script != s {
			continue
		}
		for _, r := range text {
			if unicode.Is(entry.ranges, r) {
				return true
			}
		}
		return false
	}
	return false
}
