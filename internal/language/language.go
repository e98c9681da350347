// Package language holds the transcription language table, hint
// normalization, and Unicode script detection for code-mixed helpdesk
// transcripts.
package language

import "strings"

// Language is one supported transcription language.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// supported is the fixed language table, read-only after load. Order is the
// order reported by the status probe.
var supported = []Language{
	{Code: "en", Name: "English"},
	{Code: "hi", Name: "Hindi"},
	{Code: "ml", Name: "Malayalam"},
	{Code: "ta", Name: "Tamil"},
	{Code: "te", Name: "Telugu"},
	{Code: "kn", Name: "Kannada"},
	{Code: "bn", Name: "Bengali"},
	{Code: "gu", Name: "Gujarati"},
	{Code: "pa", Name: "Punjabi"},
	{Code: "or", Name: "Odia"},
	{Code: "ar", Name: "Arabic"},
}

// Supported returns a copy of the language table.
func Supported() []Language {
	out := make([]Language, len(supported))
	copy(out, supported)
	return out
}

// IsSupported reports whether code is in the language table.
func IsSupported(code string) bool {
	for _, l := range supported {
		if l.Code == code {
			return true
		}
	}
	return false
}

// NormalizeHint canonicalizes a client language hint. The hint is
// lower-cased and truncated to its 2-letter prefix; a known code returns
// (code, true). The literal "auto", an empty hint, or an unrecognized value
// returns ("", false), meaning no language directive should be sent and the
// transcription engine auto-detects.
func NormalizeHint(hint string) (string, bool) {
	h := strings.ToLower(strings.TrimSpace(hint))
	if h == "" || h == "auto" {
		return "", false
	}
	if len(h) > 2 {
		h = h[:2]
	}
	if IsSupported(h) {
		return h, true
	}
	return "", false
}

// CodeForUpstream maps the language reported by the transcription engine to
// a supported code. Engines report either ISO codes ("hi") or English names
// ("hindi"); anything unrecognized is returned as-is, lower-cased.
func CodeForUpstream(reported string) string {
	r := strings.ToLower(strings.TrimSpace(reported))
	if r == "" {
		return ""
	}
	for _, l := range supported {
		if r == l.Code || r == strings.ToLower(l.Name) {
			return l.Code
		}
	}
	return r
}
