package transcribe

import (
	"path/filepath"
	"strings"
)

// MaxPayloadBytes is the external provider's hard upload limit (25 MiB).
const MaxPayloadBytes = 25 << 20

// allowedTypes maps accepted MIME types to a canonical container label.
var allowedTypes = map[string]string{
	"audio/webm":      "webm",
	"video/webm":      "webm",
	"audio/wav":       "wav",
	"audio/wave":      "wav",
	"audio/x-wav":     "wav",
	"audio/mp3":       "mp3",
	"audio/mpeg":      "mp3",
	"audio/mp4":       "mp4",
	"video/mp4":       "mp4",
	"audio/m4a":       "m4a",
	"audio/x-m4a":     "m4a",
	"audio/ogg":       "ogg",
	"application/ogg": "ogg",
}

var allowedExts = map[string]string{
	".webm": "webm",
	".wav":  "wav",
	".mp3":  "mp3",
	".mpeg": "mp3",
	".mp4":  "mp4",
	".m4a":  "m4a",
	".ogg":  "ogg",
	".oga":  "ogg",
}

// DetectFormat resolves the container label for an upload from its declared
// content type, falling back to the filename extension. ok is false when
// neither is on the allow-list.
func DetectFormat(contentType, fileName string) (string, bool) {
	mt := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if label, ok := allowedTypes[mt]; ok {
		return label, true
	}
	if label, ok := allowedExts[strings.ToLower(filepath.Ext(fileName))]; ok {
		return label, true
	}
	return "", false
}

// SupportedFormats lists the accepted container labels for the status probe.
func SupportedFormats() []string {
	return []string{"webm", "wav", "mp3", "mpeg", "mp4", "m4a", "ogg"}
}
