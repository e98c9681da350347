package transcribe

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/FNXDOOM/Zapdos/internal/language"
)

// maxRequestBytes caps the whole multipart request body. The slack above
// MaxPayloadBytes lets a just-oversize clip finish parsing so it is
// classified as payload_too_large instead of a transport failure.
const maxRequestBytes = MaxPayloadBytes + (1 << 20)

// successResponse is the POST /transcribe 200 body.
type successResponse struct {
	Success           bool             `json:"success"`
	Transcript        string           `json:"transcript"`
	Language          string           `json:"language"`
	DetectedLanguages []string         `json:"detectedLanguages"`
	Duration          float64          `json:"duration"`
	Segments          []Segment        `json:"segments"`
	Metadata          responseMetadata `json:"metadata"`
}

type responseMetadata struct {
	FileName     string `json:"fileName"`
	FileSize     int64  `json:"fileSize"`
	AutoDetected bool   `json:"autoDetected"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the gateway's /transcribe surface.
type Handler struct {
	svc *Service
}

// NewHandler wraps a Service with the HTTP contract.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// HandlePost accepts a multipart upload with fields "audio" (required) and
// "language" (optional, default "auto") and runs one transcription.
func (h *Handler) HandlePost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	file, header, err := r.FormFile("audio")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, errPayloadTooLarge(mbe.Limit))
			return
		}
		writeError(w, errMissingAudio())
		return
	}
	defer file.Close()

	hint := r.FormValue("language")
	if hint == "" {
		hint = "auto"
	}

	res, err := h.svc.Transcribe(r.Context(), Request{
		Audio:       file,
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Hint:        hint,
	})
	if err != nil {
		writeError(w, AsError(err))
		return
	}

	writeJSON(w, http.StatusOK, successResponse{
		Success:           true,
		Transcript:        res.Transcript,
		Language:          res.Language,
		DetectedLanguages: res.DetectedLanguages,
		Duration:          res.Duration,
		Segments:          res.Segments,
		Metadata: responseMetadata{
			FileName:     res.FileName,
			FileSize:     res.FileSize,
			AutoDetected: res.AutoDetected,
		},
	})
}

// HandleGet reports supported languages, feature flags, and upload limits.
// Informational only, no side effects.
func (h *Handler) HandleGet(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"languages": language.Supported(),
		"features": map[string]bool{
			"languageHinting": true,
			"scriptDetection": true,
			"contextPriming":  true,
		},
		"limits": map[string]any{
			"maxFileSizeBytes": MaxPayloadBytes,
			"maxFileSizeMB":    25,
			"supportedFormats": SupportedFormats(),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, te *Error) {
	writeJSON(w, te.HTTPStatus(), errorResponse{Error: te.Message})
}
