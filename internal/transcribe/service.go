// Package transcribe implements the transcription gateway: upload
// validation, language hint normalization, the upstream speech-to-text
// call, and post-call script detection.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-audio/wav"

	"github.com/FNXDOOM/Zapdos/internal/language"
	"github.com/FNXDOOM/Zapdos/internal/metrics"
	"github.com/FNXDOOM/Zapdos/internal/prompts"
)

// Request is one transcription attempt: an uploaded clip plus its metadata
// and an optional language hint.
type Request struct {
	Audio       io.Reader
	FileName    string
	ContentType string
	Hint        string
}

// Result is the normalized transcription outcome. Immutable once produced;
// it is the resolver's input on the client side.
type Result struct {
	Transcript        string
	Language          string
	DetectedLanguages []string
	Scripts           []language.Script
	Duration          float64
	Segments          []Segment
	FileName          string
	FileSize          int64
	AutoDetected      bool
}

// Service implements the gateway's transcribe operation.
type Service struct {
	stt    SpeechToText
	tmpDir string
}

// NewService creates the gateway core around an upstream engine. tmpDir is
// where uploads are spooled; empty means the OS default.
func NewService(stt SpeechToText, tmpDir string) *Service {
	return &Service{stt: stt, tmpDir: tmpDir}
}

// Transcribe validates the upload, forwards it upstream, and post-processes
// the transcript. Validation failures and upstream failures both come back
// as *Error so callers can map them onto the HTTP contract.
func (s *Service) Transcribe(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	metrics.TranscriptionsActive.Inc()
	defer metrics.TranscriptionsActive.Dec()
	metrics.TranscriptionsTotal.Inc()

	res, err := s.transcribe(ctx, req, start)
	if err != nil {
		te := AsError(err)
		metrics.TranscriptionErrors.WithLabelValues(string(te.Code)).Inc()
		slog.Error("transcription failed", "code", te.Code, "message", te.Message, "detail", te.Detail)
		return nil, te
	}

	metrics.StageDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())
	return res, nil
}

func (s *Service) transcribe(ctx context.Context, req Request, start time.Time) (*Result, error) {
	if req.Audio == nil {
		return nil, errMissingAudio()
	}

	format, ok := DetectFormat(req.ContentType, req.FileName)
	if !ok {
		return nil, errUnsupportedFormat(req.ContentType, req.FileName)
	}

	// Spool to a temp file so size is known before anything leaves the
	// process. Removed on every path out of this function.
	tmp, size, err := spoolUpload(s.tmpDir, req.Audio)
	if err != nil {
		return nil, errTranscriptionFailed(fmt.Sprintf("spool upload: %v", err))
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if size == 0 {
		return nil, errMissingAudio()
	}
	if size > MaxPayloadBytes {
		return nil, errPayloadTooLarge(size)
	}
	metrics.PayloadBytes.Observe(float64(size))

	code, explicit := language.NormalizeHint(req.Hint)
	mode := "auto"
	if explicit {
		mode = "directive"
	}
	metrics.LanguageDirectives.WithLabelValues(mode).Inc()

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, errTranscriptionFailed(fmt.Sprintf("rewind upload: %v", err))
	}

	upstreamStart := time.Now()
	up, err := s.stt.Transcribe(ctx, UpstreamRequest{
		Audio:    tmp,
		Format:   format,
		Language: code,
		Prompt:   prompts.Priming(code),
	})
	if err != nil {
		return nil, mapUpstreamError(err)
	}
	metrics.StageDuration.WithLabelValues("upstream").Observe(time.Since(upstreamStart).Seconds())

	scripts := language.DetectScripts(up.Text)
	for _, sc := range scripts {
		metrics.ScriptsDetected.WithLabelValues(string(sc)).Inc()
	}

	lang := code
	if !explicit {
		lang = language.CodeForUpstream(up.Language)
	}

	duration := up.Duration
	if duration == 0 && format == "wav" {
		if d, err := probeWAVDuration(tmp); err == nil {
			duration = d
		}
	}

	segments := up.Segments
	if segments == nil {
		segments = []Segment{}
	}

	res := &Result{
		Transcript:        up.Text,
		Language:          lang,
		DetectedLanguages: language.DetectLanguages(up.Text),
		Scripts:           scripts,
		Duration:          duration,
		Segments:          segments,
		FileName:          req.FileName,
		FileSize:          size,
		AutoDetected:      !explicit,
	}

	slog.Info("transcription complete",
		"language", res.Language,
		"detected", res.DetectedLanguages,
		"duration_s", res.Duration,
		"bytes", size,
		"latency_ms", time.Since(start).Milliseconds())

	return res, nil
}

func spoolUpload(dir string, r io.Reader) (*os.File, int64, error) {
	tmp, err := os.CreateTemp(dir, "zapdos-upload-*")
	if err != nil {
		return nil, 0, err
	}
	// One extra byte past the cap is enough to prove the payload oversize.
	size, err := io.Copy(tmp, io.LimitReader(r, MaxPayloadBytes+1))
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, 0, err
	}
	return tmp, size, nil
}

// mapUpstreamError folds provider failures into the client-visible
// taxonomy: rate limiting is retryable, quota exhaustion and credential
// problems are not, everything else is an opaque failure that keeps the
// provider's message for diagnostics.
func mapUpstreamError(err error) error {
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		return errTranscriptionFailed(err.Error())
	}
	switch {
	case ue.Status == http.StatusUnauthorized || ue.Status == http.StatusForbidden:
		return errMisconfigured(ue.Message)
	case strings.Contains(ue.Kind, "insufficient_quota") || strings.Contains(ue.Message, "insufficient_quota"):
		return errQuotaExhausted(ue.Message)
	case ue.Status == http.StatusTooManyRequests:
		return errRateLimited(ue.Message)
	default:
		return errTranscriptionFailed(ue.Message)
	}
}

// probeWAVDuration estimates clip duration from the WAV header when the
// engine does not report one.
func probeWAVDuration(f *os.File) (float64, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	d, err := wav.NewDecoder(f).Duration()
	if err != nil {
		return 0, err
	}
	return d.Seconds(), nil
}
