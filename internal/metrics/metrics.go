package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TranscriptionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "transcribe_requests_active",
		Help: "Transcription requests currently in flight",
	})

	TranscriptionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcribe_requests_total",
		Help: "Total transcription requests processed",
	})

	TranscriptionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcribe_errors_total",
		Help: "Transcription failures by error code",
	}, []string{"code"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "transcribe_stage_duration_seconds",
		Help:    "Per-stage latency",
		Buckets: []float64{0.05, 0.1, 0.2, 0.3, 0.5, 0.8, 1.0, 2.0, 5.0, 10.0},
	}, []string{"stage"})

	PayloadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "transcribe_payload_bytes",
		Help:    "Uploaded clip sizes",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
	})

	ScriptsDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcribe_scripts_detected_total",
		Help: "Unicode scripts observed in transcripts",
	}, []string{"script"})

	LanguageDirectives = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcribe_language_directives_total",
		Help: "Explicit language directives versus auto-detection",
	}, []string{"mode"})

	SpeechSynthesisSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "speech_synthesis_seconds",
		Help:    "Text-to-speech synthesis latency",
		Buckets: []float64{0.05, 0.1, 0.2, 0.3, 0.5, 0.8, 1.0, 2.0, 5.0},
	})

	SpeechErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speech_errors_total",
		Help: "Speech failures by stage",
	}, []string{"stage"})

	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_turns_total",
		Help: "Conversation turns by outcome",
	}, []string{"outcome"})
)
