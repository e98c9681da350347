package capture

import (
	"math"
	"time"
)

// GateConfig controls the hands-free silence gate.
type GateConfig struct {
	SpeechThresholdDB float64
	SilenceTimeout    time.Duration
	MinSpeech         time.Duration
}

// DefaultGateConfig returns thresholds tuned for close-mic speech.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		SpeechThresholdDB: -30,
		SilenceTimeout:    1200 * time.Millisecond,
		MinSpeech:         400 * time.Millisecond,
	}
}

// SilenceGate decides when a hands-free recording should end: once speech
// has been heard for at least MinSpeech and SilenceTimeout of quiet has
// followed it. Push-to-talk sessions never consult it.
type SilenceGate struct {
	cfg         GateConfig
	spoke       bool
	speechStart time.Time
	lastSpeech  time.Time
}

// NewSilenceGate creates a gate with the given thresholds.
func NewSilenceGate(cfg GateConfig) *SilenceGate {
	return &SilenceGate{cfg: cfg}
}

// Feed processes one chunk and reports whether the recording should stop.
// Not safe for concurrent use; the session pump is its only caller.
func (g *SilenceGate) Feed(chunk []float32, now time.Time) bool {
	if energyDB(chunk) >= g.cfg.SpeechThresholdDB {
		if !g.spoke {
			g.spoke = true
			g.speechStart = now
		}
		g.lastSpeech = now
		return false
	}

	if !g.spoke {
		return false
	}
	if now.Sub(g.speechStart) < g.cfg.MinSpeech {
		return false
	}
	return now.Sub(g.lastSpeech) >= g.cfg.SilenceTimeout
}

func energyDB(samples []float32) float64 {
	if len(samples) == 0 {
		return -100
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	if rms < 1e-10 {
		return -100
	}
	return 20 * math.Log10(rms)
}
