// Package capture owns the microphone: stream acquisition, the per-gesture
// recording session, and clip finalization.
package capture

import (
	"context"
	"errors"
	"time"
)

// Config is the capture profile requested from the audio source.
type Config struct {
	SampleRate int
	Channels   int
	// EchoCancellation is honored where the platform input path supports
	// it; sources that cannot request it record raw.
	EchoCancellation bool
}

// DefaultConfig is the fixed capture profile: mono 16kHz with echo
// cancellation requested.
func DefaultConfig() Config {
	return Config{SampleRate: 16000, Channels: 1, EchoCancellation: true}
}

// Terminal capture failures. Neither is retryable within the turn; both
// require user action before the next gesture can succeed.
var (
	ErrPermissionDenied  = errors.New("microphone permission denied")
	ErrDeviceUnavailable = errors.New("audio input device unavailable")
)

// Source acquires audio input streams. One implementation exists per
// platform; tests substitute fakes.
type Source interface {
	Open(ctx context.Context, cfg Config) (Stream, error)
}

// Stream is one live microphone stream. Read blocks until the next chunk
// of samples is available and returns a slice owned by the caller; after
// Close it returns an error promptly.
type Stream interface {
	Read() ([]float32, error)
	SampleRate() int
	Close() error
}

// Clip is one finalized recording, encoded and ready for upload. The
// container is the platform default for the source that recorded it.
type Clip struct {
	Data        []byte
	ContentType string
	FileName    string
	Duration    time.Duration
	StartedAt   time.Time
}
