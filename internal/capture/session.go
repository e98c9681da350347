package capture

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Session records one press-and-hold gesture from Begin to End. It is
// owned by a single controller turn and must be ended or aborted exactly
// once.
type Session struct {
	stream    Stream
	cfg       Config
	gate      *SilenceGate
	cancel    context.CancelFunc
	startedAt time.Time

	done     chan struct{}
	autoStop chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	chunks  [][]float32
	total   int
	readErr error
}

// Begin opens the source and starts accumulating audio. gate is optional;
// when non-nil it arms hands-free auto-stop, signalled via AutoStop.
// Source failures (ErrPermissionDenied, ErrDeviceUnavailable) pass through
// untouched.
func Begin(ctx context.Context, src Source, cfg Config, gate *SilenceGate) (*Session, error) {
	stream, err := src.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		stream:    stream,
		cfg:       cfg,
		gate:      gate,
		cancel:    cancel,
		startedAt: time.Now(),
		done:      make(chan struct{}),
		autoStop:  make(chan struct{}),
	}
	go s.pump(ctx)
	return s, nil
}

func (s *Session) pump(ctx context.Context) {
	defer close(s.done)
	for {
		chunk, err := s.stream.Read()
		if len(chunk) > 0 {
			s.mu.Lock()
			s.chunks = append(s.chunks, chunk)
			s.total += len(chunk)
			s.mu.Unlock()
			if s.gate != nil && s.gate.Feed(chunk, time.Now()) {
				s.stopOnce.Do(func() { close(s.autoStop) })
			}
		}
		if err != nil {
			// The close triggered by End/Abort also lands here; only
			// mid-recording failures are worth keeping.
			if ctx.Err() == nil {
				s.mu.Lock()
				s.readErr = err
				s.mu.Unlock()
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// AutoStop is closed when the silence gate decides the speaker is done.
// Never closed when no gate was armed.
func (s *Session) AutoStop() <-chan struct{} {
	return s.autoStop
}

// Done is closed once the capture pump has exited, whether by End, Abort,
// or a stream failure.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// StartedAt reports when the recording began.
func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// End stops the recording, releases the device unconditionally, and
// finalizes the clip. A clip is always returned, even when zero samples
// were captured or the stream failed mid-read; the error is diagnostic and
// does not invalidate the clip.
func (s *Session) End() (*Clip, error) {
	readErr, closeErr := s.stop()

	s.mu.Lock()
	chunks, total := s.chunks, s.total
	s.chunks = nil
	s.mu.Unlock()

	samples := make([]float32, 0, total)
	for _, c := range chunks {
		samples = append(samples, c...)
	}

	rate := s.stream.SampleRate()
	if rate <= 0 {
		rate = s.cfg.SampleRate
	}
	if rate != s.cfg.SampleRate && len(samples) > 0 {
		samples = Resample(samples, rate, s.cfg.SampleRate)
		rate = s.cfg.SampleRate
	}

	clip := &Clip{
		Data:        EncodeWAV(samples, rate),
		ContentType: "audio/wav",
		FileName:    fmt.Sprintf("clip-%d.wav", s.startedAt.UnixMilli()),
		Duration:    time.Duration(float64(len(samples)) / float64(rate) * float64(time.Second)),
		StartedAt:   s.startedAt,
	}

	if readErr != nil {
		return clip, fmt.Errorf("capture interrupted: %w", readErr)
	}
	if closeErr != nil {
		return clip, fmt.Errorf("release input device: %w", closeErr)
	}
	return clip, nil
}

// Abort stops the recording and discards everything captured.
func (s *Session) Abort() {
	s.stop()
	s.mu.Lock()
	s.chunks = nil
	s.mu.Unlock()
}

func (s *Session) stop() (readErr, closeErr error) {
	s.cancel()
	closeErr = s.stream.Close()
	<-s.done

	s.mu.Lock()
	readErr = s.readErr
	s.mu.Unlock()
	return readErr, closeErr
}
