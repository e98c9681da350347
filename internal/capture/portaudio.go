package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudioSource opens the default input device through PortAudio.
type PortAudioSource struct {
	// FramesPerChunk is the buffer size per Read. Zero means 512 frames,
	// 32ms at 16kHz.
	FramesPerChunk int
}

// Open initializes PortAudio and starts a capture stream. Every failure is
// reported as ErrDeviceUnavailable; PortAudio does not distinguish a
// missing permission from a missing device.
func (s *PortAudioSource) Open(_ context.Context, cfg Config) (Stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	frames := s.FramesPerChunk
	if frames <= 0 {
		frames = 512
	}
	buf := make([]float32, frames)

	stream, err := portaudio.OpenDefaultStream(cfg.Channels, 0, float64(cfg.SampleRate), len(buf), buf)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	return &paStream{stream: stream, buf: buf, rate: cfg.SampleRate}, nil
}

var errStreamClosed = errors.New("input stream closed")

// paStream serializes Read and Close with a mutex: a Read holds the device
// for at most one buffer period, so Close never races the C API and still
// returns promptly.
type paStream struct {
	buf  []float32
	rate int

	mu     sync.Mutex
	stream *portaudio.Stream
	closed bool
}

func (p *paStream) Read() ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, errStreamClosed
	}
	if err := p.stream.Read(); err != nil {
		return nil, fmt.Errorf("read input stream: %w", err)
	}
	out := make([]float32, len(p.buf))
	copy(out, p.buf)
	return out, nil
}

func (p *paStream) SampleRate() int {
	return p.rate
}

func (p *paStream) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	stopErr := p.stream.Stop()
	closeErr := p.stream.Close()
	portaudio.Terminate()

	if stopErr != nil {
		return fmt.Errorf("stop input stream: %w", stopErr)
	}
	return closeErr
}
