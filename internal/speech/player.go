package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// BeepPlayer plays synthesized clips through the default audio output. The
// speaker is initialized lazily at the first clip's sample rate; later
// clips at other rates are resampled to it.
type BeepPlayer struct {
	mu   sync.Mutex
	rate beep.SampleRate // 0 until the speaker is initialized
}

// NewBeepPlayer returns an uninitialized player. The audio device is only
// opened on first playback.
func NewBeepPlayer() *BeepPlayer {
	return &BeepPlayer{}
}

func (p *BeepPlayer) Play(ctx context.Context, audio []byte, contentType string) error {
	streamer, format, err := decodeClip(audio, contentType)
	if err != nil {
		return fmt.Errorf("decode synthesized audio: %w", err)
	}
	defer streamer.Close()

	p.mu.Lock()
	if p.rate == 0 {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(100*time.Millisecond)); err != nil {
			p.mu.Unlock()
			return fmt.Errorf("open audio output: %w", err)
		}
		p.rate = format.SampleRate
	}
	rate := p.rate
	p.mu.Unlock()

	var stream beep.Streamer = streamer
	if format.SampleRate != rate {
		stream = beep.Resample(4, format.SampleRate, rate, streamer)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(stream, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}

// Stop drops anything queued on the speaker.
func (p *BeepPlayer) Stop() {
	p.mu.Lock()
	initialized := p.rate != 0
	p.mu.Unlock()
	if initialized {
		speaker.Clear()
	}
}

func decodeClip(audio []byte, contentType string) (beep.StreamSeekCloser, beep.Format, error) {
	ct := strings.ToLower(contentType)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch ct {
	case "audio/mpeg", "audio/mp3":
		return mp3.Decode(io.NopCloser(bytes.NewReader(audio)))
	default:
		// WAV is what both synthesis backends return.
		return wav.Decode(bytes.NewReader(audio))
	}
}
