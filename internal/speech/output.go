package speech

import (
	"context"
	"fmt"
	"sync"
)

// Player renders one synthesized clip to the audio device. Play blocks
// until the clip finishes or ctx is cancelled.
type Player interface {
	Play(ctx context.Context, audio []byte, contentType string) error
	Stop()
}

// Output speaks replies aloud, one at a time. Speaking a new reply cancels
// whatever is still playing, so utterances never overlap.
type Output struct {
	voices *Directory
	synth  Synthesizer
	player Player

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewOutput wires voice selection, synthesis, and playback together.
func NewOutput(voices *Directory, synth Synthesizer, player Player) *Output {
	return &Output{voices: voices, synth: synth, player: player}
}

// Speak selects a voice for replyText, synthesizes it, and plays it. It
// blocks until playback ends or ctx is cancelled. Any utterance still in
// flight is cancelled and fully stopped before this one starts.
func (o *Output) Speak(ctx context.Context, replyText string) error {
	// A turn cancelled before its Speak ran must not displace the
	// utterance that superseded it.
	if ctx.Err() != nil {
		return ctx.Err()
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	defer close(done)
	defer cancel()

	o.mu.Lock()
	prevCancel, prevDone := o.cancel, o.done
	o.cancel, o.done = cancel, done
	o.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
		<-prevDone
	}

	voice := o.voices.Select(replyText)
	syn, err := o.synth.Synthesize(ctx, replyText, voice)
	if err != nil {
		return fmt.Errorf("synthesize reply: %w", err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return o.player.Play(ctx, syn.Audio, syn.ContentType)
}

// Stop cancels the in-flight utterance, if any, and waits until its
// playback has released the device.
func (o *Output) Stop() {
	o.mu.Lock()
	cancel, done := o.cancel, o.done
	o.cancel, o.done = nil, nil
	o.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	o.player.Stop()
}
