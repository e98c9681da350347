package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSpeakCancelsPreviousUtterance(t *testing.T) {
	t.Parallel()
	player := newFakePlayer()
	out := NewOutput(DefaultDirectory(), &fakeSynth{}, player)

	first := make(chan error, 1)
	go func() { first <- out.Speak(context.Background(), "first reply") }()
	<-player.started

	second := make(chan error, 1)
	go func() { second <- out.Speak(context.Background(), "second reply") }()
	<-player.started

	player.allow(1)
	if err := <-second; err != nil {
		t.Fatalf("second Speak: %v", err)
	}
	if err := <-first; !errors.Is(err, context.Canceled) {
		t.Fatalf("first Speak = %v, want cancellation", err)
	}

	if got := player.maxConcurrent(); got != 1 {
		t.Fatalf("concurrent playbacks = %d, want 1", got)
	}
	plays := player.playedClips()
	if len(plays) != 2 || plays[0] != "first reply" || plays[1] != "second reply" {
		t.Fatalf("plays = %v", plays)
	}
}

func TestStopHaltsPlayback(t *testing.T) {
	t.Parallel()
	player := newFakePlayer()
	out := NewOutput(DefaultDirectory(), &fakeSynth{}, player)

	errs := make(chan error, 1)
	go func() { errs <- out.Speak(context.Background(), "a long reply") }()
	<-player.started

	out.Stop()
	if err := <-errs; !errors.Is(err, context.Canceled) {
		t.Fatalf("Speak = %v, want cancellation", err)
	}

	// Stopping again with nothing in flight is a no-op.
	out.Stop()
}

func TestSpeakSynthesisFailureSkipsPlayback(t *testing.T) {
	t.Parallel()
	player := newFakePlayer()
	out := NewOutput(DefaultDirectory(), &fakeSynth{err: errors.New("engine offline")}, player)

	if err := out.Speak(context.Background(), "a reply"); err == nil {
		t.Fatal("expected a synthesis error")
	}
	if len(player.playedClips()) != 0 {
		t.Fatal("playback started despite synthesis failure")
	}
}

func TestSpeakSelectsVoiceFromReplyScript(t *testing.T) {
	t.Parallel()
	synth := &fakeSynth{}
	player := newFakePlayer()
	player.allow(1)
	out := NewOutput(DefaultDirectory(), synth, player)

	if err := out.Speak(context.Background(), "पानी की आपूर्ति बहाल हो गई है"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if synth.lastVoice.ID != "hi_IN-pratham-medium" {
		t.Fatalf("voice = %q, want the Hindi voice", synth.lastVoice.ID)
	}
}

type fakeSynth struct {
	err error

	mu        sync.Mutex
	calls     int
	lastVoice Voice
}

func (f *fakeSynth) Synthesize(_ context.Context, text string, voice Voice) (*Synthesis, error) {
	f.mu.Lock()
	f.calls++
	f.lastVoice = voice
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &Synthesis{Audio: []byte(text), ContentType: "audio/wav", LatencyMs: 1}, nil
}

// fakePlayer blocks each Play until it is released or its context is
// cancelled, and records overlap.
type fakePlayer struct {
	started chan struct{}
	release chan struct{}

	mu      sync.Mutex
	playing int
	peak    int
	plays   []string
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{
		started: make(chan struct{}, 16),
		release: make(chan struct{}, 16),
	}
}

func (p *fakePlayer) allow(n int) {
	for i := 0; i < n; i++ {
		p.release <- struct{}{}
	}
}

func (p *fakePlayer) Play(ctx context.Context, audio []byte, _ string) error {
	p.mu.Lock()
	p.playing++
	if p.playing > p.peak {
		p.peak = p.playing
	}
	p.plays = append(p.plays, string(audio))
	p.mu.Unlock()
	p.started <- struct{}{}

	defer func() {
		p.mu.Lock()
		p.playing--
		p.mu.Unlock()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.release:
		return nil
	case <-time.After(5 * time.Second):
		return errors.New("playback never released")
	}
}

func (p *fakePlayer) Stop() {}

func (p *fakePlayer) maxConcurrent() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peak
}

func (p *fakePlayer) playedClips() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := append([]string(nil), p.plays...)
	return out
}
