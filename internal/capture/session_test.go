package capture

import (
	"context"
	"encoding/binary"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSessionAccumulatesClip(t *testing.T) {
	t.Parallel()

	first := tone(0.25, 1600)
	first[0], first[1] = 1.0, -1.0
	second := tone(0.25, 1600)

	st := newFakeStream(16000, first, second)
	s, err := Begin(context.Background(), &fakeSource{stream: st}, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	<-st.drained

	clip, err := s.End()
	if err != nil {
		t.Fatalf("End: %v", err)
	}

	if got := string(clip.Data[0:4]); got != "RIFF" {
		t.Errorf("magic = %q, want RIFF", got)
	}
	if got := string(clip.Data[8:12]); got != "WAVE" {
		t.Errorf("container = %q, want WAVE", got)
	}
	if want := 44 + 3200*2; len(clip.Data) != want {
		t.Errorf("len(Data) = %d, want %d", len(clip.Data), want)
	}
	if got := int16(binary.LittleEndian.Uint16(clip.Data[44:46])); got != 32767 {
		t.Errorf("first sample = %d, want 32767", got)
	}
	if got := int16(binary.LittleEndian.Uint16(clip.Data[46:48])); got != -32767 {
		t.Errorf("second sample = %d, want -32767", got)
	}
	if clip.ContentType != "audio/wav" {
		t.Errorf("ContentType = %q, want audio/wav", clip.ContentType)
	}
	if !strings.HasPrefix(clip.FileName, "clip-") || !strings.HasSuffix(clip.FileName, ".wav") {
		t.Errorf("FileName = %q, want clip-<ms>.wav", clip.FileName)
	}
	if clip.Duration != 200*time.Millisecond {
		t.Errorf("Duration = %v, want 200ms", clip.Duration)
	}
	if !clip.StartedAt.Equal(s.StartedAt()) || clip.StartedAt.IsZero() {
		t.Errorf("StartedAt = %v, want session start %v", clip.StartedAt, s.StartedAt())
	}
	if st.closeCount() != 1 {
		t.Errorf("stream closed %d times, want 1", st.closeCount())
	}
}

func TestSessionZeroSamplesStillYieldsClip(t *testing.T) {
	t.Parallel()

	st := newFakeStream(16000)
	s, err := Begin(context.Background(), &fakeSource{stream: st}, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	clip, err := s.End()
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if clip == nil {
		t.Fatal("End returned nil clip")
	}
	if len(clip.Data) != 44 {
		t.Errorf("len(Data) = %d, want 44 (header only)", len(clip.Data))
	}
	if clip.Duration != 0 {
		t.Errorf("Duration = %v, want 0", clip.Duration)
	}
}

func TestSessionReadFailureStillReleasesDevice(t *testing.T) {
	t.Parallel()

	st := newFakeStream(16000, tone(0.25, 1600))
	st.readErr = errors.New("device yanked")

	s, err := Begin(context.Background(), &fakeSource{stream: st}, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	<-s.done

	clip, err := s.End()
	if err == nil || !strings.Contains(err.Error(), "capture interrupted") {
		t.Fatalf("End error = %v, want capture interrupted", err)
	}
	if !strings.Contains(err.Error(), "device yanked") {
		t.Errorf("End error = %v, want underlying cause preserved", err)
	}
	if clip == nil {
		t.Fatal("End returned nil clip alongside the error")
	}
	if want := 44 + 1600*2; len(clip.Data) != want {
		t.Errorf("len(Data) = %d, want %d (audio before the failure kept)", len(clip.Data), want)
	}
	if st.closeCount() != 1 {
		t.Errorf("stream closed %d times, want 1", st.closeCount())
	}
}

func TestSessionCloseFailureReported(t *testing.T) {
	t.Parallel()

	st := newFakeStream(16000, tone(0.25, 160))
	st.closeErr = errors.New("driver wedged")

	s, err := Begin(context.Background(), &fakeSource{stream: st}, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	<-st.drained

	clip, err := s.End()
	if err == nil || !strings.Contains(err.Error(), "release input device") {
		t.Fatalf("End error = %v, want release input device", err)
	}
	if clip == nil || len(clip.Data) != 44+160*2 {
		t.Fatalf("clip not finalized despite close failure: %+v", clip)
	}
}

func TestSessionResamplesToRequestedRate(t *testing.T) {
	t.Parallel()

	st := newFakeStream(48000, tone(0.25, 4800))
	s, err := Begin(context.Background(), &fakeSource{stream: st}, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	<-st.drained

	clip, err := s.End()
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if want := 44 + 1600*2; len(clip.Data) != want {
		t.Errorf("len(Data) = %d, want %d (4800 samples at 48k down to 1600 at 16k)", len(clip.Data), want)
	}
	if got := binary.LittleEndian.Uint32(clip.Data[24:28]); got != 16000 {
		t.Errorf("header sample rate = %d, want 16000", got)
	}
	if clip.Duration != 100*time.Millisecond {
		t.Errorf("Duration = %v, want 100ms", clip.Duration)
	}
}

func TestSessionAbortDiscardsAndReleases(t *testing.T) {
	t.Parallel()

	st := newFakeStream(16000, tone(0.25, 1600))
	s, err := Begin(context.Background(), &fakeSource{stream: st}, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	<-st.drained

	s.Abort()

	if st.closeCount() != 1 {
		t.Errorf("stream closed %d times, want 1", st.closeCount())
	}
	s.mu.Lock()
	kept := len(s.chunks)
	s.mu.Unlock()
	if kept != 0 {
		t.Errorf("aborted session kept %d chunks, want 0", kept)
	}
}

func TestBeginPropagatesSourceErrors(t *testing.T) {
	t.Parallel()

	for _, sentinel := range []error{ErrPermissionDenied, ErrDeviceUnavailable} {
		s, err := Begin(context.Background(), &fakeSource{err: sentinel}, DefaultConfig(), nil)
		if s != nil {
			t.Errorf("%v: Begin returned a session", sentinel)
		}
		if !errors.Is(err, sentinel) {
			t.Errorf("Begin error = %v, want %v", err, sentinel)
		}
	}
}

func TestSessionAutoStopFiresOnSilence(t *testing.T) {
	t.Parallel()

	gate := NewSilenceGate(GateConfig{SpeechThresholdDB: -30})
	st := newFakeStream(16000, tone(0.5, 1600), tone(0, 1600))

	s, err := Begin(context.Background(), &fakeSource{stream: st}, DefaultConfig(), gate)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	select {
	case <-s.AutoStop():
	case <-time.After(2 * time.Second):
		t.Fatal("auto-stop never fired")
	}

	clip, err := s.End()
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if clip.Duration != 200*time.Millisecond {
		t.Errorf("Duration = %v, want 200ms (both chunks kept)", clip.Duration)
	}
}

func TestSessionWithoutGateNeverAutoStops(t *testing.T) {
	t.Parallel()

	st := newFakeStream(16000, tone(0.5, 1600), tone(0, 1600))
	s, err := Begin(context.Background(), &fakeSource{stream: st}, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	<-st.drained

	select {
	case <-s.AutoStop():
		t.Fatal("auto-stop fired without a gate")
	default:
	}
	if _, err := s.End(); err != nil {
		t.Fatalf("End: %v", err)
	}
}

func tone(level float32, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = level
	}
	return out
}

type fakeSource struct {
	stream *fakeStream
	err    error
}

func (f *fakeSource) Open(_ context.Context, _ Config) (Stream, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stream, nil
}

// fakeStream serves queued chunks, then either returns readErr or blocks
// until Close. drained closes once the queue is exhausted.
type fakeStream struct {
	rate     int
	readErr  error
	closeErr error
	drained  chan struct{}

	mu       sync.Mutex
	queue    [][]float32
	closed   bool
	closes   int
	closeCh  chan struct{}
	drainOne sync.Once
}

func newFakeStream(rate int, chunks ...[]float32) *fakeStream {
	return &fakeStream{
		rate:    rate,
		queue:   chunks,
		drained: make(chan struct{}),
		closeCh: make(chan struct{}),
	}
}

func (f *fakeStream) Read() ([]float32, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, errors.New("stream closed")
	}
	if len(f.queue) > 0 {
		chunk := f.queue[0]
		f.queue = f.queue[1:]
		f.mu.Unlock()
		return chunk, nil
	}
	f.mu.Unlock()

	f.drainOne.Do(func() { close(f.drained) })
	if f.readErr != nil {
		return nil, f.readErr
	}
	<-f.closeCh
	return nil, errors.New("stream closed")
}

func (f *fakeStream) SampleRate() int {
	return f.rate
}

func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	if f.closed {
		return nil
	}
	f.closed = true
	close(f.closeCh)
	return f.closeErr
}

func (f *fakeStream) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}
