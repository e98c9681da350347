// Package session owns the assistant's single source of truth: the
// turn state machine driving capture, transcription, resolution, and
// playback for one press-and-hold gesture at a time.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FNXDOOM/Zapdos/internal/capture"
	"github.com/FNXDOOM/Zapdos/internal/intent"
	"github.com/FNXDOOM/Zapdos/internal/metrics"
	"github.com/FNXDOOM/Zapdos/internal/transcribe"
)

// State is the controller's current phase.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StateLoading   State = "loading"
	StatePlaying   State = "playing"
)

// Turn is one listen-transcribe-resolve-speak cycle. A new gesture
// supersedes the previous turn; turns are never merged.
type Turn struct {
	ID          string              `json:"id"`
	Transcript  string              `json:"transcript,omitempty"`
	Reply       string              `json:"reply,omitempty"`
	Explanation *intent.Explanation `json:"explanation,omitempty"`
	Err         string              `json:"error,omitempty"`
	StartedAt   time.Time           `json:"startedAt"`
}

// EventType says which part of the turn an event carries.
type EventType string

const (
	EventState      EventType = "state"
	EventTranscript EventType = "transcript"
	EventReply      EventType = "reply"
	EventTurnError  EventType = "error"
)

// Event is one controller transition, published to the view layer.
type Event struct {
	Type  EventType `json:"type"`
	State State     `json:"state"`
	Turn  *Turn     `json:"turn,omitempty"`
}

// EventSink receives every controller transition. Publish is called with
// the controller lock held and must not block; the view feed drops frames
// for slow consumers rather than stalling the turn pipeline.
type EventSink interface {
	Publish(Event)
}

// Transcriber turns a finalized clip into text. The gateway client is the
// production implementation.
type Transcriber interface {
	Transcribe(ctx context.Context, clip *capture.Clip, hint string) (*transcribe.Result, error)
}

// Resolver maps a transcript to reply text. It never fails; a fallback
// reply stands in for any internal failure.
type Resolver interface {
	Resolve(ctx context.Context, transcript string) (string, *intent.Explanation)
}

// SpeechOutput speaks a reply aloud. Speak blocks until playback ends or
// ctx is cancelled; Stop halts whatever is playing.
type SpeechOutput interface {
	Speak(ctx context.Context, text string) error
	Stop()
}

// Config wires the controller's collaborators. All fields except Sink are
// required.
type Config struct {
	Source       capture.Source
	Capture      capture.Config
	Transcriber  Transcriber
	Resolver     Resolver
	Output       SpeechOutput
	Sink         EventSink
	LanguageHint string

	// AutoStop arms a fresh silence gate per recording; Gate supplies its
	// thresholds. Off, the press-and-hold gesture is the only stop.
	AutoStop bool
	Gate     capture.GateConfig
}

// Controller runs the turn state machine. All methods are safe for
// concurrent use; a generation counter makes superseded turns inert.
type Controller struct {
	cfg  Config
	sink EventSink

	mu         sync.Mutex
	state      State
	turn       *Turn
	rec        *capture.Session
	gen        int
	cancelTurn context.CancelFunc
}

// New creates an idle controller.
func New(cfg Config) *Controller {
	sink := cfg.Sink
	if sink == nil {
		sink = nopSink{}
	}
	if cfg.Capture.SampleRate == 0 {
		cfg.Capture = capture.DefaultConfig()
	}
	return &Controller{cfg: cfg, sink: sink, state: StateIdle}
}

// Press starts a new capture gesture. While already recording it is a
// no-op; while a previous turn is loading or playing it first forces that
// turn terminal (cancels its transcription and playback), then records.
func (c *Controller) Press(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateRecording {
		return nil
	}
	c.supersedeLocked()

	c.turn = &Turn{ID: uuid.NewString(), StartedAt: time.Now()}

	var gate *capture.SilenceGate
	if c.cfg.AutoStop {
		gate = capture.NewSilenceGate(c.cfg.Gate)
	}
	rec, err := capture.Begin(ctx, c.cfg.Source, c.cfg.Capture, gate)
	if err != nil {
		slog.Error("capture begin failed", "turn", c.turn.ID, "error", err)
		c.turn.Err = captureErrMessage(err)
		c.state = StateIdle
		metrics.TurnsTotal.WithLabelValues("error").Inc()
		c.publishLocked(EventTurnError)
		return err
	}

	c.rec = rec
	c.state = StateRecording
	c.publishLocked(EventState)
	if gate != nil {
		go c.watchAutoStop(rec, c.gen)
	}
	return nil
}

// Release ends the active recording and runs the rest of the turn
// asynchronously. Without an active recording it is a no-op.
func (c *Controller) Release(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRecording || c.rec == nil {
		return nil
	}
	c.releaseLocked(ctx)
	return nil
}

// Cancel aborts the active recording or in-flight turn without producing
// any output.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateIdle {
		return
	}
	recording := c.state == StateRecording
	c.supersedeLocked()
	c.turn = nil
	c.state = StateIdle
	if recording {
		metrics.TurnsTotal.WithLabelValues("canceled").Inc()
	}
	c.publishLocked(EventState)
}

// Snapshot returns the current state and a copy of the active turn.
func (c *Controller) Snapshot() (State, *Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.turnCopyLocked()
}

// supersedeLocked forces whatever is in flight terminal: the pending
// transcription context, playback, and any stale recording. Bumping the
// generation makes the old turn's goroutines inert.
func (c *Controller) supersedeLocked() {
	if c.cancelTurn != nil {
		c.cancelTurn()
		c.cancelTurn = nil
	}
	c.cfg.Output.Stop()
	if c.rec != nil {
		c.rec.Abort()
		c.rec = nil
	}
	c.gen++
}

func (c *Controller) releaseLocked(ctx context.Context) {
	rec := c.rec
	c.rec = nil
	c.state = StateLoading
	c.publishLocked(EventState)

	turnCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancelTurn = cancel
	go c.runTurn(turnCtx, c.gen, rec)
}

// autoRelease is Release on behalf of the silence gate. It only fires if
// the recording it watched is still the active one.
func (c *Controller) autoRelease(rec *capture.Session, gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.rec != rec || c.state != StateRecording {
		return
	}
	slog.Info("silence gate released capture", "turn", c.turn.ID)
	c.releaseLocked(context.Background())
}

func (c *Controller) watchAutoStop(rec *capture.Session, gen int) {
	select {
	case <-rec.AutoStop():
		c.autoRelease(rec, gen)
	case <-rec.Done():
	}
}

// runTurn carries one turn from finalized clip to spoken reply. gen pins
// it to the generation it was started under; any mismatch means a newer
// gesture superseded it.
func (c *Controller) runTurn(ctx context.Context, gen int, rec *capture.Session) {
	clip, err := rec.End()
	if err != nil {
		// The clip is still usable; server-side validation is the backstop.
		slog.Warn("capture finalized with error", "error", err)
	}
	if ctx.Err() != nil {
		metrics.TurnsTotal.WithLabelValues("superseded").Inc()
		return
	}

	res, err := c.cfg.Transcriber.Transcribe(ctx, clip, c.cfg.LanguageHint)
	if err != nil {
		if ctx.Err() != nil {
			metrics.TurnsTotal.WithLabelValues("superseded").Inc()
			return
		}
		c.failTurn(gen, err)
		return
	}
	slog.Info("transcribed",
		"language", res.Language,
		"scripts", res.DetectedLanguages,
		"transcript", res.Transcript)
	c.setTranscript(gen, res.Transcript)

	reply, expl := c.cfg.Resolver.Resolve(ctx, res.Transcript)
	if ctx.Err() != nil {
		metrics.TurnsTotal.WithLabelValues("superseded").Inc()
		return
	}
	c.setReply(gen, reply, expl)

	if err := c.cfg.Output.Speak(ctx, reply); err != nil && ctx.Err() == nil {
		// Degrades to a silent skip; the textual reply already went out.
		slog.Warn("speech synthesis failed", "error", err)
	}
	c.finishTurn(gen)
}

func (c *Controller) setTranscript(gen int, transcript string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.turn == nil {
		return
	}
	c.turn.Transcript = transcript
	c.publishLocked(EventTranscript)
}

func (c *Controller) setReply(gen int, reply string, expl *intent.Explanation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.turn == nil {
		return
	}
	c.turn.Reply = reply
	c.turn.Explanation = expl
	c.state = StatePlaying
	c.publishLocked(EventReply)
}

func (c *Controller) failTurn(gen int, err error) {
	slog.Error("turn failed", "error", err)
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen || c.turn == nil {
		metrics.TurnsTotal.WithLabelValues("superseded").Inc()
		return
	}
	c.cancelTurn = nil
	c.turn.Err = turnErrMessage(err)
	c.state = StateIdle
	metrics.TurnsTotal.WithLabelValues("error").Inc()
	c.publishLocked(EventTurnError)
}

func (c *Controller) finishTurn(gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		metrics.TurnsTotal.WithLabelValues("superseded").Inc()
		return
	}
	c.cancelTurn = nil
	c.state = StateIdle
	metrics.TurnsTotal.WithLabelValues("completed").Inc()
	c.publishLocked(EventState)
}

func (c *Controller) publishLocked(t EventType) {
	c.sink.Publish(Event{Type: t, State: c.state, Turn: c.turnCopyLocked()})
}

func (c *Controller) turnCopyLocked() *Turn {
	if c.turn == nil {
		return nil
	}
	t := *c.turn
	return &t
}

func captureErrMessage(err error) string {
	switch {
	case errors.Is(err, capture.ErrPermissionDenied):
		return "Microphone permission denied. Grant access and try again"
	case errors.Is(err, capture.ErrDeviceUnavailable):
		return "No audio input device is available"
	default:
		return "Could not start recording"
	}
}

func turnErrMessage(err error) string {
	var te *transcribe.Error
	if errors.As(err, &te) {
		return te.Message
	}
	return "Could not reach the transcription service"
}

type nopSink struct{}

func (nopSink) Publish(Event) {}

// ClipTranscriber adapts the gateway HTTP client to the Transcriber
// capability.
type ClipTranscriber struct {
	Client *transcribe.Client
}

func (t ClipTranscriber) Transcribe(ctx context.Context, clip *capture.Clip, hint string) (*transcribe.Result, error) {
	return t.Client.Transcribe(ctx, clip.Data, clip.FileName, clip.ContentType, hint)
}
