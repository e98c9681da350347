// Package speech turns reply text into audible playback: voice selection by
// script, text-to-speech synthesis, and single-flight output.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/FNXDOOM/Zapdos/internal/backend"
	"github.com/FNXDOOM/Zapdos/internal/metrics"
)

// Synthesis holds synthesized audio with its container type and timing.
type Synthesis struct {
	Audio       []byte
	ContentType string
	LatencyMs   float64
}

// Synthesizer produces audio for reply text in a selected voice. An empty
// voice means the backend's configured default.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice Voice) (*Synthesis, error)
}

// Router dispatches to the correct synthesis backend based on engine name.
// It implements Synthesizer itself using the configured default engine, and
// records latency and error metrics around the call.
type Router struct {
	*backend.Router[Synthesizer]
	engine string
}

// NewSynthRouter creates a router with registered synthesis backends and a
// fallback default.
func NewSynthRouter(backends map[string]Synthesizer, fallback string) *Router {
	return &Router{Router: backend.NewRouter(backends, fallback), engine: fallback}
}

func (r *Router) Synthesize(ctx context.Context, text string, voice Voice) (*Synthesis, error) {
	start := time.Now()

	s, err := r.Route(r.engine)
	if err != nil {
		return nil, err
	}
	out, err := s.Synthesize(ctx, text, voice)
	if err != nil {
		metrics.SpeechErrors.WithLabelValues("synthesis").Inc()
		return nil, err
	}
	metrics.SpeechSynthesisSeconds.Observe(time.Since(start).Seconds())
	return out, nil
}

// --- Piper backend (local neural TTS, returns WAV) ---

type piperSynthesizer struct {
	url    string
	voice  string
	client *http.Client
}

// NewPiperSynthesizer creates a backend for a piper-tts server. voice is
// the default voice ID used when selection yields none.
func NewPiperSynthesizer(url, voice string, client *http.Client) Synthesizer {
	return &piperSynthesizer{url: url, voice: voice, client: client}
}

func (p *piperSynthesizer) Synthesize(ctx context.Context, text string, voice Voice) (*Synthesis, error) {
	start := time.Now()

	useVoice := p.voice
	if voice.ID != "" {
		useVoice = voice.ID
	}
	body, err := json.Marshal(struct {
		Text  string `json:"text"`
		Voice string `json:"voice"`
	}{Text: text, Voice: useVoice})
	if err != nil {
		return nil, fmt.Errorf("marshal piper request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.url+"/synthesize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create piper request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	audio, err := doSpeechRequest(p.client, req)
	if err != nil {
		return nil, err
	}
	return &Synthesis{
		Audio:       audio,
		ContentType: "audio/wav",
		LatencyMs:   float64(time.Since(start).Milliseconds()),
	}, nil
}

// --- OpenAI-compatible backend (any server exposing /v1/audio/speech) ---

type openaiSynthesizer struct {
	url    string
	apiKey string
	model  string
	voice  string
	client *http.Client
}

// NewOpenAISynthesizer creates a backend for an OpenAI-compatible speech
// endpoint. apiKey may be empty for local servers that skip auth.
func NewOpenAISynthesizer(url, apiKey, model, voice string, client *http.Client) Synthesizer {
	return &openaiSynthesizer{url: url, apiKey: apiKey, model: model, voice: voice, client: client}
}

func (o *openaiSynthesizer) Synthesize(ctx context.Context, text string, voice Voice) (*Synthesis, error) {
	start := time.Now()

	useVoice := o.voice
	if voice.ID != "" {
		useVoice = voice.ID
	}
	body, err := json.Marshal(struct {
		Input          string `json:"input"`
		Model          string `json:"model"`
		Voice          string `json:"voice"`
		ResponseFormat string `json:"response_format"`
	}{Input: text, Model: o.model, Voice: useVoice, ResponseFormat: "wav"})
	if err != nil {
		return nil, fmt.Errorf("marshal speech request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.url+"/v1/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create speech request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	audio, err := doSpeechRequest(o.client, req)
	if err != nil {
		return nil, err
	}
	return &Synthesis{
		Audio:       audio,
		ContentType: "audio/wav",
		LatencyMs:   float64(time.Since(start).Milliseconds()),
	}, nil
}

// --- shared HTTP helper ---

func doSpeechRequest(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("speech status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
