package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// Segment is one timed span of recognized speech.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// UpstreamRequest is one call to the external speech-to-text engine.
type UpstreamRequest struct {
	Audio    io.Reader
	Format   string // container label from DetectFormat
	Language string // ISO 639-1 directive; empty lets the engine auto-detect
	Prompt   string // context-priming phrase list
}

// UpstreamResult is the engine's decoded verbose response.
type UpstreamResult struct {
	Text     string
	Language string
	Duration float64
	Segments []Segment
}

// SpeechToText is the external transcription engine boundary.
type SpeechToText interface {
	Transcribe(ctx context.Context, req UpstreamRequest) (*UpstreamResult, error)
}

// UpstreamError carries the provider's HTTP status and error body so the
// service can map it onto the client-visible taxonomy.
type UpstreamError struct {
	Status  int
	Kind    string // provider error type/code, e.g. "insufficient_quota"
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("upstream status %d (%s): %s", e.Status, e.Kind, e.Message)
	}
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Message)
}

// WhisperClient calls an OpenAI-compatible /v1/audio/transcriptions
// endpoint. Temperature is pinned to the engine's most deterministic
// setting on every call.
type WhisperClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewWhisperClient creates an upstream transcription client. The credential
// is checked at call time, never at construction, so a missing key cannot
// crash startup.
func NewWhisperClient(baseURL, apiKey, model string, client *http.Client) *WhisperClient {
	return &WhisperClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  client,
	}
}

func (c *WhisperClient) Transcribe(ctx context.Context, req UpstreamRequest) (*UpstreamResult, error) {
	if c.apiKey == "" {
		return nil, &UpstreamError{
			Status:  http.StatusUnauthorized,
			Kind:    "missing_credential",
			Message: "transcription API key is not set",
		}
	}

	body, contentType, err := buildMultipartAudio(req, c.model)
	if err != nil {
		return nil, fmt.Errorf("build transcription request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/audio/transcriptions", body)
	if err != nil {
		return nil, fmt.Errorf("create transcription request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("transcription http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeUpstreamError(resp)
	}

	var decoded struct {
		Text     string    `json:"text"`
		Language string    `json:"language"`
		Duration float64   `json:"duration"`
		Segments []Segment `json:"segments"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode transcription response: %w", err)
	}

	return &UpstreamResult{
		Text:     strings.TrimSpace(decoded.Text),
		Language: decoded.Language,
		Duration: decoded.Duration,
		Segments: decoded.Segments,
	}, nil
}

// buildMultipartAudio assembles the multipart form for one transcription
// call. The file part carries a canonical name so the engine can sniff the
// container from its extension.
func buildMultipartAudio(req UpstreamRequest, model string) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	part, err := w.CreateFormFile("file", "audio."+req.Format)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, req.Audio); err != nil {
		return nil, "", fmt.Errorf("copy audio payload: %w", err)
	}

	fields := map[string]string{
		"model":           model,
		"response_format": "verbose_json",
		"temperature":     "0",
	}
	if req.Language != "" {
		fields["language"] = req.Language
	}
	if req.Prompt != "" {
		fields["prompt"] = req.Prompt
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", k, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}

func decodeUpstreamError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	ue := &UpstreamError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}

	var envelope struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error.Message != "" {
		ue.Message = envelope.Error.Message
		ue.Kind = envelope.Error.Type
		if envelope.Error.Code != "" {
			ue.Kind = envelope.Error.Code
		}
	}
	return ue
}
