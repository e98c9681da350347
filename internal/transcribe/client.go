package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// Client uploads clips to a remote gateway's POST /transcribe endpoint.
// It is the assistant-side counterpart of Handler.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient returns a Client for the gateway at baseURL.
func NewClient(baseURL string, client *http.Client) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Transcribe posts one clip and decodes the gateway's response. Gateway
// rejections come back as *Error so callers can branch on the code.
func (c *Client) Transcribe(ctx context.Context, audio []byte, fileName, contentType, hint string) (*Result, error) {
	body, formType, err := buildUploadForm(audio, fileName, contentType, hint)
	if err != nil {
		return nil, fmt.Errorf("build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe", body)
	if err != nil {
		return nil, fmt.Errorf("create transcription request: %w", err)
	}
	req.Header.Set("Content-Type", formType)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post transcription: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeGatewayError(resp)
	}

	var sr successResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode transcription response: %w", err)
	}
	return &Result{
		Transcript:        sr.Transcript,
		Language:          sr.Language,
		DetectedLanguages: sr.DetectedLanguages,
		Duration:          sr.Duration,
		Segments:          sr.Segments,
		FileName:          sr.Metadata.FileName,
		FileSize:          sr.Metadata.FileSize,
		AutoDetected:      sr.Metadata.AutoDetected,
	}, nil
}

func buildUploadForm(audio []byte, fileName, contentType, hint string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="audio"; filename="%s"`, fileName))
	if contentType != "" {
		hdr.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(hdr)
	if err != nil {
		return nil, "", fmt.Errorf("create audio part: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", fmt.Errorf("write audio part: %w", err)
	}

	if hint == "" {
		hint = "auto"
	}
	if err := w.WriteField("language", hint); err != nil {
		return nil, "", fmt.Errorf("write language field: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func decodeGatewayError(resp *http.Response) error {
	code := CodeTranscriptionFailed
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		code = CodeRateLimited
	case http.StatusServiceUnavailable:
		code = CodeQuotaExhausted
	}

	var er errorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&er); err == nil && er.Error != "" {
		return &Error{Code: code, Message: er.Error}
	}
	return &Error{Code: code, Message: fmt.Sprintf("gateway returned status %d", resp.StatusCode)}
}
