package intent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/FNXDOOM/Zapdos/internal/backend"
)

// DelegateRouter dispatches escalations to a reply backend by engine name.
// It implements ReplyDelegate itself using the configured default engine.
type DelegateRouter struct {
	*backend.Router[ReplyDelegate]
	engine string
}

// NewDelegateRouter creates a router with registered reply backends and a
// fallback default.
func NewDelegateRouter(backends map[string]ReplyDelegate, fallback string) *DelegateRouter {
	return &DelegateRouter{Router: backend.NewRouter(backends, fallback), engine: fallback}
}

// Reply routes the prompt to the default engine.
func (r *DelegateRouter) Reply(ctx context.Context, prompt string) (string, error) {
	d, err := r.Route(r.engine)
	if err != nil {
		return "", err
	}
	return d.Reply(ctx, prompt)
}

// HelpdeskDelegate calls a JSON reply service: POST {prompt} in, {response}
// out.
type HelpdeskDelegate struct {
	url    string
	client *http.Client
}

// NewHelpdeskDelegate creates a delegate for the reply service at url.
func NewHelpdeskDelegate(url string, client *http.Client) *HelpdeskDelegate {
	if client == nil {
		client = http.DefaultClient
	}
	return &HelpdeskDelegate{url: url, client: client}
}

func (d *HelpdeskDelegate) Reply(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(struct {
		Prompt string `json:"prompt"`
	}{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("marshal delegate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("create delegate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("delegate http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("delegate returned status %d", resp.StatusCode)
	}

	var decoded struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode delegate response: %w", err)
	}
	if strings.TrimSpace(decoded.Response) == "" {
		return "", errors.New("delegate returned an empty response")
	}
	return decoded.Response, nil
}
