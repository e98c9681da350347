package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWhisperClientRequestShape(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth, gotFileName, gotFileBody string
	gotFields := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		for k, vs := range r.MultipartForm.Value {
			gotFields[k] = vs[0]
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("file part: %v", err)
			return
		}
		defer f.Close()
		body, _ := io.ReadAll(f)
		gotFileName = hdr.Filename
		gotFileBody = string(body)

		json.NewEncoder(w).Encode(map[string]any{
			"text":     "  the power is out  ",
			"language": "english",
			"duration": 1.9,
			"segments": []map[string]any{{"text": "the power is out", "start": 0.0, "end": 1.9}},
		})
	}))
	t.Cleanup(srv.Close)

	c := NewWhisperClient(srv.URL, "sk-test", "whisper-1", srv.Client())
	res, err := c.Transcribe(context.Background(), UpstreamRequest{
		Audio:    strings.NewReader("RIFFdata"),
		Format:   "wav",
		Language: "hi",
		Prompt:   "helpdesk terms",
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if gotPath != "/v1/audio/transcriptions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("authorization = %q", gotAuth)
	}
	for k, want := range map[string]string{
		"model":           "whisper-1",
		"response_format": "verbose_json",
		"temperature":     "0",
		"language":        "hi",
		"prompt":          "helpdesk terms",
	} {
		if gotFields[k] != want {
			t.Errorf("field %s = %q, want %q", k, gotFields[k], want)
		}
	}
	if gotFileName != "audio.wav" {
		t.Errorf("file name = %q, want audio.wav", gotFileName)
	}
	if gotFileBody != "RIFFdata" {
		t.Errorf("file body = %q", gotFileBody)
	}
	if res.Text != "the power is out" {
		t.Errorf("text = %q, want it trimmed", res.Text)
	}
	if res.Language != "english" || res.Duration != 1.9 || len(res.Segments) != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestWhisperClientOmitsAutoFields(t *testing.T) {
	t.Parallel()

	gotFields := map[string][]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		for k, vs := range r.MultipartForm.Value {
			gotFields[k] = vs
		}
		json.NewEncoder(w).Encode(map[string]any{"text": "ok"})
	}))
	t.Cleanup(srv.Close)

	c := NewWhisperClient(srv.URL, "sk-test", "whisper-1", srv.Client())
	if _, err := c.Transcribe(context.Background(), UpstreamRequest{
		Audio:  strings.NewReader("RIFFdata"),
		Format: "webm",
	}); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if _, ok := gotFields["language"]; ok {
		t.Error("language field sent without a directive")
	}
	if _, ok := gotFields["prompt"]; ok {
		t.Error("prompt field sent without priming text")
	}
}

func TestWhisperClientErrorEnvelope(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		status      int
		body        string
		wantKind    string
		wantMessage string
	}{
		{
			name:        "quota envelope",
			status:      429,
			body:        `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota"}}`,
			wantKind:    "insufficient_quota",
			wantMessage: "You exceeded your current quota",
		},
		{
			name:        "code overrides type",
			status:      401,
			body:        `{"error":{"message":"Incorrect API key","type":"invalid_request_error","code":"invalid_api_key"}}`,
			wantKind:    "invalid_api_key",
			wantMessage: "Incorrect API key",
		},
		{
			name:        "plain body",
			status:      500,
			body:        "upstream exploded",
			wantKind:    "",
			wantMessage: "upstream exploded",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			}))
			t.Cleanup(srv.Close)

			c := NewWhisperClient(srv.URL, "sk-test", "whisper-1", srv.Client())
			_, err := c.Transcribe(context.Background(), UpstreamRequest{
				Audio:  strings.NewReader("RIFFdata"),
				Format: "wav",
			})

			var ue *UpstreamError
			if !errors.As(err, &ue) {
				t.Fatalf("err = %v, want *UpstreamError", err)
			}
			if ue.Status != tc.status || ue.Kind != tc.wantKind || ue.Message != tc.wantMessage {
				t.Fatalf("upstream error = %+v", ue)
			}
		})
	}
}

func TestWhisperClientMissingCredential(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("engine called without a credential")
	}))
	t.Cleanup(srv.Close)

	c := NewWhisperClient(srv.URL, "", "whisper-1", srv.Client())
	_, err := c.Transcribe(context.Background(), UpstreamRequest{
		Audio:  strings.NewReader("RIFFdata"),
		Format: "wav",
	})

	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want *UpstreamError", err)
	}
	if ue.Status != http.StatusUnauthorized || ue.Kind != "missing_credential" {
		t.Fatalf("upstream error = %+v", ue)
	}
}
