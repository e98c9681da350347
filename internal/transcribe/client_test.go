package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientTranscribe(t *testing.T) {
	t.Parallel()

	var gotFileName, gotPartType, gotLanguage, gotBody string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /transcribe", func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("audio part: %v", err)
			return
		}
		defer f.Close()
		body, _ := io.ReadAll(f)
		gotFileName = hdr.Filename
		gotPartType = hdr.Header.Get("Content-Type")
		gotLanguage = r.FormValue("language")
		gotBody = string(body)

		json.NewEncoder(w).Encode(successResponse{
			Success:           true,
			Transcript:        "water tank is empty",
			Language:          "en",
			DetectedLanguages: []string{"English"},
			Duration:          1.2,
			Segments:          []Segment{{Text: "water tank is empty", Start: 0, End: 1.2}},
			Metadata: responseMetadata{
				FileName:     hdr.Filename,
				FileSize:     int64(len(body)),
				AutoDetected: true,
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, srv.Client())
	res, err := c.Transcribe(context.Background(), []byte("RIFFdata"), "clip-123.wav", "audio/wav", "auto")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if gotFileName != "clip-123.wav" {
		t.Errorf("file name = %q", gotFileName)
	}
	if gotPartType != "audio/wav" {
		t.Errorf("part content type = %q", gotPartType)
	}
	if gotLanguage != "auto" {
		t.Errorf("language field = %q", gotLanguage)
	}
	if gotBody != "RIFFdata" {
		t.Errorf("uploaded body = %q", gotBody)
	}
	if res.Transcript != "water tank is empty" || res.Language != "en" {
		t.Errorf("result = %+v", res)
	}
	if res.FileSize != int64(len("RIFFdata")) || !res.AutoDetected {
		t.Errorf("metadata = fileSize %d autoDetected %v", res.FileSize, res.AutoDetected)
	}
	if len(res.Segments) != 1 || res.Duration != 1.2 {
		t.Errorf("segments = %+v duration = %f", res.Segments, res.Duration)
	}
}

func TestClientHintDefaultsToAuto(t *testing.T) {
	t.Parallel()

	var gotLanguage string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /transcribe", func(w http.ResponseWriter, r *http.Request) {
		gotLanguage = r.FormValue("language")
		json.NewEncoder(w).Encode(successResponse{Success: true})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, srv.Client())
	if _, err := c.Transcribe(context.Background(), []byte("x"), "clip.wav", "audio/wav", ""); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if gotLanguage != "auto" {
		t.Fatalf("language field = %q, want auto", gotLanguage)
	}
}

func TestClientGatewayErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		status      int
		body        string
		wantCode    Code
		wantMessage string
	}{
		{
			name:        "validation failure",
			status:      400,
			body:        `{"error":"No audio file provided"}`,
			wantCode:    CodeTranscriptionFailed,
			wantMessage: "No audio file provided",
		},
		{
			name:        "rate limited",
			status:      429,
			body:        `{"error":"Transcription service is busy, please retry in a moment"}`,
			wantCode:    CodeRateLimited,
			wantMessage: "Transcription service is busy, please retry in a moment",
		},
		{
			name:        "quota exhausted",
			status:      503,
			body:        `{"error":"Transcription service quota exhausted"}`,
			wantCode:    CodeQuotaExhausted,
			wantMessage: "Transcription service quota exhausted",
		},
		{
			name:        "opaque failure",
			status:      500,
			body:        "<html>bad gateway</html>",
			wantCode:    CodeTranscriptionFailed,
			wantMessage: "gateway returned status 500",
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

			c := NewClient(srv.URL, srv.Client())
			_, err := c.Transcribe(context.Background(), []byte("x"), "clip.wav", "audio/wav", "auto")

			var te *Error
			if !errors.As(err, &te) {
				t.Fatalf("err = %v, want *Error", err)
			}
			if te.Code != tc.wantCode || te.Message != tc.wantMessage {
				t.Fatalf("error = %+v", te)
			}
		})
	}
}
