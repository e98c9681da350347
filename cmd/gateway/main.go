package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/FNXDOOM/Zapdos/internal/backend"
	"github.com/FNXDOOM/Zapdos/internal/transcribe"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	godotenv.Load()
	cfg := loadConfig()

	if cfg.openaiAPIKey == "" {
		// Not fatal: the credential is checked at call time, so the probe
		// and metrics endpoints stay up while an operator fixes it.
		slog.Warn("OPENAI_API_KEY not set, transcription will fail until configured")
	}

	sttHTTP := backend.NewPooledHTTPClient(cfg.sttPoolSize, time.Duration(cfg.sttTimeoutSeconds)*time.Second)
	whisper := transcribe.NewWhisperClient(cfg.openaiBaseURL, cfg.openaiAPIKey, cfg.whisperModel, sttHTTP)
	svc := transcribe.NewService(whisper, cfg.tmpDir)

	mux := http.NewServeMux()
	registerRoutes(mux, deps{
		transcribe: transcribe.NewHandler(svc),
	})

	addr := ":" + cfg.port
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	slog.Info("gateway starting", "addr", addr, "model", cfg.whisperModel, "upstream", cfg.openaiBaseURL)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	slog.Info("gateway stopped")
}
