package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	cli "github.com/spf13/pflag"

	"github.com/FNXDOOM/Zapdos/internal/backend"
	"github.com/FNXDOOM/Zapdos/internal/capture"
	"github.com/FNXDOOM/Zapdos/internal/intent"
	"github.com/FNXDOOM/Zapdos/internal/ipc"
	"github.com/FNXDOOM/Zapdos/internal/session"
	"github.com/FNXDOOM/Zapdos/internal/speech"
	"github.com/FNXDOOM/Zapdos/internal/transcribe"
	"github.com/FNXDOOM/Zapdos/internal/view"
)

var logLevelMap = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "env file path")
	logLevel := cli.StringP("log", "l", "info", "log level (debug, info, warn, error)")
	socket := cli.String("socket", "", "control socket path (overrides SOCKET_PATH)")
	listen := cli.String("listen", "", "state feed address (overrides VIEW_ADDR)")
	autoStop := cli.Bool("auto-stop", false, "end capture after trailing silence")
	cli.Parse()

	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	godotenv.Load(*envFile)
	cfg := loadConfig()
	if *socket != "" {
		cfg.socketPath = *socket
	}
	if *listen != "" {
		cfg.viewAddr = *listen
	}
	if *autoStop {
		cfg.autoStop = true
	}

	httpClient := backend.NewPooledHTTPClient(4, time.Duration(cfg.timeoutSeconds)*time.Second)

	feed := view.NewFeed()
	controller := session.New(session.Config{
		Source:       &capture.PortAudioSource{},
		Capture:      capture.DefaultConfig(),
		Transcriber:  session.ClipTranscriber{Client: transcribe.NewClient(cfg.gatewayURL, httpClient)},
		Resolver:     intent.NewResolver(intent.DefaultCatalog(), buildDelegate(cfg, httpClient)),
		Output:       speech.NewOutput(buildVoices(cfg), buildSynthesizer(cfg, httpClient), speech.NewBeepPlayer()),
		Sink:         feed,
		LanguageHint: cfg.languageHint,
		AutoStop:     cfg.autoStop,
		Gate:         capture.DefaultGateConfig(),
	})

	ctl := ipc.NewServer(cfg.socketPath, controlHandler(controller))
	if err := ctl.Start(); err != nil {
		slog.Error("control socket failed", "error", err)
		os.Exit(1)
	}
	defer ctl.Close()

	mux := http.NewServeMux()
	mux.Handle("GET /ws", feed)
	mux.Handle("GET /metrics", promhttp.Handler())
	srv := &http.Server{Addr: cfg.viewAddr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("state feed server failed", "error", err)
		}
	}()

	slog.Info("assistant ready",
		"socket", cfg.socketPath,
		"feed", cfg.viewAddr,
		"gateway", cfg.gatewayURL,
		"auto_stop", cfg.autoStop)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig)

	controller.Cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}

// controlHandler maps socket commands onto the controller. Every response
// carries the post-command snapshot so the client can print it.
func controlHandler(c *session.Controller) ipc.Handler {
	return func(cmd ipc.Command) ipc.Response {
		switch cmd.Op {
		case ipc.OpPress:
			if err := c.Press(context.Background()); err != nil {
				return ipc.Response{Error: err.Error()}
			}
		case ipc.OpRelease:
			if err := c.Release(context.Background()); err != nil {
				return ipc.Response{Error: err.Error()}
			}
		case ipc.OpCancel:
			c.Cancel()
		case ipc.OpStatus:
		default:
			return ipc.Response{Error: "unknown op " + cmd.Op}
		}

		state, turn := c.Snapshot()
		resp := ipc.Response{OK: true, State: string(state)}
		if turn != nil {
			resp.Transcript = turn.Transcript
			resp.Reply = turn.Reply
			resp.Error = turn.Err
		}
		return resp
	}
}

// buildDelegate registers the configured escalation backends. Nil when
// none are configured; unmatched queries then get the fixed fallback.
func buildDelegate(cfg config, client *http.Client) intent.ReplyDelegate {
	backends := map[string]intent.ReplyDelegate{}
	if cfg.delegateURL != "" {
		backends["helpdesk"] = intent.NewHelpdeskDelegate(cfg.delegateURL, client)
	}
	if cfg.openaiAPIKey != "" {
		backends["openai"] = intent.NewOpenAIDelegate(cfg.openaiAPIKey, cfg.openaiModel)
	}
	if len(backends) == 0 {
		slog.Info("no reply delegate configured, unmatched queries get the fallback reply")
		return nil
	}

	engine := cfg.delegateEngine
	if _, ok := backends[engine]; !ok {
		engine = "openai"
		if _, ok := backends["helpdesk"]; ok {
			engine = "helpdesk"
		}
	}
	slog.Info("reply delegate configured", "engine", engine)
	return intent.NewDelegateRouter(backends, engine)
}

func buildSynthesizer(cfg config, client *http.Client) speech.Synthesizer {
	backends := map[string]speech.Synthesizer{
		"piper": speech.NewPiperSynthesizer(cfg.piperURL, cfg.piperVoice, client),
	}
	if cfg.kokoroURL != "" {
		backends["kokoro"] = speech.NewOpenAISynthesizer(cfg.kokoroURL, "", "kokoro", "af_heart", client)
	}
	return speech.NewSynthRouter(backends, cfg.ttsEngine)
}

// buildVoices parses SPEECH_VOICES ("id=locale,id=locale") or falls back
// to the built-in table.
func buildVoices(cfg config) *speech.Directory {
	if cfg.voices == "" {
		return speech.DefaultDirectory()
	}
	var voices []speech.Voice
	for _, pair := range strings.Split(cfg.voices, ",") {
		id, locale, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || id == "" || locale == "" {
			slog.Warn("ignoring malformed voice entry", "entry", pair)
			continue
		}
		voices = append(voices, speech.Voice{ID: id, Locale: locale})
	}
	if len(voices) == 0 {
		return speech.DefaultDirectory()
	}
	return speech.NewDirectory(voices)
}
