package main

import (
	"github.com/FNXDOOM/Zapdos/internal/env"
	"github.com/FNXDOOM/Zapdos/internal/ipc"
)

type config struct {
	gatewayURL     string
	languageHint   string
	timeoutSeconds int

	delegateURL    string
	delegateEngine string
	openaiAPIKey   string
	openaiModel    string

	piperURL   string
	piperVoice string
	kokoroURL  string
	ttsEngine  string
	voices     string

	socketPath string
	viewAddr   string
	autoStop   bool
}

func loadConfig() config {
	return config{
		gatewayURL:     env.Str("GATEWAY_URL", "http://localhost:8000"),
		languageHint:   env.Str("LANGUAGE_HINT", "auto"),
		timeoutSeconds: env.Int("GATEWAY_TIMEOUT_SECONDS", 60),

		delegateURL:    env.Str("DELEGATE_URL", ""),
		delegateEngine: env.Str("DELEGATE_ENGINE", ""),
		openaiAPIKey:   env.Str("OPENAI_API_KEY", ""),
		openaiModel:    env.Str("OPENAI_MODEL", "gpt-4o-mini"),

		piperURL:   env.Str("PIPER_URL", "http://localhost:5100"),
		piperVoice: env.Str("PIPER_VOICE", "en_US-lessac-medium"),
		kokoroURL:  env.Str("KOKORO_URL", ""),
		ttsEngine:  env.Str("TTS_ENGINE", "piper"),
		voices:     env.Str("SPEECH_VOICES", ""),

		socketPath: env.Str("SOCKET_PATH", ipc.DefaultSocketPath),
		viewAddr:   env.Str("VIEW_ADDR", "127.0.0.1:8701"),
		autoStop:   env.Bool("AUTO_STOP", false),
	}
}
