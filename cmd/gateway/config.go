package main

import "github.com/FNXDOOM/Zapdos/internal/env"

type config struct {
	port              string
	openaiAPIKey      string
	openaiBaseURL     string
	whisperModel      string
	sttPoolSize       int
	sttTimeoutSeconds int
	tmpDir            string
}

func loadConfig() config {
	return config{
		port:              env.Str("GATEWAY_PORT", "8000"),
		openaiAPIKey:      env.Str("OPENAI_API_KEY", ""),
		openaiBaseURL:     env.Str("OPENAI_BASE_URL", "https://api.openai.com"),
		whisperModel:      env.Str("WHISPER_MODEL", "whisper-1"),
		sttPoolSize:       env.Int("STT_POOL_SIZE", 50),
		sttTimeoutSeconds: env.Int("STT_TIMEOUT_SECONDS", 60),
		tmpDir:            env.Str("TMP_DIR", ""),
	}
}
