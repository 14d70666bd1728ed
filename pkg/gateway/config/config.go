package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RelayMode selects who receives synthesized audio.
type RelayMode string

const (
	// RelayModeBroadcast sends audio to every registered device except
	// the sender.
	RelayModeBroadcast RelayMode = "broadcast"
	// RelayModeSender returns audio to the sender only.
	RelayModeSender RelayMode = "sender"
)

// Provider identifiers accepted by the stage selection variables.
const (
	ProviderGoogle     = "google"
	ProviderVosk       = "vosk"
	ProviderGemini     = "gemini"
	ProviderElevenLabs = "elevenlabs"
)

type Config struct {
	Addr string

	RelayMode RelayMode

	// Stage providers.
	RecognitionProvider string
	RecognitionAPIKey   string
	VoskModelDir        string
	TranslationProvider string
	GeminiAPIKey        string
	GeminiModel         string
	SynthesisProvider   string
	ElevenLabsAPIKey    string
	ElevenLabsVoiceID   string
	ElevenLabsModelID   string

	// Transcoding.
	FFmpegPath string

	// CORS. "*" allows any origin.
	CORSAllowedOrigins map[string]struct{}

	// Body cap on REST endpoints.
	MaxBodyBytes int64

	// Relay WebSocket.
	WSMaxMessageBytes int64
	WSOutboundQueue   int
	WSPingInterval    time.Duration
	WSWriteTimeout    time.Duration
	WSReadTimeout     time.Duration

	// Operational defaults.
	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	ShutdownGracePeriod time.Duration

	// Upstream HTTP client defaults.
	UpstreamConnectTimeout        time.Duration
	UpstreamResponseHeaderTimeout time.Duration

	// Logging.
	LogLevel  string
	LogFormat string
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                          envOr("SAMVAAD_RELAY_ADDR", ":8000"),
		RelayMode:                     RelayMode(envOr("SAMVAAD_RELAY_MODE", string(RelayModeBroadcast))),
		RecognitionProvider:           envOr("SAMVAAD_RELAY_STT_PROVIDER", ProviderGoogle),
		RecognitionAPIKey:             strings.TrimSpace(os.Getenv("SAMVAAD_RELAY_STT_API_KEY")),
		VoskModelDir:                  strings.TrimSpace(os.Getenv("SAMVAAD_RELAY_VOSK_MODEL_DIR")),
		TranslationProvider:           envOr("SAMVAAD_RELAY_MT_PROVIDER", ProviderGoogle),
		GeminiAPIKey:                  strings.TrimSpace(os.Getenv("SAMVAAD_RELAY_GEMINI_API_KEY")),
		GeminiModel:                   strings.TrimSpace(os.Getenv("SAMVAAD_RELAY_GEMINI_MODEL")),
		SynthesisProvider:             envOr("SAMVAAD_RELAY_TTS_PROVIDER", ProviderGoogle),
		ElevenLabsAPIKey:              strings.TrimSpace(os.Getenv("SAMVAAD_RELAY_ELEVENLABS_API_KEY")),
		ElevenLabsVoiceID:             strings.TrimSpace(os.Getenv("SAMVAAD_RELAY_ELEVENLABS_VOICE_ID")),
		ElevenLabsModelID:             strings.TrimSpace(os.Getenv("SAMVAAD_RELAY_ELEVENLABS_MODEL_ID")),
		FFmpegPath:                    envOr("SAMVAAD_RELAY_FFMPEG_PATH", "ffmpeg"),
		CORSAllowedOrigins:            make(map[string]struct{}),
		MaxBodyBytes:                  envInt64Or("SAMVAAD_RELAY_MAX_BODY_BYTES", 1<<20), // 1 MiB
		WSMaxMessageBytes:             envInt64Or("SAMVAAD_RELAY_WS_MAX_MESSAGE_BYTES", 8<<20),
		WSOutboundQueue:               envIntOr("SAMVAAD_RELAY_WS_OUTBOUND_QUEUE", 32),
		WSPingInterval:                envDurationOr("SAMVAAD_RELAY_WS_PING_INTERVAL", 20*time.Second),
		WSWriteTimeout:                envDurationOr("SAMVAAD_RELAY_WS_WRITE_TIMEOUT", 10*time.Second),
		WSReadTimeout:                 envDurationOr("SAMVAAD_RELAY_WS_READ_TIMEOUT", 0),
		ReadHeaderTimeout:             envDurationOr("SAMVAAD_RELAY_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:                   envDurationOr("SAMVAAD_RELAY_READ_TIMEOUT", 30*time.Second),
		ShutdownGracePeriod:           envDurationOr("SAMVAAD_RELAY_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
		UpstreamConnectTimeout:        envDurationOr("SAMVAAD_RELAY_CONNECT_TIMEOUT", 5*time.Second),
		UpstreamResponseHeaderTimeout: envDurationOr("SAMVAAD_RELAY_RESPONSE_HEADER_TIMEOUT", 30*time.Second),
		LogLevel:                      strings.ToLower(envOr("SAMVAAD_RELAY_LOG_LEVEL", "info")),
		LogFormat:                     strings.ToLower(envOr("SAMVAAD_RELAY_LOG_FORMAT", "text")),
	}

	for _, origin := range splitCSV(envOr("SAMVAAD_RELAY_CORS_ORIGINS", "*")) {
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	switch cfg.RelayMode {
	case RelayModeBroadcast, RelayModeSender:
	default:
		return Config{}, fmt.Errorf("SAMVAAD_RELAY_MODE must be one of broadcast|sender")
	}

	switch cfg.RecognitionProvider {
	case ProviderGoogle, ProviderVosk:
	default:
		return Config{}, fmt.Errorf("SAMVAAD_RELAY_STT_PROVIDER must be one of google|vosk")
	}
	if cfg.RecognitionProvider == ProviderVosk && cfg.VoskModelDir == "" {
		return Config{}, fmt.Errorf("SAMVAAD_RELAY_VOSK_MODEL_DIR must be set when SAMVAAD_RELAY_STT_PROVIDER=vosk")
	}

	switch cfg.TranslationProvider {
	case ProviderGoogle, ProviderGemini:
	default:
		return Config{}, fmt.Errorf("SAMVAAD_RELAY_MT_PROVIDER must be one of google|gemini")
	}
	if cfg.TranslationProvider == ProviderGemini && cfg.GeminiAPIKey == "" {
		return Config{}, fmt.Errorf("SAMVAAD_RELAY_GEMINI_API_KEY must be set when SAMVAAD_RELAY_MT_PROVIDER=gemini")
	}

	switch cfg.SynthesisProvider {
	case ProviderGoogle, ProviderElevenLabs:
	default:
		return Config{}, fmt.Errorf("SAMVAAD_RELAY_TTS_PROVIDER must be one of google|elevenlabs")
	}
	if cfg.SynthesisProvider == ProviderElevenLabs {
		if cfg.ElevenLabsAPIKey == "" {
			return Config{}, fmt.Errorf("SAMVAAD_RELAY_ELEVENLABS_API_KEY must be set when SAMVAAD_RELAY_TTS_PROVIDER=elevenlabs")
		}
		if cfg.ElevenLabsVoiceID == "" {
			return Config{}, fmt.Errorf("SAMVAAD_RELAY_ELEVENLABS_VOICE_ID must be set when SAMVAAD_RELAY_TTS_PROVIDER=elevenlabs")
		}
	}

	if strings.TrimSpace(cfg.FFmpegPath) == "" {
		return Config{}, fmt.Errorf("SAMVAAD_RELAY_FFMPEG_PATH must not be empty")
	}
	if cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("SAMVAAD_RELAY_MAX_BODY_BYTES must be > 0")
	}
	if cfg.WSMaxMessageBytes <= 0 {
		return Config{}, fmt.Errorf("SAMVAAD_RELAY_WS_MAX_MESSAGE_BYTES must be > 0")
	}
	if cfg.WSOutboundQueue <= 0 {
		return Config{}, fmt.Errorf("SAMVAAD_RELAY_WS_OUTBOUND_QUEUE must be > 0")
	}
	if cfg.WSPingInterval <= 0 {
		return Config{}, fmt.Errorf("SAMVAAD_RELAY_WS_PING_INTERVAL must be > 0")
	}
	if cfg.WSWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("SAMVAAD_RELAY_WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.WSReadTimeout < 0 {
		return Config{}, fmt.Errorf("SAMVAAD_RELAY_WS_READ_TIMEOUT must be >= 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("SAMVAAD_RELAY_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ReadTimeout <= 0 {
		return Config{}, fmt.Errorf("SAMVAAD_RELAY_READ_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("SAMVAAD_RELAY_SHUTDOWN_GRACE_PERIOD must be > 0")
	}
	if cfg.UpstreamConnectTimeout <= 0 {
		return Config{}, fmt.Errorf("SAMVAAD_RELAY_CONNECT_TIMEOUT must be > 0")
	}
	if cfg.UpstreamResponseHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("SAMVAAD_RELAY_RESPONSE_HEADER_TIMEOUT must be > 0")
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("SAMVAAD_RELAY_LOG_LEVEL must be one of debug|info|warn|error")
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("SAMVAAD_RELAY_LOG_FORMAT must be one of text|json")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
