package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string
	SentryDSN   string
	Environment string

	// Completion provider
	OpenAIAPIKey string
	OpenAIModel  string

	// Speech providers
	DeepgramAPIKey   string
	ElevenLabsAPIKey string
	TTSProvider      string // "deepgram" or "elevenlabs"
	TTSModel         string // Deepgram Aura model
	TTSVoiceID       string // ElevenLabs voice ID
	TTSStability     float64
	TTSSimilarity    float64
	STTProvider      string // "deepgram" or "google"
	STTLanguage      string
	FFmpegPath       string

	// Session store
	SessionBackend string // "redis" or "memory"
	RedisHost      string
	RedisPort      string
	RedisPassword  string
	RedisDB        int

	// Files
	AudioDir       string
	UploadDir      string
	AudioRetention time.Duration

	// Limits
	ProviderTimeout time.Duration
	MaxUploadBytes  int64

	// Notifications
	DiscordWebhookURL string

	// Prometheus metric name prefix
	MetricsNamespace string
}

func LoadConfigFromEnv() Config {
	return Config{
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		DatabaseURL: getenv("DATABASE_URL", ""),
		SentryDSN:   getenv("SENTRY_DSN", ""),
		Environment: getenv("ENVIRONMENT", "development"),

		OpenAIAPIKey: getenv("OPENAI_API_KEY", ""),
		OpenAIModel:  getenv("OPENAI_MODEL", "gpt-4"),

		DeepgramAPIKey:   getenv("DEEPGRAM_API_KEY", ""),
		ElevenLabsAPIKey: getenv("ELEVENLABS_API_KEY", ""),
		TTSProvider:      strings.ToLower(getenv("TTS_PROVIDER", "deepgram")),
		TTSModel:         getenv("TTS_MODEL", "aura-orpheus-en"),
		TTSVoiceID:       getenv("TTS_VOICE_ID", ""),
		TTSStability:     getenvFloatClamped("TTS_STABILITY", 0.5, 0, 1),
		TTSSimilarity:    getenvFloatClamped("TTS_SIMILARITY", 0.75, 0, 1),
		STTProvider:      strings.ToLower(getenv("STT_PROVIDER", "deepgram")),
		STTLanguage:      getenv("STT_LANGUAGE", "en-US"),
		FFmpegPath:       getenv("FFMPEG_PATH", "ffmpeg"),

		SessionBackend: strings.ToLower(getenv("SESSION_BACKEND", "redis")),
		RedisHost:      getenv("REDIS_HOST", "localhost"),
		RedisPort:      getenv("REDIS_PORT", "6379"),
		RedisPassword:  getenv("REDIS_PASSWORD", ""),
		RedisDB:        getenvIntClamped("REDIS_DB", 0, 0, 15),

		AudioDir:       getenv("AUDIO_DIR", "audio"),
		UploadDir:      getenv("UPLOAD_DIR", "uploads"),
		AudioRetention: getenvDuration("AUDIO_RETENTION", 14*24*time.Hour),

		ProviderTimeout: getenvDuration("PROVIDER_TIMEOUT", 60*time.Second),
		MaxUploadBytes:  int64(getenvIntClamped("MAX_UPLOAD_BYTES", 25<<20, 1<<10, 1<<30)),

		DiscordWebhookURL: getenv("DISCORD_WEBHOOK_URL", ""),

		MetricsNamespace: getenv("METRICS_NAMESPACE", "interviewer"),
	}
}

// RedisAddr returns the host:port of the session store.
func (c Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// Validate reports configuration that makes the server unusable. Missing
// provider keys are fatal at startup rather than on the first request.
func (c Config) Validate() error {
	var errs []error
	if c.OpenAIAPIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}

	switch c.TTSProvider {
	case "deepgram":
		if c.DeepgramAPIKey == "" {
			errs = append(errs, errors.New("DEEPGRAM_API_KEY is required for the deepgram TTS provider"))
		}
	case "elevenlabs":
		if c.ElevenLabsAPIKey == "" {
			errs = append(errs, errors.New("ELEVENLABS_API_KEY is required for the elevenlabs TTS provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown TTS_PROVIDER %q", c.TTSProvider))
	}

	switch c.STTProvider {
	case "deepgram":
		if c.DeepgramAPIKey == "" {
			errs = append(errs, errors.New("DEEPGRAM_API_KEY is required for the deepgram STT provider"))
		}
	case "google":
		// Credentials come from the environment (ADC).
	default:
		errs = append(errs, fmt.Errorf("unknown STT_PROVIDER %q", c.STTProvider))
	}

	if c.SessionBackend != "redis" && c.SessionBackend != "memory" {
		errs = append(errs, fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend))
	}
	if c.ProviderTimeout <= 0 {
		errs = append(errs, errors.New("PROVIDER_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntClamped(k string, def, min, max int) int {
	v, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func getenvFloatClamped(k string, def, min, max float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(k), 64)
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// getenvDuration accepts Go durations ("90s") or a bare number of seconds.
func getenvDuration(k string, def time.Duration) time.Duration {
	s := os.Getenv(k)
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
