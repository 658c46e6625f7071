package app

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/abdulmunimjemal/ai-interviewer/internal/audio"
	"github.com/abdulmunimjemal/ai-interviewer/internal/eventlog"
	"github.com/abdulmunimjemal/ai-interviewer/internal/httpapi"
	"github.com/abdulmunimjemal/ai-interviewer/internal/interview"
	"github.com/abdulmunimjemal/ai-interviewer/internal/jobs"
	"github.com/abdulmunimjemal/ai-interviewer/internal/llm"
	"github.com/abdulmunimjemal/ai-interviewer/internal/notifications"
	"github.com/abdulmunimjemal/ai-interviewer/internal/observability"
	"github.com/abdulmunimjemal/ai-interviewer/internal/session"
	"github.com/abdulmunimjemal/ai-interviewer/internal/store"
	"github.com/abdulmunimjemal/ai-interviewer/internal/stt"
	"github.com/abdulmunimjemal/ai-interviewer/internal/tts"
	"github.com/jackc/pgx/v5/pgxpool"
)

type App struct {
	cfg          Config
	logger       *log.Logger
	db           *pgxpool.Pool // nil when DATABASE_URL is unset
	sessions     session.Store
	store        *store.Store
	eventLog     *eventlog.Logger
	files        *audio.Store
	google       *stt.GoogleClient // nil unless STT_PROVIDER=google
	orchestrator *interview.Orchestrator
	retention    *jobs.AudioRetentionJob
	metrics      *observability.Metrics
	httpClient   *http.Client // Shared HTTP client with connection pooling for providers
}

func New(cfg Config, logger *log.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger, metrics: observability.NewMetrics(cfg.MetricsNamespace)}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	// Postgres is optional: without it events and assessments are not recorded.
	// Migrations are applied externally (see migrations/).
	if cfg.DatabaseURL != "" {
		db, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, err
		}
		a.db = db
	} else {
		logger.Printf("DATABASE_URL not set, event log and assessments disabled")
	}
	a.store = store.New(a.db)
	a.eventLog = eventlog.New(a.db)

	sessions, err := newSessionStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.sessions = sessions

	files, err := audio.NewStore(cfg.AudioDir, cfg.UploadDir)
	if err != nil {
		return nil, err
	}
	a.files = files

	// Keeps TCP connections alive to the completion and TTS providers.
	a.httpClient = &http.Client{
		Timeout: cfg.ProviderTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	recognizer, err := a.newRecognizer(ctx)
	if err != nil {
		return nil, err
	}
	transcriber := stt.NewPipeline(stt.NewTranscoder(cfg.FFmpegPath, cfg.UploadDir), recognizer).
		WithTimeout(cfg.ProviderTimeout)

	a.orchestrator = interview.New(interview.Deps{
		Sessions: sessions,
		Completion: llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      cfg.OpenAIModel,
			HTTPClient: a.httpClient,
		}),
		Speech:      a.newSpeech(),
		Transcriber: transcriber,
		Audio:       files,
		Events:      a.eventLog,
		Assessments: a.store,
		Notifier:    notifications.NewDiscord(cfg.DiscordWebhookURL, logger),
		Metrics:     a.metrics,
	}, logger)

	a.retention = jobs.NewAudioRetentionJob(files, logger, cfg.AudioRetention, time.Hour)

	logger.Printf("app: sessions=%s tts=%s stt=%s model=%s", cfg.SessionBackend, cfg.TTSProvider, cfg.STTProvider, cfg.OpenAIModel)
	ok = true
	return a, nil
}

func newSessionStore(ctx context.Context, cfg Config) (session.Store, error) {
	switch cfg.SessionBackend {
	case "memory":
		return session.NewMemoryStore(), nil
	case "redis":
		rdb, err := session.NewRedisClient(ctx, session.RedisConfig{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return session.NewRedisStore(rdb), nil
	}
	return nil, errors.New("unknown session backend " + cfg.SessionBackend)
}

func (a *App) newSpeech() tts.Client {
	if a.cfg.TTSProvider == "elevenlabs" {
		return tts.NewElevenLabsClient(tts.ElevenLabsConfig{
			APIKey:     a.cfg.ElevenLabsAPIKey,
			VoiceID:    a.cfg.TTSVoiceID,
			Stability:  a.cfg.TTSStability,
			Similarity: a.cfg.TTSSimilarity,
			HTTPClient: a.httpClient,
		})
	}
	return tts.NewDeepgramClient(tts.DeepgramConfig{
		APIKey:     a.cfg.DeepgramAPIKey,
		Model:      a.cfg.TTSModel,
		HTTPClient: a.httpClient,
	})
}

func (a *App) newRecognizer(ctx context.Context) (stt.Recognizer, error) {
	if a.cfg.STTProvider == "google" {
		g, err := stt.NewGoogleClient(ctx, a.cfg.STTLanguage)
		if err != nil {
			return nil, err
		}
		a.google = g
		return g, nil
	}
	return stt.NewDeepgramClient(stt.DeepgramConfig{
		APIKey:   a.cfg.DeepgramAPIKey,
		Language: a.cfg.STTLanguage,
	}), nil
}

func (a *App) Router(drain *httpapi.Drain) http.Handler {
	checks := map[string]func(context.Context) error{
		"sessions": a.sessions.Ping,
	}
	if a.store.Enabled() {
		checks["database"] = a.store.Ping
	}
	routerCfg := httpapi.RouterConfig{
		MaxUploadBytes:  a.cfg.MaxUploadBytes,
		Metrics:         a.metrics,
		ReadinessChecks: checks,
	}
	return httpapi.NewRouter(routerCfg, a.logger, a.orchestrator, a.files, a.store, a.eventLog, drain)
}

// StartJobs starts background maintenance. StopJobs must be called before Close.
func (a *App) StartJobs() {
	a.retention.Start()
}

func (a *App) StopJobs() {
	a.retention.Stop()
}

func (a *App) Close() error {
	var errs []error
	if a.sessions != nil {
		errs = append(errs, a.sessions.Close())
	}
	if a.google != nil {
		errs = append(errs, a.google.Close())
	}
	if a.db != nil {
		a.db.Close()
	}
	return errors.Join(errs...)
}
