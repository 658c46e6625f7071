package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/abdulmunimjemal/ai-interviewer/internal/eventlog"
	"github.com/abdulmunimjemal/ai-interviewer/internal/interview"
	"github.com/abdulmunimjemal/ai-interviewer/internal/observability"
	"github.com/abdulmunimjemal/ai-interviewer/internal/store"
	"github.com/getsentry/sentry-go"
)

// Interviews is the interview state machine. *interview.Orchestrator satisfies it.
type Interviews interface {
	Start(ctx context.Context, role string, durationMinutes int) (interview.Started, error)
	SubmitAnswer(ctx context.Context, sessionID string, audio io.Reader, ext string) error
	NextQuestion(ctx context.Context, sessionID string) (string, error)
	EndInterview(ctx context.Context, sessionID string) (interview.Assessment, error)
}

// AudioFiles serves generated question audio. *audio.Store satisfies it.
type AudioFiles interface {
	Open(name string) (*os.File, os.FileInfo, error)
}

// Assessments looks up recorded interview outcomes. *store.Store satisfies it.
type Assessments interface {
	GetAssessment(ctx context.Context, sessionID string) (*store.Assessment, error)
}

// Events lists the event log of a session. *eventlog.Logger satisfies it.
type Events interface {
	List(ctx context.Context, sessionID string) ([]eventlog.Event, error)
}

type RouterConfig struct {
	// MaxUploadBytes caps the submit-answer request body.
	MaxUploadBytes int64
	// Metrics is optional; when set every request is recorded and
	// GET /metrics is served.
	Metrics *observability.Metrics
	// ReadinessChecks are run by GET /readyz, keyed by dependency name.
	ReadinessChecks map[string]func(context.Context) error
}

const defaultMaxUploadBytes = 25 << 20

type Router struct {
	cfg         RouterConfig
	logger      *log.Logger
	interviews  Interviews
	audio       AudioFiles
	assessments Assessments
	events      Events
	drain       *Drain
	mux         *http.ServeMux
}

func NewRouter(cfg RouterConfig, logger *log.Logger, interviews Interviews, files AudioFiles, assessments Assessments, events Events, drain *Drain) http.Handler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if drain == nil {
		drain = NewDrain()
	}

	r := &Router{
		cfg:         cfg,
		logger:      logger,
		interviews:  interviews,
		audio:       files,
		assessments: assessments,
		events:      events,
		drain:       drain,
		mux:         http.NewServeMux(),
	}

	r.routes()
	return cfg.Metrics.Instrument(withSentryRecovery(withCORS(r.mux)))
}

func (r *Router) routes() {
	// Health checks
	r.mux.HandleFunc("GET /healthz", r.handleHealthz)
	r.mux.HandleFunc("GET /readyz", r.handleReadyz)
	if r.cfg.Metrics != nil {
		r.mux.Handle("GET /metrics", r.cfg.Metrics.Handler())
	}

	// Interview flow
	r.interviewRoute("POST /start-session", r.handleStartSession)
	r.interviewRoute("POST /submit-answer", r.handleSubmitAnswer)
	r.interviewRoute("GET /next-question", r.handleNextQuestion)
	r.interviewRoute("GET /end-interview", r.handleEndInterview)

	// Generated audio
	r.mux.HandleFunc("GET /audio/{filename}", r.handleAudio)

	// Records
	r.mux.HandleFunc("GET /assessments/{sessionId}", r.handleGetAssessment)
	r.mux.HandleFunc("GET /sessions/{sessionId}/events", r.handleListEvents)
}

func (r *Router) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type readiness struct {
	Status   string            `json:"status"`
	InFlight map[string]int    `json:"inFlight"`
	Checks   map[string]string `json:"checks,omitempty"`
}

func (r *Router) handleReadyz(w http.ResponseWriter, req *http.Request) {
	resp := readiness{Status: "ok", InFlight: r.drain.InFlight()}

	if len(r.cfg.ReadinessChecks) > 0 {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		resp.Checks = make(map[string]string, len(r.cfg.ReadinessChecks))
		for name, check := range r.cfg.ReadinessChecks {
			if err := check(ctx); err != nil {
				r.logger.Printf("httpapi: readiness check %s failed: %v", name, err)
				resp.Checks[name] = "unavailable"
				resp.Status = "unavailable"
				continue
			}
			resp.Checks[name] = "ok"
		}
	}
	if r.drain.Draining() {
		resp.Status = "draining"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func withSentryRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				hub := sentry.CurrentHub().Clone()
				hub.Scope().SetRequest(req)
				hub.RecoverWithContext(req.Context(), err)
				hub.Flush(2 * time.Second)
				http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, req)
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// captureError sends an error to Sentry with request context
func captureError(req *http.Request, err error, msg string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(req)
		scope.SetExtra("message", msg)
		sentry.CaptureException(err)
	})
}
