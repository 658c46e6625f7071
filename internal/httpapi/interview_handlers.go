package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/abdulmunimjemal/ai-interviewer/internal/audio"
	"github.com/abdulmunimjemal/ai-interviewer/internal/interview"
	"github.com/abdulmunimjemal/ai-interviewer/internal/session"
)

type startSessionRequest struct {
	JobRole  string `json:"jobRole"`
	Duration int    `json:"duration"`
}

type startSessionResponse struct {
	SessionID string `json:"sessionId"`
	AudioURL  string `json:"audioUrl"`
}

type audioResponse struct {
	AudioURL string `json:"audioUrl"`
}

type submitAnswerResponse struct {
	Success bool `json:"success"`
}

type endInterviewResponse struct {
	Passed   bool   `json:"passed"`
	Feedback string `json:"feedback"`
}

func (r *Router) handleStartSession(w http.ResponseWriter, req *http.Request) {
	var body startSessionRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}

	started, err := r.interviews.Start(req.Context(), body.JobRole, body.Duration)
	if err != nil {
		r.writeInterviewError(w, req, err, "start session")
		return
	}

	writeJSON(w, http.StatusOK, startSessionResponse{
		SessionID: started.SessionID,
		AudioURL:  audio.URL(started.AudioFile),
	})
}

// handleSubmitAnswer streams the multipart body. The audio part's file name
// is checked before any of its bytes are read, so a rejected format never
// reaches disk. If the audio part precedes sessionId it is held in memory,
// bounded by MaxUploadBytes.
func (r *Router) handleSubmitAnswer(w http.ResponseWriter, req *http.Request) {
	if req.ContentLength > r.cfg.MaxUploadBytes {
		http.Error(w, `{"error": "audio file too large"}`, http.StatusRequestEntityTooLarge)
		return
	}
	req.Body = http.MaxBytesReader(w, req.Body, r.cfg.MaxUploadBytes)
	mr, err := req.MultipartReader()
	if err != nil {
		http.Error(w, `{"error": "invalid multipart form"}`, http.StatusBadRequest)
		return
	}

	var (
		sessionID string
		ext       string
		pending   *bytes.Buffer
	)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			writeUploadError(w, err)
			return
		}

		switch part.FormName() {
		case "sessionId":
			v, err := io.ReadAll(io.LimitReader(part, 256))
			if err != nil {
				writeUploadError(w, err)
				return
			}
			sessionID = strings.TrimSpace(string(v))
		case "audio":
			ext = fileExtension(part.FileName())
			if !interview.AllowedFormat(ext) {
				r.writeInterviewError(w, req, interview.ErrInvalidFormat, "submit answer")
				return
			}
			if sessionID != "" {
				r.submitAnswer(w, req, sessionID, part, ext)
				return
			}
			pending = new(bytes.Buffer)
			if _, err := pending.ReadFrom(part); err != nil {
				writeUploadError(w, err)
				return
			}
		}
		_ = part.Close()
	}

	if sessionID == "" {
		http.Error(w, `{"error": "missing sessionId"}`, http.StatusBadRequest)
		return
	}
	if pending == nil {
		http.Error(w, `{"error": "missing audio file"}`, http.StatusBadRequest)
		return
	}
	r.submitAnswer(w, req, sessionID, pending, ext)
}

func (r *Router) submitAnswer(w http.ResponseWriter, req *http.Request, sessionID string, answer io.Reader, ext string) {
	if err := r.interviews.SubmitAnswer(req.Context(), sessionID, answer, ext); err != nil {
		r.writeInterviewError(w, req, err, "submit answer")
		return
	}
	writeJSON(w, http.StatusOK, submitAnswerResponse{Success: true})
}

func writeUploadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		http.Error(w, `{"error": "audio file too large"}`, http.StatusRequestEntityTooLarge)
		return
	}
	http.Error(w, `{"error": "invalid multipart form"}`, http.StatusBadRequest)
}

func (r *Router) handleNextQuestion(w http.ResponseWriter, req *http.Request) {
	sessionID := req.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, `{"error": "missing sessionId"}`, http.StatusBadRequest)
		return
	}

	file, err := r.interviews.NextQuestion(req.Context(), sessionID)
	if err != nil {
		r.writeInterviewError(w, req, err, "next question")
		return
	}

	writeJSON(w, http.StatusOK, audioResponse{AudioURL: audio.URL(file)})
}

func (r *Router) handleEndInterview(w http.ResponseWriter, req *http.Request) {
	sessionID := req.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, `{"error": "missing sessionId"}`, http.StatusBadRequest)
		return
	}

	result, err := r.interviews.EndInterview(req.Context(), sessionID)
	if err != nil {
		r.writeInterviewError(w, req, err, "end interview")
		return
	}

	writeJSON(w, http.StatusOK, endInterviewResponse{Passed: result.Passed, Feedback: result.Feedback})
}

// writeInterviewError maps orchestrator errors onto status codes. Provider
// and unexpected failures are opaque to the client.
func (r *Router) writeInterviewError(w http.ResponseWriter, req *http.Request, err error, op string) {
	var (
		providerErr *interview.ProviderError
		tooLarge    *http.MaxBytesError
	)
	switch {
	case errors.Is(err, interview.ErrInvalidFormat):
		http.Error(w, `{"error": "invalid audio format, use webm, wav, mp3 or ogg"}`, http.StatusBadRequest)
	case errors.Is(err, interview.ErrInvalidInput):
		http.Error(w, `{"error": "jobRole is required and duration must be between 1 and 525600 minutes"}`, http.StatusBadRequest)
	case errors.As(err, &tooLarge):
		http.Error(w, `{"error": "audio file too large"}`, http.StatusRequestEntityTooLarge)
	case errors.Is(err, session.ErrNotFound):
		http.Error(w, `{"error": "session not found or expired"}`, http.StatusNotFound)
	case errors.As(err, &providerErr):
		r.logger.Printf("httpapi: %s: %v", op, err)
		captureError(req, err, op)
		http.Error(w, `{"error": "upstream provider error"}`, http.StatusInternalServerError)
	default:
		r.logger.Printf("httpapi: %s: %v", op, err)
		captureError(req, err, op)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
	}
}

// fileExtension returns the lowercased text after the last dot of a file
// name, or "" when there is none.
func fileExtension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}
