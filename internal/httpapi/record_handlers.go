package httpapi

import (
	"errors"
	"net/http"

	"github.com/abdulmunimjemal/ai-interviewer/internal/audio"
	"github.com/abdulmunimjemal/ai-interviewer/internal/eventlog"
	"github.com/abdulmunimjemal/ai-interviewer/internal/store"
)

func (r *Router) handleAudio(w http.ResponseWriter, req *http.Request) {
	name := req.PathValue("filename")
	f, info, err := r.audio.Open(name)
	if errors.Is(err, audio.ErrNotFound) {
		http.Error(w, `{"error": "audio file not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		r.logger.Printf("httpapi: open audio %q: %v", name, err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeContent(w, req, name, info.ModTime(), f)
}

func (r *Router) handleGetAssessment(w http.ResponseWriter, req *http.Request) {
	sessionID := req.PathValue("sessionId")
	if r.assessments == nil {
		http.Error(w, `{"error": "not found"}`, http.StatusNotFound)
		return
	}

	a, err := r.assessments.GetAssessment(req.Context(), sessionID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"error": "not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		captureError(req, err, "get assessment")
		http.Error(w, `{"error": "database error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (r *Router) handleListEvents(w http.ResponseWriter, req *http.Request) {
	sessionID := req.PathValue("sessionId")
	var events []eventlog.Event
	if r.events != nil {
		var err error
		events, err = r.events.List(req.Context(), sessionID)
		if err != nil {
			captureError(req, err, "list events")
			http.Error(w, `{"error": "database error"}`, http.StatusInternalServerError)
			return
		}
	}
	if events == nil {
		events = []eventlog.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}
