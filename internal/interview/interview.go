// Package interview runs the interview state machine: open a session, record
// candidate answers, ask follow-up questions and produce a final assessment.
package interview

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/abdulmunimjemal/ai-interviewer/internal/eventlog"
	"github.com/abdulmunimjemal/ai-interviewer/internal/llm"
	"github.com/abdulmunimjemal/ai-interviewer/internal/observability"
	"github.com/abdulmunimjemal/ai-interviewer/internal/session"
	"github.com/abdulmunimjemal/ai-interviewer/internal/store"
	"github.com/abdulmunimjemal/ai-interviewer/internal/stt"
	"github.com/abdulmunimjemal/ai-interviewer/internal/transcript"
	"github.com/abdulmunimjemal/ai-interviewer/internal/tts"
)

const (
	providerCompletion = "completion"
	providerTTS        = "tts"
)

var allowedFormats = map[string]bool{
	"webm": true,
	"wav":  true,
	"mp3":  true,
	"ogg":  true,
}

// AllowedFormat reports whether ext (without the dot) is an accepted upload format.
func AllowedFormat(ext string) bool {
	return allowedFormats[strings.ToLower(ext)]
}

// Passed derives the hiring decision from the assessment text. Any occurrence
// of "no hire", in any case, fails the candidate.
func Passed(feedback string) bool {
	return !strings.Contains(strings.ToLower(feedback), "no hire")
}

// AudioStore persists generated questions and temporary uploads.
type AudioStore interface {
	SaveQuestion(data []byte) (string, error)
	SaveUpload(r io.Reader, ext string) (string, error)
	RemoveUpload(path string) error
}

// EventLogger records interview events. *eventlog.Logger satisfies it.
type EventLogger interface {
	LogAsync(sessionID string, eventType eventlog.EventType, data map[string]any)
}

// AssessmentSaver records finished interviews. *store.Store satisfies it.
type AssessmentSaver interface {
	SaveAssessment(ctx context.Context, a store.Assessment) error
}

// Notifier announces finished interviews. *notifications.Discord satisfies it.
type Notifier interface {
	NotifyInterviewCompleted(sessionID, role string, passed bool, feedback string)
}

// Deps are the collaborators of an Orchestrator. Events, Assessments and
// Notifier are optional.
type Deps struct {
	Sessions    session.Store
	Completion  llm.Client
	Speech      tts.Client
	Transcriber stt.Transcriber
	Audio       AudioStore
	Events      EventLogger
	Assessments AssessmentSaver
	Notifier    Notifier
	Metrics     *observability.Metrics
}

// Orchestrator drives interviews. It holds no per-session state; everything
// lives in the session store.
type Orchestrator struct {
	deps   Deps
	logger *log.Logger
}

func New(deps Deps, logger *log.Logger) *Orchestrator {
	return &Orchestrator{deps: deps, logger: logger}
}

// Started is the result of Start.
type Started struct {
	SessionID string
	AudioFile string
}

// Assessment is the result of EndInterview.
type Assessment struct {
	Passed   bool
	Feedback string
}

// Start opens a new interview and generates the opening question.
func (o *Orchestrator) Start(ctx context.Context, role string, durationMinutes int) (Started, error) {
	role = strings.TrimSpace(role)
	if role == "" || durationMinutes <= 0 || durationMinutes > transcript.MaxDurationMinutes {
		return Started{}, ErrInvalidInput
	}

	question, err := o.deps.Completion.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: llm.InitialPrompt(role)},
	})
	if err != nil {
		return Started{}, o.providerFailure("", providerCompletion, "start", err)
	}

	handle := session.NewHandle()
	t := transcript.New(role, durationMinutes).Append(transcript.Interviewer, question)
	if err := o.deps.Sessions.Put(ctx, handle, t, t.TTL()); err != nil {
		return Started{}, fmt.Errorf("save session: %w", err)
	}
	o.logger.Printf("interview: session %s started (role=%q, duration=%dm)", handle, role, durationMinutes)
	o.event(handle, eventlog.EventSessionStarted, map[string]any{
		"role":             role,
		"duration_minutes": durationMinutes,
	})

	file, err := o.speak(ctx, handle, "start", question)
	if err != nil {
		return Started{}, err
	}
	return Started{SessionID: handle, AudioFile: file}, nil
}

// SubmitAnswer transcribes an uploaded answer and appends it to the
// transcript. Transcription failures are recorded as an empty answer.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, handle string, audio io.Reader, ext string) error {
	if !AllowedFormat(ext) {
		return ErrInvalidFormat
	}
	ext = strings.ToLower(ext)

	path, err := o.deps.Audio.SaveUpload(audio, ext)
	if err != nil {
		return fmt.Errorf("save upload: %w", err)
	}
	text, err := o.deps.Transcriber.Transcribe(ctx, path)
	if err != nil {
		o.logger.Printf("interview: transcription failed for session %s: %v", handle, err)
		text = ""
	}
	if err := o.deps.Audio.RemoveUpload(path); err != nil {
		o.logger.Printf("interview: failed to remove upload %s: %v", path, err)
	}

	t, err := o.deps.Sessions.Update(ctx, handle, func(cur transcript.Transcript) (transcript.Transcript, error) {
		if cur.Phase() != transcript.AwaitingAnswer {
			o.logger.Printf("interview: session %s received an answer while %s", handle, cur.Phase())
		}
		return cur.Append(transcript.Candidate, text), nil
	})
	if err != nil {
		return err
	}

	if text == "" {
		o.event(handle, eventlog.EventTranscriptionEmpty, map[string]any{"format": ext})
	}
	o.event(handle, eventlog.EventAnswerSubmitted, map[string]any{
		"format":   ext,
		"chars":    len(text),
		"messages": t.Len(),
	})
	return nil
}

// NextQuestion asks the completion provider for a follow-up based on the
// whole conversation so far and returns the generated audio file name.
func (o *Orchestrator) NextQuestion(ctx context.Context, handle string) (string, error) {
	t, err := o.deps.Sessions.Get(ctx, handle)
	if err != nil {
		return "", err
	}

	question, err := o.deps.Completion.Complete(ctx, followUpMessages(t))
	if err != nil {
		return "", o.providerFailure(handle, providerCompletion, "next_question", err)
	}

	t, err = o.deps.Sessions.Update(ctx, handle, func(cur transcript.Transcript) (transcript.Transcript, error) {
		return cur.Append(transcript.Interviewer, question), nil
	})
	if err != nil {
		return "", err
	}
	o.event(handle, eventlog.EventQuestionGenerated, map[string]any{"messages": t.Len()})

	return o.speak(ctx, handle, "next_question", question)
}

// EndInterview assesses the conversation. The session is left untouched,
// so ending twice produces two independent assessments.
func (o *Orchestrator) EndInterview(ctx context.Context, handle string) (Assessment, error) {
	t, err := o.deps.Sessions.Get(ctx, handle)
	if err != nil {
		return Assessment{}, err
	}

	feedback, err := o.deps.Completion.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: llm.AssessmentPrompt(t.Role(), t.Dialogue())},
	})
	if err != nil {
		return Assessment{}, o.providerFailure(handle, providerCompletion, "end_interview", err)
	}
	result := Assessment{Passed: Passed(feedback), Feedback: feedback}

	o.logger.Printf("interview: session %s assessed (passed=%t, messages=%d)", handle, result.Passed, t.Len())
	o.event(handle, eventlog.EventAssessmentCompleted, map[string]any{
		"passed":   result.Passed,
		"messages": t.Len(),
	})
	if o.deps.Assessments != nil {
		err := o.deps.Assessments.SaveAssessment(ctx, store.Assessment{
			SessionID:    handle,
			JobRole:      t.Role(),
			Passed:       result.Passed,
			Feedback:     feedback,
			MessageCount: t.Len(),
		})
		if err != nil {
			o.logger.Printf("interview: failed to save assessment for session %s: %v", handle, err)
		}
	}
	if o.deps.Notifier != nil {
		o.deps.Notifier.NotifyInterviewCompleted(handle, t.Role(), result.Passed, feedback)
	}
	return result, nil
}

// followUpMessages builds the follow-up instruction followed by every turn
// in order. Interviewer turns are the model's own prior replies.
func followUpMessages(t transcript.Transcript) []llm.Message {
	turns := t.Turns()
	msgs := make([]llm.Message, 0, len(turns)+1)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: llm.FollowUpPrompt(t.Role())})
	for _, m := range turns {
		role := llm.RoleUser
		if m.Speaker == transcript.Interviewer {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: m.Text})
	}
	return msgs
}

// speak synthesizes text and stores it, returning the audio file name.
func (o *Orchestrator) speak(ctx context.Context, handle, op, text string) (string, error) {
	audio, err := o.deps.Speech.Synthesize(ctx, text)
	if err != nil {
		return "", o.providerFailure(handle, providerTTS, op, err)
	}
	name, err := o.deps.Audio.SaveQuestion(audio)
	if err != nil {
		return "", fmt.Errorf("save question audio: %w", err)
	}
	return name, nil
}

func (o *Orchestrator) providerFailure(handle, provider, op string, err error) error {
	o.logger.Printf("interview: %s provider error during %s (session=%s): %v", provider, op, handle, err)
	o.deps.Metrics.ProviderError(provider, op)
	o.event(handle, eventlog.EventProviderError, map[string]any{
		"provider": provider,
		"op":       op,
		"error":    err.Error(),
	})
	return &ProviderError{Provider: provider, Op: op, Err: err}
}

func (o *Orchestrator) event(handle string, eventType eventlog.EventType, data map[string]any) {
	o.deps.Metrics.InterviewEvent(string(eventType))
	if o.deps.Events == nil {
		return
	}
	o.deps.Events.LogAsync(handle, eventType, data)
}
