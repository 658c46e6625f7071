// Package transcript holds the append-only conversation log of one interview.
package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Speaker identifies who said a message.
type Speaker string

const (
	Interviewer Speaker = "interviewer"
	Candidate   Speaker = "candidate"
)

// Label returns the dialogue prefix used when rendering the transcript as text.
func (s Speaker) Label() string {
	switch s {
	case Interviewer:
		return "Interviewer"
	case Candidate:
		return "Candidate"
	default:
		return string(s)
	}
}

func (s Speaker) valid() bool {
	return s == Interviewer || s == Candidate
}

// Message is one turn of the interview. Text may be empty when the
// candidate's answer could not be transcribed.
type Message struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

// Phase is the implicit interview state derived from the last message.
type Phase int

const (
	// AwaitingQuestion: nothing has been asked yet, or the candidate spoke last.
	AwaitingQuestion Phase = iota
	// AwaitingAnswer: the interviewer spoke last.
	AwaitingAnswer
)

func (p Phase) String() string {
	if p == AwaitingAnswer {
		return "awaiting_answer"
	}
	return "awaiting_question"
}

// MaxDurationMinutes bounds the session lifetime to one year. Larger values
// would overflow time.Duration when converted to a TTL.
const MaxDurationMinutes = 365 * 24 * 60

// Transcript is the full state of one interview. It is a value type:
// Append returns a new Transcript and never touches the receiver's messages.
type Transcript struct {
	role            string
	durationMinutes int
	messages        []Message
}

// New creates an empty transcript for the given role and duration.
func New(role string, durationMinutes int) Transcript {
	return Transcript{role: role, durationMinutes: durationMinutes}
}

// Role is the job role being interviewed for.
func (t Transcript) Role() string { return t.role }

// DurationMinutes is the session lifetime requested at start.
func (t Transcript) DurationMinutes() int { return t.durationMinutes }

// TTL is the store expiry window derived from DurationMinutes, capped at
// MaxDurationMinutes.
func (t Transcript) TTL() time.Duration {
	return time.Duration(min(t.durationMinutes, MaxDurationMinutes)) * time.Minute
}

// Len returns the number of messages.
func (t Transcript) Len() int { return len(t.messages) }

// Messages returns a copy of the message log in chronological order.
func (t Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Last returns the most recent message, if any.
func (t Transcript) Last() (Message, bool) {
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// Phase reports whether the interview is waiting on a question or an answer.
func (t Transcript) Phase() Phase {
	if last, ok := t.Last(); ok && last.Speaker == Interviewer {
		return AwaitingAnswer
	}
	return AwaitingQuestion
}

// Append returns a copy of t with one more message at the end.
func (t Transcript) Append(speaker Speaker, text string) Transcript {
	msgs := make([]Message, len(t.messages), len(t.messages)+1)
	copy(msgs, t.messages)
	t.messages = append(msgs, Message{Speaker: speaker, Text: text})
	return t
}

// Turns returns the conversation in append order, for building a
// completion request.
func (t Transcript) Turns() []Message {
	return t.Messages()
}

// Dialogue renders the transcript as "Interviewer: ..." / "Candidate: ..."
// lines, one per message.
func (t Transcript) Dialogue() string {
	var b strings.Builder
	for i, m := range t.messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.Speaker.Label())
		b.WriteString(": ")
		b.WriteString(m.Text)
	}
	return b.String()
}

// Equal reports whether two transcripts hold the same metadata and messages.
func (t Transcript) Equal(o Transcript) bool {
	if t.role != o.role || t.durationMinutes != o.durationMinutes || len(t.messages) != len(o.messages) {
		return false
	}
	for i := range t.messages {
		if t.messages[i] != o.messages[i] {
			return false
		}
	}
	return true
}

// wireTranscript is the serialized form stored in the session store.
type wireTranscript struct {
	Role            string    `json:"role"`
	DurationMinutes int       `json:"duration_minutes"`
	Messages        []Message `json:"messages"`
}

// MarshalJSON encodes the transcript. Text is written verbatim.
func (t Transcript) MarshalJSON() ([]byte, error) {
	msgs := t.messages
	if msgs == nil {
		msgs = []Message{}
	}
	return json.Marshal(wireTranscript{
		Role:            t.role,
		DurationMinutes: t.durationMinutes,
		Messages:        msgs,
	})
}

// UnmarshalJSON decodes a transcript written by MarshalJSON.
func (t *Transcript) UnmarshalJSON(data []byte) error {
	var w wireTranscript
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	for i, m := range w.Messages {
		if !m.Speaker.valid() {
			return fmt.Errorf("message %d: unknown speaker %q", i, m.Speaker)
		}
	}
	t.role = w.Role
	t.durationMinutes = w.DurationMinutes
	t.messages = nil
	if len(w.Messages) > 0 {
		t.messages = w.Messages
	}
	return nil
}

// Marshal serializes t for storage.
func Marshal(t Transcript) ([]byte, error) {
	return t.MarshalJSON()
}

// Unmarshal parses bytes produced by Marshal.
func Unmarshal(data []byte) (Transcript, error) {
	if len(data) == 0 {
		return Transcript{}, errors.New("empty transcript payload")
	}
	var t Transcript
	if err := t.UnmarshalJSON(data); err != nil {
		return Transcript{}, fmt.Errorf("decode transcript: %w", err)
	}
	return t, nil
}
