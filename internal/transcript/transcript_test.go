package transcript

import (
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tr := New("Backend Engineer", 30)

	if tr.Role() != "Backend Engineer" {
		t.Errorf("Role() = %q, want %q", tr.Role(), "Backend Engineer")
	}
	if tr.DurationMinutes() != 30 {
		t.Errorf("DurationMinutes() = %d, want 30", tr.DurationMinutes())
	}
	if tr.TTL() != 30*time.Minute {
		t.Errorf("TTL() = %v, want %v", tr.TTL(), 30*time.Minute)
	}
	if tr.Len() != 0 {
		t.Errorf("Len() = %d, want 0", tr.Len())
	}
	if tr.Phase() != AwaitingQuestion {
		t.Errorf("Phase() = %v, want %v", tr.Phase(), AwaitingQuestion)
	}
}

func TestTTLIsCapped(t *testing.T) {
	tests := []struct {
		minutes int
		want    time.Duration
	}{
		{1, time.Minute},
		{MaxDurationMinutes, 365 * 24 * time.Hour},
		{153_722_868, 365 * 24 * time.Hour},
		{200_000_000, 365 * 24 * time.Hour},
	}
	for _, tt := range tests {
		if got := New("SRE", tt.minutes).TTL(); got != tt.want {
			t.Errorf("New(%d).TTL() = %v, want %v", tt.minutes, got, tt.want)
		}
	}
}

func TestAppendIsAppendOnly(t *testing.T) {
	base := New("Designer", 10).Append(Interviewer, "Tell me about yourself.")

	a := base.Append(Candidate, "I design things.")
	b := base.Append(Candidate, "I draw things.")

	if base.Len() != 1 {
		t.Fatalf("base Len() = %d, want 1 (Append must not mutate the receiver)", base.Len())
	}
	if a.Len() != 2 || b.Len() != 2 {
		t.Fatalf("a.Len() = %d, b.Len() = %d, want 2 and 2", a.Len(), b.Len())
	}
	if got := a.Messages()[1].Text; got != "I design things." {
		t.Errorf("a[1] = %q, want %q", got, "I design things.")
	}
	if got := b.Messages()[1].Text; got != "I draw things." {
		t.Errorf("b[1] = %q, want %q (branches must not share backing storage)", got, "I draw things.")
	}

	prev := a.Messages()
	c := a.Append(Interviewer, "Why?")
	for i, m := range prev {
		if c.Messages()[i] != m {
			t.Errorf("message %d changed after append: %+v -> %+v", i, m, c.Messages()[i])
		}
	}
}

func TestMessagesReturnsCopy(t *testing.T) {
	tr := New("QA", 5).Append(Interviewer, "Hello")
	msgs := tr.Messages()
	msgs[0].Text = "tampered"

	if got := tr.Messages()[0].Text; got != "Hello" {
		t.Errorf("Messages()[0].Text = %q, want %q", got, "Hello")
	}
}

func TestPhase(t *testing.T) {
	tr := New("QA", 5)
	if tr.Phase() != AwaitingQuestion {
		t.Errorf("empty: Phase() = %v, want %v", tr.Phase(), AwaitingQuestion)
	}
	tr = tr.Append(Interviewer, "Q1")
	if tr.Phase() != AwaitingAnswer {
		t.Errorf("after question: Phase() = %v, want %v", tr.Phase(), AwaitingAnswer)
	}
	tr = tr.Append(Candidate, "")
	if tr.Phase() != AwaitingQuestion {
		t.Errorf("after answer: Phase() = %v, want %v", tr.Phase(), AwaitingQuestion)
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		tr   Transcript
	}{
		{name: "empty", tr: New("Backend Engineer", 30)},
		{name: "one question", tr: New("Backend Engineer", 30).Append(Interviewer, "Hi, I'm Sarah.")},
		{
			name: "empty answer",
			tr: New("SRE", 15).
				Append(Interviewer, "Tell me about an outage.").
				Append(Candidate, "").
				Append(Interviewer, "Could you repeat that?"),
		},
		{
			name: "whitespace and markup preserved",
			tr: New("Data <Scientist> & co", 45).
				Append(Interviewer, "  leading and trailing  ").
				Append(Candidate, "line one\nline two\t\"quoted\" ünïcödé"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Marshal(tt.tr)
			if err != nil {
				t.Fatalf("Marshal() error: %v", err)
			}
			got, err := Unmarshal(data)
			if err != nil {
				t.Fatalf("Unmarshal() error: %v", err)
			}
			if !got.Equal(tt.tr) {
				t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got.Messages(), tt.tr.Messages())
			}
			if got.Role() != tt.tr.Role() || got.DurationMinutes() != tt.tr.DurationMinutes() {
				t.Errorf("metadata = (%q, %d), want (%q, %d)", got.Role(), got.DurationMinutes(), tt.tr.Role(), tt.tr.DurationMinutes())
			}
		})
	}
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty payload", ""},
		{"not json", "not json"},
		{"unknown speaker", `{"role":"QA","duration_minutes":5,"messages":[{"speaker":"system","text":"hi"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Unmarshal([]byte(tt.data)); err == nil {
				t.Errorf("Unmarshal(%q) should fail", tt.data)
			}
		})
	}
}

func TestDialogue(t *testing.T) {
	tr := New("PM", 20).
		Append(Interviewer, "What's your background?").
		Append(Candidate, "Five years in product.").
		Append(Interviewer, "Tell me more.")

	want := strings.Join([]string{
		"Interviewer: What's your background?",
		"Candidate: Five years in product.",
		"Interviewer: Tell me more.",
	}, "\n")

	if got := tr.Dialogue(); got != want {
		t.Errorf("Dialogue() =\n%s\nwant\n%s", got, want)
	}

	if got := New("PM", 20).Dialogue(); got != "" {
		t.Errorf("empty Dialogue() = %q, want empty", got)
	}
}

func TestTurnsOrder(t *testing.T) {
	tr := New("PM", 20).
		Append(Interviewer, "one").
		Append(Candidate, "two").
		Append(Interviewer, "three")

	turns := tr.Turns()
	want := []string{"one", "two", "three"}
	for i, w := range want {
		if turns[i].Text != w {
			t.Errorf("Turns()[%d] = %q, want %q", i, turns[i].Text, w)
		}
	}
}
