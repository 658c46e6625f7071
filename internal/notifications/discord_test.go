package notifications

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestDiscordDisabled(t *testing.T) {
	d := NewDiscord("", log.New(io.Discard, "", 0))
	if d.Enabled() {
		t.Error("Enabled() should be false without a webhook URL")
	}
	// Should not panic or send anything.
	d.NotifyInterviewCompleted("id", "SRE", true, "Hire")
}

func TestNotifyInterviewCompleted(t *testing.T) {
	tests := []struct {
		name      string
		passed    bool
		wantTitle string
		wantColor int
	}{
		{"hire", true, "Interview completed: Hire", 0x00FF00},
		{"no hire", false, "Interview completed: No Hire", 0xFF0000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := make(chan discordMessage, 1)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var msg discordMessage
				if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
					t.Errorf("decode: %v", err)
				}
				got <- msg
				w.WriteHeader(http.StatusNoContent)
			}))
			defer srv.Close()

			d := NewDiscord(srv.URL, log.New(io.Discard, "", 0))
			d.NotifyInterviewCompleted("sess-1", "Backend Engineer", tt.passed, "feedback text")

			select {
			case msg := <-got:
				if len(msg.Embeds) != 1 {
					t.Fatalf("embeds = %d, want 1", len(msg.Embeds))
				}
				e := msg.Embeds[0]
				if e.Title != tt.wantTitle {
					t.Errorf("title = %q, want %q", e.Title, tt.wantTitle)
				}
				if e.Color != tt.wantColor {
					t.Errorf("color = %#x, want %#x", e.Color, tt.wantColor)
				}
				if e.Description != "feedback text" {
					t.Errorf("description = %q", e.Description)
				}
				if len(e.Fields) != 2 || e.Fields[0].Value != "Backend Engineer" || !strings.Contains(e.Fields[1].Value, "sess-1") {
					t.Errorf("fields = %+v", e.Fields)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("webhook was not called")
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate() = %q, want unchanged", got)
	}
	got := truncate(strings.Repeat("é", 20), 10)
	if r := []rune(got); len(r) != 10 || r[9] != '…' {
		t.Errorf("truncate() = %q, want 10 runes ending in ellipsis", got)
	}
}
