package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewOpenAIClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		client := NewOpenAIClient(OpenAIConfig{
			APIKey: "test-key",
		})

		if client.model != "gpt-4" {
			t.Errorf("model = %q, want %q", client.model, "gpt-4")
		}
		if client.url != openaiAPIURL {
			t.Errorf("url = %q, want %q", client.url, openaiAPIURL)
		}
		if client.apiKey != "test-key" {
			t.Errorf("apiKey = %q, want %q", client.apiKey, "test-key")
		}
		if client.httpClient.Timeout != 60*time.Second {
			t.Errorf("timeout = %v, want %v", client.httpClient.Timeout, 60*time.Second)
		}
	})

	t.Run("custom model and timeout", func(t *testing.T) {
		client := NewOpenAIClient(OpenAIConfig{
			APIKey:  "test-key",
			Model:   "gpt-4o",
			Timeout: 5 * time.Second,
		})

		if client.model != "gpt-4o" {
			t.Errorf("model = %q, want %q", client.model, "gpt-4o")
		}
		if client.httpClient.Timeout != 5*time.Second {
			t.Errorf("timeout = %v, want %v", client.httpClient.Timeout, 5*time.Second)
		}
	})

	t.Run("shared http client", func(t *testing.T) {
		shared := &http.Client{}
		client := NewOpenAIClient(OpenAIConfig{APIKey: "k", HTTPClient: shared})
		if client.httpClient != shared {
			t.Error("httpClient should be the shared client")
		}
	})
}

func TestComplete(t *testing.T) {
	type captured struct {
		auth string
		req  chatRequest
	}
	seen := make(chan captured, 4)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var c captured
		c.auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&c.req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		seen <- c
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Hi, I'm Sarah."}}]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(OpenAIConfig{APIKey: "secret", URL: srv.URL})
	msgs := []Message{
		{Role: RoleSystem, Content: "instructions"},
		{Role: RoleAssistant, Content: "question"},
		{Role: RoleUser, Content: "answer"},
	}

	got, err := client.Complete(context.Background(), msgs)
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if got != "Hi, I'm Sarah." {
		t.Errorf("Complete() = %q, want %q", got, "Hi, I'm Sarah.")
	}
	if len(seen) != 1 {
		t.Fatalf("requests = %d, want 1", len(seen))
	}
	c := <-seen
	gotAuth, gotReq := c.auth, c.req
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer secret")
	}
	if gotReq.Model != "gpt-4" {
		t.Errorf("model = %q, want %q", gotReq.Model, "gpt-4")
	}
	if len(gotReq.Messages) != len(msgs) {
		t.Fatalf("sent %d messages, want %d", len(gotReq.Messages), len(msgs))
	}
	for i, m := range msgs {
		if gotReq.Messages[i].Role != m.Role || gotReq.Messages[i].Content != m.Content {
			t.Errorf("message %d = %+v, want %+v", i, gotReq.Messages[i], m)
		}
	}
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"api error", http.StatusTooManyRequests, `{"error":"quota"}`, "429"},
		{"malformed body", http.StatusOK, `not json`, "decode"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "no choices"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewOpenAIClient(OpenAIConfig{APIKey: "k", URL: srv.URL})
			_, err := client.Complete(context.Background(), []Message{{Role: RoleSystem, Content: "x"}})
			if err == nil {
				t.Fatal("Complete() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, should contain %q", err.Error(), tt.wantErr)
			}
			if n := calls.Load(); n != 1 {
				t.Errorf("calls = %d, want exactly 1 (no retry)", n)
			}
		})
	}
}

func TestCompleteNoChoicesSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient(OpenAIConfig{APIKey: "k", URL: srv.URL})
	_, err := client.Complete(context.Background(), nil)
	if !errors.Is(err, ErrEmptyCompletion) {
		t.Errorf("error = %v, want ErrEmptyCompletion", err)
	}
}

func TestClientInterface(t *testing.T) {
	// Verify OpenAIClient implements Client interface
	var _ Client = (*OpenAIClient)(nil)
}
