package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

const (
	deepgramWSURL = "wss://api.deepgram.com/v1/listen"

	// chunkSize is the number of bytes written per websocket frame.
	chunkSize = 8192
)

// DeepgramClient implements Recognizer over Deepgram's streaming listen API:
// the whole file is streamed, CloseStream is sent and final results are
// collected until the server closes the connection.
type DeepgramClient struct {
	apiKey   string
	model    string
	language string
	url      string
	dialer   *websocket.Dialer
}

// DeepgramConfig holds configuration for the Deepgram client.
type DeepgramConfig struct {
	APIKey   string
	Model    string // e.g., "nova-2"
	Language string // e.g., "en-US"
	URL      string // Listen endpoint, overridable for tests
}

// deepgramResponse represents a Deepgram WebSocket response.
type deepgramResponse struct {
	Type    string `json:"type"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
	IsFinal bool `json:"is_final"`
}

// NewDeepgramClient creates a new Deepgram STT client.
func NewDeepgramClient(cfg DeepgramConfig) *DeepgramClient {
	model := cfg.Model
	if model == "" {
		model = "nova-2"
	}
	language := cfg.Language
	if language == "" {
		language = "en-US"
	}
	endpoint := cfg.URL
	if endpoint == "" {
		endpoint = deepgramWSURL
	}
	return &DeepgramClient{
		apiKey:   cfg.APIKey,
		model:    model,
		language: language,
		url:      endpoint,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

func (c *DeepgramClient) listenURL() string {
	q := url.Values{}
	q.Set("model", c.model)
	q.Set("language", c.language)
	q.Set("punctuate", "true")
	return c.url + "?" + q.Encode()
}

// Recognize streams the WAV payload and returns the joined final transcript.
// WAV is a container, so Deepgram reads encoding and sample rate from its header.
func (c *DeepgramClient) Recognize(ctx context.Context, wav []byte) (string, error) {
	headers := http.Header{}
	headers.Set("Authorization", "Token "+c.apiKey)

	conn, _, err := c.dialer.DialContext(ctx, c.listenURL(), headers)
	if err != nil {
		return "", fmt.Errorf("failed to connect to Deepgram: %w", err)
	}
	defer conn.Close()

	// Unblock ReadMessage if the caller gives up.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	writeErr := make(chan error, 1)
	go func() {
		writeErr <- streamAudio(conn, wav)
	}()

	var parts []string
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				break
			}
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", fmt.Errorf("read error: %w", err)
		}

		var resp deepgramResponse
		if err := json.Unmarshal(msg, &resp); err != nil {
			continue
		}
		if resp.Type == "Metadata" {
			// Sent once after CloseStream; no more results follow.
			break
		}
		if resp.Type != "Results" || !resp.IsFinal || len(resp.Channel.Alternatives) == 0 {
			continue
		}
		parts = append(parts, resp.Channel.Alternatives[0].Transcript)
	}

	if err := <-writeErr; err != nil {
		return "", err
	}
	return joinTranscripts(parts), nil
}

// streamAudio writes wav in chunks followed by CloseStream. It is the only
// writer on conn.
func streamAudio(conn *websocket.Conn, wav []byte) error {
	for len(wav) > 0 {
		n := min(chunkSize, len(wav))
		if err := conn.WriteMessage(websocket.BinaryMessage, wav[:n]); err != nil {
			return fmt.Errorf("write audio: %w", err)
		}
		wav = wav[n:]
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type": "CloseStream"}`)); err != nil {
		return fmt.Errorf("write close stream: %w", err)
	}
	return nil
}
