package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const deepgramSpeakURL = "https://api.deepgram.com/v1/speak"

// DeepgramClient implements the Client interface using Deepgram's Aura speak API.
type DeepgramClient struct {
	apiKey     string
	model      string
	url        string
	httpClient *http.Client
}

// DeepgramConfig holds configuration for the Deepgram TTS client.
type DeepgramConfig struct {
	APIKey     string
	Model      string // e.g., "aura-orpheus-en"
	URL        string // Speak endpoint, overridable for tests
	HTTPClient *http.Client
}

// NewDeepgramClient creates a new Deepgram TTS client.
func NewDeepgramClient(cfg DeepgramConfig) *DeepgramClient {
	model := cfg.Model
	if model == "" {
		model = "aura-orpheus-en"
	}
	endpoint := cfg.URL
	if endpoint == "" {
		endpoint = deepgramSpeakURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &DeepgramClient{
		apiKey:     cfg.APIKey,
		model:      model,
		url:        endpoint,
		httpClient: httpClient,
	}
}

type speakRequest struct {
	Text string `json:"text"`
}

// Synthesize converts text to speech and returns MP3 audio.
func (c *DeepgramClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	u := c.url + "?" + url.Values{"model": {c.model}}.Encode()

	body, err := json.Marshal(speakRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Token "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("Deepgram API error: %s - %s", resp.Status, string(respBody))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("Deepgram API returned empty audio")
	}
	return audio, nil
}
