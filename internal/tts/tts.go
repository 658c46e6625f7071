package tts

import "context"

// Client defines the interface for text-to-speech providers.
type Client interface {
	// Synthesize converts text to speech and returns MP3 audio.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
