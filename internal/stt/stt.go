package stt

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// Recognizer turns 16 kHz mono LINEAR16 WAV audio into text.
type Recognizer interface {
	Recognize(ctx context.Context, wav []byte) (string, error)
}

// Transcriber turns an uploaded audio file of any supported container into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// Pipeline transcodes an upload to WAV and hands it to a Recognizer.
type Pipeline struct {
	transcoder *Transcoder
	recognizer Recognizer
	timeout    time.Duration
}

// NewPipeline creates a Transcriber from a transcoder and a recognizer.
func NewPipeline(transcoder *Transcoder, recognizer Recognizer) *Pipeline {
	return &Pipeline{transcoder: transcoder, recognizer: recognizer}
}

// WithTimeout bounds each Transcribe call, transcoding included. Zero disables it.
func (p *Pipeline) WithTimeout(d time.Duration) *Pipeline {
	p.timeout = d
	return p
}

// Transcribe converts the file at path and recognizes it. The intermediate
// WAV file is always removed.
func (p *Pipeline) Transcribe(ctx context.Context, path string) (string, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	wavPath, err := p.transcoder.ToWAV(ctx, path)
	if err != nil {
		return "", err
	}
	defer os.Remove(wavPath)

	data, err := os.ReadFile(wavPath)
	if err != nil {
		return "", fmt.Errorf("read wav: %w", err)
	}
	return p.recognizer.Recognize(ctx, data)
}

// joinTranscripts concatenates non-empty segments with single spaces.
func joinTranscripts(parts []string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
