package stt

import (
	"context"
	"fmt"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
)

// GoogleClient implements Recognizer with Google Cloud Speech-to-Text.
// It authenticates with Application Default Credentials.
type GoogleClient struct {
	client   *speech.Client
	language string
}

// NewGoogleClient creates a Google Cloud Speech client.
func NewGoogleClient(ctx context.Context, language string) (*GoogleClient, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	if language == "" {
		language = "en-US"
	}
	return &GoogleClient{client: client, language: language}, nil
}

// Recognize sends the WAV payload in a single synchronous request.
func (g *GoogleClient) Recognize(ctx context.Context, wav []byte) (string, error) {
	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            SampleRate,
			LanguageCode:               g.language,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: wav},
		},
	})
	if err != nil {
		return "", fmt.Errorf("speech recognize: %w", err)
	}
	return joinTranscripts(resultTranscripts(resp.GetResults())), nil
}

func resultTranscripts(results []*speechpb.SpeechRecognitionResult) []string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if alts := r.GetAlternatives(); len(alts) > 0 {
			parts = append(parts, alts[0].GetTranscript())
		}
	}
	return parts
}

// Close cleans up the speech client connection.
func (g *GoogleClient) Close() error {
	return g.client.Close()
}
