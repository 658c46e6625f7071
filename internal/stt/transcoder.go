package stt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// SampleRate is the PCM sample rate produced by the transcoder and expected
// by every Recognizer.
const SampleRate = 16000

// Transcoder converts container formats (webm, ogg, mp3, wav) into
// 16 kHz mono signed 16-bit PCM WAV using ffmpeg.
type Transcoder struct {
	binary string
	tmpDir string
}

// NewTranscoder creates a transcoder. An empty binary means "ffmpeg" from PATH;
// an empty tmpDir means os.TempDir().
func NewTranscoder(binary, tmpDir string) *Transcoder {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Transcoder{binary: binary, tmpDir: tmpDir}
}

// ToWAV writes a transcoded copy of src to a fresh temp file and returns its
// path. The caller removes the file. On error nothing is left behind.
func (t *Transcoder) ToWAV(ctx context.Context, src string) (string, error) {
	f, err := os.CreateTemp(t.tmpDir, "stt-*.wav")
	if err != nil {
		return "", fmt.Errorf("create temp wav: %w", err)
	}
	dst := f.Name()
	_ = f.Close()

	cmd := exec.CommandContext(ctx, t.binary,
		"-y",
		"-loglevel", "error",
		"-i", src,
		"-ac", "1",
		"-ar", strconv.Itoa(SampleRate),
		"-acodec", "pcm_s16le",
		"-f", "wav",
		dst,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return dst, nil
}
