// Package speech turns microphone input or an audio file into a single
// best-effort transcript.
package speech

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"regexp"
	"strings"

	"secondbrain/pkg/audioconv"
)

// ErrNoSpeech means capture worked but nothing was recognized.
var ErrNoSpeech = errors.New("no speech recognized")

type Recorder interface {
	Record(ctx context.Context) ([]float32, error)
}

// Transcriber converts mono 16 kHz PCM to text.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []float32) (string, error)
}

// Listener is the speech capture collaborator of the assistant.
type Listener struct {
	rec Recorder
	tr  Transcriber
}

func NewListener(rec Recorder, tr Transcriber) *Listener {
	return &Listener{rec: rec, tr: tr}
}

// Listen records one utterance and returns its transcript or ErrNoSpeech.
func (l *Listener) Listen(ctx context.Context) (string, error) {
	if l.rec == nil {
		return "", errors.New("no microphone configured")
	}
	pcm, err := l.rec.Record(ctx)
	if err != nil {
		return "", fmt.Errorf("record: %w", err)
	}
	log.Debug("Recorded", "samples", len(pcm))
	return l.transcribe(ctx, pcm)
}

// ListenFile transcribes an audio file instead of the microphone.
func (l *Listener) ListenFile(ctx context.Context, path string) (string, error) {
	pcm, err := audioconv.DecodeFile(ctx, path, audioconv.Options{})
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	return l.transcribe(ctx, pcm)
}

func (l *Listener) transcribe(ctx context.Context, pcm []float32) (string, error) {
	if len(pcm) == 0 {
		return "", ErrNoSpeech
	}
	text, err := l.tr.Transcribe(ctx, pcm)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}

	text = Clean(text)
	if text == "" {
		return "", ErrNoSpeech
	}
	log.Info("Transcribed", "text", text)
	return text, nil
}

// whisper marks non-speech with bracketed tags such as [BLANK_AUDIO] or (music).
var tagRe = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)

// Clean drops engine annotations and collapses whitespace.
func Clean(text string) string {
	return strings.Join(strings.Fields(tagRe.ReplaceAllString(text, " ")), " ")
}
