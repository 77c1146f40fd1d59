package speech

import (
	"bytes"
	"context"
	"fmt"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"secondbrain/pkg/audioconv"
)

// CloudTranscriber sends audio to the OpenAI transcription API.
type CloudTranscriber struct {
	client   openai.Client
	language string
}

func NewCloudTranscriber(language string, opts ...option.RequestOption) *CloudTranscriber {
	if language == "auto" {
		language = ""
	}
	return &CloudTranscriber{
		client:   openai.NewClient(opts...),
		language: language,
	}
}

func (c *CloudTranscriber) Transcribe(ctx context.Context, pcm []float32) (string, error) {
	data, err := audioconv.WAVBytes(pcm)
	if err != nil {
		return "", err
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(data), "utterance.wav", "audio/wav"),
		Model: openai.AudioModelWhisper1,
	}
	if c.language != "" {
		params.Language = openai.String(c.language)
	}

	resp, err := c.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}
	return resp.Text, nil
}
