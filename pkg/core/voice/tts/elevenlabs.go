package tts

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/haguro/elevenlabs-go"

	"github.com/samvaad-live/samvaad/pkg/core"
)

const elevenLabsDefaultModelID = "eleven_multilingual_v2"

// ElevenLabsProvider implements Provider with the ElevenLabs API. One
// configured voice speaks every language; the multilingual model
// follows the language of the text itself, so the language tag is not
// sent.
type ElevenLabsProvider struct {
	apiKey  string
	voiceID string
	modelID string
	timeout time.Duration
}

// NewElevenLabs creates an ElevenLabs synthesis provider. An empty
// model selects the multilingual default.
func NewElevenLabs(apiKey, voiceID, modelID string) *ElevenLabsProvider {
	if modelID == "" {
		modelID = elevenLabsDefaultModelID
	}
	return &ElevenLabsProvider{
		apiKey:  apiKey,
		voiceID: voiceID,
		modelID: modelID,
		timeout: 30 * time.Second,
	}
}

// Name returns the provider identifier.
func (p *ElevenLabsProvider) Name() string {
	return "elevenlabs"
}

// Synthesize streams MP3 audio for text into memory.
func (p *ElevenLabsProvider) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	client := elevenlabs.NewClient(ctx, p.apiKey, p.timeout)

	var buf bytes.Buffer
	req := elevenlabs.TextToSpeechRequest{
		Text:    text,
		ModelID: p.modelID,
	}
	if err := client.TextToSpeechStream(&buf, p.voiceID, req); err != nil {
		return nil, core.NewSynthesisError(p.Name(), fmt.Errorf("generate speech: %w", err))
	}
	if buf.Len() == 0 {
		return nil, core.NewSynthesisError(p.Name(), fmt.Errorf("endpoint returned no audio"))
	}
	return buf.Bytes(), nil
}
