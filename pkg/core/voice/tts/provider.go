// Package tts provides speech synthesis.
package tts

import "context"

// Provider is the interface for speech synthesis services.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Synthesize renders text as MP3 audio. language is a synthesis
	// language tag such as "hi"; providers that speak from the text
	// itself may ignore it.
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}
