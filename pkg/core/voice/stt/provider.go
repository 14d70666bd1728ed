// Package stt provides speech recognition over decoded utterances.
package stt

import (
	"context"

	"github.com/samvaad-live/samvaad/pkg/core/audio"
)

// Provider is the interface for speech recognition services.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Recognize converts a decoded clip to text. locale is a BCP-47
	// recognition locale such as "hi-IN". An utterance with no
	// recognizable speech yields a no-speech recognition error, never
	// an empty string.
	Recognize(ctx context.Context, clip *audio.Clip, locale string) (string, error)
}
