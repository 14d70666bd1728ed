// Package mt provides text translation between language codes.
package mt

import "context"

// Provider is the interface for translation services.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Translate converts text from the src language code to the dst
	// language code.
	Translate(ctx context.Context, text, src, dst string) (string, error)

	// Supports reports whether the service accepts a language code.
	// The relay falls back to the default language for codes a
	// provider rejects.
	Supports(code string) bool
}
