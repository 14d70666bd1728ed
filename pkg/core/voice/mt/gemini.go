package mt

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/samvaad-live/samvaad/pkg/core"
)

const geminiDefaultModel = "gemini-2.0-flash"

// GeminiProvider implements Provider with the Gemini API. The model
// handles every code in the relay's language table, so Supports never
// triggers the fallback.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini translation provider. An empty model
// selects a fast default.
func NewGemini(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if model == "" {
		model = geminiDefaultModel
	}
	return &GeminiProvider{client: client, model: model}, nil
}

// Name returns the provider identifier.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Supports accepts every code.
func (p *GeminiProvider) Supports(string) bool {
	return true
}

// Translate prompts the model for a bare translation.
func (p *GeminiProvider) Translate(ctx context.Context, text, src, dst string) (string, error) {
	prompt := fmt.Sprintf(
		"Translate the following text from language code %q to language code %q. Reply with only the translation, nothing else.\n\n%s",
		src, dst, text)

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	})
	if err != nil {
		return "", core.NewTranslationError(p.Name(), err)
	}

	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", core.NewTranslationError(p.Name(), fmt.Errorf("model returned no text"))
	}
	return out, nil
}
