package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/samvaad-live/samvaad/pkg/core"
)

const (
	googleTTSBaseURL = "https://translate.google.com/translate_tts"

	// Runes per request, matching the limit the web player enforces.
	googleTTSMaxChunk = 100
)

// GoogleProvider implements Provider using the translate web player's
// TTS endpoint, which needs no API key and returns MP3. Long text is
// split at punctuation into player-sized chunks whose MP3 payloads
// concatenate into one stream.
type GoogleProvider struct {
	httpClient *http.Client
	baseURL    string
}

// NewGoogle creates a web-player TTS provider.
func NewGoogle() *GoogleProvider {
	return NewGoogleWithClient(&http.Client{})
}

// NewGoogleWithClient creates a web-player TTS provider with a custom
// HTTP client.
func NewGoogleWithClient(client *http.Client) *GoogleProvider {
	return &GoogleProvider{
		httpClient: client,
		baseURL:    googleTTSBaseURL,
	}
}

// WithBaseURL overrides the synthesis endpoint. Used in tests.
func (p *GoogleProvider) WithBaseURL(u string) *GoogleProvider {
	p.baseURL = u
	return p
}

// Name returns the provider identifier.
func (p *GoogleProvider) Name() string {
	return "google"
}

// Synthesize fetches MP3 audio for text in the given language.
func (p *GoogleProvider) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	chunks := splitTTSChunks(text, googleTTSMaxChunk)
	if len(chunks) == 0 {
		return nil, core.NewSynthesisError(p.Name(), fmt.Errorf("nothing to synthesize"))
	}

	var out []byte
	for i, chunk := range chunks {
		q := url.Values{}
		q.Set("ie", "UTF-8")
		q.Set("client", "tw-ob")
		q.Set("tl", language)
		q.Set("q", chunk)
		q.Set("total", strconv.Itoa(len(chunks)))
		q.Set("idx", strconv.Itoa(i))
		q.Set("textlen", strconv.Itoa(len([]rune(chunk))))

		req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"?"+q.Encode(), nil)
		if err != nil {
			return nil, core.NewSynthesisError(p.Name(), fmt.Errorf("create request: %w", err))
		}

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return nil, core.NewSynthesisError(p.Name(), err)
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
			resp.Body.Close()
			return nil, core.NewSynthesisError(p.Name(),
				fmt.Errorf("tts error %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
		}
		audio, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, core.NewSynthesisError(p.Name(), fmt.Errorf("read audio: %w", err))
		}
		out = append(out, audio...)
	}

	if len(out) == 0 {
		return nil, core.NewSynthesisError(p.Name(), fmt.Errorf("endpoint returned no audio"))
	}
	return out, nil
}

// splitTTSChunks cuts text into chunks of at most max runes,
// preferring to break after punctuation or at whitespace so the
// synthesized prosody stays natural.
func splitTTSChunks(text string, max int) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	var chunks []string
	for len(runes) > 0 {
		if len(runes) <= max {
			chunks = append(chunks, strings.TrimSpace(string(runes)))
			break
		}

		cut := -1
		for i := max; i > 0; i-- {
			if isTTSBoundary(runes[i-1]) {
				cut = i
				break
			}
		}
		if cut <= 0 {
			cut = max
		}

		chunk := strings.TrimSpace(string(runes[:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		runes = runes[cut:]
		for len(runes) > 0 && unicode.IsSpace(runes[0]) {
			runes = runes[1:]
		}
	}
	return chunks
}

func isTTSBoundary(r rune) bool {
	switch r {
	case '.', ',', ';', ':', '!', '?', '।', '\n':
		return true
	}
	return unicode.IsSpace(r)
}
