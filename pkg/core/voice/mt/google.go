package mt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/samvaad-live/samvaad/pkg/core"
)

const googleTranslateBaseURL = "https://translate.googleapis.com/translate_a/single"

// GoogleProvider implements Provider using the free translate
// endpoint (client=gtx), which needs no API key.
type GoogleProvider struct {
	httpClient *http.Client
	baseURL    string
}

// NewGoogle creates a free-endpoint translation provider.
func NewGoogle() *GoogleProvider {
	return NewGoogleWithClient(&http.Client{})
}

// NewGoogleWithClient creates a free-endpoint translation provider
// with a custom HTTP client.
func NewGoogleWithClient(client *http.Client) *GoogleProvider {
	return &GoogleProvider{
		httpClient: client,
		baseURL:    googleTranslateBaseURL,
	}
}

// WithBaseURL overrides the translation endpoint. Used in tests.
func (p *GoogleProvider) WithBaseURL(u string) *GoogleProvider {
	p.baseURL = u
	return p
}

// Name returns the provider identifier.
func (p *GoogleProvider) Name() string {
	return "google"
}

// Supports reports whether the endpoint's language inventory has code.
func (p *GoogleProvider) Supports(code string) bool {
	_, ok := googleLanguages[code]
	return ok
}

// Translate requests a translation and joins the returned segments.
func (p *GoogleProvider) Translate(ctx context.Context, text, src, dst string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", src)
	q.Set("tl", dst)
	q.Set("dt", "t")
	q.Set("q", text)
	reqURL := p.baseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return "", core.NewTranslationError(p.Name(), fmt.Errorf("create request: %w", err))
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", core.NewTranslationError(p.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", core.NewTranslationError(p.Name(),
			fmt.Errorf("translate error %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", core.NewTranslationError(p.Name(), fmt.Errorf("read response: %w", err))
	}

	translated, err := parseTranslateResponse(body)
	if err != nil {
		return "", core.NewTranslationError(p.Name(), err)
	}
	return translated, nil
}

// parseTranslateResponse digs the translated segments out of the
// endpoint's nested-array payload:
//
//	[[["translated","source",null,null,10], ...], null, "src", ...]
func parseTranslateResponse(body []byte) (string, error) {
	var root []any
	if err := json.Unmarshal(body, &root); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(root) == 0 {
		return "", fmt.Errorf("empty response")
	}
	segments, ok := root[0].([]any)
	if !ok {
		return "", fmt.Errorf("unexpected response shape")
	}

	var sb strings.Builder
	for _, raw := range segments {
		seg, ok := raw.([]any)
		if !ok || len(seg) == 0 {
			continue
		}
		if piece, ok := seg[0].(string); ok {
			sb.WriteString(piece)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no translation in response")
	}
	return sb.String(), nil
}
