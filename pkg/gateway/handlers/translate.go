package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/samvaad-live/samvaad/pkg/core"
	"github.com/samvaad-live/samvaad/pkg/core/voice"
	"github.com/samvaad-live/samvaad/pkg/gateway/config"
)

type translateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	WithAudio  bool   `json:"with_audio"`
}

// translateResponse reports stage failures as a value: a translation
// failure is a 200 with the error field set, never a 5xx. AudioData is
// base64 MP3 and only present when the request asked for audio.
type translateResponse struct {
	TranslatedText string `json:"translated_text,omitempty"`
	AudioData      []byte `json:"audio_data,omitempty"`
	Error          string `json:"error,omitempty"`
}

// TranslateHandler is the one-shot REST variant of the relay pipeline:
// resolve languages with the same silent fallback, translate, and
// optionally synthesize.
type TranslateHandler struct {
	Config   config.Config
	Pipeline *voice.Pipeline
	Logger   *slog.Logger
}

func (h TranslateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID := requestIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.Config.MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeErrorJSON(w, core.NewProtocolError("failed to read request body"), http.StatusBadRequest)
		return
	}

	var req translateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeErrorJSON(w, core.NewProtocolError("invalid JSON body"), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeErrorJSON(w, core.NewProtocolError("text is required"), http.StatusBadRequest)
		return
	}

	languages := h.Pipeline.Languages()
	source, _ := languages.ApplyFallback(languages.Resolve(req.SourceLang))
	target, _ := languages.ApplyFallback(languages.Resolve(req.TargetLang))

	translated, err := h.Pipeline.Translate(r.Context(), req.Text, source.TranslationCode, target.TranslationCode)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("translate request failed", "request_id", reqID, "error", err)
		}
		writeJSON(w, http.StatusOK, translateResponse{Error: stageNotice(err)})
		return
	}

	resp := translateResponse{TranslatedText: translated}
	if req.WithAudio {
		audio, err := h.Pipeline.Speak(r.Context(), translated, target.SynthesisLanguage)
		if err != nil {
			if h.Logger != nil {
				h.Logger.Warn("translate synthesis failed", "request_id", reqID, "error", err)
			}
			resp.Error = stageNotice(err)
		} else {
			resp.AudioData = audio
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
