package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	vosk "github.com/alphacep/vosk-api/go"

	"github.com/samvaad-live/samvaad/pkg/core"
	"github.com/samvaad-live/samvaad/pkg/core/audio"
)

// Chunk size fed to the recognizer, in bytes. 4000 bytes is 125ms of
// 16 kHz mono s16le.
const voskChunkBytes = 4000

var voskLogOnce sync.Once

// VoskProvider implements Provider with a local Vosk model, for
// deployments that cannot ship audio off the box. One model serves
// every session; the model's own language wins over the requested
// locale, which is only logged by callers.
type VoskProvider struct {
	model *vosk.VoskModel
}

// NewVosk loads the model directory at path.
func NewVosk(path string) (*VoskProvider, error) {
	voskLogOnce.Do(func() {
		vosk.SetLogLevel(-1) // suppress vosk's own logs
	})
	model, err := vosk.NewModel(path)
	if err != nil {
		return nil, fmt.Errorf("load vosk model %q: %w", path, err)
	}
	return &VoskProvider{model: model}, nil
}

// Name returns the provider identifier.
func (v *VoskProvider) Name() string {
	return "vosk"
}

// Close frees the model.
func (v *VoskProvider) Close() {
	v.model.Free()
}

// Recognize runs the whole clip through a fresh recognizer and
// returns the final hypothesis.
func (v *VoskProvider) Recognize(ctx context.Context, clip *audio.Clip, locale string) (string, error) {
	rec, err := vosk.NewRecognizer(v.model, float64(clip.SampleRate))
	if err != nil {
		return "", core.NewRecognitionError(v.Name(), "create recognizer", err)
	}
	defer rec.Free()
	rec.SetWords(0)

	pcm := clip.PCM
	for len(pcm) > 0 {
		if ctx.Err() != nil {
			return "", core.NewRecognitionError(v.Name(), "recognition cancelled", ctx.Err())
		}
		n := voskChunkBytes
		if n > len(pcm) {
			n = len(pcm)
		}
		rec.AcceptWaveform(pcm[:n])
		pcm = pcm[n:]
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(rec.FinalResult()), &result); err != nil {
		return "", core.NewRecognitionError(v.Name(), "parse final result", err)
	}
	text := strings.TrimSpace(result.Text)
	if text == "" {
		return "", core.NewNoSpeechError(v.Name())
	}
	return text, nil
}
