// Package voice composes the relay's stage adapters into a single
// pipeline: transcode, recognize, translate, synthesize.
package voice

import (
	"context"
	"errors"

	"github.com/samvaad-live/samvaad/pkg/core"
	"github.com/samvaad-live/samvaad/pkg/core/audio"
	"github.com/samvaad-live/samvaad/pkg/core/lang"
	"github.com/samvaad-live/samvaad/pkg/core/voice/mt"
	"github.com/samvaad-live/samvaad/pkg/core/voice/stt"
	"github.com/samvaad-live/samvaad/pkg/core/voice/tts"
)

// Pipeline drives one utterance or text message through the relay
// stages. It is stateless and shared by every session.
type Pipeline struct {
	transcoder  audio.Transcoder
	recognizer  stt.Provider
	translator  mt.Provider
	synthesizer tts.Provider
	languages   *lang.Registry
}

// Options names the stage adapters a pipeline composes.
type Options struct {
	Transcoder  audio.Transcoder
	Recognizer  stt.Provider
	Translator  mt.Provider
	Synthesizer tts.Provider
}

// NewPipeline builds a pipeline over the given adapters. The language
// registry's fallback set is bound to the translator's inventory.
func NewPipeline(opts Options) *Pipeline {
	var supported lang.SupportFunc
	if opts.Translator != nil {
		supported = opts.Translator.Supports
	}
	return &Pipeline{
		transcoder:  opts.Transcoder,
		recognizer:  opts.Recognizer,
		translator:  opts.Translator,
		synthesizer: opts.Synthesizer,
		languages:   lang.NewRegistry(supported),
	}
}

// Languages returns the registry bound to this pipeline's translator.
func (p *Pipeline) Languages() *lang.Registry {
	return p.languages
}

// Recognizer returns the recognition provider.
func (p *Pipeline) Recognizer() stt.Provider {
	return p.recognizer
}

// Translator returns the translation provider.
func (p *Pipeline) Translator() mt.Provider {
	return p.translator
}

// Synthesizer returns the synthesis provider.
func (p *Pipeline) Synthesizer() tts.Provider {
	return p.synthesizer
}

// Hear decodes a compressed audio container and recognizes the speech
// in it, returning the transcript.
func (p *Pipeline) Hear(ctx context.Context, container []byte, locale string) (string, error) {
	clip, err := p.transcoder.Transcode(ctx, container)
	if err != nil {
		return "", asStageError(err, func(e error) *core.Error {
			return core.NewDecodeError("transcode audio", e)
		})
	}
	text, err := p.recognizer.Recognize(ctx, clip, locale)
	if err != nil {
		return "", asStageError(err, func(e error) *core.Error {
			return core.NewRecognitionError(p.recognizer.Name(), "recognize speech", e)
		})
	}
	return text, nil
}

// Translate converts text between translation codes.
func (p *Pipeline) Translate(ctx context.Context, text, src, dst string) (string, error) {
	out, err := p.translator.Translate(ctx, text, src, dst)
	if err != nil {
		return "", asStageError(err, func(e error) *core.Error {
			return core.NewTranslationError(p.translator.Name(), e)
		})
	}
	return out, nil
}

// Speak synthesizes text into MP3 audio.
func (p *Pipeline) Speak(ctx context.Context, text, language string) ([]byte, error) {
	out, err := p.synthesizer.Synthesize(ctx, text, language)
	if err != nil {
		return nil, asStageError(err, func(e error) *core.Error {
			return core.NewSynthesisError(p.synthesizer.Name(), e)
		})
	}
	return out, nil
}

// asStageError keeps canonical stage errors as they are and wraps
// anything else, so callers always see a *core.Error.
func asStageError(err error, wrap func(error) *core.Error) *core.Error {
	var coreErr *core.Error
	if errors.As(err, &coreErr) && coreErr != nil {
		return coreErr
	}
	return wrap(err)
}
