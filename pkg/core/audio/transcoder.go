package audio

import (
	"context"

	"github.com/samvaad-live/samvaad/pkg/core"
)

// Router sniffs each container and hands it to the transcoder that
// can decode it: Ogg/Opus goes to the native decoder, everything else
// to the fallback (ffmpeg). Canonical WAV input passes straight
// through. If the native decoder rejects an Ogg stream the fallback
// gets a try, which covers Ogg files carrying a non-Opus codec.
type Router struct {
	ogg      Transcoder
	fallback Transcoder
}

// NewRouter builds a router over the given transcoders. Either may be
// nil, in which case its formats route to the other.
func NewRouter(ogg, fallback Transcoder) *Router {
	return &Router{ogg: ogg, fallback: fallback}
}

func (r *Router) Transcode(ctx context.Context, container []byte) (*Clip, error) {
	if len(container) == 0 {
		return nil, core.NewDecodeError("empty audio payload", nil)
	}

	switch DetectFormat(container) {
	case FormatOgg:
		if r.ogg != nil {
			clip, err := r.ogg.Transcode(ctx, container)
			if err == nil {
				return clip, nil
			}
			if r.fallback == nil {
				return nil, err
			}
		}
	case FormatWAV:
		clip, err := DecodeWAV(container)
		if err == nil && clip.SampleRate == SampleRate && clip.Channels == Channels {
			return clip, nil
		}
	}

	if r.fallback == nil {
		return nil, core.NewDecodeError("no transcoder for container format", nil)
	}
	return r.fallback.Transcode(ctx, container)
}
