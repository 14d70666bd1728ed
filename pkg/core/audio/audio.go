// Package audio converts the compressed containers browsers record
// (WebM or Ogg, Opus-coded) into the canonical PCM form the
// recognition providers consume.
package audio

import (
	"context"
	"time"
)

// Canonical decoded form: 16 kHz mono signed 16-bit little-endian PCM.
const (
	SampleRate = 16000
	Channels   = 1
)

// Clip is one decoded utterance.
type Clip struct {
	PCM        []byte
	SampleRate int
	Channels   int
}

// Duration returns the play time of the clip.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return 0
	}
	samples := len(c.PCM) / 2 / c.Channels
	return time.Duration(samples) * time.Second / time.Duration(c.SampleRate)
}

// WAV returns the clip framed as a RIFF/WAV file.
func (c *Clip) WAV() []byte {
	return EncodeWAV(c.PCM, c.SampleRate, c.Channels)
}

// Transcoder converts one compressed audio container into a Clip.
type Transcoder interface {
	Transcode(ctx context.Context, container []byte) (*Clip, error)
}
