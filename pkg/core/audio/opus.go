package audio

import (
	"bytes"
	"context"
	"encoding/binary"

	"github.com/hraban/opus"

	"github.com/samvaad-live/samvaad/pkg/core"
)

var (
	opusHeadMagic = []byte("OpusHead")
	opusTagsMagic = []byte("OpusTags")
)

// OpusTranscoder decodes Ogg/Opus containers natively, without
// shelling out. Opus always plays back at 48 kHz; the decoded signal
// is downsampled to the canonical rate.
type OpusTranscoder struct{}

func (t *OpusTranscoder) Transcode(ctx context.Context, container []byte) (*Clip, error) {
	packets, err := oggPackets(container)
	if err != nil {
		return nil, core.NewDecodeError("invalid ogg stream", err)
	}

	dec, err := opus.NewDecoder(48000, 1)
	if err != nil {
		return nil, core.NewDecodeError("create opus decoder", err)
	}

	pcmBuf := make([]int16, 5760) // max 120ms at 48kHz
	var samples []int16
	for _, pkt := range packets {
		if len(pkt) == 0 {
			continue
		}
		if bytes.HasPrefix(pkt, opusHeadMagic) || bytes.HasPrefix(pkt, opusTagsMagic) {
			continue
		}
		if ctx.Err() != nil {
			return nil, core.NewDecodeError("decode cancelled", ctx.Err())
		}
		n, err := dec.Decode(pkt, pcmBuf)
		if err != nil || n == 0 {
			// A single corrupt packet does not sink the utterance.
			continue
		}
		samples = append(samples, pcmBuf[:n]...)
	}

	if len(samples) == 0 {
		return nil, core.NewDecodeError("no decodable audio in ogg stream", nil)
	}

	downsampled := downsample48to16(samples)
	return &Clip{
		PCM:        int16ToBytes(downsampled),
		SampleRate: SampleRate,
		Channels:   Channels,
	}, nil
}

func downsample48to16(samples []int16) []int16 {
	const ratio = 3 // 48000 / 16000
	outLen := len(samples) / ratio
	out := make([]int16, outLen)
	for i := 0; i < outLen; i++ {
		sum := int32(samples[i*ratio]) + int32(samples[i*ratio+1]) + int32(samples[i*ratio+2])
		out[i] = int16(sum / ratio)
	}
	return out
}

func int16ToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}
