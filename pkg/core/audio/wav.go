package audio

import (
	"encoding/binary"
	"fmt"
)

// EncodeWAV frames raw s16le PCM as a RIFF/WAV file.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	const headerSize = 44
	out := make([]byte, headerSize+len(pcm))

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	byteRate := sampleRate * channels * 2
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	blockAlign := channels * 2
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], 16) // bits per sample

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[44:], pcm)

	return out
}

// DecodeWAV parses a RIFF/WAV file into a Clip. Only uncompressed
// 16-bit PCM is accepted. Streamed WAV files that carry placeholder
// chunk sizes (ffmpeg writing to a pipe) are tolerated: an oversized
// or absent data length is clamped to the bytes actually present.
func DecodeWAV(b []byte) (*Clip, error) {
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a wav file")
	}

	var (
		sampleRate int
		channels   int
		bits       int
		haveFmt    bool
	)

	off := 12
	for off+8 <= len(b) {
		id := string(b[off : off+4])
		size := int(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		body := off + 8

		switch id {
		case "fmt ":
			if body+16 > len(b) {
				return nil, fmt.Errorf("wav fmt chunk truncated")
			}
			format := binary.LittleEndian.Uint16(b[body : body+2])
			if format != 1 {
				return nil, fmt.Errorf("unsupported wav format %d", format)
			}
			channels = int(binary.LittleEndian.Uint16(b[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(b[body+4 : body+8]))
			bits = int(binary.LittleEndian.Uint16(b[body+14 : body+16]))
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, fmt.Errorf("wav data chunk precedes fmt chunk")
			}
			if bits != 16 {
				return nil, fmt.Errorf("unsupported wav bit depth %d", bits)
			}
			end := body + size
			if size < 0 || end > len(b) || end < body {
				end = len(b)
			}
			pcm := make([]byte, end-body)
			copy(pcm, b[body:end])
			return &Clip{PCM: pcm, SampleRate: sampleRate, Channels: channels}, nil
		}

		if size < 0 {
			break
		}
		// Chunks are word-aligned.
		off = body + size + size%2
	}

	return nil, fmt.Errorf("wav data chunk missing")
}
