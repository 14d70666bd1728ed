package audio

import "bytes"

// Format identifies a container by its leading magic bytes.
type Format string

const (
	FormatOgg     Format = "ogg"
	FormatWebM    Format = "webm"
	FormatWAV     Format = "wav"
	FormatUnknown Format = "unknown"
)

var (
	magicOggS = []byte("OggS")
	magicEBML = []byte{0x1A, 0x45, 0xDF, 0xA3}
	magicRIFF = []byte("RIFF")
	magicWAVE = []byte("WAVE")
)

// DetectFormat sniffs the container format from the first bytes of b.
func DetectFormat(b []byte) Format {
	switch {
	case bytes.HasPrefix(b, magicOggS):
		return FormatOgg
	case bytes.HasPrefix(b, magicEBML):
		return FormatWebM
	case len(b) >= 12 && bytes.HasPrefix(b, magicRIFF) && bytes.Equal(b[8:12], magicWAVE):
		return FormatWAV
	default:
		return FormatUnknown
	}
}
