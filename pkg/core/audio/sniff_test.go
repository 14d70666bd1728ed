package audio

import (
	"testing"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"ogg", []byte("OggS\x00rest of page"), FormatOgg},
		{"webm", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x01, 0x02}, FormatWebM},
		{"wav", EncodeWAV([]byte{0, 0, 0, 0}, 16000, 1), FormatWAV},
		{"riff_not_wave", []byte("RIFF\x00\x00\x00\x00AVI LIST"), FormatUnknown},
		{"mp3", []byte{0xFF, 0xFB, 0x90, 0x00}, FormatUnknown},
		{"empty", nil, FormatUnknown},
		{"short", []byte("Og"), FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormat(tt.data); got != tt.want {
				t.Errorf("DetectFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}
