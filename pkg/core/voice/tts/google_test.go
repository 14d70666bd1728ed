package tts

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/samvaad-live/samvaad/pkg/core"
)

func TestGoogleProvider_Synthesize(t *testing.T) {
	var gotTL, gotQ, gotClient string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTL = r.URL.Query().Get("tl")
		gotQ = r.URL.Query().Get("q")
		gotClient = r.URL.Query().Get("client")
		w.Write([]byte("MP3DATA"))
	}))
	defer srv.Close()

	p := NewGoogleWithClient(srv.Client()).WithBaseURL(srv.URL)

	audio, err := p.Synthesize(context.Background(), "नमस्ते", "hi")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !bytes.Equal(audio, []byte("MP3DATA")) {
		t.Errorf("audio = %q", audio)
	}
	if gotTL != "hi" || gotQ != "नमस्ते" || gotClient != "tw-ob" {
		t.Errorf("tl=%q q=%q client=%q", gotTL, gotQ, gotClient)
	}
}

func TestGoogleProvider_ChunksLongText(t *testing.T) {
	var chunks []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chunks = append(chunks, r.URL.Query().Get("q"))
		w.Write([]byte("X"))
	}))
	defer srv.Close()

	p := NewGoogleWithClient(srv.Client()).WithBaseURL(srv.URL)

	long := strings.Repeat("one two three four five. ", 12) // ~300 runes
	audio, err := p.Synthesize(context.Background(), long, "en")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("requests = %d, want several chunks", len(chunks))
	}
	if len(audio) != len(chunks) {
		t.Errorf("audio bytes = %d, want one per chunk", len(audio))
	}
	for _, c := range chunks {
		if n := len([]rune(c)); n > googleTTSMaxChunk {
			t.Errorf("chunk of %d runes exceeds %d", n, googleTTSMaxChunk)
		}
	}
}

func TestGoogleProvider_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	p := NewGoogleWithClient(srv.Client()).WithBaseURL(srv.URL)

	_, err := p.Synthesize(context.Background(), "hello", "en")
	if !core.IsType(err, core.ErrSynthesis) {
		t.Fatalf("err = %v, want synthesis error", err)
	}
}

func TestGoogleProvider_EmptyText(t *testing.T) {
	p := NewGoogle()

	_, err := p.Synthesize(context.Background(), "   ", "hi")
	if !core.IsType(err, core.ErrSynthesis) {
		t.Fatalf("err = %v, want synthesis error", err)
	}
}

func TestSplitTTSChunks(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want []string
	}{
		{"short", "hello world", 100, []string{"hello world"}},
		{"empty", "   ", 100, nil},
		{"punctuation_break", "first part. second part", 12, []string{"first part.", "second part"}},
		{"space_break", "alpha beta gamma", 11, []string{"alpha beta", "gamma"}},
		{"hard_cut", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitTTSChunks(tt.text, tt.max)
			if len(got) != len(tt.want) {
				t.Fatalf("chunks = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
