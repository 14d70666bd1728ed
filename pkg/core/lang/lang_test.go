package lang

import (
	"testing"
)

func supportedSet(codes ...string) SupportFunc {
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return func(code string) bool {
		_, ok := set[code]
		return ok
	}
}

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry(nil)

	tests := []struct {
		name       string
		wantLocale string
		wantSynth  string
		wantCode   string
	}{
		{"Hindi", "hi-IN", "hi", "hi"},
		{"English", "en-IN", "en", "en"},
		{"Tamil", "ta-IN", "ta", "ta"},
		{"Assamese", "as-IN", "hi", "as"},
		{"Bhojpuri", "hi-IN", "hi", "bho"},
		{"Sanskrit", "sa-IN", "hi", "sa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := r.Resolve(tt.name)
			if p.Name != tt.name {
				t.Errorf("Name = %q, want %q", p.Name, tt.name)
			}
			if p.RecognitionLocale != tt.wantLocale {
				t.Errorf("RecognitionLocale = %q, want %q", p.RecognitionLocale, tt.wantLocale)
			}
			if p.SynthesisLanguage != tt.wantSynth {
				t.Errorf("SynthesisLanguage = %q, want %q", p.SynthesisLanguage, tt.wantSynth)
			}
			if p.TranslationCode != tt.wantCode {
				t.Errorf("TranslationCode = %q, want %q", p.TranslationCode, tt.wantCode)
			}
		})
	}
}

func TestRegistry_ResolveUnknownDefaultsToHindi(t *testing.T) {
	r := NewRegistry(nil)

	for _, name := range []string{"Klingon", "", "hindi", "HINDI "} {
		p := r.Resolve(name)
		if p != Default {
			t.Errorf("Resolve(%q) = %+v, want default profile", name, p)
		}
	}
}

func TestRegistry_ResolveIsPure(t *testing.T) {
	r := NewRegistry(nil)

	first := r.Resolve("Tamil")
	first.TranslationCode = "mutated"

	second := r.Resolve("Tamil")
	if second.TranslationCode != "ta" {
		t.Errorf("second Resolve returned mutated profile: %+v", second)
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry(nil)

	names := r.Names()
	if len(names) != 25 {
		t.Fatalf("len(Names()) = %d, want 25", len(names))
	}
	if names[0] != "Hindi" || names[1] != "English" {
		t.Errorf("Names()[:2] = %v, want [Hindi English]", names[:2])
	}
}

func TestRegistry_ApplyFallback(t *testing.T) {
	r := NewRegistry(supportedSet("hi", "en", "ta", "bn"))

	p, applied := r.ApplyFallback(r.Resolve("Bhojpuri"))
	if !applied {
		t.Fatal("fallback should apply for unsupported translation code")
	}
	if p.TranslationCode != "hi" {
		t.Errorf("TranslationCode = %q, want %q", p.TranslationCode, "hi")
	}
	if p.SynthesisLanguage != "hi" {
		t.Errorf("SynthesisLanguage = %q, want %q", p.SynthesisLanguage, "hi")
	}
	if p.RecognitionLocale != "hi-IN" {
		t.Errorf("RecognitionLocale = %q, want %q", p.RecognitionLocale, "hi-IN")
	}
}

func TestRegistry_ApplyFallbackKeepsRecognitionLocale(t *testing.T) {
	r := NewRegistry(supportedSet("hi", "en"))

	p, applied := r.ApplyFallback(r.Resolve("Sanskrit"))
	if !applied {
		t.Fatal("fallback should apply for Sanskrit with this support set")
	}
	if p.RecognitionLocale != "sa-IN" {
		t.Errorf("RecognitionLocale = %q, want %q", p.RecognitionLocale, "sa-IN")
	}
}

func TestRegistry_ApplyFallbackIdempotent(t *testing.T) {
	r := NewRegistry(supportedSet("hi", "en"))

	once, applied := r.ApplyFallback(r.Resolve("Konkani"))
	if !applied {
		t.Fatal("first application should report true")
	}

	twice, applied := r.ApplyFallback(once)
	if applied {
		t.Error("second application should report false")
	}
	if twice != once {
		t.Errorf("second application changed profile: %+v != %+v", twice, once)
	}
}

func TestRegistry_ApplyFallbackSupportedUntouched(t *testing.T) {
	r := NewRegistry(supportedSet("hi", "en", "ta"))

	orig := r.Resolve("Tamil")
	p, applied := r.ApplyFallback(orig)
	if applied {
		t.Error("fallback should not apply for a supported code")
	}
	if p != orig {
		t.Errorf("profile changed: %+v != %+v", p, orig)
	}
}

func TestRegistry_NilSupportAcceptsEverything(t *testing.T) {
	r := NewRegistry(nil)

	for _, p := range r.Profiles() {
		if _, applied := r.ApplyFallback(p); applied {
			t.Errorf("fallback applied for %s with nil support func", p.Name)
		}
	}
}
