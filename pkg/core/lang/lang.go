// Package lang maps human-readable language names to the per-stage
// codes the relay pipeline needs: a recognition locale, a synthesis
// language tag and a translation code.
package lang

// Profile carries the per-stage codes for one language.
type Profile struct {
	Name              string `json:"name"`
	RecognitionLocale string `json:"recognition_locale"`
	SynthesisLanguage string `json:"synthesis_language"`
	TranslationCode   string `json:"translation_code"`
}

// Default is the profile every unknown language name resolves to.
var Default = Profile{
	Name:              "Hindi",
	RecognitionLocale: "hi-IN",
	SynthesisLanguage: "hi",
	TranslationCode:   "hi",
}

// profiles lists every language the relay serves, in presentation
// order. Several regional languages ride on Hindi recognition and
// synthesis because no dedicated engine supports them; their
// translation codes remain their own.
var profiles = []Profile{
	{Name: "Hindi", RecognitionLocale: "hi-IN", SynthesisLanguage: "hi", TranslationCode: "hi"},
	{Name: "English", RecognitionLocale: "en-IN", SynthesisLanguage: "en", TranslationCode: "en"},
	{Name: "Tamil", RecognitionLocale: "ta-IN", SynthesisLanguage: "ta", TranslationCode: "ta"},
	{Name: "Telugu", RecognitionLocale: "te-IN", SynthesisLanguage: "te", TranslationCode: "te"},
	{Name: "Bengali", RecognitionLocale: "bn-IN", SynthesisLanguage: "bn", TranslationCode: "bn"},
	{Name: "Urdu", RecognitionLocale: "ur-IN", SynthesisLanguage: "ur", TranslationCode: "ur"},
	{Name: "Marathi", RecognitionLocale: "mr-IN", SynthesisLanguage: "mr", TranslationCode: "mr"},
	{Name: "Gujarati", RecognitionLocale: "gu-IN", SynthesisLanguage: "gu", TranslationCode: "gu"},
	{Name: "Kannada", RecognitionLocale: "kn-IN", SynthesisLanguage: "kn", TranslationCode: "kn"},
	{Name: "Malayalam", RecognitionLocale: "ml-IN", SynthesisLanguage: "ml", TranslationCode: "ml"},
	{Name: "Punjabi", RecognitionLocale: "pa-IN", SynthesisLanguage: "pa", TranslationCode: "pa"},
	{Name: "Assamese", RecognitionLocale: "as-IN", SynthesisLanguage: "hi", TranslationCode: "as"},
	{Name: "Odia", RecognitionLocale: "or-IN", SynthesisLanguage: "hi", TranslationCode: "or"},
	{Name: "Bhojpuri", RecognitionLocale: "hi-IN", SynthesisLanguage: "hi", TranslationCode: "bho"},
	{Name: "Maithili", RecognitionLocale: "hi-IN", SynthesisLanguage: "hi", TranslationCode: "mai"},
	{Name: "Chhattisgarhi", RecognitionLocale: "hi-IN", SynthesisLanguage: "hi", TranslationCode: "hne"},
	{Name: "Rajasthani", RecognitionLocale: "hi-IN", SynthesisLanguage: "hi", TranslationCode: "raj"},
	{Name: "Konkani", RecognitionLocale: "hi-IN", SynthesisLanguage: "hi", TranslationCode: "kok"},
	{Name: "Dogri", RecognitionLocale: "hi-IN", SynthesisLanguage: "hi", TranslationCode: "doi"},
	{Name: "Kashmiri", RecognitionLocale: "hi-IN", SynthesisLanguage: "hi", TranslationCode: "ks"},
	{Name: "Santhali", RecognitionLocale: "hi-IN", SynthesisLanguage: "hi", TranslationCode: "sat"},
	{Name: "Sindhi", RecognitionLocale: "hi-IN", SynthesisLanguage: "hi", TranslationCode: "sd"},
	{Name: "Manipuri", RecognitionLocale: "hi-IN", SynthesisLanguage: "hi", TranslationCode: "mni"},
	{Name: "Bodo", RecognitionLocale: "hi-IN", SynthesisLanguage: "hi", TranslationCode: "brx"},
	{Name: "Sanskrit", RecognitionLocale: "sa-IN", SynthesisLanguage: "hi", TranslationCode: "sa"},
}

// SupportFunc reports whether the translation service accepts a code.
type SupportFunc func(code string) bool

// Registry resolves display names to profiles and applies the Hindi
// fallback for codes the configured translation service rejects.
type Registry struct {
	byName    map[string]Profile
	names     []string
	supported SupportFunc
}

// NewRegistry builds a registry over the fixed language table. A nil
// supported func treats every code as accepted.
func NewRegistry(supported SupportFunc) *Registry {
	if supported == nil {
		supported = func(string) bool { return true }
	}
	r := &Registry{
		byName:    make(map[string]Profile, len(profiles)),
		names:     make([]string, 0, len(profiles)),
		supported: supported,
	}
	for _, p := range profiles {
		r.byName[p.Name] = p
		r.names = append(r.names, p.Name)
	}
	return r
}

// Resolve returns the profile for name. Unknown names resolve to the
// default profile; Resolve never fails.
func (r *Registry) Resolve(name string) Profile {
	if p, ok := r.byName[name]; ok {
		return p
	}
	return Default
}

// Known reports whether name is in the language table.
func (r *Registry) Known(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Names returns the display names in table order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Profiles returns every profile in table order.
func (r *Registry) Profiles() []Profile {
	out := make([]Profile, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.byName[name])
	}
	return out
}

// Supported reports whether the translation service accepts code.
func (r *Registry) Supported(code string) bool {
	return r.supported(code)
}

// ApplyFallback returns p unchanged when the translation service
// accepts its translation code. Otherwise it returns a copy with the
// translation code and synthesis language replaced by the default's
// and reports true. The recognition locale is never rewritten, so a
// fallen-back profile still recognizes speech in its own language.
// Applying the fallback to an already fallen-back profile is a no-op.
func (r *Registry) ApplyFallback(p Profile) (Profile, bool) {
	if r.supported(p.TranslationCode) {
		return p, false
	}
	p.TranslationCode = Default.TranslationCode
	p.SynthesisLanguage = Default.SynthesisLanguage
	return p, true
}
