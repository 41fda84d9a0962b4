package langid

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"mtd/pkg/types"
)

func newTestDetector(opts ...Option) *Detector {
	return NewDetector([]string{"en", "es", "fr", "de"}, zerolog.Nop(), opts...)
}

func TestDetectTextSpanish(t *testing.T) {
	d := newTestDetector()
	res := d.DetectText("Hola, ¿cómo estás? Me llamo Juan y vivo en Madrid.")
	if res.DetectedLanguage != "es" {
		t.Fatalf("detected %q, want es (candidates %v)", res.DetectedLanguage, res.Candidates)
	}
	if res.Confidence < 0.3 {
		t.Errorf("confidence = %v, want >= 0.3", res.Confidence)
	}
	if res.Method != types.DetectText {
		t.Errorf("method = %q, want text", res.Method)
	}
	if len(res.Candidates) == 0 || res.Candidates[0].Language != "es" {
		t.Errorf("candidates not ranked with es first: %v", res.Candidates)
	}
}

func TestDetectTextEnglish(t *testing.T) {
	d := newTestDetector()
	res := d.DetectText("The quick brown fox jumps over the lazy dog and runs away.")
	if res.DetectedLanguage != "en" {
		t.Fatalf("detected %q, want en (candidates %v)", res.DetectedLanguage, res.Candidates)
	}
}

func TestDetectTextEmpty(t *testing.T) {
	d := newTestDetector()
	res := d.DetectText("")
	if res.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", res.Confidence)
	}
	if res.IsReliable {
		t.Error("empty input must not be reliable")
	}
}

func TestDetectTextTooShort(t *testing.T) {
	d := newTestDetector()
	res := d.DetectText("hi there")
	if res.Confidence != 0.1 {
		t.Errorf("confidence = %v, want 0.1", res.Confidence)
	}
	if res.IsReliable {
		t.Error("short input must not be reliable")
	}
	if res.DetectedLanguage != "en" {
		t.Errorf("short input should fall back to first supported language, got %q", res.DetectedLanguage)
	}
}

func TestDetectTextPunctuationOnly(t *testing.T) {
	d := newTestDetector()
	res := d.DetectText("?!... --- !!!")
	if res.Confidence != 0 || res.IsReliable {
		t.Errorf("punctuation-only input: confidence=%v reliable=%v", res.Confidence, res.IsReliable)
	}
}

func TestDetectAudioWithoutCallback(t *testing.T) {
	d := newTestDetector()
	res := d.DetectAudio([]float32{0.1, 0.2})
	if res.Method != types.DetectNoAudio {
		t.Errorf("method = %q, want no_audio", res.Method)
	}
	if res.IsReliable {
		t.Error("no-audio result must not be reliable")
	}
}

func TestDetectAudioCallbackError(t *testing.T) {
	d := newTestDetector(WithAudioFn(func([]float32) (map[string]float64, error) {
		return nil, errors.New("classifier offline")
	}))
	res := d.DetectAudio([]float32{0.1})
	if res.Method != types.DetectAudioError {
		t.Errorf("method = %q, want audio_error", res.Method)
	}
	if res.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", res.Confidence)
	}
}

func TestDetectAudioRanking(t *testing.T) {
	d := newTestDetector(WithAudioFn(func([]float32) (map[string]float64, error) {
		return map[string]float64{"de": 0.9, "en": 0.4}, nil
	}))
	res := d.DetectAudio([]float32{0.5})
	if res.DetectedLanguage != "de" || res.Confidence != 0.9 {
		t.Fatalf("got %q/%v, want de/0.9", res.DetectedLanguage, res.Confidence)
	}
	if !res.IsReliable {
		t.Error("0.9 should clear the default threshold")
	}
}

func TestDetectHybridAgreement(t *testing.T) {
	d := newTestDetector(WithAudioFn(func([]float32) (map[string]float64, error) {
		return map[string]float64{"es": 0.8}, nil
	}))
	res := d.Detect("Hola, ¿cómo estás? Me llamo Juan y vivo en Madrid.", []float32{0.5})
	if res.DetectedLanguage != "es" {
		t.Fatalf("detected %q, want es", res.DetectedLanguage)
	}
	if res.Method != types.DetectHybrid {
		t.Errorf("method = %q, agreement must not claim a preferred side", res.Method)
	}
}

func TestDetectHybridDisagreementAudioWins(t *testing.T) {
	d := newTestDetector(WithAudioFn(func([]float32) (map[string]float64, error) {
		return map[string]float64{"de": 0.95}, nil
	}))
	res := d.Detect("hi there okay yes", []float32{0.5})
	if res.DetectedLanguage != "de" {
		t.Fatalf("detected %q, want de", res.DetectedLanguage)
	}
	if res.Method != types.DetectHybridAudioPref {
		t.Errorf("method = %q, want hybrid_audio_preferred", res.Method)
	}
}

func TestDetectTextOnlyWhenNoAudio(t *testing.T) {
	d := newTestDetector(WithAudioFn(func([]float32) (map[string]float64, error) {
		t.Fatal("audio callback must not run without samples")
		return nil, nil
	}))
	res := d.Detect("The quick brown fox jumps over the lazy dog.", nil)
	if res.Method != types.DetectText {
		t.Errorf("method = %q, want text", res.Method)
	}
}

func TestFallbackLanguage(t *testing.T) {
	d := newTestDetector()
	if got := d.FallbackLanguage("pt"); got != "es" {
		t.Errorf("pt fallback = %q, want es", got)
	}
	if got := d.FallbackLanguage("nl"); got != "de" {
		t.Errorf("nl fallback = %q, want de", got)
	}
	if got := d.FallbackLanguage("ja"); got != "" {
		t.Errorf("ja fallback = %q, want empty", got)
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Hello, World!", "hello world"},
		{"  ¿Cómo?  ", "cómo"},
		{"a--b  c", "a b c"},
		{"", ""},
	}
	for _, c := range cases {
		if got := normalize(c.in); got != c.want {
			t.Errorf("normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
