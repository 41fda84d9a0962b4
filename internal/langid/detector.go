// Package langid identifies the language of text and audio inputs using
// lightweight statistical profiles. It has no model dependencies so it can
// run before any translation model is loaded.
package langid

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"mtd/pkg/types"
)

// AudioFn scores audio samples against the supported languages. It returns
// per-language confidences in [0,1]. Implementations typically delegate to
// an acoustic model owned by the speech front end.
type AudioFn func(samples []float32) (map[string]float64, error)

const (
	// minTextLen is the normalized length below which text detection is
	// statistically meaningless.
	minTextLen = 10

	defaultThreshold = 0.7

	weightChar   = 0.3
	weightCommon = 0.4
	weightNgram  = 0.3
)

// Detector scores text against built-in language profiles and optionally
// consults an audio classifier. Safe for concurrent use; all state is
// immutable after construction.
type Detector struct {
	supported []string
	profiles  map[string]*profile
	threshold float64
	audioFn   AudioFn
	fallbacks map[string]string
	log       zerolog.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithThreshold overrides the reliability threshold.
func WithThreshold(t float64) Option {
	return func(d *Detector) {
		if t > 0 && t <= 1 {
			d.threshold = t
		}
	}
}

// WithAudioFn installs the audio classification callback.
func WithAudioFn(fn AudioFn) Option {
	return func(d *Detector) { d.audioFn = fn }
}

// WithFallbacks replaces the unsupported-language substitution map.
func WithFallbacks(m map[string]string) Option {
	return func(d *Detector) { d.fallbacks = m }
}

// NewDetector builds a detector restricted to the given supported languages.
// Languages without a built-in profile still participate in audio detection
// but score zero on text.
func NewDetector(supported []string, log zerolog.Logger, opts ...Option) *Detector {
	d := &Detector{
		supported: append([]string(nil), supported...),
		profiles:  builtinProfiles,
		threshold: defaultThreshold,
		fallbacks: defaultFallbacks,
		log:       log.With().Str("component", "langid").Logger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Supported reports the language codes this detector ranks.
func (d *Detector) Supported() []string {
	return append([]string(nil), d.supported...)
}

// FallbackLanguage returns a supported substitute for an unsupported code,
// or "" when none applies.
func (d *Detector) FallbackLanguage(code string) string {
	sub, ok := d.fallbacks[strings.ToLower(code)]
	if !ok {
		return ""
	}
	for _, s := range d.supported {
		if s == sub {
			return sub
		}
	}
	return ""
}

// DetectText identifies the language of text. Inputs shorter than ten
// normalized characters are reported as unreliable rather than guessed at.
func (d *Detector) DetectText(text string) types.LanguageDetectionResult {
	norm := normalize(text)
	if norm == "" {
		return types.LanguageDetectionResult{
			DetectedLanguage: d.firstSupported(),
			Confidence:       0,
			Method:           types.DetectText,
			IsReliable:       false,
		}
	}
	if len([]rune(norm)) < minTextLen {
		return types.LanguageDetectionResult{
			DetectedLanguage: d.firstSupported(),
			Confidence:       0.1,
			Method:           types.DetectText,
			IsReliable:       false,
		}
	}

	cands := make([]types.LanguageCandidate, 0, len(d.supported))
	for _, lang := range d.supported {
		p := d.profiles[lang]
		if p == nil {
			continue
		}
		score := weightChar*charScore(norm, p) +
			weightCommon*commonWordScore(norm, p) +
			weightNgram*ngramScore(norm, p)
		cands = append(cands, types.LanguageCandidate{Language: lang, Score: score})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score > cands[j].Score
	})

	res := types.LanguageDetectionResult{
		DetectedLanguage: d.firstSupported(),
		Confidence:       0,
		Method:           types.DetectText,
		Candidates:       cands,
	}
	if len(cands) > 0 {
		res.DetectedLanguage = cands[0].Language
		res.Confidence = cands[0].Score
	}
	res.IsReliable = res.Confidence >= d.threshold
	return res
}

// DetectAudio identifies the language from raw audio samples via the
// configured callback. Without a callback the result carries the no_audio
// method so the caller can tell the path was skipped, not failed.
func (d *Detector) DetectAudio(samples []float32) types.LanguageDetectionResult {
	if d.audioFn == nil || len(samples) == 0 {
		return types.LanguageDetectionResult{
			DetectedLanguage: d.firstSupported(),
			Confidence:       0,
			Method:           types.DetectNoAudio,
			IsReliable:       false,
		}
	}
	scores, err := d.audioFn(samples)
	if err != nil {
		d.log.Warn().Err(err).Msg("audio language classification failed")
		return types.LanguageDetectionResult{
			DetectedLanguage: d.firstSupported(),
			Confidence:       0,
			Method:           types.DetectAudioError,
			IsReliable:       false,
		}
	}

	cands := make([]types.LanguageCandidate, 0, len(scores))
	for _, lang := range d.supported {
		if conf, ok := scores[lang]; ok {
			cands = append(cands, types.LanguageCandidate{Language: lang, Score: clamp01(conf)})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score > cands[j].Score
	})

	res := types.LanguageDetectionResult{
		DetectedLanguage: d.firstSupported(),
		Confidence:       0,
		Method:           types.DetectAudio,
		Candidates:       cands,
	}
	if len(cands) > 0 {
		res.DetectedLanguage = cands[0].Language
		res.Confidence = cands[0].Score
	}
	res.IsReliable = res.Confidence >= d.threshold
	return res
}

// Detect combines the text and audio paths. When both agree the confidences
// are averaged under the plain hybrid method; when they disagree the
// higher-confidence result wins and the method records which side was
// preferred.
func (d *Detector) Detect(text string, samples []float32) types.LanguageDetectionResult {
	tr := d.DetectText(text)
	if len(samples) == 0 && d.audioFn == nil {
		return tr
	}
	ar := d.DetectAudio(samples)
	if ar.Method == types.DetectNoAudio || ar.Method == types.DetectAudioError {
		return tr
	}

	if tr.DetectedLanguage == ar.DetectedLanguage {
		merged := types.LanguageDetectionResult{
			DetectedLanguage: tr.DetectedLanguage,
			Confidence:       (tr.Confidence + ar.Confidence) / 2,
			Method:           types.DetectHybrid,
			Candidates:       mergeCandidates(tr.Candidates, ar.Candidates),
		}
		merged.IsReliable = merged.Confidence >= d.threshold
		return merged
	}

	if tr.Confidence >= ar.Confidence {
		tr.Method = types.DetectHybridTextPref
		tr.Candidates = mergeCandidates(tr.Candidates, ar.Candidates)
		return tr
	}
	ar.Method = types.DetectHybridAudioPref
	ar.Candidates = mergeCandidates(ar.Candidates, tr.Candidates)
	return ar
}

func (d *Detector) firstSupported() string {
	if len(d.supported) == 0 {
		return ""
	}
	return d.supported[0]
}

// mergeCandidates averages the two candidate lists with equal weight and
// re-ranks. Languages present in only one list keep half their score.
func mergeCandidates(a, b []types.LanguageCandidate) []types.LanguageCandidate {
	acc := make(map[string]float64, len(a)+len(b))
	for _, c := range a {
		acc[c.Language] += 0.5 * c.Score
	}
	for _, c := range b {
		acc[c.Language] += 0.5 * c.Score
	}
	out := make([]types.LanguageCandidate, 0, len(acc))
	for lang, conf := range acc {
		out = append(out, types.LanguageCandidate{Language: lang, Score: conf})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Language < out[j].Language
	})
	return out
}

// normalize lowercases letters and digits and collapses everything else to
// single spaces, so punctuation never skews the statistics.
func normalize(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	space := true
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToLower(r))
			space = false
			continue
		}
		if !space {
			sb.WriteRune(' ')
			space = true
		}
	}
	return strings.TrimSpace(sb.String())
}

// charScore compares the observed letter distribution against the profile
// using a chi-squared statistic mapped into (0,1].
func charScore(norm string, p *profile) float64 {
	counts := make(map[rune]int)
	total := 0
	for _, r := range norm {
		if unicode.IsLetter(r) {
			counts[r]++
			total++
		}
	}
	if total == 0 {
		return 0
	}
	chi := 0.0
	for r, expected := range p.charFreq {
		observed := float64(counts[r]) / float64(total)
		diff := observed - expected
		chi += diff * diff / expected
	}
	return math.Exp(-chi / 10)
}

// commonWordScore is the fraction of tokens found in the profile's
// common-word set.
func commonWordScore(norm string, p *profile) float64 {
	tokens := strings.Fields(norm)
	if len(tokens) == 0 {
		return 0
	}
	hits := 0
	for _, t := range tokens {
		if p.common[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}

// ngramScore averages the profile weights of the text's bigrams and
// trigrams, counting trigram evidence half again as strong.
func ngramScore(norm string, p *profile) float64 {
	var sum, n float64
	for _, tok := range strings.Fields(norm) {
		runes := []rune(tok)
		for i := 0; i+2 <= len(runes); i++ {
			sum += p.bigrams[string(runes[i:i+2])]
			n++
		}
		for i := 0; i+3 <= len(runes); i++ {
			sum += 1.5 * p.trigrams[string(runes[i:i+3])]
			n += 1.5
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
