// Package quality scores translations on fluency, adequacy and consistency,
// synthesizes word-level confidences, and produces alternative renderings
// when the primary output falls short. The heuristics are deliberately
// lexical; callers swap in a model-backed Scorer without touching the
// public surface.
package quality

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"mtd/internal/config"
	"mtd/pkg/types"
)

// Scorer assesses one (source, translation) pair. Assessor is the lexical
// implementation; tests and future model-backed scorers provide their own.
type Scorer interface {
	Assess(source, translation, srcLang, tgtLang string, modelScores []float64) types.QualityMetrics
}

// Thresholds bucket an overall score into a level. Invariant:
// 1 >= High > Medium > Low > 0.
type Thresholds struct {
	High   float64
	Medium float64
	Low    float64
}

// DefaultThresholds mirror the configuration defaults.
var DefaultThresholds = Thresholds{High: 0.8, Medium: 0.6, Low: 0.4}

// Assessor scores translations with lexical heuristics. Immutable after
// construction and safe for concurrent use.
type Assessor struct {
	thr Thresholds
	log zerolog.Logger
}

// NewAssessor builds an assessor from the quality section of the config.
func NewAssessor(cfg config.QualityConfig, log zerolog.Logger) *Assessor {
	thr := Thresholds{High: cfg.High, Medium: cfg.Medium, Low: cfg.Low}
	if !(thr.High > thr.Medium && thr.Medium > thr.Low && thr.Low > 0 && thr.High <= 1) {
		thr = DefaultThresholds
	}
	return &Assessor{thr: thr, log: log.With().Str("component", "quality").Logger()}
}

// Level buckets an overall score by the configured thresholds.
func (a *Assessor) Level(overall float64) types.QualityLevel {
	switch {
	case overall >= a.thr.High:
		return types.QualityHigh
	case overall >= a.thr.Medium:
		return types.QualityMedium
	default:
		return types.QualityLow
	}
}

// Thresholds returns the active level thresholds.
func (a *Assessor) Thresholds() Thresholds { return a.thr }

// Assess produces the full metric set for one translation. modelScores are
// per-token log-probabilities already mapped to [0,1]; pass nil when the
// backend did not report any.
func (a *Assessor) Assess(source, translation, srcLang, tgtLang string, modelScores []float64) types.QualityMetrics {
	var issues []string

	fluency, flIssues := fluencyScore(translation)
	issues = append(issues, flIssues...)

	adequacy, adIssues := adequacyScore(source, translation)
	issues = append(issues, adIssues...)

	consistency, coIssues := consistencyScore(translation, tgtLang)
	issues = append(issues, coIssues...)

	tokens := strings.Fields(translation)
	wordConf := wordConfidences(tokens, modelScores)

	overall := overallScore(source, translation, wordConf, modelScores)

	if fluency < a.thr.Low {
		issues = appendIssue(issues, "low-fluency")
	}
	if adequacy < a.thr.Low {
		issues = appendIssue(issues, "low-adequacy")
	}
	if consistency < a.thr.Low {
		issues = appendIssue(issues, "low-consistency")
	}

	return types.QualityMetrics{
		Overall:         overall,
		Fluency:         fluency,
		Adequacy:        adequacy,
		Consistency:     consistency,
		WordConfidences: wordConf,
		Level:           a.Level(overall),
		Issues:          issues,
	}
}

// fluencyScore penalizes structural defects of the target text.
func fluencyScore(translation string) (float64, []string) {
	var issues []string
	score := 1.0
	trimmed := strings.TrimSpace(translation)

	if len(trimmed) > 20 && !strings.ContainsAny(trimmed[len(trimmed)-1:], ".!?") {
		score -= 0.15
	}
	if hasRepeatedBigram(trimmed) {
		score -= 0.3
		issues = appendIssue(issues, "repetition")
	}
	if len([]rune(trimmed)) < 3 {
		score -= 0.4
	}
	if charDiversity(trimmed) < 0.3 {
		score -= 0.2
	}
	return clamp01(score), issues
}

// adequacyScore compares the translation against the source by length and
// lexical overlap.
func adequacyScore(source, translation string) (float64, []string) {
	var issues []string
	score := 1.0
	srcLen := len([]rune(strings.TrimSpace(source)))
	tgtLen := len([]rune(strings.TrimSpace(translation)))

	if srcLen > 0 {
		ratio := float64(tgtLen) / float64(srcLen)
		if ratio < 0.3 || ratio > 3.0 {
			score -= 0.3
			issues = appendIssue(issues, "extreme length")
		}
	}
	if incomplete(source, translation) {
		score -= 0.3
		issues = appendIssue(issues, "incomplete")
	}

	score = 0.7*score + 0.3*jaccard(source, translation)
	return clamp01(score), issues
}

// consistencyScore checks for script mixing and erratic casing.
func consistencyScore(translation, tgtLang string) (float64, []string) {
	var issues []string
	score := 1.0
	trimmed := strings.TrimSpace(translation)
	if trimmed == "" {
		return 0, issues
	}

	if asciiTarget(tgtLang) {
		nonASCII := 0
		total := 0
		for _, r := range trimmed {
			if unicode.IsLetter(r) {
				total++
				if r > unicode.MaxASCII {
					nonASCII++
				}
			}
		}
		if total > 0 && float64(nonASCII)/float64(total) > 0.3 {
			score -= 0.4
			issues = appendIssue(issues, "language mixing")
		}
	}
	if hasRepeatedBigram(trimmed) {
		score -= 0.2
		issues = appendIssue(issues, "repetition")
	}

	upper, letters := 0, 0
	for _, r := range trimmed {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters > 10 {
		frac := float64(upper) / float64(letters)
		if frac > 0.5 || (frac == 0 && letters > 20) {
			score -= 0.2
		}
	}
	return clamp01(score), issues
}

// wordConfidences uses the backend scores when they line up with the token
// count, otherwise synthesizes per-token confidences from surface features.
func wordConfidences(tokens []string, modelScores []float64) []float64 {
	if len(modelScores) == len(tokens) && len(tokens) > 0 {
		out := make([]float64, len(modelScores))
		for i, s := range modelScores {
			out[i] = clamp01(s)
		}
		return out
	}
	out := make([]float64, len(tokens))
	for i, tok := range tokens {
		conf := 0.8
		n := len([]rune(tok))
		if n <= 2 {
			conf -= 0.1
		}
		if n > 12 {
			conf -= 0.15
		}
		if strings.ContainsFunc(tok, unicode.IsDigit) {
			conf -= 0.1
		}
		if strings.ContainsFunc(tok, unicode.IsPunct) {
			conf -= 0.05
		}
		out[i] = clamp01(conf)
	}
	return out
}

// overallScore is the convex combination of model evidence and surface
// statistics. Without model scores their weight is redistributed evenly.
func overallScore(source, translation string, wordConf, modelScores []float64) float64 {
	lengthScore := 1.0
	srcLen := len([]rune(strings.TrimSpace(source)))
	tgtLen := len([]rune(strings.TrimSpace(translation)))
	if srcLen > 0 {
		ratio := float64(tgtLen) / float64(srcLen)
		lengthScore = clamp01(1 - math.Abs(math.Log(math.Max(ratio, 1e-9)))/2)
	} else if tgtLen == 0 {
		lengthScore = 0
	}

	diversity := charDiversity(translation)

	completeness := 1.0
	if incomplete(source, translation) {
		completeness = 0.4
	}

	if len(modelScores) > 0 {
		return clamp01(0.4*mean(wordConf) + 0.2*lengthScore + 0.2*diversity + 0.2*completeness)
	}
	return clamp01((lengthScore + diversity + completeness) / 3)
}

// incomplete reports a translation that is cut short relative to its source
// or that trails off mid-word.
func incomplete(source, translation string) bool {
	srcLen := len([]rune(strings.TrimSpace(source)))
	trimmed := strings.TrimSpace(translation)
	tgtLen := len([]rune(trimmed))
	if srcLen > 20 && float64(tgtLen) < 0.2*float64(srcLen) {
		return true
	}
	return strings.HasSuffix(trimmed, "-") || strings.HasSuffix(trimmed, "...")
}

func hasRepeatedBigram(text string) bool {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) < 4 {
		return false
	}
	seen := make(map[string]bool, len(tokens))
	for i := 0; i+1 < len(tokens); i++ {
		key := tokens[i] + " " + tokens[i+1]
		if seen[key] {
			return true
		}
		seen[key] = true
	}
	return false
}

func charDiversity(text string) float64 {
	counts := make(map[rune]bool)
	total := 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			counts[unicode.ToLower(r)] = true
			total++
		}
	}
	if total == 0 {
		return 0
	}
	// Saturates around 12 distinct letters so normal sentences score 1.
	return clamp01(float64(len(counts)) / math.Min(float64(total), 12))
}

func jaccard(a, b string) float64 {
	as := tokenSet(a)
	bs := tokenSet(b)
	if len(as) == 0 || len(bs) == 0 {
		return 0
	}
	inter := 0
	for t := range as {
		if bs[t] {
			inter++
		}
	}
	union := len(as) + len(bs) - inter
	return float64(inter) / float64(union)
}

func tokenSet(text string) map[string]bool {
	m := make(map[string]bool)
	for _, t := range strings.Fields(strings.ToLower(text)) {
		m[strings.Trim(t, ".,;:!?¿¡\"'")] = true
	}
	delete(m, "")
	return m
}

// asciiTarget reports languages whose orthography is ASCII apart from
// occasional diacritics.
func asciiTarget(lang string) bool {
	switch lang {
	case "en":
		return true
	default:
		return false
	}
}

func appendIssue(issues []string, issue string) []string {
	for _, v := range issues {
		if v == issue {
			return issues
		}
	}
	return append(issues, issue)
}

func mean(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
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

// sortAlternatives orders candidates by confidence descending and assigns
// ranks starting at 1.
func sortAlternatives(alts []types.Alternative) {
	sort.SliceStable(alts, func(i, j int) bool {
		return alts[i].Confidence > alts[j].Confidence
	})
	for i := range alts {
		alts[i].Rank = i + 1
	}
}
