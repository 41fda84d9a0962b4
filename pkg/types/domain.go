package types

import (
	"fmt"
	"regexp"
	"strings"
)

var langCodeRe = regexp.MustCompile(`^[a-z]{2,3}$`)

// LanguagePair is an ordered (source, target) pair of language codes.
// Both codes are lowercase ISO-639 two or three letter codes and must differ.
type LanguagePair struct {
	// Source language code.
	// example: en
	Src string `json:"src" example:"en"`
	// Target language code.
	// example: es
	Tgt string `json:"tgt" example:"es"`
}

// NewLanguagePair builds a validated pair from raw codes.
func NewLanguagePair(src, tgt string) (LanguagePair, error) {
	src = strings.ToLower(strings.TrimSpace(src))
	tgt = strings.ToLower(strings.TrimSpace(tgt))
	if !langCodeRe.MatchString(src) {
		return LanguagePair{}, fmt.Errorf("invalid source language code: %q", src)
	}
	if !langCodeRe.MatchString(tgt) {
		return LanguagePair{}, fmt.Errorf("invalid target language code: %q", tgt)
	}
	if src == tgt {
		return LanguagePair{}, fmt.Errorf("source and target languages are equal: %q", src)
	}
	return LanguagePair{Src: src, Tgt: tgt}, nil
}

// Key returns the canonical map key, "src->tgt".
func (p LanguagePair) Key() string { return p.Src + "->" + p.Tgt }

// Dir returns the on-disk model directory name, "src-tgt".
func (p LanguagePair) Dir() string { return p.Src + "-" + p.Tgt }

// Reverse returns the opposite direction.
func (p LanguagePair) Reverse() LanguagePair { return LanguagePair{Src: p.Tgt, Tgt: p.Src} }

func (p LanguagePair) String() string { return p.Key() }

// IsLanguageCode reports whether s is a well-formed lowercase language code.
func IsLanguageCode(s string) bool { return langCodeRe.MatchString(s) }

// QualityLevel buckets an overall quality score.
type QualityLevel string

const (
	QualityHigh   QualityLevel = "high"
	QualityMedium QualityLevel = "medium"
	QualityLow    QualityLevel = "low"
)

// QualityMetrics is the multi-metric assessment of one translation.
// All scores are in [0,1].
type QualityMetrics struct {
	Overall         float64      `json:"overall" example:"0.82"`
	Fluency         float64      `json:"fluency" example:"0.9"`
	Adequacy        float64      `json:"adequacy" example:"0.8"`
	Consistency     float64      `json:"consistency" example:"0.95"`
	WordConfidences []float64    `json:"word_confidences,omitempty"`
	Level           QualityLevel `json:"level" example:"high"`
	Issues          []string     `json:"issues,omitempty"`
}

// Alternative is one ranked candidate translation.
type Alternative struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence" example:"0.7"`
	Rank       int     `json:"rank" example:"1"`
}

// DetectionMethod tags how a language detection result was produced.
type DetectionMethod string

const (
	DetectText            DetectionMethod = "text"
	DetectAudio           DetectionMethod = "audio"
	DetectHybrid          DetectionMethod = "hybrid"
	DetectHybridTextPref  DetectionMethod = "hybrid_text_preferred"
	DetectHybridAudioPref DetectionMethod = "hybrid_audio_preferred"
	DetectFallback        DetectionMethod = "fallback"
	DetectNoAudio         DetectionMethod = "no_audio"
	DetectAudioError      DetectionMethod = "audio_error"
)

// LanguageCandidate is one (language, score) entry of a detection ranking.
type LanguageCandidate struct {
	Language string  `json:"language" example:"es"`
	Score    float64 `json:"score" example:"0.64"`
}

// LanguageDetectionResult is returned by the language detector.
type LanguageDetectionResult struct {
	DetectedLanguage string              `json:"detected_language" example:"es"`
	Confidence       float64             `json:"confidence" example:"0.74"`
	Candidates       []LanguageCandidate `json:"candidates,omitempty"`
	IsReliable       bool                `json:"is_reliable" example:"true"`
	Method           DetectionMethod     `json:"method" example:"text"`
}

// Placement says where a model's weights live.
type Placement string

const (
	PlacementGPU Placement = "gpu"
	PlacementCPU Placement = "cpu"
)

// Quantization is the numeric precision used by inference.
type Quantization string

const (
	QuantFP32 Quantization = "fp32"
	QuantFP16 Quantization = "fp16"
	QuantINT8 Quantization = "int8"
)
