package gpu

import (
	"strings"

	"mtd/pkg/types"
)

// QuantPlan is the outcome of precision planning for one model load.
type QuantPlan struct {
	Level Quantization
	// Suffix appended to the model variant name, e.g. "-fp16".
	Suffix string
	// ExpectedLoss is the accuracy loss fraction expected at this level.
	ExpectedLoss float64
	// OnCPU is set when no device precision fits and the model should load
	// on the host at full precision.
	OnCPU bool
}

// Quantization aliases the public type for callers inside this package.
type Quantization = types.Quantization

// minFP32MB is the floor below which FP32 on device is never planned,
// regardless of the model size ratio.
const minFP32MB = 1024

// Expected accuracy loss per level, rough figures.
const (
	lossFP32 = 0.0
	lossFP16 = 0.005
	lossINT8 = 0.02
)

// PlanQuantization chooses a precision given free device memory, the model
// size and the device's compute capability.
func PlanQuantization(availableMB, modelMB int, computeCapability float64) QuantPlan {
	switch {
	case availableMB >= 3*modelMB && availableMB >= minFP32MB:
		return QuantPlan{Level: types.QuantFP32, Suffix: "-fp32", ExpectedLoss: lossFP32}
	case availableMB >= 2*modelMB && computeCapability >= 5.3:
		return QuantPlan{Level: types.QuantFP16, Suffix: "-fp16", ExpectedLoss: lossFP16}
	case availableMB >= modelMB && computeCapability >= 6.1:
		return QuantPlan{Level: types.QuantINT8, Suffix: "-int8", ExpectedLoss: lossINT8}
	default:
		return QuantPlan{Level: types.QuantFP32, Suffix: "-fp32", ExpectedLoss: lossFP32, OnCPU: true}
	}
}

// AccuracyValidator checks quantized output against a small reference set.
type AccuracyValidator struct {
	// Threshold is the minimum acceptable 1-WER. Defaults to 0.85.
	Threshold float64
}

// AccuracyReport carries the measured rates of one validation run.
type AccuracyReport struct {
	WER    float64
	CER    float64
	Passed bool
}

// Validate compares candidate outputs to references pairwise. Mismatched
// lengths compare up to the shorter list; an empty reference set passes.
func (v AccuracyValidator) Validate(candidates, references []string) AccuracyReport {
	thr := v.Threshold
	if thr <= 0 {
		thr = 0.85
	}
	n := len(candidates)
	if len(references) < n {
		n = len(references)
	}
	if n == 0 {
		return AccuracyReport{Passed: true}
	}
	var werSum, cerSum float64
	for i := 0; i < n; i++ {
		werSum += WER(references[i], candidates[i])
		cerSum += CER(references[i], candidates[i])
	}
	rep := AccuracyReport{WER: werSum / float64(n), CER: cerSum / float64(n)}
	rep.Passed = 1-rep.WER >= thr
	return rep
}

// WER is word-level edit distance normalized by reference word count.
func WER(reference, candidate string) float64 {
	ref := strings.Fields(reference)
	cand := strings.Fields(candidate)
	if len(ref) == 0 {
		if len(cand) == 0 {
			return 0
		}
		return 1
	}
	return float64(levenshtein(ref, cand)) / float64(len(ref))
}

// CER is character-level edit distance normalized by reference length.
func CER(reference, candidate string) float64 {
	ref := strings.Split(reference, "")
	cand := strings.Split(candidate, "")
	if len(ref) == 0 {
		if len(cand) == 0 {
			return 0
		}
		return 1
	}
	return float64(levenshtein(ref, cand)) / float64(len(ref))
}

// levenshtein computes edit distance over token slices with two rows.
func levenshtein(a, b []string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
