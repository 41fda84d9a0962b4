package recovery

import "strings"

// classRule maps message keywords to a category. Rules are checked in order;
// the first match wins.
type classRule struct {
	keywords []string
	category Category
}

var classRules = []classRule{
	{[]string{"corrupt", "checksum", "invalid model", "integrity"}, CatModelCorrupt},
	{[]string{"load model", "model load", "failed to load", "missing model", "model file"}, CatModelLoad},
	{[]string{"out of memory", "memory exhaust", "alloc", "oom"}, CatMemoryExhaustion},
	{[]string{"cuda", "gpu", "device"}, CatGPUFailure},
	{[]string{"timeout", "timed out", "deadline"}, CatTranslationTimeout},
	{[]string{"translation", "translate", "inference", "decode"}, CatTranslationFailure},
	{[]string{"config", "configuration", "invalid option"}, CatConfigError},
	{[]string{"network", "connection", "refused", "unreachable"}, CatNetworkError},
}

// Classify derives (category, severity) from an error message using
// case-insensitive substring matching.
func Classify(msg string) (Category, Severity) {
	lower := strings.ToLower(msg)
	cat := CatUnknown
	for _, rule := range classRules {
		if containsAny(lower, rule.keywords) {
			cat = rule.category
			break
		}
	}
	return cat, severityFor(cat, lower)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// severityFor applies the overrides on top of the default ERROR severity.
func severityFor(cat Category, lowerMsg string) Severity {
	if strings.Contains(lowerMsg, "fatal") || strings.Contains(lowerMsg, "crash") {
		return SevFatal
	}
	if cat == CatModelCorrupt || strings.Contains(lowerMsg, "critical") || strings.Contains(lowerMsg, "system failure") {
		return SevCritical
	}
	if cat == CatGPUFailure || cat == CatTranslationTimeout {
		return SevWarning
	}
	return SevError
}

func defaultSeverity(cat Category) Severity {
	switch cat {
	case CatModelCorrupt:
		return SevCritical
	case CatGPUFailure, CatTranslationTimeout:
		return SevWarning
	default:
		return SevError
	}
}
