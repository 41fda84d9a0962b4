package quality

import (
	"strings"

	"mtd/pkg/types"
)

// GenerateCandidates returns up to maxN ranked candidates including the
// current translation. Extra candidates are surface rewrites of the current
// text; each is re-assessed so ranking reflects the same metrics as the
// primary output.
func (a *Assessor) GenerateCandidates(source, current, srcLang, tgtLang string, maxN int) []types.Alternative {
	if maxN < 1 {
		maxN = 1
	}
	seen := map[string]bool{current: true}
	texts := []string{current}
	for _, rewrite := range []func(string) string{paraphrase, simplify, formalize} {
		alt := rewrite(current)
		if alt == "" || seen[alt] {
			continue
		}
		seen[alt] = true
		texts = append(texts, alt)
	}

	alts := make([]types.Alternative, 0, len(texts))
	for _, text := range texts {
		m := a.Assess(source, text, srcLang, tgtLang, nil)
		alts = append(alts, types.Alternative{Text: text, Confidence: m.Overall})
	}
	sortAlternatives(alts)
	if len(alts) > maxN {
		alts = alts[:maxN]
	}
	return alts
}

// paraphrase reorders a leading clause when the text has one. A cheap
// stand-in for a model-generated paraphrase.
func paraphrase(text string) string {
	parts := strings.SplitN(text, ", ", 2)
	if len(parts) != 2 || parts[1] == "" {
		return ""
	}
	head := strings.TrimRight(parts[1], ".!?")
	punct := strings.TrimPrefix(parts[1], head)
	if head == "" {
		return ""
	}
	return upperFirst(head) + ", " + lowerFirst(parts[0]) + punct
}

func upperFirst(s string) string {
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToLower(string(r[0])) + string(r[1:])
}

// simplify drops filler adverbs.
func simplify(text string) string {
	fillers := []string{" very ", " really ", " quite ", " muy ", " realmente ", " sehr ", " très "}
	out := text
	for _, f := range fillers {
		out = strings.ReplaceAll(out, f, " ")
	}
	if out == text {
		return ""
	}
	return strings.Join(strings.Fields(out), " ")
}

// formalize expands casual contractions.
func formalize(text string) string {
	repl := strings.NewReplacer(
		"don't", "do not",
		"can't", "cannot",
		"won't", "will not",
		"it's", "it is",
		"I'm", "I am",
		"you're", "you are",
	)
	out := repl.Replace(text)
	if out == text {
		return ""
	}
	return out
}
