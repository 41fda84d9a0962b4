package quality

import (
	"strings"

	"mtd/pkg/types"
)

// fallbackDict holds word-by-word renderings for the most common
// conversational vocabulary, keyed by direction. Used only when inference
// is unavailable or its output fell below the low threshold.
var fallbackDict = map[string]map[string]string{
	"en-es": {
		"hello": "hola", "goodbye": "adiós", "yes": "sí", "no": "no",
		"please": "por favor", "thanks": "gracias", "thank": "gracias",
		"good": "bueno", "morning": "mañana", "night": "noche",
		"friend": "amigo", "water": "agua", "help": "ayuda",
		"world": "mundo", "today": "hoy", "tomorrow": "mañana",
	},
	"es-en": {
		"hola": "hello", "adiós": "goodbye", "sí": "yes", "no": "no",
		"gracias": "thanks", "bueno": "good", "mañana": "morning",
		"noche": "night", "amigo": "friend", "agua": "water",
		"ayuda": "help", "mundo": "world", "hoy": "today",
	},
	"en-de": {
		"hello": "hallo", "goodbye": "tschüss", "yes": "ja", "no": "nein",
		"please": "bitte", "thanks": "danke", "good": "gut",
		"morning": "morgen", "friend": "freund", "water": "wasser",
		"help": "hilfe", "world": "welt",
	},
	"en-fr": {
		"hello": "bonjour", "goodbye": "au revoir", "yes": "oui", "no": "non",
		"please": "s'il vous plaît", "thanks": "merci", "good": "bon",
		"morning": "matin", "friend": "ami", "water": "eau",
		"help": "aide", "world": "monde",
	},
}

// greetingTemplates render whole common phrases; matched on the normalized
// source before the word-by-word path runs.
var greetingTemplates = map[string]map[string]string{
	"en-es": {
		"hello":        "Hola",
		"good morning": "Buenos días",
		"good night":   "Buenas noches",
		"how are you":  "¿Cómo estás?",
		"thank you":    "Gracias",
	},
	"en-de": {
		"hello":        "Hallo",
		"good morning": "Guten Morgen",
		"good night":   "Gute Nacht",
		"how are you":  "Wie geht es dir?",
		"thank you":    "Danke",
	},
	"en-fr": {
		"hello":        "Bonjour",
		"good morning": "Bonjour",
		"good night":   "Bonne nuit",
		"how are you":  "Comment allez-vous ?",
		"thank you":    "Merci",
	},
	"es-en": {
		"hola":          "Hello",
		"buenos días":   "Good morning",
		"cómo estás":    "How are you?",
		"gracias":       "Thank you",
		"buenas noches": "Good night",
	},
}

const (
	templateConfidence = 0.75
	dictHitConfidence  = 0.75
	dictMissConfidence = 0.2
)

// FallbackTranslate renders text without a model: whole-phrase templates
// first, then word-by-word dictionary lookup. Unknown words pass through
// unchanged with low confidence. The second return is the mean word
// confidence; zero means nothing could be rendered.
func FallbackTranslate(text string, pair types.LanguagePair) (string, float64, []float64) {
	dir := pair.Dir()
	normalized := strings.ToLower(strings.Trim(strings.TrimSpace(text), ".,;:!?¿¡"))

	if tpl, ok := greetingTemplates[dir][normalized]; ok {
		return tpl, templateConfidence, []float64{templateConfidence}
	}

	dict := fallbackDict[dir]
	if dict == nil {
		return "", 0, nil
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return "", 0, nil
	}
	out := make([]string, 0, len(words))
	confs := make([]float64, 0, len(words))
	for _, w := range words {
		key := strings.ToLower(strings.Trim(w, ".,;:!?¿¡\"'"))
		if tgt, ok := dict[key]; ok {
			out = append(out, matchCase(w, tgt))
			confs = append(confs, dictHitConfidence)
		} else {
			out = append(out, w)
			confs = append(confs, dictMissConfidence)
		}
	}
	return strings.Join(out, " "), mean(confs), confs
}

// matchCase copies a leading capital from the source word onto the
// dictionary rendering.
func matchCase(src, tgt string) string {
	if src == "" || tgt == "" {
		return tgt
	}
	first := []rune(src)[0]
	if first >= 'A' && first <= 'Z' {
		r := []rune(tgt)
		return strings.ToUpper(string(r[0])) + string(r[1:])
	}
	return tgt
}
