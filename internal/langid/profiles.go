package langid

// profile holds the text features of one language: an expected character
// frequency distribution, a top-common-words set and weighted n-grams.
// Figures are rough corpus frequencies; the detector only needs relative
// shape, not precision.
type profile struct {
	charFreq map[rune]float64
	common   map[string]bool
	bigrams  map[string]float64
	trigrams map[string]float64
}

func words(ws ...string) map[string]bool {
	m := make(map[string]bool, len(ws))
	for _, w := range ws {
		m[w] = true
	}
	return m
}

func grams(pairs map[string]float64) map[string]float64 { return pairs }

var builtinProfiles = map[string]*profile{
	"en": {
		charFreq: map[rune]float64{
			'e': 0.127, 't': 0.091, 'a': 0.082, 'o': 0.075, 'i': 0.070,
			'n': 0.067, 's': 0.063, 'h': 0.061, 'r': 0.060, 'd': 0.043,
			'l': 0.040, 'c': 0.028, 'u': 0.028, 'm': 0.024, 'w': 0.024,
			'f': 0.022, 'g': 0.020, 'y': 0.020, 'p': 0.019, 'b': 0.015,
			'v': 0.010, 'k': 0.008,
		},
		common: words("the", "be", "to", "of", "and", "a", "in", "that", "have",
			"i", "it", "for", "not", "on", "with", "he", "as", "you", "do", "at",
			"this", "but", "his", "by", "from", "they", "we", "say", "her", "she",
			"or", "an", "will", "my", "one", "all", "would", "there", "their",
			"what", "is", "are", "was", "how", "hello", "good", "morning", "world"),
		bigrams: grams(map[string]float64{
			"th": 1.0, "he": 1.0, "in": 0.9, "er": 0.9, "an": 0.8, "re": 0.8,
			"on": 0.7, "at": 0.7, "en": 0.6, "nd": 0.6, "ti": 0.6, "es": 0.6,
			"or": 0.5, "te": 0.5, "of": 0.5, "ed": 0.5, "is": 0.5, "it": 0.5,
		}),
		trigrams: grams(map[string]float64{
			"the": 1.0, "and": 0.9, "ing": 0.9, "her": 0.7, "hat": 0.6,
			"his": 0.6, "tha": 0.6, "ere": 0.5, "for": 0.5, "ent": 0.5,
			"ion": 0.5, "ter": 0.4, "was": 0.4, "you": 0.4, "ith": 0.4,
		}),
	},
	"es": {
		charFreq: map[rune]float64{
			'e': 0.137, 'a': 0.125, 'o': 0.087, 's': 0.080, 'r': 0.069,
			'n': 0.067, 'i': 0.063, 'd': 0.058, 'l': 0.050, 'c': 0.047,
			't': 0.046, 'u': 0.039, 'm': 0.032, 'p': 0.025, 'b': 0.014,
			'g': 0.010, 'v': 0.009, 'y': 0.009, 'q': 0.009, 'h': 0.007,
			'ó': 0.008, 'í': 0.007, 'á': 0.005, 'é': 0.004, 'ñ': 0.003,
		},
		common: words("de", "la", "que", "el", "en", "y", "a", "los", "se", "del",
			"las", "un", "por", "con", "no", "una", "su", "para", "es", "al",
			"lo", "como", "más", "pero", "sus", "le", "ya", "o", "este", "sí",
			"porque", "esta", "entre", "cuando", "muy", "sin", "sobre", "me",
			"hasta", "hay", "donde", "mi", "está", "estás", "cómo", "hola",
			"gracias", "buenos", "días", "vivo", "llamo"),
		bigrams: grams(map[string]float64{
			"de": 1.0, "la": 0.9, "en": 0.9, "el": 0.8, "es": 0.8, "os": 0.8,
			"as": 0.7, "ar": 0.7, "ue": 0.7, "ra": 0.6, "re": 0.6, "co": 0.6,
			"st": 0.5, "an": 0.5, "ad": 0.5, "or": 0.5, "ta": 0.5, "do": 0.5,
		}),
		trigrams: grams(map[string]float64{
			"que": 1.0, "ent": 0.7, "ion": 0.7, "del": 0.7, "ado": 0.6,
			"est": 0.6, "los": 0.6, "las": 0.5, "con": 0.5, "por": 0.5,
			"una": 0.5, "ara": 0.4, "cio": 0.4, "nte": 0.4, "ida": 0.4,
		}),
	},
	"fr": {
		charFreq: map[rune]float64{
			'e': 0.147, 'a': 0.076, 's': 0.079, 'i': 0.075, 't': 0.072,
			'n': 0.071, 'r': 0.066, 'u': 0.063, 'l': 0.055, 'o': 0.054,
			'd': 0.037, 'c': 0.033, 'p': 0.030, 'm': 0.030, 'v': 0.016,
			'q': 0.014, 'f': 0.011, 'b': 0.009, 'g': 0.009, 'h': 0.007,
			'é': 0.019, 'è': 0.004, 'à': 0.005, 'ç': 0.001,
		},
		common: words("le", "de", "un", "être", "et", "à", "il", "avoir", "ne",
			"je", "son", "que", "se", "qui", "ce", "dans", "en", "du", "elle",
			"au", "pour", "pas", "sur", "faire", "plus", "dire", "me", "on",
			"mon", "avec", "tout", "mais", "comme", "ou", "si", "leur", "y",
			"bonjour", "merci", "vous", "nous", "est", "les", "des", "la"),
		bigrams: grams(map[string]float64{
			"es": 1.0, "le": 0.9, "de": 0.9, "en": 0.8, "re": 0.8, "nt": 0.8,
			"on": 0.7, "ou": 0.7, "er": 0.6, "an": 0.6, "ur": 0.6, "ai": 0.6,
			"it": 0.5, "te": 0.5, "el": 0.5, "la": 0.5, "qu": 0.5, "ns": 0.5,
		}),
		trigrams: grams(map[string]float64{
			"ent": 1.0, "les": 0.8, "que": 0.8, "des": 0.7, "ion": 0.7,
			"eur": 0.6, "ait": 0.6, "our": 0.6, "ans": 0.5, "est": 0.5,
			"men": 0.5, "tre": 0.4, "con": 0.4, "une": 0.4, "par": 0.4,
		}),
	},
	"de": {
		charFreq: map[rune]float64{
			'e': 0.174, 'n': 0.098, 'i': 0.075, 's': 0.073, 'r': 0.070,
			'a': 0.065, 't': 0.061, 'd': 0.051, 'h': 0.048, 'u': 0.044,
			'l': 0.034, 'c': 0.031, 'g': 0.030, 'm': 0.025, 'o': 0.025,
			'b': 0.019, 'w': 0.019, 'f': 0.017, 'k': 0.012, 'z': 0.011,
			'ü': 0.010, 'ä': 0.005, 'ö': 0.003, 'ß': 0.003,
		},
		common: words("der", "die", "und", "in", "den", "von", "zu", "das",
			"mit", "sich", "des", "auf", "für", "ist", "im", "dem", "nicht",
			"ein", "eine", "als", "auch", "es", "an", "werden", "aus", "er",
			"hat", "dass", "sie", "nach", "wird", "bei", "einer", "um", "am",
			"sind", "noch", "wie", "einem", "über", "hallo", "danke", "guten",
			"morgen", "ich", "du", "wir"),
		bigrams: grams(map[string]float64{
			"en": 1.0, "er": 0.9, "ch": 0.9, "de": 0.8, "ei": 0.8, "nd": 0.8,
			"te": 0.7, "in": 0.7, "ie": 0.7, "ge": 0.6, "es": 0.6, "ne": 0.6,
			"un": 0.6, "st": 0.5, "re": 0.5, "he": 0.5, "an": 0.5, "be": 0.5,
		}),
		trigrams: grams(map[string]float64{
			"der": 1.0, "ein": 0.9, "sch": 0.9, "ich": 0.8, "nde": 0.7,
			"die": 0.7, "che": 0.7, "den": 0.6, "ten": 0.6, "und": 0.6,
			"ine": 0.5, "ter": 0.5, "gen": 0.5, "end": 0.4, "ers": 0.4,
		}),
	},
}

// defaultFallbacks substitutes a supported target for common unsupported
// codes, e.g. Portuguese requests are served with Spanish models.
var defaultFallbacks = map[string]string{
	"pt": "es",
	"ca": "es",
	"gl": "es",
	"it": "es",
	"nl": "de",
	"af": "de",
	"ro": "fr",
}
