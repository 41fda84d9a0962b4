package models

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// SimBackend is a deterministic in-process backend used by default builds
// and tests. It resolves a small per-pair dictionary and otherwise tags the
// input with the target language, the same scheme the pipeline's stub
// translators use. A real NMT binding replaces it behind the Backend
// interface without touching the manager.
type SimBackend struct {
	// Delay simulates per-call inference latency.
	Delay time.Duration
	// Fail forces Load to fail; used to exercise recovery paths.
	Fail bool
	// FailGPU forces GPU loads to fail so CPU fallback runs.
	FailGPU bool
}

// simDict maps "src-tgt" -> source phrase -> translation.
var simDict = map[string]map[string]string{
	"en-es": {
		"hello":              "Hola",
		"hello, how are you": "Hola, ¿cómo estás?",
		"good morning":       "Buenos días",
		"thank you":          "Gracias",
		"thanks":             "Gracias",
		"goodbye":            "Adiós",
		"hello, world":       "Hola, mundo",
	},
	"en-fr": {
		"hello":        "Bonjour",
		"good morning": "Bonjour",
		"thank you":    "Merci",
		"goodbye":      "Au revoir",
	},
	"en-de": {
		"hello":        "Hallo",
		"good morning": "Guten Morgen",
		"thank you":    "Danke",
		"goodbye":      "Auf Wiedersehen",
	},
	"es-en": {
		"hola":    "Hello",
		"gracias": "Thank you",
		"adiós":   "Goodbye",
	},
}

type simSession struct {
	pairDir string
	onGPU   bool
	delay   time.Duration
	closed  bool
}

// Load validates the artifact directory and opens a session.
func (b *SimBackend) Load(dir string, opts LoadOptions) (Session, error) {
	if b.Fail {
		return nil, fmt.Errorf("failed to load model from %s", dir)
	}
	onGPU := len(opts.Devices) > 0
	if onGPU && b.FailGPU {
		return nil, fmt.Errorf("cuda error: device allocation failed while loading %s", dir)
	}
	if err := ValidateArtifact(dir); err != nil {
		return nil, err
	}
	return &simSession{pairDir: filepath.Base(dir), onGPU: onGPU, delay: b.Delay}, nil
}

func (s *simSession) Translate(ctx context.Context, inputs []string, opts TranslateOptions) ([]string, []float64, error) {
	if s.closed {
		return nil, nil, fmt.Errorf("translate: session closed")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}
	outs := make([]string, len(inputs))
	scores := make([]float64, len(inputs))
	dict := simDict[s.pairDir]
	tgt := s.pairDir
	if i := strings.IndexByte(tgt, '-'); i >= 0 {
		tgt = tgt[i+1:]
	}
	for i, in := range inputs {
		key := strings.ToLower(strings.TrimSpace(strings.TrimRight(in, ".!?")))
		if t, ok := dict[key]; ok {
			outs[i] = t
			scores[i] = -0.2
			continue
		}
		outs[i] = "[" + tgt + "] " + in
		scores[i] = -1.2
	}
	return outs, scores, nil
}

func (s *simSession) Close() error {
	s.closed = true
	return nil
}
