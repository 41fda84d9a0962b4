package models

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"mtd/internal/common/fsutil"
	"mtd/pkg/types"
)

// Artifact member files every model directory must contain, each present
// and nonempty.
var requiredArtifacts = []string{"model.bin", "vocab.yml", "config.yml"}

// Registry resolves language pairs to model directories under modelsRoot.
// The supported set comes from configuration and is immutable after build.
type Registry struct {
	root      string
	languages map[string]bool
	pairs     map[string]types.LanguagePair // key -> pair
}

// NewRegistry builds the registry from the configured language and pair
// sets. Pair targets referencing unsupported languages are rejected.
func NewRegistry(modelsRoot string, languages []string, pairTargets map[string][]string) (*Registry, error) {
	root, err := fsutil.ExpandHome(modelsRoot)
	if err != nil {
		return nil, err
	}
	r := &Registry{
		root:      root,
		languages: make(map[string]bool, len(languages)),
		pairs:     make(map[string]types.LanguagePair),
	}
	for _, code := range languages {
		if !types.IsLanguageCode(code) {
			return nil, fmt.Errorf("config error: invalid language code %q", code)
		}
		r.languages[code] = true
	}
	for src, tgts := range pairTargets {
		for _, tgt := range tgts {
			pair, err := types.NewLanguagePair(src, tgt)
			if err != nil {
				return nil, fmt.Errorf("config error: %w", err)
			}
			if !r.languages[pair.Src] || !r.languages[pair.Tgt] {
				return nil, fmt.Errorf("config error: pair %s references unsupported language", pair)
			}
			r.pairs[pair.Key()] = pair
		}
	}
	return r, nil
}

// Root returns the models base path.
func (r *Registry) Root() string { return r.root }

// Supports reports whether the pair is in the configured set.
func (r *Registry) Supports(pair types.LanguagePair) bool {
	_, ok := r.pairs[pair.Key()]
	return ok
}

// SupportsLanguage reports whether the code is in the configured set.
func (r *Registry) SupportsLanguage(code string) bool { return r.languages[code] }

// Languages returns the supported codes, sorted.
func (r *Registry) Languages() []string {
	out := make([]string, 0, len(r.languages))
	for code := range r.languages {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Pairs returns all configured pairs sorted by key.
func (r *Registry) Pairs() []types.LanguagePair {
	out := make([]types.LanguagePair, 0, len(r.pairs))
	for _, p := range r.pairs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Dir resolves the model directory for a pair.
func (r *Registry) Dir(pair types.LanguagePair) string {
	return filepath.Join(r.root, pair.Dir())
}

// OnDisk reports whether the pair's artifact passes integrity validation.
func (r *Registry) OnDisk(pair types.LanguagePair) bool {
	return ValidateArtifact(r.Dir(pair)) == nil
}

// ValidateArtifact checks that every required member exists and is nonempty.
func ValidateArtifact(dir string) error {
	for _, name := range requiredArtifacts {
		p := filepath.Join(dir, name)
		fi, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("model file missing: %s", p)
		}
		if fi.Size() == 0 {
			return fmt.Errorf("model file corrupt: %s is empty", p)
		}
	}
	return nil
}
