package models

import (
	"fmt"

	"mtd/pkg/types"
)

// Validate reports everything a caller needs to know before requesting a
// translation for (src, tgt).
func (m *Manager) Validate(src, tgt string) types.PairValidation {
	out := types.PairValidation{
		SourceSupported: m.reg.SupportsLanguage(src),
		TargetSupported: m.reg.SupportsLanguage(tgt),
	}
	if !out.SourceSupported || !out.TargetSupported {
		out.ErrorMessage = fmt.Sprintf("unsupported language in pair %s-%s", src, tgt)
		out.Suggestions = m.suggestPairs(src, tgt)
		return out
	}
	pair, err := types.NewLanguagePair(src, tgt)
	if err != nil {
		out.ErrorMessage = err.Error()
		return out
	}
	if !m.reg.Supports(pair) {
		out.ErrorMessage = fmt.Sprintf("pair %s is not configured", pair)
		out.Suggestions = m.suggestPairs(src, tgt)
		return out
	}
	out.ModelAvailable = m.reg.OnDisk(pair)
	if !out.ModelAvailable {
		out.ErrorMessage = fmt.Sprintf("model files for %s are missing or empty", pair)
		out.DownloadRecommendation = fmt.Sprintf("re-download the %s model into %s", pair.Dir(), m.reg.Dir(pair))
		return out
	}
	out.Valid = true
	return out
}

// BidirectionalInfo reports which directions between a and b are configured
// and on disk, with pivot languages that reach b when the direct pair is
// missing.
func (m *Manager) BidirectionalInfo(a, b string) types.BidirectionalInfo {
	var out types.BidirectionalInfo
	fwd, errF := types.NewLanguagePair(a, b)
	bwd, errB := types.NewLanguagePair(b, a)
	if errF == nil && m.reg.Supports(fwd) {
		out.Forward = true
		out.ForwardOnDisk = m.reg.OnDisk(fwd)
	}
	if errB == nil && m.reg.Supports(bwd) {
		out.Backward = true
		out.BackwardOnDisk = m.reg.OnDisk(bwd)
	}
	if !out.Forward {
		for _, mid := range m.reg.Languages() {
			if mid == a || mid == b {
				continue
			}
			p1, e1 := types.NewLanguagePair(a, mid)
			p2, e2 := types.NewLanguagePair(mid, b)
			if e1 == nil && e2 == nil && m.reg.Supports(p1) && m.reg.Supports(p2) {
				out.SuggestedPivots = append(out.SuggestedPivots, mid)
			}
		}
	}
	return out
}

// suggestPairs lists configured pairs touching either language.
func (m *Manager) suggestPairs(src, tgt string) []string {
	var out []string
	for _, p := range m.reg.Pairs() {
		if p.Src == src || p.Tgt == tgt || p.Src == tgt || p.Tgt == src {
			out = append(out, p.Key())
		}
		if len(out) >= 5 {
			break
		}
	}
	return out
}

// PairInfos summarizes every configured pair for the HTTP surface.
func (m *Manager) PairInfos() []types.PairInfo {
	pairs := m.reg.Pairs()
	out := make([]types.PairInfo, 0, len(pairs))
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range pairs {
		info := types.PairInfo{Pair: p, Available: m.reg.OnDisk(p)}
		if h, ok := m.handles[p.Key()]; ok {
			info.Loaded = true
			info.Placement = h.Placement
		}
		out = append(out, info)
	}
	return out
}
