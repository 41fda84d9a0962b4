package models

import (
	"context"
	"time"

	"mtd/internal/recovery"
	"mtd/pkg/types"
)

// Borrow is a lease on a handle for the duration of one translate call.
// While any borrow is live the handle cannot be evicted, unloaded or
// reloaded. Release must be called exactly once.
type Borrow struct {
	m *Manager
	h *Handle
}

// Borrow loads the pair if needed and takes a lease on its handle.
func (m *Manager) Borrow(ctx context.Context, pair types.LanguagePair) (*Borrow, error) {
	if err := m.Load(ctx, pair); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.handles[pair.Key()]
	if !ok {
		return nil, recovery.New(recovery.CatModelLoad, "model not loaded: "+pair.Key(),
			recovery.Context{Component: "models", Operation: "borrow", Pair: pair.Key()})
	}
	h.borrows++
	h.LastUsed = time.Now()
	h.UseCount++
	return &Borrow{m: m, h: h}, nil
}

// Translate runs inference through the borrowed session.
func (b *Borrow) Translate(ctx context.Context, inputs []string, opts TranslateOptions) ([]string, []float64, error) {
	outs, scores, err := b.h.session.Translate(ctx, inputs, opts)
	if err != nil {
		return nil, nil, recovery.Wrap(err, recovery.Context{
			Component: "models",
			Operation: "translate",
			Pair:      b.h.Pair.Key(),
			DeviceID:  b.h.DeviceID,
		})
	}
	if len(scores) != len(outs) {
		return nil, nil, recovery.New(recovery.CatTranslationFailure,
			"backend returned misaligned scores", recovery.Context{Component: "models", Pair: b.h.Pair.Key()})
	}
	return outs, scores, nil
}

// OnGPU reports the placement of the borrowed handle.
func (b *Borrow) OnGPU() bool { return b.h.Placement == types.PlacementGPU }

// Pair returns the language pair of the borrowed handle.
func (b *Borrow) Pair() types.LanguagePair { return b.h.Pair }

// Release returns the lease. Safe only once.
func (b *Borrow) Release() {
	b.m.mu.Lock()
	defer b.m.mu.Unlock()
	if b.h.borrows > 0 {
		b.h.borrows--
	}
	b.h.LastUsed = time.Now()
}
