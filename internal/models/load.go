package models

import (
	"context"
	"fmt"
	"time"

	"mtd/internal/common/fsutil"
	"mtd/internal/gpu"
	"mtd/internal/recovery"
	"mtd/pkg/types"
)

// Load ensures a handle exists for the pair, loading it if needed.
func (m *Manager) Load(ctx context.Context, pair types.LanguagePair) error {
	m.mu.RLock()
	_, ok := m.handles[pair.Key()]
	m.mu.RUnlock()
	if ok {
		return nil
	}
	return m.load(ctx, pair)
}

func (m *Manager) load(ctx context.Context, pair types.LanguagePair) error {
	key := pair.Key()
	ectx := recovery.Context{Component: "models", Operation: "load", Pair: key}

	// Reject unsupported pairs before touching the disk.
	if !m.reg.Supports(pair) {
		return recovery.New(recovery.CatConfigError,
			fmt.Sprintf("language pair %s is not in the configured set", key), ectx)
	}

	dir := m.reg.Dir(pair)
	ectx.ModelPath = dir
	if err := ValidateArtifact(dir); err != nil {
		// Message keywords route this to MODEL_CORRUPT or MODEL_LOAD.
		return recovery.Wrap(err, ectx)
	}

	if m.backend == nil {
		return recovery.New(recovery.CatModelLoad, "no inference backend configured", ectx)
	}

	if err := m.evictOverBudget(); err != nil {
		return err
	}

	h := &Handle{Pair: pair, Placement: types.PlacementCPU, Quant: types.QuantFP32, LoadedAt: time.Now(), LastUsed: time.Now()}
	h.SizeMB = m.estimateMB(pair)

	if m.gpuEligible() {
		if err := m.loadOnGPU(h, dir); err != nil {
			m.log.Warn().Err(err).Str("pair", key).Msg("gpu load failed, falling back to cpu")
		}
	}
	if h.session == nil {
		sess, err := m.backend.Load(dir, LoadOptions{CPUThreads: m.cpuThreads, Quant: types.QuantFP32})
		if err != nil {
			return recovery.Wrap(err, ectx)
		}
		h.session = sess
		h.Placement = types.PlacementCPU
	}

	m.mu.Lock()
	if _, exists := m.handles[key]; exists {
		// A concurrent load for the same pair won the race. The winner's
		// handle stays; ours is released so its session and block do not
		// leak.
		m.releaseHandleLocked(h)
		m.mu.Unlock()
		return nil
	}
	// Restore last-used ordering persisted by an earlier process so a cold
	// cache does not evict in arbitrary order.
	if rec, ok := m.lruMeta[key]; ok && rec.LastUsedUnix > 0 {
		h.LastUsed = time.Unix(rec.LastUsedUnix, 0)
		delete(m.lruMeta, key)
	}
	m.handles[key] = h
	m.loads++
	m.mu.Unlock()
	m.log.Info().Str("pair", key).Str("placement", string(h.Placement)).Str("quant", string(h.Quant)).Int("size_mb", h.SizeMB).Msg("model loaded")
	return nil
}

// gpuEligible reports whether GPU placement should even be attempted.
func (m *Manager) gpuEligible() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.preferGPU && m.pool != nil && m.facade != nil && m.facade.IsAvailable()
}

// loadOnGPU places the weights in a pool block and opens a GPU session.
// On any failure the block is returned and the caller retries on CPU.
func (m *Manager) loadOnGPU(h *Handle, dir string) error {
	required := h.SizeMB
	if free := m.pool.FreeMB(); free < required {
		return fmt.Errorf("pool has %d MB free, need %d MB", free, required)
	}
	block, err := m.pool.AllocateHandle(int64(required)*1024*1024, h.Pair.Key())
	if err != nil {
		return err
	}
	var cc float64 = 0
	if info, err := m.facade.DeviceInfo(m.deviceID); err == nil {
		cc = info.ComputeCapability()
	}
	avail, _, _ := m.facade.MemoryInfo(m.deviceID)
	plan := gpu.PlanQuantization(avail, required, cc)
	if plan.OnCPU {
		block.Close()
		return fmt.Errorf("no device precision fits %d MB model", required)
	}
	sess, err := m.backend.Load(dir, LoadOptions{
		Devices:    []int{m.deviceID},
		WeightsPtr: block.Ptr(),
		CPUThreads: m.cpuThreads,
		Quant:      plan.Level,
	})
	if err != nil {
		block.Close()
		return err
	}
	h.session = sess
	h.block = block
	h.Placement = types.PlacementGPU
	h.DeviceID = m.deviceID
	h.Quant = plan.Level
	return nil
}

// Unload drops the pair's handle if present.
func (m *Manager) Unload(pair types.LanguagePair) error {
	key := pair.Key()
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.handles[key]
	if !ok {
		return recovery.New(recovery.CatModelLoad, "model not loaded: "+key, recovery.Context{Component: "models", Operation: "unload", Pair: key})
	}
	if h.borrows > 0 {
		return fmt.Errorf("unload %s: handle has %d active borrows", key, h.borrows)
	}
	m.releaseHandleLocked(h)
	delete(m.handles, key)
	m.log.Info().Str("pair", key).Msg("model unloaded")
	return nil
}

// FallbackToCPU drops GPU placement for the pair, frees its pool blocks and
// reopens the session on the host. Wired into the recovery engine as the
// FALLBACK_CPU hook.
func (m *Manager) FallbackToCPU(pairKey string) error {
	m.mu.Lock()
	h, ok := m.handles[pairKey]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("fallback: no handle for %s", pairKey)
	}
	pair := h.Pair
	m.releaseHandleLocked(h)
	delete(m.handles, pairKey)
	m.mu.Unlock()

	sess, err := m.backend.Load(m.reg.Dir(pair), LoadOptions{CPUThreads: m.cpuThreads, Quant: types.QuantFP32})
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.handles[pairKey] = &Handle{
		Pair:      pair,
		Placement: types.PlacementCPU,
		Quant:     types.QuantFP32,
		SizeMB:    m.estimateMB(pair),
		LoadedAt:  time.Now(),
		LastUsed:  time.Now(),
		session:   sess,
	}
	m.loads++
	m.mu.Unlock()
	m.log.Info().Str("pair", pairKey).Msg("model moved to cpu placement")
	return nil
}

// Reload validates integrity, unloads any existing handle and loads fresh.
// Wired into the recovery engine as the RELOAD_MODEL hook.
func (m *Manager) Reload(pairKey string) error {
	pair, ok := m.pairByKey(pairKey)
	if !ok {
		return fmt.Errorf("reload: unknown pair %s", pairKey)
	}
	if err := ValidateArtifact(m.reg.Dir(pair)); err != nil {
		return err
	}
	m.mu.Lock()
	if h, ok := m.handles[pairKey]; ok {
		if h.borrows > 0 {
			m.mu.Unlock()
			return fmt.Errorf("reload %s: handle busy", pairKey)
		}
		m.releaseHandleLocked(h)
		delete(m.handles, pairKey)
	}
	m.mu.Unlock()
	return m.load(context.Background(), pair)
}

func (m *Manager) pairByKey(key string) (types.LanguagePair, bool) {
	for _, p := range m.reg.Pairs() {
		if p.Key() == key {
			return p, true
		}
	}
	return types.LanguagePair{}, false
}

// Per-language model complexity in MB, rough figures per code. Cross pair
// cost is base + complexity(src) + complexity(tgt) plus headroom.
var langComplexityMB = map[string]int{
	"en": 48, "es": 52, "fr": 52, "de": 64, "it": 52, "pt": 52,
	"ru": 72, "zh": 96, "ja": 96, "ko": 88, "ar": 80, "nl": 56,
}

const baseModelMB = 256

// estimateMB estimates the loaded model footprint with 20% headroom. The
// on-disk artifact size wins when it is large enough to be a real model;
// tiny fixture artifacts fall back to the per-language heuristic.
func (m *Manager) estimateMB(pair types.LanguagePair) int {
	if mb, err := fsutil.DirSizeMB(m.reg.Dir(pair)); err == nil && mb >= baseModelMB/4 {
		return mb * 12 / 10
	}
	mb := baseModelMB + complexityMB(pair.Src) + complexityMB(pair.Tgt)
	return mb * 12 / 10
}

func complexityMB(code string) int {
	if mb, ok := langComplexityMB[code]; ok {
		return mb
	}
	return 64
}
