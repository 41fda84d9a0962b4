package models

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mtd/internal/gpu"
	"mtd/pkg/types"
)

// Handle is one loaded model. It is owned exclusively by the Manager and
// borrowed by the executor for the duration of a single call; eviction never
// targets a handle with live borrows.
type Handle struct {
	Pair      types.LanguagePair
	Placement types.Placement
	DeviceID  int
	Quant     types.Quantization
	SizeMB    int
	LoadedAt  time.Time
	LastUsed  time.Time
	UseCount  uint64

	block   *gpu.BlockHandle
	session Session
	borrows int
}

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	Registry   *Registry
	Backend    Backend
	Facade     *gpu.Facade
	Pool       *gpu.Pool
	MaxModels  int
	PreferGPU  bool
	DeviceID   int
	CPUThreads int
	// LRUPath persists last-used metadata across restarts; empty disables.
	LRUPath string
}

const defaultMaxModels = 4

// Manager resolves language pairs to loaded model handles, placing weights
// on GPU through the pool when possible and evicting LRU handles to stay
// under the concurrent-model budget.
type Manager struct {
	mu  sync.RWMutex
	log zerolog.Logger

	reg        *Registry
	backend    Backend
	facade     *gpu.Facade
	pool       *gpu.Pool
	maxModels  int
	preferGPU  bool
	deviceID   int
	cpuThreads int

	handles   map[string]*Handle
	loads     uint64
	evictions uint64

	lruPath string
	lruMeta map[string]lruRecord
}

// NewManager constructs a Manager from ManagerConfig.
func NewManager(cfg ManagerConfig, log zerolog.Logger) *Manager {
	m := &Manager{
		log:        log,
		reg:        cfg.Registry,
		backend:    cfg.Backend,
		facade:     cfg.Facade,
		pool:       cfg.Pool,
		maxModels:  cfg.MaxModels,
		preferGPU:  cfg.PreferGPU,
		deviceID:   cfg.DeviceID,
		cpuThreads: cfg.CPUThreads,
		handles:    make(map[string]*Handle),
		lruPath:    cfg.LRUPath,
	}
	if m.maxModels <= 0 {
		m.maxModels = defaultMaxModels
	}
	m.loadLRUMetadata()
	return m
}

// Registry exposes the pair registry for callers that validate input.
func (m *Manager) Registry() *Registry { return m.reg }

// IsLoaded reports whether the pair currently has a handle.
func (m *Manager) IsLoaded(pair types.LanguagePair) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.handles[pair.Key()]
	return ok
}

// SupportedPairs returns the configured pair set.
func (m *Manager) SupportedPairs() []types.LanguagePair { return m.reg.Pairs() }

// SetPreferGPU flips GPU placement preference for subsequent loads.
func (m *Manager) SetPreferGPU(prefer bool, deviceID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preferGPU = prefer
	m.deviceID = deviceID
}

// Statistics summarizes the manager for /status.
func (m *Manager) Statistics() types.StatusResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()
	resp := types.StatusResponse{
		MaxModels:      m.maxModels,
		EvictionsTotal: m.evictions,
		LoadsTotal:     m.loads,
	}
	resp.Models = make([]types.ModelStatus, 0, len(m.handles))
	for _, h := range m.handles {
		resp.Models = append(resp.Models, types.ModelStatus{
			Pair:      h.Pair.Key(),
			Placement: string(h.Placement),
			DeviceID:  h.DeviceID,
			Quant:     string(h.Quant),
			SizeMB:    h.SizeMB,
			LastUsed:  h.LastUsed.Unix(),
			UseCount:  h.UseCount,
			Borrows:   h.borrows,
		})
	}
	return resp
}

// Close unloads every handle. Called on shutdown after the executor drains.
func (m *Manager) Close() {
	m.saveLRUMetadata()
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, h := range m.handles {
		m.releaseHandleLocked(h)
		delete(m.handles, key)
	}
}

// releaseHandleLocked closes the session and returns GPU memory.
// Caller holds the write lock.
func (m *Manager) releaseHandleLocked(h *Handle) {
	if h.session != nil {
		if err := h.session.Close(); err != nil {
			m.log.Warn().Err(err).Str("pair", h.Pair.Key()).Msg("session close failed")
		}
		h.session = nil
	}
	if h.block != nil {
		h.block.Close()
		h.block = nil
	}
}
