package gpu

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// PoolConfig sizes one device arena.
type PoolConfig struct {
	InitialMB      int
	MaxMB          int
	BlockMB        int
	AlignmentBytes int64
	EnableDefrag   bool
	MaxIdle        time.Duration
}

// DefaultPoolConfig returns the pool sizing used when the config file does
// not override it.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		InitialMB:      512,
		MaxMB:          2048,
		BlockMB:        64,
		AlignmentBytes: 256,
		EnableDefrag:   true,
		MaxIdle:        5 * time.Minute,
	}
}

// block is one region of the arena. The block list is the ground truth;
// the in-use index is an auxiliary view keyed by device pointer.
type block struct {
	ptr      uintptr
	size     int64
	inUse    bool
	lastUsed time.Time
	tag      string
}

// PoolStats is a snapshot of pool counters. Peak usage is the maximum
// observed concurrent in-use byte count.
type PoolStats struct {
	TotalAllocatedMB int64
	TotalInUseMB     int64
	TotalFreeMB      int64
	PeakUsageMB      int64
	AllocCount       uint64
	DeallocCount     uint64
	FragCount        uint64
	DefragCount      uint64
	AvgAllocTimeUs   float64
}

// Pool is a best-fit sub-allocator over one contiguous device block obtained
// from the facade at Initialize. All operations take the single pool mutex.
type Pool struct {
	mu       sync.Mutex
	cfg      PoolConfig
	facade   *Facade
	log      zerolog.Logger
	deviceID int

	base     uintptr
	size     int64
	blocks   []*block // sorted by ptr, covers every byte of the arena
	inUse    map[uintptr]*block
	inited   bool

	inUseBytes int64
	peakBytes  int64
	allocs     uint64
	deallocs   uint64
	frags      uint64
	defrags    uint64
	allocNanos int64
}

// NewPool creates an uninitialized pool for one device.
func NewPool(cfg PoolConfig, facade *Facade, deviceID int, log zerolog.Logger) *Pool {
	if cfg.AlignmentBytes <= 0 {
		cfg.AlignmentBytes = 256
	}
	return &Pool{cfg: cfg, facade: facade, deviceID: deviceID, log: log, inUse: make(map[uintptr]*block)}
}

// Initialize obtains the arena from the device facade.
func (p *Pool) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inited {
		return nil
	}
	size := int64(p.cfg.InitialMB) * 1024 * 1024
	if size <= 0 {
		return fmt.Errorf("pool: invalid initial size %d MB", p.cfg.InitialMB)
	}
	base := p.facade.AllocRaw(size, "pool-arena")
	if base == 0 {
		return fmt.Errorf("pool: arena allocation of %d MB failed", p.cfg.InitialMB)
	}
	p.base = base
	p.size = size
	p.blocks = []*block{{ptr: base, size: size, lastUsed: time.Now()}}
	p.inited = true
	p.log.Info().Int("device", p.deviceID).Int("mb", p.cfg.InitialMB).Msg("gpu pool initialized")
	return nil
}

// Shutdown returns the arena to the facade. Idempotent.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.inited {
		return
	}
	p.facade.FreeRaw(p.base)
	p.blocks = nil
	p.inUse = make(map[uintptr]*block)
	p.inUseBytes = 0
	p.inited = false
}

// DeviceID returns the device this pool's arena lives on.
func (p *Pool) DeviceID() int { return p.deviceID }

// FreeMB returns the total free byte count in MB. Fragmentation means a
// request of this size is not guaranteed to succeed.
func (p *Pool) FreeMB() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int((p.size - p.inUseBytes) / (1024 * 1024))
}

func alignUp(n, align int64) int64 {
	return (n + align - 1) / align * align
}

// Allocate returns a device pointer for size bytes, best-fit. The returned
// pointer lies in [base, base+poolSize).
func (p *Pool) Allocate(size int64, tag string) (uintptr, error) {
	start := time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.inited {
		return 0, fmt.Errorf("pool: not initialized")
	}
	if size <= 0 {
		return 0, fmt.Errorf("pool: invalid allocation size %d", size)
	}
	aligned := alignUp(size, p.cfg.AlignmentBytes)

	best := p.bestFit(aligned)
	if best == nil {
		// Growth never enlarges the arena; it exists so a future runtime
		// strategy can hook in. See grow.
		if p.size+aligned <= int64(p.cfg.MaxMB)*1024*1024 && p.grow(aligned) {
			best = p.bestFit(aligned)
		}
		if best == nil {
			return 0, fmt.Errorf("pool: no free block for %d bytes (free %d MB)", aligned, (p.size-p.inUseBytes)/(1024*1024))
		}
	}

	// Split when the tail remainder is at least one alignment unit.
	if rem := best.size - aligned; rem >= p.cfg.AlignmentBytes {
		tail := &block{ptr: best.ptr + uintptr(aligned), size: rem, lastUsed: time.Now()}
		best.size = aligned
		p.insertAfter(best, tail)
		p.frags++
	}

	best.inUse = true
	best.tag = tag
	best.lastUsed = time.Now()
	p.inUse[best.ptr] = best
	p.inUseBytes += best.size
	if p.inUseBytes > p.peakBytes {
		p.peakBytes = p.inUseBytes
	}
	p.allocs++
	p.allocNanos += time.Since(start).Nanoseconds()
	return best.ptr, nil
}

// Deallocate returns a block to the pool. Unknown pointers are logged and
// ignored. Merging of adjacent free blocks runs here, never on the
// allocation path.
func (p *Pool) Deallocate(ptr uintptr) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.inUse[ptr]
	if !ok {
		p.log.Warn().Uint64("ptr", uint64(ptr)).Msg("pool: deallocate of unknown pointer")
		return
	}
	delete(p.inUse, ptr)
	b.inUse = false
	b.tag = ""
	b.lastUsed = time.Now()
	p.inUseBytes -= b.size
	p.deallocs++
	if p.cfg.EnableDefrag {
		p.mergeAdjacent()
	}
}

// Defragment forces an adjacency merge pass.
func (p *Pool) Defragment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mergeAdjacent()
	p.defrags++
}

// Stats returns a snapshot of the counters.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := PoolStats{
		TotalAllocatedMB: p.size / (1024 * 1024),
		TotalInUseMB:     p.inUseBytes / (1024 * 1024),
		TotalFreeMB:      (p.size - p.inUseBytes) / (1024 * 1024),
		PeakUsageMB:      p.peakBytes / (1024 * 1024),
		AllocCount:       p.allocs,
		DeallocCount:     p.deallocs,
		FragCount:        p.frags,
		DefragCount:      p.defrags,
	}
	if p.allocs > 0 {
		s.AvgAllocTimeUs = float64(p.allocNanos) / float64(p.allocs) / 1e3
	}
	return s
}

// Healthy reports whether usage and fragmentation are inside their bounds.
func (p *Pool) Healthy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inUseBytes >= p.size*9/10 {
		return false
	}
	if p.allocs >= 4 && p.frags >= p.allocs/4 {
		return false
	}
	return true
}

// bestFit returns the smallest free block with size >= n, or nil.
// Caller holds the mutex.
func (p *Pool) bestFit(n int64) *block {
	var best *block
	for _, b := range p.blocks {
		if b.inUse || b.size < n {
			continue
		}
		if best == nil || b.size < best.size {
			best = b
		}
	}
	return best
}

// grow would enlarge the arena. The device block cannot be extended in
// place, so this always fails; allocation then reports exhaustion.
func (p *Pool) grow(n int64) bool { return false }

// insertAfter places nb immediately after b in the sorted block list.
// Caller holds the mutex.
func (p *Pool) insertAfter(b, nb *block) {
	for i, cur := range p.blocks {
		if cur == b {
			p.blocks = append(p.blocks, nil)
			copy(p.blocks[i+2:], p.blocks[i+1:])
			p.blocks[i+1] = nb
			return
		}
	}
}

// mergeAdjacent merges free neighbor pairs where a.ptr+a.size == b.ptr.
// Caller holds the mutex.
func (p *Pool) mergeAdjacent() {
	sort.Slice(p.blocks, func(i, j int) bool { return p.blocks[i].ptr < p.blocks[j].ptr })
	out := p.blocks[:0]
	for _, b := range p.blocks {
		if len(out) > 0 {
			last := out[len(out)-1]
			if !last.inUse && !b.inUse && last.ptr+uintptr(last.size) == b.ptr {
				last.size += b.size
				if b.lastUsed.After(last.lastUsed) {
					last.lastUsed = b.lastUsed
				}
				continue
			}
		}
		out = append(out, b)
	}
	p.blocks = out
}
