package gpu

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Facade is the only component that talks to the device runtime. It tracks
// raw allocations, exposes monitoring queries and survives a missing driver
// by reporting unavailable instead of failing.
type Facade struct {
	mu        sync.Mutex
	rt        Runtime
	log       zerolog.Logger
	inited    bool
	available bool
	active    int
	lastErr   error
	allocs    []trackedAlloc
}

type trackedAlloc struct {
	ptr  uintptr
	size int64
	tag  string
	when time.Time
}

var (
	facadeOnce sync.Once
	facade     *Facade
)

// Default returns the process-wide facade, creating it lazily around the
// compiled-in runtime. Initialize must still be called before use.
func Default() *Facade {
	facadeOnce.Do(func() {
		facade = NewFacade(NewDefaultRuntime(), zerolog.Nop())
	})
	return facade
}

// NewFacade wraps a runtime. Tests construct their own facade around a
// SimRuntime instead of touching the singleton.
func NewFacade(rt Runtime, log zerolog.Logger) *Facade {
	return &Facade{rt: rt, log: log, active: -1}
}

// Initialize probes the runtime. A driver failure is not an error: the
// facade stays usable and reports unavailable.
func (f *Facade) Initialize() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inited {
		return nil
	}
	f.inited = true
	if err := f.rt.Init(); err != nil {
		f.available = false
		f.lastErr = err
		f.log.Warn().Err(err).Msg("gpu runtime unavailable, CPU-only mode")
		return nil
	}
	f.available = f.rt.DeviceCount() > 0
	if f.available {
		f.active = 0
		_ = f.rt.SetDevice(0)
	}
	f.log.Info().Int("devices", f.rt.DeviceCount()).Bool("available", f.available).Msg("gpu facade initialized")
	return nil
}

// Cleanup frees all tracked allocations and shuts the runtime down.
// Idempotent.
func (f *Facade) Cleanup() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.inited {
		return
	}
	for _, a := range f.allocs {
		if err := f.rt.Free(a.ptr); err != nil {
			f.log.Warn().Err(err).Str("tag", a.tag).Msg("cleanup: free failed")
		}
	}
	f.allocs = nil
	_ = f.rt.Shutdown()
	f.inited = false
	f.available = false
	f.active = -1
}

// IsAvailable reports whether at least one device is usable.
func (f *Facade) IsAvailable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inited && f.available
}

// LastError returns the most recent runtime failure, if any.
func (f *Facade) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// DeviceCount returns the number of enumerated devices.
func (f *Facade) DeviceCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.available {
		return 0
	}
	return f.rt.DeviceCount()
}

// DeviceInfo queries one device.
func (f *Facade) DeviceInfo(id int) (DeviceInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.available {
		return DeviceInfo{}, fmt.Errorf("gpu unavailable")
	}
	info, err := f.rt.DeviceInfo(id)
	if err != nil {
		f.lastErr = err
	}
	return info, err
}

// SetDevice switches the active device.
func (f *Facade) SetDevice(id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.available {
		return fmt.Errorf("gpu unavailable")
	}
	if err := f.rt.SetDevice(id); err != nil {
		f.lastErr = err
		return err
	}
	f.active = id
	return nil
}

// ActiveDevice returns the currently selected device id, -1 if none.
func (f *Facade) ActiveDevice() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// AllocRaw allocates n bytes of device memory and tracks the allocation.
// Returns 0 on any failure with lastError populated.
func (f *Facade) AllocRaw(n int64, tag string) uintptr {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.available || n <= 0 {
		return 0
	}
	ptr, err := f.rt.Alloc(n)
	if err != nil {
		f.lastErr = err
		f.log.Warn().Err(err).Int64("bytes", n).Str("tag", tag).Msg("device alloc failed")
		return 0
	}
	f.allocs = append(f.allocs, trackedAlloc{ptr: ptr, size: n, tag: tag, when: time.Now()})
	return ptr
}

// FreeRaw releases a tracked allocation. Freeing an untracked pointer is
// logged and ignored.
func (f *Facade) FreeRaw(ptr uintptr) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, a := range f.allocs {
		if a.ptr == ptr {
			f.allocs = append(f.allocs[:i], f.allocs[i+1:]...)
			if err := f.rt.Free(ptr); err != nil {
				f.lastErr = err
				f.log.Warn().Err(err).Msg("device free failed")
			}
			return
		}
	}
	f.log.Warn().Uint64("ptr", uint64(ptr)).Msg("free of untracked device pointer")
}

// TrackedBytes returns the sum of live tracked allocations.
func (f *Facade) TrackedBytes() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total int64
	for _, a := range f.allocs {
		total += a.size
	}
	return total
}

// CopyH2D copies host bytes to a device pointer.
func (f *Facade) CopyH2D(dst uintptr, src []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.available {
		return fmt.Errorf("gpu unavailable")
	}
	if err := f.rt.CopyH2D(dst, src); err != nil {
		f.lastErr = err
		return err
	}
	return nil
}

// CopyD2H copies device bytes back to host memory.
func (f *Facade) CopyD2H(dst []byte, src uintptr) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.available {
		return fmt.Errorf("gpu unavailable")
	}
	if err := f.rt.CopyD2H(dst, src); err != nil {
		f.lastErr = err
		return err
	}
	return nil
}

// Synchronize blocks until outstanding device work completes.
func (f *Facade) Synchronize() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.available {
		return nil
	}
	return f.rt.Synchronize()
}

// ResetDevice resets a device and drops tracked allocations for it.
func (f *Facade) ResetDevice(id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.available {
		return fmt.Errorf("gpu unavailable")
	}
	if err := f.rt.Reset(id); err != nil {
		f.lastErr = err
		return err
	}
	return nil
}

// MemoryInfo returns (freeMB, totalMB) for the device.
func (f *Facade) MemoryInfo(id int) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.available {
		return 0, 0, fmt.Errorf("gpu unavailable")
	}
	return f.rt.MemoryInfo(id)
}

// Monitoring queries pass through to the runtime; -1 means unknown.
func (f *Facade) Utilization(id int) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.available {
		return -1
	}
	return f.rt.Utilization(id)
}

func (f *Facade) Temperature(id int) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.available {
		return -1
	}
	return f.rt.Temperature(id)
}

func (f *Facade) Power(id int) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.available {
		return -1
	}
	return f.rt.Power(id)
}

func (f *Facade) MemoryBandwidth(id int) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.available {
		return -1
	}
	return f.rt.MemoryBandwidth(id)
}

// RecommendedDevice picks the device maximizing (freeMB, compute capability)
// in lexicographic order. Returns -1 when no device is available.
func (f *Facade) RecommendedDevice() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.available {
		return -1
	}
	best, bestFree, bestCC := -1, -1, -1
	for id := 0; id < f.rt.DeviceCount(); id++ {
		info, err := f.rt.DeviceInfo(id)
		if err != nil || !info.Available {
			continue
		}
		cc := info.CCMajor*10 + info.CCMinor
		if info.FreeMB > bestFree || (info.FreeMB == bestFree && cc > bestCC) {
			best, bestFree, bestCC = id, info.FreeMB, cc
		}
	}
	return best
}
