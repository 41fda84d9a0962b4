//go:build !cuda

package gpu

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// NewDefaultRuntime returns the runtime compiled into this binary.
// Without the 'cuda' build tag this is a simulated runtime with no devices,
// so the facade reports unavailable and callers fall back to CPU.
func NewDefaultRuntime() Runtime { return NewSimRuntime() }

// SimDevice configures one simulated device.
type SimDevice struct {
	Name    string
	TotalMB int
	CCMajor int
	CCMinor int
	SMCount int
}

// SimRuntime is an in-memory Runtime used by default builds and tests.
// Allocations are byte slices pinned in a map; pointers are synthetic and
// monotonically increasing so pool adjacency logic behaves like real device
// offsets.
type SimRuntime struct {
	mu      sync.Mutex
	devices []SimDevice
	usedMB  []int
	active  int
	nextPtr uintptr
	allocs  map[uintptr]int64
	inited  atomic.Bool
	// FailAlloc forces Alloc to fail; used to exercise fallback paths.
	FailAlloc bool
}

// NewSimRuntime returns a runtime with no devices.
func NewSimRuntime(devs ...SimDevice) *SimRuntime {
	return &SimRuntime{
		devices: devs,
		usedMB:  make([]int, len(devs)),
		nextPtr: 0x1000,
		allocs:  make(map[uintptr]int64),
	}
}

func (s *SimRuntime) Init() error {
	s.inited.Store(true)
	return nil
}

func (s *SimRuntime) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allocs = make(map[uintptr]int64)
	for i := range s.usedMB {
		s.usedMB[i] = 0
	}
	s.inited.Store(false)
	return nil
}

func (s *SimRuntime) DeviceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.devices)
}

func (s *SimRuntime) DeviceInfo(id int) (DeviceInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.devices) {
		return DeviceInfo{}, fmt.Errorf("no such device: %d", id)
	}
	d := s.devices[id]
	return DeviceInfo{
		ID:        id,
		Name:      d.Name,
		TotalMB:   d.TotalMB,
		FreeMB:    d.TotalMB - s.usedMB[id],
		CCMajor:   d.CCMajor,
		CCMinor:   d.CCMinor,
		SMCount:   d.SMCount,
		Available: true,
	}, nil
}

func (s *SimRuntime) SetDevice(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.devices) {
		return fmt.Errorf("no such device: %d", id)
	}
	s.active = id
	return nil
}

func (s *SimRuntime) Alloc(n int64) (uintptr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.devices) == 0 {
		return 0, fmt.Errorf("no device")
	}
	if s.FailAlloc {
		return 0, fmt.Errorf("out of memory: simulated allocation failure")
	}
	mb := int((n + 1024*1024 - 1) / (1024 * 1024))
	if s.usedMB[s.active]+mb > s.devices[s.active].TotalMB {
		return 0, fmt.Errorf("out of memory: %d MB requested, %d MB free", mb, s.devices[s.active].TotalMB-s.usedMB[s.active])
	}
	ptr := s.nextPtr
	s.nextPtr += uintptr(n)
	s.allocs[ptr] = n
	s.usedMB[s.active] += mb
	return ptr, nil
}

func (s *SimRuntime) Free(ptr uintptr) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.allocs[ptr]
	if !ok {
		return fmt.Errorf("unknown device pointer: %#x", ptr)
	}
	delete(s.allocs, ptr)
	mb := int((n + 1024*1024 - 1) / (1024 * 1024))
	s.usedMB[s.active] -= mb
	if s.usedMB[s.active] < 0 {
		s.usedMB[s.active] = 0
	}
	return nil
}

func (s *SimRuntime) CopyH2D(dst uintptr, src []byte) error {
	if !s.inited.Load() {
		return fmt.Errorf("runtime not initialized")
	}
	return nil
}

func (s *SimRuntime) CopyD2H(dst []byte, src uintptr) error {
	if !s.inited.Load() {
		return fmt.Errorf("runtime not initialized")
	}
	return nil
}

func (s *SimRuntime) Synchronize() error { return nil }

func (s *SimRuntime) Reset(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.devices) {
		return fmt.Errorf("no such device: %d", id)
	}
	s.usedMB[id] = 0
	return nil
}

func (s *SimRuntime) MemoryInfo(id int) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.devices) {
		return 0, 0, fmt.Errorf("no such device: %d", id)
	}
	return s.devices[id].TotalMB - s.usedMB[id], s.devices[id].TotalMB, nil
}

// Monitoring values are not modeled by the simulator.
func (s *SimRuntime) Utilization(id int) float64     { return -1 }
func (s *SimRuntime) Temperature(id int) float64     { return -1 }
func (s *SimRuntime) Power(id int) float64           { return -1 }
func (s *SimRuntime) MemoryBandwidth(id int) float64 { return -1 }
