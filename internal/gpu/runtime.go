package gpu

// DeviceInfo describes one device as reported by the runtime.
type DeviceInfo struct {
	ID        int
	Name      string
	TotalMB   int
	FreeMB    int
	CCMajor   int
	CCMinor   int
	SMCount   int
	Available bool
}

// ComputeCapability returns the capability as a single comparable number
// (major.minor, e.g. 8.6).
func (d DeviceInfo) ComputeCapability() float64 {
	return float64(d.CCMajor) + float64(d.CCMinor)/10
}

// Runtime abstracts the device driver. The facade is the only caller.
// Concrete implementations: the cgo CUDA runtime (build tag 'cuda') and the
// simulated runtime used by default builds and tests.
type Runtime interface {
	Init() error
	Shutdown() error
	DeviceCount() int
	DeviceInfo(id int) (DeviceInfo, error)
	SetDevice(id int) error
	// Alloc returns a device pointer for n bytes, 0 on failure.
	Alloc(n int64) (uintptr, error)
	Free(ptr uintptr) error
	CopyH2D(dst uintptr, src []byte) error
	CopyD2H(dst []byte, src uintptr) error
	Synchronize() error
	Reset(id int) error
	// MemoryInfo returns (freeMB, totalMB) for the device.
	MemoryInfo(id int) (int, int, error)
	// Monitoring queries return -1 when the driver cannot answer.
	Utilization(id int) float64
	Temperature(id int) float64
	Power(id int) float64
	MemoryBandwidth(id int) float64
}
