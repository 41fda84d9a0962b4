package gpu

import (
	"testing"

	"github.com/rs/zerolog"
)

func newTestFacade(t *testing.T, devs ...SimDevice) *Facade {
	t.Helper()
	f := NewFacade(NewSimRuntime(devs...), zerolog.Nop())
	if err := f.Initialize(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(f.Cleanup)
	return f
}

func TestFacadeNoDevices(t *testing.T) {
	f := newTestFacade(t)
	if f.IsAvailable() {
		t.Fatal("no devices should mean unavailable")
	}
	if f.DeviceCount() != 0 || f.ActiveDevice() != -1 {
		t.Fatalf("count=%d active=%d", f.DeviceCount(), f.ActiveDevice())
	}
	if ptr := f.AllocRaw(1024, "x"); ptr != 0 {
		t.Fatal("alloc must fail without a device")
	}
	if f.Utilization(0) != -1 || f.Temperature(0) != -1 {
		t.Fatal("monitoring must report unknown")
	}
	if f.RecommendedDevice() != -1 {
		t.Fatal("no device to recommend")
	}
}

func TestFacadeDeviceSelection(t *testing.T) {
	f := newTestFacade(t,
		SimDevice{Name: "sim0", TotalMB: 4096, CCMajor: 7, CCMinor: 5},
		SimDevice{Name: "sim1", TotalMB: 8192, CCMajor: 8, CCMinor: 6},
	)
	if !f.IsAvailable() || f.DeviceCount() != 2 {
		t.Fatalf("available=%v count=%d", f.IsAvailable(), f.DeviceCount())
	}
	if f.ActiveDevice() != 0 {
		t.Fatalf("active = %d", f.ActiveDevice())
	}
	// sim1 has more free memory.
	if got := f.RecommendedDevice(); got != 1 {
		t.Fatalf("recommended = %d", got)
	}
	if err := f.SetDevice(1); err != nil {
		t.Fatal(err)
	}
	if f.ActiveDevice() != 1 {
		t.Fatalf("active = %d", f.ActiveDevice())
	}
	if err := f.SetDevice(9); err == nil {
		t.Fatal("bogus device id must fail")
	}
}

func TestFacadeAllocTracking(t *testing.T) {
	f := newTestFacade(t, SimDevice{Name: "sim0", TotalMB: 1024, CCMajor: 8, CCMinor: 0})
	a := f.AllocRaw(10*mb, "a")
	b := f.AllocRaw(6*mb, "b")
	if a == 0 || b == 0 {
		t.Fatal("alloc failed")
	}
	if got := f.TrackedBytes(); got != 16*mb {
		t.Fatalf("tracked = %d", got)
	}
	f.FreeRaw(a)
	if got := f.TrackedBytes(); got != 6*mb {
		t.Fatalf("tracked after free = %d", got)
	}
	// Untracked pointer: logged, not fatal.
	f.FreeRaw(0xbeef)

	free, total, err := f.MemoryInfo(0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1024 || free != 1024-6 {
		t.Fatalf("memory info = %d/%d", free, total)
	}
}

func TestFacadeCleanupIdempotent(t *testing.T) {
	f := NewFacade(NewSimRuntime(SimDevice{Name: "sim0", TotalMB: 512}), zerolog.Nop())
	if err := f.Initialize(); err != nil {
		t.Fatal(err)
	}
	f.AllocRaw(mb, "x")
	f.Cleanup()
	if f.IsAvailable() || f.TrackedBytes() != 0 {
		t.Fatal("cleanup did not reset the facade")
	}
	f.Cleanup()
}
