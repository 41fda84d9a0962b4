//go:build cuda

package gpu

// cgo link directives for the CUDA runtime. An rpath of $ORIGIN lets the
// loader find libcudart in the same directory as the built binary.

/*
#cgo LDFLAGS: -Wl,-rpath,'$ORIGIN' -lcudart

#include <cuda_runtime.h>
#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// NewDefaultRuntime returns the cgo CUDA runtime when built with -tags=cuda.
func NewDefaultRuntime() Runtime { return &cudaRuntime{} }

type cudaRuntime struct{}

func cuErr(op string, rc C.cudaError_t) error {
	if rc == C.cudaSuccess {
		return nil
	}
	return fmt.Errorf("%s: %s", op, C.GoString(C.cudaGetErrorString(rc)))
}

func (r *cudaRuntime) Init() error {
	var n C.int
	return cuErr("cudaGetDeviceCount", C.cudaGetDeviceCount(&n))
}

func (r *cudaRuntime) Shutdown() error { return nil }

func (r *cudaRuntime) DeviceCount() int {
	var n C.int
	if C.cudaGetDeviceCount(&n) != C.cudaSuccess {
		return 0
	}
	return int(n)
}

func (r *cudaRuntime) DeviceInfo(id int) (DeviceInfo, error) {
	var prop C.struct_cudaDeviceProp
	if err := cuErr("cudaGetDeviceProperties", C.cudaGetDeviceProperties(&prop, C.int(id))); err != nil {
		return DeviceInfo{}, err
	}
	free, total, err := r.MemoryInfo(id)
	if err != nil {
		return DeviceInfo{}, err
	}
	return DeviceInfo{
		ID:        id,
		Name:      C.GoString(&prop.name[0]),
		TotalMB:   total,
		FreeMB:    free,
		CCMajor:   int(prop.major),
		CCMinor:   int(prop.minor),
		SMCount:   int(prop.multiProcessorCount),
		Available: true,
	}, nil
}

func (r *cudaRuntime) SetDevice(id int) error {
	return cuErr("cudaSetDevice", C.cudaSetDevice(C.int(id)))
}

func (r *cudaRuntime) Alloc(n int64) (uintptr, error) {
	var p unsafe.Pointer
	if err := cuErr("cudaMalloc", C.cudaMalloc(&p, C.size_t(n))); err != nil {
		return 0, err
	}
	return uintptr(p), nil
}

func (r *cudaRuntime) Free(ptr uintptr) error {
	return cuErr("cudaFree", C.cudaFree(unsafe.Pointer(ptr)))
}

func (r *cudaRuntime) CopyH2D(dst uintptr, src []byte) error {
	if len(src) == 0 {
		return nil
	}
	return cuErr("cudaMemcpy", C.cudaMemcpy(unsafe.Pointer(dst), unsafe.Pointer(&src[0]), C.size_t(len(src)), C.cudaMemcpyHostToDevice))
}

func (r *cudaRuntime) CopyD2H(dst []byte, src uintptr) error {
	if len(dst) == 0 {
		return nil
	}
	return cuErr("cudaMemcpy", C.cudaMemcpy(unsafe.Pointer(&dst[0]), unsafe.Pointer(src), C.size_t(len(dst)), C.cudaMemcpyDeviceToHost))
}

func (r *cudaRuntime) Synchronize() error {
	return cuErr("cudaDeviceSynchronize", C.cudaDeviceSynchronize())
}

func (r *cudaRuntime) Reset(id int) error {
	if err := r.SetDevice(id); err != nil {
		return err
	}
	return cuErr("cudaDeviceReset", C.cudaDeviceReset())
}

func (r *cudaRuntime) MemoryInfo(id int) (int, int, error) {
	if err := r.SetDevice(id); err != nil {
		return 0, 0, err
	}
	var free, total C.size_t
	if err := cuErr("cudaMemGetInfo", C.cudaMemGetInfo(&free, &total)); err != nil {
		return 0, 0, err
	}
	return int(free) / (1024 * 1024), int(total) / (1024 * 1024), nil
}

// Utilization, temperature, power and bandwidth need NVML; the runtime API
// does not expose them. Report unknown.
func (r *cudaRuntime) Utilization(id int) float64     { return -1 }
func (r *cudaRuntime) Temperature(id int) float64     { return -1 }
func (r *cudaRuntime) Power(id int) float64           { return -1 }
func (r *cudaRuntime) MemoryBandwidth(id int) float64 { return -1 }
