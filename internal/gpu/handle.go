package gpu

// BlockHandle owns one pool allocation and returns it on Close. Handles are
// single-owner: pass the pointer, never copy the struct. Release hands the
// raw pointer back to the caller and disables Close.
type BlockHandle struct {
	pool *Pool
	ptr  uintptr
	size int64
}

// AllocateHandle is Allocate wrapped in an owning handle.
func (p *Pool) AllocateHandle(size int64, tag string) (*BlockHandle, error) {
	ptr, err := p.Allocate(size, tag)
	if err != nil {
		return nil, err
	}
	return &BlockHandle{pool: p, ptr: ptr, size: size}, nil
}

// Ptr returns the device pointer, 0 after Close or Release.
func (h *BlockHandle) Ptr() uintptr { return h.ptr }

// Size returns the requested allocation size in bytes.
func (h *BlockHandle) Size() int64 { return h.size }

// DeviceID returns the device the block lives on.
func (h *BlockHandle) DeviceID() int {
	if h.pool == nil {
		return -1
	}
	return h.pool.DeviceID()
}

// Close deallocates the block. Safe to call more than once.
func (h *BlockHandle) Close() {
	if h.pool == nil || h.ptr == 0 {
		return
	}
	h.pool.Deallocate(h.ptr)
	h.ptr = 0
	h.pool = nil
}

// Release transfers ownership of the pointer to the caller; Close becomes a
// no-op. The caller is responsible for deallocating it.
func (h *BlockHandle) Release() uintptr {
	ptr := h.ptr
	h.ptr = 0
	h.pool = nil
	return ptr
}
