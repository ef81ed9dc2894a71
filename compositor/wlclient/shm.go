package wlclient

// #include <stdlib.h>
// #include <unistd.h>
// #include <sys/mman.h>
// #include <wayland-client.h>
import "C"

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/fennwick/glowwall/compositor"
)

// ShmBuffer is an SHM-backed wl_buffer for a static (non-shader) layer: a
// memory-mapped anonymous file handed to the compositor as a pool, sliced
// into one ARGB8888 buffer covering the whole pool.
type ShmBuffer struct {
	dsp  *Display
	pool *C.struct_wl_shm_pool
	hnd  *C.struct_wl_buffer
	data []byte
}

// CreateBuffer allocates a width*height*4 byte anonymous-memory pool and
// wraps it as an ARGB8888 wl_buffer.
func (r *Registry) CreateBuffer(width, height int32) (compositor.Buffer, error) {
	stride := width * 4
	size := int(stride * height)

	fd, err := memfdCreate("glowwall-shm")
	if err != nil {
		return nil, fmt.Errorf("create shm fd: %w", err)
	}
	defer os.NewFile(uintptr(fd), "").Close()

	if err := ftruncate(fd, int64(size)); err != nil {
		return nil, fmt.Errorf("size shm fd: %w", err)
	}

	data, err := mmapShared(fd, size)
	if err != nil {
		return nil, fmt.Errorf("mmap shm fd: %w", err)
	}

	pool := C.wl_shm_create_pool(r.shm, C.int32_t(fd), C.int32_t(size))
	hnd := C.wl_shm_pool_create_buffer(pool, 0, C.int32_t(width), C.int32_t(height), C.int32_t(stride), C.WL_SHM_FORMAT_ARGB8888)

	buf := &ShmBuffer{dsp: r.dsp, pool: pool, hnd: hnd, data: data}
	r.dsp.add((*C.struct_wl_proxy)(unsafe.Pointer(hnd)), buf)
	return buf, nil
}

func (b *ShmBuffer) internal() any { return (*shmBufferEvents)(b) }

type shmBufferEvents ShmBuffer

func (b *shmBufferEvents) Release() {}

// Pixels returns the buffer's memory-mapped pixel storage, BGRA byte order
// (wl_shm ARGB8888 is native-endian 0xAARRGGBB, i.e. B,G,R,A in memory on a
// little-endian host).
func (b *ShmBuffer) Pixels() []byte { return b.data }

func (b *ShmBuffer) AttachTo(surf compositor.Surface) {
	wlSurf, ok := surf.(*Surface)
	if !ok {
		return
	}
	C.wl_surface_attach(wlSurf.hnd, b.hnd, 0, 0)
}

func (b *ShmBuffer) Destroy() {
	C.wl_buffer_destroy(b.hnd)
	b.dsp.forget((*C.struct_wl_proxy)(unsafe.Pointer(b.hnd)))
	C.wl_shm_pool_destroy(b.pool)
	syscallMunmap(b.data)
}
