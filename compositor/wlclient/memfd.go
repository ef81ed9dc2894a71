package wlclient

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// memfdCreate allocates an anonymous close-on-exec memory file suitable for
// a wl_shm pool. The caller owns the returned fd and closes it; the fd is
// only needed for the initial wl_shm_create_pool call.
func memfdCreate(name string) (int, error) {
	fd, err := unix.MemfdCreate(name, unix.MFD_CLOEXEC)
	if err != nil {
		return 0, fmt.Errorf("memfd_create: %w", err)
	}
	return fd, nil
}

func ftruncate(fd int, size int64) error {
	return unix.Ftruncate(fd, size)
}

func mmapShared(fd int, size int) ([]byte, error) {
	return unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

func syscallMunmap(data []byte) {
	_ = unix.Munmap(data)
}
