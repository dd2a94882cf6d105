//go:build unix

package serialization

import (
	"os"
	"syscall"
)

// mmapFile maps size bytes of f into memory read-only. The mapping is
// shared so the page cache backs it directly.
func mmapFile(f *os.File, size int64) ([]byte, error) {
	fd := int(f.Fd()) //nolint:gosec // G115: file descriptor fits in int
	//nolint:gosec // G115: size is validated against the file length by the caller
	return syscall.Mmap(fd, 0, int(size), syscall.PROT_READ, syscall.MAP_SHARED)
}

// munmapFile releases a mapping created by mmapFile.
func munmapFile(data []byte) error {
	return syscall.Munmap(data)
}
