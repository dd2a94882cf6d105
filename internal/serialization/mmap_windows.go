//go:build windows

package serialization

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"
)

// mmapFile maps size bytes of f into memory read-only via a file
// mapping object. The mapping handle is closed immediately; the view
// keeps the mapping alive until munmapFile.
func mmapFile(f *os.File, size int64) ([]byte, error) {
	handle, err := syscall.CreateFileMapping(
		syscall.Handle(f.Fd()),
		nil,
		syscall.PAGE_READONLY,
		uint32(size>>32), //nolint:gosec // G115: high dword of the 64-bit size
		uint32(size),     //nolint:gosec // G115: low dword of the 64-bit size
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("CreateFileMapping: %w", err)
	}
	defer syscall.CloseHandle(handle) //nolint:errcheck // view outlives the handle

	addr, err := syscall.MapViewOfFile(
		handle,
		syscall.FILE_MAP_READ,
		0,
		0,
		uintptr(size), //nolint:gosec // G115: size fits in uintptr on windows
	)
	if err != nil {
		return nil, fmt.Errorf("MapViewOfFile: %w", err)
	}

	//nolint:gosec // G103: addr is a valid view base for exactly size bytes
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

// munmapFile releases a view created by mmapFile.
func munmapFile(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("cannot unmap empty data")
	}
	//nolint:gosec // G103: recovers the view base address passed to unsafe.Slice
	return syscall.UnmapViewOfFile(uintptr(unsafe.Pointer(unsafe.SliceData(data))))
}
