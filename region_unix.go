//go:build !windows

package smmap

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func osPageSize() int64 {
	return int64(unix.Getpagesize())
}

// mmapFile maps [ofs, ofs+length) of the file identified by key read-only
// and shared. The file descriptor opened (or dup'd) to perform the mmap is
// closed immediately afterward; the mapping itself is what keeps the file
// alive from here on.
func mmapFile(key FileKey, ofs, length int64, flags int) ([]byte, error) {
	fd, err := openForMapping(key, flags)
	if err != nil {
		return nil, err
	}
	defer unix.Close(fd)

	data, err := unix.Mmap(fd, ofs, int(length), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap offset %d length %d: %w", ofs, length, err)
	}
	return data, nil
}

func munmapFile(data []byte) error {
	return unix.Munmap(data)
}

func openForMapping(key FileKey, flags int) (int, error) {
	if path, ok := key.Path(); ok {
		fd, err := unix.Open(path, unix.O_RDONLY|flags, 0)
		if err != nil {
			return 0, fmt.Errorf("open %s: %w", path, err)
		}
		return fd, nil
	}
	fd, ok := key.FD()
	if !ok {
		return 0, fmt.Errorf("smmap: file key %v is neither a path nor an fd", key)
	}
	dup, err := unix.Dup(fd)
	if err != nil {
		return 0, fmt.Errorf("dup fd %d: %w", fd, err)
	}
	return dup, nil
}

// statSize returns the current size in bytes of the file identified by key.
func statSize(key FileKey) (int64, error) {
	var stat unix.Stat_t
	if path, ok := key.Path(); ok {
		if err := unix.Stat(path, &stat); err != nil {
			return 0, fmt.Errorf("stat %s: %w", path, err)
		}
		return stat.Size, nil
	}
	fd, ok := key.FD()
	if !ok {
		return 0, fmt.Errorf("smmap: file key %v is neither a path nor an fd", key)
	}
	if err := unix.Fstat(fd, &stat); err != nil {
		return 0, fmt.Errorf("fstat %d: %w", fd, err)
	}
	return stat.Size, nil
}

// forceUnmapMatching is the Windows-only escape hatch described in the
// design spec; on unix it has nothing to do since unlinking a file whose
// pages are still mapped is always legal.
func forceUnmapMatching(*Manager, string) int {
	return 0
}
