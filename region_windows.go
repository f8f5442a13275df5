//go:build windows

package smmap

import (
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

func osPageSize() int64 {
	var info windows.SystemInfo
	windows.GetSystemInfo(&info)
	return int64(info.PageSize)
}

// mmapFile maps [ofs, ofs+length) of the file identified by key read-only
// and shared, using CreateFileMapping/MapViewOfFile the way the rest of
// this corpus's Windows mmap shims do. A handle opened from a path key is
// closed afterward; an fd key's handle belongs to the caller and is left
// open.
func mmapFile(key FileKey, ofs, length int64, flags int) ([]byte, error) {
	handle, path, err := openForMapping(key, flags)
	if err != nil {
		return nil, err
	}
	if path != "" {
		defer windows.CloseHandle(handle)
	}

	mapHandle, err := windows.CreateFileMapping(handle, nil, windows.PAGE_READONLY, uint32((ofs+length)>>32), uint32((ofs+length)&0xffffffff), nil)
	if err != nil {
		return nil, fmt.Errorf("CreateFileMapping: %w", err)
	}
	defer windows.CloseHandle(mapHandle)

	addr, err := windows.MapViewOfFile(mapHandle, windows.FILE_MAP_READ, uint32(ofs>>32), uint32(ofs&0xffffffff), uintptr(length))
	if err != nil {
		return nil, fmt.Errorf("MapViewOfFile: %w", err)
	}

	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(length))

	if path != "" {
		trackMapping(path, addr)
	}

	return data, nil
}

func munmapFile(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	addr := uintptr(unsafe.Pointer(&data[0]))
	untrackMapping(addr)
	return windows.UnmapViewOfFile(addr)
}

func openForMapping(key FileKey, flags int) (windows.Handle, string, error) {
	if path, ok := key.Path(); ok {
		p, err := windows.UTF16PtrFromString(path)
		if err != nil {
			return 0, "", fmt.Errorf("smmap: invalid path %s: %w", path, err)
		}
		handle, err := windows.CreateFile(p, windows.GENERIC_READ, windows.FILE_SHARE_READ, nil, windows.OPEN_EXISTING, windows.FILE_ATTRIBUTE_NORMAL, 0)
		if err != nil {
			return 0, "", fmt.Errorf("open %s: %w", path, err)
		}
		return handle, path, nil
	}
	fd, ok := key.FD()
	if !ok {
		return 0, "", fmt.Errorf("smmap: file key %v is neither a path nor an fd", key)
	}
	return windows.Handle(fd), "", nil
}

func statSize(key FileKey) (int64, error) {
	if path, ok := key.Path(); ok {
		p, err := windows.UTF16PtrFromString(path)
		if err != nil {
			return 0, fmt.Errorf("smmap: invalid path %s: %w", path, err)
		}
		handle, err := windows.CreateFile(p, windows.GENERIC_READ, windows.FILE_SHARE_READ, nil, windows.OPEN_EXISTING, windows.FILE_ATTRIBUTE_NORMAL, 0)
		if err != nil {
			return 0, fmt.Errorf("stat %s: %w", path, err)
		}
		defer windows.CloseHandle(handle)
		var size int64
		if err := windows.GetFileSizeEx(handle, &size); err != nil {
			return 0, fmt.Errorf("GetFileSizeEx %s: %w", path, err)
		}
		return size, nil
	}
	fd, ok := key.FD()
	if !ok {
		return 0, fmt.Errorf("smmap: file key %v is neither a path nor an fd", key)
	}
	var size int64
	if err := windows.GetFileSizeEx(windows.Handle(fd), &size); err != nil {
		return 0, fmt.Errorf("GetFileSizeEx fd %d: %w", fd, err)
	}
	return size, nil
}

// mappingTracker records which path each live view is backed by, so
// forceUnmapMatching can locate and tear down every mapping whose source
// file starts with a given prefix. This is the documented, explicitly
// unsafe escape hatch needed to unlink a file on Windows while smmap still
// holds views into it.
var (
	mappingMu sync.Mutex
	mappings  = map[uintptr]string{}
)

func trackMapping(path string, addr uintptr) {
	mappingMu.Lock()
	mappings[addr] = path
	mappingMu.Unlock()
}

func untrackMapping(addr uintptr) {
	mappingMu.Lock()
	delete(mappings, addr)
	mappingMu.Unlock()
}

// forceUnmapMatching closes any mapping whose backing path starts with
// basePath so the file can be unlinked. Cursors still holding those
// mappings are left with dangling views: using them afterward is
// undefined behavior.
func forceUnmapMatching(m *Manager, basePath string) int {
	mappingMu.Lock()
	var victims []uintptr
	for addr, path := range mappings {
		if strings.HasPrefix(path, basePath) {
			victims = append(victims, addr)
		}
	}
	mappingMu.Unlock()

	for _, addr := range victims {
		windows.UnmapViewOfFile(addr)
		mappingMu.Lock()
		delete(mappings, addr)
		mappingMu.Unlock()
	}
	return len(victims)
}
