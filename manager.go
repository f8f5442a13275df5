package smmap

import (
	"fmt"
	"math"
	"unsafe"
)

// is64Bit is true on platforms where uintptr is 8 bytes; it drives the
// zero-value defaults for window size and memory budget.
const is64Bit = unsafe.Sizeof(uintptr(0)) == 8

const (
	defaultWindowSize64 int64 = 1 << 30 // 1 GiB
	defaultMaxMemory64  int64 = 8 << 30 // 8 GiB
	defaultWindowSize32 int64 = 32 << 20
	defaultMaxMemory32  int64 = 512 << 20
)

func defaultWindowSize() int64 {
	if is64Bit {
		return defaultWindowSize64
	}
	return defaultWindowSize32
}

func defaultMaxMemory() int64 {
	if is64Bit {
		return defaultMaxMemory64
	}
	return defaultMaxMemory32
}

// pageSize is discovered once from the OS and used to align every Window.
var pageSize = osPageSize()

// MemoryMapManager is the public surface shared by Manager and
// StaticManager: the two flavours of memory-map manager this package
// ships, differing only in their mapping and eviction policy.
type MemoryMapManager interface {
	// MakeCursor returns a new cursor associated with (but not yet
	// pointing into) the file identified by key.
	MakeCursor(key FileKey) (*Cursor, error)

	// Collect evicts every currently-unused region across every file and
	// returns how many were freed.
	Collect() int

	NumFileHandles() int
	NumOpenFiles() int
	MappedMemorySize() int64
	MaxMappedMemorySize() int64
	WindowSize() int64
	PageSize() int64
	MaxFileHandles() int
}

// provider is the internal interface Cursor uses to talk back to whichever
// manager minted it, without needing to know if it's a Manager or a
// StaticManager.
type provider interface {
	windowSizeHint(requested int64) int64
	ensureRegion(list *RegionList, offset, size int64, flags int, isRetry bool) (*Region, error)
	collectAll() int
	releaseList(rl *RegionList)
}

// Manager is the sliding-window memory-map manager: it maps bounded,
// page-aligned windows of each file and evicts the least-recently-used
// unused window whenever a memory or handle budget would be exceeded.
type Manager struct {
	files     map[FileKey]*RegionList
	fileOrder []FileKey

	windowSize int64
	maxMemory  int64
	maxHandles int

	memoryInUse  int64
	handlesInUse int
}

// NewManager builds a Manager. A zero windowSize or maxMemory selects the
// platform default (1 GiB window / 8 GiB budget on 64-bit hosts, 32 MiB /
// 512 MiB on 32-bit hosts); a zero maxHandles selects an effectively
// unbounded handle budget.
func NewManager(windowSize, maxMemory int64, maxHandles int) *Manager {
	if windowSize <= 0 {
		windowSize = defaultWindowSize()
	}
	if maxMemory <= 0 {
		maxMemory = defaultMaxMemory()
	}
	if maxHandles <= 0 {
		maxHandles = math.MaxInt32
	}
	return &Manager{
		files:      make(map[FileKey]*RegionList),
		windowSize: windowSize,
		maxMemory:  maxMemory,
		maxHandles: maxHandles,
	}
}

// MakeCursor looks up (or lazily creates) the RegionList for key and
// returns a new, as-yet-unmapped cursor associated with it.
func (m *Manager) MakeCursor(key FileKey) (*Cursor, error) {
	rl, ok := m.files[key]
	if !ok {
		var err error
		rl, err = newRegionList(key)
		if err != nil {
			return nil, err
		}
		m.files[key] = rl
		m.fileOrder = append(m.fileOrder, key)
	}
	rl.cursorRefs++
	return &Cursor{backend: m, list: rl}, nil
}

// Collect evicts every currently unused region and returns the count
// freed. It never fails: with size=0 the collector simply stops once
// there is nothing left to evict.
func (m *Manager) Collect() int {
	n, _ := m.collectLRU(0)
	return n
}

func (m *Manager) collectAll() int { return m.Collect() }

// collectLRU is the core LRU algorithm from the design spec: it evicts
// unused regions, smallest usage count first, until either size bytes of
// headroom exist under maxMemory (size == 0 means "evict everything
// evictable") or no further eviction candidate remains.
func (m *Manager) collectLRU(size int64) (int, error) {
	found := 0
	for {
		if size != 0 && m.memoryInUse+size <= m.maxMemory {
			break
		}

		rl, idx := m.findEvictionVictim()
		if rl == nil {
			if size != 0 && found == 0 {
				return found, fmt.Errorf("%w: wanted %d bytes, %d in use of %d max", ErrRegionCollectionError, size, m.memoryInUse, m.maxMemory)
			}
			break
		}

		victim := rl.removeAt(idx)
		m.memoryInUse -= victim.Size()
		m.handlesInUse--
		if err := victim.close(); err != nil {
			logger.WithError(err).Warn("smmap: failed to unmap an evicted region")
		}
		found++
		m.releaseList(rl)
	}
	return found, nil
}

// findEvictionVictim scans every region of every file, in file-insertion
// order and then region order, and returns the list/index of the
// unused region with the smallest usage count. Ties go to whichever is
// encountered first, which this deterministic scan order guarantees.
func (m *Manager) findEvictionVictim() (*RegionList, int) {
	var (
		bestList  *RegionList
		bestIdx   = -1
		bestUsage uint64
	)
	for _, key := range m.fileOrder {
		rl, ok := m.files[key]
		if !ok {
			continue
		}
		for i, r := range rl.regions {
			if r.ClientCount() != 0 {
				continue
			}
			if bestList == nil || r.UsageCount() < bestUsage {
				bestList = rl
				bestIdx = i
				bestUsage = r.UsageCount()
			}
		}
	}
	return bestList, bestIdx
}

// windowSizeHint clamps requested to the manager's configured window size,
// per the use_region contract: size := min(size, manager.window_size).
func (m *Manager) windowSizeHint(requested int64) int64 {
	if requested > m.windowSize {
		return m.windowSize
	}
	return requested
}

// ensureRegion implements step 6 of the use_region algorithm: compute the
// largest page-aligned window around offset that doesn't overlap
// neighbours or exceed the window size, then map it, evicting via LRU
// first if the budgets require it.
func (m *Manager) ensureRegion(list *RegionList, offset, size int64, flags int, isRetry bool) (*Region, error) {
	insertPos := list.insertPos(offset)
	left, right := list.neighbours(insertPos)

	mid := Window{Ofs: offset, Size: size}
	mid.ExtendLeftTo(left, m.windowSize)
	mid.ExtendRightTo(right, m.windowSize)
	mid.Align()
	if mid.OfsEnd() > right.Ofs {
		mid.Size = right.Ofs - mid.Ofs
	}

	if m.memoryInUse+m.windowSize > m.maxMemory {
		if _, err := m.collectLRU(m.windowSize); err != nil {
			return nil, err
		}
	}

	var (
		region *Region
		err    error
	)
	if m.handlesInUse >= m.maxHandles {
		err = fmt.Errorf("%w: handle budget of %d exhausted", ErrMapFailed, m.maxHandles)
	} else {
		region, err = openRegion(list.key, list.fileSize, mid.Ofs, mid.Size, flags)
	}

	if err != nil {
		if isRetry {
			return nil, err
		}
		logger.WithError(err).Debug("smmap: mapping attempt failed, running aggressive collection and retrying once")
		m.Collect()
		return m.ensureRegion(list, offset, size, flags, true)
	}

	insertPos = list.insertPos(mid.Ofs)
	list.insertAt(insertPos, region)
	m.memoryInUse += region.Size()
	m.handlesInUse++
	return region, nil
}

// releaseList removes rl from the manager's table if no cursor is
// associated with it anymore and it holds no regions.
func (m *Manager) releaseList(rl *RegionList) {
	if rl.cursorRefs == 0 && rl.empty() {
		delete(m.files, rl.key)
	}
}

// NumFileHandles is the number of live regions (== open mmap handles)
// across every mapped file.
func (m *Manager) NumFileHandles() int { return m.handlesInUse }

// NumOpenFiles is the number of files with at least one live region.
func (m *Manager) NumOpenFiles() int {
	n := 0
	for _, rl := range m.files {
		if !rl.empty() {
			n++
		}
	}
	return n
}

// MappedMemorySize is the total number of bytes currently mapped.
func (m *Manager) MappedMemorySize() int64 { return m.memoryInUse }

// MaxMappedMemorySize is the configured memory budget.
func (m *Manager) MaxMappedMemorySize() int64 { return m.maxMemory }

// WindowSize is the configured (or defaulted) window size.
func (m *Manager) WindowSize() int64 { return m.windowSize }

// PageSize is the OS page size.
func (m *Manager) PageSize() int64 { return pageSize }

// MaxFileHandles is the configured (or defaulted) handle budget.
func (m *Manager) MaxFileHandles() int { return m.maxHandles }

// ForceUnmapMatching is a Windows-only escape hatch that closes any
// mapping whose backing path starts with basePath, so the file can be
// unlinked. Cursors still holding those mappings are left with dangling
// views afterward: using them is undefined behavior. On non-Windows
// platforms this is a no-op that always returns 0, since unlinking a file
// with live mappings is always safe there.
func (m *Manager) ForceUnmapMatching(basePath string) int {
	return forceUnmapMatching(m, basePath)
}

var (
	_ MemoryMapManager = (*Manager)(nil)
	_ provider         = (*Manager)(nil)
)
