package smmap

import "fmt"

// StaticManager is the degenerate variant of MemoryMapManager: it ignores
// window size and memory budget entirely, mapping each file whole in a
// single Region the first time a cursor touches it, and never evicting.
// Collect is a no-op that always reports 0 regions freed.
type StaticManager struct {
	files     map[FileKey]*RegionList
	fileOrder []FileKey

	maxHandles   int
	handlesInUse int
	memoryInUse  int64
}

// NewStaticManager builds a StaticManager. A zero maxHandles selects an
// effectively unbounded handle budget, matching Manager's default.
func NewStaticManager(maxHandles int) *StaticManager {
	if maxHandles <= 0 {
		maxHandles = defaultMaxHandles()
	}
	return &StaticManager{
		files:      make(map[FileKey]*RegionList),
		maxHandles: maxHandles,
	}
}

func defaultMaxHandles() int {
	m := NewManager(0, 0, 0)
	return m.maxHandles
}

// MakeCursor looks up (or lazily creates) the RegionList for key and
// returns a new, as-yet-unmapped cursor associated with it.
func (m *StaticManager) MakeCursor(key FileKey) (*Cursor, error) {
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

// Collect is a no-op for StaticManager: whole-file mappings are never
// evicted.
func (m *StaticManager) Collect() int { return 0 }

func (m *StaticManager) collectAll() int { return 0 }

// windowSizeHint returns requested unchanged: since StaticManager maps the
// whole file in one go, there is no real window to clamp to, and
// ensureRegion maps the entire file on first use regardless of size.
func (m *StaticManager) windowSizeHint(requested int64) int64 { return requested }

// ensureRegion maps the entire file the first time it's touched and
// reuses that single Region for every subsequent call.
func (m *StaticManager) ensureRegion(list *RegionList, offset, size int64, flags int, isRetry bool) (*Region, error) {
	if r := list.find(offset); r != nil {
		return r, nil
	}

	if m.handlesInUse >= m.maxHandles {
		return nil, fmt.Errorf("%w: handle budget of %d exhausted", ErrMapFailed, m.maxHandles)
	}

	region, err := openRegion(list.key, list.fileSize, 0, list.fileSize, flags)
	if err != nil {
		return nil, err
	}
	list.insertAt(0, region)
	m.memoryInUse += region.Size()
	m.handlesInUse++
	return region, nil
}

func (m *StaticManager) releaseList(rl *RegionList) {
	if rl.cursorRefs == 0 && rl.empty() {
		delete(m.files, rl.key)
	}
}

// NumFileHandles is the number of live whole-file mappings.
func (m *StaticManager) NumFileHandles() int { return m.handlesInUse }

// NumOpenFiles is the number of files with a live mapping.
func (m *StaticManager) NumOpenFiles() int {
	n := 0
	for _, rl := range m.files {
		if !rl.empty() {
			n++
		}
	}
	return n
}

// MappedMemorySize is the total number of bytes currently mapped.
func (m *StaticManager) MappedMemorySize() int64 { return m.memoryInUse }

// MaxMappedMemorySize reports the memory budget as unbounded: static
// mappings never evict, so there is no meaningful ceiling.
func (m *StaticManager) MaxMappedMemorySize() int64 { return 1<<63 - 1 }

// WindowSize is effectively unbounded for StaticManager.
func (m *StaticManager) WindowSize() int64 { return 1<<63 - 1 }

// PageSize is the OS page size.
func (m *StaticManager) PageSize() int64 { return pageSize }

// MaxFileHandles is the configured (or defaulted) handle budget.
func (m *StaticManager) MaxFileHandles() int { return m.maxHandles }

var (
	_ MemoryMapManager = (*StaticManager)(nil)
	_ provider         = (*StaticManager)(nil)
)
