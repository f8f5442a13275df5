package smmap

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func TestManagerDefaults(t *testing.T) {
	m := NewManager(0, 0, 0)
	if m.WindowSize() != defaultWindowSize() {
		t.Fatalf("WindowSize() = %d, want default %d", m.WindowSize(), defaultWindowSize())
	}
	if m.MaxMappedMemorySize() != defaultMaxMemory() {
		t.Fatalf("MaxMappedMemorySize() = %d, want default %d", m.MaxMappedMemorySize(), defaultMaxMemory())
	}
	if m.MaxFileHandles() <= 0 {
		t.Fatalf("MaxFileHandles() = %d, want a large positive default", m.MaxFileHandles())
	}
}

func TestCursorBasicUseRegion(t *testing.T) {
	path, data := makeTestFile(t, 8005195)
	m := NewManager(80051, int64(len(data))/3, 15)

	c, err := m.MakeCursor(PathKey(path))
	if err != nil {
		t.Fatalf("MakeCursor: %v", err)
	}
	defer c.Close()

	if _, err := c.UseRegion(10, 10, 0); err != nil {
		t.Fatalf("UseRegion: %v", err)
	}
	if !c.IsValid() {
		t.Fatalf("cursor should be valid")
	}
	if c.OfsBegin() != 10 {
		t.Fatalf("OfsBegin() = %d, want 10", c.OfsBegin())
	}
	if c.Size() != 10 {
		t.Fatalf("Size() = %d, want 10", c.Size())
	}
	if !bytes.Equal(c.Buffer(), data[10:20]) {
		t.Fatalf("Buffer() mismatch")
	}
}

func TestCursorReusesSameRegion(t *testing.T) {
	path, _ := makeTestFile(t, 8005195)
	windowSize := int64(80051)
	m := NewManager(windowSize, 8005195/3, 15)

	c, err := m.MakeCursor(PathKey(path))
	if err != nil {
		t.Fatalf("MakeCursor: %v", err)
	}
	defer c.Close()

	if _, err := c.UseRegion(5000, windowSize/2, 0); err != nil {
		t.Fatalf("UseRegion: %v", err)
	}
	handlesAfterFirst := m.NumFileHandles()

	if _, err := c.UseRegion(0, windowSize/2-10, 0); err != nil {
		t.Fatalf("UseRegion: %v", err)
	}
	if m.NumFileHandles() != handlesAfterFirst {
		t.Fatalf("expected the same region to be reused, handles went from %d to %d", handlesAfterFirst, m.NumFileHandles())
	}
	if c.OfsBegin() != 0 {
		t.Fatalf("OfsBegin() = %d, want 0", c.OfsBegin())
	}
	if c.Size() != windowSize/2-10 {
		t.Fatalf("Size() = %d, want %d", c.Size(), windowSize/2-10)
	}
}

func TestCursorNewRegionNearEOF(t *testing.T) {
	fileSize := int64(8005195)
	path, data := makeTestFile(t, fileSize)
	windowSize := int64(80051)
	m := NewManager(windowSize, fileSize/3, 15)

	c, err := m.MakeCursor(PathKey(path))
	if err != nil {
		t.Fatalf("MakeCursor: %v", err)
	}
	defer c.Close()

	if _, err := c.UseRegion(fileSize-windowSize/2+4000, windowSize/2, 0); err != nil {
		t.Fatalf("UseRegion: %v", err)
	}
	if !c.IsValid() {
		t.Fatalf("cursor should be valid near EOF")
	}
	if c.Size() >= windowSize/2 {
		t.Fatalf("Size() = %d, want < %d (clipped to EOF)", c.Size(), windowSize/2)
	}
	want := data[c.OfsBegin():c.OfsEnd()]
	if !bytes.Equal(c.Buffer(), want) {
		t.Fatalf("Buffer() mismatch near EOF")
	}
}

func TestUseRegionAtOrPastEOF(t *testing.T) {
	fileSize := int64(8005195)
	path, _ := makeTestFile(t, fileSize)
	m := NewManager(80051, fileSize/3, 15)

	c, err := m.MakeCursor(PathKey(path))
	if err != nil {
		t.Fatalf("MakeCursor: %v", err)
	}
	defer c.Close()

	if _, err := c.UseRegion(fileSize, 1, 0); err != nil {
		t.Fatalf("UseRegion at EOF returned an error instead of going invalid: %v", err)
	}
	if c.IsValid() {
		t.Fatalf("cursor should be invalid at offset == file size")
	}

	if _, err := c.UseRegion(fileSize-1, 1, 0); err != nil {
		t.Fatalf("UseRegion: %v", err)
	}
	if !c.IsValid() {
		t.Fatalf("cursor should be valid at offset == file size - 1")
	}
	if c.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", c.Size())
	}
}

func TestUseRegionClampsToWindowSize(t *testing.T) {
	fileSize := int64(8005195)
	path, _ := makeTestFile(t, fileSize)
	windowSize := int64(80051)
	m := NewManager(windowSize, fileSize/3, 15)

	c, err := m.MakeCursor(PathKey(path))
	if err != nil {
		t.Fatalf("MakeCursor: %v", err)
	}
	defer c.Close()

	if _, err := c.UseRegion(0, windowSize+5000, 0); err != nil {
		t.Fatalf("UseRegion: %v", err)
	}
	if c.Size() > windowSize {
		t.Fatalf("Size() = %d, want <= windowSize %d", c.Size(), windowSize)
	}
}

func TestSmallFileMapsInOneRegion(t *testing.T) {
	path, data := makeTestFile(t, pageSize/2)
	m := NewManager(0, 0, 0)

	c, err := m.MakeCursor(PathKey(path))
	if err != nil {
		t.Fatalf("MakeCursor: %v", err)
	}
	defer c.Close()

	if _, err := c.UseRegion(0, int64(len(data)), 0); err != nil {
		t.Fatalf("UseRegion: %v", err)
	}
	if m.NumFileHandles() != 1 {
		t.Fatalf("NumFileHandles() = %d, want 1", m.NumFileHandles())
	}
	if !bytes.Equal(c.Buffer(), data) {
		t.Fatalf("Buffer() mismatch for whole small file")
	}
}

func TestRandomWalkStaysWithinBudgetsAndReadsMatch(t *testing.T) {
	fileSize := int64(8005195)
	path, data := makeTestFile(t, fileSize)
	windowSize := int64(80051)
	maxMemory := fileSize / 3
	maxHandles := 15
	m := NewManager(windowSize, maxMemory, maxHandles)

	c, err := m.MakeCursor(PathKey(path))
	if err != nil {
		t.Fatalf("MakeCursor: %v", err)
	}
	defer c.Close()

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5000; i++ {
		offset := rng.Int63n(fileSize)
		if _, err := c.UseRegion(offset, windowSize/2, 0); err != nil {
			t.Fatalf("iteration %d: UseRegion(%d): %v", i, offset, err)
		}
		if m.MappedMemorySize() > m.MaxMappedMemorySize() {
			t.Fatalf("iteration %d: mapped memory %d exceeds budget %d", i, m.MappedMemorySize(), m.MaxMappedMemorySize())
		}
		if m.NumFileHandles() > maxHandles {
			t.Fatalf("iteration %d: handles %d exceeds budget %d", i, m.NumFileHandles(), maxHandles)
		}
		if c.IsValid() {
			got := c.Buffer()
			want := data[c.OfsBegin():c.OfsEnd()]
			if !bytes.Equal(got, want) {
				t.Fatalf("iteration %d: read mismatch at offset %d", i, offset)
			}
		}
	}

	c.UnuseRegion()
	freed := m.Collect()
	if freed <= 0 {
		t.Fatalf("Collect() = %d, want a positive count of freed regions", freed)
	}
	if m.NumFileHandles() != 0 {
		t.Fatalf("NumFileHandles() = %d after Collect(), want 0", m.NumFileHandles())
	}
	if m.Collect() != 0 {
		t.Fatalf("second Collect() should be idempotent and free nothing")
	}
}

func TestCollectFailsWhenNothingIsEvictable(t *testing.T) {
	fileSize := int64(1 << 20)
	path, _ := makeTestFile(t, fileSize)
	windowSize := int64(64 << 10)
	m := NewManager(windowSize, windowSize, 15)

	// c1 pins the only region the budget allows. A cursor moving itself
	// always frees its own current region first, so the only way to make
	// nothing evictable is for a *different* cursor to hold the sole
	// region while c2 tries to map somewhere else.
	c1, err := m.MakeCursor(PathKey(path))
	if err != nil {
		t.Fatalf("MakeCursor: %v", err)
	}
	defer c1.Close()
	if _, err := c1.UseRegion(0, windowSize, 0); err != nil {
		t.Fatalf("UseRegion: %v", err)
	}

	c2, err := m.MakeCursor(PathKey(path))
	if err != nil {
		t.Fatalf("MakeCursor: %v", err)
	}
	defer c2.Close()

	_, err = c2.UseRegion(fileSize-1, windowSize, 0)
	if err == nil {
		t.Fatalf("expected an error when no region is evictable and budget is exceeded")
	}
	if !errors.Is(err, ErrRegionCollectionError) && !errors.Is(err, ErrMapFailed) {
		t.Fatalf("unexpected error kind: %v", err)
	}
	if !c1.IsValid() {
		t.Fatalf("c1's region must survive a failed eviction attempt by another cursor")
	}
}
