package smmap

import (
	"bytes"
	"testing"
)

func TestStaticManagerMapsWholeFileOnce(t *testing.T) {
	fileSize := int64(2 << 20)
	path, data := makeTestFile(t, fileSize)
	m := NewStaticManager(0)

	c, err := m.MakeCursor(PathKey(path))
	if err != nil {
		t.Fatalf("MakeCursor: %v", err)
	}
	defer c.Close()

	if _, err := c.UseRegion(10, 10, 0); err != nil {
		t.Fatalf("UseRegion: %v", err)
	}
	if m.NumFileHandles() != 1 {
		t.Fatalf("NumFileHandles() = %d, want 1", m.NumFileHandles())
	}
	if !bytes.Equal(c.Buffer(), data[10:20]) {
		t.Fatalf("Buffer() mismatch")
	}

	// Moving far away must not create a second mapping.
	if _, err := c.UseRegion(fileSize-10, 10, 0); err != nil {
		t.Fatalf("UseRegion: %v", err)
	}
	if m.NumFileHandles() != 1 {
		t.Fatalf("NumFileHandles() = %d after moving, want still 1 (static manager never remaps)", m.NumFileHandles())
	}
	if !bytes.Equal(c.Buffer(), data[fileSize-10:]) {
		t.Fatalf("Buffer() mismatch near EOF")
	}
}

func TestStaticManagerCollectIsNoOp(t *testing.T) {
	path, _ := makeTestFile(t, 4096)
	m := NewStaticManager(0)

	c, err := m.MakeCursor(PathKey(path))
	if err != nil {
		t.Fatalf("MakeCursor: %v", err)
	}
	defer c.Close()

	if _, err := c.UseRegion(0, 10, 0); err != nil {
		t.Fatalf("UseRegion: %v", err)
	}
	if n := m.Collect(); n != 0 {
		t.Fatalf("Collect() = %d, want 0 for a static manager", n)
	}
	if m.NumFileHandles() != 1 {
		t.Fatalf("NumFileHandles() = %d, want 1 (collect must not evict)", m.NumFileHandles())
	}
}
