package smmap

import (
	"math/rand"
	"os"
	"testing"
)

// makeTestFile writes size bytes of deterministic pseudo-random content to
// a temp file and returns its path. The file is removed on test cleanup.
func makeTestFile(t *testing.T, size int64) (string, []byte) {
	t.Helper()

	data := make([]byte, size)
	rng := rand.New(rand.NewSource(42))
	rng.Read(data)

	f, err := os.CreateTemp(t.TempDir(), "smmap-test-*")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return f.Name(), data
}
