package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile creates path with the requested number of bytes of synthetic
// audio-like payload, making parent directories as needed. A size <= 0
// writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunk = 32 * 1024
	buf := make([]byte, chunk)
	for i := range buf {
		// Varying pattern so truncated or shifted copies never hash equal.
		buf[i] = byte(i % 251)
	}

	for remaining := size; remaining > 0; {
		n := int64(chunk)
		if remaining < n {
			n = remaining
		}
		if _, err := f.Write(buf[:n]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= n
	}
}
