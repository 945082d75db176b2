package classify

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"DistTally/internal/tag"
)

const sampleLog = `[2024-05-01T10:00:00] [ERROR] Disk read failed
[2024-05-01T10:00:01] [INFO] Connection established
[2024-05-01T10:00:02] [ERROR] Memory allocation error
not a log line at all
[2024-05-01T10:00:03] [TRACE] unrecognized level is skipped
[2024-05-01T10:00:04] [ERROR] Network timeout
[2024-05-01T10:00:05] [INFO] Request processed
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestFileCounts(t *testing.T) {
	path := writeFile(t, "a.log", sampleLog)

	c := File(path)

	if got := c.Get(tag.Error); got != 3 {
		t.Fatalf("ERROR = %d, want 3", got)
	}
	if got := c.Get(tag.Info); got != 2 {
		t.Fatalf("INFO = %d, want 2", got)
	}
	if got := c.Get(tag.Warn); got != 0 {
		t.Fatalf("WARN = %d, want 0", got)
	}
	if got := c.Get(tag.Debug); got != 0 {
		t.Fatalf("DEBUG = %d, want 0", got)
	}
	if c.Errors() != 0 {
		t.Fatalf("read errors = %d, want 0", c.Errors())
	}
}

// TestFileIdempotent: classifying the same content twice yields identical
// counts.
func TestFileIdempotent(t *testing.T) {
	path := writeFile(t, "a.log", sampleLog)

	first := File(path)
	second := File(path)

	if first != second {
		t.Fatalf("classification not idempotent: %v vs %v", first, second)
	}
}

// TestUnreadableFile: a missing file becomes one ReadError increment, not
// a failure.
func TestUnreadableFile(t *testing.T) {
	c := File(filepath.Join(t.TempDir(), "does-not-exist.log"))

	if c.Errors() != 1 {
		t.Fatalf("read errors = %d, want 1", c.Errors())
	}
	if c.Total() != 0 {
		t.Fatalf("severity total = %d, want 0", c.Total())
	}
}

// TestFilesErrorIsolation: one unreadable file among readable ones leaves
// the readable counts untouched and adds exactly one read error.
func TestFilesErrorIsolation(t *testing.T) {
	readable := writeFile(t, "a.log", sampleLog)
	missing := filepath.Join(t.TempDir(), "b.log")

	alone := Files([]string{readable})
	mixed := Files([]string{readable, missing})

	want := alone
	want.Inc(tag.ReadError)
	if mixed != want {
		t.Fatalf("error not isolated: got %v, want %v", mixed, want)
	}
}

func TestReaderSkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		"plain text",
		"[only-one-bracket group",
		"[ts] [WARN] Cache miss",
		"",
	}, "\n")

	c, err := Reader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Reader failed: %v", err)
	}
	if got := c.Get(tag.Warn); got != 1 {
		t.Fatalf("WARN = %d, want 1", got)
	}
	if c.Total() != 1 {
		t.Fatalf("total = %d, want 1", c.Total())
	}
}
