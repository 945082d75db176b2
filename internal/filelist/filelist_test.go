package filelist

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveManifest(t *testing.T) {
	manifest := filepath.Join(t.TempDir(), "files.txt")
	content := "logs/node1.log\n\n  logs/node2.log  \nlogs/node3.log\n"
	if err := os.WriteFile(manifest, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	files, err := Resolve(manifest, 0)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := []string{"logs/node1.log", "logs/node2.log", "logs/node3.log"}
	if len(files) != len(want) {
		t.Fatalf("got %d files, want %d", len(files), len(want))
	}
	for i, w := range want {
		if files[i] != w {
			t.Fatalf("file %d: got %q, want %q", i, files[i], w)
		}
	}
}

func TestResolveMissingManifest(t *testing.T) {
	if _, err := Resolve(filepath.Join(t.TempDir(), "nope.txt"), 0); err == nil {
		t.Fatalf("expected an error for a missing manifest")
	}
}

func TestResolvePattern(t *testing.T) {
	files, err := Resolve("logs/node{n}.log", 3)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := []string{"logs/node1.log", "logs/node2.log", "logs/node3.log"}
	for i, w := range want {
		if files[i] != w {
			t.Fatalf("file %d: got %q, want %q", i, files[i], w)
		}
	}
}

// TestResolvePatternNeedsCount: a pattern without a positive count is a
// configuration error, detected before anything is dispatched.
func TestResolvePatternNeedsCount(t *testing.T) {
	if _, err := Resolve("logs/node{n}.log", 0); err == nil {
		t.Fatalf("expected an error for pattern mode without a count")
	}
}

func TestResolveLiteral(t *testing.T) {
	files, err := Resolve("single.log", 0)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(files) != 1 || files[0] != "single.log" {
		t.Fatalf("got %v, want one-element list [single.log]", files)
	}
}

func TestResolveEmptyInput(t *testing.T) {
	if _, err := Resolve("", 0); err == nil {
		t.Fatalf("expected an error for empty input")
	}
}
