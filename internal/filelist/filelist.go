// Package filelist resolves the ordered list of files a run will analyse.
package filelist

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Placeholder is the substring expanded over 1..count in pattern mode.
const Placeholder = "{n}"

// Resolve builds the ordered file list for a run from one of three input
// forms, checked in this order:
//
//   - a manifest path ending in ".txt": one file per line, blanks skipped;
//   - a pattern containing "{n}": expanded over 1..count;
//   - anything else: a single literal file.
//
// The returned order is preserved all the way through partitioning, so
// identical inputs always produce identical assignments.
func Resolve(input string, count int) ([]string, error) {
	switch {
	case input == "":
		return nil, fmt.Errorf("no input given: expected a manifest, a %s pattern, or a file path", Placeholder)
	case strings.HasSuffix(input, ".txt"):
		return readManifest(input)
	case strings.Contains(input, Placeholder):
		if count <= 0 {
			return nil, fmt.Errorf("pattern input %q requires a positive count, got %d", input, count)
		}
		files := make([]string, 0, count)
		for i := 1; i <= count; i++ {
			files = append(files, strings.ReplaceAll(input, Placeholder, strconv.Itoa(i)))
		}
		return files, nil
	default:
		return []string{input}, nil
	}
}

func readManifest(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	defer f.Close()

	var files []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			files = append(files, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	return files, nil
}
