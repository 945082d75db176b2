// Package loggen writes synthetic log files for benchmarking runs.
package loggen

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"DistTally/internal/tag"
)

var messages = []string{
	"Connection established",
	"Request processed",
	"Database query executed",
	"Cache miss",
	"Authentication failed",
	"Disk read failed",
	"Memory allocation error",
	"Network timeout",
}

// WriteFile writes one synthetic log of lines entries in the analyser's
// grammar: "[timestamp] [LEVEL] message". Levels and messages are drawn
// from rng so generation is reproducible per seed.
func WriteFile(path string, lines int, rng *rand.Rand) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create log file %s: %w", path, err)
	}
	defer f.Close()

	levels := tag.Recognized()
	w := bufio.NewWriter(f)
	for i := 0; i < lines; i++ {
		ts := time.Now().Format(time.RFC3339Nano)
		level := levels[rng.Intn(len(levels))]
		msg := messages[rng.Intn(len(messages))]
		fmt.Fprintf(w, "[%s] [%s] %s\n", ts, level, msg)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write log file %s: %w", path, err)
	}
	return nil
}

// WriteFiles generates count logs named node1.log..node<count>.log under
// dir and returns their paths in generation order.
func WriteFiles(dir string, count, lines int, seed int64) ([]string, error) {
	if count < 1 || lines < 1 {
		return nil, fmt.Errorf("need positive file and line counts, got %d files of %d lines", count, lines)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	rng := rand.New(rand.NewSource(seed))
	paths := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		path := filepath.Join(dir, fmt.Sprintf("node%d.log", i))
		if err := WriteFile(path, lines, rng); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteManifest writes the generated paths one per line, ready to feed
// back to the analyser as a manifest input.
func WriteManifest(path string, files []string) error {
	var sb strings.Builder
	for _, f := range files {
		sb.WriteString(f)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write manifest %s: %w", path, err)
	}
	return nil
}
