// Package classify turns log files into per-tag occurrence counts.
package classify

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"

	"DistTally/internal/tag"
)

// lineRE matches "[timestamp] [LEVEL] message" lines; group 2 is the level.
var lineRE = regexp.MustCompile(`^\[(.*?)\]\s*\[(.*?)\]\s*(.*)`)

// File counts recognized severity tags in a single log file. A file that
// cannot be opened or read is converted into a single ReadError increment
// rather than an error return: one unreadable file must never discard the
// results for the rest of an assignment.
func File(path string) tag.Counts {
	f, err := os.Open(path)
	if err != nil {
		var c tag.Counts
		c.Inc(tag.ReadError)
		return c
	}
	defer f.Close()

	c, err := Reader(f)
	if err != nil {
		c.Inc(tag.ReadError)
	}
	return c
}

// Reader counts recognized severity tags line by line. Lines that do not
// match the log grammar, or whose level is outside the recognized set, are
// skipped. Counts accumulated before a read failure are kept.
func Reader(r io.Reader) (tag.Counts, error) {
	var c tag.Counts

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		m := lineRE.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		if t, ok := tag.Parse(strings.TrimSpace(m[2])); ok {
			c.Inc(t)
		}
	}
	return c, scanner.Err()
}

// Files classifies every file of an ordered assignment and sums the
// results. This is the whole of the worker-side accumulate step.
func Files(paths []string) tag.Counts {
	var total tag.Counts
	for _, p := range paths {
		total.Add(File(p))
	}
	return total
}
