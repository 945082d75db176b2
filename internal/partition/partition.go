// Package partition splits a file list into per-participant assignments.
package partition

// Split divides files into n contiguous slices whose lengths differ by at
// most one; the first len(files) mod n slices carry the extra element.
// Order is preserved within and across slices, so the result is an exact
// partition of the input: every file appears in exactly one slice.
//
// Split is pure and deterministic — the same (files, n) always yields the
// same assignment. n <= 0 returns nil, which callers must treat as a
// configuration error before any dispatch happens.
func Split(files []string, n int) [][]string {
	if n <= 0 {
		return nil
	}

	q, r := len(files)/n, len(files)%n

	out := make([][]string, n)
	start := 0
	for i := 0; i < n; i++ {
		end := start + q
		if i < r {
			end++
		}
		out[i] = files[start:end]
		start = end
	}
	return out
}
