// Package report renders a run's totals and timings for the CLI.
package report

import (
	"fmt"
	"io"
	"strings"

	"DistTally/internal/engine"
	"DistTally/internal/tag"
)

var rule = strings.Repeat("=", 50)

// Render writes the analysis banner: per-tag totals, the read-error total
// (always shown, even at zero, so "no matches" and "files unreadable" stay
// distinguishable), and the measured timings.
func Render(w io.Writer, r *engine.Report) {
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "ANALYSIS RESULTS")
	fmt.Fprintln(w, rule)
	for _, t := range tag.Recognized() {
		fmt.Fprintf(w, "%s: %d\n", t, r.Counts.Get(t))
	}
	fmt.Fprintf(w, "%s: %d\n", tag.ReadError, r.Counts.Errors())
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Parallel time (measured): %.4fs\n", r.Timing.Distributed.Seconds())
	if speedup, ok := r.Speedup(); ok {
		efficiency, _ := r.Efficiency()
		fmt.Fprintf(w, "Sequential time (measured): %.4fs\n", r.Timing.Baseline.Seconds())
		fmt.Fprintf(w, "Speedup: %.2fx\n", speedup)
		fmt.Fprintf(w, "Efficiency: %.2f\n", efficiency)
	} else {
		fmt.Fprintln(w, "Sequential time: N/A (baseline not measured)")
	}
	fmt.Fprintln(w, rule)
}
