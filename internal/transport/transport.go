// Package transport carries the three message kinds of a single run
// between ranked participants: the assignment pushed to each worker, the
// partial counts pulled back by the coordinator, and one collective
// barrier entered before the timed phase begins.
package transport

import "DistTally/internal/tag"

// Transport is the message-passing surface one participant sees. Rank 0 is
// always the coordinator. Payloads are exactly an ordered file subsequence
// (assignment) and a tag.Counts (partial result); no extra metadata rides
// along.
//
// There are deliberately no timeouts or cancellation: a participant that
// never responds stalls the run rather than being silently dropped.
type Transport interface {
	// Rank of the local participant, 0..Size()-1.
	Rank() int
	// Size is the total participant count for the run, coordinator included.
	Size() int

	// SendAssignment dispatches a file subsequence to dest. Coordinator only.
	SendAssignment(dest int, files []string) error
	// RecvAssignment blocks until this participant's assignment arrives.
	// Worker only.
	RecvAssignment() ([]string, error)

	// SendCounts returns a partial result to dest (always the coordinator).
	SendCounts(dest int, counts tag.Counts) error
	// RecvCounts blocks until the partial result from src is available.
	// Collection order is the caller's choice, never arrival order.
	RecvCounts(src int) (tag.Counts, error)

	// Barrier releases only once every participant has entered it. It is
	// used exactly once per run, immediately before the timed phase.
	Barrier() error

	Close() error
}
