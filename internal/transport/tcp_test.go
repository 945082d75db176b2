package transport

import (
	"net"
	"sync"
	"testing"

	"DistTally/internal/logger"
	"DistTally/internal/tag"
)

// freeAddr reserves a loopback port for a test cluster.
func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to pick a port: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

// TestTCPRunProtocol drives the full per-run message sequence over
// loopback: handshake, assignment, barrier, partial results in rank order.
func TestTCPRunProtocol(t *testing.T) {
	const size = 3
	addr := freeAddr(t)
	lg := logger.New("ERROR")

	var wg sync.WaitGroup
	for r := 1; r < size; r++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()

			w, err := DialTCP(addr, rank, size, lg)
			if err != nil {
				t.Errorf("rank %d dial: %v", rank, err)
				return
			}
			defer w.Close()

			files, err := w.RecvAssignment()
			if err != nil {
				t.Errorf("rank %d assignment: %v", rank, err)
				return
			}
			if len(files) != rank {
				t.Errorf("rank %d got %d files, want %d", rank, len(files), rank)
				return
			}
			if err := w.Barrier(); err != nil {
				t.Errorf("rank %d barrier: %v", rank, err)
				return
			}

			var c tag.Counts
			for i := 0; i < rank; i++ {
				c.Inc(tag.Warn)
			}
			if err := w.SendCounts(0, c); err != nil {
				t.Errorf("rank %d send counts: %v", rank, err)
			}
		}(r)
	}

	coord, err := ListenTCP(addr, size, lg)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer coord.Close()

	// Rank r is assigned r placeholder files so each side is identifiable.
	for r := 1; r < size; r++ {
		files := make([]string, r)
		if err := coord.SendAssignment(r, files); err != nil {
			t.Fatalf("assignment to rank %d: %v", r, err)
		}
	}
	if err := coord.Barrier(); err != nil {
		t.Fatalf("barrier: %v", err)
	}
	for r := 1; r < size; r++ {
		c, err := coord.RecvCounts(r)
		if err != nil {
			t.Fatalf("counts from rank %d: %v", r, err)
		}
		if got := c.Get(tag.Warn); got != r {
			t.Fatalf("rank %d reported WARN=%d, want %d", r, got, r)
		}
	}

	wg.Wait()
}

func TestTCPRejectsBadRank(t *testing.T) {
	lg := logger.New("ERROR")

	if _, err := DialTCP("127.0.0.1:1", 0, 3, lg); err == nil {
		t.Fatalf("rank 0 must not dial as a worker")
	}
	if _, err := DialTCP("127.0.0.1:1", 3, 3, lg); err == nil {
		t.Fatalf("rank beyond size-1 must be rejected")
	}
	if _, err := ListenTCP("127.0.0.1:0", 1, lg); err == nil {
		t.Fatalf("network transport with a single participant must be rejected")
	}
}
