package discovery

import (
	"testing"
	"time"

	"DistTally/internal/logger"
)

func TestRankNames(t *testing.T) {
	for _, r := range []int{0, 1, 17} {
		got, ok := parseRank(rankName(r))
		if !ok || got != r {
			t.Fatalf("round trip for rank %d gave (%d, %v)", r, got, ok)
		}
	}
	if _, ok := parseRank("node-1"); ok {
		t.Fatalf("foreign member names must not parse as ranks")
	}
}

// TestGossipMembership forms a two-participant cluster on loopback and
// checks the coordinator's membership gate opens.
func TestGossipMembership(t *testing.T) {
	lg := logger.New("ERROR")

	coord, err := Join(Config{Rank: 0, BindAddr: "127.0.0.1", BindPort: 17946}, lg)
	if err != nil {
		t.Fatalf("coordinator join: %v", err)
	}
	defer coord.Shutdown()

	worker, err := Join(Config{
		Rank:      1,
		BindAddr:  "127.0.0.1",
		BindPort:  17947,
		JoinAddrs: []string{"127.0.0.1:17946"},
	}, lg)
	if err != nil {
		t.Fatalf("worker join: %v", err)
	}
	defer worker.Shutdown()

	if err := coord.WaitForAll(2, 10*time.Second); err != nil {
		t.Fatalf("membership gate never opened: %v", err)
	}

	present := coord.Present()
	if _, ok := present[1]; !ok {
		t.Fatalf("worker rank missing from membership view: %v", present)
	}
}

func TestWaitForAllTimesOut(t *testing.T) {
	lg := logger.New("ERROR")

	coord, err := Join(Config{Rank: 0, BindAddr: "127.0.0.1", BindPort: 17948}, lg)
	if err != nil {
		t.Fatalf("coordinator join: %v", err)
	}
	defer coord.Shutdown()

	if err := coord.WaitForAll(3, 300*time.Millisecond); err == nil {
		t.Fatalf("expected a timeout waiting for absent participants")
	}
}
