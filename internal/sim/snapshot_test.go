package sim

import (
	"math"
	"testing"
)

func TestSnapshotCarriesLookDirection(t *testing.T) {
	ms := testState(t, 41)
	pool := NewSnapshotPool()
	ms.publishSnapshot(pool)

	snap := pool.AcquireRead()
	if len(snap.Players) != 14 {
		t.Fatalf("snapshot holds %d players, want 14", len(snap.Players))
	}
	for _, p := range snap.Players {
		l := math.Hypot(p.LookX, p.LookY)
		if l < 0.99 || l > 1.01 {
			t.Errorf("player %s look (%.3f, %.3f) is not a unit heading", p.ID, p.LookX, p.LookY)
		}
	}
}
