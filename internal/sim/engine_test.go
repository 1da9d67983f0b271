package sim

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"handsim/internal/court"
	"handsim/internal/team"
)

func testMatch(t *testing.T, seed int64, duration float64) *Match {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	m, err := NewMatch(MatchRequest{
		HomeTeam: team.GenerateSquad("Home HC", 62, rng),
		AwayTeam: team.GenerateSquad("Away HC", 58, rng),
		Seed:     seed,
		Duration: duration,
	})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestNewMatchValidation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	home := team.GenerateSquad("Home", 60, rng)
	away := team.GenerateSquad("Away", 60, rng)

	tests := []struct {
		name    string
		req     MatchRequest
		wantErr string
	}{
		{"missing home", MatchRequest{AwayTeam: away}, "homeTeam"},
		{"missing away", MatchRequest{HomeTeam: home}, "awayTeam"},
		{"same team twice", MatchRequest{HomeTeam: home, AwayTeam: home}, "same team"},
		{"negative duration", MatchRequest{HomeTeam: home, AwayTeam: away, Duration: -1}, "duration"},
		{"oversized tick", MatchRequest{HomeTeam: home, AwayTeam: away, TickDT: 0.5}, "tickDt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMatch(tt.req)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want substring %q", err, tt.wantErr)
			}
			var se *SetupError
			if !errors.As(err, &se) {
				t.Errorf("error %T is not a SetupError", err)
			}
		})
	}

	t.Run("invalid roster", func(t *testing.T) {
		bad := *home
		bad.Players = bad.Players[:3]
		if _, err := NewMatch(MatchRequest{HomeTeam: &bad, AwayTeam: away}); err == nil {
			t.Fatal("expected roster validation error")
		}
	})
}

func TestMatchRunsToCompletion(t *testing.T) {
	m := testMatch(t, 11, 600)
	result := m.Run(context.Background())

	if result.IsAborted {
		t.Fatal("match aborted without cancellation")
	}
	if result.DurationPlayed < 600 {
		t.Errorf("played %.1fs, want the full 600", result.DurationPlayed)
	}
	if _, ok := m.Result(); !ok {
		t.Fatal("Result not available after Run")
	}
	select {
	case <-m.Done():
	default:
		t.Fatal("Done not closed after Run")
	}

	// Scoreboard and stats agree.
	if result.Home.Stats.Goals != result.Home.Score {
		t.Errorf("home stats goals %d != score %d", result.Home.Stats.Goals, result.Home.Score)
	}
	if result.Away.Stats.Goals != result.Away.Score {
		t.Errorf("away stats goals %d != score %d", result.Away.Stats.Goals, result.Away.Score)
	}
	for _, tr := range []TeamResult{result.Home, result.Away} {
		playerGoals := 0
		for _, ps := range tr.Players {
			playerGoals += ps.GoalsScored
			if ps.ShotsTaken < ps.GoalsScored {
				t.Errorf("player %s: shots %d < goals %d", ps.PlayerID, ps.ShotsTaken, ps.GoalsScored)
			}
		}
		if playerGoals != tr.Score {
			t.Errorf("team %s: player goals sum %d != score %d", tr.Name, playerGoals, tr.Score)
		}
		if tr.Stats.ShotsTaken < tr.Score {
			t.Errorf("team %s: shots %d < goals %d", tr.Name, tr.Stats.ShotsTaken, tr.Score)
		}
	}

	// Half-time score never exceeds the final score.
	if result.HalfTimeScore[court.Home] > result.Home.Score ||
		result.HalfTimeScore[court.Away] > result.Away.Score {
		t.Errorf("half-time score %v exceeds final %d-%d",
			result.HalfTimeScore, result.Home.Score, result.Away.Score)
	}
}

func TestMatchEventStream(t *testing.T) {
	m := testMatch(t, 12, 600)
	result := m.Run(context.Background())

	if len(result.Events) == 0 {
		t.Fatal("no events recorded")
	}

	var lastSeq uint64
	var lastClock float64
	counts := map[EventType]int{}
	goalsSeen := [2]int{}
	for _, ev := range result.Events {
		if ev.Sequence <= lastSeq {
			t.Fatalf("sequence not monotonic: %d after %d", ev.Sequence, lastSeq)
		}
		lastSeq = ev.Sequence
		if ev.Clock+1e-9 < lastClock {
			t.Fatalf("clock went backwards: %.3f after %.3f", ev.Clock, lastClock)
		}
		lastClock = ev.Clock
		counts[ev.Type]++

		// Score in goal payloads only ever counts up.
		if ev.Type == EventTypeGoal {
			var gp GoalPayload
			if err := json.Unmarshal(ev.Payload, &gp); err != nil {
				t.Fatalf("goal payload: %v", err)
			}
			if gp.HomeScore < goalsSeen[court.Home] || gp.AwayScore < goalsSeen[court.Away] {
				t.Fatalf("score decreased: %d-%d after %d-%d",
					gp.HomeScore, gp.AwayScore, goalsSeen[court.Home], goalsSeen[court.Away])
			}
			goalsSeen[court.Home] = gp.HomeScore
			goalsSeen[court.Away] = gp.AwayScore
		}
	}

	if counts[EventTypeKickoff] == 0 {
		t.Error("no kickoff events")
	}
	if counts[EventTypeHalfTime] != 1 {
		t.Errorf("half time events = %d, want 1", counts[EventTypeHalfTime])
	}
	if counts[EventTypeFullTime] != 1 {
		t.Errorf("full time events = %d, want 1", counts[EventTypeFullTime])
	}
	if goalsSeen[court.Home] != result.Home.Score || goalsSeen[court.Away] != result.Away.Score {
		t.Errorf("last goal payload %v does not match final score %d-%d",
			goalsSeen, result.Home.Score, result.Away.Score)
	}

	// EventsSince pagination: events after the midpoint sequence.
	mid := result.Events[len(result.Events)/2].Sequence
	tail := m.EventsSince(mid)
	for _, ev := range tail {
		if ev.Sequence <= mid {
			t.Fatalf("EventsSince(%d) returned sequence %d", mid, ev.Sequence)
		}
	}
}

func TestSnapshotInvariantsDuringRun(t *testing.T) {
	m := testMatch(t, 13, 300)

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(context.Background())
	}()

	deadline := time.After(2 * time.Minute)
	checks := 0
	for checks < 200 {
		select {
		case <-done:
			checks = 200
		case <-deadline:
			t.Fatal("match did not finish in time")
		default:
			snap := m.Snapshot()
			if snap.Sequence == 0 {
				continue
			}
			// Seven on court per side, every tick, suspensions included.
			perSide := map[string]int{}
			holders := 0
			for _, p := range snap.Players {
				perSide[p.Side]++
				if p.HasBall {
					holders++
				}
			}
			if perSide["home"] != 7 || perSide["away"] != 7 {
				t.Fatalf("on-court counts %v at tick %d", perSide, snap.Tick)
			}
			// Possession is exclusive.
			if holders > 1 {
				t.Fatalf("%d simultaneous ball holders at tick %d", holders, snap.Tick)
			}
			if holders == 1 && snap.Ball.HolderID == "" {
				t.Fatalf("player holds ball but ball has no holder at tick %d", snap.Tick)
			}
			checks++
		}
	}
	<-done
}

func TestMatchAbort(t *testing.T) {
	m := testMatch(t, 14, 3600)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		// Let a slice of the match play out, then pull the plug.
		for m.Snapshot().Tick < 2000 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()

	result := m.Run(ctx)
	if !result.IsAborted {
		t.Fatal("expected an aborted result")
	}
	if result.DurationPlayed >= 3600 {
		t.Errorf("aborted match played the full duration: %.1fs", result.DurationPlayed)
	}
	// The partial result is still internally consistent.
	if result.Home.Stats.Goals != result.Home.Score || result.Away.Stats.Goals != result.Away.Score {
		t.Error("aborted result stats do not match the scoreboard")
	}
	if _, ok := m.Result(); !ok {
		t.Fatal("aborted match has no result")
	}
}

func TestResultIsIdempotent(t *testing.T) {
	m := testMatch(t, 15, 300)
	first := m.Run(context.Background())

	second, ok := m.Result()
	if !ok {
		t.Fatal("no result after Run")
	}
	if first.MatchID != second.MatchID ||
		first.Home.Score != second.Home.Score ||
		first.Away.Score != second.Away.Score ||
		first.Ticks != second.Ticks {
		t.Error("Result differs from the value Run returned")
	}
}

func TestSubstitutionOnlyWhileStopped(t *testing.T) {
	m := testMatch(t, 17, 600)
	sq := m.state.Squads[court.Home]
	off := sq.OnCourt[1]
	on := sq.Bench[0]
	emit := func(Event) {}

	if err := m.substitute(sq, off, on, "fatigue", emit); err != ErrIllegalSubstitution {
		t.Fatalf("substitution during %s: err = %v, want ErrIllegalSubstitution",
			m.state.Phases.Current(), err)
	}

	// The same swap is legal once play is stopped for a timeout.
	mustFire(t, m.state.Phases.BeginKickoff())
	mustFire(t, m.state.Phases.PossessionGained(court.Home))
	mustFire(t, m.state.Phases.CallTimeout())
	if err := m.substitute(sq, off, on, "fatigue", emit); err != nil {
		t.Fatalf("legal substitution rejected: %v", err)
	}
	for _, p := range sq.OnCourt {
		if p == off {
			t.Fatal("outgoing player still on court")
		}
	}
}

func TestTickObserverSeesEveryTick(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	calls := 0
	m, err := NewMatch(MatchRequest{
		HomeTeam: team.GenerateSquad("Home HC", 62, rng),
		AwayTeam: team.GenerateSquad("Away HC", 58, rng),
		Seed:     21,
		Duration: 60,
		TickObserver: func(d time.Duration) {
			calls++
			if d < 0 {
				t.Errorf("negative tick duration %v", d)
			}
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	result := m.Run(context.Background())
	if calls == 0 {
		t.Fatal("tick observer never called")
	}
	if uint64(calls) < result.Ticks {
		t.Errorf("observer saw %d ticks of %d", calls, result.Ticks)
	}
}

func TestRequestTimeoutAfterFinish(t *testing.T) {
	m := testMatch(t, 16, 300)
	m.Run(context.Background())

	if err := m.RequestTimeout(court.Home); err != ErrMatchFinished {
		t.Errorf("error = %v, want ErrMatchFinished", err)
	}
}

func TestDeterministicReplay(t *testing.T) {
	run := func() MatchResult {
		return testMatch(t, 99, 600).Run(context.Background())
	}
	a := run()
	b := run()

	if a.Home.Score != b.Home.Score || a.Away.Score != b.Away.Score {
		t.Fatalf("same seed, different scores: %d-%d vs %d-%d",
			a.Home.Score, a.Away.Score, b.Home.Score, b.Away.Score)
	}
	if a.Ticks != b.Ticks {
		t.Errorf("same seed, different tick counts: %d vs %d", a.Ticks, b.Ticks)
	}
}

func TestFullMatchRealism(t *testing.T) {
	if testing.Short() {
		t.Skip("full match simulation")
	}

	m := testMatch(t, 20, 3600)
	result := m.Run(context.Background())

	// Modern handball scores land in the twenties or thirties; anything wildly
	// outside that band means the calibration has drifted.
	for _, tr := range []TeamResult{result.Home, result.Away} {
		if tr.Score < 10 || tr.Score > 50 {
			t.Errorf("team %s scored %d, outside the plausible band", tr.Name, tr.Score)
		}
		if tr.Stats.ShotsTaken < tr.Score {
			t.Errorf("team %s: %d shots for %d goals", tr.Name, tr.Stats.ShotsTaken, tr.Score)
		}
	}

	// Neither side monopolizes the ball.
	homePoss := result.Home.Stats.PossessionSeconds
	awayPoss := result.Away.Stats.PossessionSeconds
	total := homePoss + awayPoss
	if total <= 0 {
		t.Fatal("no possession recorded")
	}
	if homePoss/total < 0.25 || homePoss/total > 0.75 {
		t.Errorf("possession split %.0f%% / %.0f%%", 100*homePoss/total, 100*awayPoss/total)
	}

	// The clock reached full time in two halves.
	if result.DurationPlayed < 3600 {
		t.Errorf("played %.1fs of 3600", result.DurationPlayed)
	}
	if result.HalfTimeScore[court.Home]+result.HalfTimeScore[court.Away] == 0 &&
		result.Home.Score+result.Away.Score > 0 {
		t.Error("no goals before half time in a full match")
	}
}
