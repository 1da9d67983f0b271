package sim

import (
	"testing"

	"handsim/internal/court"
)

func TestPhaseLifecycle(t *testing.T) {
	pm := newPhaseManager()

	if pm.Current() != PhasePreKickoff {
		t.Fatalf("initial phase = %s", pm.Current())
	}

	if err := pm.BeginKickoff(); err != nil {
		t.Fatal(err)
	}
	if err := pm.PossessionGained(court.Home); err != nil {
		t.Fatal(err)
	}
	if pm.Current() != PhaseHomeAttack {
		t.Fatalf("phase = %s, want home_attack", pm.Current())
	}

	// Turnover into an away break, then structured possession.
	if err := pm.FastBreak(court.Away); err != nil {
		t.Fatal(err)
	}
	if pm.Current() != PhaseTransitionToAway {
		t.Fatalf("phase = %s", pm.Current())
	}
	if err := pm.PossessionGained(court.Away); err != nil {
		t.Fatal(err)
	}

	if err := pm.AwardSetPiece(court.Away); err != nil {
		t.Fatal(err)
	}
	if pm.Current() != PhaseAwaySetPiece {
		t.Fatalf("phase = %s", pm.Current())
	}

	if err := pm.AwardPenalty(court.Home); err != nil {
		t.Fatal(err)
	}
	if err := pm.BallContested(); err != nil {
		t.Fatal(err)
	}

	if err := pm.HalfTime(); err != nil {
		t.Fatal(err)
	}
	// Second half restarts with a throw-off.
	if err := pm.BeginKickoff(); err != nil {
		t.Fatal(err)
	}
	if err := pm.PossessionGained(court.Away); err != nil {
		t.Fatal(err)
	}

	if err := pm.FullTime(); err != nil {
		t.Fatal(err)
	}
	if pm.Current() != PhaseFinished {
		t.Fatalf("phase = %s, want finished", pm.Current())
	}
}

func TestPostGoalKickoffFromOpenPlay(t *testing.T) {
	pm := newPhaseManager()
	mustFire(t, pm.BeginKickoff())
	mustFire(t, pm.PossessionGained(court.Home))

	// A goal restarts play with a kickoff straight out of the attack phase.
	if err := pm.BeginKickoff(); err != nil {
		t.Fatalf("kickoff after goal: %v", err)
	}
	if pm.Current() != PhaseKickoff {
		t.Fatalf("phase = %s", pm.Current())
	}
}

func TestTimeoutResumesInterruptedPhase(t *testing.T) {
	pm := newPhaseManager()
	mustFire(t, pm.BeginKickoff())
	mustFire(t, pm.PossessionGained(court.Away))

	if err := pm.CallTimeout(); err != nil {
		t.Fatal(err)
	}
	if pm.Current() != PhaseTimeout {
		t.Fatalf("phase = %s", pm.Current())
	}

	if err := pm.ResumeFromTimeout(); err != nil {
		t.Fatal(err)
	}
	if pm.Current() != PhaseAwayAttack {
		t.Fatalf("resumed into %s, want away_attack", pm.Current())
	}

	// Resume only makes sense from the timeout phase.
	if err := pm.ResumeFromTimeout(); err == nil {
		t.Error("resume outside a timeout should fail")
	}
}

func TestFinishedIsAbsorbing(t *testing.T) {
	pm := newPhaseManager()
	mustFire(t, pm.BeginKickoff())
	mustFire(t, pm.FullTime())

	for name, fn := range map[string]func() error{
		"kickoff":    pm.BeginKickoff,
		"possession": func() error { return pm.PossessionGained(court.Home) },
		"break":      func() error { return pm.FastBreak(court.Away) },
		"set piece":  func() error { return pm.AwardSetPiece(court.Home) },
		"penalty":    func() error { return pm.AwardPenalty(court.Away) },
		"contested":  pm.BallContested,
		"half time":  pm.HalfTime,
		"timeout":    pm.CallTimeout,
		"full time":  pm.FullTime,
	} {
		if err := fn(); err == nil {
			t.Errorf("%s should be rejected after full time", name)
		}
		if pm.Current() != PhaseFinished {
			t.Fatalf("phase left finished via %s: %s", name, pm.Current())
		}
	}
}

func TestInvalidTransitionsRejected(t *testing.T) {
	pm := newPhaseManager()

	// No possession before the opening throw-off.
	if err := pm.PossessionGained(court.Home); err == nil {
		t.Error("possession from pre_kickoff should fail")
	}
	if err := pm.CallTimeout(); err == nil {
		t.Error("timeout from pre_kickoff should fail")
	}

	mustFire(t, pm.BeginKickoff())
	mustFire(t, pm.HalfTime())
	// No timeout during the interval.
	if err := pm.CallTimeout(); err == nil {
		t.Error("timeout from half_time should fail")
	}
}

func TestClockStopped(t *testing.T) {
	stopped := []Phase{PhasePreKickoff, PhaseHalfTime, PhaseTimeout, PhaseFinished}
	for _, p := range stopped {
		if !p.ClockStopped() {
			t.Errorf("%s should stop the clock", p)
		}
	}
	running := []Phase{PhaseKickoff, PhaseHomeAttack, PhaseContested, PhaseAwayPenalty, PhaseTransitionToHome}
	for _, p := range running {
		if p.ClockStopped() {
			t.Errorf("%s should not stop the clock", p)
		}
	}
}

func TestAttackingSide(t *testing.T) {
	tests := []struct {
		phase Phase
		side  court.Side
		ok    bool
	}{
		{PhaseHomeAttack, court.Home, true},
		{PhaseHomePenalty, court.Home, true},
		{PhaseAwaySetPiece, court.Away, true},
		{PhaseContested, court.Home, false},
		{PhaseKickoff, court.Home, false},
		{PhaseTransitionToHome, court.Home, false},
	}
	for _, tt := range tests {
		side, ok := tt.phase.AttackingSide()
		if ok != tt.ok || (ok && side != tt.side) {
			t.Errorf("AttackingSide(%s) = %v, %v", tt.phase, side, ok)
		}
	}
}

func mustFire(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
