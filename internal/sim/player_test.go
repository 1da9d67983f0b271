package sim

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"handsim/internal/court"
	"handsim/internal/team"
)

func fieldPlayer(speed, fitness int) *SimPlayer {
	data := team.PlayerData{
		ID:       "t_01",
		Name:     "Tester",
		Position: team.CentreBack,
		Hand:     team.RightHanded,
	}
	data.Attr.Speed = speed
	data.Attr.Fitness = fitness
	data.Attr.Agility = 50
	data.Attr.Jumping = 50
	return newSimPlayer(data, court.Home, mgl64.Vec2{10, 10})
}

func TestStaminaCeilingFromFitness(t *testing.T) {
	low := fieldPlayer(50, 0)
	high := fieldPlayer(50, 100)

	if low.StaminaCeiling >= high.StaminaCeiling {
		t.Errorf("ceilings %v >= %v", low.StaminaCeiling, high.StaminaCeiling)
	}
	if low.Stamina != low.StaminaCeiling {
		t.Error("players start with a full tank")
	}
}

func TestTopSpeedDegradation(t *testing.T) {
	p := fieldPlayer(80, 50)
	fresh := p.TopSpeed(0)

	p.Stamina = 0.1 * p.StaminaCeiling
	gassed := p.TopSpeed(0)
	if gassed >= fresh {
		t.Errorf("low stamina should cut speed: %v vs %v", gassed, fresh)
	}

	p.Stamina = p.StaminaCeiling
	p.BeginStumble()
	stumbling := p.TopSpeed(0)
	if stumbling >= fresh {
		t.Errorf("stumble should cut speed: %v vs %v", stumbling, fresh)
	}

	// Faster players are faster.
	slow := fieldPlayer(10, 50)
	if slow.TopSpeed(0) >= fresh {
		t.Error("speed rating has no effect on top speed")
	}
}

func TestStepsLedger(t *testing.T) {
	p := fieldPlayer(50, 50)
	p.TakeBall()

	// 3.5 metres of carrying: three full steps.
	for i := 0; i < 7; i++ {
		p.trackSteps(0.5)
	}
	if p.StepCount != 3 {
		t.Errorf("steps = %d, want 3", p.StepCount)
	}

	// Dribbling resets the count and suspends it while active.
	p.StartDribble()
	if p.StepCount != 0 {
		t.Errorf("dribble should reset steps, got %d", p.StepCount)
	}
	p.trackSteps(5)
	if p.StepCount != 0 {
		t.Errorf("steps counted mid-dribble: %d", p.StepCount)
	}

	// Picking the ball back up restarts the ledger and marks the dribble used.
	p.StopDribble()
	if !p.HasDribbled {
		t.Error("HasDribbled not set after the dribble ends")
	}
	p.trackSteps(2.2)
	if p.StepCount != 2 {
		t.Errorf("steps = %d, want 2", p.StepCount)
	}

	// A fresh possession starts clean.
	p.DropBall()
	p.TakeBall()
	if p.StepCount != 0 || p.HasDribbled {
		t.Error("TakeBall must reset the step/dribble ledger")
	}
}

func TestJumpArc(t *testing.T) {
	p := fieldPlayer(50, 50)
	ms := &MatchState{Phases: newPhaseManager()}

	p.BeginJump()
	if !p.Jumping || p.JumpPeak <= 0 {
		t.Fatalf("jump not started: %+v", p)
	}

	// Mid-arc the player is airborne, at the end back on the floor with a
	// landing recovery window.
	ms.stepJump(p, JumpDuration/2)
	if p.Height <= 0 {
		t.Errorf("height mid-jump = %v", p.Height)
	}
	peak := p.Height
	if math.Abs(peak-p.JumpPeak) > 1e-9 {
		t.Errorf("mid-arc height %v, want peak %v", peak, p.JumpPeak)
	}

	ms.Clock = 5
	ms.stepJump(p, JumpDuration)
	if p.Jumping || p.Height != 0 {
		t.Errorf("jump did not land: %+v", p)
	}
	if p.landingUntil <= ms.Clock {
		t.Error("no landing recovery window")
	}
	if p.EffectiveAgility(ms.Clock) >= float64(p.Data.Attr.Agility) {
		t.Error("landing should dent agility")
	}
}

func TestSuspension(t *testing.T) {
	p := fieldPlayer(50, 50)
	p.SuspendedUntil = 100

	if !p.Suspended(50) {
		t.Error("player should be suspended at t=50")
	}
	if p.Suspended(100) {
		t.Error("suspension ends exactly at SuspendedUntil")
	}
}

func TestStepPlayerMovesTowardTarget(t *testing.T) {
	ms := testState(t, 21)
	p := ms.Squad(court.Home).OnCourt[1]
	p.Pos = mgl64.Vec2{10, 10}
	p.Vel = mgl64.Vec2{}
	p.TargetPos = mgl64.Vec2{20, 10}
	p.sprinting = true

	start := p.Pos
	for i := 0; i < 40; i++ {
		ms.stepPlayer(p, DefaultTickDT)
	}

	if p.Pos.X() <= start.X() {
		t.Errorf("player did not advance: %v -> %v", start, p.Pos)
	}
	if p.Vel.Len() > p.TopSpeed(ms.Clock)+1e-9 {
		t.Errorf("speed %v exceeds cap %v", p.Vel.Len(), p.TopSpeed(ms.Clock))
	}
	// Court bounds always hold.
	if court.OutOfBounds(p.Pos) {
		t.Errorf("player out of bounds at %v", p.Pos)
	}
}

func TestCollisionStumbleDropsBall(t *testing.T) {
	ms := testState(t, 22)
	a := ms.Squad(court.Home).OnCourt[1]
	b := ms.Squad(court.Away).OnCourt[1]

	a.Pos = mgl64.Vec2{15, 10}
	b.Pos = mgl64.Vec2{15.2, 10}
	a.Vel = mgl64.Vec2{4, 0}
	b.Vel = mgl64.Vec2{-4, 0}
	a.TakeBall()
	ms.Ball.GiveTo(a.ID())
	a.Data.Attr.Strength = 10
	a.Data.Attr.Agility = 10
	b.Data.Attr.Strength = 90
	b.Data.Attr.Agility = 90

	ms.resolveCollisions(0)

	if a.Pos.Sub(b.Pos).Len() < 2*PlayerRadius-1e-9 {
		t.Errorf("players still overlapping: %v vs %v", a.Pos, b.Pos)
	}
	if a.StumbleTimer <= 0 {
		t.Error("weaker player should stumble in a hard collision")
	}
	if a.HasBall || ms.Ball.HolderID != "" {
		t.Error("stumbling holder should lose the ball")
	}
}
