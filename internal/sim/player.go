package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"handsim/internal/court"
	"handsim/internal/team"
)

// SimPlayer is a live simulation agent: the immutable PlayerData plus every
// per-tick mutable field. Created when the lineup is assembled, mutated by
// movement/AI/resolution every tick, discarded at match end. Career effects
// are applied outside the core from the MatchResult.
type SimPlayer struct {
	Data team.PlayerData
	Side court.Side

	// Kinematics on the court plane.
	Pos  mgl64.Vec2
	Vel  mgl64.Vec2
	Look mgl64.Vec2 // unit heading; kept valid even when standing still

	// Current decision.
	Action      PlayerAction
	ActionTimer float64 // counts down to action release (pass/shot wind-up)
	TargetPos   mgl64.Vec2
	TargetID    string // player the action is aimed at, if any

	// Stamina 0..ceiling. The ceiling is fitness-derived and never exceeded.
	Stamina        float64
	StaminaCeiling float64
	sprinting      bool

	// Ball state.
	HasBall     bool
	Dribbling   bool
	HasDribbled bool    // a second dribble after this is a double dribble
	stepMeters  float64 // distance walked while holding without dribbling
	StepCount   int

	// Jump arc: vertical position follows a half-sine over JumpDuration.
	Jumping      bool
	JumpTime     float64
	JumpLen      float64
	JumpPeak     float64
	Height       float64
	landingUntil float64 // match clock until which landing dampens agility

	// Stumble after a collision: fixed duration, not interruptible by AI.
	StumbleTimer float64

	// Suspension: the player remains rostered on court for bookkeeping but
	// stands at the sideline and receives no actions until the clock passes.
	SuspendedUntil float64

	// Screen bookkeeping for off-ball offense.
	ScreenForID string

	// LOD scheduling: next match-clock time this player re-decides.
	nextDecisionAt float64
}

// newSimPlayer places a player at the given spot facing the centre.
func newSimPlayer(data team.PlayerData, side court.Side, at mgl64.Vec2) *SimPlayer {
	ceiling := 0.75 + 0.25*float64(data.Attr.Fitness)/100
	look := court.Center().Sub(at)
	if look.Len() < 1e-9 {
		look = court.AttackDirection(side)
	} else {
		look = look.Normalize()
	}
	return &SimPlayer{
		Data:           data,
		Side:           side,
		Pos:            at,
		Look:           look,
		Action:         ActionIdle,
		TargetPos:      at,
		Stamina:        ceiling,
		StaminaCeiling: ceiling,
	}
}

// ID returns the player's roster id.
func (p *SimPlayer) ID() string { return p.Data.ID }

// IsKeeper reports whether this agent plays in goal.
func (p *SimPlayer) IsKeeper() bool { return p.Data.IsKeeper() }

// Suspended reports whether the player is serving a suspension at clock t.
func (p *SimPlayer) Suspended(clock float64) bool {
	return p.SuspendedUntil > clock
}

// TopSpeed is the attribute-scaled sprint speed, degraded by low stamina,
// stumbling and jump landings.
func (p *SimPlayer) TopSpeed(clock float64) float64 {
	speed := lerp(MinTopSpeed, MaxTopSpeed, float64(p.Data.Attr.Speed)/100)
	if p.StumbleTimer > 0 {
		speed *= StumbleSpeedScale
	}
	if p.Stamina < LowStaminaThreshold*p.StaminaCeiling {
		speed *= LowStaminaSpeedFloor
	}
	return speed
}

// MaxAccelAt is the attribute-scaled acceleration cap at clock t.
func (p *SimPlayer) MaxAccelAt(clock float64) float64 {
	accel := lerp(MinAccel, MaxAccel, float64(p.Data.Attr.Speed)/100)
	if p.StumbleTimer > 0 {
		accel *= StumbleAccelScale
	}
	return accel
}

// EffectiveAgility is the agility rating after any landing penalty. A weak
// jumper lands harder and loses more agility for the recovery window.
func (p *SimPlayer) EffectiveAgility(clock float64) float64 {
	ag := float64(p.Data.Attr.Agility)
	if clock < p.landingUntil {
		penalty := 1.0 - float64(p.Data.Attr.Jumping)/100
		ag *= 1.0 - 0.5*penalty
	}
	return math.Max(ag, 1)
}

// BeginJump starts a jump arc with height derived from the Jumping rating.
func (p *SimPlayer) BeginJump() {
	if p.Jumping {
		return
	}
	factor := lerp(JumpHeightMin, JumpHeightMax, float64(p.Data.Attr.Jumping)/100)
	p.Jumping = true
	p.JumpTime = 0
	p.JumpLen = JumpDuration
	p.JumpPeak = BaseJumpHeight * factor
}

// BeginStumble knocks the player into the post-collision stumble state.
// Stumbling is not interruptible by new AI decisions.
func (p *SimPlayer) BeginStumble() {
	p.StumbleTimer = StumbleDuration
}

// TakeBall gives the player possession and resets the step/dribble ledger.
func (p *SimPlayer) TakeBall() {
	p.HasBall = true
	p.Dribbling = false
	p.HasDribbled = false
	p.StepCount = 0
	p.stepMeters = 0
}

// DropBall clears possession state.
func (p *SimPlayer) DropBall() {
	p.HasBall = false
	p.Dribbling = false
	p.StepCount = 0
	p.stepMeters = 0
}

// StartDribble begins a dribble, which resets the step count. The resolver
// separately flags a second dribble as a double-dribble turnover.
func (p *SimPlayer) StartDribble() {
	p.Dribbling = true
	p.StepCount = 0
	p.stepMeters = 0
}

// StopDribble picks the ball back up; steps count again from zero.
func (p *SimPlayer) StopDribble() {
	p.Dribbling = false
	p.HasDribbled = true
	p.StepCount = 0
	p.stepMeters = 0
}

// trackSteps accumulates walked distance into discrete steps while the
// player holds the ball without dribbling.
func (p *SimPlayer) trackSteps(moved float64) {
	if !p.HasBall || p.Dribbling {
		return
	}
	p.stepMeters += moved
	for p.stepMeters >= StepLength {
		p.stepMeters -= StepLength
		p.StepCount++
	}
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*mgl64.Clamp(t, 0, 1)
}
