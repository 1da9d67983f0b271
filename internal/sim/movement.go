package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"handsim/internal/court"
)

// Movement integration. Players are point masses with an acceleration cap
// that drops as the desired direction swings away from the current heading;
// the ball follows the closed-form flight model from the court package.

// PlayerRadius is the personal-space radius used for collisions.
const PlayerRadius = 0.45

// stepPlayers advances every on-court player by dt.
func (ms *MatchState) stepPlayers(dt float64) {
	clock := ms.Clock
	for _, sq := range ms.Squads {
		for _, p := range sq.OnCourt {
			if p.Suspended(clock) {
				// Suspended players hold their sideline spot.
				p.Pos = benchSpot(p.Side)
				p.Vel = mgl64.Vec2{}
				continue
			}
			ms.stepPlayer(p, dt)
		}
	}
	ms.resolveCollisions(clock)
}

func (ms *MatchState) stepPlayer(p *SimPlayer, dt float64) {
	if p.StumbleTimer > 0 {
		p.StumbleTimer = math.Max(0, p.StumbleTimer-dt)
	}
	ms.stepJump(p, dt)

	desired := p.TargetPos.Sub(p.Pos)
	dist := desired.Len()

	top := p.TopSpeed(ms.Clock)
	if !p.sprinting {
		top *= 0.7
	}

	var wantVel mgl64.Vec2
	if dist > 1e-6 {
		speed := top
		// Ease in near the target so players settle instead of orbiting.
		if dist < ArriveRadius/ArriveDamping {
			speed = top * dist * ArriveDamping / ArriveRadius
		}
		wantVel = desired.Mul(speed / dist)
	}

	accelVec := wantVel.Sub(p.Vel)
	accelLen := accelVec.Len()
	if accelLen > 1e-9 {
		maxA := p.MaxAccelAt(ms.Clock) * ms.turnFactor(p, accelVec)
		if accelLen > maxA {
			accelVec = accelVec.Mul(maxA / accelLen)
		}
		p.Vel = p.Vel.Add(accelVec.Mul(dt))
	}

	if v := p.Vel.Len(); v > top {
		p.Vel = p.Vel.Mul(top / v)
	}

	moved := p.Vel.Mul(dt)
	p.Pos = p.Pos.Add(moved)
	p.Pos = court.ClampToCourt(p.Pos, 0)
	p.trackSteps(moved.Len())

	if v := p.Vel.Len(); v > 0.3 {
		p.Look = p.Vel.Mul(1 / v)
	}

	ms.drainStamina(p, dt, top)
}

// turnFactor scales down achievable acceleration when the desired change of
// direction fights the current heading. Agile players keep more of it.
func (ms *MatchState) turnFactor(p *SimPlayer, want mgl64.Vec2) float64 {
	wl := want.Len()
	if wl < 1e-9 || p.Vel.Len() < 0.5 {
		return 1
	}
	cos := mgl64.Clamp(p.Look.Dot(want.Mul(1/wl)), -1, 1)
	// cos=1 straight ahead, cos=-1 full reverse.
	sharpness := (1 - cos) / 2
	agility := p.EffectiveAgility(ms.Clock) / 100
	penalty := TurnPenaltyScale * sharpness * (1 - 0.6*agility)
	return 1 - mgl64.Clamp(penalty, 0, 0.9)
}

func (ms *MatchState) stepJump(p *SimPlayer, dt float64) {
	if !p.Jumping {
		return
	}
	p.JumpTime += dt
	if p.JumpTime >= p.JumpLen {
		p.Jumping = false
		p.Height = 0
		p.landingUntil = ms.Clock + LandingRecovery
		if p.Action == ActionJumpShot {
			p.Action = ActionLanding
		}
		return
	}
	p.Height = p.JumpPeak * math.Sin(math.Pi*p.JumpTime/p.JumpLen)
}

func (ms *MatchState) drainStamina(p *SimPlayer, dt, top float64) {
	speedFrac := 0.0
	if top > 1e-9 {
		speedFrac = p.Vel.Len() / top
	}
	if speedFrac < RestSpeedFraction {
		p.Stamina = math.Min(p.StaminaCeiling, p.Stamina+StaminaRecovery*dt)
		return
	}
	drain := StaminaBaseDrain * dt
	if p.sprinting {
		drain *= StaminaSprintMult
	}
	if p.HasBall {
		drain *= StaminaCarryMult
	}
	// High fitness drains slower on top of having a higher ceiling, and
	// professionals manage their effort between actions.
	drain *= 1.3 - 0.6*float64(p.Data.Attr.Fitness)/100
	drain *= 1.1 - 0.2*float64(p.Data.Pers.Professionalism)/100
	p.Stamina = math.Max(0, p.Stamina-drain)
}

// resolveCollisions pushes overlapping players apart. A hard closing speed
// knocks the lighter-footed player into a stumble, and a stumbling ball
// holder loses the ball.
func (ms *MatchState) resolveCollisions(clock float64) {
	var all []*SimPlayer
	for _, sq := range ms.Squads {
		for _, p := range sq.OnCourt {
			if !p.Suspended(clock) {
				all = append(all, p)
			}
		}
	}

	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			a, b := all[i], all[j]
			delta := b.Pos.Sub(a.Pos)
			dist := delta.Len()
			if dist >= 2*PlayerRadius || dist < 1e-9 {
				continue
			}
			push := delta.Mul((2*PlayerRadius - dist) / (2 * dist))
			a.Pos = court.ClampToCourt(a.Pos.Sub(push), 0)
			b.Pos = court.ClampToCourt(b.Pos.Add(push), 0)

			closing := a.Vel.Sub(b.Vel).Len()
			if closing > 4.0 {
				loser := a
				if strengthBalance(b) < strengthBalance(a) {
					loser = b
				}
				loser.BeginStumble()
				if loser.HasBall {
					loser.DropBall()
					ms.Ball.Drop()
					ms.Ball.Pos = mgl64.Vec3{loser.Pos.X(), loser.Pos.Y(), 0.5}
				}
			}
		}
	}
}

func strengthBalance(p *SimPlayer) float64 {
	return 0.6*float64(p.Data.Attr.Strength) + 0.4*float64(p.Data.Attr.Agility)
}

// stepBall advances the ball by dt. A held ball is glued slightly ahead of
// its holder; a loose ball flies, bounces and eventually rolls.
func (ms *MatchState) stepBall(dt float64) {
	b := &ms.Ball

	if holder := ms.Holder(); holder != nil {
		carry := holder.Pos.Add(holder.Look.Mul(0.35))
		height := 1.0 + holder.Height
		if holder.Dribbling {
			// Dribble bounce, purely cosmetic for snapshots.
			height = 0.4 + 0.4*math.Abs(math.Sin(ms.Clock*6))
		}
		b.Pos = mgl64.Vec3{carry.X(), carry.Y(), height}
		b.Vel = mgl64.Vec3{holder.Vel.X(), holder.Vel.Y(), 0}
		return
	}

	if b.Rolling {
		b.Vel = court.RollStep(b.Vel, dt)
		b.Pos = b.Pos.Add(b.Vel.Mul(dt))
		b.Pos = mgl64.Vec3{b.Pos.X(), b.Pos.Y(), court.BallRadius}
		return
	}

	acc := court.FlightAccel(b.Vel, b.Spin)
	b.Vel = b.Vel.Add(acc.Mul(dt))
	b.Pos = b.Pos.Add(b.Vel.Mul(dt))
	b.Spin = b.Spin.Mul(math.Exp(-court.SpinDecay * dt))

	if b.Pos.Z() <= court.BallRadius && b.Vel.Z() < 0 {
		if court.ShouldRoll(b.Vel) {
			b.Rolling = true
			b.Vel = mgl64.Vec3{b.Vel.X(), b.Vel.Y(), 0}
		} else {
			b.Vel, b.Spin = court.Bounce(b.Vel, b.Spin)
		}
		b.Pos = mgl64.Vec3{b.Pos.X(), b.Pos.Y(), court.BallRadius}
		// A bounced pass or shot is no longer credited to its thrower.
		b.clearFlight()
	}
}
