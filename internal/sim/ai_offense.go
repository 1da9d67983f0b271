package sim

import (
	"github.com/go-gl/mathgl/mgl64"

	"handsim/internal/court"
	"handsim/internal/team"
)

// Offensive controller. The ball holder scores shoot/pass/dribble candidates
// and commits to the best one that clears their threshold; off-ball attackers
// hold formation spots, pull wide to get open, or screen for the holder.

const (
	passWindup    = 0.25
	shotWindup    = 0.40
	penaltyWindup = 1.2
)

func (ms *MatchState) offenseDecide(p *SimPlayer, duration float64) {
	if p.HasBall {
		ms.holderDecide(p, duration, false)
		return
	}
	ms.offBallOffense(p)
}

// holderDecide is the central attacking choice. With fastBreak set the
// pass-forward and drive options are boosted so breaks stay direct.
func (ms *MatchState) holderDecide(p *SimPlayer, duration float64, fastBreak bool) {
	sq := ms.Squad(p.Side)
	pressure := pressureOn(ms, p)
	shift := personalityShift(p, pressure) + tacticShift(sq) + gameStateShift(ms, p.Side, duration)
	pace := paceShift(sq.Tactic.Pace)

	shoot := shotQuality(ms, p)*staminaFactor(p) + shift + pace
	mate, pass := ms.bestPassOption(p)
	pass += shift * 0.5
	// Team players look for the extra pass; lone wolves keep the ball.
	pass += 0.06 * (float64(p.Data.Attr.Teamwork) - 50) / 100
	dribble := dribbleQuality(ms, p)*staminaFactor(p) + shift*0.5 + pace*0.5
	if fastBreak {
		dribble += 0.15
		pass += 0.10
	}

	// Running out of legal steps forces a release.
	stepsLeft := MaxStepCount - p.StepCount
	forced := !p.Dribbling && p.HasDribbled && stepsLeft <= 1

	threshold := actionThreshold(p)

	switch {
	case shoot >= threshold && shoot >= pass && shoot >= dribble:
		ms.beginShot(p)

	case mate != nil && pass >= threshold && pass >= dribble:
		ms.beginPass(p, mate)

	case dribble >= threshold && (p.Dribbling || !p.HasDribbled):
		if !p.Dribbling {
			p.StartDribble()
		}
		p.Action = ActionMovingWithBall
		p.TargetPos = driveTarget(ms, p)
		p.sprinting = true

	case forced && mate != nil:
		// Nothing good on, but holding means a steps turnover.
		ms.beginPass(p, mate)

	case forced:
		ms.beginShot(p)

	default:
		// Probe: reposition toward the anchor while keeping the ball.
		p.Action = ActionMovingWithBall
		p.TargetPos = offenseAnchor(sq, p.Data.Position)
		p.sprinting = false
	}
}

func (ms *MatchState) beginShot(p *SimPlayer) {
	p.Action = ActionPreparingShot
	p.ActionTimer = shotWindup
	p.TargetPos = p.Pos
	p.sprinting = false
	// Backs jump over the wall when shooting from range with space ahead.
	if court.DistanceToGoal(p.Side, p.Pos) > court.GoalAreaRadius+1 &&
		float64(p.Data.Attr.Jumping) > 40 {
		p.Action = ActionJumpShot
		p.BeginJump()
	}
}

func (ms *MatchState) beginPass(p *SimPlayer, mate *SimPlayer) {
	p.Action = ActionPreparingPass
	p.ActionTimer = passWindup
	p.TargetID = mate.ID()
	p.TargetPos = p.Pos
	p.sprinting = false
	mate.Action = ActionWaitingForPass
	mate.TargetPos = mate.Pos
}

// bestPassOption returns the best-scoring open teammate and its score.
func (ms *MatchState) bestPassOption(p *SimPlayer) (*SimPlayer, float64) {
	sq := ms.Squad(p.Side)
	var best *SimPlayer
	bestScore := 0.0
	for _, mate := range sq.Active(ms.Clock) {
		if mate == p || mate.IsKeeper() || mate.StumbleTimer > 0 {
			continue
		}
		score := passQuality(ms, p, mate)
		if score > bestScore {
			bestScore = score
			best = mate
		}
	}
	return best, bestScore
}

// driveTarget aims a dribble at the gap between the two nearest defenders,
// biased toward the goal.
func driveTarget(ms *MatchState, p *SimPlayer) mgl64.Vec2 {
	goal := court.AttackedGoal(p.Side)
	toGoal := goal.Sub(p.Pos)
	l := toGoal.Len()
	if l < 1e-9 {
		return goal
	}
	dir := toGoal.Mul(1 / l)

	// Steer laterally away from the closest defender ahead.
	var blocker *SimPlayer
	bestDist := 3.5
	for _, o := range ms.Squad(p.Side.Other()).Active(ms.Clock) {
		rel := o.Pos.Sub(p.Pos)
		if rel.Dot(dir) < 0 {
			continue
		}
		if d := rel.Len(); d < bestDist {
			bestDist = d
			blocker = o
		}
	}
	target := p.Pos.Add(dir.Mul(4))
	if blocker != nil {
		perp := mgl64.Vec2{-dir.Y(), dir.X()}
		if blocker.Pos.Sub(p.Pos).Dot(perp) > 0 {
			perp = perp.Mul(-1)
		}
		target = target.Add(perp.Mul(1.8))
	}
	// Never drive into the crease.
	if court.InGoalArea(p.Side.Other(), target) {
		away := target.Sub(court.AttackedGoal(p.Side))
		target = court.AttackedGoal(p.Side).Add(away.Mul((court.GoalAreaRadius + 0.3) / away.Len()))
	}
	return court.ClampToCourt(target, 0.3)
}

// offBallOffense keeps attackers in shape, with pivots screening and wings
// pulling wide when their lane is crowded.
func (ms *MatchState) offBallOffense(p *SimPlayer) {
	sq := ms.Squad(p.Side)
	anchor := offenseAnchor(sq, p.Data.Position)

	holder := ms.Holder()
	if holder != nil && holder.Side == p.Side {
		// Pivot screens the defender nearest the holder's driving lane.
		if p.Data.Position == team.Pivot {
			if d := nearestDefenderTo(ms, holder); d != nil {
				p.Action = ActionMovingToPosition
				p.ScreenForID = holder.ID()
				p.TargetPos = goalSideSpot(p.Side.Other(), d.Pos, 0.9)
				p.sprinting = false
				return
			}
		}
		// Crowded receivers slide along the width to re-open the lane.
		if opennessOf(ms, p) < 0.4 {
			drift := 2.5
			if p.Pos.Y() > court.Width/2 {
				drift = -2.5
			}
			anchor = court.ClampToCourt(mgl64.Vec2{anchor.X(), anchor.Y() + drift}, 0.5)
		}
	}

	p.Action = ActionMovingToPosition
	p.ScreenForID = ""
	p.TargetPos = anchor
	p.sprinting = false
}

func nearestDefenderTo(ms *MatchState, p *SimPlayer) *SimPlayer {
	var best *SimPlayer
	bestDist := 4.0
	for _, o := range ms.Squad(p.Side.Other()).Active(ms.Clock) {
		if o.IsKeeper() {
			continue
		}
		if d := o.Pos.Sub(p.Pos).Len(); d < bestDist {
			bestDist = d
			best = o
		}
	}
	return best
}

// breakDecide runs the fast-break controller for the side that just won the
// ball: the holder drives, everyone else sprints into the attacking half.
func (ms *MatchState) breakDecide(p *SimPlayer, duration float64) {
	if p.HasBall {
		ms.holderDecide(p, duration, true)
		return
	}
	if p.ID() == ms.Ball.TargetID {
		p.Action = ActionReceivingPass
		p.TargetPos = mgl64.Vec2{ms.Ball.Pos.X(), ms.Ball.Pos.Y()}
		p.sprinting = true
		return
	}
	anchor := offenseAnchor(ms.Squad(p.Side), p.Data.Position)
	p.Action = ActionMovingToPosition
	p.TargetPos = anchor
	p.sprinting = true
}

// retreatDecide sends the side that just lost the ball back into its block.
func (ms *MatchState) retreatDecide(p *SimPlayer) {
	p.Action = ActionReturningToDefense
	p.TargetPos = defenseAnchor(ms.Squad(p.Side), p.Data.Position)
	p.sprinting = true
}

// kickoffDecide holds players in their own half while the thrower restarts.
func (ms *MatchState) kickoffDecide(p *SimPlayer) {
	if p.HasBall {
		// The kickoff is a short pass to the best-placed teammate.
		if mate, score := ms.bestPassOption(p); mate != nil && score > 0 {
			ms.beginPass(p, mate)
		}
		return
	}
	anchor := offenseAnchor(ms.Squad(p.Side), p.Data.Position)
	// Own half only until the throw.
	if p.Side == court.Home {
		anchor = mgl64.Vec2{mgl64.Clamp(anchor.X(), 0.5, court.Length/2-0.5), anchor.Y()}
	} else {
		anchor = mgl64.Vec2{mgl64.Clamp(anchor.X(), court.Length/2+0.5, court.Length-0.5), anchor.Y()}
	}
	p.Action = ActionMovingToPosition
	p.TargetPos = anchor
	p.sprinting = false
}

// contestedDecide sends each side's nearest player to the loose ball and
// keeps the rest in shape.
func (ms *MatchState) contestedDecide(p *SimPlayer) {
	chaser := nearestToBall(ms, p.Side)
	if chaser != nil && chaser.ID() == p.ID() {
		p.Action = ActionIntercepting
		p.TargetPos = mgl64.Vec2{ms.Ball.Pos.X(), ms.Ball.Pos.Y()}
		p.sprinting = true
		return
	}
	p.Action = ActionMovingToPosition
	p.TargetPos = defenseAnchor(ms.Squad(p.Side), p.Data.Position)
	p.sprinting = false
}
