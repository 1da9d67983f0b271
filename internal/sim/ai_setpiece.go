package sim

import (
	"github.com/go-gl/mathgl/mgl64"

	"handsim/internal/court"
)

// Set-piece and penalty controllers. The restart spot and the taker are
// established by the resolver when the phase is entered; here the taker waits
// out the restart delay, defenders keep the required clearance from the ball,
// and everyone else takes up shape.

func (ms *MatchState) setPieceDecide(p *SimPlayer, attacker court.Side) {
	if p.Side == attacker {
		if p.HasBall {
			p.Action = ActionTakingSetPiece
			p.TargetPos = ms.setPieceAt
			p.sprinting = false
			if ms.Clock >= ms.restartAt {
				// Play the throw: shot if the spot is dangerous, else a pass.
				if shotQuality(ms, p) > 0.45 {
					ms.beginShot(p)
				} else if mate, _ := ms.bestPassOption(p); mate != nil {
					ms.beginPass(p, mate)
				}
			}
			return
		}
		// Receivers spread into attacking shape.
		p.Action = ActionMovingToPosition
		p.TargetPos = offenseAnchor(ms.Squad(p.Side), p.Data.Position)
		p.sprinting = false
		return
	}

	// Defenders: shape up, but never inside the clearance circle.
	anchor := defenseAnchor(ms.Squad(p.Side), p.Data.Position)
	anchor = outsideClearance(anchor, ms.setPieceAt)
	p.Action = ActionDefendingSetPiece
	p.TargetPos = anchor
	p.sprinting = false
}

// outsideClearance pushes a spot out of the set-piece clearance circle.
func outsideClearance(spot, ball mgl64.Vec2) mgl64.Vec2 {
	delta := spot.Sub(ball)
	d := delta.Len()
	if d >= court.SetPieceClearance {
		return spot
	}
	if d < 1e-9 {
		delta = mgl64.Vec2{1, 0}
		d = 1
	}
	return court.ClampToCourt(ball.Add(delta.Mul(court.SetPieceClearance/d)), 0.3)
}

func (ms *MatchState) penaltyDecide(p *SimPlayer, attacker court.Side) {
	mark := court.PenaltyMark(attacker.Other())

	if p.Side == attacker {
		if p.HasBall {
			p.Action = ActionTakingPenalty
			p.TargetPos = mark
			p.sprinting = false
			if ms.Clock >= ms.restartAt && p.ActionTimer <= 0 {
				p.ActionTimer = penaltyWindup
			}
			return
		}
		// Teammates wait behind the 9m line.
		anchor := offenseAnchor(ms.Squad(p.Side), p.Data.Position)
		anchor = behindFreeThrowLine(anchor, attacker)
		p.Action = ActionMovingToPosition
		p.TargetPos = anchor
		p.sprinting = false
		return
	}

	if p.IsKeeper() {
		// On the line for the throw.
		p.Action = ActionGoalkeeping
		p.TargetPos = court.GoalCenter(p.Side).Add(court.AttackDirection(p.Side).Mul(0.5))
		p.sprinting = false
		return
	}

	anchor := defenseAnchor(ms.Squad(p.Side), p.Data.Position)
	anchor = behindFreeThrowLine(anchor, attacker)
	p.Action = ActionDefendingSetPiece
	p.TargetPos = anchor
	p.sprinting = false
}

// behindFreeThrowLine keeps a spot at least the 9m radius from the attacked
// goal during a penalty.
func behindFreeThrowLine(spot mgl64.Vec2, attacker court.Side) mgl64.Vec2 {
	goal := court.AttackedGoal(attacker)
	delta := spot.Sub(goal)
	d := delta.Len()
	if d >= court.FreeThrowRadius {
		return spot
	}
	if d < 1e-9 {
		delta = mgl64.Vec2{1, 0}
		d = 1
	}
	return court.ClampToCourt(goal.Add(delta.Mul(court.FreeThrowRadius/d)), 0.3)
}

// penaltyTaker picks who takes a 7m throw: the tactic's designated taker if
// on court and fit, otherwise the best available thrower.
func (ms *MatchState) penaltyTaker(s court.Side) *SimPlayer {
	sq := ms.Squad(s)
	if id := sq.Tactic.PenaltyTakerID; id != "" {
		if p := sq.Find(id); p != nil && !p.Suspended(ms.Clock) && !p.IsKeeper() {
			return p
		}
	}
	var best *SimPlayer
	bestScore := -1
	for _, p := range sq.Active(ms.Clock) {
		if p.IsKeeper() {
			continue
		}
		// Leadership separates otherwise comparable throwers.
		score := 4*p.Data.Attr.Throwing + p.Data.Attr.Leadership
		if score > bestScore {
			bestScore = score
			best = p
		}
	}
	return best
}
