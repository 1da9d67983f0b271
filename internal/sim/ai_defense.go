package sim

import (
	"github.com/go-gl/mathgl/mgl64"

	"handsim/internal/court"
	"handsim/internal/team"
)

// Defensive controller. The defender nearest the holder decides between
// challenging for the ball and holding goal-side shape; everyone else keeps
// the block, zonal anchors or man assignments depending on the tactic.

func (ms *MatchState) defenseDecide(p *SimPlayer) {
	sq := ms.Squad(p.Side)
	holder := ms.Holder()

	if holder == nil || holder.Side == p.Side {
		// No live threat: fall back to the anchor.
		p.Action = ActionMovingToPosition
		p.TargetPos = defenseAnchor(sq, p.Data.Position)
		p.sprinting = false
		return
	}

	dist := holder.Pos.Sub(p.Pos).Len()

	// Closest defender pressures; inside challenge range, decide between a
	// tackle attempt and containment.
	if ms.isClosestDefender(p, holder) {
		if dist <= ChallengeRange {
			if ms.shouldChallenge(p, holder) {
				p.Action = ActionTackling
				p.TargetID = holder.ID()
				p.TargetPos = holder.Pos
				p.sprinting = true
				return
			}
			// Contain: stay goal-side without diving in.
			p.Action = ActionDefendingPlayer
			p.TargetID = holder.ID()
			p.TargetPos = goalSideSpot(p.Side, holder.Pos, 1.1)
			p.sprinting = false
			return
		}
		p.Action = ActionDefendingPlayer
		p.TargetID = holder.ID()
		p.TargetPos = goalSideSpot(p.Side, holder.Pos, 1.4)
		p.sprinting = dist > 4
		return
	}

	// A shot wind-up in front of me: raise the block.
	if (holder.Action == ActionPreparingShot || holder.Action == ActionJumpShot) &&
		dist < 3.0 {
		p.Action = ActionBlocking
		p.TargetID = holder.ID()
		p.TargetPos = goalSideSpot(p.Side, holder.Pos, 0.8)
		p.sprinting = false
		return
	}

	if sq.Tactic.Marking == team.MarkingMan {
		taken := ms.claimedMarks(sq, p)
		if mark := markingTarget(ms, p, taken); mark != nil {
			p.Action = ActionDefendingPlayer
			p.TargetID = mark.ID()
			p.TargetPos = goalSideSpot(p.Side, mark.Pos, 1.0)
			p.sprinting = false
			return
		}
	}

	// Zonal: hold the anchor, shading toward the ball's side of the court.
	anchor := defenseAnchor(sq, p.Data.Position)
	shade := (ms.Ball.Pos.Y() - court.Width/2) * 0.15
	p.Action = ActionMovingToPosition
	p.TargetID = ""
	p.TargetPos = court.ClampToCourt(mgl64.Vec2{anchor.X(), anchor.Y() + shade}, 0.3)
	p.sprinting = false
}

// isClosestDefender reports whether p is their side's nearest active
// outfielder to the holder.
func (ms *MatchState) isClosestDefender(p, holder *SimPlayer) bool {
	my := holder.Pos.Sub(p.Pos).Len()
	for _, o := range ms.Squad(p.Side).Active(ms.Clock) {
		if o == p || o.IsKeeper() {
			continue
		}
		if holder.Pos.Sub(o.Pos).Len() < my {
			return false
		}
	}
	return true
}

// shouldChallenge weighs a tackle attempt: tackling skill and team aggression
// for, the risk of a beaten challenge against. Aggressive personalities and
// tactics dive in more.
func (ms *MatchState) shouldChallenge(p, holder *SimPlayer) bool {
	sq := ms.Squad(p.Side)

	score := 0.35
	score += 0.30 * float64(p.Data.Attr.Tackling) / 100
	score += 0.15 * (float64(sq.Tactic.Aggression) - 50) / 100
	score += 0.10 * (float64(p.Data.Pers.Aggression) - 50) / 100
	// A holder who has burned their dribble is easier prey.
	if holder.HasDribbled && !holder.Dribbling {
		score += 0.15
	}
	// Never dive in as last man in front of an empty lane.
	if ms.isLastDefender(p, holder) {
		score -= 0.25
	}
	return score >= 0.5
}

// isLastDefender reports whether no teammate stands between p and the goal.
func (ms *MatchState) isLastDefender(p, holder *SimPlayer) bool {
	goal := court.GoalCenter(p.Side)
	myDist := goal.Sub(p.Pos).Len()
	for _, o := range ms.Squad(p.Side).Active(ms.Clock) {
		if o == p || o.IsKeeper() {
			continue
		}
		if goal.Sub(o.Pos).Len() < myDist {
			return false
		}
	}
	return true
}

// claimedMarks collects the attacker ids other defenders already track, so
// man marking doesn't double up.
func (ms *MatchState) claimedMarks(sq *Squad, except *SimPlayer) map[string]bool {
	taken := make(map[string]bool)
	for _, d := range sq.Active(ms.Clock) {
		if d == except || d.IsKeeper() {
			continue
		}
		if d.Action == ActionDefendingPlayer && d.TargetID != "" {
			taken[d.TargetID] = true
		}
	}
	return taken
}
