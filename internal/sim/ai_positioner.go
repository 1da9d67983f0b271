package sim

import (
	"github.com/go-gl/mathgl/mgl64"

	"handsim/internal/court"
	"handsim/internal/team"
)

// Formation anchoring. Formation anchors are stored relative to the goal the
// formation is oriented at; this file turns them into absolute court points
// per side and applies the tactic's line-height and width stretching.

// formationAnchor resolves a role's anchor to an absolute court position for
// side s, with the tactic's defensive block geometry applied to defensive
// formations.
func formationAnchor(f team.Formation, pos team.Position, s court.Side, tac team.Tactic) mgl64.Vec2 {
	if pos == team.Goalkeeper {
		return court.GoalCenter(s).Add(court.AttackDirection(s).Mul(0.8))
	}

	anchor, ok := f.Anchors[pos]
	if !ok {
		return court.Center()
	}

	x := anchor.X()
	y := anchor.Y()

	if f.Name == team.Defense60().Name || isDefensiveShape(f) {
		// Line height 0-100 pushes the wall from the crease toward the 9m arc.
		x += (float64(tac.DefenseLineHeight) - 40) / 100 * 2.5
		// Width 0-100 stretches the block around the court midline.
		spread := 0.8 + 0.4*float64(tac.DefenseWidth)/100
		y = court.Width/2 + (y-court.Width/2)*spread
	}

	// Anchors are expressed from the oriented goal along the attack direction.
	var p mgl64.Vec2
	if s == court.Home {
		p = mgl64.Vec2{x, y}
	} else {
		p = mgl64.Vec2{court.Length - x, court.Width - y}
	}
	return court.ClampToCourt(p, 0.3)
}

// isDefensiveShape: defensive formations anchor within 8m of the goal line.
func isDefensiveShape(f team.Formation) bool {
	for _, a := range f.Anchors {
		if a.X() > 8.5 {
			return false
		}
	}
	return len(f.Anchors) > 0
}

// offenseAnchor is the attacking spot for a role: the offense formation
// mirrored onto the opponent's half.
func offenseAnchor(sq *Squad, pos team.Position) mgl64.Vec2 {
	// Offense anchors are oriented at the attacked goal.
	return formationAnchor(sq.Tactic.OffenseFormation, pos, sq.Side.Other(), sq.Tactic)
}

// defenseAnchor is the defensive spot for a role in front of the own goal.
func defenseAnchor(sq *Squad, pos team.Position) mgl64.Vec2 {
	return formationAnchor(sq.Tactic.DefenseFormation, pos, sq.Side, sq.Tactic)
}

// markingTarget picks the opponent a man-marking defender tracks: the nearest
// unmarked attacker to the defender's anchor, falling back to nearest overall.
func markingTarget(ms *MatchState, d *SimPlayer, taken map[string]bool) *SimPlayer {
	opp := ms.Squad(d.Side.Other())
	anchor := defenseAnchor(ms.Squad(d.Side), d.Data.Position)

	var best *SimPlayer
	bestDist := 1e18
	for _, a := range opp.Active(ms.Clock) {
		if a.IsKeeper() || taken[a.ID()] {
			continue
		}
		dist := a.Pos.Sub(anchor).Len()
		if dist < bestDist {
			bestDist = dist
			best = a
		}
	}
	if best == nil {
		for _, a := range opp.Active(ms.Clock) {
			if a.IsKeeper() {
				continue
			}
			dist := a.Pos.Sub(anchor).Len()
			if dist < bestDist {
				bestDist = dist
				best = a
			}
		}
	}
	return best
}

// goalSideSpot places a defender between an attacker and the defended goal.
func goalSideSpot(s court.Side, attacker mgl64.Vec2, cushion float64) mgl64.Vec2 {
	goal := court.GoalCenter(s)
	dir := goal.Sub(attacker)
	l := dir.Len()
	if l < 1e-9 {
		return attacker
	}
	return attacker.Add(dir.Mul(cushion / l))
}

// nearestOpponentDist returns the distance from p to the closest active
// opponent, for openness and pressure evaluation.
func nearestOpponentDist(ms *MatchState, p *SimPlayer) float64 {
	best := 1e18
	for _, o := range ms.Squad(p.Side.Other()).Active(ms.Clock) {
		if d := o.Pos.Sub(p.Pos).Len(); d < best {
			best = d
		}
	}
	return best
}

// nearestToBall returns side s's active player closest to the ball.
func nearestToBall(ms *MatchState, s court.Side) *SimPlayer {
	ballXY := mgl64.Vec2{ms.Ball.Pos.X(), ms.Ball.Pos.Y()}
	var best *SimPlayer
	bestDist := 1e18
	for _, p := range ms.Squad(s).Active(ms.Clock) {
		if p.IsKeeper() {
			continue
		}
		if d := p.Pos.Sub(ballXY).Len(); d < bestDist {
			bestDist = d
			best = p
		}
	}
	return best
}
