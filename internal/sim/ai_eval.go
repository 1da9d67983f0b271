package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"handsim/internal/court"
	"handsim/internal/team"
)

// Action evaluation. Every candidate action gets a 0-1 desirability score
// built from base attributes, then shifted by personality, the team tactic
// and the game state. Modifiers are additive and the final score is clamped,
// so no single influence dominates by construction.

// pressureOn returns 0-1 defensive pressure on a player: 1 when an opponent
// is on top of them, 0 when nobody is within the contest radius.
func pressureOn(ms *MatchState, p *SimPlayer) float64 {
	d := nearestOpponentDist(ms, p)
	if d >= ContestRadius {
		return 0
	}
	return 1 - d/ContestRadius
}

// opennessOf returns 0-1 how free a potential pass receiver is.
func opennessOf(ms *MatchState, p *SimPlayer) float64 {
	d := nearestOpponentDist(ms, p)
	if d >= OpennessRadius {
		return 1
	}
	return d / OpennessRadius
}

// shotQuality scores shooting from the player's current spot: shot angle,
// distance, the keeper's coverage and pressure on the shooter.
func shotQuality(ms *MatchState, p *SimPlayer) float64 {
	dist := court.DistanceToGoal(p.Side, p.Pos)
	if dist > 14 {
		return 0
	}

	angle := court.ShotAngle(p.Side, p.Pos)
	// 3m goal from the 9m line subtends roughly 0.33 rad; normalize around it.
	angleScore := mgl64.Clamp(angle/0.6, 0, 1)

	distScore := mgl64.Clamp(1.2-dist/12, 0, 1)

	score := 0.45*angleScore + 0.35*distScore
	score += 0.20 * float64(p.Data.Attr.Throwing) / 100
	score -= 0.25 * pressureOn(ms, p)

	// A keeper off their line opens the goal.
	if k := ms.Squad(p.Side.Other()).Keeper(); k != nil {
		offLine := k.Pos.Sub(court.AttackedGoal(p.Side)).Len()
		if offLine > 3 {
			score += 0.15
		}
	} else {
		score += 0.35 // empty net
	}

	return mgl64.Clamp(score, 0, 1)
}

// passQuality scores a pass from p to mate: receiver openness, how much
// closer to the goal the receiver is, lane cleanliness and range. The team's
// focus-play setting weights receivers by where they stand on the width.
func passQuality(ms *MatchState, p, mate *SimPlayer) float64 {
	dist := mate.Pos.Sub(p.Pos).Len()
	if dist > MaxPassRange || dist < 1 {
		return 0
	}

	open := opennessOf(ms, mate)
	progress := court.DistanceToGoal(p.Side, p.Pos) - court.DistanceToGoal(p.Side, mate.Pos)
	progressScore := mgl64.Clamp(0.5+progress/12, 0, 1)

	lane := passLaneRisk(ms, p, mate)

	score := 0.40*open + 0.30*progressScore - 0.35*lane
	score += 0.15 * float64(p.Data.Attr.Throwing) / 100
	score += 0.10 * float64(p.Data.Attr.TacticalAwareness) / 100

	// High focus favours central receivers, low focus the wings.
	focus := (float64(ms.Squad(p.Side).Tactic.FocusPlay) - 50) / 100
	central := 1 - math.Abs(mate.Pos.Y()-court.Width/2)/(court.Width/2)
	score += 0.12 * focus * (2*central - 1)

	return mgl64.Clamp(score, 0, 1)
}

// passLaneRisk returns 0-1 how contested the straight lane from p to mate is.
func passLaneRisk(ms *MatchState, p, mate *SimPlayer) float64 {
	lane := mate.Pos.Sub(p.Pos)
	laneLen := lane.Len()
	if laneLen < 1e-9 {
		return 1
	}
	dir := lane.Mul(1 / laneLen)

	worst := 0.0
	for _, o := range ms.Squad(p.Side.Other()).Active(ms.Clock) {
		rel := o.Pos.Sub(p.Pos)
		along := rel.Dot(dir)
		if along < 0.5 || along > laneLen {
			continue
		}
		perp := rel.Sub(dir.Mul(along)).Len()
		if perp < 1.5 {
			risk := (1 - perp/1.5) * float64(o.Data.Attr.Blocking+50) / 150
			if risk > worst {
				worst = risk
			}
		}
	}
	return worst
}

// dribbleQuality scores driving toward goal with the ball.
func dribbleQuality(ms *MatchState, p *SimPlayer) float64 {
	ahead := p.Pos.Add(court.AttackDirection(p.Side).Mul(3))
	blockers := 0
	for _, o := range ms.Squad(p.Side.Other()).Active(ms.Clock) {
		if o.Pos.Sub(ahead).Len() < 2.2 {
			blockers++
		}
	}
	score := 0.55 - 0.2*float64(blockers)
	score += 0.25 * float64(p.Data.Attr.Dribbling) / 100
	score += 0.10 * float64(p.Data.Attr.Speed) / 100
	score -= 0.15 * pressureOn(ms, p)
	return mgl64.Clamp(score, 0, 1)
}

// personalityShift returns the additive score adjustment a player's
// personality applies to a risky attacking action. Brave, ambitious players
// shoot more; composed players are steadier under pressure.
func personalityShift(p *SimPlayer, pressure float64) float64 {
	pers := p.Data.Pers
	shift := 0.0
	shift += (float64(pers.Bravery) - 50) / 100 * 0.08
	shift += (float64(pers.Ambition) - 50) / 100 * 0.05
	// Low composure folds under pressure, high composure shrugs it off.
	shift += (float64(pers.Composure) - 50) / 100 * 0.10 * pressure
	return shift
}

// tacticShift returns the additive adjustment from the team tactic for an
// attacking action: high risk-taking lowers the bar for shots and killer
// passes.
func tacticShift(sq *Squad) float64 {
	return (float64(sq.Tactic.RiskTaking) - 50) / 100 * 0.10
}

// paceShift is the tempo adjustment from the team's pace setting: a fast side
// forces shots and drives earlier, a slow side keeps the ball moving.
func paceShift(p team.Pace) float64 {
	switch p {
	case team.PaceFast:
		return 0.06
	case team.PaceSlow:
		return -0.06
	}
	return 0
}

// gameStateShift adjusts urgency: a trailing team late in the match forces
// play, a leading team protects the ball.
func gameStateShift(ms *MatchState, s court.Side, duration float64) float64 {
	margin := ms.Score[s] - ms.Score[s.Other()]
	remaining := duration - ms.Clock
	if remaining > LateGameWindow {
		return 0
	}
	urgency := 1 - remaining/LateGameWindow
	switch {
	case margin < 0:
		return 0.12 * urgency
	case margin > 1:
		return -0.08 * urgency
	}
	return 0
}

// actionThreshold is the bar a candidate score must clear before the player
// commits, lowered by determination so driven players act decisively.
func actionThreshold(p *SimPlayer) float64 {
	det := float64(p.Data.Pers.Determination)
	return BaseActionThreshold - (det-50)/100*0.05
}

// staminaFactor discounts physical action quality as the tank empties.
func staminaFactor(p *SimPlayer) float64 {
	if p.StaminaCeiling < 1e-9 {
		return 1
	}
	frac := p.Stamina / p.StaminaCeiling
	return 0.7 + 0.3*math.Sqrt(frac)
}
