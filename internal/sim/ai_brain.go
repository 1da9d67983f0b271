package sim

import (
	"log"

	"github.com/go-gl/mathgl/mgl64"

	"handsim/internal/court"
	"handsim/internal/team"
)

// Per-player decision dispatch. Decisions run on a level-of-detail schedule:
// players near the ball re-decide every DecisionIntervalNear seconds, distant
// players on the stretched interval. Between decisions a player keeps
// executing its current action, so a skipped decision never freezes anyone.

// runDecisions lets every due player pick a new action.
func (ms *MatchState) runDecisions(sb *statBook, duration float64) {
	for _, sq := range ms.Squads {
		for _, p := range sq.Active(ms.Clock) {
			if ms.Clock < p.nextDecisionAt {
				continue
			}
			ms.decide(p, sb, duration)
			ms.scheduleNext(p)
		}
	}
}

// scheduleNext sets the player's next decision time from ball distance.
func (ms *MatchState) scheduleNext(p *SimPlayer) {
	ballXY := mgl64.Vec2{ms.Ball.Pos.X(), ms.Ball.Pos.Y()}
	dist := p.Pos.Sub(ballXY).Len()

	interval := DecisionIntervalNear
	if dist > DecisionLODRadius {
		interval = DecisionIntervalFar
	}
	if p.HasBall || p.ID() == ms.Ball.TargetID {
		interval = DecisionIntervalNear
	}
	// Tempo squeezes or stretches the cadence: a fast side re-decides sooner.
	switch ms.Squad(p.Side).Tactic.Pace {
	case team.PaceFast:
		interval *= 0.8
	case team.PaceSlow:
		interval *= 1.25
	}
	if interval > MaxDecisionInterval {
		interval = MaxDecisionInterval
	}
	p.nextDecisionAt = ms.Clock + interval
}

// decide runs one player's controller. A panic in a controller is contained
// here: the player falls back to holding position and the match goes on.
func (ms *MatchState) decide(p *SimPlayer, sb *statBook, duration float64) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️ player %s decision panic: %v", p.ID(), r)
			p.Action = ActionMovingToPosition
			p.TargetPos = p.Pos
			p.sprinting = false
			if p.HasBall {
				p.Action = ActionMovingWithBall
			}
		}
	}()

	sb.player(p.ID()).sampleStamina(p.Stamina)

	// Committed wind-ups and stumbles run to completion.
	if p.StumbleTimer > 0 {
		return
	}
	switch p.Action {
	case ActionPreparingPass, ActionPreparingShot, ActionJumpShot,
		ActionTakingSetPiece, ActionTakingPenalty:
		if p.ActionTimer > 0 {
			return
		}
	}

	if p.IsKeeper() {
		ms.keeperDecide(p)
		return
	}

	phase := ms.Phases.Current()
	switch phase {
	case PhaseKickoff:
		ms.kickoffDecide(p)

	case PhaseHomeAttack, PhaseAwayAttack:
		attacker, _ := phase.AttackingSide()
		if p.Side == attacker {
			ms.offenseDecide(p, duration)
		} else {
			ms.defenseDecide(p)
		}

	case PhaseTransitionToHome, PhaseTransitionToAway:
		breaking := sideOfTransition(phase)
		if p.Side == breaking {
			ms.breakDecide(p, duration)
		} else {
			ms.retreatDecide(p)
		}

	case PhaseHomeSetPiece, PhaseAwaySetPiece:
		attacker, _ := phase.AttackingSide()
		ms.setPieceDecide(p, attacker)

	case PhaseHomePenalty, PhaseAwayPenalty:
		attacker, _ := phase.AttackingSide()
		ms.penaltyDecide(p, attacker)

	case PhaseContested:
		ms.contestedDecide(p)

	default:
		// Stopped phases: drift to the defensive anchor.
		p.Action = ActionMovingToPosition
		p.TargetPos = defenseAnchor(ms.Squad(p.Side), p.Data.Position)
		p.sprinting = false
	}
}

// sideOfTransition returns which side is breaking out in a transition phase.
func sideOfTransition(p Phase) court.Side {
	if p == PhaseTransitionToHome {
		return court.Home
	}
	return court.Away
}
