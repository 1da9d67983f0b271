package sim

import (
	"fmt"

	"handsim/internal/team"
)

// coachBrain is one team's bench AI. It runs on a fixed cadence, far slower
// than player decisions, and is the only writer of the squad's live tactic.
// Rules are checked in priority order and at most one fires per evaluation,
// so the tactic shifts gradually instead of thrashing.
type coachBrain struct {
	sq *Squad

	nextEvalAt float64

	// Remembered so a rule doesn't re-fire every evaluation while its
	// condition persists.
	lastRuleFired string
	lastRuleAt    float64
}

func newCoachBrain(sq *Squad) *coachBrain {
	return &coachBrain{sq: sq}
}

// coachOrders is what an evaluation asks the engine to do. Tactic changes are
// applied directly by the coach; a timeout needs the engine because it touches
// the phase machine. Substitutions are picked separately, only while play is
// stopped.
type coachOrders struct {
	wantTimeout   bool
	timeoutReason string
}

// evaluate runs the coaching rules if the cadence is due. emit receives any
// tactic-change events.
func (cb *coachBrain) evaluate(ms *MatchState, duration float64, emit func(Event)) coachOrders {
	if ms.Clock < cb.nextEvalAt {
		return coachOrders{}
	}
	cb.nextEvalAt = ms.Clock + CoachInterval

	var orders coachOrders
	cb.applyAdaptation(ms, duration, emit)
	if cb.wantsTimeout(ms, duration) {
		orders.wantTimeout = true
		orders.timeoutReason = cb.timeoutReason(ms, duration)
	}
	return orders
}

// applyAdaptation checks the tactical rules in priority order; the first that
// fires wins this evaluation.
func (cb *coachBrain) applyAdaptation(ms *MatchState, duration float64, emit func(Event)) {
	sq := cb.sq
	margin := ms.Score[sq.Side] - ms.Score[sq.Side.Other()]
	remaining := duration - ms.Clock

	fire := func(rule, detail string) {
		cb.lastRuleFired = rule
		cb.lastRuleAt = ms.Clock
		emit(NewEvent(EventTypeTacticChange, ms.Clock, sq.Side, "",
			TacticChangePayload{Rule: rule, Detail: detail}))
	}
	refire := func(rule string) bool {
		// The same rule waits two intervals before escalating further.
		return cb.lastRuleFired == rule && ms.Clock-cb.lastRuleAt < 2*CoachInterval
	}

	// Rule 1: trailing late, chase the game.
	if margin < 0 && remaining < LateGameWindow && !refire("chase") {
		sq.Tactic.AdjustRisk(+20)
		sq.Tactic.AdjustAggression(+20)
		sq.Tactic.Pace = team.PaceFast
		if margin <= -2 {
			sq.Tactic.Marking = team.MarkingMan
		}
		fire("chase", fmt.Sprintf("down %d with %.0fs left", -margin, remaining))
		return
	}

	// Rule 2: sitting on a big first-half lead, kill the tempo.
	if margin > BigLeadMargin && ms.Half == 1 && !refire("protect") {
		sq.Tactic.AdjustRisk(-20)
		sq.Tactic.Pace = team.PaceSlow
		sq.Tactic.Marking = team.MarkingZonal
		fire("protect", fmt.Sprintf("up %d in the first half", margin))
		return
	}

	// Rule 3: leaking goals, push the block up and press.
	if len(sq.concededTimes) > ConcededBurst && !refire("press") {
		sq.Tactic.AdjustLineHeight(+10)
		sq.Tactic.AdjustAggression(+10)
		fire("press", fmt.Sprintf("conceded %d in the last %.0fs", len(sq.concededTimes), ConcededWindow))
		return
	}
}

// wantsTimeout applies the timeout policy: only with timeouts in hand, off
// cooldown, while the team holds the ball, and only for opponent momentum or
// a crucial late stretch.
func (cb *coachBrain) wantsTimeout(ms *MatchState, duration float64) bool {
	sq := cb.sq
	if sq.TimeoutsLeft <= 0 {
		return false
	}
	if sq.lastTimeoutAt > 0 && ms.Clock-sq.lastTimeoutAt < TimeoutCooldown {
		return false
	}
	holder := ms.Holder()
	if holder == nil || holder.Side != sq.Side {
		return false
	}
	return cb.momentumAgainst(ms) || cb.crucialMoment(ms, duration)
}

func (cb *coachBrain) timeoutReason(ms *MatchState, duration float64) string {
	if cb.momentumAgainst(ms) {
		return "momentum"
	}
	if cb.crucialMoment(ms, duration) {
		return "crucial"
	}
	return ""
}

// momentumAgainst: conceded a burst recently without answering.
func (cb *coachBrain) momentumAgainst(ms *MatchState) bool {
	sq := cb.sq
	conceded := countSince(sq.concededTimes, ms.Clock-MomentumWindow)
	scored := countSince(sq.goalTimes, ms.Clock-MomentumWindow)
	return conceded-scored >= MomentumSwing
}

// crucialMoment: tight score in the final stretch of either half.
func (cb *coachBrain) crucialMoment(ms *MatchState, duration float64) bool {
	sq := cb.sq
	margin := ms.Score[sq.Side] - ms.Score[sq.Side.Other()]
	if margin > CrucialMargin || margin < -CrucialMargin {
		return false
	}
	half := duration / 2
	intoHalf := ms.Clock
	if ms.Half == 2 {
		intoHalf = ms.Clock - half
	}
	return half-intoHalf < CrucialWindow && half-intoHalf > 0
}

func countSince(times []float64, cutoff float64) int {
	n := 0
	for _, t := range times {
		if t >= cutoff {
			n++
		}
	}
	return n
}

// pickSubstitution finds the most tired eligible on-court player and a
// meaningfully fresher like-for-like bench replacement.
func (cb *coachBrain) pickSubstitution(ms *MatchState) (*SimPlayer, *SimPlayer) {
	sq := cb.sq
	if sq.lastSubAt > 0 && ms.Clock-sq.lastSubAt < SubCooldown {
		return nil, nil
	}

	var tired *SimPlayer
	worst := SubStaminaMin
	for _, p := range sq.OnCourt {
		if p.IsKeeper() || p.Suspended(ms.Clock) || p.HasBall {
			continue
		}
		frac := 0.0
		if p.StaminaCeiling > 1e-9 {
			frac = p.Stamina / p.StaminaCeiling
		}
		if frac < worst {
			worst = frac
			tired = p
		}
	}
	if tired == nil {
		return nil, nil
	}

	var fresh *SimPlayer
	bestFrac := worst + SubStaminaMargin
	for _, b := range sq.Bench {
		if b.IsKeeper() != tired.IsKeeper() {
			continue
		}
		if b.Data.Position != tired.Data.Position {
			continue
		}
		frac := b.Stamina / b.StaminaCeiling
		if frac >= bestFrac {
			bestFrac = frac
			fresh = b
		}
	}
	if fresh == nil {
		// No like-for-like: any outfield player with a full tank will do.
		for _, b := range sq.Bench {
			if b.IsKeeper() {
				continue
			}
			frac := b.Stamina / b.StaminaCeiling
			if frac >= worst+SubStaminaMargin && (fresh == nil || frac > fresh.Stamina/fresh.StaminaCeiling) {
				fresh = b
			}
		}
	}
	if fresh == nil {
		return nil, nil
	}
	return tired, fresh
}
