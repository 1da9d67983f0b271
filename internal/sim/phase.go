package sim

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"handsim/internal/court"
)

// Phase is a distinct mode of play. Exactly one phase is active at any time;
// transitions happen only through the PhaseManager in response to match
// events, never by direct assignment.
type Phase string

const (
	PhasePreKickoff Phase = "pre_kickoff"
	PhaseKickoff    Phase = "kickoff"

	PhaseHomeAttack Phase = "home_attack"
	PhaseAwayAttack Phase = "away_attack"

	PhaseTransitionToHome Phase = "transition_to_home_attack"
	PhaseTransitionToAway Phase = "transition_to_away_attack"

	PhaseHomeSetPiece Phase = "home_set_piece"
	PhaseAwaySetPiece Phase = "away_set_piece"
	PhaseHomePenalty  Phase = "home_penalty"
	PhaseAwayPenalty  Phase = "away_penalty"

	PhaseContested Phase = "contested"

	PhaseHalfTime Phase = "half_time"
	PhaseTimeout  Phase = "timeout"
	PhaseFinished Phase = "finished"
)

// ClockStopped reports whether the match clock is paused in this phase.
func (p Phase) ClockStopped() bool {
	switch p {
	case PhaseHalfTime, PhaseTimeout, PhaseFinished, PhasePreKickoff:
		return true
	}
	return false
}

// AttackingSide returns which side has structured possession in this phase,
// and false for phases with no attacker (contested, breaks, kickoff).
func (p Phase) AttackingSide() (court.Side, bool) {
	switch p {
	case PhaseHomeAttack, PhaseHomeSetPiece, PhaseHomePenalty:
		return court.Home, true
	case PhaseAwayAttack, PhaseAwaySetPiece, PhaseAwayPenalty:
		return court.Away, true
	}
	return court.Home, false
}

// Phase transition event names. Side-specific events exist because the state
// machine maps each event to a fixed destination state.
const (
	evBeginKickoff = "begin_kickoff"

	evHomePossession = "home_possession"
	evAwayPossession = "away_possession"
	evBreakToHome    = "break_to_home"
	evBreakToAway    = "break_to_away"

	evAwardHomeSetPiece = "award_home_set_piece"
	evAwardAwaySetPiece = "award_away_set_piece"
	evAwardHomePenalty  = "award_home_penalty"
	evAwardAwayPenalty  = "award_away_penalty"

	evBallContested = "ball_contested"
	evHalfTime      = "half_time"
	evCallTimeout   = "call_timeout"
	evFullTime      = "full_time"
)

// openPlay is every phase in which the ball is live and the clock runs.
var openPlay = []string{
	string(PhaseKickoff),
	string(PhaseHomeAttack), string(PhaseAwayAttack),
	string(PhaseTransitionToHome), string(PhaseTransitionToAway),
	string(PhaseHomeSetPiece), string(PhaseAwaySetPiece),
	string(PhaseHomePenalty), string(PhaseAwayPenalty),
	string(PhaseContested),
}

// PhaseManager owns the match phase state machine. Finished is absorbing: no
// event leads out of it, so a finalized match cannot resume.
type PhaseManager struct {
	fsm *fsm.FSM

	// preTimeout remembers the phase to resume after a timeout.
	preTimeout Phase
}

func newPhaseManager() *PhaseManager {
	pm := &PhaseManager{}
	pm.fsm = fsm.NewFSM(
		string(PhasePreKickoff),
		fsm.Events{
			{Name: evBeginKickoff, Src: append(append([]string{}, openPlay...), string(PhasePreKickoff), string(PhaseHalfTime)), Dst: string(PhaseKickoff)},

			// Possession established in open play or after a restart.
			{Name: evHomePossession, Src: openPlay, Dst: string(PhaseHomeAttack)},
			{Name: evAwayPossession, Src: openPlay, Dst: string(PhaseAwayAttack)},

			// Fast breaks out of a turnover or a save.
			{Name: evBreakToHome, Src: openPlay, Dst: string(PhaseTransitionToHome)},
			{Name: evBreakToAway, Src: openPlay, Dst: string(PhaseTransitionToAway)},

			{Name: evAwardHomeSetPiece, Src: openPlay, Dst: string(PhaseHomeSetPiece)},
			{Name: evAwardAwaySetPiece, Src: openPlay, Dst: string(PhaseAwaySetPiece)},
			{Name: evAwardHomePenalty, Src: openPlay, Dst: string(PhaseHomePenalty)},
			{Name: evAwardAwayPenalty, Src: openPlay, Dst: string(PhaseAwayPenalty)},

			{Name: evBallContested, Src: openPlay, Dst: string(PhaseContested)},

			{Name: evHalfTime, Src: openPlay, Dst: string(PhaseHalfTime)},
			{Name: evCallTimeout, Src: openPlay, Dst: string(PhaseTimeout)},
			{Name: evFullTime, Src: append(append([]string{}, openPlay...), string(PhaseHalfTime), string(PhaseTimeout)), Dst: string(PhaseFinished)},
		},
		fsm.Callbacks{},
	)
	return pm
}

// Current returns the active phase.
func (pm *PhaseManager) Current() Phase {
	return Phase(pm.fsm.Current())
}

// fire triggers a transition event. An event that is invalid from the current
// phase is a programming error in the engine, so it is returned wrapped for
// the engine's runtime error path rather than ignored.
func (pm *PhaseManager) fire(event string) error {
	if err := pm.fsm.Event(context.Background(), event); err != nil {
		return fmt.Errorf("phase transition %q from %q: %w", event, pm.fsm.Current(), err)
	}
	return nil
}

// PossessionGained moves to the attack phase of the side now holding the ball.
func (pm *PhaseManager) PossessionGained(s court.Side) error {
	if s == court.Home {
		return pm.fire(evHomePossession)
	}
	return pm.fire(evAwayPossession)
}

// FastBreak moves to the transition phase for the side breaking out.
func (pm *PhaseManager) FastBreak(s court.Side) error {
	if s == court.Home {
		return pm.fire(evBreakToHome)
	}
	return pm.fire(evBreakToAway)
}

// AwardSetPiece moves to the set-piece phase for the attacking side s.
func (pm *PhaseManager) AwardSetPiece(s court.Side) error {
	if s == court.Home {
		return pm.fire(evAwardHomeSetPiece)
	}
	return pm.fire(evAwardAwaySetPiece)
}

// AwardPenalty moves to the 7m-throw phase for the attacking side s.
func (pm *PhaseManager) AwardPenalty(s court.Side) error {
	if s == court.Home {
		return pm.fire(evAwardHomePenalty)
	}
	return pm.fire(evAwardAwayPenalty)
}

// BallContested enters the loose-ball scramble phase.
func (pm *PhaseManager) BallContested() error { return pm.fire(evBallContested) }

// BeginKickoff arms a kickoff from pre-match or half-time.
func (pm *PhaseManager) BeginKickoff() error { return pm.fire(evBeginKickoff) }

// HalfTime stops play for the interval.
func (pm *PhaseManager) HalfTime() error { return pm.fire(evHalfTime) }

// CallTimeout pauses play, remembering the phase to resume into.
func (pm *PhaseManager) CallTimeout() error {
	prev := pm.Current()
	if err := pm.fire(evCallTimeout); err != nil {
		return err
	}
	pm.preTimeout = prev
	return nil
}

// ResumeFromTimeout restores the interrupted phase. The state machine has no
// per-phase resume events, so this is the one sanctioned direct state set.
func (pm *PhaseManager) ResumeFromTimeout() error {
	if pm.Current() != PhaseTimeout {
		return fmt.Errorf("resume from timeout: phase is %q", pm.Current())
	}
	pm.fsm.SetState(string(pm.preTimeout))
	return nil
}

// FullTime ends the match. Finished is terminal.
func (pm *PhaseManager) FullTime() error { return pm.fire(evFullTime) }
