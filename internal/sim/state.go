package sim

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"handsim/internal/court"
	"handsim/internal/team"
)

// Squad is one team's live match state: the seven on court, the bench, and
// the coach's ledgers for timeouts, substitutions and momentum tracking.
// A suspended player stays in OnCourt for roster bookkeeping but is parked at
// the sideline and skipped by the AI until the suspension clock passes.
type Squad struct {
	Team *team.Team
	Side court.Side

	// Tactic is this squad's live copy; the coach mutates it, the roster's
	// original stays untouched.
	Tactic team.Tactic

	OnCourt []*SimPlayer
	Bench   []*SimPlayer

	TimeoutsLeft  int
	lastTimeoutAt float64
	lastSubAt     float64

	// Recent goal clocks, scored and conceded, for momentum detection.
	goalTimes     []float64
	concededTimes []float64

	coach *coachBrain
}

// newSquad builds the live squad: the best starting seven on court at their
// defensive anchors, the rest on the bench.
func newSquad(t *team.Team, side court.Side) *Squad {
	sq := &Squad{
		Team:         t,
		Side:         side,
		Tactic:       t.Tactic,
		TimeoutsLeft: TimeoutsPerTeam,
	}

	starters := pickStarters(t)
	onCourt := make(map[string]bool, len(starters))
	for _, pd := range starters {
		anchor := formationAnchor(sq.Tactic.DefenseFormation, pd.Position, side, sq.Tactic)
		sq.OnCourt = append(sq.OnCourt, newSimPlayer(pd, side, anchor))
		onCourt[pd.ID] = true
	}
	for _, pd := range t.Players {
		if !onCourt[pd.ID] {
			sq.Bench = append(sq.Bench, newSimPlayer(pd, side, benchSpot(side)))
		}
	}
	sq.coach = newCoachBrain(sq)
	return sq
}

// pickStarters selects one keeper plus the six best outfield players, at most
// one per outfield role where the roster allows it.
func pickStarters(t *team.Team) []team.PlayerData {
	var starters []team.PlayerData

	// Best keeper by the keeper-relevant attributes.
	bestK := -1
	bestKScore := -1
	for i, p := range t.Players {
		if !p.IsKeeper() {
			continue
		}
		score := p.Attr.Reflexes + p.Attr.Handling + p.Attr.OneOnOnes
		if score > bestKScore {
			bestKScore = score
			bestK = i
		}
	}
	starters = append(starters, t.Players[bestK])
	taken := map[string]bool{t.Players[bestK].ID: true}

	// One per outfield role first.
	for _, pos := range team.FieldPositions {
		best := -1
		bestScore := -1
		for i, p := range t.Players {
			if taken[p.ID] || p.IsKeeper() || p.Position != pos {
				continue
			}
			score := outfieldScore(p)
			if score > bestScore {
				bestScore = score
				best = i
			}
		}
		if best >= 0 {
			starters = append(starters, t.Players[best])
			taken[t.Players[best].ID] = true
		}
	}

	// Fill any unstaffed roles with the best remaining outfield players.
	for len(starters) < team.MatchSquadSize {
		best := -1
		bestScore := -1
		for i, p := range t.Players {
			if taken[p.ID] || p.IsKeeper() {
				continue
			}
			score := outfieldScore(p)
			if score > bestScore {
				bestScore = score
				best = i
			}
		}
		if best < 0 {
			break
		}
		starters = append(starters, t.Players[best])
		taken[t.Players[best].ID] = true
	}
	return starters
}

func outfieldScore(p team.PlayerData) int {
	return p.Attr.Speed + p.Attr.Throwing + p.Attr.Catching + p.Attr.TacticalAwareness
}

// benchSpot is where bench (and suspended) players stand: off the sideline on
// the squad's own half.
func benchSpot(s court.Side) mgl64.Vec2 {
	x := court.Length * 0.25
	if s == court.Away {
		x = court.Length * 0.75
	}
	return mgl64.Vec2{x, -1.5}
}

// Keeper returns the on-court goalkeeper, or nil during an empty-net spell.
func (sq *Squad) Keeper() *SimPlayer {
	for _, p := range sq.OnCourt {
		if p.IsKeeper() {
			return p
		}
	}
	return nil
}

// Find returns the on-court player with the given id.
func (sq *Squad) Find(id string) *SimPlayer {
	for _, p := range sq.OnCourt {
		if p.ID() == id {
			return p
		}
	}
	return nil
}

// All returns on-court players followed by the bench.
func (sq *Squad) All() []*SimPlayer {
	out := make([]*SimPlayer, 0, len(sq.OnCourt)+len(sq.Bench))
	out = append(out, sq.OnCourt...)
	out = append(out, sq.Bench...)
	return out
}

// Active returns the on-court players currently allowed to act.
func (sq *Squad) Active(clock float64) []*SimPlayer {
	out := make([]*SimPlayer, 0, len(sq.OnCourt))
	for _, p := range sq.OnCourt {
		if !p.Suspended(clock) {
			out = append(out, p)
		}
	}
	return out
}

// recordGoal notes a scored goal time and trims the momentum window.
func (sq *Squad) recordGoal(clock float64) {
	sq.goalTimes = trimWindow(append(sq.goalTimes, clock), clock)
}

// recordConceded notes a conceded goal time and trims the momentum window.
func (sq *Squad) recordConceded(clock float64) {
	sq.concededTimes = trimWindow(append(sq.concededTimes, clock), clock)
}

func trimWindow(times []float64, clock float64) []float64 {
	cutoff := clock - ConcededWindow
	for len(times) > 0 && times[0] < cutoff {
		times = times[1:]
	}
	return times
}

// MatchState is the complete mutable world of one match. Owned exclusively by
// the engine goroutine; everything outside reads through snapshots.
type MatchState struct {
	Clock float64 // simulated seconds of play, paused in stopped phases
	Tick  uint64
	Half  int // 1 or 2

	Score  [2]int // indexed by court.Side
	Squads [2]*Squad
	Ball   SimBall

	Phases *PhaseManager

	// pauseTimer counts down the remaining stopped-clock time in half_time
	// and timeout phases.
	pauseTimer float64

	// setPieceAt is where the current set piece or penalty restarts from;
	// restartAt is the earliest clock time the throw may be taken.
	setPieceAt mgl64.Vec2
	restartAt  float64

	// contestedSince bounds how long a loose-ball scramble can last before
	// possession is forced to the nearest player.
	contestedSince float64

	// lastTouch is the side that last played the ball, for out-of-bounds
	// awards.
	lastTouch court.Side

	// lastPasser, per side, is who completed the most recent pass; it backs
	// assist crediting.
	lastPasser [2]string

	// pendingShot tracks a live shot until it settles at the goal plane.
	pendingShot *pendingShot

	// kickoffTakerID marks the restart thrower so the kickoff phase can end
	// when a teammate controls the throw.
	kickoffTakerID string

	rng *rand.Rand
}

// pendingShot is the context of an in-flight shot.
type pendingShot struct {
	shooterID  string
	side       court.Side
	speed      float64
	fromMeters float64
	penalty    bool
	passerID   string
}

// Squad returns the squad playing on side s.
func (ms *MatchState) Squad(s court.Side) *Squad { return ms.Squads[s] }

// PlayerByID finds an on-court player on either side.
func (ms *MatchState) PlayerByID(id string) *SimPlayer {
	if id == "" {
		return nil
	}
	for _, sq := range ms.Squads {
		if p := sq.Find(id); p != nil {
			return p
		}
	}
	return nil
}

// Holder returns the player currently in possession, or nil.
func (ms *MatchState) Holder() *SimPlayer {
	return ms.PlayerByID(ms.Ball.HolderID)
}

// HalfDuration is the length of one half for the configured match duration.
func (ms *MatchState) HalfDuration(total float64) float64 { return total / 2 }
