package sim

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"handsim/internal/court"
	"handsim/internal/team"
)

// Match engine. One goroutine owns the entire match state and advances it
// with a fixed simulated timestep, as fast as the host allows; simulated time
// and wall time are unrelated. Everything outside the engine goroutine reads
// through the snapshot pool, the event log or the finalized result.

// MatchRequest configures one simulation run.
type MatchRequest struct {
	HomeTeam *team.Team
	AwayTeam *team.Team

	// Seed drives every random draw in the match. The same request with the
	// same seed replays identically.
	Seed int64

	// Duration is total simulated seconds; zero means a full 2x30min match.
	Duration float64

	// TickDT is the fixed timestep; zero means the default.
	TickDT float64

	// EventLogPath, when set, appends newline-delimited JSON events to disk.
	EventLogPath string

	// TickObserver, when set, receives the wall-clock cost of every tick.
	// Called from the engine goroutine; keep it cheap.
	TickObserver func(time.Duration)
}

// Match is a single simulated handball match.
type Match struct {
	ID        string
	Seed      int64
	StartedAt time.Time

	req      MatchRequest
	duration float64
	dt       float64

	state *MatchState
	sb    *statBook
	log   *EventLog
	pool  *SnapshotPool

	// Mirrors readable without touching engine-owned state.
	timeoutsLeft [2]atomic.Int32
	finished     atomic.Bool

	timeoutReqs chan court.Side

	finalizeOnce sync.Once
	result       MatchResult
	done         chan struct{}

	firstThrow court.Side
}

// NewMatch validates the request and builds a ready-to-run match.
func NewMatch(req MatchRequest) (*Match, error) {
	if req.HomeTeam == nil {
		return nil, setupErr("homeTeam", "missing", nil)
	}
	if req.AwayTeam == nil {
		return nil, setupErr("awayTeam", "missing", nil)
	}
	if err := req.HomeTeam.Validate(); err != nil {
		return nil, setupErr("homeTeam", "invalid roster", err)
	}
	if err := req.AwayTeam.Validate(); err != nil {
		return nil, setupErr("awayTeam", "invalid roster", err)
	}
	if req.HomeTeam.ID == req.AwayTeam.ID {
		return nil, setupErr("awayTeam", "both sides are the same team", nil)
	}
	if req.Duration < 0 {
		return nil, setupErr("duration", "negative", nil)
	}
	if req.TickDT < 0 || req.TickDT > 0.25 {
		return nil, setupErr("tickDt", "outside (0, 0.25]", nil)
	}

	duration := req.Duration
	if duration == 0 {
		duration = DefaultDuration
	}
	dt := req.TickDT
	if dt == 0 {
		dt = DefaultTickDT
	}
	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	rng := rand.New(rand.NewSource(seed))

	state := &MatchState{
		Half:   1,
		Phases: newPhaseManager(),
		rng:    rng,
	}
	state.Squads[court.Home] = newSquad(req.HomeTeam, court.Home)
	state.Squads[court.Away] = newSquad(req.AwayTeam, court.Away)

	m := &Match{
		ID:          uuid.NewString(),
		Seed:        seed,
		req:         req,
		duration:    duration,
		dt:          dt,
		state:       state,
		sb:          newStatBook(state.Squads[court.Home], state.Squads[court.Away]),
		log:         NewEventLog(),
		pool:        NewSnapshotPool(),
		timeoutReqs: make(chan court.Side, 4),
		done:        make(chan struct{}),
		firstThrow:  court.Side(rng.Intn(2)),
	}
	m.timeoutsLeft[court.Home].Store(TimeoutsPerTeam)
	m.timeoutsLeft[court.Away].Store(TimeoutsPerTeam)
	return m, nil
}

// Snapshot returns the latest published view of the match.
func (m *Match) Snapshot() *MatchSnapshot { return m.pool.AcquireRead() }

// Progress reports how far through regulation time the match is, 0 to 1.
func (m *Match) Progress() float64 {
	if m.finished.Load() {
		return 1
	}
	if m.duration <= 0 {
		return 0
	}
	frac := m.pool.AcquireRead().Clock / m.duration
	if frac > 1 {
		frac = 1
	}
	return frac
}

// Events returns the retained events so far.
func (m *Match) Events() []Event { return m.log.Events() }

// EventsSince returns retained events after the given sequence number.
func (m *Match) EventsSince(after uint64) []Event { return m.log.EventsSince(after) }

// Done is closed when the match has finalized.
func (m *Match) Done() <-chan struct{} { return m.done }

// Result returns the final result once the match has finished.
func (m *Match) Result() (MatchResult, bool) {
	select {
	case <-m.done:
		return m.result, true
	default:
		return MatchResult{}, false
	}
}

// RequestTimeout asks for a team timeout on behalf of side s, as a coach
// override from outside the simulation. Validation runs against the mirrors;
// the engine applies the request at the next tick if it is still legal.
func (m *Match) RequestTimeout(s court.Side) error {
	if m.finished.Load() {
		return ErrMatchFinished
	}
	if m.timeoutsLeft[s].Load() <= 0 {
		return ErrNoTimeoutsLeft
	}
	select {
	case m.timeoutReqs <- s:
		return nil
	default:
		return fmt.Errorf("timeout request queue full")
	}
}

// Run simulates the match to completion and returns the result. Cancelling
// ctx aborts at the next tick boundary with a consistent partial result.
// Run must be called exactly once.
func (m *Match) Run(ctx context.Context) MatchResult {
	m.StartedAt = time.Now()

	if err := m.log.Start(m.req.EventLogPath); err != nil {
		log.Printf("⚠️ match %s: event log unavailable: %v", m.ID, err)
	}

	emit := func(ev Event) { m.log.Emit(ev) }
	ms := m.state

	log.Printf("🤾 match %s: %s vs %s (seed %d, %.0fs at dt=%.2fs)",
		m.ID, m.req.HomeTeam.Name, m.req.AwayTeam.Name, m.Seed, m.duration, m.dt)

	// Opening throw-off.
	if err := ms.Phases.BeginKickoff(); err == nil {
		ms.stageKickoff(m.firstThrow, emit)
	}

	aborted := false

loop:
	for ms.Phases.Current() != PhaseFinished {
		select {
		case <-ctx.Done():
			aborted = true
			break loop
		default:
		}

		var err error
		if obs := m.req.TickObserver; obs != nil {
			start := time.Now()
			err = m.tick(emit)
			obs(time.Since(start))
		} else {
			err = m.tick(emit)
		}
		if err != nil {
			log.Printf("💥 match %s: %v", m.ID, err)
			aborted = true
			break loop
		}
	}

	return m.finalize(aborted, emit)
}

// tick advances exactly one fixed timestep.
func (m *Match) tick(emit func(Event)) error {
	ms := m.state
	phase := ms.Phases.Current()

	if phase.ClockStopped() {
		m.tickStopped(emit)
		ms.Tick++
		ms.publishSnapshot(m.pool)
		return nil
	}

	ms.Clock += m.dt

	// Half-time and full-time boundaries.
	half := m.duration / 2
	if ms.Half == 1 && ms.Clock >= half {
		ms.Half = 2
		ms.pauseTimer = HalfTimePause
		m.result.HalfTimeScore = ms.Score
		emit(NewNeutralEvent(EventTypeHalfTime, ms.Clock, nil))
		if err := ms.Phases.HalfTime(); err != nil {
			return m.runtimeErr(err)
		}
		ms.Tick++
		ms.publishSnapshot(m.pool)
		return nil
	}
	if ms.Clock >= m.duration {
		emit(NewNeutralEvent(EventTypeFullTime, ms.Clock, nil))
		if err := ms.Phases.FullTime(); err != nil {
			return m.runtimeErr(err)
		}
		ms.publishSnapshot(m.pool)
		return nil
	}

	m.applyTimeoutRequests(emit)
	m.runCoaches(emit)

	ms.runDecisions(m.sb, m.duration)
	ms.stepPlayers(m.dt)
	ms.stepBall(m.dt)

	if err := ms.resolveTick(m.sb, emit, m.dt); err != nil {
		return m.runtimeErr(err)
	}

	if cur := ms.Phases.Current(); cur != phase {
		emit(NewNeutralEvent(EventTypePhaseChange, ms.Clock, PhaseChangePayload{
			From: string(phase),
			To:   string(cur),
		}))
	}

	m.accumulate(m.dt)
	ms.Tick++
	ms.publishSnapshot(m.pool)
	return nil
}

// tickStopped burns down a half-time or timeout pause.
func (m *Match) tickStopped(emit func(Event)) {
	ms := m.state
	switch ms.Phases.Current() {
	case PhaseHalfTime, PhaseTimeout:
		m.runBench(emit)
	}
	ms.pauseTimer -= m.dt
	if ms.pauseTimer > 0 {
		return
	}

	switch ms.Phases.Current() {
	case PhaseHalfTime:
		// Second half throw-off goes to the other side.
		if err := ms.Phases.BeginKickoff(); err == nil {
			ms.stageKickoff(m.firstThrow.Other(), emit)
		}
	case PhaseTimeout:
		if err := ms.Phases.ResumeFromTimeout(); err != nil {
			log.Printf("⚠️ match %s: %v", m.ID, err)
		}
	}
}

// applyTimeoutRequests drains externally requested timeouts.
func (m *Match) applyTimeoutRequests(emit func(Event)) {
	for {
		select {
		case s := <-m.timeoutReqs:
			m.callTimeout(s, "requested", emit)
		default:
			return
		}
	}
}

// runCoaches evaluates both bench AIs and applies their orders.
func (m *Match) runCoaches(emit func(Event)) {
	ms := m.state
	for _, s := range []court.Side{court.Home, court.Away} {
		sq := ms.Squad(s)
		orders := sq.coach.evaluate(ms, m.duration, emit)
		if orders.wantTimeout {
			m.callTimeout(s, orders.timeoutReason, emit)
		}
	}
}

// runBench applies substitutions. Play must be stopped; a swap during live
// play is illegal, so the bench only acts in the timeout and half-time ticks.
func (m *Match) runBench(emit func(Event)) {
	ms := m.state
	for _, s := range []court.Side{court.Home, court.Away} {
		sq := ms.Squad(s)
		if off, on := sq.coach.pickSubstitution(ms); off != nil && on != nil {
			if err := m.substitute(sq, off, on, "fatigue", emit); err != nil {
				log.Printf("⚠️ match %s: substitution: %v", m.ID, err)
			}
		}
	}
}

// callTimeout applies a timeout for side s if still legal.
func (m *Match) callTimeout(s court.Side, reason string, emit func(Event)) {
	ms := m.state
	sq := ms.Squad(s)
	if sq.TimeoutsLeft <= 0 || ms.Phases.Current().ClockStopped() {
		return
	}
	// A team may only stop the game while it holds the ball.
	holder := ms.Holder()
	if holder == nil || holder.Side != s {
		return
	}
	if err := ms.Phases.CallTimeout(); err != nil {
		return
	}
	sq.TimeoutsLeft--
	sq.lastTimeoutAt = ms.Clock
	ms.pauseTimer = TimeoutPause
	m.timeoutsLeft[s].Store(int32(sq.TimeoutsLeft))
	m.sb.team[s].TimeoutsUsed++
	emit(NewEvent(EventTypeTimeout, ms.Clock, s, "", TimeoutPayload{
		Remaining: sq.TimeoutsLeft,
		Reason:    reason,
	}))
}

// substitute swaps off for on. Legal only while play is stopped for a timeout
// or the interval. The outgoing player keeps any suspension bookkeeping; a
// suspended player cannot be replaced early.
func (m *Match) substitute(sq *Squad, off, on *SimPlayer, reason string, emit func(Event)) error {
	ms := m.state
	if cur := ms.Phases.Current(); cur != PhaseTimeout && cur != PhaseHalfTime {
		return ErrIllegalSubstitution
	}
	if off.Suspended(ms.Clock) || off.HasBall {
		return ErrIllegalSubstitution
	}

	offIdx, onIdx := -1, -1
	for i, p := range sq.OnCourt {
		if p == off {
			offIdx = i
		}
	}
	for i, p := range sq.Bench {
		if p == on {
			onIdx = i
		}
	}
	if offIdx < 0 || onIdx < 0 {
		return ErrIllegalSubstitution
	}

	// The swap itself: one out, one in, on-court count unchanged.
	on.Pos = benchSpot(sq.Side)
	on.TargetPos = defenseAnchor(sq, on.Data.Position)
	on.Action = ActionMovingToPosition
	sq.OnCourt[offIdx] = on
	sq.Bench[onIdx] = off
	off.Pos = benchSpot(sq.Side)
	off.Vel = mgl64.Vec2{}
	sq.lastSubAt = ms.Clock

	m.sb.team[sq.Side].Substitutions++
	emit(NewEvent(EventTypeSubstitution, ms.Clock, sq.Side, on.ID(), SubstitutionPayload{
		OffID:  off.ID(),
		OnID:   on.ID(),
		Reason: reason,
	}))
	return nil
}

// accumulate updates the per-tick counters: time played, distance covered,
// possession time.
func (m *Match) accumulate(dt float64) {
	ms := m.state
	for _, sq := range ms.Squads {
		for _, p := range sq.OnCourt {
			if p.Suspended(ms.Clock) {
				continue
			}
			ps := m.sb.player(p.ID())
			ps.SecondsPlayed += dt
			ps.MetersCovered += p.Vel.Len() * dt
		}
	}
	if holder := ms.Holder(); holder != nil {
		m.sb.team[holder.Side].PossessionSeconds += dt
	}
}

func (m *Match) runtimeErr(err error) error {
	return &RuntimeError{Tick: m.state.Tick, Clock: m.state.Clock, Err: err}
}

// finalize builds the result exactly once. Safe to reach from both the
// normal full-time path and an abort; later calls return the same result.
func (m *Match) finalize(aborted bool, emit func(Event)) MatchResult {
	m.finalizeOnce.Do(func() {
		ms := m.state
		m.finished.Store(true)

		if aborted && ms.Phases.Current() != PhaseFinished {
			// Force the terminal phase so nothing can keep mutating.
			_ = ms.Phases.FullTime()
		}

		m.sb.reconcile(ms.Score)

		m.result.MatchID = m.ID
		m.result.Seed = m.Seed
		m.result.Home = m.sb.teamResult(court.Home, ms.Squad(court.Home), ms.Score[court.Home])
		m.result.Away = m.sb.teamResult(court.Away, ms.Squad(court.Away), ms.Score[court.Away])
		m.result.DurationPlayed = ms.Clock
		m.result.Ticks = ms.Tick
		m.result.StartedAt = m.StartedAt
		m.result.FinishedAt = time.Now()
		m.result.IsAborted = aborted

		m.log.Stop()
		m.result.Events = m.log.Events()

		log.Printf("🏁 match %s final: %s %d - %d %s (%.0fs, %d ticks, aborted=%v)",
			m.ID, m.req.HomeTeam.Name, ms.Score[court.Home],
			ms.Score[court.Away], m.req.AwayTeam.Name, ms.Clock, ms.Tick, aborted)

		close(m.done)
	})
	return m.result
}
