package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"handsim/internal/court"
	"handsim/internal/team"
)

// Action and rules resolution. Runs after decisions and movement each tick:
// releases wound-up passes and shots, resolves catches, tackles and fouls,
// enforces the steps and dribble rules, detects goals and out-of-bounds, and
// drives the phase machine from what happened on the floor.

const (
	contestedMaxDuration = 4.0
	restartDelay         = 1.0
)

// resolveTick is the per-tick rules pass.
func (ms *MatchState) resolveTick(sb *statBook, emit func(Event), dt float64) error {
	ms.tickActionTimers(sb, emit, dt)

	if holder := ms.Holder(); holder != nil {
		if err := ms.enforceHolderRules(holder, sb, emit); err != nil {
			return err
		}
		if holder2 := ms.Holder(); holder2 != nil {
			ms.resolveChallenges(holder2, sb, emit)
		}
	}

	if ms.Ball.Loose() {
		if err := ms.resolveLooseBall(sb, emit); err != nil {
			return err
		}
	}
	return ms.syncPossessionPhase(emit)
}

// tickActionTimers counts down wind-ups and fires the release at zero.
func (ms *MatchState) tickActionTimers(sb *statBook, emit func(Event), dt float64) {
	for _, sq := range ms.Squads {
		for _, p := range sq.Active(ms.Clock) {
			if p.ActionTimer <= 0 {
				continue
			}
			p.ActionTimer -= dt
			if p.ActionTimer > 0 {
				continue
			}
			p.ActionTimer = 0

			switch p.Action {
			case ActionPreparingPass:
				ms.releasePass(p, sb, emit)
			case ActionPreparingShot:
				ms.releaseShot(p, sb, emit, false)
			case ActionJumpShot:
				ms.releaseShot(p, sb, emit, false)
			case ActionTakingPenalty:
				ms.releaseShot(p, sb, emit, true)
			}
		}
	}
}

// releasePass throws the ball at the target's anticipated position.
func (ms *MatchState) releasePass(p *SimPlayer, sb *statBook, emit func(Event)) {
	mate := ms.PlayerByID(p.TargetID)
	if mate == nil || !p.HasBall {
		p.Action = ActionIdle
		return
	}

	// Lead the receiver.
	flight := mate.Pos.Sub(p.Pos).Len() / PassSpeed
	aim := mate.Pos.Add(mate.Vel.Mul(flight * 0.8))

	// Throwing error, tightened by skill and pressure-adjusted composure.
	errScale := PassMaxError * (1 - 0.7*float64(p.Data.Attr.Throwing)/100)
	errScale *= 1 + 0.5*pressureOn(ms, p)*(1-float64(p.Data.Pers.Composure)/100)
	aim = aim.Add(mgl64.Vec2{
		ms.rng.NormFloat64() * errScale * 0.5,
		ms.rng.NormFloat64() * errScale * 0.5,
	})

	dir3 := mgl64.Vec3{aim.X() - p.Pos.X(), aim.Y() - p.Pos.Y(), 0}
	dist := dir3.Len()
	if dist < 1e-9 {
		dist = 1
		dir3 = mgl64.Vec3{1, 0, 0}
	}
	// Flat velocity from pass pace, vertical chosen so the ball arrives at
	// catchable height despite gravity.
	t := dist / PassSpeed
	vz := (PassArcHeight-1.6)/t + 0.5*court.Gravity*t
	vel := mgl64.Vec3{dir3.X() * PassSpeed / dist, dir3.Y() * PassSpeed / dist, vz}

	p.DropBall()
	ms.Ball.Pos = mgl64.Vec3{p.Pos.X(), p.Pos.Y(), 1.6 + p.Height}
	ms.Ball.Release(vel, mgl64.Vec3{})
	ms.Ball.PasserID = p.ID()
	ms.Ball.TargetID = mate.ID()
	ms.lastTouch = p.Side

	p.Action = ActionIdle
	mate.Action = ActionReceivingPass
	mate.TargetPos = aim

	sb.player(p.ID()).PassesAttempted++
	emit(NewEvent(EventTypePass, ms.Clock, p.Side, p.ID(), nil))
}

// releaseShot fires at the best corner of the goal mouth, with aim error from
// skill, pressure and fatigue. Penalties use a still ball from the 7m mark.
func (ms *MatchState) releaseShot(p *SimPlayer, sb *statBook, emit func(Event), penalty bool) {
	if !p.HasBall {
		p.Action = ActionIdle
		return
	}

	goal := court.AttackedGoal(p.Side)
	fromMeters := court.DistanceToGoal(p.Side, p.Pos)

	// Pick the corner farther from the keeper.
	keeper := ms.Squad(p.Side.Other()).Keeper()
	cornerY := goal.Y() - court.GoalWidth/2 + 0.2
	if keeper != nil && keeper.Pos.Y() < goal.Y() {
		cornerY = goal.Y() + court.GoalWidth/2 - 0.2
	}
	cornerZ := 0.4
	if ms.rng.Float64() < 0.5 {
		cornerZ = court.GoalHeight - 0.4
	}

	speed := lerp(ShotSpeedMin, ShotSpeedMax, float64(p.Data.Attr.Throwing)/100)
	speed *= staminaFactor(p)

	errScale := ShotMaxError * (1 - 0.65*float64(p.Data.Attr.Throwing)/100)
	if !penalty {
		errScale *= 1 + 0.6*pressureOn(ms, p)*(1-float64(p.Data.Pers.Composure)/100)
	} else {
		errScale *= 0.5 * (1 - 0.5*float64(p.Data.Pers.Composure)/100)
	}
	aimY := cornerY + ms.rng.NormFloat64()*errScale*0.5
	aimZ := cornerZ + ms.rng.NormFloat64()*errScale*0.4

	release := mgl64.Vec3{p.Pos.X(), p.Pos.Y(), 1.8 + p.Height}
	flat := math.Hypot(goal.X()-release.X(), aimY-release.Y())
	t := flat / speed
	vel := mgl64.Vec3{
		(goal.X() - release.X()) / t,
		(aimY - release.Y()) / t,
		(aimZ-release.Z())/t + 0.5*court.Gravity*t,
	}

	p.DropBall()
	ms.Ball.Pos = release
	// Sidespin from the throwing arm bends the shot slightly.
	spinZ := 3.0
	if p.Data.Hand == "left" {
		spinZ = -3.0
	}
	ms.Ball.Release(vel, mgl64.Vec3{0, 0, spinZ})
	ms.Ball.ShooterID = p.ID()
	ms.lastTouch = p.Side

	p.Action = ActionIdle
	sb.player(p.ID()).ShotsTaken++
	sb.team[p.Side].ShotsTaken++
	emit(NewEvent(EventTypeShot, ms.Clock, p.Side, p.ID(), ShotPayload{
		ShooterID:  p.ID(),
		ShotSpeed:  speed,
		FromMeters: fromMeters,
		Jumping:    p.Jumping,
		Penalty:    penalty,
	}))

	ms.pendingShot = &pendingShot{
		shooterID:  p.ID(),
		side:       p.Side,
		speed:      speed,
		fromMeters: fromMeters,
		penalty:    penalty,
		passerID:   ms.lastPasser[p.Side],
	}

	// A defender with the block up can get a hand to the release. Jump shots
	// go over the wall; penalties are uncontested.
	if penalty {
		return
	}
	if blocker := ms.shotBlocker(p); blocker != nil {
		blockP := 0.12 + 0.30*float64(blocker.Data.Attr.Blocking)/100
		if p.Jumping {
			blockP *= 0.4
		}
		if ms.rng.Float64() < blockP {
			sb.player(blocker.ID()).Blocks++
			sb.team[blocker.Side].Blocks++
			emit(NewEvent(EventTypeBlock, ms.Clock, blocker.Side, blocker.ID(), nil))
			ms.pendingShot = nil
			ms.Ball.clearFlight()
			// Ricochet off the hands, back and up, loose for the scramble.
			ms.Ball.Vel = mgl64.Vec3{-vel.X() * 0.15, vel.Y() * 0.15, 3.5}
			ms.Ball.Spin = mgl64.Vec3{}
		}
	}
}

// shotBlocker returns the nearest defender standing in blocking stance between
// the shooter and the goal, close enough to contest the release.
func (ms *MatchState) shotBlocker(shooter *SimPlayer) *SimPlayer {
	dir := court.AttackDirection(shooter.Side)
	var best *SimPlayer
	bestDist := BlockRange
	for _, d := range ms.Squad(shooter.Side.Other()).Active(ms.Clock) {
		if d.Action != ActionBlocking || d.IsKeeper() {
			continue
		}
		rel := d.Pos.Sub(shooter.Pos)
		if rel.Dot(dir) <= 0 {
			continue
		}
		if dist := rel.Len(); dist < bestDist {
			bestDist = dist
			best = d
		}
	}
	return best
}

// screenerNear reports whether an attacker has a screen set for the holder
// within contact range of defender d.
func (ms *MatchState) screenerNear(d, holder *SimPlayer) bool {
	for _, a := range ms.Squad(holder.Side).Active(ms.Clock) {
		if a.ScreenForID != holder.ID() {
			continue
		}
		if a.Pos.Sub(d.Pos).Len() < ScreenRange {
			return true
		}
	}
	return false
}

// enforceHolderRules applies the steps and double-dribble rules.
func (ms *MatchState) enforceHolderRules(holder *SimPlayer, sb *statBook, emit func(Event)) error {
	if holder.StepCount > MaxStepCount {
		return ms.turnover(holder, "steps", sb, emit)
	}
	if holder.Dribbling && holder.HasDribbled {
		return ms.turnover(holder, "double_dribble", sb, emit)
	}
	// Field players may not hold the ball inside the opposing crease.
	if !holder.IsKeeper() && court.InGoalArea(holder.Side.Other(), holder.Pos) && !holder.Jumping {
		return ms.turnover(holder, "crease", sb, emit)
	}
	return nil
}

// turnover hands the ball to the other side as a set piece from the spot.
func (ms *MatchState) turnover(p *SimPlayer, reason string, sb *statBook, emit func(Event)) error {
	sb.player(p.ID()).Turnovers++
	sb.team[p.Side].Turnovers++
	emit(NewEvent(EventTypeTurnover, ms.Clock, p.Side, p.ID(), TurnoverPayload{
		PlayerID: p.ID(),
		Reason:   reason,
	}))
	p.DropBall()
	return ms.setupSetPiece(p.Side.Other(), p.Pos, sb, emit)
}

// resolveChallenges lets the nearest tackling defender contest the holder.
func (ms *MatchState) resolveChallenges(holder *SimPlayer, sb *statBook, emit func(Event)) {
	for _, d := range ms.Squad(holder.Side.Other()).Active(ms.Clock) {
		if d.Action != ActionTackling || d.TargetID != holder.ID() {
			continue
		}
		if d.Pos.Sub(holder.Pos).Len() > ChallengeRange {
			continue
		}
		// One attempt per wind-up; back off into containment afterwards.
		d.Action = ActionDefendingPlayer

		shield := court.ShieldingFactor(holder.Data.Attr.Strength, holder.Data.Attr.Agility)
		stealP := (0.15 + 0.35*float64(d.Data.Attr.Tackling)/100) * shield
		// A screen set on the defender blunts the challenge.
		if ms.screenerNear(d, holder) {
			stealP *= 0.6
		}
		foulP := 0.10 + 0.20*float64(ms.Squad(d.Side).Tactic.Aggression)/100

		roll := ms.rng.Float64()
		switch {
		case roll < stealP:
			sb.player(d.ID()).Steals++
			sb.team[d.Side].Steals++
			emit(NewEvent(EventTypeSteal, ms.Clock, d.Side, d.ID(), nil))
			sb.player(holder.ID()).Turnovers++
			sb.team[holder.Side].Turnovers++
			holder.DropBall()
			ms.Ball.GiveTo(d.ID())
			d.TakeBall()
			ms.lastTouch = d.Side

		case roll < stealP+foulP:
			ms.resolveFoul(d, holder, sb, emit)
		}
	}
}

// resolveFoul sanctions a failed challenge: a penalty if a clear chance was
// denied, a suspension for a reckless hit, otherwise a set piece.
func (ms *MatchState) resolveFoul(d, victim *SimPlayer, sb *statBook, emit func(Event)) {
	sb.player(d.ID()).FoulsCommitted++
	sb.player(victim.ID()).FoulsSuffered++
	sb.team[d.Side].Fouls++

	victim.BeginStumble()
	victim.DropBall()
	ms.Ball.Drop()
	ms.Ball.Pos = mgl64.Vec3{victim.Pos.X(), victim.Pos.Y(), 0.5}

	sanction := "set_piece"
	clearChance := court.DistanceToGoal(victim.Side, victim.Pos) < court.FreeThrowRadius &&
		ms.breakawayAgainstSide(d.Side, victim)
	temper := 0.6*float64(d.Data.Pers.Aggression) + 0.4*float64(d.Data.Pers.Volatility)
	reckless := ms.rng.Float64() < 0.15+0.25*temper/100

	if clearChance {
		sanction = "penalty"
	} else if reckless {
		sanction = "suspension"
	}

	emit(NewEvent(EventTypeFoul, ms.Clock, d.Side, d.ID(), FoulPayload{
		OffenderID: d.ID(),
		VictimID:   victim.ID(),
		Sanction:   sanction,
	}))

	if sanction == "suspension" {
		d.SuspendedUntil = ms.Clock + SuspensionTime
		sb.player(d.ID()).Suspensions++
		sb.team[d.Side].Suspensions++
		emit(NewEvent(EventTypeSuspension, ms.Clock, d.Side, d.ID(), nil))
		// A third suspension is a disqualification for the rest of the match.
		if sb.player(d.ID()).Suspensions >= 3 {
			d.SuspendedUntil = disqualified
			sb.team[d.Side].RedCards++
		}
	}

	if sanction == "penalty" {
		sb.team[victim.Side].Penalties++
		emit(NewEvent(EventTypePenaltyAwarded, ms.Clock, victim.Side, victim.ID(), nil))
		ms.setupPenalty(victim.Side, sb, emit)
		return
	}
	ms.setupSetPiece(victim.Side, victim.Pos, sb, emit)
}

// breakawayAgainstSide reports whether attacker had a clear run on s's goal.
func (ms *MatchState) breakawayAgainstSide(s court.Side, attacker *SimPlayer) bool {
	goal := court.GoalCenter(s)
	attackerDist := goal.Sub(attacker.Pos).Len()
	for _, d := range ms.Squad(s).Active(ms.Clock) {
		if d.IsKeeper() {
			continue
		}
		if goal.Sub(d.Pos).Len() < attackerDist-1 {
			return false
		}
	}
	return true
}

// resolveLooseBall handles a ball nobody holds: goal detection for live
// shots, catches and interceptions for live passes, pickups, out-of-bounds,
// and the contested-scramble time limit.
func (ms *MatchState) resolveLooseBall(sb *statBook, emit func(Event)) error {
	b := &ms.Ball

	// Live shot: resolve the goal-line crossing before it can tunnel.
	if b.ShooterID != "" && ms.pendingShot != nil {
		defending := ms.pendingShot.side.Other()
		if y, z, _, ok := court.PredictGoalCrossing(b.Pos, b.Vel, defending, GoalPredictHorizon); ok {
			return ms.resolveShotArrival(y, z, sb, emit)
		}
	}

	ballXY := mgl64.Vec2{b.Pos.X(), b.Pos.Y()}

	// Out of bounds: throw-in to the side that didn't touch it last.
	if court.OutOfBounds(ballXY) && b.Pos.Z() < 2.5 {
		ms.pendingShot = nil
		inPlay := court.ClampToCourt(ballXY, 0.5)
		return ms.setupSetPiece(ms.lastTouch.Other(), inPlay, sb, emit)
	}

	// Catch / interception / pickup.
	inFlight := b.InFlight()
	var nearest *SimPlayer
	nearestDist := 1e18
	for _, sq := range ms.Squads {
		for _, p := range sq.Active(ms.Clock) {
			d := p.Pos.Sub(ballXY).Len()
			if d < nearestDist {
				nearestDist = d
				nearest = p
			}
		}
	}
	if nearest == nil {
		return nil
	}

	reach := PickupRadius
	if inFlight {
		reach = CatchRadius
		// A high pass is only playable off the floor by a jumper.
		if b.Pos.Z() > 2.1+nearest.Height {
			return ms.maybeForceContested(sb, emit)
		}
	}
	if nearestDist > reach {
		return ms.maybeForceContested(sb, emit)
	}

	if inFlight && b.PasserID != "" {
		passer := ms.PlayerByID(b.PasserID)
		if passer != nil && nearest.Side != passer.Side {
			// Interception roll: blocking skill against pass pace.
			intercept := 0.35 + 0.45*float64(nearest.Data.Attr.Blocking)/100
			if ms.rng.Float64() < intercept {
				sb.player(nearest.ID()).Interceptions++
				sb.team[nearest.Side].Interceptions++
				sb.team[passer.Side].Turnovers++
				sb.player(passer.ID()).Turnovers++
				emit(NewEvent(EventTypeInterception, ms.Clock, nearest.Side, nearest.ID(), nil))
				ms.givePossession(nearest)
				return ms.firePossessionBreak(nearest, emit)
			}
			// A deflected pass becomes a scramble.
			b.clearFlight()
			b.Vel = b.Vel.Mul(0.3)
			return nil
		}
		// Intended (or any) teammate catch, fumble chance on low catching.
		catchP := 0.80 + 0.19*float64(nearest.Data.Attr.Catching)/100
		if ms.rng.Float64() < catchP {
			if passer != nil {
				sb.player(passer.ID()).PassesCompleted++
				ms.lastPasser[nearest.Side] = passer.ID()
			}
			ms.givePossession(nearest)
			return nil
		}
		b.clearFlight()
		b.Vel = b.Vel.Mul(0.2)
		return nil
	}

	// Dead ball pickup.
	ms.pendingShot = nil
	ms.givePossession(nearest)
	return nil
}

// maybeForceContested ends an over-long scramble by awarding the ball to the
// nearest player, so play can't stall on an unreachable ball.
func (ms *MatchState) maybeForceContested(sb *statBook, emit func(Event)) error {
	if ms.Phases.Current() != PhaseContested {
		return nil
	}
	if ms.Clock-ms.contestedSince < contestedMaxDuration {
		return nil
	}
	ballXY := mgl64.Vec2{ms.Ball.Pos.X(), ms.Ball.Pos.Y()}
	var nearest *SimPlayer
	nearestDist := 1e18
	for _, sq := range ms.Squads {
		for _, p := range sq.Active(ms.Clock) {
			if d := p.Pos.Sub(ballXY).Len(); d < nearestDist {
				nearestDist = d
				nearest = p
			}
		}
	}
	if nearest == nil {
		return nil
	}
	ms.Ball.Pos = mgl64.Vec3{nearest.Pos.X(), nearest.Pos.Y(), 1}
	ms.givePossession(nearest)
	return nil
}

// resolveShotArrival settles an on-frame or off-frame shot at the goal plane.
func (ms *MatchState) resolveShotArrival(y, z float64, sb *statBook, emit func(Event)) error {
	shot := ms.pendingShot
	ms.pendingShot = nil
	ms.Ball.clearFlight()

	shooter := ms.PlayerByID(shot.shooterID)
	defending := shot.side.Other()
	keeper := ms.Squad(defending).Keeper()

	if !court.InGoalMouth(y, z) {
		// Off target: over or wide, ball is dead behind the line.
		emit(NewEvent(EventTypeMiss, ms.Clock, shot.side, shot.shooterID, nil))
		return ms.goalThrowRestart(defending, sb, emit)
	}

	sb.player(shot.shooterID).ShotsOnTarget++
	sb.team[shot.side].ShotsOnTarget++

	if keeper != nil && ms.rng.Float64() < keeperSaveChance(keeper, shooter, shot.speed, shot.fromMeters, shot.penalty) {
		sb.player(keeper.ID()).Saves++
		sb.team[defending].Saves++
		emit(NewEvent(EventTypeSave, ms.Clock, defending, keeper.ID(), SavePayload{
			KeeperID:  keeper.ID(),
			ShooterID: shot.shooterID,
		}))
		// Keeper holds it and can launch a break.
		ms.Ball.GiveTo(keeper.ID())
		keeper.TakeBall()
		ms.lastTouch = defending
		return ms.Phases.FastBreak(defending)
	}

	// Goal.
	ms.Score[shot.side]++
	ms.Squad(shot.side).recordGoal(ms.Clock)
	ms.Squad(defending).recordConceded(ms.Clock)
	sb.player(shot.shooterID).GoalsScored++
	if keeper != nil {
		sb.player(keeper.ID()).GoalsConceded++
	}
	if ms.Phases.Current() == PhaseTransitionToHome || ms.Phases.Current() == PhaseTransitionToAway {
		sb.team[shot.side].FastBreakGoals++
	}
	assist := ""
	if !shot.penalty && shot.passerID != "" {
		assist = shot.passerID
		sb.player(assist).Assists++
	}
	emit(NewEvent(EventTypeGoal, ms.Clock, shot.side, shot.shooterID, GoalPayload{
		ScorerID:   shot.shooterID,
		AssistID:   assist,
		HomeScore:  ms.Score[court.Home],
		AwayScore:  ms.Score[court.Away],
		ShotSpeed:  shot.speed,
		FromMeters: shot.fromMeters,
		Penalty:    shot.penalty,
	}))

	return ms.setupKickoff(defending, sb, emit)
}

// goalThrowRestart gives the keeper the ball after a miss.
func (ms *MatchState) goalThrowRestart(s court.Side, sb *statBook, emit func(Event)) error {
	keeper := ms.Squad(s).Keeper()
	if keeper == nil {
		// Empty net: restart as a set piece from the goal area edge.
		return ms.setupSetPiece(s, court.GoalCenter(s).Add(court.AttackDirection(s).Mul(court.GoalAreaRadius)), sb, emit)
	}
	ms.Ball.GiveTo(keeper.ID())
	keeper.TakeBall()
	ms.lastTouch = s
	return ms.Phases.PossessionGained(s)
}

// givePossession hands a loose ball to a player, stripping flight state.
func (ms *MatchState) givePossession(p *SimPlayer) {
	ms.pendingShot = nil
	ms.Ball.GiveTo(p.ID())
	p.TakeBall()
	ms.lastTouch = p.Side
}

// firePossessionBreak moves the phase machine after a steal or interception:
// a transition break for the winning side.
func (ms *MatchState) firePossessionBreak(p *SimPlayer, emit func(Event)) error {
	cur := ms.Phases.Current()
	if cur == PhaseFinished || cur.ClockStopped() {
		return nil
	}
	return ms.Phases.FastBreak(p.Side)
}

// syncPossessionPhase keeps the phase machine consistent with who actually
// has the ball, covering pickups and caught passes that didn't come through
// an explicit break.
func (ms *MatchState) syncPossessionPhase(emit func(Event)) error {
	cur := ms.Phases.Current()
	if cur.ClockStopped() || cur == PhaseFinished {
		return nil
	}

	holder := ms.Holder()
	if holder == nil {
		// Loose and not a live pass or shot: scramble.
		if !ms.Ball.InFlight() && cur != PhaseContested &&
			cur != PhaseHomeSetPiece && cur != PhaseAwaySetPiece &&
			cur != PhaseHomePenalty && cur != PhaseAwayPenalty {
			ms.contestedSince = ms.Clock
			return ms.Phases.BallContested()
		}
		return nil
	}

	attacker, structured := cur.AttackingSide()
	switch {
	case cur == PhaseKickoff:
		// Kickoff completes when a second player of the throwing side
		// controls the ball; the resolver's catch path got us here.
		if holder.ID() != ms.kickoffTakerID {
			return ms.Phases.PossessionGained(holder.Side)
		}
		return nil
	case cur == PhaseContested:
		return ms.Phases.PossessionGained(holder.Side)
	case cur == PhaseTransitionToHome, cur == PhaseTransitionToAway:
		if sideOfTransition(cur) != holder.Side {
			return ms.Phases.PossessionGained(holder.Side)
		}
		// A break settles into a structured attack once the holder crosses
		// the court midline.
		if crossedMidline(holder) {
			return ms.Phases.PossessionGained(holder.Side)
		}
		return nil
	case structured && attacker != holder.Side:
		return ms.Phases.FastBreak(holder.Side)
	case cur == PhaseHomeSetPiece || cur == PhaseAwaySetPiece ||
		cur == PhaseHomePenalty || cur == PhaseAwayPenalty:
		return nil
	}
	return nil
}

func crossedMidline(p *SimPlayer) bool {
	if p.Side == court.Home {
		return p.Pos.X() > court.Length/2
	}
	return p.Pos.X() < court.Length/2
}

// setupSetPiece stops play and stages a throw for side s at the spot.
func (ms *MatchState) setupSetPiece(s court.Side, at mgl64.Vec2, sb *statBook, emit func(Event)) error {
	// Throws inside the free-throw line retreat to the 9m arc.
	goal := court.AttackedGoal(s)
	if at.Sub(goal).Len() < court.FreeThrowRadius {
		dir := at.Sub(goal)
		if dir.Len() < 1e-9 {
			dir = court.AttackDirection(s.Other())
		}
		at = goal.Add(dir.Normalize().Mul(court.FreeThrowRadius))
	}
	at = court.ClampToCourt(at, 0.5)

	if err := ms.Phases.AwardSetPiece(s); err != nil {
		return err
	}
	emit(NewEvent(EventTypeSetPiece, ms.Clock, s, "", nil))

	ms.setPieceAt = at
	ms.restartAt = ms.Clock + restartDelay
	ms.stageTaker(s, at)
	return nil
}

// setupPenalty stages a 7m throw for side s.
func (ms *MatchState) setupPenalty(s court.Side, sb *statBook, emit func(Event)) error {
	mark := court.PenaltyMark(s.Other())
	if err := ms.Phases.AwardPenalty(s); err != nil {
		return err
	}
	ms.setPieceAt = mark
	ms.restartAt = ms.Clock + restartDelay

	taker := ms.penaltyTaker(s)
	if taker == nil {
		taker = nearestToBall(ms, s)
	}
	if taker != nil {
		taker.Pos = mark.Sub(court.AttackDirection(s).Mul(0.3))
		ms.givePossession(taker)
		taker.Action = ActionTakingPenalty
	}
	return nil
}

// setupKickoff restarts from the centre for the conceding side s.
func (ms *MatchState) setupKickoff(s court.Side, sb *statBook, emit func(Event)) error {
	if err := ms.Phases.BeginKickoff(); err != nil {
		return err
	}
	return ms.stageKickoff(s, emit)
}

// stageKickoff places the ball and thrower at the centre spot. The phase is
// moved by the caller; this only stages bodies and the ball.
func (ms *MatchState) stageKickoff(s court.Side, emit func(Event)) error {
	center := court.Center()
	taker := ms.centreTaker(s)
	if taker == nil {
		return nil
	}
	taker.Pos = center.Sub(court.AttackDirection(s).Mul(0.5))
	ms.givePossession(taker)
	ms.kickoffTakerID = taker.ID()
	ms.setPieceAt = center
	ms.restartAt = ms.Clock + restartDelay
	emit(NewEvent(EventTypeKickoff, ms.Clock, s, taker.ID(), nil))
	return nil
}

// centreTaker picks the kickoff thrower: the centre back when available.
func (ms *MatchState) centreTaker(s court.Side) *SimPlayer {
	sq := ms.Squad(s)
	for _, p := range sq.Active(ms.Clock) {
		if p.Data.Position == team.CentreBack {
			return p
		}
	}
	return nearestToBall(ms, s)
}

// stageTaker gives the nearest attacker the ball at the set-piece spot.
func (ms *MatchState) stageTaker(s court.Side, at mgl64.Vec2) {
	var taker *SimPlayer
	bestDist := 1e18
	for _, p := range ms.Squad(s).Active(ms.Clock) {
		if p.IsKeeper() {
			continue
		}
		if d := p.Pos.Sub(at).Len(); d < bestDist {
			bestDist = d
			taker = p
		}
	}
	if taker == nil {
		return
	}
	taker.Pos = at
	ms.givePossession(taker)
	taker.Action = ActionTakingSetPiece
}
