package sim

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"handsim/internal/court"
	"handsim/internal/team"
)

// parkPlayers moves every on-court player except the given ones into the far
// corner, out of pass range and pressure radius of anything near mid-court.
func parkPlayers(ms *MatchState, except ...*SimPlayer) {
	spot := mgl64.Vec2{court.Length - 1, court.Width - 1}
	keep := map[*SimPlayer]bool{}
	for _, p := range except {
		keep[p] = true
	}
	for _, sq := range ms.Squads {
		for _, p := range sq.OnCourt {
			if keep[p] {
				continue
			}
			p.Pos = spot
			p.TargetPos = spot
			p.Vel = mgl64.Vec2{}
		}
	}
}

func outfielders(sq *Squad) []*SimPlayer {
	var out []*SimPlayer
	for _, p := range sq.OnCourt {
		if !p.IsKeeper() {
			out = append(out, p)
		}
	}
	return out
}

// neutralize pins the attributes and personality traits the decision layer
// reads, so a test can vary exactly one input.
func neutralize(p *SimPlayer) {
	p.Data.Attr.Throwing = 0
	p.Data.Attr.TacticalAwareness = 0
	p.Data.Attr.Dribbling = 0
	p.Data.Attr.Speed = 0
	p.Data.Attr.Teamwork = 50
	p.Data.Pers.Bravery = 50
	p.Data.Pers.Ambition = 50
	p.Data.Pers.Composure = 50
	p.Data.Pers.Determination = 50
	p.Stamina = p.StaminaCeiling
}

func TestPaceStretchesDecisionCadence(t *testing.T) {
	ms := testState(t, 30)
	sq := ms.Squad(court.Home)
	p := outfielders(sq)[0]
	p.Pos = mgl64.Vec2{10, 10}
	ms.Ball.Pos = mgl64.Vec3{court.Length - 1, court.Width - 1, 0.2}

	next := func(pace team.Pace) float64 {
		sq.Tactic.Pace = pace
		ms.scheduleNext(p)
		return p.nextDecisionAt
	}

	fast := next(team.PaceFast)
	normal := next(team.PaceNormal)
	slow := next(team.PaceSlow)

	if !(fast < normal && normal < slow) {
		t.Errorf("cadence not ordered: fast %.3f, normal %.3f, slow %.3f", fast, normal, slow)
	}
	if slow > MaxDecisionInterval {
		t.Errorf("slow interval %.3f exceeds cap %.3f", slow, MaxDecisionInterval)
	}
}

func TestFastPaceForcesEarlierDrive(t *testing.T) {
	// A holder 30m out with no option on: only the pace shift decides whether
	// driving clears the action threshold.
	drive := func(pace team.Pace) *SimPlayer {
		ms := testState(t, 31)
		sq := ms.Squad(court.Home)
		holder := outfielders(sq)[0]
		parkPlayers(ms, holder)

		holder.Pos = mgl64.Vec2{10, 10}
		holder.TargetPos = holder.Pos
		neutralize(holder)
		holder.Data.Pers.Determination = 0 // raises the threshold above 0.55
		holder.TakeBall()
		ms.Ball.GiveTo(holder.ID())

		sq.Tactic.Pace = pace
		sq.Tactic.RiskTaking = 50
		sq.Tactic.FocusPlay = 50

		ms.holderDecide(holder, 3600, false)
		return holder
	}

	if p := drive(team.PaceFast); !p.Dribbling || !p.sprinting {
		t.Errorf("fast pace: dribbling=%v sprinting=%v, want a drive", p.Dribbling, p.sprinting)
	}
	if p := drive(team.PaceSlow); p.Dribbling || p.sprinting {
		t.Errorf("slow pace: dribbling=%v sprinting=%v, want patient ball movement", p.Dribbling, p.sprinting)
	}
}

func TestFocusPlaySteersPassTargets(t *testing.T) {
	ms := testState(t, 32)
	sq := ms.Squad(court.Home)
	field := outfielders(sq)
	holder, central, wide := field[0], field[1], field[2]
	parkPlayers(ms, holder, central, wide)

	holder.Pos = mgl64.Vec2{20, 10}
	central.Pos = mgl64.Vec2{26, 10}
	wide.Pos = mgl64.Vec2{26, 2}
	neutralize(holder)
	holder.TakeBall()
	ms.Ball.GiveTo(holder.ID())

	sq.Tactic.FocusPlay = 100
	mate, _ := ms.bestPassOption(holder)
	if mate == nil || mate.ID() != central.ID() {
		t.Errorf("focus 100 picked %v, want the central receiver", mate)
	}

	sq.Tactic.FocusPlay = 0
	mate, _ = ms.bestPassOption(holder)
	if mate == nil || mate.ID() != wide.ID() {
		t.Errorf("focus 0 picked %v, want the wing receiver", mate)
	}
}

func TestTeamworkBiasesTowardPass(t *testing.T) {
	decide := func(teamwork int) *SimPlayer {
		ms := testState(t, 33)
		sq := ms.Squad(court.Home)
		field := outfielders(sq)
		holder, mate := field[0], field[1]
		parkPlayers(ms, holder, mate)

		holder.Pos = mgl64.Vec2{10, 10}
		mate.Pos = mgl64.Vec2{8, 10}
		// One defender in the driving lane keeps the dribble unattractive.
		blocker := outfielders(ms.Squad(court.Away))[0]
		blocker.Pos = mgl64.Vec2{13, 10}

		neutralize(holder)
		holder.Data.Attr.Teamwork = teamwork
		holder.TakeBall()
		ms.Ball.GiveTo(holder.ID())
		holder.HasDribbled = true // used up, so passing is the only outlet

		sq.Tactic.Pace = team.PaceNormal
		sq.Tactic.RiskTaking = 50
		sq.Tactic.FocusPlay = 50

		ms.holderDecide(holder, 3600, false)
		return holder
	}

	if p := decide(100); p.Action != ActionPreparingPass {
		t.Errorf("teamwork 100: action = %s, want a pass", p.Action)
	}
	if p := decide(0); p.Action == ActionPreparingPass {
		t.Error("teamwork 0: released the ball on a marginal pass")
	}
}

func TestLeftHandedShooterHarderToRead(t *testing.T) {
	ms := testState(t, 34)
	keeper := ms.Squad(court.Away).Keeper()
	keeper.Pos = court.GoalCenter(court.Away)
	keeper.Data.Attr.Reflexes = 60
	keeper.Data.Attr.Handling = 60

	shooter := outfielders(ms.Squad(court.Home))[0]

	shooter.Data.Hand = team.RightHanded
	right := keeperSaveChance(keeper, shooter, ShotSpeedMin, 9, false)
	shooter.Data.Hand = team.LeftHanded
	left := keeperSaveChance(keeper, shooter, ShotSpeedMin, 9, false)

	if math.Abs(right-left-0.03) > 1e-9 {
		t.Errorf("save chance right %.4f vs left %.4f, want a 0.03 gap", right, left)
	}
}

func TestScreenerNearDefender(t *testing.T) {
	ms := testState(t, 35)
	parkPlayers(ms)
	field := outfielders(ms.Squad(court.Home))
	holder, screener := field[0], field[1]
	defender := outfielders(ms.Squad(court.Away))[0]

	holder.Pos = mgl64.Vec2{30, 10}
	defender.Pos = mgl64.Vec2{30.8, 10}
	screener.Pos = mgl64.Vec2{30.5, 10}
	screener.ScreenForID = holder.ID()

	if !ms.screenerNear(defender, holder) {
		t.Error("screen in contact range not detected")
	}

	screener.Pos = mgl64.Vec2{25, 10}
	if ms.screenerNear(defender, holder) {
		t.Error("screen detected from outside contact range")
	}

	screener.Pos = mgl64.Vec2{30.5, 10}
	screener.ScreenForID = ""
	if ms.screenerNear(defender, holder) {
		t.Error("attacker without a set screen counted as a screener")
	}
}

func TestPivotScreensForHolder(t *testing.T) {
	ms := testState(t, 36)
	sq := ms.Squad(court.Home)

	var pivot *SimPlayer
	for _, p := range sq.OnCourt {
		if p.Data.Position == team.Pivot {
			pivot = p
			break
		}
	}
	if pivot == nil {
		t.Fatal("no pivot in the starting seven")
	}
	var holder *SimPlayer
	for _, p := range outfielders(sq) {
		if p != pivot {
			holder = p
			break
		}
	}

	parkPlayers(ms, pivot, holder)
	holder.Pos = mgl64.Vec2{30, 10}
	pivot.Pos = mgl64.Vec2{28, 10}
	holder.TakeBall()
	ms.Ball.GiveTo(holder.ID())

	defender := outfielders(ms.Squad(court.Away))[0]
	defender.Pos = mgl64.Vec2{31, 10}

	ms.offBallOffense(pivot)
	if pivot.ScreenForID != holder.ID() {
		t.Errorf("pivot ScreenForID = %q, want the holder %q", pivot.ScreenForID, holder.ID())
	}

	// With no defender in range the screen is released.
	parkPlayers(ms, pivot, holder)
	ms.offBallOffense(pivot)
	if pivot.ScreenForID != "" {
		t.Errorf("pivot kept a screen with nobody to screen: %q", pivot.ScreenForID)
	}
}

func TestProfessionalismSlowsStaminaDrain(t *testing.T) {
	ms := testState(t, 37)
	field := outfielders(ms.Squad(court.Home))
	pro, loose := field[0], field[1]

	for _, p := range []*SimPlayer{pro, loose} {
		p.Data.Attr.Fitness = 50
		p.Stamina = 0.9
		p.StaminaCeiling = 1.0
		p.Vel = mgl64.Vec2{3, 0}
		p.sprinting = false
	}
	pro.Data.Pers.Professionalism = 100
	loose.Data.Pers.Professionalism = 0

	ms.drainStamina(pro, 1.0, 6.0)
	ms.drainStamina(loose, 1.0, 6.0)

	if pro.Stamina <= loose.Stamina {
		t.Errorf("professional drained to %.5f, careless to %.5f; want the professional fresher",
			pro.Stamina, loose.Stamina)
	}
}

func TestPenaltyTakerSelection(t *testing.T) {
	ms := testState(t, 38)
	sq := ms.Squad(court.Home)
	field := outfielders(sq)
	for _, p := range field {
		p.Data.Attr.Throwing = 50
		p.Data.Attr.Leadership = 10
	}

	t.Run("designated taker respected", func(t *testing.T) {
		sq.Tactic.PenaltyTakerID = field[2].ID()
		if got := ms.penaltyTaker(court.Home); got != field[2] {
			t.Errorf("taker = %v, want the designated %s", got, field[2].ID())
		}
	})

	t.Run("leadership breaks ties", func(t *testing.T) {
		sq.Tactic.PenaltyTakerID = ""
		leader := field[4]
		leader.Data.Attr.Leadership = 90
		if got := ms.penaltyTaker(court.Home); got != leader {
			t.Errorf("taker = %v, want the leader %s", got, leader.ID())
		}
	})
}
