package sim

import (
	"github.com/go-gl/mathgl/mgl64"

	"handsim/internal/court"
	"handsim/internal/team"
)

// Goalkeeper controller. The keeper cuts the angle between the ball and the
// goal centre, stays inside the crease, and rushes a breakaway one-on-one.
// Actual save resolution happens in the shot resolver; here the keeper only
// positions.

const (
	keeperDepthBase = 0.7 // metres off the line at rest
	keeperDepthMax  = 2.8 // how far out angle-cutting takes them
	keeperRushDepth = 4.5 // one-on-one rush limit, still inside the crease
)

func (ms *MatchState) keeperDecide(p *SimPlayer) {
	goal := court.GoalCenter(p.Side)
	ballXY := mgl64.Vec2{ms.Ball.Pos.X(), ms.Ball.Pos.Y()}

	holder := ms.Holder()

	// Keeper in possession: distribute immediately.
	if p.HasBall {
		if mate, score := ms.bestPassOption(p); mate != nil && score > 0.1 {
			ms.beginPass(p, mate)
		}
		return
	}

	// Loose ball rolling through the crease is the keeper's to collect.
	if ms.Ball.Loose() && !ms.Ball.InFlight() &&
		court.InGoalArea(p.Side, ballXY) {
		p.Action = ActionIntercepting
		p.TargetPos = ballXY
		p.sprinting = true
		return
	}

	threat := holder != nil && holder.Side != p.Side
	depth := keeperDepthBase

	if threat {
		threatDist := goal.Sub(holder.Pos).Len()
		// Breakaway: no outfield defender between the holder and the goal.
		if threatDist < 12 && ms.breakawayAgainst(p, holder) {
			depth = keeperRushDepth
		} else {
			// Cut the angle deeper the closer the threat.
			closeness := mgl64.Clamp(1-threatDist/20, 0, 1)
			bold := float64(p.Data.Attr.OneOnOnes) / 100
			depth = keeperDepthBase + (keeperDepthMax-keeperDepthBase)*closeness*(0.6+0.4*bold)
		}
	}

	focus := ballXY
	if threat {
		focus = holder.Pos
	}
	dir := focus.Sub(goal)
	l := dir.Len()
	if l < 1e-9 {
		dir = court.AttackDirection(p.Side)
		l = 1
	}
	spot := goal.Add(dir.Mul(depth / l))

	// Never leave the crease; the keeper is the only player allowed in it.
	if spot.Sub(goal).Len() > court.GoalAreaRadius-0.5 {
		spot = goal.Add(dir.Mul((court.GoalAreaRadius - 0.5) / l))
	}

	p.Action = ActionGoalkeeping
	p.TargetPos = court.ClampToCourt(spot, 0.2)
	p.sprinting = depth > keeperDepthMax
}

// breakawayAgainst reports whether holder has a clear run at p's goal.
func (ms *MatchState) breakawayAgainst(keeper, holder *SimPlayer) bool {
	goal := court.GoalCenter(keeper.Side)
	holderDist := goal.Sub(holder.Pos).Len()
	for _, d := range ms.Squad(keeper.Side).Active(ms.Clock) {
		if d.IsKeeper() {
			continue
		}
		if goal.Sub(d.Pos).Len() < holderDist-1 {
			return false
		}
	}
	return true
}

// keeperSaveChance is the probability the keeper stops a given on-target
// shot. Reflexes dominate close range, positioning (handling) far range; a
// penalty uses the dedicated attribute and the shooter's composure is
// already priced into shot accuracy.
func keeperSaveChance(keeper, shooter *SimPlayer, shotSpeed, fromMeters float64, penalty bool) float64 {
	if keeper == nil {
		return 0
	}
	k := keeper.Data.Attr

	var skill float64
	if penalty {
		skill = float64(k.PenaltySaving)
	} else if fromMeters < 7 {
		skill = 0.7*float64(k.Reflexes) + 0.3*float64(k.OneOnOnes)
	} else {
		skill = 0.55*float64(k.Reflexes) + 0.45*float64(k.Handling)
	}

	base := 0.18 + 0.42*skill/100

	// Harder shots beat reactions; long shots give time to set.
	base -= (shotSpeed - ShotSpeedMin) / (ShotSpeedMax - ShotSpeedMin) * 0.12
	if !penalty {
		base += mgl64.Clamp((fromMeters-7)/10, 0, 1) * 0.18
	}

	// A keeper dragged off their spot saves less.
	goal := court.GoalCenter(keeper.Side)
	offLine := keeper.Pos.Sub(goal).Len()
	if offLine > keeperDepthMax {
		base -= 0.10
	}

	// Left-handers release over the opposite shoulder; keepers see far fewer
	// of them and read the arm a touch later.
	if shooter != nil && shooter.Data.Hand == team.LeftHanded {
		base -= 0.03
	}

	return mgl64.Clamp(base, 0.05, 0.85)
}
