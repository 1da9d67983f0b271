// Package court provides the static geometry of a handball court and the
// closed-form ball flight equations. Everything here is pure: no simulation
// state, no side effects. All positions are in metres on the court plane,
// X along the court length, Y along the width, Z for height.
package court

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Court dimensions (IHF standard, metres)
const (
	Length = 40.0
	Width  = 20.0

	GoalWidth  = 3.0
	GoalHeight = 2.0

	GoalAreaRadius  = 6.0 // 6m crease - field players may not stand inside
	FreeThrowRadius = 9.0 // 9m line - free throws restart from here
	PenaltyMarkDist = 7.0 // 7m penalty mark

	// Minimum distance defenders must keep from the ball at a set piece.
	SetPieceClearance = 3.0
)

// Side identifies one of the two teams by the goal it defends.
// Home defends the goal at X=0 and attacks toward X=Length.
type Side int

const (
	Home Side = iota
	Away
)

// String returns the side name for logs and payloads.
func (s Side) String() string {
	if s == Home {
		return "home"
	}
	return "away"
}

// Other returns the opposing side.
func (s Side) Other() Side {
	if s == Home {
		return Away
	}
	return Home
}

// Center returns the centre spot of the court.
func Center() mgl64.Vec2 {
	return mgl64.Vec2{Length / 2, Width / 2}
}

// GoalCenter returns the midpoint of the goal line defended by s.
func GoalCenter(s Side) mgl64.Vec2 {
	if s == Home {
		return mgl64.Vec2{0, Width / 2}
	}
	return mgl64.Vec2{Length, Width / 2}
}

// AttackedGoal returns the goal s is shooting at.
func AttackedGoal(s Side) mgl64.Vec2 {
	return GoalCenter(s.Other())
}

// PenaltyMark returns the 7m mark in front of the goal defended by s.
// AttackDirection(s) points into the court from the goal s defends.
func PenaltyMark(s Side) mgl64.Vec2 {
	return GoalCenter(s).Add(AttackDirection(s).Mul(PenaltyMarkDist))
}

// AttackDirection returns the unit vector along which s attacks.
func AttackDirection(s Side) mgl64.Vec2 {
	if s == Home {
		return mgl64.Vec2{1, 0}
	}
	return mgl64.Vec2{-1, 0}
}

// InGoalArea reports whether p lies inside the crease in front of the goal
// defended by s. The crease is modelled as a half-disc around the goal centre,
// which is close enough to the real D-shape for AI positioning.
func InGoalArea(s Side, p mgl64.Vec2) bool {
	return p.Sub(GoalCenter(s)).Len() < GoalAreaRadius
}

// DistanceToGoal returns the distance from p to the goal attacked by s.
func DistanceToGoal(s Side, p mgl64.Vec2) float64 {
	return p.Sub(AttackedGoal(s)).Len()
}

// ShotAngle returns the opening angle (radians) the goal mouth subtends from p
// for a shooter on side s. Wider angle means an easier shot. Returns zero for
// a shooter standing on the goal line itself.
func ShotAngle(s Side, p mgl64.Vec2) float64 {
	goal := AttackedGoal(s)
	postA := mgl64.Vec2{goal.X(), goal.Y() - GoalWidth/2}
	postB := mgl64.Vec2{goal.X(), goal.Y() + GoalWidth/2}

	va := postA.Sub(p)
	vb := postB.Sub(p)
	la := va.Len()
	lb := vb.Len()
	if la < 1e-9 || lb < 1e-9 {
		return 0
	}
	cos := mgl64.Clamp(va.Dot(vb)/(la*lb), -1, 1)
	return math.Acos(cos)
}

// ClampToCourt clamps p to the playing surface with the given margin.
func ClampToCourt(p mgl64.Vec2, margin float64) mgl64.Vec2 {
	return mgl64.Vec2{
		mgl64.Clamp(p.X(), margin, Length-margin),
		mgl64.Clamp(p.Y(), margin, Width-margin),
	}
}

// OutOfBounds reports whether the court-plane point p is outside the lines.
func OutOfBounds(p mgl64.Vec2) bool {
	return p.X() < 0 || p.X() > Length || p.Y() < 0 || p.Y() > Width
}

// BehindGoalLine reports whether p has crossed the goal line at the s end,
// regardless of whether it is between the posts.
func BehindGoalLine(s Side, p mgl64.Vec2) bool {
	if s == Home {
		return p.X() < 0
	}
	return p.X() > Length
}

// InGoalMouth reports whether a point at the s goal line is within the frame.
func InGoalMouth(y, z float64) bool {
	return math.Abs(y-Width/2) <= GoalWidth/2 && z >= 0 && z <= GoalHeight
}
