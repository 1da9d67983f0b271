package court

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Ball flight model. Simplified closed-form kinematics: gravity, quadratic
// drag, a Magnus-like spin force, restitution on bounce and a sliding/rolling
// friction transition on the floor. Not a rigid-body solver.
const (
	Gravity = 9.81

	BallRadius = 0.095 // IHF size 3
	BallMass   = 0.45

	// Quadratic drag: a = -DragFactor * |v| * v
	DragFactor = 0.012

	// Magnus: a = MagnusFactor * (spin x v)
	MagnusFactor = 0.0045

	// Bounce
	Restitution = 0.62

	// Horizontal velocity scaling applied at each bounce contact.
	BounceSlideFriction = 0.88

	// Ground roll deceleration (m/s^2) once the ball is rolling.
	RollFriction = 2.2

	// Below these thresholds a bouncing ball transitions to pure rolling.
	// Attribute-free: the transition depends only on velocity.
	RollVerticalSpeed   = 0.6
	RollHorizontalSpeed = 8.0

	// Spin decays exponentially with this rate (1/s).
	SpinDecay = 0.8
)

// FlightAccel returns the acceleration acting on an airborne ball with the
// given velocity and angular velocity (spin axis, rad/s).
func FlightAccel(vel, spin mgl64.Vec3) mgl64.Vec3 {
	acc := mgl64.Vec3{0, 0, -Gravity}

	speed := vel.Len()
	if speed > 1e-9 {
		acc = acc.Sub(vel.Mul(DragFactor * speed))
	}

	// Magnus force bends the flight around the spin axis.
	acc = acc.Add(spin.Cross(vel).Mul(MagnusFactor))
	return acc
}

// Bounce applies floor contact to a downward-moving ball, returning the
// post-bounce velocity and spin. The vertical component reflects with
// restitution, the horizontal components lose energy to sliding friction.
func Bounce(vel, spin mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	out := mgl64.Vec3{
		vel.X() * BounceSlideFriction,
		vel.Y() * BounceSlideFriction,
		-vel.Z() * Restitution,
	}
	return out, spin.Mul(0.7)
}

// ShouldRoll reports whether a ball at floor level should stop bouncing and
// start rolling. Governed purely by velocity thresholds.
func ShouldRoll(vel mgl64.Vec3) bool {
	horiz := math.Hypot(vel.X(), vel.Y())
	return math.Abs(vel.Z()) < RollVerticalSpeed && horiz < RollHorizontalSpeed
}

// RollStep decelerates a rolling ball over dt and returns the new velocity.
// The vertical component is zeroed: a rolling ball stays on the floor.
func RollStep(vel mgl64.Vec3, dt float64) mgl64.Vec3 {
	horiz := math.Hypot(vel.X(), vel.Y())
	if horiz < 1e-6 {
		return mgl64.Vec3{}
	}
	speed := math.Max(0, horiz-RollFriction*dt)
	scale := speed / horiz
	return mgl64.Vec3{vel.X() * scale, vel.Y() * scale, 0}
}

// PredictGoalCrossing linearly extrapolates the ball over a bounded horizon
// and reports where (y, z at the goal plane) and when it crosses the goal
// line defended by s. Linear prediction over a short window avoids tunneling
// through the thin goal plane at high shot velocities, which a per-tick
// position check alone would miss.
func PredictGoalCrossing(pos, vel mgl64.Vec3, s Side, horizon float64) (y, z, t float64, ok bool) {
	planeX := 0.0
	if s == Away {
		planeX = Length
	}

	vx := vel.X()
	if math.Abs(vx) < 1e-9 {
		return 0, 0, 0, false
	}

	t = (planeX - pos.X()) / vx
	if t < 0 || t > horizon {
		return 0, 0, 0, false
	}

	y = pos.Y() + vel.Y()*t
	// Gravity matters even over a short horizon for lobbed shots.
	z = pos.Z() + vel.Z()*t - 0.5*Gravity*t*t
	return y, z, t, true
}

// ShieldingFactor converts a ball-holder's strength and balance-like
// attributes (0-100 scales) into a bounded discount applied to an opponent's
// steal or block chance. 1.0 means no protection, lower means better
// shielding.
func ShieldingFactor(strength, agility int) float64 {
	w := 0.65*float64(strength)/100 + 0.35*float64(agility)/100
	// Weighted lerp into a bounded band: even elite shielders can be robbed.
	return 1.0 - mgl64.Clamp(w, 0, 1)*0.55
}
