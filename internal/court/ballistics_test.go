package court

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestFlightAccel(t *testing.T) {
	// A stationary ball only feels gravity.
	acc := FlightAccel(mgl64.Vec3{}, mgl64.Vec3{})
	if acc.X() != 0 || acc.Y() != 0 || acc.Z() != -Gravity {
		t.Errorf("stationary accel = %v", acc)
	}

	// Drag always opposes motion.
	acc = FlightAccel(mgl64.Vec3{20, 0, 0}, mgl64.Vec3{})
	if acc.X() >= 0 {
		t.Errorf("drag should decelerate forward motion, got ax=%v", acc.X())
	}

	// Topspin around +Y on a +X shot dips the ball (spin x vel points down).
	dip := FlightAccel(mgl64.Vec3{20, 0, 0}, mgl64.Vec3{0, 5, 0})
	noSpin := FlightAccel(mgl64.Vec3{20, 0, 0}, mgl64.Vec3{})
	if dip.Z() >= noSpin.Z() {
		t.Errorf("spin (0,5,0) on +X flight should dip: %v vs %v", dip.Z(), noSpin.Z())
	}
}

func TestBounce(t *testing.T) {
	vel, spin := Bounce(mgl64.Vec3{10, 2, -6}, mgl64.Vec3{0, 4, 0})

	if vel.Z() <= 0 {
		t.Fatalf("bounce must reverse vertical velocity, got %v", vel.Z())
	}
	if got, want := vel.Z(), 6*Restitution; math.Abs(got-want) > 1e-9 {
		t.Errorf("restitution: got %v, want %v", got, want)
	}
	if vel.X() >= 10 || vel.Y() >= 2 {
		t.Errorf("sliding friction should shed horizontal speed: %v", vel)
	}
	if spin.Y() >= 4 {
		t.Errorf("bounce should shed spin, got %v", spin)
	}
}

func TestShouldRoll(t *testing.T) {
	tests := []struct {
		name string
		vel  mgl64.Vec3
		want bool
	}{
		{"slow and flat", mgl64.Vec3{2, 1, 0.1}, true},
		{"still bouncing", mgl64.Vec3{2, 1, 3}, false},
		{"fast skid", mgl64.Vec3{12, 0, 0.1}, false},
		{"dead ball", mgl64.Vec3{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRoll(tt.vel); got != tt.want {
				t.Errorf("ShouldRoll(%v) = %v, want %v", tt.vel, got, tt.want)
			}
		})
	}
}

func TestRollStep(t *testing.T) {
	vel := mgl64.Vec3{4, 3, 0} // 5 m/s
	out := RollStep(vel, 1.0)
	want := 5 - RollFriction
	if got := math.Hypot(out.X(), out.Y()); math.Abs(got-want) > 1e-9 {
		t.Errorf("rolled speed = %v, want %v", got, want)
	}
	if out.Z() != 0 {
		t.Errorf("rolling ball left the floor: %v", out)
	}

	// Friction never reverses the ball.
	out = RollStep(mgl64.Vec3{0.5, 0, 0}, 1.0)
	if out.Len() != 0 {
		t.Errorf("ball below friction budget should stop, got %v", out)
	}
}

func TestPredictGoalCrossing(t *testing.T) {
	// Straight shot at the away goal from 10m out, crossing within the horizon.
	pos := mgl64.Vec3{Length - 10, Width / 2, 1.8}
	vel := mgl64.Vec3{20, 0, 0}

	y, z, tc, ok := PredictGoalCrossing(pos, vel, Away, 1.0)
	if !ok {
		t.Fatal("expected a crossing")
	}
	if math.Abs(tc-0.5) > 1e-9 {
		t.Errorf("crossing time = %v, want 0.5", tc)
	}
	if math.Abs(y-Width/2) > 1e-9 {
		t.Errorf("crossing y = %v", y)
	}
	// Gravity pulls the ball down over half a second.
	if z >= 1.8 {
		t.Errorf("crossing z = %v, should be below launch height", z)
	}

	// Shot moving away from the goal never crosses.
	if _, _, _, ok := PredictGoalCrossing(pos, mgl64.Vec3{-20, 0, 0}, Away, 1.0); ok {
		t.Error("ball moving away from the plane should not cross")
	}

	// Too slow to arrive inside the horizon.
	if _, _, _, ok := PredictGoalCrossing(pos, mgl64.Vec3{2, 0, 0}, Away, 1.0); ok {
		t.Error("crossing beyond the horizon should be rejected")
	}

	// A ball with no x velocity cannot cross the plane.
	if _, _, _, ok := PredictGoalCrossing(pos, mgl64.Vec3{0, 5, 0}, Away, 1.0); ok {
		t.Error("zero plane velocity should be rejected")
	}
}

func TestShieldingFactor(t *testing.T) {
	weak := ShieldingFactor(10, 10)
	strong := ShieldingFactor(95, 90)
	if strong >= weak {
		t.Errorf("stronger holder should shield better: %v vs %v", strong, weak)
	}
	if weak > 1 || strong < 0.45-1e-9 {
		t.Errorf("shielding outside bounded band: weak=%v strong=%v", weak, strong)
	}
}
