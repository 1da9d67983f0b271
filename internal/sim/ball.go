package sim

import (
	"github.com/go-gl/mathgl/mgl64"
)

// SimBall is the single ball in a match. It is either held (HolderID set,
// physics suspended, position glued to the holder) or loose/in flight.
type SimBall struct {
	Pos  mgl64.Vec3
	Vel  mgl64.Vec3
	Spin mgl64.Vec3

	HolderID string

	// In-flight bookkeeping so the resolver can credit passes, shots,
	// interceptions and saves to the right players.
	PasserID  string
	TargetID  string
	ShooterID string

	Rolling bool
}

// Loose reports whether no player currently holds the ball.
func (b *SimBall) Loose() bool { return b.HolderID == "" }

// InFlight reports whether the ball is a live pass or shot.
func (b *SimBall) InFlight() bool {
	return b.Loose() && (b.PasserID != "" || b.ShooterID != "")
}

// GiveTo puts the ball in a player's hands and clears flight state.
func (b *SimBall) GiveTo(id string) {
	b.HolderID = id
	b.Vel = mgl64.Vec3{}
	b.Spin = mgl64.Vec3{}
	b.Rolling = false
	b.clearFlight()
}

// Release frees the ball with the given velocity and spin. Flight bookkeeping
// is set by the caller (pass vs shot).
func (b *SimBall) Release(vel, spin mgl64.Vec3) {
	b.HolderID = ""
	b.Vel = vel
	b.Spin = spin
	b.Rolling = false
}

// Drop makes the ball loose in place with no credited flight, e.g. after a
// stumble or a turnover call.
func (b *SimBall) Drop() {
	b.HolderID = ""
	b.Vel = mgl64.Vec3{}
	b.Spin = mgl64.Vec3{}
	b.clearFlight()
}

func (b *SimBall) clearFlight() {
	b.PasserID = ""
	b.TargetID = ""
	b.ShooterID = ""
}

// PlaceAt teleports a dead ball for a restart (kickoff, set piece, throw-in).
func (b *SimBall) PlaceAt(p mgl64.Vec2) {
	b.Pos = mgl64.Vec3{p.X(), p.Y(), 1.0}
	b.Vel = mgl64.Vec3{}
	b.Spin = mgl64.Vec3{}
	b.Rolling = false
	b.HolderID = ""
	b.clearFlight()
}
