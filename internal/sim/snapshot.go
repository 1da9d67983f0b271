package sim

import (
	"sync/atomic"
	"time"

	"handsim/internal/court"
)

// MaxSnapshotPlayers caps the per-snapshot player slice. Two squads of seven
// plus benches fit comfortably; the cap keeps the buffers fixed-size.
const MaxSnapshotPlayers = 40

// PlayerSnapshot is an immutable copy of one player's state for readers.
// Value types only, no pointers back into the live state.
type PlayerSnapshot struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Side     string  `json:"side"`
	Position string  `json:"position"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
	LookX    float64 `json:"lookX"`
	LookY    float64 `json:"lookY"`
	Height   float64 `json:"height"`
	Action   string  `json:"action"`
	Stamina  float64 `json:"stamina"`
	HasBall  bool    `json:"hasBall"`
	OnCourt  bool    `json:"onCourt"`

	Suspended bool `json:"suspended,omitempty"`
	Stumbling bool `json:"stumbling,omitempty"`
}

// BallSnapshot is an immutable copy of the ball state.
type BallSnapshot struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
	VZ       float64 `json:"vz"`
	HolderID string  `json:"holderId,omitempty"`
}

// MatchSnapshot is a complete immutable view of a running match, published
// once per tick for the API, websocket feed and frame renderer.
type MatchSnapshot struct {
	Sequence  uint64    `json:"sequence"`
	Timestamp time.Time `json:"timestamp"`
	Tick      uint64    `json:"tick"`

	Clock     float64 `json:"clock"`
	Half      int     `json:"half"`
	Phase     string  `json:"phase"`
	HomeScore int     `json:"homeScore"`
	AwayScore int     `json:"awayScore"`

	Ball    BallSnapshot     `json:"ball"`
	Players []PlayerSnapshot `json:"players"`
}

// SnapshotPool pre-allocates snapshots to avoid GC pressure.
// Triple buffering gives a lock-free single-producer / multi-reader handoff:
// the engine writes, everything else reads the latest published buffer.
type SnapshotPool struct {
	snapshots [3]MatchSnapshot
	writeIdx  uint32 // atomic - producer index
	readIdx   uint32 // atomic - consumer index
	sequence  uint64 // atomic - monotonic sequence
}

// NewSnapshotPool creates a pool with pre-allocated player slices.
func NewSnapshotPool() *SnapshotPool {
	pool := &SnapshotPool{}
	for i := 0; i < 3; i++ {
		pool.snapshots[i] = MatchSnapshot{
			Players: make([]PlayerSnapshot, 0, MaxSnapshotPlayers),
		}
	}
	return pool
}

// AcquireWrite gets the next write slot (engine goroutine only). The player
// slice is reset but keeps its capacity.
func (p *SnapshotPool) AcquireWrite() *MatchSnapshot {
	idx := atomic.AddUint32(&p.writeIdx, 1) % 3
	snap := &p.snapshots[idx]

	snap.Players = snap.Players[:0]
	snap.Sequence = atomic.AddUint64(&p.sequence, 1)
	snap.Timestamp = time.Now()
	return snap
}

// PublishWrite marks the write complete and advances the read pointer.
func (p *SnapshotPool) PublishWrite() {
	atomic.StoreUint32(&p.readIdx, atomic.LoadUint32(&p.writeIdx))
}

// AcquireRead returns the latest complete snapshot. Readers must treat it as
// immutable and must not retain it across ticks; copy if needed.
func (p *SnapshotPool) AcquireRead() *MatchSnapshot {
	idx := atomic.LoadUint32(&p.readIdx) % 3
	return &p.snapshots[idx]
}

// publishSnapshot fills the next write buffer from the live state.
func (ms *MatchState) publishSnapshot(pool *SnapshotPool) {
	snap := pool.AcquireWrite()

	snap.Tick = ms.Tick
	snap.Clock = ms.Clock
	snap.Half = ms.Half
	snap.Phase = string(ms.Phases.Current())
	snap.HomeScore = ms.Score[court.Home]
	snap.AwayScore = ms.Score[court.Away]
	snap.Ball = BallSnapshot{
		X: ms.Ball.Pos.X(), Y: ms.Ball.Pos.Y(), Z: ms.Ball.Pos.Z(),
		VX: ms.Ball.Vel.X(), VY: ms.Ball.Vel.Y(), VZ: ms.Ball.Vel.Z(),
		HolderID: ms.Ball.HolderID,
	}

	for _, sq := range ms.Squads {
		for _, p := range sq.OnCourt {
			if len(snap.Players) >= MaxSnapshotPlayers {
				break
			}
			snap.Players = append(snap.Players, PlayerSnapshot{
				ID:        p.ID(),
				Name:      p.Data.Name,
				Side:      p.Side.String(),
				Position:  string(p.Data.Position),
				X:         p.Pos.X(),
				Y:         p.Pos.Y(),
				VX:        p.Vel.X(),
				VY:        p.Vel.Y(),
				LookX:     p.Look.X(),
				LookY:     p.Look.Y(),
				Height:    p.Height,
				Action:    p.Action.String(),
				Stamina:   p.Stamina,
				HasBall:   p.HasBall,
				OnCourt:   true,
				Suspended: p.Suspended(ms.Clock),
				Stumbling: p.StumbleTimer > 0,
			})
		}
	}

	pool.PublishWrite()
}
