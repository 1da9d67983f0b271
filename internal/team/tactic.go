package team

import (
	"github.com/go-gl/mathgl/mgl64"

	"handsim/internal/court"
)

// Pace is the tempo a team tries to play at.
type Pace string

const (
	PaceSlow   Pace = "slow"
	PaceNormal Pace = "normal"
	PaceFast   Pace = "fast"
)

// Marking selects the defensive assignment style.
type Marking string

const (
	MarkingZonal Marking = "zonal"
	MarkingMan   Marking = "man"
)

// Formation maps each outfield role to an anchor point expressed relative to
// the goal the formation is oriented at: X is distance from that goal line
// along the attack direction, Y is absolute court width. The positioner
// mirrors anchors for the away side.
type Formation struct {
	Name    string                   `yaml:"name" json:"name"`
	Anchors map[Position]mgl64.Vec2 `yaml:"-" json:"-"`
}

// Offense33 is the standard 3-3 attacking shape: three backs at the 9m arc,
// wings tight to the corners, pivot on the crease.
func Offense33() Formation {
	return Formation{
		Name: "3-3",
		Anchors: map[Position]mgl64.Vec2{
			LeftWing:   {3.0, 1.5},
			LeftBack:   {10.5, 5.0},
			CentreBack: {11.5, court.Width / 2},
			RightBack:  {10.5, 15.0},
			RightWing:  {3.0, 18.5},
			Pivot:      {6.5, court.Width / 2},
		},
	}
}

// Defense60 is the flat 6-0 defensive wall along the crease.
func Defense60() Formation {
	return Formation{
		Name: "6-0",
		Anchors: map[Position]mgl64.Vec2{
			LeftWing:   {6.3, 3.0},
			LeftBack:   {6.5, 6.5},
			CentreBack: {6.8, 9.0},
			Pivot:      {6.8, 11.0},
			RightBack:  {6.5, 13.5},
			RightWing:  {6.3, 17.0},
		},
	}
}

// Tactic is a team's strategic configuration. Read-only to the player AI;
// the team coach is the sole mutator during a match.
type Tactic struct {
	OffenseFormation Formation `yaml:"offense_formation" json:"offenseFormation"`
	DefenseFormation Formation `yaml:"defense_formation" json:"defenseFormation"`

	Pace       Pace    `yaml:"pace" json:"pace"`
	RiskTaking int     `yaml:"risk_taking" json:"riskTaking"` // 0-100
	Aggression int     `yaml:"aggression" json:"aggression"`  // 0-100
	Marking    Marking `yaml:"marking" json:"marking"`

	// FocusPlay steers distribution, 0-100: low works the ball wide to the
	// wings, high plays through the central backs.
	FocusPlay int `yaml:"focus_play" json:"focusPlay"`

	// Defensive block geometry, both 0-100. Height pushes the line out from
	// the crease toward the 9m arc, width stretches it toward the sidelines.
	DefenseLineHeight int `yaml:"defense_line_height" json:"defenseLineHeight"`
	DefenseWidth      int `yaml:"defense_width" json:"defenseWidth"`

	PenaltyTakerID string `yaml:"penalty_taker" json:"penaltyTaker"`
}

// DefaultTactic returns a balanced starting tactic.
func DefaultTactic() Tactic {
	return Tactic{
		OffenseFormation:  Offense33(),
		DefenseFormation:  Defense60(),
		Pace:              PaceNormal,
		RiskTaking:        50,
		Aggression:        50,
		FocusPlay:         50,
		Marking:           MarkingZonal,
		DefenseLineHeight: 40,
		DefenseWidth:      50,
	}
}

func clamp100(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// AdjustRisk shifts risk taking by delta, clamped to the valid range.
func (t *Tactic) AdjustRisk(delta int) { t.RiskTaking = clamp100(t.RiskTaking + delta) }

// AdjustAggression shifts aggression by delta, clamped to the valid range.
func (t *Tactic) AdjustAggression(delta int) { t.Aggression = clamp100(t.Aggression + delta) }

// AdjustLineHeight shifts the defensive line height by delta, clamped.
func (t *Tactic) AdjustLineHeight(delta int) {
	t.DefenseLineHeight = clamp100(t.DefenseLineHeight + delta)
}

// normalize fills zero-valued fields after a YAML load so a sparse tactic
// block in a fixture file still yields a playable tactic.
func (t *Tactic) normalize() {
	def := DefaultTactic()
	if t.OffenseFormation.Anchors == nil {
		t.OffenseFormation = def.OffenseFormation
	}
	if t.DefenseFormation.Anchors == nil {
		t.DefenseFormation = def.DefenseFormation
	}
	if t.Pace == "" {
		t.Pace = def.Pace
	}
	if t.Marking == "" {
		t.Marking = def.Marking
	}
	if t.RiskTaking == 0 {
		t.RiskTaking = def.RiskTaking
	}
	if t.Aggression == 0 {
		t.Aggression = def.Aggression
	}
	if t.FocusPlay == 0 {
		t.FocusPlay = def.FocusPlay
	}
	if t.DefenseLineHeight == 0 {
		t.DefenseLineHeight = def.DefenseLineHeight
	}
	if t.DefenseWidth == 0 {
		t.DefenseWidth = def.DefenseWidth
	}
}
