// Package team holds the static data a match is set up from: player
// attributes and personality, court positions, tactics and rosters. Nothing
// in here mutates during a match except the Tactic, and only the coaching AI
// is allowed to touch that.
package team

import "fmt"

// Position is a player's primary court role.
type Position string

const (
	Goalkeeper Position = "GK"
	LeftWing   Position = "LW"
	LeftBack   Position = "LB"
	CentreBack Position = "CB"
	RightBack  Position = "RB"
	RightWing  Position = "RW"
	Pivot      Position = "P"
)

// FieldPositions lists the six outfield roles in formation order.
var FieldPositions = []Position{LeftWing, LeftBack, CentreBack, RightBack, RightWing, Pivot}

// Valid reports whether p is a known position code.
func (p Position) Valid() bool {
	switch p {
	case Goalkeeper, LeftWing, LeftBack, CentreBack, RightBack, RightWing, Pivot:
		return true
	}
	return false
}

// Hand is a player's throwing hand.
type Hand string

const (
	RightHanded Hand = "right"
	LeftHanded  Hand = "left"
)

// Attributes are a player's physical and technical ratings, 1-100.
type Attributes struct {
	Speed     int `yaml:"speed" json:"speed"`
	Agility   int `yaml:"agility" json:"agility"`
	Strength  int `yaml:"strength" json:"strength"`
	Jumping   int `yaml:"jumping" json:"jumping"`
	Fitness   int `yaml:"fitness" json:"fitness"`
	Throwing  int `yaml:"throwing" json:"throwing"`
	Catching  int `yaml:"catching" json:"catching"`
	Dribbling int `yaml:"dribbling" json:"dribbling"`
	Blocking  int `yaml:"blocking" json:"blocking"`
	Tackling  int `yaml:"tackling" json:"tackling"`

	// Goalkeeper ratings - near the floor for field players.
	Reflexes      int `yaml:"reflexes" json:"reflexes"`
	Handling      int `yaml:"handling" json:"handling"`
	OneOnOnes     int `yaml:"one_on_ones" json:"oneOnOnes"`
	PenaltySaving int `yaml:"penalty_saving" json:"penaltySaving"`

	// Mental ratings.
	TacticalAwareness int `yaml:"tactical_awareness" json:"tacticalAwareness"`
	Teamwork          int `yaml:"teamwork" json:"teamwork"`
	Leadership        int `yaml:"leadership" json:"leadership"`
}

// Personality are a player's behavioural traits, 1-100. They bias AI
// decisions but never gate them outright.
type Personality struct {
	Aggression      int `yaml:"aggression" json:"aggression"`
	Ambition        int `yaml:"ambition" json:"ambition"`
	Bravery         int `yaml:"bravery" json:"bravery"`
	Composure       int `yaml:"composure" json:"composure"`
	Determination   int `yaml:"determination" json:"determination"`
	Loyalty         int `yaml:"loyalty" json:"loyalty"`
	Professionalism int `yaml:"professionalism" json:"professionalism"`
	Volatility      int `yaml:"volatility" json:"volatility"`
}

// PlayerData is the immutable description of one squad member.
type PlayerData struct {
	ID       string      `yaml:"id" json:"id"`
	Name     string      `yaml:"name" json:"name"`
	Position Position    `yaml:"position" json:"position"`
	Hand     Hand        `yaml:"hand" json:"hand"`
	Attr     Attributes  `yaml:"attributes" json:"attributes"`
	Pers     Personality `yaml:"personality" json:"personality"`
}

// Validate checks a single player entry.
func (p *PlayerData) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player %q: missing id", p.Name)
	}
	if !p.Position.Valid() {
		return fmt.Errorf("player %s: unknown position %q", p.ID, p.Position)
	}
	if p.Hand == "" {
		p.Hand = RightHanded
	}
	return nil
}

// IsKeeper reports whether the player's primary position is goalkeeper.
func (p *PlayerData) IsKeeper() bool {
	return p.Position == Goalkeeper
}
