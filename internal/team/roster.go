package team

import (
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"
)

// MatchSquadSize is the number of players on court per team.
const MatchSquadSize = 7

// Team is a full roster plus its tactic.
type Team struct {
	ID      string       `yaml:"id" json:"id"`
	Name    string       `yaml:"name" json:"name"`
	Players []PlayerData `yaml:"players" json:"players"`
	Tactic  Tactic       `yaml:"tactic" json:"tactic"`
}

// LoadTeamFile reads a team fixture from a YAML file.
func LoadTeamFile(path string) (*Team, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read team file: %w", err)
	}
	var t Team
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("parse team file %s: %w", path, err)
	}
	t.Tactic.normalize()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Normalize fills defaulted tactic fields on a team built outside the YAML
// loader, e.g. one decoded from an API request.
func (t *Team) Normalize() {
	t.Tactic.normalize()
}

// Validate enforces the setup rules a match request is rejected on: at least
// one goalkeeper, at least a full on-court squad, unique player ids.
func (t *Team) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("team: missing name")
	}
	if len(t.Players) < MatchSquadSize {
		return fmt.Errorf("team %s: need at least %d players, have %d", t.Name, MatchSquadSize, len(t.Players))
	}

	seen := make(map[string]bool, len(t.Players))
	keepers := 0
	for i := range t.Players {
		p := &t.Players[i]
		if err := p.Validate(); err != nil {
			return fmt.Errorf("team %s: %w", t.Name, err)
		}
		if seen[p.ID] {
			return fmt.Errorf("team %s: duplicate player id %s", t.Name, p.ID)
		}
		seen[p.ID] = true
		if p.IsKeeper() {
			keepers++
		}
	}
	if keepers == 0 {
		return fmt.Errorf("team %s: no goalkeeper in roster", t.Name)
	}
	if len(t.Players)-keepers < MatchSquadSize-1 {
		return fmt.Errorf("team %s: fewer than %d eligible outfield players", t.Name, MatchSquadSize-1)
	}
	return nil
}

// Keeper returns the first goalkeeper in the roster.
func (t *Team) Keeper() *PlayerData {
	for i := range t.Players {
		if t.Players[i].IsKeeper() {
			return &t.Players[i]
		}
	}
	return nil
}

var firstNames = []string{
	"Mikkel", "Sander", "Niklas", "Domagoj", "Luka", "Andy", "Uwe", "Talant",
	"Jim", "Lasse", "Hendrik", "Petar", "Aron", "Dika", "Melvyn", "Ludovic",
}

var lastNames = []string{
	"Hansen", "Sagosen", "Landin", "Duvnjak", "Karabatic", "Schmid", "Gensheimer",
	"Mem", "Richardson", "Gidsel", "Pekeler", "Cindric", "Palmarsson", "Descat",
}

// traitProfile biases attribute generation per position. Values are added to
// the rolled base before clamping; overlapping boosts are additive.
var traitProfile = map[Position]map[string]int{
	Goalkeeper: {"reflexes": 30, "handling": 28, "one_on_ones": 25, "penalty_saving": 25, "speed": -15},
	LeftWing:   {"speed": 15, "agility": 15, "jumping": 10},
	RightWing:  {"speed": 15, "agility": 15, "jumping": 10},
	LeftBack:   {"throwing": 15, "strength": 10, "jumping": 8},
	RightBack:  {"throwing": 15, "strength": 10, "jumping": 8},
	CentreBack: {"tactical_awareness": 15, "teamwork": 12, "throwing": 8},
	Pivot:      {"strength": 18, "blocking": 12, "catching": 10},
}

// GenerateSquad builds a 14-player squad (2 GK + 12 field players) around an
// average ability, using the provided RNG so fixtures are reproducible.
func GenerateSquad(name string, avg int, rng *rand.Rand) *Team {
	positions := []Position{
		Goalkeeper, Goalkeeper,
		LeftWing, LeftWing, LeftBack, LeftBack, CentreBack, CentreBack,
		RightBack, RightBack, RightWing, RightWing, Pivot, Pivot,
	}

	t := &Team{
		ID:     fmt.Sprintf("team_%s", name),
		Name:   name,
		Tactic: DefaultTactic(),
	}

	for i, pos := range positions {
		roll := func(boost int) int {
			v := avg + boost + rng.Intn(21) - 10
			return clamp1to100(v)
		}
		profile := traitProfile[pos]

		p := PlayerData{
			ID:       fmt.Sprintf("%s_%02d", t.ID, i+1),
			Name:     fmt.Sprintf("%s %s", firstNames[rng.Intn(len(firstNames))], lastNames[rng.Intn(len(lastNames))]),
			Position: pos,
			Hand:     RightHanded,
			Attr: Attributes{
				Speed:             roll(profile["speed"]),
				Agility:           roll(profile["agility"]),
				Strength:          roll(profile["strength"]),
				Jumping:           roll(profile["jumping"]),
				Fitness:           roll(0),
				Throwing:          roll(profile["throwing"]),
				Catching:          roll(profile["catching"]),
				Dribbling:         roll(0),
				Blocking:          roll(profile["blocking"]),
				Tackling:          roll(0),
				Reflexes:          roll(profile["reflexes"] - 20),
				Handling:          roll(profile["handling"] - 20),
				OneOnOnes:         roll(profile["one_on_ones"] - 20),
				PenaltySaving:     roll(profile["penalty_saving"] - 20),
				TacticalAwareness: roll(profile["tactical_awareness"]),
				Teamwork:          roll(profile["teamwork"]),
				Leadership:        roll(0),
			},
			Pers: Personality{
				Aggression:      1 + rng.Intn(100),
				Ambition:        1 + rng.Intn(100),
				Bravery:         1 + rng.Intn(100),
				Composure:       1 + rng.Intn(100),
				Determination:   1 + rng.Intn(100),
				Loyalty:         1 + rng.Intn(100),
				Professionalism: 1 + rng.Intn(100),
				Volatility:      1 + rng.Intn(100),
			},
		}
		// Right wings and right backs skew left-handed, like real squads do.
		if (pos == RightWing || pos == RightBack) && rng.Float64() < 0.6 {
			p.Hand = LeftHanded
		}
		t.Players = append(t.Players, p)
	}

	// Best thrower among the backs takes the penalties.
	best := ""
	bestThrow := -1
	for _, p := range t.Players {
		if p.Position == LeftBack || p.Position == CentreBack || p.Position == RightBack {
			if p.Attr.Throwing > bestThrow {
				bestThrow = p.Attr.Throwing
				best = p.ID
			}
		}
	}
	t.Tactic.PenaltyTakerID = best
	return t
}

func clamp1to100(v int) int {
	if v < 1 {
		return 1
	}
	if v > 100 {
		return 100
	}
	return v
}
