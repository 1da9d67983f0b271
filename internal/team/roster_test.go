package team

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testSquad(t *testing.T) *Team {
	t.Helper()
	return GenerateSquad("Testers", 60, rand.New(rand.NewSource(7)))
}

func TestGenerateSquad(t *testing.T) {
	tm := testSquad(t)

	if len(tm.Players) != 14 {
		t.Fatalf("squad size = %d, want 14", len(tm.Players))
	}
	if err := tm.Validate(); err != nil {
		t.Fatalf("generated squad invalid: %v", err)
	}

	keepers := 0
	perPos := map[Position]int{}
	for _, p := range tm.Players {
		perPos[p.Position]++
		if p.IsKeeper() {
			keepers++
		}
		if p.Attr.Speed < 1 || p.Attr.Speed > 100 {
			t.Errorf("player %s speed out of range: %d", p.ID, p.Attr.Speed)
		}
	}
	if keepers != 2 {
		t.Errorf("keepers = %d, want 2", keepers)
	}
	for _, pos := range FieldPositions {
		if perPos[pos] != 2 {
			t.Errorf("position %s count = %d, want 2", pos, perPos[pos])
		}
	}

	// The designated penalty taker is a back with the squad's best throw.
	taker := tm.Tactic.PenaltyTakerID
	if taker == "" {
		t.Fatal("no penalty taker assigned")
	}
	var found bool
	for _, p := range tm.Players {
		if p.ID == taker {
			found = true
			if p.Position != LeftBack && p.Position != CentreBack && p.Position != RightBack {
				t.Errorf("penalty taker %s plays %s, want a back", taker, p.Position)
			}
		}
	}
	if !found {
		t.Errorf("penalty taker %s not in squad", taker)
	}
}

func TestGenerateSquadDeterministic(t *testing.T) {
	a := GenerateSquad("A", 60, rand.New(rand.NewSource(42)))
	b := GenerateSquad("A", 60, rand.New(rand.NewSource(42)))
	for i := range a.Players {
		if a.Players[i] != b.Players[i] {
			t.Fatalf("player %d differs between identically seeded squads", i)
		}
	}
}

func TestValidate(t *testing.T) {
	base := testSquad(t)

	tests := []struct {
		name    string
		mutate  func(*Team)
		wantErr string
	}{
		{"valid", func(t *Team) {}, ""},
		{"missing name", func(t *Team) { t.Name = "" }, "missing name"},
		{"too few players", func(t *Team) { t.Players = t.Players[:5] }, "at least 7"},
		{"no keeper", func(t *Team) {
			for i := range t.Players {
				if t.Players[i].IsKeeper() {
					t.Players[i].Position = Pivot
				}
			}
		}, "no goalkeeper"},
		{"duplicate id", func(t *Team) { t.Players[3].ID = t.Players[2].ID }, "duplicate"},
		{"bad position", func(t *Team) { t.Players[4].Position = "XX" }, "unknown position"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := *base
			tm.Players = append([]PlayerData(nil), base.Players...)
			tt.mutate(&tm)
			err := tm.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadTeamFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "team.yaml")

	yaml := `id: hc_test
name: HC Test
tactic:
  pace: fast
  risk_taking: 70
players:
`
	positions := []string{"GK", "LW", "LB", "CB", "RB", "RW", "P"}
	for i, pos := range positions {
		yaml += "  - id: p" + string(rune('0'+i)) + "\n" +
			"    name: Player " + pos + "\n" +
			"    position: " + pos + "\n"
	}
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	tm, err := LoadTeamFile(path)
	if err != nil {
		t.Fatalf("LoadTeamFile: %v", err)
	}
	if tm.Name != "HC Test" || len(tm.Players) != 7 {
		t.Errorf("loaded %q with %d players", tm.Name, len(tm.Players))
	}
	if tm.Tactic.Pace != PaceFast || tm.Tactic.RiskTaking != 70 {
		t.Errorf("tactic not loaded: %+v", tm.Tactic)
	}
	// Sparse tactic blocks get defaults filled in.
	if tm.Tactic.Marking != MarkingZonal || tm.Tactic.OffenseFormation.Anchors == nil {
		t.Errorf("tactic not normalized: %+v", tm.Tactic)
	}
	// Omitted hands default to right.
	if tm.Players[1].Hand != RightHanded {
		t.Errorf("hand = %q, want right", tm.Players[1].Hand)
	}

	if _, err := LoadTeamFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("players: {not a list}"), 0o644)
	if _, err := LoadTeamFile(bad); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestTacticAdjustClamping(t *testing.T) {
	tac := DefaultTactic()

	tac.AdjustRisk(200)
	if tac.RiskTaking != 100 {
		t.Errorf("risk = %d, want clamped 100", tac.RiskTaking)
	}
	tac.AdjustRisk(-500)
	if tac.RiskTaking != 0 {
		t.Errorf("risk = %d, want clamped 0", tac.RiskTaking)
	}

	tac.AdjustAggression(-200)
	if tac.Aggression != 0 {
		t.Errorf("aggression = %d, want 0", tac.Aggression)
	}
	tac.AdjustLineHeight(100)
	if tac.DefenseLineHeight != 100 {
		t.Errorf("line height = %d, want 100", tac.DefenseLineHeight)
	}
}

func TestFormationsCoverOutfield(t *testing.T) {
	for _, f := range []Formation{Offense33(), Defense60()} {
		for _, pos := range FieldPositions {
			if _, ok := f.Anchors[pos]; !ok {
				t.Errorf("formation %s missing anchor for %s", f.Name, pos)
			}
		}
	}
}
