package sim

import (
	"time"

	"handsim/internal/court"
)

// PlayerStats is the per-player accumulator for one match.
type PlayerStats struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Position string `json:"position"`

	GoalsScored   int `json:"goalsScored"`
	ShotsTaken    int `json:"shotsTaken"`
	ShotsOnTarget int `json:"shotsOnTarget"`
	Assists       int `json:"assists"`

	PassesAttempted int `json:"passesAttempted"`
	PassesCompleted int `json:"passesCompleted"`

	Interceptions int `json:"interceptions"`
	Steals        int `json:"steals"`
	Blocks        int `json:"blocks"`
	Turnovers     int `json:"turnovers"`

	FoulsCommitted int `json:"foulsCommitted"`
	FoulsSuffered  int `json:"foulsSuffered"`
	Suspensions    int `json:"suspensions"`

	Saves         int `json:"saves"`
	GoalsConceded int `json:"goalsConceded"`

	SecondsPlayed  float64 `json:"secondsPlayed"`
	MetersCovered  float64 `json:"metersCovered"`
	AverageStamina float64 `json:"averageStamina"`

	staminaSamples float64
	staminaSum     float64
}

// sampleStamina feeds the average-stamina accumulator once per decision.
func (ps *PlayerStats) sampleStamina(v float64) {
	ps.staminaSum += v
	ps.staminaSamples++
}

// TeamStats is the per-team accumulator for one match.
type TeamStats struct {
	TeamID string `json:"teamId"`
	Name   string `json:"name"`

	Goals         int `json:"goals"`
	ShotsTaken    int `json:"shotsTaken"`
	ShotsOnTarget int `json:"shotsOnTarget"`
	Saves         int `json:"saves"`
	Turnovers     int `json:"turnovers"`
	Steals        int `json:"steals"`
	Interceptions int `json:"interceptions"`
	Blocks        int `json:"blocks"`
	Fouls         int `json:"fouls"`
	Suspensions   int `json:"suspensions"`
	RedCards      int `json:"redCards"`
	Penalties     int `json:"penalties"` // 7m throws awarded
	TimeoutsUsed  int `json:"timeoutsUsed"`
	Substitutions int `json:"substitutions"`

	PossessionSeconds float64 `json:"possessionSeconds"`
	FastBreakGoals    int     `json:"fastBreakGoals"`

	// Derived at finalization.
	ShotAccuracy   float64 `json:"shotAccuracy"`   // on target / taken
	ConversionRate float64 `json:"conversionRate"` // goals / taken
}

// TeamResult is one team's half of the final result.
type TeamResult struct {
	TeamID  string        `json:"teamId"`
	Name    string        `json:"name"`
	Score   int           `json:"score"`
	Stats   TeamStats     `json:"stats"`
	Players []PlayerStats `json:"players"`
}

// MatchResult is the complete outcome of one simulated match. Produced exactly
// once by finalize; safe to serialize as the API response.
type MatchResult struct {
	MatchID string `json:"matchId"`
	Seed    int64  `json:"seed"`

	Home TeamResult `json:"home"`
	Away TeamResult `json:"away"`

	HalfTimeScore [2]int `json:"halfTimeScore"`

	DurationPlayed float64   `json:"durationPlayed"` // simulated seconds
	Ticks          uint64    `json:"ticks"`
	StartedAt      time.Time `json:"startedAt"`
	FinishedAt     time.Time `json:"finishedAt"`

	// IsAborted is set when the context was cancelled before full time. The
	// partial result is still internally consistent.
	IsAborted bool `json:"isAborted"`

	Events []Event `json:"events,omitempty"`
}

// Winner returns the winning side, or false for a draw.
func (r *MatchResult) Winner() (court.Side, bool) {
	switch {
	case r.Home.Score > r.Away.Score:
		return court.Home, true
	case r.Away.Score > r.Home.Score:
		return court.Away, true
	}
	return court.Home, false
}

// statBook owns all accumulators during a running match.
type statBook struct {
	team    [2]TeamStats
	players map[string]*PlayerStats
}

func newStatBook(home, away *Squad) *statBook {
	sb := &statBook{players: make(map[string]*PlayerStats)}
	for s, sq := range [2]*Squad{home, away} {
		sb.team[s] = TeamStats{TeamID: sq.Team.ID, Name: sq.Team.Name}
		for _, p := range sq.All() {
			sb.players[p.ID()] = &PlayerStats{
				PlayerID: p.ID(),
				Name:     p.Data.Name,
				Position: string(p.Data.Position),
			}
		}
	}
	return sb
}

// player returns the accumulator for id. Unknown ids get a throwaway so a
// bookkeeping slip cannot panic mid-match.
func (sb *statBook) player(id string) *PlayerStats {
	if ps, ok := sb.players[id]; ok {
		return ps
	}
	return &PlayerStats{PlayerID: id}
}

// reconcile enforces the cross-stat identities before the result is built:
// team goals match the scoreboard and the sum of player goals, and shots are
// never fewer than goals. Derived player fields are finalized here too.
func (sb *statBook) reconcile(score [2]int) {
	for s := range sb.team {
		sb.team[s].Goals = score[s]
	}
	for _, ps := range sb.players {
		if ps.staminaSamples > 0 {
			ps.AverageStamina = ps.staminaSum / ps.staminaSamples
		}
		if ps.ShotsTaken < ps.GoalsScored {
			ps.ShotsTaken = ps.GoalsScored
		}
		if ps.ShotsOnTarget < ps.GoalsScored {
			ps.ShotsOnTarget = ps.GoalsScored
		}
	}
	for s := range sb.team {
		if sb.team[s].ShotsTaken < sb.team[s].Goals {
			sb.team[s].ShotsTaken = sb.team[s].Goals
		}
		if sb.team[s].ShotsOnTarget < sb.team[s].Goals {
			sb.team[s].ShotsOnTarget = sb.team[s].Goals
		}
		if taken := sb.team[s].ShotsTaken; taken > 0 {
			sb.team[s].ShotAccuracy = float64(sb.team[s].ShotsOnTarget) / float64(taken)
			sb.team[s].ConversionRate = float64(sb.team[s].Goals) / float64(taken)
		}
	}
}

// teamResult assembles one side's TeamResult in roster order.
func (sb *statBook) teamResult(s court.Side, sq *Squad, score int) TeamResult {
	tr := TeamResult{
		TeamID: sq.Team.ID,
		Name:   sq.Team.Name,
		Score:  score,
		Stats:  sb.team[s],
	}
	for _, p := range sq.All() {
		tr.Players = append(tr.Players, *sb.player(p.ID()))
	}
	return tr
}
