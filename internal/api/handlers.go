package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"handsim/internal/court"
	"handsim/internal/sim"
	"handsim/internal/team"
)

// Handler methods for routerHandlers.
// These are used by both the standalone router (for testing) and the full Server.

// CreateMatchRequest is the POST /api/matches payload. Teams can be supplied
// inline or generated around an average skill.
type CreateMatchRequest struct {
	Home *team.Team `json:"home,omitempty"`
	Away *team.Team `json:"away,omitempty"`

	Generate *GenerateTeamsRequest `json:"generate,omitempty"`

	Seed     int64   `json:"seed,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	TickDT   float64 `json:"tickDt,omitempty"`
}

// GenerateTeamsRequest asks the server to build both squads.
type GenerateTeamsRequest struct {
	HomeName string `json:"homeName"`
	AwayName string `json:"awayName"`
	Skill    int    `json:"skill,omitempty"`
}

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":  "ok",
		"running": h.registry.RunningCount(),
	})
}

func (h *routerHandlers) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req CreateMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	home, away := req.Home, req.Away
	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	if req.Generate != nil {
		gen := req.Generate
		if gen.HomeName == "" || gen.AwayName == "" {
			writeError(w, "generate requires homeName and awayName", http.StatusBadRequest)
			return
		}
		skill := gen.Skill
		if skill == 0 {
			skill = h.simCfg.DefaultSkill
		}
		rng := rand.New(rand.NewSource(seed))
		home = team.GenerateSquad(gen.HomeName, skill, rng)
		away = team.GenerateSquad(gen.AwayName, skill, rng)
	}
	if home == nil || away == nil {
		writeError(w, "Provide home and away teams or a generate block", http.StatusBadRequest)
		return
	}
	home.Normalize()
	away.Normalize()

	duration := req.Duration
	if duration == 0 {
		duration = h.simCfg.Duration
	}
	tickDT := req.TickDT
	if tickDT == 0 {
		tickDT = h.simCfg.TickDT
	}

	matchReq := sim.MatchRequest{
		HomeTeam:     home,
		AwayTeam:     away,
		Seed:         seed,
		Duration:     duration,
		TickDT:       tickDT,
		TickObserver: RecordTick,
	}
	if h.simCfg.EventLogDir != "" {
		matchReq.EventLogPath = filepath.Join(h.simCfg.EventLogDir,
			"match-"+strconv.FormatInt(seed, 10)+".ndjson")
	}
	match, err := sim.NewMatch(matchReq)
	if err != nil {
		var setupErr *sim.SetupError
		if errors.As(err, &setupErr) {
			writeError(w, setupErr.Error(), http.StatusUnprocessableEntity)
			return
		}
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	entry := &MatchEntry{Match: match, Cancel: cancel, Hub: NewWebSocketHub(h.origins)}

	if !h.registry.Add(entry) {
		cancel()
		writeError(w, "Match limit reached", http.StatusServiceUnavailable)
		return
	}

	go entry.Hub.Run()
	go entry.Hub.StartBroadcastLoop(match)
	go func() {
		defer cancel()
		UpdateMatchesActive(h.registry.RunningCount())
		match.Run(ctx)
		RecordMatchFinished()
		UpdateMatchesActive(h.registry.RunningCount())
	}()

	log.Printf("🆕 match %s created: %s vs %s", match.ID, home.Name, away.Name)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"matchId": match.ID,
		"seed":    match.Seed,
	})
}

func (h *routerHandlers) handleListMatches(w http.ResponseWriter, r *http.Request) {
	entries := h.registry.List()
	out := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		snap := e.Match.Snapshot()
		_, finished := e.Match.Result()
		out = append(out, map[string]interface{}{
			"matchId":   e.Match.ID,
			"finished":  finished,
			"clock":     snap.Clock,
			"phase":     snap.Phase,
			"homeScore": snap.HomeScore,
			"awayScore": snap.AwayScore,
		})
	}
	writeJSON(w, out)
}

func (h *routerHandlers) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.lookup(w, r)
	if !ok {
		return
	}
	// The snapshot is reused across ticks; copy before leaving the handler.
	snap := *entry.Match.Snapshot()
	players := make([]sim.PlayerSnapshot, len(snap.Players))
	copy(players, snap.Players)
	snap.Players = players
	writeJSON(w, snap)
}

func (h *routerHandlers) handleGetResult(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.lookup(w, r)
	if !ok {
		return
	}
	result, done := entry.Match.Result()
	if !done {
		writeError(w, "Match still running", http.StatusConflict)
		return
	}
	writeJSON(w, result)
}

func (h *routerHandlers) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.lookup(w, r)
	if !ok {
		return
	}
	after := uint64(0)
	if s := r.URL.Query().Get("after"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			writeError(w, "Invalid after parameter", http.StatusBadRequest)
			return
		}
		after = v
	}
	events := entry.Match.EventsSince(after)
	if events == nil {
		events = []sim.Event{}
	}
	writeJSON(w, events)
}

func (h *routerHandlers) handleRequestTimeout(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req struct {
		Side string `json:"side"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	var side court.Side
	switch req.Side {
	case "home":
		side = court.Home
	case "away":
		side = court.Away
	default:
		writeError(w, "side must be home or away", http.StatusBadRequest)
		return
	}

	if err := entry.Match.RequestTimeout(side); err != nil {
		switch {
		case errors.Is(err, sim.ErrMatchFinished):
			writeError(w, err.Error(), http.StatusConflict)
		case errors.Is(err, sim.ErrNoTimeoutsLeft):
			writeError(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			writeError(w, err.Error(), http.StatusServiceUnavailable)
		}
		return
	}
	writeJSON(w, map[string]interface{}{"accepted": true})
}

func (h *routerHandlers) handleAbortMatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "matchID")
	if !h.registry.Remove(id) {
		writeError(w, "Match not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]interface{}{"removed": true})
}

func (h *routerHandlers) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.lookup(w, r)
	if !ok {
		return
	}
	snap := entry.Match.Snapshot()
	w.Header().Set("Content-Type", "image/png")
	if err := RenderFrame(w, snap, h.frame); err != nil {
		log.Printf("⚠️ frame render failed: %v", err)
	}
}

// lookup resolves the {matchID} URL parameter, writing a 404 on miss.
func (h *routerHandlers) lookup(w http.ResponseWriter, r *http.Request) (*MatchEntry, bool) {
	id := chi.URLParam(r, "matchID")
	entry, ok := h.registry.Get(id)
	if !ok {
		writeError(w, "Match not found", http.StatusNotFound)
		return nil, false
	}
	return entry, true
}

// writeJSON writes a JSON response with status 200 unless already written.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("⚠️ JSON encode error: %v", err)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
