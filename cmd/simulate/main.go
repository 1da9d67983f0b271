package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"handsim/internal/config"
	"handsim/internal/sim"
	"handsim/internal/team"

	"github.com/joho/godotenv"
)

// simulate runs a single match headless and prints the result as JSON.
// Teams come from YAML fixtures or are generated around an average skill.
func main() {
	homeFile := flag.String("home", "", "YAML fixture for the home team")
	awayFile := flag.String("away", "", "YAML fixture for the away team")
	homeName := flag.String("home-name", "Home HC", "generated home team name")
	awayName := flag.String("away-name", "Away HC", "generated away team name")
	skill := flag.Int("skill", 0, "average ability for generated squads (default from config)")
	seed := flag.Int64("seed", 0, "simulation seed (0 = time-based)")
	duration := flag.Float64("duration", 0, "match length in simulated seconds (default from config)")
	eventLog := flag.String("event-log", "", "NDJSON event log path")
	quiet := flag.Bool("quiet", false, "suppress progress logging")
	flag.Parse()

	if err := godotenv.Load(".env"); err == nil {
		log.Println("✅ Loaded environment from .env")
	}
	simCfg := config.SimFromEnv()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	if *skill == 0 {
		*skill = simCfg.DefaultSkill
	}
	if *duration > 0 {
		simCfg.Duration = *duration
	}

	if *quiet {
		log.SetOutput(os.Stderr)
	}

	home, err := loadOrGenerate(*homeFile, *homeName, *skill, *seed)
	if err != nil {
		log.Fatalf("❌ home team: %v", err)
	}
	away, err := loadOrGenerate(*awayFile, *awayName, *skill, *seed+1)
	if err != nil {
		log.Fatalf("❌ away team: %v", err)
	}

	match, err := sim.NewMatch(sim.MatchRequest{
		HomeTeam:     home,
		AwayTeam:     away,
		Seed:         *seed,
		Duration:     simCfg.Duration,
		TickDT:       simCfg.TickDT,
		EventLogPath: *eventLog,
	})
	if err != nil {
		log.Fatalf("❌ match setup: %v", err)
	}

	// Ctrl+C aborts the match; the partial result still prints.
	ctx, cancel := context.WithCancel(context.Background())
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("🛑 Aborting match...")
		cancel()
	}()

	match.Run(ctx)

	result, ok := match.Result()
	if !ok {
		log.Fatal("❌ match produced no result")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatalf("❌ encode result: %v", err)
	}
}

func loadOrGenerate(path, name string, skill int, seed int64) (*team.Team, error) {
	if path != "" {
		return team.LoadTeamFile(path)
	}
	rng := rand.New(rand.NewSource(seed))
	return team.GenerateSquad(name, skill, rng), nil
}
