package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	modeltetris "github.com/progate-hackathon-strawberry-flavor/floodtris/internal/models/tetris"
	"github.com/progate-hackathon-strawberry-flavor/floodtris/internal/services/tetris"
)

// simulate はスクリプトで操作したゲームを描画なしで実行し、最終状態をJSONで出力します。
func main() {
	script := flag.String("script", "", "Per-tick commands separated by spaces, '+' joins commands in one tick, '.' is an idle tick.")
	idle := flag.Int("idle", 0, "Idle ticks to run after the script.")
	delta := flag.Duration("delta", 0, "Elapsed time per tick. Defaults to the fall interval.")
	envFile := flag.String("env", "", "Optional .env file with game settings.")
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			log.Fatalf("failed to load %s: %v", *envFile, err)
		}
	}

	catalog := modeltetris.DefaultCatalog()
	if path := os.Getenv("CATALOG_FILE"); path != "" {
		loaded, err := modeltetris.LoadCatalogFile(path)
		if err != nil {
			log.Fatalf("failed to load catalog: %v", err)
		}
		catalog = loaded
	}

	cfg, err := tetris.LoadConfigFromEnv(catalog.TypeByName)
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	if *delta <= 0 {
		*delta = cfg.FallInterval
	}

	ticks, err := tetris.ParseScript(*script)
	if err != nil {
		log.Fatalf("invalid script: %v", err)
	}

	game, err := tetris.NewGame(cfg, catalog)
	if err != nil {
		log.Fatalf("failed to start game: %v", err)
	}
	ran := tetris.RunScript(game, ticks, *idle, *delta)
	log.Printf("ran %d ticks, state=%s placement_points=%d", ran, game.State(), game.PlacementPoints())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(game.Snapshot()); err != nil {
		log.Fatalf("failed to encode snapshot: %v", err)
	}
}
