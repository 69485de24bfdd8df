package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"harvest-mcp/cmd/mockgen/engine"
	"harvest-mcp/internal/store"
)

func main() {
	scenario := flag.String("scenario", "mixed", "Scenario to generate: early, late, mixed")
	dbPath := flag.String("db", "./harvest.db", "SQLite database to write plots and samples into")
	farms := flag.Int("farms", 3, "Number of farms")
	plots := flag.Int("plots", 4, "Plots per farm")
	samples := flag.Int("samples", 3, "Samples per plot, two weeks apart")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario:       *scenario,
		Farms:          *farms,
		PlotsPerFarm:   *plots,
		SamplesPerPlot: *samples,
		Now:            time.Now(),
		Seed:           *seed,
	}

	fmt.Printf("Generating scenario '%s' (%d farms x %d plots, %d samples each) into %s...\n", cfg.Scenario, cfg.Farms, cfg.PlotsPerFarm, cfg.SamplesPerPlot, *dbPath)

	st, err := store.Open(*dbPath)
	if err != nil {
		fmt.Printf("Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := engine.Save(context.Background(), st, engine.Generate(cfg)); err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done.")
}
