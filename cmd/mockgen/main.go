package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"dashmetrics/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, chaos, drift")
	shape := flag.String("shape", "rows", "Payload layout per category: rows, wrapped, chart, map")
	categories := flag.String("categories", "email,social,meta-ads", "Comma-separated categories")
	outDir := flag.String("out", "./.cache", "Output directory for the fixture")
	name := flag.String("name", "process-data", "Fixture file name without extension")
	seed := flag.Uint64("seed", 0, "Random seed (0 uses the clock)")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Categories: strings.Split(*categories, ","),
		Scenario:   *scenario,
		Shape:      *shape,
		Seed:       *seed,
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}

	fmt.Printf("Generating scenario '%s' (Shape: %s, Categories: %s, Seed: %d) to %s...\n", cfg.Scenario, cfg.Shape, *categories, cfg.Seed, *outDir)

	resp, err := engine.Generate(cfg)
	if err != nil {
		fmt.Printf("Failed to generate mock data: %v\n", err)
		os.Exit(1)
	}
	path, err := engine.Save(*outDir, *name, resp)
	if err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done: %s\n", path)
}
