package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"barkeep/internal/cache"
	"barkeep/internal/config"
	"barkeep/internal/recipes"
)

func main() {
	var serve bool
	var seed bool
	var force bool
	var addr string
	var help bool

	flag.BoolVar(&serve, "serve", false, "Run HTTP server mode")
	flag.StringVar(&addr, "addr", "", "Address to bind in server mode (defaults to ADDR or :8080)")
	flag.BoolVar(&seed, "seed", false, "Load the bundled catalog into storage and exit")
	flag.BoolVar(&force, "force", false, "With -seed, overwrite entries that already exist")
	flag.BoolVar(&help, "help", false, "Show help message")
	flag.BoolVar(&help, "h", false, "Show help message")
	flag.Parse()

	if help {
		showHelp()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	switch {
	case serve:
		if err := runServer(cfg); err != nil {
			log.Fatalf("server error: %v", err)
		}
	case seed:
		if err := runSeed(context.Background(), cfg, force); err != nil {
			log.Fatalf("seed error: %v", err)
		}
	default:
		fmt.Println("Error: one of -serve or -seed is required")
		showHelp()
		os.Exit(1)
	}
}

func runSeed(ctx context.Context, cfg *config.Config, force bool) error {
	store, err := cache.MakeCache(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}
	written, err := recipes.IO(store).Seed(ctx, force)
	if err != nil {
		return err
	}
	fmt.Printf("seeded %d catalog entries\n", written)
	return nil
}

func showHelp() {
	fmt.Println("Barkeep - cocktail catalog and virtual bar")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  barkeep -serve [-addr :8080]")
	fmt.Println("  barkeep -seed [-force]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -serve          Run the HTTP server")
	fmt.Println("  -addr           Address to bind in server mode")
	fmt.Println("  -seed           Load the bundled catalog and exit")
	fmt.Println("  -force          With -seed, overwrite existing entries")
	fmt.Println("  -help, -h       Show this help message")
}
