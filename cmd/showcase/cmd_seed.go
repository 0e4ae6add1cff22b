package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/HerbHall/showcase/internal/seed"
	"github.com/HerbHall/showcase/internal/services"
	"github.com/HerbHall/showcase/internal/store"
)

func runSeed(args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	file := fs.String("file", "", "YAML content file to import (required)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *file == "" {
		fmt.Fprintln(os.Stderr, "error: -file is required")
		fs.Usage()
		os.Exit(1)
	}

	_, settings, err := loadConfig(*configPath)
	if err != nil {
		fatalf("seed failed: %v", err)
	}
	logger, err := newLogger(settings.Log)
	if err != nil {
		fatalf("seed failed: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	st, err := store.New(settings.Database.Path)
	if err != nil {
		fatalf("seed failed: %v", err)
	}
	defer st.Close()

	posts, err := services.NewSQLitePostRepository(ctx, st)
	if err != nil {
		fatalf("seed failed: %v", err)
	}
	items, err := services.NewSQLitePortfolioRepository(ctx, st)
	if err != nil {
		fatalf("seed failed: %v", err)
	}
	kv, err := services.NewSQLiteSettingsRepository(ctx, st)
	if err != nil {
		fatalf("seed failed: %v", err)
	}

	rep, err := seed.NewLoader(posts, items, kv, logger.Named("seed")).LoadFile(ctx, *file)
	if err != nil {
		fatalf("seed failed: %v", err)
	}
	fmt.Printf("Seeded %s: posts %d created %d updated, portfolio %d created %d updated, %d settings\n",
		*file, rep.PostsCreated, rep.PostsUpdated, rep.ItemsCreated, rep.ItemsUpdated, rep.Settings)
}
