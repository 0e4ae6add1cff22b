package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/HerbHall/showcase/internal/backup"
)

func runRestore(args []string) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	input := fs.String("input", "", "backup archive to restore (required)")
	configPath := fs.String("config", "", "path to configuration file")
	dataDir := fs.String("data-dir", "", "target directory (default: directory of database.path)")
	force := fs.Bool("force", false, "overwrite existing files")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *input == "" {
		fmt.Fprintln(os.Stderr, "error: -input is required")
		fs.Usage()
		os.Exit(1)
	}
	if *dataDir == "" {
		_, settings, err := loadConfig(*configPath)
		if err != nil {
			fatalf("restore failed: %v", err)
		}
		*dataDir = filepath.Dir(settings.Database.Path)
	}

	ctx := context.Background()
	m, err := backup.Restore(ctx, *input, *dataDir, *force)
	if err != nil {
		fatalf("restore failed: %v", err)
	}
	fmt.Printf("Restore complete: %s (version %s, taken %s) restored to %s\n",
		m.Database, m.Version, m.CreatedAt.Format("2006-01-02 15:04:05"), *dataDir)
}
