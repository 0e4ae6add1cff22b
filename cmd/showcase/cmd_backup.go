package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/HerbHall/showcase/internal/backup"
)

func runBackup(args []string) {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file (also included in the archive)")
	output := fs.String("output", "", "output file path (default: showcase-backup-{timestamp}.tar.gz)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	v, settings, err := loadConfig(*configPath)
	if err != nil {
		fatalf("backup failed: %v", err)
	}

	if *output == "" {
		*output = fmt.Sprintf("showcase-backup-%s.tar.gz", time.Now().Format("20060102-150405"))
	}

	ctx := context.Background()
	if err := backup.Backup(ctx, settings.Database.Path, v.ConfigFileUsed(), *output); err != nil {
		fatalf("backup failed: %v", err)
	}
	fmt.Printf("Backup created: %s\n", *output)
}
