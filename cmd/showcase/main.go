package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/HerbHall/showcase/internal/auth"
	"github.com/HerbHall/showcase/internal/blog"
	"github.com/HerbHall/showcase/internal/config"
	"github.com/HerbHall/showcase/internal/event"
	"github.com/HerbHall/showcase/internal/metrics"
	"github.com/HerbHall/showcase/internal/portfolio"
	"github.com/HerbHall/showcase/internal/query"
	"github.com/HerbHall/showcase/internal/registry"
	"github.com/HerbHall/showcase/internal/server"
	"github.com/HerbHall/showcase/internal/site"
	"github.com/HerbHall/showcase/internal/store"
	"github.com/HerbHall/showcase/internal/version"
	"github.com/HerbHall/showcase/pkg/plugin"
)

const usage = `usage: showcase [command] [flags]

commands:
  serve     run the HTTP server (default)
  seed      import posts, portfolio items and settings from a YAML file
  user      create or update an admin account
  backup    write a tar.gz snapshot of the database and config
  restore   restore a snapshot written by backup
  version   print build information
`

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		runServe(args)
	case "seed":
		runSeed(args)
	case "user":
		runUser(args)
	case "backup":
		runBackup(args)
	case "restore":
		runRestore(args)
	case "version":
		fmt.Println(version.Info())
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
}

// loadConfig reads the config file at path and decodes the core settings.
func loadConfig(path string) (*viper.Viper, *config.Settings, error) {
	v, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	s, err := config.Decode(v)
	if err != nil {
		return nil, nil, err
	}
	return v, s, nil
}

// fatalf prints to stderr and exits. It is used before a logger exists.
func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	v, settings, err := loadConfig(*configPath)
	if err != nil {
		fatalf("showcase: %v", err)
	}
	logger, err := newLogger(settings.Log)
	if err != nil {
		fatalf("showcase: %v", err)
	}
	defer logger.Sync()

	logger.Info("showcase server starting",
		zap.String("version", version.Short()),
		zap.String("database", settings.Database.Path),
	)

	st, err := store.New(settings.Database.Path)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer st.Close()

	m := metrics.New()
	bus := event.NewBus(logger.Named("bus"), event.WithPublishHook(m.IncEvent))
	cfg := config.New(v)

	queryOpts := []query.Option{
		query.WithPageSize(settings.Query.PageSize),
		query.WithMaxPageSize(settings.Query.MaxPageSize),
		query.WithTimeout(settings.Query.Timeout),
		query.WithObserver(m),
	}

	am := auth.New()
	reg := registry.New(logger)
	modules := []plugin.Plugin{
		am,
		blog.New(queryOpts...),
		portfolio.New(queryOpts...),
		site.New(),
		event.NewStream(),
	}
	for _, p := range modules {
		if err := reg.Register(p); err != nil {
			logger.Fatal("failed to register module", zap.Error(err))
		}
	}
	if err := reg.Validate(); err != nil {
		logger.Fatal("module validation failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = reg.InitAll(ctx, func(name string) plugin.Dependencies {
		sub := cfg.Sub("modules." + name)
		if name == "auth" {
			sub = settings.Auth.Config()
		}
		return plugin.Dependencies{
			Config: sub,
			Store:  st,
			Bus:    bus,
			Logger: logger.Named(name),
		}
	})
	if err != nil {
		logger.Fatal("failed to initialize modules", zap.Error(err))
	}
	if err := reg.StartAll(ctx); err != nil {
		logger.Fatal("failed to start modules", zap.Error(err))
	}

	srv := server.New(settings.Server.Addr, reg, logger.Named("http"),
		server.WithAdminGate(am.RequireAdmin),
		server.WithMetrics(m),
		server.WithHealthCheck("database", st.Ping),
		server.WithTimeouts(settings.Server.ReadTimeout, settings.Server.WriteTimeout),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()
	logger.Info("showcase server ready", zap.String("addr", settings.Server.Addr))

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), settings.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	reg.StopAll(shutdownCtx)

	logger.Info("showcase server stopped")
}
