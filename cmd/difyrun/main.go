// Command difyrun syncs Dify workflow templates from GitHub
// repositories into a local catalog.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/7and1/difyrun/internal/adapters/driven/config/file"
	"github.com/7and1/difyrun/internal/adapters/driven/storage/sqlite"
	"github.com/7and1/difyrun/internal/adapters/driving/cli"
	"github.com/7and1/difyrun/internal/connectors/github"
	"github.com/7and1/difyrun/internal/core/services"
	"github.com/7and1/difyrun/internal/logger"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := sqlite.NewStore(cfg.GetString("storage.data_dir"))
	if err != nil {
		return fmt.Errorf("opening catalog store: %w", err)
	}
	defer store.Close()

	token := cfg.GetString("github.token")
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		logger.Warn("no GitHub token configured; API rate limits will be tight")
	}
	fetcher := github.NewFetcher(github.NewClient(ctx, token))

	syncService := services.NewSyncService(
		store.SourceStore(),
		store.WorkflowStore(),
		store.CategoryStore(),
		fetcher,
	)
	sourceService := services.NewSourceService(store.SourceStore())

	interval := services.DefaultSyncInterval
	if mins := cfg.GetInt("sync.interval_minutes"); mins > 0 {
		interval = time.Duration(mins) * time.Minute
	}
	scheduler := services.NewScheduler(syncService, interval)

	// Sources live next to config.toml and are seeded with the
	// built-in repositories on first run.
	sourcesPath := filepath.Join(filepath.Dir(cfg.Path()), "sources.toml")
	seeds, err := file.EnsureSourcesFile(sourcesPath)
	if err != nil {
		return fmt.Errorf("loading sources file: %w", err)
	}
	if err := sourceService.Seed(ctx, seeds); err != nil {
		return fmt.Errorf("seeding sources: %w", err)
	}

	watchSources := func(ctx context.Context) {
		watcher, err := file.NewSourcesWatcher(sourcesPath, func() {
			reloaded, err := file.LoadSources(sourcesPath)
			if err != nil {
				logger.Warn("sources reload failed: %v", err)
				return
			}
			if err := sourceService.Seed(context.Background(), reloaded); err != nil {
				logger.Warn("sources reseed failed: %v", err)
				return
			}
			logger.Info("sources file reloaded, %d sources", len(reloaded))
			scheduler.Kick()
		})
		if err != nil {
			logger.Warn("sources watch unavailable: %v", err)
			return
		}
		watcher.Run(ctx)
	}

	cli.SetServices(cli.Services{
		Syncer:       syncService,
		Sources:      sourceService,
		Scheduler:    scheduler,
		WatchSources: watchSources,
	})

	return cli.Execute(version)
}
