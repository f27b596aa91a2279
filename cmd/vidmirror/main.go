// Command vidmirror mirrors a Source video library into a Target library.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/vidmirror/internal/adapters/driven/config/file"
	"github.com/custodia-labs/vidmirror/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/vidmirror/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/vidmirror/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/vidmirror/internal/adapters/driving/cli"
	"github.com/custodia-labs/vidmirror/internal/connectors"
	"github.com/custodia-labs/vidmirror/internal/core/domain"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driven"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driving"
	"github.com/custodia-labs/vidmirror/internal/core/services"
	"github.com/custodia-labs/vidmirror/internal/logger"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli.SetVersion(version)
	cli.SetBootstrap(func(configDir string, settingsOnly bool) (*cli.Services, func() error, error) {
		return bootstrap(ctx, configDir, settingsOnly)
	})

	err := cli.ExecuteContext(ctx)
	if closeErr := cli.Close(); closeErr != nil {
		logger.Warn("closing store: %v", closeErr)
	}
	stop()

	if err != nil {
		os.Exit(1)
	}
}

// mappingBackend is the store opened for a run.
type mappingBackend interface {
	MappingStore() driven.MappingStore
	RunStore() driven.RunStore
	Close() error
}

func bootstrap(ctx context.Context, configDir string, settingsOnly bool) (*cli.Services, func() error, error) {
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)

	if settingsOnly {
		return &cli.Services{Settings: settingsService}, nil, nil
	}

	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("loading settings: %w", err)
	}

	backend, err := openStore(ctx, configDir, settings.Store)
	if err != nil {
		return nil, nil, err
	}

	mirror := services.NewMirrorOrchestrator(
		settingsService,
		connectors.NewFactory(),
		backend.MappingStore(),
		backend.RunStore(),
		func() driven.FolderCache { return memory.NewFolderCache() },
	)

	return &cli.Services{
		Settings: settingsService,
		Mirror:   mirror,
		Mapping:  services.NewMappingService(backend.MappingStore(), settings.Source.PlayerDomain),
		NewScheduler: func(opts driving.MirrorOptions) driving.Scheduler {
			return services.NewScheduler(mirror, settingsService, configStore, opts)
		},
	}, backend.Close, nil
}

func openStore(ctx context.Context, configDir string, settings domain.StoreSettings) (mappingBackend, error) {
	switch settings.Driver {
	case domain.StoreDriverPostgres:
		logger.Debug("store: postgres")
		store, err := postgres.NewStore(ctx, settings.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return store, nil
	default:
		dataDir := settings.DataDir
		if dataDir == "" && configDir != "" {
			dataDir = filepath.Join(configDir, "data")
		}
		store, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		logger.Debug("store: sqlite %s", store.Path())
		return store, nil
	}
}
