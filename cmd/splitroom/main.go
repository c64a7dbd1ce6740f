package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/splitroom/internal/config"
	"github.com/mmynk/splitroom/internal/metrics"
	"github.com/mmynk/splitroom/internal/service"
	"github.com/mmynk/splitroom/internal/storage"
	"github.com/mmynk/splitroom/internal/storage/filestore"
	"github.com/mmynk/splitroom/internal/storage/postgres"
	"github.com/mmynk/splitroom/internal/storage/sqlite"
	"github.com/mmynk/splitroom/pkg/logging"
)

const usage = `usage: splitroom <command> [arguments]

commands:
  rooms                                         list room ids
  create <room-id> <name> <user>...             provision a room
  show   <room-id>                              balances, transactions and settlements
  add    <room-id> -payer P [-note N] user=expr...
  edit   <room-id> (-index I | -id ID) -payer P [-note N] user=expr...
  delete <room-id> (-index I | -id ID)
  draft  <room-id> <sum>                        equal-split share expressions
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize storage", "store", cfg.Store, "error", err)
		return 1
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	collector, err := metrics.New(reg)
	if err != nil {
		slog.Error("Failed to register metrics", "error", err)
		return 1
	}
	defer writeMetrics(cfg.MetricsFile, reg)

	opts := []service.Option{
		service.WithLocation(cfg.Location),
		service.WithMetrics(collector),
	}
	if cfg.AllowOrphans {
		opts = append(opts, service.WithOrphanNames())
	}

	svc, err := service.NewRoomService(ctx, store, opts...)
	if err != nil {
		slog.Error("Failed to load rooms", "error", err)
		return 1
	}

	cmd := &command{svc: svc, out: os.Stdout}
	if err := cmd.dispatch(ctx, args[0], args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			return 2
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// openStore builds the configured ledger backend.
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		slog.Debug("Storage initialized", "store", cfg.Store, "database", cfg.DBPath)
		return store, nil
	case config.StorePostgres:
		store, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		slog.Debug("Storage initialized", "store", cfg.Store)
		return store, nil
	default:
		store, err := filestore.New(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		slog.Debug("Storage initialized", "store", cfg.Store, "dir", store.Dir())
		return store, nil
	}
}

func writeMetrics(path string, reg *prometheus.Registry) {
	if path == "" {
		return
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		slog.Warn("Failed to write metrics textfile", "path", path, "error", err)
	}
}
