package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/storedir/backend/internal/adapters/database"
	"github.com/storedir/backend/internal/adapters/search"
	"github.com/storedir/backend/internal/domain/repositories"
	"github.com/storedir/backend/internal/infrastructure/clients/postgres"
	"github.com/storedir/backend/internal/infrastructure/clients/typesense"
	"github.com/storedir/backend/internal/infrastructure/observability"
	"github.com/storedir/backend/pkg/config"
)

const indexBatchSize = 200

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete the existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	_ = godotenv.Load()
	observability.InitLogger("storedir-indexer", os.Getenv("APP_ENV"))
	logger := observability.GetLogger()

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	var err error
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			logger.Fatal().Str("interval", intervalValue).Err(err).Msg("invalid interval")
		}
		if interval <= 0 {
			logger.Fatal().Msg("interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, reset); err != nil {
			logger.Error().Err(err).Msg("reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		logger.Info().Dur("interval", interval).Msg("reindex complete, waiting for next run")

		select {
		case <-ctx.Done():
			logger.Info().Msg("reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, reset bool) error {
	logger := observability.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	storeRepo := database.NewStoreAdapter(pgClient)

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		logger.Info().Msg("deleting stores collection before reindex")
		if _, err := tsClient.Client().Collection(typesense.StoresCollection).Delete(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to delete collection")
		}
	}

	if err := tsClient.InitSchema(ctx); err != nil {
		return err
	}

	searchRepo := search.NewTypesenseAdapter(tsClient)

	indexed := 0
	for offset := 0; ; offset += indexBatchSize {
		stores, err := storeRepo.List(ctx, repositories.StoreFilter{
			Limit:  indexBatchSize,
			Offset: offset,
		})
		if err != nil {
			return err
		}
		if len(stores) == 0 {
			break
		}

		for _, store := range stores {
			if err := searchRepo.Index(ctx, store); err != nil {
				logger.Warn().Err(err).Str("store_id", store.ID).Msg("failed to index store")
				continue
			}
			indexed++
		}

		if len(stores) < indexBatchSize {
			break
		}
	}

	logger.Info().Int("indexed", indexed).Msg("reindex finished")
	return nil
}
