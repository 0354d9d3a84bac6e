package cmd

import (
	"context"
	"fmt"

	"github.com/dbcourse/app1/internal/config"
	"github.com/dbcourse/app1/internal/database"
	"github.com/dbcourse/app1/internal/schema"
	"github.com/dbcourse/app1/internal/store"
	"github.com/rs/zerolog"
)

// session is the loaded config plus an open store, shared by the commands
// that talk to the database.
type session struct {
	cfg     *config.Config
	adapter database.DatabaseAdapter
	store   *store.Store
	log     *zerolog.Logger
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	dbURL, err := cfg.GetDatabaseURL()
	if err != nil {
		return nil, err
	}

	logger := newLogger()
	logger.Debug().Str("provider", cfg.Database.Provider).Str("schema", cfg.Schema).Msg("connecting")

	adapter, err := database.Connect(ctx, cfg.Database.Provider, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	st := store.New(adapter, schema.Declare(cfg.Schema), logger)
	st.SetBatchSize(cfg.Seed.Batch)

	return &session{cfg: cfg, adapter: adapter, store: st, log: logger}, nil
}

func (s *session) Close() error {
	return s.adapter.Close()
}
