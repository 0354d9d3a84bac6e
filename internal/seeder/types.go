package seeder

import (
	"time"

	"github.com/dbcourse/app1/internal/config"
)

type SeedConfig struct {
	Accounts      int    // User accounts to insert
	Cards         int    // Credit cards, spread over all stored accounts
	Purchases     int    // Purchases, each paid with a card the buyer owns
	Batch         int    // Rows per INSERT statement
	RandSeed      uint64 // 0 seeds from entropy
	Truncate      bool   // Clear manual tables before seeding
	NoTransaction bool   // Disable transaction wrapping
}

func SeedConfigFrom(cfg config.Seed) SeedConfig {
	return SeedConfig{
		Accounts:      cfg.Accounts,
		Cards:         cfg.Cards,
		Purchases:     cfg.Purchases,
		Batch:         cfg.Batch,
		RandSeed:      cfg.RandSeed,
		Truncate:      cfg.Truncate,
		NoTransaction: cfg.NoTransaction,
	}
}

type Result struct {
	RunID     string
	Accounts  int
	Cards     int
	Purchases int
	Duration  time.Duration
}
