package seeder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dbcourse/app1/internal/database"
	"github.com/dbcourse/app1/internal/database/common"
	"github.com/dbcourse/app1/internal/schema"
	"github.com/dbcourse/app1/internal/store"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

type Seeder struct {
	store *store.Store
	log   *zerolog.Logger
}

func NewSeeder(st *store.Store, logger *zerolog.Logger) *Seeder {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Seeder{store: st, log: logger}
}

// Seed declares the schema, then inserts accounts, cards drawn against the
// stored account keys, and optional purchases. Unless NoTransaction is set
// the inserts and the run record commit together or not at all.
func (s *Seeder) Seed(ctx context.Context, cfg SeedConfig) (*Result, error) {
	started := time.Now()
	adapter := s.store.Adapter()
	s.store.SetBatchSize(cfg.Batch)

	color.Cyan("🌱 Starting database seeding...")

	order, err := s.store.Schema().CreationOrder()
	if err != nil {
		return nil, err
	}
	color.Cyan("📋 Insertion order: %s", strings.Join(order, " → "))

	if err := s.store.Declare(ctx, adapter); err != nil {
		return nil, fmt.Errorf("failed to declare schema: %w", err)
	}
	if err := s.store.EnsureRunsTable(ctx, adapter); err != nil {
		return nil, err
	}

	// Truncate runs outside the transaction like DDL does.
	if cfg.Truncate {
		color.Yellow("🗑️  Truncating manual tables...")
		if err := s.store.Truncate(ctx, adapter); err != nil {
			return nil, fmt.Errorf("failed to truncate tables: %w", err)
		}
	}

	gen := NewDataGenerator(cfg.RandSeed)
	run := store.NewRun(started)
	s.log.Debug().Str("run", run.ID).Uint64("rand_seed", cfg.RandSeed).Msg("seed run started")

	seed := func(q database.Querier) error {
		return s.seedAll(ctx, q, gen, cfg, &run)
	}

	if cfg.NoTransaction {
		err = seed(adapter)
	} else {
		color.Cyan("🔒 Transaction started")
		err = adapter.InTx(ctx, seed)
		if err != nil {
			color.Yellow("🔄 Transaction rolled back")
		} else {
			color.Cyan("🔓 Transaction committed")
		}
	}
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:     run.ID,
		Accounts:  run.Accounts,
		Cards:     run.Cards,
		Purchases: run.Purchases,
		Duration:  time.Since(started),
	}
	color.Green("\n✅ Database seeding completed successfully!")
	color.Green("   %d accounts, %d cards, %d purchases in %s", result.Accounts, result.Cards, result.Purchases, result.Duration.Round(time.Millisecond))
	return result, nil
}

func (s *Seeder) seedAll(ctx context.Context, q database.Querier, gen *DataGenerator, cfg SeedConfig, run *store.Run) error {
	accounts, err := gen.UserAccounts(cfg.Accounts)
	if err != nil {
		return fmt.Errorf("failed to generate user accounts: %w", err)
	}
	color.Cyan("  📝 Seeding %s (%d records)...", schema.TableUserAccount, len(accounts))
	n, err := s.store.Insert(ctx, q, schema.TableUserAccount, schema.Rows(accounts))
	if err != nil {
		return fmt.Errorf("failed to seed table %s: %w", schema.TableUserAccount, err)
	}
	run.Accounts = int(n)

	// Cards may reference any stored account, not only the ones added above.
	phones, err := s.store.FetchInt64Keys(ctx, q, schema.TableUserAccount)
	if err != nil {
		return err
	}
	s.log.Debug().Int("accounts", len(phones)).Msg("fetched account keys")

	cards, err := gen.CreditCards(cfg.Cards, phones)
	if err != nil {
		return fmt.Errorf("failed to generate credit cards: %w", err)
	}
	color.Cyan("  📝 Seeding %s (%d records)...", schema.TableCreditCard, len(cards))
	n, err = s.store.Insert(ctx, q, schema.TableCreditCard, schema.Rows(cards))
	if err != nil {
		return fmt.Errorf("failed to seed table %s: %w", schema.TableCreditCard, err)
	}
	run.Cards = int(n)

	if cfg.Purchases > 0 {
		purchases, err := s.drawPurchases(ctx, q, gen, cfg.Purchases)
		if err != nil {
			return err
		}
		color.Cyan("  📝 Seeding %s (%d records)...", schema.TablePurchase, len(purchases))
		n, err = s.store.Insert(ctx, q, schema.TablePurchase, schema.Rows(purchases))
		if err != nil {
			return fmt.Errorf("failed to seed table %s: %w", schema.TablePurchase, err)
		}
		run.Purchases = int(n)
	}

	run.FinishedAt = time.Now().UTC()
	return s.store.RecordRun(ctx, q, *run)
}

func (s *Seeder) drawPurchases(ctx context.Context, q database.Querier, gen *DataGenerator, n int) ([]schema.Purchase, error) {
	result, err := s.store.Select(ctx, q, schema.TableCreditCard, 0, "card_number", "phone")
	if err != nil {
		return nil, err
	}
	cardsByOwner := make(map[int64][]int64)
	for _, row := range result.Rows {
		card, err := common.ToInt64(row["card_number"])
		if err != nil {
			return nil, err
		}
		phone, err := common.ToInt64(row["phone"])
		if err != nil {
			return nil, err
		}
		cardsByOwner[phone] = append(cardsByOwner[phone], card)
	}

	ids, err := s.store.FetchInt64Keys(ctx, q, schema.TableAddOn)
	if err != nil {
		return nil, err
	}
	addOns := make([]int, len(ids))
	for i, id := range ids {
		addOns[i] = int(id)
	}

	existing, err := s.store.FetchKeys(ctx, q, schema.TablePurchase)
	if err != nil {
		return nil, err
	}
	taken := make(map[PurchaseKey]bool, len(existing))
	for _, key := range existing {
		phone, err := common.ToInt64(key[0])
		if err != nil {
			return nil, err
		}
		id, err := common.ToInt64(key[1])
		if err != nil {
			return nil, err
		}
		taken[PurchaseKey{Phone: phone, AddOnID: int(id)}] = true
	}

	purchases, err := gen.Purchases(n, cardsByOwner, addOns, taken)
	if err != nil {
		return nil, fmt.Errorf("failed to generate purchases: %w", err)
	}
	return purchases, nil
}
