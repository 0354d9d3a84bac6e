package seeder

import (
	"context"
	"errors"
	"testing"

	"github.com/dbcourse/app1/internal/config"
	"github.com/dbcourse/app1/internal/database"
	"github.com/dbcourse/app1/internal/database/common"
	"github.com/dbcourse/app1/internal/database/sqlite"
	"github.com/dbcourse/app1/internal/schema"
	"github.com/dbcourse/app1/internal/store"
	"github.com/fatih/color"
)

func newTestSeeder(t *testing.T) (*Seeder, *store.Store) {
	t.Helper()
	color.NoColor = true

	adapter := sqlite.New(sqlite.PureDriver)
	if err := adapter.Connect(context.Background(), "sqlite://:memory:"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { adapter.Close() })

	st := store.New(adapter, schema.App1(), nil)
	return NewSeeder(st, nil), st
}

func counts(t *testing.T, st *store.Store) map[string]int64 {
	t.Helper()
	out := make(map[string]int64)
	for _, table := range st.Schema().Tables() {
		n, err := st.Count(context.Background(), st.Adapter(), table.Name)
		if err != nil {
			t.Fatalf("Count %s failed: %v", table.Name, err)
		}
		out[table.Name] = n
	}
	return out
}

func smallConfig(seed uint64) SeedConfig {
	return SeedConfig{Accounts: 40, Cards: 120, Batch: 50, RandSeed: seed}
}

func TestSeedDefaultCounts(t *testing.T) {
	ctx := context.Background()
	s, st := newTestSeeder(t)

	cfg := SeedConfig{
		Accounts: config.DefaultAccounts,
		Cards:    config.DefaultCards,
		Batch:    config.DefaultBatch,
		RandSeed: config.DefaultRandSeed,
	}
	result, err := s.Seed(ctx, cfg)
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if result.Accounts != 1000 || result.Cards != 15000 {
		t.Errorf("Expected 1000 accounts and 15000 cards, got %+v", result)
	}

	got := counts(t, st)
	if got[schema.TableUserAccount] != 1000 {
		t.Errorf("Expected 1000 user accounts, got %d", got[schema.TableUserAccount])
	}
	if got[schema.TableCreditCard] != 15000 {
		t.Errorf("Expected 15000 credit cards, got %d", got[schema.TableCreditCard])
	}
	if got[schema.TableAddOn] != 3 {
		t.Errorf("Expected 3 add-ons, got %d", got[schema.TableAddOn])
	}
	if got[schema.TablePurchase] != 0 {
		t.Errorf("Expected no purchases, got %d", got[schema.TablePurchase])
	}
}

func TestSeededCardsReferenceStoredAccounts(t *testing.T) {
	ctx := context.Background()
	s, st := newTestSeeder(t)

	if _, err := s.Seed(ctx, smallConfig(11)); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	phones, err := st.FetchInt64Keys(ctx, st.Adapter(), schema.TableUserAccount)
	if err != nil {
		t.Fatalf("FetchInt64Keys failed: %v", err)
	}
	known := make(map[int64]bool, len(phones))
	for _, p := range phones {
		known[p] = true
	}

	result, err := st.Select(ctx, st.Adapter(), schema.TableCreditCard, 0, "card_number", "phone")
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(result.Rows) != 120 {
		t.Fatalf("Expected 120 cards, got %d", len(result.Rows))
	}
	for _, row := range result.Rows {
		phone, err := common.ToInt64(row["phone"])
		if err != nil {
			t.Fatalf("bad phone: %v", err)
		}
		if !known[phone] {
			t.Errorf("Card %v references unknown account %d", row["card_number"], phone)
		}
	}
}

func TestReseedWithoutTruncateFailsOnDuplicateKeys(t *testing.T) {
	ctx := context.Background()
	s, st := newTestSeeder(t)

	if _, err := s.Seed(ctx, smallConfig(5)); err != nil {
		t.Fatalf("first Seed failed: %v", err)
	}
	before := counts(t, st)

	_, err := s.Seed(ctx, smallConfig(5))
	if !errors.Is(err, database.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey on re-run, got %v", err)
	}

	after := counts(t, st)
	for table, n := range before {
		if after[table] != n {
			t.Errorf("Expected %s to keep %d rows after failed re-run, got %d", table, n, after[table])
		}
	}

	runs, err := st.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("Expected only the first run recorded, got %d", len(runs))
	}
}

func TestReseedWithTruncate(t *testing.T) {
	ctx := context.Background()
	s, st := newTestSeeder(t)

	if _, err := s.Seed(ctx, smallConfig(5)); err != nil {
		t.Fatalf("first Seed failed: %v", err)
	}
	cfg := smallConfig(5)
	cfg.Truncate = true
	if _, err := s.Seed(ctx, cfg); err != nil {
		t.Fatalf("Seed with truncate failed: %v", err)
	}

	got := counts(t, st)
	if got[schema.TableUserAccount] != 40 || got[schema.TableCreditCard] != 120 || got[schema.TableAddOn] != 3 {
		t.Errorf("Unexpected counts after truncate and re-seed: %v", got)
	}
}

func TestAddOnAlwaysHoldsThreeRows(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		steps []string
	}{
		{"seed before declare", []string{"seed"}},
		{"declare then seed", []string{"declare", "seed"}},
		{"declare twice then seed twice", []string{"declare", "declare", "seed", "seed-fresh"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, st := newTestSeeder(t)
			for i, step := range tt.steps {
				var err error
				switch step {
				case "declare":
					err = st.Declare(ctx, st.Adapter())
				case "seed":
					_, err = s.Seed(ctx, smallConfig(21))
				case "seed-fresh":
					_, err = s.Seed(ctx, smallConfig(uint64(100+i)))
				}
				if err != nil {
					t.Fatalf("step %s failed: %v", step, err)
				}
			}
			if n := counts(t, st)[schema.TableAddOn]; n != 3 {
				t.Errorf("Expected 3 add-ons, got %d", n)
			}
		})
	}
}

func TestSeedPurchases(t *testing.T) {
	ctx := context.Background()
	s, st := newTestSeeder(t)

	cfg := smallConfig(8)
	cfg.Purchases = 30
	result, err := s.Seed(ctx, cfg)
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if result.Purchases != 30 {
		t.Errorf("Expected 30 purchases, got %d", result.Purchases)
	}

	owners := make(map[int64]int64)
	cards, err := st.Select(ctx, st.Adapter(), schema.TableCreditCard, 0, "card_number", "phone")
	if err != nil {
		t.Fatalf("Select cards failed: %v", err)
	}
	for _, row := range cards.Rows {
		card, _ := common.ToInt64(row["card_number"])
		phone, _ := common.ToInt64(row["phone"])
		owners[card] = phone
	}

	purchases, err := st.Select(ctx, st.Adapter(), schema.TablePurchase, 0)
	if err != nil {
		t.Fatalf("Select purchases failed: %v", err)
	}
	if len(purchases.Rows) != 30 {
		t.Fatalf("Expected 30 stored purchases, got %d", len(purchases.Rows))
	}
	for _, row := range purchases.Rows {
		phone, _ := common.ToInt64(row["phone"])
		card, _ := common.ToInt64(row["card_number"])
		if owners[card] != phone {
			t.Errorf("Purchase by %d paid with card %d owned by %d", phone, card, owners[card])
		}
	}
}

func TestSeedPurchasesTwiceWithDifferentSeeds(t *testing.T) {
	ctx := context.Background()
	s, st := newTestSeeder(t)

	first := SeedConfig{Accounts: 40, Cards: 120, Purchases: 60, Batch: 50, RandSeed: 1001}
	if _, err := s.Seed(ctx, first); err != nil {
		t.Fatalf("First seed failed: %v", err)
	}

	second := first
	second.RandSeed = 5001
	result, err := s.Seed(ctx, second)
	if err != nil {
		t.Fatalf("Second seed failed: %v", err)
	}
	if result.Purchases != 60 {
		t.Errorf("Expected 60 purchases on second run, got %d", result.Purchases)
	}

	got := counts(t, st)
	if got[schema.TablePurchase] != 120 {
		t.Errorf("Expected 120 purchases after two runs, got %d", got[schema.TablePurchase])
	}
}

func TestSeedPurchasesBeyondFreePairsFails(t *testing.T) {
	ctx := context.Background()
	s, st := newTestSeeder(t)

	// 5 accounts with 3 add-ons leave at most 15 pairs.
	first := SeedConfig{Accounts: 5, Cards: 100, Purchases: 10, Batch: 50, RandSeed: 11}
	if _, err := s.Seed(ctx, first); err != nil {
		t.Fatalf("First seed failed: %v", err)
	}

	second := SeedConfig{Accounts: 0, Cards: 0, Purchases: 6, Batch: 50, RandSeed: 12}
	if _, err := s.Seed(ctx, second); err == nil {
		t.Fatal("Expected error when more purchases are requested than free pairs")
	}
	if n := counts(t, st)[schema.TablePurchase]; n != 10 {
		t.Errorf("Expected 10 purchases to remain, got %d", n)
	}
}

func TestSeedCardsWithoutAccountsFails(t *testing.T) {
	s, st := newTestSeeder(t)

	_, err := s.Seed(context.Background(), SeedConfig{Accounts: 0, Cards: 5, Batch: 10, RandSeed: 1})
	if err == nil {
		t.Fatal("Expected error when cards have no accounts to reference")
	}
	if n := counts(t, st)[schema.TableCreditCard]; n != 0 {
		t.Errorf("Expected no cards, got %d", n)
	}
}

func TestSeedConfigFrom(t *testing.T) {
	got := SeedConfigFrom(config.Seed{Accounts: 1, Cards: 2, Purchases: 3, Batch: 4, RandSeed: 5, Truncate: true})
	want := SeedConfig{Accounts: 1, Cards: 2, Purchases: 3, Batch: 4, RandSeed: 5, Truncate: true}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}
