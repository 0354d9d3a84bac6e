package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dbcourse/app1/internal/database"
	"github.com/dbcourse/app1/internal/database/sqlite"
	"github.com/dbcourse/app1/internal/schema"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	adapter := sqlite.New(sqlite.PureDriver)
	if err := adapter.Connect(context.Background(), "sqlite://:memory:"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { adapter.Close() })
	return New(adapter, schema.App1(), nil)
}

func declare(t *testing.T, st *Store) {
	t.Helper()
	if err := st.Declare(context.Background(), st.Adapter()); err != nil {
		t.Fatalf("Declare failed: %v", err)
	}
}

func TestDeclareFillsLookupOnce(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	declare(t, st)
	declare(t, st)

	n, err := st.Count(ctx, st.Adapter(), schema.TableAddOn)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Expected 3 add-ons, got %d", n)
	}

	added, err := st.EnsureLookups(ctx, st.Adapter())
	if err != nil {
		t.Fatalf("EnsureLookups failed: %v", err)
	}
	if added != 0 {
		t.Errorf("Expected no rows added on a filled lookup, got %d", added)
	}
}

func TestEnsureLookupsRestoresMissingRows(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	declare(t, st)

	if _, err := st.Adapter().Exec(ctx, "DELETE FROM add_on WHERE addon_id = 2"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	added, err := st.EnsureLookups(ctx, st.Adapter())
	if err != nil {
		t.Fatalf("EnsureLookups failed: %v", err)
	}
	if added != 1 {
		t.Errorf("Expected 1 row restored, got %d", added)
	}

	result, err := st.Preview(ctx, schema.TableAddOn, 0)
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	want := []struct {
		id    int64
		name  string
		price string
	}{
		{1, "Track & Field", "13.99"},
		{2, "Marathon", "26.20"},
		{3, "Sprint", "100.00"},
	}
	if len(result.Rows) != len(want) {
		t.Fatalf("Expected %d rows, got %d", len(want), len(result.Rows))
	}
	for i, w := range want {
		row := result.Rows[i]
		if row["addon_id"] != w.id || row["addon_name"] != w.name || row["price"] != w.price {
			t.Errorf("Row %d: expected %v, got %v", i, w, row)
		}
	}
}

func TestInsertBatchesAndFetchKeys(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	st.SetBatchSize(7)
	declare(t, st)

	accounts := make([]schema.UserAccount, 0, 50)
	for i := 0; i < 50; i++ {
		accounts = append(accounts, schema.UserAccount{
			Phone:     int64(20_000_000_000 + 50 - i),
			FirstName: "Ada",
			LastName:  "Lovelace",
		})
	}

	n, err := st.Insert(ctx, st.Adapter(), schema.TableUserAccount, schema.Rows(accounts))
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if n != 50 {
		t.Errorf("Expected 50 inserted, got %d", n)
	}

	keys, err := st.FetchInt64Keys(ctx, st.Adapter(), schema.TableUserAccount)
	if err != nil {
		t.Fatalf("FetchInt64Keys failed: %v", err)
	}
	if len(keys) != 50 {
		t.Fatalf("Expected 50 keys, got %d", len(keys))
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			t.Fatalf("Expected keys ordered ascending, got %d before %d", keys[i-1], keys[i])
		}
	}
}

func TestInsertRejectsWrongWidth(t *testing.T) {
	st := newTestStore(t)
	declare(t, st)

	_, err := st.Insert(context.Background(), st.Adapter(), schema.TableUserAccount, [][]any{{int64(1), "x"}})
	if err == nil {
		t.Error("Expected error for short row")
	}
}

func TestInsertConstraintViolations(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	declare(t, st)

	account := schema.UserAccount{Phone: 12_345_678_901, FirstName: "Grace", LastName: "Hopper"}
	if _, err := st.Insert(ctx, st.Adapter(), schema.TableUserAccount, [][]any{account.Values()}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	_, err := st.Insert(ctx, st.Adapter(), schema.TableUserAccount, [][]any{account.Values()})
	if !errors.Is(err, database.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	orphan := schema.CreditCard{
		CardNumber: 4111111111111111,
		ExpDate:    time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		CVC:        123,
		Zipcode:    10001,
		Phone:      99_999_999_999,
	}
	_, err = st.Insert(ctx, st.Adapter(), schema.TableCreditCard, [][]any{orphan.Values()})
	if !errors.Is(err, database.ErrForeignKey) {
		t.Errorf("Expected ErrForeignKey, got %v", err)
	}
}

func TestDateRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	declare(t, st)

	account := schema.UserAccount{Phone: 12_345_678_901, FirstName: "Grace", LastName: "Hopper"}
	card := schema.CreditCard{
		CardNumber: 5500000000000004,
		ExpDate:    time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC),
		CVC:        42,
		Zipcode:    2139,
		Phone:      account.Phone,
	}
	if _, err := st.Insert(ctx, st.Adapter(), schema.TableUserAccount, [][]any{account.Values()}); err != nil {
		t.Fatalf("Insert account failed: %v", err)
	}
	if _, err := st.Insert(ctx, st.Adapter(), schema.TableCreditCard, [][]any{card.Values()}); err != nil {
		t.Fatalf("Insert card failed: %v", err)
	}

	result, err := st.Select(ctx, st.Adapter(), schema.TableCreditCard, 0, "exp_date", "phone")
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if got := result.Rows[0]["exp_date"]; got != "2026-11-03" {
		t.Errorf("Expected exp_date 2026-11-03, got %v", got)
	}
}

func TestSelectUnknownTableOrColumn(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	declare(t, st)

	if _, err := st.Preview(ctx, "no_such_table", 5); err == nil {
		t.Error("Expected error for unknown table")
	}
	if _, err := st.Select(ctx, st.Adapter(), schema.TableAddOn, 0, "nope"); err == nil {
		t.Error("Expected error for unknown column")
	}
}

func TestCountsTruncateDrop(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	counts, err := st.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	for _, c := range counts {
		if c.Declared {
			t.Errorf("Expected %s undeclared before Declare", c.Table)
		}
	}

	declare(t, st)
	account := schema.UserAccount{Phone: 12_345_678_901, FirstName: "Grace", LastName: "Hopper"}
	if _, err := st.Insert(ctx, st.Adapter(), schema.TableUserAccount, [][]any{account.Values()}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := st.Truncate(ctx, st.Adapter()); err != nil {
		t.Fatalf("Truncate failed: %v", err)
	}
	counts, err = st.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}
	got := map[string]int64{}
	for _, c := range counts {
		got[c.Table] = c.Rows
	}
	want := map[string]int64{
		schema.TableUserAccount: 0,
		schema.TableCreditCard:  0,
		schema.TableAddOn:       3,
		schema.TablePurchase:    0,
	}
	for table, n := range want {
		if got[table] != n {
			t.Errorf("Expected %s to have %d rows after truncate, got %d", table, n, got[table])
		}
	}

	if err := st.Drop(ctx); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	exists, err := st.Adapter().TableExists(ctx, st.Adapter(), schema.TableAddOn)
	if err != nil {
		t.Fatalf("TableExists failed: %v", err)
	}
	if exists {
		t.Error("Expected add_on to be dropped")
	}
}

func TestRecordAndListRuns(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	runs, err := st.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs failed: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("Expected no runs before the table exists, got %d", len(runs))
	}

	if err := st.EnsureRunsTable(ctx, st.Adapter()); err != nil {
		t.Fatalf("EnsureRunsTable failed: %v", err)
	}

	started := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	first := NewRun(started)
	first.Accounts, first.Cards = 1000, 15000
	first.FinishedAt = started.Add(2 * time.Second)
	second := NewRun(started.Add(time.Hour))
	second.Purchases = 5

	for _, r := range []Run{second, first} {
		if err := st.RecordRun(ctx, st.Adapter(), r); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
	}

	runs, err = st.Runs(ctx)
	if err != nil {
		t.Fatalf("Runs failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != first.ID {
		t.Errorf("Expected oldest run first, got %s", runs[0].ID)
	}
	if runs[0].Accounts != 1000 || runs[0].Cards != 15000 {
		t.Errorf("Unexpected counts for first run: %+v", runs[0])
	}
	if !runs[0].FinishedAt.Equal(first.FinishedAt) {
		t.Errorf("Expected finished_at %v, got %v", first.FinishedAt, runs[0].FinishedAt)
	}
	if runs[1].Purchases != 5 {
		t.Errorf("Expected 5 purchases on second run, got %d", runs[1].Purchases)
	}
}
