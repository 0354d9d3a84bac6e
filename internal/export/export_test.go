package export

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dbcourse/app1/internal/database/sqlite"
	"github.com/dbcourse/app1/internal/schema"
	"github.com/dbcourse/app1/internal/store"
	"gopkg.in/yaml.v3"
)

func seededStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()

	adapter := sqlite.New(sqlite.PureDriver)
	if err := adapter.Connect(ctx, "sqlite://:memory:"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { adapter.Close() })

	st := store.New(adapter, schema.App1(), nil)
	if err := st.Declare(ctx, adapter); err != nil {
		t.Fatalf("Declare failed: %v", err)
	}

	accounts := []schema.UserAccount{
		{Phone: 12_345_678_901, FirstName: "Grace", LastName: "Hopper"},
		{Phone: 23_456_789_012, FirstName: "Alan", LastName: "Turing"},
	}
	cards := []schema.CreditCard{
		{CardNumber: 4111111111111111, ExpDate: time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), CVC: 1, Zipcode: 10001, Phone: accounts[0].Phone},
	}
	purchases := []schema.Purchase{
		{Phone: accounts[0].Phone, AddOnID: 2, CardNumber: cards[0].CardNumber},
	}
	if _, err := st.Insert(ctx, adapter, schema.TableUserAccount, schema.Rows(accounts)); err != nil {
		t.Fatalf("Insert accounts failed: %v", err)
	}
	if _, err := st.Insert(ctx, adapter, schema.TableCreditCard, schema.Rows(cards)); err != nil {
		t.Fatalf("Insert cards failed: %v", err)
	}
	if _, err := st.Insert(ctx, adapter, schema.TablePurchase, schema.Rows(purchases)); err != nil {
		t.Fatalf("Insert purchases failed: %v", err)
	}
	return st
}

func TestExportJSON(t *testing.T) {
	st := seededStore(t)
	dir := t.TempDir()

	path, err := Tables(context.Background(), st, dir, FormatJSON)
	if err != nil {
		t.Fatalf("Tables failed: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "export_") || filepath.Ext(path) != ".json" {
		t.Errorf("Unexpected export path %s", path)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	var data Data
	if err := json.Unmarshal(b, &data); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	want := map[string]int{
		schema.TableUserAccount: 2,
		schema.TableCreditCard:  1,
		schema.TableAddOn:       3,
		schema.TablePurchase:    1,
	}
	for table, n := range want {
		if len(data.Tables[table]) != n {
			t.Errorf("Expected %d rows for %s, got %d", n, table, len(data.Tables[table]))
		}
	}
	if data.Schema != "app1" {
		t.Errorf("Expected schema app1, got %s", data.Schema)
	}
	if got := data.Tables[schema.TableAddOn][0]["addon_name"]; got != "Track & Field" {
		t.Errorf("Expected first add-on Track & Field, got %v", got)
	}
}

func TestExportYAML(t *testing.T) {
	st := seededStore(t)

	path, err := Tables(context.Background(), st, t.TempDir(), FormatYAML)
	if err != nil {
		t.Fatalf("Tables failed: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	var data Data
	if err := yaml.Unmarshal(b, &data); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(data.Tables[schema.TableUserAccount]) != 2 {
		t.Errorf("Expected 2 accounts, got %d", len(data.Tables[schema.TableUserAccount]))
	}
	if got := data.Tables[schema.TableAddOn][1]["price"]; got != "26.20" {
		t.Errorf("Expected price 26.20, got %v", got)
	}
}

func TestExportCSV(t *testing.T) {
	st := seededStore(t)

	dir, err := Tables(context.Background(), st, t.TempDir(), FormatCSV)
	if err != nil {
		t.Fatalf("Tables failed: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, schema.TableCreditCard+".csv"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected header and one row, got %d lines", len(lines))
	}
	if lines[0] != "card_number,exp_date,cvc,zipcode,phone" {
		t.Errorf("Unexpected header %q", lines[0])
	}
	if lines[1] != "4111111111111111,2026-11-01,1,10001,12345678901" {
		t.Errorf("Unexpected row %q", lines[1])
	}
}

func TestExportSQLite(t *testing.T) {
	ctx := context.Background()
	st := seededStore(t)

	path, err := Tables(ctx, st, t.TempDir(), FormatSQLite)
	if err != nil {
		t.Fatalf("Tables failed: %v", err)
	}

	copyDB := sqlite.New(sqlite.PureDriver)
	if err := copyDB.Connect(ctx, "sqlite://"+path); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer copyDB.Close()

	copied := store.New(copyDB, schema.App1(), nil)
	for table, want := range map[string]int64{
		schema.TableUserAccount: 2,
		schema.TableCreditCard:  1,
		schema.TableAddOn:       3,
		schema.TablePurchase:    1,
	} {
		n, err := copied.Count(ctx, copyDB, table)
		if err != nil {
			t.Fatalf("Count %s failed: %v", table, err)
		}
		if n != want {
			t.Errorf("Expected %d rows in copied %s, got %d", want, table, n)
		}
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	st := seededStore(t)
	if _, err := Tables(context.Background(), st, t.TempDir(), "xml"); err == nil {
		t.Error("Expected error for unknown format")
	}
}
