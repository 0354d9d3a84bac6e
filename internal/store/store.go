package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dbcourse/app1/internal/database"
	"github.com/dbcourse/app1/internal/database/common"
	"github.com/dbcourse/app1/internal/schema"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const DefaultBatchSize = 500

// Store runs schema-aware statements through a database adapter. Methods
// that take a Querier can run inside a transaction; pass the adapter itself
// to run outside one.
type Store struct {
	adapter   database.DatabaseAdapter
	schema    *schema.Schema
	log       *zerolog.Logger
	batchSize int
}

func New(adapter database.DatabaseAdapter, s *schema.Schema, logger *zerolog.Logger) *Store {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Store{
		adapter:   adapter,
		schema:    s,
		log:       logger,
		batchSize: DefaultBatchSize,
	}
}

func (s *Store) Adapter() database.DatabaseAdapter { return s.adapter }

func (s *Store) Schema() *schema.Schema { return s.schema }

func (s *Store) SetBatchSize(n int) {
	if n > 0 {
		s.batchSize = n
	}
}

func (s *Store) table(name string) (*schema.Table, error) {
	if t, ok := s.schema.Table(name); ok {
		return t, nil
	}
	if name == runsTable.Name {
		return runsTable, nil
	}
	return nil, fmt.Errorf("unknown table %q in schema %s", name, s.schema.Name)
}

// Declare creates every table that does not exist yet, parents first, and
// fills the lookup tables.
func (s *Store) Declare(ctx context.Context, q database.Querier) error {
	order, err := s.schema.CreationOrder()
	if err != nil {
		return err
	}

	for _, name := range order {
		t, _ := s.schema.Table(name)
		if _, err := q.Exec(ctx, schema.CreateTableSQL(s.adapter.Dialect(), t)); err != nil {
			return fmt.Errorf("failed to declare table %s: %w", name, err)
		}
		s.log.Debug().Str("table", name).Msg("declared table")
	}

	if _, err := s.EnsureLookups(ctx, q); err != nil {
		return err
	}
	return nil
}

// EnsureLookups inserts the lookup rows that are missing and returns how many
// were added. Rows already present are left alone.
func (s *Store) EnsureLookups(ctx context.Context, q database.Querier) (int, error) {
	added := 0
	for _, t := range s.schema.Tables() {
		if t.Tier != schema.Lookup || len(t.Contents) == 0 {
			continue
		}

		existing, err := s.FetchKeys(ctx, q, t.Name)
		if err != nil {
			return added, err
		}
		have := make(map[string]bool, len(existing))
		for _, key := range existing {
			have[keyString(key)] = true
		}

		var missing [][]any
		for _, row := range t.Contents {
			if !have[keyString(primaryValues(t, row))] {
				missing = append(missing, row)
			}
		}
		if len(missing) == 0 {
			continue
		}

		n, err := s.Insert(ctx, q, t.Name, missing)
		if err != nil {
			return added, fmt.Errorf("failed to fill lookup table %s: %w", t.Name, err)
		}
		added += int(n)
		s.log.Debug().Str("table", t.Name).Int64("rows", n).Msg("filled lookup table")
	}
	return added, nil
}

// Insert writes rows in multi-row INSERT batches. Each row must list values
// in the table's column order.
func (s *Store) Insert(ctx context.Context, q database.Querier, tableName string, rows [][]any) (int64, error) {
	t, err := s.table(tableName)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	columns := t.ColumnNames()
	var total int64

	for start := 0; start < len(rows); start += s.batchSize {
		end := min(start+s.batchSize, len(rows))

		ib := s.adapter.Builder().Insert(t.Name).Columns(columns...)
		for i, row := range rows[start:end] {
			if len(row) != len(columns) {
				return total, fmt.Errorf("row %d for %s has %d values, want %d", start+i, t.Name, len(row), len(columns))
			}
			ib = ib.Values(sqlValues(t, row)...)
		}

		query, args, err := ib.ToSql()
		if err != nil {
			return total, fmt.Errorf("failed to build insert for %s: %w", t.Name, err)
		}

		if _, err := q.Exec(ctx, query, args...); err != nil {
			return total, fmt.Errorf("failed to insert batch into %s: %w", t.Name, err)
		}
		// RowsAffected is unreliable across drivers for multi-row inserts.
		total += int64(end - start)
		s.log.Debug().Str("table", t.Name).Int("rows", end-start).Int64("total", total).Msg("inserted batch")
	}

	return total, nil
}

// Select reads the given columns (all columns when none are given) ordered by
// primary key. limit <= 0 reads every row.
func (s *Store) Select(ctx context.Context, q database.Querier, tableName string, limit int, columns ...string) (*database.QueryResult, error) {
	t, err := s.table(tableName)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		columns = t.ColumnNames()
	}
	for _, c := range columns {
		if _, ok := t.Column(c); !ok {
			return nil, fmt.Errorf("table %s has no column %s", t.Name, c)
		}
	}

	sb := s.adapter.Builder().Select(columns...).From(t.Name).OrderBy(t.PrimaryKey...)
	if limit > 0 {
		sb = sb.Limit(uint64(limit))
	}
	query, args, err := sb.ToSql()
	if err != nil {
		return nil, err
	}

	result, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", t.Name, err)
	}
	result.Columns = columns
	return result, nil
}

// FetchKeys returns the primary key of every row, ordered.
func (s *Store) FetchKeys(ctx context.Context, q database.Querier, tableName string) ([][]any, error) {
	t, err := s.table(tableName)
	if err != nil {
		return nil, err
	}
	result, err := s.Select(ctx, q, tableName, 0, t.PrimaryKey...)
	if err != nil {
		return nil, err
	}
	keys := make([][]any, len(result.Rows))
	for i := range result.Rows {
		keys[i] = result.Values(i)
	}
	return keys, nil
}

// FetchInt64Keys is FetchKeys for tables keyed by a single integer column.
func (s *Store) FetchInt64Keys(ctx context.Context, q database.Querier, tableName string) ([]int64, error) {
	keys, err := s.FetchKeys(ctx, q, tableName)
	if err != nil {
		return nil, err
	}
	out := make([]int64, 0, len(keys))
	for _, key := range keys {
		if len(key) != 1 {
			return nil, fmt.Errorf("table %s has a composite key", tableName)
		}
		n, err := common.ToInt64(key[0])
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", tableName, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, q database.Querier, tableName string) (int64, error) {
	t, err := s.table(tableName)
	if err != nil {
		return 0, err
	}
	query, args, err := s.adapter.Builder().Select("COUNT(*) AS n").From(t.Name).ToSql()
	if err != nil {
		return 0, err
	}
	result, err := q.Query(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", t.Name, err)
	}
	if len(result.Rows) == 0 {
		return 0, nil
	}
	return common.ToInt64(result.Rows[0]["n"])
}

type TableCount struct {
	Table    string
	Tier     schema.Tier
	Declared bool
	Rows     int64
}

// Counts reports every schema table in creation order; undeclared tables
// have Declared false and zero rows.
func (s *Store) Counts(ctx context.Context) ([]TableCount, error) {
	order, err := s.schema.CreationOrder()
	if err != nil {
		return nil, err
	}

	counts := make([]TableCount, 0, len(order))
	for _, name := range order {
		t, _ := s.schema.Table(name)
		tc := TableCount{Table: name, Tier: t.Tier}

		exists, err := s.adapter.TableExists(ctx, s.adapter, name)
		if err != nil {
			return nil, err
		}
		if exists {
			tc.Declared = true
			if tc.Rows, err = s.Count(ctx, s.adapter, name); err != nil {
				return nil, err
			}
		}
		counts = append(counts, tc)
	}
	return counts, nil
}

func (s *Store) Preview(ctx context.Context, tableName string, limit int) (*database.QueryResult, error) {
	return s.Select(ctx, s.adapter, tableName, limit)
}

// Truncate deletes the rows of every manual table, children first. Lookup
// contents are static and stay in place.
func (s *Store) Truncate(ctx context.Context, q database.Querier) error {
	order, err := s.schema.DropOrder()
	if err != nil {
		return err
	}
	for _, name := range order {
		t, _ := s.schema.Table(name)
		if t.Tier == schema.Lookup {
			continue
		}
		exists, err := s.adapter.TableExists(ctx, q, name)
		if err != nil {
			return err
		}
		if !exists {
			continue
		}
		query, args, err := s.adapter.Builder().Delete(name).ToSql()
		if err != nil {
			return err
		}
		n, err := q.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to truncate %s: %w", name, err)
		}
		s.log.Debug().Str("table", name).Int64("rows", n).Msg("truncated table")
	}
	return nil
}

// Drop removes every schema table, children first, plus the run history.
func (s *Store) Drop(ctx context.Context) error {
	order, err := s.schema.DropOrder()
	if err != nil {
		return err
	}
	order = append(order, runsTable.Name)
	for _, name := range order {
		if _, err := s.adapter.Exec(ctx, schema.DropTableSQL(s.adapter.Dialect(), name)); err != nil {
			return fmt.Errorf("failed to drop %s: %w", name, err)
		}
		s.log.Debug().Str("table", name).Msg("dropped table")
	}
	return nil
}

func sqlValues(t *schema.Table, row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = sqlValue(t.Columns[i], v)
	}
	return out
}

// sqlValue turns record values into plain driver values: dates become
// YYYY-MM-DD and decimals fixed-scale strings, which every dialect accepts.
func sqlValue(c schema.Column, v any) any {
	switch val := v.(type) {
	case time.Time:
		if c.Type == schema.Date {
			return val.Format(time.DateOnly)
		}
		return val.UTC().Format(time.RFC3339)
	case decimal.Decimal:
		return val.StringFixed(int32(c.Scale))
	case int:
		return int64(val)
	}
	return v
}

func primaryValues(t *schema.Table, row []any) []any {
	out := make([]any, 0, len(t.PrimaryKey))
	for i, c := range t.Columns {
		if t.IsPrimary(c.Name) {
			out = append(out, row[i])
		}
	}
	return out
}

// keyString normalises a key so values read back from a driver compare equal
// to the Go values they were written from.
func keyString(key []any) string {
	s := ""
	for i, v := range key {
		if i > 0 {
			s += "|"
		}
		if n, err := common.ToInt64(v); err == nil {
			s += fmt.Sprint(n)
			continue
		}
		s += fmt.Sprint(v)
	}
	return s
}
