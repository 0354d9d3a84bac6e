package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dbcourse/app1/internal/database"
	"github.com/dbcourse/app1/internal/database/common"
	"github.com/dbcourse/app1/internal/schema"
	"github.com/google/uuid"
)

// RunsTableName holds one row per successful seed run.
const RunsTableName = "_app1_seed_runs"

// Fixed width so runs sort by started_at as text.
const runTimeLayout = "2006-01-02T15:04:05.000000Z07:00"

var runsTable = &schema.Table{
	Name:  RunsTableName,
	Class: "SeedRun",
	Tier:  schema.Manual,
	Columns: []schema.Column{
		{Name: "id", Type: schema.Varchar, Size: 36},
		{Name: "started_at", Type: schema.Varchar, Size: 40},
		{Name: "finished_at", Type: schema.Varchar, Size: 40},
		{Name: "accounts", Type: schema.Int, Unsigned: true},
		{Name: "cards", Type: schema.Int, Unsigned: true},
		{Name: "purchases", Type: schema.Int, Unsigned: true},
	},
	PrimaryKey: []string{"id"},
}

type Run struct {
	ID         string    `json:"id" yaml:"id"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
	Accounts   int       `json:"accounts" yaml:"accounts"`
	Cards      int       `json:"cards" yaml:"cards"`
	Purchases  int       `json:"purchases" yaml:"purchases"`
}

func NewRun(started time.Time) Run {
	return Run{ID: uuid.NewString(), StartedAt: started.UTC()}
}

func (s *Store) EnsureRunsTable(ctx context.Context, q database.Querier) error {
	if _, err := q.Exec(ctx, schema.CreateTableSQL(s.adapter.Dialect(), runsTable)); err != nil {
		return fmt.Errorf("failed to create seed run table: %w", err)
	}
	return nil
}

func (s *Store) RecordRun(ctx context.Context, q database.Querier, run Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	row := []any{
		run.ID,
		run.StartedAt.UTC().Format(runTimeLayout),
		run.FinishedAt.UTC().Format(runTimeLayout),
		run.Accounts,
		run.Cards,
		run.Purchases,
	}
	if _, err := s.Insert(ctx, q, RunsTableName, [][]any{row}); err != nil {
		return fmt.Errorf("failed to record seed run: %w", err)
	}
	s.log.Debug().Str("run", run.ID).Msg("recorded seed run")
	return nil
}

// Runs returns the recorded seed runs, oldest first. A database that was
// never seeded has no runs table and yields an empty list.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	exists, err := s.adapter.TableExists(ctx, s.adapter, RunsTableName)
	if err != nil || !exists {
		return nil, err
	}

	query, args, err := s.adapter.Builder().
		Select(runsTable.ColumnNames()...).
		From(RunsTableName).
		OrderBy("started_at", "id").
		ToSql()
	if err != nil {
		return nil, err
	}
	result, err := s.adapter.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed runs: %w", err)
	}

	runs := make([]Run, 0, len(result.Rows))
	for _, row := range result.Rows {
		run := Run{ID: fmt.Sprint(row["id"])}
		if run.StartedAt, err = time.Parse(runTimeLayout, fmt.Sprint(row["started_at"])); err != nil {
			return nil, fmt.Errorf("run %s: bad started_at: %w", run.ID, err)
		}
		if run.FinishedAt, err = time.Parse(runTimeLayout, fmt.Sprint(row["finished_at"])); err != nil {
			return nil, fmt.Errorf("run %s: bad finished_at: %w", run.ID, err)
		}
		for col, dst := range map[string]*int{"accounts": &run.Accounts, "cards": &run.Cards, "purchases": &run.Purchases} {
			n, err := common.ToInt64(row[col])
			if err != nil {
				return nil, fmt.Errorf("run %s: bad %s: %w", run.ID, col, err)
			}
			*dst = int(n)
		}
		runs = append(runs, run)
	}
	return runs, nil
}
