package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/dbcourse/app1/internal/database/common"
	"github.com/dbcourse/app1/internal/schema"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

type Adapter struct {
	pool *pgxpool.Pool
	qb   squirrel.StatementBuilderType
}

func New() *Adapter {
	return &Adapter{
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (p *Adapter) Connect(ctx context.Context, url string) error {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return fmt.Errorf("failed to parse connection URL: %w", err)
	}

	// Dates and decimals go over the wire as text literals.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	config.MaxConns = 2
	config.MinConns = 0
	config.MaxConnLifetime = 15 * time.Minute
	config.MaxConnIdleTime = 3 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	p.pool = pool
	return nil
}

func (p *Adapter) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Adapter) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Adapter) Provider() string { return "postgresql" }

func (p *Adapter) Dialect() schema.Dialect { return schema.DialectPostgres }

func (p *Adapter) Builder() squirrel.StatementBuilderType { return p.qb }

func (p *Adapter) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	return querier{p.pool}.Exec(ctx, query, args...)
}

func (p *Adapter) Query(ctx context.Context, query string, args ...interface{}) (*common.QueryResult, error) {
	return querier{p.pool}.Query(ctx, query, args...)
}

func (p *Adapter) InTx(ctx context.Context, fn func(q common.Querier) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(querier{tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", ClassifyError(err))
	}
	return nil
}

func (p *Adapter) TableExists(ctx context.Context, q common.Querier, tableName string) (bool, error) {
	query, args, err := p.qb.Select("COUNT(*) AS n").
		From("information_schema.tables").
		Where("table_schema = current_schema()").
		Where(squirrel.Eq{"table_name": tableName}).
		ToSql()
	if err != nil {
		return false, err
	}
	result, err := q.Query(ctx, query, args...)
	if err != nil {
		return false, err
	}
	if len(result.Rows) == 0 {
		return false, nil
	}
	n, err := common.ToInt64(result.Rows[0]["n"])
	return n > 0, err
}

// ClassifyError maps Postgres SQLSTATE codes onto the common sentinels.
func ClassifyError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return common.Constraint(common.ErrDuplicateKey, err)
		case foreignKeyViolation:
			return common.Constraint(common.ErrForeignKey, err)
		}
		return err
	}
	return common.ClassifyMessage(err)
}

type pgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// querier runs statements on the pool or on a transaction.
type querier struct {
	conn pgxConn
}

func (q querier) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	tag, err := q.conn.Exec(ctx, query, args...)
	if err != nil {
		return 0, ClassifyError(err)
	}
	return tag.RowsAffected(), nil
}

func (q querier) Query(ctx context.Context, query string, args ...interface{}) (*common.QueryResult, error) {
	rows, err := q.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", ClassifyError(err))
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	var results []map[string]interface{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = plainValue(values[i])
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", ClassifyError(err))
	}

	return &common.QueryResult{Columns: columns, Rows: results}, nil
}

// plainValue unwraps pgtype values (numeric and friends) into driver values.
func plainValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil, int64, int32, int16, string, bool, float64, time.Time:
		return val
	case driver.Valuer:
		if out, err := val.Value(); err == nil {
			return out
		}
	}
	return v
}
