package common

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrDuplicateKey = errors.New("duplicate key")
	ErrForeignKey   = errors.New("foreign key violation")
)

type QueryResult struct {
	Columns []string
	Rows    []map[string]interface{}
}

// Values returns row i in column order.
func (r *QueryResult) Values(i int) []interface{} {
	row := r.Rows[i]
	out := make([]interface{}, len(r.Columns))
	for j, col := range r.Columns {
		out[j] = row[col]
	}
	return out
}

// Querier is the part of a connection the store needs; both a pool and an
// open transaction satisfy it.
type Querier interface {
	Exec(ctx context.Context, query string, args ...interface{}) (int64, error)
	Query(ctx context.Context, query string, args ...interface{}) (*QueryResult, error)
}

type sqlConn interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// SQLQuerier runs statements on a *sql.DB or *sql.Tx and passes driver
// errors through Classify.
type SQLQuerier struct {
	Conn     sqlConn
	Classify func(error) error
}

func (q SQLQuerier) classify(err error) error {
	if q.Classify == nil {
		return err
	}
	return q.Classify(err)
}

func (q SQLQuerier) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := q.Conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, q.classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (q SQLQuerier) Query(ctx context.Context, query string, args ...interface{}) (*QueryResult, error) {
	rows, err := q.Conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", q.classify(err))
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	var results []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range columns {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &QueryResult{
		Columns: columns,
		Rows:    results,
	}, nil
}

// RunInTx runs fn inside a transaction on db, committing when fn returns nil.
func RunInTx(ctx context.Context, db *sql.DB, classify func(error) error, fn func(Querier) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(SQLQuerier{Conn: tx, Classify: classify}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", classify(err))
	}
	return nil
}

// Constraint wraps a driver error with one of the sentinel kinds so callers
// can use errors.Is while the driver detail stays in the message.
func Constraint(kind, err error) error {
	return fmt.Errorf("%w: %w", kind, err)
}

// ClassifyMessage is the fallback used when a driver error type is not
// recognised: it matches the wording the engines put in their messages.
func ClassifyMessage(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint failed"),
		strings.Contains(msg, "duplicate key"),
		strings.Contains(msg, "duplicate entry"):
		return Constraint(ErrDuplicateKey, err)
	case strings.Contains(msg, "foreign key constraint"),
		strings.Contains(msg, "violates foreign key"):
		return Constraint(ErrForeignKey, err)
	}
	return err
}

// ToInt64 converts the integer representations drivers hand back.
func ToInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected integer value %v (%T)", v, v)
	}
}
