package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/dbcourse/app1/internal/database/common"
	"github.com/dbcourse/app1/internal/schema"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// PureDriver is the database/sql name registered by modernc.org/sqlite.
const PureDriver = "sqlite"

type Adapter struct {
	db     *sql.DB
	qb     squirrel.StatementBuilderType
	driver string
}

func New(driver string) *Adapter {
	return &Adapter{
		qb:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		driver: driver,
	}
}

func (s *Adapter) Connect(ctx context.Context, url string) error {
	path := strings.TrimPrefix(url, "sqlite://")
	if idx := strings.Index(path, "?"); idx > 0 {
		path = path[:idx]
	}
	if path == "" {
		return fmt.Errorf("sqlite path is empty")
	}

	db, err := sql.Open(s.driver, path)
	if err != nil {
		return fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// One connection: pragmas stick, and :memory: stays a single database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	pragmas := []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	s.db = db
	return nil
}

func (s *Adapter) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Adapter) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Adapter) Provider() string { return "sqlite" }

func (s *Adapter) Dialect() schema.Dialect { return schema.DialectSQLite }

func (s *Adapter) Builder() squirrel.StatementBuilderType { return s.qb }

func (s *Adapter) querier() common.SQLQuerier {
	return common.SQLQuerier{Conn: s.db, Classify: ClassifyError}
}

func (s *Adapter) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	return s.querier().Exec(ctx, query, args...)
}

func (s *Adapter) Query(ctx context.Context, query string, args ...interface{}) (*common.QueryResult, error) {
	return s.querier().Query(ctx, query, args...)
}

func (s *Adapter) InTx(ctx context.Context, fn func(q common.Querier) error) error {
	return common.RunInTx(ctx, s.db, ClassifyError, fn)
}

func (s *Adapter) TableExists(ctx context.Context, q common.Querier, tableName string) (bool, error) {
	query, args, err := s.qb.Select("COUNT(*) AS n").
		From("sqlite_master").
		Where(squirrel.Eq{"type": "table", "name": tableName}).
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

// ClassifyError recognises constraint failures from either SQLite driver.
func ClassifyError(err error) error {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return common.Constraint(common.ErrDuplicateKey, err)
		case sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY:
			return common.Constraint(common.ErrForeignKey, err)
		}
		return err
	}
	if classified, ok := classifyCgoError(err); ok {
		return classified
	}
	return common.ClassifyMessage(err)
}
