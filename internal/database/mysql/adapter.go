package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/dbcourse/app1/internal/database/common"
	"github.com/dbcourse/app1/internal/schema"
	mysqldriver "github.com/go-sql-driver/mysql"
)

const (
	errDupEntry        = 1062
	errNoReferencedRow = 1452
	errRowIsReferenced = 1451
)

type Adapter struct {
	db *sql.DB
	qb squirrel.StatementBuilderType
}

func New() *Adapter {
	return &Adapter{
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

// ToDSN accepts either a go-sql-driver DSN or a mysql:// URL and returns a
// DSN, translating the sslmode spellings other tools use.
func ToDSN(url string) (string, error) {
	dsn := url
	if strings.HasPrefix(url, "mysql://") {
		dsn = strings.TrimPrefix(url, "mysql://")

		atIndex := strings.LastIndex(dsn, "@")
		if atIndex > 0 {
			credentials := dsn[:atIndex]
			remainder := dsn[atIndex+1:]

			slashIndex := strings.Index(remainder, "/")
			if slashIndex > 0 {
				hostPort := remainder[:slashIndex]
				dbAndParams := remainder[slashIndex+1:]

				replacer := strings.NewReplacer(
					"ssl-mode=REQUIRED", "tls=skip-verify",
					"ssl-mode=DISABLED", "tls=false",
					"ssl-mode=VERIFY_CA", "tls=true",
					"ssl-mode=VERIFY_IDENTITY", "tls=true",
					"sslmode=require", "tls=skip-verify",
					"sslmode=disable", "tls=false",
					"sslmode=verify-ca", "tls=true",
					"sslmode=verify-full", "tls=true",
				)
				dsn = fmt.Sprintf("%s@tcp(%s)/%s", credentials, hostPort, replacer.Replace(dbAndParams))
			}
		}
	}

	cfg, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid MySQL DSN: %w", err)
	}
	return cfg.FormatDSN(), nil
}

func (m *Adapter) Connect(ctx context.Context, url string) error {
	dsn, err := ToDSN(url)
	if err != nil {
		return err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open MySQL connection: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)

	m.db = db
	return nil
}

func (m *Adapter) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

func (m *Adapter) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *Adapter) Provider() string { return "mysql" }

func (m *Adapter) Dialect() schema.Dialect { return schema.DialectMySQL }

func (m *Adapter) Builder() squirrel.StatementBuilderType { return m.qb }

func (m *Adapter) querier() common.SQLQuerier {
	return common.SQLQuerier{Conn: m.db, Classify: ClassifyError}
}

func (m *Adapter) Exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	return m.querier().Exec(ctx, query, args...)
}

func (m *Adapter) Query(ctx context.Context, query string, args ...interface{}) (*common.QueryResult, error) {
	return m.querier().Query(ctx, query, args...)
}

func (m *Adapter) InTx(ctx context.Context, fn func(q common.Querier) error) error {
	return common.RunInTx(ctx, m.db, ClassifyError, fn)
}

func (m *Adapter) TableExists(ctx context.Context, q common.Querier, tableName string) (bool, error) {
	query, args, err := m.qb.Select("COUNT(*) AS n").
		From("information_schema.tables").
		Where("table_schema = DATABASE()").
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

func ClassifyError(err error) error {
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case errDupEntry:
			return common.Constraint(common.ErrDuplicateKey, err)
		case errNoReferencedRow, errRowIsReferenced:
			return common.Constraint(common.ErrForeignKey, err)
		}
		return err
	}
	return common.ClassifyMessage(err)
}
