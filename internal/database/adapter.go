package database

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/dbcourse/app1/internal/database/common"
	"github.com/dbcourse/app1/internal/database/mysql"
	"github.com/dbcourse/app1/internal/database/postgres"
	"github.com/dbcourse/app1/internal/database/sqlite"
	"github.com/dbcourse/app1/internal/schema"
)

type (
	Querier     = common.Querier
	QueryResult = common.QueryResult
)

var (
	ErrDuplicateKey = common.ErrDuplicateKey
	ErrForeignKey   = common.ErrForeignKey
)

type DatabaseAdapter interface {
	Querier

	Connect(ctx context.Context, url string) error
	Close() error
	Ping(ctx context.Context) error

	Provider() string
	Dialect() schema.Dialect
	// Builder is a squirrel builder set to the provider's placeholder format.
	Builder() squirrel.StatementBuilderType

	// InTx runs fn in a transaction. fn must only use the Querier it is given.
	InTx(ctx context.Context, fn func(q Querier) error) error
	TableExists(ctx context.Context, q Querier, tableName string) (bool, error)
}

func NewAdapter(provider string) DatabaseAdapter {
	switch provider {
	case "postgresql", "postgres":
		return postgres.New()
	case "mysql":
		return mysql.New()
	case "sqlite", "sqlite3":
		return sqlite.New(sqlite.DefaultDriver)
	case "sqlite-pure":
		return sqlite.New(sqlite.PureDriver)
	default:
		return postgres.New()
	}
}

// Connect builds the adapter for provider and connects it.
func Connect(ctx context.Context, provider, url string) (DatabaseAdapter, error) {
	adapter := NewAdapter(provider)
	if err := adapter.Connect(ctx, url); err != nil {
		return nil, err
	}
	if err := adapter.Ping(ctx); err != nil {
		adapter.Close()
		return nil, err
	}
	return adapter, nil
}
