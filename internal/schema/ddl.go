package schema

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// QuoteIdent quotes a table or column name for the dialect.
func QuoteIdent(d Dialect, name string) string {
	switch d {
	case DialectPostgres:
		return pq.QuoteIdentifier(name)
	case DialectMySQL:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	default:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
}

func ColumnSQLType(d Dialect, c Column) string {
	switch d {
	case DialectMySQL:
		return strings.ToUpper(c.TypeName())
	case DialectSQLite:
		switch c.Type {
		case BigInt, Int, SmallInt:
			return "INTEGER"
		default:
			// Dates and decimals are kept as text so they read back exactly.
			return "TEXT"
		}
	default:
		switch c.Type {
		case BigInt:
			return "BIGINT"
		case Int:
			return "INTEGER"
		case SmallInt:
			return "SMALLINT"
		case Varchar:
			return fmt.Sprintf("VARCHAR(%d)", c.Size)
		case Date:
			return "DATE"
		case Decimal:
			return fmt.Sprintf("NUMERIC(%d,%d)", c.Size, c.Scale)
		}
		return "TEXT"
	}
}

// CreateTableSQL renders CREATE TABLE IF NOT EXISTS for the table. Unsigned
// columns become CHECK constraints where the dialect has no unsigned types.
func CreateTableSQL(d Dialect, table *Table) string {
	q := func(name string) string { return QuoteIdent(d, name) }
	quoteAll := func(names []string) string {
		out := make([]string, len(names))
		for i, n := range names {
			out[i] = q(n)
		}
		return strings.Join(out, ", ")
	}

	var lines []string
	for _, column := range table.Columns {
		line := fmt.Sprintf("  %s %s", q(column.Name), ColumnSQLType(d, column))
		if !column.Nullable {
			line += " NOT NULL"
		}
		if column.Unsigned && d != DialectMySQL {
			line += fmt.Sprintf(" CHECK (%s >= 0)", q(column.Name))
		}
		lines = append(lines, line)
	}

	lines = append(lines, fmt.Sprintf("  PRIMARY KEY (%s)", quoteAll(table.PrimaryKey)))

	for _, fk := range table.ForeignKeys {
		lines = append(lines, fmt.Sprintf("  FOREIGN KEY (%s) REFERENCES %s(%s)",
			quoteAll(fk.Columns), q(fk.RefTable), quoteAll(fk.RefColumns)))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)", q(table.Name), strings.Join(lines, ",\n"))
}

func DropTableSQL(d Dialect, tableName string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", QuoteIdent(d, tableName))
}

// SchemaSQL renders the DDL of every table in creation order.
func SchemaSQL(d Dialect, s *Schema) (string, error) {
	order, err := s.CreationOrder()
	if err != nil {
		return "", err
	}
	stmts := make([]string, 0, len(order))
	for _, name := range order {
		t, _ := s.Table(name)
		stmts = append(stmts, CreateTableSQL(d, t)+";")
	}
	return strings.Join(stmts, "\n\n") + "\n", nil
}
