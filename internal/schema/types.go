package schema

import (
	"fmt"
	"strings"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
)

// DialectFor maps a configured provider name to its SQL dialect.
func DialectFor(provider string) (Dialect, error) {
	switch provider {
	case "postgresql", "postgres":
		return DialectPostgres, nil
	case "mysql":
		return DialectMySQL, nil
	case "sqlite", "sqlite3", "sqlite-pure":
		return DialectSQLite, nil
	}
	return "", fmt.Errorf("unknown database provider %q", provider)
}

// Tier mirrors how a table is populated: Manual tables are filled by the
// seeder, Lookup tables carry fixed Contents.
type Tier string

const (
	Manual Tier = "manual"
	Lookup Tier = "lookup"
)

type ColumnType int

const (
	BigInt ColumnType = iota
	Int
	SmallInt
	Varchar
	Date
	Decimal
)

type Column struct {
	Name     string
	Type     ColumnType
	Size     int // varchar length or decimal precision
	Scale    int // decimal scale
	Unsigned bool
	Nullable bool
}

type ForeignKey struct {
	Columns    []string
	RefTable   string
	RefColumns []string
}

type Table struct {
	Name        string
	Class       string
	Tier        Tier
	Columns     []Column
	PrimaryKey  []string
	ForeignKeys []ForeignKey
	Contents    [][]any
}

// TypeName renders the column type the way a table definition spells it,
// e.g. "bigint unsigned" or "decimal(5,2)".
func (c Column) TypeName() string {
	var name string
	switch c.Type {
	case BigInt:
		name = "bigint"
	case Int:
		name = "int"
	case SmallInt:
		name = "smallint"
	case Varchar:
		name = fmt.Sprintf("varchar(%d)", c.Size)
	case Date:
		name = "date"
	case Decimal:
		name = fmt.Sprintf("decimal(%d,%d)", c.Size, c.Scale)
	default:
		name = "unknown"
	}
	if c.Unsigned {
		name += " unsigned"
	}
	return name
}

func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

func (t *Table) IsPrimary(column string) bool {
	for _, pk := range t.PrimaryKey {
		if pk == column {
			return true
		}
	}
	return false
}

// Dependencies lists the tables this table references, without duplicates
// and without self-references.
func (t *Table) Dependencies() []string {
	seen := make(map[string]bool)
	var deps []string
	for _, fk := range t.ForeignKeys {
		if fk.RefTable == t.Name || seen[fk.RefTable] {
			continue
		}
		seen[fk.RefTable] = true
		deps = append(deps, fk.RefTable)
	}
	return deps
}

func (t *Table) foreignKeyFor(column string) (ForeignKey, bool) {
	for _, fk := range t.ForeignKeys {
		for _, c := range fk.Columns {
			if c == column {
				return fk, true
			}
		}
	}
	return ForeignKey{}, false
}

func (t *Table) primaryForeignKey(fk ForeignKey) bool {
	for _, c := range fk.Columns {
		if !t.IsPrimary(c) {
			return false
		}
	}
	return true
}

// Definition renders the table in the compact definition format: primary
// attributes, a "---" divider, then secondary attributes. Columns inherited
// through a foreign key collapse into a single "-> parent" line.
func (t *Table) Definition() string {
	var primary, secondary []string
	emitted := make(map[string]bool)

	for _, col := range t.Columns {
		line := fmt.Sprintf("%s : %s", col.Name, col.TypeName())
		if col.Nullable {
			line += " # nullable"
		}
		if fk, ok := t.foreignKeyFor(col.Name); ok {
			if emitted[fk.RefTable] {
				continue
			}
			emitted[fk.RefTable] = true
			line = "-> " + fk.RefTable
			if t.primaryForeignKey(fk) {
				primary = append(primary, line)
			} else {
				secondary = append(secondary, line)
			}
			continue
		}
		if t.IsPrimary(col.Name) {
			primary = append(primary, line)
		} else {
			secondary = append(secondary, line)
		}
	}

	var b strings.Builder
	for _, l := range primary {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	b.WriteString("---\n")
	for _, l := range secondary {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}
