package schema

import (
	"fmt"
	"sort"
)

// Schema is a named collection of table declarations. It is built once and
// handed to whatever needs it; nothing registers itself globally.
type Schema struct {
	Name   string
	tables map[string]*Table
	added  []string
}

func New(name string) *Schema {
	return &Schema{
		Name:   name,
		tables: make(map[string]*Table),
	}
}

// Add declares a table. Every foreign key must point at a table that is
// already declared (or at the table itself) and match its primary key.
func (s *Schema) Add(t *Table) error {
	if t.Name == "" {
		return fmt.Errorf("table name is required")
	}
	if _, exists := s.tables[t.Name]; exists {
		return fmt.Errorf("table %s already declared in schema %s", t.Name, s.Name)
	}
	if len(t.PrimaryKey) == 0 {
		return fmt.Errorf("table %s has no primary key", t.Name)
	}
	for _, pk := range t.PrimaryKey {
		if _, ok := t.Column(pk); !ok {
			return fmt.Errorf("table %s: primary key column %s is not declared", t.Name, pk)
		}
	}

	for _, fk := range t.ForeignKeys {
		ref := s.tables[fk.RefTable]
		if fk.RefTable == t.Name {
			ref = t
		}
		if ref == nil {
			return fmt.Errorf("table %s references undeclared table %s", t.Name, fk.RefTable)
		}
		if len(fk.Columns) != len(fk.RefColumns) || len(fk.RefColumns) != len(ref.PrimaryKey) {
			return fmt.Errorf("table %s: foreign key to %s must cover its primary key", t.Name, fk.RefTable)
		}
		for i, c := range fk.Columns {
			if _, ok := t.Column(c); !ok {
				return fmt.Errorf("table %s: foreign key column %s is not declared", t.Name, c)
			}
			if fk.RefColumns[i] != ref.PrimaryKey[i] {
				return fmt.Errorf("table %s: foreign key column %s must reference %s.%s",
					t.Name, c, fk.RefTable, ref.PrimaryKey[i])
			}
		}
	}

	for _, row := range t.Contents {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("table %s: lookup row has %d values, want %d", t.Name, len(row), len(t.Columns))
		}
	}

	s.tables[t.Name] = t
	s.added = append(s.added, t.Name)
	return nil
}

func (s *Schema) MustAdd(t *Table) {
	if err := s.Add(t); err != nil {
		panic(err)
	}
}

func (s *Schema) Table(name string) (*Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// Tables returns the tables in declaration order.
func (s *Schema) Tables() []*Table {
	out := make([]*Table, 0, len(s.added))
	for _, name := range s.added {
		out = append(out, s.tables[name])
	}
	return out
}

// CreationOrder returns table names with every referenced table ahead of the
// tables that reference it. Independent tables are ordered by name.
func (s *Schema) CreationOrder() ([]string, error) {
	visited := make(map[string]bool)
	temp := make(map[string]bool)
	var order []string

	var visit func(string) error
	visit = func(tableName string) error {
		if temp[tableName] {
			return fmt.Errorf("circular dependency detected involving table: %s", tableName)
		}
		if visited[tableName] {
			return nil
		}

		temp[tableName] = true
		if table := s.tables[tableName]; table != nil {
			deps := table.Dependencies()
			sort.Strings(deps)
			for _, dep := range deps {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		temp[tableName] = false
		visited[tableName] = true
		order = append(order, tableName)
		return nil
	}

	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// DropOrder is CreationOrder reversed: children before parents.
func (s *Schema) DropOrder() ([]string, error) {
	order, err := s.CreationOrder()
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}
