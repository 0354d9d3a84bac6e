package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dbcourse/app1/internal/database"
	"github.com/dbcourse/app1/internal/database/sqlite"
	"github.com/dbcourse/app1/internal/schema"
	"github.com/dbcourse/app1/internal/store"
	"gopkg.in/yaml.v3"
)

const (
	FormatJSON   = "json"
	FormatYAML   = "yaml"
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"
)

type Data struct {
	Timestamp string                      `json:"timestamp" yaml:"timestamp"`
	Schema    string                      `json:"schema" yaml:"schema"`
	Tables    map[string][]map[string]any `json:"tables" yaml:"tables"`
	Runs      []store.Run                 `json:"runs,omitempty" yaml:"runs,omitempty"`
}

// Tables reads every schema table and writes it under dir in the given
// format. It returns the path of the file (or directory, for csv) written.
func Tables(ctx context.Context, st *store.Store, dir, format string) (string, error) {
	data, err := Collect(ctx, st)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	base := filepath.Join(dir, "export_"+time.Now().Format("2006-01-02_15-04-05"))

	switch format {
	case FormatYAML:
		return writeYAML(data, base+".yaml")
	case FormatCSV:
		return writeCSV(st.Schema(), data, base+"_csv")
	case FormatSQLite:
		return writeSQLite(ctx, st.Schema(), data, base+".db")
	case FormatJSON, "":
		return writeJSON(data, base+".json")
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}
}

// Collect reads all rows of every schema table plus the seed run history.
func Collect(ctx context.Context, st *store.Store) (*Data, error) {
	tables := st.Schema().Tables()
	data := &Data{
		Timestamp: time.Now().Format("2006-01-02 15:04:05"),
		Schema:    st.Schema().Name,
		Tables:    make(map[string][]map[string]any, len(tables)),
	}

	type tableResult struct {
		name string
		rows []map[string]any
		err  error
	}

	results := make(chan tableResult, len(tables))
	var wg sync.WaitGroup

	for _, t := range tables {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			res, err := st.Select(ctx, st.Adapter(), name, 0)
			if err != nil {
				results <- tableResult{name: name, err: err}
				return
			}
			rows := res.Rows
			if rows == nil {
				rows = []map[string]any{}
			}
			results <- tableResult{name: name, rows: rows}
		}(t.Name)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var firstErr error
	for r := range results {
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to read table %s: %w", r.name, r.err)
			}
			continue
		}
		data.Tables[r.name] = r.rows
	}
	if firstErr != nil {
		return nil, firstErr
	}

	runs, err := st.Runs(ctx)
	if err != nil {
		return nil, err
	}
	data.Runs = runs
	return data, nil
}

func writeJSON(data *Data, path string) (string, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal data: %w", err)
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}

func writeYAML(data *Data, path string) (string, error) {
	b, err := yaml.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal data: %w", err)
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}

// writeCSV writes one file per table with columns in declaration order.
func writeCSV(s *schema.Schema, data *Data, dirPath string) (string, error) {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create CSV directory: %w", err)
	}

	for _, t := range s.Tables() {
		if err := writeCSVTable(filepath.Join(dirPath, t.Name+".csv"), t.ColumnNames(), data.Tables[t.Name]); err != nil {
			return "", fmt.Errorf("failed to write CSV for %s: %w", t.Name, err)
		}
	}
	return dirPath, nil
}

func writeCSVTable(path string, columns []string, rows []map[string]any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(columns); err != nil {
		return err
	}
	for _, row := range rows {
		values := make([]string, len(columns))
		for i, col := range columns {
			values[i] = csvValue(row[col])
		}
		if err := w.Write(values); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func csvValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case time.Time:
		return val.Format(time.DateOnly)
	}
	return fmt.Sprint(v)
}

// writeSQLite copies the exported rows into a standalone SQLite file with the
// same schema, parents first so foreign keys hold.
func writeSQLite(ctx context.Context, s *schema.Schema, data *Data, path string) (string, error) {
	adapter := sqlite.New(sqlite.DefaultDriver)
	if err := adapter.Connect(ctx, "sqlite://"+path); err != nil {
		return "", fmt.Errorf("failed to create SQLite database: %w", err)
	}
	defer adapter.Close()

	out := store.New(adapter, s, nil)
	order, err := s.CreationOrder()
	if err != nil {
		return "", err
	}

	err = adapter.InTx(ctx, func(q database.Querier) error {
		if err := out.Declare(ctx, q); err != nil {
			return err
		}
		for _, name := range order {
			t, _ := s.Table(name)
			if t.Tier == schema.Lookup {
				continue
			}
			rows := make([][]any, 0, len(data.Tables[name]))
			for _, row := range data.Tables[name] {
				values := make([]any, len(t.Columns))
				for i, c := range t.Columns {
					values[i] = row[c.Name]
				}
				rows = append(rows, values)
			}
			if _, err := out.Insert(ctx, q, name, rows); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return path, nil
}
