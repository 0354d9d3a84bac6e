package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dbcourse/app1/internal/database"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview <table>",
	Short: "Show the first rows of a table",
	Long: `
Print the first rows of a schema table ordered by primary key.

Examples:
  app1 preview add_on
  app1 preview credit_card --limit 25`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		result, err := sess.store.Preview(ctx, args[0], limit)
		if err != nil {
			return err
		}
		total, err := sess.store.Count(ctx, sess.adapter, args[0])
		if err != nil {
			return err
		}

		fmt.Println(renderResult(result))
		color.Cyan("📊 %d of %d rows", len(result.Rows), total)
		return nil
	},
}

func renderResult(result *database.QueryResult) string {
	rows := make([][]string, len(result.Rows))
	for i := range result.Rows {
		values := result.Values(i)
		rows[i] = make([]string, len(values))
		for j, v := range values {
			rows[i][j] = cellString(v)
		}
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(result.Columns...).
		Rows(rows...).
		String()
}

func cellString(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case time.Time:
		return val.Format(time.DateOnly)
	}
	return fmt.Sprint(v)
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().IntP("limit", "n", 10, "Rows to show")
}
