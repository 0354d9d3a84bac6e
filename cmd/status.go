package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dbcourse/app1/internal/store"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show row counts and seed history",
	Long: `
Show every schema table with its tier and row count, followed by the
recorded seed runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		counts, err := sess.store.Counts(ctx)
		if err != nil {
			return err
		}
		runs, err := sess.store.Runs(ctx)
		if err != nil {
			return err
		}

		color.Cyan("📊 Schema %s on %s", sess.cfg.Schema, sess.adapter.Provider())
		fmt.Println(renderCounts(counts))

		if len(runs) == 0 {
			color.Yellow("No seed runs recorded")
			return nil
		}
		fmt.Println()
		color.Cyan("🌱 Seed runs")
		fmt.Println(renderRuns(runs))
		return nil
	},
}

func renderCounts(counts []store.TableCount) string {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		state := "declared"
		if !c.Declared {
			state = "missing"
		}
		rows = append(rows, []string{c.Table, string(c.Tier), state, strconv.FormatInt(c.Rows, 10)})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TABLE", "TIER", "STATE", "ROWS").
		Rows(rows...).
		String()
}

func renderRuns(runs []store.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(),
			strconv.Itoa(r.Accounts),
			strconv.Itoa(r.Cards),
			strconv.Itoa(r.Purchases),
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("RUN", "STARTED", "TOOK", "ACCOUNTS", "CARDS", "PURCHASES").
		Rows(rows...).
		String()
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
