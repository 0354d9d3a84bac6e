package cmd

import (
	"github.com/dbcourse/app1/internal/export"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every table",
	Long: `
Dump every schema table, plus the seed run history, into export_path.

Formats:
  json    one JSON file (default)
  yaml    one YAML file
  csv     a directory with one CSV file per table
  sqlite  a standalone SQLite database with the same schema`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = sess.cfg.ExportPath
		}

		color.Cyan("📦 Exporting schema %s as %s...", sess.cfg.Schema, format)
		path, err := export.Tables(ctx, sess.store, output, format)
		if err != nil {
			return err
		}
		color.Green("✅ Export written to %s", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("format", export.FormatJSON, "Export format: json, yaml, csv or sqlite")
	exportCmd.Flags().StringP("output", "o", "", "Output directory (default from export_path)")
}
