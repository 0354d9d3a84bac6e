package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dbcourse/app1/internal/schema"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var diagramCmd = &cobra.Command{
	Use:   "diagram",
	Short: "Write the schema diagram",
	Long: `
Render the schema as a Mermaid erDiagram (default), a Graphviz DOT graph, or
the CREATE TABLE statements for the configured provider. The result is
written to diagram_path (the extension follows the format) and printed.
No database connection is needed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		quiet, _ := cmd.Flags().GetBool("quiet")

		s := schema.Declare(cfg.Schema)

		var content, ext string
		switch format {
		case "mermaid":
			content, err = schema.Mermaid(s)
			ext = ".mmd"
		case "dot":
			content, err = schema.DOT(s)
			ext = ".dot"
		case "sql":
			dialect, derr := schema.DialectFor(cfg.Database.Provider)
			if derr != nil {
				return derr
			}
			content, err = schema.SchemaSQL(dialect, s)
			ext = ".sql"
		default:
			return fmt.Errorf("unknown diagram format %q (want mermaid, dot or sql)", format)
		}
		if err != nil {
			return err
		}

		if output == "" {
			output = strings.TrimSuffix(cfg.DiagramPath, filepath.Ext(cfg.DiagramPath)) + ext
		}
		if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
			return fmt.Errorf("failed to create diagram directory: %w", err)
		}
		if err := os.WriteFile(output, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write diagram: %w", err)
		}

		if !quiet {
			fmt.Println(content)
		}
		color.Green("✅ Diagram written to %s", output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diagramCmd)
	diagramCmd.Flags().String("format", "mermaid", "Diagram format: mermaid, dot or sql")
	diagramCmd.Flags().StringP("output", "o", "", "Output file (default from diagram_path)")
	diagramCmd.Flags().BoolP("quiet", "q", false, "Only write the file")
}
