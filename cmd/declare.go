package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var declareCmd = &cobra.Command{
	Use:   "declare",
	Short: "Create the schema tables",
	Long: `
Create every table of the schema that does not exist yet, parents before
children, and make sure the add_on lookup table holds its three fixed rows.
Running it again is harmless.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		if err := sess.store.Declare(ctx, sess.adapter); err != nil {
			return err
		}

		tables := sess.store.Schema().Tables()
		color.Green("✅ Declared schema %s (%d tables) on %s", sess.cfg.Schema, len(tables), sess.adapter.Provider())

		if show, _ := cmd.Flags().GetBool("show"); show {
			for _, t := range tables {
				fmt.Println()
				color.Cyan("📋 %s (%s)", t.Class, t.Name)
				fmt.Print(t.Definition())
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(declareCmd)
	declareCmd.Flags().Bool("show", false, "Print each table definition")
}
