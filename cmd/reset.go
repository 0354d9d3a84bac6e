package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear or drop the schema",
	Long: `
Delete every account, card and purchase, keeping the tables and the add_on
lookup rows. With --drop, drop every schema table and the seed history
instead.

⚠️  WARNING: This permanently deletes data.

Use --force to skip the confirmation prompt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		drop, _ := cmd.Flags().GetBool("drop")
		force, _ := cmd.Flags().GetBool("force")

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		action := "delete all accounts, cards and purchases"
		if drop {
			action = "drop every table of schema " + sess.cfg.Schema
		}
		if !force && !confirm(fmt.Sprintf("This will %s. Continue?", action)) {
			color.Yellow("Reset cancelled")
			return nil
		}

		if drop {
			if err := sess.store.Drop(ctx); err != nil {
				return err
			}
			color.Green("✅ Schema dropped")
			return nil
		}

		if err := sess.store.Truncate(ctx, sess.adapter); err != nil {
			return err
		}
		color.Green("✅ Manual tables cleared")
		return nil
	},
}

func confirm(prompt string) bool {
	color.Yellow("⚠️  %s [y/N]: ", prompt)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func init() {
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().Bool("drop", false, "Drop the tables instead of clearing them")
	resetCmd.Flags().BoolP("force", "f", false, "Skip the confirmation prompt")
}
