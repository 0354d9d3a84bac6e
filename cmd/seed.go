package cmd

import (
	"fmt"

	"github.com/dbcourse/app1/internal/seeder"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert fake accounts, cards and purchases",
	Long: `
Declare the schema if needed, then insert fake user accounts, credit cards
owned by randomly chosen stored accounts, and optionally purchases.

Defaults come from the "seed" section of the config: 1000 accounts and 15000
cards. The same rand seed draws the same keys, so seeding twice without
--truncate fails on the duplicate keys and leaves the data untouched.

Examples:
  app1 seed
  app1 seed --accounts 50 --cards 200 --purchases 20
  app1 seed --truncate --seed 0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sess, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer sess.Close()

		seedCfg := seeder.SeedConfigFrom(sess.cfg.Seed)
		flags := cmd.Flags()
		if flags.Changed("accounts") {
			seedCfg.Accounts, _ = flags.GetInt("accounts")
		}
		if flags.Changed("cards") {
			seedCfg.Cards, _ = flags.GetInt("cards")
		}
		if flags.Changed("purchases") {
			seedCfg.Purchases, _ = flags.GetInt("purchases")
		}
		if flags.Changed("batch") {
			seedCfg.Batch, _ = flags.GetInt("batch")
		}
		if flags.Changed("seed") {
			seedCfg.RandSeed, _ = flags.GetUint64("seed")
		}
		if flags.Changed("truncate") {
			seedCfg.Truncate, _ = flags.GetBool("truncate")
		}
		if flags.Changed("no-transaction") {
			seedCfg.NoTransaction, _ = flags.GetBool("no-transaction")
		}

		if seedCfg.Batch < 1 || seedCfg.Batch > 5000 {
			return fmt.Errorf("--batch must be between 1 and 5000, got %d", seedCfg.Batch)
		}
		if seedCfg.Accounts < 0 || seedCfg.Cards < 0 || seedCfg.Purchases < 0 {
			return fmt.Errorf("row counts must not be negative")
		}

		if seedCfg.NoTransaction {
			color.Yellow("⚠️  Seeding without a transaction: a failure leaves partial data")
		}

		result, err := seeder.NewSeeder(sess.store, sess.log).Seed(ctx, seedCfg)
		if err != nil {
			return err
		}
		sess.log.Info().Str("run", result.RunID).Dur("took", result.Duration).Msg("seed run recorded")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().Int("accounts", 0, "Number of user accounts to insert")
	seedCmd.Flags().Int("cards", 0, "Number of credit cards to insert")
	seedCmd.Flags().Int("purchases", 0, "Number of purchases to insert")
	seedCmd.Flags().Int("batch", 0, "Rows per INSERT statement")
	seedCmd.Flags().Uint64("seed", 0, "Random seed (0 draws a fresh one)")
	seedCmd.Flags().Bool("truncate", false, "Clear accounts, cards and purchases first")
	seedCmd.Flags().Bool("no-transaction", false, "Disable transaction wrapping")
}
