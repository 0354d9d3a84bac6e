package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	Version = "0.3.0"
)

func showBanner() {
	greenColor := color.New(color.FgGreen, color.Bold)

	banner := []string{
		"╔══════════════════════════════════════════════╗",
		"║     █████╗ ██████╗ ██████╗  ██╗              ║",
		"║    ██╔══██╗██╔══██╗██╔══██╗███║              ║",
		"║    ███████║██████╔╝██████╔╝╚██║              ║",
		"║    ██╔══██║██╔═══╝ ██╔═══╝  ██║              ║",
		"║    ██║  ██║██║     ██║      ██║              ║",
		"║    ╚═╝  ╚═╝╚═╝     ╚═╝      ╚═╝              ║",
		"║                                              ║",
		"║   accounts • cards • add-ons • purchases     ║",
		"╚══════════════════════════════════════════════╝",
	}

	for _, line := range banner {
		greenColor.Println(line)
	}

	fmt.Print("              ")
	color.New(color.FgCyan, color.Bold).Print("Version: ")
	color.New(color.FgYellow, color.Bold).Printf("%s\n", Version)
}

var rootCmd = &cobra.Command{
	Use:   "app1",
	Short: "Declare, diagram and seed the app1 account/card schema",
	Long: `
app1 manages a small relational schema of user accounts, credit cards,
add-ons and purchases.

Commands:
- declare   create the tables and fill the add_on lookup table
- diagram   write the schema diagram (Mermaid, DOT or SQL)
- seed      insert fake accounts, cards and purchases
- preview   show the first rows of a table
- status    show row counts and past seed runs
- reset     clear or drop the schema
- export    dump every table to JSON, YAML, CSV or SQLite

Database Support:
- PostgreSQL
- MySQL
- SQLite (cgo or pure Go driver)`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Printf("app1 version %s\n", Version)
			return
		}

		showBanner()
		fmt.Println()
		cmd.Help()
	},
}

// Execute runs the CLI; SIGINT and SIGTERM cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./app1.config.json)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log debug output to stderr")
	rootCmd.Flags().BoolP("version", "v", false, "Show CLI version")
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env.local")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("json")
		viper.SetConfigName("app1.config")
	}

	viper.SetEnvPrefix("APP1")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; defaults cover every setting.
	viper.ReadInConfig()
}

func newLogger() *zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
	return &logger
}
