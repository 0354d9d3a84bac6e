package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/dbcourse/app1/template"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const configFileName = "app1.config.json"

var (
	sqliteFlag     bool
	postgresqlFlag bool
	mysqlFlag      bool
	dbFlag         string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create app1.config.json and .env",
	Long:  `Write a starting app1.config.json for the chosen database and add DATABASE_URL to .env.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbType, err := resolveDatabaseType(dbFlag, sqliteFlag, postgresqlFlag, mysqlFlag)
		if err != nil {
			return err
		}

		force, _ := cmd.Flags().GetBool("force")
		return initializeProject(dbType, force)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&sqliteFlag, "sqlite", false, "Use SQLite (default)")
	initCmd.Flags().BoolVar(&postgresqlFlag, "postgresql", false, "Use PostgreSQL")
	initCmd.Flags().BoolVar(&mysqlFlag, "mysql", false, "Use MySQL")
	initCmd.Flags().StringVar(&dbFlag, "db", "", "Database by name (sqlite, postgresql, postgres, mysql)")
	initCmd.Flags().BoolP("force", "f", false, "Overwrite an existing config file")
}

// resolveDatabaseType picks the database from at most one of --db and the
// per-database switches. SQLite is the default.
func resolveDatabaseType(db string, sqlite, postgresql, mysql bool) (template.DatabaseType, error) {
	dbType := template.SQLite
	flagCount := 0

	if db != "" {
		dt, err := template.ValidateDatabaseType(db)
		if err != nil {
			return "", err
		}
		dbType = dt
		flagCount++
	}
	if sqlite {
		dbType = template.SQLite
		flagCount++
	}
	if postgresql {
		dbType = template.PostgreSQL
		flagCount++
	}
	if mysql {
		dbType = template.MySQL
		flagCount++
	}

	if flagCount > 1 {
		return "", fmt.Errorf("please specify only one database type (--db, --sqlite, --postgresql, or --mysql)")
	}
	return dbType, nil
}

func initializeProject(dbType template.DatabaseType, force bool) error {
	if _, err := os.Stat(configFileName); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configFileName)
	}

	tmpl := template.NewProjectTemplate(dbType)

	directories := tmpl.GetDirectoryStructure()
	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	content, err := tmpl.GetConfig()
	if err != nil {
		return err
	}
	if err := os.WriteFile(configFileName, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to create file %s: %w", configFileName, err)
	}

	if err := handleEnvFile(".env", tmpl.GetEnvTemplate()); err != nil {
		return fmt.Errorf("failed to handle .env file: %w", err)
	}

	color.Green("✅ Initialized app1 project with %s database support", dbType)
	fmt.Println()
	fmt.Println("📁 Directories:")
	for _, dir := range directories {
		fmt.Printf("   %s/\n", dir)
	}
	fmt.Println()
	fmt.Println("📝 Configuration file created:")
	fmt.Printf("   %s\n", configFileName)

	if os.Getenv("DATABASE_URL") != "" {
		fmt.Println()
		fmt.Println("ℹ️  Using existing DATABASE_URL from environment")
	}

	fmt.Println()
	fmt.Printf("🚀 Next steps:\n")
	fmt.Printf("   app1 declare   # Create the tables\n")
	fmt.Printf("   app1 seed      # Insert 1000 accounts and 15000 cards\n")
	fmt.Printf("   app1 status    # Check the row counts\n")

	return nil
}

// handleEnvFile creates envPath, or appends DATABASE_URL to it when the file
// exists without one.
func handleEnvFile(envPath, defaultEnvContent string) error {
	existingContent, err := os.ReadFile(envPath)
	if err != nil {
		if os.IsNotExist(err) {
			return os.WriteFile(envPath, []byte(defaultEnvContent), 0644)
		}
		return err
	}

	existingStr := string(existingContent)
	if strings.Contains(existingStr, "DATABASE_URL") {
		return nil
	}

	if len(existingStr) > 0 && !strings.HasSuffix(existingStr, "\n") {
		existingStr += "\n"
	}
	existingStr += "\n# Added by app1\n" + defaultEnvContent

	return os.WriteFile(envPath, []byte(existingStr), 0644)
}
