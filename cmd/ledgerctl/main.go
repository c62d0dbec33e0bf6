// Command ledgerctl runs operator tasks against the ledger database:
// schema migrations, reconciliation and default category seeding.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fintrack/internal/database"
	"fintrack/internal/logger"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:               "ledgerctl",
		Short:             "Fintrack ledger administration",
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./ledgerctl.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("db-driver", "", "database driver (postgres, sqlite); overrides DB_DRIVER")
	rootCmd.PersistentFlags().String("sqlite-path", "", "sqlite database file; overrides SQLITE_PATH")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("db.driver", rootCmd.PersistentFlags().Lookup("db-driver"))
	_ = viper.BindPFlag("db.sqlite_path", rootCmd.PersistentFlags().Lookup("sqlite-path"))

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(seedCategoriesCmd())
}

func main() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("ledgerctl")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("LEDGERCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	logger.Init(os.Getenv("ENV"), viper.GetString("logging.level"))
	return nil
}

// openDatabase builds the database config from the environment, applies
// any ledgerctl overrides and connects.
func openDatabase() (*database.Manager, error) {
	cfg, err := database.NewConfig()
	if err != nil {
		return nil, err
	}
	if driver := viper.GetString("db.driver"); driver != "" {
		switch driver {
		case database.DriverPostgres, database.DriverSQLite:
			cfg.Driver = driver
		default:
			return nil, fmt.Errorf("unsupported driver %q (use postgres or sqlite)", driver)
		}
	}
	if path := viper.GetString("db.sqlite_path"); path != "" {
		cfg.SQLitePath = path
	}

	return database.NewManager(cfg)
}
