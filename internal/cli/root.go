package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/terminally-online/paramsync/internal/config"
	"github.com/terminally-online/paramsync/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
	flags   config.Flags
	logger  = zap.NewNop()
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "paramsync",
	Short: "PostgreSQL configuration parameter migration tool",
	Long: `paramsync reads the database and role level configuration parameters of a
PostgreSQL database, compares them with a declarative parameters file and
generates reversible migrations that bring the two in sync.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		envErr := loadDotEnv(".env")

		var err error
		if _, statErr := os.Stat(cfgFile); os.IsNotExist(statErr) {
			cfg = &config.Config{}
		} else {
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
		}

		logger, err = logging.New(cfg.GetLogLevel(&flags))
		if err != nil {
			return err
		}
		if envErr != nil {
			logger.Warn("failed to load .env file", zap.Error(envErr))
		}
		logger.Debug("configuration loaded", zap.String("file", cfgFile))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// loadDotEnv loads path into the environment. A missing file is not an
// error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "paramsync %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", config.DefaultFile, "config file path")
	rootCmd.PersistentFlags().StringVar(&flags.URL, "url", "", "database connection URL")
	rootCmd.PersistentFlags().StringVar(&flags.Database, "database", "", "name of the database parameters belong to")
	rootCmd.PersistentFlags().StringVar(&flags.Desired, "desired", "", "path to the desired parameters file")
	rootCmd.PersistentFlags().StringVar(&flags.MigrationsDir, "migrations-dir", "", "path to migrations directory")
	rootCmd.PersistentFlags().StringVar(&flags.PostgresVersion, "postgres-version", "", "postgres version for sandbox containers")
	rootCmd.PersistentFlags().StringSliceVar(&flags.Exclude, "exclude", nil, "parameter name patterns never synchronized")
	rootCmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}

func SetVersion(v string) {
	version = v
}

func Execute() error {
	return rootCmd.Execute()
}

func Root() *cobra.Command {
	return rootCmd
}
