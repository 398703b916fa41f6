package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pable/go-h2h/internal/config"
	"github.com/pable/go-h2h/internal/logging"
	"github.com/pable/go-h2h/internal/storage"
)

var (
	cfgPath   string
	dbPath    string
	logLevel  string
	logFormat string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "h2h",
	Short: "Head-to-head match archive builder",
	Long: "Build a static, sharded JSON archive of head-to-head records from scraped match tables,\n" +
		"and inspect it from the command line.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to YAML config (default: $H2H_CONFIG, ./h2h.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite build catalog (default ~/.h2h/catalog.db)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console or json")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(shellCmd)
}

// loadConfig resolves settings and applies persistent flag overrides.
func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if dbPath != "" {
		c.Catalog.Path = dbPath
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	if logFormat != "" {
		c.Log.Format = logFormat
	}
	if err := logging.Init(logging.Config{Level: c.Log.Level, Format: c.Log.Format, Output: os.Stderr}); err != nil {
		return err
	}
	cfg = c
	dbPath = c.Catalog.Path
	return nil
}

// openCatalog opens the build catalog, creating its directory on first use.
func openCatalog() (*storage.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create catalog dir: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}
