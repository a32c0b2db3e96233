// Command portfolio runs the portfolio web server and its maintenance tasks.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Zachkp/portfolio/internal/bounty"
	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/logger"
	"github.com/Zachkp/portfolio/internal/store"
)

var logLevel string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Personal portfolio server",
	Long: `Serves the portfolio site, its admin API, visitor analytics and the
bug-bounty profile aggregator.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")

	migrateCmd.Flags().BoolVar(&seedAfterMigrate, "seed", false, "Insert default content into empty tables")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(bountySyncCmd)
	rootCmd.AddCommand(cleanupCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds what every subcommand needs.
type app struct {
	cfg  *config.Config
	log  zerolog.Logger
	repo *store.Repository
}

// openApp loads the configuration, sets up logging and opens the migrated database.
func openApp(logOut io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: !cfg.IsProd(), Out: logOut})
	logger.SetGlobalLogger(log)

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return &app{cfg: cfg, log: log, repo: store.NewRepository(db)}, nil
}

func (a *app) Close() {
	if err := a.repo.Close(); err != nil {
		a.log.Error().Err(err).Msg("Closing database failed")
	}
}

// syncer builds the bounty syncer. Profile metadata is only fetched from
// the platforms when enabled.
func (a *app) syncer() *bounty.Syncer {
	var scraper bounty.Scraper = bounty.MockScraper{}
	if a.cfg.BountyFetchMetadata {
		scraper = bounty.NewOpenGraphScraper(scraper, a.log)
	}
	return bounty.NewSyncer(a.repo, scraper, a.log)
}
