package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/portfolio/backend/internal/app"
	"github.com/portfolio/backend/internal/portfolio"
	"github.com/portfolio/backend/internal/storage"
	"github.com/portfolio/backend/pkg/config"
	"github.com/portfolio/backend/pkg/logger"
)

var (
	cfg     *config.Config
	rootCmd = &cobra.Command{
		Use:   "portfolioctl",
		Short: "Maintenance commands for the portfolio backend",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			// Keep stdout for command output.
			return logger.Init(cfg.Logging.Level, "console", "stderr")
		},
		SilenceUsage: true,
	}
)

func main() {
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withService opens the configured store for the duration of fn.
func withService(fn func(svc *portfolio.Service) error) error {
	store, err := app.OpenStore(cfg.Storage)
	if err != nil {
		return err
	}
	defer func(s storage.Store) { _ = s.Close() }(store)

	return fn(portfolio.NewService(store))
}
