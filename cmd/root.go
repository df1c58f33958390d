package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/entity-intel/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "entity-intel",
	Short: "Evidence-grounded entity enrichment pipeline",
	Long:  "Enriches a person or company identifier into a structured intelligence profile: plans targeted queries, fans them out to search/scrape/crawl providers, and constrains a single synthesis call to the collected evidence.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
