package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/plexutils/youtube-hydrator/pkg/ratelimit"
)

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show the quota window for the current configuration",
	Long: `Quota prints the configured quota window and what it buys: each API
batch costs one unit and covers up to batch-size IDs, so a full window
covers budget times batch-size uncached IDs. Fully offline.`,
	RunE: runQuota,
}

func init() {
	rootCmd.AddCommand(quotaCmd)
}

func runQuota(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(false); err != nil {
		return err
	}

	limiter := ratelimit.New(ratelimit.Config{
		Budget: cfg.QuotaBudget,
		Window: cfg.QuotaWindow.Std(),
	}, zerolog.Nop())
	st := limiter.State()

	cmd.Printf("Budget:    %d units per %s\n", st.Budget, st.Window)
	cmd.Printf("Used:      %d units (%.0f%%)\n", st.Used, st.UsageRatio()*100)
	cmd.Printf("Remaining: %d units\n", st.Remaining)
	cmd.Printf("Batch:     up to %d IDs per unit\n", cfg.BatchSize)
	cmd.Printf("Capacity:  %d uncached IDs per window\n", st.Remaining*int64(cfg.BatchSize))
	return nil
}
