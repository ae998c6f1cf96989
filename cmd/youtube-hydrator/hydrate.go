package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/plexutils/youtube-hydrator/pkg/fetch"
	"github.com/plexutils/youtube-hydrator/pkg/hydrate"
	"github.com/plexutils/youtube-hydrator/pkg/ratelimit"
	"github.com/plexutils/youtube-hydrator/pkg/youtube"
)

var (
	hydrateFile     string
	hydrateChannels bool
)

var hydrateCmd = &cobra.Command{
	Use:   "hydrate [ids...]",
	Short: "Resolve YouTube IDs to metadata records",
	Long: `Hydrate resolves video IDs (or channel IDs with --channels) to metadata
records and prints them to stdout as newline-delimited JSON, one record
per input ID in input order.

IDs come from arguments, from --file (one ID per line, # starts a
comment), or from stdin when neither is given. Records cached within
the TTL are served without an API call, and each API batch is admitted
against the quota window before it goes out.`,
	RunE: runHydrate,
}

func init() {
	hydrateCmd.Flags().StringVarP(&hydrateFile, "file", "f", "", "read IDs from this file, one per line")
	hydrateCmd.Flags().BoolVar(&hydrateChannels, "channels", false, "treat IDs as channel IDs")
	rootCmd.AddCommand(hydrateCmd)
}

func runHydrate(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(true); err != nil {
		return err
	}
	logger := setupLogging(cfg)

	ids, err := collectIDs(cmd, args)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return errors.New("no IDs given: pass them as arguments, via --file, or on stdin")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		srv := startMetricsServer(cfg.MetricsAddr, logger)
		defer srv.Close()
	}

	store, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	svc, err := youtube.NewService(ctx, youtube.ServiceConfig{
		HTTPClient: fetch.NewHTTPClient(cfg.APIKey, 30*time.Second),
	})
	if err != nil {
		return err
	}

	var source fetch.Source
	if hydrateChannels {
		source = youtube.NewChannelSource(svc)
	} else {
		source = youtube.NewVideoSource(svc)
	}
	source = fetch.CapBatch(source, cfg.BatchSize)

	limiter := ratelimit.New(ratelimit.Config{
		Budget: cfg.QuotaBudget,
		Window: cfg.QuotaWindow.Std(),
	}, logger)

	pipe, err := hydrate.New(hydrate.Config{
		Source:      source,
		Cache:       store,
		Limiter:     limiter,
		TTL:         cfg.CacheTTL.Std(),
		Concurrency: cfg.Concurrency,
		Retry:       fetch.RetryConfig{MaxAttempts: cfg.MaxRetries},
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	result, runErr := pipe.Hydrate(ctx, ids)

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, rec := range result.Records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	return runErr
}

// collectIDs gathers IDs from arguments, --file, and stdin, in that order.
// Stdin is only read when the other two yield nothing.
func collectIDs(cmd *cobra.Command, args []string) ([]string, error) {
	ids := append([]string(nil), args...)

	if hydrateFile != "" {
		f, err := os.Open(hydrateFile)
		if err != nil {
			return nil, fmt.Errorf("open id file: %w", err)
		}
		defer f.Close()

		fromFile, err := readIDLines(f)
		if err != nil {
			return nil, fmt.Errorf("read id file: %w", err)
		}
		ids = append(ids, fromFile...)
	}

	if len(ids) == 0 {
		fromStdin, err := readIDLines(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		ids = fromStdin
	}

	return ids, nil
}

// readIDLines parses one ID per line, skipping blanks and # comments.
func readIDLines(r io.Reader) ([]string, error) {
	var ids []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	return ids, scanner.Err()
}
