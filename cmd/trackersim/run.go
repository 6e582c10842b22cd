package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gosight/gosight/tracker/internal/config"
	"github.com/gosight/gosight/tracker/internal/logging"
	"github.com/gosight/gosight/tracker/internal/simulate"
	"github.com/gosight/gosight/tracker/internal/storage"
	"github.com/gosight/gosight/tracker/internal/transport"
	"github.com/gosight/gosight/tracker/internal/transport/httpsender"
	"github.com/gosight/gosight/tracker/internal/transport/kafkasender"
)

var (
	format   string
	deliver  bool
	endpoint string
	verbose  bool
	timeout  time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Replay a scenario and print the captured events",
	Long: `Replay a scenario and print the captured events.

Without --deliver batches stay local. With it they go to the scenario's
transport (tracker.endpoint over HTTP, or tracker.kafka), and whatever cannot
be delivered is written to tracker.storage.`,
	Args: cobra.ExactArgs(1),
	RunE: runScenario,
}

var checkCmd = &cobra.Command{
	Use:   "check <scenario.yaml>",
	Short: "Validate a scenario without running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := simulate.Load(args[0])
		if err != nil {
			return err
		}
		if err := sc.Tracker.Validate(); err != nil {
			return fmt.Errorf("tracker config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d steps, %d rules\n", args[0], len(sc.Steps), len(sc.Rules))
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&format, "format", "f", simulate.FormatText, "Output format: text or json")
	runCmd.Flags().BoolVar(&deliver, "deliver", false, "Deliver batches through the scenario's transport")
	runCmd.Flags().StringVar(&endpoint, "endpoint", "", "Override tracker.endpoint (implies --deliver)")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log tracker activity to stderr")
	runCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall time limit")
}

func runScenario(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	sc, err := simulate.Load(args[0])
	if err != nil {
		return err
	}
	if endpoint != "" {
		sc.Tracker.Endpoint = endpoint
		deliver = true
	}

	logger := zerolog.Nop()
	if verbose {
		logging.Setup("debug")
		logger = logging.New(config.LogConfig{Enabled: true, Level: "debug"}, zerolog.ConsoleWriter{Out: os.Stderr})
	}

	opts := simulate.Options{Logger: logger}
	if deliver {
		sender, err := newSender(sc.Tracker)
		if err != nil {
			return err
		}
		defer sender.Close()
		opts.Sender = sender

		store, err := storage.Open(sc.Tracker.Storage)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer store.Close()
		opts.Store = store
	}

	res, err := simulate.Run(ctx, sc, opts)
	if err != nil {
		return err
	}
	return simulate.Write(cmd.OutOrStdout(), res, format)
}

func newSender(cfg config.Config) (transport.Sender, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Transport == config.TransportKafka {
		return kafkasender.New(cfg.Kafka), nil
	}
	return httpsender.New(cfg.Endpoint, cfg.APIKey, &http.Client{Timeout: cfg.SendTimeout()}), nil
}
