// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

// Command spectrum trains and serves customer segmentation and product
// recommendation models built from retail transaction exports.
//
// # Commands
//
//	spectrum train      clean, build RFM, cluster, build similarity; save a bundle
//	spectrum serve      serve the latest bundle over HTTP, optionally retraining
//	spectrum recommend  print products similar to one product
//	spectrum segment    predict the segment of an RFM triple
//	spectrum artifacts  list stored bundles
//
// # Configuration
//
// Settings are layered with Koanf v2 (highest priority wins):
//   - Environment variables (TRAINING_K=5, SERVER_ADDR=:9090, LOG_LEVEL=debug)
//   - Config file (--config, CONFIG_PATH, or spectrum.yaml)
//   - Built-in defaults
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the command context. A running training pass
// stops at its next cancellation check; the server drains connections
// within server.shutdown_timeout.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/shopper-spectrum/internal/config"
	"github.com/tomtom215/shopper-spectrum/internal/logging"
)

var version = "dev"

// app carries state shared by all commands after PersistentPreRunE.
type app struct {
	cfgFile  string
	logLevel string
	cfg      *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "spectrum",
		Short: "Retail customer segmentation and product recommendations",
		Long: `Shopper Spectrum turns a retail transaction export into RFM customer
segments and item-based product recommendations, and serves both over HTTP.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.initConfig,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: $CONFIG_PATH or ./spectrum.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log level (trace, debug, info, warn, error)")

	root.AddCommand(a.trainCmd())
	root.AddCommand(a.serveCmd())
	root.AddCommand(a.recommendCmd())
	root.AddCommand(a.segmentCmd())
	root.AddCommand(a.artifactsCmd())
	root.AddCommand(versionCmd())
	return root
}

func (a *app) initConfig(_ *cobra.Command, _ []string) error {
	var (
		cfg *config.Config
		err error
	)
	if a.cfgFile != "" {
		cfg, err = config.LoadFile(a.cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if a.logLevel != "" {
		if !logging.ValidLevel(a.logLevel) {
			return fmt.Errorf("invalid --log-level %q", a.logLevel)
		}
		cfg.Logging.Level = a.logLevel
	}
	logging.Init(cfg.LoggingConfig())

	a.cfg = cfg
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "spectrum", version)
		},
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
