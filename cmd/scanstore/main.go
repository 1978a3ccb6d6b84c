/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/a11yscan/scanstore/config"
	"github.com/a11yscan/scanstore/datastore/decorators"
	"github.com/a11yscan/scanstore/identifier"
	"github.com/a11yscan/scanstore/partitionkey"
)

// app carries what the commands share. Configuration, logger and backend are
// set up on first use, so commands that need none of them never touch them.
type app struct {
	configPath  string
	metricsFile string

	cfg       *config.Config
	logger    *zap.Logger
	backend   *backend
	collector *decorators.Collector
	ids       *identifier.Generator
}

func newApp() *app {
	return &app{ids: identifier.NewGenerator()}
}

func (a *app) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)

	a.cfg = cfg
	a.logger = logger
	return cfg, nil
}

func (a *app) partitionKeys() (*partitionkey.Factory, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	return partitionkey.NewFactory(partitionkey.WithBucketCount(cfg.Partitioning.BucketCount)), nil
}

func (a *app) open(ctx context.Context) (*backend, error) {
	if a.backend != nil {
		return a.backend, nil
	}

	cfg, err := a.config()
	if err != nil {
		return nil, err
	}

	b, err := openBackend(ctx, cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s backend: %w", cfg.Backend, err)
	}
	a.backend = b
	return b, nil
}

func (a *app) metrics() (*decorators.Collector, error) {
	if a.collector == nil {
		cfg, err := a.config()
		if err != nil {
			return nil, err
		}
		a.collector = decorators.NewCollector(cfg.Metrics.Namespace)
	}
	return a.collector, nil
}

func (a *app) close() {
	if a.metricsFile != "" && a.collector != nil {
		if err := prometheus.WriteToTextfile(a.metricsFile, a.collector.Registry()); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to write metrics: %v\n", err)
		}
	}
	if a.backend != nil {
		a.backend.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "scanstore",
		Short: "scanstore CLI - scan document storage",
		Long: `scanstore stores websites, pages and their accessibility scans in
memory, DynamoDB or PostgreSQL, colocating related documents by partition key.

Examples:
  # Derive the partition key of a page
  scanstore partition-key page 0190f5c2-7d1e-7b7a-9c4e-3f1a2b3c4d5e

  # Mint a page id under a website
  scanstore new-id --parent 0190f5c2-7d1e-7b7a-9c4e-3f1a2b3c4d5e

  # Stream every document matching a query as JSON lines
  scanstore --config scanstore.yaml query "SELECT * FROM c"`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Configuration file (YAML)")
	root.PersistentFlags().StringVar(&a.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	root.AddCommand(
		newVersionCommand(),
		newPartitionKeyCommand(a),
		newIDCommand(a),
		newGetCommand(a),
		newQueryCommand(a),
		newWebsiteCommand(a),
		newPageCommand(a),
	)
	return root
}

func main() {
	a := newApp()
	err := newRootCommand(a).Execute()
	a.close()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
