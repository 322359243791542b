// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tomtom215/shopper-spectrum/internal/pipeline"
	"github.com/tomtom215/shopper-spectrum/internal/retail"
)

func (a *app) trainCmd() *cobra.Command {
	var (
		input string
		k     int
	)
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a model bundle from a transaction CSV",
		Long: `Clean the transaction export, build RFM profiles, fit k-means segments,
build the product similarity matrix and save the result as the next bundle
version. Report tables are written to DuckDB when database.write_reports is set.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if input != "" {
				a.cfg.Data.InputPath = input
			}
			if k > 0 {
				a.cfg.Training.K = k
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer closeLogged("duckdb", db)

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeLogged("artifacts", store)

			holder := pipeline.NewHolder(nil)
			svc := a.trainingService(db, store, holder)
			b, err := svc.RunOnce(ctx)
			if err != nil {
				return explainTrainError(err)
			}
			printBundle(cmd.OutOrStdout(), b)
			if res := svc.LastResult(); res != nil && res.DBSCAN != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "\nDBSCAN (eps %.2f, min samples %d): %d clusters, %d noise points\n",
					a.cfg.Training.DBSCAN.Eps, a.cfg.Training.DBSCAN.MinSamples, res.DBSCAN.Clusters, res.DBSCAN.Noise)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "transaction CSV (overrides data.input_path)")
	cmd.Flags().IntVarP(&k, "clusters", "k", 0, "number of clusters (overrides training.k)")
	return cmd
}

// explainTrainError prefixes domain failures with the stage that raised them.
func explainTrainError(err error) error {
	switch {
	case errors.Is(err, retail.ErrDataIntegrity):
		return fmt.Errorf("input data rejected: %w", err)
	case errors.Is(err, retail.ErrEmptyInput):
		return fmt.Errorf("nothing to train on: %w", err)
	case errors.Is(err, retail.ErrClustering):
		return fmt.Errorf("segmentation failed: %w", err)
	default:
		return err
	}
}

func printBundle(w io.Writer, b *pipeline.Bundle) {
	info := b.Info()
	seg := b.Segmenter()

	fmt.Fprintf(w, "Model version %d (run %s)\n", info.Version, info.RunID)
	fmt.Fprintf(w, "  rows: %d read, %d dropped, %d kept\n", info.Clean.Input, info.Clean.Dropped(), info.Clean.Kept)
	fmt.Fprintf(w, "  customers: %d  products: %d  inertia: %.3f\n\n", info.Customers, info.Products, seg.Inertia())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CLUSTER\tLABEL\tRECENCY\tFREQUENCY\tMONETARY\tSIZE")
	labels := seg.LabelClusters()
	sizes := seg.ClusterSizes()
	for i, c := range seg.Centroids() {
		size := "-"
		if sizes != nil {
			size = fmt.Sprint(sizes[i])
		}
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%.1f\t%.2f\t%s\n", i, labels[i], c[0], c[1], c[2], size)
	}
	_ = tw.Flush()
}
