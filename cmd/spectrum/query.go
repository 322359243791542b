// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tomtom215/shopper-spectrum/internal/pipeline"
	"github.com/tomtom215/shopper-spectrum/internal/segment"
)

// withBundle runs fn against a stored bundle. version 0 is the latest.
func (a *app) withBundle(ctx context.Context, version int, fn func(*pipeline.Bundle) error) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeLogged("artifacts", store)

	b, _, err := pipeline.LoadBundle(ctx, store, version)
	if err != nil {
		return fmt.Errorf("%w (run 'spectrum train' first)", err)
	}
	return fn(b)
}

func (a *app) recommendCmd() *cobra.Command {
	var (
		topN    int
		version int
	)
	cmd := &cobra.Command{
		Use:   "recommend <product>",
		Short: "Print the products most similar to a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withBundle(cmd.Context(), version, func(b *pipeline.Bundle) error {
				items, err := b.Recommend(args[0], topN)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "RANK\tPRODUCT\tSIMILARITY")
				for i, it := range items {
					fmt.Fprintf(tw, "%d\t%s\t%.4f\n", i+1, it.Product, it.Score)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().IntVarP(&topN, "top", "n", 5, "number of recommendations")
	cmd.Flags().IntVar(&version, "model-version", 0, "bundle version (0 = latest)")
	return cmd
}

func (a *app) segmentCmd() *cobra.Command {
	var (
		recency, frequency, monetary float64
		version                      int
	)
	cmd := &cobra.Command{
		Use:   "segment",
		Short: "Predict the customer segment of an RFM triple",
		Example: `  spectrum segment --recency 12 --frequency 30 --monetary 2400
  spectrum segment -r 300 -f 1 -m 15`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range []string{"recency", "frequency", "monetary"} {
				if !cmd.Flags().Changed(name) {
					return fmt.Errorf("--%s is required", name)
				}
			}
			if recency < 0 || frequency < 0 {
				return errors.New("recency and frequency must be non-negative")
			}
			return a.withBundle(cmd.Context(), version, func(b *pipeline.Bundle) error {
				var p segment.Point
				p[segment.DimRecency] = recency
				p[segment.DimFrequency] = frequency
				p[segment.DimMonetary] = monetary
				cluster, label := b.PredictSegment(p)
				fmt.Fprintf(cmd.OutOrStdout(), "cluster %d: %s\n", cluster, label)
				return nil
			})
		},
	}
	cmd.Flags().Float64VarP(&recency, "recency", "r", 0, "days since last purchase")
	cmd.Flags().Float64VarP(&frequency, "frequency", "f", 0, "number of purchases")
	cmd.Flags().Float64VarP(&monetary, "monetary", "m", 0, "total spend")
	cmd.Flags().IntVar(&version, "model-version", 0, "bundle version (0 = latest)")
	return cmd
}

func (a *app) artifactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "Inspect stored model bundles",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the latest version of every stored artifact",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer closeLogged("artifacts", store)

			metas, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tVERSION\tRUN\tTRAINED\tCUSTOMERS\tPRODUCTS\tCLUSTERS")
			for _, m := range metas {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%d\t%d\n",
					m.Name, m.Version, m.RunID, m.TrainedAt.Format("2006-01-02 15:04"), m.Customers, m.Products, m.Clusters)
			}
			return tw.Flush()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the clusters of the latest bundle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withBundle(cmd.Context(), 0, func(b *pipeline.Bundle) error {
				printBundle(cmd.OutOrStdout(), b)
				return nil
			})
		},
	})
	return cmd
}
