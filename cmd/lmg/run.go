package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/theapemachine/lmg"
)

var (
	gridQubits  int
	batchQubits int
	emulate     bool
)

var pointCmd = &cobra.Command{
	Use:   "point",
	Short: "Measure every clique at the point parameters for 1, 2 and 3 qubits",
	Long: `Runs each clique of the 1-, 2- and 3-qubit ansatz at the configured point
parameters, with post-selection when enabled, and writes
probability_data_{n}_qubits.json and measurement_data_{n}_qubits.json.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunner(cmd, func(ctx context.Context, r *lmg.Runner) error {
			dir, err := r.Point(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		})
	},
}

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Sample every clique across the parameter grid",
	Long: `Samples each clique at every grid point for one qubit count and writes one
file per point, numbered from 1.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		n := config.GridQubits
		if cmd.Flags().Changed("qubits") {
			n = gridQubits
		}

		return withRunner(cmd, func(ctx context.Context, r *lmg.Runner) error {
			dir, err := r.Grid(ctx, n)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		})
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Write hardware Jaqal programs and batch tables for the grid",
	RunE: func(cmd *cobra.Command, args []string) error {
		n := config.GridQubits
		if cmd.Flags().Changed("qubits") {
			n = batchQubits
		}

		return withRunner(cmd, func(ctx context.Context, r *lmg.Runner) error {
			dir, err := r.Batch(ctx, n, emulate)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		})
	},
}

func init() {
	gridCmd.Flags().IntVarP(&gridQubits, "qubits", "n", 1, "Number of qubits (default from config)")
	batchCmd.Flags().IntVarP(&batchQubits, "qubits", "n", 1, "Number of qubits (default from config)")
	batchCmd.Flags().BoolVar(&emulate, "emulate", false, "Also run the batch on the configured backend")
}
