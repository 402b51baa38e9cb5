// Package main implements the lmg command line: EGO ansatz sweeps over the
// emulator and noise model, and hardware batch preparation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/theapemachine/lmg"
)

var (
	configPath string
	verbose    bool

	config *lmg.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "lmg",
	Short: "Variational EGO ansatz experiments for the LMG model",
	Long: `lmg builds the reduced-unary EGO ansatz for 1 to 3 qubits, measures its
cliques on an emulator or noise model, and writes probability and sampled
bitstring data for analysis.

Settings come from --config (YAML) and LMG_* environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = lmg.NewLogger(os.Stderr, verbose)
		log.SetDefault(logger)

		var err error
		config, err = lmg.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(pointCmd)
	rootCmd.AddCommand(gridCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(circuitCmd)
	rootCmd.AddCommand(ledgerCmd)
}

// withRunner runs fn with a runner built from the loaded config.
func withRunner(cmd *cobra.Command, fn func(ctx context.Context, r *lmg.Runner) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	runner, err := lmg.NewRunner(ctx, config, logger)
	if err != nil {
		return err
	}
	defer runner.Close()

	return fn(ctx, runner)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
