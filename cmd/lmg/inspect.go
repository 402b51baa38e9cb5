package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/theapemachine/lmg"
)

var circuitHeader string

var circuitCmd = &cobra.Command{
	Use:   "circuit <clique> <theta>...",
	Short: "Print the Jaqal program measuring one clique",
	Example: `  lmg circuit 1 0.5
  lmg circuit 3 1.0 0.25`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("clique must be a number: %w", err)
		}

		params := make([]float64, 0, len(args)-1)
		for _, arg := range args[1:] {
			v, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return fmt.Errorf("bad angle %q: %w", arg, err)
			}
			params = append(params, v)
		}

		circuit, junk, err := lmg.Clique(id).Build(params, len(params))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprint(out, circuit.Jaqal(circuitHeader))
		if len(junk) > 0 {
			fmt.Fprintf(out, "// junk outcomes: %v\n", junk)
		}
		return nil
	},
}

var ledgerRun string

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "List runs in the ledger, or the results of one run",
	RunE: func(cmd *cobra.Command, args []string) error {
		if config.Ledger == "" {
			return fmt.Errorf("no ledger configured")
		}

		ledger, err := lmg.OpenLedger(cmd.Context(), config.Ledger)
		if err != nil {
			return err
		}
		defer ledger.Close()

		out := cmd.OutOrStdout()

		if ledgerRun == "" {
			runs, err := ledger.Runs(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, strings.Join(runs, "\n"))
			return nil
		}

		records, err := ledger.Results(cmd.Context(), ledgerRun)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "COMMAND\tBACKEND\tQUBITS\tPOINT\tCLIQUE\tPARAMETERS\tPROBABILITIES")
		for _, rec := range records {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%v\t%.4f\n",
				rec.Command, rec.Backend, rec.Qubits, rec.Point, rec.Clique, rec.Parameters, []float64(rec.Probabilities))
		}
		return tw.Flush()
	},
}

func init() {
	circuitCmd.Flags().StringVar(&circuitHeader, "pulses", "", "Pulse definitions module for a usepulses header")
	ledgerCmd.Flags().StringVar(&ledgerRun, "run", "", "Run id to show")
}
