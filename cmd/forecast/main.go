package main

import (
	"fmt"
	"log"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/forecastlab/montecore/internal/config"
	"github.com/forecastlab/montecore/internal/engine"
	"github.com/spf13/cobra"
)

// simpleCLILogger implements logging.Logger using the standard log
// package, mirroring the teacher's cmd/rpgo simpleCLILogger.
type simpleCLILogger struct{}

func (simpleCLILogger) Debugf(format string, args ...any) { log.Printf("DEBUG: "+format, args...) }
func (simpleCLILogger) Infof(format string, args ...any)  { log.Printf("INFO: "+format, args...) }
func (simpleCLILogger) Warnf(format string, args ...any)  { log.Printf("WARN: "+format, args...) }
func (simpleCLILogger) Errorf(format string, args ...any) { log.Printf("ERROR: "+format, args...) }

var (
	version = "dev"
	commit  = "none"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "forecast %s (commit %s)\n", version, commit)
		},
	}
}

func runCmd() *cobra.Command {
	var configPath string
	var trialIndex int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single trial and print its snapshot, tax-record, and ledger summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			eng, err := engine.NewTrial(cfg, trialIndex, simpleCLILogger{})
			if err != nil {
				return err
			}
			result, err := eng.RunTrial()
			if err != nil {
				return err
			}
			printSummary(result)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the YAML trial configuration")
	cmd.Flags().IntVarP(&trialIndex, "trial", "t", 0, "trial index (seeds the RNG deterministically)")
	cmd.MarkFlagRequired("config")
	return cmd
}

func printSummary(result *engine.Result) {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("8"))

	fmt.Println(titleStyle.Render(fmt.Sprintf("Trial summary: %d months, %d tax years, %d ledger entries",
		len(result.Snapshots), len(result.TaxRecords), len(result.Ledger))))

	if len(result.Snapshots) > 0 {
		last := result.Snapshots[len(result.Snapshots)-1]
		fmt.Println(headerStyle.Render(fmt.Sprintf("Final balances (%s):", last.Month)))
		for name, balance := range last.Balances {
			fmt.Printf("  %-20s %s\n", name, balance.StringFixed(2))
		}
	}

	fmt.Println(headerStyle.Render("Tax records:"))
	for _, r := range result.TaxRecords {
		fmt.Printf("  %d: AGI=%s taxable=%s total_tax=%s effective_rate=%s withdrawal_rate=%s\n",
			r.Year, r.AGI.StringFixed(2), r.TaxableIncome.StringFixed(2), r.TotalTax.StringFixed(2),
			r.EffectiveRate.StringFixed(4), r.WithdrawalRate.StringFixed(4))
	}
}

func main() {
	root := &cobra.Command{
		Use:   "forecast",
		Short: "Run a single-trial Monte Carlo personal-finance forecast",
		Long: "forecast exercises the forecasting core's single-trial contract end to end: " +
			"load a YAML configuration, run one deterministic trial, and print its snapshot, " +
			"tax-record, and ledger summary. The outer N-trial runner, percentile aggregation, " +
			"and chart rendering are out of scope and are not implemented here.",
	}
	root.AddCommand(versionCmd(), runCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
