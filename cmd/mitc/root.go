package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/mitc/internal/api"
	"github.com/jackzampolin/mitc/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "mitc",
	Short: "Extract and compare home-loan terms from bank MITC PDFs",
	Long: `mitc reads Most Important Terms and Conditions (MITC) documents for
home loans and turns them into comparable, evidence-backed records.

  - Uploaded PDFs go to a multimodal model which extracts seven key fields
    with page-number and quote evidence
  - Two or more extracted banks can be compared field by field, each cell
    marked SAME, DIFF, MISSING or SUSPECT
  - Comparisons export to XLSX workbooks`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.mitc/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "mitc home directory (default: ~/.mitc)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
