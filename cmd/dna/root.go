package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootFlags struct {
	rulesFile string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "dna",
		Short: "Fraud-family DNA: fingerprint, link and profile scam reports",
		Long: "dna fingerprints scam reports, links them into fraud families and\n" +
			"keeps each family's risk profile current.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	cmd.PersistentFlags().StringVar(&flags.rulesFile, "rules", "", "engine rules YAML (overrides DNA_RULES_FILE)")

	cmd.AddCommand(newClassifyCmd(flags))
	cmd.AddCommand(newScoreCmd(flags))
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newSeedCmd(flags))
	cmd.AddCommand(newRecomputeCmd(flags))
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
