package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"crimescape.app/dna/core/config"
	"crimescape.app/dna/internal/app"
)

func newClassifyCmd(root *rootFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "classify <text>...",
		Short: "Fingerprint a report offline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := app.LoadEngine(config.EngineConfig{RulesFile: rulesFile(root)})
			if err != nil {
				return err
			}

			fp := engine.Fingerprint(strings.Join(args, " "))
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"scam_type": fp.ScamType,
					"markers":   fp.Markers,
				})
			}
			fmt.Fprintf(out, "Scam type: %s\n", fp.ScamType)
			fmt.Fprintf(out, "Markers:   %s\n", joinOrNone(fp.Markers))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func joinOrNone(s []string) string {
	if len(s) == 0 {
		return "(none)"
	}
	return strings.Join(s, ", ")
}
