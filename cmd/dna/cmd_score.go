package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"crimescape.app/dna/core/config"
	"crimescape.app/dna/internal/app"
	"crimescape.app/dna/internal/dna"
)

func newScoreCmd(root *rootFlags) *cobra.Command {
	var sample, text string
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a report against a family's founding sample offline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, _, err := app.LoadEngine(config.EngineConfig{RulesFile: rulesFile(root)})
			if err != nil {
				return err
			}

			founder := engine.Fingerprint(sample)
			report := engine.Fingerprint(text)
			decision := engine.Link([]dna.Candidate{{
				FamilyID:    1,
				CoreMarkers: founder.Markers,
				SampleText:  sample,
			}}, report, text)

			out := cmd.OutOrStdout()
			sim := decision.Match.Similarity
			fmt.Fprintf(out, "Marker jaccard: %.4f\n", sim.MarkerJaccard)
			fmt.Fprintf(out, "Text cosine:    %.4f\n", sim.TextCosine)
			fmt.Fprintf(out, "Score:          %.4f\n", sim.Score)
			if founder.ScamType != report.ScamType {
				fmt.Fprintf(out, "Scam types differ (%s vs %s); the report would never be compared with this family\n",
					founder.ScamType, report.ScamType)
				return nil
			}
			if decision.Linked {
				fmt.Fprintln(out, "Decision:       link")
			} else {
				fmt.Fprintln(out, "Decision:       new family")
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&sample, "sample", "", "founding report of the family (required)")
	f.StringVar(&text, "text", "", "new report (required)")
	_ = cmd.MarkFlagRequired("sample")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}
