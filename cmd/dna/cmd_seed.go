package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"crimescape.app/dna/internal/service"
)

type seedFile struct {
	Incidents []seedIncident `yaml:"incidents"`
}

type seedIncident struct {
	RawText    string    `yaml:"raw_text"`
	Platform   string    `yaml:"platform"`
	Phone      string    `yaml:"phone"`
	URL        string    `yaml:"url"`
	Location   string    `yaml:"location"`
	ReportedAt time.Time `yaml:"reported_at"`
}

func parseSeed(data []byte) ([]service.SubmitIncidentParams, error) {
	var doc seedFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	out := make([]service.SubmitIncidentParams, 0, len(doc.Incidents))
	for i, inc := range doc.Incidents {
		if inc.RawText == "" {
			return nil, fmt.Errorf("incident %d: raw_text is required", i)
		}
		out = append(out, service.SubmitIncidentParams{
			RawText:    inc.RawText,
			Platform:   inc.Platform,
			Phone:      inc.Phone,
			URL:        inc.URL,
			Location:   inc.Location,
			ReportedAt: inc.ReportedAt,
		})
	}
	return out, nil
}

func newSeedCmd(root *rootFlags) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Submit the incidents of a YAML file in order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading seed file: %w", err)
			}
			params, err := parseSeed(data)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, _, err := openApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.Close()

			incidents := a.Services.Incidents()
			out := cmd.OutOrStdout()
			families := map[int64]bool{}
			for i, p := range params {
				res, err := incidents.ClassifyAndLink(ctx, p)
				if err != nil {
					return fmt.Errorf("incident %d: %w", i, err)
				}
				families[res.Family.ID] = true
				verb := "founded"
				if res.Linked {
					verb = "linked to"
				}
				fmt.Fprintf(out, "%3d  %-16s %-9s family %d (confidence %.2f, risk %s)\n",
					i+1, res.ScamType, verb, res.Family.ID, res.Confidence, res.Family.Risk)
			}
			fmt.Fprintf(out, "%d incidents across %d families\n", len(params), len(families))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "seed.yaml", "seed YAML with an incidents list")
	return cmd
}
