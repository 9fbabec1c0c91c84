package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"crimescape.app/dna/internal/queue"
)

func newRecomputeCmd(root *rootFlags) *cobra.Command {
	var async bool
	cmd := &cobra.Command{
		Use:   "recompute <family-id>",
		Short: "Rebuild a family's intelligence from its incidents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			familyID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid family id %q", args[0])
			}

			ctx := cmd.Context()
			a, _, err := openApp(ctx, root)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if async {
				if a.Producer == nil {
					return fmt.Errorf("--async needs REDIS_URL")
				}
				if err := a.Producer.EnqueueRecompute(ctx, queue.RecomputeMessage{
					FamilyID: familyID,
					Reason:   queue.ReasonManual,
				}); err != nil {
					return err
				}
				fmt.Fprintf(out, "recompute of family %d queued\n", familyID)
				return nil
			}

			family, err := a.Services.Intelligence().Refresh(ctx, familyID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Family %d (%s): %d case(s), risk %s\n", family.ID, family.Label, len(family.Cases), family.Risk)
			for _, line := range family.Insights {
				fmt.Fprintf(out, "  - %s\n", line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&async, "async", false, "enqueue for the worker instead of running now")
	return cmd
}
