package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	var prune bool
	var applyCmd = &cobra.Command{
		Use:   "apply",
		Short: "Publish compiled artifacts as Swarm configs and secrets",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cli, err := swarmClient()
			if err != nil {
				return err
			}
			defer func() { _ = cli.Close() }()

			rec, pl, err := planWith(ctx, cli)
			if err != nil {
				return err
			}
			pl.Diff.Print(cmd.OutOrStdout())
			if pl.Diff.Empty() {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "nothing to apply")
				return nil
			}
			if err := rec.Apply(ctx, pl, prune); err != nil {
				return err
			}
			if !prune && len(pl.Stale) > 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d stale object(s) kept; rerun with --prune after services move to the new names\n", len(pl.Stale))
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "applied %s via %s driver\n", pl.Deployment, driver)
			return nil
		},
	}
	applyCmd.Flags().BoolVar(&prune, "prune", false, "Remove owned objects that are no longer desired")
	rootCmd.AddCommand(applyCmd)
}
