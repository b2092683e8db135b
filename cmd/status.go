package cmd

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/cmmoran/gatecp/internal/status"
	"github.com/cmmoran/gatecp/internal/swarm"
)

func init() {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what is published for the deployment and any pending changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cli, err := swarmClient()
			if err != nil {
				return err
			}
			defer func() { _ = cli.Close() }()

			_, pl, err := planWith(ctx, cli)
			if err != nil {
				return err
			}
			owned, err := cli.ListOwned(ctx, swarm.OwnerLabels(pl.Deployment))
			if err != nil {
				return err
			}
			drift := ""
			if !pl.Diff.Empty() {
				drift = pl.Diff.Summary()
			}
			r := status.Build(pl.Deployment, owned, drift)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(r)
			}
			status.PrintReport(cmd.OutOrStdout(), r)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output status as JSON")
	rootCmd.AddCommand(cmd)
}
