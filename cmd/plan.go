package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cmmoran/gatecp/internal/reconcile"
	"github.com/cmmoran/gatecp/internal/swarm"
	"github.com/cmmoran/gatecp/internal/util"
)

var planJSON bool

func init() {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute changes without applying",
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
			if planJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(pl)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "PLAN %s (revision %s)\n", pl.Deployment, util.Short(pl.Revision))
			pl.Diff.Print(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().BoolVar(&planJSON, "json", false, "Output plan as JSON")
	rootCmd.AddCommand(cmd)
}

// planWith compiles the project and diffs it against what cli reports.
func planWith(ctx context.Context, cli swarm.Client) (*reconcile.Reconciler, *reconcile.Plan, error) {
	p, err := loadProject()
	if err != nil {
		return nil, nil, err
	}
	_, files, err := p.compile(ctx, time.Time{})
	if err != nil {
		return nil, nil, err
	}
	rec := reconcile.New(cli)
	pl, err := rec.Plan(ctx, p.settings().DeploymentID, files)
	if err != nil {
		return nil, nil, err
	}
	return rec, pl, nil
}
