package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cmmoran/gatecp/internal/compile"
)

func init() {
	secretsCmd := &cobra.Command{
		Use:   "secrets",
		Short: "Inspect and seed the secret material a compile needs",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every secret path the deployment reads",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject()
			if err != nil {
				return err
			}
			for _, ref := range p.refs {
				where := ref.Path
				if where == "" {
					where = "(literal in stack.yaml)"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-13s %-20s %s\n", ref.Kind, ref.Owner, where)
			}
			return nil
		},
	}

	seed := &cobra.Command{
		Use:   "seed",
		Short: "Generate client and cookie secrets that do not exist yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			p, err := loadProject()
			if err != nil {
				return err
			}
			st, err := p.openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			created, err := compile.Seed(ctx, st, p.refs)
			for _, ref := range created {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created %s for %s at %s\n", ref.Kind, ref.Owner, ref.Path)
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d secret(s)\n", len(created))
			return nil
		},
	}

	secretsCmd.AddCommand(list, seed)
	rootCmd.AddCommand(secretsCmd)
}
