package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cmmoran/gatecp/internal/compile"
	"github.com/cmmoran/gatecp/internal/validate"
)

func init() {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate stack.yaml against every rule and report all problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, c, err := compile.Load(projectPath)
			if err != nil {
				return err
			}
			res := validate.Validate(d, c)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res.Errors); err != nil {
					return err
				}
			} else {
				for _, e := range res.Errors {
					_, _ = fmt.Fprintln(out, e.Error())
				}
			}
			if !res.Valid {
				return fmt.Errorf("deployment declaration has %d validation error(s)", len(res.Errors))
			}
			if !asJSON {
				_, _ = fmt.Fprintf(out, "deployment OK: %d service(s), %d user(s)\n", len(res.Config.Services), len(res.Config.Users))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output errors as JSON")
	rootCmd.AddCommand(cmd)
}
