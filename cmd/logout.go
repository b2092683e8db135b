package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cmmoran/gatecp/internal/descriptor"
	"github.com/cmmoran/gatecp/internal/logout"
	"github.com/cmmoran/gatecp/internal/portal"
)

func init() {
	var (
		descriptorPath string
		skipProbes     bool
	)
	cmd := &cobra.Command{
		Use:   "logout-trace",
		Short: "Walk the logout cascade for a descriptor and print every hop",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(descriptorPath)
			if err != nil {
				return err
			}
			desc, err := descriptor.Parse(raw)
			if err != nil {
				return err
			}
			cfg := portal.DefaultConfig()
			cfg.ApplyDescriptor(desc)
			m := logout.New(logout.Config{
				PortalURL:   cfg.PortalURL,
				IdentityURL: cfg.KeycloakURL,
				Realm:       cfg.Realm,
				ClientID:    cfg.ClientID,
				SkipProbes:  skipProbes,
			}, logout.Targets(desc), logout.NewHTTPProber(cfg.ProbeConnectTimeout, cfg.ProbeRequestTimeout, ""))

			out := cmd.OutOrStdout()
			for i, hop := range m.Simulate(context.Background(), "") {
				for _, s := range hop.Skipped {
					_, _ = fmt.Fprintf(out, "    skip %s (%s)\n", s.ID, s.URL)
				}
				_, _ = fmt.Fprintf(out, "%d. %s\n", i+1, hop.Location)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&descriptorPath, "descriptor", "d", "dist/descriptor.json", "Descriptor file")
	cmd.Flags().BoolVar(&skipProbes, "skip-probes", false, "Do not probe services; go straight to end-session")
	rootCmd.AddCommand(cmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the descriptor JSON schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write(descriptor.Schema())
			return err
		},
	})
}
