package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cmmoran/gatecp/internal/descriptor"
	"github.com/cmmoran/gatecp/internal/portal"
)

func init() {
	var (
		envFile        string
		descriptorPath string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the portal server that drives the logout cascade",
		Long: "Configuration comes from the environment, optionally seeded from --env-file.\n" +
			"The descriptor is read from " + descriptor.EnvDescriptorJSON + " or " + descriptor.EnvDescriptorPath + ".",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := portal.LoadConfig(envFile, nil)
			if err != nil {
				return err
			}
			getenv := os.Getenv
			if descriptorPath != "" {
				getenv = func(k string) string {
					if k == descriptor.EnvDescriptorPath {
						return descriptorPath
					}
					if k == descriptor.EnvDescriptorJSON {
						return ""
					}
					return os.Getenv(k)
				}
			}
			desc, err := descriptor.Load(getenv)
			if err != nil {
				return err
			}
			cfg.ApplyDescriptor(desc)
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return portal.NewServer(cfg, desc).ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Dotenv file to seed the environment from; a missing file is ignored")
	cmd.Flags().StringVar(&descriptorPath, "descriptor", "", "Descriptor file, overriding the environment")
	rootCmd.AddCommand(cmd)
}
