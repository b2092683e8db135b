package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cmmoran/gatecp/internal/logging"
)

// rootCmd represents the base command when called without any subcommands
var (
	driver      string
	projectPath string
	logLevel    string
	logFormat   string
	rootCmd     = &cobra.Command{
		Use:          "gatecp",
		Short:        "compile and publish an authenticated service gateway",
		SilenceUsage: true,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		logging.Setup(logging.Config{Level: logLevel, Format: logFormat, Output: cmd.ErrOrStderr()})
	}
	rootCmd.PersistentFlags().StringVarP(&projectPath, "project", "p", ".", "Path to the directory holding stack.yaml")
	rootCmd.PersistentFlags().StringVar(&driver, "driver", "noop", "Backend driver: docker|noop")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text|json")
}
