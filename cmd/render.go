package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cmmoran/gatecp/internal/compile"
	"github.com/cmmoran/gatecp/internal/descriptor"
)

func init() {
	var (
		outDir    string
		stamp     bool
		inlineEnv bool
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Compile the deployment and write every artifact to a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			p, err := loadProject()
			if err != nil {
				return err
			}
			var at time.Time
			if stamp {
				at = time.Now()
			}
			res, files, err := p.compile(ctx, at)
			if err != nil {
				return err
			}
			dir := outDir
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(p.decl.Dir, dir)
			}
			if err := compile.Write(dir, files); err != nil {
				return err
			}
			for _, f := range files {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-6s %s\n", f.Kind, filepath.Join(dir, filepath.FromSlash(f.Name)))
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "rendered %d artifact(s)\n", len(files))
			if inlineEnv {
				b, err := descriptor.MarshalCompact(res.Descriptor)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", descriptor.EnvDescriptorJSON, b)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "dist", "Output directory, relative to the project")
	cmd.Flags().BoolVar(&inlineEnv, "inline-env", false, "Also print the descriptor as a "+descriptor.EnvDescriptorJSON+" line")
	cmd.Flags().BoolVar(&stamp, "stamp", false, "Record the current time as deployedAt in the descriptor")
	rootCmd.AddCommand(cmd)
}
