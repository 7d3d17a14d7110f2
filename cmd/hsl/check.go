package main

import (
	"context"
	"fmt"

	"github.com/opal-lang/hsl/runtime/executor"
	"github.com/spf13/cobra"
)

func newCheckCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check <script | ->",
		Short: "Check a script without touching the host",
		Long: `Run a script in validate mode: native functions are not called and
print() output is discarded. Every diagnostic is reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, name, err := readScript(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			opts, err := g.executorOptions(cmd, scriptDir(args[0]),
				executor.WithMode(executor.ModeValidate),
				executor.WithSourceName(name),
			)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			result, _ := executor.New(opts...).Run(ctx, source)
			if err := FormatResult(cmd.ErrOrStderr(), result, g.useColor(cmd.ErrOrStderr())); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", name)
			return nil
		},
	}
}
