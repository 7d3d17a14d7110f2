package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/opal-lang/hsl/runtime/executor"
	"github.com/spf13/cobra"
)

func newTokensCmd(g *globalFlags) *cobra.Command {
	var comments bool
	cmd := &cobra.Command{
		Use:   "tokens <script | ->",
		Short: "Print the token stream of a script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, name, err := readScript(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			opts, err := g.executorOptions(cmd, scriptDir(args[0]), executor.WithSourceName(name))
			if err != nil {
				return err
			}

			tokens, found, diags := executor.New(opts...).Tokens(source)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, tok := range tokens {
				_, _ = fmt.Fprintf(w, "%d:%d\t%s\t%q\n", tok.Position.Line, tok.Position.Column, tok.Type, tok.Lexeme)
			}
			if comments {
				for _, c := range found {
					_, _ = fmt.Fprintf(w, "%d:%d\tCOMMENT\t%q\n", c.Position.Line, c.Position.Column, c.Text)
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}

			useColor := g.useColor(cmd.ErrOrStderr())
			for _, d := range diags {
				FormatDiagnostic(cmd.ErrOrStderr(), d, useColor)
			}
			if len(diags) > 0 {
				return &scriptFailure{diagnostics: len(diags)}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&comments, "comments", false, "Also print comments")
	return cmd
}
