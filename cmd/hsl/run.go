package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/opal-lang/hsl/runtime/executor"
	"github.com/opal-lang/hsl/runtime/snapshot"
	"github.com/spf13/cobra"
)

type runFlags struct {
	mode      string
	budget    int64
	output    string
	watch     bool
	telemetry bool
}

func newRunCmd(g *globalFlags) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run <script | ->",
		Short: "Run a script",
		Long: `Run a script and report diagnostics and test results.

With --output cbor, stdout receives a canonical CBOR snapshot of the run
instead of the text report. Script output from print() goes to stderr in
that case so the snapshot stays decodable.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.output != "text" && flags.output != "cbor" {
				return &CLIError{Message: fmt.Sprintf("unsupported output %q", flags.output), Hint: "Use --output text or --output cbor"}
			}
			if flags.watch {
				if args[0] == "-" {
					return &CLIError{Message: "--watch needs a script file, not stdin"}
				}
				return watchScript(cmd.Context(), args[0], cmd.ErrOrStderr(), func() error {
					return runOnce(cmd, g, flags, args[0])
				})
			}
			return runOnce(cmd, g, flags, args[0])
		},
	}
	cmd.Flags().StringVar(&flags.mode, "mode", "", "Execution mode: execute, validate or strict (default from config)")
	cmd.Flags().Int64Var(&flags.budget, "budget", -1, "Maximum evaluation steps, 0 for unlimited (default from config)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "text", "Output format: text or cbor")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "Re-run the script whenever it changes")
	cmd.Flags().BoolVar(&flags.telemetry, "telemetry", false, "Print run metrics after the report")
	return cmd
}

func runOnce(cmd *cobra.Command, g *globalFlags, flags *runFlags, path string) error {
	source, name, err := readScript(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	var extra []executor.Option
	if flags.mode != "" {
		mode, ok := executor.ParseMode(flags.mode)
		if !ok {
			return &CLIError{Message: fmt.Sprintf("unknown mode %q", flags.mode), Hint: "Use execute, validate or strict"}
		}
		extra = append(extra, executor.WithMode(mode))
	}
	if flags.budget >= 0 {
		extra = append(extra, executor.WithMaxSteps(flags.budget))
	}
	if flags.telemetry || flags.output == "cbor" {
		extra = append(extra, executor.WithTelemetry(executor.TelemetryTiming))
	}
	extra = append(extra, executor.WithSourceName(name))
	if flags.output == "cbor" {
		extra = append(extra, executor.WithOutput(cmd.ErrOrStderr()))
	}

	opts, err := g.executorOptions(cmd, scriptDir(path), extra...)
	if err != nil {
		return err
	}
	e := executor.New(opts...)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	// Strict mode errors are in result.Diagnostics as well.
	result, _ := e.Run(ctx, source)

	if flags.output == "cbor" {
		if _, err := snapshot.Take(name, source, result).WriteTo(cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		if result.OK() && result.FailedTests() == 0 {
			return nil
		}
		return &scriptFailure{diagnostics: len(result.Diagnostics), failedTests: result.FailedTests()}
	}

	failure := FormatResult(cmd.ErrOrStderr(), result, g.useColor(cmd.ErrOrStderr()))
	if flags.telemetry {
		printTelemetry(cmd.ErrOrStderr(), result.Telemetry)
	}
	return failure
}

func printTelemetry(w io.Writer, t *executor.Telemetry) {
	if t == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "tokens=%d comments=%d statements=%d locals=%d steps=%d\n",
		t.Tokens, t.Comments, t.Statements, t.ResolvedLocals, t.Steps)
	for _, p := range t.Phases {
		_, _ = fmt.Fprintf(w, "  %-12s %s\n", p.Phase, p.Duration)
	}
}

// readScript reads the script at path, or stdin when path is "-".
func readScript(stdin io.Reader, path string) (source, name string, err error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("error reading stdin: %w", err)
		}
		return string(data), "<stdin>", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("error opening file %s: %w", path, err)
	}
	return string(data), path, nil
}

// scriptDir is where the project file for path is searched.
func scriptDir(path string) string {
	if path == "-" {
		return "."
	}
	return filepath.Dir(path)
}
