// Command hsl runs, checks and explores HSL scripts.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/opal-lang/hsl/core/config"
	"github.com/opal-lang/hsl/runtime/executor"
	"github.com/spf13/cobra"
)

// Exit codes
const (
	ExitSuccess     = 0
	ExitScriptError = 1 // diagnostics or failed tests
	ExitUsage       = 2 // bad flags, unreadable files, invalid config
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	debug      bool
	noColor    bool
}

func main() {
	root := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		var failed *scriptFailure
		if errors.As(err, &failed) {
			os.Exit(ExitScriptError)
		}
		FormatError(os.Stderr, err, ShouldUseColor(false))
		os.Exit(ExitUsage)
	}
	os.Exit(ExitSuccess)
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "hsl [command]",
		Short:         "Run and inspect HSL scripts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to hsl.yaml/toml/json (default: search the script's directory)")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging on stderr")
	root.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		newRunCmd(flags),
		newCheckCmd(flags),
		newTokensCmd(flags),
		newReplCmd(flags),
	)
	return root
}

// scriptFailure reports that a script ran but produced diagnostics or
// failing tests. They have already been printed.
type scriptFailure struct {
	diagnostics int
	failedTests int
}

func (f *scriptFailure) Error() string {
	return fmt.Sprintf("%d diagnostic(s), %d failed test(s)", f.diagnostics, f.failedTests)
}

// loadConfig returns the explicit config, else the project file next to
// dir, else the defaults.
func (g *globalFlags) loadConfig(dir string) (*config.Config, error) {
	if g.configPath != "" {
		return config.Load(g.configPath)
	}
	path, err := config.Find(dir)
	if errors.Is(err, config.ErrNotFound) {
		return config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// executorOptions combines the project config with command-level options.
// Later options win, so extra overrides whatever the config sets.
func (g *globalFlags) executorOptions(cmd *cobra.Command, dir string, extra ...executor.Option) ([]executor.Option, error) {
	cfg, err := g.loadConfig(dir)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	opts = append(opts, executor.WithOutput(cmd.OutOrStdout()))
	if g.debug {
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
		opts = append(opts, executor.WithLogger(logger))
	}
	return append(opts, extra...), nil
}

func (g *globalFlags) useColor(w io.Writer) bool {
	if w != os.Stdout && w != os.Stderr {
		return false
	}
	return ShouldUseColor(g.noColor)
}
