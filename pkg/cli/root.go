// Package cli implements the calcore command line: inspection of the
// assembled calculator, one-shot evaluation, catalog export and a REPL.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/funvibe/calcore/internal/config"
	"github.com/funvibe/calcore/internal/logger"
	calcore "github.com/funvibe/calcore/pkg/embed"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	Format     string // "json" | "text"
	Color      string // "auto" | "always" | "never"

	// Dir is where the calcore.yaml search starts; the working directory
	// when empty.
	Dir string

	cfg    *config.Config
	logger *slog.Logger
}

var (
	ValidFormats = []string{"text", "json"}
	validColors  = []string{"auto", "always", "never"}
)

// NewRootCommand creates the root command for the calcore CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "calcore",
		Short: "calcore - typed value and dispatch core",
		Long: `Inspect and exercise the calcore calculator: its types, conversions,
coercions, operators and overloaded library functions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to calcore.yaml (default: nearest calcore.yaml)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error), overrides the config")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Color, "color", "auto", "colorize text output (auto|always|never)")

	cmd.AddCommand(NewTypesCommand(opts))
	cmd.AddCommand(NewOpsCommand(opts))
	cmd.AddCommand(NewFuncsCommand(opts))
	cmd.AddCommand(NewEvalCommand(opts))
	cmd.AddCommand(NewCallCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewReplCommand(opts))

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// setup validates the global flags, loads the configuration and installs
// the logger.
func (o *RootOptions) setup() error {
	if !slices.Contains(ValidFormats, o.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", o.Format, ValidFormats)
	}
	if !slices.Contains(validColors, o.Color) {
		return fmt.Errorf("invalid color %q: must be one of %v", o.Color, validColors)
	}

	dir := o.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		dir = wd
	}
	cfg, err := config.Resolve(o.ConfigPath, dir)
	if err != nil {
		return err
	}
	o.cfg = cfg

	level := cfg.Log.Level
	if o.LogLevel != "" {
		level = o.LogLevel
	}
	l, err := logger.Setup(logger.Config{Level: level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	o.logger = l
	l.Debug("cli.config", "name", cfg.Name, "groups", cfg.Groups)
	return nil
}

// calculator assembles a calculator from the loaded configuration.
func (o *RootOptions) calculator() (*calcore.Calculator, error) {
	cfg := o.cfg
	if cfg == nil {
		cfg = config.Default()
	}
	l := o.logger
	if l == nil {
		l = logger.L()
	}
	return calcore.New(calcore.WithConfig(cfg), calcore.WithLogger(l))
}
