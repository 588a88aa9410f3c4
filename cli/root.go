package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"shnth-control/config"
	"shnth-control/debug"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // config file; empty means ~/.config/shnth-control/config.json
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the shnth CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "shnth",
		Short: "shnth control layer",
		Long: `Control layer for a shnth-driven CV module: event dispatch, presets in
flash, the screen timer and grid/arc feedback, running against a simulated
panel in the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.Verbose {
				debug.EnableWriter(cmd.ErrOrStderr())
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log dispatch to stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (default ~/.config/shnth-control/config.json)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewPresetsCommand(opts))
	cmd.AddCommand(NewPortsCommand(opts))

	return cmd
}

// loadConfig reads --config, or the default config when it is unset.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.Config != "" {
		if _, statErr := os.Stat(o.Config); statErr != nil {
			return nil, WrapExitError(ExitCommandError, "config not found", statErr)
		}
		cfg, err = config.LoadFile(o.Config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if cfg.Debug && !debug.Enabled() {
		if err := debug.Enable(); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open debug log", err)
		}
	}
	return cfg, nil
}
