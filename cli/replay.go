package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"shnth-control/script"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Strict bool
	Quiet  bool
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <script.yaml>",
		Short: "Replay an event script against a simulated module",
		Long: `Boot a simulated module with in-memory flash, deliver the script's events
one at a time and print every hardware call they cause.

Exit codes:
  0 - Script replayed
  1 - Unmapped events with --strict
  2 - Command error (script not found or invalid)

Examples:
  shnth replay script/testdata/pressure.yaml
  shnth replay bench.yaml --strict
  shnth replay bench.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail if any event was unmapped")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "print only the summary")

	return cmd
}

func runReplay(cmd *cobra.Command, opts *ReplayOptions, path string) error {
	s, err := script.LoadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load script", err)
	}

	res, err := script.Run(cmd.Context(), s)
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}

	if opts.Format == "json" {
		if opts.Quiet {
			res.Trace = nil
		}
		if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
	} else {
		out := cmd.OutOrStdout()
		if !opts.Quiet {
			for _, line := range res.Trace {
				fmt.Fprintln(out, line)
			}
		} else {
			fmt.Fprintf(out, "%s: selected %d dispatched %d unmapped %d\n",
				displayName(res.Name, path), res.Selected, res.Dispatched, res.Unmapped)
		}
	}

	if opts.Strict && res.Unmapped > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d events unmapped", res.Unmapped, res.Dispatched))
	}
	return nil
}

func displayName(name, path string) string {
	if name != "" {
		return name
	}
	return path
}
