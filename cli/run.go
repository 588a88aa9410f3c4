package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"shnth-control/control"
	"shnth-control/debug"
	"shnth-control/engine"
	"shnth-control/midi"
	"shnth-control/sim"
	"shnth-control/theme"
	"shnth-control/tui"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Palette string
	NoMIDI  bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Boot the module and open the panel",
		Long: `Boot the module from flash and drive it from the terminal panel.

MIDI inputs and a Launchpad (as the grid) are picked up as they are
plugged in unless --no-midi is given.

Examples:
  shnth run
  shnth run --palette palettes/plasma.gpl
  shnth run --config ./bench.json --no-midi`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPanel(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Palette, "palette", "", "GIMP palette (.gpl) for LED colours")
	cmd.Flags().BoolVar(&opts.NoMIDI, "no-midi", false, "do not scan for MIDI devices")

	return cmd
}

func runPanel(ctx context.Context, opts *RunOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	var palette *theme.Palette
	if opts.Palette != "" {
		palette, err = theme.LoadGPL(opts.Palette)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load palette", err)
		}
	}

	medium, err := cfg.OpenFlash()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open flash", err)
	}
	defer medium.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	topo := cfg.Topology
	hw := sim.NewHardware(topo.Gates, topo.Presets, topo.CVs)
	ctrl := control.New(hw, medium, engine.NewPassthrough(topo.CVs, topo.Presets))
	ctrl.SetScreenPeriod(uint16(cfg.ScreenRefreshMS))

	fresh, err := ctrl.Boot(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "boot failed", err)
	}
	debug.Log("cli", "booted slot %d (fresh=%v)", ctrl.Session().Selected, fresh)

	rt := sim.NewRuntime(ctrl, hw)
	go rt.Run(ctx)

	var mm *midi.Manager
	if !opts.NoMIDI {
		mm = midi.NewManager(rt, cfg.MIDI.InputPort, cfg.MIDI.AutoConnect)
		go mm.Run(ctx)
	}

	m := tui.NewModel(rt, hw, mm, theme.New(palette))
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return WrapExitError(ExitFailure, "panel exited", err)
	}

	if n := rt.Status().FlushErrors; n > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d preset writes failed", n))
	}
	return nil
}
