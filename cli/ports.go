package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"shnth-control/midi"
)

// portScanTimeout bounds the driver query; CoreMIDI can hang indefinitely.
const portScanTimeout = 3 * time.Second

// PortReport is what the ports command prints.
type PortReport struct {
	Inputs    []string `json:"inputs"`
	Outputs   []string `json:"outputs"`
	Selected  string   `json:"selected,omitempty"`
	Launchpad bool     `json:"launchpad"`
}

// NewPortsCommand creates the ports command.
func NewPortsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List MIDI ports and the input run would pick",
		Long: `List MIDI input and output ports. The input that "shnth run" would
connect (per midi.inputPort and midi.autoConnect) is marked, as is a
Launchpad used as the grid.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}

			type result struct{ ins, outs []string }
			ch := make(chan result, 1)
			go func() {
				ins, outs := midi.PortNames()
				ch <- result{ins, outs}
			}()

			var r result
			select {
			case r = <-ch:
			case <-time.After(portScanTimeout):
				return NewExitError(ExitFailure, "MIDI driver did not answer (on macOS: sudo killall coreaudiod midiserver)")
			}

			report := buildPortReport(r.ins, r.outs, cfg.MIDI.InputPort, cfg.MIDI.AutoConnect)
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), report)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Inputs:")
			for i, name := range report.Inputs {
				fmt.Fprintf(out, "  %s %d: %s\n", portMark(name, report.Selected), i, name)
			}
			fmt.Fprintln(out, "Outputs:")
			for i, name := range report.Outputs {
				fmt.Fprintf(out, "    %d: %s\n", i, name)
			}
			if report.Launchpad {
				fmt.Fprintln(out, "Launchpad found: grid available")
			}
			return nil
		},
	}
}

func buildPortReport(ins, outs []string, want string, auto bool) PortReport {
	report := PortReport{Inputs: ins, Outputs: outs}
	if report.Inputs == nil {
		report.Inputs = []string{}
	}
	if report.Outputs == nil {
		report.Outputs = []string{}
	}
	if i := midi.ChooseInput(ins, want, auto); i >= 0 {
		report.Selected = ins[i]
	}
	for _, name := range ins {
		if midi.IsLaunchpad(name) {
			report.Launchpad = true
		}
	}
	return report
}

func portMark(name, selected string) string {
	if name == selected {
		return "*"
	}
	return " "
}
