package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"shnth-control/preset"
)

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Write default presets to flash",
		Long: `Overwrite every preset slot, the shared block and the selected index
with defaults. This is what the module does on first boot.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return NewExitError(ExitCommandError, "reset erases every preset; pass --yes to confirm")
			}
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			medium, err := cfg.OpenFlash()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open flash", err)
			}
			defer medium.Close()

			store := preset.NewStore(medium, cfg.Topology.Presets)
			if err := store.InitializeDefaults(cmd.Context()); err != nil {
				return WrapExitError(ExitFailure, "reset failed", err)
			}

			summary := map[string]any{"backend": cfg.Flash.Backend, "presets": store.PresetCount()}
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), summary)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote defaults to %d slots (%s)\n", store.PresetCount(), cfg.Flash.Backend)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")

	return cmd
}
