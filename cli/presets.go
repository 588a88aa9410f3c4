package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shnth-control/preset"
)

// PresetInfo is one slot as listed by the presets command.
type PresetInfo struct {
	Slot     int      `json:"slot"`
	Name     string   `json:"name"`
	Glyph    []string `json:"glyph,omitempty"`
	Selected bool     `json:"selected"`
}

// NewPresetsCommand creates the presets command.
func NewPresetsCommand(rootOpts *RootOptions) *cobra.Command {
	var glyphs bool

	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List the preset slots in flash",
		Long: `List every preset slot with its name, marking the one selected at boot.

Exit codes:
  0 - Slots listed
  1 - Flash is empty or damaged (run "shnth reset")
  2 - Command error`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			medium, err := cfg.OpenFlash()
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open flash", err)
			}
			defer medium.Close()

			ctx := cmd.Context()
			store := preset.NewStore(medium, cfg.Topology.Presets)
			if err := store.LoadAtBoot(ctx); err != nil {
				return WrapExitError(ExitFailure, "flash has no usable presets", err)
			}
			selected := store.Session().Selected

			infos := make([]PresetInfo, 0, store.PresetCount())
			for slot := 0; slot < store.PresetCount(); slot++ {
				meta, err := store.LoadMeta(ctx, slot)
				if err != nil {
					return WrapExitError(ExitFailure, fmt.Sprintf("slot %d", slot), err)
				}
				info := PresetInfo{Slot: slot, Name: meta.Name, Selected: slot == selected}
				if glyphs {
					info.Glyph = glyphRows(meta.Glyph)
				}
				infos = append(infos, info)
			}

			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), infos)
			}
			out := cmd.OutOrStdout()
			for _, info := range infos {
				mark := " "
				if info.Selected {
					mark = "*"
				}
				name := info.Name
				if name == "" {
					name = "(untitled)"
				}
				fmt.Fprintf(out, "%s %2d  %s\n", mark, info.Slot, name)
				for _, row := range info.Glyph {
					fmt.Fprintf(out, "      %s\n", row)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&glyphs, "glyphs", false, "draw each slot's 8x8 glyph")

	return cmd
}

// glyphRows draws a glyph MSB-first, one string per row.
func glyphRows(g [preset.GlyphRows]uint8) []string {
	rows := make([]string, len(g))
	for i, b := range g {
		var sb strings.Builder
		for bit := 7; bit >= 0; bit-- {
			if b&(1<<bit) != 0 {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		rows[i] = sb.String()
	}
	return rows
}
