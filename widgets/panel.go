package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"shnth-control/theme"
)

// RenderLED renders one LED at a 4-bit level
func RenderLED(th *theme.Theme, level uint8) string {
	if level == 0 {
		return lipgloss.NewStyle().Foreground(th.Muted()).Render(string(th.Symbols.LEDOff))
	}
	return lipgloss.NewStyle().Foreground(th.Level(level)).Render(string(th.Symbols.LEDLit))
}

// RenderGrid renders a grid of LED levels, row 0 at the top
func RenderGrid(th *theme.Theme, rows [][]uint8) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		var line strings.Builder
		for x, level := range row {
			if x > 0 {
				line.WriteString(" ")
			}
			line.WriteString(RenderLED(th, level))
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// RenderRing renders one arc encoder ring as a strip, compressing every
// step LEDs into one cell at their brightest level
func RenderRing(th *theme.Theme, ring []uint8, step int) string {
	if step < 1 {
		step = 1
	}
	var out strings.Builder
	for i := 0; i < len(ring); i += step {
		var level uint8
		for j := i; j < i+step && j < len(ring); j++ {
			if ring[j] > level {
				level = ring[j]
			}
		}
		out.WriteString(RenderLED(th, level))
	}
	return out.String()
}

// RenderMeter renders a CV value as a horizontal bar of width cells
func RenderMeter(th *theme.Theme, value, max uint16, width int) string {
	if width < 1 || max == 0 {
		return ""
	}
	filled := int(value) * width / int(max)
	if filled > width {
		filled = width
	}
	full := lipgloss.NewStyle().Foreground(th.Accent()).Render(strings.Repeat(string(th.Symbols.MeterFull), filled))
	empty := lipgloss.NewStyle().Foreground(th.Muted()).Render(strings.Repeat(string(th.Symbols.MeterEmpty), width-filled))
	return full + empty
}

// RenderGates renders gate outputs as a row of indicators
func RenderGates(th *theme.Theme, gates []bool) string {
	cells := make([]string, len(gates))
	for i, on := range gates {
		if on {
			cells[i] = lipgloss.NewStyle().Foreground(th.Accent()).Render(string(th.Symbols.GateOn))
		} else {
			cells[i] = lipgloss.NewStyle().Foreground(th.Muted()).Render(string(th.Symbols.GateOff))
		}
	}
	return strings.Join(cells, " ")
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
