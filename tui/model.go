package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"shnth-control/event"
	"shnth-control/hardware"
	"shnth-control/midi"
	"shnth-control/sim"
	"shnth-control/theme"
	"shnth-control/widgets"
)

// Runtime is the part of sim.Runtime the panel drives.
type Runtime interface {
	Post(ev event.Event) bool
	Updates() <-chan struct{}
	Status() sim.Status
}

const (
	barCount    = 4
	buttonCount = 8
)

var barKeys = map[string]uint8{"a": 0, "s": 1, "d": 2, "f": 3}

var keyHelp = []widgets.KeySection{
	{Title: "shnth", Keys: []widgets.KeyBinding{
		{Key: "a s d f", Desc: "toggle pressure on bars 0-3"},
		{Key: "1-8", Desc: "toggle buttons 0-7"},
		{Key: "z", Desc: "antenna wiggle"},
	}},
	{Title: "grid / arc", Keys: []widgets.KeyBinding{
		{Key: "hjkl", Desc: "move grid cursor"},
		{Key: "space", Desc: "press grid key"},
		{Key: "[ ] { }", Desc: "turn arc rings 0 and 1"},
	}},
	{Title: "module", Keys: []widgets.KeyBinding{
		{Key: "enter", Desc: "front button (next preset)"},
		{Key: "S", Desc: "hold front button (save)"},
		{Key: "c", Desc: "clock tick"},
		{Key: "q", Desc: "quit"},
	}},
}

type Model struct {
	Runtime Runtime
	HW      *sim.Hardware
	MIDI    *midi.Manager // may be nil
	Theme   *theme.Theme

	bars    [barCount]bool
	buttons [buttonCount]bool
	cursorX int
	cursorY int
	phase   bool
	antenna uint8

	quitting bool
}

type UpdateMsg struct{}

func NewModel(rt Runtime, hw *sim.Hardware, mm *midi.Manager, th *theme.Theme) Model {
	if th == nil {
		th = theme.New(nil)
	}
	return Model{
		Runtime: rt,
		HW:      hw,
		MIDI:    mm,
		Theme:   th,
	}
}

func ListenForUpdates(rt Runtime) tea.Cmd {
	return func() tea.Msg {
		<-rt.Updates()
		return UpdateMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return ListenForUpdates(m.Runtime)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		if key == "q" || key == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		for _, ev := range m.keyEvents(key) {
			m.Runtime.Post(ev)
		}

	case UpdateMsg:
		if m.MIDI != nil {
			m.MIDI.ShowGrid(m.HW.State().Grid)
		}
		return m, ListenForUpdates(m.Runtime)
	}

	return m, nil
}

// keyEvents maps a key to the events a player's hand would have produced.
func (m *Model) keyEvents(key string) []event.Event {
	if bar, ok := barKeys[key]; ok {
		m.bars[bar] = !m.bars[bar]
		var pressure uint8
		if m.bars[bar] {
			pressure = 127
		}
		return []event.Event{event.ShnthBar{Bar: bar, Pressure: pressure}}
	}

	switch key {
	case "1", "2", "3", "4", "5", "6", "7", "8":
		b := key[0] - '1'
		m.buttons[b] = !m.buttons[b]
		return []event.Event{event.ShnthButton{Button: b, Pressed: m.buttons[b]}}

	case "z":
		m.antenna += 17
		return []event.Event{event.ShnthAntenna{Antenna: 0, Value: m.antenna}}

	case "h", "left":
		if m.cursorX > 0 {
			m.cursorX--
		}
	case "l", "right":
		if m.cursorX < sim.GridCols-1 {
			m.cursorX++
		}
	case "k", "up":
		if m.cursorY > 0 {
			m.cursorY--
		}
	case "j", "down":
		if m.cursorY < sim.GridRows-1 {
			m.cursorY++
		}

	case " ":
		x, y := uint8(m.cursorX), uint8(m.cursorY)
		return []event.Event{
			event.GridKeyPressed{X: x, Y: y, Pressed: true},
			event.GridKeyPressed{X: x, Y: y, Pressed: false},
		}

	case "[":
		return []event.Event{event.ArcEncoderCoarse{Encoder: 0, Delta: -1}}
	case "]":
		return []event.Event{event.ArcEncoderCoarse{Encoder: 0, Delta: 1}}
	case "{":
		return []event.Event{event.ArcEncoderCoarse{Encoder: 1, Delta: -1}}
	case "}":
		return []event.Event{event.ArcEncoderCoarse{Encoder: 1, Delta: 1}}

	case "enter":
		return []event.Event{
			event.FrontButtonPressed{Pressed: true},
			event.FrontButtonPressed{Pressed: false},
		}
	case "S":
		return []event.Event{event.FrontButtonHeld{}}

	case "c":
		m.phase = !m.phase
		return []event.Event{event.ClockTick{External: false, Phase: m.phase}}
	}
	return nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	state := m.HW.State()
	status := m.Runtime.Status()

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	screenStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.Theme.Muted()).
		Foreground(m.Theme.FG()).
		Width(sim.ScreenCols)

	name := status.Name
	if name == "" {
		name = "untitled"
	}
	midiStatus := ""
	if m.MIDI != nil {
		if in, lp := m.MIDI.Connected(); in != "" || lp {
			midiStatus = "  midi:" + in
			if lp {
				midiStatus += " +grid"
			}
		}
	}
	header := headerStyle.Render(fmt.Sprintf("shnth-control  slot %d %s  events:%d unmapped:%d%s",
		status.Selected, name, status.Stats.Dispatched, status.Stats.Unmapped, midiStatus))

	screen := screenStyle.Render(strings.Join(state.Screen[:], "\n"))

	var outputs strings.Builder
	for ch, v := range state.CV {
		outputs.WriteString(fmt.Sprintf("cv%d %s %5d\n", ch, widgets.RenderMeter(m.Theme, v, hardware.CVMax, 16), v))
	}
	outputs.WriteString("gates " + widgets.RenderGates(m.Theme, state.Gates))

	rows := make([][]uint8, len(state.Grid))
	for y := range state.Grid {
		rows[y] = state.Grid[y][:]
	}
	grid := widgets.RenderGrid(m.Theme, rows)

	var arc strings.Builder
	for enc := range state.Arc {
		arc.WriteString(widgets.RenderRing(m.Theme, state.Arc[enc][:], 4))
		arc.WriteString("\n")
	}

	cursor := dimStyle.Render(fmt.Sprintf("cursor %d,%d", m.cursorX, m.cursorY))
	help := dimStyle.Render(widgets.RenderKeyHelp(keyHelp))

	top := lipgloss.JoinHorizontal(lipgloss.Top, screen, "  ", outputs.String())
	bottom := lipgloss.JoinHorizontal(lipgloss.Top, grid, "   ", arc.String())

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(top)
	out.WriteString("\n\n")
	out.WriteString(bottom)
	out.WriteString("\n")
	out.WriteString(cursor)
	out.WriteString("\n\n")
	out.WriteString(help)
	return out.String()
}
