package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shnth-control/control"
	"shnth-control/event"
	"shnth-control/flash"
	"shnth-control/sim"
)

type fakeRuntime struct {
	posted  []event.Event
	updates chan struct{}
	status  sim.Status
}

func (f *fakeRuntime) Post(ev event.Event) bool {
	f.posted = append(f.posted, ev)
	return true
}

func (f *fakeRuntime) Updates() <-chan struct{} { return f.updates }

func (f *fakeRuntime) Status() sim.Status { return f.status }

func newTestModel() (Model, *fakeRuntime, *sim.Hardware) {
	rt := &fakeRuntime{updates: make(chan struct{}, 1)}
	hw := sim.NewHardware(4, 8, 4)
	return NewModel(rt, hw, nil, nil), rt, hw
}

func press(m Model, keys ...tea.KeyMsg) Model {
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBarKeysTogglePressure(t *testing.T) {
	m, rt, _ := newTestModel()

	press(m, runes("s"), runes("s"))

	assert.Equal(t, []event.Event{
		event.ShnthBar{Bar: 1, Pressure: 127},
		event.ShnthBar{Bar: 1, Pressure: 0},
	}, rt.posted)
}

func TestButtonKeysToggleButtons(t *testing.T) {
	m, rt, _ := newTestModel()

	press(m, runes("3"), runes("3"), runes("8"))

	assert.Equal(t, []event.Event{
		event.ShnthButton{Button: 2, Pressed: true},
		event.ShnthButton{Button: 2, Pressed: false},
		event.ShnthButton{Button: 7, Pressed: true},
	}, rt.posted)
}

func TestGridCursorAndPress(t *testing.T) {
	m, rt, _ := newTestModel()

	m = press(m, runes("l"), runes("l"), runes("j"), runes("h"), tea.KeyMsg{Type: tea.KeyLeft}, tea.KeyMsg{Type: tea.KeyLeft})
	m = press(m, tea.KeyMsg{Type: tea.KeySpace})

	assert.Equal(t, 0, m.cursorX)
	assert.Equal(t, 1, m.cursorY)
	assert.Equal(t, []event.Event{
		event.GridKeyPressed{X: 0, Y: 1, Pressed: true},
		event.GridKeyPressed{X: 0, Y: 1, Pressed: false},
	}, rt.posted)
}

func TestModuleKeys(t *testing.T) {
	m, rt, _ := newTestModel()

	press(m, tea.KeyMsg{Type: tea.KeyEnter}, runes("S"), runes("]"), runes("{"), runes("c"))

	assert.Equal(t, []event.Event{
		event.FrontButtonPressed{Pressed: true},
		event.FrontButtonPressed{Pressed: false},
		event.FrontButtonHeld{},
		event.ArcEncoderCoarse{Encoder: 0, Delta: 1},
		event.ArcEncoderCoarse{Encoder: 1, Delta: -1},
		event.ClockTick{Phase: true},
	}, rt.posted)
}

func TestQuit(t *testing.T) {
	m, rt, _ := newTestModel()

	next, cmd := m.Update(runes("q"))

	require.NotNil(t, cmd)
	assert.Empty(t, rt.posted)
	assert.Empty(t, next.(Model).View())
}

func TestViewShowsHardwareState(t *testing.T) {
	m, rt, hw := newTestModel()
	ctrl := control.New(hw, flash.NewMemory(), nil)
	_, err := ctrl.Boot(context.Background())
	require.NoError(t, err)
	rt.status = sim.Status{Selected: 2, Name: "drone"}

	view := m.View()

	assert.Contains(t, view, "shnth-control")
	assert.Contains(t, view, "slot 2 drone")
	assert.Contains(t, view, "cv3")
	assert.Contains(t, view, "front button")
}
