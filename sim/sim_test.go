package sim

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shnth-control/control"
	"shnth-control/event"
	"shnth-control/flash"
	"shnth-control/hardware"
	"shnth-control/preset"
)

func TestDrawStrPlacesText(t *testing.T) {
	hw := NewHardware(4, 8, 4)

	hw.ClearScreen()
	hw.DrawStr("AB", 3, 2, 0)
	hw.DrawStr("C", 3, 5, 0)
	hw.DrawStr("ignored", 9, 0, 0)
	assert.Empty(t, hw.State().Screen[3], "not committed yet")

	hw.RefreshScreen()
	state := hw.State()
	assert.Equal(t, "  AB C", state.Screen[3])
	assert.Equal(t, 1, state.ScreenFrames)
}

func TestDrawStrClipsAtRightEdge(t *testing.T) {
	hw := NewHardware(4, 8, 4)

	hw.DrawStr("0123456789", 0, ScreenCols-4, 0)
	hw.RefreshScreen()

	assert.Len(t, hw.State().Screen[0], ScreenCols)
}

func TestDrawStrCountsColumnsInRunes(t *testing.T) {
	hw := NewHardware(4, 8, 4)

	hw.DrawStr("héllo→x", 0, 1, 0)
	hw.DrawStr("Z", 0, 8, 0)
	hw.DrawStr("ééééé", 1, ScreenCols-2, 0)
	hw.RefreshScreen()

	state := hw.State()
	assert.Equal(t, " héllo→xZ", state.Screen[0])
	assert.Equal(t, ScreenCols, utf8.RuneCountInString(state.Screen[1]))
	assert.True(t, strings.HasSuffix(state.Screen[1], "éé"))
}

func TestOutputsOutOfRangeAreTracedButDropped(t *testing.T) {
	hw := NewHardware(2, 8, 2)

	hw.SetCV(5, 100)
	hw.SetGate(3, true)
	hw.SetCV(0, 0xFFFF)

	state := hw.State()
	assert.Equal(t, []uint16{hardware.CVMax, 0}, state.CV)
	assert.Equal(t, []bool{false, false}, state.Gates)
	assert.Equal(t, []string{"set_cv 5 100", "set_gate 3 on", "set_cv 0 16383"}, hw.Trace())
}

func TestGridAndArcCommitOnRefresh(t *testing.T) {
	hw := NewHardware(4, 8, 4)

	hw.SetGridLED(1, 1, 9)
	hw.SetGridLED(99, 1, 9)
	hw.SetArcLED(2, 10, 0xFF)
	assert.Zero(t, hw.State().Grid[1][1])

	hw.RefreshGrid()
	hw.RefreshArc()

	state := hw.State()
	assert.Equal(t, uint8(9), state.Grid[1][1])
	assert.Equal(t, uint8(15), state.Arc[2][10])
	assert.Equal(t, []string{"refresh_grid lit=1", "refresh_arc"}, hw.Trace())

	hw.ResetTrace()
	assert.Empty(t, hw.Trace())
	assert.Equal(t, uint8(9), hw.State().Grid[1][1])
}

type gridEngine struct{}

func (gridEngine) Handle(ev event.Event, _ *preset.Session) control.Output {
	if _, ok := ev.(event.GridKeyPressed); ok {
		return control.Output{GridDirty: true}
	}
	if _, ok := ev.(event.FrontButtonHeld); ok {
		return control.Output{Save: true}
	}
	return control.Output{}
}

func (gridEngine) RenderGrid(g hardware.Grid, _ *preset.Session) {
	g.ClearGrid()
	g.SetGridLED(0, 0, 15)
	g.RefreshGrid()
}

func bootedRuntime(t *testing.T) (*Runtime, *Hardware, *flash.Memory) {
	t.Helper()
	hw := NewHardware(4, 8, 4)
	m := flash.NewMemory()
	ctrl := control.New(hw, m, gridEngine{})
	_, err := ctrl.Boot(context.Background())
	require.NoError(t, err)
	return NewRuntime(ctrl, hw), hw, m
}

func TestRuntimeDeliversPostedEvents(t *testing.T) {
	rt, hw, _ := bootedRuntime(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rt.Run(ctx)

	require.True(t, rt.Post(event.ShnthBar{Bar: 2, Pressure: 64}))

	require.Eventually(t, func() bool {
		return hw.State().CV[2] == 64<<7
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, rt.Status().Stats.ByKind[event.KindShnthBar])
}

func TestRuntimeFiresScreenTimer(t *testing.T) {
	rt, hw, _ := bootedRuntime(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rt.Run(ctx)

	require.Eventually(t, func() bool {
		return hw.State().ScreenFrames >= 3
	}, 2*time.Second, 10*time.Millisecond)

	cursor := rt.Status().Cursor
	assert.GreaterOrEqual(t, cursor, 0)
	assert.Less(t, cursor, control.ScreenLineCount)
}

func TestRuntimeRefreshesDirtyGrid(t *testing.T) {
	rt, hw, _ := bootedRuntime(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rt.Run(ctx)

	rt.Post(event.GridKeyPressed{X: 1, Y: 1, Pressed: true})

	require.Eventually(t, func() bool {
		return hw.State().GridFrames == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, uint8(15), hw.State().Grid[0][0])
}

func TestRuntimeFlushesDeferredSave(t *testing.T) {
	rt, _, m := bootedRuntime(t)
	writes := m.Writes()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rt.Run(ctx)

	rt.Post(event.FrontButtonHeld{})

	require.Eventually(t, func() bool {
		return m.Writes() == writes+2
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, rt.Status().FlushErrors)
}

func TestRuntimeStopsOnCancel(t *testing.T) {
	rt, _, _ := bootedRuntime(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		rt.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runtime did not stop")
	}
}
