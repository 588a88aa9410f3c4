package control

import (
	"shnth-control/event"
	"shnth-control/hardware"
	"shnth-control/preset"
)

// Engine implements the instrument's behaviour. The controller hands it every
// event the control layer does not handle itself and applies what it returns.
type Engine interface {
	Handle(ev event.Event, s *preset.Session) Output
}

// GridRenderer is implemented by engines that draw on a grid.
type GridRenderer interface {
	RenderGrid(g hardware.Grid, s *preset.Session)
}

// ArcRenderer is implemented by engines that draw on an arc.
type ArcRenderer interface {
	RenderArc(a hardware.Arc, s *preset.Session)
}

// CVWrite sets one CV channel.
type CVWrite struct {
	Channel uint8
	Value   uint16
}

// GateWrite sets one gate output.
type GateWrite struct {
	Index uint8
	On    bool
}

// Output is what an engine asks the controller to do after an event.
type Output struct {
	CV    []CVWrite
	Gates []GateWrite

	GridDirty bool
	ArcDirty  bool

	// Data replaces the resident preset data when non-nil.
	Data *preset.Data
	// Save requests a deferred SaveCurrent.
	Save bool
	// Select requests a deferred SelectPreset.
	Select *int
}

// Empty reports whether o asks for nothing.
func (o Output) Empty() bool {
	return len(o.CV) == 0 && len(o.Gates) == 0 && !o.GridDirty && !o.ArcDirty &&
		o.Data == nil && !o.Save && o.Select == nil
}

type nullEngine struct{}

func (nullEngine) Handle(event.Event, *preset.Session) Output { return Output{} }
