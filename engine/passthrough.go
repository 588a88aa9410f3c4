// Package engine holds engines the host can run behind the controller.
package engine

import (
	"shnth-control/control"
	"shnth-control/debug"
	"shnth-control/event"
	"shnth-control/hardware"
	"shnth-control/preset"
)

const (
	gridCols = 16
	gridRows = 8
	arcLEDs  = 64

	paramStep = 64
)

// Null ignores every event.
type Null struct{}

func (Null) Handle(event.Event, *preset.Session) control.Output { return control.Output{} }

// Passthrough maps incoming events straight onto outputs:
//
//	MIDI note      gate 0, CV 0 = note << 7
//	MIDI CC n      CV (n mod cvs) = value << 7
//	aftertouch     last CV channel
//	clock tick     gate 1 follows the phase
//	grid key       toggles a cell
//	arc encoder    nudges Params[encoder]
//	front press    next preset
//	front hold     save
type Passthrough struct {
	cvs     int
	presets int
	cells   [gridRows][gridCols]bool
}

// NewPassthrough creates a passthrough engine for a module with cvs CV
// outputs and presets slots.
func NewPassthrough(cvs, presets int) *Passthrough {
	if cvs < 1 {
		cvs = 1
	}
	if presets < 1 {
		presets = 1
	}
	return &Passthrough{cvs: cvs, presets: presets}
}

func (p *Passthrough) Handle(ev event.Event, s *preset.Session) control.Output {
	switch e := ev.(type) {
	case event.MIDINote:
		out := control.Output{Gates: []control.GateWrite{{Index: 0, On: e.On}}}
		if e.On {
			out.CV = []control.CVWrite{{Channel: 0, Value: uint16(e.Note&0x7F) << 7}}
		}
		return out

	case event.MIDICC:
		ch := uint8(int(e.Control) % p.cvs)
		return control.Output{CV: []control.CVWrite{{Channel: ch, Value: uint16(e.Value&0x7F) << 7}}}

	case event.MIDIAftertouch:
		ch := uint8(p.cvs - 1)
		return control.Output{CV: []control.CVWrite{{Channel: ch, Value: uint16(e.Value&0x7F) << 7}}}

	case event.ClockTick:
		return control.Output{Gates: []control.GateWrite{{Index: 1, On: e.Phase}}}

	case event.GridKeyPressed:
		if !e.Pressed || int(e.X) >= gridCols || int(e.Y) >= gridRows {
			return control.Output{}
		}
		p.cells[e.Y][e.X] = !p.cells[e.Y][e.X]
		return control.Output{GridDirty: true}

	case event.GridConnected:
		return control.Output{GridDirty: e.Connected}

	case event.ArcEncoderCoarse:
		if int(e.Encoder) >= preset.ParamCount {
			return control.Output{}
		}
		d := s.Data
		d.Params[e.Encoder] = nudge(d.Params[e.Encoder], int(e.Delta)*paramStep)
		return control.Output{Data: &d, ArcDirty: true}

	case event.FrontButtonPressed:
		if !e.Pressed {
			return control.Output{}
		}
		next := (s.Selected + 1) % p.presets
		return control.Output{Select: &next}

	case event.FrontButtonHeld:
		return control.Output{Save: true}

	default:
		debug.LogEvery(64, "dispatch", "passthrough ignores %s", ev.Kind())
		return control.Output{}
	}
}

// Cell reports whether a grid cell is toggled on.
func (p *Passthrough) Cell(x, y int) bool {
	if x < 0 || x >= gridCols || y < 0 || y >= gridRows {
		return false
	}
	return p.cells[y][x]
}

// RenderGrid lights toggled cells fully and marks the selected preset in the
// last column.
func (p *Passthrough) RenderGrid(g hardware.Grid, s *preset.Session) {
	g.ClearGrid()
	for y := range p.cells {
		for x, on := range p.cells[y] {
			if on {
				g.SetGridLED(x, y, 15)
			}
		}
	}
	if s.Selected < gridRows && !p.cells[s.Selected][gridCols-1] {
		g.SetGridLED(gridCols-1, s.Selected, 4)
	}
	g.RefreshGrid()
}

// RenderArc draws Params[0..3] as a filled ring per encoder.
func (p *Passthrough) RenderArc(a hardware.Arc, s *preset.Session) {
	a.ClearArc()
	for enc := 0; enc < 4; enc++ {
		lit := int(s.Data.Params[enc]) * arcLEDs / (hardware.CVMax + 1)
		for led := 0; led < lit; led++ {
			a.SetArcLED(enc, led, 10)
		}
	}
	a.RefreshArc()
}

func nudge(v uint16, delta int) uint16 {
	n := int(v) + delta
	if n < 0 {
		return 0
	}
	if n > hardware.CVMax {
		return hardware.CVMax
	}
	return uint16(n)
}
