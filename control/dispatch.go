package control

import (
	"shnth-control/debug"
	"shnth-control/event"
)

// Dispatch is the hardware layer's event sink. Payloads that do not decode
// for their kind are counted as unmapped and otherwise ignored.
func (c *Controller) Dispatch(kind event.Kind, payload []byte) {
	ev, err := event.Decode(kind, payload)
	if err != nil {
		c.stats.Dispatched++
		c.unmapped(kind, err.Error())
		return
	}
	c.Handle(ev)
}

// Handle reacts to one event. Timer, pressure bar and pressure button events
// are handled here; antenna readings have no reaction; everything else goes
// to the engine.
func (c *Controller) Handle(ev event.Event) {
	c.stats.Dispatched++
	c.stats.ByKind[ev.Kind()]++

	switch e := ev.(type) {
	case event.TimerFired:
		c.timers.fired(e.ID)
		if e.ID == ScreenTimer {
			c.screen.Render(c.hw)
			return
		}
		c.toEngine(e)

	case event.ShnthBar:
		c.updatePressure(e.Bar, e.Pressure)

	case event.ShnthButton:
		c.updateGate(e.Button, e.Pressed)

	case event.ShnthAntenna:
		c.unmapped(e.Kind(), "no reaction")

	case event.ClockTick,
		event.ClockSwitched,
		event.GateReceived,
		event.GridConnected,
		event.GridKeyPressed,
		event.GridKeyHeld,
		event.ArcEncoderCoarse,
		event.FrontButtonPressed,
		event.FrontButtonHeld,
		event.ButtonPressed,
		event.I2CReceived,
		event.MIDIConnected,
		event.MIDINote,
		event.MIDICC,
		event.MIDIAftertouch:
		c.toEngine(e)

	default:
		c.unmapped(ev.Kind(), "unhandled variant")
	}
}

// updatePressure scales a 7-bit pressure to the 14-bit CV range.
func (c *Controller) updatePressure(bar, pressure uint8) {
	c.hw.SetCV(bar, uint16(pressure)<<7)
}

// evenButtonGates is the panel layout for modules with 4 or fewer gates:
// only buttons 0, 2, 4 and 6 have a gate.
var evenButtonGates = map[uint8]uint8{0: 0, 2: 1, 4: 2, 6: 3}

func (c *Controller) updateGate(button uint8, pressed bool) {
	gates := c.hw.GateOutputCount()
	if gates > 4 {
		if int(button) < gates {
			c.hw.SetGate(button, pressed)
			return
		}
		c.unmapped(event.KindShnthButton, "button beyond gate count")
		return
	}

	if gate, ok := evenButtonGates[button]; ok {
		c.hw.SetGate(gate, pressed)
		return
	}
	debug.LogEvery(16, "dispatch", "button %d has no gate", button)
}

func (c *Controller) toEngine(ev event.Event) {
	c.apply(c.engine.Handle(ev, c.store.Session()))
}

func (c *Controller) apply(out Output) {
	for _, w := range out.CV {
		c.hw.SetCV(w.Channel, w.Value)
	}
	for _, w := range out.Gates {
		c.hw.SetGate(w.Index, w.On)
	}
	if out.GridDirty {
		c.gridDirty = true
	}
	if out.ArcDirty {
		c.arcDirty = true
	}
	if out.Data != nil {
		c.store.UpdateData(*out.Data)
	}
	if out.Save {
		c.pendingSave = true
	}
	if out.Select != nil {
		sel := *out.Select
		c.pendingSelect = &sel
	}
}

func (c *Controller) unmapped(kind event.Kind, reason string) {
	c.stats.Unmapped++
	debug.Log("dispatch", "unmapped %s: %s", kind, reason)
}
