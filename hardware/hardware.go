// Package hardware defines the narrow capability interfaces the control layer
// uses to talk to the module's hardware. Target-specific code provides the
// implementation; the host simulator lives in package sim.
package hardware

// Outputs drives the CV and gate jacks.
type Outputs interface {
	// SetCV writes a 14-bit value to a CV output channel.
	SetCV(channel uint8, value uint16)
	// SetGate sets a gate output high (true) or low (false).
	SetGate(index uint8, on bool)
}

// Screen is the small status display. Drawing happens on a working frame that
// becomes visible on RefreshScreen.
type Screen interface {
	ClearScreen()
	DrawStr(text string, row, col int, style uint8)
	RefreshScreen()
}

// Grid addresses the LEDs of a connected grid controller.
type Grid interface {
	ClearGrid()
	SetGridLED(x, y int, level uint8)
	RefreshGrid()
}

// Arc addresses the LED rings of a connected arc controller.
type Arc interface {
	ClearArc()
	SetArcLED(encoder, led int, level uint8)
	RefreshArc()
}

// Scheduler registers timed events. The hardware layer owns the timing and
// fires each registration back as a timer event carrying the id.
type Scheduler interface {
	AddTimedEvent(id uint8, periodMS uint16, repeat bool)
}

// Topology reports what the attached hardware exposes.
type Topology interface {
	GateOutputCount() int
	PresetCount() int
}

// Hardware is everything the controller needs from one adapter.
type Hardware interface {
	Outputs
	Screen
	Grid
	Arc
	Scheduler
	Topology
}

// CVMax is the largest value SetCV accepts.
const CVMax = 1<<14 - 1
