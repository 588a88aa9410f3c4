// Package midi bridges MIDI ports into the controller's event stream: a
// keyboard or sequencer input becomes MIDI and clock events, and a Launchpad
// stands in for a monome grid.
package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"

	"shnth-control/event"
)

// ClocksPerPhase is how many MIDI clocks (24 per quarter) make one half of a
// sixteenth-note clock cycle.
const ClocksPerPhase = 3

// Translator turns MIDI messages into events. It counts timing clocks to
// derive the clock phase, so one Translator serves one input.
type Translator struct {
	clocks int
}

// Translate maps msg to an event. ok is false for messages the controller
// has no kind for (sysex, program change, pitch bend and so on).
func (t *Translator) Translate(msg gomidi.Message) (ev event.Event, ok bool) {
	var ch, key, vel, cc, val uint8

	switch {
	case msg.GetNoteOn(&ch, &key, &vel):
		return event.MIDINote{Channel: ch, Note: key, Velocity: vel, On: vel > 0}, true
	case msg.GetNoteOff(&ch, &key, &vel):
		return event.MIDINote{Channel: ch, Note: key, Velocity: vel}, true
	case msg.GetControlChange(&ch, &cc, &val):
		return event.MIDICC{Channel: ch, Control: cc, Value: val}, true
	case msg.GetPolyAfterTouch(&ch, &key, &val):
		return event.MIDIAftertouch{Channel: ch, Note: key, Value: val}, true
	case msg.GetAfterTouch(&ch, &val):
		return event.MIDIAftertouch{Channel: ch, Value: val}, true
	}

	switch msg.Type() {
	case gomidi.TimingClockMsg:
		phase := t.clocks%(2*ClocksPerPhase) < ClocksPerPhase
		t.clocks++
		return event.ClockTick{External: true, Phase: phase}, true
	case gomidi.StartMsg:
		t.clocks = 0
		return event.ClockSwitched{External: true}, true
	case gomidi.ContinueMsg:
		return event.ClockSwitched{External: true}, true
	case gomidi.StopMsg:
		return event.ClockSwitched{External: false}, true
	}
	return nil, false
}
