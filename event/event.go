// Package event models the closed set of events the hardware layer delivers
// to the controller: one variant per Kind, each with its own payload layout.
package event

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownKind  = errors.New("unknown event kind")
	ErrShortPayload = errors.New("payload too short")

	payloadLength = [numKinds]int{
		KindClockTick:          2,
		KindClockSwitched:      1,
		KindGateReceived:       2,
		KindGridConnected:      3,
		KindGridKeyPressed:     3,
		KindGridKeyHeld:        2,
		KindArcEncoderCoarse:   2,
		KindFrontButtonPressed: 1,
		KindFrontButtonHeld:    0,
		KindButtonPressed:      2,
		KindI2CReceived:        0,
		KindTimerFired:         1,
		KindMIDIConnected:      1,
		KindMIDINote:           4,
		KindMIDICC:             3,
		KindMIDIAftertouch:     3,
		KindShnthBar:           2,
		KindShnthAntenna:       2,
		KindShnthButton:        2,
	}
)

// Event is one of the variant types below. The set is closed: only this
// package can add variants.
type Event interface {
	Kind() Kind
	// Payload encodes the event in the hardware layer's byte layout.
	Payload() []byte
	sealed()
}

// ClockTick is a main clock pulse. Payload: [external, phase].
type ClockTick struct {
	External bool
	Phase    bool
}

// ClockSwitched reports a change of clock source. Payload: [external].
type ClockSwitched struct {
	External bool
}

// GateReceived is an edge on a gate input. Payload: [input, high].
type GateReceived struct {
	Input uint8
	High  bool
}

// GridConnected reports a grid being attached or removed. Payload: [connected, cols, rows].
type GridConnected struct {
	Connected bool
	Cols      uint8
	Rows      uint8
}

// GridKeyPressed is a grid key press or release. Payload: [x, y, pressed].
type GridKeyPressed struct {
	X, Y    uint8
	Pressed bool
}

// GridKeyHeld fires when a grid key stays down. Payload: [x, y].
type GridKeyHeld struct {
	X, Y uint8
}

// ArcEncoderCoarse is an arc ring turn. Payload: [encoder, delta as int8].
type ArcEncoderCoarse struct {
	Encoder uint8
	Delta   int8
}

// FrontButtonPressed is the module's front button. Payload: [pressed].
type FrontButtonPressed struct {
	Pressed bool
}

// FrontButtonHeld fires when the front button stays down. Empty payload.
type FrontButtonHeld struct{}

// ButtonPressed is a generic panel button. Payload: [button, pressed].
type ButtonPressed struct {
	Button  uint8
	Pressed bool
}

// I2CReceived carries an inter-device message verbatim.
type I2CReceived struct {
	Data []byte
}

// TimerFired is a timed event registered through the scheduler. Payload: [id].
type TimerFired struct {
	ID uint8
}

// MIDIConnected reports a MIDI device being attached or removed. Payload: [connected].
type MIDIConnected struct {
	Connected bool
}

// MIDINote is a note on or off. Payload: [channel, note, velocity, on].
type MIDINote struct {
	Channel  uint8
	Note     uint8
	Velocity uint8
	On       bool
}

// MIDICC is a control change. Payload: [channel, control, value].
type MIDICC struct {
	Channel uint8
	Control uint8
	Value   uint8
}

// MIDIAftertouch is channel or polyphonic pressure. Payload: [channel, note, value].
// Note is zero for channel pressure.
type MIDIAftertouch struct {
	Channel uint8
	Note    uint8
	Value   uint8
}

// ShnthBar is a pressure bar reading. Payload: [bar, 7-bit pressure].
type ShnthBar struct {
	Bar      uint8
	Pressure uint8
}

// ShnthAntenna is an antenna reading. Payload: [antenna, value].
type ShnthAntenna struct {
	Antenna uint8
	Value   uint8
}

// ShnthButton is a pressure-sensor button. Payload: [button, pressed].
type ShnthButton struct {
	Button  uint8
	Pressed bool
}

func (ClockTick) Kind() Kind          { return KindClockTick }
func (ClockSwitched) Kind() Kind      { return KindClockSwitched }
func (GateReceived) Kind() Kind       { return KindGateReceived }
func (GridConnected) Kind() Kind      { return KindGridConnected }
func (GridKeyPressed) Kind() Kind     { return KindGridKeyPressed }
func (GridKeyHeld) Kind() Kind        { return KindGridKeyHeld }
func (ArcEncoderCoarse) Kind() Kind   { return KindArcEncoderCoarse }
func (FrontButtonPressed) Kind() Kind { return KindFrontButtonPressed }
func (FrontButtonHeld) Kind() Kind    { return KindFrontButtonHeld }
func (ButtonPressed) Kind() Kind      { return KindButtonPressed }
func (I2CReceived) Kind() Kind        { return KindI2CReceived }
func (TimerFired) Kind() Kind         { return KindTimerFired }
func (MIDIConnected) Kind() Kind      { return KindMIDIConnected }
func (MIDINote) Kind() Kind           { return KindMIDINote }
func (MIDICC) Kind() Kind             { return KindMIDICC }
func (MIDIAftertouch) Kind() Kind     { return KindMIDIAftertouch }
func (ShnthBar) Kind() Kind           { return KindShnthBar }
func (ShnthAntenna) Kind() Kind       { return KindShnthAntenna }
func (ShnthButton) Kind() Kind        { return KindShnthButton }

func (e ClockTick) Payload() []byte      { return []byte{b(e.External), b(e.Phase)} }
func (e ClockSwitched) Payload() []byte  { return []byte{b(e.External)} }
func (e GateReceived) Payload() []byte   { return []byte{e.Input, b(e.High)} }
func (e GridConnected) Payload() []byte  { return []byte{b(e.Connected), e.Cols, e.Rows} }
func (e GridKeyPressed) Payload() []byte { return []byte{e.X, e.Y, b(e.Pressed)} }
func (e GridKeyHeld) Payload() []byte    { return []byte{e.X, e.Y} }
func (e ArcEncoderCoarse) Payload() []byte {
	return []byte{e.Encoder, byte(e.Delta)}
}
func (e FrontButtonPressed) Payload() []byte { return []byte{b(e.Pressed)} }
func (FrontButtonHeld) Payload() []byte      { return []byte{} }
func (e ButtonPressed) Payload() []byte      { return []byte{e.Button, b(e.Pressed)} }
func (e I2CReceived) Payload() []byte        { return append([]byte{}, e.Data...) }
func (e TimerFired) Payload() []byte         { return []byte{e.ID} }
func (e MIDIConnected) Payload() []byte      { return []byte{b(e.Connected)} }
func (e MIDINote) Payload() []byte {
	return []byte{e.Channel, e.Note, e.Velocity, b(e.On)}
}
func (e MIDICC) Payload() []byte         { return []byte{e.Channel, e.Control, e.Value} }
func (e MIDIAftertouch) Payload() []byte { return []byte{e.Channel, e.Note, e.Value} }
func (e ShnthBar) Payload() []byte       { return []byte{e.Bar, e.Pressure} }
func (e ShnthAntenna) Payload() []byte   { return []byte{e.Antenna, e.Value} }
func (e ShnthButton) Payload() []byte    { return []byte{e.Button, b(e.Pressed)} }

func (ClockTick) sealed()          {}
func (ClockSwitched) sealed()      {}
func (GateReceived) sealed()       {}
func (GridConnected) sealed()      {}
func (GridKeyPressed) sealed()     {}
func (GridKeyHeld) sealed()        {}
func (ArcEncoderCoarse) sealed()   {}
func (FrontButtonPressed) sealed() {}
func (FrontButtonHeld) sealed()    {}
func (ButtonPressed) sealed()      {}
func (I2CReceived) sealed()        {}
func (TimerFired) sealed()         {}
func (MIDIConnected) sealed()      {}
func (MIDINote) sealed()           {}
func (MIDICC) sealed()             {}
func (MIDIAftertouch) sealed()     {}
func (ShnthBar) sealed()           {}
func (ShnthAntenna) sealed()       {}
func (ShnthButton) sealed()        {}

// Decode builds the typed event for kind from a hardware payload. Bytes past
// the kind's layout are ignored. Pressure values keep their low 7 bits.
func Decode(kind Kind, payload []byte) (Event, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(kind))
	}
	if need := payloadLength[kind]; len(payload) < need {
		return nil, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShortPayload, kind, need, len(payload))
	}

	p := payload
	switch kind {
	case KindClockTick:
		return ClockTick{External: p[0] != 0, Phase: p[1] != 0}, nil
	case KindClockSwitched:
		return ClockSwitched{External: p[0] != 0}, nil
	case KindGateReceived:
		return GateReceived{Input: p[0], High: p[1] != 0}, nil
	case KindGridConnected:
		return GridConnected{Connected: p[0] != 0, Cols: p[1], Rows: p[2]}, nil
	case KindGridKeyPressed:
		return GridKeyPressed{X: p[0], Y: p[1], Pressed: p[2] != 0}, nil
	case KindGridKeyHeld:
		return GridKeyHeld{X: p[0], Y: p[1]}, nil
	case KindArcEncoderCoarse:
		return ArcEncoderCoarse{Encoder: p[0], Delta: int8(p[1])}, nil
	case KindFrontButtonPressed:
		return FrontButtonPressed{Pressed: p[0] != 0}, nil
	case KindFrontButtonHeld:
		return FrontButtonHeld{}, nil
	case KindButtonPressed:
		return ButtonPressed{Button: p[0], Pressed: p[1] != 0}, nil
	case KindI2CReceived:
		return I2CReceived{Data: append([]byte{}, p...)}, nil
	case KindTimerFired:
		return TimerFired{ID: p[0]}, nil
	case KindMIDIConnected:
		return MIDIConnected{Connected: p[0] != 0}, nil
	case KindMIDINote:
		return MIDINote{Channel: p[0], Note: p[1], Velocity: p[2], On: p[3] != 0}, nil
	case KindMIDICC:
		return MIDICC{Channel: p[0], Control: p[1], Value: p[2]}, nil
	case KindMIDIAftertouch:
		return MIDIAftertouch{Channel: p[0], Note: p[1], Value: p[2]}, nil
	case KindShnthBar:
		return ShnthBar{Bar: p[0], Pressure: p[1] & 0x7F}, nil
	case KindShnthAntenna:
		return ShnthAntenna{Antenna: p[0], Value: p[1]}, nil
	case KindShnthButton:
		return ShnthButton{Button: p[0], Pressed: p[1] != 0}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
}

func b(v bool) byte {
	if v {
		return 1
	}
	return 0
}
