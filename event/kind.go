package event

import "fmt"

// Kind identifies an event type as delivered by the hardware layer.
type Kind uint8

const (
	KindClockTick Kind = iota
	KindClockSwitched
	KindGateReceived
	KindGridConnected
	KindGridKeyPressed
	KindGridKeyHeld
	KindArcEncoderCoarse
	KindFrontButtonPressed
	KindFrontButtonHeld
	KindButtonPressed
	KindI2CReceived
	KindTimerFired
	KindMIDIConnected
	KindMIDINote
	KindMIDICC
	KindMIDIAftertouch
	KindShnthBar
	KindShnthAntenna
	KindShnthButton

	numKinds
)

var kindNames = [numKinds]string{
	KindClockTick:          "clock_tick",
	KindClockSwitched:      "clock_switched",
	KindGateReceived:       "gate_received",
	KindGridConnected:      "grid_connected",
	KindGridKeyPressed:     "grid_key_pressed",
	KindGridKeyHeld:        "grid_key_held",
	KindArcEncoderCoarse:   "arc_encoder_coarse",
	KindFrontButtonPressed: "front_button_pressed",
	KindFrontButtonHeld:    "front_button_held",
	KindButtonPressed:      "button_pressed",
	KindI2CReceived:        "i2c_received",
	KindTimerFired:         "timer_fired",
	KindMIDIConnected:      "midi_connected",
	KindMIDINote:           "midi_note",
	KindMIDICC:             "midi_cc",
	KindMIDIAftertouch:     "midi_aftertouch",
	KindShnthBar:           "shnth_bar",
	KindShnthAntenna:       "shnth_antenna",
	KindShnthButton:        "shnth_button",
}

// Kinds returns every kind in enumeration order.
func Kinds() []Kind {
	out := make([]Kind, numKinds)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// Valid reports whether k is part of the enumeration.
func (k Kind) Valid() bool {
	return k < numKinds
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// ParseKind looks a kind up by its snake_case name.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// MarshalText makes kinds readable in JSON and YAML.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
