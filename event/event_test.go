package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEveryKind(t *testing.T) {
	cases := []Event{
		ClockTick{External: true, Phase: true},
		ClockSwitched{External: true},
		GateReceived{Input: 2, High: true},
		GridConnected{Connected: true, Cols: 16, Rows: 8},
		GridKeyPressed{X: 3, Y: 7, Pressed: true},
		GridKeyHeld{X: 15, Y: 0},
		ArcEncoderCoarse{Encoder: 1, Delta: -3},
		FrontButtonPressed{Pressed: true},
		FrontButtonHeld{},
		ButtonPressed{Button: 5, Pressed: true},
		I2CReceived{Data: []byte{0x10, 0x20}},
		TimerFired{ID: 0},
		MIDIConnected{Connected: true},
		MIDINote{Channel: 9, Note: 60, Velocity: 100, On: true},
		MIDICC{Channel: 0, Control: 74, Value: 127},
		MIDIAftertouch{Channel: 3, Note: 64, Value: 90},
		ShnthBar{Bar: 2, Pressure: 127},
		ShnthAntenna{Antenna: 1, Value: 33},
		ShnthButton{Button: 6, Pressed: true},
	}
	require.Len(t, cases, len(Kinds()), "one case per kind")

	for _, ev := range cases {
		t.Run(ev.Kind().String(), func(t *testing.T) {
			got, err := Decode(ev.Kind(), ev.Payload())
			require.NoError(t, err)
			assert.Equal(t, ev, got)
		})
	}
}

func TestDecodeShortPayload(t *testing.T) {
	_, err := Decode(KindShnthBar, []byte{1})
	assert.ErrorIs(t, err, ErrShortPayload)

	_, err = Decode(KindTimerFired, nil)
	assert.ErrorIs(t, err, ErrShortPayload)
}

func TestDecodeUnknownKind(t *testing.T) {
	_, err := Decode(Kind(200), []byte{0, 0, 0, 0})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestDecodeIgnoresTrailingBytes(t *testing.T) {
	got, err := Decode(KindTimerFired, []byte{3, 9, 9})
	require.NoError(t, err)
	assert.Equal(t, TimerFired{ID: 3}, got)
}

func TestDecodeMasksPressureTo7Bits(t *testing.T) {
	got, err := Decode(KindShnthBar, []byte{0, 0xFF})
	require.NoError(t, err)
	assert.Equal(t, ShnthBar{Bar: 0, Pressure: 0x7F}, got)
}

func TestDecodeCopiesI2CData(t *testing.T) {
	raw := []byte{1, 2, 3}
	got, err := Decode(KindI2CReceived, raw)
	require.NoError(t, err)
	raw[0] = 99
	assert.Equal(t, []byte{1, 2, 3}, got.(I2CReceived).Data)
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	_, err := ParseKind("laser_harp")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestKindText(t *testing.T) {
	text, err := KindShnthAntenna.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "shnth_antenna", string(text))

	var k Kind
	require.NoError(t, k.UnmarshalText([]byte("midi_cc")))
	assert.Equal(t, KindMIDICC, k)

	assert.Equal(t, "kind(99)", Kind(99).String())
}
