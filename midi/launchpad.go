package midi

import (
	"fmt"
	"sync"
	"sync/atomic"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"shnth-control/debug"
	"shnth-control/event"
)

var ledSendCount uint64

// LaunchpadSize is the pad grid edge. A Launchpad shows the left 8x8 of a
// 16x8 monome grid.
const LaunchpadSize = 8

// Launchpad drives a Novation Launchpad X as a grid: pad presses become grid
// key events and grid LED levels are shown as pad colours.
type Launchpad struct {
	id       string
	send     func(msg gomidi.Message) error
	stopFunc func()

	mu    sync.Mutex
	shown [LaunchpadSize][LaunchpadSize]uint8
	dirty bool
}

// OpenLaunchpad puts the device in programmer mode and starts posting its
// pad presses.
func OpenLaunchpad(id string, inPort drivers.In, outPort drivers.Out, post Poster) (*Launchpad, error) {
	lp := &Launchpad{id: id, dirty: true}

	if outPort != nil {
		send, err := gomidi.SendTo(outPort)
		if err != nil {
			return nil, fmt.Errorf("open output: %w", err)
		}
		lp.send = send

		// Programmer mode: F0 00 20 29 02 0C 00 7F F7
		lp.send(gomidi.SysEx([]byte{0x00, 0x20, 0x29, 0x02, 0x0C, 0x00, 0x7F}))
		// Full brightness: F0 00 20 29 02 0C 08 7F F7
		lp.send(gomidi.SysEx([]byte{0x00, 0x20, 0x29, 0x02, 0x0C, 0x08, 0x7F}))
	}

	if inPort != nil {
		stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
			if ev, ok := padEvent(msg); ok {
				post.Post(ev)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		lp.stopFunc = stop
	}

	return lp, nil
}

func (lp *Launchpad) ID() string {
	return lp.id
}

// ShowGrid sends the pads whose level changed since the last call.
func (lp *Launchpad) ShowGrid(levels [LaunchpadSize][16]uint8) error {
	if lp.send == nil {
		return nil
	}
	lp.mu.Lock()
	defer lp.mu.Unlock()

	sent := 0
	for y := 0; y < LaunchpadSize; y++ {
		for x := 0; x < LaunchpadSize; x++ {
			level := levels[y][x] & 0x0F
			if !lp.dirty && lp.shown[y][x] == level {
				continue
			}
			note := rowColToNote(LaunchpadSize-1-y, x)
			if err := lp.send(gomidi.NoteOn(0, note, levelToColor(level))); err != nil {
				return fmt.Errorf("send led: %w", err)
			}
			lp.shown[y][x] = level
			sent++
		}
	}
	lp.dirty = false

	count := atomic.AddUint64(&ledSendCount, uint64(sent))
	if sent > 0 && count%100 < uint64(sent) {
		debug.Log("midi", "launchpad led count=%d (this frame=%d)", count, sent)
	}
	return nil
}

// Close blanks the pads and stops listening.
func (lp *Launchpad) Close() error {
	if lp.send != nil {
		for row := 0; row < 9; row++ {
			for col := 0; col < 9; col++ {
				if row == 8 && col == 8 {
					continue // no LED at 8,8
				}
				lp.send(gomidi.NoteOn(0, rowColToNote(row, col), 0))
			}
		}
	}
	if lp.stopFunc != nil {
		lp.stopFunc()
	}
	return nil
}

// padEvent maps a Launchpad message to an event. Grid pads become grid keys
// with y counted from the top, the top row (CC 91-98) becomes buttons 0-7
// and the scene column becomes buttons 8-15.
func padEvent(msg gomidi.Message) (event.Event, bool) {
	var channel, note, velocity, cc, value uint8

	if msg.GetNoteOn(&channel, &note, &velocity) || msg.GetNoteOff(&channel, &note, &velocity) {
		if msg.Type() == gomidi.NoteOffMsg {
			velocity = 0
		}
		row, col := noteToRowCol(note)
		switch {
		case row < 0:
			return nil, false
		case row == 8:
			return event.ButtonPressed{Button: uint8(col), Pressed: velocity > 0}, true
		case col == 8:
			return event.ButtonPressed{Button: uint8(8 + LaunchpadSize - 1 - row), Pressed: velocity > 0}, true
		}
		return event.GridKeyPressed{
			X:       uint8(col),
			Y:       uint8(LaunchpadSize - 1 - row),
			Pressed: velocity > 0,
		}, true
	}

	if msg.GetControlChange(&channel, &cc, &value) {
		row, col := ccToRowCol(cc)
		if row < 0 {
			return nil, false
		}
		return event.ButtonPressed{Button: uint8(col), Pressed: value > 0}, true
	}
	return nil, false
}

// levelToColor maps a 4-bit grid level onto the nearest grey in the palette.
func levelToColor(level uint8) uint8 {
	if level == 0 {
		return 0
	}
	v := uint8(level&0x0F) * 17
	return mapRGBToLaunchpad([3]uint8{v, v, v})
}

// mapRGBToLaunchpad finds the nearest Launchpad X palette color for an RGB value
func mapRGBToLaunchpad(rgb [3]uint8) uint8 {
	// Format: {velocity, R, G, B}
	palette := [][4]uint8{
		{0, 0, 0, 0},       // off
		{1, 50, 50, 50},    // dark grey
		{2, 128, 128, 128}, // grey
		{3, 255, 255, 255}, // white
		{5, 255, 0, 0},     // red
		{9, 255, 100, 0},   // orange
		{13, 255, 200, 0},  // yellow
		{21, 0, 255, 0},    // bright green
		{45, 0, 100, 255},  // blue
	}

	bestMatch := uint8(0)
	bestDist := 999999

	r, g, b := int(rgb[0]), int(rgb[1]), int(rgb[2])
	for _, p := range palette {
		pr, pg, pb := int(p[1]), int(p[2]), int(p[3])
		dist := (r-pr)*(r-pr) + (g-pg)*(g-pg) + (b-pb)*(b-pb)
		if dist < bestDist {
			bestDist = dist
			bestMatch = p[0]
		}
	}
	return bestMatch
}

// Launchpad X note mapping
// 8x8 Grid:  Row 0 (bottom) = notes 11-18, Row 7 = notes 81-88
// Side col:  Col 8 (scene buttons) = notes 19, 29, ... 89
// Top row:   Row 8 = CC 91-98 in, notes 91-98 for LEDs

func rowColToNote(row, col int) uint8 {
	if row == 8 {
		return uint8(91 + col)
	}
	return uint8((row+1)*10 + col + 1)
}

func noteToRowCol(note uint8) (row, col int) {
	if note >= 91 && note <= 98 {
		return 8, int(note - 91)
	}
	row = int(note/10) - 1
	col = int(note%10) - 1
	if row < 0 || row > 7 || col < 0 || col > 8 {
		return -1, -1
	}
	return row, col
}

func ccToRowCol(cc uint8) (row, col int) {
	if cc >= 91 && cc <= 98 {
		return 8, int(cc - 91)
	}
	return -1, -1
}
