// Package sim is an in-memory stand-in for the module hardware. It records
// every output call so behaviour can be asserted or replayed, and a Runtime
// drives a controller the way the firmware's event loop would.
package sim

import (
	"fmt"
	"strings"
	"sync"

	"shnth-control/debug"
	"shnth-control/hardware"
)

const (
	ScreenRows  = 8
	ScreenCols  = 32
	GridCols    = 16
	GridRows    = 8
	ArcEncoders = 4
	ArcLEDs     = 64
)

// ScheduledTimer is one AddTimedEvent call.
type ScheduledTimer struct {
	ID       uint8
	PeriodMS uint16
	Repeat   bool
}

// State is a copy of everything the hardware currently shows.
type State struct {
	CV     []uint16
	Gates  []bool
	Screen [ScreenRows]string
	Grid   [GridRows][GridCols]uint8
	Arc    [ArcEncoders][ArcLEDs]uint8

	ScreenFrames int
	GridFrames   int
	ArcFrames    int
}

// Hardware implements hardware.Hardware in memory. Screen, grid and arc keep
// a working buffer and a committed frame; Refresh copies one to the other.
// Individual LED writes are not traced, refreshes are.
type Hardware struct {
	mu sync.Mutex

	presets int
	cv      []uint16
	gates   []bool

	screenWork  [ScreenRows]string
	screenFrame [ScreenRows]string
	gridWork    [GridRows][GridCols]uint8
	gridFrame   [GridRows][GridCols]uint8
	arcWork     [ArcEncoders][ArcLEDs]uint8
	arcFrame    [ArcEncoders][ArcLEDs]uint8

	screenFrames int
	gridFrames   int
	arcFrames    int

	timers []ScheduledTimer
	trace  []string
}

var _ hardware.Hardware = (*Hardware)(nil)

// NewHardware creates a module with the given number of gate outputs, preset
// slots and CV channels.
func NewHardware(gates, presets, cvs int) *Hardware {
	return &Hardware{
		presets: presets,
		cv:      make([]uint16, cvs),
		gates:   make([]bool, gates),
	}
}

func (h *Hardware) record(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	h.trace = append(h.trace, line)
	debug.Log("sim", "%s", line)
}

// SetCV stores the value when channel exists. Values are clamped to 14 bits.
func (h *Hardware) SetCV(channel uint8, value uint16) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if value > hardware.CVMax {
		value = hardware.CVMax
	}
	h.record("set_cv %d %d", channel, value)
	if int(channel) < len(h.cv) {
		h.cv[channel] = value
	}
}

func (h *Hardware) SetGate(index uint8, on bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.record("set_gate %d %s", index, onOff(on))
	if int(index) < len(h.gates) {
		h.gates[index] = on
	}
}

func (h *Hardware) ClearScreen() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.record("clear_screen")
	h.screenWork = [ScreenRows]string{}
}

// DrawStr writes text into the working frame at row and col. Anything past
// ScreenCols is cut off.
func (h *Hardware) DrawStr(text string, row, col int, style uint8) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.record("draw_str %d %d %d %q", row, col, style, text)
	if row < 0 || row >= ScreenRows || col < 0 || col >= ScreenCols {
		return
	}
	line := []rune(h.screenWork[row])
	for len(line) < ScreenCols {
		line = append(line, ' ')
	}
	x := col
	for _, r := range text {
		if x >= ScreenCols {
			break
		}
		line[x] = r
		x++
	}
	h.screenWork[row] = strings.TrimRight(string(line), " ")
}

func (h *Hardware) RefreshScreen() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.record("refresh_screen")
	h.screenFrame = h.screenWork
	h.screenFrames++
}

func (h *Hardware) ClearGrid() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.gridWork = [GridRows][GridCols]uint8{}
}

func (h *Hardware) SetGridLED(x, y int, level uint8) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if x < 0 || x >= GridCols || y < 0 || y >= GridRows {
		return
	}
	h.gridWork[y][x] = level & 0x0F
}

func (h *Hardware) RefreshGrid() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.gridFrame = h.gridWork
	h.gridFrames++
	lit := 0
	for _, row := range h.gridFrame {
		for _, l := range row {
			if l > 0 {
				lit++
			}
		}
	}
	h.record("refresh_grid lit=%d", lit)
}

func (h *Hardware) ClearArc() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.arcWork = [ArcEncoders][ArcLEDs]uint8{}
}

func (h *Hardware) SetArcLED(encoder, led int, level uint8) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if encoder < 0 || encoder >= ArcEncoders || led < 0 || led >= ArcLEDs {
		return
	}
	h.arcWork[encoder][led] = level & 0x0F
}

func (h *Hardware) RefreshArc() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.arcFrame = h.arcWork
	h.arcFrames++
	h.record("refresh_arc")
}

func (h *Hardware) AddTimedEvent(id uint8, periodMS uint16, repeat bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	mode := "once"
	if repeat {
		mode = "repeat"
	}
	h.record("add_timed_event %d %d %s", id, periodMS, mode)
	h.timers = append(h.timers, ScheduledTimer{ID: id, PeriodMS: periodMS, Repeat: repeat})
}

func (h *Hardware) GateOutputCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.gates)
}

func (h *Hardware) PresetCount() int {
	return h.presets
}

// Timers returns every timer registration in call order.
func (h *Hardware) Timers() []ScheduledTimer {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ScheduledTimer(nil), h.timers...)
}

// Trace returns the recorded calls.
func (h *Hardware) Trace() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.trace...)
}

// ResetTrace drops the recorded calls but keeps the output state.
func (h *Hardware) ResetTrace() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.trace = nil
}

// State returns the committed outputs.
func (h *Hardware) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return State{
		CV:           append([]uint16(nil), h.cv...),
		Gates:        append([]bool(nil), h.gates...),
		Screen:       h.screenFrame,
		Grid:         h.gridFrame,
		Arc:          h.arcFrame,
		ScreenFrames: h.screenFrames,
		GridFrames:   h.gridFrames,
		ArcFrames:    h.arcFrames,
	}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
