package midi

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"shnth-control/debug"
	"shnth-control/event"
)

// Poster accepts events for delivery to the controller.
type Poster interface {
	Post(ev event.Event) bool
}

// Manager handles hot-plug of the MIDI input and of a Launchpad used as grid.
type Manager struct {
	post     Poster
	want     string
	auto     bool
	pollRate time.Duration

	mu        sync.Mutex
	inputID   string
	stopInput func()
	launchpad *Launchpad
}

// NewManager creates a manager. want selects the input whose name contains
// it; with an empty want and autoConnect set, the first non-Launchpad input
// is used.
func NewManager(post Poster, want string, autoConnect bool) *Manager {
	return &Manager{
		post:     post,
		want:     want,
		auto:     autoConnect,
		pollRate: time.Second,
	}
}

// Connected returns the connected input port name and whether a Launchpad
// is attached.
func (m *Manager) Connected() (input string, launchpad bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inputID, m.launchpad != nil
}

// ShowGrid mirrors grid LED levels to the Launchpad, if one is attached.
func (m *Manager) ShowGrid(levels [LaunchpadSize][16]uint8) {
	m.mu.Lock()
	lp := m.launchpad
	m.mu.Unlock()
	if lp == nil {
		return
	}
	if err := lp.ShowGrid(levels); err != nil {
		debug.Log("midi", "launchpad: %v", err)
	}
}

// Run starts the polling loop (blocking - run in goroutine)
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.pollRate)
	defer ticker.Stop()

	m.scan()

	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return
		case <-ticker.C:
			m.scan()
		}
	}
}

func (m *Manager) scan() {
	// Port listing can hang on some drivers
	type portsResult struct {
		inPorts  []drivers.In
		outPorts []drivers.Out
	}

	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{inPorts: gomidi.GetInPorts(), outPorts: gomidi.GetOutPorts()}
	}()

	var inPorts []drivers.In
	var outPorts []drivers.Out
	select {
	case result := <-ch:
		inPorts = result.inPorts
		outPorts = result.outPorts
	case <-time.After(3 * time.Second):
		debug.Log("midi", "port scan timed out")
		return
	}

	names := make([]string, len(inPorts))
	for i, p := range inPorts {
		names[i] = p.String()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.scanLaunchpad(inPorts, outPorts)
	m.scanInput(inPorts, names)
}

func (m *Manager) scanLaunchpad(inPorts []drivers.In, outPorts []drivers.Out) {
	idx := -1
	for i, p := range inPorts {
		if IsLaunchpad(p.String()) {
			idx = i
			break
		}
	}

	if m.launchpad != nil {
		if idx >= 0 && inPorts[idx].String() == m.launchpad.ID() {
			return
		}
		m.launchpad.Close()
		m.launchpad = nil
		m.post.Post(event.GridConnected{Connected: false})
		debug.Log("midi", "launchpad disconnected")
	}
	if idx < 0 {
		return
	}

	id := inPorts[idx].String()
	var outPort drivers.Out
	for j, op := range outPorts {
		if strings.EqualFold(op.String(), id) {
			outPort = outPorts[j]
			break
		}
	}
	lp, err := OpenLaunchpad(id, inPorts[idx], outPort, m.post)
	if err != nil {
		debug.Log("midi", "launchpad %s: %v", id, err)
		return
	}
	m.launchpad = lp
	m.post.Post(event.GridConnected{Connected: true, Cols: LaunchpadSize, Rows: LaunchpadSize})
	debug.Log("midi", "launchpad connected: %s", id)
}

func (m *Manager) scanInput(inPorts []drivers.In, names []string) {
	idx := ChooseInput(names, m.want, m.auto)

	if m.inputID != "" {
		if idx >= 0 && names[idx] == m.inputID {
			return
		}
		m.disconnectInput()
	}
	if idx < 0 {
		return
	}

	if err := m.connectInput(inPorts[idx]); err != nil {
		debug.Log("midi", "input %s: %v", names[idx], err)
	}
}

func (m *Manager) connectInput(in drivers.In) error {
	tr := &Translator{}
	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
		if ev, ok := tr.Translate(msg); ok {
			m.post.Post(ev)
		}
	})
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	m.inputID = in.String()
	m.stopInput = stop
	m.post.Post(event.MIDIConnected{Connected: true})
	debug.Log("midi", "input connected: %s", m.inputID)
	return nil
}

func (m *Manager) disconnectInput() {
	if m.stopInput != nil {
		m.stopInput()
	}
	debug.Log("midi", "input disconnected: %s", m.inputID)
	m.inputID = ""
	m.stopInput = nil
	m.post.Post(event.MIDIConnected{Connected: false})
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inputID != "" {
		m.disconnectInput()
	}
	if m.launchpad != nil {
		m.launchpad.Close()
		m.launchpad = nil
	}
}

// ChooseInput returns the index of the input to connect, or -1. Launchpads
// are never chosen as the note input.
func ChooseInput(names []string, want string, auto bool) int {
	want = strings.ToLower(strings.TrimSpace(want))
	for i, name := range names {
		if IsLaunchpad(name) {
			continue
		}
		if want != "" && strings.Contains(strings.ToLower(name), want) {
			return i
		}
		if want == "" && auto {
			return i
		}
	}
	return -1
}

// PortNames lists the available input and output ports.
func PortNames() (ins, outs []string) {
	for _, p := range gomidi.GetInPorts() {
		ins = append(ins, p.String())
	}
	for _, p := range gomidi.GetOutPorts() {
		outs = append(outs, p.String())
	}
	return ins, outs
}

// IsLaunchpad reports whether a port name belongs to a Launchpad's MIDI port.
func IsLaunchpad(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "launchpad") && strings.Contains(name, "midi")
}
