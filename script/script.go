// Package script replays scripted event sequences against the simulator and
// records what the hardware was asked to do.
package script

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"shnth-control/control"
	"shnth-control/engine"
	"shnth-control/event"
	"shnth-control/flash"
	"shnth-control/preset"
	"shnth-control/sim"
)

const (
	BootFresh    = "fresh"
	BootExisting = "existing"

	defaultGates   = 4
	defaultPresets = 8
	defaultCVs     = 4
)

// Script is a scenario: a module topology, how it boots, and the events
// delivered after boot.
type Script struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Topology    Topology `yaml:"topology"`
	Boot        string   `yaml:"boot"`
	Selected    int      `yaml:"selected"`
	Events      []Step   `yaml:"events"`
}

// Topology sizes the simulated module. Zero values take the defaults.
type Topology struct {
	Gates   int `yaml:"gates"`
	Presets int `yaml:"presets"`
	CVs     int `yaml:"cvs"`
}

// Step is one event. Fire is shorthand for a timer_fired event.
type Step struct {
	Kind    string `yaml:"kind"`
	Payload []int  `yaml:"payload"`
	Fire    *int   `yaml:"fire"`
}

// Load decodes a script, rejecting unknown fields, and validates it.
func Load(r io.Reader) (*Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("script is empty")
		}
		return nil, fmt.Errorf("decode script: %w", err)
	}
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads and decodes the script at path.
func LoadFile(path string) (*Script, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	s, err := Load(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (s *Script) applyDefaults() {
	if s.Topology.Gates == 0 {
		s.Topology.Gates = defaultGates
	}
	if s.Topology.Presets == 0 {
		s.Topology.Presets = defaultPresets
	}
	if s.Topology.CVs == 0 {
		s.Topology.CVs = defaultCVs
	}
	if s.Boot == "" {
		s.Boot = BootFresh
	}
}

// Validate checks the topology, the boot mode and every step.
func (s *Script) Validate() error {
	if s.Topology.Gates < 1 || s.Topology.Presets < 1 || s.Topology.CVs < 1 {
		return errors.New("topology: gates, presets and cvs must be positive")
	}
	switch s.Boot {
	case BootFresh:
		if s.Selected != 0 {
			return fmt.Errorf("selected needs boot: %s", BootExisting)
		}
	case BootExisting:
		if s.Selected < 0 || s.Selected >= s.Topology.Presets {
			return fmt.Errorf("selected %d: %w", s.Selected, preset.ErrInvalidIndex)
		}
	default:
		return fmt.Errorf("boot %q: want %s or %s", s.Boot, BootFresh, BootExisting)
	}

	for i, st := range s.Events {
		if _, _, err := st.decode(); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}

func (st Step) decode() (event.Kind, []byte, error) {
	if st.Fire != nil {
		if st.Kind != "" || len(st.Payload) > 0 {
			return 0, nil, errors.New("fire cannot be combined with kind or payload")
		}
		if *st.Fire < 0 || *st.Fire > 255 {
			return 0, nil, fmt.Errorf("timer id %d out of range", *st.Fire)
		}
		return event.KindTimerFired, []byte{byte(*st.Fire)}, nil
	}

	kind, err := event.ParseKind(st.Kind)
	if err != nil {
		return 0, nil, err
	}
	payload := make([]byte, len(st.Payload))
	for i, v := range st.Payload {
		if v < 0 || v > 255 {
			return 0, nil, fmt.Errorf("payload byte %d: %d out of range", i, v)
		}
		payload[i] = byte(v)
	}
	return kind, payload, nil
}

// Result is the outcome of a run.
type Result struct {
	Name       string   `json:"name"`
	Fresh      bool     `json:"fresh"`
	Selected   int      `json:"selected"`
	Dispatched int      `json:"dispatched"`
	Unmapped   int      `json:"unmapped"`
	Trace      []string `json:"trace"`
}

// Run boots a simulated module with the passthrough engine and delivers the
// events one at a time. Deferred persistence runs after each event and dirty
// grid and arc state is rendered, as the runtime would between frames.
func Run(ctx context.Context, s *Script) (*Result, error) {
	hw := sim.NewHardware(s.Topology.Gates, s.Topology.Presets, s.Topology.CVs)
	medium := flash.NewMemory()

	if s.Boot == BootExisting {
		seed := preset.NewStore(medium, hw.PresetCount())
		if err := seed.InitializeDefaults(ctx); err != nil {
			return nil, fmt.Errorf("seed presets: %w", err)
		}
		if err := seed.SelectPreset(ctx, s.Selected); err != nil {
			return nil, fmt.Errorf("seed presets: %w", err)
		}
	}

	ctrl := control.New(hw, medium, engine.NewPassthrough(s.Topology.CVs, hw.PresetCount()))

	res := &Result{Name: s.Name}
	fresh, err := ctrl.Boot(ctx)
	if err != nil {
		return nil, fmt.Errorf("boot: %w", err)
	}
	res.Fresh = fresh
	res.Trace = append(res.Trace, "# boot "+s.Boot)
	res.Trace = append(res.Trace, hw.Trace()...)
	hw.ResetTrace()

	for i, st := range s.Events {
		kind, payload, err := st.decode()
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		res.Trace = append(res.Trace, fmt.Sprintf("> %s %v", kind, payload))

		ctrl.Dispatch(kind, payload)
		if ctrl.Pending() {
			if err := ctrl.Flush(ctx); err != nil {
				res.Trace = append(res.Trace, "! "+err.Error())
			}
		}
		if ctrl.GridDirty() {
			ctrl.RenderGrid()
		}
		if ctrl.ArcDirty() {
			ctrl.RenderArc()
		}

		res.Trace = append(res.Trace, hw.Trace()...)
		hw.ResetTrace()
	}

	stats := ctrl.Stats()
	res.Selected = ctrl.Session().Selected
	res.Dispatched = stats.Dispatched
	res.Unmapped = stats.Unmapped
	res.Trace = append(res.Trace, fmt.Sprintf("# selected %d dispatched %d unmapped %d",
		res.Selected, res.Dispatched, res.Unmapped))
	return res, nil
}
