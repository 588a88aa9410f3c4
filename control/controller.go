// Package control is the glue between the engine and the hardware. It reacts
// to hardware events (grid presses, clock, pressure bars, timers) by updating
// the engine or the outputs, renders engine state back out, and owns the
// boot-time preset lifecycle.
//
// A Controller is single-threaded: events must be delivered one at a time
// from one goroutine, and no handler dispatches another event.
package control

import (
	"context"
	"fmt"

	"shnth-control/debug"
	"shnth-control/event"
	"shnth-control/hardware"
	"shnth-control/preset"
)

// Stats counts what the dispatcher has seen.
type Stats struct {
	Dispatched int
	Unmapped   int
	ByKind     map[event.Kind]int
}

// Controller holds the session context and routes events.
type Controller struct {
	hw     hardware.Hardware
	store  *preset.Store
	engine Engine
	timers *Timers
	screen Screen

	screenPeriod uint16

	stats Stats

	gridDirty bool
	arcDirty  bool

	pendingSave   bool
	pendingSelect *int
}

// New creates a controller whose preset store keeps hw.PresetCount() slots
// on medium. A nil engine ignores every event routed to it.
func New(hw hardware.Hardware, medium preset.Medium, engine Engine) *Controller {
	if engine == nil {
		engine = nullEngine{}
	}
	return &Controller{
		hw:     hw,
		store:  preset.NewStore(medium, hw.PresetCount()),
		engine: engine,
		timers: NewTimers(hw),
		stats:  Stats{ByKind: make(map[event.Kind]int)},

		screenPeriod: ScreenRefreshMS,
	}
}

// SetScreenPeriod changes the screen refresh period registered by Init.
// Zero keeps ScreenRefreshMS.
func (c *Controller) SetScreenPeriod(ms uint16) {
	if ms == 0 {
		ms = ScreenRefreshMS
	}
	c.screenPeriod = ms
}

// Boot loads persisted state, falling back to first-run initialisation when
// nothing usable is stored, then runs Init. fresh reports whether defaults
// were written.
func (c *Controller) Boot(ctx context.Context) (fresh bool, err error) {
	if err := c.store.LoadAtBoot(ctx); err != nil {
		if !preset.IsStorageError(err) {
			return false, err
		}
		debug.Log("boot", "no usable presets (%v), writing defaults", err)
		if err := c.store.InitializeDefaults(ctx); err != nil {
			return false, fmt.Errorf("initialize defaults: %w", err)
		}
		if err := c.store.LoadAtBoot(ctx); err != nil {
			return true, fmt.Errorf("load after initialize: %w", err)
		}
		fresh = true
	}

	if err := c.Init(); err != nil {
		return fresh, err
	}
	debug.Log("boot", "booted slot=%d fresh=%v", c.store.Session().Selected, fresh)
	return fresh, nil
}

// Init draws the first screen frame and registers the screen refresh timer.
func (c *Controller) Init() error {
	c.screen.Render(c.hw)
	return c.timers.Register(Timer{ID: ScreenTimer, PeriodMS: c.screenPeriod, Repeat: true})
}

// Store returns the preset store.
func (c *Controller) Store() *preset.Store {
	return c.store
}

// Session returns the resident preset state.
func (c *Controller) Session() *preset.Session {
	return c.store.Session()
}

// Timers returns the timer registry.
func (c *Controller) Timers() *Timers {
	return c.timers
}

// ScreenCursor returns the row of the status line.
func (c *Controller) ScreenCursor() int {
	return c.screen.Cursor()
}

// Stats returns a copy of the dispatch counters.
func (c *Controller) Stats() Stats {
	out := Stats{
		Dispatched: c.stats.Dispatched,
		Unmapped:   c.stats.Unmapped,
		ByKind:     make(map[event.Kind]int, len(c.stats.ByKind)),
	}
	for k, v := range c.stats.ByKind {
		out.ByKind[k] = v
	}
	return out
}

// Pending reports whether Flush has persistence work queued.
func (c *Controller) Pending() bool {
	return c.pendingSave || c.pendingSelect != nil
}

// Flush runs persistence requested by handlers. It must be called between
// events, never from inside one. A requested save runs before a requested
// preset switch, and a failed save cancels the switch so the unsaved session
// is not replaced. Failures are reported once; nothing is retried.
func (c *Controller) Flush(ctx context.Context) error {
	save, sel := c.pendingSave, c.pendingSelect
	c.pendingSave, c.pendingSelect = false, nil

	if save {
		if err := c.store.SaveCurrent(ctx); err != nil {
			debug.Log("preset", "deferred save failed: %v", err)
			if sel != nil {
				debug.Log("preset", "switch to slot %d cancelled", *sel)
				return fmt.Errorf("save before switch to slot %d: %w", *sel, err)
			}
			return err
		}
	}
	if sel != nil {
		if err := c.store.SelectPreset(ctx, *sel); err != nil {
			debug.Log("preset", "deferred select %d failed: %v", *sel, err)
			return err
		}
		c.gridDirty = true
		c.arcDirty = true
	}
	return nil
}
