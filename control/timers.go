package control

import (
	"errors"
	"fmt"

	"shnth-control/debug"
	"shnth-control/hardware"
)

const (
	// ScreenTimer is the timer id of the screen refresh.
	ScreenTimer uint8 = 0
	// ScreenRefreshMS is the screen refresh period.
	ScreenRefreshMS uint16 = 63
)

// ErrDuplicateTimer is returned when a timer id is registered twice.
var ErrDuplicateTimer = errors.New("timer already registered")

// Timer is a registration request: the hardware layer fires TimerFired{ID}
// every PeriodMS, or once when Repeat is false.
type Timer struct {
	ID       uint8
	PeriodMS uint16
	Repeat   bool
}

// Timers issues registrations to the hardware scheduler, one per id.
type Timers struct {
	sched      hardware.Scheduler
	registered map[uint8]Timer
}

// NewTimers creates an empty registry over sched.
func NewTimers(sched hardware.Scheduler) *Timers {
	return &Timers{
		sched:      sched,
		registered: make(map[uint8]Timer),
	}
}

// Register forwards t to the scheduler unless its id is already registered.
func (ts *Timers) Register(t Timer) error {
	if _, ok := ts.registered[t.ID]; ok {
		return fmt.Errorf("%w: id %d", ErrDuplicateTimer, t.ID)
	}
	if t.PeriodMS == 0 {
		return fmt.Errorf("timer %d: zero period", t.ID)
	}
	ts.registered[t.ID] = t
	ts.sched.AddTimedEvent(t.ID, t.PeriodMS, t.Repeat)
	debug.Log("timer", "registered id=%d period=%dms repeat=%v", t.ID, t.PeriodMS, t.Repeat)
	return nil
}

// Lookup returns the registration for id.
func (ts *Timers) Lookup(id uint8) (Timer, bool) {
	t, ok := ts.registered[id]
	return t, ok
}

// fired drops one-shot registrations once they have fired so the id can be
// reused.
func (ts *Timers) fired(id uint8) {
	if t, ok := ts.registered[id]; ok && !t.Repeat {
		delete(ts.registered, id)
	}
}
