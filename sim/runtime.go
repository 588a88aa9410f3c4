package sim

import (
	"context"
	"sync"
	"time"

	"shnth-control/control"
	"shnth-control/debug"
	"shnth-control/event"
)

// LEDFrameRate is how often dirty grid and arc state is pushed out.
const LEDFrameRate = 30

// Status is what the runtime publishes after every delivered event.
type Status struct {
	Selected    int
	Name        string
	Stats       control.Stats
	Cursor      int
	FlushErrors int
}

// Runtime is the event loop. It is the only goroutine that touches the
// controller; everything else talks to it through Post.
type Runtime struct {
	ctrl *control.Controller
	hw   *Hardware

	events  chan event.Event
	fires   chan uint8
	updates chan struct{}

	launched int

	mu     sync.Mutex
	status Status
}

// NewRuntime creates a runtime for a booted controller running on hw.
func NewRuntime(ctrl *control.Controller, hw *Hardware) *Runtime {
	r := &Runtime{
		ctrl:    ctrl,
		hw:      hw,
		events:  make(chan event.Event, 256),
		fires:   make(chan uint8, 16),
		updates: make(chan struct{}, 1),
	}
	r.publish(0)
	return r
}

// Post queues an event for delivery. It never blocks; a full queue drops
// the event and returns false.
func (r *Runtime) Post(ev event.Event) bool {
	select {
	case r.events <- ev:
		return true
	default:
		debug.Log("sim", "queue full, dropped %s", ev.Kind())
		return false
	}
}

// Updates signals after the outputs may have changed. Signals coalesce.
func (r *Runtime) Updates() <-chan struct{} {
	return r.updates
}

// Status returns the last published status.
func (r *Runtime) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Run delivers events until ctx is cancelled (blocking - run in goroutine).
func (r *Runtime) Run(ctx context.Context) {
	frame := time.NewTicker(time.Second / LEDFrameRate)
	defer frame.Stop()

	r.launchTimers(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-r.events:
			r.deliver(ctx, ev)
		case id := <-r.fires:
			r.deliver(ctx, event.TimerFired{ID: id})
		case <-frame.C:
			r.refreshLEDs()
		}
	}
}

func (r *Runtime) deliver(ctx context.Context, ev event.Event) {
	r.ctrl.Handle(ev)

	flushErrs := 0
	if r.ctrl.Pending() {
		if err := r.ctrl.Flush(ctx); err != nil {
			debug.Log("sim", "flush after %s: %v", ev.Kind(), err)
			flushErrs = 1
		}
	}

	r.launchTimers(ctx)
	r.publish(flushErrs)
	r.notify()
}

func (r *Runtime) refreshLEDs() {
	changed := false
	if r.ctrl.GridDirty() {
		r.ctrl.RenderGrid()
		changed = true
	}
	if r.ctrl.ArcDirty() {
		r.ctrl.RenderArc()
		changed = true
	}
	if changed {
		r.notify()
	}
}

// launchTimers starts a goroutine for every registration made since the
// last call.
func (r *Runtime) launchTimers(ctx context.Context) {
	timers := r.hw.Timers()
	for _, t := range timers[r.launched:] {
		go r.timerLoop(ctx, t)
	}
	r.launched = len(timers)
}

func (r *Runtime) timerLoop(ctx context.Context, t ScheduledTimer) {
	period := time.Duration(t.PeriodMS) * time.Millisecond

	if !t.Repeat {
		timer := time.NewTimer(period)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			r.fire(ctx, t.ID)
		}
		return
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.fire(ctx, t.ID)
		}
	}
}

func (r *Runtime) fire(ctx context.Context, id uint8) {
	select {
	case r.fires <- id:
	case <-ctx.Done():
	}
}

func (r *Runtime) publish(flushErrs int) {
	s := r.ctrl.Session()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.status.Selected = s.Selected
	r.status.Name = s.Meta.Name
	r.status.Stats = r.ctrl.Stats()
	r.status.Cursor = r.ctrl.ScreenCursor()
	r.status.FlushErrors += flushErrs
}

func (r *Runtime) notify() {
	select {
	case r.updates <- struct{}{}:
	default:
	}
}
