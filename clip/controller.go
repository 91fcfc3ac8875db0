package clip

import (
	"sync"

	"github.com/pkg/errors"
)

// Media is the playback engine a Controller commands. The controller never
// owns it; whoever binds the source also owns its lifecycle.
type Media interface {
	// Source is the bound media location, or "" when nothing is bound
	Source() string
	Position() float64
	Seek(pos float64)
	Play() error
	Pause()

	// OnPositionChange registers fn to be called with the new position
	// and returns a function that removes the registration.
	OnPositionChange(fn func(pos float64)) (cancel func())
}

// State of a Controller
type State string

const (
	StateIdle    = State("idle")
	StateSeeking = State("seeking")
	StatePlaying = State("playing")
	StatePaused  = State("paused")
)

// Controller holds at most one interval watch at a time. Starting a new
// interval drops the previous watch.
type Controller struct {
	mu    sync.Mutex
	state State
	w     *watch
}

type watch struct {
	iv Interval

	mu      sync.Mutex
	stopped bool
	cancel  func()
}

// bind records the deregistration func, running it at once if the watch
// was already stopped.
func (w *watch) bind(cancel func()) {
	w.mu.Lock()
	if !w.stopped {
		w.cancel = cancel
		cancel = nil
	}
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// stop is idempotent
func (w *watch) stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.stopped = true
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// NewController returns an idle controller
func NewController() *Controller {
	return &Controller{state: StateIdle}
}

// State returns the current controller state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == "" {
		return StateIdle
	}
	return c.state
}

// Active returns the interval being watched, if any
func (c *Controller) Active() (Interval, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.w == nil {
		return Interval{}, false
	}
	return c.w.iv, true
}

// PlayInterval seeks m to iv.Start, starts playback and pauses at iv.End.
// It returns once the commands are issued; the stop happens on a later
// position notification. If Play fails the error is returned and the state
// falls back to StateSeeking, but the watch stays registered, so a manual
// play is still bounded.
func (c *Controller) PlayInterval(m Media, iv Interval) error {
	if err := iv.Validate(); err != nil {
		return err
	}
	if m.Source() == "" {
		return ErrNoSource
	}

	w := &watch{iv: iv}
	c.mu.Lock()
	prev := c.w
	c.w = w
	c.state = StateSeeking
	c.mu.Unlock()
	if prev != nil {
		prev.stop()
	}

	m.Seek(iv.Start)
	cancel := m.OnPositionChange(func(pos float64) {
		c.observe(m, w, pos)
	})

	w.bind(cancel)

	c.mu.Lock()
	live := c.w == w
	if live {
		c.state = StatePlaying
	}
	c.mu.Unlock()
	if !live {
		// superseded or satisfied while registering
		return nil
	}

	if err := m.Play(); err != nil {
		c.mu.Lock()
		if c.w == w {
			c.state = StateSeeking
		}
		c.mu.Unlock()
		return errors.Wrap(err, "starting playback")
	}
	return nil
}

func (c *Controller) observe(m Media, w *watch, pos float64) {
	if !w.iv.Reached(pos) {
		return
	}
	c.mu.Lock()
	if c.w != w {
		c.mu.Unlock()
		return
	}
	c.w = nil
	c.state = StatePaused
	c.mu.Unlock()

	m.Seek(w.iv.End)
	m.Pause()
	w.stop()

	c.mu.Lock()
	if c.w == nil {
		c.state = StateIdle
	}
	c.mu.Unlock()
}

// Stop drops the current watch without touching the media
func (c *Controller) Stop() {
	c.mu.Lock()
	w := c.w
	c.w = nil
	c.state = StateIdle
	c.mu.Unlock()
	if w != nil {
		w.stop()
	}
}
