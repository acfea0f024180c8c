package batch

import "sync/atomic"

// Control is the caller-owned signal pair for one batch run: an edge-triggered
// cancellation flag (once set it stays set; the dispatcher never clears it)
// and a level-triggered pause flag that may toggle any number of times.
type Control struct {
	cancel atomic.Bool
	pause  atomic.Bool
}

func NewControl() *Control {
	return &Control{}
}

// Cancel requests a cooperative stop. Monotonic: there is no un-cancel.
func (c *Control) Cancel() {
	if c == nil {
		return
	}
	c.cancel.Store(true)
}

func (c *Control) Canceled() bool {
	if c == nil {
		return false
	}
	return c.cancel.Load()
}

func (c *Control) Pause() {
	if c == nil {
		return
	}
	c.pause.Store(true)
}

func (c *Control) Resume() {
	if c == nil {
		return
	}
	c.pause.Store(false)
}

func (c *Control) Paused() bool {
	if c == nil {
		return false
	}
	return c.pause.Load()
}
