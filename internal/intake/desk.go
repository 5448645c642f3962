package intake

import (
	"context"
	"sync"
	"time"
)

// DefaultIdleTimeout is how long an unused form is kept.
const DefaultIdleTimeout = 30 * time.Minute

// Desk hands out one Form per customer session so each customer has at most
// one submission in flight.
type Desk struct {
	newForm func() *Form
	idle    time.Duration
	now     func() time.Time

	mu    sync.Mutex
	forms map[string]*Form
}

// NewDesk creates a Desk. newForm builds the Form for a session seen for the
// first time. idle <= 0 uses DefaultIdleTimeout.
func NewDesk(newForm func() *Form, idle time.Duration) *Desk {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Desk{
		newForm: newForm,
		idle:    idle,
		now:     time.Now,
		forms:   make(map[string]*Form),
	}
}

// Form returns the session's form, creating it when needed.
func (d *Desk) Form(session string) *Form {
	d.mu.Lock()
	defer d.mu.Unlock()
	f, ok := d.forms[session]
	if !ok {
		f = d.newForm()
		d.forms[session] = f
	}
	return f
}

// Lookup returns the session's form without creating one.
func (d *Desk) Lookup(session string) (*Form, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	f, ok := d.forms[session]
	return f, ok
}

// Len returns the number of live forms.
func (d *Desk) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.forms)
}

// Sweep drops editing forms idle for longer than the idle timeout and
// returns how many were removed. Forms with a submission in flight are kept.
func (d *Desk) Sweep() int {
	cutoff := d.now().Add(-d.idle)

	d.mu.Lock()
	defer d.mu.Unlock()
	removed := 0
	for key, f := range d.forms {
		last, editing := f.idleSince()
		if editing && last.Before(cutoff) {
			delete(d.forms, key)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (d *Desk) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Sweep()
		}
	}
}
