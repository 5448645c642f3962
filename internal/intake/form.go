// Package intake implements the order intake form: validate a request, hand
// the composed message to a sink, and report the outcome once.
//
// A Form allows one outstanding sink call. Submissions that arrive while one
// is in flight are rejected rather than queued, and failed calls are never
// retried.
package intake

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/homebake/api/internal/order"
	"github.com/homebake/api/internal/sink"
)

var (
	ErrSubmissionInFlight = errors.New("an order submission is already in flight")
	ErrSinkFailed         = errors.New("order could not be handed off")
)

// DefaultSinkTimeout bounds a sink call when none is configured.
const DefaultSinkTimeout = 10 * time.Second

// Sink accepts a composed order message.
type Sink interface {
	Send(ctx context.Context, m sink.Message) (sink.Receipt, error)
}

// State of a Form.
type State int

const (
	Editing State = iota
	Submitting
)

func (s State) String() string {
	if s == Submitting {
		return "submitting"
	}
	return "editing"
}

// Notification is the transient outcome message shown to the customer.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Success     bool   `json:"success"`
}

var (
	submitted = Notification{
		Title:       "Order Submitted Successfully!",
		Description: "We'll contact you within 2 hours to confirm your order.",
		Success:     true,
	}
	failed = Notification{
		Title:       "Error",
		Description: "Something went wrong. Please try again.",
	}
)

// Result is returned once the sink call settles.
type Result struct {
	Notification Notification `json:"notification"`
	Message      string       `json:"message"`
	Receipt      sink.Receipt `json:"receipt"`
}

// Options configures a Form.
type Options struct {
	Destination string
	Timeout     time.Duration
	Logger      logrus.FieldLogger
	Now         func() time.Time
}

// Form is one customer's order form.
type Form struct {
	sink        Sink
	destination string
	timeout     time.Duration
	log         logrus.FieldLogger
	now         func() time.Time

	inFlight *semaphore.Weighted

	mu         sync.Mutex
	state      State
	draft      order.Request
	lastActive time.Time
}

// NewForm creates a Form in the Editing state with a default draft.
func NewForm(s Sink, opts Options) *Form {
	f := &Form{
		sink:        s,
		destination: opts.Destination,
		timeout:     opts.Timeout,
		log:         opts.Logger,
		now:         opts.Now,
		inFlight:    semaphore.NewWeighted(1),
		draft:       order.Default(),
	}
	if f.timeout <= 0 {
		f.timeout = DefaultSinkTimeout
	}
	if f.log == nil {
		f.log = logrus.StandardLogger()
	}
	if f.now == nil {
		f.now = time.Now
	}
	f.lastActive = f.now()
	return f
}

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Draft returns the current field values.
func (f *Form) Draft() order.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Submit validates req and, when valid, sends the composed message to the
// sink. A validation failure leaves the form in Editing with req kept as the
// draft and makes no sink call. Once the sink call settles, successfully or
// not, the form returns to Editing with a default draft.
//
// A sink failure returns the failure Result together with an error wrapping
// ErrSinkFailed.
func (f *Form) Submit(ctx context.Context, req order.Request) (Result, error) {
	if !f.inFlight.TryAcquire(1) {
		return Result{}, ErrSubmissionInFlight
	}
	defer f.inFlight.Release(1)

	now := f.now()
	f.mu.Lock()
	f.draft = req
	f.lastActive = now
	f.mu.Unlock()

	if err := order.Validate(req, now); err != nil {
		return Result{}, err
	}

	f.setState(Submitting)
	text := order.Compose(req)

	sinkCtx, cancel := context.WithTimeout(ctx, f.timeout)
	receipt, err := f.sink.Send(sinkCtx, sink.Message{Destination: f.destination, Text: text})
	cancel()

	f.settle()

	if err != nil {
		f.log.WithError(err).WithField("item", req.ItemName()).Warn("order sink call failed")
		return Result{Notification: failed, Message: text}, fmt.Errorf("%w: %v", ErrSinkFailed, err)
	}
	return Result{Notification: submitted, Message: text, Receipt: receipt}, nil
}

func (f *Form) setState(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

// settle moves Submitting back to Editing and resets the draft.
func (f *Form) settle() {
	f.mu.Lock()
	f.state = Editing
	f.draft = order.Default()
	f.lastActive = f.now()
	f.mu.Unlock()
}

// idleSince reports when the form was last used and whether it is editing.
func (f *Form) idleSince() (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastActive, f.state == Editing
}
