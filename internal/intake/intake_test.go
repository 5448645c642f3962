package intake

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homebake/api/internal/apperr"
	"github.com/homebake/api/internal/catalog"
	"github.com/homebake/api/internal/enum"
	"github.com/homebake/api/internal/logging"
	"github.com/homebake/api/internal/order"
	"github.com/homebake/api/internal/sink"
)

var testNow = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

// --- Mock sink ---

type mockSink struct {
	calls   atomic.Int32
	last    sink.Message
	mu      sync.Mutex
	err     error
	block   chan struct{} // when set, Send waits for it or ctx
	entered chan struct{}
}

func (m *mockSink) Send(ctx context.Context, msg sink.Message) (sink.Receipt, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.last = msg
	m.mu.Unlock()
	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return sink.Receipt{}, ctx.Err()
		}
	}
	if m.err != nil {
		return sink.Receipt{}, m.err
	}
	return sink.Receipt{Sink: "mock", Reference: "r-1", AcceptedAt: testNow}, nil
}

// --- Helpers ---

func newTestForm(s Sink, timeout time.Duration) *Form {
	return NewForm(s, Options{
		Destination: "919876543210",
		Timeout:     timeout,
		Logger:      logging.Discard(),
		Now:         func() time.Time { return testNow },
	})
}

func validRequest() order.Request {
	return order.Request{
		Name:  "Asha",
		Phone: "9876543210",
		Item: &catalog.MenuItem{
			ID: "1", Name: "Chocolate Fudge Cake", Category: enum.CategoryCelebrationCakes,
			BasePrice: decimal.NewFromInt(850), IsActive: true,
		},
		SizeID:   "medium",
		Flavor:   "Chocolate",
		Dietary:  enum.DietaryEggless,
		Quantity: 2,
		Date:     "2026-05-11",
		TimeSlot: enum.TimeSlotMorning,
	}
}

// --- Submit ---

func TestSubmit_EmptyNameStaysEditingWithoutSinkCall(t *testing.T) {
	ms := &mockSink{}
	f := newTestForm(ms, time.Second)

	req := validRequest()
	req.Name = ""
	_, err := f.Submit(context.Background(), req)

	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)
	assert.Equal(t, Editing, f.State())
	assert.Equal(t, int32(0), ms.calls.Load())
	assert.Equal(t, "9876543210", f.Draft().Phone, "draft is kept for correction")
}

func TestSubmit_Success(t *testing.T) {
	ms := &mockSink{}
	f := newTestForm(ms, time.Second)

	res, err := f.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	assert.True(t, res.Notification.Success)
	assert.Equal(t, "Order Submitted Successfully!", res.Notification.Title)
	assert.Equal(t, "r-1", res.Receipt.Reference)
	assert.Contains(t, res.Message, "💰 Total Price: ₹2,300")

	assert.Equal(t, int32(1), ms.calls.Load())
	assert.Equal(t, "919876543210", ms.last.Destination)
	assert.Equal(t, res.Message, ms.last.Text)

	assert.Equal(t, Editing, f.State())
	assert.Equal(t, order.Default(), f.Draft(), "draft resets after settling")
}

func TestSubmit_SinkFailure(t *testing.T) {
	ms := &mockSink{err: errors.New("gateway down")}
	f := newTestForm(ms, time.Second)

	res, err := f.Submit(context.Background(), validRequest())
	require.ErrorIs(t, err, ErrSinkFailed)

	assert.False(t, res.Notification.Success)
	assert.Equal(t, "Something went wrong. Please try again.", res.Notification.Description)
	assert.Equal(t, int32(1), ms.calls.Load(), "no automatic retry")
	assert.Equal(t, Editing, f.State())
	assert.Equal(t, order.Default(), f.Draft())
}

func TestSubmit_TimeoutIsSinkFailure(t *testing.T) {
	ms := &mockSink{block: make(chan struct{})}
	f := newTestForm(ms, 20*time.Millisecond)

	start := time.Now()
	_, err := f.Submit(context.Background(), validRequest())
	require.ErrorIs(t, err, ErrSinkFailed)
	assert.Contains(t, err.Error(), context.DeadlineExceeded.Error())
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, Editing, f.State())
}

func TestSubmit_RejectsWhileInFlight(t *testing.T) {
	ms := &mockSink{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	f := newTestForm(ms, 5*time.Second)

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background(), validRequest())
		done <- err
	}()

	select {
	case <-ms.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first submission never reached the sink")
	}
	assert.Equal(t, Submitting, f.State())

	_, err := f.Submit(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(ms.block)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), ms.calls.Load())
	assert.Equal(t, Editing, f.State())

	// lock is released after settling
	ms.block = nil
	ms.entered = nil
	_, err = f.Submit(context.Background(), validRequest())
	assert.NoError(t, err)
}

func TestSubmit_CallerCancel(t *testing.T) {
	ms := &mockSink{block: make(chan struct{})}
	f := newTestForm(ms, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := f.Submit(ctx, validRequest())
	assert.ErrorIs(t, err, ErrSinkFailed)
	assert.Equal(t, Editing, f.State())
}

func TestNewForm_Defaults(t *testing.T) {
	f := NewForm(&mockSink{}, Options{})
	assert.Equal(t, DefaultSinkTimeout, f.timeout)
	assert.Equal(t, Editing, f.State())
	assert.Equal(t, "editing", f.State().String())
	assert.Equal(t, "submitting", Submitting.String())
}

// --- Desk ---

func TestDesk_OneFormPerSession(t *testing.T) {
	ms := &mockSink{}
	d := NewDesk(func() *Form { return newTestForm(ms, time.Second) }, 0)

	a := d.Form("session-a")
	assert.Same(t, a, d.Form("session-a"))
	assert.NotSame(t, a, d.Form("session-b"))
	assert.Equal(t, 2, d.Len())
}

func TestDesk_LookupDoesNotCreate(t *testing.T) {
	ms := &mockSink{}
	d := NewDesk(func() *Form { return newTestForm(ms, time.Second) }, 0)

	_, ok := d.Lookup("session-a")
	assert.False(t, ok)
	assert.Equal(t, 0, d.Len())

	a := d.Form("session-a")
	got, ok := d.Lookup("session-a")
	require.True(t, ok)
	assert.Same(t, a, got)
}

func TestDesk_SweepEvictsIdleForms(t *testing.T) {
	clock := testNow
	ms := &mockSink{}
	d := NewDesk(func() *Form {
		return NewForm(ms, Options{Logger: logging.Discard(), Now: func() time.Time { return clock }})
	}, 30*time.Minute)
	d.now = func() time.Time { return clock }

	d.Form("old")
	clock = clock.Add(20 * time.Minute)
	d.Form("recent")

	clock = clock.Add(15 * time.Minute)
	assert.Equal(t, 1, d.Sweep())
	assert.Equal(t, 1, d.Len())

	clock = clock.Add(time.Hour)
	assert.Equal(t, 1, d.Sweep())
	assert.Equal(t, 0, d.Len())
}

func TestDesk_SweepKeepsInFlightForms(t *testing.T) {
	clock := testNow
	ms := &mockSink{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	d := NewDesk(func() *Form {
		return NewForm(ms, Options{Destination: "1", Timeout: 5 * time.Second, Logger: logging.Discard(), Now: func() time.Time { return testNow }})
	}, time.Minute)
	d.now = func() time.Time { return clock }

	f := d.Form("busy")
	done := make(chan struct{})
	go func() {
		_, _ = f.Submit(context.Background(), validRequest())
		close(done)
	}()
	<-ms.entered

	clock = clock.Add(time.Hour)
	assert.Equal(t, 0, d.Sweep())

	close(ms.block)
	<-done
	assert.Equal(t, 1, d.Sweep())
}

func TestDesk_RunStopsOnCancel(t *testing.T) {
	d := NewDesk(func() *Form { return NewForm(&mockSink{}, Options{}) }, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		d.Run(ctx, time.Millisecond)
		close(stopped)
	}()
	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
