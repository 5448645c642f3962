// Package sink delivers composed order messages outside the application.
//
// A sink accepts a message for hand-off and reports a Receipt. Acceptance is
// the whole contract: nothing here confirms that the bakery read the message.
package sink

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/homebake/api/internal/enum"
)

// ErrEmptyMessage is returned for a message without text or destination.
var ErrEmptyMessage = errors.New("message text and destination are required")

// Message is one composed order bound for Destination, e.g. a phone number.
type Message struct {
	Destination string `json:"destination"`
	Text        string `json:"text"`
}

// Receipt describes an accepted message.
type Receipt struct {
	Sink       string    `json:"sink"`
	Link       string    `json:"link,omitempty"`
	Reference  string    `json:"reference,omitempty"`
	AcceptedAt time.Time `json:"accepted_at"`
}

func (m Message) validate() error {
	if strings.TrimSpace(m.Text) == "" || strings.TrimSpace(m.Destination) == "" {
		return ErrEmptyMessage
	}
	return nil
}

// --- WhatsApp hand-off ---

// DefaultWhatsAppBase is the click-to-chat host.
const DefaultWhatsAppBase = "https://wa.me"

// WhatsApp builds click-to-chat links. The customer's browser opens the link,
// so Send never touches the network.
type WhatsApp struct {
	base string
	now  func() time.Time
}

func NewWhatsApp(base string) *WhatsApp {
	if base == "" {
		base = DefaultWhatsAppBase
	}
	return &WhatsApp{base: strings.TrimRight(base, "/"), now: time.Now}
}

// Link returns the click-to-chat URL for text addressed to destination.
func (w *WhatsApp) Link(destination, text string) string {
	dest := strings.TrimPrefix(strings.TrimSpace(destination), "+")
	// wa.me expects %20 rather than + for spaces
	q := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	return fmt.Sprintf("%s/%s?text=%s", w.base, url.PathEscape(dest), q)
}

func (w *WhatsApp) Send(ctx context.Context, m Message) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if err := m.validate(); err != nil {
		return Receipt{}, err
	}
	return Receipt{
		Sink:       enum.SinkWhatsApp,
		Link:       w.Link(m.Destination, m.Text),
		AcceptedAt: w.now().UTC(),
	}, nil
}

// --- Log sink ---

// Log only records the message. Useful for local runs.
type Log struct {
	log logrus.FieldLogger
	now func() time.Time
}

func NewLog(log logrus.FieldLogger) *Log {
	return &Log{log: log, now: time.Now}
}

func (l *Log) Send(ctx context.Context, m Message) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if err := m.validate(); err != nil {
		return Receipt{}, err
	}
	l.log.WithFields(logrus.Fields{
		"destination": m.Destination,
		"chars":       len([]rune(m.Text)),
	}).Info("order message accepted")
	return Receipt{Sink: enum.SinkLog, AcceptedAt: l.now().UTC()}, nil
}

// --- Construction from config ---

// Sender is what every sink implements.
type Sender interface {
	Send(ctx context.Context, m Message) (Receipt, error)
}

// Options selects a sink for New.
type Options struct {
	Kind       string
	WebhookURL string
	Client     *http.Client
	Logger     logrus.FieldLogger
}

// New returns the sink named by opts.Kind.
func New(opts Options) (Sender, error) {
	switch opts.Kind {
	case enum.SinkWhatsApp, "":
		return NewWhatsApp(""), nil
	case enum.SinkWebhook:
		wh, err := NewWebhook(opts.WebhookURL, opts.Client)
		if err != nil {
			return nil, err
		}
		return wh, nil
	case enum.SinkLog:
		log := opts.Logger
		if log == nil {
			log = logrus.StandardLogger()
		}
		return NewLog(log), nil
	}
	return nil, fmt.Errorf("unknown order sink %q", opts.Kind)
}
