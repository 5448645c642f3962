package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/homebake/api/internal/enum"
)

// ErrGatewayRejected is returned when the gateway answers with a non-2xx status.
var ErrGatewayRejected = errors.New("order gateway rejected message")

// Webhook POSTs each message as JSON to a messaging gateway. There are no
// retries; the caller's context bounds the request.
type Webhook struct {
	url    string
	client *http.Client
	now    func() time.Time
}

// NewWebhook validates endpoint and returns a Webhook sink. A nil client
// uses http.DefaultClient.
func NewWebhook(endpoint string, client *http.Client) (*Webhook, error) {
	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("webhook sink: invalid url %q", endpoint)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Webhook{url: endpoint, client: client, now: time.Now}, nil
}

type gatewayResponse struct {
	ID string `json:"id"`
}

func (h *Webhook) Send(ctx context.Context, m Message) (Receipt, error) {
	if err := m.validate(); err != nil {
		return Receipt{}, err
	}

	body, err := json.Marshal(m)
	if err != nil {
		return Receipt{}, fmt.Errorf("encode message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("post to gateway: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Receipt{}, fmt.Errorf("%w: status %d", ErrGatewayRejected, resp.StatusCode)
	}

	// The reference is optional; gateways that return no JSON are fine.
	var gr gatewayResponse
	_ = json.Unmarshal(raw, &gr)

	return Receipt{
		Sink:       enum.SinkWebhook,
		Reference:  gr.ID,
		AcceptedAt: h.now().UTC(),
	}, nil
}
