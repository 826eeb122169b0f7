// Package transfer provides implementations of the ledger's value transfer
// channel. The channel is an external collaborator: it physically moves value
// to a recipient and may reject the attempt, which the engine treats as a
// hard abort.
package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/clearfund/backend/domain"
	"github.com/clearfund/backend/internal/config"
	"github.com/clearfund/backend/ledger"
)

// HTTPChannel posts transfer orders to an external disbursement endpoint.
// Any non-2xx response or transport error is a rejected transfer.
type HTTPChannel struct {
	client    *fasthttp.Client
	endpoint  string
	authToken string
	timeout   time.Duration
	logger    *zap.Logger
}

type transferOrder struct {
	Recipient string        `json:"recipient"`
	Amount    domain.Amount `json:"amount"`
}

// NewHTTP builds an HTTP transfer channel from configuration.
func NewHTTP(cfg config.TransferConfig, logger *zap.Logger) *HTTPChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPChannel{
		client: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		endpoint:  cfg.Endpoint,
		authToken: cfg.AuthToken,
		timeout:   timeout,
		logger:    logger,
	}
}

func (c *HTTPChannel) Transfer(ctx context.Context, recipient string, amount domain.Amount) error {
	body, err := json.Marshal(transferOrder{Recipient: recipient, Amount: amount})
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	req.SetBody(body)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("disbursement request failed: %w", err)
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		return fmt.Errorf("disbursement endpoint returned status %d", status)
	}

	c.logger.Debug("transfer confirmed",
		zap.String("recipient", recipient),
		zap.String("amount", amount.String()))
	return nil
}

var _ ledger.TransferChannel = (*HTTPChannel)(nil)
