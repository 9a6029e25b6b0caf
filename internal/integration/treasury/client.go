package treasury

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/datapass/datapass/internal/config"
	"github.com/datapass/datapass/internal/domain/payment"
	"github.com/datapass/datapass/internal/domain/pricing"
	ierr "github.com/datapass/datapass/internal/errors"
	"github.com/datapass/datapass/internal/logger"
	"github.com/datapass/datapass/internal/types"
)

// ChargeRequest is the body sent to the treasury collector.
type ChargeRequest struct {
	Payer     string `json:"payer"`
	Asset     string `json:"asset"`
	Amount    string `json:"amount"`
	Reference string `json:"reference"`
}

// ChargeResponse is the collector's acknowledgement.
type ChargeResponse struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
}

// Client collects fees through the configured treasury endpoint. It
// implements the charging port used by the entitlement service: a charge
// either completes fully or fails with a payment error.
type Client struct {
	endpoint   string
	secretKey  string
	logger     *logger.Logger
	httpClient *http.Client
}

// NewClient builds the HTTP charging adapter from configuration.
func NewClient(cfg *config.Configuration, log *logger.Logger) (*Client, error) {
	if cfg.Treasury.Endpoint == "" {
		return nil, ierr.NewError("treasury endpoint is not configured").
			WithHint("Set treasury.endpoint to the payment collector URL").
			Mark(ierr.ErrValidation)
	}
	return &Client{
		endpoint:  cfg.Treasury.Endpoint,
		secretKey: cfg.Treasury.SecretKey,
		logger:    log,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

func (c *Client) Charge(ctx context.Context, payer string, fee pricing.Fee) error {
	body, err := json.Marshal(ChargeRequest{
		Payer:     payer,
		Asset:     fee.Asset,
		Amount:    fee.Amount.String(),
		Reference: types.GetRequestID(ctx),
	})
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrInternal)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/charges", bytes.NewReader(body))
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrInternal)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.secretKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.secretKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Treasury collector is unreachable").
			Mark(ierr.ErrPaymentFailed)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Errorw("treasury charge rejected",
			"status_code", resp.StatusCode,
			"payer", payer,
			"amount", fee.Amount.String(),
		)
		return ierr.NewErrorf("treasury returned status %d", resp.StatusCode).
			WithHint("The charge was rejected by the payment collector").
			WithReportableDetails(map[string]any{
				"status_code": resp.StatusCode,
			}).
			Mark(ierr.ErrPaymentFailed)
	}

	var ack ChargeResponse
	if err := json.Unmarshal(raw, &ack); err != nil {
		return ierr.WithError(err).
			WithHint("Treasury returned a malformed acknowledgement").
			Mark(ierr.ErrPaymentFailed)
	}
	if ack.Status != "succeeded" {
		return ierr.NewError(fmt.Sprintf("charge %s is %s", ack.ID, ack.Status)).
			WithHint("The charge did not complete").
			Mark(ierr.ErrPaymentFailed)
	}

	c.logger.Infow("treasury charge collected",
		"charge_id", ack.ID,
		"payer", payer,
		"asset", fee.Asset,
		"amount", fee.Amount.String(),
	)
	return nil
}

// LogCharger records charges in the log without collecting anything. Used in
// local deployments where no treasury collector is available.
type LogCharger struct {
	logger *logger.Logger
}

func NewLogCharger(log *logger.Logger) *LogCharger {
	return &LogCharger{logger: log}
}

func (c *LogCharger) Charge(ctx context.Context, payer string, fee pricing.Fee) error {
	c.logger.Infow("charge recorded",
		"payer", payer,
		"asset", fee.Asset,
		"amount", fee.Amount.String(),
	)
	return nil
}

// NewChargingPort selects the charging backend from configuration.
func NewChargingPort(cfg *config.Configuration, log *logger.Logger) (payment.ChargingPort, error) {
	switch cfg.Treasury.Mode {
	case "http":
		return NewClient(cfg, log)
	case "log", "":
		return NewLogCharger(log), nil
	default:
		return nil, ierr.NewErrorf("unknown treasury mode %q", cfg.Treasury.Mode).
			Mark(ierr.ErrValidation)
	}
}
