// AngelaMos | 2026
// payment.go

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/schooltino/api/internal/config"
	"github.com/schooltino/api/internal/core"
)

// PaymentClient charges tenants through the payment gateway. Unlike the
// AI providers this integration is required when billing routes are
// used: an unconfigured or failing gateway answers provider-down, a
// declined charge answers payment-required.
type PaymentClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
	shell    *Shell
}

func NewPaymentClient(
	cfg config.ProviderConfig,
	logger *slog.Logger,
) *PaymentClient {
	return &PaymentClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		http:     &http.Client{},
		shell:    NewShell("payment", CategoryPayment, cfg.Configured(), logger),
	}
}

type chargeRequest struct {
	TenantID string `json:"tenant_id"`
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
}

func (c *PaymentClient) Charge(
	ctx context.Context,
	tenantID string,
	amount int,
) error {
	var declined bool

	outcome := c.shell.Do(ctx, func(ctx context.Context) error {
		body, err := json.Marshal(chargeRequest{
			TenantID: tenantID,
			Amount:   amount,
			Currency: "INR",
		})
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}

		req, err := http.NewRequestWithContext(
			ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("call gateway: %w", err)
		}
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK:
			return nil
		case http.StatusPaymentRequired:
			// Declined is a provider answer, not a provider failure:
			// it must not trip the breaker.
			declined = true
			return nil
		default:
			return fmt.Errorf("gateway status %d", resp.StatusCode)
		}
	})

	if outcome != OutcomeOK {
		return fmt.Errorf("payment %s: %w", outcome, core.ErrProviderDown)
	}

	if declined {
		return fmt.Errorf("charge declined: %w", core.ErrPaymentRequired)
	}

	return nil
}
