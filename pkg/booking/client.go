// Package booking is a thin client for the service-request module. The
// wallet core only calls it to mark a booking's payment as settled.
package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type settleReq struct {
	AccountID       uint   `json:"account_id"`
	IntentReference string `json:"intent_reference"`
	AmountCents     int64  `json:"amount_cents"`
}

// SettlePayment marks the booking behind a payment intent as paid. The
// booking service treats repeated calls for the same reference as no-ops.
func (c *Client) SettlePayment(ctx context.Context, accountID uint, intentReference string, amountCents int64) error {
	body, _ := json.Marshal(settleReq{
		AccountID:       accountID,
		IntentReference: intentReference,
		AmountCents:     amountCents,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/internal/v1/bookings/settle-payment", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("settle payment: %d %s", resp.StatusCode, string(respBody))
	}
	return nil
}
