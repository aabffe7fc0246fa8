package payout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// BankRail dispatches bank transfers through an API-key authenticated
// transfer gateway.
type BankRail struct {
	BaseURL string
	APIKey  string
	client  *http.Client
}

func NewBankRail(baseURL, apiKey string) *BankRail {
	return &BankRail{
		BaseURL: baseURL,
		APIKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type bankTransferReq struct {
	Reference     string `json:"reference"`
	AmountCents   int64  `json:"amount_cents"`
	Currency      string `json:"currency"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	Narrative     string `json:"narrative"`
	CallbackURL   string `json:"callback_url,omitempty"`
}

type bankTransferResp struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (p *BankRail) Dispatch(ctx context.Context, req Request) (*Response, error) {
	body, _ := json.Marshal(bankTransferReq{
		Reference:     req.OrderID,
		AmountCents:   req.AmountCents,
		Currency:      req.Currency,
		AccountNumber: req.Destination,
		AccountName:   req.AccountName,
		Narrative:     req.Narrative,
		CallbackURL:   req.CallbackURL,
	})
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/v1/transfers", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	apiReq.Header.Set("Content-Type", "application/json")
	apiReq.Header.Set("X-Api-Key", p.APIKey)
	resp, err := p.client.Do(apiReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("bank rail: %d %s", resp.StatusCode, string(respBody))
	}
	var out bankTransferResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	return &Response{DispatchID: out.ID, Status: out.Status}, nil
}
