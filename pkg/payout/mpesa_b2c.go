package payout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"
)

// LiberecB2CRail sends M-Pesa B2C payouts via TheLiberec Card API.
type LiberecB2CRail struct {
	BaseURL     string
	Email       string
	Password    string
	WebhookBase string
	client      *http.Client
}

func NewLiberecB2CRail(baseURL, email, password, webhookBase string) *LiberecB2CRail {
	if baseURL == "" {
		baseURL = "https://card-api.theliberec.com"
	}
	return &LiberecB2CRail{
		BaseURL:     baseURL,
		Email:       email,
		Password:    password,
		WebhookBase: webhookBase,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

type liberecLoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type liberecLoginResp struct {
	Token string `json:"token"`
}

// getToken logs in and returns a fresh token (per transaction as recommended).
func (p *LiberecB2CRail) getToken(ctx context.Context) (string, error) {
	body, _ := json.Marshal(liberecLoginReq{Email: p.Email, Password: p.Password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/api/v1/merchants/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed: %d", resp.StatusCode)
	}
	var out liberecLoginResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}

type liberecB2CResp struct {
	UUID                string `json:"uuid"`
	OrderID             string `json:"order_id"`
	Status              string `json:"status"`
	ResponseCode        string `json:"response_code"`
	ResponseDescription string `json:"response_description"`
}

func (p *LiberecB2CRail) Dispatch(ctx context.Context, req Request) (*Response, error) {
	token, err := p.getToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("b2c login: %w", err)
	}
	callbackURL := req.CallbackURL
	if callbackURL == "" && p.WebhookBase != "" {
		base := p.WebhookBase
		if len(base) > 0 && base[0] != 'h' {
			base = "https://" + base
		}
		callbackURL = base + "/api/v1/webhooks/payouts"
	}
	narrative := req.Narrative
	if narrative == "" {
		narrative = "Wallet withdrawal"
	}
	body := map[string]string{
		"amount":       strconv.FormatInt(req.AmountCents/100, 10),
		"phone_number": req.Destination,
		"description":  narrative,
		"remarks":      "Withdrawal payment",
		"order_id":     req.OrderID,
		"callback_url": callbackURL,
	}
	bodyBytes, _ := json.Marshal(body)
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/api/v1/transactions/mpesa/b2c", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	apiReq.Header.Set("Content-Type", "application/json")
	apiReq.Header.Set("Authorization", "Bearer "+token)
	log.Printf("[Payout B2C] POST order_id=%s amount_cents=%d phone=%s", req.OrderID, req.AmountCents, req.Destination)
	resp, err := p.client.Do(apiReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("b2c api: %d %s", resp.StatusCode, string(respBody))
	}
	var out liberecB2CResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	return &Response{DispatchID: out.UUID, Status: out.Status}, nil
}
