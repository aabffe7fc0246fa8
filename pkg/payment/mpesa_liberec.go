package payment

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

// LiberecMpesaProvider implements M-Pesa STK push via TheLiberec Card API.
type LiberecMpesaProvider struct {
	BaseURL     string
	Email       string
	Password    string
	WebhookBase string
	client      *http.Client
}

func NewLiberecMpesaProvider(baseURL, email, password, webhookBase string) *LiberecMpesaProvider {
	if baseURL == "" {
		baseURL = "https://card-api.theliberec.com"
	}
	return &LiberecMpesaProvider{
		BaseURL:     baseURL,
		Email:       email,
		Password:    password,
		WebhookBase: webhookBase,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

type merchantLoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type merchantLoginResp struct {
	Token string `json:"token"`
}

// getToken logs in and returns a fresh token (per transaction as recommended).
func (p *LiberecMpesaProvider) getToken(ctx context.Context) (string, error) {
	body, _ := json.Marshal(merchantLoginReq{Email: p.Email, Password: p.Password})
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
	var out merchantLoginResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}

type mpesaSTKReq struct {
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	Description       string `json:"description"`
	CustomerPhone     string `json:"customer_phone"`
	CustomerFirstName string `json:"customer_first_name"`
	CustomerLastName  string `json:"customer_last_name"`
	CustomerEmail     string `json:"customer_email"`
	CallbackURL       string `json:"callback_url"`
	OrderID           string `json:"order_id"`
}

type mpesaSTKResp struct {
	UUID                string `json:"uuid"`
	OrderID             string `json:"order_id"`
	MerchantOrderID     string `json:"merchant_order_id"`
	CheckoutRequestID   string `json:"checkout_request_id"`
	Status              string `json:"status"`
	ResponseCode        string `json:"response_code"`
	ResponseDescription string `json:"response_description"`
}

func (p *LiberecMpesaProvider) InitiatePayment(ctx context.Context, req Request) (*Response, error) {
	token, err := p.getToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("mpesa login: %w", err)
	}
	orderID := req.OrderID
	if orderID == "" {
		orderID = fmt.Sprintf("huduma-%d", time.Now().UnixNano())
	}
	callbackURL := req.CallbackURL
	if callbackURL == "" && p.WebhookBase != "" {
		callbackURL = p.WebhookBase + "/api/v1/webhooks/payments"
	}
	currency := req.Currency
	if currency == "" {
		currency = "KES"
	}
	// Liberec takes whole currency units.
	amountStr := strconv.FormatInt(req.AmountCents/100, 10)
	if req.AmountCents > 0 && req.AmountCents < 100 {
		amountStr = "1"
	}
	payload := mpesaSTKReq{
		Amount:            amountStr,
		Currency:          currency,
		Description:       req.Description,
		CustomerPhone:     req.CustomerPhone,
		CustomerFirstName: req.CustomerFirstName,
		CustomerLastName:  req.CustomerLastName,
		CustomerEmail:     req.CustomerEmail,
		CallbackURL:       callbackURL,
		OrderID:           orderID,
	}
	body, _ := json.Marshal(payload)
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/api/v1/transactions/mpesa", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	apiReq.Header.Set("Content-Type", "application/json")
	apiReq.Header.Set("Authorization", "Bearer "+token)
	log.Printf("[MPESA Liberec] POST order_id=%s callback=%s", orderID, callbackURL)
	resp, err := p.client.Do(apiReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("mpesa stk: %d", resp.StatusCode)
	}
	var out mpesaSTKResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	return &Response{
		Reference:         out.OrderID,
		CheckoutRequestID: out.CheckoutRequestID,
		Status:            out.Status,
		ExpiresAt:         time.Now().Add(10 * time.Minute),
	}, nil
}
