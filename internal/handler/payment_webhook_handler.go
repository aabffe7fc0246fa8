package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"huduma/config"
	"huduma/internal/domain"
	"huduma/internal/service"

	"github.com/gin-gonic/gin"
)

// LiberecPaymentCallback is the webhook payload from TheLiberec after an
// M-Pesa STK payment attempt. Which identifier fields arrive populated
// varies by flow, so every one of them is tried as a correlation key.
type LiberecPaymentCallback struct {
	Amount            string `json:"amount"`
	CheckoutRequestID string `json:"checkout_request_id"`
	Currency          string `json:"currency"`
	CustomerPhone     string `json:"customer_phone"`
	MerchantOrderID   string `json:"merchant_order_id"`
	MerchantRequestID string `json:"merchant_request_id"`
	OrderID           string `json:"order_id"`
	ReceiptNumber     string `json:"receipt_number"`
	ReferenceOrderID  string `json:"reference_order_id"`
	Status            string `json:"status"`
	StatusCode        string `json:"status_code"`
	StatusDescription string `json:"status_description"`
	TransactionUUID   string `json:"transaction_uuid"`
}

type PaymentWebhookHandler struct {
	reconciler *service.Reconciler
	cfg        *config.Config
}

func NewPaymentWebhookHandler(reconciler *service.Reconciler, cfg *config.Config) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{reconciler: reconciler, cfg: cfg}
}

// Handle normalizes a TheLiberec payment callback into an event and hands it
// to the reconciler. Non-2xx responses make the provider redeliver, so only
// errors that a retry could fix return 500.
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if h.cfg.Payment.WebhookSecret != "" {
		if !h.verifySignature(body, c.GetHeader("X-Webhook-Signature")) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
	}
	log.Printf("[Payment callback] raw body: %s", string(body))
	var payload LiberecPaymentCallback
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("[Payment callback] json unmarshal error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	log.Printf("[Payment callback] parsed: status=%s merchant_order_id=%s order_id=%s reference_order_id=%s checkout_request_id=%s",
		payload.Status, payload.MerchantOrderID, payload.OrderID, payload.ReferenceOrderID, payload.CheckoutRequestID)

	evt := service.Event{
		Type: eventTypeFor(payload.Status),
		Keys: []string{
			payload.MerchantOrderID,
			payload.OrderID,
			payload.ReferenceOrderID,
			payload.CheckoutRequestID,
			payload.TransactionUUID,
		},
		AmountCents: parseAmountCents(payload.Amount),
		Currency:    payload.Currency,
		FailReason:  strings.TrimSpace(payload.Status + " " + payload.StatusDescription),
		Details:     string(body),
	}
	if err := h.reconciler.Handle(c.Request.Context(), evt); err != nil {
		log.Printf("[Payment callback] reconcile error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *PaymentWebhookHandler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.cfg.Payment.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

func eventTypeFor(status string) string {
	switch strings.ToUpper(status) {
	case "COMPLETED", "SUCCESS", "SUCCESSFUL":
		return domain.EventFundingSucceeded
	case "PENDING_CONFIRMATION", "REQUIRES_ACTION", "AWAITING_PIN":
		return domain.EventFundingRequiresAction
	default:
		return domain.EventFundingFailed
	}
}

// parseAmountCents converts the provider's decimal string ("150.00") to
// cents. Returns 0 on malformed input; the reconciler treats 0 as absent.
func parseAmountCents(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(f*100 + 0.5)
}
