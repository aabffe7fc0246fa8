package handler

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"huduma/internal/domain"
	"huduma/internal/service"

	"github.com/gin-gonic/gin"
)

// LiberecPayoutCallback is the B2C result webhook from TheLiberec.
type LiberecPayoutCallback struct {
	OrderID           string `json:"order_id"`
	MerchantOrderID   string `json:"merchant_order_id"`
	TransactionID     string `json:"transaction_id"`
	Status            string `json:"status"`
	StatusDescription string `json:"status_description"`
}

type PayoutWebhookHandler struct {
	withdrawalSvc *service.WithdrawalService
	reconciler    *service.Reconciler
}

func NewPayoutWebhookHandler(withdrawalSvc *service.WithdrawalService, reconciler *service.Reconciler) *PayoutWebhookHandler {
	return &PayoutWebhookHandler{withdrawalSvc: withdrawalSvc, reconciler: reconciler}
}

// HandleResult applies a payout rail's asynchronous outcome.
func (h *PayoutWebhookHandler) HandleResult(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	log.Printf("[Payout callback] raw body: %s", string(body))
	var payload LiberecPayoutCallback
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("[Payout callback] json unmarshal error: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	orderID := payload.MerchantOrderID
	if orderID == "" {
		orderID = payload.OrderID
	}
	if orderID == "" {
		log.Printf("[Payout callback] no order id in payload, acknowledging")
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	succeeded := strings.EqualFold(payload.Status, "COMPLETED") || strings.EqualFold(payload.Status, "SUCCESS")
	reason := strings.TrimSpace(payload.Status + " " + payload.StatusDescription)
	if err := h.withdrawalSvc.ResolvePayout(c.Request.Context(), orderID, succeeded, payload.TransactionID, reason); err != nil {
		log.Printf("[Payout callback] resolve error for %s: %v", orderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// HandleAccountUpdate flips payout eligibility when the provider reports a
// change on the linked payout account.
func (h *PayoutWebhookHandler) HandleAccountUpdate(c *gin.Context) {
	var payload struct {
		ProviderAccountRef string `json:"provider_account_ref"`
		PayoutsEnabled     bool   `json:"payouts_enabled"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	evt := service.Event{
		Type:               domain.EventPayoutAccountUpdated,
		ProviderAccountRef: payload.ProviderAccountRef,
		PayoutsEnabled:     payload.PayoutsEnabled,
	}
	if err := h.reconciler.Handle(c.Request.Context(), evt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
