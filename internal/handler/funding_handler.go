package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"huduma/config"
	"huduma/internal/middleware"
	"huduma/internal/service"
	"huduma/pkg/payment"

	"github.com/gin-gonic/gin"
)

type FundingHandler struct {
	intentSvc *service.IntentService
	provider  payment.Provider
	cfg       *config.Config
}

func NewFundingHandler(intentSvc *service.IntentService, provider payment.Provider, cfg *config.Config) *FundingHandler {
	return &FundingHandler{intentSvc: intentSvc, provider: provider, cfg: cfg}
}

// Initiate creates a payment intent and starts the external payment. The
// intent reference plus every provider-issued key end up indexed so the
// callback can find the intent by any of them.
func (h *FundingHandler) Initiate(c *gin.Context) {
	accountID := middleware.GetAccountID(c)
	var req struct {
		AmountCents int64  `json:"amount_cents" binding:"required"`
		Purpose     string `json:"purpose" binding:"required"`
		Phone       string `json:"phone" binding:"required"`
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
		Email       string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount_cents, purpose and phone required"})
		return
	}
	phone := normalizePhone(req.Phone)
	if phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phone number"})
		return
	}

	intent, err := h.intentSvc.Initiate(c.Request.Context(), accountID, req.AmountCents, "KES", req.Purpose)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount), errors.Is(err, service.ErrInvalidPurpose):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create payment"})
		}
		return
	}

	resp, err := h.provider.InitiatePayment(c.Request.Context(), payment.Request{
		AccountID:         accountID,
		AmountCents:       intent.AmountCents,
		Currency:          intent.Currency,
		OrderID:           intent.Reference,
		Description:       "Wallet funding",
		ExpiresIn:         h.cfg.Payment.PaymentExpiry,
		CustomerPhone:     phone,
		CustomerFirstName: req.FirstName,
		CustomerLastName:  req.LastName,
		CustomerEmail:     req.Email,
	})
	if err != nil {
		log.Printf("[Funding] provider initiate failed for %s: %v", intent.Reference, err)
		if _, ferr := h.intentSvc.MarkFailed(c.Request.Context(), intent, "provider initiation failed"); ferr != nil {
			log.Printf("[Funding] could not fail intent %s: %v", intent.Reference, ferr)
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment provider unavailable"})
		return
	}
	if err := h.intentSvc.AttachKeys(c.Request.Context(), intent.ID, resp.Reference, resp.CheckoutRequestID); err != nil {
		log.Printf("[Funding] could not index provider keys for %s: %v", intent.Reference, err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"reference":    intent.Reference,
		"status":       intent.Status,
		"amount_cents": intent.AmountCents,
		"currency":     intent.Currency,
		"checkout_url": resp.CheckoutURL,
		"expires_at":   resp.ExpiresAt,
	})
}

// GetIntent returns the caller's payment intent for a reference.
func (h *FundingHandler) GetIntent(c *gin.Context) {
	accountID := middleware.GetAccountID(c)
	intent, err := h.intentSvc.ResolveByAnyKey(c.Request.Context(), []string{c.Param("reference")})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}
	if intent.AccountID != accountID {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}
	c.JSON(http.StatusOK, intent)
}

// normalizePhone converts local Kenyan formats to 254XXXXXXXXX.
func normalizePhone(p string) string {
	p = strings.TrimSpace(strings.TrimPrefix(p, "+"))
	switch {
	case strings.HasPrefix(p, "254") && len(p) == 12:
		return p
	case strings.HasPrefix(p, "0") && len(p) == 10:
		return "254" + p[1:]
	case (strings.HasPrefix(p, "7") || strings.HasPrefix(p, "1")) && len(p) == 9:
		return "254" + p
	}
	return ""
}
