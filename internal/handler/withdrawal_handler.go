package handler

import (
	"errors"
	"net/http"
	"strconv"

	"huduma/internal/domain"
	"huduma/internal/middleware"
	"huduma/internal/models"
	"huduma/internal/service"

	"github.com/gin-gonic/gin"
)

type WithdrawalHandler struct {
	withdrawalSvc *service.WithdrawalService
}

func NewWithdrawalHandler(withdrawalSvc *service.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalSvc: withdrawalSvc}
}

// Request issues a withdrawal one-time code. A repeat request replaces any
// outstanding code.
func (h *WithdrawalHandler) Request(c *gin.Context) {
	accountID := middleware.GetAccountID(c)
	var req struct {
		AmountCents int64  `json:"amount_cents" binding:"required"`
		Channel     string `json:"channel" binding:"required"`
		Destination string `json:"destination" binding:"required"`
		Name        string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount_cents, channel and destination required"})
		return
	}
	dest := models.PayoutDestination{Channel: req.Channel, Address: req.Destination, Name: req.Name}
	if dest.Channel == domain.PayoutChannelMpesa {
		dest.Address = normalizePhone(dest.Address)
		if dest.Address == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phone number"})
			return
		}
	}
	rec, err := h.withdrawalSvc.Request(c.Request.Context(), accountID, req.AmountCents, dest)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"message":      "confirmation code sent",
			"amount_cents": rec.AmountCents,
			"expires_at":   rec.ExpiresAt,
		})
	case errors.Is(err, service.ErrInvalidAmount), errors.Is(err, service.ErrInvalidDestination):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInsufficientFunds):
		c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient funds"})
	case errors.Is(err, service.ErrPayoutsDisabled):
		c.JSON(http.StatusForbidden, gin.H{"error": "payouts disabled for this account"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "withdrawal request failed"})
	}
}

// Confirm validates the code and executes the withdrawal.
func (h *WithdrawalHandler) Confirm(c *gin.Context) {
	accountID := middleware.GetAccountID(c)
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code required"})
		return
	}
	w, err := h.withdrawalSvc.Confirm(c.Request.Context(), accountID, req.Code)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"order_id":     w.OrderID,
			"status":       w.Status,
			"amount_cents": w.AmountCents,
			"channel":      w.Channel,
		})
	case errors.Is(err, service.ErrInvalidOTP):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid code"})
	case errors.Is(err, service.ErrOTPExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "code expired, request a new one"})
	case errors.Is(err, service.ErrInsufficientFunds):
		c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient funds"})
	case errors.Is(err, service.ErrPayoutDispatchUnknown):
		// Funds are debited and the withdrawal is held for reconciliation.
		c.JSON(http.StatusAccepted, gin.H{
			"order_id": w.OrderID,
			"status":   w.Status,
			"message":  "withdrawal accepted, payout pending review",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "withdrawal failed"})
	}
}

// List returns the account's withdrawals, newest first.
func (h *WithdrawalHandler) List(c *gin.Context) {
	accountID := middleware.GetAccountID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	items, err := h.withdrawalSvc.List(c.Request.Context(), accountID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "withdrawal lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": items})
}
