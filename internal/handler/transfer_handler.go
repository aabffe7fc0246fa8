package handler

import (
	"errors"
	"net/http"

	"huduma/internal/middleware"
	"huduma/internal/service"

	"github.com/gin-gonic/gin"
)

type TransferHandler struct {
	transferSvc *service.TransferService
}

func NewTransferHandler(transferSvc *service.TransferService) *TransferHandler {
	return &TransferHandler{transferSvc: transferSvc}
}

// Transfer moves funds from the authenticated account to another account.
func (h *TransferHandler) Transfer(c *gin.Context) {
	senderID := middleware.GetAccountID(c)
	var req struct {
		ReceiverID  uint  `json:"receiver_id" binding:"required"`
		AmountCents int64 `json:"amount_cents" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "receiver_id and amount_cents required"})
		return
	}
	result, err := h.transferSvc.Transfer(c.Request.Context(), senderID, req.ReceiverID, req.AmountCents)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, result)
	case errors.Is(err, service.ErrSameAccount), errors.Is(err, service.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInsufficientFunds):
		c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient funds"})
	case errors.Is(err, service.ErrWalletInactive):
		c.JSON(http.StatusForbidden, gin.H{"error": "wallet inactive"})
	default:
		// Debit committed but the credit leg is still outstanding.
		if result != nil {
			c.JSON(http.StatusAccepted, gin.H{"reference": result.Reference, "status": "PENDING"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "transfer failed"})
	}
}
