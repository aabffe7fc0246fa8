package handler

import (
	"net/http"
	"strconv"

	"huduma/internal/middleware"
	"huduma/internal/service"

	"github.com/gin-gonic/gin"
)

type WalletHandler struct {
	walletSvc *service.WalletService
}

func NewWalletHandler(walletSvc *service.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// GetBalance returns the current account's wallet, creating it on first use.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	accountID := middleware.GetAccountID(c)
	w, err := h.walletSvc.Balance(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "wallet error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"balance_cents":        w.BalanceCents,
		"ledger_balance_cents": w.LedgerBalanceCents,
		"currency":             w.Currency,
		"is_active":            w.IsActive,
	})
}

// GetTransactions lists the account's ledger entries, newest first.
func (h *WalletHandler) GetTransactions(c *gin.Context) {
	accountID := middleware.GetAccountID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := h.walletSvc.Transactions(c.Request.Context(), accountID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ledger error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": entries})
}

// GetSummary aggregates the account's ledger per category and direction.
func (h *WalletHandler) GetSummary(c *gin.Context) {
	accountID := middleware.GetAccountID(c)
	sums, err := h.walletSvc.Summary(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ledger error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": sums})
}
