package handler

import (
	"net/http"

	"bottega/internal/middleware"
	"bottega/internal/repository"

	"github.com/gin-gonic/gin"
)

type CreditHandler struct {
	credits *repository.CreditRepository
}

func NewCreditHandler(credits *repository.CreditRepository) *CreditHandler {
	return &CreditHandler{credits: credits}
}

func (h *CreditHandler) GetBalance(c *gin.Context) {
	account, err := h.credits.GetOrCreate(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load balance"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"balance_cents": account.BalanceCents,
		"currency":      account.Currency,
	})
}

func (h *CreditHandler) ListTransactions(c *gin.Context) {
	limit, offset := pagination(c)
	txs, err := h.credits.ListTransactions(middleware.GetUserID(c), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load transactions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}
