package handler

import (
	"errors"
	"net/http"
	"time"

	"bottega/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type GiftCardHandler struct {
	giftCards *repository.GiftCardRepository
}

func NewGiftCardHandler(giftCards *repository.GiftCardRepository) *GiftCardHandler {
	return &GiftCardHandler{giftCards: giftCards}
}

// Lookup resolves a gift card by its opaque redemption token, the value
// embedded in the QR code on the card. The token is unguessable, so the
// endpoint is public; the human-enterable code is never resolvable here.
func (h *GiftCardHandler) Lookup(c *gin.Context) {
	token := c.Param("token")
	gc, err := h.giftCards.GetByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "gift card not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":          gc.Code,
		"balance_cents": gc.BalanceCents,
		"amount_cents":  gc.AmountCents,
		"currency":      gc.Currency,
		"is_active":     gc.IsActive && time.Now().Before(gc.ExpiresAt),
		"expires_at":    gc.ExpiresAt,
		"sender_name":   gc.SenderName,
		"message":       gc.Message,
	})
}
