package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"bottega/config"
	"bottega/internal/service"
	"bottega/pkg/codegen"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// CheckoutWebhookHandler is the single entry point of the settlement
// pipeline. Signature verification happens over the raw body before any
// parsing: the event triggers money-moving side effects, so an unsigned
// payload never gets further than this gate.
type CheckoutWebhookHandler struct {
	settlement *service.SettlementService
	cfg        *config.Config
}

func NewCheckoutWebhookHandler(settlement *service.SettlementService, cfg *config.Config) *CheckoutWebhookHandler {
	return &CheckoutWebhookHandler{settlement: settlement, cfg: cfg}
}

func (h *CheckoutWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	sig := c.GetHeader("X-Webhook-Signature")
	if !h.verifySignature(body, sig) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}
	var event service.CheckoutEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if event.Type != service.EventTypeCheckoutCompleted {
		// Other event types are acknowledged so the processor stops
		// redelivering them.
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	result, err := h.settlement.Settle(event)
	if err != nil {
		if errors.Is(err, service.ErrBadMetadata) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, codegen.ErrExhaustedRetries) {
			log.Error().Err(err).Str("event_id", event.ID).Msg("gift card code space exhausted")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "code generation exhausted"})
			return
		}
		log.Error().Err(err).Str("event_id", event.ID).Msg("settlement failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "settlement failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"received":     true,
		"duplicate":    result.Duplicate,
		"order_number": result.Order.OrderNumber,
	})
}

func (h *CheckoutWebhookHandler) verifySignature(body []byte, signature string) bool {
	if h.cfg.Checkout.WebhookSecret == "" {
		// No secret configured: only acceptable in development.
		return true
	}
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.cfg.Checkout.WebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
