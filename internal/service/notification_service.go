package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bottega/internal/models"
	"bottega/pkg/chatbot"

	"github.com/rs/zerolog/log"
)

type NotificationStore interface {
	Create(n *models.Notification) error
}

type OpsBroadcaster interface {
	Broadcast(payload interface{})
}

// NotificationService is pure best-effort: it persists a row for the user,
// mirrors the alert onto the ops feed and the chat bot, and never lets a
// transport failure reach a settlement path.
type NotificationService struct {
	repo NotificationStore
	hub  OpsBroadcaster
	bot  chatbot.Sender
}

func NewNotificationService(repo NotificationStore, hub OpsBroadcaster, bot chatbot.Sender) *NotificationService {
	return &NotificationService{repo: repo, hub: hub, bot: bot}
}

func (s *NotificationService) Notify(userID uint, notifType, title, body string, data map[string]interface{}) {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	if err := s.repo.Create(&models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	}); err != nil {
		log.Error().Err(err).Str("type", notifType).Uint("user_id", userID).Msg("notification persist failed")
	}
	if s.hub != nil {
		s.hub.Broadcast(map[string]interface{}{
			"type":    notifType,
			"user_id": userID,
			"title":   title,
			"body":    body,
			"data":    data,
		})
	}
	s.sendAlert(title + " — " + body)
}

func (s *NotificationService) sendAlert(text string) {
	if s.bot == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.bot.Send(ctx, text); err != nil {
		log.Warn().Err(err).Msg("chat bot alert failed")
	}
}

func (s *NotificationService) NotifyOrderConfirmed(userID uint, orderNumber string, totalCents int64) {
	s.Notify(userID, "ORDER_CONFIRMED", "Order confirmed",
		fmt.Sprintf("Order %s confirmed (%.2f EUR)", orderNumber, float64(totalCents)/100),
		map[string]interface{}{"order_number": orderNumber, "total_cents": totalCents})
}

func (s *NotificationService) NotifyGiftCardIssued(userID uint, code string, amountCents int64, recipientEmail string) {
	s.Notify(userID, "GIFT_CARD_ISSUED", "Gift card issued",
		fmt.Sprintf("Gift card for %.2f EUR sent to %s", float64(amountCents)/100, recipientEmail),
		map[string]interface{}{"code": code, "amount_cents": amountCents})
}

func (s *NotificationService) NotifyReferralConverted(referrerID uint, rewardCents int64, orderNumber string) {
	s.Notify(referrerID, "REFERRAL_CONVERTED", "Referral reward",
		fmt.Sprintf("Your referral placed their first order, %.2f EUR credited", float64(rewardCents)/100),
		map[string]interface{}{"reward_cents": rewardCents, "order_number": orderNumber})
}

func (s *NotificationService) NotifyOrderShipped(userID uint, orderNumber, courierName, trackingNo string) {
	s.Notify(userID, "ORDER_SHIPPED", "Order shipped",
		fmt.Sprintf("Order %s shipped via %s, tracking %s", orderNumber, courierName, trackingNo),
		map[string]interface{}{"order_number": orderNumber, "courier": courierName, "tracking_no": trackingNo})
}

func (s *NotificationService) NotifyManualReview(orderNumber, reason string) {
	if s.hub != nil {
		s.hub.Broadcast(map[string]interface{}{
			"type":         "MANUAL_REVIEW",
			"order_number": orderNumber,
			"reason":       reason,
		})
	}
	s.sendAlert(fmt.Sprintf("Order %s needs manual review: %s", orderNumber, reason))
}
