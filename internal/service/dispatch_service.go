package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"bottega/config"
	"bottega/internal/domain"
	"bottega/internal/models"
	"bottega/pkg/courier"

	"github.com/rs/zerolog/log"
)

var (
	ErrOrderNotDispatchable = errors.New("order is not in a dispatchable state")
	ErrDigitalOrder         = errors.New("digital orders are not dispatched")
)

type DispatchOrderStore interface {
	GetByID(id uint) (*models.Order, error)
	ListDispatchable(minAge time.Duration, limit int) ([]models.Order, error)
	MarkShipped(orderID uint, courierName, trackingNo string) (bool, error)
	MarkManualReview(orderID uint, reason string) (bool, error)
}

type DispatchNotifier interface {
	NotifyOrderShipped(userID uint, orderNumber, courierName, trackingNo string)
	NotifyManualReview(orderNumber, reason string)
}

// DispatchService submits confirmed orders to the carrier. Every attempt
// ends in a terminal, human-actionable state: shipped with a tracking
// number, or manual_review with a reason. Orders never stall in confirmed
// after an attempt.
type DispatchService struct {
	orders   DispatchOrderStore
	provider courier.Provider
	notifier DispatchNotifier
	audit    AuditTrail
	settings SettingsReader
	cfg      config.CourierConfig
}

func NewDispatchService(orders DispatchOrderStore, provider courier.Provider, notifier DispatchNotifier, audit AuditTrail, settings SettingsReader, cfg config.CourierConfig) *DispatchService {
	return &DispatchService{
		orders:   orders,
		provider: provider,
		notifier: notifier,
		audit:    audit,
		settings: settings,
		cfg:      cfg,
	}
}

// Dispatch submits one order. Submission failure (missing credentials,
// transport error, carrier rejection) transitions the order to
// manual_review; it is reported as a handled outcome, not an error.
func (s *DispatchService) Dispatch(ctx context.Context, orderID uint, courierName string) (*models.Order, error) {
	o, err := s.orders.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if o.DigitalOnly {
		return nil, ErrDigitalOrder
	}
	if o.Status != domain.OrderStatusConfirmed {
		return nil, fmt.Errorf("%w: %s is %s", ErrOrderNotDispatchable, o.OrderNumber, o.Status)
	}
	if courierName == "" {
		courierName = s.cfg.DefaultCourier
	}

	subCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()
	resp, err := s.provider.SubmitShipment(subCtx, courier.ShipmentRequest{
		OrderNumber: o.OrderNumber,
		Courier:     courierName,
		Sender: courier.Address{
			Name:    s.cfg.SenderName,
			Street:  s.cfg.SenderStreet,
			City:    s.cfg.SenderCity,
			Zip:     s.cfg.SenderZip,
			Country: s.cfg.SenderCountry,
		},
		Recipient: courier.Address{
			Name:    o.ShipName,
			Street:  o.ShipStreet,
			City:    o.ShipCity,
			Zip:     o.ShipZip,
			Country: o.ShipCountry,
		},
		Reference: o.OrderNumber,
	})
	if err != nil {
		reason := fmt.Sprintf("courier %s: %v", courierName, err)
		log.Warn().Err(err).Str("order_number", o.OrderNumber).Str("courier", courierName).Msg("dispatch failed, moving to manual review")
		if _, mrErr := s.orders.MarkManualReview(o.ID, reason); mrErr != nil {
			return nil, fmt.Errorf("mark manual review: %w", mrErr)
		}
		s.auditDispatch(o, "dispatch_failed", reason)
		go s.notifier.NotifyManualReview(o.OrderNumber, reason)
		return s.orders.GetByID(o.ID)
	}

	ok, err := s.orders.MarkShipped(o.ID, courierName, resp.TrackingNumber)
	if err != nil {
		return nil, fmt.Errorf("mark shipped: %w", err)
	}
	if !ok {
		// Someone else transitioned the order mid-flight; the shipment
		// exists, so surface it for reconciliation instead of guessing.
		reason := fmt.Sprintf("shipment %s submitted but order no longer confirmed", resp.TrackingNumber)
		s.auditDispatch(o, "dispatch_race", reason)
		return s.orders.GetByID(o.ID)
	}
	s.auditDispatch(o, "dispatched", resp.TrackingNumber)
	go s.notifier.NotifyOrderShipped(o.UserID, o.OrderNumber, courierName, resp.TrackingNumber)
	return s.orders.GetByID(o.ID)
}

// StartWorker periodically dispatches aged confirmed orders until ctx ends.
func (s *DispatchService) StartWorker(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.dispatchPending(ctx)
			}
		}
	}()
}

func (s *DispatchService) dispatchPending(ctx context.Context) {
	orders, err := s.orders.ListDispatchable(s.minAge(), 20)
	if err != nil {
		log.Error().Err(err).Msg("dispatch worker: list failed")
		return
	}
	for _, o := range orders {
		if _, err := s.Dispatch(ctx, o.ID, s.cfg.DefaultCourier); err != nil {
			log.Error().Err(err).Uint("order_id", o.ID).Msg("dispatch worker: dispatch failed")
		}
	}
}

func (s *DispatchService) minAge() time.Duration {
	raw, err := s.settings.Get(domain.SettingDispatchMinAgeMinutes)
	if err != nil || raw == "" {
		return 15 * time.Minute
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 15 * time.Minute
	}
	return time.Duration(n) * time.Minute
}

func (s *DispatchService) auditDispatch(o *models.Order, action, detail string) {
	if err := s.audit.Create(&models.AuditLog{
		UserID:     &o.UserID,
		Action:     action,
		Resource:   "order",
		ResourceID: o.OrderNumber,
		Detail:     detail,
	}); err != nil {
		log.Error().Err(err).Str("action", action).Msg("audit write failed")
	}
}
