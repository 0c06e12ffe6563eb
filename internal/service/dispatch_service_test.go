package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"bottega/config"
	"bottega/internal/domain"
	"bottega/internal/models"
	"bottega/pkg/courier"

	"gorm.io/gorm"
)

type memDispatchOrders struct {
	mu     sync.Mutex
	orders map[uint]*models.Order
}

func newMemDispatchOrders(orders ...*models.Order) *memDispatchOrders {
	m := &memDispatchOrders{orders: map[uint]*models.Order{}}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *memDispatchOrders) GetByID(id uint) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memDispatchOrders) ListDispatchable(minAge time.Duration, limit int) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-minAge)
	var out []models.Order
	for _, o := range m.orders {
		if o.Status == domain.OrderStatusConfirmed && !o.DigitalOnly && o.CreatedAt.Before(cutoff) {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memDispatchOrders) MarkShipped(orderID uint, courierName, trackingNo string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || o.Status != domain.OrderStatusConfirmed {
		return false, nil
	}
	o.Status = domain.OrderStatusShipped
	o.CourierName = courierName
	o.TrackingNo = trackingNo
	return true, nil
}

func (m *memDispatchOrders) MarkManualReview(orderID uint, reason string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || o.Status != domain.OrderStatusConfirmed {
		return false, nil
	}
	o.Status = domain.OrderStatusManualReview
	o.ReviewReason = reason
	return true, nil
}

type fakeProvider struct {
	mu       sync.Mutex
	err      error
	tracking string
	calls    int
}

func (p *fakeProvider) SubmitShipment(ctx context.Context, req courier.ShipmentRequest) (*courier.ShipmentResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &courier.ShipmentResponse{TrackingNumber: p.tracking, Courier: req.Courier}, nil
}

type nopDispatchNotifier struct{}

func (nopDispatchNotifier) NotifyOrderShipped(userID uint, orderNumber, courierName, trackingNo string) {
}
func (nopDispatchNotifier) NotifyManualReview(orderNumber, reason string) {}

func dispatchCfg() config.CourierConfig {
	return config.CourierConfig{
		DefaultCourier: "brt",
		SenderName:     "Bottega",
		SenderCountry:  "IT",
		RequestTimeout: time.Second,
	}
}

func confirmedOrder(id uint) *models.Order {
	return &models.Order{
		ID:          id,
		OrderNumber: "BTG-TEST",
		UserID:      7,
		Status:      domain.OrderStatusConfirmed,
		ShipName:    "Anna Rossi",
		ShipStreet:  "Via Roma 1",
		ShipCity:    "Milano",
		ShipZip:     "20121",
		ShipCountry: "IT",
		CreatedAt:   time.Now().Add(-time.Hour),
	}
}

func TestDispatchSuccessMarksShipped(t *testing.T) {
	orders := newMemDispatchOrders(confirmedOrder(1))
	provider := &fakeProvider{tracking: "TRK123"}
	svc := NewDispatchService(orders, provider, nopDispatchNotifier{}, &stubAudit{}, &stubSettings{}, dispatchCfg())

	o, err := svc.Dispatch(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if o.Status != domain.OrderStatusShipped {
		t.Fatalf("status = %q, want shipped", o.Status)
	}
	if o.TrackingNo != "TRK123" {
		t.Fatalf("tracking = %q, want TRK123", o.TrackingNo)
	}
	if o.CourierName != "brt" {
		t.Fatalf("courier = %q, want the configured default", o.CourierName)
	}
}

func TestDispatchFailureLandsInManualReview(t *testing.T) {
	orders := newMemDispatchOrders(confirmedOrder(1))
	provider := &fakeProvider{err: errors.New("connection refused")}
	audit := &stubAudit{}
	svc := NewDispatchService(orders, provider, nopDispatchNotifier{}, audit, &stubSettings{}, dispatchCfg())

	o, err := svc.Dispatch(context.Background(), 1, "dhl")
	if err != nil {
		t.Fatalf("submission failure is a handled outcome, got error: %v", err)
	}
	if o.Status != domain.OrderStatusManualReview {
		t.Fatalf("status = %q, want manual_review", o.Status)
	}
	if !strings.Contains(o.ReviewReason, "dhl") || !strings.Contains(o.ReviewReason, "connection refused") {
		t.Fatalf("review reason %q should name courier and cause", o.ReviewReason)
	}
	if !audit.has("dispatch_failed") {
		t.Fatalf("failure not audited: %v", audit.actions())
	}
}

func TestDispatchMissingCredentialsLandsInManualReview(t *testing.T) {
	orders := newMemDispatchOrders(confirmedOrder(1))
	provider := courier.NewParcellineProvider("http://unused", "", time.Second)
	svc := NewDispatchService(orders, provider, nopDispatchNotifier{}, &stubAudit{}, &stubSettings{}, dispatchCfg())

	o, err := svc.Dispatch(context.Background(), 1, "")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if o.Status != domain.OrderStatusManualReview {
		t.Fatalf("status = %q, want manual_review without credentials", o.Status)
	}
}

func TestDispatchRejectsDigitalOrders(t *testing.T) {
	o := confirmedOrder(1)
	o.DigitalOnly = true
	svc := NewDispatchService(newMemDispatchOrders(o), &fakeProvider{tracking: "T"}, nopDispatchNotifier{}, &stubAudit{}, &stubSettings{}, dispatchCfg())

	_, err := svc.Dispatch(context.Background(), 1, "")
	if !errors.Is(err, ErrDigitalOrder) {
		t.Fatalf("expected ErrDigitalOrder, got %v", err)
	}
}

func TestDispatchRejectsNonConfirmedOrders(t *testing.T) {
	o := confirmedOrder(1)
	o.Status = domain.OrderStatusShipped
	provider := &fakeProvider{tracking: "T"}
	svc := NewDispatchService(newMemDispatchOrders(o), provider, nopDispatchNotifier{}, &stubAudit{}, &stubSettings{}, dispatchCfg())

	_, err := svc.Dispatch(context.Background(), 1, "")
	if !errors.Is(err, ErrOrderNotDispatchable) {
		t.Fatalf("expected ErrOrderNotDispatchable, got %v", err)
	}
	if provider.calls != 0 {
		t.Fatal("no submission should be attempted for a shipped order")
	}
}

func TestDispatchNeverStallsInConfirmed(t *testing.T) {
	// Whatever the provider does, a dispatched order must leave confirmed.
	for name, provider := range map[string]courier.Provider{
		"success": &fakeProvider{tracking: "TRK"},
		"failure": &fakeProvider{err: errors.New("boom")},
	} {
		orders := newMemDispatchOrders(confirmedOrder(1))
		svc := NewDispatchService(orders, provider, nopDispatchNotifier{}, &stubAudit{}, &stubSettings{}, dispatchCfg())
		o, err := svc.Dispatch(context.Background(), 1, "")
		if err != nil {
			t.Fatalf("%s: dispatch: %v", name, err)
		}
		if o.Status == domain.OrderStatusConfirmed {
			t.Fatalf("%s: order stalled in confirmed", name)
		}
	}
}

func TestDispatchPendingPicksAgedConfirmedOrders(t *testing.T) {
	aged := confirmedOrder(1)
	fresh := confirmedOrder(2)
	fresh.CreatedAt = time.Now()
	digital := confirmedOrder(3)
	digital.DigitalOnly = true
	orders := newMemDispatchOrders(aged, fresh, digital)
	provider := &fakeProvider{tracking: "TRK"}
	svc := NewDispatchService(orders, provider, nopDispatchNotifier{}, &stubAudit{}, &stubSettings{}, dispatchCfg())

	svc.dispatchPending(context.Background())

	if got, _ := orders.GetByID(1); got.Status != domain.OrderStatusShipped {
		t.Fatalf("aged order status = %q, want shipped", got.Status)
	}
	if got, _ := orders.GetByID(2); got.Status != domain.OrderStatusConfirmed {
		t.Fatalf("fresh order status = %q, must stay untouched", got.Status)
	}
	if got, _ := orders.GetByID(3); got.Status != domain.OrderStatusConfirmed {
		t.Fatalf("digital order status = %q, must stay untouched", got.Status)
	}
}
