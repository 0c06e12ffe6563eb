package service

import (
	"sync"
	"testing"

	"bottega/internal/domain"
	"bottega/internal/models"

	"gorm.io/gorm"
)

type memReferrals struct {
	mu       sync.Mutex
	byUserID map[uint]*models.Referral
}

func newMemReferrals() *memReferrals {
	return &memReferrals{byUserID: map[uint]*models.Referral{}}
}

func (m *memReferrals) GetByReferredUserID(userID uint) (*models.Referral, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.byUserID[userID]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// MarkConverted mirrors the repository's conditional update: the status check
// and the write happen under one lock, so concurrent callers race for a single
// pending -> converted edge.
func (m *memReferrals) MarkConverted(referredUserID, orderID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byUserID[referredUserID]
	if !ok || r.Status != domain.ReferralStatusPending {
		return false, nil
	}
	r.Status = domain.ReferralStatusConverted
	r.ConvertedOrderID = &orderID
	return true, nil
}

type memOrderCounter struct {
	mu     sync.Mutex
	counts map[uint]int64
}

func (m *memOrderCounter) CountCompletedByUser(userID uint, excludeOrderID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[userID], nil
}

type memRewards struct {
	mu      sync.Mutex
	credits map[uint]int64
	calls   int
}

func (m *memRewards) CreditUser(userID uint, amountCents int64, txType, orderRef string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.credits == nil {
		m.credits = map[uint]int64{}
	}
	m.credits[userID] += amountCents
	m.calls++
	return m.credits[userID], nil
}

func TestTryConvertFirstOrderCreditsReferrer(t *testing.T) {
	referrals := newMemReferrals()
	referrals.byUserID[10] = &models.Referral{ReferrerID: 3, ReferredUserID: 10, Status: domain.ReferralStatusPending}
	rewards := &memRewards{}
	svc := NewReferralService(referrals, &memOrderCounter{}, rewards, &stubSettings{})

	res, err := svc.TryConvert(10, 55, "BTG-X")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !res.Converted || res.ReferrerID != 3 {
		t.Fatalf("expected conversion for referrer 3, got %+v", res)
	}
	if res.RewardCents != 500 {
		t.Fatalf("reward = %d, want default 500", res.RewardCents)
	}
	if rewards.credits[3] != 500 {
		t.Fatalf("referrer credited %d, want 500", rewards.credits[3])
	}
	if r := referrals.byUserID[10]; r.Status != domain.ReferralStatusConverted || *r.ConvertedOrderID != 55 {
		t.Fatalf("referral not converted to order 55: %+v", r)
	}
}

func TestTryConvertReadsRewardFromSettings(t *testing.T) {
	referrals := newMemReferrals()
	referrals.byUserID[10] = &models.Referral{ReferrerID: 3, ReferredUserID: 10, Status: domain.ReferralStatusPending}
	rewards := &memRewards{}
	settings := &stubSettings{values: map[string]string{domain.SettingReferralRewardCents: "750"}}
	svc := NewReferralService(referrals, &memOrderCounter{}, rewards, settings)

	res, err := svc.TryConvert(10, 55, "BTG-X")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if res.RewardCents != 750 || rewards.credits[3] != 750 {
		t.Fatalf("reward = %d credited = %d, want 750", res.RewardCents, rewards.credits[3])
	}
}

func TestTryConvertNoReferralIsQuietNoOp(t *testing.T) {
	svc := NewReferralService(newMemReferrals(), &memOrderCounter{}, &memRewards{}, &stubSettings{})
	res, err := svc.TryConvert(10, 55, "BTG-X")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if res.Converted {
		t.Fatal("no referral means no conversion")
	}
}

func TestTryConvertSkipsNonFirstOrder(t *testing.T) {
	referrals := newMemReferrals()
	referrals.byUserID[10] = &models.Referral{ReferrerID: 3, ReferredUserID: 10, Status: domain.ReferralStatusPending}
	rewards := &memRewards{}
	counter := &memOrderCounter{counts: map[uint]int64{10: 2}}
	svc := NewReferralService(referrals, counter, rewards, &stubSettings{})

	res, err := svc.TryConvert(10, 55, "BTG-X")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if res.Converted {
		t.Fatal("prior orders disqualify the conversion")
	}
	if referrals.byUserID[10].Status != domain.ReferralStatusPending {
		t.Fatal("referral should stay pending")
	}
	if rewards.calls != 0 {
		t.Fatal("no credit without conversion")
	}
}

func TestTryConvertAlreadyConvertedIsNoOp(t *testing.T) {
	referrals := newMemReferrals()
	referrals.byUserID[10] = &models.Referral{ReferrerID: 3, ReferredUserID: 10, Status: domain.ReferralStatusConverted}
	rewards := &memRewards{}
	svc := NewReferralService(referrals, &memOrderCounter{}, rewards, &stubSettings{})

	res, err := svc.TryConvert(10, 56, "BTG-Y")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if res.Converted || rewards.calls != 0 {
		t.Fatal("converted referral must never convert or credit again")
	}
}

func TestTryConvertConcurrentDuplicatesCreditOnce(t *testing.T) {
	referrals := newMemReferrals()
	referrals.byUserID[10] = &models.Referral{ReferrerID: 3, ReferredUserID: 10, Status: domain.ReferralStatusPending}
	rewards := &memRewards{}
	svc := NewReferralService(referrals, &memOrderCounter{}, rewards, &stubSettings{})

	var wg sync.WaitGroup
	converted := make(chan bool, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.TryConvert(10, 55, "BTG-X")
			if err != nil {
				t.Error(err)
				return
			}
			converted <- res.Converted
		}()
	}
	wg.Wait()
	close(converted)
	wins := 0
	for ok := range converted {
		if ok {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("exactly one caller should observe the conversion, got %d", wins)
	}
	if rewards.credits[3] != 500 {
		t.Fatalf("referrer credited %d, want exactly one 500 reward", rewards.credits[3])
	}
}
