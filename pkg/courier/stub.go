package courier

import (
	"context"
	"fmt"
	"time"
)

// StubProvider is a no-op provider for development; always succeeds.
type StubProvider struct{}

func (s *StubProvider) SubmitShipment(ctx context.Context, req ShipmentRequest) (*ShipmentResponse, error) {
	return &ShipmentResponse{
		TrackingNumber: fmt.Sprintf("STUB%d", time.Now().UnixNano()),
		Courier:        req.Courier,
	}, nil
}
