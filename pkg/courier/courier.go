package courier

import (
	"context"
)

type Address struct {
	Name    string
	Street  string
	City    string
	Zip     string
	Country string
}

type ShipmentRequest struct {
	OrderNumber string
	Courier     string // carrier slug, e.g. "brt", "gls", "dhl"
	Sender      Address
	Recipient   Address
	WeightGrams int
	Reference   string
}

type ShipmentResponse struct {
	TrackingNumber string
	LabelURL       string
	Courier        string
}

// Provider submits parcels to a carrier aggregator. Any non-success response
// or transport error is a failure; the dispatch service turns failures into
// manual_review, never into a silent stall.
type Provider interface {
	SubmitShipment(ctx context.Context, req ShipmentRequest) (*ShipmentResponse, error)
}
