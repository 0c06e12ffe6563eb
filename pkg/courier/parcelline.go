package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrNoCredentials means the provider was constructed without an API key;
// dispatch treats it like any other submission failure.
var ErrNoCredentials = errors.New("courier api key not configured")

// ParcellineProvider submits shipments to the Parcelline aggregator API.
type ParcellineProvider struct {
	BaseURL string
	APIKey  string
	client  *http.Client
}

func NewParcellineProvider(baseURL, apiKey string, timeout time.Duration) *ParcellineProvider {
	if baseURL == "" {
		baseURL = "https://api.parcelline.eu"
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &ParcellineProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type parcellineShipmentReq struct {
	Courier       string            `json:"courier"`
	Reference     string            `json:"reference"`
	Sender        parcellineAddress `json:"sender"`
	Recipient     parcellineAddress `json:"recipient"`
	WeightGrams   int               `json:"weight_grams"`
	LabelFormat   string            `json:"label_format"`
	ClientOrderID string            `json:"client_order_id"`
}

type parcellineAddress struct {
	Name    string `json:"name"`
	Street  string `json:"street"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

type parcellineShipmentResp struct {
	ID             string `json:"id"`
	TrackingNumber string `json:"tracking_number"`
	LabelURL       string `json:"label_url"`
	Courier        string `json:"courier"`
	Status         string `json:"status"`
	Message        string `json:"message"`
}

func (p *ParcellineProvider) SubmitShipment(ctx context.Context, req ShipmentRequest) (*ShipmentResponse, error) {
	if p.APIKey == "" {
		return nil, ErrNoCredentials
	}
	payload := parcellineShipmentReq{
		Courier:       req.Courier,
		Reference:     req.Reference,
		Sender:        parcellineAddress(req.Sender),
		Recipient:     parcellineAddress(req.Recipient),
		WeightGrams:   req.WeightGrams,
		LabelFormat:   "pdf",
		ClientOrderID: req.OrderNumber,
	}
	body, _ := json.Marshal(payload)
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/v1/shipments", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	apiReq.Header.Set("Content-Type", "application/json")
	apiReq.Header.Set("Authorization", "Bearer "+p.APIKey)
	resp, err := p.client.Do(apiReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Warn().Int("status", resp.StatusCode).Str("order", req.OrderNumber).Str("body", string(respBody)).Msg("courier submission rejected")
		return nil, fmt.Errorf("courier submit: %d", resp.StatusCode)
	}
	var out parcellineShipmentResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, err
	}
	if out.TrackingNumber == "" {
		return nil, fmt.Errorf("courier submit: no tracking number (%s)", out.Message)
	}
	return &ShipmentResponse{
		TrackingNumber: out.TrackingNumber,
		LabelURL:       out.LabelURL,
		Courier:        out.Courier,
	}, nil
}
