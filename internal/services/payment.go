package services

import (
	"context"

	"shyness-client/internal/models"
)

// PaymentService handles the user-facing /payments endpoints (read-only)
type PaymentService struct {
	client *Client
}

// NewPaymentService creates a new payment service
func NewPaymentService(client *Client) *PaymentService {
	return &PaymentService{client: client}
}

// List returns the user's payouts
func (s *PaymentService) List(ctx context.Context) ([]models.Payment, error) {
	var out struct {
		Payments []models.Payment `json:"payments"`
	}
	if err := s.client.getJSON(ctx, "/payments", nil, &out); err != nil {
		return nil, err
	}
	return out.Payments, nil
}

// Stats returns payout totals
func (s *PaymentService) Stats(ctx context.Context) (*models.PaymentStats, error) {
	var out models.PaymentStats
	if err := s.client.getJSON(ctx, "/payments/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
