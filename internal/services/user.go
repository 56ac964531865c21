package services

import (
	"context"
	"net/http"

	"shyness-client/internal/models"
)

// UserService handles the /user endpoints
type UserService struct {
	client *Client
}

// NewUserService creates a new user service
func NewUserService(client *Client) *UserService {
	return &UserService{client: client}
}

// Dashboard returns the home aggregate
func (s *UserService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	var out models.Dashboard
	if err := s.client.getJSON(ctx, "/user/dashboard", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats returns profile statistics
func (s *UserService) Stats(ctx context.Context) (*models.UserStats, error) {
	var out models.UserStats
	if err := s.client.getJSON(ctx, "/user/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Streak returns the current streak block
func (s *UserService) Streak(ctx context.Context) (*models.Streak, error) {
	var out models.Streak
	if err := s.client.getJSON(ctx, "/user/streak", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Rewards returns earned and available rewards
func (s *UserService) Rewards(ctx context.Context) (*models.RewardsSummary, error) {
	var out models.RewardsSummary
	if err := s.client.getJSON(ctx, "/user/rewards", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PaymentInfo returns the stored payout details; nil when none are saved
func (s *UserService) PaymentInfo(ctx context.Context) (*models.PaymentInfo, error) {
	var out struct {
		PaymentInfo *models.PaymentInfo `json:"paymentInfo"`
	}
	if err := s.client.getJSON(ctx, "/user/payment-info", nil, &out); err != nil {
		return nil, err
	}
	return out.PaymentInfo, nil
}

// UpdatePaymentInfo replaces the payout details
func (s *UserService) UpdatePaymentInfo(ctx context.Context, info models.PaymentInfo) (*models.PaymentInfo, error) {
	env, err := s.client.sendJSON(ctx, http.MethodPut, "/user/payment-info", info, nil)
	if err != nil {
		return nil, err
	}
	u, err := userFromEnvelope(env)
	if err != nil || u.PaymentInfo == nil {
		return &info, nil
	}
	return u.PaymentInfo, nil
}
