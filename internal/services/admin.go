package services

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"shyness-client/internal/models"
)

// AdminService handles the /admin/dashboard endpoints
type AdminService struct {
	client *Client
}

// NewAdminService creates a new admin service
func NewAdminService(client *Client) *AdminService {
	return &AdminService{client: client}
}

// Overview returns the console home aggregate
func (s *AdminService) Overview(ctx context.Context) (*models.AdminOverview, error) {
	var out models.AdminOverview
	if err := s.client.getJSON(ctx, "/admin/dashboard/overview", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Videos lists all videos, filtered by status and paged
func (s *AdminService) Videos(ctx context.Context, filter models.VideoFilter) ([]models.Video, models.Pagination, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.Page > 0 {
		q.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}

	var out struct {
		Videos     []models.Video    `json:"videos"`
		Pagination models.Pagination `json:"pagination"`
	}
	if err := s.client.getJSON(ctx, "/admin/dashboard/videos", q, &out); err != nil {
		return nil, models.Pagination{}, err
	}
	return out.Videos, out.Pagination, nil
}

// UpdateVideoStatus overrides a video's validation status
func (s *AdminService) UpdateVideoStatus(ctx context.Context, id string, status models.VideoStatus) error {
	body := map[string]string{"status": string(status)}
	_, err := s.client.sendJSON(ctx, http.MethodPut, "/admin/dashboard/videos/"+url.PathEscape(id)+"/status", body, nil)
	return err
}

// DeleteVideo removes a video
func (s *AdminService) DeleteVideo(ctx context.Context, id string) error {
	_, err := s.client.sendJSON(ctx, http.MethodDelete, "/admin/dashboard/videos/"+url.PathEscape(id), nil, nil)
	return err
}

// Users lists users
func (s *AdminService) Users(ctx context.Context, page, limit int) ([]models.AdminUser, models.Pagination, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var out struct {
		Users      []models.AdminUser `json:"users"`
		Pagination models.Pagination  `json:"pagination"`
	}
	if err := s.client.getJSON(ctx, "/admin/dashboard/users", q, &out); err != nil {
		return nil, models.Pagination{}, err
	}
	return out.Users, out.Pagination, nil
}

// User returns one user with statistics
func (s *AdminService) User(ctx context.Context, id string) (*models.AdminUser, error) {
	var out struct {
		User *models.AdminUser `json:"user"`
	}
	if err := s.client.getJSON(ctx, "/admin/dashboard/users/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, ErrNotFound
	}
	return out.User, nil
}

// Payments lists all payouts
func (s *AdminService) Payments(ctx context.Context) ([]models.Payment, error) {
	var out struct {
		Payments []models.Payment `json:"payments"`
	}
	if err := s.client.getJSON(ctx, "/admin/dashboard/payments", nil, &out); err != nil {
		return nil, err
	}
	return out.Payments, nil
}

// EligibleUsers lists users whose streak meets the threshold
func (s *AdminService) EligibleUsers(ctx context.Context) ([]models.EligibleUser, error) {
	var out []models.EligibleUser
	if err := s.client.getJSON(ctx, "/admin/dashboard/eligible-users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdatePaymentStatus moves a payout to status
func (s *AdminService) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus, notes string) error {
	body := map[string]string{"status": string(status)}
	if notes != "" {
		body["adminNotes"] = notes
	}
	_, err := s.client.sendJSON(ctx, http.MethodPut, "/admin/dashboard/payments/"+url.PathEscape(id)+"/status", body, nil)
	return err
}

// CreatePayment issues a payout for an eligible user
func (s *AdminService) CreatePayment(ctx context.Context, req models.CreatePaymentRequest) (*models.Payment, error) {
	var out struct {
		Payment *models.Payment `json:"payment"`
	}
	if _, err := s.client.sendJSON(ctx, http.MethodPost, "/admin/dashboard/create-payment", req, &out); err != nil {
		return nil, err
	}
	return out.Payment, nil
}
