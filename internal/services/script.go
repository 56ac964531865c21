package services

import (
	"context"
	"net/http"
	"net/url"

	"shyness-client/internal/models"
)

// ScriptService handles the /scripts endpoints
type ScriptService struct {
	client *Client
}

// NewScriptService creates a new script service
func NewScriptService(client *Client) *ScriptService {
	return &ScriptService{client: client}
}

// Categories lists script buckets
func (s *ScriptService) Categories(ctx context.Context) ([]models.ScriptCategory, error) {
	var out []models.ScriptCategory
	if err := s.client.getJSON(ctx, "/scripts/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ByCategory lists scripts of one category, optionally filtered
func (s *ScriptService) ByCategory(ctx context.Context, category, search, difficulty string) ([]models.Script, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	if difficulty != "" {
		q.Set("difficulty", difficulty)
	}
	var out struct {
		Scripts []models.Script `json:"scripts"`
	}
	if err := s.client.getJSON(ctx, "/scripts/category/"+url.PathEscape(category), q, &out); err != nil {
		return nil, err
	}
	return out.Scripts, nil
}

// Get returns one script with its content
func (s *ScriptService) Get(ctx context.Context, id string) (*models.Script, error) {
	var out models.Script
	if err := s.client.getJSON(ctx, "/scripts/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Download records a download server-side
func (s *ScriptService) Download(ctx context.Context, id string) error {
	_, err := s.client.sendJSON(ctx, http.MethodPost, "/scripts/"+url.PathEscape(id)+"/download", nil, nil)
	return err
}
