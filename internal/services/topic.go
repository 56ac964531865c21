package services

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"shyness-client/internal/models"
)

// TopicService handles the /topics endpoints
type TopicService struct {
	client *Client
}

// NewTopicService creates a new topic service
func NewTopicService(client *Client) *TopicService {
	return &TopicService{client: client}
}

// List returns topics matching filter
func (s *TopicService) List(ctx context.Context, filter models.TopicFilter) ([]models.Topic, error) {
	q := url.Values{}
	if filter.Category != "" {
		q.Set("category", filter.Category)
	}
	if filter.Difficulty != "" {
		q.Set("difficulty", filter.Difficulty)
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}

	var out struct {
		Topics []models.Topic `json:"topics"`
	}
	if err := s.client.getJSON(ctx, "/topics", q, &out); err != nil {
		return nil, err
	}
	return out.Topics, nil
}

// Get returns one topic
func (s *TopicService) Get(ctx context.Context, id string) (*models.Topic, error) {
	var out models.Topic
	if err := s.client.getJSON(ctx, "/topics/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Random picks a topic, optionally of one difficulty
func (s *TopicService) Random(ctx context.Context, difficulty string) (*models.Topic, error) {
	q := url.Values{}
	if difficulty != "" {
		q.Set("difficulty", difficulty)
	}
	var out models.Topic
	if err := s.client.getJSON(ctx, "/topics/random", q, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, ErrNotFound
	}
	return &out, nil
}

// Create adds a topic (admin only on the server)
func (s *TopicService) Create(ctx context.Context, t models.Topic) (*models.Topic, error) {
	var out models.Topic
	if _, err := s.client.sendJSON(ctx, http.MethodPost, "/topics", t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces a topic (admin only on the server)
func (s *TopicService) Update(ctx context.Context, id string, t models.Topic) (*models.Topic, error) {
	var out models.Topic
	if _, err := s.client.sendJSON(ctx, http.MethodPut, "/topics/"+url.PathEscape(id), t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a topic (admin only on the server)
func (s *TopicService) Delete(ctx context.Context, id string) error {
	_, err := s.client.sendJSON(ctx, http.MethodDelete, "/topics/"+url.PathEscape(id), nil, nil)
	return err
}
