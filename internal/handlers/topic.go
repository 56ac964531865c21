package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"shyness-client/internal/models"
	"shyness-client/internal/query"
	"shyness-client/internal/services"
	"shyness-client/internal/session"
)

// TopicHandler renders topic selection
type TopicHandler struct {
	session *session.Store[models.User]
	topics  *services.TopicService
	query   *query.Client
	nav     Navigator
}

// NewTopicHandler creates a new topic handler
func NewTopicHandler(sess *session.Store[models.User], topics *services.TopicService, q *query.Client, nav Navigator) *TopicHandler {
	return &TopicHandler{
		session: sess,
		topics:  topics,
		query:   q,
		nav:     nav,
	}
}

// List shows the topics matching filter
func (h *TopicHandler) List(ctx context.Context, w io.Writer, filter models.TopicFilter) error {
	if err := guard(w, h.nav, h.session, "/app/topics"); err != nil {
		return err
	}

	key := query.NewKey(ResourceTopics, filter.Category, filter.Difficulty, filter.Limit)
	topics, rs := load(ctx, h.query, key, func(ctx context.Context) ([]models.Topic, error) {
		return h.topics.List(ctx, filter)
	}, func(t []models.Topic) bool { return len(t) == 0 })

	if ok, err := renderState(w, rs, "topics", "No topics match these filters."); !ok {
		return err
	}

	for _, t := range topics {
		fmt.Fprintf(w, "%s  %s  (%s, %s)\n", t.ID, t.Title, t.Category, t.Difficulty)
	}
	fmt.Fprintln(w, "\nPick one with `shyness topics select <id>` or try `shyness topics random`.")
	return nil
}

// Random picks a topic, optionally of one difficulty, and selects it
func (h *TopicHandler) Random(ctx context.Context, w io.Writer, difficulty string) error {
	if err := guard(w, h.nav, h.session, "/app/topics"); err != nil {
		return err
	}

	// a fresh pick every time, never served from cache
	t, err := query.Fetch(ctx, h.query, query.NewKey(ResourceTopic, "random", difficulty), func(ctx context.Context) (*models.Topic, error) {
		return h.topics.Random(ctx, difficulty)
	})
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			fmt.Fprintln(w, "No random topic available")
			return err
		}
		return notify(w, err, "", "Failed to get random topic")
	}

	return h.show(w, t)
}

// Select shows one topic and points at the upload page for it
func (h *TopicHandler) Select(ctx context.Context, w io.Writer, id string) error {
	if err := guard(w, h.nav, h.session, "/app/topics"); err != nil {
		return err
	}

	t, rs := load(ctx, h.query, query.NewKey(ResourceTopic, id), func(ctx context.Context) (*models.Topic, error) {
		return h.topics.Get(ctx, id)
	}, func(t *models.Topic) bool { return t == nil || t.ID == "" })

	if ok, err := renderState(w, rs, "topic", "Invalid topic selected. Please select a topic again."); !ok {
		return err
	}
	return h.show(w, t)
}

func (h *TopicHandler) show(w io.Writer, t *models.Topic) error {
	fmt.Fprintf(w, "Topic: %s\n", t.Title)
	fmt.Fprintf(w, "Category: %s  Difficulty: %s\n", t.Category, t.Difficulty)
	if t.Description != "" {
		fmt.Fprintf(w, "\n%s\n", t.Description)
	}
	if len(t.Tips) > 0 {
		fmt.Fprintln(w, "\nTips:")
		for _, tip := range t.Tips {
			fmt.Fprintf(w, "  - %s\n", strings.TrimSpace(tip))
		}
	}

	h.nav.Navigate("/app/upload?topic=" + t.ID)
	fmt.Fprintf(w, "\nRecord your video, then run `shyness upload --topic %s <file>`.\n", t.ID)
	return nil
}
