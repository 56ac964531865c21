package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"shyness-client/internal/models"
)

// VideoService handles the /videos endpoints
type VideoService struct {
	client *Client
}

// NewVideoService creates a new video service
func NewVideoService(client *Client) *VideoService {
	return &VideoService{client: client}
}

// UploadRequest is one multipart video submission
type UploadRequest struct {
	File        io.Reader
	Filename    string
	ContentType string
	Title       string
	Description string
	TopicID     string
}

// Upload streams the file as multipart/form-data without buffering it
func (s *VideoService) Upload(ctx context.Context, req UploadRequest) (*models.Video, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeUploadForm(mw, req))
	}()

	env, err := s.client.doRaw(ctx, http.MethodPost, "/videos/upload", nil, mw.FormDataContentType(), pr)
	// unblock the writer if the request ended early
	pr.Close()
	if err != nil {
		return nil, err
	}

	var out struct {
		Video *models.Video `json:"video"`
	}
	if err := decodeData(env, &out); err != nil {
		return nil, err
	}
	if out.Video == nil {
		var v models.Video
		if err := decodeData(env, &v); err != nil {
			return nil, err
		}
		return &v, nil
	}
	return out.Video, nil
}

func writeUploadForm(mw *multipart.Writer, req UploadRequest) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="video"; filename=%q`, req.Filename))
	h.Set("Content-Type", req.ContentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, req.File); err != nil {
		return fmt.Errorf("failed to stream video: %w", err)
	}

	fields := [][2]string{
		{"title", req.Title},
		{"description", req.Description},
		{"topicId", req.TopicID},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return fmt.Errorf("failed to write %s: %w", f[0], err)
		}
	}
	return mw.Close()
}

// MyVideos lists the signed-in user's uploads
func (s *VideoService) MyVideos(ctx context.Context, page, limit int) ([]models.Video, models.Pagination, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var out struct {
		Videos     []models.Video    `json:"videos"`
		Pagination models.Pagination `json:"pagination"`
	}
	if err := s.client.getJSON(ctx, "/videos/my-videos", q, &out); err != nil {
		return nil, models.Pagination{}, err
	}
	return out.Videos, out.Pagination, nil
}

// Get returns one video
func (s *VideoService) Get(ctx context.Context, id string) (*models.Video, error) {
	var out models.Video
	if err := s.client.getJSON(ctx, "/videos/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update edits title, description and visibility
func (s *VideoService) Update(ctx context.Context, id string, upd models.VideoUpdate) (*models.Video, error) {
	var out models.Video
	if _, err := s.client.sendJSON(ctx, http.MethodPut, "/videos/"+url.PathEscape(id), upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a video
func (s *VideoService) Delete(ctx context.Context, id string) error {
	_, err := s.client.sendJSON(ctx, http.MethodDelete, "/videos/"+url.PathEscape(id), nil, nil)
	return err
}
