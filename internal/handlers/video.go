package handlers

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"shyness-client/internal/models"
	"shyness-client/internal/query"
	"shyness-client/internal/services"
	"shyness-client/internal/session"
	"shyness-client/internal/validation"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

// UploadForm is what the user submits on the upload page
type UploadForm struct {
	Path        string
	Title       string
	Description string
	TopicID     string
}

// VideoHandler renders upload and my-videos
type VideoHandler struct {
	session *session.Store[models.User]
	videos  *services.VideoService
	query   *query.Client
	nav     Navigator
}

// NewVideoHandler creates a new video handler
func NewVideoHandler(sess *session.Store[models.User], videos *services.VideoService, q *query.Client, nav Navigator) *VideoHandler {
	return &VideoHandler{
		session: sess,
		videos:  videos,
		query:   q,
		nav:     nav,
	}
}

// Upload validates the form locally and only then streams the file
func (h *VideoHandler) Upload(ctx context.Context, w io.Writer, form UploadForm) error {
	if err := guard(w, h.nav, h.session, "/app/upload"); err != nil {
		return err
	}

	file, err := validation.InspectVideo(form.Path)
	if err != nil {
		fmt.Fprintf(w, "Cannot read %s\n", form.Path)
		return err
	}

	errs := validation.ValidateUpload(validation.Upload{
		File:        file,
		Title:       form.Title,
		Description: form.Description,
		TopicID:     form.TopicID,
	})
	if errs.ValidationFailed() {
		log.Debug().Strs("errors", errs.Messages()).Msg("Upload rejected before sending")
		fmt.Fprintln(w, "Please fix the errors below before uploading:")
		return printErrors(w, errs)
	}

	f, err := os.Open(form.Path)
	if err != nil {
		return fmt.Errorf("failed to open video: %w", err)
	}
	defer f.Close()

	fmt.Fprintf(w, "Uploading %s (%s)...\n", file.Name, humanize.IBytes(uint64(file.Size)))

	video, err := query.Mutate(ctx, h.query, MutationVideoUpload, func(ctx context.Context) (*models.Video, error) {
		return h.videos.Upload(ctx, services.UploadRequest{
			File:        f,
			Filename:    file.Name,
			ContentType: file.ContentType,
			Title:       strings.TrimSpace(form.Title),
			Description: strings.TrimSpace(form.Description),
			TopicID:     form.TopicID,
		})
	})
	if err != nil {
		return notify(w, err, "", "Upload failed. Please try again.")
	}

	log.Info().Str("video_id", video.ID).Str("topic_id", form.TopicID).Msg("Video uploaded")
	h.nav.Navigate("/app/videos")
	return notify(w, nil, "Video uploaded successfully! Your streak will update once it is validated.", "")
}

// videoPage is one page of a video listing
type videoPage struct {
	videos     []models.Video
	pagination models.Pagination
}

func (p videoPage) empty() bool { return len(p.videos) == 0 }

// MyVideos lists the user's uploads
func (h *VideoHandler) MyVideos(ctx context.Context, w io.Writer, page, limit int) error {
	if err := guard(w, h.nav, h.session, "/app/videos"); err != nil {
		return err
	}

	res, rs := load(ctx, h.query, query.NewKey(ResourceMyVideos, page, limit), func(ctx context.Context) (videoPage, error) {
		v, p, err := h.videos.MyVideos(ctx, page, limit)
		return videoPage{videos: v, pagination: p}, err
	}, videoPage.empty)
	return renderMyVideos(w, res, rs)
}

// WatchMyVideos keeps one page of uploads on screen so validation results
// show up as they land
func (h *VideoHandler) WatchMyVideos(ctx context.Context, w io.Writer, page, limit int, refresh, recheck time.Duration) error {
	if err := h.MyVideos(ctx, w, page, limit); err != nil {
		return err
	}

	return watch(ctx, w, h.query, h.session, h.nav, watchPlan{
		name:    "my-videos",
		key:     query.NewKey(ResourceMyVideos, page, limit),
		every:   refresh,
		recheck: recheck,
		refresh: func(ctx context.Context) error {
			return h.query.Invalidate(ctx, ResourceMyVideos)
		},
		draw: func(w io.Writer, snap query.Snapshot) {
			res, _ := snap.Data.(videoPage)
			renderMyVideos(w, res, query.Render(snap, videoPage.empty))
		},
		expired: "Your session has expired. Please log in again.",
	})
}

func renderMyVideos(w io.Writer, res videoPage, rs query.RenderState) error {
	if ok, err := renderState(w, rs, "videos", "No videos yet. Pick a topic and upload your first one!"); !ok {
		return err
	}

	for _, v := range res.videos {
		topic := ""
		if v.Topic != nil {
			topic = v.Topic.Title
		}
		visibility := "private"
		if v.IsPublic {
			visibility = "public"
		}
		fmt.Fprintf(w, "%s  %s  [%s]  %s  %s  %s\n", v.ID, v.Title, v.ValidationStatus, topic, visibility, humanize.Time(v.UploadDate))
	}
	if p := res.pagination; p.Pages > 1 {
		fmt.Fprintf(w, "\nPage %d of %d (%d videos)\n", p.Page, p.Pages, p.Total)
	}
	return nil
}

// Edit changes the fields set in upd and leaves the rest as they are
func (h *VideoHandler) Edit(ctx context.Context, w io.Writer, id string, upd models.VideoUpdate) error {
	if err := guard(w, h.nav, h.session, "/app/videos"); err != nil {
		return err
	}

	if upd.Empty() {
		fmt.Fprintln(w, "Nothing to change. Pass --title, --description or --public.")
		return ErrNothingToChange
	}

	var errs validation.Errors
	if upd.Title != nil {
		errs = append(errs, validation.ValidateTitle(*upd.Title)...)
		upd.Title = trimmed(*upd.Title)
	}
	if upd.Description != nil {
		errs = append(errs, validation.ValidateDescription(*upd.Description)...)
		upd.Description = trimmed(*upd.Description)
	}
	if errs.ValidationFailed() {
		return printErrors(w, errs)
	}

	_, err := query.Mutate(ctx, h.query, MutationVideoUpdate, func(ctx context.Context) (*models.Video, error) {
		return h.videos.Update(ctx, id, upd)
	})
	return notify(w, err, "Video updated", "Failed to update video")
}

func trimmed(s string) *string {
	s = strings.TrimSpace(s)
	return &s
}

// Delete removes one of the user's videos
func (h *VideoHandler) Delete(ctx context.Context, w io.Writer, id string) error {
	if err := guard(w, h.nav, h.session, "/app/videos"); err != nil {
		return err
	}

	_, err := query.Mutate(ctx, h.query, MutationVideoDelete, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.videos.Delete(ctx, id)
	})
	return notify(w, err, "Video deleted", "Failed to delete video")
}
