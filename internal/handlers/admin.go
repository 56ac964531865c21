package handlers

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"shyness-client/internal/models"
	"shyness-client/internal/query"
	"shyness-client/internal/services"
	"shyness-client/internal/session"
	"shyness-client/internal/validation"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// AdminPaymentNote is attached to payouts created from the console
const AdminPaymentNote = "Payment created by admin for 10+ day streak"

// PaymentTiles counts pending and completed payouts
func PaymentTiles(payments []models.Payment) (pending, completed int) {
	for _, p := range payments {
		switch p.Status {
		case models.PaymentPending:
			pending++
		case models.PaymentCompleted:
			completed++
		}
	}
	return pending, completed
}

// AdminHandler renders the moderation console
type AdminHandler struct {
	session *session.Store[models.Admin]
	auth    *services.AdminAuthService
	admin   *services.AdminService
	topics  *services.TopicService
	query   *query.Client
	nav     Navigator
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(sess *session.Store[models.Admin], auth *services.AdminAuthService, admin *services.AdminService, topics *services.TopicService, q *query.Client, nav Navigator) *AdminHandler {
	return &AdminHandler{
		session: sess,
		auth:    auth,
		admin:   admin,
		topics:  topics,
		query:   q,
		nav:     nav,
	}
}

// Login signs an admin in
func (h *AdminHandler) Login(ctx context.Context, w io.Writer, email, password string) error {
	h.nav.Visit("/admin/login")
	if h.session.IsAuthenticated() {
		h.nav.Navigate("/admin/dashboard")
		fmt.Fprintln(w, "Already signed in to the console.")
		return nil
	}

	if errs := validation.ValidateLogin(email, password); errs.ValidationFailed() {
		return printErrors(w, errs)
	}

	if err := h.session.Login(ctx, email, password); err != nil {
		fmt.Fprintln(w, authMessage(err))
		return err
	}

	h.query.Clear()
	h.nav.Navigate("/admin/dashboard")
	fmt.Fprintf(w, "Signed in to the console as %s\n", h.session.Snapshot().User.Email)
	return nil
}

// Logout ends the admin session locally
func (h *AdminHandler) Logout(w io.Writer) error {
	err := h.session.Logout()
	h.query.Clear()
	h.nav.Navigate("/admin/login")
	fmt.Fprintln(w, "Signed out of the console.")
	return err
}

// Overview shows the console home tiles and recent activity
func (h *AdminHandler) Overview(ctx context.Context, w io.Writer) error {
	if err := guard(w, h.nav, h.session, "/admin/dashboard"); err != nil {
		return err
	}

	ov, rs := load(ctx, h.query, query.NewKey(ResourceAdminOverview), h.admin.Overview, nil)
	return h.renderOverview(w, ov, rs)
}

func (h *AdminHandler) renderOverview(w io.Writer, ov *models.AdminOverview, rs query.RenderState) error {
	if ok, err := renderState(w, rs, "overview", "Nothing to show yet."); !ok {
		return err
	}

	st := ov.Stats
	fmt.Fprintf(w, "Users: %d  Videos: %d  Pending: %d  Valid: %d\n",
		st.TotalUsers, st.TotalVideos, st.PendingVideos, st.ValidVideos)

	fmt.Fprintln(w, "\nRecent videos:")
	for _, v := range ov.RecentVideos {
		owner := ""
		if v.User != nil {
			owner = v.User.Name
		}
		fmt.Fprintf(w, "  %s  %s  by %s  [%s]\n", v.ID, v.Title, owner, v.ValidationStatus)
	}
	fmt.Fprintln(w, "\nRecent users:")
	for _, u := range ov.RecentUsers {
		fmt.Fprintf(w, "  %s <%s>  joined %s\n", u.Name, u.Email, humanize.Time(u.CreatedAt))
	}
	return nil
}

// Watch keeps the overview live: it refetches every refresh interval,
// re-checks the admin token every recheck interval and returns when ctx
// ends or the session is lost.
func (h *AdminHandler) Watch(ctx context.Context, w io.Writer, refresh, recheck time.Duration) error {
	if err := h.Overview(ctx, w); err != nil {
		return err
	}

	return watch(ctx, w, h.query, h.session, h.nav, watchPlan{
		name:    "admin-overview",
		key:     query.NewKey(ResourceAdminOverview),
		every:   refresh,
		recheck: recheck,
		refresh: func(ctx context.Context) error {
			return h.query.Invalidate(ctx, ResourceAdminOverview)
		},
		draw: func(w io.Writer, snap query.Snapshot) {
			ov, _ := snap.Data.(*models.AdminOverview)
			h.renderOverview(w, ov, query.Render[*models.AdminOverview](snap, nil))
		},
		expired: "Your console session has expired. Please log in again.",
	})
}

// Videos lists videos for moderation
func (h *AdminHandler) Videos(ctx context.Context, w io.Writer, filter models.VideoFilter) error {
	if err := guard(w, h.nav, h.session, "/admin/videos"); err != nil {
		return err
	}

	type result struct {
		videos     []models.Video
		pagination models.Pagination
	}
	key := query.NewKey(ResourceAdminVideos, filter.Status, filter.Page, filter.Limit)
	res, rs := load(ctx, h.query, key, func(ctx context.Context) (result, error) {
		v, p, err := h.admin.Videos(ctx, filter)
		return result{videos: v, pagination: p}, err
	}, func(r result) bool { return len(r.videos) == 0 })

	if ok, err := renderState(w, rs, "videos", "No videos match this filter."); !ok {
		return err
	}
	for _, v := range res.videos {
		owner, topic := "", ""
		if v.User != nil {
			owner = v.User.Email
		}
		if v.Topic != nil {
			topic = v.Topic.Title
		}
		fmt.Fprintf(w, "%s  %s  [%s]  %s  %s  %s\n", v.ID, v.Title, v.ValidationStatus, owner, topic, humanize.Time(v.UploadDate))
	}
	if p := res.pagination; p.Pages > 1 {
		fmt.Fprintf(w, "\nPage %d of %d (%d videos)\n", p.Page, p.Pages, p.Total)
	}
	return nil
}

// SetVideoStatus overrides a video's validation status
func (h *AdminHandler) SetVideoStatus(ctx context.Context, w io.Writer, id string, status models.VideoStatus) error {
	if err := guard(w, h.nav, h.session, "/admin/videos"); err != nil {
		return err
	}

	_, err := query.Mutate(ctx, h.query, MutationAdminVideoStatus, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.admin.UpdateVideoStatus(ctx, id, status)
	})
	return notify(w, err, fmt.Sprintf("Video marked %s", status), "Failed to update video status")
}

// DeleteVideo removes a video
func (h *AdminHandler) DeleteVideo(ctx context.Context, w io.Writer, id string) error {
	if err := guard(w, h.nav, h.session, "/admin/videos"); err != nil {
		return err
	}

	_, err := query.Mutate(ctx, h.query, MutationAdminVideoDelete, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.admin.DeleteVideo(ctx, id)
	})
	return notify(w, err, "Video deleted", "Failed to delete video")
}

// Users lists users with their activity
func (h *AdminHandler) Users(ctx context.Context, w io.Writer, page, limit int) error {
	if err := guard(w, h.nav, h.session, "/admin/users"); err != nil {
		return err
	}

	type result struct {
		users      []models.AdminUser
		pagination models.Pagination
	}
	res, rs := load(ctx, h.query, query.NewKey(ResourceAdminUsers, page, limit), func(ctx context.Context) (result, error) {
		u, p, err := h.admin.Users(ctx, page, limit)
		return result{users: u, pagination: p}, err
	}, func(r result) bool { return len(r.users) == 0 })

	if ok, err := renderState(w, rs, "users", "No users yet."); !ok {
		return err
	}
	for _, u := range res.users {
		fmt.Fprintf(w, "%s  %s <%s>  streak %d  videos %d (%d pending)\n",
			u.ID, u.Name, u.Email, u.CurrentStreak, u.VideoStats.TotalVideos, u.VideoStats.PendingVideos)
	}
	if p := res.pagination; p.Pages > 1 {
		fmt.Fprintf(w, "\nPage %d of %d (%d users)\n", p.Page, p.Pages, p.Total)
	}
	return nil
}

// User shows one user in detail
func (h *AdminHandler) User(ctx context.Context, w io.Writer, id string) error {
	if err := guard(w, h.nav, h.session, "/admin/users"); err != nil {
		return err
	}

	u, rs := load(ctx, h.query, query.NewKey(ResourceAdminUser, id), func(ctx context.Context) (*models.AdminUser, error) {
		return h.admin.User(ctx, id)
	}, nil)
	if ok, err := renderState(w, rs, "user", "User not found."); !ok {
		return err
	}

	fmt.Fprintf(w, "%s <%s>\n", u.Name, u.Email)
	fmt.Fprintf(w, "Joined:   %s\n", humanize.Time(u.CreatedAt))
	fmt.Fprintf(w, "Streak:   %d current, %d longest, %d days active\n", u.CurrentStreak, u.LongestStreak, u.StreakInfo.TotalDaysActive)
	fmt.Fprintf(w, "Videos:   %d (%d pending)\n", u.VideoStats.TotalVideos, u.VideoStats.PendingVideos)
	if u.PaymentInfo != nil {
		fmt.Fprintf(w, "Payouts:  %s\n", u.PaymentInfo.PreferredMethod)
	}
	fmt.Fprintln(w, EligibilityMessage(u.CurrentStreak))
	return nil
}

// Payments shows the payout tiles, the payout list and eligible users
func (h *AdminHandler) Payments(ctx context.Context, w io.Writer) error {
	if err := guard(w, h.nav, h.session, "/admin/payments"); err != nil {
		return err
	}

	var (
		list       []models.Payment
		listRS     query.RenderState
		eligible   []models.EligibleUser
		eligibleRS query.RenderState
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, listRS = load(gctx, h.query, query.NewKey(ResourceAdminPayments), h.admin.Payments,
			func(p []models.Payment) bool { return len(p) == 0 })
		return nil
	})
	g.Go(func() error {
		eligible, eligibleRS = load(gctx, h.query, query.NewKey(ResourceAdminEligible), h.admin.EligibleUsers,
			func(e []models.EligibleUser) bool { return len(e) == 0 })
		return nil
	})
	g.Wait()

	pending, completed := PaymentTiles(list)
	fmt.Fprintf(w, "Pending: %d  Completed: %d  Eligible users: %d\n\n", pending, completed, len(eligible))

	fmt.Fprintln(w, "Payments:")
	ok, err := renderState(w, listRS, "payments", "  No payments yet.")
	if ok {
		for _, p := range list {
			who := ""
			if p.User != nil {
				who = p.User.Email
			}
			fmt.Fprintf(w, "  %s  %s  %s  [%s]  %d-day streak\n", p.ID, who, formatAmount(p.Amount), p.Status, p.StreakDays)
		}
	}

	fmt.Fprintln(w, "\nEligible users:")
	if ok, eerr := renderState(w, eligibleRS, "eligible users", "  No users are eligible right now."); ok {
		for _, u := range eligible {
			fmt.Fprintf(w, "  %s  %s <%s>  %d-day streak\n", u.ID, u.Name, u.Email, u.CurrentStreak)
		}
	} else if err == nil {
		err = eerr
	}
	return err
}

// SetPaymentStatus moves a payout to status
func (h *AdminHandler) SetPaymentStatus(ctx context.Context, w io.Writer, id string, status models.PaymentStatus, notes string) error {
	if err := guard(w, h.nav, h.session, "/admin/payments"); err != nil {
		return err
	}

	_, err := query.Mutate(ctx, h.query, MutationAdminPaymentStatus, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.admin.UpdatePaymentStatus(ctx, id, status, notes)
	})
	return notify(w, err, fmt.Sprintf("Payment marked %s", status), "Failed to update payment status")
}

// CreatePayment issues the standard payout for an eligible user
func (h *AdminHandler) CreatePayment(ctx context.Context, w io.Writer, userID string) error {
	if err := guard(w, h.nav, h.session, "/admin/payments"); err != nil {
		return err
	}

	req := models.CreatePaymentRequest{
		UserID:        userID,
		Amount:        models.DefaultPaymentAmount,
		PaymentMethod: "manual",
		AdminNotes:    AdminPaymentNote,
	}
	p, err := query.Mutate(ctx, h.query, MutationAdminPaymentCreate, func(ctx context.Context) (*models.Payment, error) {
		return h.admin.CreatePayment(ctx, req)
	})
	if err != nil {
		return notify(w, err, "", "Failed to create payment")
	}

	msg := "Payment created successfully"
	if p != nil {
		msg = fmt.Sprintf("Payment of %s created (%s)", formatAmount(p.Amount), p.ID)
	}
	return notify(w, nil, msg, "")
}

// UpdateProfile changes the admin's name or email and merges the server's
// copy into the session
func (h *AdminHandler) UpdateProfile(ctx context.Context, w io.Writer, name, email string) error {
	if err := guard(w, h.nav, h.session, "/admin/profile"); err != nil {
		return err
	}

	if errs := validation.ValidateAdminProfile(name, email); errs.ValidationFailed() {
		return printErrors(w, errs)
	}

	admin, err := query.Mutate(ctx, h.query, MutationAdminProfile, func(ctx context.Context) (*models.Admin, error) {
		return h.auth.UpdateProfile(ctx, strings.TrimSpace(name), strings.TrimSpace(email))
	})
	if err != nil {
		return notify(w, err, "", "Failed to update profile")
	}

	if admin != nil {
		if err := h.session.ReplaceUser(admin); err != nil {
			log.Error().Err(err).Msg("Failed to merge admin profile into session")
		}
	}
	u := h.session.Snapshot().User
	return notify(w, nil, fmt.Sprintf("Profile updated: %s <%s>", u.Name, u.Email), "")
}

// ChangePassword rotates the admin password; the session stays signed in
func (h *AdminHandler) ChangePassword(ctx context.Context, w io.Writer, current, next string) error {
	if err := guard(w, h.nav, h.session, "/admin/profile"); err != nil {
		return err
	}

	if errs := validation.ValidateChangePassword(current, next); errs.ValidationFailed() {
		return printErrors(w, errs)
	}

	_, err := query.Mutate(ctx, h.query, MutationAdminPassword, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.auth.ChangePassword(ctx, current, next)
	})
	return notify(w, err, "Password changed", "Failed to change password")
}

// Topics lists every topic with its ID and usage
func (h *AdminHandler) Topics(ctx context.Context, w io.Writer) error {
	if err := guard(w, h.nav, h.session, "/admin/topics"); err != nil {
		return err
	}

	topics, rs := load(ctx, h.query, query.NewKey(ResourceTopics, "admin"), func(ctx context.Context) ([]models.Topic, error) {
		return h.topics.List(ctx, models.TopicFilter{})
	}, func(t []models.Topic) bool { return len(t) == 0 })
	if ok, err := renderState(w, rs, "topics", "No topics yet. Add one with `shyness admin topics create`."); !ok {
		return err
	}
	for _, t := range topics {
		fmt.Fprintf(w, "%s  %s  [%s/%s]  used %s\n", t.ID, t.Title, t.Category, t.Difficulty, humanize.Comma(int64(t.UsageCount)))
	}
	return nil
}

// CreateTopic adds a topic
func (h *AdminHandler) CreateTopic(ctx context.Context, w io.Writer, t models.Topic) error {
	if err := guard(w, h.nav, h.session, "/admin/topics"); err != nil {
		return err
	}

	t = cleanTopic(t)
	if errs := validation.ValidateTopic(t); errs.ValidationFailed() {
		return printErrors(w, errs)
	}

	created, err := query.Mutate(ctx, h.query, MutationAdminTopicCreate, func(ctx context.Context) (*models.Topic, error) {
		return h.topics.Create(ctx, t)
	})
	if err != nil {
		return notify(w, err, "", "Failed to create topic")
	}
	msg := "Topic created"
	if created != nil {
		msg = fmt.Sprintf("Topic created (%s)", created.ID)
	}
	return notify(w, nil, msg, "")
}

// UpdateTopic replaces a topic's fields
func (h *AdminHandler) UpdateTopic(ctx context.Context, w io.Writer, id string, t models.Topic) error {
	if err := guard(w, h.nav, h.session, "/admin/topics"); err != nil {
		return err
	}

	t = cleanTopic(t)
	if errs := validation.ValidateTopic(t); errs.ValidationFailed() {
		return printErrors(w, errs)
	}

	_, err := query.Mutate(ctx, h.query, MutationAdminTopicUpdate, func(ctx context.Context) (*models.Topic, error) {
		return h.topics.Update(ctx, id, t)
	})
	return notify(w, err, "Topic updated", "Failed to update topic")
}

// DeleteTopic removes a topic
func (h *AdminHandler) DeleteTopic(ctx context.Context, w io.Writer, id string) error {
	if err := guard(w, h.nav, h.session, "/admin/topics"); err != nil {
		return err
	}

	_, err := query.Mutate(ctx, h.query, MutationAdminTopicDelete, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.topics.Delete(ctx, id)
	})
	return notify(w, err, "Topic deleted", "Failed to delete topic")
}

func cleanTopic(t models.Topic) models.Topic {
	t.Title = strings.TrimSpace(t.Title)
	t.Category = strings.TrimSpace(t.Category)
	t.Difficulty = strings.ToLower(strings.TrimSpace(t.Difficulty))
	t.Description = strings.TrimSpace(t.Description)
	tips := t.Tips[:0:0]
	for _, tip := range t.Tips {
		if tip = strings.TrimSpace(tip); tip != "" {
			tips = append(tips, tip)
		}
	}
	t.Tips = tips
	return t
}
