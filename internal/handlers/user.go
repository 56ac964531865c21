package handlers

import (
	"context"
	"fmt"
	"io"
	"math"
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

// EligibilityMessage is the payment banner for a streak
func EligibilityMessage(streak int) string {
	if streak >= models.EligibilityStreakDays {
		return fmt.Sprintf("Congratulations! You're eligible for payment! You've maintained a %d-day streak.", streak)
	}
	return fmt.Sprintf("You need %d more days to reach %d-day streak and become eligible for payment.",
		models.EligibilityStreakDays-streak, models.EligibilityStreakDays)
}

// recentPayments is how many payouts the dashboard lists
const recentPayments = 5

// UserHandler renders the dashboard and profile pages
type UserHandler struct {
	session  *session.Store[models.User]
	auth     *services.AuthService
	users    *services.UserService
	payments *services.PaymentService
	query    *query.Client
	nav      Navigator
}

// NewUserHandler creates a new user handler
func NewUserHandler(sess *session.Store[models.User], auth *services.AuthService, users *services.UserService, payments *services.PaymentService, q *query.Client, nav Navigator) *UserHandler {
	return &UserHandler{
		session:  sess,
		auth:     auth,
		users:    users,
		payments: payments,
		query:    q,
		nav:      nav,
	}
}

// Dashboard shows streak, eligibility, statistics, recent uploads and
// recent payouts
func (h *UserHandler) Dashboard(ctx context.Context, w io.Writer) error {
	if err := guard(w, h.nav, h.session, "/app/dashboard"); err != nil {
		return err
	}

	var (
		dash   *models.Dashboard
		dashRS query.RenderState
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dash, dashRS = load(gctx, h.query, query.NewKey(ResourceDashboard), h.users.Dashboard, nil)
		return nil
	})
	g.Go(func() error {
		load(gctx, h.query, query.NewKey(ResourceRewards), h.users.Rewards, nil)
		return nil
	})
	g.Go(func() error {
		load(gctx, h.query, query.NewKey(ResourcePayments), h.payments.List, nil)
		return nil
	})
	g.Wait()

	return h.renderDashboard(w, dash, dashRS)
}

// WatchDashboard keeps the dashboard on screen, refreshing it every
// refresh interval until ctx ends or the session is lost
func (h *UserHandler) WatchDashboard(ctx context.Context, w io.Writer, refresh, recheck time.Duration) error {
	if err := h.Dashboard(ctx, w); err != nil {
		return err
	}

	return watch(ctx, w, h.query, h.session, h.nav, watchPlan{
		name:    "dashboard",
		key:     query.NewKey(ResourceDashboard),
		every:   refresh,
		recheck: recheck,
		refresh: func(ctx context.Context) error {
			// side panels first so the redraw sees them
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				_, err := query.Fetch(gctx, h.query, query.NewKey(ResourceRewards), h.users.Rewards)
				return err
			})
			g.Go(func() error {
				_, err := query.Fetch(gctx, h.query, query.NewKey(ResourcePayments), h.payments.List)
				return err
			})
			if err := g.Wait(); err != nil {
				log.Debug().Err(err).Msg("Dashboard side panels failed to refresh")
			}
			return h.query.Invalidate(ctx, ResourceDashboard)
		},
		draw: func(w io.Writer, snap query.Snapshot) {
			dash, _ := snap.Data.(*models.Dashboard)
			h.renderDashboard(w, dash, query.Render[*models.Dashboard](snap, nil))
		},
		expired: "Your session has expired. Please log in again.",
	})
}

func (h *UserHandler) renderDashboard(w io.Writer, dash *models.Dashboard, rs query.RenderState) error {
	ok, err := renderState(w, rs, "dashboard", "No dashboard data yet.")
	if !ok {
		return err
	}

	name := dash.User.Name
	if name == "" {
		if u := h.session.Snapshot().User; u != nil {
			name = u.Name
		}
	}
	fmt.Fprintf(w, "Welcome back, %s!\n\n", name)

	fmt.Fprintf(w, "Current streak: %d days\n", dash.Streak.Current)
	fmt.Fprintf(w, "Longest streak: %d days\n", dash.Streak.Longest)
	if dash.Streak.NextGoal > 0 {
		fmt.Fprintf(w, "Next goal: %d days\n", dash.Streak.NextGoal)
	}
	fmt.Fprintln(w, EligibilityMessage(dash.Streak.Current))

	st := dash.Statistics
	fmt.Fprintf(w, "\nVideos: %d total, %d valid\n", st.TotalVideos, st.ValidVideos)
	fmt.Fprintf(w, "Total duration: %s\n", formatDuration(st.TotalDuration))
	fmt.Fprintf(w, "Average duration: %s\n", formatDuration(st.AvgDuration))
	if rewards := peek[*models.RewardsSummary](h.query, query.NewKey(ResourceRewards)); rewards != nil {
		fmt.Fprintf(w, "Rewards: %d of %d earned\n", len(rewards.Earned), rewards.TotalAvailable)
	}

	fmt.Fprintln(w, "\nRecent videos:")
	if len(dash.RecentVideos) == 0 {
		fmt.Fprintln(w, "  No videos yet. Pick a topic and upload your first one!")
	}
	for _, v := range dash.RecentVideos {
		fmt.Fprintf(w, "  %s  [%s]  %s\n", v.Title, v.ValidationStatus, humanize.Time(v.UploadDate))
	}

	fmt.Fprintln(w, "\nRecent payments:")
	payments := peek[[]models.Payment](h.query, query.NewKey(ResourcePayments))
	if len(payments) == 0 {
		fmt.Fprintln(w, "  No payments yet.")
	}
	for _, p := range payments[:min(len(payments), recentPayments)] {
		fmt.Fprintf(w, "  %s  %s  [%s]\n", formatAmount(p.Amount), humanize.Time(p.CreatedAt), p.Status)
	}
	return nil
}

// formatDuration renders seconds rounded to the nearest whole unit
func formatDuration(seconds float64) string {
	d := time.Duration(math.Round(seconds)) * time.Second
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// Profile shows account details, statistics and rewards
func (h *UserHandler) Profile(ctx context.Context, w io.Writer) error {
	if err := guard(w, h.nav, h.session, "/app/profile"); err != nil {
		return err
	}

	var (
		stats     *models.UserStats
		statsRS   query.RenderState
		rewards   *models.RewardsSummary
		rewardsRS query.RenderState
	)
	noRewards := func(r *models.RewardsSummary) bool { return r == nil || len(r.Earned) == 0 }

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, statsRS = load(gctx, h.query, query.NewKey(ResourceStats), h.users.Stats, nil)
		return nil
	})
	g.Go(func() error {
		rewards, rewardsRS = load(gctx, h.query, query.NewKey(ResourceRewards), h.users.Rewards, noRewards)
		return nil
	})
	g.Wait()

	u := h.session.Snapshot().User
	fmt.Fprintf(w, "Name:   %s\n", u.Name)
	fmt.Fprintf(w, "Email:  %s\n", u.Email)
	if !u.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Member: since %s\n", humanize.Time(u.CreatedAt))
	}

	fmt.Fprintln(w, "\nStatistics:")
	if ok, _ := renderState(w, statsRS, "statistics", "No statistics yet."); ok {
		fmt.Fprintf(w, "  Videos: %d (%d valid)\n", stats.TotalVideos, stats.ValidVideos)
		fmt.Fprintf(w, "  Streak: %d current, %d longest\n", stats.CurrentStreak, stats.LongestStreak)
		fmt.Fprintf(w, "  Points: %d\n", stats.TotalPoints)
	}

	fmt.Fprintln(w, "\nRewards:")
	if ok, _ := renderState(w, rewardsRS, "rewards", "  No rewards earned yet. Keep your streak going!"); ok {
		for _, r := range rewards.Earned {
			fmt.Fprintf(w, "  %s %s (+%d)\n", r.Icon, r.Name, r.Points)
		}
	}
	return nil
}

// UpdateName renames the user and merges the server's copy into the session
func (h *UserHandler) UpdateName(ctx context.Context, w io.Writer, name string) error {
	if err := guard(w, h.nav, h.session, "/app/profile"); err != nil {
		return err
	}

	if errs := validation.ValidateProfileName(name); errs.ValidationFailed() {
		return printErrors(w, errs)
	}

	user, err := query.Mutate(ctx, h.query, MutationProfileUpdate, func(ctx context.Context) (*models.User, error) {
		return h.auth.UpdateProfile(ctx, name)
	})
	if err != nil {
		return notify(w, err, "", "Failed to update profile")
	}

	if err := h.session.ReplaceUser(user); err != nil {
		log.Error().Err(err).Msg("Failed to merge profile into session")
	}
	return notify(w, nil, "Profile updated successfully", "")
}
