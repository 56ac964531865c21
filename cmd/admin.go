package cmd

import (
	"context"
	"io"
	"strings"

	"shyness-client/internal/models"

	"github.com/spf13/cobra"
)

// adminPage restores the admin session before running a console page
func (c *cli) adminPage(fn pageFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := restore(ctx, c.app.adm.Initialize); err != nil {
			return err
		}
		return reported(fn(ctx, cmd.OutOrStdout(), args))
	}
}

func (c *cli) adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin console: moderation, users and payouts",
	}

	var email, password string
	login := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the admin console",
		Args:  cobra.NoArgs,
		RunE: c.page(func(ctx context.Context, w io.Writer, _ []string) error {
			return c.app.admin.Login(ctx, w, email, password)
		}),
	}
	login.Flags().StringVar(&email, "email", "", "admin email")
	login.Flags().StringVar(&password, "password", "", "admin password")

	cmd.AddCommand(
		login,
		&cobra.Command{
			Use:   "logout",
			Short: "Sign out of the admin console",
			Args:  cobra.NoArgs,
			RunE: c.adminPage(func(_ context.Context, w io.Writer, _ []string) error {
				return c.app.admin.Logout(w)
			}),
		},
		&cobra.Command{
			Use:   "overview",
			Short: "Show platform totals",
			Args:  cobra.NoArgs,
			RunE: c.adminPage(func(ctx context.Context, w io.Writer, _ []string) error {
				return c.app.admin.Overview(ctx, w)
			}),
		},
		c.adminWatchCmd(),
		c.adminVideosCmd(),
		&cobra.Command{
			Use:       "video-status ID STATUS",
			Short:     "Moderate a video",
			Args:      cobra.ExactArgs(2),
			ValidArgs: []string{"pending", "valid", "invalid", "flagged"},
			RunE: c.adminPage(func(ctx context.Context, w io.Writer, args []string) error {
				return c.app.admin.SetVideoStatus(ctx, w, args[0], models.VideoStatus(args[1]))
			}),
		},
		&cobra.Command{
			Use:   "delete-video ID",
			Short: "Delete a video",
			Args:  cobra.ExactArgs(1),
			RunE: c.adminPage(func(ctx context.Context, w io.Writer, args []string) error {
				return c.app.admin.DeleteVideo(ctx, w, args[0])
			}),
		},
		c.adminUsersCmd(),
		&cobra.Command{
			Use:   "user ID",
			Short: "Show one user",
			Args:  cobra.ExactArgs(1),
			RunE: c.adminPage(func(ctx context.Context, w io.Writer, args []string) error {
				return c.app.admin.User(ctx, w, args[0])
			}),
		},
		&cobra.Command{
			Use:   "payments",
			Short: "List payouts, eligible users and totals",
			Args:  cobra.NoArgs,
			RunE: c.adminPage(func(ctx context.Context, w io.Writer, _ []string) error {
				return c.app.admin.Payments(ctx, w)
			}),
		},
		&cobra.Command{
			Use:   "payment-status ID STATUS [NOTES...]",
			Short: "Move a payment to pending, completed, failed or cancelled",
			Args:  cobra.MinimumNArgs(2),
			RunE: c.adminPage(func(ctx context.Context, w io.Writer, args []string) error {
				return c.app.admin.SetPaymentStatus(ctx, w, args[0], models.PaymentStatus(args[1]), strings.Join(args[2:], " "))
			}),
		},
		&cobra.Command{
			Use:   "create-payment USER_ID",
			Short: "Pay out an eligible user",
			Args:  cobra.ExactArgs(1),
			RunE: c.adminPage(func(ctx context.Context, w io.Writer, args []string) error {
				return c.app.admin.CreatePayment(ctx, w, args[0])
			}),
		},
	)
	return cmd
}

func (c *cli) adminWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the overview on screen until the session ends",
		Args:  cobra.NoArgs,
	}
	refresh := cmd.Flags().Duration("refresh", 0, "overview refresh interval (default from config)")
	recheck := cmd.Flags().Duration("recheck", 0, "session recheck interval (default from config)")

	cmd.RunE = c.adminPage(func(ctx context.Context, w io.Writer, _ []string) error {
		if *refresh <= 0 {
			*refresh = c.app.cfg.Query.PollInterval
		}
		if *recheck <= 0 {
			*recheck = c.app.cfg.Session.AdminRecheck
		}
		return c.app.admin.Watch(ctx, w, *refresh, *recheck)
	})
	return cmd
}

func (c *cli) adminVideosCmd() *cobra.Command {
	var (
		filter models.VideoFilter
		status string
	)
	cmd := &cobra.Command{
		Use:   "videos",
		Short: "List videos for moderation",
		Args:  cobra.NoArgs,
		RunE: c.adminPage(func(ctx context.Context, w io.Writer, _ []string) error {
			filter.Status = models.VideoStatus(status)
			return c.app.admin.Videos(ctx, w, filter)
		}),
	}
	cmd.Flags().StringVar(&status, "status", "", "pending, valid, invalid or flagged")
	cmd.Flags().IntVar(&filter.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&filter.Limit, "limit", 20, "videos per page")
	return cmd
}

func (c *cli) adminUsersCmd() *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: c.adminPage(func(ctx context.Context, w io.Writer, _ []string) error {
			return c.app.admin.Users(ctx, w, page, limit)
		}),
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 20, "users per page")
	return cmd
}

func (c *cli) adminProfileCmd() *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Change the console name or email",
		Args:  cobra.NoArgs,
		RunE: c.adminPage(func(ctx context.Context, w io.Writer, _ []string) error {
			return c.app.admin.UpdateProfile(ctx, w, name, email)
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "new display name")
	cmd.Flags().StringVar(&email, "email", "", "new email")
	return cmd
}

func (c *cli) adminPasswordCmd() *cobra.Command {
	var current, next string
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change the console password",
		Args:  cobra.NoArgs,
		RunE: c.adminPage(func(ctx context.Context, w io.Writer, _ []string) error {
			return c.app.admin.ChangePassword(ctx, w, current, next)
		}),
	}
	cmd.Flags().StringVar(&current, "current", "", "current password")
	cmd.Flags().StringVar(&next, "new", "", "new password")
	return cmd
}

func (c *cli) adminTopicsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "List and manage speaking topics",
		Args:  cobra.NoArgs,
		RunE: c.adminPage(func(ctx context.Context, w io.Writer, _ []string) error {
			return c.app.admin.Topics(ctx, w)
		}),
	}

	topicFlags := func(cmd *cobra.Command, t *models.Topic) {
		cmd.Flags().StringVar(&t.Title, "title", "", "topic title")
		cmd.Flags().StringVar(&t.Category, "category", "", "topic category")
		cmd.Flags().StringVar(&t.Difficulty, "difficulty", "", "easy, medium or hard")
		cmd.Flags().StringVar(&t.Description, "description", "", "topic description")
		cmd.Flags().StringArrayVar(&t.Tips, "tip", nil, "speaking tip (repeatable)")
	}

	var created models.Topic
	create := &cobra.Command{
		Use:   "create",
		Short: "Add a topic",
		Args:  cobra.NoArgs,
		RunE: c.adminPage(func(ctx context.Context, w io.Writer, _ []string) error {
			return c.app.admin.CreateTopic(ctx, w, created)
		}),
	}
	topicFlags(create, &created)

	var updated models.Topic
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Replace a topic's fields",
		Args:  cobra.ExactArgs(1),
		RunE: c.adminPage(func(ctx context.Context, w io.Writer, args []string) error {
			return c.app.admin.UpdateTopic(ctx, w, args[0], updated)
		}),
	}
	topicFlags(update, &updated)

	cmd.AddCommand(create, update, &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a topic",
		Args:  cobra.ExactArgs(1),
		RunE: c.adminPage(func(ctx context.Context, w io.Writer, args []string) error {
			return c.app.admin.DeleteTopic(ctx, w, args[0])
		}),
	})
	return cmd
}
