package cmd

import (
	"context"
	"io"
	"strings"
	"time"

	"shyness-client/internal/handlers"
	"shyness-client/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type pageFunc func(ctx context.Context, w io.Writer, args []string) error

// page runs a page that needs no restored session
func (c *cli) page(fn pageFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return reported(fn(cmd.Context(), cmd.OutOrStdout(), args))
	}
}

// userPage restores the user session before running a protected page
func (c *cli) userPage(fn pageFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := restore(ctx, c.app.user.Initialize); err != nil {
			return err
		}
		return reported(fn(ctx, cmd.OutOrStdout(), args))
	}
}

// restore runs session initialization. Expired and unreachable sessions are
// reported by the page guards, so only cancellation stops the command.
func restore(ctx context.Context, initialize func(context.Context) error) error {
	err := initialize(ctx)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	log.Debug().Err(err).Msg("Session not restored")
	return nil
}

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show server reachability and who is signed in",
		Args:  cobra.NoArgs,
		RunE: c.userPage(func(ctx context.Context, w io.Writer, _ []string) error {
			return c.app.auth.Landing(ctx, w)
		}),
	}
}

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		Args:  cobra.NoArgs,
		RunE: c.page(func(ctx context.Context, w io.Writer, _ []string) error {
			return c.app.auth.Login(ctx, w, email, password)
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: c.page(func(ctx context.Context, w io.Writer, _ []string) error {
			return c.app.auth.Register(ctx, w, name, email, password)
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out on this machine",
		Args:  cobra.NoArgs,
		RunE: c.page(func(_ context.Context, w io.Writer, _ []string) error {
			return c.app.auth.Logout(w)
		}),
	}
}

func (c *cli) forgotPasswordCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Email a password reset link",
		Args:  cobra.NoArgs,
		RunE: c.page(func(ctx context.Context, w io.Writer, _ []string) error {
			return c.app.auth.ForgotPassword(ctx, w, email)
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func (c *cli) resetPasswordCmd() *cobra.Command {
	var token, password, confirm string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password with the token from the reset email",
		Args:  cobra.NoArgs,
		RunE: c.page(func(ctx context.Context, w io.Writer, _ []string) error {
			return c.app.auth.ResetPassword(ctx, w, token, password, confirm)
		}),
	}
	cmd.Flags().StringVar(&token, "token", "", "reset token from the email link")
	cmd.Flags().StringVar(&password, "password", "", "new password")
	cmd.Flags().StringVar(&confirm, "confirm", "", "repeat the new password")
	return cmd
}

func (c *cli) dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show streak, eligibility, recent videos and payouts",
		Args:  cobra.NoArgs,
	}
	live := c.watchFlags(cmd)
	cmd.RunE = c.userPage(func(ctx context.Context, w io.Writer, _ []string) error {
		if live.on {
			return c.app.users.WatchDashboard(ctx, w, live.every(), c.app.cfg.Session.UserRecheck)
		}
		return c.app.users.Dashboard(ctx, w)
	})
	return cmd
}

// liveFlags are the --watch and --refresh flags of a page
type liveFlags struct {
	c       *cli
	on      bool
	refresh time.Duration
}

func (l *liveFlags) every() time.Duration {
	if l.refresh > 0 {
		return l.refresh
	}
	return l.c.app.cfg.Query.PollInterval
}

func (c *cli) watchFlags(cmd *cobra.Command) *liveFlags {
	l := &liveFlags{c: c}
	cmd.Flags().BoolVar(&l.on, "watch", false, "keep the page on screen and refresh it")
	cmd.Flags().DurationVar(&l.refresh, "refresh", 0, "refresh interval with --watch (default from config)")
	return l
}

func (c *cli) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show account details, statistics and rewards",
		Args:  cobra.NoArgs,
		RunE: c.userPage(func(ctx context.Context, w io.Writer, _ []string) error {
			return c.app.users.Profile(ctx, w)
		}),
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set-name NAME",
		Short: "Change your display name",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.userPage(func(ctx context.Context, w io.Writer, args []string) error {
			return c.app.users.UpdateName(ctx, w, strings.Join(args, " "))
		}),
	})
	return cmd
}

func (c *cli) topicsCmd() *cobra.Command {
	var filter models.TopicFilter
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "List practice topics",
		Args:  cobra.NoArgs,
		RunE: c.userPage(func(ctx context.Context, w io.Writer, _ []string) error {
			return c.app.topics.List(ctx, w, filter)
		}),
	}
	cmd.Flags().StringVar(&filter.Category, "category", "", "topic category")
	cmd.Flags().StringVar(&filter.Difficulty, "difficulty", "", "easy, medium or hard")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "maximum number of topics")

	var difficulty string
	random := &cobra.Command{
		Use:   "random",
		Short: "Pick a random topic",
		Args:  cobra.NoArgs,
		RunE: c.userPage(func(ctx context.Context, w io.Writer, _ []string) error {
			return c.app.topics.Random(ctx, w, difficulty)
		}),
	}
	random.Flags().StringVar(&difficulty, "difficulty", "", "easy, medium or hard")

	cmd.AddCommand(random, &cobra.Command{
		Use:   "select ID",
		Short: "Show a topic and prepare an upload for it",
		Args:  cobra.ExactArgs(1),
		RunE: c.userPage(func(ctx context.Context, w io.Writer, args []string) error {
			return c.app.topics.Select(ctx, w, args[0])
		}),
	})
	return cmd
}

func (c *cli) uploadCmd() *cobra.Command {
	var form handlers.UploadForm
	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a practice video",
		Args:  cobra.ExactArgs(1),
		RunE: c.userPage(func(ctx context.Context, w io.Writer, args []string) error {
			form.Path = args[0]
			return c.app.videos.Upload(ctx, w, form)
		}),
	}
	cmd.Flags().StringVar(&form.TopicID, "topic", "", "topic ID")
	cmd.Flags().StringVar(&form.Title, "title", "", "video title")
	cmd.Flags().StringVar(&form.Description, "description", "", "video description")
	return cmd
}

func (c *cli) videosCmd() *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   "videos",
		Short: "List your videos",
		Args:  cobra.NoArgs,
	}
	live := c.watchFlags(cmd)
	cmd.RunE = c.userPage(func(ctx context.Context, w io.Writer, _ []string) error {
		if live.on {
			return c.app.videos.WatchMyVideos(ctx, w, page, limit, live.every(), c.app.cfg.Session.UserRecheck)
		}
		return c.app.videos.MyVideos(ctx, w, page, limit)
	})
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "videos per page")

	var (
		title, description string
		public             bool
	)
	edit := &cobra.Command{
		Use:   "edit ID",
		Short: "Change a video's title, description or visibility",
		Args:  cobra.ExactArgs(1),
	}
	edit.Flags().StringVar(&title, "title", "", "video title")
	edit.Flags().StringVar(&description, "description", "", "video description")
	edit.Flags().BoolVar(&public, "public", false, "make the video public (--public=false hides it)")
	edit.RunE = c.userPage(func(ctx context.Context, w io.Writer, args []string) error {
		var upd models.VideoUpdate
		flags := edit.Flags()
		if flags.Changed("title") {
			upd.Title = &title
		}
		if flags.Changed("description") {
			upd.Description = &description
		}
		if flags.Changed("public") {
			upd.IsPublic = &public
		}
		return c.app.videos.Edit(ctx, w, args[0], upd)
	})

	cmd.AddCommand(edit, &cobra.Command{
		Use:   "delete ID",
		Short: "Delete one of your videos",
		Args:  cobra.ExactArgs(1),
		RunE: c.userPage(func(ctx context.Context, w io.Writer, args []string) error {
			return c.app.videos.Delete(ctx, w, args[0])
		}),
	})
	return cmd
}

func (c *cli) paymentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "payments",
		Short: "List payouts and eligibility",
		Args:  cobra.NoArgs,
		RunE: c.userPage(func(ctx context.Context, w io.Writer, _ []string) error {
			return c.app.payments.Payments(ctx, w)
		}),
	}
}

func (c *cli) paymentInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment-info",
		Short: "Show saved payout details",
		Args:  cobra.NoArgs,
		RunE: c.userPage(func(ctx context.Context, w io.Writer, _ []string) error {
			return c.app.payments.PaymentInfo(ctx, w)
		}),
	}

	var (
		method string
		bank   models.BankAccount
		upi    models.UPI
		paypal models.PayPal
		wallet models.Wallet
	)
	set := &cobra.Command{
		Use:   "set",
		Short: "Save payout details",
		Args:  cobra.NoArgs,
		RunE: c.userPage(func(ctx context.Context, w io.Writer, _ []string) error {
			info := models.PaymentInfo{PreferredMethod: models.PaymentMethod(method)}
			switch info.PreferredMethod {
			case models.MethodUPI:
				info.UPI = &upi
			case models.MethodBank:
				info.BankAccount = &bank
			case models.MethodPayPal:
				info.PayPal = &paypal
			case models.MethodWallet:
				info.Wallet = &wallet
			}
			return c.app.payments.UpdatePaymentInfo(ctx, w, info)
		}),
	}
	f := set.Flags()
	f.StringVar(&method, "method", "", "upi, bank, paypal or wallet")
	f.StringVar(&upi.UPIID, "upi-id", "", "UPI ID")
	f.StringVar(&upi.UPIName, "upi-name", "", "name on the UPI account")
	f.StringVar(&bank.AccountHolderName, "holder", "", "bank account holder name")
	f.StringVar(&bank.AccountNumber, "account", "", "bank account number")
	f.StringVar(&bank.BankName, "bank", "", "bank name")
	f.StringVar(&bank.IFSCCode, "ifsc", "", "IFSC code")
	f.StringVar(&bank.BranchName, "branch", "", "branch name")
	f.StringVar(&paypal.Email, "paypal-email", "", "PayPal email")
	f.StringVar(&paypal.Name, "paypal-name", "", "name on the PayPal account")
	f.StringVar(&wallet.Type, "wallet-type", "", "wallet provider")
	f.StringVar(&wallet.Number, "wallet-number", "", "wallet phone number")
	f.StringVar(&wallet.Name, "wallet-name", "", "name on the wallet")

	cmd.AddCommand(set)
	return cmd
}

func (c *cli) scriptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scripts",
		Short: "Browse practice script categories",
		Args:  cobra.NoArgs,
		RunE: c.userPage(func(ctx context.Context, w io.Writer, _ []string) error {
			return c.app.scripts.Categories(ctx, w)
		}),
	}

	var search, difficulty string
	list := &cobra.Command{
		Use:   "list CATEGORY",
		Short: "List the scripts of a category",
		Args:  cobra.ExactArgs(1),
		RunE: c.userPage(func(ctx context.Context, w io.Writer, args []string) error {
			return c.app.scripts.List(ctx, w, args[0], search, difficulty)
		}),
	}
	list.Flags().StringVar(&search, "search", "", "search text")
	list.Flags().StringVar(&difficulty, "difficulty", "", "easy, medium or hard")

	var dir string
	download := &cobra.Command{
		Use:   "download ID",
		Short: "Save a script as a text file",
		Args:  cobra.ExactArgs(1),
		RunE: c.userPage(func(ctx context.Context, w io.Writer, args []string) error {
			return c.app.scripts.Download(ctx, w, args[0], dir)
		}),
	}
	download.Flags().StringVar(&dir, "dir", ".", "directory to save the script in")

	cmd.AddCommand(list, download, &cobra.Command{
		Use:   "show ID",
		Short: "Print a script",
		Args:  cobra.ExactArgs(1),
		RunE: c.userPage(func(ctx context.Context, w io.Writer, args []string) error {
			return c.app.scripts.Show(ctx, w, args[0])
		}),
	})
	return cmd
}
