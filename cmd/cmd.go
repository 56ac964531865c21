package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"shyness-client/internal/config"
	"shyness-client/internal/handlers"
	"shyness-client/internal/middleware"
	"shyness-client/internal/models"
	"shyness-client/internal/query"
	"shyness-client/internal/repository"
	"shyness-client/internal/services"
	"shyness-client/internal/session"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app holds every wired component a command may use
type app struct {
	cfg  *config.Config
	nav  *middleware.Router
	user *session.Store[models.User]
	adm  *session.Store[models.Admin]

	auth     *handlers.AuthHandler
	users    *handlers.UserHandler
	topics   *handlers.TopicHandler
	videos   *handlers.VideoHandler
	payments *handlers.PaymentHandler
	scripts  *handlers.ScriptHandler
	admin    *handlers.AdminHandler
}

// cli carries global flags and the app built from them
type cli struct {
	configPath string
	apiURL     string
	logLevel   string

	out io.Writer
	app *app
}

// reportedError is a failure the page already explained to the user
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func Run() {
	c := &cli{out: os.Stdout}
	root := newRootCmd(c)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	var reported *reportedError
	if errors.As(err, &reported) {
		log.Debug().Err(reported.err).Msg("Command failed")
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\nRun 'shyness --help' for usage.\n", err)
	os.Exit(2)
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "shyness",
		Short:         "Shyness App client: daily speaking practice, streaks and payouts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}
	root.SetOut(c.out)

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "config.yaml", "path to the YAML config file")
	flags.StringVar(&c.apiURL, "api", "", "API base URL (overrides config)")
	flags.StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")

	root.AddCommand(
		c.statusCmd(),
		c.loginCmd(),
		c.registerCmd(),
		c.logoutCmd(),
		c.forgotPasswordCmd(),
		c.resetPasswordCmd(),
		c.dashboardCmd(),
		c.profileCmd(),
		c.topicsCmd(),
		c.uploadCmd(),
		c.videosCmd(),
		c.paymentsCmd(),
		c.paymentInfoCmd(),
		c.scriptsCmd(),
		c.adminCmd(),
	)
	return root
}

// setup loads configuration and wires the app once per process
func (c *cli) setup() error {
	if c.app != nil {
		return nil
	}

	// Load configuration
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if c.apiURL != "" {
		cfg.API.BaseURL = c.apiURL
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Open persisted client state
	store, err := repository.NewFileStore(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open client state: %w", err)
	}

	log.Debug().
		Str("api", cfg.API.BaseURL).
		Str("state", cfg.Storage.Path).
		Msg("Client configured")

	c.app = newApp(cfg, store)
	return nil
}

// newApp wires repositories, transports, services, sessions and handlers
func newApp(cfg *config.Config, store repository.Store) *app {
	nav := middleware.NewRouter("/")

	// One transport and client per realm
	userClient := services.NewClient(cfg.API.BaseURL, middleware.NewTransport(store, middleware.UserRealm, nav), cfg.API.Timeout)
	adminClient := services.NewClient(cfg.API.BaseURL, middleware.NewTransport(store, middleware.AdminRealm, nav), cfg.API.Timeout)

	// Initialize services
	authService := services.NewAuthService(userClient)
	adminAuthService := services.NewAdminAuthService(adminClient)
	userService := services.NewUserService(userClient)
	videoService := services.NewVideoService(userClient)
	topicService := services.NewTopicService(userClient)
	paymentService := services.NewPaymentService(userClient)
	scriptService := services.NewScriptService(userClient)
	adminService := services.NewAdminService(adminClient)
	adminTopicService := services.NewTopicService(adminClient)

	// Sessions
	sessOpts := session.Options{
		InitAttempts: cfg.Session.InitAttempts,
		InitDelay:    cfg.Session.InitDelay,
	}
	userSession := session.New[models.User](middleware.UserRealm, store, authService, sessOpts)
	adminSession := session.New[models.Admin](middleware.AdminRealm, store, adminAuthService, sessOpts)

	q := query.NewClient(query.Options{
		Retry:      cfg.Query.Retry,
		RetryDelay: cfg.Query.RetryDelay,
	}, handlers.Invalidations)

	// Initialize handlers
	return &app{
		cfg:      cfg,
		nav:      nav,
		user:     userSession,
		adm:      adminSession,
		auth:     handlers.NewAuthHandler(userSession, authService, userClient, q, store, nav),
		users:    handlers.NewUserHandler(userSession, authService, userService, paymentService, q, nav),
		topics:   handlers.NewTopicHandler(userSession, topicService, q, nav),
		videos:   handlers.NewVideoHandler(userSession, videoService, q, nav),
		payments: handlers.NewPaymentHandler(userSession, userService, paymentService, q, nav),
		scripts:  handlers.NewScriptHandler(userSession, scriptService, q, nav),
		admin:    handlers.NewAdminHandler(adminSession, adminAuthService, adminService, adminTopicService, q, nav),
	}
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
