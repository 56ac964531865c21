package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"shyness-client/internal/models"
	"shyness-client/internal/query"
	"shyness-client/internal/repository"
	"shyness-client/internal/services"
	"shyness-client/internal/session"
	"shyness-client/internal/validation"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

// AuthHandler renders the public pages of the user realm
type AuthHandler struct {
	session *session.Store[models.User]
	auth    *services.AuthService
	client  *services.Client
	query   *query.Client
	store   repository.Store
	nav     Navigator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(sess *session.Store[models.User], auth *services.AuthService, client *services.Client, q *query.Client, store repository.Store, nav Navigator) *AuthHandler {
	return &AuthHandler{
		session: sess,
		auth:    auth,
		client:  client,
		query:   q,
		store:   store,
		nav:     nav,
	}
}

// Landing shows backend reachability and who is signed in
func (h *AuthHandler) Landing(ctx context.Context, w io.Writer) error {
	h.nav.Visit("/")

	fmt.Fprintln(w, "Shyness App: build confidence one video a day")
	fmt.Fprintf(w, "Server: %s\n", h.client.BaseURL())
	if err := h.client.Health(ctx); err != nil {
		log.Debug().Err(err).Msg("Health check failed")
		fmt.Fprintf(w, "Status: unavailable (%s)\n", errorText(err))
	} else {
		fmt.Fprintln(w, "Status: online")
	}

	return h.Status(ctx, w)
}

// Status prints the session state and when the stored token expires
func (h *AuthHandler) Status(ctx context.Context, w io.Writer) error {
	switch h.session.Status() {
	case session.StatusAuthenticated:
		u := h.session.Snapshot().User
		fmt.Fprintf(w, "Signed in as %s <%s>\n", u.Name, u.Email)
	case session.StatusUnreachable:
		fmt.Fprintln(w, "Signed in, but the server could not verify your session.")
	case session.StatusUnverified:
		fmt.Fprintln(w, "Session not verified yet.")
	case session.StatusLoading:
		fmt.Fprintln(w, "Loading...")
	default:
		fmt.Fprintln(w, "Not signed in. Use `shyness login` or `shyness register`.")
		return nil
	}

	token, _ := h.store.Get(repository.KeyToken)
	if exp, ok := session.TokenExpiry(token); ok {
		if exp.Before(time.Now()) {
			fmt.Fprintf(w, "Token expired %s\n", humanize.Time(exp))
		} else {
			fmt.Fprintf(w, "Token expires %s\n", humanize.Time(exp))
		}
	}
	return nil
}

// Login signs in with email and password
func (h *AuthHandler) Login(ctx context.Context, w io.Writer, email, password string) error {
	h.nav.Visit("/login")
	if h.session.IsAuthenticated() {
		h.nav.Navigate("/app/dashboard")
		fmt.Fprintln(w, "Already signed in.")
		return nil
	}

	if errs := validation.ValidateLogin(email, password); errs.ValidationFailed() {
		fmt.Fprintln(w, "Please fix the following:")
		return printErrors(w, errs)
	}

	if err := h.session.Login(ctx, email, password); err != nil {
		fmt.Fprintln(w, authMessage(err))
		return err
	}

	h.query.Clear()
	h.nav.Navigate("/app/dashboard")
	fmt.Fprintf(w, "Welcome back, %s!\n", h.session.Snapshot().User.Name)
	return nil
}

// Register creates an account and signs it in
func (h *AuthHandler) Register(ctx context.Context, w io.Writer, name, email, password string) error {
	h.nav.Visit("/register")
	if h.session.IsAuthenticated() {
		h.nav.Navigate("/app/dashboard")
		fmt.Fprintln(w, "Already signed in.")
		return nil
	}

	if errs := validation.ValidateRegister(name, email, password); errs.ValidationFailed() {
		fmt.Fprintln(w, "Please fix the following:")
		return printErrors(w, errs)
	}

	if err := h.session.Register(ctx, name, email, password); err != nil {
		fmt.Fprintln(w, authMessage(err))
		return err
	}

	h.query.Clear()
	h.nav.Navigate("/app/dashboard")
	fmt.Fprintf(w, "Welcome, %s! Your account is ready.\n", h.session.Snapshot().User.Name)
	return nil
}

func authMessage(err error) string {
	var authErr *session.AuthError
	if errors.As(err, &authErr) {
		if services.Classify(authErr.Err) == services.KindNetwork {
			return "Network error. Please try again."
		}
		return authErr.Message
	}
	return errorText(err)
}

// Logout ends the session locally
func (h *AuthHandler) Logout(w io.Writer) error {
	err := h.session.Logout()
	h.query.Clear()
	h.nav.Navigate("/login")
	fmt.Fprintln(w, "Signed out.")
	return err
}

// ForgotPassword requests a reset link
func (h *AuthHandler) ForgotPassword(ctx context.Context, w io.Writer, email string) error {
	h.nav.Visit("/forgot-password")

	if errs := validation.ValidateForgotPassword(email); errs.ValidationFailed() {
		return printErrors(w, errs)
	}

	msg, err := h.auth.ForgotPassword(ctx, email)
	if err != nil {
		return notify(w, err, "", "Failed to send reset link")
	}
	if msg == "" {
		msg = "Check your email for a reset link."
	}
	fmt.Fprintln(w, msg)
	return nil
}

// ResetPassword sets a new password from a mailed token
func (h *AuthHandler) ResetPassword(ctx context.Context, w io.Writer, token, password, confirm string) error {
	h.nav.Visit("/reset-password")

	if errs := validation.ValidateResetPassword(token, password, confirm); errs.ValidationFailed() {
		return printErrors(w, errs)
	}

	msg, err := h.auth.ResetPassword(ctx, token, password)
	if err != nil {
		return notify(w, err, "", "Failed to reset password")
	}
	if msg == "" {
		msg = "Password reset successful."
	}
	fmt.Fprintln(w, msg)
	h.nav.Navigate("/login")
	return nil
}
