package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"shyness-client/internal/middleware"
	"shyness-client/internal/query"
	"shyness-client/internal/services"
	"shyness-client/internal/session"
	"shyness-client/internal/validation"
)

var (
	// ErrLoginRequired is returned by protected pages without a session
	ErrLoginRequired = errors.New("login required")
	// ErrSessionUnavailable is returned while the session cannot be verified
	ErrSessionUnavailable = errors.New("session unavailable")
	// ErrNothingToChange is returned by edits that set no field
	ErrNothingToChange = errors.New("nothing to change")
)

// Navigator is the route owner pages mount on
type Navigator interface {
	middleware.Navigator
	Visit(route string)
}

// guard is the protected-route gate for one realm
func guard[T any](w io.Writer, nav Navigator, sess *session.Store[T], route string) error {
	switch sess.Status() {
	case session.StatusLoading:
		fmt.Fprintln(w, "Loading...")
		return ErrSessionUnavailable
	case session.StatusUnreachable:
		fmt.Fprintln(w, "Can't reach the server to verify your session. Run the command again to retry.")
		return ErrSessionUnavailable
	}

	if !sess.IsAuthenticated() {
		nav.Navigate(sess.Realm().LoginRoute)
		fmt.Fprintln(w, "Please log in to continue.")
		return ErrLoginRequired
	}
	nav.Visit(route)
	return nil
}

// load fetches key through the cache and returns the data to show with
// the state to render it in. A record the server does not have renders as
// the empty state.
func load[T any](ctx context.Context, q *query.Client, key query.Key, fn func(context.Context) (T, error), isEmpty func(T) bool) (T, query.RenderState) {
	query.Load(ctx, q, key, fn)

	snap := q.Get(key)
	v, _ := snap.Data.(T)
	rs := query.Render(snap, isEmpty)
	if rs.View == query.ViewError && services.Classify(rs.Err) == services.KindNotFound {
		return v, query.RenderState{View: query.ViewEmpty}
	}
	return v, rs
}

// peek returns what the cache holds for key, fresh or not
func peek[T any](q *query.Client, key query.Key) T {
	v, _ := q.Get(key).Data.(T)
	return v
}

// renderState writes the non-populated views and reports whether the
// caller should go on to draw data
func renderState(w io.Writer, rs query.RenderState, what, empty string) (bool, error) {
	switch rs.View {
	case query.ViewLoading:
		fmt.Fprintf(w, "Loading %s...\n", what)
		return false, nil
	case query.ViewError:
		fmt.Fprintf(w, "Error loading %s: %s\n", what, errorText(rs.Err))
		fmt.Fprintln(w, "Run the command again to retry.")
		return false, rs.Err
	case query.ViewEmpty:
		fmt.Fprintln(w, empty)
		return false, nil
	}

	if rs.Refreshing {
		fmt.Fprintln(w, "(refreshing)")
	}
	if rs.Err != nil {
		fmt.Fprintf(w, "Showing saved %s, refresh failed: %s\n", what, errorText(rs.Err))
	}
	return true, nil
}

// errorText is the one-line notification for err
func errorText(err error) string {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return verrs.Error()
	}

	switch services.Classify(err) {
	case services.KindNetwork:
		return "Network error. Please try again."
	case services.KindUnauthorized:
		return services.Message(err, "Your session has expired. Please log in again.")
	case services.KindNotFound:
		return services.Message(err, "Not found")
	case services.KindValidation:
		return services.Message(err, err.Error())
	}
	return services.Message(err, "Something went wrong. Please try again.")
}

// notify prints the outcome of a mutation
func notify(w io.Writer, err error, success, fallback string) error {
	if err != nil {
		msg := errorText(err)
		if services.Classify(err) == services.KindServer {
			msg = services.Message(err, fallback)
		}
		fmt.Fprintln(w, msg)
		return err
	}
	fmt.Fprintln(w, success)
	return nil
}

// printErrors lists every validation message
func printErrors(w io.Writer, errs validation.Errors) error {
	for _, msg := range errs.Messages() {
		fmt.Fprintf(w, "  - %s\n", msg)
	}
	return errs.Err()
}
