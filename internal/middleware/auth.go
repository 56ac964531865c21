package middleware

import (
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"shyness-client/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Realm describes one authentication domain: where its token lives and
// which 401s are allowed to boot the user back to a login screen.
type Realm struct {
	Name        string
	TokenKey    string
	IdentityKey string
	LoginRoute  string
	// PublicRoutes never trigger a redirect while they are the current route
	PublicRoutes []string
	// Exempt request paths (substring match) never trigger a redirect
	Exempt []string
	// KeepTokenOnExempt leaves storage untouched for exempt requests
	KeepTokenOnExempt bool
}

// UserRealm is the regular app
var UserRealm = Realm{
	Name:         "user",
	TokenKey:     repository.KeyToken,
	LoginRoute:   "/login",
	PublicRoutes: []string{"/", "/login", "/register"},
	Exempt:       []string{"/auth/me"},
}

// AdminRealm is the moderation console. The overview call is known to
// return spurious 401s and must not log the admin out.
var AdminRealm = Realm{
	Name:              "admin",
	TokenKey:          repository.KeyAdminToken,
	IdentityKey:       repository.KeyAdminUser,
	LoginRoute:        "/admin/login",
	Exempt:            []string{"/admin/auth/login", "/admin/dashboard/overview"},
	KeepTokenOnExempt: true,
}

func (r Realm) isExempt(path string) bool {
	for _, p := range r.Exempt {
		if strings.Contains(path, p) {
			return true
		}
	}
	return false
}

func (r Realm) isPublic(route string) bool {
	return slices.Contains(r.PublicRoutes, route)
}

// Navigator owns the current route and performs forced navigation
type Navigator interface {
	CurrentRoute() string
	Navigate(route string)
}

// Router is an in-process Navigator that records every forced navigation
type Router struct {
	mu      sync.Mutex
	current string
	history []string
}

// NewRouter creates a router positioned at route
func NewRouter(route string) *Router {
	return &Router{current: route}
}

// CurrentRoute returns the active route
func (r *Router) CurrentRoute() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Navigate switches to route
func (r *Router) Navigate(route string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != route {
		r.history = append(r.history, route)
	}
	r.current = route
}

// Visit moves to route as a normal page mount, not a forced redirect
func (r *Router) Visit(route string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = route
}

// Redirects returns the routes navigated to since creation
func (r *Router) Redirects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.history)
}

// Transport attaches the realm's bearer token to every request and applies
// the realm's 401 policy to every response.
type Transport struct {
	Base  http.RoundTripper
	Store repository.Store
	Realm Realm
	Nav   Navigator
}

// NewTransport creates a transport over http.DefaultTransport
func NewTransport(store repository.Store, realm Realm, nav Navigator) *Transport {
	return &Transport{
		Base:  http.DefaultTransport,
		Store: store,
		Realm: realm,
		Nav:   nav,
	}
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())

	token, _ := t.Store.Get(t.Realm.TokenKey)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	if r.Header.Get("X-Request-ID") == "" {
		r.Header.Set("X-Request-ID", uuid.New().String())
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	start := time.Now()
	resp, err := base.RoundTrip(r)
	if err != nil {
		log.Debug().
			Err(err).
			Str("realm", t.Realm.Name).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
		return nil, err
	}

	log.Debug().
		Str("realm", t.Realm.Name).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("request_id", r.Header.Get("X-Request-ID")).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("Request completed")

	if resp.StatusCode == http.StatusUnauthorized {
		t.handleUnauthorized(r.URL.Path, token)
	}

	return resp, nil
}

// handleUnauthorized clears the token that was actually sent and, unless
// the request or current route is exempt, navigates to the login route.
func (t *Transport) handleUnauthorized(path, sent string) {
	exempt := t.Realm.isExempt(path)
	if exempt && t.Realm.KeepTokenOnExempt {
		log.Debug().Str("realm", t.Realm.Name).Str("path", path).Msg("Ignoring 401 on exempt endpoint")
		return
	}

	cleared := false
	if sent != "" {
		var err error
		cleared, err = t.Store.CompareAndDelete(t.Realm.TokenKey, sent)
		if err != nil {
			log.Error().Err(err).Str("realm", t.Realm.Name).Msg("Failed to clear token")
		}
		if cleared && t.Realm.IdentityKey != "" {
			if err := t.Store.Delete(t.Realm.IdentityKey); err != nil {
				log.Error().Err(err).Str("realm", t.Realm.Name).Msg("Failed to clear identity")
			}
		}
	}

	// a newer login replaced the token while this request was in flight
	if sent != "" && !cleared {
		return
	}
	if exempt || t.Nav == nil || t.Realm.isPublic(t.Nav.CurrentRoute()) {
		return
	}

	log.Info().
		Str("realm", t.Realm.Name).
		Str("path", path).
		Str("route", t.Realm.LoginRoute).
		Msg("Unauthorized, redirecting to login")
	t.Nav.Navigate(t.Realm.LoginRoute)
}
