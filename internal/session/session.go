package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"shyness-client/internal/middleware"
	"shyness-client/internal/repository"
	"shyness-client/internal/services"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

var (
	// ErrUnreachable marks an initialization that gave up on a non-401 error
	ErrUnreachable = errors.New("backend unreachable")
	// ErrExpired marks a stored token the backend rejected
	ErrExpired = errors.New("session expired")
	// ErrUnsupported is returned for operations a realm does not offer
	ErrUnsupported = errors.New("operation not supported")
	// ErrNoUser is returned when a user-only operation runs while signed out
	ErrNoUser = errors.New("no user in session")
)

// Status is the renderable summary of a session
type Status string

const (
	StatusLoading       Status = "loading"
	StatusAnonymous     Status = "anonymous"
	StatusAuthenticated Status = "authenticated"
	// StatusUnverified: a token is stored but no user is known yet
	StatusUnverified Status = "unverified"
	// StatusUnreachable: a token is stored but checking it kept failing
	StatusUnreachable Status = "unreachable"
)

// Authenticator is the realm's backend: credential exchange and "who am I"
type Authenticator[T any] interface {
	Login(ctx context.Context, email, password string) (string, *T, error)
	Me(ctx context.Context) (*T, error)
}

// Registrar is implemented by authenticators that support sign-up
type Registrar[T any] interface {
	Register(ctx context.Context, name, email, password string) (string, *T, error)
}

// AuthError carries the human-readable reason a login failed
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }
func (e *AuthError) Unwrap() error { return e.Err }

// State is a snapshot of the session
type State[T any] struct {
	User    *T
	Token   string
	Loading bool
	Err     error
}

// Options tunes initialization
type Options struct {
	InitAttempts int
	InitDelay    time.Duration
}

// Store is the single source of truth for who is signed in to one realm
type Store[T any] struct {
	mu        sync.Mutex
	realm     middleware.Realm
	repo      repository.Store
	auth      Authenticator[T]
	opts      Options
	state     State[T]
	gen       uint64
	observers map[int]func(State[T])
	nextObs   int
}

// New creates a session store in the loading state
func New[T any](realm middleware.Realm, repo repository.Store, auth Authenticator[T], opts Options) *Store[T] {
	if opts.InitAttempts <= 0 {
		opts.InitAttempts = 1
	}
	return &Store[T]{
		realm:     realm,
		repo:      repo,
		auth:      auth,
		opts:      opts,
		state:     State[T]{Loading: true},
		observers: make(map[int]func(State[T])),
	}
}

// Realm returns the realm this store serves
func (s *Store[T]) Realm() middleware.Realm {
	return s.realm
}

// Initialize restores the session from the persisted token. A 401 discards
// the token; other failures are retried InitAttempts times, after which the
// token is kept and the session reports StatusUnreachable.
func (s *Store[T]) Initialize(ctx context.Context) error {
	gen := s.begin(false)

	token, _ := s.repo.Get(s.realm.TokenKey)
	if token == "" {
		s.finish(gen, State[T]{})
		return nil
	}
	if s.realm.IdentityKey != "" {
		if _, ok := s.repo.Get(s.realm.IdentityKey); !ok {
			log.Debug().Str("realm", s.realm.Name).Msg("Token without stored identity")
			s.finish(gen, State[T]{})
			return nil
		}
	}

	var user *T
	attempt := 0
	check := func() error {
		attempt++
		u, err := s.auth.Me(ctx)
		if errors.Is(err, services.ErrUnauthorized) {
			return backoff.Permanent(err)
		}
		user = u
		return err
	}
	warn := func(err error, next time.Duration) {
		log.Warn().
			Err(err).
			Str("realm", s.realm.Name).
			Int("attempt", attempt).
			Int("max_attempts", s.opts.InitAttempts).
			Dur("retry_in", next).
			Msg("Auth check failed")
	}

	retries := uint64(max(s.opts.InitAttempts-1, 0))
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(s.opts.InitDelay), retries), ctx)
	err := backoff.RetryNotify(check, b, warn)
	switch {
	case err == nil:
		if err := s.persistIdentity(user); err != nil {
			log.Error().Err(err).Str("realm", s.realm.Name).Msg("Failed to store identity")
		}
		s.finish(gen, State[T]{User: user, Token: token})
		return nil

	case errors.Is(err, services.ErrUnauthorized):
		log.Info().Str("realm", s.realm.Name).Msg("Stored token rejected, clearing it")
		s.discard(token)
		s.finish(gen, State[T]{Err: ErrExpired})
		return ErrExpired
	}

	log.Warn().
		Err(err).
		Str("realm", s.realm.Name).
		Int("attempts", attempt).
		Msg("Giving up on auth check")

	unreachable := fmt.Errorf("%w: %w", ErrUnreachable, err)
	s.finish(gen, State[T]{Err: unreachable})
	return unreachable
}

// Retry re-runs initialization, used from the unreachable state
func (s *Store[T]) Retry(ctx context.Context) error {
	return s.Initialize(ctx)
}

// Login signs in and persists the token
func (s *Store[T]) Login(ctx context.Context, email, password string) error {
	gen := s.begin(true)

	token, user, err := s.auth.Login(ctx, email, password)
	if err != nil {
		authErr := &AuthError{Message: services.Message(err, "Login failed"), Err: err}
		s.finish(gen, State[T]{Err: authErr})
		return authErr
	}
	return s.establish(gen, token, user)
}

// Register creates an account and signs it in
func (s *Store[T]) Register(ctx context.Context, name, email, password string) error {
	reg, ok := s.auth.(Registrar[T])
	if !ok {
		return ErrUnsupported
	}

	gen := s.begin(true)

	token, user, err := reg.Register(ctx, name, email, password)
	if err != nil {
		authErr := &AuthError{Message: services.Message(err, "Registration failed"), Err: err}
		s.finish(gen, State[T]{Err: authErr})
		return authErr
	}
	return s.establish(gen, token, user)
}

func (s *Store[T]) establish(gen uint64, token string, user *T) error {
	if err := s.repo.Set(s.realm.TokenKey, token); err != nil {
		wrapped := fmt.Errorf("failed to persist token: %w", err)
		s.finish(gen, State[T]{Err: wrapped})
		return wrapped
	}
	if err := s.persistIdentity(user); err != nil {
		s.repo.Delete(s.realm.TokenKey)
		s.finish(gen, State[T]{Err: err})
		return err
	}

	s.finish(gen, State[T]{User: user, Token: token})
	log.Info().Str("realm", s.realm.Name).Msg("Signed in")
	return nil
}

// Logout discards the persisted token and clears the session
func (s *Store[T]) Logout() error {
	s.mu.Lock()
	s.gen++
	s.state = State[T]{}
	s.mu.Unlock()

	keys := []string{s.realm.TokenKey}
	if s.realm.IdentityKey != "" {
		keys = append(keys, s.realm.IdentityKey)
	}
	err := s.repo.Delete(keys...)

	s.notify()
	log.Info().Str("realm", s.realm.Name).Msg("Signed out")
	if err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}

// UpdateUser merges fields into the current user without a server call
func (s *Store[T]) UpdateUser(fields map[string]any) error {
	s.mu.Lock()
	if s.state.User == nil {
		s.mu.Unlock()
		return ErrNoUser
	}

	merged, err := merge(s.state.User, fields)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.state.User = merged
	s.mu.Unlock()

	if err := s.persistIdentity(merged); err != nil {
		return err
	}
	s.notify()
	return nil
}

// ReplaceUser swaps in the canonical object returned by an edit call
func (s *Store[T]) ReplaceUser(user *T) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("failed to decode user: %w", err)
	}
	return s.UpdateUser(fields)
}

// IsAuthenticated is the sole gate for protected views: a persisted token,
// a known user and no initialization in progress.
func (s *Store[T]) IsAuthenticated() bool {
	token, _ := s.repo.Get(s.realm.TokenKey)

	s.mu.Lock()
	defer s.mu.Unlock()
	return token != "" && s.state.User != nil && !s.state.Loading
}

// Status derives the renderable status
func (s *Store[T]) Status() Status {
	token, _ := s.repo.Get(s.realm.TokenKey)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.state.Loading:
		return StatusLoading
	case token != "" && s.state.User != nil:
		return StatusAuthenticated
	case token != "" && errors.Is(s.state.Err, ErrUnreachable):
		return StatusUnreachable
	case token != "":
		return StatusUnverified
	}
	return StatusAnonymous
}

// Snapshot returns a copy of the current state
func (s *Store[T]) Snapshot() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn for every state transition; call the returned
// func to detach.
func (s *Store[T]) Subscribe(fn func(State[T])) func() {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// begin enters the loading state; login-type transitions bump the
// generation so an older in-flight initialization cannot overwrite them.
func (s *Store[T]) begin(supersede bool) uint64 {
	s.mu.Lock()
	if supersede {
		s.gen++
	}
	gen := s.gen
	s.state.Loading = true
	s.state.Err = nil
	s.mu.Unlock()

	s.notify()
	return gen
}

func (s *Store[T]) finish(gen uint64, st State[T]) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		log.Debug().Str("realm", s.realm.Name).Msg("Dropping superseded session update")
		return
	}
	s.state = st
	s.mu.Unlock()

	s.notify()
}

func (s *Store[T]) notify() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	fns := make([]func(State[T]), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Store[T]) snapshotLocked() State[T] {
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// discard removes the rejected token, leaving a newer one alone
func (s *Store[T]) discard(token string) {
	cleared, err := s.repo.CompareAndDelete(s.realm.TokenKey, token)
	if err != nil {
		log.Error().Err(err).Str("realm", s.realm.Name).Msg("Failed to clear token")
		return
	}
	if cleared && s.realm.IdentityKey != "" {
		if err := s.repo.Delete(s.realm.IdentityKey); err != nil {
			log.Error().Err(err).Str("realm", s.realm.Name).Msg("Failed to clear identity")
		}
	}
}

func (s *Store[T]) persistIdentity(user *T) error {
	if s.realm.IdentityKey == "" || user == nil {
		return nil
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}
	if err := s.repo.Set(s.realm.IdentityKey, string(data)); err != nil {
		return fmt.Errorf("failed to persist identity: %w", err)
	}
	return nil
}

// merge overlays fields onto a JSON round-trip of user
func merge[T any](user *T, fields map[string]any) (*T, error) {
	data, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user: %w", err)
	}
	current := make(map[string]any)
	if err := json.Unmarshal(data, &current); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	for k, v := range fields {
		current[k] = v
	}
	data, err = json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("failed to encode merged user: %w", err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to apply user fields: %w", err)
	}
	return &out, nil
}

// TokenExpiry reads the exp claim of a JWT without verifying it. Opaque
// tokens report false.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
