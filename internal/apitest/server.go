// Package apitest is an in-memory stand-in for the practice backend. It
// speaks the same REST surface so the client can be exercised end to end.
package apitest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"shyness-client/internal/models"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

const tokenTTL = 7 * 24 * time.Hour

type contextKey string

const subjectKey contextKey = "subject"

// Fault overrides the answer for matching requests
type Fault struct {
	Status  int
	Message string
	Delay   time.Duration
	// Times limits how often the fault fires; zero means until cleared
	Times int
}

type userRecord struct {
	user models.User
	hash []byte
}

type adminRecord struct {
	admin models.Admin
	hash  []byte
}

// Server is the fake backend
type Server struct {
	mu       sync.Mutex
	secret   []byte
	users    map[string]*userRecord
	admins   map[string]*adminRecord
	topics   []models.Topic
	videos   []models.Video
	payments []models.Payment
	scripts  []models.Script
	revoked  map[string]bool
	resets   map[string]string
	faults   map[string]*Fault
	hits     map[string]int
	router   chi.Router
}

// NewServer creates an empty backend
func NewServer() *Server {
	s := &Server{
		secret:  []byte("apitest-secret"),
		users:   make(map[string]*userRecord),
		admins:  make(map[string]*adminRecord),
		revoked: make(map[string]bool),
		resets:  make(map[string]string),
		faults:  make(map[string]*Fault),
		hits:    make(map[string]int),
	}
	s.router = s.routes()
	return s
}

// Start serves the backend on a loopback listener; the API root is
// srv.URL + "/api".
func (s *Server) Start() *httptest.Server {
	return httptest.NewServer(s)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(s.record)
	r.Use(s.injectFaults)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, map[string]any{"success": true, "message": "ok"})
		})

		r.Post("/auth/login", s.login)
		r.Post("/auth/signup", s.signup)
		r.Post("/auth/forgot-password", s.forgotPassword)
		r.Put("/auth/reset-password", s.resetPassword)
		r.Post("/admin/auth/login", s.adminLogin)

		r.Get("/topics", s.listTopics)
		r.Get("/topics/random", s.randomTopic)
		r.Get("/topics/{id}", s.getTopic)
		r.Get("/scripts/categories", s.scriptCategories)
		r.Get("/scripts/category/{category}", s.scriptsByCategory)
		r.Get("/scripts/{id}", s.getScript)
		r.Post("/scripts/{id}/download", s.downloadScript)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate("user"))
			r.Get("/auth/me", s.me)
			r.Put("/auth/profile", s.updateProfile)

			r.Get("/user/dashboard", s.dashboard)
			r.Get("/user/stats", s.stats)
			r.Get("/user/streak", s.streak)
			r.Get("/user/rewards", s.rewards)
			r.Get("/user/payment-info", s.paymentInfo)
			r.Put("/user/payment-info", s.updatePaymentInfo)

			r.Post("/videos/upload", s.uploadVideo)
			r.Get("/videos/my-videos", s.myVideos)
			r.Get("/videos/{id}", s.getVideo)
			r.Put("/videos/{id}", s.updateVideo)
			r.Delete("/videos/{id}", s.deleteVideo)

			r.Get("/payments", s.listPayments)
			r.Get("/payments/stats", s.paymentStats)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate("admin"))
			r.Get("/admin/auth/me", s.adminMe)
			r.Put("/admin/auth/profile", s.adminProfile)
			r.Put("/admin/auth/password", s.adminPassword)

			r.Post("/topics", s.createTopic)
			r.Put("/topics/{id}", s.updateTopic)
			r.Delete("/topics/{id}", s.deleteTopic)

			r.Route("/admin/dashboard", func(r chi.Router) {
				r.Get("/overview", s.adminOverview)
				r.Get("/videos", s.adminVideos)
				r.Put("/videos/{id}/status", s.adminVideoStatus)
				r.Delete("/videos/{id}", s.adminDeleteVideo)
				r.Get("/users", s.adminUsers)
				r.Get("/users/{id}", s.adminUser)
				r.Get("/payments", s.adminPayments)
				r.Get("/eligible-users", s.eligibleUsers)
				r.Put("/payments/{id}/status", s.adminPaymentStatus)
				r.Post("/create-payment", s.createPayment)
			})
		})
	})
	return r
}

// Inject makes requests to path (relative to /api, any method) answer with f
func (s *Server) Inject(path string, f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fc := f
	s.faults[path] = &fc
}

// Clear removes the fault on path
func (s *Server) Clear(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.faults, path)
}

// Hits returns how many requests reached path (relative to /api)
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// TotalHits returns the number of requests served
func (s *Server) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.hits {
		n += v
	}
	return n
}

// Revoke makes token answer 401 from now on
func (s *Server) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token] = true
}

func apiPath(r *http.Request) string {
	return strings.TrimPrefix(r.URL.Path, "/api")
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[apiPath(r)]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFaults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := apiPath(r)

		s.mu.Lock()
		f, ok := s.faults[path]
		var fault Fault
		if ok {
			fault = *f
			if f.Times > 0 {
				f.Times--
				if f.Times == 0 {
					delete(s.faults, path)
				}
			}
		}
		s.mu.Unlock()

		if ok && fault.Delay > 0 {
			select {
			case <-time.After(fault.Delay):
			case <-r.Context().Done():
				return
			}
		}
		if ok && fault.Status != 0 {
			msg := fault.Message
			if msg == "" {
				msg = http.StatusText(fault.Status)
			}
			respondError(w, msg, fault.Status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// issueToken signs a token for subject in role
func (s *Server) issueToken(subject, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"jti":  newID(),
		"exp":  time.Now().Add(tokenTTL).Unix(),
		"iat":  time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *Server) validateToken(tokenString, role string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims")
	}
	if claims["role"] != role {
		return "", fmt.Errorf("token is not valid for %s routes", role)
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return "", fmt.Errorf("sub not found in token")
	}
	return sub, nil
}

// authenticate rejects requests without a valid bearer token for role
func (s *Server) authenticate(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, "Not authorized, no token", http.StatusUnauthorized)
				return
			}

			s.mu.Lock()
			revoked := s.revoked[parts[1]]
			s.mu.Unlock()
			if revoked {
				respondError(w, "Not authorized, token failed", http.StatusUnauthorized)
				return
			}

			sub, err := s.validateToken(parts[1], role)
			if err != nil {
				log.Debug().Err(err).Str("role", role).Msg("Rejected token")
				respondError(w, "Not authorized, token failed", http.StatusUnauthorized)
				return
			}

			s.mu.Lock()
			_, isUser := s.users[sub]
			_, isAdmin := s.admins[sub]
			s.mu.Unlock()
			if (role == "user" && !isUser) || (role == "admin" && !isAdmin) {
				respondError(w, "Not authorized, account not found", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey, sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func subject(r *http.Request) string {
	sub, _ := r.Context().Value(subjectKey).(string)
	return sub
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondData(w http.ResponseWriter, data any) {
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
}

func respondMessage(w http.ResponseWriter, msg string) {
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "message": msg})
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]any{"success": false, "message": message})
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode body: %w", err)
	}
	return nil
}
