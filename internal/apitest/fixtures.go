package apitest

import (
	"fmt"
	"strings"
	"time"

	"shyness-client/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func newID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

func hashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

// AddUser creates a user account and returns it
func (s *Server) AddUser(name, email, password string) (models.User, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	u := models.User{
		ID:        newID(),
		Name:      name,
		Email:     strings.ToLower(email),
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findUserLocked(u.Email) != nil {
		return models.User{}, fmt.Errorf("user %s already exists", email)
	}
	s.users[u.ID] = &userRecord{user: u, hash: hash}
	return u, nil
}

// AddAdmin creates a console operator
func (s *Server) AddAdmin(name, email, password string) (models.Admin, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return models.Admin{}, err
	}

	a := models.Admin{ID: newID(), Name: name, Email: strings.ToLower(email), Role: "admin"}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[a.ID] = &adminRecord{admin: a, hash: hash}
	return a, nil
}

// SetStreak sets a user's current streak, raising the longest if needed
func (s *Server) SetStreak(userID string, days int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s not found", userID)
	}
	rec.user.CurrentStreak = days
	rec.user.LongestStreak = max(rec.user.LongestStreak, days)
	return nil
}

// AddTopic stores a topic and returns it with an id
func (s *Server) AddTopic(t models.Topic) models.Topic {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == "" {
		t.ID = newID()
	}
	s.topics = append(s.topics, t)
	return t
}

// AddScript stores a script and returns it with an id
func (s *Server) AddScript(sc models.Script) models.Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sc.ID == "" {
		sc.ID = newID()
	}
	s.scripts = append(s.scripts, sc)
	return sc
}

// AddVideo stores a video owned by userID
func (s *Server) AddVideo(userID string, v models.Video) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[userID]
	if !ok {
		return models.Video{}, fmt.Errorf("user %s not found", userID)
	}
	if v.ID == "" {
		v.ID = newID()
	}
	if v.ValidationStatus == "" {
		v.ValidationStatus = models.VideoPending
	}
	if v.UploadDate.IsZero() {
		v.UploadDate = time.Now()
	}
	v.User = &models.UserRef{ID: rec.user.ID, Name: rec.user.Name, Email: rec.user.Email}
	s.videos = append(s.videos, v)
	rec.user.TotalVideos++
	return v, nil
}

// AddPayment stores a payout for userID
func (s *Server) AddPayment(userID string, amount float64, status models.PaymentStatus) (models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[userID]
	if !ok {
		return models.Payment{}, fmt.Errorf("user %s not found", userID)
	}
	p := s.newPaymentLocked(rec, amount, "manual", "")
	p.Status = status
	s.payments[len(s.payments)-1] = p
	return p, nil
}

// Videos returns a copy of every stored video
func (s *Server) Videos() []models.Video {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Video(nil), s.videos...)
}

// Payments returns a copy of every stored payout
func (s *Server) Payments() []models.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Payment(nil), s.payments...)
}

// ResetTokenFor returns the reset token last issued for email
func (s *Server) ResetTokenFor(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, e := range s.resets {
		if e == strings.ToLower(email) {
			return token
		}
	}
	return ""
}

func (s *Server) newPaymentLocked(rec *userRecord, amount float64, method, notes string) models.Payment {
	p := models.Payment{
		ID:            newID(),
		User:          &models.UserRef{ID: rec.user.ID, Name: rec.user.Name, Email: rec.user.Email},
		Amount:        amount,
		StreakDays:    rec.user.CurrentStreak,
		Status:        models.PaymentPending,
		PaymentMethod: method,
		AdminNotes:    notes,
		CreatedAt:     time.Now(),
	}
	s.payments = append(s.payments, p)
	return p
}

func (s *Server) findUserLocked(email string) *userRecord {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, rec := range s.users {
		if rec.user.Email == email {
			return rec
		}
	}
	return nil
}

func (s *Server) findAdminLocked(email string) *adminRecord {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, rec := range s.admins {
		if rec.admin.Email == email {
			return rec
		}
	}
	return nil
}
