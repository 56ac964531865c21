package apitest

import (
	"io"
	"math/rand"
	"net/http"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"shyness-client/internal/models"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	rec := s.findUserLocked(req.Email)
	s.mu.Unlock()
	if rec == nil || bcrypt.CompareHashAndPassword(rec.hash, []byte(req.Password)) != nil {
		respondError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	s.respondSession(w, rec)
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Email == "" || len(req.Password) < 6 {
		respondError(w, "Please provide name, email and a password of at least 6 characters", http.StatusBadRequest)
		return
	}

	u, err := s.AddUser(req.Name, req.Email, req.Password)
	if err != nil {
		respondError(w, "User already exists", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	rec := s.users[u.ID]
	s.mu.Unlock()
	s.respondSession(w, rec)
}

func (s *Server) respondSession(w http.ResponseWriter, rec *userRecord) {
	token, err := s.issueToken(rec.user.ID, "user")
	if err != nil {
		respondError(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}
	s.mu.Lock()
	u := rec.user
	s.mu.Unlock()
	respondData(w, map[string]any{"token": token, "user": u})
}

func (s *Server) currentUser(r *http.Request) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[subject(r)]
	if !ok {
		return models.User{}, false
	}
	return rec.user, true
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u, _ := s.currentUser(r)
	respondData(w, map[string]any{"user": u})
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil || strings.TrimSpace(req.Name) == "" {
		respondError(w, "Name is required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	rec := s.users[subject(r)]
	rec.user.Name = strings.TrimSpace(req.Name)
	u := rec.user
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Profile updated", "user": u})
}

func (s *Server) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if rec := s.findUserLocked(req.Email); rec != nil {
		s.resets[newID()] = rec.user.Email
	}
	s.mu.Unlock()

	respondMessage(w, "If an account exists for that email, a reset link has been sent")
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		respondError(w, "Failed to reset password", http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.resets[req.Token]
	if !ok {
		respondError(w, "Invalid or expired reset token", http.StatusBadRequest)
		return
	}
	delete(s.resets, req.Token)
	if rec := s.findUserLocked(email); rec != nil {
		rec.hash = hash
	}
	respondMessage(w, "Password reset successful")
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	u, _ := s.currentUser(r)

	s.mu.Lock()
	var recent []models.Video
	var stats models.DashboardStats
	for _, v := range s.videos {
		if v.User == nil || v.User.ID != u.ID {
			continue
		}
		recent = append(recent, v)
		stats.TotalDuration += v.Duration
		if v.ValidationStatus == models.VideoValid {
			stats.ValidVideos++
		}
	}
	s.mu.Unlock()

	stats.TotalVideos = u.TotalVideos
	if n := len(recent); n > 0 {
		stats.AvgDuration = stats.TotalDuration / float64(n)
	}

	sort.Slice(recent, func(i, j int) bool { return recent[i].UploadDate.After(recent[j].UploadDate) })
	if len(recent) > 5 {
		recent = recent[:5]
	}

	respondData(w, models.Dashboard{
		User:         u,
		Streak:       streakOf(u),
		RecentVideos: recent,
		Statistics:   stats,
	})
}

func streakOf(u models.User) models.Streak {
	next := models.EligibilityStreakDays
	for next <= u.CurrentStreak {
		next += models.EligibilityStreakDays
	}
	return models.Streak{
		Current:  u.CurrentStreak,
		Longest:  u.LongestStreak,
		IsActive: u.CurrentStreak > 0,
		NextGoal: next,
	}
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	u, _ := s.currentUser(r)

	s.mu.Lock()
	valid := 0
	for _, v := range s.videos {
		if v.User != nil && v.User.ID == u.ID && v.ValidationStatus == models.VideoValid {
			valid++
		}
	}
	s.mu.Unlock()

	points := 0
	for _, rw := range u.Rewards {
		points += rw.Points
	}
	respondData(w, models.UserStats{
		TotalVideos:   u.TotalVideos,
		ValidVideos:   valid,
		CurrentStreak: u.CurrentStreak,
		LongestStreak: u.LongestStreak,
		TotalPoints:   points,
	})
}

func (s *Server) streak(w http.ResponseWriter, r *http.Request) {
	u, _ := s.currentUser(r)
	respondData(w, streakOf(u))
}

func (s *Server) rewards(w http.ResponseWriter, r *http.Request) {
	u, _ := s.currentUser(r)
	available := []models.Reward{
		{Name: "First Steps", Icon: "🎯", Points: 10, Description: "Upload your first video"},
		{Name: "Week Warrior", Icon: "🔥", Points: 50, Description: "Keep a 7-day streak"},
		{Name: "Payday", Icon: "💰", Points: 100, Description: "Keep a 10-day streak"},
	}
	respondData(w, models.RewardsSummary{
		Earned:         u.Rewards,
		Available:      available,
		TotalAvailable: len(available),
	})
}

func (s *Server) paymentInfo(w http.ResponseWriter, r *http.Request) {
	u, _ := s.currentUser(r)
	respondData(w, map[string]any{"paymentInfo": u.PaymentInfo})
}

func (s *Server) updatePaymentInfo(w http.ResponseWriter, r *http.Request) {
	var info models.PaymentInfo
	if err := decodeBody(r, &info); err != nil || info.PreferredMethod == "" {
		respondError(w, "Please select a payment method", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	rec := s.users[subject(r)]
	rec.user.PaymentInfo = &info
	u := rec.user
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Payment information updated",
		"data":    map[string]any{"user": u},
	})
}

func (s *Server) uploadVideo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, "Invalid upload", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("video")
	if err != nil {
		respondError(w, "Please upload a video file", http.StatusBadRequest)
		return
	}
	defer file.Close()
	size, _ := io.Copy(io.Discard, file)

	topicID := r.FormValue("topicId")
	s.mu.Lock()
	idx := slices.IndexFunc(s.topics, func(t models.Topic) bool { return t.ID == topicID })
	var ref *models.TopicRef
	if idx >= 0 {
		t := &s.topics[idx]
		t.UsageCount++
		ref = &models.TopicRef{ID: t.ID, Title: t.Title, Category: t.Category}
	}
	s.mu.Unlock()
	if ref == nil {
		respondError(w, "Topic not found", http.StatusBadRequest)
		return
	}

	v, err := s.AddVideo(subject(r), models.Video{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Topic:       ref,
		Duration:    float64(size) / (256 * 1024),
	})
	if err != nil {
		respondError(w, "Upload failed", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Video uploaded successfully",
		"data":    map[string]any{"video": v},
	})
}

func paging(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return page, limit
}

func paginate[T any](items []T, page, limit int) ([]T, models.Pagination) {
	total := len(items)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)
	return items[start:end], models.Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: (total + limit - 1) / limit,
	}
}

func (s *Server) myVideos(w http.ResponseWriter, r *http.Request) {
	uid := subject(r)
	s.mu.Lock()
	var own []models.Video
	for _, v := range s.videos {
		if v.User != nil && v.User.ID == uid {
			own = append(own, v)
		}
	}
	s.mu.Unlock()

	page, limit := paging(r)
	items, p := paginate(own, page, limit)
	if items == nil {
		items = []models.Video{}
	}
	respondData(w, map[string]any{"videos": items, "pagination": p})
}

// ownVideoLocked finds a video by id that belongs to the caller
func (s *Server) ownVideoLocked(r *http.Request) int {
	id := chi.URLParam(r, "id")
	uid := subject(r)
	return slices.IndexFunc(s.videos, func(v models.Video) bool {
		return v.ID == id && v.User != nil && v.User.ID == uid
	})
}

func (s *Server) getVideo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	idx := s.ownVideoLocked(r)
	var v models.Video
	if idx >= 0 {
		v = s.videos[idx]
	}
	s.mu.Unlock()

	if idx < 0 {
		respondError(w, "Video not found", http.StatusNotFound)
		return
	}
	respondData(w, v)
}

func (s *Server) updateVideo(w http.ResponseWriter, r *http.Request) {
	var upd models.VideoUpdate
	if err := decodeBody(r, &upd); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	idx := s.ownVideoLocked(r)
	var v models.Video
	if idx >= 0 {
		if upd.Title != nil {
			s.videos[idx].Title = *upd.Title
		}
		if upd.Description != nil {
			s.videos[idx].Description = *upd.Description
		}
		if upd.IsPublic != nil {
			s.videos[idx].IsPublic = *upd.IsPublic
		}
		v = s.videos[idx]
	}
	s.mu.Unlock()

	if idx < 0 {
		respondError(w, "Video not found", http.StatusNotFound)
		return
	}
	respondData(w, v)
}

func (s *Server) deleteVideo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	idx := s.ownVideoLocked(r)
	if idx >= 0 {
		s.removeVideoLocked(idx)
	}
	s.mu.Unlock()

	if idx < 0 {
		respondError(w, "Video not found", http.StatusNotFound)
		return
	}
	respondMessage(w, "Video deleted")
}

func (s *Server) removeVideoLocked(idx int) {
	v := s.videos[idx]
	s.videos = slices.Delete(s.videos, idx, idx+1)
	if v.User != nil {
		if rec, ok := s.users[v.User.ID]; ok && rec.user.TotalVideos > 0 {
			rec.user.TotalVideos--
		}
	}
}

func (s *Server) listTopics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	s.mu.Lock()
	out := []models.Topic{}
	for _, t := range s.topics {
		if c := q.Get("category"); c != "" && t.Category != c {
			continue
		}
		if d := q.Get("difficulty"); d != "" && t.Difficulty != d {
			continue
		}
		out = append(out, t)
	}
	s.mu.Unlock()

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	respondData(w, map[string]any{"topics": out})
}

func (s *Server) randomTopic(w http.ResponseWriter, r *http.Request) {
	difficulty := r.URL.Query().Get("difficulty")

	s.mu.Lock()
	var pool []models.Topic
	for _, t := range s.topics {
		if difficulty == "" || t.Difficulty == difficulty {
			pool = append(pool, t)
		}
	}
	s.mu.Unlock()

	if len(pool) == 0 {
		respondError(w, "No topics available", http.StatusNotFound)
		return
	}
	respondData(w, pool[rand.Intn(len(pool))])
}

func (s *Server) getTopic(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	idx := slices.IndexFunc(s.topics, func(t models.Topic) bool { return t.ID == id })
	var t models.Topic
	if idx >= 0 {
		t = s.topics[idx]
	}
	s.mu.Unlock()

	if idx < 0 {
		respondError(w, "Topic not found", http.StatusNotFound)
		return
	}
	respondData(w, t)
}

func (s *Server) createTopic(w http.ResponseWriter, r *http.Request) {
	var t models.Topic
	if err := decodeBody(r, &t); err != nil || t.Title == "" {
		respondError(w, "Title is required", http.StatusBadRequest)
		return
	}
	t.ID = ""
	respondJSON(w, http.StatusCreated, map[string]any{"success": true, "data": s.AddTopic(t)})
}

func (s *Server) updateTopic(w http.ResponseWriter, r *http.Request) {
	var t models.Topic
	if err := decodeBody(r, &t); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	idx := slices.IndexFunc(s.topics, func(t models.Topic) bool { return t.ID == id })
	if idx >= 0 {
		t.ID = id
		t.UsageCount = s.topics[idx].UsageCount
		s.topics[idx] = t
	}
	s.mu.Unlock()

	if idx < 0 {
		respondError(w, "Topic not found", http.StatusNotFound)
		return
	}
	respondData(w, t)
}

func (s *Server) deleteTopic(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	n := len(s.topics)
	s.topics = slices.DeleteFunc(s.topics, func(t models.Topic) bool { return t.ID == id })
	removed := len(s.topics) < n
	s.mu.Unlock()

	if !removed {
		respondError(w, "Topic not found", http.StatusNotFound)
		return
	}
	respondMessage(w, "Topic deleted")
}

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request) {
	uid := subject(r)
	s.mu.Lock()
	out := []models.Payment{}
	for _, p := range s.payments {
		if p.User != nil && p.User.ID == uid {
			out = append(out, p)
		}
	}
	s.mu.Unlock()
	respondData(w, map[string]any{"payments": out})
}

func (s *Server) paymentStats(w http.ResponseWriter, r *http.Request) {
	uid := subject(r)
	var st models.PaymentStats
	s.mu.Lock()
	for _, p := range s.payments {
		if p.User == nil || p.User.ID != uid {
			continue
		}
		st.TotalPayments++
		switch p.Status {
		case models.PaymentCompleted:
			st.CompletedPayments++
			st.TotalAmount += p.Amount
		case models.PaymentPending:
			st.PendingPayments++
		}
	}
	s.mu.Unlock()
	respondData(w, st)
}

func (s *Server) scriptCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	counts := make(map[string]int)
	for _, sc := range s.scripts {
		counts[sc.Category]++
	}
	s.mu.Unlock()

	out := make([]models.ScriptCategory, 0, len(counts))
	for name, n := range counts {
		out = append(out, models.ScriptCategory{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	respondData(w, out)
}

func (s *Server) scriptsByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	search := strings.ToLower(r.URL.Query().Get("search"))
	difficulty := r.URL.Query().Get("difficulty")

	s.mu.Lock()
	out := []models.Script{}
	for _, sc := range s.scripts {
		if sc.Category != category {
			continue
		}
		if difficulty != "" && sc.Difficulty != difficulty {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(sc.Title), search) {
			continue
		}
		out = append(out, sc)
	}
	s.mu.Unlock()
	respondData(w, map[string]any{"scripts": out})
}

func (s *Server) getScript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	idx := slices.IndexFunc(s.scripts, func(sc models.Script) bool { return sc.ID == id })
	var sc models.Script
	if idx >= 0 {
		sc = s.scripts[idx]
	}
	s.mu.Unlock()

	if idx < 0 {
		respondError(w, "Script not found", http.StatusNotFound)
		return
	}
	respondData(w, sc)
}

func (s *Server) downloadScript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	idx := slices.IndexFunc(s.scripts, func(sc models.Script) bool { return sc.ID == id })
	if idx >= 0 {
		s.scripts[idx].DownloadCount++
	}
	s.mu.Unlock()

	if idx < 0 {
		respondError(w, "Script not found", http.StatusNotFound)
		return
	}
	respondMessage(w, "Download recorded")
}

func (s *Server) adminLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	rec := s.findAdminLocked(req.Email)
	s.mu.Unlock()
	if rec == nil || bcrypt.CompareHashAndPassword(rec.hash, []byte(req.Password)) != nil {
		respondError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := s.issueToken(rec.admin.ID, "admin")
	if err != nil {
		respondError(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}
	respondData(w, map[string]any{"token": token, "admin": rec.admin})
}

func (s *Server) adminMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	a := s.admins[subject(r)].admin
	s.mu.Unlock()
	respondData(w, map[string]any{"admin": a})
}

func (s *Server) adminProfile(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decodeBody(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	rec := s.admins[subject(r)]
	if req.Name != "" {
		rec.admin.Name = req.Name
	}
	if req.Email != "" {
		rec.admin.Email = strings.ToLower(req.Email)
	}
	a := rec.admin
	s.mu.Unlock()
	respondData(w, map[string]any{"admin": a})
}

func (s *Server) adminPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Current string `json:"currentPassword"`
		Next    string `json:"newPassword"`
	}
	if err := decodeBody(r, &req); err != nil || len(req.Next) < 6 {
		respondError(w, "New password must be at least 6 characters", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	rec := s.admins[subject(r)]
	ok := bcrypt.CompareHashAndPassword(rec.hash, []byte(req.Current)) == nil
	s.mu.Unlock()
	if !ok {
		respondError(w, "Current password is incorrect", http.StatusBadRequest)
		return
	}

	hash, err := hashPassword(req.Next)
	if err != nil {
		respondError(w, "Failed to change password", http.StatusInternalServerError)
		return
	}
	s.mu.Lock()
	rec.hash = hash
	s.mu.Unlock()
	respondMessage(w, "Password changed")
}

func (s *Server) adminOverview(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var ov models.AdminOverview
	ov.Stats.TotalUsers = len(s.users)
	ov.Stats.TotalVideos = len(s.videos)
	for _, v := range s.videos {
		switch v.ValidationStatus {
		case models.VideoPending:
			ov.Stats.PendingVideos++
		case models.VideoValid:
			ov.Stats.ValidVideos++
		}
	}
	ov.RecentVideos = append([]models.Video{}, s.videos[max(0, len(s.videos)-5):]...)
	for _, rec := range s.users {
		ov.RecentUsers = append(ov.RecentUsers, rec.user)
	}
	s.mu.Unlock()

	sort.Slice(ov.RecentUsers, func(i, j int) bool { return ov.RecentUsers[i].CreatedAt.After(ov.RecentUsers[j].CreatedAt) })
	if len(ov.RecentUsers) > 5 {
		ov.RecentUsers = ov.RecentUsers[:5]
	}
	respondData(w, ov)
}

func (s *Server) adminVideos(w http.ResponseWriter, r *http.Request) {
	status := models.VideoStatus(r.URL.Query().Get("status"))
	s.mu.Lock()
	var all []models.Video
	for _, v := range s.videos {
		if status == "" || v.ValidationStatus == status {
			all = append(all, v)
		}
	}
	s.mu.Unlock()

	page, limit := paging(r)
	items, p := paginate(all, page, limit)
	if items == nil {
		items = []models.Video{}
	}
	respondData(w, map[string]any{"videos": items, "pagination": p})
}

var videoStatuses = []models.VideoStatus{models.VideoPending, models.VideoValid, models.VideoInvalid, models.VideoFlagged}

func (s *Server) adminVideoStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status models.VideoStatus `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil || !slices.Contains(videoStatuses, req.Status) {
		respondError(w, "Invalid status", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	idx := slices.IndexFunc(s.videos, func(v models.Video) bool { return v.ID == id })
	if idx >= 0 {
		s.videos[idx].ValidationStatus = req.Status
	}
	s.mu.Unlock()

	if idx < 0 {
		respondError(w, "Video not found", http.StatusNotFound)
		return
	}
	respondMessage(w, "Video status updated")
}

func (s *Server) adminDeleteVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	idx := slices.IndexFunc(s.videos, func(v models.Video) bool { return v.ID == id })
	if idx >= 0 {
		s.removeVideoLocked(idx)
	}
	s.mu.Unlock()

	if idx < 0 {
		respondError(w, "Video not found", http.StatusNotFound)
		return
	}
	respondMessage(w, "Video deleted")
}

func (s *Server) adminUserLocked(rec *userRecord) models.AdminUser {
	au := models.AdminUser{User: rec.user}
	for _, v := range s.videos {
		if v.User == nil || v.User.ID != rec.user.ID {
			continue
		}
		au.VideoStats.TotalVideos++
		if v.ValidationStatus == models.VideoPending {
			au.VideoStats.PendingVideos++
		}
	}
	au.StreakInfo.TotalDaysActive = rec.user.LongestStreak
	return au
}

func (s *Server) adminUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	all := make([]models.AdminUser, 0, len(s.users))
	for _, rec := range s.users {
		all = append(all, s.adminUserLocked(rec))
	}
	s.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	page, limit := paging(r)
	items, p := paginate(all, page, limit)
	respondData(w, map[string]any{"users": items, "pagination": p})
}

func (s *Server) adminUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rec, ok := s.users[chi.URLParam(r, "id")]
	var au models.AdminUser
	if ok {
		au = s.adminUserLocked(rec)
	}
	s.mu.Unlock()

	if !ok {
		respondError(w, "User not found", http.StatusNotFound)
		return
	}
	respondData(w, map[string]any{"user": au})
}

func (s *Server) adminPayments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]models.Payment{}, s.payments...)
	s.mu.Unlock()
	respondData(w, map[string]any{"payments": out})
}

func (s *Server) eligibleUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := []models.EligibleUser{}
	for _, rec := range s.users {
		if rec.user.CurrentStreak >= models.EligibilityStreakDays {
			out = append(out, models.EligibleUser{
				ID:            rec.user.ID,
				Name:          rec.user.Name,
				Email:         rec.user.Email,
				CurrentStreak: rec.user.CurrentStreak,
			})
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	respondData(w, out)
}

var paymentStatuses = []models.PaymentStatus{models.PaymentPending, models.PaymentCompleted, models.PaymentFailed, models.PaymentCancelled}

func (s *Server) adminPaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status     models.PaymentStatus `json:"status"`
		AdminNotes string               `json:"adminNotes"`
	}
	if err := decodeBody(r, &req); err != nil || !slices.Contains(paymentStatuses, req.Status) {
		respondError(w, "Invalid status", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	idx := slices.IndexFunc(s.payments, func(p models.Payment) bool { return p.ID == id })
	if idx >= 0 {
		s.payments[idx].Status = req.Status
		if req.AdminNotes != "" {
			s.payments[idx].AdminNotes = req.AdminNotes
		}
	}
	s.mu.Unlock()

	if idx < 0 {
		respondError(w, "Payment not found", http.StatusNotFound)
		return
	}
	respondMessage(w, "Payment status updated")
}

func (s *Server) createPayment(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePaymentRequest
	if err := decodeBody(r, &req); err != nil || req.Amount <= 0 {
		respondError(w, "Invalid payment request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	rec, ok := s.users[req.UserID]
	var p models.Payment
	eligible := ok && rec.user.CurrentStreak >= models.EligibilityStreakDays
	if eligible {
		p = s.newPaymentLocked(rec, req.Amount, req.PaymentMethod, req.AdminNotes)
		due := time.Now().AddDate(0, 0, 7)
		p.DueDate = &due
		s.payments[len(s.payments)-1] = p
	}
	s.mu.Unlock()

	switch {
	case !ok:
		respondError(w, "User not found", http.StatusNotFound)
	case !eligible:
		respondError(w, "User is not eligible for payment", http.StatusBadRequest)
	default:
		respondJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"message": "Payment created",
			"data":    map[string]any{"payment": p},
		})
	}
}
