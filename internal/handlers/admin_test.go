package handlers

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"shyness-client/internal/apitest"
	"shyness-client/internal/models"
	"shyness-client/internal/repository"
)

func TestPaymentTiles(t *testing.T) {
	payments := []models.Payment{
		{Status: models.PaymentPending},
		{Status: models.PaymentCompleted},
		{Status: models.PaymentPending},
		{Status: models.PaymentFailed},
		{Status: models.PaymentCancelled},
	}
	pending, completed := PaymentTiles(payments)
	if pending != 2 || completed != 1 {
		t.Errorf("PaymentTiles() = %d, %d, want 2, 1", pending, completed)
	}
}

func TestAdminPaymentTilesFollowStatusChange(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.signInAdmin(t)

	u, err := e.srv.AddUser("Asha", "asha@example.com", "secret123")
	if err != nil {
		t.Fatal(err)
	}
	p, err := e.srv.AddPayment(u.ID, 100, models.PaymentPending)
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := e.adminH.Payments(ctx, &out); err != nil {
		t.Fatalf("Payments() error = %v", err)
	}
	if !strings.Contains(out.String(), "Pending: 1  Completed: 0") {
		t.Fatalf("tiles before update:\n%s", out.String())
	}

	out.Reset()
	if err := e.adminH.SetPaymentStatus(ctx, &out, p.ID, models.PaymentCompleted, "paid via UPI"); err != nil {
		t.Fatalf("SetPaymentStatus() error = %v, output %q", err, out.String())
	}

	out.Reset()
	if err := e.adminH.Payments(ctx, &out); err != nil {
		t.Fatalf("Payments() error = %v", err)
	}
	if !strings.Contains(out.String(), "Pending: 0  Completed: 1") {
		t.Errorf("tiles after update:\n%s", out.String())
	}
}

func TestAdminCreatePayment(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.signInAdmin(t)

	u, err := e.srv.AddUser("Asha", "asha@example.com", "secret123")
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := e.adminH.CreatePayment(ctx, &out, u.ID); err == nil {
		t.Fatal("CreatePayment() succeeded for a user without a streak")
	}
	if !strings.Contains(out.String(), "User is not eligible for payment") {
		t.Errorf("output = %q", out.String())
	}

	if err := e.srv.SetStreak(u.ID, 10); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	if err := e.adminH.Payments(ctx, &out); err != nil {
		t.Fatalf("Payments() error = %v", err)
	}
	if !strings.Contains(out.String(), "Eligible users: 1") {
		t.Errorf("eligible tile:\n%s", out.String())
	}

	out.Reset()
	if err := e.adminH.CreatePayment(ctx, &out, u.ID); err != nil {
		t.Fatalf("CreatePayment() error = %v, output %q", err, out.String())
	}
	payments := e.srv.Payments()
	if len(payments) != 1 {
		t.Fatalf("payments = %d, want 1", len(payments))
	}
	got := payments[0]
	if got.Amount != models.DefaultPaymentAmount || got.PaymentMethod != "manual" || got.AdminNotes != AdminPaymentNote {
		t.Errorf("payment = %+v", got)
	}

	out.Reset()
	if err := e.adminH.Payments(ctx, &out); err != nil {
		t.Fatalf("Payments() error = %v", err)
	}
	if !strings.Contains(out.String(), "Pending: 1  Completed: 0") {
		t.Errorf("tiles after create:\n%s", out.String())
	}
}

func TestAdminOverviewUnauthorizedKeepsSession(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.signInAdmin(t)

	e.srv.Inject("/admin/dashboard/overview", apitest.Fault{Status: 401, Times: 1})

	var out bytes.Buffer
	if err := e.adminH.Overview(ctx, &out); err == nil {
		t.Fatal("Overview() error = nil, want the 401")
	}
	if token, _ := e.store.Get(repository.KeyAdminToken); token == "" {
		t.Error("admin token cleared by an overview 401")
	}
	if got := e.nav.CurrentRoute(); got != "/admin/dashboard" {
		t.Errorf("route = %q, want /admin/dashboard", got)
	}

	out.Reset()
	if err := e.adminH.Overview(ctx, &out); err != nil {
		t.Fatalf("Overview() retry error = %v", err)
	}
	if !strings.Contains(out.String(), "Users: 0  Videos: 0") {
		t.Errorf("overview = %q", out.String())
	}
}

func TestAdminUnauthorizedElsewhereLogsOut(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.signInAdmin(t)

	e.srv.Inject("/admin/dashboard/users", apitest.Fault{Status: 401})

	var out bytes.Buffer
	if err := e.adminH.Users(ctx, &out, 1, 20); err == nil {
		t.Fatal("Users() error = nil, want the 401")
	}
	if token, _ := e.store.Get(repository.KeyAdminToken); token != "" {
		t.Error("admin token kept after a 401")
	}
	if _, ok := e.store.Get(repository.KeyAdminUser); ok {
		t.Error("admin identity kept after a 401")
	}
	if got := e.nav.CurrentRoute(); got != "/admin/login" {
		t.Errorf("route = %q, want /admin/login", got)
	}
}

func TestAdminWatchEndsWhenSessionExpires(t *testing.T) {
	e := newTestEnv(t)
	e.signInAdmin(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out syncBuffer
	e.srv.Inject("/admin/auth/me", apitest.Fault{Status: 401})
	err := e.adminH.Watch(ctx, &out, time.Hour, 20*time.Millisecond)
	if !errors.Is(err, ErrLoginRequired) {
		t.Fatalf("Watch() error = %v, want ErrLoginRequired", err)
	}
	if got := e.nav.CurrentRoute(); got != "/admin/login" {
		t.Errorf("route = %q, want /admin/login", got)
	}
	if !strings.Contains(out.String(), "console session has expired") {
		t.Errorf("output = %q", out.String())
	}
}

func TestAdminWatchDrawsOneFramePerRefresh(t *testing.T) {
	e := newTestEnv(t)
	e.signInAdmin(t)

	ctx, cancel := context.WithTimeout(context.Background(), 230*time.Millisecond)
	defer cancel()

	var out syncBuffer
	if err := e.adminH.Watch(ctx, &out, 60*time.Millisecond, time.Hour); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	refetches := e.srv.Hits("/admin/dashboard/overview") - 1
	if refetches < 1 {
		t.Fatalf("overview refetched %d times", refetches)
	}
	if frames := strings.Count(out.String(), "\n--- "); frames != refetches {
		t.Errorf("frames = %d, want one per refetch (%d):\n%s", frames, refetches, out.String())
	}
}

func TestAdminMissingUserRendersEmpty(t *testing.T) {
	e := newTestEnv(t)
	e.signInAdmin(t)

	var out bytes.Buffer
	if err := e.adminH.User(context.Background(), &out, "missing"); err != nil {
		t.Fatalf("User() error = %v", err)
	}
	if got := out.String(); !strings.Contains(got, "User not found.") || strings.Contains(got, "Error loading") {
		t.Errorf("output = %q", got)
	}
}

func TestAdminProfileAndPassword(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.signInAdmin(t)

	var out bytes.Buffer
	if err := e.adminH.UpdateProfile(ctx, &out, "  Head Root ", ""); err != nil {
		t.Fatalf("UpdateProfile() error = %v, output %q", err, out.String())
	}
	if got := e.admin.Snapshot().User.Name; got != "Head Root" {
		t.Errorf("session admin name = %q, want the server's copy", got)
	}

	out.Reset()
	if err := e.adminH.UpdateProfile(ctx, &out, "", ""); err == nil {
		t.Error("UpdateProfile() with no fields succeeded")
	}

	out.Reset()
	if err := e.adminH.ChangePassword(ctx, &out, "wrong-one", "newsecret1"); err == nil {
		t.Error("ChangePassword() with a bad current password succeeded")
	}
	if !strings.Contains(out.String(), "Current password is incorrect") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	if err := e.adminH.ChangePassword(ctx, &out, "secret123", "newsecret1"); err != nil {
		t.Fatalf("ChangePassword() error = %v, output %q", err, out.String())
	}
	if !e.admin.IsAuthenticated() {
		t.Error("password change ended the session")
	}

	// the new password is the one that works from now on
	if err := e.adminH.Logout(&out); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	if err := e.adminH.Login(ctx, &out, "root@example.com", "newsecret1"); err != nil {
		t.Fatalf("Login() with the new password error = %v, output %q", err, out.String())
	}
}

func TestAdminManagesTopics(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.signInAdmin(t)

	var out bytes.Buffer
	if err := e.adminH.Topics(ctx, &out); err != nil {
		t.Fatalf("Topics() error = %v", err)
	}
	if !strings.Contains(out.String(), "No topics yet.") {
		t.Errorf("empty topics = %q", out.String())
	}

	out.Reset()
	bad := models.Topic{Title: "Order coffee", Category: "daily", Difficulty: "extreme"}
	if err := e.adminH.CreateTopic(ctx, &out, bad); err == nil {
		t.Error("CreateTopic() accepted an unknown difficulty")
	}
	if e.srv.Hits("/topics") != 1 {
		t.Errorf("invalid topic reached the server")
	}

	out.Reset()
	topic := models.Topic{Title: " Order coffee ", Category: "daily", Difficulty: "Easy", Tips: []string{"Smile", " "}}
	if err := e.adminH.CreateTopic(ctx, &out, topic); err != nil {
		t.Fatalf("CreateTopic() error = %v, output %q", err, out.String())
	}

	out.Reset()
	if err := e.adminH.Topics(ctx, &out); err != nil {
		t.Fatalf("Topics() error = %v", err)
	}
	if !strings.Contains(out.String(), "Order coffee  [daily/easy]") {
		t.Fatalf("topics after create = %q", out.String())
	}
	id := strings.Fields(out.String())[0]

	out.Reset()
	topic.Title = "Order tea"
	if err := e.adminH.UpdateTopic(ctx, &out, id, topic); err != nil {
		t.Fatalf("UpdateTopic() error = %v, output %q", err, out.String())
	}
	out.Reset()
	if err := e.adminH.DeleteTopic(ctx, &out, id); err != nil {
		t.Fatalf("DeleteTopic() error = %v", err)
	}

	out.Reset()
	if err := e.adminH.Topics(ctx, &out); err != nil {
		t.Fatalf("Topics() error = %v", err)
	}
	if !strings.Contains(out.String(), "No topics yet.") {
		t.Errorf("topics after delete = %q", out.String())
	}
}

func TestAdminModeratesVideos(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.signInAdmin(t)

	u, err := e.srv.AddUser("Asha", "asha@example.com", "secret123")
	if err != nil {
		t.Fatal(err)
	}
	v, err := e.srv.AddVideo(u.ID, models.Video{Title: "Day one"})
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	filter := models.VideoFilter{Status: models.VideoPending, Page: 1, Limit: 20}
	if err := e.adminH.Videos(ctx, &out, filter); err != nil {
		t.Fatalf("Videos() error = %v", err)
	}
	if !strings.Contains(out.String(), "Day one") {
		t.Fatalf("pending videos = %q", out.String())
	}

	out.Reset()
	if err := e.adminH.SetVideoStatus(ctx, &out, v.ID, models.VideoValid); err != nil {
		t.Fatalf("SetVideoStatus() error = %v", err)
	}

	out.Reset()
	if err := e.adminH.Videos(ctx, &out, filter); err != nil {
		t.Fatalf("Videos() error = %v", err)
	}
	if !strings.Contains(out.String(), "No videos match this filter.") {
		t.Errorf("pending videos after approval = %q", out.String())
	}
}
