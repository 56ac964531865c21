package handlers

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"shyness-client/internal/models"
)

func TestEligibilityMessage(t *testing.T) {
	tests := []struct {
		streak int
		want   string
	}{
		{0, "You need 10 more days to reach 10-day streak and become eligible for payment."},
		{9, "You need 1 more days to reach 10-day streak and become eligible for payment."},
		{10, "Congratulations! You're eligible for payment! You've maintained a 10-day streak."},
		{14, "Congratulations! You're eligible for payment! You've maintained a 14-day streak."},
	}

	for _, tt := range tests {
		if got := EligibilityMessage(tt.streak); got != tt.want {
			t.Errorf("EligibilityMessage(%d) = %q, want %q", tt.streak, got, tt.want)
		}
	}
}

func TestLoginThenDashboard(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	u := e.signIn(t, "Asha")
	if got := e.nav.CurrentRoute(); got != "/app/dashboard" {
		t.Errorf("route after login = %q, want /app/dashboard", got)
	}
	if err := e.srv.SetStreak(u.ID, 9); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := e.usersH.Dashboard(ctx, &out); err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"Welcome back, Asha!",
		"Current streak: 9 days",
		"Next goal: 10 days",
		"You need 1 more days to reach 10-day streak",
		"No videos yet.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("dashboard missing %q:\n%s", want, got)
		}
	}
}

func TestDashboardDurationsAndPayments(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.signIn(t, "Asha")

	for _, v := range []models.Video{
		{Title: "Mirror talk", Duration: 43.3, ValidationStatus: models.VideoValid},
		{Title: "Shop visit", Duration: 61.9},
	} {
		if _, err := e.srv.AddVideo(u.ID, v); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := e.srv.AddPayment(u.ID, 100, models.PaymentCompleted); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := e.usersH.Dashboard(ctx, &out); err != nil {
		t.Fatalf("Dashboard() error = %v, output %q", err, out.String())
	}
	got := out.String()
	for _, want := range []string{
		"Videos: 2 total, 1 valid",
		"Total duration: 1m 45s",
		"Average duration: 53s",
		"Recent payments:",
		"$100",
		"[completed]",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("dashboard missing %q:\n%s", want, got)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0s"},
		{43.3, "43s"},
		{59.6, "1m 0s"},
		{105.2, "1m 45s"},
		{3725, "1h 2m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.seconds); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestWatchDashboardRedrawsOncePerRefresh(t *testing.T) {
	e := newTestEnv(t)
	e.signIn(t, "Asha")

	// ticks land at 60, 120 and 180ms, well clear of the deadline
	ctx, cancel := context.WithTimeout(context.Background(), 230*time.Millisecond)
	defer cancel()

	var out syncBuffer
	if err := e.usersH.WatchDashboard(ctx, &out, 60*time.Millisecond, time.Hour); err != nil {
		t.Fatalf("WatchDashboard() error = %v", err)
	}

	refetches := e.srv.Hits("/user/dashboard") - 1
	if refetches < 1 {
		t.Fatalf("dashboard refetched %d times", refetches)
	}
	if frames := strings.Count(out.String(), "\n--- "); frames != refetches {
		t.Errorf("frames = %d, want one per refetch (%d)", frames, refetches)
	}
}

func TestWatchDashboardEndsOnLogout(t *testing.T) {
	e := newTestEnv(t)
	e.signIn(t, "Asha")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out syncBuffer
	done := make(chan error, 1)
	go func() { done <- e.usersH.WatchDashboard(ctx, &out, time.Hour, time.Hour) }()

	// wait for the first page before signing out elsewhere in the process
	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(out.String(), "Welcome back") {
		if time.Now().After(deadline) {
			t.Fatal("dashboard never drawn")
		}
		time.Sleep(time.Millisecond)
	}
	var logout bytes.Buffer
	if err := e.authH.Logout(&logout); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, ErrLoginRequired) {
			t.Errorf("WatchDashboard() error = %v, want ErrLoginRequired", err)
		}
	case <-ctx.Done():
		t.Fatal("watch kept running after logout")
	}
	if !strings.Contains(out.String(), "Your session has expired") {
		t.Errorf("output = %q", out.String())
	}
}

func TestLoginRejected(t *testing.T) {
	e := newTestEnv(t)
	if _, err := e.srv.AddUser("Asha", "asha@example.com", "secret123"); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := e.authH.Login(context.Background(), &out, "asha@example.com", "wrong-password"); err == nil {
		t.Fatal("Login() with a wrong password succeeded")
	}
	if !strings.Contains(out.String(), "Invalid email or password") {
		t.Errorf("output = %q", out.String())
	}
	if e.user.IsAuthenticated() {
		t.Error("session authenticated after a failed login")
	}
}

func TestLoginValidatesLocally(t *testing.T) {
	e := newTestEnv(t)

	var out bytes.Buffer
	if err := e.authH.Login(context.Background(), &out, "not-an-email", ""); err == nil {
		t.Fatal("Login() accepted invalid input")
	}
	if e.srv.TotalHits() != 0 {
		t.Errorf("TotalHits() = %d, want 0", e.srv.TotalHits())
	}
}

func TestUpdateNameRefreshesSession(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.signIn(t, "Asha")

	var out bytes.Buffer
	if err := e.usersH.UpdateName(ctx, &out, "Asha Rao"); err != nil {
		t.Fatalf("UpdateName() error = %v", err)
	}
	if got := e.user.Snapshot().User.Name; got != "Asha Rao" {
		t.Errorf("session name = %q, want Asha Rao", got)
	}

	out.Reset()
	if err := e.usersH.Profile(ctx, &out); err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if !strings.Contains(out.String(), "Name:   Asha Rao") {
		t.Errorf("profile = %q", out.String())
	}
}

func TestLogoutClearsSession(t *testing.T) {
	e := newTestEnv(t)
	e.signIn(t, "Asha")

	var out bytes.Buffer
	if err := e.authH.Logout(&out); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if e.user.IsAuthenticated() {
		t.Error("still authenticated after logout")
	}
	if got := e.nav.CurrentRoute(); got != "/login" {
		t.Errorf("route = %q, want /login", got)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	if _, err := e.srv.AddUser("Asha", "asha@example.com", "secret123"); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := e.authH.ForgotPassword(ctx, &out, "asha@example.com"); err != nil {
		t.Fatalf("ForgotPassword() error = %v", err)
	}
	token := e.srv.ResetTokenFor("asha@example.com")
	if token == "" {
		t.Fatal("no reset token issued")
	}

	out.Reset()
	if err := e.authH.ResetPassword(ctx, &out, token, "NewSecret1", "NewSecret1"); err != nil {
		t.Fatalf("ResetPassword() error = %v, output %q", err, out.String())
	}

	out.Reset()
	if err := e.authH.Login(ctx, &out, "asha@example.com", "NewSecret1"); err != nil {
		t.Fatalf("Login() with the new password error = %v, output %q", err, out.String())
	}
}
