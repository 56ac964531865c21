package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"shyness-client/internal/apitest"
	"shyness-client/internal/config"
	"shyness-client/internal/handlers"
	"shyness-client/internal/models"
	"shyness-client/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, srv *apitest.Server) *config.Config {
	t.Helper()

	ts := srv.Start()
	t.Cleanup(ts.Close)

	cfg := config.Default()
	cfg.API.BaseURL = ts.URL + "/api"
	cfg.API.Timeout = 5 * time.Second
	cfg.Query.Retry = 0
	cfg.Session.InitAttempts = 1
	return cfg
}

// execute runs one CLI invocation against a fresh app over the state file
func execute(t *testing.T, cfg *config.Config, statePath string, args ...string) (string, error) {
	t.Helper()

	store, err := repository.NewFileStore(statePath)
	require.NoError(t, err)

	var out bytes.Buffer
	c := &cli{out: &out, app: newApp(cfg, store)}
	root := newRootCmd(c)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoginThenDashboardAcrossInvocations(t *testing.T) {
	srv := apitest.NewServer()
	cfg := testConfig(t, srv)
	statePath := filepath.Join(t.TempDir(), "state.json")
	_, err := srv.AddUser("Asha", "asha@example.com", "secret123")
	require.NoError(t, err)

	out, err := execute(t, cfg, statePath, "login", "--email", "asha@example.com", "--password", "secret123")
	require.NoError(t, err, out)

	out, err = execute(t, cfg, statePath, "dashboard")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Welcome back, Asha!")
}

func TestProtectedCommandWithoutLogin(t *testing.T) {
	cfg := testConfig(t, apitest.NewServer())

	out, err := execute(t, cfg, filepath.Join(t.TempDir(), "state.json"), "payments")
	require.ErrorIs(t, err, handlers.ErrLoginRequired)
	assert.Contains(t, out, "Please log in")

	var reported *reportedError
	assert.ErrorAs(t, err, &reported)
}

func TestAdminLoginThenOverview(t *testing.T) {
	srv := apitest.NewServer()
	cfg := testConfig(t, srv)
	statePath := filepath.Join(t.TempDir(), "state.json")
	_, err := srv.AddAdmin("Root", "root@example.com", "secret123")
	require.NoError(t, err)

	out, err := execute(t, cfg, statePath, "admin", "login", "--email", "root@example.com", "--password", "secret123")
	require.NoError(t, err, out)

	out, err = execute(t, cfg, statePath, "admin", "overview")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Users: 0  Videos: 0")
}

func TestVideoEditSendsOnlyChangedFlags(t *testing.T) {
	srv := apitest.NewServer()
	cfg := testConfig(t, srv)
	statePath := filepath.Join(t.TempDir(), "state.json")
	u, err := srv.AddUser("Asha", "asha@example.com", "secret123")
	require.NoError(t, err)
	v, err := srv.AddVideo(u.ID, models.Video{Title: "Day one", Description: "In the park", IsPublic: true})
	require.NoError(t, err)

	out, err := execute(t, cfg, statePath, "login", "--email", "asha@example.com", "--password", "secret123")
	require.NoError(t, err, out)

	out, err = execute(t, cfg, statePath, "videos", "edit", v.ID, "--title", "Day one, take two")
	require.NoError(t, err, out)

	got := srv.Videos()[0]
	assert.Equal(t, "Day one, take two", got.Title)
	assert.Equal(t, "In the park", got.Description)
	assert.True(t, got.IsPublic)

	out, err = execute(t, cfg, statePath, "videos", "edit", v.ID, "--public=false")
	require.NoError(t, err, out)
	got = srv.Videos()[0]
	assert.False(t, got.IsPublic)
	assert.Equal(t, "Day one, take two", got.Title)
}

func TestAdminTopicCommands(t *testing.T) {
	srv := apitest.NewServer()
	cfg := testConfig(t, srv)
	statePath := filepath.Join(t.TempDir(), "state.json")
	_, err := srv.AddAdmin("Root", "root@example.com", "secret123")
	require.NoError(t, err)

	out, err := execute(t, cfg, statePath, "admin", "login", "--email", "root@example.com", "--password", "secret123")
	require.NoError(t, err, out)

	out, err = execute(t, cfg, statePath, "admin", "topics", "create",
		"--title", "Ask for directions", "--category", "daily", "--difficulty", "medium",
		"--tip", "Smile, then ask", "--tip", "Say thanks")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Topic created")

	out, err = execute(t, cfg, statePath, "admin", "topics")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Ask for directions  [daily/medium]")

	out, err = execute(t, cfg, statePath, "topics")
	require.Error(t, err, "user topics without a user session")
}

func TestDashboardWatchFlagParses(t *testing.T) {
	cfg := testConfig(t, apitest.NewServer())

	// without a session the guard answers before any watch starts
	out, err := execute(t, cfg, filepath.Join(t.TempDir(), "state.json"), "dashboard", "--watch", "--refresh", "1s")
	require.ErrorIs(t, err, handlers.ErrLoginRequired)
	assert.Contains(t, out, "Please log in")
}

func TestUsageErrors(t *testing.T) {
	tests := [][]string{
		{"frobnicate"},
		{"scripts", "show"},
		{"upload", "--title", "x"},
		{"admin", "video-status", "v1"},
		{"videos", "--page", "first"},
	}

	cfg := testConfig(t, apitest.NewServer())
	for _, args := range tests {
		args := args
		t.Run(args[0], func(t *testing.T) {
			_, err := execute(t, cfg, filepath.Join(t.TempDir(), "state.json"), args...)
			require.Error(t, err)

			var reported *reportedError
			assert.False(t, errors.As(err, &reported), "usage error %v reported as a page failure", err)
		})
	}
}
