package handlers

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"shyness-client/internal/models"
	"shyness-client/internal/query"
	"shyness-client/internal/services"
	"shyness-client/internal/session"
)

// ScriptHandler renders the practice script library
type ScriptHandler struct {
	session *session.Store[models.User]
	scripts *services.ScriptService
	query   *query.Client
	nav     Navigator
}

// NewScriptHandler creates a new script handler
func NewScriptHandler(sess *session.Store[models.User], scripts *services.ScriptService, q *query.Client, nav Navigator) *ScriptHandler {
	return &ScriptHandler{
		session: sess,
		scripts: scripts,
		query:   q,
		nav:     nav,
	}
}

// Categories lists script buckets
func (h *ScriptHandler) Categories(ctx context.Context, w io.Writer) error {
	if err := guard(w, h.nav, h.session, "/app/scripts"); err != nil {
		return err
	}

	cats, rs := load(ctx, h.query, query.NewKey(ResourceCategories), h.scripts.Categories,
		func(c []models.ScriptCategory) bool { return len(c) == 0 })
	if ok, err := renderState(w, rs, "categories", "No script categories available."); !ok {
		return err
	}
	for _, c := range cats {
		fmt.Fprintf(w, "%-20s %d scripts\n", c.Name, c.Count)
	}
	return nil
}

// List shows the scripts of a category
func (h *ScriptHandler) List(ctx context.Context, w io.Writer, category, search, difficulty string) error {
	if err := guard(w, h.nav, h.session, "/app/scripts"); err != nil {
		return err
	}

	key := query.NewKey(ResourceScripts, category, search, difficulty)
	list, rs := load(ctx, h.query, key, func(ctx context.Context) ([]models.Script, error) {
		return h.scripts.ByCategory(ctx, category, search, difficulty)
	}, func(s []models.Script) bool { return len(s) == 0 })

	if ok, err := renderState(w, rs, "scripts", "No scripts found."); !ok {
		return err
	}
	for _, s := range list {
		fmt.Fprintf(w, "%s  %s  (%s, %d downloads)\n", s.ID, s.Title, s.Difficulty, s.DownloadCount)
	}
	return nil
}

// Show prints one script
func (h *ScriptHandler) Show(ctx context.Context, w io.Writer, id string) error {
	if err := guard(w, h.nav, h.session, "/app/scripts"); err != nil {
		return err
	}

	s, rs := h.load(ctx, id)
	if ok, err := renderState(w, rs, "script", "Script not found."); !ok {
		return err
	}
	fmt.Fprintf(w, "%s\n%s\n\n%s\n", s.Title, strings.Repeat("=", len(s.Title)), s.Content)
	return nil
}

func (h *ScriptHandler) load(ctx context.Context, id string) (*models.Script, query.RenderState) {
	return load(ctx, h.query, query.NewKey(ResourceScript, id), func(ctx context.Context) (*models.Script, error) {
		return h.scripts.Get(ctx, id)
	}, func(s *models.Script) bool { return s == nil || s.ID == "" })
}

// Download records the download and writes the script to dir as a .txt file
func (h *ScriptHandler) Download(ctx context.Context, w io.Writer, id, dir string) error {
	if err := guard(w, h.nav, h.session, "/app/scripts"); err != nil {
		return err
	}

	s, rs := h.load(ctx, id)
	if ok, err := renderState(w, rs, "script", "Script not found."); !ok {
		return err
	}

	path := filepath.Join(dir, fileName(s.Title)+".txt")
	if err := os.WriteFile(path, []byte(s.Content), 0o644); err != nil {
		fmt.Fprintln(w, "Failed to download script")
		return fmt.Errorf("failed to write script: %w", err)
	}

	_, err := query.Mutate(ctx, h.query, MutationScriptDownload, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.scripts.Download(ctx, id)
	})
	if err != nil {
		return notify(w, err, "", "Failed to download script")
	}
	return notify(w, nil, "Saved "+path, "")
}

func fileName(title string) string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		if unicode.IsSpace(r) {
			return '_'
		}
		return -1
	}, strings.TrimSpace(title))
	if name == "" {
		return "script"
	}
	return name
}
