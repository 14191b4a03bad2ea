package ghimport

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/askelund/storyrank/internal/config"
	"github.com/askelund/storyrank/internal/db"
	"github.com/askelund/storyrank/internal/models"
	"github.com/google/go-github/v68/github"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Open(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return gdb
}

// mockLister serves pages of canned issues.
type mockLister struct {
	pages [][]*github.Issue
}

func (m *mockLister) ListByRepo(ctx context.Context, owner, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error) {
	page := opts.Page
	if page == 0 {
		page = 1
	}
	issues := m.pages[page-1]
	resp := &github.Response{}
	if page < len(m.pages) {
		resp.NextPage = page + 1
	}
	return issues, resp, nil
}

func issue(number int, title, body string, labels ...string) *github.Issue {
	is := &github.Issue{
		Number: github.Int(number),
		Title:  github.String(title),
		Body:   github.String(body),
	}
	for _, l := range labels {
		is.Labels = append(is.Labels, &github.Label{Name: github.String(l)})
	}
	return is
}

func TestImport(t *testing.T) {
	gdb := setupDB(t)
	pr := issue(3, "A pull request", "")
	pr.PullRequestLinks = &github.PullRequestLinks{URL: github.String("https://example.invalid/pr/3")}
	im := &Importer{
		db: gdb,
		issues: &mockLister{pages: [][]*github.Issue{
			{issue(1, "Fix login flow", "Steps to reproduce", "bug")},
			{issue(2, "Dark theme", ""), pr},
		}},
	}

	res, err := im.Import(context.Background(), "acme", "webapp")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Created != 2 || res.Skipped != 0 {
		t.Errorf("result = %+v, want 2 created, 0 skipped", res)
	}

	var stories []models.Story
	if err := gdb.Preload("Epic").Preload("Labels").Find(&stories).Error; err != nil {
		t.Fatalf("load stories: %v", err)
	}
	if len(stories) != 2 {
		t.Fatalf("got %d stories, want 2 (pull request excluded)", len(stories))
	}
	for _, s := range stories {
		if s.Epic.Title != "acme/webapp" {
			t.Errorf("epic = %q, want acme/webapp", s.Epic.Title)
		}
		if !strings.HasPrefix(s.Workitems, "Imported from acme/webapp#") {
			t.Errorf("workitems = %q, missing source marker", s.Workitems)
		}
	}

	var label models.Label
	if err := gdb.Preload("Category").Where("name = ?", "bug").First(&label).Error; err != nil {
		t.Fatalf("load label: %v", err)
	}
	if label.Category.Name != labelCategory {
		t.Errorf("label category = %q, want %q", label.Category.Name, labelCategory)
	}
}

func TestImport_Idempotent(t *testing.T) {
	gdb := setupDB(t)
	im := &Importer{
		db: gdb,
		issues: &mockLister{pages: [][]*github.Issue{
			{issue(7, "Rotate keys", "")},
		}},
	}

	if _, err := im.Import(context.Background(), "acme", "infra"); err != nil {
		t.Fatalf("Import: %v", err)
	}
	res, err := im.Import(context.Background(), "acme", "infra")
	if err != nil {
		t.Fatalf("Import (second): %v", err)
	}
	if res.Created != 0 || res.Skipped != 1 {
		t.Errorf("result = %+v, want 0 created, 1 skipped", res)
	}

	var count int64
	if err := gdb.Model(&models.Story{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("stories = %d, want 1", count)
	}
}

func TestImport_RequiresRepo(t *testing.T) {
	im := &Importer{db: setupDB(t), issues: &mockLister{}}
	if _, err := im.Import(context.Background(), "", ""); err == nil {
		t.Fatal("expected error for missing owner/repo")
	}
}
