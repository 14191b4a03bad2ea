package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/askelund/storyrank/internal/backlog"
	"github.com/askelund/storyrank/internal/config"
	"github.com/askelund/storyrank/internal/db"
	"github.com/askelund/storyrank/internal/models"
	"github.com/askelund/storyrank/internal/notify"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// setupRouter opens a fresh sqlite database, migrates it, and builds the
// full router against it.
func setupRouter(t *testing.T, notifiers ...notify.Notifier) (*gin.Engine, *gorm.DB) {
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
	router, err := newRouter(gdb, notifiers)
	if err != nil {
		t.Fatalf("newRouter: %v", err)
	}
	return router, gdb
}

// seedConfig installs one value section with an absolute factor and one cost
// section with an absolute factor, each on a 1/3/5 scale.
func seedConfig(t *testing.T, gdb *gorm.DB) (valFactor, costFactor models.Factor) {
	t.Helper()
	mk := func(sectionName, kind, factorName, mode string) models.Factor {
		s := models.Section{Name: sectionName, Kind: kind}
		if err := gdb.Create(&s).Error; err != nil {
			t.Fatalf("create section %s: %v", sectionName, err)
		}
		f := models.Factor{SectionID: s.ID, Name: factorName, Mode: mode}
		if err := gdb.Create(&f).Error; err != nil {
			t.Fatalf("create factor %s: %v", factorName, err)
		}
		for _, score := range []int{1, 3, 5} {
			a := models.Answer{FactorID: f.ID, Score: score}
			if err := gdb.Create(&a).Error; err != nil {
				t.Fatalf("create answer %d: %v", score, err)
			}
		}
		return f
	}
	valFactor = mk("Value", "value", "Impact", "absolute")
	costFactor = mk("Cost", "cost", "Effort", "absolute")
	return valFactor, costFactor
}

func createStory(t *testing.T, gdb *gorm.DB, title string) *models.Story {
	t.Helper()
	story, err := backlog.Create(gdb, backlog.CreateOpts{
		EpicTitle: "Platform",
		Title:     title,
		Goal:      "Ship it",
		Workitems: "- build\n- test",
	})
	if err != nil {
		t.Fatalf("Create %q: %v", title, err)
	}
	return story
}

// answerWithScore returns the factor's answer carrying the given score.
func answerWithScore(t *testing.T, gdb *gorm.DB, factorID uint, score int) models.Answer {
	t.Helper()
	var a models.Answer
	if err := gdb.Where("factor_id = ? AND score = ?", factorID, score).First(&a).Error; err != nil {
		t.Fatalf("answer score=%d for factor %d: %v", score, factorID, err)
	}
	return a
}

func get(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func postForm(t *testing.T, router *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestDashboard_ListsUnscoredStories(t *testing.T) {
	router, gdb := setupRouter(t)
	seedConfig(t, gdb)
	createStory(t, gdb, "Checkout revamp")

	rec := get(t, router, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /: status %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Checkout revamp") {
		t.Error("unscored story missing from dashboard")
	}
}

func TestCleanup_RemovesOrphanScores(t *testing.T) {
	router, gdb := setupRouter(t)
	valFactor, _ := seedConfig(t, gdb)

	orphan := models.FactorScore{StoryID: 9999, FactorID: valFactor.ID}
	if err := gdb.Create(&orphan).Error; err != nil {
		t.Fatalf("create orphan: %v", err)
	}

	rec := postForm(t, router, "/cleanup", url.Values{"action": {backlog.CleanupOrphanScores}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("POST /cleanup: status %d, body %s", rec.Code, rec.Body.String())
	}

	var left int64
	gdb.Model(&models.FactorScore{}).Where("story_id = ?", 9999).Count(&left)
	if left != 0 {
		t.Errorf("orphan score row still present")
	}
}

func TestStoryCreateAndRefine(t *testing.T) {
	router, gdb := setupRouter(t)
	valFactor, _ := seedConfig(t, gdb)

	rec := postForm(t, router, "/stories/new", url.Values{
		"title":      {"Login rework"},
		"epic_title": {"Auth"},
		"goal":       {"Passwordless"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("create: status %d, body %s", rec.Code, rec.Body.String())
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/stories/") {
		t.Fatalf("create redirected to %q", loc)
	}

	var story models.Story
	if err := gdb.Where("title = ?", "Login rework").First(&story).Error; err != nil {
		t.Fatalf("created story not found: %v", err)
	}

	answer := answerWithScore(t, gdb, valFactor.ID, 5)
	rec = postForm(t, router, loc, url.Values{
		"action":    {"save"},
		"title":     {"Login rework"},
		"goal":      {"Passwordless"},
		"workitems": {"- magic links"},
		"blocked":   {""},
		fmt.Sprintf("a%d", valFactor.ID): {fmt.Sprintf("%d", answer.ID)},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("save: status %d, body %s", rec.Code, rec.Body.String())
	}

	var score models.FactorScore
	err := gdb.Where("story_id = ? AND factor_id = ?", story.ID, valFactor.ID).First(&score).Error
	if err != nil {
		t.Fatalf("load score: %v", err)
	}
	if score.AnswerID == nil || *score.AnswerID != answer.ID {
		t.Errorf("answer not saved: got %v, want %d", score.AnswerID, answer.ID)
	}
}

func TestStory_UnknownIDIs404(t *testing.T) {
	router, gdb := setupRouter(t)
	seedConfig(t, gdb)

	rec := get(t, router, "/stories/424242")
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /stories/424242: status %d, want 404", rec.Code)
	}
}

func TestReport_OrdersByResult(t *testing.T) {
	router, gdb := setupRouter(t)
	valFactor, costFactor := seedConfig(t, gdb)

	hot := createStory(t, gdb, "Hot story")
	cold := createStory(t, gdb, "Cold story")

	set := func(storyID, factorID uint, score int) {
		a := answerWithScore(t, gdb, factorID, score)
		if err := backlog.SetAnswer(gdb, storyID, factorID, &a.ID); err != nil {
			t.Fatalf("SetAnswer: %v", err)
		}
	}
	set(hot.ID, valFactor.ID, 5)
	set(hot.ID, costFactor.ID, 1)
	set(cold.ID, valFactor.ID, 1)
	set(cold.ID, costFactor.ID, 5)

	rec := get(t, router, "/report")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /report: status %d, body %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "5.00") {
		t.Error("result 5.00 for the hot story missing")
	}
	if strings.Index(body, "Hot story") > strings.Index(body, "Cold story") {
		t.Error("hot story should rank above cold story")
	}
}

func TestReport_TweakOverridesScore(t *testing.T) {
	router, gdb := setupRouter(t)
	valFactor, costFactor := seedConfig(t, gdb)

	story := createStory(t, gdb, "Tweakable")
	set := func(factorID uint, score int) {
		a := answerWithScore(t, gdb, factorID, score)
		if err := backlog.SetAnswer(gdb, story.ID, factorID, &a.ID); err != nil {
			t.Fatalf("SetAnswer: %v", err)
		}
	}
	set(valFactor.ID, 1)
	set(costFactor.ID, 1)

	rec := get(t, router, fmt.Sprintf("/report?tweak=%d:5", valFactor.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /report: status %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "5.00") {
		t.Error("tweaked result 5.00 missing from report")
	}

	rec = get(t, router, "/report?tweak=bogus")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bogus tweak: status %d, want 400", rec.Code)
	}
}

// recordingNotifier captures announced events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recordingNotifier) Send(_ context.Context, ev notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingNotifier) SendDigest(context.Context, *notify.Digest) error { return nil }
func (r *recordingNotifier) Close() error                                     { return nil }

func TestKanbanMove_StampsAndNotifies(t *testing.T) {
	rec := &recordingNotifier{}
	router, gdb := setupRouter(t, rec)
	valFactor, costFactor := seedConfig(t, gdb)

	story := createStory(t, gdb, "Board story")
	for _, factorID := range []uint{valFactor.ID, costFactor.ID} {
		a := answerWithScore(t, gdb, factorID, 3)
		if err := backlog.SetAnswer(gdb, story.ID, factorID, &a.ID); err != nil {
			t.Fatalf("SetAnswer: %v", err)
		}
	}

	res := postJSON(t, router, "/kanban/move", map[string]interface{}{
		"story_id": story.ID,
		"target":   "doing",
	})
	if res.Code != http.StatusOK {
		t.Fatalf("move: status %d, body %s", res.Code, res.Body.String())
	}

	var moved models.Story
	if err := gdb.First(&moved, story.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if moved.Started == nil {
		t.Error("move to doing did not stamp started")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.events) != 1 {
		t.Fatalf("got %d events, want 1", len(rec.events))
	}
	if rec.events[0].To != "started" {
		t.Errorf("event To = %q, want started", rec.events[0].To)
	}
}

func TestKanbanMove_InvalidTarget(t *testing.T) {
	router, gdb := setupRouter(t)
	seedConfig(t, gdb)
	story := createStory(t, gdb, "Board story")

	res := postJSON(t, router, "/kanban/move", map[string]interface{}{
		"story_id": story.ID,
		"target":   "limbo",
	})
	if res.Code != http.StatusBadRequest {
		t.Errorf("invalid target: status %d, want 400", res.Code)
	}
}

func TestRankingSave_PersistsOrder(t *testing.T) {
	router, gdb := setupRouter(t)
	seedConfig(t, gdb)

	rel := models.Factor{Name: "Urgency", Mode: "relative"}
	var valueSection models.Section
	if err := gdb.Where("kind = ?", "value").First(&valueSection).Error; err != nil {
		t.Fatalf("value section: %v", err)
	}
	rel.SectionID = valueSection.ID
	if err := gdb.Create(&rel).Error; err != nil {
		t.Fatalf("create relative factor: %v", err)
	}

	first := createStory(t, gdb, "First")
	second := createStory(t, gdb, "Second")
	skipped := createStory(t, gdb, "Skipped")

	res := postJSON(t, router, "/ranking/save", map[string]interface{}{
		"factor_id": rel.ID,
		"ranked":    []uint{second.ID, first.ID},
		"no_score":  []uint{skipped.ID},
	})
	if res.Code != http.StatusOK {
		t.Fatalf("save: status %d, body %s", res.Code, res.Body.String())
	}

	rank := func(storyID uint) int {
		var score models.FactorScore
		err := gdb.Where("story_id = ? AND factor_id = ?", storyID, rel.ID).First(&score).Error
		if err != nil {
			t.Fatalf("score for story %d: %v", storyID, err)
		}
		if score.Rank == nil {
			t.Fatalf("story %d has no rank", storyID)
		}
		return *score.Rank
	}
	if got := rank(second.ID); got != 1 {
		t.Errorf("second rank = %d, want 1", got)
	}
	if got := rank(first.ID); got != 2 {
		t.Errorf("first rank = %d, want 2", got)
	}
	if got := rank(skipped.ID); got != 0 {
		t.Errorf("skipped rank = %d, want 0", got)
	}

	page := get(t, router, fmt.Sprintf("/ranking?factor=%d", rel.ID))
	if page.Code != http.StatusOK {
		t.Fatalf("GET /ranking: status %d, body %s", page.Code, page.Body.String())
	}
	if !strings.Contains(page.Body.String(), "Skipped") {
		t.Error("no-score story missing from ranking page")
	}
}

func TestLabels_CreateIsIdempotent(t *testing.T) {
	router, gdb := setupRouter(t)
	seedConfig(t, gdb)

	form := url.Values{"category": {"Team"}, "name": {"payments"}}
	for i := 0; i < 2; i++ {
		rec := postForm(t, router, "/labels", form)
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("POST /labels: status %d, body %s", rec.Code, rec.Body.String())
		}
	}

	var count int64
	gdb.Model(&models.Label{}).Where("name = ?", "payments").Count(&count)
	if count != 1 {
		t.Errorf("got %d payments labels, want 1", count)
	}
}

func TestEpics_ArchiveCascadesAndHidesFromPickers(t *testing.T) {
	router, gdb := setupRouter(t)
	seedConfig(t, gdb)
	story := createStory(t, gdb, "Board story")

	rec := get(t, router, "/epics")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /epics: status %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Platform") {
		t.Fatal("active epic missing from overview")
	}

	rec = postForm(t, router, "/epics", url.Values{
		"action":  {"archive"},
		"epic_id": {fmt.Sprintf("%d", story.EpicID)},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("archive: status %d, body %s", rec.Code, rec.Body.String())
	}

	var archived models.Story
	if err := gdb.First(&archived, story.ID).Error; err != nil {
		t.Fatalf("reload story: %v", err)
	}
	if !archived.Archived {
		t.Error("archiving the epic should archive its stories")
	}

	rec = get(t, router, "/epics")
	if strings.Contains(rec.Body.String(), "Platform") {
		t.Error("archived epic still on the active overview")
	}
	rec = get(t, router, "/epics?archived=1")
	if !strings.Contains(rec.Body.String(), "Platform") {
		t.Error("archived epic missing from the archived view")
	}

	rec = get(t, router, "/stories/new")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /stories/new: status %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "Platform") {
		t.Error("archived epic still offered in the story form")
	}
}

func TestEpicCreateAndEdit(t *testing.T) {
	router, gdb := setupRouter(t)
	seedConfig(t, gdb)

	rec := postForm(t, router, "/epics/new", url.Values{
		"title":       {"Payments"},
		"description": {"Billing rework"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("create: status %d, body %s", rec.Code, rec.Body.String())
	}
	var epic models.Epic
	if err := gdb.Where("title = ?", "Payments").First(&epic).Error; err != nil {
		t.Fatalf("created epic not found: %v", err)
	}

	rec = get(t, router, fmt.Sprintf("/epics/%d", epic.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET edit form: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = postForm(t, router, fmt.Sprintf("/epics/%d", epic.ID), url.Values{
		"title":       {"Payments v2"},
		"description": {"Billing rework, phase two"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("update: status %d, body %s", rec.Code, rec.Body.String())
	}
	if err := gdb.First(&epic, epic.ID).Error; err != nil {
		t.Fatalf("reload epic: %v", err)
	}
	if epic.Title != "Payments v2" {
		t.Errorf("title = %q, want %q", epic.Title, "Payments v2")
	}

	rec = postForm(t, router, "/epics", url.Values{
		"action":  {"bogus"},
		"epic_id": {fmt.Sprintf("%d", epic.ID)},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bogus action: status %d, want 400", rec.Code)
	}
}

func TestPagesRender(t *testing.T) {
	router, gdb := setupRouter(t)
	seedConfig(t, gdb)
	story := createStory(t, gdb, "Smoke story")

	for _, path := range []string{
		"/stories",
		fmt.Sprintf("/stories/%d", story.ID),
		"/kanban",
		"/report/hybrid",
	} {
		rec := get(t, router, path)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: status %d, body %s", path, rec.Code, rec.Body.String())
		}
	}
}

func TestHealth(t *testing.T) {
	router, _ := setupRouter(t)
	rec := get(t, router, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health: status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Errorf("body %q lacks ok", rec.Body.String())
	}
}

func TestChangelogAndAssets(t *testing.T) {
	router, _ := setupRouter(t)

	rec := get(t, router, "/changelog")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /changelog: status %d", rec.Code)
	}

	rec = get(t, router, "/assets/style.css")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /assets/style.css: status %d", rec.Code)
	}
}
