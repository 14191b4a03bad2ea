package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/askelund/storyrank/internal/backlog"
	"github.com/askelund/storyrank/internal/models"
	"github.com/askelund/storyrank/internal/scoring"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type storiesData struct {
	Rows   []backlog.StoryReport
	Epics  []models.Epic
	Labels []models.Label
	Epic   string
	Status string
}

// handleStories lists stories with their derived status and WSJF result.
func handleStories(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		opts, err := reportOptsFromQuery(c, false)
		if err != nil {
			renderError(c, http.StatusBadRequest, err)
			return
		}
		opts.SortByResult = false

		rows, _, err := backlog.Reports(gdb, opts)
		if err != nil {
			renderError(c, http.StatusInternalServerError, err)
			return
		}
		epics, err := allEpics(gdb)
		if err != nil {
			renderError(c, http.StatusInternalServerError, err)
			return
		}
		labels, err := allLabels(gdb)
		if err != nil {
			renderError(c, http.StatusInternalServerError, err)
			return
		}

		c.HTML(http.StatusOK, "stories.html", storiesData{
			Rows:   rows,
			Epics:  epics,
			Labels: labels,
			Epic:   c.Query("epic"),
			Status: c.Query("status"),
		})
	}
}

type storyFormData struct {
	Epics  []models.Epic
	Labels []models.Label
}

// handleStoryNew renders the creation form.
func handleStoryNew(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		epics, err := allEpics(gdb)
		if err != nil {
			renderError(c, http.StatusInternalServerError, err)
			return
		}
		labels, err := allLabels(gdb)
		if err != nil {
			renderError(c, http.StatusInternalServerError, err)
			return
		}
		c.HTML(http.StatusOK, "story_new.html", storyFormData{Epics: epics, Labels: labels})
	}
}

// handleStoryCreate creates a story from the form and redirects to its
// refine page.
func handleStoryCreate(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		opts := backlog.CreateOpts{
			Title:     c.PostForm("title"),
			EpicTitle: c.PostForm("epic_title"),
			Goal:      c.PostForm("goal"),
			Workitems: c.PostForm("workitems"),
		}
		if raw := c.PostForm("epic_id"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				renderError(c, http.StatusBadRequest, fmt.Errorf("invalid epic %q", raw))
				return
			}
			opts.EpicID = uint(id)
		}
		for _, raw := range c.PostFormArray("labels") {
			id, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				renderError(c, http.StatusBadRequest, fmt.Errorf("invalid label %q", raw))
				return
			}
			opts.LabelIDs = append(opts.LabelIDs, uint(id))
		}

		story, err := backlog.Create(gdb, opts)
		if err != nil {
			renderError(c, http.StatusBadRequest, err)
			return
		}
		c.Redirect(http.StatusSeeOther, fmt.Sprintf("/stories/%d", story.ID))
	}
}

type storyData struct {
	Story    *models.Story
	Status   scoring.Status
	Report   scoring.Report
	Sections []scoring.Section
	Epics    []models.Epic
	Labels   []models.Label
	Others   []models.Story
	History  []models.StoryHistory

	// AnswerFor maps factor ID to the story's current answer ID (0 when
	// undefined), for preselecting the score dropdowns.
	AnswerFor map[uint]uint
	RankFor   map[uint]*int
}

// handleStory renders the refine page: editable fields, factor answers,
// dependencies, score breakdown, and history.
func handleStory(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := storyID(c)
		if err != nil {
			renderError(c, http.StatusBadRequest, err)
			return
		}
		story, err := backlog.Get(gdb, id)
		if err != nil {
			renderError(c, http.StatusNotFound, err)
			return
		}

		data := storyData{
			Story:     story,
			AnswerFor: make(map[uint]uint),
			RankFor:   make(map[uint]*int),
		}
		for _, fs := range story.Scores {
			if fs.AnswerID != nil {
				data.AnswerFor[fs.FactorID] = *fs.AnswerID
			}
			data.RankFor[fs.FactorID] = fs.Rank
		}

		if data.Sections, err = backlog.LoadSections(gdb); err != nil {
			renderError(c, http.StatusInternalServerError, err)
			return
		}
		if data.Status, err = backlog.StatusOf(gdb, story); err != nil {
			renderError(c, http.StatusInternalServerError, err)
			return
		}
		if data.Report, err = storyReport(gdb, data.Sections, story); err != nil {
			renderError(c, http.StatusInternalServerError, err)
			return
		}
		if data.Epics, err = allEpics(gdb); err != nil {
			renderError(c, http.StatusInternalServerError, err)
			return
		}
		if data.Labels, err = allLabels(gdb); err != nil {
			renderError(c, http.StatusInternalServerError, err)
			return
		}
		if data.Others, err = backlog.List(gdb, backlog.ListFilters{}); err != nil {
			renderError(c, http.StatusInternalServerError, err)
			return
		}
		if data.History, err = backlog.History(gdb, story.ID); err != nil {
			renderError(c, http.StatusInternalServerError, err)
			return
		}

		c.HTML(http.StatusOK, "story.html", data)
	}
}

// handleStoryUpdate applies one refine action and redirects back to the
// story page.
func handleStoryUpdate(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := storyID(c)
		if err != nil {
			renderError(c, http.StatusBadRequest, err)
			return
		}

		switch action := c.PostForm("action"); action {
		case "save":
			err = saveStoryForm(gdb, c, id)
		case "add_dependency":
			var dep uint
			if dep, err = formID(c, "depends_on"); err == nil {
				err = backlog.AddDependency(gdb, id, dep)
			}
		case "remove_dependency":
			var dep uint
			if dep, err = formID(c, "depends_on"); err == nil {
				err = backlog.RemoveDependency(gdb, id, dep)
			}
		default:
			err = fmt.Errorf("unknown action %q", action)
		}
		if err != nil {
			renderError(c, http.StatusBadRequest, err)
			return
		}
		c.Redirect(http.StatusSeeOther, fmt.Sprintf("/stories/%d", id))
	}
}

// saveStoryForm updates the story fields and every factor answer submitted
// with the form. Answer selects are named a<factorID>; an empty value resets
// the score to undefined.
func saveStoryForm(gdb *gorm.DB, c *gin.Context, id uint) error {
	title := c.PostForm("title")
	goal := c.PostForm("goal")
	workitems := c.PostForm("workitems")
	blocked := c.PostForm("blocked")
	review := c.PostForm("review_required") != ""
	archived := c.PostForm("archived") != ""

	opts := backlog.UpdateOpts{
		Title:          &title,
		Goal:           &goal,
		Workitems:      &workitems,
		Blocked:        &blocked,
		ReviewRequired: &review,
		Archived:       &archived,
	}
	if raw := c.PostForm("epic_id"); raw != "" {
		epicID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid epic %q", raw)
		}
		e := uint(epicID)
		opts.EpicID = &e
	}
	if _, err := backlog.Update(gdb, id, opts); err != nil {
		return err
	}

	sections, err := backlog.LoadSections(gdb)
	if err != nil {
		return err
	}
	for _, section := range sections {
		for _, factor := range section.Factors {
			field := fmt.Sprintf("a%d", factor.ID)
			raw, ok := c.GetPostForm(field)
			if !ok {
				continue
			}
			var answerID *uint
			if raw != "" {
				v, err := strconv.ParseUint(raw, 10, 32)
				if err != nil {
					return fmt.Errorf("invalid answer %q for %s", raw, factor.Name)
				}
				a := uint(v)
				answerID = &a
			}
			if err := backlog.SetAnswer(gdb, id, factor.ID, answerID); err != nil {
				return err
			}
		}
	}
	return nil
}

// storyReport computes one story's WSJF report, normalizing ranks against
// the whole active backlog.
func storyReport(gdb *gorm.DB, sections []scoring.Section, story *models.Story) (scoring.Report, error) {
	stories, err := backlog.List(gdb, backlog.ListFilters{})
	if err != nil {
		return scoring.Report{}, err
	}
	ids := make([]uint, len(stories))
	for i, s := range stories {
		ids[i] = s.ID
	}
	counts, err := backlog.RankedCounts(gdb, ids)
	if err != nil {
		return scoring.Report{}, err
	}
	return scoring.Compute(scoring.Input{
		Sections:     sections,
		Scores:       backlog.ScoreRows(story),
		RankedCounts: counts,
	})
}

func storyID(c *gin.Context) (uint, error) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid story id %q", raw)
	}
	return uint(id), nil
}

func formID(c *gin.Context, field string) (uint, error) {
	raw := c.PostForm(field)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", field, raw)
	}
	return uint(id), nil
}
