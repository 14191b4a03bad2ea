package web

import (
	"net/http"

	"github.com/askelund/storyrank/internal/backlog"
	"github.com/askelund/storyrank/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type dashboardData struct {
	NeedsScoring    []models.Story
	NeedsRefinement []models.Story
	Rotting         []models.Story
	ReviewRequired  []models.Story
	Housekeeping    map[string]int64
	Cleaned         string
}

// handleDashboard shows the attention lists: unscored stories, unrefined
// stories, stories stuck in planned/started, review flags, and housekeeping.
func handleDashboard(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sections, err := backlog.LoadSections(gdb)
		if err != nil {
			renderError(c, http.StatusInternalServerError, err)
			return
		}

		data := dashboardData{
			Cleaned: c.Query("cleaned"),
		}
		if data.NeedsScoring, err = needsScoring(gdb, sections); err != nil {
			renderError(c, http.StatusInternalServerError, err)
			return
		}
		if data.NeedsRefinement, err = needsRefinement(gdb); err != nil {
			renderError(c, http.StatusInternalServerError, err)
			return
		}
		if data.Rotting, err = rottingStories(gdb); err != nil {
			renderError(c, http.StatusInternalServerError, err)
			return
		}
		if data.ReviewRequired, err = reviewRequired(gdb); err != nil {
			renderError(c, http.StatusInternalServerError, err)
			return
		}
		if data.Housekeeping, err = backlog.HousekeepingCounts(gdb); err != nil {
			renderError(c, http.StatusInternalServerError, err)
			return
		}

		c.HTML(http.StatusOK, "dashboard.html", data)
	}
}

// handleCleanup runs one housekeeping action and redirects back.
func handleCleanup(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		action := c.PostForm("action")
		if _, err := backlog.Cleanup(gdb, action); err != nil {
			renderError(c, http.StatusBadRequest, err)
			return
		}
		c.Redirect(http.StatusSeeOther, "/?cleaned="+action)
	}
}
