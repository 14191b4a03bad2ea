package web

import (
	"net/http"

	"github.com/askelund/storyrank/internal/backlog"
	"github.com/askelund/storyrank/internal/models"
	"github.com/askelund/storyrank/internal/scoring"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type reportData struct {
	Rows     []backlog.StoryReport
	Sections []scoring.Section
	Epics    []models.Epic
	Labels   []models.Label
	Hybrid   bool

	// Sticky filter values.
	Epic   string
	Status string
	Tweak  string
}

// handleReport renders the WSJF report. forceAbsolute selects the classic
// report; the hybrid variant honors each factor's configured mode.
func handleReport(gdb *gorm.DB, forceAbsolute bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		opts, err := reportOptsFromQuery(c, forceAbsolute)
		if err != nil {
			renderError(c, http.StatusBadRequest, err)
			return
		}
		rows, sections, err := backlog.Reports(gdb, opts)
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

		c.HTML(http.StatusOK, "report.html", reportData{
			Rows:     rows,
			Sections: sections,
			Epics:    epics,
			Labels:   labels,
			Hybrid:   !forceAbsolute,
			Epic:     c.Query("epic"),
			Status:   c.Query("status"),
			Tweak:    c.Query("tweak"),
		})
	}
}
