package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/askelund/storyrank/internal/db"
	"github.com/askelund/storyrank/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// handleLabelCreate creates a label under a category, creating the category
// when it does not exist yet, and redirects back to the referring page.
func handleLabelCreate(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryName := strings.TrimSpace(c.PostForm("category"))
		labelName := strings.TrimSpace(c.PostForm("name"))
		if categoryName == "" || labelName == "" {
			renderError(c, http.StatusBadRequest, fmt.Errorf("category and name are required"))
			return
		}

		category := models.LabelCategory{Name: categoryName}
		if err := gdb.Where(models.LabelCategory{Name: categoryName}).
			FirstOrCreate(&category).Error; err != nil {
			renderError(c, http.StatusInternalServerError, fmt.Errorf("backlog: create category: %w", err))
			return
		}
		label := models.Label{CategoryID: category.ID, Name: labelName}
		if err := gdb.Where(models.Label{CategoryID: category.ID, Name: labelName}).
			FirstOrCreate(&label).Error; err != nil {
			renderError(c, http.StatusInternalServerError, fmt.Errorf("backlog: create label: %w", err))
			return
		}

		back := c.Request.Referer()
		if back == "" {
			back = "/stories"
		}
		c.Redirect(http.StatusSeeOther, back)
	}
}

// handleHealth reports liveness, including a database ping.
func handleHealth(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(gdb); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// changelogEntry is one released version on the changelog page.
type changelogEntry struct {
	Version string
	Date    string
	Notes   []string
}

var changelog = []changelogEntry{
	{
		Version: "1.1.0",
		Date:    "2026-08-21",
		Notes: []string{
			"Relative ranking mode per factor with a drag-order ranking page.",
			"Hybrid report honoring per-factor modes.",
			"What-if score tweaks on the report.",
		},
	},
	{
		Version: "1.0.0",
		Date:    "2026-05-02",
		Notes: []string{
			"WSJF report over configurable value and cost factors.",
			"Kanban board with derived statuses and chat notifications.",
			"GitHub issue import.",
		},
	},
}

func handleChangelog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "changelog.html", gin.H{"Entries": changelog})
	}
}

// renderError shows the error page. The wrapped chain is shown as-is; the
// UI is for the team running the backlog, not end users.
func renderError(c *gin.Context, status int, err error) {
	c.HTML(status, "error.html", gin.H{"Error": err.Error(), "Status": status})
}
