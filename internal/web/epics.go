package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/askelund/storyrank/internal/backlog"
	"github.com/askelund/storyrank/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type epicsData struct {
	Epics        []backlog.EpicSummary
	ShowArchived bool
}

// handleEpics renders the epics overview: active epics by default, archived
// ones behind the toggle.
func handleEpics(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		showArchived := c.Query("archived") == "1"
		epics, err := backlog.Epics(gdb, showArchived)
		if err != nil {
			renderError(c, http.StatusInternalServerError, err)
			return
		}
		c.HTML(http.StatusOK, "epics.html", epicsData{
			Epics:        epics,
			ShowArchived: showArchived,
		})
	}
}

// handleEpicAction applies one overview action: archive (cascading to the
// epic's stories), unarchive (stories stay archived), or delete.
func handleEpicAction(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := formID(c, "epic_id")
		if err != nil {
			renderError(c, http.StatusBadRequest, err)
			return
		}

		switch action := c.PostForm("action"); action {
		case "archive":
			err = backlog.ArchiveEpic(gdb, id)
		case "unarchive":
			err = backlog.UnarchiveEpic(gdb, id)
		case "delete":
			err = backlog.DeleteEpic(gdb, id)
		default:
			err = fmt.Errorf("unknown action %q", action)
		}
		if err != nil {
			renderError(c, http.StatusBadRequest, err)
			return
		}

		back := "/epics"
		if c.PostForm("archived") == "1" {
			back = "/epics?archived=1"
		}
		c.Redirect(http.StatusSeeOther, back)
	}
}

// handleEpicNew renders the creation form.
func handleEpicNew() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "epic_new.html", nil)
	}
}

// handleEpicCreate creates an epic and redirects to the overview.
func handleEpicCreate(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, err := backlog.CreateEpic(gdb, c.PostForm("title"), c.PostForm("description"))
		if err != nil {
			renderError(c, http.StatusBadRequest, err)
			return
		}
		c.Redirect(http.StatusSeeOther, "/epics")
	}
}

type epicEditData struct {
	Epic *models.Epic
}

// handleEpicEdit renders the edit form with current values.
func handleEpicEdit(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := epicID(c)
		if err != nil {
			renderError(c, http.StatusBadRequest, err)
			return
		}
		epic, err := backlog.GetEpic(gdb, id)
		if err != nil {
			renderError(c, http.StatusNotFound, err)
			return
		}
		c.HTML(http.StatusOK, "epic_edit.html", epicEditData{Epic: epic})
	}
}

// handleEpicUpdate saves the edit form and redirects to the overview.
func handleEpicUpdate(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := epicID(c)
		if err != nil {
			renderError(c, http.StatusBadRequest, err)
			return
		}
		if _, err := backlog.UpdateEpic(gdb, id, c.PostForm("title"), c.PostForm("description")); err != nil {
			renderError(c, http.StatusBadRequest, err)
			return
		}
		c.Redirect(http.StatusSeeOther, "/epics")
	}
}

func epicID(c *gin.Context) (uint, error) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid epic id %q", raw)
	}
	return uint(id), nil
}
