package web

import (
	"net/http"
	"sort"
	"time"

	"github.com/askelund/storyrank/internal/backlog"
	"github.com/askelund/storyrank/internal/notify"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// kanbanColumns fixes the board order left to right.
var kanbanColumns = []string{
	backlog.TargetBacklog,
	backlog.TargetPlanned,
	backlog.TargetDoing,
	backlog.TargetBlocked,
	backlog.TargetDone,
}

type kanbanColumn struct {
	Target string
	Rows   []backlog.StoryReport
}

type kanbanData struct {
	Columns []kanbanColumn
	Sort    string
}

// handleKanban renders the board. Idea stories are not shown: a story earns
// its card by being refined and scored. The sort parameter orders cards
// within each column; the default is descending WSJF result.
func handleKanban(gdb *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, _, err := backlog.Reports(gdb, backlog.ReportOpts{SortByResult: true})
		if err != nil {
			renderError(c, http.StatusInternalServerError, err)
			return
		}

		byTarget := make(map[string][]backlog.StoryReport)
		for _, row := range rows {
			target, ok := backlog.TargetFor(row.Status)
			if !ok {
				continue
			}
			byTarget[target] = append(byTarget[target], row)
		}

		sortKey := c.DefaultQuery("sort", "result")
		data := kanbanData{Sort: sortKey}
		for _, target := range kanbanColumns {
			cards := byTarget[target]
			sortCards(cards, sortKey)
			data.Columns = append(data.Columns, kanbanColumn{Target: target, Rows: cards})
		}
		c.HTML(http.StatusOK, "kanban.html", data)
	}
}

// sortCards orders one column's cards. Reports already sorts by result, so
// that key is a no-op here.
func sortCards(cards []backlog.StoryReport, key string) {
	stamp := func(t *time.Time) int64 {
		if t == nil {
			return 0
		}
		return t.Unix()
	}
	switch key {
	case "title":
		sort.SliceStable(cards, func(i, j int) bool {
			return cards[i].Story.Title < cards[j].Story.Title
		})
	case "planned":
		sort.SliceStable(cards, func(i, j int) bool {
			return stamp(cards[i].Story.Planned) > stamp(cards[j].Story.Planned)
		})
	case "started":
		sort.SliceStable(cards, func(i, j int) bool {
			return stamp(cards[i].Story.Started) > stamp(cards[j].Story.Started)
		})
	case "finished":
		sort.SliceStable(cards, func(i, j int) bool {
			return stamp(cards[i].Story.Finished) > stamp(cards[j].Story.Finished)
		})
	}
}

type moveRequest struct {
	StoryID       uint   `json:"story_id" binding:"required"`
	Target        string `json:"target" binding:"required"`
	BlockedReason string `json:"blocked_reason"`
}

// handleKanbanMove applies a drag between columns and announces the status
// change. Notification failures never fail the move.
func handleKanbanMove(gdb *gorm.DB, notifiers []notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req moveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		story, err := backlog.Get(gdb, req.StoryID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		oldStatus, err := backlog.StatusOf(gdb, story)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		story, err = backlog.Move(gdb, req.StoryID, req.Target, req.BlockedReason)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		newStatus, err := backlog.StatusOf(gdb, story)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if newStatus != oldStatus && len(notifiers) > 0 {
			ev := notify.Event{
				StoryID: story.ID,
				Title:   story.Title,
				Epic:    story.Epic.Title,
				From:    oldStatus,
				To:      newStatus,
				Reason:  story.Blocked,
			}
			if sections, err := backlog.LoadSections(gdb); err == nil {
				if rep, err := storyReport(gdb, sections, story); err == nil {
					ev.Result = rep.Result
				}
			}
			notify.Announce(c.Request.Context(), notifiers, ev)
		}

		c.JSON(http.StatusOK, gin.H{
			"ok":     true,
			"status": newStatus,
			"target": req.Target,
		})
	}
}
