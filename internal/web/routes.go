package web

import (
	"net/http"

	"github.com/askelund/storyrank/internal/notify"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// registerRoutes wires all HTTP handlers onto the router.
func registerRoutes(router *gin.Engine, gdb *gorm.DB, notifiers []notify.Notifier) {
	router.StaticFS("/assets", http.FS(mustSub(assetsFS, "assets")))

	router.GET("/", handleDashboard(gdb))
	router.POST("/cleanup", handleCleanup(gdb))

	router.GET("/epics", handleEpics(gdb))
	router.POST("/epics", handleEpicAction(gdb))
	router.GET("/epics/new", handleEpicNew())
	router.POST("/epics/new", handleEpicCreate(gdb))
	router.GET("/epics/:id", handleEpicEdit(gdb))
	router.POST("/epics/:id", handleEpicUpdate(gdb))

	router.GET("/stories", handleStories(gdb))
	router.GET("/stories/new", handleStoryNew(gdb))
	router.POST("/stories/new", handleStoryCreate(gdb))
	router.GET("/stories/:id", handleStory(gdb))
	router.POST("/stories/:id", handleStoryUpdate(gdb))

	router.GET("/report", handleReport(gdb, true))
	router.GET("/report/hybrid", handleReport(gdb, false))

	router.GET("/kanban", handleKanban(gdb))
	router.POST("/kanban/move", handleKanbanMove(gdb, notifiers))

	router.GET("/ranking", handleRanking(gdb))
	router.POST("/ranking/save", handleRankingSave(gdb))

	router.POST("/labels", handleLabelCreate(gdb))

	router.GET("/health", handleHealth(gdb))
	router.GET("/changelog", handleChangelog())
}
