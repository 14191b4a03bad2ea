// Package web serves the Storyrank UI: dashboard, story refinement, WSJF
// reports, the kanban board, and relative ranking.
package web

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/askelund/storyrank/internal/notify"
	"github.com/askelund/storyrank/internal/scoring"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// StartOpts holds configuration for the web server.
type StartOpts struct {
	DB        *gorm.DB
	Port      int
	Out       io.Writer
	Notifiers []notify.Notifier
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("web: db is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	router, err := newRouter(opts.DB, opts.Notifiers)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Storyrank running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web: %w", err)
	}
	return nil
}

// newRouter builds the gin engine with templates, assets, and all routes.
func newRouter(gdb *gorm.DB, notifiers []notify.Notifier) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("web: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	registerRoutes(router, gdb, notifiers)
	return router, nil
}

// parseTemplates loads the embedded HTML templates.
func parseTemplates() (*template.Template, error) {
	tmpl := template.New("").Funcs(templateFuncs())
	tmpl, err := tmpl.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}

// templateFuncs returns helpers shared by all page templates.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"statuses": func() []scoring.Status { return scoring.AllStatuses },
		"score1":   func(v float64) string { return fmt.Sprintf("%.1f", v) },
		"score2":   func(v float64) string { return fmt.Sprintf("%.2f", v) },
		"deref": func(v *float64) float64 {
			if v == nil {
				return 0
			}
			return *v
		},
		"deref_s": func(v *string) string {
			if v == nil {
				return ""
			}
			return *v
		},
	}
}
