// Package server exposes the command router and the collection CRUD surface
// over HTTP.
//
// Every request loads the collections it needs, mutates them and writes them
// back whole. Concurrent writers race; the last write wins.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/amirbrooks/tasker-intent-router/internal/assistant"
	"github.com/amirbrooks/tasker-intent-router/internal/metrics"
	"github.com/amirbrooks/tasker-intent-router/internal/store"
	"github.com/amirbrooks/tasker-intent-router/internal/suggest"
)

type Deps struct {
	Assistant *assistant.Assistant
	Store     *store.Store
	Suggester *suggest.Suggester
	Logger    *log.Logger
}

// New builds an Echo instance with middleware and every route registered.
func New(d Deps) *echo.Echo {
	if d.Logger == nil {
		d.Logger = log.New()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(d.Logger)
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))
	e.Use(requestLogger(d.Logger))
	Register(e, d)
	return e
}

// Register wires up all routes on the provided Echo instance.
func Register(e *echo.Echo, d Deps) {
	h := &handlers{Deps: d}

	e.GET("/", health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	e.POST("/tasks/invoke", h.invoke)
	e.POST("/command", h.command)
	e.GET("/data", h.data)

	e.GET("/ideas", h.listIdeas)
	e.POST("/ideas", h.createIdea)
	e.PUT("/ideas/:id", h.updateIdea)
	e.DELETE("/ideas/:id", h.deleteIdea)
	e.POST("/ideas/:id/to-task", h.promoteIdea)

	e.GET("/projects", h.listProjects)
	e.POST("/projects", h.createProject)
	e.PUT("/projects/:id", h.updateProject)
	e.DELETE("/projects/:id", h.deleteProject)
	e.GET("/projects/:id/tasks", h.projectTasks)

	e.GET("/tasks", h.listTasks)
	e.GET("/tasks/inbox", h.inboxTasks)
	e.POST("/tasks", h.createTask)
	e.PUT("/tasks/:id", h.updateTask)
	e.PUT("/tasks/:id/move", h.moveTask)
	e.PUT("/tasks/:id/complete", h.completeTask)
	e.DELETE("/tasks/:id", h.deleteTask)

	e.POST("/ai/suggest-project", h.suggestProject)
	e.POST("/ai/categorize-inbox", h.categorizeInbox)
}

func health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "running"})
}

// requestLogger records each request in the logs and the HTTP metrics. The
// route label is the registered path, not the raw URL.
func requestLogger(logger *log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := c.Response().Status
			d := time.Since(start)
			metrics.HTTPRequests.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Inc()
			metrics.HTTPDuration.WithLabelValues(c.Request().Method, route).Observe(d.Seconds())
			logger.WithFields(log.Fields{
				"method":   c.Request().Method,
				"route":    route,
				"status":   status,
				"duration": d.String(),
			}).Debug("http request")
			return nil
		}
	}
}
