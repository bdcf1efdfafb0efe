package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/amirbrooks/tasker-intent-router/internal/store"
)

type handlers struct {
	Deps
}

type invokeRequest struct {
	Input *struct {
		UserInput *string `json:"user_input"`
	} `json:"input"`
	UserInput *string `json:"user_input"`
}

// invoke accepts both the wrapped {"input": {...}} body and the bare one.
func (h *handlers) invoke(c echo.Context) error {
	var req invokeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON body")
	}
	var text *string
	if req.Input != nil && req.Input.UserInput != nil {
		text = req.Input.UserInput
	} else if req.UserInput != nil {
		text = req.UserInput
	}
	if text == nil {
		return badRequest("user_input is required")
	}
	res, err := h.Assistant.HandleCommand(c.Request().Context(), *text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"output": res})
}

func (h *handlers) command(c echo.Context) error {
	var req struct {
		Text *string `json:"text"`
	}
	if err := c.Bind(&req); err != nil || req.Text == nil {
		return badRequest("text is required")
	}
	res, err := h.Assistant.HandleCommand(c.Request().Context(), *req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *handlers) data(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Store.LoadAll(c.Request().Context()))
}

func (h *handlers) listIdeas(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Store.LoadIdeas(c.Request().Context()))
}

func (h *handlers) createIdea(c echo.Context) error {
	var in store.IdeaInput
	if err := c.Bind(&in); err != nil {
		return badRequest("invalid JSON body")
	}
	ctx := c.Request().Context()
	snap := store.Snapshot{Ideas: h.Store.LoadIdeas(ctx)}
	idea, err := snap.AddIdea(in)
	if err != nil {
		return err
	}
	h.Store.SaveIdeas(ctx, snap.Ideas)
	return c.JSON(http.StatusOK, idea)
}

func (h *handlers) updateIdea(c echo.Context) error {
	var p store.IdeaPatch
	if err := c.Bind(&p); err != nil {
		return badRequest("invalid JSON body")
	}
	ctx := c.Request().Context()
	snap := store.Snapshot{Ideas: h.Store.LoadIdeas(ctx)}
	idea, err := snap.UpdateIdea(c.Param("id"), p)
	if err != nil {
		return notFoundAs(err, "Idea not found")
	}
	h.Store.SaveIdeas(ctx, snap.Ideas)
	return c.JSON(http.StatusOK, idea)
}

func (h *handlers) deleteIdea(c echo.Context) error {
	ctx := c.Request().Context()
	snap := store.Snapshot{Ideas: h.Store.LoadIdeas(ctx)}
	if err := snap.DeleteIdea(c.Param("id")); err != nil {
		return notFoundAs(err, "Idea not found")
	}
	h.Store.SaveIdeas(ctx, snap.Ideas)
	return message(c, "Idea deleted")
}

func (h *handlers) promoteIdea(c echo.Context) error {
	ctx := c.Request().Context()
	snap := store.Snapshot{Ideas: h.Store.LoadIdeas(ctx), Tasks: h.Store.LoadTasks(ctx), TaskIDs: h.Store.TaskIDs()}
	t, err := snap.PromoteIdea(c.Param("id"))
	if err != nil {
		return notFoundAs(err, "Idea not found")
	}
	h.Store.SaveTasks(ctx, snap.Tasks)
	h.Store.SaveIdeas(ctx, snap.Ideas)
	return c.JSON(http.StatusOK, t)
}

func (h *handlers) listProjects(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Store.LoadProjects(c.Request().Context()))
}

func (h *handlers) createProject(c echo.Context) error {
	var in store.ProjectInput
	if err := c.Bind(&in); err != nil {
		return badRequest("invalid JSON body")
	}
	ctx := c.Request().Context()
	snap := store.Snapshot{Projects: h.Store.LoadProjects(ctx)}
	p, err := snap.AddProject(in)
	if err != nil {
		return err
	}
	h.Store.SaveProjects(ctx, snap.Projects)
	return c.JSON(http.StatusOK, p)
}

func (h *handlers) updateProject(c echo.Context) error {
	var patch store.ProjectPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest("invalid JSON body")
	}
	ctx := c.Request().Context()
	snap := store.Snapshot{Projects: h.Store.LoadProjects(ctx)}
	p, err := snap.UpdateProject(c.Param("id"), patch)
	if err != nil {
		return notFoundAs(err, "Project not found")
	}
	h.Store.SaveProjects(ctx, snap.Projects)
	return c.JSON(http.StatusOK, p)
}

// deleteProject removes the project and moves its tasks to the inbox.
func (h *handlers) deleteProject(c echo.Context) error {
	ctx := c.Request().Context()
	snap := store.Snapshot{Projects: h.Store.LoadProjects(ctx), Tasks: h.Store.LoadTasks(ctx)}
	moved, err := snap.DeleteProject(c.Param("id"))
	if err != nil {
		return notFoundAs(err, "Project not found")
	}
	h.Store.SaveProjects(ctx, snap.Projects)
	if moved > 0 {
		h.Store.SaveTasks(ctx, snap.Tasks)
	}
	return message(c, "Project deleted")
}

func (h *handlers) projectTasks(c echo.Context) error {
	ctx := c.Request().Context()
	snap := store.Snapshot{Projects: h.Store.LoadProjects(ctx), Tasks: h.Store.LoadTasks(ctx)}
	tasks, err := snap.ProjectTasks(c.Param("id"))
	if err != nil {
		return notFoundAs(err, "Project not found")
	}
	return c.JSON(http.StatusOK, tasks)
}

func (h *handlers) listTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Store.LoadTasks(c.Request().Context()))
}

func (h *handlers) inboxTasks(c echo.Context) error {
	snap := store.Snapshot{Tasks: h.Store.LoadTasks(c.Request().Context())}
	return c.JSON(http.StatusOK, snap.InboxTasks())
}

func (h *handlers) createTask(c echo.Context) error {
	var in store.TaskInput
	if err := c.Bind(&in); err != nil {
		return badRequest("invalid JSON body")
	}
	ctx := c.Request().Context()
	snap := store.Snapshot{Projects: h.Store.LoadProjects(ctx), Tasks: h.Store.LoadTasks(ctx), TaskIDs: h.Store.TaskIDs()}
	t, err := snap.AddTask(in)
	if err != nil {
		return notFoundAs(err, "Project not found")
	}
	h.Store.SaveTasks(ctx, snap.Tasks)
	return c.JSON(http.StatusOK, t)
}

func (h *handlers) updateTask(c echo.Context) error {
	var patch store.TaskPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest("invalid JSON body")
	}
	ctx := c.Request().Context()
	snap := store.Snapshot{Projects: h.Store.LoadProjects(ctx), Tasks: h.Store.LoadTasks(ctx)}
	t, err := snap.UpdateTask(c.Param("id"), patch)
	if err != nil {
		return err
	}
	h.Store.SaveTasks(ctx, snap.Tasks)
	return c.JSON(http.StatusOK, t)
}

// moveTask reads the target from ?project_id=; empty moves the task to the inbox.
func (h *handlers) moveTask(c echo.Context) error {
	var pid *string
	if v := strings.TrimSpace(c.QueryParam("project_id")); v != "" {
		pid = &v
	}
	ctx := c.Request().Context()
	snap := store.Snapshot{Projects: h.Store.LoadProjects(ctx), Tasks: h.Store.LoadTasks(ctx)}
	t, err := snap.MoveTask(c.Param("id"), pid)
	if err != nil {
		return err
	}
	h.Store.SaveTasks(ctx, snap.Tasks)
	return c.JSON(http.StatusOK, t)
}

func (h *handlers) completeTask(c echo.Context) error {
	ctx := c.Request().Context()
	snap := store.Snapshot{Tasks: h.Store.LoadTasks(ctx)}
	t, err := snap.CompleteTask(c.Param("id"))
	if err != nil {
		return notFoundAs(err, "Task not found")
	}
	h.Store.SaveTasks(ctx, snap.Tasks)
	return c.JSON(http.StatusOK, t)
}

func (h *handlers) deleteTask(c echo.Context) error {
	ctx := c.Request().Context()
	snap := store.Snapshot{Tasks: h.Store.LoadTasks(ctx)}
	if err := snap.DeleteTask(c.Param("id")); err != nil {
		return notFoundAs(err, "Task not found")
	}
	h.Store.SaveTasks(ctx, snap.Tasks)
	return message(c, "Task deleted")
}

func (h *handlers) suggestProject(c echo.Context) error {
	var req struct {
		TaskText string `json:"taskText"`
		TaskID   string `json:"taskId"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON body")
	}
	if strings.TrimSpace(req.TaskText) == "" {
		return badRequest("taskText is required")
	}
	ctx := c.Request().Context()
	s := h.Suggester.Suggest(ctx, req.TaskID, req.TaskText, h.Store.LoadProjects(ctx))
	return c.JSON(http.StatusOK, s)
}

func (h *handlers) categorizeInbox(c echo.Context) error {
	ctx := c.Request().Context()
	out := h.Suggester.CategorizeInbox(ctx, h.Store.LoadAll(ctx))
	return c.JSON(http.StatusOK, map[string]any{"suggestions": out})
}

func message(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, map[string]string{"message": msg})
}

// notFoundAs replaces the message of a not-found error with a fixed one.
// Other errors pass through.
func notFoundAs(err error, msg string) error {
	if statusFor(err) == http.StatusNotFound {
		return echo.NewHTTPError(http.StatusNotFound, msg)
	}
	return err
}
