package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/socialdesk/core/internal/domain/entities"
	"github.com/socialdesk/core/internal/domain/scheduling"
	"github.com/socialdesk/core/internal/infrastructure/logger"
	"github.com/socialdesk/core/internal/ports"
)

// PostHandler handles content scheduling requests
type PostHandler struct {
	postService ports.PostService
	logger      *logger.Logger
	allowPast   bool
	clock       func() time.Time
}

// NewPostHandler creates a new post handler. Unless allowPast is set,
// schedule requests must resolve to a future time.
func NewPostHandler(postService ports.PostService, logger *logger.Logger, allowPast bool) *PostHandler {
	return &PostHandler{
		postService: postService,
		logger:      logger,
		allowPast:   allowPast,
		clock:       utcNow,
	}
}

// Register mounts the post routes on g
func (h *PostHandler) Register(g *echo.Group) {
	g.GET("", h.ListPosts)
	g.POST("", h.CreatePost)
	g.GET("/:id", h.GetPost)
	g.PATCH("/:id", h.UpdatePost)
	g.DELETE("/:id", h.DeletePost)
	g.POST("/:id/transition", h.Transition)
	g.POST("/:id/submit", h.Submit)
	g.POST("/:id/return", h.ReturnToDraft)
	g.POST("/:id/schedule", h.Schedule)
	g.POST("/:id/sent", h.MarkSent)
	g.POST("/:id/failed", h.MarkFailed)
}

// CreatePost handles post creation
func (h *PostHandler) CreatePost(c echo.Context) error {
	var req ports.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.postService.CreatePost(c.Request().Context(), req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, post)
}

// GetPost handles fetching one post
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.postService.GetPost(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, post)
}

// ListPosts lists posts, optionally filtered by status
func (h *PostHandler) ListPosts(c echo.Context) error {
	ctx := c.Request().Context()

	var (
		posts []entities.Post
		err   error
	)
	if status := c.QueryParam("status"); status != "" {
		ps := entities.PostStatus(status)
		if !ps.IsValid() {
			return toHTTPError(entities.NewValidationError("status", entities.CodeStatusInvalid))
		}
		posts, err = h.postService.GetByStatus(ctx, ps)
	} else {
		posts, err = h.postService.ListPosts(ctx)
	}
	if err != nil {
		return toHTTPError(err)
	}
	return list(c, posts)
}

// UpdatePost handles content edits
func (h *PostHandler) UpdatePost(c echo.Context) error {
	var patch entities.PostPatch
	if err := bindPatch(c, &patch); err != nil {
		return err
	}

	post, err := h.postService.UpdatePost(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, post)
}

// DeletePost handles post deletion
func (h *PostHandler) DeletePost(c echo.Context) error {
	ok, err := h.postService.DeletePost(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return deleted(c, ok, "post")
}

// Transition applies a user status change
func (h *PostHandler) Transition(c echo.Context) error {
	var req ports.TransitionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.postService.Transition(c.Request().Context(), c.Param("id"), entities.PostStatus(req.Status))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, post)
}

// Submit sends a draft for approval
func (h *PostHandler) Submit(c echo.Context) error {
	post, err := h.postService.SubmitForApproval(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, post)
}

// ReturnToDraft sends a post back to draft
func (h *PostHandler) ReturnToDraft(c echo.Context) error {
	post, err := h.postService.ReturnToDraft(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, post)
}

// Schedule resolves the requested time and schedules the post
func (h *PostHandler) Schedule(c echo.Context) error {
	var req ports.ScheduleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	now := h.clock()
	when, err := req.Resolve(now)
	if err != nil {
		return toHTTPError(err)
	}
	if !h.allowPast {
		if err := scheduling.RequireFuture(now, when); err != nil {
			return toHTTPError(err)
		}
	}

	post, err := h.postService.SchedulePost(c.Request().Context(), c.Param("id"), when)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, post)
}

// MarkSent records the platform's send confirmation
func (h *PostHandler) MarkSent(c echo.Context) error {
	var req ports.MarkSentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.postService.MarkSent(c.Request().Context(), c.Param("id"), req.PlatformIDs)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, post)
}

// MarkFailed records a failed send
func (h *PostHandler) MarkFailed(c echo.Context) error {
	var req ports.MarkFailedRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.postService.MarkFailed(c.Request().Context(), c.Param("id"), req.Reason)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, post)
}

func utcNow() time.Time { return time.Now().UTC() }

// ScheduleHandler exposes the preset resolver
type ScheduleHandler struct {
	clock func() time.Time
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler() *ScheduleHandler {
	return &ScheduleHandler{clock: utcNow}
}

// Register mounts the schedule routes on g
func (h *ScheduleHandler) Register(g *echo.Group) {
	g.POST("/resolve", h.Resolve)
}

// Resolve returns the send time a preset or date/time selection yields
func (h *ScheduleHandler) Resolve(c echo.Context) error {
	var req ports.ScheduleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	when, err := req.Resolve(h.clock())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]time.Time{"scheduledFor": when})
}
