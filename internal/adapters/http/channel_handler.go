package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/socialdesk/core/internal/domain/entities"
	"github.com/socialdesk/core/internal/infrastructure/logger"
	"github.com/socialdesk/core/internal/ports"
)

// ChannelHandler handles connected channel requests
type ChannelHandler struct {
	channelService ports.ChannelService
	logger         *logger.Logger
}

// NewChannelHandler creates a new channel handler
func NewChannelHandler(channelService ports.ChannelService, logger *logger.Logger) *ChannelHandler {
	return &ChannelHandler{
		channelService: channelService,
		logger:         logger,
	}
}

// Register mounts the channel routes on g
func (h *ChannelHandler) Register(g *echo.Group) {
	g.GET("", h.ListChannels)
	g.POST("", h.Connect)
	g.GET("/:id", h.GetChannel)
	g.PATCH("/:id", h.UpdateChannel)
	g.DELETE("/:id", h.DeleteChannel)
	g.GET("/:id/label", h.Label)
	g.POST("/:id/disconnect", h.Disconnect)
	g.PUT("/:id/biolink", h.UpdateBioLink)
	g.PUT("/:id/stats", h.UpdateStats)
	g.POST("/:id/stats/refresh", h.RefreshStats)
}

// Connect handles connecting a new channel
func (h *ChannelHandler) Connect(c echo.Context) error {
	var req ports.ConnectChannelRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	channel, err := h.channelService.Connect(c.Request().Context(), req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, channel)
}

// GetChannel handles fetching one channel
func (h *ChannelHandler) GetChannel(c echo.Context) error {
	channel, err := h.channelService.GetChannel(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, channel)
}

// ListChannels lists channels; connected=true restricts to connected ones
func (h *ChannelHandler) ListChannels(c echo.Context) error {
	ctx := c.Request().Context()

	connectedOnly := false
	if raw := c.QueryParam("connected"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, ports.ErrorResponse{Message: "connected must be a boolean"})
		}
		connectedOnly = v
	}

	var (
		channels []entities.Channel
		err      error
	)
	if connectedOnly {
		channels, err = h.channelService.ListConnected(ctx)
	} else {
		channels, err = h.channelService.ListChannels(ctx)
	}
	if err != nil {
		return toHTTPError(err)
	}
	return list(c, channels)
}

// UpdateChannel handles partial channel updates
func (h *ChannelHandler) UpdateChannel(c echo.Context) error {
	var patch entities.ChannelPatch
	if err := bindPatch(c, &patch); err != nil {
		return err
	}
	return h.update(c, patch)
}

// UpdateBioLink replaces the channel's bio link; an empty url clears it
func (h *ChannelHandler) UpdateBioLink(c echo.Context) error {
	var req ports.UpdateBioLinkRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.update(c, entities.ChannelPatch{BioLink: &req.URL})
}

// UpdateStats replaces the channel's audience figures
func (h *ChannelHandler) UpdateStats(c echo.Context) error {
	var req ports.UpdateStatsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.update(c, entities.ChannelPatch{Stats: &entities.ChannelStats{
		Followers:  req.Followers,
		Engagement: req.Engagement,
	}})
}

func (h *ChannelHandler) update(c echo.Context, patch entities.ChannelPatch) error {
	channel, err := h.channelService.UpdateChannel(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, channel)
}

// RefreshStats pulls fresh audience figures from the platform
func (h *ChannelHandler) RefreshStats(c echo.Context) error {
	channel, err := h.channelService.RefreshStats(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, channel)
}

// Disconnect marks a channel disconnected
func (h *ChannelHandler) Disconnect(c echo.Context) error {
	channel, err := h.channelService.Disconnect(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, channel)
}

// DeleteChannel handles channel deletion
func (h *ChannelHandler) DeleteChannel(c echo.Context) error {
	ok, err := h.channelService.DeleteChannel(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return deleted(c, ok, "channel")
}

// Label returns the display label for a channel id, which may no longer
// exist
func (h *ChannelHandler) Label(c echo.Context) error {
	label := h.channelService.ChannelLabel(c.Request().Context(), c.Param("id"))
	return c.JSON(http.StatusOK, map[string]string{"label": label})
}
