package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/socialdesk/core/internal/domain/entities"
	"github.com/socialdesk/core/internal/infrastructure/logger"
	"github.com/socialdesk/core/internal/ports"
)

// BioLinkHandler handles bio-link page requests
type BioLinkHandler struct {
	bioLinkService ports.BioLinkService
	logger         *logger.Logger
}

// NewBioLinkHandler creates a new bio-link handler
func NewBioLinkHandler(bioLinkService ports.BioLinkService, logger *logger.Logger) *BioLinkHandler {
	return &BioLinkHandler{
		bioLinkService: bioLinkService,
		logger:         logger,
	}
}

// Register mounts the page routes on g
func (h *BioLinkHandler) Register(g *echo.Group) {
	g.GET("", h.ListPages)
	g.POST("", h.CreatePage)
	g.GET("/slug/:slug", h.GetPageBySlug)
	g.GET("/:id", h.GetPage)
	g.PATCH("/:id", h.UpdatePage)
	g.DELETE("/:id", h.DeletePage)
	g.GET("/:id/links", h.ListLinks)
	g.POST("/:id/links", h.AddLink)
	g.POST("/:id/links/reorder", h.ReorderLinks)
	g.PATCH("/:id/links/:linkId", h.UpdateLink)
	g.DELETE("/:id/links/:linkId", h.RemoveLink)
}

// CreatePage handles page creation
func (h *BioLinkHandler) CreatePage(c echo.Context) error {
	var req ports.CreatePageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	page, err := h.bioLinkService.CreatePage(c.Request().Context(), req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, page)
}

// GetPage handles fetching one page
func (h *BioLinkHandler) GetPage(c echo.Context) error {
	page, err := h.bioLinkService.GetPage(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, page)
}

// GetPageBySlug handles the public page lookup
func (h *BioLinkHandler) GetPageBySlug(c echo.Context) error {
	page, err := h.bioLinkService.GetPageBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, page)
}

// ListPages lists all pages
func (h *BioLinkHandler) ListPages(c echo.Context) error {
	pages, err := h.bioLinkService.ListPages(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	return list(c, pages)
}

// UpdatePage handles partial page updates
func (h *BioLinkHandler) UpdatePage(c echo.Context) error {
	var patch entities.PagePatch
	if err := bindPatch(c, &patch); err != nil {
		return err
	}

	page, err := h.bioLinkService.UpdatePage(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, page)
}

// DeletePage deletes a page and its links
func (h *BioLinkHandler) DeletePage(c echo.Context) error {
	ok, err := h.bioLinkService.DeletePage(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return deleted(c, ok, "page")
}

// ListLinks returns a page's links; visible=true returns only enabled
// links in display order
func (h *BioLinkHandler) ListLinks(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	visible, _ := strconv.ParseBool(c.QueryParam("visible"))
	if visible {
		links, err := h.bioLinkService.VisibleLinks(ctx, id)
		if err != nil {
			return toHTTPError(err)
		}
		return list(c, links)
	}

	page, err := h.bioLinkService.GetPage(ctx, id)
	if err != nil {
		return toHTTPError(err)
	}
	return list(c, page.Links)
}

// AddLink appends a link to a page
func (h *BioLinkHandler) AddLink(c echo.Context) error {
	var req ports.AddLinkRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	link, err := h.bioLinkService.AddLink(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, link)
}

// UpdateLink handles partial link updates
func (h *BioLinkHandler) UpdateLink(c echo.Context) error {
	var patch entities.LinkPatch
	if err := bindPatch(c, &patch); err != nil {
		return err
	}

	link, err := h.bioLinkService.UpdateLink(c.Request().Context(), c.Param("id"), c.Param("linkId"), patch)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, link)
}

// RemoveLink deletes a link from a page
func (h *BioLinkHandler) RemoveLink(c echo.Context) error {
	ok, err := h.bioLinkService.RemoveLink(c.Request().Context(), c.Param("id"), c.Param("linkId"))
	if err != nil {
		return toHTTPError(err)
	}
	return deleted(c, ok, "link")
}

// ReorderLinks moves one link to a new position
func (h *BioLinkHandler) ReorderLinks(c echo.Context) error {
	var req ports.ReorderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	page, err := h.bioLinkService.ReorderLinks(c.Request().Context(), c.Param("id"), *req.From, *req.To)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, page)
}
