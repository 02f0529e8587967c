package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/services"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	engagement *services.EngagementService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(engagement *services.EngagementService) *PostHandler {
	return &PostHandler{engagement: engagement}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:post_id", h.GetPost)
	g.DELETE("/posts/:post_id", h.DeletePost)
}

// CreatePost creates a new post owned by the caller
func (h *PostHandler) CreatePost(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.engagement.CreatePost(c.Request().Context(), userID, &req)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, post)
}

// GetPost returns a post with its likes and comment count
func (h *PostHandler) GetPost(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	view, err := h.engagement.GetPost(c.Request().Context(), c.Param("post_id"), userID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, view)
}

// DeletePost deletes one of the caller's posts
func (h *PostHandler) DeletePost(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	if err := h.engagement.DeletePost(c.Request().Context(), c.Param("post_id"), userID); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}
