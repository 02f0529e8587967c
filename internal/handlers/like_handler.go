package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-midea/engagement/internal/services"
)

// LikeHandler handles like toggles on posts and comments
type LikeHandler struct {
	engagement *services.EngagementService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(engagement *services.EngagementService) *LikeHandler {
	return &LikeHandler{engagement: engagement}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/like", h.TogglePostLike)
	g.POST("/comments/:id/like", h.ToggleCommentLike)
}

// TogglePostLike likes the post, or unlikes it when the caller already did
func (h *LikeHandler) TogglePostLike(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	likes, err := h.engagement.TogglePostLike(c.Request().Context(), c.Param("post_id"), userID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, likes)
}

// ToggleCommentLike likes the comment, or unlikes it when the caller already did
func (h *LikeHandler) ToggleCommentLike(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	commentID, err := parseID(c, "id", "comment")
	if err != nil {
		return err
	}

	likes, err := h.engagement.ToggleCommentLike(c.Request().Context(), commentID, userID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, likes)
}
