package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/services"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	engagement *services.EngagementService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(engagement *services.EngagementService) *CommentHandler {
	return &CommentHandler{engagement: engagement}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/comments", h.CreateComment)
	g.GET("/posts/:post_id/comments", h.GetCommentsByPostID)
	g.GET("/posts/:post_id/comments/count", h.CountComments)
	g.POST("/posts/:post_id/comments/:comment_id/replies", h.CreateReply)
	g.PUT("/comments/:id", h.UpdateComment)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// CreateComment creates a new root comment on a post
func (h *CommentHandler) CreateComment(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := h.engagement.AddComment(c.Request().Context(), userID, c.Param("post_id"), req.Content)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, view)
}

// CreateReply replies to a comment of the same post
func (h *CommentHandler) CreateReply(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	parentID, err := parseID(c, "comment_id", "comment")
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := h.engagement.AddReply(c.Request().Context(), userID, c.Param("post_id"), parentID, req.Content)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, view)
}

// GetCommentsByPostID returns the rendered comment tree of a post
func (h *CommentHandler) GetCommentsByPostID(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	tree, err := h.engagement.RenderComments(c.Request().Context(), c.Param("post_id"), userID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"post_id":  tree.PostID(),
		"total":    tree.Len(),
		"comments": tree.Views(),
	})
}

// CountComments returns the number of comments and replies on a post
func (h *CommentHandler) CountComments(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	postID := c.Param("post_id")
	count, err := h.engagement.CountComments(c.Request().Context(), postID, userID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"post_id": postID, "comments_count": count})
}

// UpdateComment edits the body of the caller's own comment
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	commentID, err := parseID(c, "id", "comment")
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := h.engagement.EditComment(c.Request().Context(), commentID, userID, req.Content)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, view)
}

// DeleteComment deletes a comment with its replies
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	commentID, err := parseID(c, "id", "comment")
	if err != nil {
		return err
	}

	if err := h.engagement.DeleteComment(c.Request().Context(), commentID, userID); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}
