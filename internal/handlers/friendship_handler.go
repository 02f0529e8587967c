package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/services"
)

// FriendshipHandler handles friend requests, friendships and blocks
type FriendshipHandler struct {
	engagement *services.EngagementService
}

// NewFriendshipHandler creates a new FriendshipHandler
func NewFriendshipHandler(engagement *services.EngagementService) *FriendshipHandler {
	return &FriendshipHandler{engagement: engagement}
}

// RegisterFriendshipRoutes registers friendship-related routes
func (h *FriendshipHandler) RegisterFriendshipRoutes(g *echo.Group) {
	g.POST("/friends/request", h.SendFriendRequest)
	g.PUT("/friends/request/:id/status", h.UpdateFriendRequestStatus)
	g.POST("/friends/request/:id/block", h.BlockFriendRequest)
	g.GET("/friends/requests/pending", h.GetPendingFriendRequests)
	g.GET("/friends/requests/outgoing", h.GetOutgoingFriendRequests)
	g.GET("/friends", h.GetFriends)
	g.DELETE("/friends/:id", h.DeleteFriend) // Unfriend
	g.POST("/friends/:id/block", h.BlockUser)
	g.DELETE("/friends/:id/block", h.UnblockUser)
}

// SendFriendRequest sends a friend request to target_id
func (h *FriendshipHandler) SendFriendRequest(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req models.CreateFriendRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	edge, err := h.engagement.RequestFriend(c.Request().Context(), userID, req.TargetID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, edge)
}

// UpdateFriendRequestStatus accepts or declines a pending request addressed to the caller
func (h *FriendshipHandler) UpdateFriendRequestStatus(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	edgeID, err := parseID(c, "id", "friend request")
	if err != nil {
		return err
	}

	var req models.RespondFriendRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	edge, err := h.engagement.RespondFriend(c.Request().Context(), edgeID, userID, *req.Accept)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, edge)
}

// BlockFriendRequest blocks the other party of a friend edge the caller is part of
func (h *FriendshipHandler) BlockFriendRequest(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	edgeID, err := parseID(c, "id", "friend request")
	if err != nil {
		return err
	}

	edge, err := h.engagement.BlockFriendEdge(c.Request().Context(), edgeID, userID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, edge)
}

// GetPendingFriendRequests lists the pending requests addressed to the caller
func (h *FriendshipHandler) GetPendingFriendRequests(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	requests, err := h.engagement.PendingIncomingRequests(c.Request().Context(), userID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, requests)
}

// GetOutgoingFriendRequests lists the pending requests the caller sent
func (h *FriendshipHandler) GetOutgoingFriendRequests(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	requests, err := h.engagement.PendingOutgoingRequests(c.Request().Context(), userID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, requests)
}

// GetFriends lists the caller's accepted friends
func (h *FriendshipHandler) GetFriends(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	friends, err := h.engagement.ListFriends(c.Request().Context(), userID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, friends)
}

// DeleteFriend removes the friendship between the caller and user :id
func (h *FriendshipHandler) DeleteFriend(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	otherID, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}

	if err := h.engagement.Unfriend(c.Request().Context(), userID, otherID); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// BlockUser blocks user :id, whatever the current relation
func (h *FriendshipHandler) BlockUser(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	otherID, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}

	edge, err := h.engagement.BlockUser(c.Request().Context(), userID, otherID)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, edge)
}

// UnblockUser lifts a block the caller placed on user :id
func (h *FriendshipHandler) UnblockUser(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	otherID, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}

	if err := h.engagement.Unblock(c.Request().Context(), userID, otherID); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}
