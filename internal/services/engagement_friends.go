package services

import (
	"context"
	"fmt"

	"github.com/anonto42/nano-midea/engagement/internal/apperrors"
	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/repositories"
)

// RequestFriend sends a friend request and notifies the target.
func (s *EngagementService) RequestFriend(ctx context.Context, requesterID, targetID uint) (*models.FriendEdgeView, error) {
	if requesterID == targetID {
		return nil, apperrors.Validation("cannot send a friend request to yourself")
	}
	requester, err := activeUser(ctx, s.store, requesterID)
	if err != nil {
		return nil, err
	}
	if _, err := activeUser(ctx, s.store, targetID); err != nil {
		return nil, err
	}

	var view *models.FriendEdgeView
	err = s.store.Transaction(ctx, func(tx repositories.Store) error {
		edge, err := s.friends.Request(ctx, tx, requesterID, targetID)
		if err != nil {
			return err
		}
		s.notifications.EmitBestEffort(ctx, tx, requesterID, targetID,
			models.FriendRequestEvent{EdgeID: edge.ID},
			fmt.Sprintf("%s sent you a friend request", requester.Name))
		view, err = s.edgeView(ctx, tx, edge)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// RespondFriend accepts or declines a pending request. Accepting notifies the requester.
func (s *EngagementService) RespondFriend(ctx context.Context, edgeID, actorID uint, accept bool) (*models.FriendEdgeView, error) {
	actor, err := activeUser(ctx, s.store, actorID)
	if err != nil {
		return nil, err
	}

	var view *models.FriendEdgeView
	err = s.store.Transaction(ctx, func(tx repositories.Store) error {
		edge, err := s.friends.Respond(ctx, tx, edgeID, actorID, accept)
		if err != nil {
			return err
		}
		if edge.Status == models.FriendStatusAccepted {
			s.notifications.EmitBestEffort(ctx, tx, actorID, edge.RequesterID,
				models.FriendAcceptedEvent{EdgeID: edge.ID},
				fmt.Sprintf("%s accepted your friend request", actor.Name))
		}
		view, err = s.edgeView(ctx, tx, edge)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// BlockUser blocks otherID on behalf of actorID.
func (s *EngagementService) BlockUser(ctx context.Context, actorID, otherID uint) (*models.FriendEdgeView, error) {
	if _, err := activeUser(ctx, s.store, actorID); err != nil {
		return nil, err
	}
	if _, err := activeUser(ctx, s.store, otherID); err != nil {
		return nil, err
	}
	return s.friendMutation(ctx, func(tx repositories.Store) (*models.FriendEdge, error) {
		return s.friends.Block(ctx, tx, actorID, otherID)
	})
}

// BlockFriendEdge blocks the pair of an existing edge.
func (s *EngagementService) BlockFriendEdge(ctx context.Context, edgeID, actorID uint) (*models.FriendEdgeView, error) {
	if _, err := activeUser(ctx, s.store, actorID); err != nil {
		return nil, err
	}
	return s.friendMutation(ctx, func(tx repositories.Store) (*models.FriendEdge, error) {
		return s.friends.BlockEdge(ctx, tx, edgeID, actorID)
	})
}

// Unblock lifts a block actorID placed on otherID.
func (s *EngagementService) Unblock(ctx context.Context, actorID, otherID uint) error {
	if _, err := activeUser(ctx, s.store, actorID); err != nil {
		return err
	}
	return s.store.Transaction(ctx, func(tx repositories.Store) error {
		return s.friends.Unblock(ctx, tx, actorID, otherID)
	})
}

// Unfriend removes the friendship between actorID and otherID.
func (s *EngagementService) Unfriend(ctx context.Context, actorID, otherID uint) error {
	if _, err := activeUser(ctx, s.store, actorID); err != nil {
		return err
	}
	return s.store.Transaction(ctx, func(tx repositories.Store) error {
		return s.friends.Unfriend(ctx, tx, actorID, otherID)
	})
}

// ListFriends lists the active users befriended with userID.
func (s *EngagementService) ListFriends(ctx context.Context, userID uint) ([]models.UserCompact, error) {
	if _, err := activeUser(ctx, s.store, userID); err != nil {
		return nil, err
	}
	friends, err := s.friends.FriendsOf(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserCompact, 0, len(friends))
	for i := range friends {
		if friends[i].Active {
			out = append(out, friends[i].ToCompact())
		}
	}
	return out, nil
}

// ListPendingIncoming lists the users with a pending request to userID.
func (s *EngagementService) ListPendingIncoming(ctx context.Context, userID uint) ([]models.UserCompact, error) {
	views, err := s.PendingIncomingRequests(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserCompact, 0, len(views))
	for _, v := range views {
		out = append(out, v.Requester)
	}
	return out, nil
}

// ListPendingOutgoing lists the users userID has a pending request to.
func (s *EngagementService) ListPendingOutgoing(ctx context.Context, userID uint) ([]models.UserCompact, error) {
	views, err := s.PendingOutgoingRequests(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserCompact, 0, len(views))
	for _, v := range views {
		out = append(out, v.Target)
	}
	return out, nil
}

// PendingIncomingRequests is ListPendingIncoming with the edges, so they can be answered.
func (s *EngagementService) PendingIncomingRequests(ctx context.Context, userID uint) ([]models.FriendEdgeView, error) {
	if _, err := activeUser(ctx, s.store, userID); err != nil {
		return nil, err
	}
	edges, err := s.friends.PendingIncoming(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	return s.edgeViews(ctx, s.store, edges)
}

// PendingOutgoingRequests is ListPendingOutgoing with the edges.
func (s *EngagementService) PendingOutgoingRequests(ctx context.Context, userID uint) ([]models.FriendEdgeView, error) {
	if _, err := activeUser(ctx, s.store, userID); err != nil {
		return nil, err
	}
	edges, err := s.friends.PendingOutgoing(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	return s.edgeViews(ctx, s.store, edges)
}

func (s *EngagementService) friendMutation(ctx context.Context, fn func(tx repositories.Store) (*models.FriendEdge, error)) (*models.FriendEdgeView, error) {
	var view *models.FriendEdgeView
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		edge, err := fn(tx)
		if err != nil {
			return err
		}
		view, err = s.edgeView(ctx, tx, edge)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *EngagementService) edgeView(ctx context.Context, store repositories.Store, edge *models.FriendEdge) (*models.FriendEdgeView, error) {
	views, err := s.edgeViews(ctx, store, []models.FriendEdge{*edge})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *EngagementService) edgeViews(ctx context.Context, store repositories.Store, edges []models.FriendEdge) ([]models.FriendEdgeView, error) {
	ids := make([]uint, 0, 2*len(edges))
	for _, e := range edges {
		ids = append(ids, e.RequesterID, e.TargetID)
	}
	users, err := s.users.Summaries(ctx, store, ids)
	if err != nil {
		return nil, err
	}
	views := make([]models.FriendEdgeView, 0, len(edges))
	for _, e := range edges {
		views = append(views, models.FriendEdgeView{
			ID:        e.ID,
			Requester: summaryOrID(users, e.RequesterID),
			Target:    summaryOrID(users, e.TargetID),
			Status:    e.Status,
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		})
	}
	return views, nil
}

func summaryOrID(users map[uint]models.UserCompact, id uint) models.UserCompact {
	if u, ok := users[id]; ok {
		return u
	}
	return models.UserCompact{ID: id}
}
