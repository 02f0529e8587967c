package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/anonto42/nano-midea/engagement/internal/apperrors"
	"github.com/anonto42/nano-midea/engagement/internal/metrics"
	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/repositories"
)

// FriendshipService is the friend edge state machine:
//
//	NONE -request-> PENDING -accept-> ACCEPTED
//	                PENDING -decline-> DECLINED (terminal, pair is free again)
//	any  -block->   BLOCKED -unblock-> NONE (edge deleted)
//	ACCEPTED -unfriend-> NONE (edge deleted)
//
// Pair checks are direction-agnostic. Every method runs against the store it is given,
// so callers decide the transaction boundary.
type FriendshipService struct {
	log logrus.FieldLogger
}

func NewFriendshipService(log logrus.FieldLogger) *FriendshipService {
	return &FriendshipService{log: log}
}

// Relation returns the active edge between a and b, or nil when the pair is free.
func (s *FriendshipService) Relation(ctx context.Context, store repositories.Store, a, b uint) (*models.FriendEdge, error) {
	edge, err := store.Friendships().FindActiveEdge(ctx, a, b)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return edge, nil
}

// Request creates a PENDING edge requester -> target.
func (s *FriendshipService) Request(ctx context.Context, store repositories.Store, requesterID, targetID uint) (*models.FriendEdge, error) {
	if requesterID == targetID {
		return nil, apperrors.Validation("cannot send a friend request to yourself")
	}

	existing, err := s.Relation(ctx, store, requesterID, targetID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, pairConflict(existing)
	}

	edge := &models.FriendEdge{
		RequesterID: requesterID,
		TargetID:    targetID,
		Status:      models.FriendStatusPending,
	}
	if err := store.Friendships().CreateEdge(ctx, edge); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			// Lost the race against a concurrent request for the same pair.
			return nil, apperrors.Conflict("a friend request already exists between these users")
		}
		return nil, err
	}
	s.record(edge)
	return edge, nil
}

func pairConflict(edge *models.FriendEdge) error {
	switch edge.Status {
	case models.FriendStatusAccepted:
		return apperrors.Conflict("users are already friends")
	case models.FriendStatusBlocked:
		return apperrors.Conflict("friendship between these users is blocked")
	default:
		return apperrors.Conflict("a pending friend request already exists between these users")
	}
}

// Respond accepts or declines a pending request. Only the target may respond.
func (s *FriendshipService) Respond(ctx context.Context, store repositories.Store, edgeID, actorID uint, accept bool) (*models.FriendEdge, error) {
	to := models.FriendStatusDeclined
	if accept {
		to = models.FriendStatusAccepted
	}

	edge, err := s.edge(ctx, store, edgeID)
	if err != nil {
		return nil, err
	}
	if edge.TargetID != actorID {
		return nil, apperrors.Authorization("only the recipient can respond to a friend request")
	}
	if edge.Status != models.FriendStatusPending {
		return nil, apperrors.Conflict("friend request is %s, not pending", edge.Status)
	}
	if err := s.transition(ctx, store, edge, to, nil); err != nil {
		return nil, err
	}
	return edge, nil
}

// Accept moves a pending request to ACCEPTED.
func (s *FriendshipService) Accept(ctx context.Context, store repositories.Store, edgeID, actorID uint) (*models.FriendEdge, error) {
	return s.Respond(ctx, store, edgeID, actorID, true)
}

// Decline moves a pending request to DECLINED.
func (s *FriendshipService) Decline(ctx context.Context, store repositories.Store, edgeID, actorID uint) (*models.FriendEdge, error) {
	return s.Respond(ctx, store, edgeID, actorID, false)
}

// Block blocks the pair {actor, other}. An active edge is moved to BLOCKED; with no
// active edge a BLOCKED edge actor -> other is created. Blocking an already blocked
// pair is a no-op.
func (s *FriendshipService) Block(ctx context.Context, store repositories.Store, actorID, otherID uint) (*models.FriendEdge, error) {
	if actorID == otherID {
		return nil, apperrors.Validation("cannot block yourself")
	}

	edge, err := s.Relation(ctx, store, actorID, otherID)
	if err != nil {
		return nil, err
	}
	if edge != nil {
		if edge.Status == models.FriendStatusBlocked {
			return edge, nil
		}
		if err := s.transition(ctx, store, edge, models.FriendStatusBlocked, &actorID); err != nil {
			return nil, err
		}
		return edge, nil
	}

	edge = &models.FriendEdge{
		RequesterID: actorID,
		TargetID:    otherID,
		Status:      models.FriendStatusBlocked,
		BlockedByID: &actorID,
	}
	if err := store.Friendships().CreateEdge(ctx, edge); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, apperrors.Conflict("friend edge changed concurrently, retry")
		}
		return nil, err
	}
	s.record(edge)
	return edge, nil
}

// BlockEdge blocks the pair of an existing edge. The actor must be one of its parties.
func (s *FriendshipService) BlockEdge(ctx context.Context, store repositories.Store, edgeID, actorID uint) (*models.FriendEdge, error) {
	edge, err := s.edge(ctx, store, edgeID)
	if err != nil {
		return nil, err
	}
	if !edge.Involves(actorID) {
		return nil, apperrors.Authorization("not a party to this friend request")
	}
	return s.Block(ctx, store, actorID, edge.Other(actorID))
}

// Unfriend removes an ACCEPTED edge between actor and other.
func (s *FriendshipService) Unfriend(ctx context.Context, store repositories.Store, actorID, otherID uint) error {
	edge, err := s.Relation(ctx, store, actorID, otherID)
	if err != nil {
		return err
	}
	if edge == nil || edge.Status != models.FriendStatusAccepted {
		return apperrors.NotFound("users %d and %d are not friends", actorID, otherID)
	}
	return s.remove(ctx, store, edge)
}

// Unblock deletes a BLOCKED edge. Only the user who placed the block may lift it.
func (s *FriendshipService) Unblock(ctx context.Context, store repositories.Store, actorID, otherID uint) error {
	edge, err := s.Relation(ctx, store, actorID, otherID)
	if err != nil {
		return err
	}
	if edge == nil || edge.Status != models.FriendStatusBlocked {
		return apperrors.NotFound("user %d is not blocked", otherID)
	}
	if edge.BlockedByID == nil || *edge.BlockedByID != actorID {
		return apperrors.Authorization("only the user who blocked can unblock")
	}
	return s.remove(ctx, store, edge)
}

// FriendsOf lists users connected to userID by an ACCEPTED edge in either direction.
func (s *FriendshipService) FriendsOf(ctx context.Context, store repositories.Store, userID uint) ([]models.User, error) {
	return store.Friendships().GetFriends(ctx, userID)
}

// PendingIncoming lists pending requests addressed to userID.
func (s *FriendshipService) PendingIncoming(ctx context.Context, store repositories.Store, userID uint) ([]models.FriendEdge, error) {
	return store.Friendships().GetPendingIncoming(ctx, userID)
}

// PendingOutgoing lists pending requests sent by userID.
func (s *FriendshipService) PendingOutgoing(ctx context.Context, store repositories.Store, userID uint) ([]models.FriendEdge, error) {
	return store.Friendships().GetPendingOutgoing(ctx, userID)
}

// AreFriends reports whether a and b share an ACCEPTED edge.
func (s *FriendshipService) AreFriends(ctx context.Context, store repositories.Store, a, b uint) (bool, error) {
	edge, err := s.Relation(ctx, store, a, b)
	return edge != nil && edge.Status == models.FriendStatusAccepted, err
}

// IsBlocked reports whether either of a and b blocked the other.
func (s *FriendshipService) IsBlocked(ctx context.Context, store repositories.Store, a, b uint) (bool, error) {
	edge, err := s.Relation(ctx, store, a, b)
	return edge != nil && edge.Status == models.FriendStatusBlocked, err
}

func (s *FriendshipService) edge(ctx context.Context, store repositories.Store, id uint) (*models.FriendEdge, error) {
	edge, err := store.Friendships().GetEdgeByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NotFound("friend request %d not found", id)
	}
	return edge, err
}

func (s *FriendshipService) transition(ctx context.Context, store repositories.Store, edge *models.FriendEdge, to models.FriendStatus, blockedBy *uint) error {
	from := edge.Status
	err := store.Friendships().TransitionEdge(ctx, edge, to, blockedBy)
	switch {
	case errors.Is(err, repositories.ErrStale):
		return apperrors.Conflict("friend request %d changed concurrently", edge.ID)
	case errors.Is(err, repositories.ErrDuplicateKey):
		return apperrors.Conflict("another friend edge already exists between these users")
	case err != nil:
		return err
	}
	s.log.WithFields(logrus.Fields{"edge_id": edge.ID, "from": from, "to": to}).Debug("friend edge transition")
	s.record(edge)
	return nil
}

func (s *FriendshipService) remove(ctx context.Context, store repositories.Store, edge *models.FriendEdge) error {
	err := store.Friendships().DeleteEdge(ctx, edge.ID)
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.Conflict("friend edge %d changed concurrently", edge.ID)
	}
	if err == nil {
		metrics.RecordFriendTransition("NONE")
	}
	return err
}

func (s *FriendshipService) record(edge *models.FriendEdge) {
	metrics.RecordFriendTransition(string(edge.Status))
}
