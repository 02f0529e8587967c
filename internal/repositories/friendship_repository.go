package repositories

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/engagement/internal/models"
	"gorm.io/gorm"
)

// FriendshipRepository defines the interface for friend edge data operations
type FriendshipRepository interface {
	CreateEdge(ctx context.Context, edge *models.FriendEdge) error
	GetEdgeByID(ctx context.Context, id uint) (*models.FriendEdge, error)
	FindActiveEdge(ctx context.Context, a, b uint) (*models.FriendEdge, error)
	TransitionEdge(ctx context.Context, edge *models.FriendEdge, to models.FriendStatus, blockedBy *uint) error
	GetFriends(ctx context.Context, userID uint) ([]models.User, error)
	GetAcceptedFriendIDs(ctx context.Context, userID uint) ([]uint, error)
	GetPendingIncoming(ctx context.Context, userID uint) ([]models.FriendEdge, error)
	GetPendingOutgoing(ctx context.Context, userID uint) ([]models.FriendEdge, error)
	DeleteEdge(ctx context.Context, id uint) error
	DeleteEdgesForUser(ctx context.Context, userID uint) error
}

// PostgresFriendshipRepository implements FriendshipRepository for PostgreSQL
type PostgresFriendshipRepository struct {
	db *gorm.DB
}

// NewPostgresFriendshipRepository creates a new PostgresFriendshipRepository
func NewPostgresFriendshipRepository(db *gorm.DB) *PostgresFriendshipRepository {
	return &PostgresFriendshipRepository{db: db}
}

func activePair(edge *models.FriendEdge, status models.FriendStatus) *string {
	if !status.HoldsPair() {
		return nil
	}
	key := models.PairKey(edge.RequesterID, edge.TargetID)
	return &key
}

// CreateEdge inserts a new edge. ErrDuplicateKey means another edge already holds the pair.
func (r *PostgresFriendshipRepository) CreateEdge(ctx context.Context, edge *models.FriendEdge) error {
	edge.ActivePair = activePair(edge, edge.Status)
	return translate(r.db.WithContext(ctx).Create(edge).Error)
}

// GetEdgeByID retrieves a friend edge by ID
func (r *PostgresFriendshipRepository) GetEdgeByID(ctx context.Context, id uint) (*models.FriendEdge, error) {
	var edge models.FriendEdge
	if err := r.db.WithContext(ctx).First(&edge, id).Error; err != nil {
		return nil, translate(err)
	}
	return &edge, nil
}

// FindActiveEdge returns the PENDING, ACCEPTED or BLOCKED edge between a and b in either
// direction.
func (r *PostgresFriendshipRepository) FindActiveEdge(ctx context.Context, a, b uint) (*models.FriendEdge, error) {
	var edge models.FriendEdge
	if err := r.db.WithContext(ctx).Where("active_pair = ?", models.PairKey(a, b)).First(&edge).Error; err != nil {
		return nil, translate(err)
	}
	return &edge, nil
}

// TransitionEdge moves edge from its current status to `to`. The update only applies if
// the stored status still equals edge.Status; otherwise ErrStale is returned. On success
// edge is updated in place.
func (r *PostgresFriendshipRepository) TransitionEdge(ctx context.Context, edge *models.FriendEdge, to models.FriendStatus, blockedBy *uint) error {
	now := time.Now()
	pair := activePair(edge, to)
	res := r.db.WithContext(ctx).Model(&models.FriendEdge{}).
		Where("id = ? AND status = ?", edge.ID, edge.Status).
		Updates(map[string]any{
			"status":        to,
			"active_pair":   pair,
			"blocked_by_id": blockedBy,
			"updated_at":    now,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStale
	}
	edge.Status = to
	edge.ActivePair = pair
	edge.BlockedByID = blockedBy
	edge.UpdatedAt = now
	return nil
}

// GetFriends retrieves all accepted friends for a user, whichever side sent the request
func (r *PostgresFriendshipRepository) GetFriends(ctx context.Context, userID uint) ([]models.User, error) {
	var friends []models.User
	db := r.db.WithContext(ctx)
	asRequester := db.Model(&models.FriendEdge{}).Select("target_id").Where("requester_id = ? AND status = ?", userID, models.FriendStatusAccepted)
	asTarget := db.Model(&models.FriendEdge{}).Select("requester_id").Where("target_id = ? AND status = ?", userID, models.FriendStatusAccepted)

	if err := db.Where("id IN (?) OR id IN (?)", asRequester, asTarget).Order("id ASC").Find(&friends).Error; err != nil {
		return nil, translate(err)
	}
	return friends, nil
}

// GetAcceptedFriendIDs returns the IDs of the user's accepted friends
func (r *PostgresFriendshipRepository) GetAcceptedFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	var edges []models.FriendEdge
	err := r.db.WithContext(ctx).
		Where("(requester_id = ? OR target_id = ?) AND status = ?", userID, userID, models.FriendStatusAccepted).
		Find(&edges).Error
	if err != nil {
		return nil, translate(err)
	}
	ids := make([]uint, 0, len(edges))
	for i := range edges {
		ids = append(ids, edges[i].Other(userID))
	}
	return ids, nil
}

// GetPendingIncoming retrieves pending requests addressed to the user, oldest first
func (r *PostgresFriendshipRepository) GetPendingIncoming(ctx context.Context, userID uint) ([]models.FriendEdge, error) {
	return r.pending(ctx, "target_id = ?", userID)
}

// GetPendingOutgoing retrieves pending requests sent by the user, oldest first
func (r *PostgresFriendshipRepository) GetPendingOutgoing(ctx context.Context, userID uint) ([]models.FriendEdge, error) {
	return r.pending(ctx, "requester_id = ?", userID)
}

func (r *PostgresFriendshipRepository) pending(ctx context.Context, cond string, userID uint) ([]models.FriendEdge, error) {
	var edges []models.FriendEdge
	err := r.db.WithContext(ctx).
		Where(cond, userID).Where("status = ?", models.FriendStatusPending).
		Order("created_at ASC").Order("id ASC").
		Find(&edges).Error
	if err != nil {
		return nil, translate(err)
	}
	return edges, nil
}

// DeleteEdge deletes a friend edge
func (r *PostgresFriendshipRepository) DeleteEdge(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.FriendEdge{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEdgesForUser removes every edge the user is a party to
func (r *PostgresFriendshipRepository) DeleteEdgesForUser(ctx context.Context, userID uint) error {
	return translate(r.db.WithContext(ctx).Where("requester_id = ? OR target_id = ?", userID, userID).Delete(&models.FriendEdge{}).Error)
}
