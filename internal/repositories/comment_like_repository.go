package repositories

import (
	"context"

	"github.com/anonto42/nano-midea/engagement/internal/models"
	"gorm.io/gorm"
)

// CommentLikeRepository defines the interface for comment like operations
type CommentLikeRepository interface {
	CreateCommentLike(ctx context.Context, like *models.CommentLike) error
	DeleteCommentLike(ctx context.Context, commentID, userID uint) error
	HasUserLikedComment(ctx context.Context, commentID, userID uint) (bool, error)
	GetLikesCount(ctx context.Context, commentID uint) (int64, error)
	GetLikesByCommentIDs(ctx context.Context, commentIDs []uint) ([]models.CommentLike, error)
	DeleteByCommentIDs(ctx context.Context, commentIDs []uint) error
	DeleteByUserID(ctx context.Context, userID uint) error
}

type postgresCommentLikeRepository struct {
	db *gorm.DB
}

func NewPostgresCommentLikeRepository(db *gorm.DB) CommentLikeRepository {
	return &postgresCommentLikeRepository{db: db}
}

func (r *postgresCommentLikeRepository) CreateCommentLike(ctx context.Context, like *models.CommentLike) error {
	return translate(r.db.WithContext(ctx).Create(like).Error)
}

func (r *postgresCommentLikeRepository) DeleteCommentLike(ctx context.Context, commentID, userID uint) error {
	res := r.db.WithContext(ctx).Where("comment_id = ? AND user_id = ?", commentID, userID).Delete(&models.CommentLike{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresCommentLikeRepository) HasUserLikedComment(ctx context.Context, commentID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CommentLike{}).Where("comment_id = ? AND user_id = ?", commentID, userID).Count(&count).Error
	return count > 0, translate(err)
}

func (r *postgresCommentLikeRepository) GetLikesCount(ctx context.Context, commentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CommentLike{}).Where("comment_id = ?", commentID).Count(&count).Error
	return count, translate(err)
}

// GetLikesByCommentIDs returns the likes of several comments, oldest first
func (r *postgresCommentLikeRepository) GetLikesByCommentIDs(ctx context.Context, commentIDs []uint) ([]models.CommentLike, error) {
	var likes []models.CommentLike
	if len(commentIDs) == 0 {
		return likes, nil
	}
	err := r.db.WithContext(ctx).
		Where("comment_id IN ?", commentIDs).
		Order("created_at ASC").Order("id ASC").
		Find(&likes).Error
	if err != nil {
		return nil, translate(err)
	}
	return likes, nil
}

func (r *postgresCommentLikeRepository) DeleteByCommentIDs(ctx context.Context, commentIDs []uint) error {
	if len(commentIDs) == 0 {
		return nil
	}
	return translate(r.db.WithContext(ctx).Where("comment_id IN ?", commentIDs).Delete(&models.CommentLike{}).Error)
}

func (r *postgresCommentLikeRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	return translate(r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CommentLike{}).Error)
}
