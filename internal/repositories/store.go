package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/anonto42/nano-midea/engagement/internal/apperrors"
	"github.com/anonto42/nano-midea/engagement/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateKey is returned when a write violates a unique index.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrStale is returned by compare-and-set updates that matched no row in the expected state.
	ErrStale = errors.New("record changed concurrently")
	// ErrForeignKey is returned when a write references a missing row, or a delete would
	// leave rows referencing the deleted one.
	ErrForeignKey = errors.New("foreign key violation")
)

// Store groups the relational repositories behind one transaction boundary.
type Store interface {
	Users() UserRepository
	Comments() CommentRepository
	CommentLikes() CommentLikeRepository
	PostLikes() LikeRepository
	Friendships() FriendshipRepository
	Notifications() NotificationRepository

	// Transaction runs fn against a Store bound to one transaction. Called on a Store
	// that is already transactional, it opens a nested transaction (SAVEPOINT) so fn
	// can fail without aborting the outer one. Sentinels escaping fn come back as typed
	// apperrors that still match the sentinel with errors.Is.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// GormStore implements Store on a *gorm.DB (PostgreSQL in production, SQLite in tests)
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GormStore
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Users() UserRepository { return NewPostgresUserRepository(s.db) }

func (s *GormStore) Comments() CommentRepository { return NewPostgresCommentRepository(s.db) }

func (s *GormStore) CommentLikes() CommentLikeRepository {
	return NewPostgresCommentLikeRepository(s.db)
}

func (s *GormStore) PostLikes() LikeRepository { return NewPostgresLikeRepository(s.db) }

func (s *GormStore) Friendships() FriendshipRepository {
	return NewPostgresFriendshipRepository(s.db)
}

func (s *GormStore) Notifications() NotificationRepository {
	return NewPostgresNotificationRepository(s.db)
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
	if err == nil || apperrors.KindOf(err) != 0 {
		return err
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return apperrors.Wrap(apperrors.KindNotFound, err, "record not found")
	case errors.Is(err, ErrDuplicateKey):
		return apperrors.Wrap(apperrors.KindConflict, err, "record already exists")
	case errors.Is(err, ErrStale), errors.Is(err, ErrForeignKey):
		return apperrors.Wrap(apperrors.KindConflict, err, "record changed concurrently, retry")
	}
	return apperrors.Store(err)
}

// AutoMigrate creates or updates the relational schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Comment{},
		&models.CommentLike{},
		&models.PostLike{},
		&models.FriendEdge{},
		&models.Notification{},
	)
}

// translate maps driver errors onto the package sentinels; anything else becomes an
// opaque store error.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isDuplicateKey(err):
		return ErrDuplicateKey
	case isForeignKey(err):
		return ErrForeignKey
	default:
		return apperrors.Store(err)
	}
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// Fallback for dialectors without an error translator.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func isForeignKey(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint")
}
