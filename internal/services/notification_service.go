package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anonto42/nano-midea/engagement/internal/apperrors"
	"github.com/anonto42/nano-midea/engagement/internal/metrics"
	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/repositories"
)

// NotificationService derives notifications from engagement events and serves them back
// to their recipients.
type NotificationService struct {
	posts repositories.PostRepository
	users *UserDirectory
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewNotificationService(posts repositories.PostRepository, users *UserDirectory, log logrus.FieldLogger) *NotificationService {
	return &NotificationService{posts: posts, users: users, log: log, now: time.Now}
}

// WithClock replaces the clock used to stamp new notifications.
func (s *NotificationService) WithClock(now func() time.Time) *NotificationService {
	s.now = now
	return s
}

// Emit persists an unread notification for event.
func (s *NotificationService) Emit(ctx context.Context, store repositories.Store, senderID, recipientID uint, event models.NotificationEvent, message string) (*models.Notification, error) {
	if senderID == 0 || recipientID == 0 {
		return nil, apperrors.Validation("notification sender and recipient are required")
	}
	if senderID == recipientID {
		return nil, apperrors.Validation("self-notifications are suppressed")
	}
	if event == nil {
		return nil, apperrors.Validation("notification event is required")
	}

	n := models.NewNotification(senderID, recipientID, event, message, s.now())
	if err := store.Notifications().CreateNotification(ctx, n); err != nil {
		return nil, err
	}
	metrics.RecordNotification(string(n.Type), true)
	return n, nil
}

// EmitBestEffort emits in a nested transaction of store. If emission fails only the
// nested transaction is rolled back: the failure is logged and counted, and the caller's
// mutation goes on to commit.
func (s *NotificationService) EmitBestEffort(ctx context.Context, store repositories.Store, senderID, recipientID uint, event models.NotificationEvent, message string) {
	err := store.Transaction(ctx, func(tx repositories.Store) error {
		_, err := s.Emit(ctx, tx, senderID, recipientID, event, message)
		return err
	})
	if err == nil {
		return
	}

	entry := s.log.WithFields(logrus.Fields{
		"sender_id":    senderID,
		"recipient_id": recipientID,
	}).WithError(err)
	if event != nil {
		entry = entry.WithField("type", event.Type())
	}
	if apperrors.IsValidation(err) {
		entry.Debug("notification skipped")
		return
	}
	entry.Warn("notification dropped")
	if event != nil {
		metrics.RecordNotification(string(event.Type()), false)
	}
}

// ListForUser returns every notification addressed to userID, most recent first.
func (s *NotificationService) ListForUser(ctx context.Context, store repositories.Store, userID uint) ([]models.Notification, error) {
	return store.Notifications().ListByRecipientID(ctx, userID)
}

// Page returns one page of ListForUser and the total count.
func (s *NotificationService) Page(ctx context.Context, store repositories.Store, userID uint, page, limit int) ([]models.Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return store.Notifications().GetByRecipientID(ctx, userID, page, limit)
}

// MarkRead sets the read flag. Marking an already read notification is a no-op.
func (s *NotificationService) MarkRead(ctx context.Context, store repositories.Store, id uint) error {
	err := store.Notifications().MarkAsRead(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.NotFound("notification %d not found", id)
	}
	return err
}

// MarkReadFor is MarkRead restricted to the recipient. Another user's notification is
// reported as not found.
func (s *NotificationService) MarkReadFor(ctx context.Context, store repositories.Store, recipientID, id uint) error {
	n, err := store.Notifications().GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) || (err == nil && n.RecipientID != recipientID) {
		return apperrors.NotFound("notification %d not found", id)
	}
	if err != nil {
		return err
	}
	if n.IsRead {
		return nil
	}
	return s.MarkRead(ctx, store, id)
}

// MarkAllRead marks every unread notification of userID and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, store repositories.Store, userID uint) (int64, error) {
	return store.Notifications().MarkAllAsRead(ctx, userID)
}

// UnreadCount counts userID's unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, store repositories.Store, userID uint) (int64, error) {
	return store.Notifications().GetUnreadCount(ctx, userID)
}

// Views renders notifications with sender and recipient summaries. References to posts
// or comments that were deleted since are rendered as nil.
func (s *NotificationService) Views(ctx context.Context, store repositories.Store, notifications []models.Notification) ([]models.NotificationView, error) {
	var userIDs, commentIDs []uint
	postIDs := map[string]bool{}
	for _, n := range notifications {
		userIDs = append(userIDs, n.SenderID, n.RecipientID)
		if n.CommentID != nil {
			commentIDs = append(commentIDs, *n.CommentID)
		}
		if n.ParentCommentID != nil {
			commentIDs = append(commentIDs, *n.ParentCommentID)
		}
		if n.PostID != nil {
			postIDs[*n.PostID] = false
		}
	}

	users, err := s.users.Summaries(ctx, store, userIDs)
	if err != nil {
		return nil, err
	}
	comments, err := store.Comments().ExistingIDs(ctx, commentIDs)
	if err != nil {
		return nil, err
	}
	for id := range postIDs {
		_, err := s.posts.GetPostByID(ctx, id)
		switch {
		case err == nil:
			postIDs[id] = true
		case !errors.Is(err, repositories.ErrNotFound):
			return nil, err
		}
	}

	views := make([]models.NotificationView, 0, len(notifications))
	for _, n := range notifications {
		v := models.NotificationView{
			ID:        n.ID,
			Type:      n.Type,
			Message:   n.Message,
			Sender:    compactOf(users, n.SenderID),
			Recipient: compactOf(users, n.RecipientID),
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		}
		if n.PostID != nil && postIDs[*n.PostID] {
			id := *n.PostID
			v.PostID = &id
		}
		if n.CommentID != nil && comments[*n.CommentID] {
			id := *n.CommentID
			v.CommentID = &id
		}
		if n.ParentCommentID != nil && comments[*n.ParentCommentID] {
			id := *n.ParentCommentID
			v.ParentCommentID = &id
		}
		views = append(views, v)
	}
	return views, nil
}
