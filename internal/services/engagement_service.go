package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/anonto42/nano-midea/engagement/internal/apperrors"
	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/repositories"
)

// EngagementOptions tunes the orchestrator.
type EngagementOptions struct {
	// NotifyOnLike emits a LIKE notification when a like is added.
	NotifyOnLike bool
}

// EngagementService sequences the friend state machine, the comment tree engine and the
// notification fan-out for one user action: validate the actors, run the mutation in a
// transaction, emit notifications best-effort inside it, and return the updated view.
type EngagementService struct {
	store         repositories.Store
	posts         repositories.PostRepository
	users         *UserDirectory
	friends       *FriendshipService
	comments      *CommentService
	notifications *NotificationService
	opts          EngagementOptions
	log           logrus.FieldLogger
}

func NewEngagementService(
	store repositories.Store,
	posts repositories.PostRepository,
	users *UserDirectory,
	friends *FriendshipService,
	comments *CommentService,
	notifications *NotificationService,
	opts EngagementOptions,
	log logrus.FieldLogger,
) *EngagementService {
	return &EngagementService{
		store:         store,
		posts:         posts,
		users:         users,
		friends:       friends,
		comments:      comments,
		notifications: notifications,
		opts:          opts,
		log:           log,
	}
}

func (s *EngagementService) post(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NotFound("post %s not found", postID)
	}
	return post, err
}

// viewablePost loads a post the viewer is allowed to see. Posts hidden from the viewer
// are reported as not found.
func (s *EngagementService) viewablePost(ctx context.Context, store repositories.Store, postID string, viewerID uint) (*models.Post, error) {
	post, err := s.post(ctx, postID)
	if err != nil {
		return nil, err
	}
	var edge *models.FriendEdge
	if post.OwnerID != viewerID {
		if edge, err = s.friends.Relation(ctx, store, viewerID, post.OwnerID); err != nil {
			return nil, err
		}
	}
	if !CanView(post, viewerID, edge) {
		return nil, apperrors.NotFound("post %s not found", postID)
	}
	return post, nil
}

// AddComment creates a root comment and notifies the post owner.
func (s *EngagementService) AddComment(ctx context.Context, userID uint, postID string, body string) (*models.CommentView, error) {
	user, err := activeUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	post, err := s.viewablePost(ctx, s.store, postID, userID)
	if err != nil {
		return nil, err
	}

	var view *models.CommentView
	err = s.store.Transaction(ctx, func(tx repositories.Store) error {
		comment, err := s.comments.Add(ctx, tx, userID, post, body)
		if err != nil {
			return err
		}
		if post.OwnerID != userID {
			s.notifications.EmitBestEffort(ctx, tx, userID, post.OwnerID,
				models.CommentPostEvent{PostID: comment.PostID, CommentID: comment.ID},
				fmt.Sprintf("%s commented: %s", user.Name, comment.Content))
		}
		view, err = s.comments.View(ctx, tx, comment, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// AddReply creates a reply under parentCommentID and notifies the parent's author.
func (s *EngagementService) AddReply(ctx context.Context, userID uint, postID string, parentCommentID uint, body string) (*models.CommentView, error) {
	user, err := activeUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	post, err := s.viewablePost(ctx, s.store, postID, userID)
	if err != nil {
		return nil, err
	}

	var view *models.CommentView
	err = s.store.Transaction(ctx, func(tx repositories.Store) error {
		reply, parent, err := s.comments.Reply(ctx, tx, userID, post, parentCommentID, body)
		if err != nil {
			return err
		}
		if parent.UserID != userID {
			s.notifications.EmitBestEffort(ctx, tx, userID, parent.UserID,
				models.ReplyCommentEvent{PostID: reply.PostID, CommentID: reply.ID, ParentCommentID: parent.ID},
				fmt.Sprintf("%s replied to your comment: %s", user.Name, reply.Content))
		}
		view, err = s.comments.View(ctx, tx, reply, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ToggleCommentLike flips userID's like on a comment.
func (s *EngagementService) ToggleCommentLike(ctx context.Context, commentID, userID uint) (*models.LikeView, error) {
	user, err := activeUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	comment, err := s.comments.Get(ctx, s.store, commentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.viewablePost(ctx, s.store, comment.PostID, userID); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NotFound("comment %d not found", commentID)
		}
		return nil, err
	}

	var likes models.LikeView
	err = s.store.Transaction(ctx, func(tx repositories.Store) error {
		res, err := s.comments.ToggleLike(ctx, tx, commentID, userID)
		if err != nil {
			return err
		}
		if s.opts.NotifyOnLike && res.Changed && res.Likes.Liked && comment.UserID != userID {
			id := comment.ID
			s.notifications.EmitBestEffort(ctx, tx, userID, comment.UserID,
				models.LikeEvent{PostID: comment.PostID, CommentID: &id},
				fmt.Sprintf("%s liked your comment", user.Name))
		}
		likes = res.Likes
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &likes, nil
}

// TogglePostLike flips userID's like on a post.
func (s *EngagementService) TogglePostLike(ctx context.Context, postID string, userID uint) (*models.LikeView, error) {
	user, err := activeUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	post, err := s.viewablePost(ctx, s.store, postID, userID)
	if err != nil {
		return nil, err
	}

	var likes models.LikeView
	err = s.store.Transaction(ctx, func(tx repositories.Store) error {
		res, err := s.comments.TogglePostLike(ctx, tx, postID, userID)
		if err != nil {
			return err
		}
		if s.opts.NotifyOnLike && res.Changed && res.Likes.Liked && post.OwnerID != userID {
			s.notifications.EmitBestEffort(ctx, tx, userID, post.OwnerID,
				models.LikeEvent{PostID: postID},
				fmt.Sprintf("%s liked your post", user.Name))
		}
		likes = res.Likes
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &likes, nil
}

// EditComment replaces the body of the actor's own comment. No notification is sent.
func (s *EngagementService) EditComment(ctx context.Context, commentID, actorID uint, body string) (*models.CommentView, error) {
	if _, err := activeUser(ctx, s.store, actorID); err != nil {
		return nil, err
	}
	var view *models.CommentView
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		comment, err := s.comments.Edit(ctx, tx, commentID, actorID, body)
		if err != nil {
			return err
		}
		view, err = s.comments.View(ctx, tx, comment, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// DeleteComment removes a comment and its replies. Only the author or the post owner may.
func (s *EngagementService) DeleteComment(ctx context.Context, commentID, actorID uint) error {
	if _, err := activeUser(ctx, s.store, actorID); err != nil {
		return err
	}
	comment, err := s.comments.Get(ctx, s.store, commentID)
	if err != nil {
		return err
	}
	post, err := s.post(ctx, comment.PostID)
	if apperrors.IsNotFound(err) {
		post, err = nil, nil
	}
	if err != nil {
		return err
	}
	return s.store.Transaction(ctx, func(tx repositories.Store) error {
		_, err := s.comments.Delete(ctx, tx, commentID, actorID, post)
		return err
	})
}

// RenderComments returns the comment tree of a post as seen by viewerID.
func (s *EngagementService) RenderComments(ctx context.Context, postID string, viewerID uint) (*CommentTree, error) {
	if _, err := s.viewablePost(ctx, s.store, postID, viewerID); err != nil {
		return nil, err
	}
	return s.comments.Render(ctx, s.store, postID, viewerID)
}

// CountComments returns the flat comment count of a post.
func (s *EngagementService) CountComments(ctx context.Context, postID string, viewerID uint) (int64, error) {
	if _, err := s.viewablePost(ctx, s.store, postID, viewerID); err != nil {
		return 0, err
	}
	return s.comments.Count(ctx, s.store, postID)
}
