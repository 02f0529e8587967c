package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/anonto42/nano-midea/engagement/internal/apperrors"
	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/repositories"
)

// CreatePost stores a new post owned by ownerID. Visibility defaults to PUBLIC.
func (s *EngagementService) CreatePost(ctx context.Context, ownerID uint, req *models.CreatePostRequest) (*models.Post, error) {
	if _, err := activeUser(ctx, s.store, ownerID); err != nil {
		return nil, err
	}
	if req.Visibility != "" && !req.Visibility.Valid() {
		return nil, apperrors.Validation("unknown visibility %q", req.Visibility)
	}
	post := &models.Post{
		OwnerID:    ownerID,
		Content:    req.Content,
		Visibility: req.Visibility,
		ImageURLs:  req.ImageURLs,
	}
	if post.Visibility == "" {
		post.Visibility = models.VisibilityPublic
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// GetPost returns a post with its like aggregate and comment count.
func (s *EngagementService) GetPost(ctx context.Context, postID string, viewerID uint) (*models.PostView, error) {
	post, err := s.viewablePost(ctx, s.store, postID, viewerID)
	if err != nil {
		return nil, err
	}
	likes, err := s.comments.PostLikes(ctx, s.store, postID, viewerID)
	if err != nil {
		return nil, err
	}
	count, err := s.comments.Count(ctx, s.store, postID)
	if err != nil {
		return nil, err
	}
	return &models.PostView{Post: post, Likes: *likes, CommentCount: count}, nil
}

// DeletePost removes a post with its comments and likes. Only the owner may delete it.
// Notifications referencing the post are kept and render it as absent.
func (s *EngagementService) DeletePost(ctx context.Context, postID string, actorID uint) error {
	post, err := s.post(ctx, postID)
	if err != nil {
		return err
	}
	if post.OwnerID != actorID {
		return apperrors.Authorization("only the owner can delete this post")
	}
	return s.store.Transaction(ctx, func(tx repositories.Store) error {
		if err := s.deletePostData(ctx, tx, postID); err != nil {
			return err
		}
		// Last, so a failure here rolls back the relational cascade.
		err := s.posts.DeletePost(ctx, postID)
		if errors.Is(err, repositories.ErrNotFound) {
			// Deleted by a concurrent request after it was read.
			return apperrors.NotFound("post %s not found", postID)
		}
		return err
	})
}

func (s *EngagementService) deletePostData(ctx context.Context, tx repositories.Store, postID string) error {
	if err := s.comments.DeleteForPost(ctx, tx, postID); err != nil {
		return err
	}
	return tx.PostLikes().DeleteByPostID(ctx, postID)
}

// GetUser returns the public summary of an active user.
func (s *EngagementService) GetUser(ctx context.Context, userID uint) (*models.UserCompact, error) {
	user, err := activeUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	u := user.ToCompact()
	return &u, nil
}

// GetProfile returns the full record of the requesting user.
func (s *EngagementService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	return activeUser(ctx, s.store, userID)
}

// DeleteAccount removes a user with their posts (and everything under them), friend
// edges, comments and likes. Notifications they sent or received are kept.
func (s *EngagementService) DeleteAccount(ctx context.Context, userID uint) error {
	if _, err := s.store.Users().GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperrors.NotFound("user %d not found", userID)
		}
		return err
	}
	posts, err := s.posts.GetPostsByOwnerID(ctx, userID, 0, 0)
	if err != nil {
		return err
	}

	err = s.store.Transaction(ctx, func(tx repositories.Store) error {
		for i := range posts {
			if err := s.deletePostData(ctx, tx, posts[i].ID.Hex()); err != nil {
				return err
			}
		}
		if err := s.comments.DeleteAuthoredBy(ctx, tx, userID); err != nil {
			return err
		}
		if err := tx.CommentLikes().DeleteByUserID(ctx, userID); err != nil {
			return err
		}
		if err := tx.PostLikes().DeleteByUserID(ctx, userID); err != nil {
			return err
		}
		if err := tx.Friendships().DeleteEdgesForUser(ctx, userID); err != nil {
			return err
		}
		if err := tx.Users().DeleteUser(ctx, userID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return apperrors.NotFound("user %d not found", userID)
			}
			return err
		}
		for i := range posts {
			if err := s.posts.DeletePost(ctx, posts[i].ID.Hex()); err != nil && !errors.Is(err, repositories.ErrNotFound) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.users.Forget(userID)
	s.log.WithFields(logrus.Fields{"user_id": userID, "posts": len(posts)}).Info("account deleted")
	return nil
}
