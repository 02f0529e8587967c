package services

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/anonto42/nano-midea/engagement/internal/apperrors"
	"github.com/anonto42/nano-midea/engagement/internal/metrics"
	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/repositories"
)

const maxCommentLength = 500

// LikeToggle is the outcome of a like toggle.
type LikeToggle struct {
	Likes models.LikeView
	// Changed is false when a concurrent toggle by the same user already produced the
	// requested state; Likes then reflects that pre-existing state.
	Changed bool
}

// CommentService is the comment tree engine. It also owns post likes, which follow the
// same toggle rules as comment likes.
type CommentService struct {
	users    *UserDirectory
	validate *validator.Validate
	log      logrus.FieldLogger
}

func NewCommentService(users *UserDirectory, log logrus.FieldLogger) *CommentService {
	return &CommentService{users: users, validate: validator.New(), log: log}
}

func (s *CommentService) body(content string) (string, error) {
	content = strings.TrimSpace(content)
	if err := s.validate.Var(content, "required"); err != nil {
		return "", apperrors.Validation("comment body must not be empty")
	}
	if err := s.validate.Var(content, "max=500"); err != nil {
		return "", apperrors.Validation("comment body must be at most %d characters", maxCommentLength)
	}
	return content, nil
}

// Add creates a root comment on post.
func (s *CommentService) Add(ctx context.Context, store repositories.Store, authorID uint, post *models.Post, content string) (*models.Comment, error) {
	content, err := s.body(content)
	if err != nil {
		return nil, err
	}
	comment := &models.Comment{PostID: post.ID.Hex(), UserID: authorID, Content: content}
	if err := store.Comments().CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Reply creates a comment under parentID, which must already exist on post. It returns
// the reply and its parent.
func (s *CommentService) Reply(ctx context.Context, store repositories.Store, authorID uint, post *models.Post, parentID uint, content string) (*models.Comment, *models.Comment, error) {
	content, err := s.body(content)
	if err != nil {
		return nil, nil, err
	}
	parent, err := s.Get(ctx, store, parentID)
	if err != nil {
		return nil, nil, err
	}
	if parent.PostID != post.ID.Hex() {
		return nil, nil, apperrors.NotFound("comment %d not found on post %s", parentID, post.ID.Hex())
	}

	reply := &models.Comment{PostID: parent.PostID, UserID: authorID, ParentID: &parent.ID, Content: content}
	if err := store.Comments().CreateComment(ctx, reply); err != nil {
		// The parent was deleted after it was read.
		if errors.Is(err, repositories.ErrForeignKey) {
			return nil, nil, apperrors.NotFound("comment %d not found", parentID)
		}
		return nil, nil, err
	}
	return reply, parent, nil
}

// Edit replaces the body of a comment. Only its author may edit it.
func (s *CommentService) Edit(ctx context.Context, store repositories.Store, commentID, actorID uint, content string) (*models.Comment, error) {
	content, err := s.body(content)
	if err != nil {
		return nil, err
	}
	comment, err := s.Get(ctx, store, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != actorID {
		return nil, apperrors.Authorization("only the author can edit this comment")
	}
	comment.Content = content
	if err := store.Comments().UpdateComment(ctx, comment); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperrors.NotFound("comment %d not found", commentID)
		}
		return nil, err
	}
	return comment, nil
}

// Get loads a comment, mapping absence to NotFound.
func (s *CommentService) Get(ctx context.Context, store repositories.Store, id uint) (*models.Comment, error) {
	comment, err := store.Comments().GetCommentByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.NotFound("comment %d not found", id)
	}
	return comment, err
}

// View renders a single comment with its like aggregate and no replies.
func (s *CommentService) View(ctx context.Context, store repositories.Store, comment *models.Comment, viewerID uint) (*models.CommentView, error) {
	likes, err := store.CommentLikes().GetLikesByCommentIDs(ctx, []uint{comment.ID})
	if err != nil {
		return nil, err
	}
	likers := commentLikers(likes)
	users, err := s.users.Summaries(ctx, store, append([]uint{comment.UserID}, likers...))
	if err != nil {
		return nil, err
	}
	v := commentView(comment, likeView(likers, users, viewerID), users)
	return &v, nil
}

// ToggleLike flips userID's membership in the comment's like set.
func (s *CommentService) ToggleLike(ctx context.Context, store repositories.Store, commentID, userID uint) (*LikeToggle, error) {
	if _, err := s.Get(ctx, store, commentID); err != nil {
		return nil, err
	}
	likes := store.CommentLikes()
	liked, err := likes.HasUserLikedComment(ctx, commentID, userID)
	if err != nil {
		return nil, err
	}

	changed := true
	if liked {
		err = likes.DeleteCommentLike(ctx, commentID, userID)
		if errors.Is(err, repositories.ErrNotFound) {
			changed, err = false, nil
		}
	} else {
		// The insert runs in a savepoint so a unique violation leaves the outer
		// transaction usable.
		err = store.Transaction(ctx, func(tx repositories.Store) error {
			return tx.CommentLikes().CreateCommentLike(ctx, &models.CommentLike{CommentID: commentID, UserID: userID})
		})
		switch {
		case errors.Is(err, repositories.ErrDuplicateKey):
			changed, err = false, nil
		case errors.Is(err, repositories.ErrForeignKey):
			return nil, apperrors.NotFound("comment %d not found", commentID)
		}
	}
	if err != nil {
		return nil, err
	}

	all, err := likes.GetLikesByCommentIDs(ctx, []uint{commentID})
	if err != nil {
		return nil, err
	}
	view, err := s.summarizeLikes(ctx, store, commentLikers(all), userID)
	if err != nil {
		return nil, err
	}
	metrics.RecordLikeToggle("comment", view.Liked)
	return &LikeToggle{Likes: view, Changed: changed}, nil
}

// TogglePostLike flips userID's membership in the post's like set.
func (s *CommentService) TogglePostLike(ctx context.Context, store repositories.Store, postID string, userID uint) (*LikeToggle, error) {
	likes := store.PostLikes()
	liked, err := likes.HasUserLikedPost(ctx, postID, userID)
	if err != nil {
		return nil, err
	}

	changed := true
	if liked {
		err = likes.DeleteLike(ctx, postID, userID)
		if errors.Is(err, repositories.ErrNotFound) {
			changed, err = false, nil
		}
	} else {
		err = store.Transaction(ctx, func(tx repositories.Store) error {
			return tx.PostLikes().CreateLike(ctx, &models.PostLike{PostID: postID, UserID: userID})
		})
		if errors.Is(err, repositories.ErrDuplicateKey) {
			changed, err = false, nil
		}
	}
	if err != nil {
		return nil, err
	}

	view, err := s.PostLikes(ctx, store, postID, userID)
	if err != nil {
		return nil, err
	}
	metrics.RecordLikeToggle("post", view.Liked)
	return &LikeToggle{Likes: *view, Changed: changed}, nil
}

// PostLikes returns the like aggregate of a post as seen by viewerID.
func (s *CommentService) PostLikes(ctx context.Context, store repositories.Store, postID string, viewerID uint) (*models.LikeView, error) {
	all, err := store.PostLikes().GetLikesByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	likers := make([]uint, 0, len(all))
	for _, l := range all {
		likers = append(likers, l.UserID)
	}
	view, err := s.summarizeLikes(ctx, store, likers, viewerID)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *CommentService) summarizeLikes(ctx context.Context, store repositories.Store, likerIDs []uint, viewerID uint) (models.LikeView, error) {
	users, err := s.users.Summaries(ctx, store, likerIDs)
	if err != nil {
		return models.LikeView{}, err
	}
	return likeView(likerIDs, users, viewerID), nil
}

func commentLikers(likes []models.CommentLike) []uint {
	ids := make([]uint, 0, len(likes))
	for _, l := range likes {
		ids = append(ids, l.UserID)
	}
	return ids
}

// Render snapshots the comments of postID as a tree.
func (s *CommentService) Render(ctx context.Context, store repositories.Store, postID string, viewerID uint) (*CommentTree, error) {
	comments, err := store.Comments().GetCommentsByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(comments))
	userIDs := make([]uint, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
		userIDs = append(userIDs, c.UserID)
	}
	likes, err := store.CommentLikes().GetLikesByCommentIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, l := range likes {
		userIDs = append(userIDs, l.UserID)
	}
	users, err := s.users.Summaries(ctx, store, userIDs)
	if err != nil {
		return nil, err
	}
	tree := newCommentTree(postID, viewerID, comments, likes, users)
	if dangling := tree.Dangling(); len(dangling) > 0 {
		s.log.WithFields(logrus.Fields{"post_id": postID, "comment_ids": dangling}).Warn("comments with a missing parent left out of the tree")
	}
	return tree, nil
}

// Count is the flat number of comments and replies on postID.
func (s *CommentService) Count(ctx context.Context, store repositories.Store, postID string) (int64, error) {
	return store.Comments().CountByPostID(ctx, postID)
}

// Delete removes a comment and all of its transitive replies. actorID must be the
// comment author or the owner of post; post is nil when it no longer exists.
func (s *CommentService) Delete(ctx context.Context, store repositories.Store, commentID, actorID uint, post *models.Post) ([]uint, error) {
	comment, err := s.Get(ctx, store, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != actorID && (post == nil || post.OwnerID != actorID) {
		return nil, apperrors.Authorization("only the comment author or the post owner can delete this comment")
	}

	all, err := store.Comments().GetCommentsByPostID(ctx, comment.PostID)
	if err != nil {
		return nil, err
	}
	order := subtree(all, []uint{comment.ID})
	if err := s.deleteLeavesFirst(ctx, store, order); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"comment_id": comment.ID, "post_id": comment.PostID, "deleted": len(order)}).Debug("comment subtree deleted")
	return order, nil
}

// DeleteForPost removes every comment of a post and their likes.
func (s *CommentService) DeleteForPost(ctx context.Context, store repositories.Store, postID string) error {
	all, err := store.Comments().GetCommentsByPostID(ctx, postID)
	if err != nil {
		return err
	}
	var roots []uint
	present := make(map[uint]bool, len(all))
	for _, c := range all {
		present[c.ID] = true
	}
	for _, c := range all {
		if c.ParentID == nil || !present[*c.ParentID] {
			roots = append(roots, c.ID)
		}
	}
	return s.deleteLeavesFirst(ctx, store, subtree(all, roots))
}

// DeleteAuthoredBy removes every comment written by userID together with the replies
// under them.
func (s *CommentService) DeleteAuthoredBy(ctx context.Context, store repositories.Store, userID uint) error {
	own, err := store.Comments().GetCommentsByUserID(ctx, userID)
	if err != nil {
		return err
	}
	byPost := map[string][]uint{}
	var postOrder []string
	for _, c := range own {
		if _, ok := byPost[c.PostID]; !ok {
			postOrder = append(postOrder, c.PostID)
		}
		byPost[c.PostID] = append(byPost[c.PostID], c.ID)
	}
	for _, postID := range postOrder {
		all, err := store.Comments().GetCommentsByPostID(ctx, postID)
		if err != nil {
			return err
		}
		if err := s.deleteLeavesFirst(ctx, store, subtree(all, byPost[postID])); err != nil {
			return err
		}
	}
	return nil
}

// subtree returns the ids under roots in breadth-first order, each id once. Every
// descendant comes after its ancestors, including roots nested under other roots.
func subtree(all []models.Comment, roots []uint) []uint {
	children := make(map[uint][]uint)
	parent := make(map[uint]uint)
	for _, c := range all {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
			parent[c.ID] = *c.ParentID
		}
	}
	isRoot := make(map[uint]bool, len(roots))
	for _, id := range roots {
		isRoot[id] = true
	}
	queue := make([]uint, 0, len(roots))
	for _, id := range roots {
		if !hasAncestorIn(parent, id, isRoot) {
			queue = append(queue, id)
		}
	}

	seen := make(map[uint]bool)
	var order []uint
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		order = append(order, id)
		queue = append(queue, children[id]...)
	}
	return order
}

func hasAncestorIn(parent map[uint]uint, id uint, set map[uint]bool) bool {
	visited := map[uint]bool{id: true}
	for {
		p, ok := parent[id]
		if !ok || visited[p] {
			return false
		}
		if set[p] {
			return true
		}
		visited[p] = true
		id = p
	}
}

// deleteLeavesFirst deletes the likes of ids, then the comments in reverse
// breadth-first order so no comment is removed before its replies.
func (s *CommentService) deleteLeavesFirst(ctx context.Context, store repositories.Store, order []uint) error {
	if len(order) == 0 {
		return nil
	}
	if err := store.CommentLikes().DeleteByCommentIDs(ctx, order); err != nil {
		return err
	}
	for i := len(order) - 1; i >= 0; i-- {
		err := store.Comments().DeleteComment(ctx, order[i])
		switch {
		case err == nil, errors.Is(err, repositories.ErrNotFound):
		case errors.Is(err, repositories.ErrForeignKey):
			// A reply or like landed after the subtree was read.
			return apperrors.Conflict("comment %d changed concurrently, retry", order[i])
		default:
			return err
		}
	}
	return nil
}
