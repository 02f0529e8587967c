package services

import (
	"iter"
	"slices"

	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/render"
)

// CommentTree is a snapshot of a post's comments. All can be ranged over any number of
// times; each root view is built only when the iteration reaches it. Comments whose
// parent is missing from the snapshot are left out together with their replies.
type CommentTree struct {
	postID    string
	viewerID  uint
	roots     []uint
	dangling  []uint
	reachable int
	byID      map[uint]*models.Comment
	children  map[uint][]uint
	likers    map[uint][]uint
	users     map[uint]models.UserCompact
}

func newCommentTree(postID string, viewerID uint, comments []models.Comment, likes []models.CommentLike, users map[uint]models.UserCompact) *CommentTree {
	t := &CommentTree{
		postID:   postID,
		viewerID: viewerID,
		byID:     make(map[uint]*models.Comment, len(comments)),
		children: make(map[uint][]uint),
		likers:   make(map[uint][]uint),
		users:    users,
	}
	for i := range comments {
		t.byID[comments[i].ID] = &comments[i]
	}
	// comments arrive in insertion order, so appending keeps siblings ordered.
	for i := range comments {
		c := &comments[i]
		switch {
		case c.ParentID == nil:
			t.roots = append(t.roots, c.ID)
		case t.byID[*c.ParentID] != nil:
			t.children[*c.ParentID] = append(t.children[*c.ParentID], c.ID)
		default:
			t.dangling = append(t.dangling, c.ID)
		}
	}
	for _, l := range likes {
		t.likers[l.CommentID] = append(t.likers[l.CommentID], l.UserID)
	}
	t.reachable = t.countReachable()
	return t
}

func (t *CommentTree) countReachable() int {
	seen := make(map[uint]bool, len(t.byID))
	stack := slices.Clone(t.roots)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		stack = append(stack, t.children[id]...)
	}
	return len(seen)
}

// PostID is the post the tree belongs to.
func (t *CommentTree) PostID() string { return t.postID }

// Len is the number of comments in the tree, replies included.
func (t *CommentTree) Len() int { return t.reachable }

// Dangling lists the comments left out because their parent is missing.
func (t *CommentTree) Dangling() []uint { return t.dangling }

// All yields the root comments in insertion order, each with its replies nested.
func (t *CommentTree) All() iter.Seq[models.CommentView] {
	return func(yield func(models.CommentView) bool) {
		for _, id := range t.roots {
			if !yield(t.build(id)) {
				return
			}
		}
	}
}

// Views collects All into a slice.
func (t *CommentTree) Views() []models.CommentView {
	views := make([]models.CommentView, 0, len(t.roots))
	for v := range t.All() {
		views = append(views, v)
	}
	return views
}

// build renders the subtree under root without recursion: nodes are visited depth
// first, then assembled in reverse visit order so every child is finished before its
// parent.
func (t *CommentTree) build(root uint) models.CommentView {
	order := []uint{}
	visited := map[uint]bool{}
	stack := []uint{root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		order = append(order, id)
		stack = append(stack, t.children[id]...)
	}

	done := make(map[uint]models.CommentView, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		v := t.view(t.byID[id])
		for _, child := range t.children[id] {
			if cv, ok := done[child]; ok {
				v.Replies = append(v.Replies, cv)
			}
		}
		done[id] = v
	}
	return done[root]
}

func (t *CommentTree) view(c *models.Comment) models.CommentView {
	return commentView(c, likeView(t.likers[c.ID], t.users, t.viewerID), t.users)
}

func commentView(c *models.Comment, likes models.LikeView, users map[uint]models.UserCompact) models.CommentView {
	return models.CommentView{
		ID:        c.ID,
		PostID:    c.PostID,
		ParentID:  c.ParentID,
		Author:    compactOf(users, c.UserID),
		Content:   c.Content,
		BodyHTML:  render.Comment(c.Content),
		CreatedAt: c.CreatedAt,
		Likes:     likes,
		Replies:   []models.CommentView{},
	}
}

// likeView aggregates the likers of one entity, oldest like first. Likers whose account
// is gone still count but are left out of LikedBy.
func likeView(likerIDs []uint, users map[uint]models.UserCompact, viewerID uint) models.LikeView {
	v := models.LikeView{Count: len(likerIDs), LikedBy: make([]models.UserCompact, 0, len(likerIDs))}
	for _, id := range likerIDs {
		if id == viewerID && viewerID != 0 {
			v.Liked = true
		}
		if u, ok := users[id]; ok {
			v.LikedBy = append(v.LikedBy, u)
		}
	}
	return v
}
