package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/nano-midea/engagement/internal/apperrors"
	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/repositories"
)

func TestCanView(t *testing.T) {
	owner := uint(1)
	viewer := uint(2)
	accepted := &models.FriendEdge{Status: models.FriendStatusAccepted}
	pending := &models.FriendEdge{Status: models.FriendStatusPending}
	blocked := &models.FriendEdge{Status: models.FriendStatusBlocked}

	tests := []struct {
		name       string
		visibility models.Visibility
		viewer     uint
		edge       *models.FriendEdge
		want       bool
	}{
		{"owner sees private", models.VisibilityPrivate, owner, nil, true},
		{"stranger cannot see private", models.VisibilityPrivate, viewer, nil, false},
		{"friend cannot see private", models.VisibilityPrivate, viewer, accepted, false},
		{"friend sees friends only", models.VisibilityFriendsOnly, viewer, accepted, true},
		{"pending request is not enough", models.VisibilityFriendsOnly, viewer, pending, false},
		{"stranger sees public", models.VisibilityPublic, viewer, nil, true},
		{"blocked cannot see public", models.VisibilityPublic, viewer, blocked, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post := &models.Post{OwnerID: owner, Visibility: tt.visibility}
			assert.Equal(t, tt.want, CanView(post, tt.viewer, tt.edge))
		})
	}
}

func TestHiddenPostsLookAbsent(t *testing.T) {
	f := newFixture(t)
	a, b := f.user("alice"), f.user("bob")
	private := f.post(a, models.VisibilityPrivate)
	friendsOnly := f.post(a, models.VisibilityFriendsOnly)

	_, err := f.svc.AddComment(f.ctx, b.ID, private, "peek")
	assert.True(t, apperrors.IsNotFound(err))
	_, err = f.svc.RenderComments(f.ctx, friendsOnly, b.ID)
	assert.True(t, apperrors.IsNotFound(err))

	f.befriend(a, b)
	_, err = f.svc.AddComment(f.ctx, b.ID, friendsOnly, "hi friend")
	require.NoError(t, err)

	own, err := f.svc.AddComment(f.ctx, a.ID, private, "note to self")
	require.NoError(t, err)
	_, err = f.svc.ToggleCommentLike(f.ctx, own.ID, b.ID)
	assert.True(t, apperrors.IsNotFound(err), "comments under hidden posts are hidden too")

	_, err = f.svc.BlockUser(f.ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = f.svc.GetPost(f.ctx, f.post(a, models.VisibilityPublic), b.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestInactiveActorIsNotFound(t *testing.T) {
	f := newFixture(t)
	a, b := f.user("alice"), f.user("bob")
	postID := f.post(a, models.VisibilityPublic)

	b.Active = false
	require.NoError(t, f.store.Users().UpdateUser(f.ctx, b))

	_, err := f.svc.AddComment(f.ctx, b.ID, postID, "ghost")
	assert.True(t, apperrors.IsNotFound(err))
	_, err = f.svc.GetUser(f.ctx, b.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateAndDeletePost(t *testing.T) {
	f := newFixture(t)
	a, b := f.user("alice"), f.user("bob")

	post, err := f.svc.CreatePost(f.ctx, a.ID, &models.CreatePostRequest{Content: "first!"})
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityPublic, post.Visibility)
	postID := post.ID.Hex()

	_, err = f.svc.CreatePost(f.ctx, a.ID, &models.CreatePostRequest{Content: "x", Visibility: "SECRET"})
	assert.True(t, apperrors.IsValidation(err))

	comment, err := f.svc.AddComment(f.ctx, b.ID, postID, "nice")
	require.NoError(t, err)
	_, err = f.svc.AddReply(f.ctx, a.ID, postID, comment.ID, "thanks")
	require.NoError(t, err)
	_, err = f.svc.TogglePostLike(f.ctx, postID, b.ID)
	require.NoError(t, err)

	view, err := f.svc.GetPost(f.ctx, postID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), view.CommentCount)
	assert.True(t, view.Likes.Liked)

	assert.True(t, apperrors.IsAuthorization(f.svc.DeletePost(f.ctx, postID, b.ID)))
	require.NoError(t, f.svc.DeletePost(f.ctx, postID, a.ID))

	_, err = f.svc.GetPost(f.ctx, postID, a.ID)
	assert.True(t, apperrors.IsNotFound(err))
	count, err := f.store.Comments().CountByPostID(f.ctx, postID)
	require.NoError(t, err)
	assert.Zero(t, count)
	likes, err := f.store.PostLikes().GetLikesCountByPostID(f.ctx, postID)
	require.NoError(t, err)
	assert.Zero(t, likes)
}

func TestDeletePostLosingRaceIsNotFound(t *testing.T) {
	f := newFixture(t, withPosts(func(r repositories.PostRepository) repositories.PostRepository {
		return vanishingPosts{PostRepository: r}
	}))
	a, b := f.user("alice"), f.user("bob")
	postID := f.post(a, models.VisibilityPublic)
	_, err := f.svc.AddComment(f.ctx, b.ID, postID, "still here")
	require.NoError(t, err)

	err = f.svc.DeletePost(f.ctx, postID, a.ID)
	assert.True(t, apperrors.IsNotFound(err), "got %v", err)

	count, err := f.store.Comments().CountByPostID(f.ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "the relational cascade rolls back")
}

func TestDeleteAccountWithNestedOwnReplies(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.user("alice"), f.user("bob"), f.user("carol")
	postID := f.post(a, models.VisibilityPublic)

	root, err := f.svc.AddComment(f.ctx, b.ID, postID, "root")
	require.NoError(t, err)
	middle, err := f.svc.AddReply(f.ctx, c.ID, postID, root.ID, "middle")
	require.NoError(t, err)
	_, err = f.svc.AddReply(f.ctx, b.ID, postID, middle.ID, "deep")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteAccount(f.ctx, b.ID))

	count, err := f.store.Comments().CountByPostID(f.ctx, postID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeleteAccountCascades(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.user("alice"), f.user("bob"), f.user("carol")
	alicePost := f.post(a, models.VisibilityPublic)
	carolPost := f.post(c, models.VisibilityPublic)

	_, err := f.svc.AddComment(f.ctx, b.ID, alicePost, "on alice's post")
	require.NoError(t, err)
	aliceComment, err := f.svc.AddComment(f.ctx, a.ID, carolPost, "alice on carol's post")
	require.NoError(t, err)
	_, err = f.svc.AddReply(f.ctx, b.ID, carolPost, aliceComment.ID, "reply to alice")
	require.NoError(t, err)
	bobComment, err := f.svc.AddComment(f.ctx, b.ID, carolPost, "bob on carol's post")
	require.NoError(t, err)
	_, err = f.svc.ToggleCommentLike(f.ctx, bobComment.ID, a.ID)
	require.NoError(t, err)
	_, err = f.svc.TogglePostLike(f.ctx, carolPost, a.ID)
	require.NoError(t, err)
	f.befriend(a, b)

	require.NoError(t, f.svc.DeleteAccount(f.ctx, a.ID))

	_, err = f.svc.GetProfile(f.ctx, a.ID)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = f.posts.GetPostByID(f.ctx, alicePost)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	count, err := f.store.Comments().CountByPostID(f.ctx, carolPost)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "alice's comment and the reply under it are gone")

	tree, err := f.svc.RenderComments(f.ctx, carolPost, c.ID)
	require.NoError(t, err)
	views := tree.Views()
	require.Len(t, views, 1)
	assert.Zero(t, views[0].Likes.Count)

	postLikes, err := f.store.PostLikes().GetLikesCountByPostID(f.ctx, carolPost)
	require.NoError(t, err)
	assert.Zero(t, postLikes)

	friends, err := f.svc.ListFriends(f.ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, friends)

	assert.NotEmpty(t, f.inbox(c), "notifications are retained")
	assert.True(t, apperrors.IsNotFound(f.svc.DeleteAccount(f.ctx, a.ID)))
}

func TestUserLookups(t *testing.T) {
	f := newFixture(t)
	a := f.user("alice")

	summary, err := f.svc.GetUser(f.ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ToCompact(), *summary)

	profile, err := f.svc.GetProfile(f.ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Name)

	_, err = f.svc.GetUser(f.ctx, 0)
	assert.True(t, apperrors.IsValidation(err))
}
