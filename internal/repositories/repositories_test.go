package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/nano-midea/engagement/internal/apperrors"
	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/repositories"
	"github.com/anonto42/nano-midea/engagement/internal/testutil"
)

func TestFriendEdgeUniquePair(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	repo := store.Friendships()
	a := testutil.CreateUser(t, store, "alice")
	b := testutil.CreateUser(t, store, "bob")

	first := &models.FriendEdge{RequesterID: a.ID, TargetID: b.ID, Status: models.FriendStatusPending}
	require.NoError(t, repo.CreateEdge(ctx, first))
	require.NotNil(t, first.ActivePair)

	t.Run("opposite direction is rejected by the index", func(t *testing.T) {
		err := repo.CreateEdge(ctx, &models.FriendEdge{RequesterID: b.ID, TargetID: a.ID, Status: models.FriendStatusPending})
		assert.ErrorIs(t, err, repositories.ErrDuplicateKey)
	})

	t.Run("active edge is found from either side", func(t *testing.T) {
		found, err := repo.FindActiveEdge(ctx, b.ID, a.ID)
		require.NoError(t, err)
		assert.Equal(t, first.ID, found.ID)
	})

	t.Run("declining frees the pair", func(t *testing.T) {
		require.NoError(t, repo.TransitionEdge(ctx, first, models.FriendStatusDeclined, nil))
		assert.Nil(t, first.ActivePair)

		_, err := repo.FindActiveEdge(ctx, a.ID, b.ID)
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		again := &models.FriendEdge{RequesterID: b.ID, TargetID: a.ID, Status: models.FriendStatusPending}
		require.NoError(t, repo.CreateEdge(ctx, again))
		assert.NotEqual(t, first.ID, again.ID)
	})
}

func TestTransitionEdgeIsCompareAndSet(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	repo := store.Friendships()
	a := testutil.CreateUser(t, store, "alice")
	b := testutil.CreateUser(t, store, "bob")

	edge := &models.FriendEdge{RequesterID: a.ID, TargetID: b.ID, Status: models.FriendStatusPending}
	require.NoError(t, repo.CreateEdge(ctx, edge))

	stale := *edge
	require.NoError(t, repo.TransitionEdge(ctx, edge, models.FriendStatusAccepted, nil))

	err := repo.TransitionEdge(ctx, &stale, models.FriendStatusDeclined, nil)
	assert.ErrorIs(t, err, repositories.ErrStale)

	stored, err := repo.GetEdgeByID(ctx, edge.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendStatusAccepted, stored.Status)
}

func TestGetFriendsIsSymmetric(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	repo := store.Friendships()
	a := testutil.CreateUser(t, store, "alice")
	b := testutil.CreateUser(t, store, "bob")
	c := testutil.CreateUser(t, store, "carol")

	ab := &models.FriendEdge{RequesterID: a.ID, TargetID: b.ID, Status: models.FriendStatusPending}
	require.NoError(t, repo.CreateEdge(ctx, ab))
	require.NoError(t, repo.TransitionEdge(ctx, ab, models.FriendStatusAccepted, nil))
	require.NoError(t, repo.CreateEdge(ctx, &models.FriendEdge{RequesterID: c.ID, TargetID: a.ID, Status: models.FriendStatusPending}))

	friendsOfA, err := repo.GetFriends(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, friendsOfA, 1)
	assert.Equal(t, b.ID, friendsOfA[0].ID)

	friendsOfB, err := repo.GetFriends(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, friendsOfB, 1)
	assert.Equal(t, a.ID, friendsOfB[0].ID)

	ids, err := repo.GetAcceptedFriendIDs(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{a.ID}, ids)

	incoming, err := repo.GetPendingIncoming(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, c.ID, incoming[0].RequesterID)

	outgoing, err := repo.GetPendingOutgoing(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, outgoing, 1)
}

func TestCommentLikeUniqueness(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	a := testutil.CreateUser(t, store, "alice")

	comment := &models.Comment{PostID: "p1", UserID: a.ID, Content: "hi"}
	require.NoError(t, store.Comments().CreateComment(ctx, comment))

	likes := store.CommentLikes()
	require.NoError(t, likes.CreateCommentLike(ctx, &models.CommentLike{CommentID: comment.ID, UserID: a.ID}))
	err := likes.CreateCommentLike(ctx, &models.CommentLike{CommentID: comment.ID, UserID: a.ID})
	assert.ErrorIs(t, err, repositories.ErrDuplicateKey)

	require.NoError(t, likes.DeleteCommentLike(ctx, comment.ID, a.ID))
	assert.ErrorIs(t, likes.DeleteCommentLike(ctx, comment.ID, a.ID), repositories.ErrNotFound)
}

func TestCommentsKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	a := testutil.CreateUser(t, store, "alice")

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	var ids []uint
	for _, content := range []string{"first", "second", "third"} {
		c := &models.Comment{PostID: "p1", UserID: a.ID, Content: content, CreatedAt: at}
		require.NoError(t, store.Comments().CreateComment(ctx, c))
		ids = append(ids, c.ID)
	}

	comments, err := store.Comments().GetCommentsByPostID(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, comments, 3)
	for i, c := range comments {
		assert.Equal(t, ids[i], c.ID, "equal timestamps fall back to id order")
	}

	count, err := store.Comments().CountByPostID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	existing, err := store.Comments().ExistingIDs(ctx, []uint{ids[0], 999})
	require.NoError(t, err)
	assert.True(t, existing[ids[0]])
	assert.False(t, existing[999])
}

func TestNotificationsNewestFirstAndMarkRead(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	repo := store.Notifications()

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		n := models.NewNotification(1, 2, models.FriendRequestEvent{EdgeID: uint(i + 1)}, "hello", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.CreateNotification(ctx, n))
	}

	list, err := repo.ListByRecipientID(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[0].CreatedAt.After(list[1].CreatedAt))
	assert.True(t, list[1].CreatedAt.After(list[2].CreatedAt))

	page, total, err := repo.GetByRecipientID(ctx, 2, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 1)
	assert.Equal(t, list[2].ID, page[0].ID)

	require.NoError(t, repo.MarkAsRead(ctx, list[0].ID))
	require.NoError(t, repo.MarkAsRead(ctx, list[0].ID), "marking twice is not an error")
	assert.ErrorIs(t, repo.MarkAsRead(ctx, 12345), repositories.ErrNotFound)

	unread, err := repo.GetUnreadCount(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	changed, err := repo.MarkAllAsRead(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)
}

func TestTransactionRollsBackAndKeepsSentinels(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)

	err := store.Transaction(ctx, func(tx repositories.Store) error {
		require.NoError(t, tx.Users().CreateUser(ctx, &models.User{Name: "ghost", Active: true}))
		return apperrors.Conflict("abort")
	})
	assert.True(t, apperrors.IsConflict(err))

	users, err := store.Users().GetUsersByIDs(ctx, []uint{1})
	require.NoError(t, err)
	assert.Empty(t, users)

	_, err = store.Users().GetUserByID(ctx, 42)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestNestedTransactionFailureKeepsOuterWork(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)

	err := store.Transaction(ctx, func(tx repositories.Store) error {
		require.NoError(t, tx.Users().CreateUser(ctx, &models.User{Name: "kept", Active: true}))
		inner := tx.Transaction(ctx, func(inner repositories.Store) error {
			require.NoError(t, inner.Users().CreateUser(ctx, &models.User{Name: "dropped", Active: true}))
			return apperrors.Validation("inner failure")
		})
		assert.True(t, apperrors.IsValidation(inner))
		return nil
	})
	require.NoError(t, err)

	users, err := store.Users().GetUsersByIDs(ctx, []uint{1, 2})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "kept", users[0].Name)
}

func TestCommentForeignKeys(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)
	a := testutil.CreateUser(t, store, "alice")
	comments, likes := store.Comments(), store.CommentLikes()

	missing := uint(999)
	err := comments.CreateComment(ctx, &models.Comment{PostID: "p1", UserID: a.ID, ParentID: &missing, Content: "orphan"})
	assert.ErrorIs(t, err, repositories.ErrForeignKey)
	assert.ErrorIs(t, likes.CreateCommentLike(ctx, &models.CommentLike{CommentID: missing, UserID: a.ID}), repositories.ErrForeignKey)

	root := &models.Comment{PostID: "p1", UserID: a.ID, Content: "root"}
	require.NoError(t, comments.CreateComment(ctx, root))
	reply := &models.Comment{PostID: "p1", UserID: a.ID, ParentID: &root.ID, Content: "reply"}
	require.NoError(t, comments.CreateComment(ctx, reply))
	require.NoError(t, likes.CreateCommentLike(ctx, &models.CommentLike{CommentID: reply.ID, UserID: a.ID}))

	assert.ErrorIs(t, comments.DeleteComment(ctx, root.ID), repositories.ErrForeignKey, "replies block the parent delete")
	assert.ErrorIs(t, comments.DeleteComment(ctx, reply.ID), repositories.ErrForeignKey, "likes block the comment delete")

	require.NoError(t, likes.DeleteByCommentIDs(ctx, []uint{reply.ID}))
	require.NoError(t, comments.DeleteComment(ctx, reply.ID))
	require.NoError(t, comments.DeleteComment(ctx, root.ID))
}

func TestTransactionTypesEscapingSentinels(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)

	tests := []struct {
		sentinel error
		kind     apperrors.Kind
	}{
		{repositories.ErrNotFound, apperrors.KindNotFound},
		{repositories.ErrDuplicateKey, apperrors.KindConflict},
		{repositories.ErrStale, apperrors.KindConflict},
		{repositories.ErrForeignKey, apperrors.KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.sentinel.Error(), func(t *testing.T) {
			err := store.Transaction(ctx, func(repositories.Store) error { return tt.sentinel })
			assert.Equal(t, tt.kind, apperrors.KindOf(err))
			assert.ErrorIs(t, err, tt.sentinel, "callers of nested transactions still match the sentinel")
			assert.NotEqual(t, "internal server error", apperrors.PublicMessage(err))
		})
	}
}

func TestInactiveUserStaysInactive(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore(t)

	user := &models.User{Name: "dormant", Active: false}
	require.NoError(t, store.Users().CreateUser(ctx, user))

	got, err := store.Users().GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
}
