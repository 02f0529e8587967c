package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/anonto42/nano-midea/engagement/internal/apperrors"
	"github.com/anonto42/nano-midea/engagement/internal/cache"
	"github.com/anonto42/nano-midea/engagement/internal/mocks"
	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/repositories"
	"github.com/anonto42/nano-midea/engagement/internal/testutil"
	"github.com/anonto42/nano-midea/engagement/pkg/logger"
)

type fixture struct {
	t             *testing.T
	ctx           context.Context
	store         repositories.Store
	posts         *mocks.PostRepository
	notifications *NotificationService
	svc           *EngagementService
}

type fixtureOption func(*fixtureConfig)

type fixtureConfig struct {
	opts  EngagementOptions
	hooks hooks
	posts func(repositories.PostRepository) repositories.PostRepository
}

func withOptions(opts EngagementOptions) fixtureOption {
	return func(c *fixtureConfig) { c.opts = opts }
}

func withHooks(h hooks) fixtureOption {
	return func(c *fixtureConfig) { c.hooks = h }
}

// withPosts wraps the post repository seen by the engagement service.
func withPosts(wrap func(repositories.PostRepository) repositories.PostRepository) fixtureOption {
	return func(c *fixtureConfig) { c.posts = wrap }
}

func newFixture(t *testing.T, options ...fixtureOption) *fixture {
	t.Helper()
	var cfg fixtureConfig
	for _, o := range options {
		o(&cfg)
	}

	var store repositories.Store = testutil.NewStore(t)
	if !cfg.hooks.empty() {
		store = hookedStore{Store: store, hooks: cfg.hooks}
	}

	log := logger.Discard()
	userCache, err := cache.NewUserCache(64, time.Minute)
	require.NoError(t, err)
	users := NewUserDirectory(userCache)
	posts := mocks.NewPostRepository()
	notifications := NewNotificationService(posts, users, log).WithClock(newTicker())
	var svcPosts repositories.PostRepository = posts
	if cfg.posts != nil {
		svcPosts = cfg.posts(posts)
	}

	svc := NewEngagementService(
		store,
		svcPosts,
		users,
		NewFriendshipService(log),
		NewCommentService(users, log),
		notifications,
		cfg.opts,
		log,
	)
	return &fixture{
		t:             t,
		ctx:           context.Background(),
		store:         store,
		posts:         posts,
		notifications: notifications,
		svc:           svc,
	}
}

func (f *fixture) user(name string) *models.User {
	f.t.Helper()
	return testutil.CreateUser(f.t, f.store, name)
}

func (f *fixture) post(owner *models.User, visibility models.Visibility) string {
	return f.posts.Add(models.Post{OwnerID: owner.ID, Content: "hello world", Visibility: visibility})
}

func (f *fixture) inbox(user *models.User) []models.Notification {
	f.t.Helper()
	list, err := f.store.Notifications().ListByRecipientID(f.ctx, user.ID)
	require.NoError(f.t, err)
	return list
}

func (f *fixture) befriend(a, b *models.User) {
	f.t.Helper()
	edge, err := f.svc.RequestFriend(f.ctx, a.ID, b.ID)
	require.NoError(f.t, err)
	_, err = f.svc.RespondFriend(f.ctx, edge.ID, b.ID, true)
	require.NoError(f.t, err)
}

// newTicker returns a clock that advances one second per call.
func newTicker() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

// hooks wrap repositories of a store, including inside transactions, to inject faults.
type hooks struct {
	friendships   func(repositories.FriendshipRepository) repositories.FriendshipRepository
	notifications func(repositories.NotificationRepository) repositories.NotificationRepository
	commentLikes  func(repositories.CommentLikeRepository) repositories.CommentLikeRepository
	comments      func(repositories.CommentRepository) repositories.CommentRepository
}

func (h hooks) empty() bool {
	return h.friendships == nil && h.notifications == nil && h.commentLikes == nil && h.comments == nil
}

type hookedStore struct {
	repositories.Store
	hooks hooks
}

func (s hookedStore) Friendships() repositories.FriendshipRepository {
	r := s.Store.Friendships()
	if s.hooks.friendships != nil {
		return s.hooks.friendships(r)
	}
	return r
}

func (s hookedStore) Notifications() repositories.NotificationRepository {
	r := s.Store.Notifications()
	if s.hooks.notifications != nil {
		return s.hooks.notifications(r)
	}
	return r
}

func (s hookedStore) CommentLikes() repositories.CommentLikeRepository {
	r := s.Store.CommentLikes()
	if s.hooks.commentLikes != nil {
		return s.hooks.commentLikes(r)
	}
	return r
}

func (s hookedStore) Comments() repositories.CommentRepository {
	r := s.Store.Comments()
	if s.hooks.comments != nil {
		return s.hooks.comments(r)
	}
	return r
}

func (s hookedStore) Transaction(ctx context.Context, fn func(tx repositories.Store) error) error {
	return s.Store.Transaction(ctx, func(tx repositories.Store) error {
		return fn(hookedStore{Store: tx, hooks: s.hooks})
	})
}

// failingNotifications refuses every insert.
type failingNotifications struct {
	repositories.NotificationRepository
}

func (failingNotifications) CreateNotification(context.Context, *models.Notification) error {
	return apperrors.Store(errors.New("disk full"))
}

// blindFriendships never sees an existing edge, like a request racing another one that
// has not committed yet.
type blindFriendships struct {
	repositories.FriendshipRepository
}

func (blindFriendships) FindActiveEdge(context.Context, uint, uint) (*models.FriendEdge, error) {
	return nil, repositories.ErrNotFound
}

// staleCommentLikes reports no like, like a toggle racing another toggle by the same user.
type staleCommentLikes struct {
	repositories.CommentLikeRepository
}

func (staleCommentLikes) HasUserLikedComment(context.Context, uint, uint) (bool, error) {
	return false, nil
}

// snapshotComments serves GetCommentByID from rows captured earlier, like a read that
// raced a delete which committed after it.
type snapshotComments struct {
	repositories.CommentRepository
	rows map[uint]models.Comment
}

func (r snapshotComments) GetCommentByID(ctx context.Context, id uint) (*models.Comment, error) {
	if c, ok := r.rows[id]; ok {
		return &c, nil
	}
	return r.CommentRepository.GetCommentByID(ctx, id)
}

// laggingComments leaves the hidden ids out of post listings, like a reply inserted after
// the listing was read.
type laggingComments struct {
	repositories.CommentRepository
	hidden map[uint]bool
}

func (r laggingComments) GetCommentsByPostID(ctx context.Context, postID string) ([]models.Comment, error) {
	all, err := r.CommentRepository.GetCommentsByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, c := range all {
		if !r.hidden[c.ID] {
			out = append(out, c)
		}
	}
	return out, nil
}

// vanishingPosts reports every post deletion as missing, like a second delete that lost
// the race to the first.
type vanishingPosts struct {
	repositories.PostRepository
}

func (vanishingPosts) DeletePost(context.Context, string) error {
	return repositories.ErrNotFound
}
