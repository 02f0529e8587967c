package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/repositories"
)

// PostRepository is an in-memory repositories.PostRepository.
type PostRepository struct {
	mu    sync.Mutex
	posts map[primitive.ObjectID]models.Post

	// Err, when set, is returned by every call.
	Err error
}

func NewPostRepository() *PostRepository {
	return &PostRepository{posts: make(map[primitive.ObjectID]models.Post)}
}

// Add stores post as is (keeping its ID if set) and returns its hex id.
func (m *PostRepository) Add(post models.Post) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
		post.UpdatedAt = post.CreatedAt
	}
	m.posts[post.ID] = post
	return post.ID.Hex()
}

func (m *PostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if m.Err != nil {
		return m.Err
	}
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	if post.Visibility == "" {
		post.Visibility = models.VisibilityPublic
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[post.ID] = *post
	return nil
}

func (m *PostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repositories.ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	post, ok := m.posts[objID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &post, nil
}

func (m *PostRepository) GetPostsByOwnerID(ctx context.Context, ownerID uint, skip, limit int64) ([]models.Post, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Post
	for _, p := range m.posts {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if skip >= int64(len(out)) {
		return nil, nil
	}
	out = out[skip:]
	if limit > 0 && limit < int64(len(out)) {
		out = out[:limit]
	}
	return out, nil
}

func (m *PostRepository) DeletePost(ctx context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repositories.ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[objID]; !ok {
		return repositories.ErrNotFound
	}
	delete(m.posts, objID)
	return nil
}

// Len returns the number of stored posts.
func (m *PostRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posts)
}
