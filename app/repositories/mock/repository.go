package mock

import (
	"context"
	"errors"
	"sync"

	"blogquery/app/models"
	"blogquery/app/repositories"
)

// PostRepository is an in-memory PostStore. Posts are listed in insertion
// order. A single mutex guards everything, so Update is trivially atomic.
type PostRepository struct {
	posts map[string]*models.Post
	order []string
	mutex sync.RWMutex

	// Err, when set, is returned by every call.
	Err error
}

func NewPostRepository() *PostRepository {
	return &PostRepository{
		posts: make(map[string]*models.Post),
	}
}

func (m *PostRepository) List(ctx context.Context) ([]*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	posts := make([]*models.Post, 0, len(m.order))
	for _, id := range m.order {
		posts = append(posts, m.posts[id].Clone())
	}
	return posts, nil
}

func (m *PostRepository) Get(ctx context.Context, id string) (*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	post, exists := m.posts[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	return post.Clone(), nil
}

func (m *PostRepository) Create(ctx context.Context, post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Err != nil {
		return m.Err
	}

	if _, exists := m.posts[post.ID]; exists {
		return repositories.ErrAlreadyExists
	}
	m.posts[post.ID] = post.Clone()
	m.order = append(m.order, post.ID)
	return nil
}

func (m *PostRepository) Replace(ctx context.Context, post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Err != nil {
		return m.Err
	}

	if _, exists := m.posts[post.ID]; !exists {
		return repositories.ErrNotFound
	}
	m.posts[post.ID] = post.Clone()
	return nil
}

func (m *PostRepository) Update(ctx context.Context, id string, fn func(post *models.Post) error) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Err != nil {
		return m.Err
	}

	stored, exists := m.posts[id]
	if !exists {
		return repositories.ErrNotFound
	}
	post := stored.Clone()
	if err := fn(post); err != nil {
		return err
	}
	post.ID = id
	m.posts[id] = post
	return nil
}

func (m *PostRepository) Delete(ctx context.Context, id string) (bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.Err != nil {
		return false, m.Err
	}

	if _, exists := m.posts[id]; !exists {
		return false, nil
	}
	delete(m.posts, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *PostRepository) Ping(ctx context.Context) error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.Err
}

func (m *PostRepository) Close() error {
	return nil
}

// ErrUnavailable is a ready-made store failure for tests.
var ErrUnavailable = errors.New("store unavailable")

var _ repositories.PostStore = (*PostRepository)(nil)
