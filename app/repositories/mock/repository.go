package mock

import (
	"context"
	"sync"
	"time"

	"newsroom/app/models"
	"newsroom/app/repositories"
)

// UserRepository is an in-memory repositories.UserRepository.
type UserRepository struct {
	users  map[int]*models.User
	nextID int
	mutex  sync.RWMutex
}

// PostRepository is an in-memory repositories.PostRepository. Deleting a post
// cascades to the linked CommentRepository when one is set.
type PostRepository struct {
	posts    map[int]*models.Post
	nextID   int
	comments *CommentRepository
	mutex    sync.RWMutex
}

// CommentRepository is an in-memory repositories.CommentRepository.
type CommentRepository struct {
	comments map[int]*models.Comment
	nextID   int
	posts    *PostRepository
	users    *UserRepository
	mutex    sync.RWMutex
}

// RevocationRepository is an in-memory repositories.RevocationRepository.
type RevocationRepository struct {
	revoked map[string]time.Time
	mutex   sync.RWMutex
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:  make(map[int]*models.User),
		nextID: 1,
	}
}

func NewPostRepository() *PostRepository {
	return &PostRepository{
		posts:  make(map[int]*models.Post),
		nextID: 1,
	}
}

func NewCommentRepository() *CommentRepository {
	return &CommentRepository{
		comments: make(map[int]*models.Comment),
		nextID:   1,
	}
}

func NewRevocationRepository() *RevocationRepository {
	return &RevocationRepository{revoked: make(map[string]time.Time)}
}

// NewStore wires the in-memory repositories together the way a real backend
// relates them.
func NewStore() *repositories.Store {
	users := NewUserRepository()
	posts := NewPostRepository()
	comments := NewCommentRepository()
	posts.comments = comments
	comments.posts = posts
	comments.users = users
	return repositories.NewStore(users, posts, comments, NewRevocationRepository(), nil)
}

func (m *PostRepository) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.posts = make(map[int]*models.Post)
	m.nextID = 1
}

// UserRepository implementation
func (m *UserRepository) Create(ctx context.Context, user *models.User) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	email := models.NormalizeEmail(user.Email)
	for _, existing := range m.users {
		if existing.Email == email {
			return repositories.ErrDuplicateEmail
		}
	}
	user.ID = m.nextID
	user.Email = email
	user.BeforeCreate()
	m.nextID++
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *UserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	user, exists := m.users[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	email = models.NormalizeEmail(email)
	for _, user := range m.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// Delete removes a user. The application never deletes users; tests use it to
// simulate out-of-band removal.
func (m *UserRepository) Delete(id int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.users, id)
}

func (m *UserRepository) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.users)
}

// PostRepository implementation
func (m *PostRepository) Create(ctx context.Context, post *models.Post) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, existing := range m.posts {
		if existing.Title == post.Title {
			return repositories.ErrDuplicateTitle
		}
		if existing.Content == post.Content {
			return repositories.ErrDuplicateContent
		}
	}
	post.ID = m.nextID
	post.BeforeCreate()
	m.nextID++
	stored := *post
	m.posts[post.ID] = &stored
	return nil
}

func (m *PostRepository) GetByID(ctx context.Context, id int) (*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	post, exists := m.posts[id]
	if !exists {
		return nil, repositories.ErrNotFound
	}
	copied := *post
	return &copied, nil
}

func (m *PostRepository) Delete(ctx context.Context, id int) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.posts[id]; !exists {
		return repositories.ErrNotFound
	}
	delete(m.posts, id)
	if m.comments != nil {
		m.comments.deleteByPost(id)
	}
	return nil
}

func (m *PostRepository) List(ctx context.Context) ([]*models.Post, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	posts := []*models.Post{}
	for id := 1; id < m.nextID; id++ {
		if post, exists := m.posts[id]; exists {
			copied := *post
			posts = append(posts, &copied)
		}
	}
	return posts, nil
}

func (m *PostRepository) has(id int) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	_, ok := m.posts[id]
	return ok
}

// CommentRepository implementation
func (m *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if m.posts != nil && !m.posts.has(comment.PostID) {
		return repositories.ErrNotFound
	}
	if m.users != nil {
		if _, err := m.users.GetByID(ctx, comment.UserID); err != nil {
			return err
		}
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	comment.ID = m.nextID
	comment.BeforeCreate()
	m.nextID++
	stored := *comment
	m.comments[comment.ID] = &stored
	return nil
}

func (m *CommentRepository) ListByPost(ctx context.Context, postID int) ([]*models.Comment, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	comments := []*models.Comment{}
	for id := 1; id < m.nextID; id++ {
		if comment, exists := m.comments[id]; exists && comment.PostID == postID {
			copied := *comment
			comments = append(comments, &copied)
		}
	}
	return comments, nil
}

func (m *CommentRepository) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.comments)
}

func (m *CommentRepository) deleteByPost(postID int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for id, comment := range m.comments {
		if comment.PostID == postID {
			delete(m.comments, id)
		}
	}
}

// RevocationRepository implementation
func (m *RevocationRepository) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.revoked[tokenID] = until
	return nil
}

func (m *RevocationRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	until, ok := m.revoked[tokenID]
	return ok && time.Now().Before(until), nil
}
