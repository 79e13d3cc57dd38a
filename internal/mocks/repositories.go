package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/blog-comments-api/internal/models"
	"github.com/blog-comments-api/internal/repository"
)

// MockPostRepository is a mock implementation of PostRepository
type MockPostRepository struct {
	Posts    map[string]*models.Post
	GetError error
	Most     *models.PostCommentCount
}

var _ repository.PostRepository = (*MockPostRepository)(nil)

func NewMockPostRepository() *MockPostRepository {
	return &MockPostRepository{Posts: make(map[string]*models.Post)}
}

// AddPost stores a post with the given status
func (m *MockPostRepository) AddPost(id, title string, status models.PostStatus) *models.Post {
	post := &models.Post{ID: id, Title: title, Slug: id, Status: status, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.Posts[id] = post
	return post
}

func (m *MockPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	return m.Posts[id], nil
}

func (m *MockPostRepository) MostCommented(ctx context.Context) (*models.PostCommentCount, error) {
	return m.Most, nil
}

// MockCommentRepository is a map-backed CommentRepository safe for
// concurrent use
type MockCommentRepository struct {
	mu          sync.Mutex
	Comments    map[string]*models.Comment
	InsertError error
	UpdateError error
	FindError   error
	DeleteError error
	Inserted    []*models.Comment
	TrustCalls  []string
}

var _ repository.CommentRepository = (*MockCommentRepository)(nil)

func NewMockCommentRepository() *MockCommentRepository {
	return &MockCommentRepository{Comments: make(map[string]*models.Comment)}
}

// Add stores a comment directly, bypassing InsertError
func (m *MockCommentRepository) Add(c *models.Comment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Comments[c.ID] = c
}

func (m *MockCommentRepository) Insert(ctx context.Context, comment *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertError != nil {
		return m.InsertError
	}
	stored := *comment
	m.Comments[comment.ID] = &stored
	m.Inserted = append(m.Inserted, &stored)
	return nil
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.Comments[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (m *MockCommentRepository) UpdateStatus(ctx context.Context, id string, status models.CommentStatus, attribution *models.Attribution) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateError != nil {
		return nil, m.UpdateError
	}
	c, ok := m.Comments[id]
	if !ok {
		return nil, nil
	}
	c.Status = status
	if attribution != nil {
		a := *attribution
		c.Attribution = &a
	}
	c.UpdatedAt = time.Now()
	copied := *c
	return &copied, nil
}

func (m *MockCommentRepository) FindApprovedByEmail(ctx context.Context, email string) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TrustCalls = append(m.TrustCalls, email)
	if m.FindError != nil {
		return nil, m.FindError
	}
	for _, c := range m.Comments {
		if c.AuthorEmail == email && c.Status == models.CommentStatusApproved {
			return c, nil
		}
	}
	return nil, nil
}

func (m *MockCommentRepository) List(ctx context.Context, filter models.ListCommentsFilter) ([]*models.CommentWithPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.CommentWithPost, 0)
	for _, c := range m.sortedLocked() {
		if filter.PostID != "" && c.PostID != filter.PostID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.AuthorEmail != "" && c.AuthorEmail != filter.AuthorEmail {
			continue
		}
		out = append(out, &models.CommentWithPost{Comment: *c})
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *MockCommentRepository) ListApprovedByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Comment, 0)
	for _, c := range m.sortedLocked() {
		if c.PostID == postID && c.Status == models.CommentStatusApproved {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockCommentRepository) Count(ctx context.Context, status models.CommentStatus) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Comments {
		if status == "" || c.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *MockCommentRepository) CountByStatus(ctx context.Context) (map[models.CommentStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[models.CommentStatus]int)
	for _, c := range m.Comments {
		counts[c.Status]++
	}
	return counts, nil
}

func (m *MockCommentRepository) CountUniqueAuthors(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[string]bool)
	for _, c := range m.Comments {
		seen[c.AuthorEmail] = true
	}
	return len(seen), nil
}

func (m *MockCommentRepository) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteError != nil {
		return false, m.DeleteError
	}
	if _, ok := m.Comments[id]; !ok {
		return false, nil
	}
	delete(m.Comments, id)
	return true, nil
}

func (m *MockCommentRepository) StreamAll(ctx context.Context, callback func(*models.CommentWithPost) error) error {
	m.mu.Lock()
	comments := m.sortedLocked()
	m.mu.Unlock()

	// Oldest first, like the SQL implementation
	for i := len(comments) - 1; i >= 0; i-- {
		if err := callback(&models.CommentWithPost{Comment: *comments[i]}); err != nil {
			return err
		}
	}
	return nil
}

// sortedLocked returns comments newest first; callers hold mu
func (m *MockCommentRepository) sortedLocked() []*models.Comment {
	out := make([]*models.Comment, 0, len(m.Comments))
	for _, c := range m.Comments {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
