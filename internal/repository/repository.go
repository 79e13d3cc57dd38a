package repository

import (
	"context"

	"github.com/blog-comments-api/internal/database"
	"github.com/blog-comments-api/internal/models"
)

// PostRepository reads posts owned by the CMS
type PostRepository interface {
	GetByID(ctx context.Context, id string) (*models.Post, error)
	MostCommented(ctx context.Context) (*models.PostCommentCount, error)
}

// CommentRepository defines the interface for comment data operations.
// Lookups return nil, nil when the row does not exist.
type CommentRepository interface {
	Insert(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	UpdateStatus(ctx context.Context, id string, status models.CommentStatus, attribution *models.Attribution) (*models.Comment, error)
	FindApprovedByEmail(ctx context.Context, email string) (*models.Comment, error)
	List(ctx context.Context, filter models.ListCommentsFilter) ([]*models.CommentWithPost, error)
	ListApprovedByPost(ctx context.Context, postID string) ([]*models.Comment, error)
	Count(ctx context.Context, status models.CommentStatus) (int, error)
	CountByStatus(ctx context.Context) (map[models.CommentStatus]int, error)
	CountUniqueAuthors(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) (bool, error)
	StreamAll(ctx context.Context, callback func(*models.CommentWithPost) error) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	Post    PostRepository
	Comment CommentRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Post:    NewPostRepo(db),
		Comment: NewCommentRepo(db),
	}
}
