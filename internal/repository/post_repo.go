package repository

import (
	"context"
	"database/sql"

	"github.com/blog-comments-api/internal/database"
	"github.com/blog-comments-api/internal/models"
)

// postRepo is the concrete implementation of PostRepository
type postRepo struct {
	db *database.DB
}

// NewPostRepo creates a new post repository
func NewPostRepo(db *database.DB) PostRepository {
	return &postRepo{db: db}
}

// GetByID retrieves a post by ID
func (r *postRepo) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT id, title, slug, status, created_at, updated_at FROM posts WHERE id = $1`

	var post models.Post
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&post.ID, &post.Title, &post.Slug, &post.Status, &post.CreatedAt, &post.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &post, nil
}

// MostCommented returns the post with the most comments of any status
func (r *postRepo) MostCommented(ctx context.Context) (*models.PostCommentCount, error) {
	query := `
		SELECT p.id, p.title, COUNT(c.id) AS comment_count
		FROM posts p
		JOIN comments c ON c.post_id = p.id
		GROUP BY p.id, p.title
		ORDER BY comment_count DESC, p.title
		LIMIT 1
	`

	var pc models.PostCommentCount
	err := r.db.QueryRowContext(ctx, query).Scan(&pc.PostID, &pc.Title, &pc.CommentCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &pc, nil
}
