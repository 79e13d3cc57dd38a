package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/blog-comments-api/internal/database"
	"github.com/blog-comments-api/internal/models"
)

const pqForeignKeyViolation = "23503"

const commentColumns = `id, post_id, author_name, author_email, content, status,
	approved_by_source, approved_by, rejection_reason, created_at, updated_at`

const joinedCommentColumns = `c.id, c.post_id, c.author_name, c.author_email, c.content, c.status,
	c.approved_by_source, c.approved_by, c.rejection_reason, c.created_at, c.updated_at,
	COALESCE(p.title, ''), COALESCE(p.slug, '')`

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db *database.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner, extra ...any) (*models.Comment, error) {
	var (
		comment models.Comment
		source  sql.NullString
		actor   sql.NullString
		reason  sql.NullString
	)
	dest := []any{
		&comment.ID, &comment.PostID, &comment.AuthorName, &comment.AuthorEmail,
		&comment.Content, &comment.Status, &source, &actor, &reason,
		&comment.CreatedAt, &comment.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	if source.Valid {
		comment.Attribution = &models.Attribution{
			Source: models.AttributionSource(source.String),
			Actor:  actor.String,
		}
	}
	if reason.Valid {
		comment.RejectionReason = &reason.String
	}
	return &comment, nil
}

func scanCommentWithPost(row rowScanner) (*models.CommentWithPost, error) {
	var title, slug string
	comment, err := scanComment(row, &title, &slug)
	if err != nil {
		return nil, err
	}
	return &models.CommentWithPost{Comment: *comment, PostTitle: title, PostSlug: slug}, nil
}

func attributionArgs(a *models.Attribution) (source, actor sql.NullString) {
	if a == nil {
		return
	}
	source = sql.NullString{String: string(a.Source), Valid: true}
	actor = sql.NullString{String: a.Actor, Valid: a.Actor != ""}
	return
}

// Insert stores a new comment with its decided status.
// A missing post surfaces as models.ErrPostNotFound.
func (r *commentRepo) Insert(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (` + commentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	source, actor := attributionArgs(comment.Attribution)
	_, err := r.db.ExecContext(ctx, query,
		comment.ID, comment.PostID, comment.AuthorName, comment.AuthorEmail,
		comment.Content, comment.Status, source, actor, comment.RejectionReason,
		comment.CreatedAt, comment.UpdatedAt,
	)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
		return models.ErrPostNotFound
	}
	return err
}

// GetByID retrieves a comment by ID
func (r *commentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`

	comment, err := scanComment(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return comment, err
}

// UpdateStatus overwrites the status in a single statement. A nil
// attribution leaves the stored attribution untouched.
func (r *commentRepo) UpdateStatus(ctx context.Context, id string, status models.CommentStatus, attribution *models.Attribution) (*models.Comment, error) {
	var row *sql.Row
	if attribution == nil {
		query := `
			UPDATE comments SET status = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING ` + commentColumns
		row = r.db.QueryRowContext(ctx, query, id, status)
	} else {
		query := `
			UPDATE comments SET status = $2, approved_by_source = $3, approved_by = $4, updated_at = NOW()
			WHERE id = $1
			RETURNING ` + commentColumns
		source, actor := attributionArgs(attribution)
		row = r.db.QueryRowContext(ctx, query, id, status, source, actor)
	}

	comment, err := scanComment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return comment, err
}

// FindApprovedByEmail returns any approved comment by the author
func (r *commentRepo) FindApprovedByEmail(ctx context.Context, email string) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE author_email = $1 AND status = $2 LIMIT 1`

	comment, err := scanComment(r.db.QueryRowContext(ctx, query, email, models.CommentStatusApproved))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return comment, err
}

// List returns comments joined with their post, newest first
func (r *commentRepo) List(ctx context.Context, filter models.ListCommentsFilter) ([]*models.CommentWithPost, error) {
	var (
		conditions []string
		args       []any
	)
	add := func(cond string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}
	if filter.PostID != "" {
		add("c.post_id = $%d", filter.PostID)
	}
	if filter.Status != "" {
		add("c.status = $%d", filter.Status)
	}
	if filter.AuthorEmail != "" {
		add("c.author_email = $%d", filter.AuthorEmail)
	}

	query := `SELECT ` + joinedCommentColumns + ` FROM comments c LEFT JOIN posts p ON p.id = c.post_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY c.created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]*models.CommentWithPost, 0)
	for rows.Next() {
		c, err := scanCommentWithPost(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// ListApprovedByPost returns the approved comments of a post, newest first
func (r *commentRepo) ListApprovedByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE post_id = $1 AND status = $2 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, postID, models.CommentStatusApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]*models.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// Count returns the number of comments, optionally restricted to one status
func (r *commentRepo) Count(ctx context.Context, status models.CommentStatus) (int, error) {
	var count int
	if status == "" {
		err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments").Scan(&count)
		return count, err
	}
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments WHERE status = $1", status).Scan(&count)
	return count, err
}

// CountByStatus returns comment counts keyed by status
func (r *commentRepo) CountByStatus(ctx context.Context) (map[models.CommentStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM comments GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.CommentStatus]int, 3)
	for rows.Next() {
		var (
			status models.CommentStatus
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// CountUniqueAuthors returns the number of distinct author emails
func (r *commentRepo) CountUniqueAuthors(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT author_email) FROM comments").Scan(&count)
	return count, err
}

// Delete removes a comment and reports whether it existed
func (r *commentRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM comments WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// StreamAll streams every comment with its post, oldest first
func (r *commentRepo) StreamAll(ctx context.Context, callback func(*models.CommentWithPost) error) error {
	query := `SELECT ` + joinedCommentColumns + ` FROM comments c LEFT JOIN posts p ON p.id = c.post_id ORDER BY c.created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCommentWithPost(rows)
		if err != nil {
			return err
		}
		if err := callback(c); err != nil {
			return err
		}
	}

	return rows.Err()
}
