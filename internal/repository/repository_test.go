package repository_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blog-comments-api/internal/database"
	"github.com/blog-comments-api/internal/models"
	"github.com/blog-comments-api/internal/repository"
)

var commentCols = []string{
	"id", "post_id", "author_name", "author_email", "content", "status",
	"approved_by_source", "approved_by", "rejection_reason", "created_at", "updated_at",
}

func newMockRepos(t *testing.T) (*repository.Repositories, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return repository.New(database.Wrap(sqlDB, zerolog.Nop())), mock
}

func commentRow(id string, status models.CommentStatus, source, actor, reason driver.Value) []driver.Value {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return []driver.Value{
		id, "post-1", "Ana", "ana@example.com", "Muy buen vino", string(status),
		source, actor, reason, now, now,
	}
}

func TestPostRepo_GetByID(t *testing.T) {
	repos, mock := newMockRepos(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM posts WHERE id = $1")).
		WithArgs("post-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "slug", "status", "created_at", "updated_at"}).
			AddRow("post-1", "Tannat de Canelones", "tannat-de-canelones", "PUBLISHED", now, now))

	post, err := repos.Post.GetByID(context.Background(), "post-1")
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.Equal(t, "Tannat de Canelones", post.Title)
	assert.True(t, post.IsPublished())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepo_GetByID_NotFound(t *testing.T) {
	repos, mock := newMockRepos(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM posts WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "slug", "status", "created_at", "updated_at"}))

	post, err := repos.Post.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, post)
}

func TestPostRepo_MostCommented(t *testing.T) {
	repos, mock := newMockRepos(t)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY p.id, p.title")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "comment_count"}).
			AddRow("post-1", "Tannat de Canelones", 12))

	pc, err := repos.Post.MostCommented(context.Background())
	require.NoError(t, err)
	require.NotNil(t, pc)
	assert.Equal(t, 12, pc.CommentCount)
}

func TestCommentRepo_Insert(t *testing.T) {
	repos, mock := newMockRepos(t)
	now := time.Now()
	reason := "detected as spam by basic filter"

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO comments")).
		WithArgs("c1", "post-1", "Ana", "ana@example.com", "hola", "REJECTED",
			nil, nil, reason, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repos.Comment.Insert(context.Background(), &models.Comment{
		ID: "c1", PostID: "post-1", AuthorName: "Ana", AuthorEmail: "ana@example.com",
		Content: "hola", Status: models.CommentStatusRejected, RejectionReason: &reason,
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepo_Insert_WithAttribution(t *testing.T) {
	repos, mock := newMockRepos(t)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO comments")).
		WithArgs("c1", "post-1", "Ana", "ana@example.com", "hola", "APPROVED",
			"trust_history", nil, nil, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repos.Comment.Insert(context.Background(), &models.Comment{
		ID: "c1", PostID: "post-1", AuthorName: "Ana", AuthorEmail: "ana@example.com",
		Content: "hola", Status: models.CommentStatusApproved, Attribution: models.TrustAttribution(),
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepo_Insert_MissingPost(t *testing.T) {
	repos, mock := newMockRepos(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO comments")).
		WillReturnError(&pq.Error{Code: "23503"})

	err := repos.Comment.Insert(context.Background(), &models.Comment{ID: "c1", PostID: "gone"})
	assert.ErrorIs(t, err, models.ErrPostNotFound)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCommentRepo_UpdateStatus(t *testing.T) {
	t.Run("approval writes attribution", func(t *testing.T) {
		repos, mock := newMockRepos(t)

		mock.ExpectQuery(regexp.QuoteMeta("approved_by_source = $3, approved_by = $4")).
			WithArgs("c1", "APPROVED", "moderator", "gabi@gabizimmer.com").
			WillReturnRows(sqlmock.NewRows(commentCols).
				AddRow(commentRow("c1", models.CommentStatusApproved, "moderator", "gabi@gabizimmer.com", nil)...))

		c, err := repos.Comment.UpdateStatus(context.Background(), "c1",
			models.CommentStatusApproved, models.ModeratorAttribution("gabi@gabizimmer.com"))
		require.NoError(t, err)
		require.NotNil(t, c.Attribution)
		assert.Equal(t, models.SourceModerator, c.Attribution.Source)
		assert.Equal(t, "gabi@gabizimmer.com", c.Attribution.Actor)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejection keeps reason and attribution", func(t *testing.T) {
		repos, mock := newMockRepos(t)

		mock.ExpectQuery(regexp.QuoteMeta("UPDATE comments SET status = $2, updated_at = NOW()")).
			WithArgs("c1", "REJECTED").
			WillReturnRows(sqlmock.NewRows(commentCols).
				AddRow(commentRow("c1", models.CommentStatusRejected, "ai_agent", nil, "off-topic")...))

		c, err := repos.Comment.UpdateStatus(context.Background(), "c1", models.CommentStatusRejected, nil)
		require.NoError(t, err)
		require.NotNil(t, c.RejectionReason)
		assert.Equal(t, "off-topic", *c.RejectionReason)
		assert.Equal(t, models.SourceAIAgent, c.Attribution.Source)
	})

	t.Run("unknown id", func(t *testing.T) {
		repos, mock := newMockRepos(t)

		mock.ExpectQuery(regexp.QuoteMeta("UPDATE comments")).
			WillReturnRows(sqlmock.NewRows(commentCols))

		c, err := repos.Comment.UpdateStatus(context.Background(), "missing", models.CommentStatusPending, nil)
		require.NoError(t, err)
		assert.Nil(t, c)
	})
}

func TestCommentRepo_FindApprovedByEmail(t *testing.T) {
	repos, mock := newMockRepos(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE author_email = $1 AND status = $2 LIMIT 1")).
		WithArgs("ana@example.com", "APPROVED").
		WillReturnRows(sqlmock.NewRows(commentCols).
			AddRow(commentRow("c1", models.CommentStatusApproved, "ai_agent", nil, nil)...))

	c, err := repos.Comment.FindApprovedByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Nil(t, c.RejectionReason)
}

func TestCommentRepo_List_BuildsFilters(t *testing.T) {
	repos, mock := newMockRepos(t)

	cols := append(append([]string{}, commentCols...), "title", "slug")
	row := append(commentRow("c1", models.CommentStatusPending, nil, nil, nil), "Tannat", "tannat")

	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.post_id = $1 AND c.status = $2 ORDER BY c.created_at DESC LIMIT $3")).
		WithArgs("post-1", "PENDING", 20).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(row...))

	comments, err := repos.Comment.List(context.Background(), models.ListCommentsFilter{
		PostID: "post-1",
		Status: models.CommentStatusPending,
		Limit:  20,
	})
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Tannat", comments[0].PostTitle)
	assert.Nil(t, comments[0].Attribution)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommentRepo_CountByStatus(t *testing.T) {
	repos, mock := newMockRepos(t)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("APPROVED", 7).
			AddRow("PENDING", 2))

	counts, err := repos.Comment.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, counts[models.CommentStatusApproved])
	assert.Equal(t, 2, counts[models.CommentStatusPending])
	assert.Equal(t, 0, counts[models.CommentStatusRejected])
}

func TestCommentRepo_Delete(t *testing.T) {
	repos, mock := newMockRepos(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM comments WHERE id = $1")).
		WithArgs("c1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM comments WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repos.Comment.Delete(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repos.Comment.Delete(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestCommentRepo_StreamAll_StopsOnCallbackError(t *testing.T) {
	repos, mock := newMockRepos(t)

	cols := append(append([]string{}, commentCols...), "title", "slug")
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN posts p ON p.id = c.post_id ORDER BY c.created_at")).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(append(commentRow("c1", models.CommentStatusApproved, nil, nil, nil), "T", "t")...).
			AddRow(append(commentRow("c2", models.CommentStatusApproved, nil, nil, nil), "T", "t")...))

	stop := errors.New("stop")
	seen := 0
	err := repos.Comment.StreamAll(context.Background(), func(*models.CommentWithPost) error {
		seen++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, seen)
}
