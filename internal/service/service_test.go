package service_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blog-comments-api/internal/config"
	"github.com/blog-comments-api/internal/mocks"
	"github.com/blog-comments-api/internal/models"
	"github.com/blog-comments-api/internal/repository"
	"github.com/blog-comments-api/internal/service"
)

type testEnv struct {
	posts      *mocks.MockPostRepository
	comments   *mocks.MockCommentRepository
	classifier *mocks.MockClassifier
	services   *service.Services
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		posts:      mocks.NewMockPostRepository(),
		comments:   mocks.NewMockCommentRepository(),
		classifier: mocks.NewMockClassifier(),
	}
	env.posts.AddPost("post-1", "Vinos de Uruguay", models.PostStatusPublished)

	repos := &repository.Repositories{Post: env.posts, Comment: env.comments}
	cfg := &config.Config{Server: config.ServerConfig{BulkConcurrency: 4}}
	env.services = service.NewServices(repos, env.classifier, mocks.NewMockNotifier(), cfg, zerolog.Nop())
	return env
}

func (e *testEnv) add(id, email string, status models.CommentStatus, at time.Time) {
	e.comments.Add(&models.Comment{
		ID:          id,
		PostID:      "post-1",
		AuthorName:  "Ana",
		AuthorEmail: email,
		Content:     "contenido " + id,
		Status:      status,
		CreatedAt:   at,
		UpdatedAt:   at,
	})
}

func TestServices_SubmitThroughEngine(t *testing.T) {
	env := newTestEnv(t)

	comment, err := env.services.Moderation.Submit(context.Background(), models.CreateCommentInput{
		PostID:      "post-1",
		AuthorName:  "Ana",
		AuthorEmail: "ana@example.com",
		Content:     "Buen post",
	})
	require.NoError(t, err)
	assert.Equal(t, models.CommentStatusPending, comment.Status)
	assert.Len(t, env.comments.Inserted, 1)
}

func TestCommentService_Stats(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now()
	env.add("a", "ana@example.com", models.CommentStatusApproved, now)
	env.add("b", "ana@example.com", models.CommentStatusPending, now)
	env.add("c", "luis@example.com", models.CommentStatusRejected, now)
	env.add("d", "eva@example.com", models.CommentStatusPending, now)
	env.posts.Most = &models.PostCommentCount{PostID: "post-1", Title: "Vinos de Uruguay", CommentCount: 4}

	stats, err := env.services.Comments.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Approved)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 3, stats.UniqueCommenters)
	require.NotNil(t, stats.MostCommentedPost)
	assert.Equal(t, 4, stats.MostCommentedPost.CommentCount)

	pending, err := env.services.Comments.PendingCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, pending)
}

func TestCommentService_ListDefaultsAndRecent(t *testing.T) {
	env := newTestEnv(t)
	base := time.Now()
	for i, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		env.add(id, "ana@example.com", models.CommentStatusApproved, base.Add(time.Duration(i)*time.Minute))
	}
	env.add("p", "ana@example.com", models.CommentStatusPending, base.Add(time.Hour))

	recent, err := env.services.Comments.RecentApproved(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recent, 5)
	assert.Equal(t, "g", recent[0].ID)

	pending, err := env.services.Comments.ListComments(context.Background(), models.ListCommentsFilter{Status: models.CommentStatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "p", pending[0].ID)
}

func TestCommentService_ApprovedForPost(t *testing.T) {
	env := newTestEnv(t)
	env.add("a", "ana@example.com", models.CommentStatusApproved, time.Now())
	env.add("b", "ana@example.com", models.CommentStatusPending, time.Now())

	approved, err := env.services.Comments.ApprovedForPost(context.Background(), "post-1")
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "a", approved[0].ID)

	_, err = env.services.Comments.ApprovedForPost(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCommentService_Delete(t *testing.T) {
	env := newTestEnv(t)
	env.add("a", "ana@example.com", models.CommentStatusApproved, time.Now())

	require.NoError(t, env.services.Comments.Delete(context.Background(), "a"))
	assert.ErrorIs(t, env.services.Comments.Delete(context.Background(), "a"), models.ErrNotFound)

	env.comments.DeleteError = errors.New("locked")
	env.add("b", "ana@example.com", models.CommentStatusApproved, time.Now())
	assert.ErrorIs(t, env.services.Comments.Delete(context.Background(), "b"), models.ErrPersistence)
}

func TestCommentService_BulkDelete(t *testing.T) {
	env := newTestEnv(t)
	env.add("a", "ana@example.com", models.CommentStatusApproved, time.Now())
	env.add("b", "ana@example.com", models.CommentStatusPending, time.Now())

	result, err := env.services.Comments.BulkDelete(context.Background(), []string{"a", "b", "zzz"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "2 comentarios eliminados, 1 fallaron", result.Message)

	env.add("c", "ana@example.com", models.CommentStatusApproved, time.Now())
	result, err = env.services.Comments.BulkDelete(context.Background(), []string{"c"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "1 comentarios eliminados permanentemente", result.Message)

	_, err = env.services.Comments.BulkDelete(context.Background(), []string{})
	var verrs models.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
}

func TestCommentService_Sentiment(t *testing.T) {
	env := newTestEnv(t)
	env.add("a", "ana@example.com", models.CommentStatusApproved, time.Now())

	env.classifier.SentimentResult = models.SentimentResult{Sentiment: models.SentimentPositive}
	res, err := env.services.Comments.Sentiment(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentPositive, res.Sentiment)

	env.classifier.SentimentResult = models.SentimentResult{Cause: errors.New("timeout")}
	res, err = env.services.Comments.Sentiment(context.Background(), "a")
	require.NoError(t, err)
	assert.False(t, res.Available())

	_, err = env.services.Comments.Sentiment(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func seedExport(env *testEnv) {
	base := time.Date(2024, 3, 9, 18, 30, 0, 0, time.UTC)
	env.comments.Add(&models.Comment{
		ID: "a", PostID: "post-1", AuthorName: "Ana", AuthorEmail: "ana@example.com",
		Content: "hola, \"mundo\"", Status: models.CommentStatusApproved,
		Attribution: models.ModeratorAttribution("gabi@example.com"),
		CreatedAt:   base, UpdatedAt: base,
	})
	reason := "detected as spam by basic filter"
	env.comments.Add(&models.Comment{
		ID: "b", PostID: "post-1", AuthorName: "Bot", AuthorEmail: "bot@example.com",
		Content: "casino", Status: models.CommentStatusRejected, RejectionReason: &reason,
		CreatedAt: base.Add(time.Minute), UpdatedAt: base.Add(time.Minute),
	})
}

func TestExportService_NDJSON(t *testing.T) {
	env := newTestEnv(t)
	seedExport(env)
	rec := httptest.NewRecorder()

	require.NoError(t, env.services.Export.StreamComments(context.Background(), rec, service.FormatNDJSON))

	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)

	var first models.CommentWithPost
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "a", first.ID)
	require.NotNil(t, first.Attribution)
	assert.Equal(t, models.SourceModerator, first.Attribution.Source)
}

func TestExportService_JSON(t *testing.T) {
	env := newTestEnv(t)
	seedExport(env)
	rec := httptest.NewRecorder()

	require.NoError(t, env.services.Export.StreamComments(context.Background(), rec, service.FormatJSON))

	var out []models.CommentWithPost
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[1].ID)
	require.NotNil(t, out[1].RejectionReason)
}

func TestExportService_EmptyJSON(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()

	require.NoError(t, env.services.Export.StreamComments(context.Background(), rec, service.FormatJSON))
	assert.Equal(t, "[]", rec.Body.String())
}

func TestExportService_CSV(t *testing.T) {
	env := newTestEnv(t)
	seedExport(env)
	rec := httptest.NewRecorder()

	require.NoError(t, env.services.Export.StreamComments(context.Background(), rec, service.FormatCSV))

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "id", records[0][0])
	assert.Equal(t, "hola, \"mundo\"", records[1][5])
	assert.Equal(t, "moderator", records[1][7])
	assert.Equal(t, "gabi@example.com", records[1][8])
	assert.Equal(t, "detected as spam by basic filter", records[2][9])
	assert.Equal(t, "2024-03-09T18:30:00Z", records[1][10])
}

func TestExportService_UnsupportedFormat(t *testing.T) {
	env := newTestEnv(t)
	rec := httptest.NewRecorder()

	err := env.services.Export.StreamComments(context.Background(), rec, "xml")
	assert.Error(t, err)
}
