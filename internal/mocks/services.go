package mocks

import (
	"context"
	"net/http"

	"github.com/blog-comments-api/internal/models"
	"github.com/blog-comments-api/internal/service"
)

// MockModerationService is a mock implementation of ModerationService
type MockModerationService struct {
	SubmitFunc       func(ctx context.Context, in models.CreateCommentInput) (*models.Comment, error)
	ModerateFunc     func(ctx context.Context, in models.ModerateInput) (*models.Comment, error)
	BulkModerateFunc func(ctx context.Context, ids []string, status models.CommentStatus, moderator string) (models.BulkResult, error)
	Submitted        []models.CreateCommentInput
	Moderated        []models.ModerateInput
}

// Verify interface compliance
var _ service.ModerationService = (*MockModerationService)(nil)

func NewMockModerationService() *MockModerationService {
	return &MockModerationService{}
}

func (m *MockModerationService) Submit(ctx context.Context, in models.CreateCommentInput) (*models.Comment, error) {
	m.Submitted = append(m.Submitted, in)
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, in)
	}
	return &models.Comment{
		ID:          "test-comment-id",
		PostID:      in.PostID,
		AuthorName:  in.AuthorName,
		AuthorEmail: in.AuthorEmail,
		Content:     in.Content,
		Status:      models.CommentStatusPending,
	}, nil
}

func (m *MockModerationService) Moderate(ctx context.Context, in models.ModerateInput) (*models.Comment, error) {
	m.Moderated = append(m.Moderated, in)
	if m.ModerateFunc != nil {
		return m.ModerateFunc(ctx, in)
	}
	comment := &models.Comment{ID: in.CommentID, Status: in.Status}
	if in.Status == models.CommentStatusApproved {
		comment.Attribution = models.ModeratorAttribution(in.ModeratorEmail)
	}
	return comment, nil
}

func (m *MockModerationService) BulkModerate(ctx context.Context, ids []string, status models.CommentStatus, moderator string) (models.BulkResult, error) {
	if m.BulkModerateFunc != nil {
		return m.BulkModerateFunc(ctx, ids, status, moderator)
	}
	return models.BulkResult{Success: true, Succeeded: len(ids)}, nil
}

// MockCommentService is a mock implementation of CommentService
type MockCommentService struct {
	Comments      []*models.CommentWithPost
	Approved      []*models.Comment
	StatsResult   *models.CommentStats
	Pending       int
	SentimentRes  models.SentimentResult
	Err           error
	DeleteFunc    func(ctx context.Context, id string) error
	LastFilter    models.ListCommentsFilter
	LastRecent    int
	DeletedIDs    []string
	BulkDeleteRes models.BulkResult
}

var _ service.CommentService = (*MockCommentService)(nil)

func NewMockCommentService() *MockCommentService {
	return &MockCommentService{
		Comments: make([]*models.CommentWithPost, 0),
		Approved: make([]*models.Comment, 0),
	}
}

func (m *MockCommentService) ListComments(ctx context.Context, filter models.ListCommentsFilter) ([]*models.CommentWithPost, error) {
	m.LastFilter = filter
	return m.Comments, m.Err
}

func (m *MockCommentService) ApprovedForPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Approved, nil
}

func (m *MockCommentService) RecentApproved(ctx context.Context, limit int) ([]*models.CommentWithPost, error) {
	m.LastRecent = limit
	return m.Comments, m.Err
}

func (m *MockCommentService) Stats(ctx context.Context) (*models.CommentStats, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.StatsResult == nil {
		return &models.CommentStats{}, nil
	}
	return m.StatsResult, nil
}

func (m *MockCommentService) PendingCount(ctx context.Context) (int, error) {
	return m.Pending, m.Err
}

func (m *MockCommentService) Delete(ctx context.Context, id string) error {
	m.DeletedIDs = append(m.DeletedIDs, id)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return m.Err
}

func (m *MockCommentService) BulkDelete(ctx context.Context, ids []string) (models.BulkResult, error) {
	m.DeletedIDs = append(m.DeletedIDs, ids...)
	return m.BulkDeleteRes, m.Err
}

func (m *MockCommentService) Sentiment(ctx context.Context, id string) (models.SentimentResult, error) {
	return m.SentimentRes, m.Err
}

// MockExportService is a mock implementation of ExportService
type MockExportService struct {
	Body    string
	Err     error
	Formats []string
}

var _ service.ExportService = (*MockExportService)(nil)

func NewMockExportService() *MockExportService {
	return &MockExportService{}
}

func (m *MockExportService) StreamComments(ctx context.Context, w http.ResponseWriter, format string) error {
	m.Formats = append(m.Formats, format)
	if m.Err != nil {
		return m.Err
	}
	_, err := w.Write([]byte(m.Body))
	return err
}
