package service

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/blog-comments-api/internal/config"
	"github.com/blog-comments-api/internal/models"
	"github.com/blog-comments-api/internal/moderation"
	"github.com/blog-comments-api/internal/repository"
)

// ModerationService decides and overrides comment statuses
type ModerationService interface {
	Submit(ctx context.Context, in models.CreateCommentInput) (*models.Comment, error)
	Moderate(ctx context.Context, in models.ModerateInput) (*models.Comment, error)
	BulkModerate(ctx context.Context, ids []string, status models.CommentStatus, moderator string) (models.BulkResult, error)
}

// CommentService defines the read and delete operations of the admin panel
type CommentService interface {
	ListComments(ctx context.Context, filter models.ListCommentsFilter) ([]*models.CommentWithPost, error)
	ApprovedForPost(ctx context.Context, postID string) ([]*models.Comment, error)
	RecentApproved(ctx context.Context, limit int) ([]*models.CommentWithPost, error)
	Stats(ctx context.Context) (*models.CommentStats, error)
	PendingCount(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error
	BulkDelete(ctx context.Context, ids []string) (models.BulkResult, error)
	Sentiment(ctx context.Context, id string) (models.SentimentResult, error)
}

// ExportService defines the interface for export operations
type ExportService interface {
	StreamComments(ctx context.Context, w http.ResponseWriter, format string) error
}

// SentimentAnalyzer estimates the tone of a comment
type SentimentAnalyzer interface {
	Sentiment(ctx context.Context, content string) models.SentimentResult
}

// Classifier is the AI gateway used for moderation and sentiment
type Classifier interface {
	moderation.Classifier
	SentimentAnalyzer
}

// Services holds all service interfaces
type Services struct {
	Moderation ModerationService
	Comments   CommentService
	Export     ExportService
}

// NewServices wires the moderation engine and the admin services
func NewServices(repos *repository.Repositories, classifier Classifier, notifier moderation.Notifier, cfg *config.Config, log zerolog.Logger) *Services {
	engine := moderation.NewEngine(moderation.Deps{
		Posts:      repos.Post,
		Comments:   repos.Comment,
		Classifier: classifier,
		Notifier:   notifier,
	}, log, moderation.WithBulkLimit(cfg.Server.BulkConcurrency))

	return &Services{
		Moderation: engine,
		Comments:   newCommentService(repos, classifier, cfg.Server.BulkConcurrency, log),
		Export:     newExportService(repos, log),
	}
}
