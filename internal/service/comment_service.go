package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/blog-comments-api/internal/models"
	"github.com/blog-comments-api/internal/moderation"
	"github.com/blog-comments-api/internal/repository"
)

const (
	defaultListLimit   = 100
	defaultRecentLimit = 5
)

// commentService is the concrete implementation of CommentService
type commentService struct {
	repos     *repository.Repositories
	sentiment SentimentAnalyzer
	bulkLimit int
	log       zerolog.Logger
}

// newCommentService creates a new CommentService
func newCommentService(repos *repository.Repositories, sentiment SentimentAnalyzer, bulkLimit int, log zerolog.Logger) *commentService {
	return &commentService{
		repos:     repos,
		sentiment: sentiment,
		bulkLimit: bulkLimit,
		log:       log.With().Str("service", "comments").Logger(),
	}
}

// ListComments returns comments matching filter, newest first
func (s *commentService) ListComments(ctx context.Context, filter models.ListCommentsFilter) ([]*models.CommentWithPost, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	return s.repos.Comment.List(ctx, filter)
}

// ApprovedForPost returns the comments shown under a post
func (s *commentService) ApprovedForPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	post, err := s.repos.Post.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, models.ErrPostNotFound
	}
	return s.repos.Comment.ListApprovedByPost(ctx, postID)
}

// RecentApproved returns the latest approved comments across all posts
func (s *commentService) RecentApproved(ctx context.Context, limit int) ([]*models.CommentWithPost, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	return s.repos.Comment.List(ctx, models.ListCommentsFilter{
		Status: models.CommentStatusApproved,
		Limit:  limit,
	})
}

// Stats gathers dashboard counters concurrently
func (s *commentService) Stats(ctx context.Context) (*models.CommentStats, error) {
	var (
		byStatus map[models.CommentStatus]int
		unique   int
		most     *models.PostCommentCount
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byStatus, err = s.repos.Comment.CountByStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		unique, err = s.repos.Comment.CountUniqueAuthors(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		most, err = s.repos.Post.MostCommented(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("collect comment stats: %w", err)
	}

	stats := &models.CommentStats{
		Approved:          byStatus[models.CommentStatusApproved],
		Pending:           byStatus[models.CommentStatusPending],
		Rejected:          byStatus[models.CommentStatusRejected],
		UniqueCommenters:  unique,
		MostCommentedPost: most,
	}
	stats.Total = stats.Approved + stats.Pending + stats.Rejected
	return stats, nil
}

// PendingCount returns the size of the moderation queue
func (s *commentService) PendingCount(ctx context.Context) (int, error) {
	return s.repos.Comment.Count(ctx, models.CommentStatusPending)
}

// Delete permanently removes a comment
func (s *commentService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repos.Comment.Delete(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Str("comment_id", id).Msg("Failed to delete comment")
		return fmt.Errorf("delete comment %s: %v: %w", id, err, models.ErrPersistence)
	}
	if !deleted {
		return models.ErrCommentNotFound
	}
	s.log.Info().Str("comment_id", id).Msg("Comment deleted")
	return nil
}

// BulkDelete deletes every id independently and reports the counts
func (s *commentService) BulkDelete(ctx context.Context, ids []string) (models.BulkResult, error) {
	if len(ids) == 0 {
		return models.BulkResult{}, models.ValidationErrors{{Field: "ids", Message: "No se seleccionaron comentarios"}}
	}

	succeeded, failed := moderation.RunBulk(ctx, ids, s.bulkLimit, s.Delete)

	result := models.BulkResult{
		Success:   failed == 0,
		Succeeded: succeeded,
		Failed:    failed,
	}
	if failed > 0 {
		result.Message = fmt.Sprintf("%d comentarios eliminados, %d fallaron", succeeded, failed)
	} else {
		result.Message = fmt.Sprintf("%d comentarios eliminados permanentemente", succeeded)
	}
	return result, nil
}

// Sentiment asks the AI gateway for the tone of a stored comment.
// A missing signal is not an error.
func (s *commentService) Sentiment(ctx context.Context, id string) (models.SentimentResult, error) {
	comment, err := s.repos.Comment.GetByID(ctx, id)
	if err != nil {
		return models.SentimentResult{}, fmt.Errorf("get comment %s: %v: %w", id, err, models.ErrPersistence)
	}
	if comment == nil {
		return models.SentimentResult{}, models.ErrCommentNotFound
	}

	res := s.sentiment.Sentiment(ctx, comment.Content)
	if !res.Available() {
		s.log.Warn().Err(res.Cause).Str("comment_id", id).Msg("No sentiment signal")
	}
	return res, nil
}
