package moderation

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/blog-comments-api/internal/metrics"
	"github.com/blog-comments-api/internal/models"
	"github.com/blog-comments-api/internal/validation"
)

// Moderate overwrites the status of one comment. Approvals also record the
// moderator; the rejection reason is never touched.
func (e *Engine) Moderate(ctx context.Context, in models.ModerateInput) (*models.Comment, error) {
	res := validation.ValidateModeration(in)
	if !res.Valid() {
		return nil, res.Errors
	}
	return e.moderate(ctx, res.Value)
}

func (e *Engine) moderate(ctx context.Context, in models.ModerateInput) (*models.Comment, error) {
	var attribution *models.Attribution
	if in.Status == models.CommentStatusApproved {
		attribution = models.ModeratorAttribution(in.ModeratorEmail)
	}

	comment, err := e.comments.UpdateStatus(ctx, in.CommentID, in.Status, attribution)
	if err != nil {
		metrics.ManualModerations.WithLabelValues(string(in.Status), "error").Inc()
		e.log.Error().Err(err).Str("comment_id", in.CommentID).Msg("Failed to moderate comment")
		return nil, fmt.Errorf("update comment %s: %v: %w", in.CommentID, err, models.ErrPersistence)
	}
	if comment == nil {
		metrics.ManualModerations.WithLabelValues(string(in.Status), "not_found").Inc()
		return nil, models.ErrCommentNotFound
	}

	metrics.ManualModerations.WithLabelValues(string(in.Status), "success").Inc()
	e.log.Info().
		Str("comment_id", comment.ID).
		Str("status", string(comment.Status)).
		Str("moderator", in.ModeratorEmail).
		Msg("Comment moderated manually")
	return comment, nil
}

// BulkModerate applies the same status to every id independently. Partial
// failure is reported in the result, not as an error; the error is only set
// when the request itself is invalid. A blank id counts as one failure.
func (e *Engine) BulkModerate(ctx context.Context, ids []string, status models.CommentStatus, moderator string) (models.BulkResult, error) {
	if len(ids) == 0 {
		return models.BulkResult{}, models.ValidationErrors{{Field: "ids", Message: "No se seleccionaron comentarios"}}
	}
	res := validation.ValidateBulkModeration(status, moderator)
	if !res.Valid() {
		return models.BulkResult{}, res.Errors
	}
	status = res.Value.Status
	moderator = res.Value.ModeratorEmail

	succeeded, failed := RunBulk(ctx, ids, e.bulkLimit, func(ctx context.Context, id string) error {
		_, err := e.Moderate(ctx, models.ModerateInput{
			CommentID:      id,
			Status:         status,
			ModeratorEmail: moderator,
		})
		return err
	})

	result := models.BulkResult{
		Success:   failed == 0,
		Succeeded: succeeded,
		Failed:    failed,
	}
	if failed > 0 {
		result.Message = fmt.Sprintf("%d comentarios moderados, %d fallaron", succeeded, failed)
	} else {
		result.Message = fmt.Sprintf("%d comentarios %s exitosamente", succeeded, statusVerb(status))
	}

	e.log.Info().
		Int("succeeded", succeeded).
		Int("failed", failed).
		Str("status", string(status)).
		Msg("Bulk moderation completed")
	return result, nil
}

func statusVerb(status models.CommentStatus) string {
	switch status {
	case models.CommentStatusApproved:
		return "aprobados"
	case models.CommentStatusRejected:
		return "rechazados"
	default:
		return "marcados como pendientes"
	}
}

// RunBulk calls fn for every id with at most limit calls in flight and
// returns how many succeeded and failed. One failure never stops the others.
func RunBulk(ctx context.Context, ids []string, limit int, fn func(ctx context.Context, id string) error) (succeeded, failed int) {
	var ok, ko atomic.Int64

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := fn(ctx, id); err != nil {
				ko.Add(1)
				return nil
			}
			ok.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	return int(ok.Load()), int(ko.Load())
}
