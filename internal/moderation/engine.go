// Package moderation decides the status of incoming comments and applies
// manual overrides. The decision order is AI verdict, then the spam
// heuristic, then the author's approval history.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/blog-comments-api/internal/metrics"
	"github.com/blog-comments-api/internal/models"
	"github.com/blog-comments-api/internal/validation"
)

// Reasons recorded on automated rejections
const (
	ReasonAIFallback = "rejected by AI moderation"
	ReasonSpamFilter = "detected as spam by basic filter"
)

// Decision paths, used as metric labels
const (
	PathAI      = "ai"
	PathSpam    = "spam_filter"
	PathTrust   = "trust_history"
	PathPending = "pending"
)

// PostLookup finds the post a comment is submitted to. It returns nil, nil
// when the post does not exist.
type PostLookup interface {
	GetByID(ctx context.Context, id string) (*models.Post, error)
}

// CommentStore persists comments
type CommentStore interface {
	Insert(ctx context.Context, comment *models.Comment) error
	UpdateStatus(ctx context.Context, id string, status models.CommentStatus, attribution *models.Attribution) (*models.Comment, error)
	FindApprovedByEmail(ctx context.Context, email string) (*models.Comment, error)
}

// Classifier returns a verdict or the reason none is available. It must
// enforce its own timeout.
type Classifier interface {
	Classify(ctx context.Context, req models.ClassifyRequest) models.ClassifierResult
}

// Notifier delivers rejection notices without blocking the caller
type Notifier interface {
	Notify(ctx context.Context, notice models.RejectionNotice)
}

// Deps are the collaborators of an Engine
type Deps struct {
	Posts      PostLookup
	Comments   CommentStore
	Classifier Classifier
	Notifier   Notifier
}

// Engine runs automatic and manual moderation
type Engine struct {
	posts      PostLookup
	comments   CommentStore
	classifier Classifier
	notifier   Notifier
	trust      *TrustStore
	bulkLimit  int
	now        func() time.Time
	log        zerolog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithBulkLimit bounds how many comments a bulk operation touches at once
func WithBulkLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.bulkLimit = n
		}
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine
func NewEngine(deps Deps, log zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		posts:      deps.Posts,
		comments:   deps.Comments,
		classifier: deps.Classifier,
		notifier:   deps.Notifier,
		trust:      NewTrustStore(deps.Comments),
		bulkLimit:  8,
		now:        time.Now,
		log:        log.With().Str("component", "moderation").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit validates a public submission, decides its status and persists it.
// Returned errors are models.ValidationErrors, or wrap models.ErrNotFound,
// models.ErrInvalidState or models.ErrPersistence.
func (e *Engine) Submit(ctx context.Context, in models.CreateCommentInput) (*models.Comment, error) {
	res := validation.ValidateComment(in)
	if !res.Valid() {
		return nil, res.Errors
	}
	input := res.Value

	post, err := e.posts.GetByID(ctx, input.PostID)
	if err != nil {
		return nil, fmt.Errorf("lookup post %s: %v: %w", input.PostID, err, models.ErrPersistence)
	}
	if post == nil {
		return nil, models.ErrPostNotFound
	}
	if !post.IsPublished() {
		return nil, models.ErrPostNotPublished
	}

	if IsSuspiciousEmail(input.AuthorEmail) {
		metrics.SuspiciousEmails.Inc()
		e.log.Warn().
			Str("post_id", post.ID).
			Str("author_email", input.AuthorEmail).
			Msg("Suspicious author email")
	}

	now := e.now()
	comment := &models.Comment{
		ID:          uuid.New().String(),
		PostID:      post.ID,
		AuthorName:  input.AuthorName,
		AuthorEmail: input.AuthorEmail,
		Content:     input.Content,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	result := e.classifier.Classify(ctx, models.ClassifyRequest{
		Content:     input.Content,
		PostTitle:   post.Title,
		AuthorName:  input.AuthorName,
		AuthorEmail: input.AuthorEmail,
	})

	var path string
	notify := false
	if result.Available() {
		path = PathAI
		notify = applyVerdict(comment, result.Verdict)
	} else {
		e.log.Info().
			Err(result.Cause).
			Str("post_id", post.ID).
			Msg("No AI verdict, using fallback moderation")
		path = e.applyFallback(ctx, comment)
	}

	if err := e.comments.Insert(ctx, comment); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		e.log.Error().Err(err).Str("post_id", post.ID).Msg("Failed to insert comment")
		return nil, fmt.Errorf("insert comment: %v: %w", err, models.ErrPersistence)
	}

	metrics.ObserveDecision(path, string(comment.Status))
	e.log.Info().
		Str("comment_id", comment.ID).
		Str("post_id", post.ID).
		Str("status", string(comment.Status)).
		Str("path", path).
		Msg("Comment moderated")

	if notify {
		e.notifier.Notify(ctx, models.RejectionNotice{
			CommentID:   comment.ID,
			Content:     comment.Content,
			PostTitle:   post.Title,
			AuthorName:  comment.AuthorName,
			AuthorEmail: comment.AuthorEmail,
			Reason:      *comment.RejectionReason,
			Date:        comment.CreatedAt,
		})
	}

	return comment, nil
}

// applyVerdict sets status and attribution from an AI verdict and reports
// whether a rejection notice is due
func applyVerdict(c *models.Comment, v *models.Verdict) bool {
	c.Attribution = models.AIAttribution()
	if v.IsAppropriate {
		c.Status = models.CommentStatusApproved
		return false
	}

	reason := v.Reason
	if reason == "" {
		reason = ReasonAIFallback
	}
	c.Status = models.CommentStatusRejected
	c.RejectionReason = &reason
	return true
}

// applyFallback decides from the spam heuristic and the author's history
func (e *Engine) applyFallback(ctx context.Context, c *models.Comment) string {
	if IsSpam(c.Content) {
		reason := ReasonSpamFilter
		c.Status = models.CommentStatusRejected
		c.RejectionReason = &reason
		return PathSpam
	}

	trusted, err := e.trust.IsTrusted(ctx, c.AuthorEmail)
	if err != nil {
		e.log.Warn().Err(err).Str("author_email", c.AuthorEmail).Msg("Trust lookup failed, leaving comment pending")
	}
	if trusted {
		c.Status = models.CommentStatusApproved
		c.Attribution = models.TrustAttribution()
		return PathTrust
	}

	c.Status = models.CommentStatusPending
	return PathPending
}
