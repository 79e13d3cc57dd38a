package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/blog-comments-api/internal/metrics"
	"github.com/blog-comments-api/internal/models"
	"github.com/blog-comments-api/internal/repository"
)

// Supported export formats
const (
	FormatNDJSON = "ndjson"
	FormatJSON   = "json"
	FormatCSV    = "csv"
)

const flushEvery = 100

var csvHeader = []string{
	"id", "post_id", "post_title", "author_name", "author_email", "content", "status",
	"approved_by_source", "approved_by", "rejection_reason", "created_at", "updated_at",
}

// exportService is the concrete implementation of ExportService
type exportService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repos *repository.Repositories, log zerolog.Logger) *exportService {
	return &exportService{
		repos: repos,
		log:   log.With().Str("service", "export").Logger(),
	}
}

// StreamComments writes the moderation audit trail of every comment
func (s *exportService) StreamComments(ctx context.Context, w http.ResponseWriter, format string) error {
	s.log.Info().Str("format", format).Msg("Starting comments export")
	start := time.Now()

	var (
		count int
		err   error
	)
	switch format {
	case FormatNDJSON:
		count, err = s.streamNDJSON(ctx, w)
	case FormatJSON:
		count, err = s.streamJSON(ctx, w)
	case FormatCSV:
		count, err = s.streamCSV(ctx, w)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}

	result := "success"
	if err != nil {
		result = "error"
	}
	metrics.ObserveExport(format, result, count)
	s.log.Info().
		Int("count", count).
		Dur("duration", time.Since(start)).
		Str("result", result).
		Msg("Comments export completed")
	return err
}

func (s *exportService) streamNDJSON(ctx context.Context, w http.ResponseWriter) (int, error) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", "attachment; filename=comments.ndjson")

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	count := 0

	err := s.repos.Comment.StreamAll(ctx, func(c *models.CommentWithPost) error {
		if err := enc.Encode(c); err != nil {
			return err
		}
		count++
		if count%flushEvery == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	return count, err
}

func (s *exportService) streamJSON(ctx context.Context, w http.ResponseWriter) (int, error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=comments.json")

	if _, err := w.Write([]byte("[")); err != nil {
		return 0, err
	}
	count := 0

	err := s.repos.Comment.StreamAll(ctx, func(c *models.CommentWithPost) error {
		if count > 0 {
			if _, err := w.Write([]byte(",")); err != nil {
				return err
			}
		}
		data, err := json.Marshal(c)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		count++
		return nil
	})

	if _, werr := w.Write([]byte("]")); err == nil {
		err = werr
	}
	return count, err
}

func (s *exportService) streamCSV(ctx context.Context, w http.ResponseWriter) (int, error) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=comments.csv")

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return 0, err
	}
	count := 0

	err := s.repos.Comment.StreamAll(ctx, func(c *models.CommentWithPost) error {
		var source, actor, reason string
		if c.Attribution != nil {
			source = string(c.Attribution.Source)
			actor = c.Attribution.Actor
		}
		if c.RejectionReason != nil {
			reason = *c.RejectionReason
		}
		count++
		return writer.Write([]string{
			c.ID,
			c.PostID,
			c.PostTitle,
			c.AuthorName,
			c.AuthorEmail,
			c.Content,
			string(c.Status),
			source,
			actor,
			reason,
			c.CreatedAt.UTC().Format(time.RFC3339),
			c.UpdatedAt.UTC().Format(time.RFC3339),
		})
	})

	writer.Flush()
	if err == nil {
		err = writer.Error()
	}
	return count, err
}
