package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/blog-comments-api/internal/models"
)

// Display labels for attribution sources
const (
	LabelAIAgent      = "Agente IA"
	LabelTrustHistory = "Auto-aprobado por historial"
	LabelModerator    = "Moderador manual"
)

// Messages shown to the person who submitted a comment. Whether a rejection
// came from the AI or the spam filter is only visible to administrators.
const (
	msgPublished = "Tu comentario ha sido publicado"
	msgPending   = "Tu comentario está pendiente de moderación"
	msgRejected  = "Tu comentario fue rechazado por el filtro de moderación"
)

// AttributionLabel maps an attribution to the label shown in the admin panel
func AttributionLabel(a *models.Attribution) string {
	if a == nil {
		return ""
	}
	switch a.Source {
	case models.SourceAIAgent:
		return LabelAIAgent
	case models.SourceTrustHistory:
		return LabelTrustHistory
	case models.SourceModerator:
		if a.Actor != "" {
			return a.Actor
		}
		return LabelModerator
	}
	return ""
}

func submitterMessage(status models.CommentStatus) string {
	switch status {
	case models.CommentStatusApproved:
		return msgPublished
	case models.CommentStatusRejected:
		return msgRejected
	default:
		return msgPending
	}
}

// adminComment is the moderation view of a comment
type adminComment struct {
	ID               string               `json:"id"`
	PostID           string               `json:"post_id"`
	PostTitle        string               `json:"post_title,omitempty"`
	PostSlug         string               `json:"post_slug,omitempty"`
	AuthorName       string               `json:"author_name"`
	AuthorEmail      string               `json:"author_email"`
	Content          string               `json:"content"`
	Status           models.CommentStatus `json:"status"`
	ApprovedBy       *string              `json:"approved_by"`
	ApprovedBySource *string              `json:"approved_by_source"`
	RejectionReason  *string              `json:"rejection_reason"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

func toAdminComment(c *models.Comment) adminComment {
	out := adminComment{
		ID:              c.ID,
		PostID:          c.PostID,
		AuthorName:      c.AuthorName,
		AuthorEmail:     c.AuthorEmail,
		Content:         c.Content,
		Status:          c.Status,
		RejectionReason: c.RejectionReason,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
	if c.Attribution != nil {
		label := AttributionLabel(c.Attribution)
		source := string(c.Attribution.Source)
		out.ApprovedBy = &label
		out.ApprovedBySource = &source
	}
	return out
}

func toAdminComments(comments []*models.CommentWithPost) []adminComment {
	out := make([]adminComment, 0, len(comments))
	for _, c := range comments {
		view := toAdminComment(&c.Comment)
		view.PostTitle = c.PostTitle
		view.PostSlug = c.PostSlug
		out = append(out, view)
	}
	return out
}

// publicComment omits the author email and moderation details
type publicComment struct {
	ID         string    `json:"id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

func toPublicComments(comments []*models.Comment) []publicComment {
	out := make([]publicComment, 0, len(comments))
	for _, c := range comments {
		out = append(out, publicComment{
			ID:         c.ID,
			AuthorName: c.AuthorName,
			Content:    c.Content,
			CreatedAt:  c.CreatedAt,
		})
	}
	return out
}

// respondError maps service errors to HTTP responses. fallback is the
// message used for unexpected failures.
func respondError(c *gin.Context, log zerolog.Logger, err error, fallback string) {
	var verrs models.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Datos inválidos",
			"details": verrs,
		})
	case errors.Is(err, models.ErrPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Post no encontrado"})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Comentario no encontrado"})
	case errors.Is(err, models.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": "El post no acepta comentarios"})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
