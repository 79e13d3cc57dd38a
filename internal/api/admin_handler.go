package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/blog-comments-api/internal/middleware"
	"github.com/blog-comments-api/internal/models"
	"github.com/blog-comments-api/internal/service"
	"github.com/blog-comments-api/internal/validation"
)

const maxListLimit = 500

// AdminHandler serves the moderation panel endpoints
type AdminHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(services *service.Services, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		services: services,
		log:      log.With().Str("handler", "admin").Logger(),
	}
}

// List handles GET /v1/admin/comments?status=&post_id=&author_email=&limit=
func (h *AdminHandler) List(c *gin.Context) {
	filter := models.ListCommentsFilter{
		PostID:      strings.TrimSpace(c.Query("post_id")),
		AuthorEmail: validation.NormalizeEmail(c.Query("author_email")),
	}

	if raw := c.Query("status"); raw != "" {
		status := models.CommentStatus(strings.ToUpper(strings.TrimSpace(raw)))
		if !status.IsValid() {
			badRequest(c, "Estado inválido")
			return
		}
		filter.Status = status
	}

	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	filter.Limit = limit

	comments, err := h.services.Comments.ListComments(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err, "Error al obtener los comentarios")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": toAdminComments(comments),
		"count":    len(comments),
	})
}

// Approve handles POST /v1/admin/comments/:id/approve
func (h *AdminHandler) Approve(c *gin.Context) {
	h.moderate(c, models.CommentStatusApproved, "Comentario aprobado")
}

// Reject handles POST /v1/admin/comments/:id/reject
func (h *AdminHandler) Reject(c *gin.Context) {
	h.moderate(c, models.CommentStatusRejected, "Comentario rechazado")
}

// UpdateStatus handles PATCH /v1/admin/comments/:id/status
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status models.CommentStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Cuerpo de solicitud inválido")
		return
	}
	h.moderate(c, req.Status, "Estado actualizado")
}

func (h *AdminHandler) moderate(c *gin.Context, status models.CommentStatus, message string) {
	comment, err := h.services.Moderation.Moderate(c.Request.Context(), models.ModerateInput{
		CommentID:      c.Param("id"),
		Status:         status,
		ModeratorEmail: middleware.GetModerator(c),
	})
	if err != nil {
		respondError(c, h.log, err, "Error al moderar el comentario")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comment": toAdminComment(comment),
		"message": message,
	})
}

// Delete handles DELETE /v1/admin/comments/:id
func (h *AdminHandler) Delete(c *gin.Context) {
	if err := h.services.Comments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, err, "Error al eliminar el comentario")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Comentario eliminado",
	})
}

// Sentiment handles GET /v1/admin/comments/:id/sentiment
func (h *AdminHandler) Sentiment(c *gin.Context) {
	id := c.Param("id")
	res, err := h.services.Comments.Sentiment(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err, "Error al analizar el comentario")
		return
	}

	var sentiment *models.Sentiment
	if res.Available() {
		sentiment = &res.Sentiment
	}
	c.JSON(http.StatusOK, gin.H{
		"comment_id": id,
		"sentiment":  sentiment,
		"available":  res.Available(),
	})
}

type bulkRequest struct {
	IDs    []string             `json:"ids"`
	Status models.CommentStatus `json:"status"`
}

// BulkModerate handles POST /v1/admin/bulk/comments/moderate
func (h *AdminHandler) BulkModerate(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Cuerpo de solicitud inválido")
		return
	}

	result, err := h.services.Moderation.BulkModerate(c.Request.Context(), req.IDs, req.Status, middleware.GetModerator(c))
	if err != nil {
		respondError(c, h.log, err, "Error al moderar los comentarios")
		return
	}
	c.JSON(http.StatusOK, result)
}

// BulkDelete handles POST /v1/admin/bulk/comments/delete
func (h *AdminHandler) BulkDelete(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Cuerpo de solicitud inválido")
		return
	}

	result, err := h.services.Comments.BulkDelete(c.Request.Context(), req.IDs)
	if err != nil {
		respondError(c, h.log, err, "Error al eliminar los comentarios")
		return
	}
	c.JSON(http.StatusOK, result)
}

// Stats handles GET /v1/admin/stats/comments
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.services.Comments.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Error al obtener las estadísticas")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// PendingCount handles GET /v1/admin/stats/comments/pending
func (h *AdminHandler) PendingCount(c *gin.Context) {
	count, err := h.services.Comments.PendingCount(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err, "Error al obtener las estadísticas")
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": count})
}

// Recent handles GET /v1/admin/stats/comments/recent?limit=
func (h *AdminHandler) Recent(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	comments, err := h.services.Comments.RecentApproved(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.log, err, "Error al obtener los comentarios")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"comments": toAdminComments(comments),
		"count":    len(comments),
	})
}

// parseLimit reads ?limit, writing a 400 and returning false when invalid.
// Zero means the service default.
func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > maxListLimit {
		badRequest(c, "limit debe estar entre 1 y 500")
		return 0, false
	}
	return limit, true
}
