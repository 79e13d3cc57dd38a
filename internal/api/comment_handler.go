package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/blog-comments-api/internal/models"
	"github.com/blog-comments-api/internal/service"
)

// CommentHandler serves the public comment endpoints of a post
type CommentHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services: services,
		log:      log.With().Str("handler", "comments").Logger(),
	}
}

type submitRequest struct {
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
	Content     string `json:"content"`
}

// Submit handles POST /v1/posts/:post_id/comments
func (h *CommentHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Cuerpo de solicitud inválido")
		return
	}

	comment, err := h.services.Moderation.Submit(c.Request.Context(), models.CreateCommentInput{
		PostID:      c.Param("post_id"),
		AuthorName:  req.AuthorName,
		AuthorEmail: req.AuthorEmail,
		Content:     req.Content,
	})
	if err != nil {
		respondError(c, h.log, err, "Error al crear el comentario")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      comment.ID,
		"status":  comment.Status,
		"message": submitterMessage(comment.Status),
	})
}

// ListApproved handles GET /v1/posts/:post_id/comments
func (h *CommentHandler) ListApproved(c *gin.Context) {
	comments, err := h.services.Comments.ApprovedForPost(c.Request.Context(), c.Param("post_id"))
	if err != nil {
		respondError(c, h.log, err, "Error al obtener los comentarios")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": toPublicComments(comments),
		"count":    len(comments),
	})
}
