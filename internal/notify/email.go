// Package notify delivers rejection notices for comments the AI classifier
// rejected. Sends happen off the request path and never fail a submission.
package notify

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/blog-comments-api/internal/config"
	"github.com/blog-comments-api/internal/models"
)

// DevModeEmailID is the id returned when sends are only logged
const DevModeEmailID = "dev-mode"

//go:embed templates/*.html
var templateFS embed.FS

var rejectedTemplate = template.Must(template.ParseFS(templateFS, "templates/comment_rejected.html"))

// ErrSendFailed is returned when the mail API does not accept a message
var ErrSendFailed = errors.New("email send failed")

// Sender delivers one rejection notice
type Sender interface {
	Send(ctx context.Context, notice models.RejectionNotice) models.SendResult
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	CC      []string `json:"cc,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID string `json:"id"`
}

type templateData struct {
	models.RejectionNotice
	Date     string
	AdminURL string
	AppName  string
}

// EmailSender sends notices through the Resend HTTP API. Outside
// production it only logs them.
type EmailSender struct {
	cfg        config.NotifyConfig
	production bool
	http       *retryablehttp.Client
	log        zerolog.Logger
}

// NewEmailSender creates an EmailSender
func NewEmailSender(cfg config.NotifyConfig, production bool, log zerolog.Logger) *EmailSender {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = 2
	httpClient.Logger = nil

	return &EmailSender{
		cfg:        cfg,
		production: production,
		http:       httpClient,
		log:        log.With().Str("component", "email").Logger(),
	}
}

// Send delivers notice to the primary recipient with the copy recipient in CC
func (s *EmailSender) Send(ctx context.Context, notice models.RejectionNotice) models.SendResult {
	subject := fmt.Sprintf("Comentario rechazado en \"%s\"", notice.PostTitle)

	if !s.production {
		s.log.Info().
			Str("to", s.cfg.PrimaryRecipient).
			Str("cc", s.cfg.CopyRecipient).
			Str("subject", subject).
			Str("comment_id", notice.CommentID).
			Str("post_title", notice.PostTitle).
			Str("author_name", notice.AuthorName).
			Str("author_email", notice.AuthorEmail).
			Str("reason", notice.Reason).
			Str("content", notice.Content).
			Time("date", notice.Date).
			Msg("Rejection notice (not sent outside production)")
		return models.SendResult{Success: true, EmailID: DevModeEmailID}
	}

	html, err := s.render(notice)
	if err != nil {
		return models.SendResult{Err: err}
	}

	msg := resendRequest{
		From:    fmt.Sprintf("%s <%s>", s.cfg.AppName, s.cfg.From),
		To:      []string{s.cfg.PrimaryRecipient},
		Subject: subject,
		HTML:    html,
	}
	if s.cfg.CopyRecipient != "" {
		msg.CC = []string{s.cfg.CopyRecipient}
	}

	id, err := s.post(ctx, msg)
	if err != nil {
		return models.SendResult{Err: err}
	}
	return models.SendResult{Success: true, EmailID: id}
}

func (s *EmailSender) render(notice models.RejectionNotice) (string, error) {
	var buf bytes.Buffer
	err := rejectedTemplate.Execute(&buf, templateData{
		RejectionNotice: notice,
		Date:            notice.Date.Format("02/01/2006 15:04"),
		AdminURL:        strings.TrimRight(s.cfg.AppURL, "/") + "/admin/comments",
		AppName:         s.cfg.AppName,
	})
	if err != nil {
		return "", fmt.Errorf("render rejection notice: %w", err)
	}
	return buf.String(), nil
}

func (s *EmailSender) post(ctx context.Context, msg resendRequest) (string, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("encode email: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.cfg.ResendURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.ResendAPIKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: status %d: %s", ErrSendFailed, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var out resendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrSendFailed, err)
	}
	return out.ID, nil
}
