// Package classifier talks to an OpenAI-compatible chat completions gateway
// to moderate comments and estimate their sentiment. Every failure is
// returned as an unavailable result, never as an error.
package classifier

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/blog-comments-api/internal/config"
	"github.com/blog-comments-api/internal/metrics"
	"github.com/blog-comments-api/internal/models"
)

const (
	maxResponseBytes = 1 << 20
	defaultTimeout   = 15 * time.Second
)

// Causes reported with unavailable results
var (
	ErrMissingAPIKey   = errors.New("AI gateway API key is not configured")
	ErrBadStatus       = errors.New("AI gateway returned a non-2xx status")
	ErrEmptyResponse   = errors.New("AI gateway returned no choices")
	ErrInvalidResponse = errors.New("AI gateway response does not match the schema")
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonSchemaFormat struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type responseFormat struct {
	Type       string           `json:"type"`
	JSONSchema jsonSchemaFormat `json:"json_schema"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens,omitempty"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// verdictPayload mirrors the verdict schema. Pointers distinguish missing
// fields from zero values.
type verdictPayload struct {
	IsAppropriate *bool    `json:"isAppropriate" validate:"required"`
	Reason        string   `json:"reason"`
	Confidence    *float64 `json:"confidence" validate:"required,gte=0,lte=1"`
	Category      string   `json:"category" validate:"required,oneof=spam offensive off-topic low-quality appropriate"`
}

type sentimentPayload struct {
	Sentiment string `json:"sentiment" validate:"required,oneof=positive neutral negative"`
}

// Client is the AI classifier gateway
type Client struct {
	cfg      config.AIConfig
	http     *retryablehttp.Client
	validate *validator.Validate
	cache    *cache.Cache
	log      zerolog.Logger
}

// New creates a Client. Calls are bounded by cfg.Timeout including retries.
func New(cfg config.AIConfig, log zerolog.Logger) *Client {
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = cfg.RetryMax
	httpClient.RetryWaitMin = 200 * time.Millisecond
	httpClient.RetryWaitMax = 2 * time.Second
	httpClient.Logger = nil

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	ttl := cfg.SentimentCacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &Client{
		cfg:      cfg,
		http:     httpClient,
		validate: validator.New(),
		cache:    cache.New(ttl, 2*ttl),
		log:      log.With().Str("component", "classifier").Logger(),
	}
}

// Classify asks the gateway for a moderation verdict
func (c *Client) Classify(ctx context.Context, req models.ClassifyRequest) models.ClassifierResult {
	start := time.Now()

	verdict, err := c.classify(ctx, req)
	if err != nil {
		metrics.ObserveClassifierCall("classify", outcome(err), time.Since(start))
		c.log.Warn().Err(err).Msg("Moderation verdict unavailable")
		return models.Unavailable(err)
	}

	metrics.ObserveClassifierCall("classify", "ok", time.Since(start))
	c.log.Debug().
		Bool("is_appropriate", verdict.IsAppropriate).
		Str("category", string(verdict.Category)).
		Float64("confidence", verdict.Confidence).
		Msg("Moderation verdict received")
	return models.VerdictOK(verdict)
}

func (c *Client) classify(ctx context.Context, req models.ClassifyRequest) (models.Verdict, error) {
	content, err := c.complete(ctx, "moderation_verdict", verdictSchema, []chatMessage{
		{Role: "system", Content: moderationSystemPrompt},
		{Role: "user", Content: moderationUserPrompt(req.PostTitle, req.AuthorName, req.AuthorEmail, req.Content)},
	})
	if err != nil {
		return models.Verdict{}, err
	}
	return c.parseVerdict(content)
}

// parseVerdict decodes and validates a verdict document
func (c *Client) parseVerdict(content string) (models.Verdict, error) {
	var p verdictPayload
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &p); err != nil {
		return models.Verdict{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if err := c.validate.Struct(p); err != nil {
		return models.Verdict{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	return models.Verdict{
		IsAppropriate: *p.IsAppropriate,
		Reason:        strings.TrimSpace(p.Reason),
		Confidence:    *p.Confidence,
		Category:      models.VerdictCategory(p.Category),
	}, nil
}

// Sentiment returns the tone of content. Successful answers are cached by
// content hash.
func (c *Client) Sentiment(ctx context.Context, content string) models.SentimentResult {
	key := contentKey(content)
	if cached, ok := c.cache.Get(key); ok {
		return models.SentimentResult{Sentiment: cached.(models.Sentiment)}
	}

	start := time.Now()
	sentiment, err := c.sentiment(ctx, content)
	if err != nil {
		metrics.ObserveClassifierCall("sentiment", outcome(err), time.Since(start))
		c.log.Warn().Err(err).Msg("Sentiment unavailable")
		return models.SentimentResult{Cause: err}
	}

	metrics.ObserveClassifierCall("sentiment", "ok", time.Since(start))
	c.cache.SetDefault(key, sentiment)
	return models.SentimentResult{Sentiment: sentiment}
}

func (c *Client) sentiment(ctx context.Context, content string) (models.Sentiment, error) {
	raw, err := c.complete(ctx, "comment_sentiment", sentimentSchema, []chatMessage{
		{Role: "user", Content: sentimentUserPrompt(content)},
	})
	if err != nil {
		return "", err
	}
	return c.parseSentiment(raw)
}

func (c *Client) parseSentiment(content string) (models.Sentiment, error) {
	var p sentimentPayload
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &p); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if err := c.validate.Struct(p); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return models.Sentiment(p.Sentiment), nil
}

// complete runs one structured chat completion and returns the message text
func (c *Client) complete(ctx context.Context, name string, schema map[string]any, messages []chatMessage) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrMissingAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		ResponseFormat: responseFormat{
			Type:       "json_schema",
			JSONSchema: jsonSchemaFormat{Name: name, Schema: schema},
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	url := strings.TrimRight(c.cfg.GatewayURL, "/") + "/chat/completions"
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return "", fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return parsed.Choices[0].Message.Content, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrMissingAPIKey):
		return "skipped"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrInvalidResponse), errors.Is(err, ErrEmptyResponse):
		return "invalid"
	default:
		return "error"
	}
}

// stripCodeFence removes a markdown code fence some models wrap JSON in
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func contentKey(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
