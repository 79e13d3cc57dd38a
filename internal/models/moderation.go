package models

import (
	"time"
)

// VerdictCategory classifies why a comment is or is not appropriate
type VerdictCategory string

const (
	CategorySpam        VerdictCategory = "spam"
	CategoryOffensive   VerdictCategory = "offensive"
	CategoryOffTopic    VerdictCategory = "off-topic"
	CategoryLowQuality  VerdictCategory = "low-quality"
	CategoryAppropriate VerdictCategory = "appropriate"
)

// Verdict is a validated AI classification of a comment
type Verdict struct {
	IsAppropriate bool            `json:"is_appropriate"`
	Reason        string          `json:"reason,omitempty"`
	Confidence    float64         `json:"confidence"`
	Category      VerdictCategory `json:"category"`
}

// ClassifierResult is either a usable verdict or the cause it is unavailable
type ClassifierResult struct {
	Verdict *Verdict
	Cause   error
}

// VerdictOK wraps a validated verdict
func VerdictOK(v Verdict) ClassifierResult {
	return ClassifierResult{Verdict: &v}
}

// Unavailable reports that no verdict could be produced
func Unavailable(cause error) ClassifierResult {
	return ClassifierResult{Cause: cause}
}

// Available reports whether the result carries a verdict
func (r ClassifierResult) Available() bool {
	return r.Verdict != nil
}

// Sentiment is the coarse tone of a comment
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// SentimentResult is either a sentiment signal or the cause it is missing
type SentimentResult struct {
	Sentiment Sentiment
	Cause     error
}

// Available reports whether the result carries a signal
func (r SentimentResult) Available() bool {
	return r.Sentiment != ""
}

// AttributionSource is the mechanism responsible for an approval
type AttributionSource string

const (
	SourceAIAgent      AttributionSource = "ai_agent"
	SourceTrustHistory AttributionSource = "trust_history"
	SourceModerator    AttributionSource = "moderator"
)

// IsValid reports whether s is a known attribution source
func (s AttributionSource) IsValid() bool {
	switch s {
	case SourceAIAgent, SourceTrustHistory, SourceModerator:
		return true
	}
	return false
}

// Attribution records who or what decided a comment's current status.
// Actor is only set for SourceModerator and may be empty when unknown.
type Attribution struct {
	Source AttributionSource `json:"source"`
	Actor  string            `json:"actor,omitempty"`
}

// AIAttribution returns the attribution used for AI decisions
func AIAttribution() *Attribution {
	return &Attribution{Source: SourceAIAgent}
}

// TrustAttribution returns the attribution used for history auto-approval
func TrustAttribution() *Attribution {
	return &Attribution{Source: SourceTrustHistory}
}

// ModeratorAttribution returns the attribution for a manual approval
func ModeratorAttribution(email string) *Attribution {
	return &Attribution{Source: SourceModerator, Actor: email}
}

// RejectionNotice is the content of an automated rejection notification
type RejectionNotice struct {
	CommentID   string    `json:"comment_id"`
	Content     string    `json:"content"`
	PostTitle   string    `json:"post_title"`
	AuthorName  string    `json:"author_name"`
	AuthorEmail string    `json:"author_email"`
	Reason      string    `json:"reason"`
	Date        time.Time `json:"date"`
}

// SendResult is the outcome of a notification send
type SendResult struct {
	Success bool
	EmailID string
	Err     error
}

// ClassifyRequest is the context sent to the AI classifier for one comment
type ClassifyRequest struct {
	Content     string
	PostTitle   string
	AuthorName  string
	AuthorEmail string
}
