package models

import (
	"time"
)

// CommentStatus represents the moderation status of a comment
type CommentStatus string

const (
	CommentStatusPending  CommentStatus = "PENDING"
	CommentStatusApproved CommentStatus = "APPROVED"
	CommentStatusRejected CommentStatus = "REJECTED"
)

// ValidCommentStatuses defines allowed comment statuses
var ValidCommentStatuses = map[CommentStatus]bool{
	CommentStatusPending:  true,
	CommentStatusApproved: true,
	CommentStatusRejected: true,
}

// IsValid reports whether s is one of the known statuses
func (s CommentStatus) IsValid() bool {
	return ValidCommentStatuses[s]
}

// Content and author limits, counted in characters
const (
	MaxCommentLength    = 1000
	MaxAuthorNameLength = 100
	MaxEmailLength      = 254
)

// Comment represents a reader comment on a post
type Comment struct {
	ID              string        `json:"id" db:"id"`
	PostID          string        `json:"post_id" db:"post_id"`
	AuthorName      string        `json:"author_name" db:"author_name"`
	AuthorEmail     string        `json:"author_email" db:"author_email"`
	Content         string        `json:"content" db:"content"`
	Status          CommentStatus `json:"status" db:"status"`
	Attribution     *Attribution  `json:"approved_by,omitempty" db:"-"`
	RejectionReason *string       `json:"rejection_reason,omitempty" db:"rejection_reason"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// CommentWithPost is a comment joined with the title and slug of its post.
// PostTitle and PostSlug are empty when the post no longer exists.
type CommentWithPost struct {
	Comment
	PostTitle string `json:"post_title"`
	PostSlug  string `json:"post_slug"`
}

// CreateCommentInput is the untrusted payload of a public submission
type CreateCommentInput struct {
	PostID      string `json:"post_id"`
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
	Content     string `json:"content"`
}

// ModerateInput is a manual moderation request for a single comment
type ModerateInput struct {
	CommentID      string        `json:"comment_id"`
	Status         CommentStatus `json:"status"`
	ModeratorEmail string        `json:"-"`
}

// ListCommentsFilter narrows the admin listing; empty fields are ignored
type ListCommentsFilter struct {
	PostID      string
	Status      CommentStatus
	AuthorEmail string
	Limit       int
}

// CommentStats summarizes the comment table for the admin dashboard
type CommentStats struct {
	Total             int               `json:"total"`
	Approved          int               `json:"approved"`
	Pending           int               `json:"pending"`
	Rejected          int               `json:"rejected"`
	UniqueCommenters  int               `json:"unique_commenters"`
	MostCommentedPost *PostCommentCount `json:"most_commented_post,omitempty"`
}

// BulkResult aggregates the outcome of a bulk operation.
// Individual failure reasons are not itemized.
type BulkResult struct {
	Success   bool   `json:"success"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Message   string `json:"message"`
}
