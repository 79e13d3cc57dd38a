package models

import (
	"time"
)

// PostStatus represents the publication state of a blog post
type PostStatus string

const (
	PostStatusDraft     PostStatus = "DRAFT"
	PostStatusPublished PostStatus = "PUBLISHED"
)

// Post is the read-only view of a blog post owned by the CMS
type Post struct {
	ID        string     `json:"id" db:"id"`
	Title     string     `json:"title" db:"title"`
	Slug      string     `json:"slug" db:"slug"`
	Status    PostStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// IsPublished reports whether the post accepts comments
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// PostCommentCount pairs a post with the number of comments it received
type PostCommentCount struct {
	PostID       string `json:"post_id"`
	Title        string `json:"title"`
	CommentCount int    `json:"comment_count"`
}
