package models

import (
	"time"
)

// PostLike represents a user's like on a post.
// The combination of UserID and PostID must be unique.
type PostLike struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_like_user_post" json:"-"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_like_user_post;index" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentLike represents a user's like on a comment.
// The combination of UserID and CommentID must be unique.
type CommentLike struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_comment_like_user_comment" json:"-"`
	CommentID uint      `gorm:"not null;uniqueIndex:idx_comment_like_user_comment;index" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
