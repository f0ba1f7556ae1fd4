package models

import "time"

// Report targets.
const (
	ReportTargetPost    = "post"
	ReportTargetComment = "comment"
)

// PostReport is one user's report against a post. A reporter may report a
// post at most once.
type PostReport struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	ReporterID uint      `gorm:"not null;uniqueIndex:idx_post_report_reporter_post" json:"-"`
	PostID     uint      `gorm:"not null;uniqueIndex:idx_post_report_reporter_post;index" json:"-"`
	Reason     string    `gorm:"type:text;not null" json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

// CommentReport is one user's report against a comment.
type CommentReport struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	ReporterID uint      `gorm:"not null;uniqueIndex:idx_comment_report_reporter_comment" json:"-"`
	CommentID  uint      `gorm:"not null;uniqueIndex:idx_comment_report_reporter_comment;index" json:"-"`
	Reason     string    `gorm:"type:text;not null" json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}
