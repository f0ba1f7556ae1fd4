package models

import (
	"time"
)

// CommentThread anchors one top-level comment chain under a post.
type CommentThread struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	Identifier string    `gorm:"size:32;uniqueIndex;not null" json:"comment_thread_identifier"`
	PostID     uint      `gorm:"not null;index" json:"-"`
	Post       Post      `gorm:"foreignKey:PostID" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// LikesCount is the sum of likes over the thread's visible comments (computed)
	LikesCount int64 `gorm:"->;-:migration" json:"thread_likes"`
}

func (t *CommentThread) LikeCount() int64        { return t.LikesCount }
func (t *CommentThread) CreationTime() time.Time { return t.CreatedAt }
func (t *CommentThread) Key() string             { return t.Identifier }

// Comment is a single entry of a comment thread.
type Comment struct {
	ID         uint          `gorm:"primaryKey" json:"-"`
	Identifier string        `gorm:"size:32;uniqueIndex;not null" json:"comment_identifier"`
	ThreadID   uint          `gorm:"not null;index" json:"-"`
	Thread     CommentThread `gorm:"foreignKey:ThreadID" json:"-"`
	AuthorID   uint          `gorm:"not null;index" json:"-"`
	Author     User          `gorm:"foreignKey:AuthorID" json:"-"`
	Body       string        `gorm:"type:text;not null" json:"body"`
	Hidden     bool          `gorm:"not null;default:false" json:"-"`
	CreatedAt  time.Time     `json:"creation_time"`
	UpdatedAt  time.Time     `json:"updated_time"`

	// LikesCount is not persisted; computed at query time
	LikesCount int64 `gorm:"->;-:migration" json:"comment_likes"`
	// AuthorUsername is not persisted; joined at query time
	AuthorUsername string `gorm:"->;-:migration" json:"author_username"`
}

func (c *Comment) LikeCount() int64        { return c.LikesCount }
func (c *Comment) CreationTime() time.Time { return c.CreatedAt }
func (c *Comment) Key() string             { return c.Identifier }
