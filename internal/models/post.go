package models

import (
	"time"
)

// Post is an image post with a caption.
type Post struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	Identifier string    `gorm:"size:32;uniqueIndex;not null" json:"post_identifier"`
	AuthorID   uint      `gorm:"not null;index" json:"-"`
	Author     User      `gorm:"foreignKey:AuthorID" json:"-"`
	ImageURL   string    `gorm:"not null" json:"image_url"`
	Caption    string    `gorm:"type:text;not null" json:"caption"`
	Hidden     bool      `gorm:"not null;default:false;index" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// LikesCount is not persisted; computed at query time
	LikesCount int64 `gorm:"->;-:migration" json:"post_likes"`
	// AuthorUsername is not persisted; joined at query time
	AuthorUsername string `gorm:"->;-:migration" json:"author_username"`
}

// LikeCount implements ranking.Item.
func (p *Post) LikeCount() int64 { return p.LikesCount }

// CreationTime implements ranking.Item.
func (p *Post) CreationTime() time.Time { return p.CreatedAt }

// Key implements ranking.Item.
func (p *Post) Key() string { return p.Identifier }
