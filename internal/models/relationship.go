package models

import "time"

// Follow is a directed follower -> followee edge.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follow_pair" json:"-"`
	FolloweeID uint      `gorm:"not null;uniqueIndex:idx_follow_pair;index" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// Block is a directed blocker -> blocked edge. For visibility it applies in
// both directions.
type Block struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	BlockerID uint      `gorm:"not null;uniqueIndex:idx_block_pair" json:"-"`
	BlockedID uint      `gorm:"not null;uniqueIndex:idx_block_pair;index" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
