package models

import "time"

// Session is a bearer session. Only the sha256 fingerprint of the token is stored.
type Session struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	TokenHash string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"-"`
	IP        string    `gorm:"size:64" json:"ip"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// LoginCookie is a remember-me series. SeriesIdentifier is stable across
// rotations, TokenHash changes on every successful use.
type LoginCookie struct {
	ID               uint      `gorm:"primaryKey" json:"-"`
	SeriesIdentifier string    `gorm:"size:32;uniqueIndex;not null" json:"series_identifier"`
	TokenHash        string    `gorm:"size:64;not null" json:"-"`
	UserID           uint      `gorm:"not null;index" json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
