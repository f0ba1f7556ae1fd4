// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// NoResetCode marks a user without an active password reset.
const NoResetCode = -1

// User represents an account of the social network.
type User struct {
	ID                 uint       `gorm:"primaryKey" json:"-"`
	Identifier         string     `gorm:"size:32;uniqueIndex;not null" json:"identifier"`
	Username           string     `gorm:"uniqueIndex;not null" json:"username"`
	Email              string     `gorm:"uniqueIndex;not null" json:"-"`
	PasswordHash       string     `gorm:"not null" json:"-"`
	ResetCode          int        `gorm:"not null;default:-1" json:"-"`
	ResetCodeExpiresAt *time.Time `json:"-"`
	ResetVerifiedUntil *time.Time `json:"-"`
	IdentityIsVerified bool       `gorm:"not null;default:false" json:"identity_is_verified"`
	IsAdult            bool       `gorm:"not null;default:false" json:"is_adult"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// HasActiveResetCode reports whether a reset code is outstanding at now.
func (u *User) HasActiveResetCode(now time.Time) bool {
	if u.ResetCode < 0 {
		return false
	}
	return u.ResetCodeExpiresAt == nil || now.Before(*u.ResetCodeExpiresAt)
}

// ResetVerified reports whether a verified reset window is open at now.
func (u *User) ResetVerified(now time.Time) bool {
	return u.ResetVerifiedUntil != nil && now.Before(*u.ResetVerifiedUntil)
}
