package models

import "time"

// User represents a registered account. Users are created on registration and
// never mutated afterwards.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null;type:varchar(255)"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null;type:varchar(255)"` // No json for security
	CreatedAt    time.Time `json:"created_at"`
}

// Session is the server-trusted identity carried by a signed session token.
type Session struct {
	ID        string
	UserID    uint
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at t.
func (s Session) Expired(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}
