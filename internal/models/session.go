package models

import "time"

// Session is a signed-in browser or client. The session token references it
// by ID; revoking the row invalidates the token.
type Session struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"userId"`
	User      *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ExpiresAt time.Time  `gorm:"index;not null" json:"expiresAt"`
	RevokedAt *time.Time `gorm:"index" json:"-"`
	IP        string     `gorm:"size:64" json:"ipAddress,omitempty"`
	UserAgent string     `gorm:"size:255" json:"userAgent,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (Session) TableName() string { return "sessions" }

// Active reports whether the session can still authenticate requests.
func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
