package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	AuthTypeLocal = "local"
	AuthTypeLDAP  = "ldap"
)

// User is a club member. RunCount is only ever increased, by the tally job.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:100" json:"name"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string         `gorm:"size:255" json:"-"` // bcrypt hash, empty for LDAP users
	AuthType  string         `gorm:"size:20;default:local" json:"authType"`
	Image     string         `gorm:"size:500" json:"image,omitempty"`
	RunCount  int            `gorm:"not null;default:0" json:"runCount"`
	IsActive  bool           `gorm:"default:true" json:"isActive"`
	LastLogin *time.Time     `json:"lastLogin,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

// DisplayName falls back to the email when no name was given.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Status derives the member's status tier from RunCount.
func (u *User) Status() UserStatus {
	return GetUserStatus(u.RunCount)
}
