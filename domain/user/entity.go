package user

import (
	"time"
)

// User represents a registered board member. Tasks and log entries hold
// weak references to user IDs; deleting a user leaves those references
// dangling and clients render them as "Unassigned".
type User struct {
	ID           string `gorm:"primaryKey;type:text" json:"id"`
	Username     string `gorm:"uniqueIndex;not null;type:text" json:"username"`
	Email        string `gorm:"not null;type:text" json:"email"`
	PasswordHash string `gorm:"not null;type:text" json:"-"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// Claims represents the identity carried by a verified token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}
